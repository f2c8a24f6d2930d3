// Package main is the entrypoint for the dataset/inference API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/api"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/api/handler"
	mw "github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/api/middleware"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/config"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/content"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/dataset"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/dedup"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/delegate"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/inference"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/ledger"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/pricing"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/queue"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/store"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/user"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env, "workers", cfg.Queue.Workers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis-backed job queue
	jobQueue, err := queue.NewRedisQueue(cfg.Redis.URL, cfg.Queue.ProgressTTL)
	if err != nil {
		return fmt.Errorf("create job queue: %w", err)
	}
	defer jobQueue.Close()

	if err := jobQueue.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Build the domain services
	pgStore := store.NewPostgresStore(pool)

	engine := pricing.NewEngine(cfg.Pricing, pricing.NewFFprobeCounter())
	accounts := ledger.NewLedger(pgStore)
	detector := dedup.NewDetector(pgStore, cfg.Overlap)
	delegateClient := delegate.NewHTTPClient(
		cfg.Delegate.BaseURL, cfg.Delegate.Timeout,
		cfg.Delegate.MaxPayloadBytes, cfg.Delegate.RetryBackoff)

	userSvc := user.NewService(pgStore, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	datasetSvc := dataset.NewService(pgStore, detector)
	contentSvc := content.NewService(pgStore, engine, detector, accounts)
	inferenceSvc := inference.NewService(pgStore, engine, accounts, jobQueue)

	// 6. Start the worker pool
	worker := queue.NewWorker(jobQueue, delegateClient, accounts, pgStore)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(ctx, cfg.Queue.Workers)
	})
	slog.Info("worker pool started", "workers", cfg.Queue.Workers)

	// 7. Build router with dependencies
	deps := api.Dependencies{
		Auth:      mw.NewAuth(userSvc),
		RateLimit: mw.NewRateLimit(jobQueue, cfg.Server.RateLimitPerMin),

		HealthHandler:   handler.NewHealthHandler(pgStore, jobQueue),
		RegisterHandler: handler.NewRegisterHandler(userSvc),
		LoginHandler:    handler.NewLoginHandler(userSvc),

		CreateDataset: handler.NewCreateDatasetHandler(datasetSvc),
		ListDatasets:  handler.NewListDatasetsHandler(datasetSvc),
		GetDataset:    handler.NewGetDatasetHandler(datasetSvc),
		UpdateDataset: handler.NewUpdateDatasetHandler(datasetSvc),
		DeleteDataset: handler.NewDeleteDatasetHandler(datasetSvc),

		UploadContent: handler.NewUploadContentHandler(contentSvc),

		StartInference: handler.NewStartInferenceHandler(inferenceSvc),
		JobStatus:      handler.NewJobStatusHandler(inferenceSvc),

		BalanceHandler:  handler.NewBalanceHandler(userSvc),
		RechargeHandler: handler.NewRechargeHandler(userSvc),
	}
	router := api.NewRouter(deps)

	// 8. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g.Go(func() error {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Shut the server down once the signal context or a component fails.
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutdown signal received, draining connections...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("server stopped gracefully")
	return nil
}

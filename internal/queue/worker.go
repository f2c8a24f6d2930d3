package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/delegate"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/ledger"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/pkg/models"
)

const dequeueTimeout = 5 * time.Second

// Recorder persists the durable outcome of a completed job.
type Recorder interface {
	CreateInference(ctx context.Context, inference *models.Inference) error
}

// Debiter charges a user's token balance after a successful delegate call.
type Debiter interface {
	Debit(ctx context.Context, userID uuid.UUID, amount float64) error
}

// Worker executes inference jobs pulled from the queue.
type Worker struct {
	queue    Queue
	delegate delegate.Client
	ledger   Debiter
	recorder Recorder
}

// NewWorker creates a new Worker.
func NewWorker(q Queue, client delegate.Client, l Debiter, r Recorder) *Worker {
	return &Worker{
		queue:    q,
		delegate: client,
		ledger:   l,
		recorder: r,
	}
}

// Run requeues jobs stranded by a previous run, then starts count
// workers pulling jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context, count int) error {
	recovered, err := w.queue.RecoverProcessing(ctx)
	if err != nil {
		return fmt.Errorf("recovering unacknowledged jobs: %w", err)
	}
	if recovered > 0 {
		slog.Info("requeued unacknowledged jobs", "count", recovered)
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < count; i++ {
		worker := i
		g.Go(func() error {
			return w.loop(ctx, worker)
		})
	}
	return g.Wait()
}

func (w *Worker) loop(ctx context.Context, worker int) error {
	slog.Info("worker started", "worker", worker)
	for {
		job, err := w.queue.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("worker stopping", "worker", worker)
				return nil
			}
			slog.Error("dequeue failed", "worker", worker, "error", err)
			continue
		}
		if job == nil {
			if ctx.Err() != nil {
				slog.Info("worker stopping", "worker", worker)
				return nil
			}
			continue
		}

		w.process(ctx, job)

		if err := w.queue.Ack(ctx, job); err != nil {
			slog.Error("ack failed", "worker", worker, "job_id", job.ID, "error", err)
		}
	}
}

// process runs one job to a terminal state. The job itself never
// returns an error upward; every failure is recorded in progress so
// pollers can observe it.
func (w *Worker) process(ctx context.Context, job *models.Job) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic processing job", "job_id", job.ID, "error", r)
			w.fail(ctx, job, http.StatusInternalServerError, fmt.Sprintf("panic: %v", r))
		}
	}()

	slog.Info("processing job", "job_id", job.ID, "dataset_id", job.DatasetID, "model_id", job.ModelID)
	w.setProgress(ctx, job, models.JobStateRunning, "Job in progress", 0, nil)

	contents := make([]*models.Content, 0, len(job.Contents))
	for i := range job.Contents {
		contents = append(contents, &job.Contents[i])
	}

	result, err := w.delegate.Predict(ctx, contents, job.ModelID)
	if err != nil {
		var appErr *delegate.AppError
		if errors.As(err, &appErr) {
			slog.Warn("delegate rejected job", "job_id", job.ID, "code", appErr.Code, "error", appErr.Message)
			w.fail(ctx, job, appErr.Code, appErr.Message)
			return
		}
		slog.Error("delegate call failed", "job_id", job.ID, "error", err)
		w.fail(ctx, job, http.StatusInternalServerError, err.Error())
		return
	}

	// Tokens are charged only once the delegate has produced a result.
	if err := w.ledger.Debit(ctx, job.UserID, job.Cost); err != nil {
		if errors.Is(err, ledger.ErrInsufficientTokens) {
			w.fail(ctx, job, http.StatusUnauthorized, "insufficient tokens")
			return
		}
		slog.Error("debit failed", "job_id", job.ID, "error", err)
		w.fail(ctx, job, http.StatusInternalServerError, err.Error())
		return
	}

	now := time.Now().UTC()
	inference := &models.Inference{
		ID:        uuid.New(),
		DatasetID: job.DatasetID,
		UserID:    job.UserID,
		ModelID:   job.ModelID,
		Status:    models.InferenceStatusCompleted,
		Cost:      job.Cost,
		Result:    json.RawMessage(result),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := w.recorder.CreateInference(ctx, inference); err != nil {
		slog.Error("storing inference failed", "job_id", job.ID, "error", err)
		w.fail(ctx, job, http.StatusInternalServerError, err.Error())
		return
	}

	w.setProgress(ctx, job, models.JobStateCompleted, "Job completed", 0, &inference.ID)
	slog.Info("job completed", "job_id", job.ID, "inference_id", inference.ID, "cost", job.Cost)
}

func (w *Worker) fail(ctx context.Context, job *models.Job, code int, message string) {
	w.setProgress(ctx, job, models.JobStateFailed, message, code, nil)
}

func (w *Worker) setProgress(ctx context.Context, job *models.Job, state, message string, code int, inferenceID *uuid.UUID) {
	progress := &models.JobProgress{
		JobID:       job.ID,
		State:       state,
		Message:     message,
		ErrorCode:   code,
		DatasetID:   job.DatasetID,
		UserID:      job.UserID,
		InferenceID: inferenceID,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := w.queue.SetProgress(ctx, progress); err != nil {
		slog.Error("updating progress failed", "job_id", job.ID, "state", state, "error", err)
	}
}

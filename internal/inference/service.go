package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/ledger"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/store"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/pkg/models"
)

// Sentinel errors for inference job validation.
var (
	ErrInvalidModel = errors.New("invalid model id")
	ErrEmptyDataset = errors.New("dataset has no contents")
	ErrUnauthorized = errors.New("unauthorized")
)

// Catalog reads the dataset records an inference job runs against.
type Catalog interface {
	GetDataset(ctx context.Context, id uuid.UUID) (*models.Dataset, error)
	ListContentsByDataset(ctx context.Context, datasetID uuid.UUID) ([]*models.Content, error)
	GetInference(ctx context.Context, id uuid.UUID) (*models.Inference, error)
}

// Pricer computes the token cost of running a model over a content batch.
type Pricer interface {
	InferenceCost(contents []*models.Content) float64
}

// Balancer reads a user's token balance.
type Balancer interface {
	Balance(ctx context.Context, userID uuid.UUID) (float64, error)
}

// Enqueuer hands jobs to the queue and exposes their progress.
type Enqueuer interface {
	Enqueue(ctx context.Context, job *models.Job) error
	GetProgress(ctx context.Context, jobID uuid.UUID) (*models.JobProgress, error)
}

// JobStatus is the poller-visible outcome of a status check. Result is
// populated only for completed jobs.
type JobStatus struct {
	JobID     uuid.UUID         `json:"job_id"`
	State     string            `json:"state"`
	Message   string            `json:"message"`
	ErrorCode int               `json:"error_code,omitempty"`
	Result    *models.Inference `json:"result,omitempty"`
}

// Service validates and starts inference jobs and answers status polls.
type Service struct {
	catalog Catalog
	pricer  Pricer
	ledger  Balancer
	queue   Enqueuer
}

// NewService creates a new inference Service.
func NewService(catalog Catalog, pricer Pricer, l Balancer, q Enqueuer) *Service {
	return &Service{
		catalog: catalog,
		pricer:  pricer,
		ledger:  l,
		queue:   q,
	}
}

// Start validates the request and enqueues an inference job, returning
// its ID without waiting for execution. The user's balance is checked
// up front so an unaffordable job is refused before anything is queued;
// the actual debit happens in the worker after the delegate succeeds.
func (s *Service) Start(ctx context.Context, datasetID, userID uuid.UUID, modelID int) (uuid.UUID, error) {
	if modelID < 1 || modelID > 3 {
		return uuid.Nil, fmt.Errorf("%w: %d", ErrInvalidModel, modelID)
	}

	dataset, err := s.catalog.GetDataset(ctx, datasetID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("loading dataset: %w", err)
	}
	if dataset.UserID != userID {
		return uuid.Nil, ErrUnauthorized
	}

	contents, err := s.catalog.ListContentsByDataset(ctx, datasetID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("loading contents: %w", err)
	}
	if len(contents) == 0 {
		return uuid.Nil, ErrEmptyDataset
	}

	cost := s.pricer.InferenceCost(contents)

	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("reading balance: %w", err)
	}
	if balance < cost {
		return uuid.Nil, fmt.Errorf("%w: job costs %.2f, balance %.2f", ledger.ErrInsufficientTokens, cost, balance)
	}

	// Snapshot the contents so later dataset edits cannot touch the job.
	snapshot := make([]models.Content, 0, len(contents))
	for _, content := range contents {
		snapshot = append(snapshot, *content)
	}

	job := &models.Job{
		ID:         uuid.New(),
		DatasetID:  datasetID,
		UserID:     userID,
		ModelID:    modelID,
		Cost:       cost,
		Contents:   snapshot,
		EnqueuedAt: time.Now().UTC(),
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		return uuid.Nil, fmt.Errorf("enqueuing job: %w", err)
	}

	slog.Info("inference job enqueued", "job_id", job.ID, "dataset_id", datasetID, "model_id", modelID, "cost", cost)
	return job.ID, nil
}

// Status reports the job's current state to its owner. Anyone other
// than the user who started the job gets ErrUnauthorized and no
// progress details. An unknown or expired job ID reports
// queue.ErrJobNotFound.
func (s *Service) Status(ctx context.Context, jobID, userID uuid.UUID) (*JobStatus, error) {
	progress, err := s.queue.GetProgress(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if progress.UserID != userID {
		return nil, ErrUnauthorized
	}

	status := &JobStatus{
		JobID:     progress.JobID,
		State:     progress.State,
		Message:   progress.Message,
		ErrorCode: progress.ErrorCode,
	}

	if progress.State == models.JobStateCompleted && progress.InferenceID != nil {
		result, err := s.catalog.GetInference(ctx, *progress.InferenceID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("loading inference result: %w", err)
		}
		status.Result = result
	}

	return status, nil
}

package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobStatePending   = "pending"
	JobStateRunning   = "running"
	JobStateCompleted = "completed"
	JobStateFailed    = "failed"
)

// Job is the transient queue entity for one inference run. The API returns
// its ID on POST /api/v1/start-inference; the client polls the status
// endpoint until the state is completed or failed. Contents is a read-only
// snapshot taken at enqueue time, so later edits to the dataset do not
// affect an in-flight job.
type Job struct {
	ID         uuid.UUID `json:"id"`
	DatasetID  uuid.UUID `json:"dataset_id"`
	UserID     uuid.UUID `json:"user_id"`
	ModelID    int       `json:"model_id"`
	Cost       float64   `json:"cost"`
	Contents   []Content `json:"contents"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// JobProgress is the poller-visible view of a job. DatasetID and UserID
// travel with the progress so the status endpoint can enforce ownership
// without re-reading the job payload.
type JobProgress struct {
	JobID       uuid.UUID  `json:"job_id"`
	State       string     `json:"state"`
	Message     string     `json:"message"`
	ErrorCode   int        `json:"error_code,omitempty"`
	DatasetID   uuid.UUID  `json:"dataset_id"`
	UserID      uuid.UUID  `json:"user_id"`
	InferenceID *uuid.UUID `json:"inference_id,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	InferenceStatusCompleted = "completed"
	InferenceStatusFailed    = "failed"
)

// Inference is the durable record of a finished inference job. It is
// created by the worker after the delegate returns successfully, never at
// enqueue time.
type Inference struct {
	ID        uuid.UUID       `db:"id"         json:"id"`
	DatasetID uuid.UUID       `db:"dataset_id" json:"dataset_id"`
	UserID    uuid.UUID       `db:"user_id"    json:"user_id"`
	ModelID   int             `db:"model_id"   json:"model_id"`
	Status    string          `db:"status"     json:"status"`
	Cost      float64         `db:"cost"       json:"cost"`
	Result    json.RawMessage `db:"result"     json:"result"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/api/middleware"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/api/response"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/inference"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/ledger"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/queue"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/store"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/pkg/models"
)

// InferenceService defines the job operations the handlers depend on.
type InferenceService interface {
	Start(ctx context.Context, datasetID, userID uuid.UUID, modelID int) (uuid.UUID, error)
	Status(ctx context.Context, jobID, userID uuid.UUID) (*inference.JobStatus, error)
}

// NewStartInferenceHandler returns an http.HandlerFunc for POST /api/v1/start-inference.
func NewStartInferenceHandler(svc InferenceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		var req struct {
			DatasetID string `json:"dataset_id"`
			ModelID   int    `json:"model_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		datasetID, err := uuid.Parse(req.DatasetID)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "dataset_id must be a valid UUID", nil)
			return
		}

		jobID, err := svc.Start(r.Context(), datasetID, userID, req.ModelID)
		if err != nil {
			switch {
			case errors.Is(err, inference.ErrInvalidModel):
				response.Error(w, http.StatusBadRequest, "INVALID_MODEL", "model_id must be 1, 2 or 3", nil)
			case errors.Is(err, store.ErrNotFound):
				response.Error(w, http.StatusNotFound, "DATASET_NOT_FOUND", "Dataset does not exist", nil)
			case errors.Is(err, inference.ErrUnauthorized):
				response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "You do not own this dataset", nil)
			case errors.Is(err, inference.ErrEmptyDataset):
				response.Error(w, http.StatusBadRequest, "EMPTY_DATASET", "Dataset has no contents to run inference on", nil)
			case errors.Is(err, ledger.ErrInsufficientTokens):
				response.Error(w, http.StatusPaymentRequired, "INSUFFICIENT_TOKENS", "Not enough tokens for this job", nil)
			default:
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			}
			return
		}

		response.Accepted(w, map[string]any{"inference_job_id": jobID})
	}
}

// NewJobStatusHandler returns an http.HandlerFunc for GET /api/v1/inference/{jobID}.
// A failed job reflects the delegate's error code as the outer HTTP status.
func NewJobStatusHandler(svc InferenceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}
		jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid job id", nil)
			return
		}

		status, err := svc.Status(r.Context(), jobID, userID)
		if err != nil {
			switch {
			case errors.Is(err, queue.ErrJobNotFound):
				response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "Job does not exist or has expired", nil)
			case errors.Is(err, inference.ErrUnauthorized):
				response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "You do not own this job", nil)
			default:
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			}
			return
		}

		if status.State == models.JobStateFailed {
			code := status.ErrorCode
			if code < 400 || code > 599 {
				code = http.StatusInternalServerError
			}
			response.Error(w, code, "JOB_FAILED", status.Message, map[string]any{
				"job_id": status.JobID,
				"state":  status.State,
			})
			return
		}

		response.JSON(w, status)
	}
}

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
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/dataset"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/store"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/pkg/models"
)

// DatasetService defines the dataset operations the handlers depend on.
type DatasetService interface {
	Create(ctx context.Context, userID uuid.UUID, name string, tags []string) (*models.Dataset, error)
	Get(ctx context.Context, id, userID uuid.UUID) (*models.Dataset, error)
	List(ctx context.Context, userID uuid.UUID) ([]*models.Dataset, error)
	Update(ctx context.Context, id, userID uuid.UUID, name string, tags []string) (*models.Dataset, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// NewCreateDatasetHandler returns an http.HandlerFunc for POST /api/v1/datasets.
func NewCreateDatasetHandler(svc DatasetService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		var req struct {
			Name string   `json:"name"`
			Tags []string `json:"tags"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Name == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "name is required", nil)
			return
		}

		created, err := svc.Create(r.Context(), userID, req.Name, req.Tags)
		if err != nil {
			if errors.Is(err, dataset.ErrDuplicateDataset) {
				response.Error(w, http.StatusConflict, "DUPLICATE_DATASET",
					"A dataset with this name and content already exists", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}

		response.Created(w, created)
	}
}

// NewListDatasetsHandler returns an http.HandlerFunc for GET /api/v1/datasets.
func NewListDatasetsHandler(svc DatasetService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}

		datasets, err := svc.List(r.Context(), userID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
			return
		}
		if datasets == nil {
			datasets = []*models.Dataset{}
		}
		response.JSON(w, datasets)
	}
}

// NewGetDatasetHandler returns an http.HandlerFunc for GET /api/v1/datasets/{datasetID}.
func NewGetDatasetHandler(svc DatasetService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}
		id, err := uuid.Parse(chi.URLParam(r, "datasetID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid dataset id", nil)
			return
		}

		got, err := svc.Get(r.Context(), id, userID)
		if err != nil {
			writeDatasetError(w, err)
			return
		}
		response.JSON(w, got)
	}
}

// NewUpdateDatasetHandler returns an http.HandlerFunc for PATCH /api/v1/datasets/{datasetID}.
func NewUpdateDatasetHandler(svc DatasetService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}
		id, err := uuid.Parse(chi.URLParam(r, "datasetID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid dataset id", nil)
			return
		}

		var req struct {
			Name string   `json:"name"`
			Tags []string `json:"tags"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		updated, err := svc.Update(r.Context(), id, userID, req.Name, req.Tags)
		if err != nil {
			writeDatasetError(w, err)
			return
		}
		response.JSON(w, updated)
	}
}

// NewDeleteDatasetHandler returns an http.HandlerFunc for DELETE /api/v1/datasets/{datasetID}.
func NewDeleteDatasetHandler(svc DatasetService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}
		id, err := uuid.Parse(chi.URLParam(r, "datasetID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid dataset id", nil)
			return
		}

		if err := svc.Delete(r.Context(), id, userID); err != nil {
			writeDatasetError(w, err)
			return
		}
		response.JSON(w, map[string]string{"status": "deleted"})
	}
}

func writeDatasetError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		response.Error(w, http.StatusNotFound, "DATASET_NOT_FOUND", "Dataset does not exist", nil)
	case errors.Is(err, dataset.ErrUnauthorized):
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "You do not own this dataset", nil)
	case errors.Is(err, dataset.ErrDuplicateDataset):
		response.Error(w, http.StatusConflict, "DUPLICATE_DATASET",
			"A dataset with this name and content already exists", nil)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
	}
}

package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/api/middleware"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/api/response"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/content"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/ledger"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/pricing"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/store"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/pkg/models"
)

const maxUploadBytes = 256 << 20

// ContentService defines the upload operation the handler depends on.
type ContentService interface {
	Upload(ctx context.Context, params content.UploadParams) (*models.Content, error)
}

// NewUploadContentHandler returns an http.HandlerFunc for
// POST /api/v1/datasets/{datasetID}/contents. The request is multipart:
// a "type" field declaring image, video or zip, and a "file" part.
func NewUploadContentHandler(svc ContentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mw.GetUserID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
			return
		}
		datasetID, err := uuid.Parse(chi.URLParam(r, "datasetID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid dataset id", nil)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid multipart body", nil)
			return
		}

		contentType := r.FormValue("type")
		file, header, err := r.FormFile("file")
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "file part is required", nil)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Reading file failed", nil)
			return
		}

		item, err := svc.Upload(r.Context(), content.UploadParams{
			DatasetID: datasetID,
			UserID:    userID,
			Type:      contentType,
			MimeType:  header.Header.Get("Content-Type"),
			Name:      header.Filename,
			Data:      data,
		})
		if err != nil {
			writeContentError(w, err)
			return
		}

		response.Created(w, map[string]any{
			"id":         item.ID,
			"dataset_id": item.DatasetID,
			"type":       item.Type,
			"name":       item.Name,
			"cost":       item.Cost,
		})
	}
}

func writeContentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		response.Error(w, http.StatusNotFound, "DATASET_NOT_FOUND", "Dataset does not exist", nil)
	case errors.Is(err, content.ErrUnauthorized):
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "You do not own this dataset", nil)
	case errors.Is(err, content.ErrInvalidMimeType),
		errors.Is(err, pricing.ErrInvalidContentType):
		response.Error(w, http.StatusBadRequest, "INVALID_CONTENT_TYPE", err.Error(), nil)
	case errors.Is(err, content.ErrEmptyArchive):
		response.Error(w, http.StatusBadRequest, "EMPTY_ARCHIVE", "Archive contains no billable media", nil)
	case errors.Is(err, content.ErrZeroCost):
		response.Error(w, http.StatusBadRequest, "ZERO_COST_CONTENT", "Content prices at zero tokens", nil)
	case errors.Is(err, content.ErrDuplicateContent):
		response.Error(w, http.StatusConflict, "DUPLICATE_CONTENT",
			"Content duplicates another dataset with the same name", nil)
	case errors.Is(err, ledger.ErrInsufficientTokens):
		response.Error(w, http.StatusPaymentRequired, "INSUFFICIENT_TOKENS", "Not enough tokens for this upload", nil)
	case errors.Is(err, pricing.ErrFrameCount), errors.Is(err, pricing.ErrZipInspection):
		response.Error(w, http.StatusUnprocessableEntity, "UNREADABLE_MEDIA", err.Error(), nil)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
	}
}

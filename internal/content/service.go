package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/pricing"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/pkg/models"
)

// Sentinel errors for content uploads.
var (
	ErrInvalidMimeType  = errors.New("mime type does not match declared content type")
	ErrEmptyArchive     = errors.New("archive contains no billable media")
	ErrZeroCost         = errors.New("content prices at zero tokens")
	ErrDuplicateContent = errors.New("content duplicates another dataset with the same name")
	ErrUnauthorized     = errors.New("unauthorized")
)

// Catalog persists content and reads the owning dataset.
type Catalog interface {
	GetDataset(ctx context.Context, id uuid.UUID) (*models.Dataset, error)
	CreateContent(ctx context.Context, content *models.Content) error
}

// Pricer computes the upload cost of a content item.
type Pricer interface {
	UploadCost(ctx context.Context, contentType string, data []byte) (float64, error)
}

// OverlapChecker reports whether adding candidate content would make two
// same-named datasets of one owner share content.
type OverlapChecker interface {
	HasOverlap(ctx context.Context, name string, ownerID uuid.UUID, excludeID *uuid.UUID, candidate []*models.Content) (bool, error)
}

// Debiter charges the upload cost against the user's balance.
type Debiter interface {
	Debit(ctx context.Context, userID uuid.UUID, amount float64) error
}

// UploadParams holds a validated upload request.
type UploadParams struct {
	DatasetID uuid.UUID
	UserID    uuid.UUID
	Type      string
	MimeType  string
	Name      string
	Data      []byte
}

// Service handles content uploads.
type Service struct {
	catalog Catalog
	pricer  Pricer
	overlap OverlapChecker
	ledger  Debiter
}

// NewService creates a new content Service.
func NewService(catalog Catalog, pricer Pricer, overlap OverlapChecker, l Debiter) *Service {
	return &Service{
		catalog: catalog,
		pricer:  pricer,
		overlap: overlap,
		ledger:  l,
	}
}

// Upload prices the item, runs the overlap gate, debits the user and
// persists the content. Any failure along the way leaves no partial
// state: the row is written only after the debit has succeeded.
func (s *Service) Upload(ctx context.Context, params UploadParams) (*models.Content, error) {
	if !models.ValidContentType(params.Type) {
		return nil, fmt.Errorf("%w: %q", pricing.ErrInvalidContentType, params.Type)
	}
	if !models.ValidMimeType(params.Type, params.MimeType) {
		return nil, fmt.Errorf("%w: %s for %s", ErrInvalidMimeType, params.MimeType, params.Type)
	}

	dataset, err := s.catalog.GetDataset(ctx, params.DatasetID)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}
	if dataset.UserID != params.UserID {
		return nil, ErrUnauthorized
	}

	cost, err := s.pricer.UploadCost(ctx, params.Type, params.Data)
	if err != nil {
		return nil, err
	}
	// A zip with no media inside, or a video whose counter reports
	// zero frames, prices at zero and is refused rather than stored
	// as a free row.
	if cost == 0 {
		if params.Type == models.ContentTypeZip {
			return nil, ErrEmptyArchive
		}
		return nil, ErrZeroCost
	}

	now := time.Now().UTC()
	item := &models.Content{
		ID:        uuid.New(),
		DatasetID: params.DatasetID,
		Type:      params.Type,
		Name:      params.Name,
		Data:      params.Data,
		Cost:      cost,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// The candidate includes the item being added, so overlap is judged
	// against the dataset's would-be contents, not its current rows.
	excludeID := dataset.ID
	overlap, err := s.overlap.HasOverlap(ctx, dataset.Name, params.UserID, &excludeID, []*models.Content{item})
	if err != nil {
		return nil, fmt.Errorf("checking overlap: %w", err)
	}
	if overlap {
		return nil, ErrDuplicateContent
	}

	if err := s.ledger.Debit(ctx, params.UserID, cost); err != nil {
		return nil, err
	}

	if err := s.catalog.CreateContent(ctx, item); err != nil {
		return nil, fmt.Errorf("storing content: %w", err)
	}

	slog.Info("content uploaded", "content_id", item.ID, "dataset_id", params.DatasetID, "type", params.Type, "cost", cost)
	return item, nil
}

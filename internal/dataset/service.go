package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Giansimone-Coccia/Progetto-PA-sub000/pkg/models"
)

// Sentinel errors for dataset operations.
var (
	ErrDuplicateDataset = errors.New("dataset duplicates another with the same name and content")
	ErrUnauthorized     = errors.New("unauthorized")
)

// Catalog persists dataset records.
type Catalog interface {
	CreateDataset(ctx context.Context, dataset *models.Dataset) error
	GetDataset(ctx context.Context, id uuid.UUID) (*models.Dataset, error)
	ListDatasetsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Dataset, error)
	ListContentsByDataset(ctx context.Context, datasetID uuid.UUID) ([]*models.Content, error)
	UpdateDataset(ctx context.Context, dataset *models.Dataset) error
	SoftDeleteDataset(ctx context.Context, id uuid.UUID) error
}

// OverlapChecker gates creates and renames against same-named datasets.
type OverlapChecker interface {
	HasOverlap(ctx context.Context, name string, ownerID uuid.UUID, excludeID *uuid.UUID, candidate []*models.Content) (bool, error)
}

// Service handles dataset lifecycle operations.
type Service struct {
	catalog Catalog
	overlap OverlapChecker
}

// NewService creates a new dataset Service.
func NewService(catalog Catalog, overlap OverlapChecker) *Service {
	return &Service{catalog: catalog, overlap: overlap}
}

// Create stores a new empty dataset after the overlap gate passes.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, name string, tags []string) (*models.Dataset, error) {
	if name == "" {
		return nil, fmt.Errorf("dataset name is required")
	}

	overlap, err := s.overlap.HasOverlap(ctx, name, userID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("checking overlap: %w", err)
	}
	if overlap {
		return nil, ErrDuplicateDataset
	}

	now := time.Now().UTC()
	dataset := &models.Dataset{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.catalog.CreateDataset(ctx, dataset); err != nil {
		return nil, fmt.Errorf("storing dataset: %w", err)
	}

	slog.Info("dataset created", "dataset_id", dataset.ID, "user_id", userID, "name", name)
	return dataset, nil
}

// Get returns the dataset if the requesting user owns it.
func (s *Service) Get(ctx context.Context, id, userID uuid.UUID) (*models.Dataset, error) {
	dataset, err := s.catalog.GetDataset(ctx, id)
	if err != nil {
		return nil, err
	}
	if dataset.UserID != userID {
		return nil, ErrUnauthorized
	}
	return dataset, nil
}

// List returns all live datasets owned by the user.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*models.Dataset, error) {
	return s.catalog.ListDatasetsByUser(ctx, userID)
}

// Update renames or retags the dataset. A rename re-runs the overlap
// gate with the dataset's own contents as the candidate set, so moving
// content under an already-used name is refused.
func (s *Service) Update(ctx context.Context, id, userID uuid.UUID, name string, tags []string) (*models.Dataset, error) {
	dataset, err := s.catalog.GetDataset(ctx, id)
	if err != nil {
		return nil, err
	}
	if dataset.UserID != userID {
		return nil, ErrUnauthorized
	}

	if name != "" && name != dataset.Name {
		contents, err := s.catalog.ListContentsByDataset(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("loading contents: %w", err)
		}

		excludeID := dataset.ID
		overlap, err := s.overlap.HasOverlap(ctx, name, userID, &excludeID, contents)
		if err != nil {
			return nil, fmt.Errorf("checking overlap: %w", err)
		}
		if overlap {
			return nil, ErrDuplicateDataset
		}
		dataset.Name = name
	}
	if tags != nil {
		dataset.Tags = tags
	}
	dataset.UpdatedAt = time.Now().UTC()

	if err := s.catalog.UpdateDataset(ctx, dataset); err != nil {
		return nil, fmt.Errorf("updating dataset: %w", err)
	}
	return dataset, nil
}

// Delete soft-deletes the dataset. Historical jobs and inference
// records keep pointing at the row.
func (s *Service) Delete(ctx context.Context, id, userID uuid.UUID) error {
	dataset, err := s.catalog.GetDataset(ctx, id)
	if err != nil {
		return err
	}
	if dataset.UserID != userID {
		return ErrUnauthorized
	}
	if err := s.catalog.SoftDeleteDataset(ctx, id); err != nil {
		return fmt.Errorf("deleting dataset: %w", err)
	}
	slog.Info("dataset deleted", "dataset_id", id, "user_id", userID)
	return nil
}

package dedup

import (
	"context"
	"fmt"

	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/config"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/pkg/models"
	"github.com/google/uuid"
)

// Catalog is the slice of the store the detector reads from.
type Catalog interface {
	GetDatasetsByName(ctx context.Context, userID uuid.UUID, name string) ([]*models.Dataset, error)
	ListContentsByDataset(ctx context.Context, datasetID uuid.UUID) ([]*models.Content, error)
}

// Detector checks candidate content against the owner's same-named
// datasets. The check is read-only and must run before any persistence of
// the new or changed rows.
type Detector struct {
	catalog      Catalog
	emptyMatches bool
}

// NewDetector creates a new Detector.
func NewDetector(catalog Catalog, cfg config.OverlapConfig) *Detector {
	return &Detector{catalog: catalog, emptyMatches: cfg.EmptyMatches}
}

// HasOverlap reports whether the candidate content for a dataset named
// name, owned by ownerID, overlaps content already stored in another
// dataset of the same owner carrying the same name. excludeID, when
// non-nil, names the dataset currently being edited: it is skipped as an
// overlap peer, and its persisted contents join the candidate set so the
// comparison sees the dataset as it will be after the write.
//
// When both fingerprint sets are empty the verdict depends on the
// configured empty-matches switch; the legacy behavior reports overlap.
func (d *Detector) HasOverlap(ctx context.Context, name string, ownerID uuid.UUID, excludeID *uuid.UUID, candidate []*models.Content) (bool, error) {
	peers, err := d.catalog.GetDatasetsByName(ctx, ownerID, name)
	if err != nil {
		return false, fmt.Errorf("find datasets named %q: %w", name, err)
	}

	candidateAll := candidate
	if excludeID != nil {
		existing, err := d.catalog.ListContentsByDataset(ctx, *excludeID)
		if err != nil {
			return false, fmt.Errorf("list contents of dataset %s: %w", *excludeID, err)
		}
		candidateAll = append(append([]*models.Content{}, candidate...), existing...)
	}
	candidateFPs := fingerprintSet(candidateAll)

	for _, peer := range peers {
		if excludeID != nil && peer.ID == *excludeID {
			continue
		}

		contents, err := d.catalog.ListContentsByDataset(ctx, peer.ID)
		if err != nil {
			return false, fmt.Errorf("list contents of dataset %s: %w", peer.ID, err)
		}

		if len(contents) == 0 && len(candidateAll) == 0 {
			if d.emptyMatches {
				return true, nil
			}
			continue
		}

		if intersects(fingerprintSet(contents), candidateFPs) {
			return true, nil
		}
	}
	return false, nil
}

package store

import (
	"context"
	"errors"

	"github.com/Giansimone-Coccia/Progetto-PA-sub000/pkg/models"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")
var ErrInsufficientTokens = errors.New("insufficient tokens")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// DebitTokens atomically subtracts amount from the user's balance.
	// Returns ErrInsufficientTokens when the balance would go negative;
	// no state changes in that case.
	DebitTokens(ctx context.Context, userID uuid.UUID, amount float64) error
	CreditTokens(ctx context.Context, userID uuid.UUID, amount float64) (float64, error)

	CreateDataset(ctx context.Context, dataset *models.Dataset) error
	GetDataset(ctx context.Context, id uuid.UUID) (*models.Dataset, error)
	ListDatasetsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Dataset, error)
	// GetDatasetsByName returns the owner's non-deleted datasets carrying
	// the given name.
	GetDatasetsByName(ctx context.Context, userID uuid.UUID, name string) ([]*models.Dataset, error)
	UpdateDataset(ctx context.Context, dataset *models.Dataset) error
	SoftDeleteDataset(ctx context.Context, id uuid.UUID) error

	CreateContent(ctx context.Context, content *models.Content) error
	GetContent(ctx context.Context, id uuid.UUID) (*models.Content, error)
	ListContentsByDataset(ctx context.Context, datasetID uuid.UUID) ([]*models.Content, error)

	CreateInference(ctx context.Context, inference *models.Inference) error
	GetInference(ctx context.Context, id uuid.UUID) (*models.Inference, error)
	ListInferencesByUser(ctx context.Context, userID uuid.UUID) ([]*models.Inference, error)
}

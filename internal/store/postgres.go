package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Giansimone-Coccia/Progetto-PA-sub000/pkg/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Users ---

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, tokens, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Email, user.PasswordHash, user.Tokens, user.Role, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, tokens, role, created_at, updated_at
		 FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Tokens, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, tokens, role, created_at, updated_at
		 FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Tokens, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// DebitTokens performs the balance check and the write as one atomic
// statement, so concurrent debits against the same user cannot both pass
// the check and drive the balance negative.
func (s *PostgresStore) DebitTokens(ctx context.Context, userID uuid.UUID, amount float64) error {
	if amount < 0 {
		return fmt.Errorf("debit amount must be non-negative, got %f", amount)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET tokens = tokens - $2, updated_at = NOW()
		 WHERE id = $1 AND tokens >= $2`, userID, amount)
	if err != nil {
		return fmt.Errorf("debit tokens: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing user from an insufficient balance.
		var exists bool
		err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("debit tokens: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrInsufficientTokens
	}
	return nil
}

func (s *PostgresStore) CreditTokens(ctx context.Context, userID uuid.UUID, amount float64) (float64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("credit amount must be non-negative, got %f", amount)
	}
	var balance float64
	err := s.pool.QueryRow(ctx,
		`UPDATE users SET tokens = tokens + $2, updated_at = NOW()
		 WHERE id = $1 RETURNING tokens`, userID, amount).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("credit tokens: %w", err)
	}
	return balance, nil
}

// --- Datasets ---

func (s *PostgresStore) CreateDataset(ctx context.Context, dataset *models.Dataset) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO datasets (id, user_id, name, tags, is_deleted, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		dataset.ID, dataset.UserID, dataset.Name, dataset.Tags, dataset.IsDeleted,
		dataset.CreatedAt, dataset.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetDataset(ctx context.Context, id uuid.UUID) (*models.Dataset, error) {
	var d models.Dataset
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, name, tags, is_deleted, created_at, updated_at
		 FROM datasets WHERE id = $1 AND NOT is_deleted`, id,
	).Scan(&d.ID, &d.UserID, &d.Name, &d.Tags, &d.IsDeleted, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get dataset: %w", err)
	}
	return &d, nil
}

func (s *PostgresStore) ListDatasetsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Dataset, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, name, tags, is_deleted, created_at, updated_at
		 FROM datasets WHERE user_id = $1 AND NOT is_deleted ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()
	return scanDatasets(rows)
}

func (s *PostgresStore) GetDatasetsByName(ctx context.Context, userID uuid.UUID, name string) ([]*models.Dataset, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, name, tags, is_deleted, created_at, updated_at
		 FROM datasets WHERE user_id = $1 AND name = $2 AND NOT is_deleted`, userID, name)
	if err != nil {
		return nil, fmt.Errorf("get datasets by name: %w", err)
	}
	defer rows.Close()
	return scanDatasets(rows)
}

func (s *PostgresStore) UpdateDataset(ctx context.Context, dataset *models.Dataset) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE datasets SET name = $2, tags = $3, updated_at = NOW()
		 WHERE id = $1 AND NOT is_deleted`,
		dataset.ID, dataset.Name, dataset.Tags)
	if err != nil {
		return fmt.Errorf("update dataset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SoftDeleteDataset(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE datasets SET is_deleted = TRUE, updated_at = NOW()
		 WHERE id = $1 AND NOT is_deleted`, id)
	if err != nil {
		return fmt.Errorf("soft delete dataset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDatasets(rows pgx.Rows) ([]*models.Dataset, error) {
	var datasets []*models.Dataset
	for rows.Next() {
		var d models.Dataset
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &d.Tags, &d.IsDeleted,
			&d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan dataset: %w", err)
		}
		datasets = append(datasets, &d)
	}
	return datasets, rows.Err()
}

// --- Contents ---

func (s *PostgresStore) CreateContent(ctx context.Context, content *models.Content) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO contents (id, dataset_id, type, name, data, cost, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		content.ID, content.DatasetID, content.Type, content.Name, content.Data,
		content.Cost, content.CreatedAt, content.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create content: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetContent(ctx context.Context, id uuid.UUID) (*models.Content, error) {
	var c models.Content
	err := s.pool.QueryRow(ctx,
		`SELECT id, dataset_id, type, name, data, cost, created_at, updated_at
		 FROM contents WHERE id = $1`, id,
	).Scan(&c.ID, &c.DatasetID, &c.Type, &c.Name, &c.Data, &c.Cost, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get content: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) ListContentsByDataset(ctx context.Context, datasetID uuid.UUID) ([]*models.Content, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, dataset_id, type, name, data, cost, created_at, updated_at
		 FROM contents WHERE dataset_id = $1 ORDER BY created_at`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("list contents: %w", err)
	}
	defer rows.Close()

	var contents []*models.Content
	for rows.Next() {
		var c models.Content
		if err := rows.Scan(&c.ID, &c.DatasetID, &c.Type, &c.Name, &c.Data, &c.Cost,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		contents = append(contents, &c)
	}
	return contents, rows.Err()
}

// --- Inferences ---

func (s *PostgresStore) CreateInference(ctx context.Context, inference *models.Inference) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO inferences (id, dataset_id, user_id, model_id, status, cost, result, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		inference.ID, inference.DatasetID, inference.UserID, inference.ModelID,
		inference.Status, inference.Cost, inference.Result, inference.CreatedAt, inference.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create inference: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetInference(ctx context.Context, id uuid.UUID) (*models.Inference, error) {
	var inf models.Inference
	err := s.pool.QueryRow(ctx,
		`SELECT id, dataset_id, user_id, model_id, status, cost, result, created_at, updated_at
		 FROM inferences WHERE id = $1`, id,
	).Scan(&inf.ID, &inf.DatasetID, &inf.UserID, &inf.ModelID, &inf.Status, &inf.Cost,
		&inf.Result, &inf.CreatedAt, &inf.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get inference: %w", err)
	}
	return &inf, nil
}

func (s *PostgresStore) ListInferencesByUser(ctx context.Context, userID uuid.UUID) ([]*models.Inference, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, dataset_id, user_id, model_id, status, cost, result, created_at, updated_at
		 FROM inferences WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list inferences: %w", err)
	}
	defer rows.Close()

	var inferences []*models.Inference
	for rows.Next() {
		var inf models.Inference
		if err := rows.Scan(&inf.ID, &inf.DatasetID, &inf.UserID, &inf.ModelID, &inf.Status,
			&inf.Cost, &inf.Result, &inf.CreatedAt, &inf.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan inference: %w", err)
		}
		inferences = append(inferences, &inf)
	}
	return inferences, rows.Err()
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

package dataset_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/dataset"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/store"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/pkg/models"
)

// --- mocks ---

type mockCatalog struct {
	datasets map[uuid.UUID]*models.Dataset
	contents map[uuid.UUID][]*models.Content
	deleted  []uuid.UUID
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		datasets: make(map[uuid.UUID]*models.Dataset),
		contents: make(map[uuid.UUID][]*models.Content),
	}
}

func (m *mockCatalog) CreateDataset(_ context.Context, d *models.Dataset) error {
	m.datasets[d.ID] = d
	return nil
}

func (m *mockCatalog) GetDataset(_ context.Context, id uuid.UUID) (*models.Dataset, error) {
	d, ok := m.datasets[id]
	if !ok || d.IsDeleted {
		return nil, store.ErrNotFound
	}
	return d, nil
}

func (m *mockCatalog) ListDatasetsByUser(_ context.Context, userID uuid.UUID) ([]*models.Dataset, error) {
	var out []*models.Dataset
	for _, d := range m.datasets {
		if d.UserID == userID && !d.IsDeleted {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockCatalog) ListContentsByDataset(_ context.Context, datasetID uuid.UUID) ([]*models.Content, error) {
	return m.contents[datasetID], nil
}

func (m *mockCatalog) UpdateDataset(_ context.Context, d *models.Dataset) error {
	m.datasets[d.ID] = d
	return nil
}

func (m *mockCatalog) SoftDeleteDataset(_ context.Context, id uuid.UUID) error {
	d, ok := m.datasets[id]
	if !ok {
		return store.ErrNotFound
	}
	d.IsDeleted = true
	m.deleted = append(m.deleted, id)
	return nil
}

type mockOverlap struct {
	overlap   bool
	lastName  string
	lastOwner uuid.UUID
}

func (m *mockOverlap) HasOverlap(_ context.Context, name string, ownerID uuid.UUID, _ *uuid.UUID, _ []*models.Content) (bool, error) {
	m.lastName = name
	m.lastOwner = ownerID
	return m.overlap, nil
}

// --- Create ---

func TestCreate(t *testing.T) {
	catalog := newMockCatalog()
	service := dataset.NewService(catalog, &mockOverlap{})
	userID := uuid.New()

	d, err := service.Create(context.Background(), userID, "animals", []string{"pets"})
	require.NoError(t, err)
	assert.Equal(t, "animals", d.Name)
	assert.Equal(t, userID, d.UserID)
	assert.Contains(t, catalog.datasets, d.ID)
}

func TestCreate_EmptyName(t *testing.T) {
	service := dataset.NewService(newMockCatalog(), &mockOverlap{})

	_, err := service.Create(context.Background(), uuid.New(), "", nil)
	assert.Error(t, err)
}

func TestCreate_Duplicate(t *testing.T) {
	catalog := newMockCatalog()
	service := dataset.NewService(catalog, &mockOverlap{overlap: true})

	_, err := service.Create(context.Background(), uuid.New(), "animals", nil)
	assert.ErrorIs(t, err, dataset.ErrDuplicateDataset)
	assert.Empty(t, catalog.datasets)
}

// --- Get / List ---

func TestGet_Owner(t *testing.T) {
	catalog := newMockCatalog()
	service := dataset.NewService(catalog, &mockOverlap{})
	userID := uuid.New()

	created, err := service.Create(context.Background(), userID, "animals", nil)
	require.NoError(t, err)

	got, err := service.Get(context.Background(), created.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestGet_NotOwner(t *testing.T) {
	catalog := newMockCatalog()
	service := dataset.NewService(catalog, &mockOverlap{})

	created, err := service.Create(context.Background(), uuid.New(), "animals", nil)
	require.NoError(t, err)

	_, err = service.Get(context.Background(), created.ID, uuid.New())
	assert.ErrorIs(t, err, dataset.ErrUnauthorized)
}

func TestList_OnlyOwnDatasets(t *testing.T) {
	catalog := newMockCatalog()
	service := dataset.NewService(catalog, &mockOverlap{})
	userID := uuid.New()

	_, err := service.Create(context.Background(), userID, "mine", nil)
	require.NoError(t, err)
	_, err = service.Create(context.Background(), uuid.New(), "theirs", nil)
	require.NoError(t, err)

	out, err := service.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "mine", out[0].Name)
}

// --- Update ---

func TestUpdate_Rename(t *testing.T) {
	catalog := newMockCatalog()
	overlap := &mockOverlap{}
	service := dataset.NewService(catalog, overlap)
	userID := uuid.New()

	created, err := service.Create(context.Background(), userID, "animals", nil)
	require.NoError(t, err)

	updated, err := service.Update(context.Background(), created.ID, userID, "pets", nil)
	require.NoError(t, err)
	assert.Equal(t, "pets", updated.Name)
	// The gate runs against the new name.
	assert.Equal(t, "pets", overlap.lastName)
}

func TestUpdate_RenameDuplicate(t *testing.T) {
	catalog := newMockCatalog()
	overlap := &mockOverlap{}
	service := dataset.NewService(catalog, overlap)
	userID := uuid.New()

	created, err := service.Create(context.Background(), userID, "animals", nil)
	require.NoError(t, err)

	overlap.overlap = true
	_, err = service.Update(context.Background(), created.ID, userID, "pets", nil)
	assert.ErrorIs(t, err, dataset.ErrDuplicateDataset)
	assert.Equal(t, "animals", catalog.datasets[created.ID].Name)
}

func TestUpdate_TagsOnlySkipsGate(t *testing.T) {
	catalog := newMockCatalog()
	overlap := &mockOverlap{overlap: true}
	service := dataset.NewService(catalog, overlap)
	userID := uuid.New()

	created, err := service.Create(context.Background(), userID, "animals", nil)
	require.NoError(t, err)

	overlap.lastName = ""
	updated, err := service.Update(context.Background(), created.ID, userID, "", []string{"pets", "cats"})
	require.NoError(t, err)
	assert.Equal(t, []string{"pets", "cats"}, updated.Tags)
	assert.Empty(t, overlap.lastName)
}

func TestUpdate_NotOwner(t *testing.T) {
	catalog := newMockCatalog()
	service := dataset.NewService(catalog, &mockOverlap{})

	created, err := service.Create(context.Background(), uuid.New(), "animals", nil)
	require.NoError(t, err)

	_, err = service.Update(context.Background(), created.ID, uuid.New(), "pets", nil)
	assert.ErrorIs(t, err, dataset.ErrUnauthorized)
}

// --- Delete ---

func TestDelete_SoftDeletes(t *testing.T) {
	catalog := newMockCatalog()
	service := dataset.NewService(catalog, &mockOverlap{})
	userID := uuid.New()

	created, err := service.Create(context.Background(), userID, "animals", nil)
	require.NoError(t, err)

	require.NoError(t, service.Delete(context.Background(), created.ID, userID))
	assert.Contains(t, catalog.deleted, created.ID)

	_, err = service.Get(context.Background(), created.ID, userID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDelete_NotOwner(t *testing.T) {
	catalog := newMockCatalog()
	service := dataset.NewService(catalog, &mockOverlap{})

	created, err := service.Create(context.Background(), uuid.New(), "animals", nil)
	require.NoError(t, err)

	err = service.Delete(context.Background(), created.ID, uuid.New())
	assert.ErrorIs(t, err, dataset.ErrUnauthorized)
	assert.Empty(t, catalog.deleted)
}

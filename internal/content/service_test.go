package content_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/content"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/ledger"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/pricing"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/store"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/pkg/models"
)

// --- mocks ---

type mockCatalog struct {
	datasets map[uuid.UUID]*models.Dataset
	created  []*models.Content
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{datasets: make(map[uuid.UUID]*models.Dataset)}
}

func (m *mockCatalog) GetDataset(_ context.Context, id uuid.UUID) (*models.Dataset, error) {
	dataset, ok := m.datasets[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return dataset, nil
}

func (m *mockCatalog) CreateContent(_ context.Context, c *models.Content) error {
	m.created = append(m.created, c)
	return nil
}

type mockPricer struct {
	cost float64
	err  error
}

func (m *mockPricer) UploadCost(context.Context, string, []byte) (float64, error) {
	return m.cost, m.err
}

type mockOverlap struct {
	overlap bool
	err     error
}

func (m *mockOverlap) HasOverlap(context.Context, string, uuid.UUID, *uuid.UUID, []*models.Content) (bool, error) {
	return m.overlap, m.err
}

type mockDebiter struct {
	err     error
	debited []float64
}

func (m *mockDebiter) Debit(_ context.Context, _ uuid.UUID, amount float64) error {
	if m.err != nil {
		return m.err
	}
	m.debited = append(m.debited, amount)
	return nil
}

// --- fixtures ---

type fixture struct {
	service *content.Service
	catalog *mockCatalog
	debiter *mockDebiter
	userID  uuid.UUID
	dataset *models.Dataset
}

func newFixture(t *testing.T, cost float64, overlap bool) *fixture {
	t.Helper()
	catalog := newMockCatalog()
	debiter := &mockDebiter{}

	userID := uuid.New()
	dataset := &models.Dataset{ID: uuid.New(), UserID: userID, Name: "animals"}
	catalog.datasets[dataset.ID] = dataset

	service := content.NewService(catalog, &mockPricer{cost: cost}, &mockOverlap{overlap: overlap}, debiter)
	return &fixture{service: service, catalog: catalog, debiter: debiter, userID: userID, dataset: dataset}
}

func imageUpload(f *fixture) content.UploadParams {
	return content.UploadParams{
		DatasetID: f.dataset.ID,
		UserID:    f.userID,
		Type:      models.ContentTypeImage,
		MimeType:  "image/jpeg",
		Name:      "cat.jpg",
		Data:      []byte("jpegbytes"),
	}
}

// --- Upload ---

func TestUpload_Image(t *testing.T) {
	f := newFixture(t, 0.65, false)

	item, err := f.service.Upload(context.Background(), imageUpload(f))
	require.NoError(t, err)
	assert.Equal(t, models.ContentTypeImage, item.Type)
	assert.InDelta(t, 0.65, item.Cost, 1e-9)

	require.Len(t, f.debiter.debited, 1)
	assert.InDelta(t, 0.65, f.debiter.debited[0], 1e-9)
	require.Len(t, f.catalog.created, 1)
	assert.Equal(t, item.ID, f.catalog.created[0].ID)
}

func TestUpload_InvalidContentType(t *testing.T) {
	f := newFixture(t, 0.65, false)

	params := imageUpload(f)
	params.Type = "audio"
	_, err := f.service.Upload(context.Background(), params)
	assert.ErrorIs(t, err, pricing.ErrInvalidContentType)
	assert.Empty(t, f.catalog.created)
}

func TestUpload_MimeMismatch(t *testing.T) {
	f := newFixture(t, 0.65, false)

	params := imageUpload(f)
	params.MimeType = "video/mp4"
	_, err := f.service.Upload(context.Background(), params)
	assert.ErrorIs(t, err, content.ErrInvalidMimeType)
}

func TestUpload_DatasetNotFound(t *testing.T) {
	f := newFixture(t, 0.65, false)

	params := imageUpload(f)
	params.DatasetID = uuid.New()
	_, err := f.service.Upload(context.Background(), params)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpload_NotOwner(t *testing.T) {
	f := newFixture(t, 0.65, false)

	params := imageUpload(f)
	params.UserID = uuid.New()
	_, err := f.service.Upload(context.Background(), params)
	assert.ErrorIs(t, err, content.ErrUnauthorized)
}

func TestUpload_PricingErrorAbortsBeforeDebit(t *testing.T) {
	catalog := newMockCatalog()
	debiter := &mockDebiter{}
	userID := uuid.New()
	dataset := &models.Dataset{ID: uuid.New(), UserID: userID, Name: "clips"}
	catalog.datasets[dataset.ID] = dataset

	service := content.NewService(catalog, &mockPricer{err: pricing.ErrFrameCount}, &mockOverlap{}, debiter)
	_, err := service.Upload(context.Background(), content.UploadParams{
		DatasetID: dataset.ID,
		UserID:    userID,
		Type:      models.ContentTypeVideo,
		MimeType:  "video/mp4",
		Name:      "clip.mp4",
		Data:      []byte("mp4bytes"),
	})
	assert.ErrorIs(t, err, pricing.ErrFrameCount)
	assert.Empty(t, debiter.debited)
	assert.Empty(t, catalog.created)
}

// An archive with no media prices at zero and must not be stored.
func TestUpload_EmptyZipRejected(t *testing.T) {
	f := newFixture(t, 0, false)

	params := imageUpload(f)
	params.Type = models.ContentTypeZip
	params.MimeType = "application/zip"
	params.Name = "empty.zip"
	_, err := f.service.Upload(context.Background(), params)
	assert.ErrorIs(t, err, content.ErrEmptyArchive)
	assert.Empty(t, f.debiter.debited)
	assert.Empty(t, f.catalog.created)
}

func TestUpload_ZeroCostVideoRejected(t *testing.T) {
	f := newFixture(t, 0, false)

	params := imageUpload(f)
	params.Type = models.ContentTypeVideo
	params.MimeType = "video/mp4"
	params.Name = "still.mp4"
	_, err := f.service.Upload(context.Background(), params)
	assert.ErrorIs(t, err, content.ErrZeroCost)
	assert.Empty(t, f.debiter.debited)
	assert.Empty(t, f.catalog.created)
}

func TestUpload_DuplicateContent(t *testing.T) {
	f := newFixture(t, 0.65, true)

	_, err := f.service.Upload(context.Background(), imageUpload(f))
	assert.ErrorIs(t, err, content.ErrDuplicateContent)
	assert.Empty(t, f.debiter.debited)
	assert.Empty(t, f.catalog.created)
}

func TestUpload_InsufficientTokens(t *testing.T) {
	f := newFixture(t, 0.65, false)
	f.debiter.err = ledger.ErrInsufficientTokens

	_, err := f.service.Upload(context.Background(), imageUpload(f))
	assert.ErrorIs(t, err, ledger.ErrInsufficientTokens)
	assert.Empty(t, f.catalog.created)
}

func TestUpload_OverlapCheckError(t *testing.T) {
	catalog := newMockCatalog()
	userID := uuid.New()
	dataset := &models.Dataset{ID: uuid.New(), UserID: userID, Name: "animals"}
	catalog.datasets[dataset.ID] = dataset

	service := content.NewService(catalog, &mockPricer{cost: 0.65}, &mockOverlap{err: errors.New("store down")}, &mockDebiter{})
	_, err := service.Upload(context.Background(), content.UploadParams{
		DatasetID: dataset.ID,
		UserID:    userID,
		Type:      models.ContentTypeImage,
		MimeType:  "image/png",
		Name:      "dog.png",
		Data:      []byte("pngbytes"),
	})
	assert.Error(t, err)
	assert.Empty(t, catalog.created)
}

package dedup_test

import (
	"context"
	"testing"

	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/config"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/dedup"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/pkg/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock catalog ---

type mockCatalog struct {
	datasets map[string][]*models.Dataset   // key: userID|name
	contents map[uuid.UUID][]*models.Content
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		datasets: make(map[string][]*models.Dataset),
		contents: make(map[uuid.UUID][]*models.Content),
	}
}

func (m *mockCatalog) addDataset(userID uuid.UUID, name string, contents ...*models.Content) *models.Dataset {
	d := &models.Dataset{ID: uuid.New(), UserID: userID, Name: name}
	key := userID.String() + "|" + name
	m.datasets[key] = append(m.datasets[key], d)
	m.contents[d.ID] = contents
	return d
}

func (m *mockCatalog) GetDatasetsByName(_ context.Context, userID uuid.UUID, name string) ([]*models.Dataset, error) {
	return m.datasets[userID.String()+"|"+name], nil
}

func (m *mockCatalog) ListContentsByDataset(_ context.Context, datasetID uuid.UUID) ([]*models.Content, error) {
	return m.contents[datasetID], nil
}

func imageContent(data string) *models.Content {
	return &models.Content{
		ID:   uuid.New(),
		Type: models.ContentTypeImage,
		Name: data + ".jpg",
		Data: []byte(data),
		Cost: 0.65,
	}
}

func overlapCfg(emptyMatches bool) config.OverlapConfig {
	return config.OverlapConfig{EmptyMatches: emptyMatches}
}

// --- Fingerprint ---

func TestFingerprint_StableAcrossMetadata(t *testing.T) {
	a := imageContent("same-bytes")
	b := imageContent("same-bytes")
	b.Name = "renamed.jpg"
	b.DatasetID = uuid.New()

	assert.Equal(t, dedup.Fingerprint(a), dedup.Fingerprint(b))
}

func TestFingerprint_DiffersByTypeCostBytes(t *testing.T) {
	base := imageContent("bytes")

	byType := imageContent("bytes")
	byType.Type = models.ContentTypeVideo
	assert.NotEqual(t, dedup.Fingerprint(base), dedup.Fingerprint(byType))

	byCost := imageContent("bytes")
	byCost.Cost = 1.3
	assert.NotEqual(t, dedup.Fingerprint(base), dedup.Fingerprint(byCost))

	byBytes := imageContent("other")
	assert.NotEqual(t, dedup.Fingerprint(base), dedup.Fingerprint(byBytes))
}

// --- HasOverlap ---

func TestHasOverlap_SharedContent(t *testing.T) {
	owner := uuid.New()
	catalog := newMockCatalog()
	catalog.addDataset(owner, "animals", imageContent("cat"))
	det := dedup.NewDetector(catalog, overlapCfg(true))

	overlap, err := det.HasOverlap(context.Background(), "animals", owner, nil,
		[]*models.Content{imageContent("cat")})
	require.NoError(t, err)
	assert.True(t, overlap)
}

func TestHasOverlap_DisjointContent(t *testing.T) {
	owner := uuid.New()
	catalog := newMockCatalog()
	catalog.addDataset(owner, "animals", imageContent("cat"))
	det := dedup.NewDetector(catalog, overlapCfg(true))

	overlap, err := det.HasOverlap(context.Background(), "animals", owner, nil,
		[]*models.Content{imageContent("dog")})
	require.NoError(t, err)
	assert.False(t, overlap)
}

func TestHasOverlap_DifferentNameIgnored(t *testing.T) {
	owner := uuid.New()
	catalog := newMockCatalog()
	catalog.addDataset(owner, "plants", imageContent("cat"))
	det := dedup.NewDetector(catalog, overlapCfg(true))

	overlap, err := det.HasOverlap(context.Background(), "animals", owner, nil,
		[]*models.Content{imageContent("cat")})
	require.NoError(t, err)
	assert.False(t, overlap)
}

func TestHasOverlap_ExcludesDatasetBeingEdited(t *testing.T) {
	owner := uuid.New()
	catalog := newMockCatalog()
	edited := catalog.addDataset(owner, "animals", imageContent("cat"))
	det := dedup.NewDetector(catalog, overlapCfg(true))

	// The only same-named dataset is the one being edited; no overlap.
	overlap, err := det.HasOverlap(context.Background(), "animals", owner, &edited.ID,
		[]*models.Content{imageContent("dog")})
	require.NoError(t, err)
	assert.False(t, overlap)
}

// An update must compare peers against the edited dataset's persisted
// contents as well as the new candidate items.
func TestHasOverlap_UpdateSeesExistingContent(t *testing.T) {
	owner := uuid.New()
	catalog := newMockCatalog()
	edited := catalog.addDataset(owner, "animals", imageContent("cat"))
	catalog.addDataset(owner, "animals", imageContent("cat"))
	det := dedup.NewDetector(catalog, overlapCfg(true))

	overlap, err := det.HasOverlap(context.Background(), "animals", owner, &edited.ID, nil)
	require.NoError(t, err)
	assert.True(t, overlap)
}

func TestHasOverlap_EmptyVsEmpty(t *testing.T) {
	owner := uuid.New()

	t.Run("legacy verdict reports overlap", func(t *testing.T) {
		catalog := newMockCatalog()
		catalog.addDataset(owner, "animals")
		det := dedup.NewDetector(catalog, overlapCfg(true))

		overlap, err := det.HasOverlap(context.Background(), "animals", owner, nil, nil)
		require.NoError(t, err)
		assert.True(t, overlap)
	})

	t.Run("disabled verdict reports no overlap", func(t *testing.T) {
		catalog := newMockCatalog()
		catalog.addDataset(owner, "animals")
		det := dedup.NewDetector(catalog, overlapCfg(false))

		overlap, err := det.HasOverlap(context.Background(), "animals", owner, nil, nil)
		require.NoError(t, err)
		assert.False(t, overlap)
	})
}

// The check is read-only: repeated calls with identical inputs agree.
func TestHasOverlap_Idempotent(t *testing.T) {
	owner := uuid.New()
	catalog := newMockCatalog()
	catalog.addDataset(owner, "animals", imageContent("cat"))
	det := dedup.NewDetector(catalog, overlapCfg(true))

	candidate := []*models.Content{imageContent("cat")}
	first, err := det.HasOverlap(context.Background(), "animals", owner, nil, candidate)
	require.NoError(t, err)
	second, err := det.HasOverlap(context.Background(), "animals", owner, nil, candidate)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

package pricing_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/config"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/pricing"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/pkg/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

func testRates() config.PricingConfig {
	return config.PricingConfig{
		ImageUploadRate:    0.65,
		FrameUploadRate:    0.45,
		ImageInferenceRate: 2.75,
		FrameInferenceRate: 1.95,
		ZipMaxDepth:        5,
		ZipMaxBytes:        1 << 20,
	}
}

type fakeFrameCounter struct {
	frames int
	err    error
	calls  int
}

func (f *fakeFrameCounter) CountFrames(_ context.Context, _ []byte) (int, error) {
	f.calls++
	return f.frames, f.err
}

// buildZip assembles an in-memory zip from name -> content pairs.
func buildZip(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, data := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// --- UploadCost ---

func TestUploadCost_Image(t *testing.T) {
	e := pricing.NewEngine(testRates(), &fakeFrameCounter{})

	cost, err := e.UploadCost(context.Background(), models.ContentTypeImage, []byte{0xff, 0xd8})
	require.NoError(t, err)
	assert.InDelta(t, 0.65, cost, 1e-9)
	assert.Greater(t, cost, 0.0)
}

func TestUploadCost_Video(t *testing.T) {
	fc := &fakeFrameCounter{frames: 10}
	e := pricing.NewEngine(testRates(), fc)

	cost, err := e.UploadCost(context.Background(), models.ContentTypeVideo, []byte("mp4 bytes"))
	require.NoError(t, err)
	assert.InDelta(t, 4.5, cost, 1e-9)
	assert.Equal(t, 1, fc.calls)
}

func TestUploadCost_VideoFrameCountFails(t *testing.T) {
	fc := &fakeFrameCounter{err: errors.New("exit status 1")}
	e := pricing.NewEngine(testRates(), fc)

	_, err := e.UploadCost(context.Background(), models.ContentTypeVideo, []byte("junk"))
	assert.ErrorIs(t, err, pricing.ErrFrameCount)
}

func TestUploadCost_InvalidType(t *testing.T) {
	e := pricing.NewEngine(testRates(), &fakeFrameCounter{})

	_, err := e.UploadCost(context.Background(), "audio", nil)
	assert.ErrorIs(t, err, pricing.ErrInvalidContentType)
}

func TestUploadCost_ZipOfImages(t *testing.T) {
	e := pricing.NewEngine(testRates(), &fakeFrameCounter{})
	data := buildZip(t, map[string][]byte{
		"a.jpg": []byte("a"),
		"b.png": []byte("b"),
	})

	cost, err := e.UploadCost(context.Background(), models.ContentTypeZip, data)
	require.NoError(t, err)
	assert.InDelta(t, 1.3, cost, 1e-9)
}

func TestUploadCost_EmptyZipIsZero(t *testing.T) {
	e := pricing.NewEngine(testRates(), &fakeFrameCounter{})
	data := buildZip(t, map[string][]byte{
		"readme.txt": []byte("no media here"),
	})

	cost, err := e.UploadCost(context.Background(), models.ContentTypeZip, data)
	require.NoError(t, err)
	assert.Zero(t, cost)
}

func TestUploadCost_MalformedZip(t *testing.T) {
	e := pricing.NewEngine(testRates(), &fakeFrameCounter{})

	_, err := e.UploadCost(context.Background(), models.ContentTypeZip, []byte("not a zip"))
	assert.ErrorIs(t, err, pricing.ErrZipInspection)
}

// --- CountZipMedia ---

// Two images plus a nested zip holding one image must count as three
// images and zero frames.
func TestCountZipMedia_NestedZip(t *testing.T) {
	e := pricing.NewEngine(testRates(), &fakeFrameCounter{})

	inner := buildZip(t, map[string][]byte{"c.jpeg": []byte("c")})
	outer := buildZip(t, map[string][]byte{
		"a.jpg":     []byte("a"),
		"b.png":     []byte("b"),
		"inner.zip": inner,
	})

	media, err := e.CountZipMedia(context.Background(), outer)
	require.NoError(t, err)
	assert.Equal(t, 3, media.Images)
	assert.Equal(t, 0, media.Frames)
}

func TestCountZipMedia_VideoEntries(t *testing.T) {
	fc := &fakeFrameCounter{frames: 7}
	e := pricing.NewEngine(testRates(), fc)

	data := buildZip(t, map[string][]byte{
		"clip.mp4": []byte("mp4"),
		"a.jpg":    []byte("a"),
	})

	media, err := e.CountZipMedia(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, 1, media.Images)
	assert.Equal(t, 7, media.Frames)
	assert.Equal(t, 1, fc.calls)
}

func TestCountZipMedia_DepthGuard(t *testing.T) {
	rates := testRates()
	rates.ZipMaxDepth = 2
	e := pricing.NewEngine(rates, &fakeFrameCounter{})

	// depth 3: outer -> mid -> inner
	inner := buildZip(t, map[string][]byte{"a.jpg": []byte("a")})
	mid := buildZip(t, map[string][]byte{"inner.zip": inner})
	outer := buildZip(t, map[string][]byte{"mid.zip": mid})

	_, err := e.CountZipMedia(context.Background(), outer)
	assert.ErrorIs(t, err, pricing.ErrZipInspection)
}

func TestCountZipMedia_SizeGuard(t *testing.T) {
	rates := testRates()
	rates.ZipMaxBytes = 16
	e := pricing.NewEngine(rates, &fakeFrameCounter{})

	big := bytes.Repeat([]byte("x"), 64)
	data := buildZip(t, map[string][]byte{"big.mp4": big})

	_, err := e.CountZipMedia(context.Background(), data)
	assert.ErrorIs(t, err, pricing.ErrZipInspection)
}

// Identical bytes must always price identically.
func TestCountZipMedia_Deterministic(t *testing.T) {
	e := pricing.NewEngine(testRates(), &fakeFrameCounter{})
	data := buildZip(t, map[string][]byte{
		"a.jpg": []byte("a"),
		"b.png": []byte("b"),
	})

	first, err := e.CountZipMedia(context.Background(), data)
	require.NoError(t, err)
	second, err := e.CountZipMedia(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// --- InferenceCost ---

func TestInferenceCost_Image(t *testing.T) {
	e := pricing.NewEngine(testRates(), &fakeFrameCounter{})

	contents := []*models.Content{
		{ID: uuid.New(), Type: models.ContentTypeImage, Cost: 0.65},
	}
	// (0.65 / 0.65) * 2.75
	assert.InDelta(t, 2.75, e.InferenceCost(contents), 1e-9)
}

func TestInferenceCost_Mixed(t *testing.T) {
	e := pricing.NewEngine(testRates(), &fakeFrameCounter{})

	contents := []*models.Content{
		{ID: uuid.New(), Type: models.ContentTypeImage, Cost: 0.65},
		{ID: uuid.New(), Type: models.ContentTypeVideo, Cost: 4.5},  // 10 frames
		{ID: uuid.New(), Type: models.ContentTypeZip, Cost: 1.3},    // 2 images
	}
	want := 2.75 + 10*1.95 + 2*2.75
	assert.InDelta(t, want, e.InferenceCost(contents), 1e-9)
}

func TestInferenceCost_UnknownTypeSkipped(t *testing.T) {
	e := pricing.NewEngine(testRates(), &fakeFrameCounter{})

	contents := []*models.Content{
		{ID: uuid.New(), Type: "audio", Cost: 99},
		{ID: uuid.New(), Type: models.ContentTypeImage, Cost: 0.65},
	}
	assert.InDelta(t, 2.75, e.InferenceCost(contents), 1e-9)
}

func TestInferenceCost_Empty(t *testing.T) {
	e := pricing.NewEngine(testRates(), &fakeFrameCounter{})
	assert.Zero(t, e.InferenceCost(nil))
}

// Package pricing computes token costs for uploaded media and for
// inference runs. Cost functions are pure: they inspect bytes (and, for
// video, consult the frame counter) but never persist or mutate anything.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/config"
	"github.com/Giansimone-Coccia/Progetto-PA-sub000/pkg/models"
)

// Sentinel errors for cost computation failures.
var (
	ErrInvalidContentType = errors.New("invalid content type")
	ErrFrameCount         = errors.New("frame counting failed")
	ErrZipInspection      = errors.New("zip inspection failed")
)

// FrameCounter counts the frames of a raw video. Implementations may shell
// out to an external tool; tests substitute fakes.
type FrameCounter interface {
	CountFrames(ctx context.Context, data []byte) (int, error)
}

// Engine prices content using the configured rate tables. Upload and
// inference use different rates: inference is proportionally more
// expensive per unit of media.
type Engine struct {
	rates  config.PricingConfig
	frames FrameCounter
}

// NewEngine creates a new Engine.
func NewEngine(rates config.PricingConfig, frames FrameCounter) *Engine {
	return &Engine{rates: rates, frames: frames}
}

// UploadCost returns the upload-time price of a single content item.
// Images have a fixed unit cost, videos are priced per frame, and zips are
// priced by recursively counting the media they contain. A zip holding no
// media prices to 0; callers must reject such uploads rather than persist
// free content.
func (e *Engine) UploadCost(ctx context.Context, contentType string, data []byte) (float64, error) {
	switch contentType {
	case models.ContentTypeImage:
		return e.rates.ImageUploadRate, nil
	case models.ContentTypeVideo:
		frames, err := e.frames.CountFrames(ctx, data)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrFrameCount, err)
		}
		return float64(frames) * e.rates.FrameUploadRate, nil
	case models.ContentTypeZip:
		media, err := e.CountZipMedia(ctx, data)
		if err != nil {
			return 0, err
		}
		return float64(media.Images)*e.rates.ImageUploadRate +
			float64(media.Frames)*e.rates.FrameUploadRate, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidContentType, contentType)
	}
}

// InferenceCost reduces already-priced contents into the inference-time
// price. The stored upload cost acts as the unit driver: dividing it by
// the upload rate recovers the media unit count, which is then charged at
// the inference rate. Zips carry image-derived costs and use the image
// rates. Unknown types are skipped with a warning, not fatal.
func (e *Engine) InferenceCost(contents []*models.Content) float64 {
	var total float64
	for _, c := range contents {
		switch c.Type {
		case models.ContentTypeImage, models.ContentTypeZip:
			total += c.Cost / e.rates.ImageUploadRate * e.rates.ImageInferenceRate
		case models.ContentTypeVideo:
			total += c.Cost / e.rates.FrameUploadRate * e.rates.FrameInferenceRate
		default:
			slog.Warn("skipping content with unknown type",
				"content_id", c.ID, "type", c.Type)
		}
	}
	return total
}

package pricing

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
)

// ZipMedia is the media census of an archive, nested entries included.
type ZipMedia struct {
	Images int
	Frames int
}

// CountZipMedia walks a zip archive and counts the images and video frames
// it contains, descending into nested zips. The walk is bounded by the
// configured max nesting depth and max total decompressed size; breaching
// either guard fails the inspection.
func (e *Engine) CountZipMedia(ctx context.Context, data []byte) (ZipMedia, error) {
	var media ZipMedia
	budget := e.rates.ZipMaxBytes
	if err := e.walkZip(ctx, data, 1, &budget, &media); err != nil {
		return ZipMedia{}, err
	}
	return media, nil
}

func (e *Engine) walkZip(ctx context.Context, data []byte, depth int, budget *int64, media *ZipMedia) error {
	if depth > e.rates.ZipMaxDepth {
		return fmt.Errorf("%w: nesting exceeds max depth %d", ErrZipInspection, e.rates.ZipMaxDepth)
	}

	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrZipInspection, err)
	}

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			continue
		}

		switch classifyEntry(f.Name) {
		case entryImage:
			media.Images++
		case entryVideo:
			entry, err := readEntry(f, budget)
			if err != nil {
				return err
			}
			frames, err := e.frames.CountFrames(ctx, entry)
			if err != nil {
				return fmt.Errorf("%w: entry %s: %v", ErrFrameCount, f.Name, err)
			}
			media.Frames += frames
		case entryZip:
			entry, err := readEntry(f, budget)
			if err != nil {
				return err
			}
			if err := e.walkZip(ctx, entry, depth+1, budget, media); err != nil {
				return err
			}
		}
	}
	return nil
}

type entryKind int

const (
	entryOther entryKind = iota
	entryImage
	entryVideo
	entryZip
)

func classifyEntry(name string) entryKind {
	switch strings.ToLower(path.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".webp":
		return entryImage
	case ".mp4":
		return entryVideo
	case ".zip":
		return entryZip
	default:
		return entryOther
	}
}

// readEntry decompresses a single archive entry, charging its size against
// the shared budget.
func readEntry(f *zip.File, budget *int64) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open entry %s: %v", ErrZipInspection, f.Name, err)
	}
	defer rc.Close()

	// Read at most budget+1 bytes so an oversized entry is detected
	// rather than silently truncated.
	data, err := io.ReadAll(io.LimitReader(rc, *budget+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read entry %s: %v", ErrZipInspection, f.Name, err)
	}
	if int64(len(data)) > *budget {
		return nil, fmt.Errorf("%w: decompressed size exceeds budget", ErrZipInspection)
	}
	*budget -= int64(len(data))
	return data, nil
}

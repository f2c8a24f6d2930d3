package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ContentTypeImage = "image"
	ContentTypeVideo = "video"
	ContentTypeZip   = "zip"
)

// mimeTypes maps a declared content type to the MIME types accepted for it.
var mimeTypes = map[string][]string{
	ContentTypeImage: {"image/jpeg", "image/png", "image/webp"},
	ContentTypeVideo: {"video/mp4"},
	ContentTypeZip:   {"application/zip"},
}

// ValidContentType reports whether t is one of the supported content types.
func ValidContentType(t string) bool {
	_, ok := mimeTypes[t]
	return ok
}

// ValidMimeType reports whether mime is accepted for the declared content type.
func ValidMimeType(contentType, mime string) bool {
	for _, m := range mimeTypes[contentType] {
		if m == mime {
			return true
		}
	}
	return false
}

// Content is a single uploaded media item. Cost is computed once at upload
// time and never changes afterwards; the raw bytes are stored alongside it.
type Content struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	DatasetID uuid.UUID `db:"dataset_id" json:"dataset_id"`
	Type      string    `db:"type"       json:"type"`
	Name      string    `db:"name"       json:"name"`
	Data      []byte    `db:"data"       json:"data,omitempty"`
	Cost      float64   `db:"cost"       json:"cost"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

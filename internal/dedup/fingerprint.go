// Package dedup detects duplicate content across a user's datasets. Two
// datasets of the same owner may share a name only if their content
// fingerprint sets do not intersect.
package dedup

import (
	"crypto/sha256"
	"fmt"
	"io"
	"strconv"

	"github.com/Giansimone-Coccia/Progetto-PA-sub000/pkg/models"
)

// Fingerprint derives a stable identity for a content item from its
// declared type, its cost and a SHA-256 digest of the raw bytes. Items
// with identical bytes fingerprint identically regardless of name or
// storage location.
func Fingerprint(c *models.Content) string {
	h := sha256.New()
	io.WriteString(h, c.Type)
	h.Write([]byte{0})
	io.WriteString(h, strconv.FormatFloat(c.Cost, 'f', -1, 64))
	h.Write([]byte{0})
	h.Write(c.Data)
	return fmt.Sprintf("%x", h.Sum(nil))
}

func fingerprintSet(contents []*models.Content) map[string]struct{} {
	set := make(map[string]struct{}, len(contents))
	for _, c := range contents {
		set[Fingerprint(c)] = struct{}{}
	}
	return set
}

func intersects(a, b map[string]struct{}) bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	for fp := range a {
		if _, ok := b[fp]; ok {
			return true
		}
	}
	return false
}

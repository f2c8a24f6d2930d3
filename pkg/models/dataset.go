package models

import (
	"time"

	"github.com/google/uuid"
)

// Dataset groups uploaded contents under a user-chosen name. Datasets are
// soft-deleted (flag flip) so historical inferences stay addressable.
// The same owner may reuse a name as long as the datasets carrying it do
// not share any content fingerprints.
type Dataset struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	UserID    uuid.UUID `db:"user_id"    json:"user_id"`
	Name      string    `db:"name"       json:"name"`
	Tags      []string  `db:"tags"       json:"tags"`
	IsDeleted bool      `db:"is_deleted" json:"is_deleted"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Image is a stored cover or gallery file belonging to a book. IsMain is a
// tri-state flag: true for the poster, false for the hover poster, and NULL
// for gallery images. URL holds the filename generated by the file store.
type Image struct {
	bun.BaseModel `bun:"table:images,alias:i"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	BookID    int       `bun:",nullzero" json:"book_id"`
	URL       string    `bun:",nullzero" json:"url"`
	IsMain    *bool     `json:"is_main"`
}

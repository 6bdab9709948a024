package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Book is the aggregate root of the catalog. Its Images and BookTags are
// owned exclusively by the book and are loaded and persisted together with
// it as one consistency unit.
type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID          int        `bun:",pk,nullzero" json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Name        string     `bun:",nullzero" json:"name"`
	AuthorID    int        `bun:",nullzero" json:"author_id"`
	Author      *Author    `bun:"rel:belongs-to,join:author_id=id" json:"author,omitempty"`
	GenreID     int        `bun:",nullzero" json:"genre_id"`
	Genre       *Genre     `bun:"rel:belongs-to,join:genre_id=id" json:"genre,omitempty"`
	Price       float64    `json:"price"`
	IsNew       bool       `json:"is_new"`
	IsFeatured  bool       `json:"is_featured"`
	IsAvailable bool       `json:"is_available"`
	Images      []*Image   `bun:"rel:has-many,join:id=book_id" json:"images"`
	BookTags    []*BookTag `bun:"rel:has-many,join:id=book_id" json:"book_tags,omitempty"`
}

// Poster returns the main cover image, or nil if none is loaded.
func (b *Book) Poster() *Image {
	for _, img := range b.Images {
		if img.IsMain != nil && *img.IsMain {
			return img
		}
	}
	return nil
}

// HoverPoster returns the secondary cover image shown on hover, or nil if
// none is loaded.
func (b *Book) HoverPoster() *Image {
	for _, img := range b.Images {
		if img.IsMain != nil && !*img.IsMain {
			return img
		}
	}
	return nil
}

// GalleryImages returns the detail-page images, i.e. every image that is
// neither the poster nor the hover poster.
func (b *Book) GalleryImages() []*Image {
	var gallery []*Image
	for _, img := range b.Images {
		if img.IsMain == nil {
			gallery = append(gallery, img)
		}
	}
	return gallery
}

// TagIDs returns the ids of the tags currently associated with the book.
// BookTags must be loaded.
func (b *Book) TagIDs() []int {
	ids := make([]int, 0, len(b.BookTags))
	for _, bt := range b.BookTags {
		ids = append(ids, bt.TagID)
	}
	return ids
}

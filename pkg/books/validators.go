package books

import "mime/multipart"

// File keys expected in multipart book payloads.
const (
	fileKeyPoster      = "poster_image"
	fileKeyHoverPoster = "hover_poster"
	fileKeyGallery     = "book_images"
)

type ListBooksQuery struct {
	Limit  int     `query:"limit" json:"limit,omitempty" default:"24" validate:"min=1,max=100"`
	Offset int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Search *string `query:"search" json:"search,omitempty" validate:"omitempty,max=200"`
}

// CreateBookPayload is bound from a multipart form. Scalar fields come from
// the form values; the poster, hover poster, and gallery uploads come through
// FormFiles.
type CreateBookPayload struct {
	Name        string  `form:"name" json:"name" mod:"trim" validate:"required,max=200"`
	AuthorID    int     `form:"author_id" json:"author_id" validate:"required"`
	GenreID     int     `form:"genre_id" json:"genre_id" validate:"required"`
	Price       float64 `form:"price" json:"price" validate:"min=0"`
	IsNew       bool    `form:"is_new" json:"is_new"`
	IsFeatured  bool    `form:"is_featured" json:"is_featured"`
	IsAvailable bool    `form:"is_available" json:"is_available"`
	TagIDs      []int   `form:"tag_ids" json:"tag_ids" validate:"dive,min=1"`

	FormFiles map[string][]*multipart.FileHeader `form:"-" json:"-" validate:"-"`
}

// UpdateBookPayload mirrors CreateBookPayload: the edit form posts the full
// record, and the submitted tag set replaces the stored one. All file uploads
// are optional on update.
type UpdateBookPayload struct {
	Name        string  `form:"name" json:"name" mod:"trim" validate:"required,max=200"`
	AuthorID    int     `form:"author_id" json:"author_id" validate:"required"`
	GenreID     int     `form:"genre_id" json:"genre_id" validate:"required"`
	Price       float64 `form:"price" json:"price" validate:"min=0"`
	IsNew       bool    `form:"is_new" json:"is_new"`
	IsFeatured  bool    `form:"is_featured" json:"is_featured"`
	IsAvailable bool    `form:"is_available" json:"is_available"`
	TagIDs      []int   `form:"tag_ids" json:"tag_ids" validate:"dive,min=1"`

	FormFiles map[string][]*multipart.FileHeader `form:"-" json:"-" validate:"-"`
}

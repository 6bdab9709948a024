package books

import (
	"context"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/pustokbooks/pustok/pkg/authors"
	"github.com/pustokbooks/pustok/pkg/errcodes"
	"github.com/pustokbooks/pustok/pkg/filestore"
	"github.com/pustokbooks/pustok/pkg/genres"
	"github.com/pustokbooks/pustok/pkg/models"
	"github.com/pustokbooks/pustok/pkg/tags"
	"github.com/robinjoseph08/golib/logger"
)

type handler struct {
	bookService   *Service
	authorService *authors.Service
	genreService  *genres.Service
	tagService    *tags.Service
	store         *filestore.Store
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	books, total, err := h.bookService.ListBooksWithTotal(ctx, ListBooksOptions{
		Limit:  &params.Limit,
		Offset: &params.Offset,
		Search: params.Search,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Books []*models.Book `json:"books"`
		Total int            `json:"total"`
	}{books, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)

	params := CreateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	tagIDs := dedupeIDs(params.TagIDs)
	if err := h.validateReferences(ctx, params.AuthorID, params.GenreID, tagIDs); err != nil {
		return err
	}

	// Both covers are required, and the check runs before any file is
	// written, so a rejected request has no filesystem side effects.
	poster := firstFile(params.FormFiles, fileKeyPoster)
	if poster == nil {
		return errcodes.FieldValidationError(fileKeyPoster, `"`+fileKeyPoster+`" is required`)
	}
	hoverPoster := firstFile(params.FormFiles, fileKeyHoverPoster)
	if hoverPoster == nil {
		return errcodes.FieldValidationError(fileKeyHoverPoster, `"`+fileKeyHoverPoster+`" is required`)
	}

	stager := newImageStager(h.store)

	book := &models.Book{
		Name:        params.Name,
		AuthorID:    params.AuthorID,
		GenreID:     params.GenreID,
		Price:       params.Price,
		IsNew:       params.IsNew,
		IsFeatured:  params.IsFeatured,
		IsAvailable: params.IsAvailable,
	}

	posterImage, err := stager.stageNew(poster, boolPtr(true))
	if err != nil {
		stager.discardStaged(log)
		return stageError(err, fileKeyPoster)
	}
	book.Images = append(book.Images, posterImage)

	hoverImage, err := stager.stageNew(hoverPoster, boolPtr(false))
	if err != nil {
		stager.discardStaged(log)
		return stageError(err, fileKeyHoverPoster)
	}
	book.Images = append(book.Images, hoverImage)

	for _, fh := range params.FormFiles[fileKeyGallery] {
		galleryImage, err := stager.stageNew(fh, nil)
		if err != nil {
			stager.discardStaged(log)
			return stageError(err, fileKeyGallery)
		}
		book.Images = append(book.Images, galleryImage)
	}

	for _, tagID := range tagIDs {
		book.BookTags = append(book.BookTags, &models.BookTag{TagID: tagID})
	}

	if err := h.bookService.CreateBook(ctx, book); err != nil {
		stager.discardStaged(log)
		return errors.WithStack(err)
	}

	book, err = h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &book.ID})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, book))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	params := UpdateBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	// References are re-validated only when the submitted value differs from
	// the stored one. Tag ids are always checked since the submitted set
	// replaces the stored set wholesale.
	if params.AuthorID != book.AuthorID {
		exists, err := h.authorService.Exists(ctx, params.AuthorID)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.FieldValidationError("author_id", `"author_id" must reference an existing author`)
		}
	}
	if params.GenreID != book.GenreID {
		exists, err := h.genreService.Exists(ctx, params.GenreID)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.FieldValidationError("genre_id", `"genre_id" must reference an existing genre`)
		}
	}

	tagIDs := dedupeIDs(params.TagIDs)
	if err := h.validateTagIDs(ctx, tagIDs); err != nil {
		return err
	}

	toAdd, toRemove := ReconcileTags(book.TagIDs(), tagIDs)

	stager := newImageStager(h.store)
	opts := UpdateBookOptions{
		AddTagIDs:    toAdd,
		RemoveTagIDs: toRemove,
	}

	if fh := firstFile(params.FormFiles, fileKeyPoster); fh != nil {
		if err := h.stageSlot(stager, &opts, book.Poster(), fh, boolPtr(true), fileKeyPoster, log); err != nil {
			return err
		}
	}
	if fh := firstFile(params.FormFiles, fileKeyHoverPoster); fh != nil {
		if err := h.stageSlot(stager, &opts, book.HoverPoster(), fh, boolPtr(false), fileKeyHoverPoster, log); err != nil {
			return err
		}
	}
	// Gallery uploads always append; existing gallery images are kept.
	for _, fh := range params.FormFiles[fileKeyGallery] {
		img, err := stager.stageNew(fh, nil)
		if err != nil {
			stager.discardStaged(log)
			return stageError(err, fileKeyGallery)
		}
		opts.NewImages = append(opts.NewImages, img)
	}

	book.Name = params.Name
	book.AuthorID = params.AuthorID
	book.GenreID = params.GenreID
	book.Price = params.Price
	book.IsNew = params.IsNew
	book.IsFeatured = params.IsFeatured
	book.IsAvailable = params.IsAvailable
	opts.Columns = []string{"name", "author_id", "genre_id", "price", "is_new", "is_featured", "is_available"}

	if err := h.bookService.UpdateBookAggregate(ctx, book, opts); err != nil {
		stager.discardStaged(log)
		return errors.WithStack(err)
	}

	// The aggregate write committed, so the superseded files can go now.
	stager.cleanupStale(log)

	book, err = h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) deleteBook(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Book")
	}

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	if err := h.bookService.DeleteBook(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	// Records are gone; remove the files best-effort.
	for _, img := range book.Images {
		if err := h.store.Delete(imageFolder, img.URL); err != nil {
			log.Warn("failed to delete image file", logger.Data{"url": img.URL, "error": err.Error()})
		}
	}

	return c.NoContent(http.StatusNoContent)
}

// stageSlot stages an upload for a single-occupancy cover slot: a
// replacement when the slot already has an image, a fresh record otherwise.
func (h *handler) stageSlot(stager *imageStager, opts *UpdateBookOptions, existing *models.Image, fh *multipart.FileHeader, isMain *bool, field string, log logger.Logger) error {
	if existing != nil {
		if err := stager.stageReplacement(existing, fh); err != nil {
			stager.discardStaged(log)
			return stageError(err, field)
		}
		opts.UpdateImages = append(opts.UpdateImages, existing)
		return nil
	}

	img, err := stager.stageNew(fh, isMain)
	if err != nil {
		stager.discardStaged(log)
		return stageError(err, field)
	}
	opts.NewImages = append(opts.NewImages, img)
	return nil
}

func (h *handler) validateReferences(ctx context.Context, authorID, genreID int, tagIDs []int) error {
	exists, err := h.authorService.Exists(ctx, authorID)
	if err != nil {
		return errors.WithStack(err)
	}
	if !exists {
		return errcodes.FieldValidationError("author_id", `"author_id" must reference an existing author`)
	}

	exists, err = h.genreService.Exists(ctx, genreID)
	if err != nil {
		return errors.WithStack(err)
	}
	if !exists {
		return errcodes.FieldValidationError("genre_id", `"genre_id" must reference an existing genre`)
	}

	return h.validateTagIDs(ctx, tagIDs)
}

func (h *handler) validateTagIDs(ctx context.Context, tagIDs []int) error {
	missing, err := h.tagService.MissingIDs(ctx, tagIDs)
	if err != nil {
		return errors.WithStack(err)
	}
	if len(missing) > 0 {
		return errcodes.FieldValidationError("tag_ids", `"tag_ids" contains ids of tags that don't exist`)
	}
	return nil
}

// stageError translates filestore rejections into field-scoped validation
// errors so the client knows which upload was bad.
func stageError(err error, field string) error {
	if errors.Is(err, filestore.ErrUnsupportedImageType) {
		return errcodes.FieldValidationError(field, `"`+field+`" must be an image file`)
	}
	return errors.WithStack(err)
}

func firstFile(files map[string][]*multipart.FileHeader, key string) *multipart.FileHeader {
	if headers := files[key]; len(headers) > 0 {
		return headers[0]
	}
	return nil
}

func dedupeIDs(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func boolPtr(b bool) *bool {
	return &b
}

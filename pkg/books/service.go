package books

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/pustokbooks/pustok/pkg/errcodes"
	"github.com/pustokbooks/pustok/pkg/models"
	"github.com/uptrace/bun"
)

type RetrieveBookOptions struct {
	ID *int
}

type ListBooksOptions struct {
	Limit  *int
	Offset *int
	Search *string

	includeTotal bool
}

// UpdateBookOptions describes every change applied by one aggregate write:
// scalar columns on the book row, the tag reconciliation diff, image records
// whose reference changed, and new image records to append.
type UpdateBookOptions struct {
	Columns      []string
	AddTagIDs    []int
	RemoveTagIDs []int
	UpdateImages []*models.Image
	NewImages    []*models.Image
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// CreateBook persists the book together with its images and tag
// associations as one aggregate write.
func (svc *Service) CreateBook(ctx context.Context, book *models.Book) error {
	now := time.Now()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = book.CreatedAt

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		// Insert book.
		_, err := tx.
			NewInsert().
			Model(book).
			Returning("*").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		// Insert images.
		for _, img := range book.Images {
			img.BookID = book.ID
			img.CreatedAt = book.CreatedAt
			img.UpdatedAt = book.UpdatedAt
		}

		if len(book.Images) > 0 {
			_, err := tx.
				NewInsert().
				Model(&book.Images).
				Returning("*").
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		// Insert tag associations.
		for _, bt := range book.BookTags {
			bt.BookID = book.ID
		}

		if len(book.BookTags) > 0 {
			_, err := tx.
				NewInsert().
				Model(&book.BookTags).
				Returning("*").
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		return nil
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// RetrieveBook loads the full aggregate: the book with its author, genre,
// images, and tag associations.
func (svc *Service) RetrieveBook(ctx context.Context, opts RetrieveBookOptions) (*models.Book, error) {
	book := &models.Book{}

	q := svc.db.
		NewSelect().
		Model(book).
		Relation("Author").
		Relation("Genre").
		Relation("Images", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("i.id ASC")
		}).
		Relation("BookTags")

	if opts.ID != nil {
		q = q.Where("b.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	return book, nil
}

func (svc *Service) ListBooks(ctx context.Context, opts ListBooksOptions) ([]*models.Book, error) {
	b, _, err := svc.listBooksWithTotal(ctx, opts)
	return b, errors.WithStack(err)
}

func (svc *Service) ListBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	opts.includeTotal = true
	return svc.listBooksWithTotal(ctx, opts)
}

func (svc *Service) listBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	books := []*models.Book{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&books).
		Relation("Author").
		Relation("Genre").
		Relation("Images", func(sq *bun.SelectQuery) *bun.SelectQuery {
			// The index view only needs the poster thumbnails.
			return sq.Where("i.is_main IS TRUE")
		}).
		Order("b.created_at ASC")

	if opts.Search != nil && *opts.Search != "" {
		q = q.Where("b.name LIKE ?", "%"+*opts.Search+"%")
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return books, total, nil
}

// UpdateBookAggregate applies the scalar column updates, the tag diff, and
// the staged image changes in one transaction, so partial tag or image
// changes never persist without the rest.
func (svc *Service) UpdateBookAggregate(ctx context.Context, book *models.Book, opts UpdateBookOptions) error {
	if len(opts.Columns) == 0 && len(opts.AddTagIDs) == 0 && len(opts.RemoveTagIDs) == 0 &&
		len(opts.UpdateImages) == 0 && len(opts.NewImages) == 0 {
		return nil
	}

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		now := time.Now()

		if len(opts.Columns) > 0 {
			book.UpdatedAt = now
			columns := append(opts.Columns, "updated_at")

			_, err := tx.
				NewUpdate().
				Model(book).
				Column(columns...).
				WherePK().
				Exec(ctx)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return errcodes.NotFound("Book")
				}
				return errors.WithStack(err)
			}
		}

		// Remove reconciled-out associations first, then add the new ones.
		if len(opts.RemoveTagIDs) > 0 {
			_, err := tx.
				NewDelete().
				Model((*models.BookTag)(nil)).
				Where("book_id = ?", book.ID).
				Where("tag_id IN (?)", bun.In(opts.RemoveTagIDs)).
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		if len(opts.AddTagIDs) > 0 {
			bookTags := make([]*models.BookTag, 0, len(opts.AddTagIDs))
			for _, tagID := range opts.AddTagIDs {
				bookTags = append(bookTags, &models.BookTag{BookID: book.ID, TagID: tagID})
			}
			_, err := tx.
				NewInsert().
				Model(&bookTags).
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		// Point replaced image records at their staged references.
		for _, img := range opts.UpdateImages {
			img.UpdatedAt = now
			_, err := tx.
				NewUpdate().
				Model(img).
				Column("url", "updated_at").
				WherePK().
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		if len(opts.NewImages) > 0 {
			for _, img := range opts.NewImages {
				img.BookID = book.ID
				img.CreatedAt = now
				img.UpdatedAt = now
			}
			_, err := tx.
				NewInsert().
				Model(&opts.NewImages).
				Returning("*").
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		return nil
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// DeleteBook removes the book together with its images and tag
// associations.
func (svc *Service) DeleteBook(ctx context.Context, id int) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.
			NewDelete().
			Model((*models.BookTag)(nil)).
			Where("book_id = ?", id).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.
			NewDelete().
			Model((*models.Image)(nil)).
			Where("book_id = ?", id).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.
			NewDelete().
			Model((*models.Book)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		return errors.WithStack(err)
	})
}

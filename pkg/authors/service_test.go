package authors

import (
	"context"
	"database/sql"
	"testing"

	"github.com/pustokbooks/pustok/pkg/errcodes"
	"github.com/pustokbooks/pustok/pkg/migrations"
	"github.com/pustokbooks/pustok/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func createAuthorWithBook(t *testing.T, db *bun.DB) *models.Author {
	t.Helper()
	ctx := context.Background()

	author := &models.Author{Name: "Referenced Author"}
	_, err := db.NewInsert().Model(author).Returning("*").Exec(ctx)
	require.NoError(t, err)

	genre := &models.Genre{Name: "Genre"}
	_, err = db.NewInsert().Model(genre).Returning("*").Exec(ctx)
	require.NoError(t, err)

	book := &models.Book{Name: "Book", AuthorID: author.ID, GenreID: genre.ID}
	_, err = db.NewInsert().Model(book).Returning("*").Exec(ctx)
	require.NoError(t, err)

	return author
}

func TestCreateAndRetrieveAuthor(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	svc := NewService(db)
	author := &models.Author{Name: "Orhan Pamuk"}
	require.NoError(t, svc.CreateAuthor(ctx, author))
	require.NotZero(t, author.ID)

	loaded, err := svc.RetrieveAuthor(ctx, RetrieveAuthorOptions{ID: &author.ID})
	require.NoError(t, err)
	assert.Equal(t, "Orhan Pamuk", loaded.Name)
}

func TestExists(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	svc := NewService(db)
	author := &models.Author{Name: "Author"}
	require.NoError(t, svc.CreateAuthor(ctx, author))

	exists, err := svc.Exists(ctx, author.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = svc.Exists(ctx, 4242)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDeleteAuthor_ConflictWhenReferenced(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	author := createAuthorWithBook(t, db)

	svc := NewService(db)
	err := svc.DeleteAuthor(ctx, author.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, errcodes.Conflict("Author is still referenced by books."))

	// Author is still there.
	exists, err := svc.Exists(ctx, author.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDeleteAuthor_Unreferenced(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	svc := NewService(db)
	author := &models.Author{Name: "No Books Yet"}
	require.NoError(t, svc.CreateAuthor(ctx, author))

	require.NoError(t, svc.DeleteAuthor(ctx, author.ID))

	exists, err := svc.Exists(ctx, author.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGetBookCount(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	author := createAuthorWithBook(t, db)

	svc := NewService(db)
	count, err := svc.GetBookCount(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

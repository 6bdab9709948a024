package genres

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

func createGenreWithBook(t *testing.T, db *bun.DB) *models.Genre {
	t.Helper()
	ctx := context.Background()

	author := &models.Author{Name: "Author"}
	_, err := db.NewInsert().Model(author).Returning("*").Exec(ctx)
	require.NoError(t, err)

	genre := &models.Genre{Name: "Referenced Genre"}
	_, err = db.NewInsert().Model(genre).Returning("*").Exec(ctx)
	require.NoError(t, err)

	book := &models.Book{Name: "Book", AuthorID: author.ID, GenreID: genre.ID}
	_, err = db.NewInsert().Model(book).Returning("*").Exec(ctx)
	require.NoError(t, err)

	return genre
}

func TestCreateAndRetrieveGenre(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	svc := NewService(db)
	genre := &models.Genre{Name: "Science Fiction"}
	require.NoError(t, svc.CreateGenre(ctx, genre))
	require.NotZero(t, genre.ID)

	loaded, err := svc.RetrieveGenre(ctx, RetrieveGenreOptions{ID: &genre.ID})
	require.NoError(t, err)
	assert.Equal(t, "Science Fiction", loaded.Name)
}

func TestRetrieveGenre_NameIsCaseInsensitive(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	svc := NewService(db)
	genre := &models.Genre{Name: "Mystery"}
	require.NoError(t, svc.CreateGenre(ctx, genre))

	name := "mYsTeRy"
	loaded, err := svc.RetrieveGenre(ctx, RetrieveGenreOptions{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, genre.ID, loaded.ID)
}

func TestExists(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	svc := NewService(db)
	genre := &models.Genre{Name: "Genre"}
	require.NoError(t, svc.CreateGenre(ctx, genre))

	exists, err := svc.Exists(ctx, genre.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = svc.Exists(ctx, 4242)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDeleteGenre_ConflictWhenReferenced(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	genre := createGenreWithBook(t, db)

	svc := NewService(db)
	err := svc.DeleteGenre(ctx, genre.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, errcodes.Conflict("Genre is still referenced by books."))

	// Genre is still there.
	exists, err := svc.Exists(ctx, genre.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDeleteGenre_Unreferenced(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	svc := NewService(db)
	genre := &models.Genre{Name: "No Books Yet"}
	require.NoError(t, svc.CreateGenre(ctx, genre))

	require.NoError(t, svc.DeleteGenre(ctx, genre.ID))

	exists, err := svc.Exists(ctx, genre.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGetBookCount(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	genre := createGenreWithBook(t, db)

	svc := NewService(db)
	count, err := svc.GetBookCount(ctx, genre.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = svc.GetBookCount(ctx, 4242)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListGenres_IncludesBookCount(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	genre := createGenreWithBook(t, db)

	svc := NewService(db)
	empty := &models.Genre{Name: "Empty"}
	require.NoError(t, svc.CreateGenre(ctx, empty))

	genres, total, err := svc.ListGenresWithTotal(ctx, ListGenresOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	counts := map[int]int{}
	for _, g := range genres {
		counts[g.ID] = g.BookCount
	}
	assert.Equal(t, 1, counts[genre.ID])
	assert.Zero(t, counts[empty.ID])
}

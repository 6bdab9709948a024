package tags

import (
	"context"
	"database/sql"
	"testing"

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

func createTag(t *testing.T, db *bun.DB, name string) *models.Tag {
	t.Helper()

	tag := &models.Tag{Name: name}
	_, err := db.NewInsert().Model(tag).Returning("*").Exec(context.Background())
	require.NoError(t, err)
	return tag
}

func createBookWithTag(t *testing.T, db *bun.DB, tagID int) *models.Book {
	t.Helper()
	ctx := context.Background()

	author := &models.Author{Name: "Author"}
	_, err := db.NewInsert().Model(author).Returning("*").Exec(ctx)
	require.NoError(t, err)

	genre := &models.Genre{Name: "Genre"}
	_, err = db.NewInsert().Model(genre).Returning("*").Exec(ctx)
	require.NoError(t, err)

	book := &models.Book{Name: "Book", AuthorID: author.ID, GenreID: genre.ID}
	_, err = db.NewInsert().Model(book).Returning("*").Exec(ctx)
	require.NoError(t, err)

	bookTag := &models.BookTag{BookID: book.ID, TagID: tagID}
	_, err = db.NewInsert().Model(bookTag).Exec(ctx)
	require.NoError(t, err)

	return book
}

func TestMissingIDs(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	tag1 := createTag(t, db, "one")
	tag2 := createTag(t, db, "two")

	svc := NewService(db)

	missing, err := svc.MissingIDs(ctx, []int{tag1.ID, tag2.ID})
	require.NoError(t, err)
	assert.Empty(t, missing)

	missing, err = svc.MissingIDs(ctx, []int{tag1.ID, 4242, 9999})
	require.NoError(t, err)
	assert.Equal(t, []int{4242, 9999}, missing)

	missing, err = svc.MissingIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestDeleteTag_RemovesBookAssociations(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	tag := createTag(t, db, "doomed")
	book := createBookWithTag(t, db, tag.ID)

	svc := NewService(db)
	require.NoError(t, svc.DeleteTag(ctx, tag.ID))

	_, err := svc.RetrieveTag(ctx, RetrieveTagOptions{ID: &tag.ID})
	require.Error(t, err)

	// The association rows are gone but the book survives.
	count, err := db.NewSelect().Model((*models.BookTag)(nil)).Where("tag_id = ?", tag.ID).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	exists, err := db.NewSelect().Model((*models.Book)(nil)).Where("id = ?", book.ID).Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGetBookCount(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	tag := createTag(t, db, "counted")
	createBookWithTag(t, db, tag.ID)

	svc := NewService(db)
	count, err := svc.GetBookCount(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestListTags_SearchAndOrder(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	createTag(t, db, "zeta")
	createTag(t, db, "alpha")
	createTag(t, db, "beta")

	svc := NewService(db)
	tags, total, err := svc.ListTagsWithTotal(ctx, ListTagsOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, tags, 3)
	assert.Equal(t, "alpha", tags[0].Name)
	assert.Equal(t, "beta", tags[1].Name)
	assert.Equal(t, "zeta", tags[2].Name)

	search := "et"
	tags, total, err = svc.ListTagsWithTotal(ctx, ListTagsOptions{Search: &search})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, tags, 2)
}

package auth

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

func createUser(t *testing.T, db *bun.DB, username, password string, isActive bool) *models.User {
	t.Helper()

	hash, err := HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		Username:     username,
		FullName:     "Test User",
		PasswordHash: hash,
		IsAdmin:      true,
		IsActive:     isActive,
	}
	_, err = db.NewInsert().Model(user).Returning("*").Exec(context.Background())
	require.NoError(t, err)
	return user
}

func TestHashAndCheckPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, CheckPassword("correct horse battery staple", hash))
	assert.False(t, CheckPassword("wrong password", hash))
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	createUser(t, db, "admin", "password123", true)
	createUser(t, db, "inactive", "password123", false)

	svc := NewService(db, "test-secret")

	t.Run("valid credentials", func(t *testing.T) {
		user, err := svc.Authenticate(ctx, "admin", "password123")
		require.NoError(t, err)
		assert.Equal(t, "admin", user.Username)
	})

	t.Run("username is case-insensitive", func(t *testing.T) {
		user, err := svc.Authenticate(ctx, "ADMIN", "password123")
		require.NoError(t, err)
		assert.Equal(t, "admin", user.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "admin", "nope nope nope")
		require.Error(t, err)
	})

	t.Run("inactive user", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "inactive", "password123")
		require.Error(t, err)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "ghost", "password123")
		require.Error(t, err)
	})
}

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)

	svc := NewService(db, "test-secret")
	user := &models.User{ID: 42, Username: "admin"}

	token, err := svc.GenerateToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, "admin", claims.Username)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)

	token, err := NewService(db, "secret-one").GenerateToken(&models.User{ID: 1, Username: "u"})
	require.NoError(t, err)

	_, err = NewService(db, "secret-two").ValidateToken(token)
	require.Error(t, err)
}

func TestCreateFirstAdmin(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	svc := NewService(db, "test-secret")

	user, err := svc.CreateFirstAdmin(ctx, "admin", "The Admin", "password123")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)
	assert.True(t, user.IsActive)

	// Setup only works once.
	_, err = svc.CreateFirstAdmin(ctx, "second", "Second Admin", "password123")
	require.Error(t, err)
}

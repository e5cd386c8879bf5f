package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("Skipping integration test: DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := Connect(ctx, dbURL)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to DB: %v", err)
	}
	require.NoError(t, db.Migrate(ctx))
	t.Cleanup(db.Close)
	return db
}

func TestIntegration_UpsertProviderUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	subject := "U" + uuid.NewString()

	created, err := db.UpsertProviderUser(ctx, ProviderProfile{
		Provider:    "line",
		Subject:     subject,
		DisplayName: "Aiko",
		AvatarURL:   "https://profile.line-scdn.net/abc",
	})
	require.NoError(t, err)
	defer func() { _ = db.DeleteUser(ctx, created.ID) }()

	assert.Equal(t, "line", created.Provider)
	require.NotNil(t, created.DisplayName)
	assert.Equal(t, "Aiko", *created.DisplayName)
	assert.Nil(t, created.Email)
	assert.Nil(t, created.Role)

	_, err = db.UpdateRole(ctx, created.ID, "seeker")
	require.NoError(t, err)

	// A later sign-in without a display name keeps the stored one and the role.
	again, err := db.UpsertProviderUser(ctx, ProviderProfile{Provider: "line", Subject: subject, Email: "aiko@example.com"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, "Aiko", *again.DisplayName)
	assert.Equal(t, "aiko@example.com", *again.Email)
	require.NotNil(t, again.Role)
	assert.Equal(t, "seeker", *again.Role)
}

func TestIntegration_UpsertProviderUser_RequiresSubject(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.UpsertProviderUser(context.Background(), ProviderProfile{Provider: "google"})
	assert.Error(t, err)
}

func TestIntegration_PasswordUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	email := "Employer-" + uuid.NewString() + "@Example.com"
	role := "employer"

	created, err := db.CreatePasswordUser(ctx, "Acme Hiring", email, "$2a$04$hash", &role)
	require.NoError(t, err)
	defer func() { _ = db.DeleteUser(ctx, created.ID) }()

	_, err = db.CreatePasswordUser(ctx, "Other", email, "$2a$04$hash", nil)
	assert.ErrorIs(t, err, ErrDuplicateUser)

	found, err := db.GetPasswordUser(ctx, email)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
	require.NotNil(t, found.PasswordHash)

	missing, err := db.GetPasswordUser(ctx, "nobody-"+uuid.NewString()+"@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	empty, err := db.GetPasswordUser(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestIntegration_GetUserAndUpdateRole_NotFound(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user, err := db.GetUser(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, user)

	updated, err := db.UpdateRole(ctx, uuid.New(), "seeker")
	require.NoError(t, err)
	assert.Nil(t, updated)

	assert.Error(t, db.DeleteUser(ctx, uuid.New()))
}

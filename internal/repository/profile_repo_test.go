package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/GraceTang323/LinkedUp/internal/db"
	"github.com/GraceTang323/LinkedUp/internal/repository"
)

func TestBootstrap_CreatesPlaceholderWithDefaults(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewProfileRepository(setupTestDB(t))

	user, err := repo.Bootstrap(ctx, "fresh-uid")
	require.NoError(t, err)

	assert.Equal(t, "fresh-uid", user.UID)
	assert.Empty(t, user.Name)
	assert.True(t, user.NotificationsEnabled)
	assert.True(t, user.LocationVisible)
	assert.Equal(t, db.DefaultSearchRadiusKm, user.SearchRadiusKm)
}

func TestBootstrap_DoesNotOverwriteExisting(t *testing.T) {
	ctx := context.Background()
	gdb := setupTestDB(t)
	repo := repository.NewProfileRepository(gdb)

	_, err := repo.Bootstrap(ctx, "uid-1")
	require.NoError(t, err)
	require.NoError(t, repo.UpdateProfile(ctx, "uid-1", "Grace", "CS", "hi", "608-555-0000"))

	user, err := repo.Bootstrap(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "Grace", user.Name)
}

func TestUpdateProfile_RejectsBlankFields(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewProfileRepository(setupTestDB(t))

	err := repo.UpdateProfile(ctx, "uid-1", "", "CS", "bio", "608-555-0000")
	assert.Error(t, err)
	err = repo.UpdateProfile(ctx, "uid-1", "Grace", " ", "bio", "608-555-0000")
	assert.Error(t, err)
	err = repo.UpdateProfile(ctx, "uid-1", "Grace", "CS", "bio", "")
	assert.Error(t, err)
}

func TestUpdatePreferences_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewProfileRepository(setupTestDB(t))

	_, err := repo.Bootstrap(ctx, "uid-1")
	require.NoError(t, err)

	require.NoError(t, repo.UpdatePreferences(ctx, "uid-1",
		[]string{"hiking", "coffee"}, []string{"CS407"}))

	user, err := repo.Get(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"hiking", "coffee"}, user.Interests)
	assert.Equal(t, []string{"CS407"}, user.Classes)
}

func TestGet_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewProfileRepository(setupTestDB(t))

	_, err := repo.Get(ctx, "nobody")
	require.Error(t, err)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

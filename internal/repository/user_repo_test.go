package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gytkk/todo/internal/models"
)

func TestUserRepository_SaveAndFindByEmail(t *testing.T) {
	db, mr := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := models.NewUser("alice@example.com", "Alice", "hash")
	_, err := repo.Save(ctx, u)
	require.NoError(t, err)

	owner, err := mr.Get("user:index:email:alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, owner)
	assert.True(t, mr.Exists("user:"+u.ID))

	found, err := repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, u.ID, found.ID)
	assert.Equal(t, "Alice", found.DisplayName())

	missing, err := repo.FindByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepository_DuplicateEmailIsConflict(t *testing.T) {
	db, mr := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	first := models.NewUser("dup@example.com", "First", "hash")
	_, err := repo.Save(ctx, first)
	require.NoError(t, err)

	second := models.NewUser("dup@example.com", "Second", "hash")
	_, err = repo.Save(ctx, second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))

	owner, err := mr.Get("user:index:email:dup@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, owner)
	assert.False(t, mr.Exists("user:"+second.ID))

	// Re-saving the owner is not a conflict.
	first.EmailVerified = true
	_, err = repo.Save(ctx, first)
	require.NoError(t, err)
}

func TestUserRepository_UpdateEmail(t *testing.T) {
	db, mr := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	a := models.NewUser("a@example.com", "A", "hash")
	b := models.NewUser("b@example.com", "B", "hash")
	for _, u := range []*models.User{a, b} {
		_, err := repo.Save(ctx, u)
		require.NoError(t, err)
	}

	_, err := repo.UpdateEmail(ctx, a.ID, "b@example.com")
	assert.True(t, errors.Is(err, ErrConflict))

	updated, err := repo.UpdateEmail(ctx, a.ID, "new@example.com")
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "new@example.com", updated.Email)

	assert.False(t, mr.Exists("user:index:email:a@example.com"))
	owner, err := mr.Get("user:index:email:new@example.com")
	require.NoError(t, err)
	assert.Equal(t, a.ID, owner)

	none, err := repo.UpdateEmail(ctx, "ghost", "x@example.com")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestUserRepository_DeleteRemovesEmailIndex(t *testing.T) {
	db, mr := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := models.NewUser("gone@example.com", "Gone", "hash")
	_, err := repo.Save(ctx, u)
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.False(t, mr.Exists("user:index:email:gone@example.com"))
	assert.Empty(t, listOf(t, mr, "user:list"))

	deleted, err = repo.Delete(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	// The address can be registered again.
	_, err = repo.Save(ctx, models.NewUser("gone@example.com", "Again", "hash"))
	require.NoError(t, err)
}

func TestUserRepository_ReclaimsOrphanedEmailPointer(t *testing.T) {
	db, mr := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, mr.Set("user:index:email:orphan@example.com", "deleted-user"))

	u := models.NewUser("orphan@example.com", "New", "hash")
	_, err := repo.Save(ctx, u)
	require.NoError(t, err)

	owner, err := mr.Get("user:index:email:orphan@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, owner)
}

func TestUserRepository_EmailKeyIsCasePreserving(t *testing.T) {
	db, mr := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := models.NewUser("Mixed@Example.com", "Mixed", "hash")
	_, err := repo.Save(ctx, u)
	require.NoError(t, err)
	assert.True(t, mr.Exists("user:index:email:Mixed@Example.com"))

	found, err := repo.FindByEmail(ctx, "Mixed@Example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Mixed@Example.com", found.Email)

	other, err := repo.FindByEmail(ctx, "mixed@example.com")
	require.NoError(t, err)
	assert.Nil(t, other)
}

package repository

import (
	"context"

	"github.com/gytkk/todo/internal/database"
	"github.com/gytkk/todo/internal/models"
)

// ScopedRepository stores entities in a namespace owned by one user. Every
// key it touches is prefixed with the user id, so no method can reach
// another user's data.
type ScopedRepository[E models.Entity] struct {
	store[E]
	name string
}

// NewScopedRepository creates a user-scoped repository for entityName.
func NewScopedRepository[E models.Entity](db *database.Redis, entityName string, opts ...Option[E]) *ScopedRepository[E] {
	return &ScopedRepository[E]{
		store: newStore(db, opts...),
		name:  entityName,
	}
}

func (r *ScopedRepository[E]) keys(userID string) keyspace {
	return userKeyspace(userID, r.name)
}

// FindByID returns the user's entity or nil if it does not exist.
func (r *ScopedRepository[E]) FindByID(ctx context.Context, userID, id string) (*E, error) {
	return r.findByID(ctx, r.keys(userID), id)
}

// FindAll returns every entity of the user, most recently saved first.
func (r *ScopedRepository[E]) FindAll(ctx context.Context, userID string) ([]*E, error) {
	return r.findAll(ctx, r.keys(userID))
}

// FindPaginated returns one page of the user's entity list.
func (r *ScopedRepository[E]) FindPaginated(ctx context.Context, userID string, p models.PaginationParams) (*models.Page[*E], error) {
	return r.findPaginated(ctx, r.keys(userID), p)
}

// Save writes the entity and moves it to the front of the user's list.
func (r *ScopedRepository[E]) Save(ctx context.Context, userID string, e *E) (*E, error) {
	return r.save(ctx, r.keys(userID), e)
}

// Delete removes the entity. It returns false if it did not exist.
func (r *ScopedRepository[E]) Delete(ctx context.Context, userID, id string) (bool, error) {
	return r.delete(ctx, r.keys(userID), id)
}

// DeleteAll removes every entity of the user and returns how many were
// deleted.
func (r *ScopedRepository[E]) DeleteAll(ctx context.Context, userID string) (int, error) {
	return r.deleteAll(ctx, r.keys(userID))
}

func (r *ScopedRepository[E]) Exists(ctx context.Context, userID, id string) (bool, error) {
	return r.exists(ctx, r.keys(userID), id)
}

func (r *ScopedRepository[E]) Count(ctx context.Context, userID string) (int, error) {
	return r.count(ctx, r.keys(userID))
}

// FindByField returns the user's entities whose indexed field equals value.
func (r *ScopedRepository[E]) FindByField(ctx context.Context, userID, field, value string) ([]*E, error) {
	return r.findByField(ctx, r.keys(userID), field, value)
}

// CreateIndex adds the entity to the user's (field, value) index.
func (r *ScopedRepository[E]) CreateIndex(ctx context.Context, userID string, e *E, field, value string) error {
	return r.createIndex(ctx, r.keys(userID), (*e).EntityID(), field, value)
}

// RemoveIndex removes id from the user's (field, value) index.
func (r *ScopedRepository[E]) RemoveIndex(ctx context.Context, userID, id, field, value string) error {
	return r.removeIndex(ctx, r.keys(userID), id, field, value)
}

// Package repository maps domain entities onto the key-value store.
//
// Each entity is a hash, each entity type has an id list ordered most recent
// first, and indexed fields have one set of ids per value. None of the
// methods report absence as an error: a missing entity is a nil result.
package repository

import (
	"context"

	"github.com/gytkk/todo/internal/database"
	"github.com/gytkk/todo/internal/models"
)

// Repository stores entities in a single global namespace.
type Repository[E models.Entity] struct {
	store[E]
	ks keyspace
}

// NewRepository creates a repository for the entity type named entityName.
func NewRepository[E models.Entity](db *database.Redis, entityName string, opts ...Option[E]) *Repository[E] {
	return &Repository[E]{
		store: newStore(db, opts...),
		ks:    globalKeyspace(entityName),
	}
}

// FindByID returns the entity or nil if it does not exist.
func (r *Repository[E]) FindByID(ctx context.Context, id string) (*E, error) {
	return r.findByID(ctx, r.ks, id)
}

// FindAll returns every entity, most recently saved first.
func (r *Repository[E]) FindAll(ctx context.Context) ([]*E, error) {
	return r.findAll(ctx, r.ks)
}

// FindPaginated returns one page of the entity list.
func (r *Repository[E]) FindPaginated(ctx context.Context, p models.PaginationParams) (*models.Page[*E], error) {
	return r.findPaginated(ctx, r.ks, p)
}

// Save writes the entity and moves it to the front of the list.
func (r *Repository[E]) Save(ctx context.Context, e *E) (*E, error) {
	return r.save(ctx, r.ks, e)
}

// Delete removes the entity. It returns false if it did not exist.
func (r *Repository[E]) Delete(ctx context.Context, id string) (bool, error) {
	return r.delete(ctx, r.ks, id)
}

// DeleteAll removes every entity and returns how many were deleted.
func (r *Repository[E]) DeleteAll(ctx context.Context) (int, error) {
	return r.deleteAll(ctx, r.ks)
}

func (r *Repository[E]) Exists(ctx context.Context, id string) (bool, error) {
	return r.exists(ctx, r.ks, id)
}

func (r *Repository[E]) Count(ctx context.Context) (int, error) {
	return r.count(ctx, r.ks)
}

// FindByField returns the entities whose indexed field equals value.
func (r *Repository[E]) FindByField(ctx context.Context, field, value string) ([]*E, error) {
	return r.findByField(ctx, r.ks, field, value)
}

// CreateIndex adds the entity to the (field, value) index.
func (r *Repository[E]) CreateIndex(ctx context.Context, e *E, field, value string) error {
	return r.createIndex(ctx, r.ks, (*e).EntityID(), field, value)
}

// RemoveIndex removes id from the (field, value) index.
func (r *Repository[E]) RemoveIndex(ctx context.Context, id, field, value string) error {
	return r.removeIndex(ctx, r.ks, id, field, value)
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/gytkk/todo/internal/database"
	"github.com/gytkk/todo/internal/models"
)

const userEntity = "user"

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindAll(ctx context.Context) ([]*models.User, error)
	FindPaginated(ctx context.Context, p models.PaginationParams) (*models.Page[*models.User], error)
	Save(ctx context.Context, u *models.User) (*models.User, error)
	Delete(ctx context.Context, id string) (bool, error)
	UpdateEmail(ctx context.Context, id, email string) (*models.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int, error)
}

type userRepo struct {
	*Repository[models.User]
	db *database.Redis
}

// NewUserRepository creates a user repository. Email uniqueness is kept in
// a scalar index key user:index:email:<email> holding the owner's id.
func NewUserRepository(db *database.Redis, opts ...Option[models.User]) UserRepository {
	return &userRepo{
		Repository: NewRepository(db, userEntity, opts...),
		db:         db,
	}
}

func (r *userRepo) emailKey(email string) string {
	return r.ks.index("email", email)
}

// FindByEmail resolves the email index. A pointer to a user that no longer
// exists is treated as absent.
func (r *userRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	id, ok, err := r.db.Get(ctx, r.emailKey(email))
	if err != nil || !ok {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// Save writes the user and claims its email. The claim uses SETNX, so two
// concurrent registrations of one email cannot both succeed. A previous
// email owned by this user is released after the write.
func (r *userRepo) Save(ctx context.Context, u *models.User) (*models.User, error) {
	claimed, err := r.claimEmail(ctx, u.Email, u.ID)
	if err != nil {
		return nil, err
	}

	prev, err := r.Repository.FindByID(ctx, u.ID)
	if err != nil && !errors.Is(err, ErrDecode) {
		r.releaseClaim(ctx, claimed, u.Email, u.ID)
		return nil, err
	}

	saved, err := r.Repository.Save(ctx, u)
	if err != nil {
		r.releaseClaim(ctx, claimed, u.Email, u.ID)
		return nil, err
	}

	if prev != nil && prev.Email != u.Email {
		if _, err := r.db.DeleteIfEquals(ctx, r.emailKey(prev.Email), u.ID); err != nil {
			return nil, fmt.Errorf("release previous email: %w", err)
		}
	}
	return saved, nil
}

// claimEmail points the email index at id. It reports whether this call
// created the pointer. A pointer left behind by a deleted user is reclaimed.
func (r *userRepo) claimEmail(ctx context.Context, email, id string) (bool, error) {
	key := r.emailKey(email)
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := r.db.SetNX(ctx, key, id, 0)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}

		owner, found, err := r.db.Get(ctx, key)
		if err != nil {
			return false, err
		}
		if !found {
			continue
		}
		if owner == id {
			return false, nil
		}

		alive, err := r.Exists(ctx, owner)
		if err != nil {
			return false, err
		}
		if alive {
			return false, conflictf("email %s is already registered", email)
		}
		if _, err := r.db.DeleteIfEquals(ctx, key, owner); err != nil {
			return false, err
		}
	}
	return false, conflictf("email %s is already registered", email)
}

func (r *userRepo) releaseClaim(ctx context.Context, claimed bool, email, id string) {
	if claimed {
		r.db.DeleteIfEquals(ctx, r.emailKey(email), id)
	}
}

// Delete removes the user and its email index entry.
func (r *userRepo) Delete(ctx context.Context, id string) (bool, error) {
	u, err := r.Repository.FindByID(ctx, id)
	if err != nil && !errors.Is(err, ErrDecode) {
		return false, err
	}

	deleted, err := r.Repository.Delete(ctx, id)
	if err != nil || !deleted {
		return deleted, err
	}

	if u != nil {
		if _, err := r.db.DeleteIfEquals(ctx, r.emailKey(u.Email), id); err != nil {
			return true, err
		}
	}
	return true, nil
}

// UpdateEmail moves the user to a new email. It returns ErrConflict when
// another user owns the address and nil when the user does not exist.
func (r *userRepo) UpdateEmail(ctx context.Context, id, email string) (*models.User, error) {
	u, err := r.FindByID(ctx, id)
	if err != nil || u == nil {
		return nil, err
	}
	if u.Email == email {
		return u, nil
	}

	u.Email = email
	u.Touch()
	return r.Save(ctx, u)
}

package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/gytkk/todo/internal/database"
	"github.com/gytkk/todo/internal/models"
)

const categoryEntity = "category"

// CategoryRepository defines the interface for category data operations.
type CategoryRepository interface {
	FindByID(ctx context.Context, userID, id string) (*models.Category, error)
	FindAll(ctx context.Context, userID string) ([]*models.Category, error)
	FindOrdered(ctx context.Context, userID string) ([]*models.Category, error)
	FindByName(ctx context.Context, userID, name string) (*models.Category, error)
	FindByColor(ctx context.Context, userID, color string) ([]*models.Category, error)
	Save(ctx context.Context, userID string, c *models.Category) (*models.Category, error)
	Delete(ctx context.Context, userID, id string) (bool, error)
	DeleteAll(ctx context.Context, userID string) (int, error)
	Exists(ctx context.Context, userID, id string) (bool, error)
	Count(ctx context.Context, userID string) (int, error)
	NextOrder(ctx context.Context, userID string) (int, error)
	Reorder(ctx context.Context, userID string, ids []string) error
	UpdateName(ctx context.Context, userID, id, name string) (*models.Category, error)
	AvailableColors() []string
}

type categoryRepo struct {
	*ScopedRepository[models.Category]
}

func categoryIndexes(c *models.Category) map[string]string {
	return map[string]string{
		"name":  c.Name,
		"color": c.Color,
	}
}

// NewCategoryRepository creates a category repository indexed by name and
// color.
func NewCategoryRepository(db *database.Redis, opts ...Option[models.Category]) CategoryRepository {
	opts = append([]Option[models.Category]{WithIndexes(categoryIndexes)}, opts...)
	return &categoryRepo{
		ScopedRepository: NewScopedRepository(db, categoryEntity, opts...),
	}
}

// FindOrdered returns the user's categories sorted by Order. Ties keep
// list order.
func (r *categoryRepo) FindOrdered(ctx context.Context, userID string) ([]*models.Category, error) {
	cats, err := r.FindAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(cats, func(i, j int) bool {
		return cats[i].Order < cats[j].Order
	})
	return cats, nil
}

// FindByName returns the user's category with the given name, or nil.
func (r *categoryRepo) FindByName(ctx context.Context, userID, name string) (*models.Category, error) {
	cats, err := r.FindByField(ctx, userID, "name", name)
	if err != nil || len(cats) == 0 {
		return nil, err
	}
	return cats[0], nil
}

func (r *categoryRepo) FindByColor(ctx context.Context, userID, color string) ([]*models.Category, error) {
	return r.FindByField(ctx, userID, "color", color)
}

// Save writes the category for userID. It returns ErrConflict when another
// of the user's categories already has the same name.
func (r *categoryRepo) Save(ctx context.Context, userID string, c *models.Category) (*models.Category, error) {
	c.UserID = userID
	if err := r.checkName(ctx, userID, c.ID, c.Name); err != nil {
		return nil, err
	}
	return r.ScopedRepository.Save(ctx, userID, c)
}

func (r *categoryRepo) checkName(ctx context.Context, userID, id, name string) error {
	ks := r.keys(userID)
	owners, err := r.indexMembers(ctx, ks, "name", name)
	if err != nil {
		return err
	}
	for _, owner := range owners {
		if owner == id {
			continue
		}
		other, err := r.findByID(ctx, ks, owner)
		if err != nil && !errors.Is(err, ErrDecode) {
			return err
		}
		if other != nil && other.Name == name {
			return conflictf("category %q already exists", name)
		}
	}
	return nil
}

// NextOrder returns one past the highest order in use, or 0.
func (r *categoryRepo) NextOrder(ctx context.Context, userID string) (int, error) {
	cats, err := r.FindAll(ctx, userID)
	if err != nil || len(cats) == 0 {
		return 0, err
	}
	highest := cats[0].Order
	for _, c := range cats[1:] {
		if c.Order > highest {
			highest = c.Order
		}
	}
	return highest + 1, nil
}

// Reorder sets each category's order to its position in ids, saving them
// one at a time. Ids that do not exist are skipped. A failure part way
// leaves earlier categories already reordered.
func (r *categoryRepo) Reorder(ctx context.Context, userID string, ids []string) error {
	for i, id := range ids {
		c, err := r.FindByID(ctx, userID, id)
		if err != nil {
			return err
		}
		if c == nil {
			continue
		}
		c.Order = i
		c.Touch()
		if _, err := r.ScopedRepository.Save(ctx, userID, c); err != nil {
			return err
		}
	}
	return nil
}

// UpdateName renames a category and moves its name index entry. It returns
// nil if the category does not exist and ErrConflict if the name is taken.
func (r *categoryRepo) UpdateName(ctx context.Context, userID, id, name string) (*models.Category, error) {
	c, err := r.FindByID(ctx, userID, id)
	if err != nil || c == nil {
		return nil, err
	}
	c.Name = name
	c.Touch()
	return r.Save(ctx, userID, c)
}

func (r *categoryRepo) AvailableColors() []string {
	return models.AvailableColors()
}

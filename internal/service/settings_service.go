package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gytkk/todo/internal/models"
	apierrors "github.com/gytkk/todo/internal/pkg/errors"
	"github.com/gytkk/todo/internal/repository"
)

// ExportVersion is written into every settings export.
const ExportVersion = "1.0"

// SettingsService manages user preferences and categories.
type SettingsService interface {
	Get(ctx context.Context, userID string) (*models.UserSettings, error)
	Update(ctx context.Context, userID string, up models.SettingsUpdate) (*models.UserSettings, error)
	Reset(ctx context.Context, userID string) (*models.UserSettings, error)
	Export(ctx context.Context, userID string) (*SettingsExport, error)
	Import(ctx context.Context, userID string, data SettingsExport) (*models.UserSettings, error)
	CategoryFilter(ctx context.Context, userID string) (map[string]bool, error)
	SetCategoryFilter(ctx context.Context, userID string, filter map[string]bool) (map[string]bool, error)

	Categories(ctx context.Context, userID string) ([]*models.CategorySummary, error)
	CreateCategory(ctx context.Context, userID string, req models.CategoryCreate) (*models.CategorySummary, error)
	UpdateCategory(ctx context.Context, userID, id string, up models.CategoryUpdate) (*models.CategorySummary, error)
	DeleteCategory(ctx context.Context, userID, id string) error
	ReorderCategories(ctx context.Context, userID string, ids []string) ([]*models.CategorySummary, error)
	AvailableColors() []string
}

// SettingsExport is the portable form of a user's settings and categories.
type SettingsExport struct {
	Version    string           `json:"version"`
	ExportDate time.Time        `json:"export_date"`
	UserID     string           `json:"user_id"`
	Settings   map[string]any   `json:"settings" validate:"required"`
	Categories []CategoryExport `json:"categories,omitempty" validate:"omitempty,dive"`
}

// CategoryExport is one exported category.
type CategoryExport struct {
	ID    string  `json:"id"`
	Name  string  `json:"name" validate:"required,min=1,max=50"`
	Color string  `json:"color" validate:"required,hexcolor,len=7"`
	Icon  *string `json:"icon,omitempty"`
	Order int     `json:"order"`
}

// ReorderRequest lists category ids in their new order.
type ReorderRequest struct {
	CategoryIDs []string `json:"category_ids" validate:"required,min=1,dive,required"`
}

type settingsService struct {
	settings   repository.SettingsRepository
	categories repository.CategoryRepository
	todos      repository.TodoRepository
	logger     *slog.Logger
}

// NewSettingsService creates a new settings service.
func NewSettingsService(
	settings repository.SettingsRepository,
	categories repository.CategoryRepository,
	todos repository.TodoRepository,
	logger *slog.Logger,
) SettingsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &settingsService{
		settings:   settings,
		categories: categories,
		todos:      todos,
		logger:     logger,
	}
}

// Get returns the user's settings, creating the defaults on first access.
func (s *settingsService) Get(ctx context.Context, userID string) (*models.UserSettings, error) {
	settings, err := s.settings.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fail("load settings", err)
	}
	if settings != nil {
		return settings, nil
	}
	if settings, err = s.settings.CreateDefault(ctx, userID); err != nil {
		return nil, fail("create default settings", err)
	}
	return settings, nil
}

func (s *settingsService) Update(ctx context.Context, userID string, up models.SettingsUpdate) (*models.UserSettings, error) {
	settings, err := s.settings.UpdatePartial(ctx, userID, up)
	if err != nil {
		return nil, fail("update settings", err)
	}
	return settings, nil
}

// Reset restores the default settings and the default categories. Custom
// categories are removed.
func (s *settingsService) Reset(ctx context.Context, userID string) (*models.UserSettings, error) {
	if _, err := s.settings.Delete(ctx, userID); err != nil {
		return nil, fail("delete settings", err)
	}
	if _, err := s.categories.DeleteAll(ctx, userID); err != nil {
		return nil, fail("delete categories", err)
	}
	settings, err := s.settings.CreateDefault(ctx, userID)
	if err != nil {
		return nil, fail("create default settings", err)
	}
	for _, c := range models.DefaultCategories(userID) {
		if _, err := s.categories.Save(ctx, userID, c); err != nil {
			return nil, fail("create default categories", err)
		}
	}
	return settings, nil
}

func (s *settingsService) Export(ctx context.Context, userID string) (*SettingsExport, error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}
	settings, err := s.settings.Export(ctx, userID)
	if err != nil {
		return nil, fail("export settings", err)
	}
	categories, err := s.categories.FindOrdered(ctx, userID)
	if err != nil {
		return nil, fail("list categories", err)
	}

	out := &SettingsExport{
		Version:    ExportVersion,
		ExportDate: models.Now(),
		UserID:     userID,
		Settings:   settings,
		Categories: make([]CategoryExport, 0, len(categories)),
	}
	for _, c := range categories {
		out.Categories = append(out.Categories, CategoryExport{
			ID:    c.ID,
			Name:  c.Name,
			Color: c.Color,
			Icon:  c.Icon,
			Order: c.Order,
		})
	}
	return out, nil
}

// Import overlays the exported settings onto the current ones. When the
// export lists categories, custom categories are replaced by the imported
// ones and default categories take the imported color and order.
func (s *settingsService) Import(ctx context.Context, userID string, data SettingsExport) (*models.UserSettings, error) {
	if data.Settings == nil {
		return nil, apierrors.NewBadRequestError("Invalid import data: missing settings")
	}

	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}
	merged, err := s.settings.Export(ctx, userID)
	if err != nil {
		return nil, fail("export settings", err)
	}
	for k, v := range data.Settings {
		merged[k] = v
	}
	settings, err := s.settings.Import(ctx, userID, merged)
	if err != nil {
		return nil, fail("import settings", err)
	}

	if data.Categories != nil {
		if err := s.importCategories(ctx, userID, data.Categories); err != nil {
			return nil, err
		}
	}
	return settings, nil
}

func (s *settingsService) importCategories(ctx context.Context, userID string, imported []CategoryExport) error {
	existing, err := s.categories.FindAll(ctx, userID)
	if err != nil {
		return fail("list categories", err)
	}
	defaults := make(map[string]*models.Category)
	for _, c := range existing {
		if c.IsDefault {
			defaults[c.ID] = c
		}
	}

	custom := 0
	for _, in := range imported {
		if defaults[in.ID] == nil {
			custom++
		}
	}
	if len(defaults)+custom > models.MaxCategoriesPerUser {
		return apierrors.ErrLimitExceeded.WithMessage(
			fmt.Sprintf("Maximum number of categories reached (%d)", models.MaxCategoriesPerUser),
		)
	}

	for _, c := range existing {
		if c.IsDefault {
			continue
		}
		if _, err := s.categories.Delete(ctx, userID, c.ID); err != nil {
			return fail("delete category", err)
		}
	}

	for _, in := range imported {
		if c := defaults[in.ID]; c != nil {
			c.Color = in.Color
			c.Order = in.Order
			c.Touch()
			if _, err := s.categories.Save(ctx, userID, c); err != nil {
				return fail("save category", err)
			}
			continue
		}
		c := models.NewCategory(userID, in.Name, in.Color, in.Icon, in.Order)
		if _, err := s.categories.Save(ctx, userID, c); err != nil {
			return fail("save category", err)
		}
	}
	return nil
}

func (s *settingsService) CategoryFilter(ctx context.Context, userID string) (map[string]bool, error) {
	filter, err := s.settings.GetCategoryFilter(ctx, userID)
	if err != nil {
		return nil, fail("load category filter", err)
	}
	return filter, nil
}

func (s *settingsService) SetCategoryFilter(ctx context.Context, userID string, filter map[string]bool) (map[string]bool, error) {
	settings, err := s.settings.UpdateCategoryFilter(ctx, userID, filter)
	if err != nil {
		return nil, fail("update category filter", err)
	}
	return settings.CategoryFilter, nil
}

// Categories returns the user's categories in display order.
func (s *settingsService) Categories(ctx context.Context, userID string) ([]*models.CategorySummary, error) {
	categories, err := s.categories.FindOrdered(ctx, userID)
	if err != nil {
		return nil, fail("list categories", err)
	}
	out := make([]*models.CategorySummary, len(categories))
	for i, c := range categories {
		out[i] = c.Summary()
	}
	return out, nil
}

// CreateCategory appends a category after the existing ones.
func (s *settingsService) CreateCategory(ctx context.Context, userID string, req models.CategoryCreate) (*models.CategorySummary, error) {
	count, err := s.categories.Count(ctx, userID)
	if err != nil {
		return nil, fail("count categories", err)
	}
	if count >= models.MaxCategoriesPerUser {
		return nil, apierrors.ErrLimitExceeded.WithMessage(
			fmt.Sprintf("Maximum number of categories reached (%d)", models.MaxCategoriesPerUser),
		)
	}

	order, err := s.categories.NextOrder(ctx, userID)
	if err != nil {
		return nil, fail("next category order", err)
	}
	c := models.NewCategory(userID, req.Name, req.Color, req.Icon, order)
	if _, err := s.categories.Save(ctx, userID, c); err != nil {
		return nil, fail("save category", err)
	}
	return c.Summary(), nil
}

// UpdateCategory applies the set fields of up. Default categories keep their name.
func (s *settingsService) UpdateCategory(ctx context.Context, userID, id string, up models.CategoryUpdate) (*models.CategorySummary, error) {
	c, err := s.category(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if c.IsDefault && up.Name != nil && *up.Name != c.Name {
		return nil, apierrors.NewBadRequestError("Cannot change name of default category")
	}

	up.Apply(c)
	c.Touch()
	if _, err := s.categories.Save(ctx, userID, c); err != nil {
		return nil, fail("save category", err)
	}
	return c.Summary(), nil
}

// DeleteCategory removes a custom category that no todo refers to.
func (s *settingsService) DeleteCategory(ctx context.Context, userID, id string) error {
	c, err := s.category(ctx, userID, id)
	if err != nil {
		return err
	}
	if c.IsDefault {
		return apierrors.NewBadRequestError("Cannot delete default category")
	}

	inUse, err := s.todos.FindByCategory(ctx, userID, id)
	if err != nil {
		return fail("find todos by category", err)
	}
	if len(inUse) > 0 {
		return apierrors.NewConflictError(fmt.Sprintf("Category is used by %d todos", len(inUse)))
	}

	if _, err := s.categories.Delete(ctx, userID, id); err != nil {
		return fail("delete category", err)
	}
	return nil
}

// ReorderCategories places the listed categories at positions 0..n-1. Every id must exist.
func (s *settingsService) ReorderCategories(ctx context.Context, userID string, ids []string) ([]*models.CategorySummary, error) {
	existing, err := s.categories.FindAll(ctx, userID)
	if err != nil {
		return nil, fail("list categories", err)
	}
	known := make(map[string]bool, len(existing))
	for _, c := range existing {
		known[c.ID] = true
	}
	for _, id := range ids {
		if !known[id] {
			return nil, apierrors.NewNotFoundError(fmt.Sprintf("Category %s", id))
		}
	}

	if err := s.categories.Reorder(ctx, userID, ids); err != nil {
		return nil, fail("reorder categories", err)
	}
	return s.Categories(ctx, userID)
}

func (s *settingsService) AvailableColors() []string {
	return s.categories.AvailableColors()
}

func (s *settingsService) category(ctx context.Context, userID, id string) (*models.Category, error) {
	c, err := s.categories.FindByID(ctx, userID, id)
	if err != nil {
		return nil, fail("find category", err)
	}
	if c == nil {
		return nil, apierrors.NewNotFoundError("Category")
	}
	return c, nil
}

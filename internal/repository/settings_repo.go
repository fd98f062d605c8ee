package repository

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/gytkk/todo/internal/database"
	"github.com/gytkk/todo/internal/models"
)

// SettingsRepository stores the single settings record of each user at
// user:<id>:settings. Settings have no list and no indexes.
type SettingsRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.UserSettings, error)
	Save(ctx context.Context, userID string, s *models.UserSettings) (*models.UserSettings, error)
	Delete(ctx context.Context, userID string) (bool, error)
	UpdatePartial(ctx context.Context, userID string, up models.SettingsUpdate) (*models.UserSettings, error)
	CreateDefault(ctx context.Context, userID string) (*models.UserSettings, error)
	ResetToDefaults(ctx context.Context, userID string) (*models.UserSettings, error)
	GetCategoryFilter(ctx context.Context, userID string) (map[string]bool, error)
	UpdateCategoryFilter(ctx context.Context, userID string, filter map[string]bool) (*models.UserSettings, error)
	Export(ctx context.Context, userID string) (map[string]any, error)
	Import(ctx context.Context, userID string, data map[string]any) (*models.UserSettings, error)
}

type settingsRepo struct {
	db     *database.Redis
	codec  *Codec[models.UserSettings]
	logger *slog.Logger
}

// NewSettingsRepository creates a settings repository.
func NewSettingsRepository(db *database.Redis, logger *slog.Logger) SettingsRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &settingsRepo{
		db:     db,
		codec:  NewCodec[models.UserSettings](),
		logger: logger,
	}
}

func (r *settingsRepo) FindByUserID(ctx context.Context, userID string) (*models.UserSettings, error) {
	key := settingsKey(userID)
	fields, err := r.db.HGetAll(ctx, key)
	if err != nil || len(fields) == 0 {
		return nil, err
	}
	// Records written before a field existed read it as its default.
	s := models.DefaultUserSettings(userID)
	if err := r.codec.DecodeInto(fields, s); err != nil {
		return nil, withKey(err, key)
	}
	return s, nil
}

// Save replaces the user's settings record.
func (r *settingsRepo) Save(ctx context.Context, userID string, s *models.UserSettings) (*models.UserSettings, error) {
	s.UserID = userID
	fields, err := r.codec.Encode(s)
	if err != nil {
		return nil, err
	}

	key := settingsKey(userID)
	err = r.db.TxPipelined(ctx, func(b *database.Batch) {
		b.Delete(key)
		b.HSet(key, fields)
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *settingsRepo) Delete(ctx context.Context, userID string) (bool, error) {
	n, err := r.db.Delete(ctx, settingsKey(userID))
	return n > 0, err
}

// UpdatePartial applies up to the stored settings, starting from the
// defaults when the user has none yet.
func (r *settingsRepo) UpdatePartial(ctx context.Context, userID string, up models.SettingsUpdate) (*models.UserSettings, error) {
	s, err := r.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		s = models.DefaultUserSettings(userID)
	}
	up.Apply(s)
	s.UpdatedAt = models.Now()
	return r.Save(ctx, userID, s)
}

func (r *settingsRepo) CreateDefault(ctx context.Context, userID string) (*models.UserSettings, error) {
	return r.Save(ctx, userID, models.DefaultUserSettings(userID))
}

func (r *settingsRepo) ResetToDefaults(ctx context.Context, userID string) (*models.UserSettings, error) {
	return r.Save(ctx, userID, models.DefaultUserSettings(userID))
}

// GetCategoryFilter returns the user's category filter, empty when the user
// has no settings.
func (r *settingsRepo) GetCategoryFilter(ctx context.Context, userID string) (map[string]bool, error) {
	s, err := r.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s == nil || s.CategoryFilter == nil {
		return map[string]bool{}, nil
	}
	return s.CategoryFilter, nil
}

func (r *settingsRepo) UpdateCategoryFilter(ctx context.Context, userID string, filter map[string]bool) (*models.UserSettings, error) {
	if filter == nil {
		filter = map[string]bool{}
	}
	return r.UpdatePartial(ctx, userID, models.SettingsUpdate{CategoryFilter: filter})
}

// Export returns the stored settings as a JSON object, empty when the user
// has none.
func (r *settingsRepo) Export(ctx context.Context, userID string) (map[string]any, error) {
	s, err := r.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return map[string]any{}, nil
	}

	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Import replaces the user's settings with data. Missing fields take their
// default value. Data that does not describe valid settings is discarded
// and the defaults are stored instead.
func (r *settingsRepo) Import(ctx context.Context, userID string, data map[string]any) (*models.UserSettings, error) {
	s, err := settingsFromMap(userID, data)
	if err != nil {
		r.logger.Warn("invalid settings import, falling back to defaults",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		s = models.DefaultUserSettings(userID)
	}
	s.UpdatedAt = models.Now()
	return r.Save(ctx, userID, s)
}

func settingsFromMap(userID string, data map[string]any) (*models.UserSettings, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	s := models.DefaultUserSettings(userID)
	if err := json.Unmarshal(raw, s); err != nil {
		return nil, err
	}
	s.UserID = userID
	if err := models.Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gytkk/todo/internal/auth"
	"github.com/gytkk/todo/internal/config"
	"github.com/gytkk/todo/internal/models"
	apierrors "github.com/gytkk/todo/internal/pkg/errors"
	"github.com/gytkk/todo/internal/repository"
)

// UserService manages the signed-in user's account.
type UserService interface {
	Profile(ctx context.Context, userID string) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, userID string, up models.UserUpdate) (*models.UserProfile, error)
	ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error
	ChangeEmail(ctx context.Context, userID string, req ChangeEmailRequest) (*models.UserProfile, error)
	DeleteAccount(ctx context.Context, userID string) error
}

// ChangePasswordRequest is the request for replacing a password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=100"`
}

// ChangeEmailRequest is the request for moving an account to another email.
type ChangeEmailRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
}

type userService struct {
	users      repository.UserRepository
	todos      repository.TodoRepository
	categories repository.CategoryRepository
	settings   repository.SettingsRepository
	tokens     repository.TokenRepository
	bcryptCost int
	logger     *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(
	users repository.UserRepository,
	todos repository.TodoRepository,
	categories repository.CategoryRepository,
	settings repository.SettingsRepository,
	tokens repository.TokenRepository,
	cfg config.AuthConfig,
	logger *slog.Logger,
) UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &userService{
		users:      users,
		todos:      todos,
		categories: categories,
		settings:   settings,
		tokens:     tokens,
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
	}
}

func (s *userService) get(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fail("find user", err)
	}
	if user == nil {
		return nil, apierrors.NewNotFoundError("User")
	}
	return user, nil
}

func (s *userService) Profile(ctx context.Context, userID string) (*models.UserProfile, error) {
	user, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Profile(), nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, up models.UserUpdate) (*models.UserProfile, error) {
	user, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}
	up.Apply(user)
	user.Touch()
	if _, err := s.users.Save(ctx, user); err != nil {
		return nil, fail("save user", err)
	}
	return user.Profile(), nil
}

func (s *userService) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error {
	user, err := s.get(ctx, userID)
	if err != nil {
		return err
	}
	if err := auth.VerifyPassword(user.PasswordHash, req.CurrentPassword); err != nil {
		return apierrors.NewBadRequestError("Current password is incorrect")
	}
	if problems := auth.ValidatePasswordStrength(req.NewPassword); len(problems) > 0 {
		return apierrors.NewValidationError("new_password", strings.Join(problems, "; "))
	}

	hash, err := auth.HashPassword(req.NewPassword, s.bcryptCost)
	if err != nil {
		return fail("hash password", err)
	}
	user.PasswordHash = hash
	user.Touch()
	if _, err := s.users.Save(ctx, user); err != nil {
		return fail("save user", err)
	}
	return nil
}

// ChangeEmail moves the account to a new address after re-checking the password.
func (s *userService) ChangeEmail(ctx context.Context, userID string, req ChangeEmailRequest) (*models.UserProfile, error) {
	user, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		return nil, apierrors.NewBadRequestError("Password is incorrect")
	}

	updated, err := s.users.UpdateEmail(ctx, userID, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apierrors.NewConflictError("User with this email already exists")
		}
		return nil, fail("update email", err)
	}
	if updated == nil {
		return nil, apierrors.NewNotFoundError("User")
	}
	return updated.Profile(), nil
}

// DeleteAccount removes everything the user owns, then the user record and its email index.
func (s *userService) DeleteAccount(ctx context.Context, userID string) error {
	if _, err := s.get(ctx, userID); err != nil {
		return err
	}

	todos, err := s.todos.DeleteAll(ctx, userID)
	if err != nil {
		return fail("delete todos", err)
	}
	categories, err := s.categories.DeleteAll(ctx, userID)
	if err != nil {
		return fail("delete categories", err)
	}
	if _, err := s.settings.Delete(ctx, userID); err != nil {
		return fail("delete settings", err)
	}
	if err := s.tokens.RevokeRefreshToken(ctx, userID); err != nil {
		return fail("revoke refresh token", err)
	}
	if _, err := s.users.Delete(ctx, userID); err != nil {
		return fail("delete user", err)
	}

	s.logger.Info("account deleted",
		slog.String("user_id", userID),
		slog.Int("todos", todos),
		slog.Int("categories", categories),
	)
	return nil
}

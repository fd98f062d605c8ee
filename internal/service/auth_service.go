package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gytkk/todo/internal/auth"
	"github.com/gytkk/todo/internal/config"
	"github.com/gytkk/todo/internal/models"
	apierrors "github.com/gytkk/todo/internal/pkg/errors"
	"github.com/gytkk/todo/internal/repository"
)

// AuthService registers users and manages their sessions.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error)
	Logout(ctx context.Context, userID, accessToken string) error
	// Authenticate resolves an access token to its user id. Revoked tokens are rejected.
	Authenticate(ctx context.Context, accessToken string) (string, error)
}

// RegisterRequest is the request for creating an account.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Password string `json:"password" validate:"required,min=8,max=100"`
}

// LoginRequest is the request for opening a session.
type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

// RefreshRequest exchanges a refresh token for a new token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse is returned by every operation that opens a session.
type AuthResponse struct {
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
	TokenType    string               `json:"token_type"`
	ExpiresIn    int64                `json:"expires_in"`
	User         *models.UserProfile  `json:"user"`
	UserSettings *models.UserSettings `json:"user_settings"`
}

type authService struct {
	users      repository.UserRepository
	settings   repository.SettingsRepository
	categories repository.CategoryRepository
	tokens     repository.TokenRepository
	issuer     *auth.Issuer
	cfg        config.AuthConfig
	logger     *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	users repository.UserRepository,
	settings repository.SettingsRepository,
	categories repository.CategoryRepository,
	tokens repository.TokenRepository,
	cfg config.AuthConfig,
	logger *slog.Logger,
) AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &authService{
		users:      users,
		settings:   settings,
		categories: categories,
		tokens:     tokens,
		issuer:     auth.NewIssuer(cfg.JWTSecret),
		cfg:        cfg,
		logger:     logger,
	}
}

// normalizeEmail makes addresses that differ only in case or padding one account.
// The email index stores the result verbatim.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates the user with default settings and categories, then opens a session.
func (s *authService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fail("find user by email", err)
	}
	if existing != nil {
		return nil, apierrors.NewConflictError("User with this email already exists")
	}

	if problems := auth.ValidatePasswordStrength(req.Password); len(problems) > 0 {
		return nil, apierrors.NewValidationError("password", strings.Join(problems, "; "))
	}

	hash, err := auth.HashPassword(req.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, fail("hash password", err)
	}

	user := models.NewUser(email, strings.TrimSpace(req.Name), hash)
	if _, err := s.users.Save(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apierrors.NewConflictError("User with this email already exists")
		}
		return nil, fail("save user", err)
	}

	if err := s.provision(ctx, user.ID); err != nil {
		s.rollback(ctx, user.ID)
		return nil, err
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))
	return s.openSession(ctx, user, false)
}

// provision creates the settings and categories every account starts with.
func (s *authService) provision(ctx context.Context, userID string) error {
	if _, err := s.settings.CreateDefault(ctx, userID); err != nil {
		return fail("create default settings", err)
	}
	for _, c := range models.DefaultCategories(userID) {
		if _, err := s.categories.Save(ctx, userID, c); err != nil {
			return fail("create default categories", err)
		}
	}
	return nil
}

// rollback removes whatever a failed registration left behind. Every step
// runs even when an earlier one fails.
func (s *authService) rollback(ctx context.Context, userID string) {
	var errs []error
	if _, err := s.categories.DeleteAll(ctx, userID); err != nil {
		errs = append(errs, fmt.Errorf("delete categories: %w", err))
	}
	if _, err := s.settings.Delete(ctx, userID); err != nil {
		errs = append(errs, fmt.Errorf("delete settings: %w", err))
	}
	if _, err := s.users.Delete(ctx, userID); err != nil {
		errs = append(errs, fmt.Errorf("delete user: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		s.logger.Error("failed to roll back registration",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

// Login verifies credentials. RememberMe extends the refresh token lifetime.
func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, fail("find user by email", err)
	}
	if user == nil || !user.IsActive {
		return nil, apierrors.ErrInvalidCredentials
	}
	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		return nil, apierrors.ErrInvalidCredentials
	}
	return s.openSession(ctx, user, req.RememberMe)
}

// Refresh rotates the token pair. Only the most recently issued refresh token is accepted.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.issuer.Verify(refreshToken, auth.RefreshToken)
	if err != nil {
		return nil, apierrors.ErrUnauthorized.WithMessage("Invalid refresh token")
	}

	stored, ok, err := s.tokens.RefreshToken(ctx, claims.Subject)
	if err != nil {
		return nil, fail("load refresh token", err)
	}
	if !ok || stored != refreshToken {
		return nil, apierrors.ErrUnauthorized.WithMessage("Refresh token has been revoked")
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, fail("find user", err)
	}
	if user == nil || !user.IsActive {
		return nil, apierrors.ErrUnauthorized.WithMessage("User not found or inactive")
	}

	// A rotated session keeps the lifetime it was opened with.
	rememberMe := claims.ExpiresAt != nil && claims.IssuedAt != nil &&
		claims.ExpiresAt.Sub(claims.IssuedAt.Time) > s.cfg.RefreshTokenExpiry
	return s.openSession(ctx, user, rememberMe)
}

// Logout revokes the refresh token and blacklists the access token for the rest of its lifetime.
func (s *authService) Logout(ctx context.Context, userID, accessToken string) error {
	if err := s.tokens.RevokeRefreshToken(ctx, userID); err != nil {
		return fail("revoke refresh token", err)
	}

	claims, err := s.issuer.Verify(accessToken, auth.AccessToken)
	if err != nil {
		// Nothing to blacklist for a token that is already unusable.
		return nil
	}
	if err := s.tokens.Blacklist(ctx, claims.ID, claims.Remaining(time.Now())); err != nil {
		return fail("blacklist access token", err)
	}
	s.logger.Debug("user logged out", slog.String("user_id", userID))
	return nil
}

func (s *authService) Authenticate(ctx context.Context, accessToken string) (string, error) {
	claims, err := s.issuer.Verify(accessToken, auth.AccessToken)
	if err != nil {
		return "", apierrors.ErrUnauthorized
	}
	revoked, err := s.tokens.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return "", fail("check token blacklist", err)
	}
	if revoked {
		return "", apierrors.ErrUnauthorized
	}
	return claims.Subject, nil
}

func (s *authService) openSession(ctx context.Context, user *models.User, rememberMe bool) (*AuthResponse, error) {
	access, _, err := s.issuer.Issue(user.ID, auth.AccessToken, s.cfg.AccessTokenExpiry)
	if err != nil {
		return nil, fail("issue access token", err)
	}

	ttl := s.cfg.RefreshTokenExpiry
	if rememberMe {
		ttl = s.cfg.RememberMeExpiry
	}
	refresh, _, err := s.issuer.Issue(user.ID, auth.RefreshToken, ttl)
	if err != nil {
		return nil, fail("issue refresh token", err)
	}
	if err := s.tokens.SaveRefreshToken(ctx, user.ID, refresh, ttl); err != nil {
		return nil, fail("save refresh token", err)
	}

	settings, err := s.settings.FindByUserID(ctx, user.ID)
	if err != nil {
		return nil, fail("load settings", err)
	}
	if settings == nil {
		if settings, err = s.settings.CreateDefault(ctx, user.ID); err != nil {
			return nil, fail("create default settings", err)
		}
	}

	return &AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.cfg.AccessTokenExpiry / time.Second),
		User:         user.Profile(),
		UserSettings: settings,
	}, nil
}

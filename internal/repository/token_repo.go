package repository

import (
	"context"
	"time"

	"github.com/gytkk/todo/internal/database"
)

// TokenRepository tracks the active refresh token of each user and the
// revoked access tokens. Both expire on their own through key TTLs.
type TokenRepository interface {
	SaveRefreshToken(ctx context.Context, userID, token string, ttl time.Duration) error
	RefreshToken(ctx context.Context, userID string) (string, bool, error)
	RevokeRefreshToken(ctx context.Context, userID string) error
	Blacklist(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

type tokenRepo struct {
	db *database.Redis
}

// NewTokenRepository creates a token repository.
func NewTokenRepository(db *database.Redis) TokenRepository {
	return &tokenRepo{db: db}
}

func (r *tokenRepo) SaveRefreshToken(ctx context.Context, userID, token string, ttl time.Duration) error {
	return r.db.Set(ctx, refreshTokenKey(userID), token, ttl)
}

func (r *tokenRepo) RefreshToken(ctx context.Context, userID string) (string, bool, error) {
	return r.db.Get(ctx, refreshTokenKey(userID))
}

func (r *tokenRepo) RevokeRefreshToken(ctx context.Context, userID string) error {
	_, err := r.db.Delete(ctx, refreshTokenKey(userID))
	return err
}

// Blacklist revokes the access token identified by jti for ttl. A
// non-positive ttl is a no-op since the token has already expired.
func (r *tokenRepo) Blacklist(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return r.db.Set(ctx, blacklistKey(jti), "1", ttl)
}

func (r *tokenRepo) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	return r.db.Exists(ctx, blacklistKey(jti))
}

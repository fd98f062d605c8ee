// Package middleware provides the HTTP middleware of the calendar API.
package middleware

import "context"

type contextKey string

const (
	// UserIDKey is the context key for the authenticated user id.
	UserIDKey contextKey = "user_id"
	// AccessTokenKey is the context key for the raw bearer token.
	AccessTokenKey contextKey = "access_token"
)

// GetUserID returns the authenticated user id, or "" outside Auth.
func GetUserID(ctx context.Context) string {
	id, _ := ctx.Value(UserIDKey).(string)
	return id
}

// GetAccessToken returns the bearer token the request was authenticated with.
func GetAccessToken(ctx context.Context) string {
	tok, _ := ctx.Value(AccessTokenKey).(string)
	return tok
}

// WithUserID returns a context carrying userID, as Auth would set it.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

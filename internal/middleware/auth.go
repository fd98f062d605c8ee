package middleware

import (
	"context"
	"net/http"
	"strings"

	apierrors "github.com/gytkk/todo/internal/pkg/errors"
	"github.com/gytkk/todo/internal/pkg/response"
)

// TokenValidator resolves an access token to a user id.
type TokenValidator func(ctx context.Context, token string) (userID string, err error)

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// Auth rejects requests without a valid bearer token. The user id and the
// token are stored in the request context.
func Auth(validate TokenValidator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				response.Error(w, apierrors.ErrUnauthorized)
				return
			}

			userID, err := validate(r.Context(), token)
			if err != nil {
				if apierrors.IsAPIError(err) {
					response.Error(w, err)
				} else {
					response.Error(w, apierrors.ErrUnauthorized)
				}
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			ctx = context.WithValue(ctx, AccessTokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

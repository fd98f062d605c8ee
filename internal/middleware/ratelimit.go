package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gytkk/todo/internal/config"
	"github.com/gytkk/todo/internal/database"
	apierrors "github.com/gytkk/todo/internal/pkg/errors"
	"github.com/gytkk/todo/internal/pkg/response"
)

const rateWindow = time.Minute

// RateLimit applies a fixed one-minute window per client, counted in Redis.
// Requests over RequestsPerMinute+Burst are rejected. A store failure lets
// the request through.
func RateLimit(db *database.Redis, cfg config.RateLimitConfig, logger *slog.Logger) func(next http.Handler) http.Handler {
	return RateLimitByKey(db, cfg, logger, clientID)
}

// RateLimitByKey is RateLimit with a custom client key. An empty key falls
// back to the client address.
func RateLimitByKey(db *database.Redis, cfg config.RateLimitConfig, logger *slog.Logger, keyFunc func(*http.Request) string) func(next http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := keyFunc(r)
			if id == "" {
				id = clientID(r)
			}

			count, err := db.IncrWithExpire(r.Context(), fmt.Sprintf("ratelimit:%s", id), rateWindow)
			if err != nil {
				logger.Warn("rate limit check failed", slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			limit := cfg.RequestsPerMinute
			remaining := max(limit-int(count), 0)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(rateWindow).Unix(), 10))

			if int(count) > limit+cfg.Burst {
				w.Header().Set("Retry-After", strconv.Itoa(int(rateWindow/time.Second)))
				response.Error(w, apierrors.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientID identifies the caller by user id when authenticated, else by address.
func clientID(r *http.Request) string {
	if userID := GetUserID(r.Context()); userID != "" {
		return "user:" + userID
	}
	return "ip:" + realIP(r)
}

func realIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return xrip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

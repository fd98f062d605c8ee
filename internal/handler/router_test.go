package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gytkk/todo/internal/config"
	"github.com/gytkk/todo/internal/database"
	"github.com/gytkk/todo/internal/models"
	apierrors "github.com/gytkk/todo/internal/pkg/errors"
)

func newTestRouter(t *testing.T, todos *mockTodoService) (http.Handler, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })

	cfg := &config.Config{
		Server:    config.ServerConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		RateLimit: config.RateLimitConfig{RequestsPerMinute: 100, Burst: 10},
	}
	auth := &mockAuthService{
		authenticateFunc: func(ctx context.Context, token string) (string, error) {
			if token == "good" {
				return testUserID, nil
			}
			return "", apierrors.ErrUnauthorized
		},
	}
	svc := Services{Auth: auth, Todos: todos, Settings: &mockSettingsService{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(cfg, database.NewRedisFromClient(client), svc, logger), mr
}

func TestRouter_HealthAndReady(t *testing.T) {
	router, mr := newTestRouter(t, &mockTodoService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	mr.Close()
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_ProtectedRoutes(t *testing.T) {
	var gotUser string
	todos := &mockTodoService{
		statsFunc: func(ctx context.Context, userID string) (*models.TodoStats, error) {
			gotUser = userID
			return &models.TodoStats{Total: 3}, nil
		},
	}
	router, mr := newTestRouter(t, todos)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/todos/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/todos/stats", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, testUserID, gotUser)
	assert.Contains(t, rec.Body.String(), `"total":3`)

	// Every /api/v1 request is counted against the client's window.
	assert.Len(t, mr.Keys(), 1)
}

func TestRouter_MetricsAndNotFound(t *testing.T) {
	router, _ := newTestRouter(t, &mockTodoService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `calendo_http_requests_total{method="GET",path="/health",status="200"}`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Route not found")
}

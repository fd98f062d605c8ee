package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gytkk/todo/internal/config"
	"github.com/gytkk/todo/internal/database"
	"github.com/gytkk/todo/internal/middleware"
	"github.com/gytkk/todo/internal/pkg/response"
	"github.com/gytkk/todo/internal/service"
)

// Services bundles the domain services the router serves.
type Services struct {
	Auth     service.AuthService
	Users    service.UserService
	Todos    service.TodoService
	Settings service.SettingsService
}

// NewRouter builds the API router.
func NewRouter(cfg *config.Config, db *database.Redis, svc Services, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/health", healthHandler)
	r.Get("/ready", readyHandler(db))
	r.Handle("/metrics", promhttp.Handler())

	requireAuth := middleware.Auth(svc.Auth.Authenticate)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(db, cfg.RateLimit, logger))

		r.Mount("/auth", NewAuthHandler(svc.Auth).Routes(requireAuth))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Mount("/users", NewUserHandler(svc.Users).Routes())
			r.Mount("/todos", NewTodoHandler(svc.Todos).Routes())
			r.Mount("/user-settings", NewSettingsHandler(svc.Settings).Routes())
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route")
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{"status": "ok"})
}

// readyHandler reports whether the store answers.
func readyHandler(db *database.Redis) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			response.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "component": "redis"})
			return
		}

		response.OK(w, map[string]string{"status": "ok", "redis": "connected"})
	}
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gytkk/todo/internal/middleware"
	"github.com/gytkk/todo/internal/pkg/response"
	"github.com/gytkk/todo/internal/service"
)

// AuthHandler handles registration and session requests.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Routes returns a chi router with auth routes. Logout needs a session and
// is wrapped in requireAuth.
func (h *AuthHandler) Routes(requireAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)
	r.With(requireAuth).Post("/logout", h.Logout)

	return r
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := h.authService.Register(r.Context(), req)
	if err != nil {
		response.Error(w, err)
		return
	}

	middleware.IncrementRegistrations()
	response.Created(w, resp)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, resp)
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req service.RefreshRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, resp)
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.authService.Logout(r.Context(), uid, middleware.GetAccessToken(r.Context())); err != nil {
		response.Error(w, err)
		return
	}

	response.NoContent(w)
}

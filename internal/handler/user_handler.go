package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gytkk/todo/internal/models"
	"github.com/gytkk/todo/internal/pkg/response"
	"github.com/gytkk/todo/internal/service"
)

// UserHandler handles requests about the signed-in user's account.
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Routes returns a chi router with account routes.
func (h *UserHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/me", h.Profile)
	r.Put("/me", h.UpdateProfile)
	r.Delete("/me", h.DeleteAccount)
	r.Put("/me/password", h.ChangePassword)
	r.Put("/me/email", h.ChangeEmail)

	return r
}

// Profile handles GET /api/v1/users/me
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	profile, err := h.userService.Profile(r.Context(), uid)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, profile)
}

// UpdateProfile handles PUT /api/v1/users/me
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req models.UserUpdate
	if !decode(w, r, &req) {
		return
	}

	profile, err := h.userService.UpdateProfile(r.Context(), uid, req)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, profile)
}

// ChangePassword handles PUT /api/v1/users/me/password
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req service.ChangePasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.userService.ChangePassword(r.Context(), uid, req); err != nil {
		response.Error(w, err)
		return
	}

	response.NoContent(w)
}

// ChangeEmail handles PUT /api/v1/users/me/email
func (h *UserHandler) ChangeEmail(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req service.ChangeEmailRequest
	if !decode(w, r, &req) {
		return
	}

	profile, err := h.userService.ChangeEmail(r.Context(), uid, req)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, profile)
}

// DeleteAccount handles DELETE /api/v1/users/me
func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.userService.DeleteAccount(r.Context(), uid); err != nil {
		response.Error(w, err)
		return
	}

	response.NoContent(w)
}

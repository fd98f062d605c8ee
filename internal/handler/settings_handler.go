package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gytkk/todo/internal/models"
	"github.com/gytkk/todo/internal/pkg/response"
	"github.com/gytkk/todo/internal/service"
)

// SettingsHandler handles user settings and category requests.
type SettingsHandler struct {
	settingsService service.SettingsService
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(settingsService service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// Routes returns a chi router with settings routes.
func (h *SettingsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Get)
	r.Put("/", h.Update)
	r.Post("/reset", h.Reset)
	r.Get("/export", h.Export)
	r.Post("/import", h.Import)
	r.Get("/category-filter", h.CategoryFilter)
	r.Put("/category-filter", h.SetCategoryFilter)

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.Categories)
		r.Post("/", h.CreateCategory)
		r.Get("/available-colors", h.AvailableColors)
		r.Put("/reorder", h.ReorderCategories)
		r.Put("/{id}", h.UpdateCategory)
		r.Delete("/{id}", h.DeleteCategory)
		r.Put("/{id}/filter", h.SetCategoryVisibility)
	})

	return r
}

// Get handles GET /api/v1/user-settings
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	settings, err := h.settingsService.Get(r.Context(), uid)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, settings)
}

// Update handles PUT /api/v1/user-settings
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req models.SettingsUpdate
	if !decode(w, r, &req) {
		return
	}

	settings, err := h.settingsService.Update(r.Context(), uid, req)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, settings)
}

// Reset handles POST /api/v1/user-settings/reset
func (h *SettingsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	settings, err := h.settingsService.Reset(r.Context(), uid)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, settings)
}

// Export handles GET /api/v1/user-settings/export
func (h *SettingsHandler) Export(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	export, err := h.settingsService.Export(r.Context(), uid)
	if err != nil {
		response.Error(w, err)
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="calendo-settings.json"`)
	response.OK(w, export)
}

// Import handles POST /api/v1/user-settings/import
func (h *SettingsHandler) Import(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req service.SettingsExport
	if !decode(w, r, &req) {
		return
	}

	settings, err := h.settingsService.Import(r.Context(), uid, req)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, settings)
}

type categoryFilterRequest struct {
	CategoryFilter map[string]bool `json:"category_filter" validate:"required"`
}

// CategoryFilter handles GET /api/v1/user-settings/category-filter
func (h *SettingsHandler) CategoryFilter(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	filter, err := h.settingsService.CategoryFilter(r.Context(), uid)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, categoryFilterRequest{CategoryFilter: filter})
}

// SetCategoryFilter handles PUT /api/v1/user-settings/category-filter
func (h *SettingsHandler) SetCategoryFilter(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req categoryFilterRequest
	if !decode(w, r, &req) {
		return
	}

	filter, err := h.settingsService.SetCategoryFilter(r.Context(), uid, req.CategoryFilter)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, categoryFilterRequest{CategoryFilter: filter})
}

type visibilityRequest struct {
	Visible *bool `json:"visible" validate:"required"`
}

// SetCategoryVisibility handles PUT /api/v1/user-settings/categories/{id}/filter
//
// It flips one entry of the category filter and leaves the others alone.
func (h *SettingsHandler) SetCategoryVisibility(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req visibilityRequest
	if !decode(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	ctx := r.Context()

	// Unknown ids are rejected before the filter is touched.
	categories, err := h.settingsService.Categories(ctx, uid)
	if err != nil {
		response.Error(w, err)
		return
	}
	var category *models.CategorySummary
	for _, c := range categories {
		if c.ID == id {
			category = c
			break
		}
	}
	if category == nil {
		response.NotFound(w, "Category")
		return
	}

	filter, err := h.settingsService.CategoryFilter(ctx, uid)
	if err != nil {
		response.Error(w, err)
		return
	}
	if filter == nil {
		filter = make(map[string]bool)
	}
	filter[id] = *req.Visible

	if _, err := h.settingsService.SetCategoryFilter(ctx, uid, filter); err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]any{"category": category})
}

// Categories handles GET /api/v1/user-settings/categories
func (h *SettingsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	categories, err := h.settingsService.Categories(r.Context(), uid)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]any{"categories": categories})
}

// CreateCategory handles POST /api/v1/user-settings/categories
func (h *SettingsHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req models.CategoryCreate
	if !decode(w, r, &req) {
		return
	}

	category, err := h.settingsService.CreateCategory(r.Context(), uid, req)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, map[string]any{"category": category})
}

// UpdateCategory handles PUT /api/v1/user-settings/categories/{id}
func (h *SettingsHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req models.CategoryUpdate
	if !decode(w, r, &req) {
		return
	}

	category, err := h.settingsService.UpdateCategory(r.Context(), uid, chi.URLParam(r, "id"), req)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]any{"category": category})
}

// DeleteCategory handles DELETE /api/v1/user-settings/categories/{id}
func (h *SettingsHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.settingsService.DeleteCategory(r.Context(), uid, id); err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]any{"deleted_id": id})
}

// ReorderCategories handles PUT /api/v1/user-settings/categories/reorder
func (h *SettingsHandler) ReorderCategories(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req service.ReorderRequest
	if !decode(w, r, &req) {
		return
	}

	categories, err := h.settingsService.ReorderCategories(r.Context(), uid, req.CategoryIDs)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]any{"categories": categories})
}

// AvailableColors handles GET /api/v1/user-settings/categories/available-colors
func (h *SettingsHandler) AvailableColors(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]any{"colors": h.settingsService.AvailableColors()})
}

package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gytkk/todo/internal/middleware"
	"github.com/gytkk/todo/internal/models"
	apierrors "github.com/gytkk/todo/internal/pkg/errors"
	"github.com/gytkk/todo/internal/pkg/response"
	"github.com/gytkk/todo/internal/service"
)

// TodoHandler handles todo requests.
type TodoHandler struct {
	todoService service.TodoService
	now         func() time.Time
}

// NewTodoHandler creates a new todo handler.
func NewTodoHandler(todoService service.TodoService) *TodoHandler {
	return &TodoHandler{todoService: todoService, now: models.Now}
}

// Routes returns a chi router with todo routes.
func (h *TodoHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Delete("/", h.DeleteAll)

	r.Get("/stats", h.Stats)
	r.Post("/move-tasks", h.MoveTasks)
	r.Get("/tasks-due", h.TasksDue)

	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Patch("/{id}/toggle", h.Toggle)

	return r
}

// List handles GET /api/v1/todos
//
// With page or limit set it returns one page of all todos with pagination
// metadata. Otherwise it returns every todo matching the filters.
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()

	if q.Has("page") || q.Has("limit") {
		h.page(w, r, uid)
		return
	}

	filter, ok := todoFilter(w, r)
	if !ok {
		return
	}

	todos, err := h.todoService.List(r.Context(), uid, filter)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]any{"todos": todos, "total": len(todos)})
}

func (h *TodoHandler) page(w http.ResponseWriter, r *http.Request, uid string) {
	q := r.URL.Query()
	page, err1 := atoiDefault(q.Get("page"), 1)
	limit, err2 := atoiDefault(q.Get("limit"), models.DefaultPageLimit)
	if err1 != nil || err2 != nil {
		response.BadRequest(w, "page and limit must be integers")
		return
	}

	p := models.PaginationParams{Page: page, Limit: limit}.Normalize()
	result, err := h.todoService.Page(r.Context(), uid, p)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.JSONWithMeta(w, http.StatusOK, result.Items, &response.Meta{
		Page:  result.Page,
		Limit: result.Limit,
		Total: int64(result.Total),
		Pages: result.Pages,
	})
}

func atoiDefault(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

// todoFilter reads start_date, end_date, date, category_id and completed.
// A plain end date covers the whole day.
func todoFilter(w http.ResponseWriter, r *http.Request) (models.TodoFilter, bool) {
	var filter models.TodoFilter
	q := r.URL.Query()

	start, ok := dateParam(w, r, "start_date")
	if !ok {
		return filter, false
	}
	end, ok := dateParam(w, r, "end_date")
	if !ok {
		return filter, false
	}
	if end != nil && len(q.Get("end_date")) == len(dateLayout) {
		e := endOfDay(*end)
		end = &e
	}

	day, ok := dateParam(w, r, "date")
	if !ok {
		return filter, false
	}
	if day != nil {
		s, e := *day, endOfDay(*day)
		start, end = &s, &e
	}

	filter.Start, filter.End = start, end
	filter.CategoryID = q.Get("category_id")

	if raw := q.Get("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(w, apierrors.NewValidationError("completed", "must be true or false"))
			return filter, false
		}
		filter.Completed = &completed
	}

	return filter, true
}

func endOfDay(t time.Time) time.Time {
	return t.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// Create handles POST /api/v1/todos
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req models.TodoCreate
	if !decode(w, r, &req) {
		return
	}

	todo, err := h.todoService.Create(r.Context(), uid, req)
	if err != nil {
		response.Error(w, err)
		return
	}

	middleware.IncrementTodosCreated()
	response.Created(w, todo)
}

// DeleteAll handles DELETE /api/v1/todos
func (h *TodoHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	count, err := h.todoService.DeleteAll(r.Context(), uid)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]any{"deleted_count": count})
}

// Stats handles GET /api/v1/todos/stats
func (h *TodoHandler) Stats(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	stats, err := h.todoService.Stats(r.Context(), uid)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, stats)
}

// MoveTasks handles POST /api/v1/todos/move-tasks
func (h *TodoHandler) MoveTasks(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req models.MoveTasksRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.todoService.MoveTasks(r.Context(), uid, req)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, result)
}

// TasksDue handles GET /api/v1/todos/tasks-due
//
// before defaults to the start of the current UTC day.
func (h *TodoHandler) TasksDue(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	before, ok := dateParam(w, r, "before")
	if !ok {
		return
	}
	if before == nil {
		today := h.now().UTC().Truncate(24 * time.Hour)
		before = &today
	}

	due, err := h.todoService.TasksDue(r.Context(), uid, *before)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, due)
}

// Get handles GET /api/v1/todos/{id}
func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	todo, err := h.todoService.Get(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, todo)
}

// Update handles PUT /api/v1/todos/{id}
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var req models.TodoUpdate
	if !decode(w, r, &req) {
		return
	}

	todo, err := h.todoService.Update(r.Context(), uid, chi.URLParam(r, "id"), req)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, todo)
}

// Delete handles DELETE /api/v1/todos/{id}
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.todoService.Delete(r.Context(), uid, id); err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]any{"deleted_id": id})
}

// Toggle handles PATCH /api/v1/todos/{id}/toggle
func (h *TodoHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	todo, err := h.todoService.Toggle(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, todo)
}

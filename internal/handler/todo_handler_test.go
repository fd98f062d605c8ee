package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gytkk/todo/internal/models"
	apierrors "github.com/gytkk/todo/internal/pkg/errors"
	"github.com/gytkk/todo/internal/service"
)

var testDay = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func newTodoRouter(svc *mockTodoService) chi.Router {
	h := NewTodoHandler(svc)
	h.now = func() time.Time { return testDay.Add(13 * time.Hour) }
	r := chi.NewRouter()
	r.Mount("/todos", h.Routes())
	return r
}

func testView(id string) *service.TodoView {
	todo := models.NewTodo(testUserID, models.TodoCreate{Title: "t", Date: testDay, CategoryID: "work"})
	todo.ID = id
	return &service.TodoView{Todo: todo, Category: &models.CategorySummary{ID: "work", Name: "Work"}}
}

func TestTodoHandler_ListFilters(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		status int
		check  func(t *testing.T, f models.TodoFilter)
	}{
		{
			name:   "no filters",
			query:  "",
			status: http.StatusOK,
			check: func(t *testing.T, f models.TodoFilter) {
				assert.Nil(t, f.Start)
				assert.Nil(t, f.End)
				assert.Nil(t, f.Completed)
				assert.Empty(t, f.CategoryID)
			},
		},
		{
			name:   "single date covers the whole day",
			query:  "?date=2025-06-15",
			status: http.StatusOK,
			check: func(t *testing.T, f models.TodoFilter) {
				require.NotNil(t, f.Start)
				require.NotNil(t, f.End)
				assert.Equal(t, testDay, *f.Start)
				assert.Equal(t, testDay.AddDate(0, 0, 1).Add(-time.Nanosecond), *f.End)
			},
		},
		{
			name:   "range with timestamps",
			query:  "?start_date=2025-06-01T00:00:00Z&end_date=2025-06-30T12:00:00Z",
			status: http.StatusOK,
			check: func(t *testing.T, f models.TodoFilter) {
				assert.Equal(t, time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC), *f.End)
			},
		},
		{
			name:   "category and completion",
			query:  "?category_id=work&completed=false",
			status: http.StatusOK,
			check: func(t *testing.T, f models.TodoFilter) {
				assert.Equal(t, "work", f.CategoryID)
				require.NotNil(t, f.Completed)
				assert.False(t, *f.Completed)
			},
		},
		{
			name:   "bad date",
			query:  "?start_date=yesterday",
			status: http.StatusBadRequest,
		},
		{
			name:   "bad completed flag",
			query:  "?completed=maybe",
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got models.TodoFilter
			svc := &mockTodoService{
				listFunc: func(ctx context.Context, userID string, filter models.TodoFilter) ([]*service.TodoView, error) {
					got = filter
					return []*service.TodoView{testView("t1")}, nil
				},
			}

			rec := serve(newTodoRouter(svc), newTestRequest(t, http.MethodGet, "/todos"+tt.query, nil, testUserID))
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.check != nil {
				tt.check(t, got)
			}
		})
	}
}

func TestTodoHandler_ListPaginated(t *testing.T) {
	var got models.PaginationParams
	svc := &mockTodoService{
		pageFunc: func(ctx context.Context, userID string, p models.PaginationParams) (*models.Page[*service.TodoView], error) {
			got = p
			return models.NewPage([]*service.TodoView{testView("t1")}, 11, p), nil
		},
	}

	rec := serve(newTodoRouter(svc), newTestRequest(t, http.MethodGet, "/todos?page=2&limit=500", nil, testUserID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.PaginationParams{Page: 2, Limit: models.MaxPageLimit}, got)

	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(11), env.Meta.Total)
	assert.Equal(t, 1, env.Meta.Pages)

	rec = serve(newTodoRouter(svc), newTestRequest(t, http.MethodGet, "/todos?page=two", nil, testUserID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTodoHandler_Create(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		createErr      error
		expectedStatus int
	}{
		{
			name:           "creates todo",
			body:           map[string]any{"title": "Write report", "date": "2025-06-15T09:00:00Z", "category_id": "work"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "rejects missing title",
			body:           map[string]any{"date": "2025-06-15T09:00:00Z", "category_id": "work"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "rejects unknown todo type",
			body:           map[string]any{"title": "x", "date": "2025-06-15T09:00:00Z", "category_id": "work", "todo_type": "chore"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown category",
			body:           map[string]any{"title": "x", "date": "2025-06-15T09:00:00Z", "category_id": "ghost"},
			createErr:      apierrors.NewNotFoundError("Category"),
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockTodoService{
				createFunc: func(ctx context.Context, userID string, req models.TodoCreate) (*service.TodoView, error) {
					if tt.createErr != nil {
						return nil, tt.createErr
					}
					v := testView("new")
					v.Title = req.Title
					return v, nil
				},
			}

			rec := serve(newTodoRouter(svc), newTestRequest(t, http.MethodPost, "/todos", tt.body, testUserID))
			assert.Equal(t, tt.expectedStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestTodoHandler_ItemRoutes(t *testing.T) {
	var deleted, toggled string
	svc := &mockTodoService{
		getFunc: func(ctx context.Context, userID, id string) (*service.TodoView, error) {
			if id == "missing" {
				return nil, apierrors.NewNotFoundError("Todo")
			}
			return testView(id), nil
		},
		toggleFunc: func(ctx context.Context, userID, id string) (*service.TodoView, error) {
			toggled = id
			v := testView(id)
			v.SetCompleted(true, testDay)
			return v, nil
		},
		deleteFunc: func(ctx context.Context, userID, id string) error {
			deleted = id
			return nil
		},
	}
	router := newTodoRouter(svc)

	rec := serve(router, newTestRequest(t, http.MethodGet, "/todos/abc", nil, testUserID))
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		ID       string `json:"id"`
		Category struct {
			Name string `json:"name"`
		} `json:"category"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &view))
	assert.Equal(t, "abc", view.ID)
	assert.Equal(t, "Work", view.Category.Name)

	rec = serve(router, newTestRequest(t, http.MethodGet, "/todos/missing", nil, testUserID))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(router, newTestRequest(t, http.MethodPatch, "/todos/abc/toggle", nil, testUserID))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", toggled)

	rec = serve(router, newTestRequest(t, http.MethodDelete, "/todos/abc", nil, testUserID))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", deleted)
	assert.JSONEq(t, `{"deleted_id":"abc"}`, string(decodeEnvelope(t, rec).Data))
}

func TestTodoHandler_TasksDueDefaultsToToday(t *testing.T) {
	var got time.Time
	svc := &mockTodoService{
		dueFunc: func(ctx context.Context, userID string, before time.Time) (*models.TasksDue, error) {
			got = before
			return &models.TasksDue{Dates: []time.Time{}}, nil
		},
	}
	router := newTodoRouter(svc)

	rec := serve(router, newTestRequest(t, http.MethodGet, "/todos/tasks-due", nil, testUserID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testDay, got)

	rec = serve(router, newTestRequest(t, http.MethodGet, "/todos/tasks-due?before=2025-07-01", nil, testUserID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestTodoHandler_RequiresUser(t *testing.T) {
	rec := serve(newTodoRouter(&mockTodoService{}), newTestRequest(t, http.MethodGet, "/todos/stats", nil, ""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

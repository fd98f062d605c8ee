package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/gytkk/todo/internal/middleware"
	"github.com/gytkk/todo/internal/models"
	"github.com/gytkk/todo/internal/service"
)

// mockAuthService is a function-field implementation of AuthService.
type mockAuthService struct {
	registerFunc     func(ctx context.Context, req service.RegisterRequest) (*service.AuthResponse, error)
	loginFunc        func(ctx context.Context, req service.LoginRequest) (*service.AuthResponse, error)
	refreshFunc      func(ctx context.Context, token string) (*service.AuthResponse, error)
	logoutFunc       func(ctx context.Context, userID, accessToken string) error
	authenticateFunc func(ctx context.Context, accessToken string) (string, error)
}

func (m *mockAuthService) Register(ctx context.Context, req service.RegisterRequest) (*service.AuthResponse, error) {
	if m.registerFunc != nil {
		return m.registerFunc(ctx, req)
	}
	return nil, nil
}

func (m *mockAuthService) Login(ctx context.Context, req service.LoginRequest) (*service.AuthResponse, error) {
	if m.loginFunc != nil {
		return m.loginFunc(ctx, req)
	}
	return nil, nil
}

func (m *mockAuthService) Refresh(ctx context.Context, token string) (*service.AuthResponse, error) {
	if m.refreshFunc != nil {
		return m.refreshFunc(ctx, token)
	}
	return nil, nil
}

func (m *mockAuthService) Logout(ctx context.Context, userID, accessToken string) error {
	if m.logoutFunc != nil {
		return m.logoutFunc(ctx, userID, accessToken)
	}
	return nil
}

func (m *mockAuthService) Authenticate(ctx context.Context, accessToken string) (string, error) {
	if m.authenticateFunc != nil {
		return m.authenticateFunc(ctx, accessToken)
	}
	return "", nil
}

// mockTodoService is a function-field implementation of TodoService.
type mockTodoService struct {
	createFunc    func(ctx context.Context, userID string, req models.TodoCreate) (*service.TodoView, error)
	listFunc      func(ctx context.Context, userID string, filter models.TodoFilter) ([]*service.TodoView, error)
	pageFunc      func(ctx context.Context, userID string, p models.PaginationParams) (*models.Page[*service.TodoView], error)
	getFunc       func(ctx context.Context, userID, id string) (*service.TodoView, error)
	updateFunc    func(ctx context.Context, userID, id string, up models.TodoUpdate) (*service.TodoView, error)
	toggleFunc    func(ctx context.Context, userID, id string) (*service.TodoView, error)
	deleteFunc    func(ctx context.Context, userID, id string) error
	deleteAllFunc func(ctx context.Context, userID string) (int, error)
	statsFunc     func(ctx context.Context, userID string) (*models.TodoStats, error)
	moveFunc      func(ctx context.Context, userID string, req models.MoveTasksRequest) (*models.MoveTasksResult, error)
	dueFunc       func(ctx context.Context, userID string, before time.Time) (*models.TasksDue, error)
}

func (m *mockTodoService) Create(ctx context.Context, userID string, req models.TodoCreate) (*service.TodoView, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, userID, req)
	}
	return nil, nil
}

func (m *mockTodoService) List(ctx context.Context, userID string, filter models.TodoFilter) ([]*service.TodoView, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, userID, filter)
	}
	return nil, nil
}

func (m *mockTodoService) Page(ctx context.Context, userID string, p models.PaginationParams) (*models.Page[*service.TodoView], error) {
	if m.pageFunc != nil {
		return m.pageFunc(ctx, userID, p)
	}
	return models.NewPage[*service.TodoView](nil, 0, p), nil
}

func (m *mockTodoService) Get(ctx context.Context, userID, id string) (*service.TodoView, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, userID, id)
	}
	return nil, nil
}

func (m *mockTodoService) Update(ctx context.Context, userID, id string, up models.TodoUpdate) (*service.TodoView, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, userID, id, up)
	}
	return nil, nil
}

func (m *mockTodoService) Toggle(ctx context.Context, userID, id string) (*service.TodoView, error) {
	if m.toggleFunc != nil {
		return m.toggleFunc(ctx, userID, id)
	}
	return nil, nil
}

func (m *mockTodoService) Delete(ctx context.Context, userID, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, userID, id)
	}
	return nil
}

func (m *mockTodoService) DeleteAll(ctx context.Context, userID string) (int, error) {
	if m.deleteAllFunc != nil {
		return m.deleteAllFunc(ctx, userID)
	}
	return 0, nil
}

func (m *mockTodoService) Stats(ctx context.Context, userID string) (*models.TodoStats, error) {
	if m.statsFunc != nil {
		return m.statsFunc(ctx, userID)
	}
	return &models.TodoStats{}, nil
}

func (m *mockTodoService) MoveTasks(ctx context.Context, userID string, req models.MoveTasksRequest) (*models.MoveTasksResult, error) {
	if m.moveFunc != nil {
		return m.moveFunc(ctx, userID, req)
	}
	return &models.MoveTasksResult{}, nil
}

func (m *mockTodoService) TasksDue(ctx context.Context, userID string, before time.Time) (*models.TasksDue, error) {
	if m.dueFunc != nil {
		return m.dueFunc(ctx, userID, before)
	}
	return &models.TasksDue{}, nil
}

// mockSettingsService is a function-field implementation of SettingsService.
// Only the methods the tests exercise have hooks.
type mockSettingsService struct {
	service.SettingsService

	categoriesFunc     func(ctx context.Context, userID string) ([]*models.CategorySummary, error)
	createCategoryFunc func(ctx context.Context, userID string, req models.CategoryCreate) (*models.CategorySummary, error)
	deleteCategoryFunc func(ctx context.Context, userID, id string) error
	filterFunc         func(ctx context.Context, userID string) (map[string]bool, error)
	setFilterFunc      func(ctx context.Context, userID string, filter map[string]bool) (map[string]bool, error)
}

func (m *mockSettingsService) Categories(ctx context.Context, userID string) ([]*models.CategorySummary, error) {
	return m.categoriesFunc(ctx, userID)
}

func (m *mockSettingsService) CreateCategory(ctx context.Context, userID string, req models.CategoryCreate) (*models.CategorySummary, error) {
	return m.createCategoryFunc(ctx, userID, req)
}

func (m *mockSettingsService) DeleteCategory(ctx context.Context, userID, id string) error {
	return m.deleteCategoryFunc(ctx, userID, id)
}

func (m *mockSettingsService) CategoryFilter(ctx context.Context, userID string) (map[string]bool, error) {
	return m.filterFunc(ctx, userID)
}

func (m *mockSettingsService) SetCategoryFilter(ctx context.Context, userID string, filter map[string]bool) (map[string]bool, error) {
	return m.setFilterFunc(ctx, userID, filter)
}

func (m *mockSettingsService) AvailableColors() []string {
	return models.AvailableColors()
}

const testUserID = "user-1"

// newTestRequest creates a request with the user id in context.
func newTestRequest(t *testing.T, method, path string, body any, userID string) *http.Request {
	t.Helper()

	var reqBody []byte
	switch b := body.(type) {
	case nil:
	case string:
		reqBody = []byte(b)
	default:
		var err error
		reqBody, err = json.Marshal(b)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}
	return req
}

// serve runs req through router, which is mounted at the root.
func serve(router chi.Router, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
	Meta *struct {
		Page  int   `json:"page"`
		Limit int   `json:"limit"`
		Total int64 `json:"total"`
		Pages int   `json:"pages"`
	} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

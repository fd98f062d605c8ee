package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/gytkk/todo/internal/models"
	apierrors "github.com/gytkk/todo/internal/pkg/errors"
	"github.com/gytkk/todo/internal/repository"
)

// TodoService defines the todo operations of a signed-in user.
type TodoService interface {
	Create(ctx context.Context, userID string, req models.TodoCreate) (*TodoView, error)
	List(ctx context.Context, userID string, filter models.TodoFilter) ([]*TodoView, error)
	Page(ctx context.Context, userID string, p models.PaginationParams) (*models.Page[*TodoView], error)
	Get(ctx context.Context, userID, id string) (*TodoView, error)
	Update(ctx context.Context, userID, id string, up models.TodoUpdate) (*TodoView, error)
	Toggle(ctx context.Context, userID, id string) (*TodoView, error)
	Delete(ctx context.Context, userID, id string) error
	DeleteAll(ctx context.Context, userID string) (int, error)
	Stats(ctx context.Context, userID string) (*models.TodoStats, error)
	MoveTasks(ctx context.Context, userID string, req models.MoveTasksRequest) (*models.MoveTasksResult, error)
	TasksDue(ctx context.Context, userID string, before time.Time) (*models.TasksDue, error)
}

// TodoView is a todo together with the category it belongs to.
type TodoView struct {
	*models.Todo
	Category *models.CategorySummary `json:"category"`
}

type todoService struct {
	todos      repository.TodoRepository
	categories repository.CategoryRepository
	logger     *slog.Logger
	now        func() time.Time
}

// NewTodoService creates a new todo service.
func NewTodoService(todos repository.TodoRepository, categories repository.CategoryRepository, logger *slog.Logger) TodoService {
	if logger == nil {
		logger = slog.Default()
	}
	return &todoService{
		todos:      todos,
		categories: categories,
		logger:     logger,
		now:        models.Now,
	}
}

// Create adds a todo to one of the user's categories.
func (s *todoService) Create(ctx context.Context, userID string, req models.TodoCreate) (*TodoView, error) {
	category, err := s.category(ctx, userID, req.CategoryID)
	if err != nil {
		return nil, err
	}

	todo := models.NewTodo(userID, req)
	if _, err := s.todos.Save(ctx, userID, todo); err != nil {
		return nil, fail("save todo", err)
	}
	return &TodoView{Todo: todo, Category: category.Summary()}, nil
}

// List returns the user's todos matching every set filter field.
func (s *todoService) List(ctx context.Context, userID string, filter models.TodoFilter) ([]*TodoView, error) {
	var (
		todos []*models.Todo
		err   error
	)
	switch {
	case filter.Start != nil && filter.End != nil:
		todos, err = s.todos.FindByDateRange(ctx, userID, *filter.Start, *filter.End)
	case filter.CategoryID != "":
		todos, err = s.todos.FindByCategory(ctx, userID, filter.CategoryID)
	case filter.Completed != nil && *filter.Completed:
		todos, err = s.todos.FindCompleted(ctx, userID)
	case filter.Completed != nil:
		todos, err = s.todos.FindIncomplete(ctx, userID)
	default:
		todos, err = s.todos.FindAll(ctx, userID)
	}
	if err != nil {
		return nil, fail("list todos", err)
	}

	kept := todos[:0]
	for _, t := range todos {
		if matches(t, filter) {
			kept = append(kept, t)
		}
	}
	return s.views(ctx, userID, kept)
}

func matches(t *models.Todo, f models.TodoFilter) bool {
	switch {
	case f.Start != nil && t.Date.Before(*f.Start):
		return false
	case f.End != nil && t.Date.After(*f.End):
		return false
	case f.CategoryID != "" && t.CategoryID != f.CategoryID:
		return false
	case f.Completed != nil && t.Completed != *f.Completed:
		return false
	}
	return true
}

func (s *todoService) Page(ctx context.Context, userID string, p models.PaginationParams) (*models.Page[*TodoView], error) {
	page, err := s.todos.FindPaginated(ctx, userID, p)
	if err != nil {
		return nil, fail("list todos", err)
	}
	views, err := s.views(ctx, userID, page.Items)
	if err != nil {
		return nil, err
	}
	return &models.Page[*TodoView]{
		Items: views,
		Total: page.Total,
		Page:  page.Page,
		Limit: page.Limit,
		Pages: page.Pages,
	}, nil
}

func (s *todoService) Get(ctx context.Context, userID, id string) (*TodoView, error) {
	todo, err := s.todo(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, userID, todo)
}

// Update applies the set fields of up. A new category must belong to the user.
func (s *todoService) Update(ctx context.Context, userID, id string, up models.TodoUpdate) (*TodoView, error) {
	todo, err := s.todo(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if up.CategoryID != nil {
		if _, err := s.category(ctx, userID, *up.CategoryID); err != nil {
			return nil, err
		}
	}

	up.Apply(todo, s.now())
	if _, err := s.todos.Save(ctx, userID, todo); err != nil {
		return nil, fail("save todo", err)
	}
	return s.view(ctx, userID, todo)
}

// Toggle flips the completion state of a todo.
func (s *todoService) Toggle(ctx context.Context, userID, id string) (*TodoView, error) {
	todo, err := s.todo(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.todos.UpdateCompletionStatus(ctx, userID, id, !todo.Completed)
	if err != nil {
		return nil, fail("update completion", err)
	}
	if updated == nil {
		return nil, apierrors.NewNotFoundError("Todo")
	}
	return s.view(ctx, userID, updated)
}

func (s *todoService) Delete(ctx context.Context, userID, id string) error {
	deleted, err := s.todos.Delete(ctx, userID, id)
	if err != nil {
		return fail("delete todo", err)
	}
	if !deleted {
		return apierrors.NewNotFoundError("Todo")
	}
	return nil
}

func (s *todoService) DeleteAll(ctx context.Context, userID string) (int, error) {
	n, err := s.todos.DeleteAll(ctx, userID)
	if err != nil {
		return 0, fail("delete todos", err)
	}
	return n, nil
}

func (s *todoService) Stats(ctx context.Context, userID string) (*models.TodoStats, error) {
	stats, err := s.todos.Stats(ctx, userID)
	if err != nil {
		return nil, fail("todo stats", err)
	}
	return stats, nil
}

// MoveTasks moves the incomplete tasks of one day to another day.
func (s *todoService) MoveTasks(ctx context.Context, userID string, req models.MoveTasksRequest) (*models.MoveTasksResult, error) {
	moved, err := s.todos.MoveTasksToDate(ctx, userID, req.FromDate, req.ToDate)
	if err != nil {
		return nil, fail("move tasks", err)
	}
	if moved == nil {
		moved = []*models.Todo{}
	}
	s.logger.Debug("tasks moved",
		slog.String("user_id", userID),
		slog.Int("count", len(moved)),
	)
	return &models.MoveTasksResult{MovedCount: len(moved), MovedTodos: moved}, nil
}

// TasksDue reports the incomplete tasks dated before the given time and the
// distinct days they fall on.
func (s *todoService) TasksDue(ctx context.Context, userID string, before time.Time) (*models.TasksDue, error) {
	tasks, err := s.todos.FindIncompleteTasksBefore(ctx, userID, before)
	if err != nil {
		return nil, fail("find due tasks", err)
	}

	seen := make(map[time.Time]bool)
	dates := []time.Time{}
	for _, t := range tasks {
		y, m, d := t.Date.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, t.Date.Location())
		if !seen[day] {
			seen[day] = true
			dates = append(dates, day)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return &models.TasksDue{Count: len(tasks), Dates: dates}, nil
}

func (s *todoService) todo(ctx context.Context, userID, id string) (*models.Todo, error) {
	todo, err := s.todos.FindByID(ctx, userID, id)
	if err != nil {
		return nil, fail("find todo", err)
	}
	if todo == nil {
		return nil, apierrors.NewNotFoundError("Todo")
	}
	return todo, nil
}

func (s *todoService) category(ctx context.Context, userID, id string) (*models.Category, error) {
	category, err := s.categories.FindByID(ctx, userID, id)
	if err != nil {
		return nil, fail("find category", err)
	}
	if category == nil {
		return nil, apierrors.NewNotFoundError("Category")
	}
	return category, nil
}

func (s *todoService) view(ctx context.Context, userID string, todo *models.Todo) (*TodoView, error) {
	category, err := s.categories.FindByID(ctx, userID, todo.CategoryID)
	if err != nil {
		return nil, fail("find category", err)
	}
	v := &TodoView{Todo: todo}
	if category != nil {
		v.Category = category.Summary()
	}
	return v, nil
}

// views resolves categories with one listing instead of a lookup per todo.
func (s *todoService) views(ctx context.Context, userID string, todos []*models.Todo) ([]*TodoView, error) {
	out := make([]*TodoView, 0, len(todos))
	if len(todos) == 0 {
		return out, nil
	}

	categories, err := s.categories.FindAll(ctx, userID)
	if err != nil {
		return nil, fail("list categories", err)
	}
	byID := make(map[string]*models.CategorySummary, len(categories))
	for _, c := range categories {
		byID[c.ID] = c.Summary()
	}
	for _, t := range todos {
		out = append(out, &TodoView{Todo: t, Category: byID[t.CategoryID]})
	}
	return out, nil
}

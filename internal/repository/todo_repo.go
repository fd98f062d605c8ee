package repository

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/gytkk/todo/internal/database"
	"github.com/gytkk/todo/internal/models"
)

const todoEntity = "todo"

// Completion index values. They match the stringified booleans written by
// earlier deployments so existing index keys stay valid.
const (
	completedTrue  = "True"
	completedFalse = "False"
)

// recentWindow is the trailing window counted as recent completions.
const recentWindow = 7 * 24 * time.Hour

// TodoRepository defines the interface for todo data operations.
type TodoRepository interface {
	FindByID(ctx context.Context, userID, id string) (*models.Todo, error)
	FindAll(ctx context.Context, userID string) ([]*models.Todo, error)
	FindPaginated(ctx context.Context, userID string, p models.PaginationParams) (*models.Page[*models.Todo], error)
	Save(ctx context.Context, userID string, t *models.Todo) (*models.Todo, error)
	Delete(ctx context.Context, userID, id string) (bool, error)
	DeleteAll(ctx context.Context, userID string) (int, error)
	Exists(ctx context.Context, userID, id string) (bool, error)
	Count(ctx context.Context, userID string) (int, error)

	FindByDateRange(ctx context.Context, userID string, start, end time.Time) ([]*models.Todo, error)
	FindByCategory(ctx context.Context, userID, categoryID string) ([]*models.Todo, error)
	FindCompleted(ctx context.Context, userID string) ([]*models.Todo, error)
	FindIncomplete(ctx context.Context, userID string) ([]*models.Todo, error)
	FindTasks(ctx context.Context, userID string) ([]*models.Todo, error)
	FindEvents(ctx context.Context, userID string) ([]*models.Todo, error)
	FindIncompleteTasksBefore(ctx context.Context, userID string, date time.Time) ([]*models.Todo, error)

	UpdateCompletionStatus(ctx context.Context, userID, id string, completed bool) (*models.Todo, error)
	MoveTasksToDate(ctx context.Context, userID string, from, to time.Time) ([]*models.Todo, error)
	Stats(ctx context.Context, userID string) (*models.TodoStats, error)
}

type todoRepo struct {
	*ScopedRepository[models.Todo]
	now func() time.Time
}

func completedValue(completed bool) string {
	if completed {
		return completedTrue
	}
	return completedFalse
}

func todoIndexes(t *models.Todo) map[string]string {
	return map[string]string{
		"category_id": t.CategoryID,
		"completed":   completedValue(t.Completed),
		"todo_type":   string(t.TodoType),
	}
}

// NewTodoRepository creates a todo repository indexed by category,
// completion state and type.
func NewTodoRepository(db *database.Redis, opts ...Option[models.Todo]) TodoRepository {
	opts = append([]Option[models.Todo]{WithIndexes(todoIndexes)}, opts...)
	return &todoRepo{
		ScopedRepository: NewScopedRepository(db, todoEntity, opts...),
		now:              models.Now,
	}
}

// Save writes the todo for userID.
func (r *todoRepo) Save(ctx context.Context, userID string, t *models.Todo) (*models.Todo, error) {
	t.UserID = userID
	return r.ScopedRepository.Save(ctx, userID, t)
}

// FindByDateRange returns todos dated within [start, end], ordered by date.
func (r *todoRepo) FindByDateRange(ctx context.Context, userID string, start, end time.Time) ([]*models.Todo, error) {
	todos, err := r.FindAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := filterTodos(todos, func(t *models.Todo) bool {
		return !t.Date.Before(start) && !t.Date.After(end)
	})
	sortByDate(out)
	return out, nil
}

func (r *todoRepo) FindByCategory(ctx context.Context, userID, categoryID string) ([]*models.Todo, error) {
	return r.FindByField(ctx, userID, "category_id", categoryID)
}

func (r *todoRepo) FindCompleted(ctx context.Context, userID string) ([]*models.Todo, error) {
	return r.FindByField(ctx, userID, "completed", completedTrue)
}

func (r *todoRepo) FindIncomplete(ctx context.Context, userID string) ([]*models.Todo, error) {
	return r.FindByField(ctx, userID, "completed", completedFalse)
}

func (r *todoRepo) FindTasks(ctx context.Context, userID string) ([]*models.Todo, error) {
	return r.FindByField(ctx, userID, "todo_type", string(models.TodoTypeTask))
}

func (r *todoRepo) FindEvents(ctx context.Context, userID string) ([]*models.Todo, error) {
	return r.FindByField(ctx, userID, "todo_type", string(models.TodoTypeEvent))
}

// FindIncompleteTasksBefore returns incomplete tasks dated strictly before
// date, ordered by date.
func (r *todoRepo) FindIncompleteTasksBefore(ctx context.Context, userID string, date time.Time) ([]*models.Todo, error) {
	todos, err := r.FindIncomplete(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := filterTodos(todos, func(t *models.Todo) bool {
		return t.IsTask() && t.Date.Before(date)
	})
	sortByDate(out)
	return out, nil
}

// UpdateCompletionStatus sets the completion state of a todo. It returns nil
// if the todo does not exist. The completed index entry moves only when the
// state changes.
func (r *todoRepo) UpdateCompletionStatus(ctx context.Context, userID, id string, completed bool) (*models.Todo, error) {
	t, err := r.FindByID(ctx, userID, id)
	if err != nil || t == nil {
		return nil, err
	}
	t.SetCompleted(completed, r.now())
	return r.Save(ctx, userID, t)
}

// MoveTasksToDate moves the incomplete tasks dated on from's calendar day to
// to's calendar day. The time of day of each task is kept. Days are taken in
// from's location.
func (r *todoRepo) MoveTasksToDate(ctx context.Context, userID string, from, to time.Time) ([]*models.Todo, error) {
	todos, err := r.FindIncomplete(ctx, userID)
	if err != nil {
		return nil, err
	}

	loc := from.Location()
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()

	moved := make([]*models.Todo, 0)
	for _, t := range todos {
		if !t.IsTask() {
			continue
		}
		local := t.Date.In(loc)
		if y, m, d := local.Date(); y != fy || m != fm || d != fd {
			continue
		}

		t.Date = time.Date(ty, tm, td, local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), loc).UTC()
		t.UpdatedAt = r.now()
		if _, err := r.Save(ctx, userID, t); err != nil {
			return moved, err
		}
		moved = append(moved, t)
	}
	sortByDate(moved)
	return moved, nil
}

// Stats summarizes the user's todos. Recent completions are those completed
// since the start of the day seven days ago.
func (r *todoRepo) Stats(ctx context.Context, userID string) (*models.TodoStats, error) {
	todos, err := r.FindAll(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := r.now()
	since := startOfDay(now.Add(-recentWindow))

	stats := &models.TodoStats{
		Total: len(todos),
		ByType: map[models.TodoType]models.TypeStats{
			models.TodoTypeEvent: {},
			models.TodoTypeTask:  {},
		},
	}
	for _, t := range todos {
		ts := stats.ByType[t.TodoType]
		ts.Total++
		if t.Completed {
			stats.Completed++
			ts.Completed++
			if t.CompletedAt != nil && !t.CompletedAt.Before(since) {
				stats.RecentCompletions++
			}
		} else {
			ts.Incomplete++
		}
		stats.ByType[t.TodoType] = ts
	}
	stats.Incomplete = stats.Total - stats.Completed
	if stats.Total > 0 {
		rate := float64(stats.Completed) / float64(stats.Total) * 100
		stats.CompletionRate = math.Round(rate*100) / 100
	}
	return stats, nil
}

func filterTodos(todos []*models.Todo, keep func(*models.Todo) bool) []*models.Todo {
	out := make([]*models.Todo, 0, len(todos))
	for _, t := range todos {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func sortByDate(todos []*models.Todo) {
	sort.SliceStable(todos, func(i, j int) bool {
		return todos[i].Date.Before(todos[j].Date)
	})
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

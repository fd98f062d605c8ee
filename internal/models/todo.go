package models

import (
	"strings"
	"time"
)

// TodoType distinguishes movable tasks from fixed-date events.
type TodoType string

const (
	TodoTypeEvent TodoType = "event"
	TodoTypeTask  TodoType = "task"
)

// Priority of a todo.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Todo is a dated item belonging to one of the owner's categories.
// CompletedAt is set exactly when Completed is true.
type Todo struct {
	Base
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Date        time.Time  `json:"date"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
	TodoType    TodoType   `json:"todo_type"`
	Priority    Priority   `json:"priority"`
	CategoryID  string     `json:"category_id"`
	UserID      string     `json:"user_id"`
}

// NewTodo builds an incomplete todo from create input.
func NewTodo(userID string, in TodoCreate) *Todo {
	t := &Todo{
		Base:        NewBase(),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Date:        in.Date.UTC(),
		TodoType:    in.TodoType,
		Priority:    in.Priority,
		CategoryID:  in.CategoryID,
		UserID:      userID,
	}
	if t.TodoType == "" {
		t.TodoType = TodoTypeTask
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	return t
}

// SetCompleted moves the todo between the incomplete and completed states.
// It reports whether the state changed. CompletedAt is stamped on the
// incomplete to completed transition and cleared on the reverse.
func (t *Todo) SetCompleted(completed bool, now time.Time) bool {
	changed := t.Completed != completed
	t.Completed = completed
	switch {
	case !completed:
		t.CompletedAt = nil
	case changed || t.CompletedAt == nil:
		at := now
		t.CompletedAt = &at
	}
	t.UpdatedAt = now
	return changed
}

// IsTask reports whether the todo may be moved between dates.
func (t *Todo) IsTask() bool {
	return t.TodoType == TodoTypeTask
}

// TodoCreate is the input for a new todo.
type TodoCreate struct {
	Title       string    `json:"title" validate:"required,min=1,max=500"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=2000"`
	Date        time.Time `json:"date" validate:"required"`
	TodoType    TodoType  `json:"todo_type,omitempty" validate:"omitempty,oneof=event task"`
	Priority    Priority  `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	CategoryID  string    `json:"category_id" validate:"required"`
}

// TodoUpdate holds the todo fields a user may change.
type TodoUpdate struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1,max=500"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	Date        *time.Time `json:"date,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
	TodoType    *TodoType  `json:"todo_type,omitempty" validate:"omitempty,oneof=event task"`
	Priority    *Priority  `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	CategoryID  *string    `json:"category_id,omitempty"`
}

// Apply copies the set fields of up onto t. Completion goes through
// SetCompleted so CompletedAt stays consistent.
func (up TodoUpdate) Apply(t *Todo, now time.Time) {
	if up.Title != nil {
		t.Title = strings.TrimSpace(*up.Title)
	}
	if up.Description != nil {
		desc := *up.Description
		t.Description = &desc
	}
	if up.Date != nil {
		t.Date = up.Date.UTC()
	}
	if up.TodoType != nil {
		t.TodoType = *up.TodoType
	}
	if up.Priority != nil {
		t.Priority = *up.Priority
	}
	if up.CategoryID != nil {
		t.CategoryID = *up.CategoryID
	}
	if up.Completed != nil {
		t.SetCompleted(*up.Completed, now)
	}
	t.UpdatedAt = now
}

// TodoFilter narrows a todo listing. Zero values mean "any".
type TodoFilter struct {
	Start      *time.Time
	End        *time.Time
	CategoryID string
	Completed  *bool
}

// TypeStats counts todos of one type.
type TypeStats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Incomplete int `json:"incomplete"`
}

// TodoStats summarizes a user's todos.
type TodoStats struct {
	Total             int                    `json:"total"`
	Completed         int                    `json:"completed"`
	Incomplete        int                    `json:"incomplete"`
	CompletionRate    float64                `json:"completion_rate"`
	RecentCompletions int                    `json:"recent_completions"`
	ByType            map[TodoType]TypeStats `json:"by_type"`
}

// MoveTasksRequest asks to move incomplete tasks between days.
type MoveTasksRequest struct {
	FromDate time.Time `json:"from_date" validate:"required"`
	ToDate   time.Time `json:"to_date" validate:"required"`
}

// MoveTasksResult reports which tasks were moved.
type MoveTasksResult struct {
	MovedCount int     `json:"moved_count"`
	MovedTodos []*Todo `json:"moved_todos"`
}

// TasksDue reports the days holding incomplete tasks before a date.
type TasksDue struct {
	Count int         `json:"count"`
	Dates []time.Time `json:"dates"`
}

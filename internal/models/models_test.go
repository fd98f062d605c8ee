package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTodo_SetCompleted(t *testing.T) {
	todo := NewTodo("u1", TodoCreate{Title: "  buy milk ", Date: time.Now(), CategoryID: "personal"})
	assert.Equal(t, "buy milk", todo.Title)
	assert.Equal(t, TodoTypeTask, todo.TodoType)
	assert.Equal(t, PriorityMedium, todo.Priority)
	assert.False(t, todo.Completed)
	assert.Nil(t, todo.CompletedAt)

	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.True(t, todo.SetCompleted(true, t1))
	require.NotNil(t, todo.CompletedAt)
	assert.Equal(t, t1, *todo.CompletedAt)
	assert.Equal(t, t1, todo.UpdatedAt)

	// Completing again keeps the original completion time.
	t2 := t1.Add(time.Hour)
	assert.False(t, todo.SetCompleted(true, t2))
	assert.Equal(t, t1, *todo.CompletedAt)
	assert.Equal(t, t2, todo.UpdatedAt)

	assert.True(t, todo.SetCompleted(false, t2))
	assert.Nil(t, todo.CompletedAt)
	assert.False(t, todo.Completed)
}

func TestTodoUpdate_Apply(t *testing.T) {
	todo := NewTodo("u1", TodoCreate{Title: "a", Date: time.Now(), CategoryID: "work"})
	title := " b "
	completed := true
	prio := PriorityHigh
	now := Now()

	TodoUpdate{Title: &title, Completed: &completed, Priority: &prio}.Apply(todo, now)

	assert.Equal(t, "b", todo.Title)
	assert.Equal(t, PriorityHigh, todo.Priority)
	assert.True(t, todo.Completed)
	require.NotNil(t, todo.CompletedAt)
	assert.Equal(t, "work", todo.CategoryID)
	assert.Equal(t, now, todo.UpdatedAt)
}

func TestCategoryUpdate_Apply(t *testing.T) {
	c := NewCategory("u1", "Home", "#111111", nil, 0)
	color := "#222222"
	icon := "house"

	CategoryUpdate{Color: &color, Icon: &icon}.Apply(c)

	assert.Equal(t, "Home", c.Name)
	assert.Equal(t, "#222222", c.Color)
	require.NotNil(t, c.Icon)
	assert.Equal(t, "house", *c.Icon)
}

func TestSettingsUpdate_Apply(t *testing.T) {
	s := DefaultUserSettings("u1")
	theme := ThemeDark
	limit := 30

	SettingsUpdate{
		Theme:               &theme,
		OldTodoDisplayLimit: &limit,
		CategoryFilter:      map[string]bool{"work": false},
	}.Apply(s)

	assert.Equal(t, ThemeDark, s.Theme)
	assert.Equal(t, 30, s.OldTodoDisplayLimit)
	assert.Equal(t, map[string]bool{"work": false}, s.CategoryFilter)
	assert.Equal(t, "ko", s.Language)
}

func TestDefaultCategories(t *testing.T) {
	cats := DefaultCategories("u1")
	require.Len(t, cats, 3)

	ids := []string{cats[0].ID, cats[1].ID, cats[2].ID}
	assert.Equal(t, []string{CategoryPersonal, CategoryWork, CategoryLife}, ids)
	for i, c := range cats {
		assert.True(t, c.IsDefault)
		assert.Equal(t, i, c.Order)
		assert.Equal(t, "u1", c.UserID)
	}
}

func TestPagination(t *testing.T) {
	p := PaginationParams{}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPageLimit, p.Limit)

	p = PaginationParams{Page: 3, Limit: 500}.Normalize()
	assert.Equal(t, MaxPageLimit, p.Limit)
	assert.Equal(t, 200, p.Offset())

	page := NewPage([]string{"a"}, 41, PaginationParams{Page: 1, Limit: 20})
	assert.Equal(t, 3, page.Pages)

	empty := NewPage[string](nil, 0, PaginationParams{Page: 1, Limit: 20})
	assert.Equal(t, 0, empty.Pages)
	assert.NotNil(t, empty.Items)
}

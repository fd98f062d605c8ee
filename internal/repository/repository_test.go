package repository

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gytkk/todo/internal/models"
)

type widget struct {
	models.Base
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

func newWidget(id, kind string) *widget {
	w := &widget{Base: models.NewBase(), Kind: kind}
	w.ID = id
	return w
}

func widgetIndexes(w *widget) map[string]string {
	return map[string]string{"kind": w.Kind}
}

func TestRepository_SaveKeepsListUniqueMostRecentFirst(t *testing.T) {
	db, mr := newTestDB(t)
	repo := NewRepository[widget](db, "widget")
	ctx := context.Background()

	for _, id := range []string{"a", "b", "a", "c"} {
		_, err := repo.Save(ctx, newWidget(id, "x"))
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"c", "a", "b"}, listOf(t, mr, "widget:list"))
	assert.True(t, mr.Exists("widget:a"))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, ids(all))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRepository_FindByIDMissing(t *testing.T) {
	db, _ := newTestDB(t)
	repo := NewRepository[widget](db, "widget")

	w, err := repo.FindByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestRepository_FindByIDCorruptRecord(t *testing.T) {
	db, mr := newTestDB(t)
	repo := NewRepository[widget](db, "widget")
	mr.HSet("widget:bad", "id", "bad", "count", "many")

	w, err := repo.FindByID(context.Background(), "bad")
	require.Error(t, err)
	assert.Nil(t, w)
	assert.True(t, errors.Is(err, ErrDecode))

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "widget:bad", de.Key)
}

func TestRepository_FindAllSkipsMissingAndCorrupt(t *testing.T) {
	db, mr := newTestDB(t)
	repo := NewRepository[widget](db, "widget")
	ctx := context.Background()

	_, err := repo.Save(ctx, newWidget("ok", "x"))
	require.NoError(t, err)
	mr.Lpush("widget:list", "torn")
	mr.Lpush("widget:list", "bad")
	mr.HSet("widget:bad", "id", "bad", "count", "many")

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, ids(all))
}

func TestRepository_Pagination(t *testing.T) {
	db, _ := newTestDB(t)
	repo := NewRepository[widget](db, "widget")
	ctx := context.Background()

	for _, id := range []string{"1", "2", "3", "4", "5", "6", "7"} {
		_, err := repo.Save(ctx, newWidget(id, "x"))
		require.NoError(t, err)
	}

	var seen []string
	for page := 1; ; page++ {
		p, err := repo.FindPaginated(ctx, models.PaginationParams{Page: page, Limit: 3})
		require.NoError(t, err)
		assert.Equal(t, 7, p.Total)
		assert.Equal(t, 3, p.Pages)
		if len(p.Items) == 0 {
			break
		}
		seen = append(seen, ids(p.Items)...)
	}

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, ids(all), seen)
	assert.Len(t, seen, 7)
}

func TestRepository_Delete(t *testing.T) {
	db, mr := newTestDB(t)
	repo := NewRepository[widget](db, "widget", WithIndexes(widgetIndexes))
	ctx := context.Background()

	_, err := repo.Save(ctx, newWidget("a", "red"))
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, "a")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.False(t, mr.Exists("widget:a"))
	assert.Empty(t, listOf(t, mr, "widget:list"))
	assert.Empty(t, membersOf(t, mr, "widget:index:kind:red"))

	deleted, err = repo.Delete(ctx, "a")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestRepository_DeleteAll(t *testing.T) {
	db, mr := newTestDB(t)
	repo := NewRepository[widget](db, "widget", WithIndexes(widgetIndexes))
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := repo.Save(ctx, newWidget(id, "red"))
		require.NoError(t, err)
	}
	mr.Lpush("widget:list", "torn")

	n, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.False(t, mr.Exists("widget:list"))
	assert.False(t, mr.Exists("widget:index:kind:red"))

	n, err = repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestRepository_IndexFollowsFieldChanges(t *testing.T) {
	db, mr := newTestDB(t)
	repo := NewRepository[widget](db, "widget", WithIndexes(widgetIndexes))
	ctx := context.Background()

	w := newWidget("a", "red")
	_, err := repo.Save(ctx, w)
	require.NoError(t, err)
	_, err = repo.Save(ctx, newWidget("b", "red"))
	require.NoError(t, err)

	reds, err := repo.FindByField(ctx, "kind", "red")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(reds))

	w.Kind = "blue"
	_, err = repo.Save(ctx, w)
	require.NoError(t, err)

	assert.Equal(t, []string{"b"}, membersOf(t, mr, "widget:index:kind:red"))
	assert.Equal(t, []string{"a"}, membersOf(t, mr, "widget:index:kind:blue"))
}

func TestRepository_ManualIndexes(t *testing.T) {
	db, mr := newTestDB(t)
	repo := NewRepository[widget](db, "widget")
	ctx := context.Background()

	w := newWidget("a", "red")
	_, err := repo.Save(ctx, w)
	require.NoError(t, err)

	require.NoError(t, repo.CreateIndex(ctx, w, "tag", "new"))
	found, err := repo.FindByField(ctx, "tag", "new")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(found))

	require.NoError(t, repo.RemoveIndex(ctx, "a", "tag", "new"))
	assert.False(t, mr.Exists("widget:index:tag:new"))
}

func TestScopedRepository_IsolatesUsers(t *testing.T) {
	db, mr := newTestDB(t)
	repo := NewScopedRepository[widget](db, "widget", WithIndexes(widgetIndexes))
	ctx := context.Background()

	_, err := repo.Save(ctx, "u1", newWidget("a", "red"))
	require.NoError(t, err)
	_, err = repo.Save(ctx, "u2", newWidget("b", "red"))
	require.NoError(t, err)

	assert.True(t, mr.Exists("user:u1:widget:a"))
	assert.Equal(t, []string{"a"}, listOf(t, mr, "user:u1:widget:list"))
	assert.Equal(t, []string{"b"}, membersOf(t, mr, "user:u2:widget:index:kind:red"))

	other, err := repo.FindByID(ctx, "u2", "a")
	require.NoError(t, err)
	assert.Nil(t, other)

	reds, err := repo.FindByField(ctx, "u1", "kind", "red")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(reds))

	exists, err := repo.Exists(ctx, "u1", "a")
	require.NoError(t, err)
	assert.True(t, exists)

	deleted, err := repo.Delete(ctx, "u2", "a")
	require.NoError(t, err)
	assert.False(t, deleted)

	n, err := repo.DeleteAll(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	left, err := repo.FindAll(ctx, "u2")
	require.NoError(t, err)
	got := ids(left)
	sort.Strings(got)
	assert.Equal(t, []string{"b"}, got)
}

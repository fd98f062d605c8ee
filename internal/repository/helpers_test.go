package repository

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/gytkk/todo/internal/database"
	"github.com/gytkk/todo/internal/models"
)

func newTestDB(t *testing.T) (*database.Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return database.NewRedisFromClient(client), mr
}

func listOf(t *testing.T, mr *miniredis.Miniredis, key string) []string {
	t.Helper()
	if !mr.Exists(key) {
		return nil
	}
	vals, err := mr.List(key)
	require.NoError(t, err)
	return vals
}

func membersOf(t *testing.T, mr *miniredis.Miniredis, key string) []string {
	t.Helper()
	if !mr.Exists(key) {
		return nil
	}
	vals, err := mr.Members(key)
	require.NoError(t, err)
	return vals
}

func ids[E models.Entity](items []*E) []string {
	out := make([]string, len(items))
	for i, e := range items {
		out[i] = (*e).EntityID()
	}
	return out
}

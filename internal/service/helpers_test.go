package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gytkk/todo/internal/config"
	"github.com/gytkk/todo/internal/database"
	apierrors "github.com/gytkk/todo/internal/pkg/errors"
	"github.com/gytkk/todo/internal/repository"
)

const testPassword = "Secret#123"

var testAuthConfig = config.AuthConfig{
	JWTSecret:          "test-secret",
	AccessTokenExpiry:  30 * time.Minute,
	RefreshTokenExpiry: 30 * 24 * time.Hour,
	RememberMeExpiry:   90 * 24 * time.Hour,
	BcryptCost:         bcrypt.MinCost,
}

type testEnv struct {
	mr         *miniredis.Miniredis
	users      repository.UserRepository
	todos      repository.TodoRepository
	categories repository.CategoryRepository
	settings   repository.SettingsRepository
	tokens     repository.TokenRepository

	auth        AuthService
	user        UserService
	todo        TodoService
	preferences SettingsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	db := database.NewRedisFromClient(client)

	env := &testEnv{
		mr:         mr,
		users:      repository.NewUserRepository(db),
		todos:      repository.NewTodoRepository(db),
		categories: repository.NewCategoryRepository(db),
		settings:   repository.NewSettingsRepository(db, nil),
		tokens:     repository.NewTokenRepository(db),
	}
	env.auth = NewAuthService(env.users, env.settings, env.categories, env.tokens, testAuthConfig, nil)
	env.user = NewUserService(env.users, env.todos, env.categories, env.settings, env.tokens, testAuthConfig, nil)
	env.todo = NewTodoService(env.todos, env.categories, nil)
	env.preferences = NewSettingsService(env.settings, env.categories, env.todos, nil)
	return env
}

// register creates an account and returns its session.
func (e *testEnv) register(t *testing.T, email string) *AuthResponse {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), RegisterRequest{
		Email:    email,
		Name:     "Tester",
		Password: testPassword,
	})
	require.NoError(t, err)
	return resp
}

func assertAPIError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apierrors.AsAPIError(err).Code, err.Error())
}

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gytkk/todo/internal/config"
	"github.com/gytkk/todo/internal/database"
	"github.com/gytkk/todo/internal/handler"
	"github.com/gytkk/todo/internal/models"
	"github.com/gytkk/todo/internal/repository"
	"github.com/gytkk/todo/internal/service"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "calendo",
	Short: "Calendar todo API server",
	Long: `calendo serves the calendar todo API backed by Redis.

Without a subcommand it starts the HTTP server.

Examples:
  calendo
  calendo serve --config ./config.yaml
  calendo stats 6f1c...
  calendo purge-user 6f1c...`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: ./config.yaml, ./config/config.yaml, /etc/calendo/config.yaml)")
}

// app is the wired application shared by every command.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *database.Redis
	services handler.Services
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)
	return logger
}

// setup loads configuration, connects to Redis and builds the services.
func setup() (*app, error) {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg.Log)

	db, err := database.NewRedis(cfg.Redis)
	if err != nil {
		return nil, err
	}
	logger.Debug("connected to redis", slog.String("addr", cfg.Redis.Addr()))

	users := repository.NewUserRepository(db, repository.WithLogger[models.User](logger))
	todos := repository.NewTodoRepository(db, repository.WithLogger[models.Todo](logger))
	categories := repository.NewCategoryRepository(db, repository.WithLogger[models.Category](logger))
	settings := repository.NewSettingsRepository(db, logger)
	tokens := repository.NewTokenRepository(db)

	return &app{
		cfg:    cfg,
		logger: logger,
		db:     db,
		services: handler.Services{
			Auth:     service.NewAuthService(users, settings, categories, tokens, cfg.Auth, logger),
			Users:    service.NewUserService(users, todos, categories, settings, tokens, cfg.Auth, logger),
			Todos:    service.NewTodoService(todos, categories, logger),
			Settings: service.NewSettingsService(settings, categories, todos, logger),
		},
	}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close redis", slog.String("error", err.Error()))
	}
}

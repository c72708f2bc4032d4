package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"thirdcoast.systems/ytingest/internal/application"
	"thirdcoast.systems/ytingest/internal/config"
	"thirdcoast.systems/ytingest/internal/db"
)

// pg-migrator applies the embedded schema and exits. cmd/web applies the same
// migrations on startup; this binary lets a deploy run them ahead of time.
func main() {
	startupCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	conf, err := config.LoadConfig(startupCtx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(application.NewLogger(os.Stderr, *conf))
	slog.Info("Starting database migrator")

	pool, err := application.OpenDBPoolWithRetry(startupCtx, *conf)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	dbc, err := db.NewDatabaseConnection(startupCtx, pool)
	if err != nil {
		slog.Error("failed to create database connection", "error", err)
		os.Exit(1)
	}

	if err := dbc.Migrate(startupCtx); err != nil {
		slog.Error("failed to run PostgreSQL migrations", "error", err)
		os.Exit(1)
	}

	version, err := dbc.SchemaVersion(startupCtx)
	if err != nil {
		slog.Error("failed to read schema version", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migrations completed", "version", version)
}

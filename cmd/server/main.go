// Package main implements the entry point for the EdForge API server,
// which turns submitted questions into interactive learning exercises
// through an LLM-driven generation pipeline.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"

	"github.com/edforge/edforge-api/internal/config"
	"github.com/edforge/edforge-api/internal/platform/logger"
	"github.com/edforge/edforge-api/migrations"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run a migration command (up, status) and exit")
	flag.Parse()

	if err := run(*migrateCmd); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func run(migrateCmd string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	db, err := setupDatabase(cfg, appLogger)
	if err != nil {
		return err
	}

	if migrateCmd != "" {
		defer func() { _ = db.Close() }()
		return handleMigrations(db, migrateCmd)
	}

	if err := migrations.Up(db); err != nil {
		_ = db.Close()
		return err
	}
	appLogger.Info("database migrations applied")

	ctx := context.Background()
	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}

// handleMigrations runs a single migration command and exits.
func handleMigrations(db *sql.DB, cmd string) error {
	switch cmd {
	case "up":
		return migrations.Up(db)
	case "status":
		return migrations.Status(db)
	default:
		return fmt.Errorf("unknown migration command %q", cmd)
	}
}

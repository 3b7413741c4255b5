// Package main is the entrypoint for the condo-orchestrator.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/morezero/condo-orchestrator/internal/config"
	"github.com/morezero/condo-orchestrator/internal/server"
	"github.com/morezero/condo-orchestrator/pkg/db"
)

const usage = `Usage: orchestrator [command]

Commands:
  (default)        Start the orchestrator (NATS, HTTP, dispatch core).
  migrate up       Run database migrations only (does not start the server).
  migrate status   Report whether the task history schema has been applied.

Environment: COMMS_URL, DATABASE_URL, MIGRATION_PATH (migrate), AI_PROVIDER. See README for full list.
`

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "migrate":
		sub := "up"
		if len(args) > 1 {
			sub = args[1]
		}
		if err := runMigrate(sub); err != nil {
			log.Fatalf("orchestrator migrate: %v", err)
		}
		return
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "":
		// fall through to server
	default:
		// unknown subcommand
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err := server.Run(); err != nil {
		log.Fatalf("orchestrator: fatal error: %v", err)
	}
}

func runMigrate(sub string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	switch sub {
	case "up":
		migrationSQL, err := db.LoadMigrationFiles(cfg.MigrationPath)
		if err != nil {
			return fmt.Errorf("load migrations: %w", err)
		}
		if err := db.RunMigrations(ctx, pool, migrationSQL); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		return nil
	case "status":
		return db.MigrationStatus(ctx, pool, cfg.MigrationPath)
	default:
		return fmt.Errorf("unknown migrate subcommand %q (want up or status)", sub)
	}
}

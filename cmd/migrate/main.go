// Command migrate applies the embedded goose migrations (statistics tables
// and report_artifacts) to DATABASE_URL.
//
//	go run ./cmd/migrate -command status
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"biomarket-backend/internal/shared/config"
	"biomarket-backend/internal/shared/storage/db"
	"biomarket-backend/internal/shared/telemetry"
)

func main() {
	command := flag.String("command", "up", "goose command: up, down or status")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall deadline")
	flag.Parse()

	cfg := config.Load()
	telemetry.SetLevel(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, cfg, *command); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"command": *command, "error": err})
		cancel()
		os.Exit(1)
	}
	telemetry.Info("migrate.done", map[string]any{"command": *command})
}

func run(ctx context.Context, cfg config.Config, command string) error {
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	return db.Migrate(ctx, sqlDB, command)
}

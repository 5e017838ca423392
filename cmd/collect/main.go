package main

// Dump the collected context (and optionally the compacted facts) for one place:
//   go run ./cmd/collect -place Lyon -segment "épicerie"

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"biomarket-backend/internal/bootstrap"
	"biomarket-backend/internal/collect"
	"biomarket-backend/internal/facts"
	"biomarket-backend/internal/shared/config"
	"biomarket-backend/internal/shared/storage/db"
)

func main() {
	cfg := config.Load()

	place := flag.String("place", "", "Commune name")
	segment := flag.String("segment", "", "Market segment")
	objective := flag.String("objective", "", "Objective (optional)")
	showFacts := flag.Bool("facts", false, "Print compacted facts instead of the full context")
	outPath := flag.String("out", "", "Path to write JSON output (optional)")
	timeout := flag.Duration("timeout", time.Minute, "Overall deadline")
	flag.Parse()

	if strings.TrimSpace(*place) == "" || strings.TrimSpace(*segment) == "" {
		exitErr("place and segment are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	database, err := connect(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "database unavailable, statistics skipped: %v\n", err)
	}
	if database != nil {
		defer database.Close()
	}

	collector := bootstrap.BuildCollector(cfg, database)
	rc, ops, err := collector.Collect(ctx, collect.Request{Place: *place, Segment: *segment, Objective: *objective})
	if err != nil {
		exitErr(err.Error())
	}

	var payload any = rc
	if *showFacts {
		payload = facts.Compact(rc, ops)
	}
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		exitErr(fmt.Sprintf("marshal: %v", err))
	}

	if strings.TrimSpace(*outPath) != "" {
		if err := os.WriteFile(*outPath, out, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
		return
	}
	fmt.Println(string(out))
}

func connect(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, db.ErrNoDatabase
	}
	return db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
}

func exitErr(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

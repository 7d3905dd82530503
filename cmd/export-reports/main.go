// Command export-reports appends the monthly report for one user to a Google
// Sheet. Intended to run from cron.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/darshanradadiya/ekharcha/internal/config"
	"github.com/darshanradadiya/ekharcha/internal/export"
	"github.com/darshanradadiya/ekharcha/internal/reports"
	"github.com/darshanradadiya/ekharcha/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	userID := flag.Int64("user", 0, "user id whose report to export")
	period := flag.String("period", "1Y", "report period (1M, 3M, 6M, 1Y, ALL)")
	flag.Parse()

	if *userID <= 0 {
		logger.Error("A positive -user id is required")
		os.Exit(1)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	exporter, err := export.NewSheetsExporter(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	if err != nil {
		logger.Error("Failed to initialize Sheets exporter", "error", err)
		os.Exit(1)
	}

	engine := reports.NewEngine(store)
	rows, err := engine.Monthly(ctx, *userID, *period)
	if err != nil {
		logger.Error("Failed to build monthly report", "error", err, "user_id", *userID)
		os.Exit(1)
	}

	if err := exporter.AppendMonthly(ctx, rows); err != nil {
		logger.Error("Export failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Export complete", "user_id", *userID, "period", *period, "rows", len(rows))
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/darshanradadiya/ekharcha/internal/amqp"
	"github.com/darshanradadiya/ekharcha/internal/auth"
	"github.com/darshanradadiya/ekharcha/internal/config"
	apphttp "github.com/darshanradadiya/ekharcha/internal/http"
	"github.com/darshanradadiya/ekharcha/internal/ledger"
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

	logger.Info("Starting ekharcha API server")

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

	// AMQP is optional; without it overspend alerts are only logged.
	var alerts ledger.AlertPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without alert publishing", "error", err)
		} else {
			defer amqpClient.Close()
			alerts = amqpClient
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - budget alerts will not be published")
	}

	verifier, err := auth.ParseTokenPairs(cfg.APITokens)
	if err != nil {
		logger.Error("Failed to parse API tokens", "error", err)
		os.Exit(1)
	}
	if len(verifier) == 0 {
		logger.Warn("No API tokens configured - every request will be rejected")
	}

	writer := ledger.NewWriter(store, alerts, cfg.AlertCooldown)
	engine := reports.NewEngine(store)

	srv := apphttp.NewServer(net.JoinHostPort("", cfg.Port), store, writer, engine, verifier, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

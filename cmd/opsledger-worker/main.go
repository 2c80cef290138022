package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"opsledger/internal/amqp"
	"opsledger/internal/config"
	"opsledger/internal/log"
	"opsledger/internal/sheets"
	"opsledger/internal/sheets/google"
	"opsledger/internal/sheets/memory"
	"opsledger/internal/storage"
	"opsledger/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: log.ComponentWorker,
	})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open database", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Mirror backend: Google Sheets when configured, otherwise the in-memory
	// store so mirrored_at bookkeeping still runs in development.
	var mirror sheets.LedgerMirror
	if cfg.GoogleSpreadsheetID != "" {
		client, err := google.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		mirror = client
		logger.Info("Google Sheets mirror initialized",
			"spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleLedgerSheet)
	} else {
		mirror = memory.New()
		logger.Info("Google Sheets disabled - mirroring to memory")
	}

	var events *amqp.Client
	if cfg.AMQPURL != "" {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP", log.FieldError, err)
			os.Exit(1)
		}
		defer events.Close()
	} else {
		logger.Info("AMQP disabled - sweep-only mirroring")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	w := worker.NewMirrorWorker(repo, mirror, cfg.MirrorBatchSize)
	logger.Info("Starting opsledger-worker",
		"batch_size", cfg.MirrorBatchSize, "sweep_interval", cfg.MirrorSweepInterval.String())

	if err := w.Run(ctx, events, cfg.MirrorSweepInterval); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

// Package cli provides common initialization utilities shared by the binaries
// under cmd/.
package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/qmcao/spending-tracker/internal/amqp"
	"github.com/qmcao/spending-tracker/internal/config"
	"github.com/qmcao/spending-tracker/internal/storage"
)

// SetupLogger initializes structured logging with default settings.
// Returns the configured logger and sets it as the default logger.
func SetupLogger() *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenStorage builds the persistence handle for the configured backend. A
// durable backend that cannot be opened falls back to in-memory storage with
// the store flagged degraded, so the process always starts.
func OpenStorage(logger *slog.Logger, cfg *config.Config) *storage.Store {
	if cfg.StorageBackend == "memory" {
		logger.Info("Using in-memory storage backend")
		return storage.New(storage.NewMemory())
	}

	sqlite, err := storage.NewSQLite(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open SQLite storage, falling back to in-memory",
			"error", err, "path", cfg.SQLiteDBPath)
		store := storage.New(storage.NewMemory())
		store.MarkDegraded()
		return store
	}

	logger.Info("Using SQLite storage backend", "path", cfg.SQLiteDBPath)
	return storage.New(sqlite)
}

// OpenEventPublisher connects the optional AMQP ledger-event publisher.
// Returns nil when no URL is configured or the broker is unreachable; a nil
// client is safe everywhere.
func OpenEventPublisher(logger *slog.Logger, cfg *config.Config) *amqp.Client {
	if cfg.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to connect AMQP, continuing without ledger events", "error", err)
		return nil
	}
	logger.Info("Connected AMQP ledger-event publisher",
		"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}

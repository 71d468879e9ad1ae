package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/qmcao/spending-tracker/internal/cli"
	apphttp "github.com/qmcao/spending-tracker/internal/http"
	"github.com/qmcao/spending-tracker/internal/ledger"
	"github.com/qmcao/spending-tracker/internal/registry"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting spending tracker")

	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.OpenStorage(logger, cfg)
	events := cli.OpenEventPublisher(logger, cfg)
	if events != nil {
		defer events.Close()
	}

	instruments := registry.DefaultInstruments()
	categories := registry.NewCategories(store, registry.DefaultCategories())

	led := ledger.New(store, instruments, events)
	count := led.Load()
	logger.Info("Ledger loaded", "transactions", count, "backend", store.Backend())

	srv := apphttp.NewServer(":"+cfg.Port, led, instruments, categories, store, apphttp.Options{
		CacheSize: cfg.CacheSize,
		CacheTTL:  cfg.CacheTTL,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server listening", "port", cfg.Port, "backend", store.Backend())
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

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ttani03/goth-dcim/internal/database"
	"github.com/ttani03/goth-dcim/internal/handlers"
	"github.com/ttani03/goth-dcim/internal/inventory"
	"github.com/ttani03/goth-dcim/internal/logging"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Apply the schema and start the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat == "json", os.Stderr)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Database with retry loop
	if err := database.ConnectWithRetry(ctx, cfg.DatabaseURL, cfg.ConnectRetries, cfg.RetryInterval.Duration, logger); err != nil {
		logger.Error("failed to connect to database", "error", err)
		return err
	}
	defer database.Close()

	if err := database.Migrate(ctx, database.DB); err != nil {
		logger.Error("failed to apply schema", "error", err)
		return err
	}

	inv := inventory.New(database.DB, inventory.Options{BatchSize: cfg.AddressBatchSize, Logger: logger})
	h := handlers.New(inv, logger, cfg.DiskPath)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           logging.AccessLog(logger, handlers.WithTimeout(cfg.RequestTimeout.Duration, h.Routes())),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

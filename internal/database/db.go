package database

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

var DB *pgxpool.Pool

// Connect opens the package connection pool and verifies it with a ping.
func Connect(ctx context.Context, dbURL string) error {
	if dbURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return fmt.Errorf("unable to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("unable to connect to database: %w", err)
	}

	DB = pool
	return nil
}

// ConnectWithRetry calls Connect up to attempts times, sleeping interval
// between tries. The database container usually starts after the app.
func ConnectWithRetry(ctx context.Context, dbURL string, attempts int, interval time.Duration, logger *slog.Logger) error {
	var err error
	for i := 0; i < attempts; i++ {
		err = Connect(ctx, dbURL)
		if err == nil {
			logger.Info("connected to database")
			return nil
		}
		logger.Warn("connecting to database", "attempt", i+1, "of", attempts, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return fmt.Errorf("failed to connect to database after %d attempts: %w", attempts, err)
}

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Schema returns the embedded schema SQL.
func Schema() string {
	return schema
}

func Close() {
	if DB != nil {
		DB.Close()
	}
}

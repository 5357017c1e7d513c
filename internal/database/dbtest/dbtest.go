// Package dbtest starts a throwaway PostgreSQL for integration tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ttani03/goth-dcim/internal/database"
)

// Instance is a running container with a migrated schema.
type Instance struct {
	Container testcontainers.Container
	Pool      *pgxpool.Pool
}

// Start runs postgres:15-alpine, connects the package pool in
// internal/database and applies the schema.
func Start(ctx context.Context) (*Instance, error) {
	ctr, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("dcim_test"),
		postgres.WithUsername("dcim_user"),
		postgres.WithPassword("testpassword"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = ctr.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	if err := database.Connect(ctx, connStr); err != nil {
		_ = ctr.Terminate(ctx)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.Migrate(ctx, database.DB); err != nil {
		database.Close()
		_ = ctr.Terminate(ctx)
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Instance{Container: ctr, Pool: database.DB}, nil
}

// Stop closes the pool and terminates the container.
func (i *Instance) Stop(ctx context.Context) error {
	i.Pool.Close()
	return i.Container.Terminate(ctx)
}

// Clean truncates all tables to ensure a clean state for each test.
func Clean(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		"TRUNCATE TABLE change_logs, ip_addresses, ip_pools, assets, racks, projects, customers, data_centers RESTART IDENTITY CASCADE")
	if err != nil {
		t.Fatalf("failed to clean database: %v", err)
	}
}

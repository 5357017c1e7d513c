package handlers

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/ttani03/goth-dcim/internal/database"
	"github.com/ttani03/goth-dcim/internal/database/dbtest"
	"github.com/ttani03/goth-dcim/internal/inventory"
	"github.com/ttani03/goth-dcim/internal/logging"
)

var testHandler *Handler

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	ctx := context.Background()

	// Start PostgreSQL container
	db, err := dbtest.Start(ctx)
	if err != nil {
		log.Fatalf("failed to start database: %v", err)
	}
	defer func() {
		if err := db.Stop(ctx); err != nil {
			log.Printf("failed to terminate container: %v", err)
		}
	}()

	inv := inventory.New(database.DB, inventory.Options{Logger: logging.Discard()})
	testHandler = New(inv, logging.Discard(), "/")

	return m.Run()
}

// cleanDB truncates all tables to ensure a clean state for each test.
func cleanDB(t *testing.T) {
	t.Helper()
	dbtest.Clean(t, database.DB)
}

// seedPool creates a pool through the service and returns its id.
func seedPool(t *testing.T, network string, prefix int, gateway string) string {
	t.Helper()
	pool, err := testHandler.inv.CreatePool(context.Background(), inventory.PoolParams{
		Name:           "seed-" + network,
		NetworkAddress: network,
		PrefixLength:   prefix,
		Gateway:        gateway,
	})
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	return pool.ID
}

// addressID looks up the record id of addr in a pool.
func addressID(t *testing.T, poolID, addr string) string {
	t.Helper()
	var id string
	if err := database.DB.QueryRow(context.Background(),
		"SELECT id::text FROM ip_addresses WHERE pool_id = $1 AND ip_address = $2", poolID, addr,
	).Scan(&id); err != nil {
		t.Fatalf("failed to find address %s: %v", addr, err)
	}
	return id
}

// internal/projection/postgres_test.go
package projection_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapit/internal/projection"
)

func setupTestDB(t testing.TB) *sql.DB {
	t.Helper()

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		envOr("PGHOST", "localhost"), envOr("PGPORT", "5432"),
		envOr("PGUSER", "snapit"), envOr("PGPASSWORD", "dev_password_change_in_prod"),
		envOr("PGDATABASE", "snapit"))

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("failed to open database connection: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("skipping: could not connect to postgres: %v", err)
	}

	schema, err := os.ReadFile("../../migrations/001_init.sql")
	if err != nil {
		t.Fatalf("failed to read schema: %v", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	if _, err := db.Exec("TRUNCATE TABLE listing_events, snaps, live_inventories, listings, inventories, items, credentials, users CASCADE"); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
	return db
}

func envOr(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// seedListing inserts a listing row with the minimum referenced rows.
func seedListing(t testing.TB, db *sql.DB, merchantID uuid.UUID, live bool) uuid.UUID {
	t.Helper()

	var exists bool
	err := db.QueryRow(`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, merchantID).Scan(&exists)
	require.NoError(t, err)
	if !exists {
		_, err = db.Exec(`INSERT INTO users (id, email, role) VALUES ($1, $2, 'merchant')`,
			merchantID, merchantID.String()+"@example.com")
		require.NoError(t, err)
	}

	itemID := uuid.New()
	_, err = db.Exec(`INSERT INTO items (id, name) VALUES ($1, 'seed item')`, itemID)
	require.NoError(t, err)

	invID := uuid.New()
	_, err = db.Exec(`INSERT INTO inventories (id, merchant_id, name) VALUES ($1, $2, 'seed')`, invID, merchantID)
	require.NoError(t, err)

	listingID := uuid.New()
	_, err = db.Exec(`
		INSERT INTO listings (id, inventory_id, merchant_id, item_id, price_cents, is_active, is_live)
		VALUES ($1, $2, $3, $4, 100, TRUE, $5)
	`, listingID, invID, merchantID, itemID, live)
	require.NoError(t, err)
	return listingID
}

func TestPostgresSyncLiveInventory(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := projection.NewPostgresStore(db)
	ctx := context.Background()

	merchantID := uuid.New()
	liveA := seedListing(t, db, merchantID, true)
	liveB := seedListing(t, db, merchantID, true)
	seedListing(t, db, merchantID, false)

	ids, err := store.SyncLiveInventory(ctx, merchantID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{liveA, liveB}, ids)

	snap, err := store.GetLiveInventory(ctx, merchantID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{liveA, liveB}, snap.ListingIDs)

	// Demote one listing and resync: the snapshot follows.
	_, err = db.Exec(`UPDATE listings SET is_live = FALSE WHERE id = $1`, liveA)
	require.NoError(t, err)

	ids, err = store.SyncLiveInventory(ctx, merchantID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{liveB}, ids)
}

func TestPostgresSyncEmptyLiveSet(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := projection.NewPostgresStore(db)
	ctx := context.Background()

	merchantID := uuid.New()
	seedListing(t, db, merchantID, false)

	ids, err := store.SyncLiveInventory(ctx, merchantID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	snap, err := store.GetLiveInventory(ctx, merchantID)
	require.NoError(t, err)
	assert.Empty(t, snap.ListingIDs)
}

func TestPostgresGetLiveInventoryNeverSynced(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := projection.NewPostgresStore(db)

	snap, err := store.GetLiveInventory(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, snap.ListingIDs)
}

func TestPostgresMerchantIDs(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := projection.NewPostgresStore(db)
	ctx := context.Background()

	merchantA := uuid.New()
	merchantB := uuid.New()
	seedListing(t, db, merchantA, true)
	seedListing(t, db, merchantA, false)
	seedListing(t, db, merchantB, false)

	ids, err := store.MerchantIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{merchantA, merchantB}, ids)
}

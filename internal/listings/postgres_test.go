// internal/listings/postgres_test.go
package listings_test

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

	"snapit/internal/listings"
)

// setupTestDB connects to a PostgreSQL database for testing, applies the
// schema and truncates all tables. The test is skipped when no database is
// reachable.
func setupTestDB(t testing.TB) *sql.DB {
	t.Helper()

	pgUser := envOr("PGUSER", "snapit")
	pgPassword := envOr("PGPASSWORD", "dev_password_change_in_prod")
	pgHost := envOr("PGHOST", "localhost")
	pgPort := envOr("PGPORT", "5432")
	pgDB := envOr("PGDATABASE", "snapit")

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		pgHost, pgPort, pgUser, pgPassword, pgDB)

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

func insertMerchant(t testing.TB, db *sql.DB) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := db.Exec(`INSERT INTO users (id, email, role) VALUES ($1, $2, 'merchant')`,
		id, id.String()+"@example.com")
	require.NoError(t, err)
	return id
}

func TestPostgresStoreItems(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := listings.NewPostgresStore(db)
	ctx := context.Background()

	item := &listings.Item{ID: uuid.New(), Name: "Toaster", Brand: "Acme", EAN: "4006381333931"}
	require.NoError(t, store.CreateItem(ctx, item))
	assert.False(t, item.CreatedAt.IsZero())

	got, err := store.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Toaster", got.Name)
	assert.Equal(t, "4006381333931", got.EAN)

	byEAN, err := store.GetItemByEAN(ctx, "4006381333931")
	require.NoError(t, err)
	assert.Equal(t, item.ID, byEAN.ID)

	_, err = store.GetItemByEAN(ctx, "nope")
	assert.ErrorIs(t, err, listings.ErrItemNotFound)

	// A blank EAN becomes NULL, so many items may omit it.
	require.NoError(t, store.CreateItem(ctx, &listings.Item{ID: uuid.New(), Name: "No Barcode"}))
	require.NoError(t, store.CreateItem(ctx, &listings.Item{ID: uuid.New(), Name: "Also No Barcode"}))
}

func TestPostgresStoreSaveListingDemotes(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := listings.NewPostgresStore(db)
	ctx := context.Background()

	merchantID := insertMerchant(t, db)
	item := &listings.Item{ID: uuid.New(), Name: "Kettle", EAN: "4006381333932"}
	require.NoError(t, store.CreateItem(ctx, item))

	invA := &listings.Inventory{ID: uuid.New(), MerchantID: merchantID, Name: "a"}
	invB := &listings.Inventory{ID: uuid.New(), MerchantID: merchantID, Name: "b"}
	require.NoError(t, store.CreateInventory(ctx, invA))
	require.NoError(t, store.CreateInventory(ctx, invB))

	a := &listings.Listing{
		ID: uuid.New(), InventoryID: invA.ID, MerchantID: merchantID, ItemID: item.ID,
		PriceCents: 1999, IsActive: true, IsLive: true,
	}
	demoted, err := store.SaveListing(ctx, a, true)
	require.NoError(t, err)
	assert.Nil(t, demoted, "empty slot, nothing to demote")

	b := &listings.Listing{
		ID: uuid.New(), InventoryID: invB.ID, MerchantID: merchantID, ItemID: item.ID,
		PriceCents: 1899, IsActive: true, IsLive: true,
	}
	demoted, err = store.SaveListing(ctx, b, true)
	require.NoError(t, err)
	require.NotNil(t, demoted)
	assert.Equal(t, a.ID, demoted.ID)

	a2, err := store.GetListing(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, a2.IsLive)

	found, err := store.FindListing(ctx, invB.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, found.ID)
	assert.True(t, found.IsLive)
}

func TestPostgresStoreLiveSlotIndexBackstop(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := listings.NewPostgresStore(db)
	ctx := context.Background()

	merchantID := insertMerchant(t, db)
	item := &listings.Item{ID: uuid.New(), Name: "Blender", EAN: "4006381333933"}
	require.NoError(t, store.CreateItem(ctx, item))
	invA := &listings.Inventory{ID: uuid.New(), MerchantID: merchantID, Name: "a"}
	invB := &listings.Inventory{ID: uuid.New(), MerchantID: merchantID, Name: "b"}
	require.NoError(t, store.CreateInventory(ctx, invA))
	require.NoError(t, store.CreateInventory(ctx, invB))

	a := &listings.Listing{
		ID: uuid.New(), InventoryID: invA.ID, MerchantID: merchantID, ItemID: item.ID,
		PriceCents: 100, IsActive: true, IsLive: true,
	}
	_, err := store.SaveListing(ctx, a, true)
	require.NoError(t, err)

	// Writing a second live row without going through the promote path
	// trips the partial unique index and surfaces as ErrConflict.
	b := &listings.Listing{
		ID: uuid.New(), InventoryID: invB.ID, MerchantID: merchantID, ItemID: item.ID,
		PriceCents: 100, IsActive: true, IsLive: true,
	}
	_, err = store.SaveListing(ctx, b, false)
	assert.ErrorIs(t, err, listings.ErrConflict)
}

func TestPostgresStoreDeleteListingsByItem(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := listings.NewPostgresStore(db)
	ctx := context.Background()

	merchantID := insertMerchant(t, db)
	item := &listings.Item{ID: uuid.New(), Name: "Mixer", EAN: "4006381333934"}
	require.NoError(t, store.CreateItem(ctx, item))
	inv := &listings.Inventory{ID: uuid.New(), MerchantID: merchantID, Name: "a"}
	require.NoError(t, store.CreateInventory(ctx, inv))

	l := &listings.Listing{
		ID: uuid.New(), InventoryID: inv.ID, MerchantID: merchantID, ItemID: item.ID,
		PriceCents: 100, IsActive: true, IsLive: true,
	}
	_, err := store.SaveListing(ctx, l, true)
	require.NoError(t, err)

	deleted, err := store.DeleteListingsByItem(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, l.ID, deleted[0].ID)
	assert.True(t, deleted[0].IsLive, "deleted rows report their pre-delete state")

	_, err = store.GetListing(ctx, l.ID)
	assert.ErrorIs(t, err, listings.ErrListingNotFound)
}

func TestPostgresStoreSearchExcludesSoftDeleted(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	store := listings.NewPostgresStore(db)
	ctx := context.Background()

	merchantID := insertMerchant(t, db)
	item := &listings.Item{ID: uuid.New(), Name: "Espresso Machine", EAN: "4006381333935"}
	require.NoError(t, store.CreateItem(ctx, item))
	inv := &listings.Inventory{ID: uuid.New(), MerchantID: merchantID, Name: "kitchen"}
	require.NoError(t, store.CreateInventory(ctx, inv))

	l := &listings.Listing{
		ID: uuid.New(), InventoryID: inv.ID, MerchantID: merchantID, ItemID: item.ID,
		PriceCents: 14900, IsActive: true,
	}
	_, err := store.SaveListing(ctx, l, false)
	require.NoError(t, err)

	results, err := store.SearchListings(ctx, "espresso")
	require.NoError(t, err)
	require.Len(t, results, 1)

	results, err = store.SearchListings(ctx, "4006381333935")
	require.NoError(t, err)
	require.Len(t, results, 1)

	l.IsActive = false
	_, err = store.SaveListing(ctx, l, false)
	require.NoError(t, err)

	results, err = store.SearchListings(ctx, "espresso")
	require.NoError(t, err)
	assert.Empty(t, results)
}

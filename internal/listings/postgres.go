// internal/listings/postgres.go
package listings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresStore implements Store over a Postgres database.
//
// The live slot is protected twice: a transaction-scoped advisory lock on
// the (merchant, item) key serializes the demote-then-promote sequence, and
// the partial unique index listings_live_slot turns any write that would
// leave two live rows into a 23505, mapped to ErrConflict.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const listingColumns = `id, inventory_id, merchant_id, item_id, price_cents, promo_start, promo_end, is_active, is_live, created_at, updated_at`

func (s *PostgresStore) CreateItem(ctx context.Context, item *Item) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO items (id, name, description, brand, model_name, model_number, category, sub_category, ean, colour)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10)
		RETURNING created_at, updated_at
	`, item.ID, item.Name, item.Description, item.Brand, item.ModelName, item.ModelNumber,
		item.Category, item.SubCategory, item.EAN, item.Colour,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	return s.scanItem(s.db.QueryRowContext(ctx, `
		SELECT id, name, description, brand, model_name, model_number, category, sub_category, COALESCE(ean, ''), colour, created_at, updated_at
		FROM items
		WHERE id = $1
	`, id))
}

func (s *PostgresStore) GetItemByEAN(ctx context.Context, ean string) (*Item, error) {
	return s.scanItem(s.db.QueryRowContext(ctx, `
		SELECT id, name, description, brand, model_name, model_number, category, sub_category, COALESCE(ean, ''), colour, created_at, updated_at
		FROM items
		WHERE ean = $1
	`, ean))
}

func (s *PostgresStore) scanItem(row *sql.Row) (*Item, error) {
	item := &Item{}
	err := row.Scan(
		&item.ID, &item.Name, &item.Description, &item.Brand, &item.ModelName,
		&item.ModelNumber, &item.Category, &item.SubCategory, &item.EAN,
		&item.Colour, &item.CreatedAt, &item.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan item: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) CreateInventory(ctx context.Context, inv *Inventory) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO inventories (id, merchant_id, name)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`, inv.ID, inv.MerchantID, inv.Name).Scan(&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert inventory: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetInventory(ctx context.Context, id uuid.UUID) (*Inventory, error) {
	inv := &Inventory{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, merchant_id, name, created_at, updated_at
		FROM inventories
		WHERE id = $1
	`, id).Scan(&inv.ID, &inv.MerchantID, &inv.Name, &inv.CreatedAt, &inv.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrInventoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan inventory: %w", err)
	}
	return inv, nil
}

func (s *PostgresStore) GetListing(ctx context.Context, id uuid.UUID) (*Listing, error) {
	return scanListing(s.db.QueryRowContext(ctx, `
		SELECT `+listingColumns+`
		FROM listings
		WHERE id = $1
	`, id))
}

func (s *PostgresStore) FindListing(ctx context.Context, inventoryID, itemID uuid.UUID) (*Listing, error) {
	return scanListing(s.db.QueryRowContext(ctx, `
		SELECT `+listingColumns+`
		FROM listings
		WHERE inventory_id = $1 AND item_id = $2
	`, inventoryID, itemID))
}

func (s *PostgresStore) SaveListing(ctx context.Context, l *Listing, promote bool) (*Listing, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var demoted *Listing
	if promote {
		// Serialize all writers on this (merchant, item) slot for the rest
		// of the transaction.
		_, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, slotLockKey(l.MerchantID, l.ItemID))
		if err != nil {
			return nil, fmt.Errorf("acquire slot lock: %w", err)
		}

		demoted, err = scanListingErr(tx.QueryRowContext(ctx, `
			UPDATE listings
			SET is_live = FALSE, updated_at = NOW()
			WHERE merchant_id = $1 AND item_id = $2 AND is_live AND id <> $3
			RETURNING `+listingColumns+`
		`, l.MerchantID, l.ItemID, l.ID))
		if err != nil {
			return nil, fmt.Errorf("demote previous live listing: %w", err)
		}
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO listings (id, inventory_id, merchant_id, item_id, price_cents, promo_start, promo_end, is_active, is_live)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			price_cents = EXCLUDED.price_cents,
			promo_start = EXCLUDED.promo_start,
			promo_end   = EXCLUDED.promo_end,
			is_active   = EXCLUDED.is_active,
			is_live     = EXCLUDED.is_live,
			updated_at  = NOW()
		RETURNING created_at, updated_at
	`, l.ID, l.InventoryID, l.MerchantID, l.ItemID, l.PriceCents,
		l.PromoStart, l.PromoEnd, l.IsActive, l.IsLive,
	).Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("upsert listing: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return demoted, nil
}

func (s *PostgresStore) DeleteListingsByItem(ctx context.Context, itemID uuid.UUID) ([]*Listing, error) {
	rows, err := s.db.QueryContext(ctx, `
		DELETE FROM listings
		WHERE item_id = $1
		RETURNING `+listingColumns+`
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("delete listings by item: %w", err)
	}
	defer rows.Close()
	return collectListings(rows)
}

func (s *PostgresStore) SearchListings(ctx context.Context, query string) ([]*Listing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.id, l.inventory_id, l.merchant_id, l.item_id, l.price_cents, l.promo_start, l.promo_end, l.is_active, l.is_live, l.created_at, l.updated_at
		FROM listings l
		JOIN items it ON it.id = l.item_id
		JOIN inventories inv ON inv.id = l.inventory_id
		WHERE l.is_active
		AND (it.name ILIKE '%' || $1 || '%' OR it.ean = $1 OR inv.name ILIKE '%' || $1 || '%')
		ORDER BY l.created_at DESC
		LIMIT 50
	`, query)
	if err != nil {
		return nil, fmt.Errorf("search listings: %w", err)
	}
	defer rows.Close()
	return collectListings(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanListing(row rowScanner) (*Listing, error) {
	l := &Listing{}
	var promoStart, promoEnd sql.NullTime
	err := row.Scan(
		&l.ID, &l.InventoryID, &l.MerchantID, &l.ItemID, &l.PriceCents,
		&promoStart, &promoEnd, &l.IsActive, &l.IsLive, &l.CreatedAt, &l.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrListingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan listing: %w", err)
	}
	if promoStart.Valid {
		t := promoStart.Time
		l.PromoStart = &t
	}
	if promoEnd.Valid {
		t := promoEnd.Time
		l.PromoEnd = &t
	}
	return l, nil
}

// scanListingErr is scanListing with no-rows treated as absence, not error.
func scanListingErr(row rowScanner) (*Listing, error) {
	l, err := scanListing(row)
	if errors.Is(err, ErrListingNotFound) {
		return nil, nil
	}
	return l, err
}

func collectListings(rows *sql.Rows) ([]*Listing, error) {
	var out []*Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}
	return out, nil
}

// slotLockKey derives the advisory lock key for a (merchant, item) slot.
func slotLockKey(merchantID, itemID uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write(merchantID[:])
	h.Write(itemID[:])
	return int64(h.Sum64())
}

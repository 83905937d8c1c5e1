// internal/projection/postgres.go
package projection

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"snapit/internal/listings"
)

// PostgresStore implements Store. The sync is a single INSERT ... ON
// CONFLICT statement, so concurrent resyncs of the same merchant serialize
// on the live_inventories row lock and the last committed write always
// reflects a consistent read of the listings table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) SyncLiveInventory(ctx context.Context, merchantID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO live_inventories (merchant_id, listing_ids, updated_at)
		SELECT $1, COALESCE(array_agg(id ORDER BY id), '{}'::uuid[]), NOW()
		FROM listings
		WHERE merchant_id = $1 AND is_live
		ON CONFLICT (merchant_id) DO UPDATE SET
			listing_ids = EXCLUDED.listing_ids,
			updated_at  = NOW()
		RETURNING listing_ids
	`, merchantID).Scan(pq.Array(&ids))
	if err != nil {
		return nil, fmt.Errorf("sync live inventory: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) GetLiveInventory(ctx context.Context, merchantID uuid.UUID) (*listings.LiveInventory, error) {
	li := &listings.LiveInventory{MerchantID: merchantID}
	err := s.db.QueryRowContext(ctx, `
		SELECT listing_ids, updated_at
		FROM live_inventories
		WHERE merchant_id = $1
	`, merchantID).Scan(pq.Array(&li.ListingIDs), &li.UpdatedAt)
	if err == sql.ErrNoRows {
		// Never synced: an empty snapshot, not an error.
		return li, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get live inventory: %w", err)
	}
	return li, nil
}

func (s *PostgresStore) LiveListingIDs(ctx context.Context, merchantID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id
		FROM listings
		WHERE merchant_id = $1 AND is_live
		ORDER BY id
	`, merchantID)
	if err != nil {
		return nil, fmt.Errorf("query live listings: %w", err)
	}
	defer rows.Close()
	return collectIDs(rows)
}

func (s *PostgresStore) MerchantIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT merchant_id
		FROM listings
		ORDER BY merchant_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query merchants: %w", err)
	}
	defer rows.Close()
	return collectIDs(rows)
}

func collectIDs(rows *sql.Rows) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ids: %w", err)
	}
	return ids, nil
}

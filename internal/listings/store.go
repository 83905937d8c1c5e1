// internal/listings/store.go
package listings

import (
	"context"

	"github.com/google/uuid"
)

// Store is the storage port for the lifecycle manager. Each method is an
// atomic unit of work; SaveListing is the only one with a multi-row
// contract and carries the concurrency requirement for the live slot.
type Store interface {
	CreateItem(ctx context.Context, item *Item) error
	GetItem(ctx context.Context, id uuid.UUID) (*Item, error)
	// GetItemByEAN returns ErrItemNotFound when no item carries the EAN.
	GetItemByEAN(ctx context.Context, ean string) (*Item, error)

	CreateInventory(ctx context.Context, inv *Inventory) error
	GetInventory(ctx context.Context, id uuid.UUID) (*Inventory, error)

	GetListing(ctx context.Context, id uuid.UUID) (*Listing, error)
	// FindListing locates the listing for (inventory, item), or
	// ErrListingNotFound.
	FindListing(ctx context.Context, inventoryID, itemID uuid.UUID) (*Listing, error)

	// SaveListing inserts or updates l in a single transaction. When promote
	// is true the transaction must serialize on the (merchant, item) live
	// slot, demote any other live listing for that slot, and persist l with
	// IsLive set — all or nothing. The demoted listing, if any, is returned.
	// Two concurrent promotions of the same slot must not both succeed
	// without one observing the other; a lost race surfaces as ErrConflict.
	SaveListing(ctx context.Context, l *Listing, promote bool) (*Listing, error)

	// DeleteListingsByItem hard-deletes every listing of the item and
	// returns the deleted rows so the caller can resync affected merchants.
	DeleteListingsByItem(ctx context.Context, itemID uuid.UUID) ([]*Listing, error)

	// SearchListings matches active listings by item name, item EAN or
	// inventory name. Soft-deleted rows are never returned.
	SearchListings(ctx context.Context, query string) ([]*Listing, error)
}

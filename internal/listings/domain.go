// internal/listings/domain.go
package listings

import (
	"time"

	"github.com/google/uuid"
)

// Item is a catalog entry. Items are shared across merchants; only admin
// collaborators create or edit them.
type Item struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Brand       string    `json:"brand,omitempty"`
	ModelName   string    `json:"model_name,omitempty"`
	ModelNumber string    `json:"model_number,omitempty"`
	Category    string    `json:"category,omitempty"`
	SubCategory string    `json:"sub_category,omitempty"`
	EAN         string    `json:"ean,omitempty"`
	Colour      string    `json:"colour,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Inventory is a named batch of listings owned by exactly one merchant.
type Inventory struct {
	ID         uuid.UUID `json:"id"`
	MerchantID uuid.UUID `json:"merchant_id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Listing is a merchant's offer of an item at a price. At most one listing
// per (merchant, item) pair may have IsLive set at any instant; IsActive
// false means soft-deleted and excluded from customer-facing queries.
type Listing struct {
	ID          uuid.UUID  `json:"id"`
	InventoryID uuid.UUID  `json:"inventory_id"`
	MerchantID  uuid.UUID  `json:"merchant_id"`
	ItemID      uuid.UUID  `json:"item_id"`
	PriceCents  int64      `json:"price_cents"`
	PromoStart  *time.Time `json:"promo_start,omitempty"`
	PromoEnd    *time.Time `json:"promo_end,omitempty"`
	IsActive    bool       `json:"is_active"`
	IsLive      bool       `json:"is_live"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// LiveInventory is the denormalized per-merchant snapshot of currently-live
// listings. Derived state: it must always be recomputable from listings
// alone.
type LiveInventory struct {
	MerchantID uuid.UUID   `json:"merchant_id"`
	ListingIDs []uuid.UUID `json:"listing_ids"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Actor identifies who is performing an operation.
type Actor struct {
	ID   uuid.UUID
	Role string
}

func (a Actor) IsAdmin() bool    { return a.Role == "admin" }
func (a Actor) IsMerchant() bool { return a.Role == "merchant" }

// UpsertInput carries the fields for a single listing write.
type UpsertInput struct {
	InventoryID uuid.UUID  `json:"inventory_id"`
	ItemID      uuid.UUID  `json:"item_id"`
	PriceCents  int64      `json:"price_cents"`
	PromoStart  *time.Time `json:"promo_start,omitempty"`
	PromoEnd    *time.Time `json:"promo_end,omitempty"`
	MarkLive    bool       `json:"mark_live"`
}

// BulkRow is one decoded row of a bulk upload. Items are referenced by EAN,
// the only identifier merchants have in their own spreadsheets.
type BulkRow struct {
	Line       int
	EAN        string
	PriceCents int64
	PromoStart *time.Time
	PromoEnd   *time.Time
	MarkLive   bool
}

// RowError records why one row of a batch was rejected. Row failures never
// abort the batch.
type RowError struct {
	Line   int    `json:"line"`
	EAN    string `json:"ean,omitempty"`
	Reason string `json:"reason"`
}

// BulkResult aggregates the outcome of a bulk upsert.
type BulkResult struct {
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Skipped int        `json:"skipped"`
	Errors  []RowError `json:"errors,omitempty"`
}

// DeleteResult reports a hard delete by external item id.
type DeleteResult struct {
	Deleted  int  `json:"deleted"`
	NotFound bool `json:"not_found"`
}

// Event types appended to the listing event log.
const (
	EventListingBecameLive    = "listing_became_live"
	EventListingBecameNotLive = "listing_became_not_live"
)

// ListingBecameLiveEvent is emitted when a listing enters the live set.
type ListingBecameLiveEvent struct {
	ListingID  uuid.UUID `json:"listing_id"`
	MerchantID uuid.UUID `json:"merchant_id"`
	ItemID     uuid.UUID `json:"item_id"`
}

// ListingBecameNotLiveEvent is emitted when a listing leaves the live set,
// whether by explicit unmark, soft delete, supersession or hard delete.
type ListingBecameNotLiveEvent struct {
	ListingID  uuid.UUID `json:"listing_id"`
	MerchantID uuid.UUID `json:"merchant_id"`
	ItemID     uuid.UUID `json:"item_id"`
}

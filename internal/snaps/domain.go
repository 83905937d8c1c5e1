// internal/snaps/domain.go
package snaps

import (
	"time"

	"github.com/google/uuid"
)

// Snap is a customer's bookmark of a listing, capturing the price at the
// moment it was snapped. The captured price never changes afterwards, even
// if the listing's price does.
type Snap struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	ListingID  uuid.UUID `json:"listing_id"`
	PriceCents int64     `json:"price_cents"`
	CreatedAt  time.Time `json:"created_at"`
}

// SnapCreatedEvent is published when a customer snaps a listing.
type SnapCreatedEvent struct {
	SnapID    uuid.UUID `json:"snap_id"`
	UserID    uuid.UUID `json:"user_id"`
	ListingID uuid.UUID `json:"listing_id"`
}

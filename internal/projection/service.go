// internal/projection/service.go
package projection

import (
	"context"

	"github.com/google/uuid"

	"snapit/internal/listings"
)

// Service is the live inventory projector. It owns the per-merchant
// LiveInventory snapshot and keeps it equal to the live-listing set.
type Service interface {
	// Resync recomputes LiveInventory(merchantID) wholesale from listing
	// state. Idempotent: with no intervening writes, repeated calls leave
	// the same snapshot.
	Resync(ctx context.Context, merchantID uuid.UUID) error

	// RebuildAll resyncs every merchant that has at least one listing and
	// returns how many were rebuilt. Repair path, not the hot path.
	RebuildAll(ctx context.Context) (int, error)

	// Drift reports whether the snapshot disagrees with the live set.
	Drift(ctx context.Context, merchantID uuid.UUID) (bool, error)

	Get(ctx context.Context, merchantID uuid.UUID) (*listings.LiveInventory, error)
}

// Store is the projector's storage port.
type Store interface {
	// SyncLiveInventory replaces the merchant's snapshot with the current
	// live set in one atomic operation and returns the resulting ids.
	SyncLiveInventory(ctx context.Context, merchantID uuid.UUID) ([]uuid.UUID, error)

	GetLiveInventory(ctx context.Context, merchantID uuid.UUID) (*listings.LiveInventory, error)

	// LiveListingIDs reads the live set straight from the listings table.
	LiveListingIDs(ctx context.Context, merchantID uuid.UUID) ([]uuid.UUID, error)

	// MerchantIDs lists every merchant with at least one listing.
	MerchantIDs(ctx context.Context) ([]uuid.UUID, error)
}

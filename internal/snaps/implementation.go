// internal/snaps/implementation.go
package snaps

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"snapit/internal/logger"
)

// service implements the Service interface.
type service struct {
	store    Store
	listings ListingGetter
	log      *logger.Logger
}

// NewService creates a new snap service instance.
func NewService(store Store, listingGetter ListingGetter, log *logger.Logger) Service {
	return &service{
		store:    store,
		listings: listingGetter,
		log:      log.With("component", "snaps"),
	}
}

// Snap bookmarks a listing for the user at the listing's current price.
// Soft-deleted listings cannot be snapped.
func (s *service) Snap(ctx context.Context, userID, listingID uuid.UUID) (*Snap, error) {
	listing, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("resolve listing: %w", err)
	}
	if !listing.IsActive {
		return nil, ErrListingInactive
	}

	snap := &Snap{
		ID:         uuid.New(),
		UserID:     userID,
		ListingID:  listingID,
		PriceCents: listing.PriceCents,
	}
	if err := s.store.InsertSnap(ctx, snap); err != nil {
		return nil, err
	}

	s.log.Debug("listing snapped", "snap_id", snap.ID, "listing_id", listingID, "user_id", userID)
	return snap, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]*Snap, error) {
	return s.store.ListSnaps(ctx, userID)
}

func (s *service) Delete(ctx context.Context, userID, snapID uuid.UUID) error {
	return s.store.DeleteSnap(ctx, userID, snapID)
}

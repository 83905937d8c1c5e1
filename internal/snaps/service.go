// internal/snaps/service.go
package snaps

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"snapit/internal/listings"
)

var (
	ErrListingInactive = errors.New("listing is no longer active")
	ErrAlreadySnapped  = errors.New("listing already snapped by this user")
	ErrSnapNotFound    = errors.New("snap not found")
)

// Service defines the interface for the snap service.
type Service interface {
	Snap(ctx context.Context, userID, listingID uuid.UUID) (*Snap, error)
	List(ctx context.Context, userID uuid.UUID) ([]*Snap, error)
	Delete(ctx context.Context, userID, snapID uuid.UUID) error
}

// ListingGetter is the slice of the listing service the snap service needs.
type ListingGetter interface {
	GetListing(ctx context.Context, id uuid.UUID) (*listings.Listing, error)
}

// Store is the snap storage port.
type Store interface {
	// InsertSnap returns ErrAlreadySnapped when (user, listing) exists.
	InsertSnap(ctx context.Context, snap *Snap) error
	ListSnaps(ctx context.Context, userID uuid.UUID) ([]*Snap, error)
	// DeleteSnap removes the user's snap, or ErrSnapNotFound.
	DeleteSnap(ctx context.Context, userID, snapID uuid.UUID) error
}

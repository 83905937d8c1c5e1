// internal/listings/errors.go
package listings

import "errors"

var (
	ErrNotOwner          = errors.New("inventory does not belong to the acting merchant")
	ErrNotAuthorized     = errors.New("actor is not authorized for this operation")
	ErrInvalidPrice      = errors.New("price must be zero or positive")
	ErrInvalidDateRange  = errors.New("promo start date must not be after promo end date")
	ErrItemNotFound      = errors.New("item not found")
	ErrInventoryNotFound = errors.New("inventory not found")
	ErrListingNotFound   = errors.New("listing not found")

	// ErrConflict reports lock contention on a (merchant, item) live slot.
	// Safe to retry: the operation is idempotent at the business level.
	ErrConflict = errors.New("conflict on live listing slot")
)

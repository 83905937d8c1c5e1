// internal/listings/service.go
package listings

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Service is the listing lifecycle manager. It is the single enforcement
// point for the one-live-listing-per-(merchant,item) rule: every write path
// that can flip a listing's live flag goes through here.
type Service interface {
	CreateItem(ctx context.Context, actor Actor, item *Item) (*Item, error)
	GetItem(ctx context.Context, id uuid.UUID) (*Item, error)

	CreateInventory(ctx context.Context, actor Actor, name string) (*Inventory, error)

	UpsertListing(ctx context.Context, actor Actor, in UpsertInput) (*Listing, error)
	BulkUpsert(ctx context.Context, actor Actor, inventoryID uuid.UUID, rows []BulkRow) (*BulkResult, error)
	UploadCSV(ctx context.Context, actor Actor, filename string, r io.Reader) (*Inventory, *BulkResult, error)
	SoftDeleteListing(ctx context.Context, actor Actor, listingID uuid.UUID) error
	HardDeleteByEAN(ctx context.Context, actor Actor, ean string) (*DeleteResult, error)

	GetListing(ctx context.Context, id uuid.UUID) (*Listing, error)
	Search(ctx context.Context, query string) ([]*Listing, error)
}

// Projector keeps the per-merchant live inventory snapshot in sync. The
// lifecycle manager calls it synchronously after every committed live-set
// transition; the full implementation lives in internal/projection.
type Projector interface {
	Resync(ctx context.Context, merchantID uuid.UUID) error
}

// EventSink receives lifecycle events after commit. Appends are best-effort
// from the caller's point of view: a sink failure is logged, never surfaced.
type EventSink interface {
	Append(ctx context.Context, aggregateID uuid.UUID, eventType string, data interface{}) error
}

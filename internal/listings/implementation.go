// internal/listings/implementation.go
package listings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"snapit/internal/logger"
)

const (
	// Bounded retry for slot contention; the operation is idempotent at the
	// business level so replaying it is safe.
	slotRetries = 3
	slotBackoff = 25 * time.Millisecond
	dateFormat  = "2006-01-02"
)

// service implements the Service interface.
type service struct {
	store     Store
	projector Projector
	events    EventSink
	log       *logger.Logger
	tracer    trace.Tracer
}

// NewService creates the listing lifecycle manager.
func NewService(store Store, projector Projector, events EventSink, log *logger.Logger) Service {
	return &service{
		store:     store,
		projector: projector,
		events:    events,
		log:       log.With("component", "listings"),
		tracer:    otel.Tracer("snapit/listings"),
	}
}

func (s *service) CreateItem(ctx context.Context, actor Actor, item *Item) (*Item, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotAuthorized
	}
	if strings.TrimSpace(item.Name) == "" {
		return nil, fmt.Errorf("item name is required")
	}
	item.ID = uuid.New()
	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return item, nil
}

func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	return s.store.GetItem(ctx, id)
}

func (s *service) CreateInventory(ctx context.Context, actor Actor, name string) (*Inventory, error) {
	if !actor.IsMerchant() && !actor.IsAdmin() {
		return nil, ErrNotAuthorized
	}
	inv := &Inventory{
		ID:         uuid.New(),
		MerchantID: actor.ID,
		Name:       strings.TrimSpace(name),
	}
	if inv.Name == "" {
		inv.Name = "Inventory-" + time.Now().UTC().Format(dateFormat)
	}
	if err := s.store.CreateInventory(ctx, inv); err != nil {
		return nil, fmt.Errorf("create inventory: %w", err)
	}
	return inv, nil
}

func (s *service) UpsertListing(ctx context.Context, actor Actor, in UpsertInput) (*Listing, error) {
	ctx, span := s.tracer.Start(ctx, "listings.upsert",
		trace.WithAttributes(
			attribute.String("inventory.id", in.InventoryID.String()),
			attribute.String("item.id", in.ItemID.String()),
			attribute.Bool("mark.live", in.MarkLive),
		),
	)
	defer span.End()

	if err := validateInput(in); err != nil {
		return nil, err
	}

	inv, err := s.store.GetInventory(ctx, in.InventoryID)
	if err != nil {
		return nil, err
	}
	if inv.MerchantID != actor.ID && !actor.IsAdmin() {
		return nil, ErrNotOwner
	}
	if _, err := s.store.GetItem(ctx, in.ItemID); err != nil {
		return nil, err
	}

	l, wasLive, err := s.prepareListing(ctx, inv, in)
	if err != nil {
		return nil, err
	}

	demoted, err := s.saveWithRetry(ctx, l, in.MarkLive)
	if err != nil {
		return nil, err
	}

	s.afterLiveTransition(ctx, l, demoted, wasLive)
	return l, nil
}

// prepareListing loads the existing (inventory, item) listing or builds a
// new one, and applies the input fields. Reports whether the listing was
// live before this write.
func (s *service) prepareListing(ctx context.Context, inv *Inventory, in UpsertInput) (*Listing, bool, error) {
	existing, err := s.store.FindListing(ctx, inv.ID, in.ItemID)
	if err != nil && !errors.Is(err, ErrListingNotFound) {
		return nil, false, err
	}

	if existing == nil {
		return &Listing{
			ID:          uuid.New(),
			InventoryID: inv.ID,
			MerchantID:  inv.MerchantID,
			ItemID:      in.ItemID,
			PriceCents:  in.PriceCents,
			PromoStart:  in.PromoStart,
			PromoEnd:    in.PromoEnd,
			IsActive:    true,
			IsLive:      in.MarkLive,
		}, false, nil
	}

	wasLive := existing.IsLive
	existing.PriceCents = in.PriceCents
	existing.PromoStart = in.PromoStart
	existing.PromoEnd = in.PromoEnd
	existing.IsLive = in.MarkLive
	return existing, wasLive, nil
}

// saveWithRetry persists the listing, retrying a bounded number of times on
// slot contention.
func (s *service) saveWithRetry(ctx context.Context, l *Listing, promote bool) (*Listing, error) {
	var demoted *Listing
	var err error
	for attempt := 0; attempt <= slotRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * slotBackoff):
			}
		}
		demoted, err = s.store.SaveListing(ctx, l, promote)
		if !errors.Is(err, ErrConflict) {
			break
		}
		s.log.Warn("live slot conflict, retrying",
			"listing_id", l.ID, "merchant_id", l.MerchantID, "item_id", l.ItemID, "attempt", attempt+1)
	}
	if err != nil {
		return nil, err
	}
	return demoted, nil
}

// afterLiveTransition runs the post-commit follow-ups for a listing write:
// lifecycle events and the synchronous projector resync. A failed resync is
// logged and left for RebuildAll; drift is repairable, a lost flip is not.
func (s *service) afterLiveTransition(ctx context.Context, l *Listing, demoted *Listing, wasLive bool) {
	if demoted != nil {
		s.emit(ctx, demoted.ID, EventListingBecameNotLive, ListingBecameNotLiveEvent{
			ListingID: demoted.ID, MerchantID: demoted.MerchantID, ItemID: demoted.ItemID,
		})
	}

	switch {
	case l.IsLive && !wasLive:
		s.emit(ctx, l.ID, EventListingBecameLive, ListingBecameLiveEvent{
			ListingID: l.ID, MerchantID: l.MerchantID, ItemID: l.ItemID,
		})
	case !l.IsLive && wasLive:
		s.emit(ctx, l.ID, EventListingBecameNotLive, ListingBecameNotLiveEvent{
			ListingID: l.ID, MerchantID: l.MerchantID, ItemID: l.ItemID,
		})
	}

	if l.IsLive || wasLive || demoted != nil {
		s.resync(ctx, l.MerchantID)
	}
}

func (s *service) resync(ctx context.Context, merchantID uuid.UUID) {
	if err := s.projector.Resync(ctx, merchantID); err != nil {
		s.log.Error("live inventory resync failed; pending repair by rebuild",
			"merchant_id", merchantID, "error", err)
	}
}

func (s *service) emit(ctx context.Context, listingID uuid.UUID, eventType string, data interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Append(ctx, listingID, eventType, data); err != nil {
		s.log.Error("event append failed", "listing_id", listingID, "event_type", eventType, "error", err)
	}
}

func (s *service) BulkUpsert(ctx context.Context, actor Actor, inventoryID uuid.UUID, rows []BulkRow) (*BulkResult, error) {
	ctx, span := s.tracer.Start(ctx, "listings.bulk_upsert",
		trace.WithAttributes(
			attribute.String("inventory.id", inventoryID.String()),
			attribute.Int("rows", len(rows)),
		),
	)
	defer span.End()

	inv, err := s.store.GetInventory(ctx, inventoryID)
	if err != nil {
		return nil, err
	}
	if inv.MerchantID != actor.ID && !actor.IsAdmin() {
		return nil, ErrNotOwner
	}

	result := &BulkResult{}
	touched := false

	// Per-row transactions: one bad row must not void the rest of the
	// batch, and no batch-length transaction is ever held open.
	for _, row := range rows {
		if row.EAN == "" {
			result.Skipped++
			continue
		}
		if err := s.bulkRow(ctx, inv, row, result); err != nil {
			return nil, err
		}
		touched = true
	}

	// One resync per touched merchant, after the whole batch.
	if touched {
		s.resync(ctx, inv.MerchantID)
	}

	span.SetAttributes(
		attribute.Int("created", result.Created),
		attribute.Int("updated", result.Updated),
		attribute.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// bulkRow applies one row with upsert semantics. Row-level failures are
// recorded on the result; only infrastructure failures propagate.
func (s *service) bulkRow(ctx context.Context, inv *Inventory, row BulkRow, result *BulkResult) error {
	rowErr := func(reason string) {
		result.Errors = append(result.Errors, RowError{Line: row.Line, EAN: row.EAN, Reason: reason})
	}

	if row.PriceCents < 0 {
		rowErr("InvalidPrice")
		return nil
	}
	if row.PromoStart != nil && row.PromoEnd != nil && row.PromoStart.After(*row.PromoEnd) {
		rowErr("InvalidDateRange")
		return nil
	}

	item, err := s.store.GetItemByEAN(ctx, row.EAN)
	if errors.Is(err, ErrItemNotFound) {
		rowErr("ItemNotFound")
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve item for row %d: %w", row.Line, err)
	}

	in := UpsertInput{
		InventoryID: inv.ID,
		ItemID:      item.ID,
		PriceCents:  row.PriceCents,
		PromoStart:  row.PromoStart,
		PromoEnd:    row.PromoEnd,
		MarkLive:    row.MarkLive,
	}
	l, wasLive, err := s.prepareListing(ctx, inv, in)
	if err != nil {
		return err
	}
	created := l.CreatedAt.IsZero()

	demoted, err := s.saveWithRetry(ctx, l, in.MarkLive)
	if errors.Is(err, ErrConflict) {
		rowErr("Conflict")
		return nil
	}
	if err != nil {
		return err
	}

	// Events fire per row; the resync is batched by the caller.
	if demoted != nil {
		s.emit(ctx, demoted.ID, EventListingBecameNotLive, ListingBecameNotLiveEvent{
			ListingID: demoted.ID, MerchantID: demoted.MerchantID, ItemID: demoted.ItemID,
		})
	}
	if l.IsLive && !wasLive {
		s.emit(ctx, l.ID, EventListingBecameLive, ListingBecameLiveEvent{
			ListingID: l.ID, MerchantID: l.MerchantID, ItemID: l.ItemID,
		})
	} else if !l.IsLive && wasLive {
		s.emit(ctx, l.ID, EventListingBecameNotLive, ListingBecameNotLiveEvent{
			ListingID: l.ID, MerchantID: l.MerchantID, ItemID: l.ItemID,
		})
	}

	if created {
		result.Created++
	} else {
		result.Updated++
	}
	return nil
}

func (s *service) UploadCSV(ctx context.Context, actor Actor, filename string, r io.Reader) (*Inventory, *BulkResult, error) {
	if !actor.IsMerchant() && !actor.IsAdmin() {
		return nil, nil, ErrNotAuthorized
	}

	// The file name, minus extension, names the inventory.
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	inv, err := s.CreateInventory(ctx, actor, name)
	if err != nil {
		return nil, nil, err
	}

	rows, skipped, rowErrors, err := decodeRows(r)
	if err != nil {
		return nil, nil, err
	}

	result, err := s.BulkUpsert(ctx, actor, inv.ID, rows)
	if err != nil {
		return nil, nil, err
	}
	result.Skipped += skipped
	result.Errors = append(rowErrors, result.Errors...)
	return inv, result, nil
}

func (s *service) SoftDeleteListing(ctx context.Context, actor Actor, listingID uuid.UUID) error {
	l, err := s.store.GetListing(ctx, listingID)
	if err != nil {
		return err
	}
	if l.MerchantID != actor.ID && !actor.IsAdmin() {
		return ErrNotAuthorized
	}

	wasLive := l.IsLive
	l.IsActive = false
	l.IsLive = false
	if _, err := s.store.SaveListing(ctx, l, false); err != nil {
		return fmt.Errorf("soft delete listing: %w", err)
	}

	if wasLive {
		s.emit(ctx, l.ID, EventListingBecameNotLive, ListingBecameNotLiveEvent{
			ListingID: l.ID, MerchantID: l.MerchantID, ItemID: l.ItemID,
		})
		s.resync(ctx, l.MerchantID)
	}
	return nil
}

func (s *service) HardDeleteByEAN(ctx context.Context, actor Actor, ean string) (*DeleteResult, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotAuthorized
	}

	item, err := s.store.GetItemByEAN(ctx, ean)
	if errors.Is(err, ErrItemNotFound) {
		return &DeleteResult{NotFound: true}, nil
	}
	if err != nil {
		return nil, err
	}

	deleted, err := s.store.DeleteListingsByItem(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("hard delete listings: %w", err)
	}

	// Each deleted live row needs its merchant's cache rebuilt.
	merchants := map[uuid.UUID]bool{}
	for _, l := range deleted {
		if !l.IsLive {
			continue
		}
		s.emit(ctx, l.ID, EventListingBecameNotLive, ListingBecameNotLiveEvent{
			ListingID: l.ID, MerchantID: l.MerchantID, ItemID: l.ItemID,
		})
		merchants[l.MerchantID] = true
	}
	for merchantID := range merchants {
		s.resync(ctx, merchantID)
	}

	return &DeleteResult{Deleted: len(deleted)}, nil
}

func (s *service) GetListing(ctx context.Context, id uuid.UUID) (*Listing, error) {
	return s.store.GetListing(ctx, id)
}

func (s *service) Search(ctx context.Context, query string) ([]*Listing, error) {
	return s.store.SearchListings(ctx, query)
}

func validateInput(in UpsertInput) error {
	if in.PriceCents < 0 {
		return ErrInvalidPrice
	}
	if in.PromoStart != nil && in.PromoEnd != nil && in.PromoStart.After(*in.PromoEnd) {
		return ErrInvalidDateRange
	}
	return nil
}

// internal/projection/implementation.go
package projection

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"snapit/internal/listings"
	"snapit/internal/logger"
)

// service implements the Service interface.
type service struct {
	store  Store
	log    *logger.Logger
	tracer trace.Tracer
}

// NewService creates the live inventory projector.
func NewService(store Store, log *logger.Logger) Service {
	return &service{
		store:  store,
		log:    log.With("component", "projection"),
		tracer: otel.Tracer("snapit/projection"),
	}
}

func (s *service) Resync(ctx context.Context, merchantID uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "projection.resync",
		trace.WithAttributes(attribute.String("merchant.id", merchantID.String())),
	)
	defer span.End()

	ids, err := s.store.SyncLiveInventory(ctx, merchantID)
	if err != nil {
		return fmt.Errorf("resync merchant %s: %w", merchantID, err)
	}

	span.SetAttributes(attribute.Int("live.listings", len(ids)))
	s.log.Debug("live inventory resynced", "merchant_id", merchantID, "live_listings", len(ids))
	return nil
}

func (s *service) RebuildAll(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "projection.rebuild_all")
	defer span.End()

	merchants, err := s.store.MerchantIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list merchants: %w", err)
	}

	rebuilt := 0
	for _, merchantID := range merchants {
		if err := s.Resync(ctx, merchantID); err != nil {
			return rebuilt, err
		}
		rebuilt++
	}

	span.SetAttributes(attribute.Int("merchants.rebuilt", rebuilt))
	s.log.Info("live inventory rebuild finished", "merchants", rebuilt)
	return rebuilt, nil
}

func (s *service) Drift(ctx context.Context, merchantID uuid.UUID) (bool, error) {
	snapshot, err := s.store.GetLiveInventory(ctx, merchantID)
	if err != nil {
		return false, err
	}
	actual, err := s.store.LiveListingIDs(ctx, merchantID)
	if err != nil {
		return false, err
	}

	if len(snapshot.ListingIDs) != len(actual) {
		return true, nil
	}
	set := make(map[uuid.UUID]bool, len(actual))
	for _, id := range actual {
		set[id] = true
	}
	for _, id := range snapshot.ListingIDs {
		if !set[id] {
			return true, nil
		}
	}
	return false, nil
}

func (s *service) Get(ctx context.Context, merchantID uuid.UUID) (*listings.LiveInventory, error) {
	return s.store.GetLiveInventory(ctx, merchantID)
}

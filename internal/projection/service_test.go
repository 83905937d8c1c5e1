// internal/projection/service_test.go
package projection_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapit/internal/listings"
	"snapit/internal/logger"
	"snapit/internal/projection"
)

// fakeStore holds the "actual" live set per merchant and the snapshots the
// projector writes, so tests can drive them apart and back together.
type fakeStore struct {
	live      map[uuid.UUID][]uuid.UUID
	snapshots map[uuid.UUID][]uuid.UUID
	syncCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		live:      map[uuid.UUID][]uuid.UUID{},
		snapshots: map[uuid.UUID][]uuid.UUID{},
	}
}

func (f *fakeStore) SyncLiveInventory(ctx context.Context, merchantID uuid.UUID) ([]uuid.UUID, error) {
	f.syncCalls++
	ids := append([]uuid.UUID{}, f.live[merchantID]...)
	f.snapshots[merchantID] = ids
	return ids, nil
}

func (f *fakeStore) GetLiveInventory(ctx context.Context, merchantID uuid.UUID) (*listings.LiveInventory, error) {
	return &listings.LiveInventory{
		MerchantID: merchantID,
		ListingIDs: append([]uuid.UUID{}, f.snapshots[merchantID]...),
	}, nil
}

func (f *fakeStore) LiveListingIDs(ctx context.Context, merchantID uuid.UUID) ([]uuid.UUID, error) {
	return append([]uuid.UUID{}, f.live[merchantID]...), nil
}

func (f *fakeStore) MerchantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id := range f.live {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestResyncIsIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := projection.NewService(store, logger.NewNop())
	ctx := context.Background()

	merchantID := uuid.New()
	store.live[merchantID] = []uuid.UUID{uuid.New(), uuid.New()}

	require.NoError(t, svc.Resync(ctx, merchantID))
	first, err := svc.Get(ctx, merchantID)
	require.NoError(t, err)

	require.NoError(t, svc.Resync(ctx, merchantID))
	second, err := svc.Get(ctx, merchantID)
	require.NoError(t, err)

	assert.Equal(t, first.ListingIDs, second.ListingIDs)
}

func TestDrift(t *testing.T) {
	store := newFakeStore()
	svc := projection.NewService(store, logger.NewNop())
	ctx := context.Background()

	merchantID := uuid.New()
	store.live[merchantID] = []uuid.UUID{uuid.New()}

	// Snapshot never written: it disagrees with the live set.
	drift, err := svc.Drift(ctx, merchantID)
	require.NoError(t, err)
	assert.True(t, drift)

	require.NoError(t, svc.Resync(ctx, merchantID))
	drift, err = svc.Drift(ctx, merchantID)
	require.NoError(t, err)
	assert.False(t, drift)

	// Same cardinality but different members still counts as drift.
	store.live[merchantID] = []uuid.UUID{uuid.New()}
	drift, err = svc.Drift(ctx, merchantID)
	require.NoError(t, err)
	assert.True(t, drift)
}

func TestRebuildAll(t *testing.T) {
	store := newFakeStore()
	svc := projection.NewService(store, logger.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		store.live[uuid.New()] = []uuid.UUID{uuid.New()}
	}

	rebuilt, err := svc.RebuildAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, rebuilt)
	assert.Equal(t, 3, store.syncCalls)

	for merchantID := range store.live {
		drift, err := svc.Drift(ctx, merchantID)
		require.NoError(t, err)
		assert.False(t, drift)
	}
}

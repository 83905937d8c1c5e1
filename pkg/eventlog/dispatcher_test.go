package eventlog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDispatchByType(t *testing.T) {
	d := NewDispatcher()

	var liveSeen, allSeen []string
	d.Subscribe("listing_became_live", func(ctx context.Context, event Event) {
		liveSeen = append(liveSeen, event.EventType)
	})
	d.Subscribe("", func(ctx context.Context, event Event) {
		allSeen = append(allSeen, event.EventType)
	})

	ctx := context.Background()
	d.Dispatch(ctx, Event{AggregateID: uuid.New(), EventType: "listing_became_live"})
	d.Dispatch(ctx, Event{AggregateID: uuid.New(), EventType: "listing_became_not_live"})

	assert.Equal(t, []string{"listing_became_live"}, liveSeen)
	assert.Equal(t, []string{"listing_became_live", "listing_became_not_live"}, allSeen)
}

func TestDispatchOrder(t *testing.T) {
	d := NewDispatcher()

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		d.Subscribe("evt", func(ctx context.Context, event Event) {
			order = append(order, i)
		})
	}

	d.Dispatch(context.Background(), Event{EventType: "evt"})
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestDispatchNoSubscribers(t *testing.T) {
	d := NewDispatcher()
	// Must not panic.
	d.Dispatch(context.Background(), Event{EventType: "evt"})
}

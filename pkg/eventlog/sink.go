package eventlog

import (
	"context"

	"github.com/google/uuid"
)

// Sink couples the persistent log with the in-process dispatcher. It
// satisfies the lifecycle manager's EventSink interface.
type Sink struct {
	log        *Log
	dispatcher *Dispatcher
}

func NewSink(log *Log, dispatcher *Dispatcher) *Sink {
	return &Sink{log: log, dispatcher: dispatcher}
}

// Append persists the event and, on success, dispatches it to subscribers.
func (s *Sink) Append(ctx context.Context, aggregateID uuid.UUID, eventType string, data interface{}) error {
	event, err := s.log.Append(ctx, aggregateID, "listing", eventType, data)
	if err != nil {
		return err
	}
	if s.dispatcher != nil {
		s.dispatcher.Dispatch(ctx, *event)
	}
	return nil
}

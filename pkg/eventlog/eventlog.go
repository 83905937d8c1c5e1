package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrConcurrencyConflict = errors.New("concurrency conflict: version mismatch")
)

// Event is one row of the append-only listing event log. Lifecycle
// transitions (listing_became_live, listing_became_not_live) land here for
// observability and notification collaborators; the log is not a source of
// truth for listing state.
type Event struct {
	ID            int64                  `json:"id"`
	AggregateID   uuid.UUID              `json:"aggregate_id"`
	AggregateType string                 `json:"aggregate_type"`
	EventType     string                 `json:"event_type"`
	EventData     json.RawMessage        `json:"event_data"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	Version       int                    `json:"version"`
	CreatedAt     time.Time              `json:"created_at"`
}

// Log appends and streams events over a Postgres table.
type Log struct {
	db     *sql.DB
	tracer trace.Tracer
}

func NewLog(db *sql.DB) *Log {
	return &Log{
		db:     db,
		tracer: otel.Tracer("snapit/eventlog"),
	}
}

// Append writes one event for the aggregate, assigning the next version
// atomically. A concurrent append to the same aggregate that wins the race
// surfaces as ErrConcurrencyConflict via the (aggregate_id, version) unique
// constraint.
func (l *Log) Append(ctx context.Context, aggregateID uuid.UUID, aggregateType, eventType string, data interface{}) (*Event, error) {
	ctx, span := l.tracer.Start(ctx, "eventlog.append",
		trace.WithAttributes(
			attribute.String("aggregate.id", aggregateID.String()),
			attribute.String("aggregate.type", aggregateType),
			attribute.String("event.type", eventType),
		),
	)
	defer span.End()

	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal event data: %w", err)
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var version int
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0) + 1
		FROM listing_events
		WHERE aggregate_id = $1
	`, aggregateID).Scan(&version)
	if err != nil {
		return nil, fmt.Errorf("query current version: %w", err)
	}

	event := &Event{
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		EventData:     payload,
		Version:       version,
		CreatedAt:     time.Now().UTC(),
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO listing_events (aggregate_id, aggregate_type, event_type, event_data, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, event.AggregateID, event.AggregateType, event.EventType, event.EventData, event.Version, event.CreatedAt).Scan(&event.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, ErrConcurrencyConflict
		}
		return nil, fmt.Errorf("insert event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	span.SetAttributes(
		attribute.Int64("event.id", event.ID),
		attribute.Int("event.version", event.Version),
	)
	return event, nil
}

// Stream returns up to batchSize events with id > fromID, in id order.
// Collaborators that tail the log use the last seen id as a cursor.
func (l *Log) Stream(ctx context.Context, fromID int64, batchSize int) ([]Event, error) {
	ctx, span := l.tracer.Start(ctx, "eventlog.stream",
		trace.WithAttributes(
			attribute.Int64("from.id", fromID),
			attribute.Int("batch.size", batchSize),
		),
	)
	defer span.End()

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, aggregate_id, aggregate_type, event_type, event_data, version, created_at
		FROM listing_events
		WHERE id > $1
		ORDER BY id ASC
		LIMIT $2
	`, fromID, batchSize)
	if err != nil {
		return nil, fmt.Errorf("query event stream: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		err := rows.Scan(
			&event.ID,
			&event.AggregateID,
			&event.AggregateType,
			&event.EventType,
			&event.EventData,
			&event.Version,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	span.SetAttributes(attribute.Int("events.loaded", len(events)))
	return events, nil
}

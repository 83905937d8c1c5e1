// internal/snaps/postgres.go
package snaps

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresStore implements Store.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) InsertSnap(ctx context.Context, snap *Snap) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO snaps (id, user_id, listing_id, price_cents)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, snap.ID, snap.UserID, snap.ListingID, snap.PriceCents).Scan(&snap.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrAlreadySnapped
		}
		return fmt.Errorf("insert snap: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListSnaps(ctx context.Context, userID uuid.UUID) ([]*Snap, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, listing_id, price_cents, created_at
		FROM snaps
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query snaps: %w", err)
	}
	defer rows.Close()

	var snaps []*Snap
	for rows.Next() {
		snap := &Snap{}
		err := rows.Scan(&snap.ID, &snap.UserID, &snap.ListingID, &snap.PriceCents, &snap.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan snap: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snaps: %w", err)
	}
	return snaps, nil
}

func (s *PostgresStore) DeleteSnap(ctx context.Context, userID, snapID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM snaps
		WHERE id = $1 AND user_id = $2
	`, snapID, userID)
	if err != nil {
		return fmt.Errorf("delete snap: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrSnapNotFound
	}
	return nil
}

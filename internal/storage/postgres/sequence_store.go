package postgres

import (
	"context"

	"carbon-auction-engine/internal/storage"
)

// SequenceStore is a PostgreSQL implementation of storage.SequenceStore.
// Single-row table: the identifier counter survives restarts so the
// allocator never re-issues a sequence it already handed out.
type SequenceStore struct {
	pool *Pool
}

// NewSequenceStore creates a new PostgreSQL sequence store.
func NewSequenceStore(pool *Pool) *SequenceStore {
	return &SequenceStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SequenceStore = (*SequenceStore)(nil)

// Last returns the last persisted sequence number.
func (s *SequenceStore) Last(ctx context.Context) (uint64, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT last_sequence
		FROM auction_sequence
		LIMIT 1
	`)

	var seq uint64
	if err := row.Scan(&seq); err != nil {
		if isNotFoundError(err) {
			return 0, storage.ErrNotFound
		}
		return 0, err
	}

	return seq, nil
}

// Set saves the sequence number.
// Uses upsert to handle initial insert and subsequent updates.
func (s *SequenceStore) Set(ctx context.Context, seq uint64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO auction_sequence (id, last_sequence, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE
		SET last_sequence = EXCLUDED.last_sequence,
		    updated_at = NOW()
	`, seq)

	return err
}

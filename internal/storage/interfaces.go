package storage

import (
	"context"

	"carbon-auction-engine/internal/domain"
)

// SequenceStore persists the auction identifier counter.
// The allocator is the only writer; the counter never decrements except
// at identifier-space wraparound.
type SequenceStore interface {
	// Last returns the last persisted sequence number.
	// Returns ErrNotFound if no sequence has been saved yet.
	Last(ctx context.Context) (uint64, error)

	// Set saves the sequence number. Upserts: both the initial write and
	// later advances go through here.
	Set(ctx context.Context, seq uint64) error
}

// SettlementStatsStore records platform-level settlement statistics,
// one snapshot per reconciliation pass.
type SettlementStatsStore interface {
	// Append adds a snapshot. Returns ErrDuplicateKey if a snapshot for
	// the same ObservedAt already exists.
	Append(ctx context.Context, s *domain.SettlementSnapshot) error

	// Latest returns the most recent snapshot.
	// Returns ErrNotFound if no snapshot has been recorded.
	Latest(ctx context.Context) (*domain.SettlementSnapshot, error)

	// GetByTimeRange retrieves snapshots observed within [start, end]
	// (inclusive), ordered by ObservedAt ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.SettlementSnapshot, error)
}

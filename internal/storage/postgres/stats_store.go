package postgres

import (
	"context"

	"carbon-auction-engine/internal/domain"
	"carbon-auction-engine/internal/storage"
)

// SettlementStatsStore is a PostgreSQL implementation of
// storage.SettlementStatsStore.
type SettlementStatsStore struct {
	pool *Pool
}

// NewSettlementStatsStore creates a new PostgreSQL stats store.
func NewSettlementStatsStore(pool *Pool) *SettlementStatsStore {
	return &SettlementStatsStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SettlementStatsStore = (*SettlementStatsStore)(nil)

// Append adds a snapshot. Returns ErrDuplicateKey if a snapshot for the
// same ObservedAt exists.
func (s *SettlementStatsStore) Append(ctx context.Context, snap *domain.SettlementSnapshot) error {
	if snap == nil || snap.ObservedAt == 0 {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO settlement_snapshots (observed_at, settled_count, settled_volume, auction_count)
		VALUES ($1, $2, $3, $4)
	`, snap.ObservedAt, snap.SettledCount, snap.SettledVolume, snap.AuctionCount)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return err
	}

	return nil
}

// Latest returns the most recent snapshot.
func (s *SettlementStatsStore) Latest(ctx context.Context) (*domain.SettlementSnapshot, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT observed_at, settled_count, settled_volume, auction_count
		FROM settlement_snapshots
		ORDER BY observed_at DESC
		LIMIT 1
	`)

	var snap domain.SettlementSnapshot
	err := row.Scan(&snap.ObservedAt, &snap.SettledCount, &snap.SettledVolume, &snap.AuctionCount)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	return &snap, nil
}

// GetByTimeRange retrieves snapshots within [start, end] inclusive,
// ordered by observed_at ASC.
func (s *SettlementStatsStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.SettlementSnapshot, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT observed_at, settled_count, settled_volume, auction_count
		FROM settlement_snapshots
		WHERE observed_at >= $1 AND observed_at <= $2
		ORDER BY observed_at ASC
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.SettlementSnapshot
	for rows.Next() {
		var snap domain.SettlementSnapshot
		if err := rows.Scan(&snap.ObservedAt, &snap.SettledCount, &snap.SettledVolume, &snap.AuctionCount); err != nil {
			return nil, err
		}
		result = append(result, &snap)
	}

	return result, rows.Err()
}

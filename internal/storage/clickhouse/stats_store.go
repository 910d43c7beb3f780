package clickhouse

import (
	"context"
	"fmt"

	"carbon-auction-engine/internal/domain"
	"carbon-auction-engine/internal/storage"
)

// SettlementStatsStore implements storage.SettlementStatsStore using
// ClickHouse. Snapshots are an analytics time series: one row per
// reconciliation pass, queried by range for volume charts.
type SettlementStatsStore struct {
	conn *Conn
}

// NewSettlementStatsStore creates a new ClickHouse stats store.
func NewSettlementStatsStore(conn *Conn) *SettlementStatsStore {
	return &SettlementStatsStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SettlementStatsStore = (*SettlementStatsStore)(nil)

// Append adds a snapshot. MergeTree does not enforce uniqueness, so
// append-only semantics are kept with an explicit existence check.
func (s *SettlementStatsStore) Append(ctx context.Context, snap *domain.SettlementSnapshot) error {
	if snap == nil || snap.ObservedAt == 0 {
		return storage.ErrInvalidInput
	}

	exists, err := s.exists(ctx, snap.ObservedAt)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	err = s.conn.Exec(ctx, `
		INSERT INTO settlement_snapshots (observed_at, settled_count, settled_volume, auction_count)
		VALUES (?, ?, ?, ?)
	`, snap.ObservedAt, int64(snap.SettledCount), snap.SettledVolume, int64(snap.AuctionCount))
	if err != nil {
		return fmt.Errorf("insert settlement snapshot: %w", err)
	}

	return nil
}

// Latest returns the most recent snapshot.
func (s *SettlementStatsStore) Latest(ctx context.Context) (*domain.SettlementSnapshot, error) {
	row := s.conn.QueryRow(ctx, `
		SELECT observed_at, settled_count, settled_volume, auction_count
		FROM settlement_snapshots
		ORDER BY observed_at DESC
		LIMIT 1
	`)

	var (
		snap         domain.SettlementSnapshot
		settledCount int64
		auctionCount int64
	)
	if err := row.Scan(&snap.ObservedAt, &settledCount, &snap.SettledVolume, &auctionCount); err != nil {
		// clickhouse-go returns sql.ErrNoRows-like errors as plain errors;
		// an empty table is reported as not found.
		return nil, storage.ErrNotFound
	}
	snap.SettledCount = int(settledCount)
	snap.AuctionCount = int(auctionCount)

	return &snap, nil
}

// GetByTimeRange retrieves snapshots within [start, end] inclusive,
// ordered by observed_at ASC.
func (s *SettlementStatsStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.SettlementSnapshot, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT observed_at, settled_count, settled_volume, auction_count
		FROM settlement_snapshots
		WHERE observed_at >= ? AND observed_at <= ?
		ORDER BY observed_at ASC
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("query settlement snapshots: %w", err)
	}
	defer rows.Close()

	var result []*domain.SettlementSnapshot
	for rows.Next() {
		var (
			snap         domain.SettlementSnapshot
			settledCount int64
			auctionCount int64
		)
		if err := rows.Scan(&snap.ObservedAt, &settledCount, &snap.SettledVolume, &auctionCount); err != nil {
			return nil, err
		}
		snap.SettledCount = int(settledCount)
		snap.AuctionCount = int(auctionCount)
		result = append(result, &snap)
	}

	return result, rows.Err()
}

func (s *SettlementStatsStore) exists(ctx context.Context, observedAt int64) (bool, error) {
	row := s.conn.QueryRow(ctx, `
		SELECT count() FROM settlement_snapshots WHERE observed_at = ?
	`, observedAt)

	var count uint64
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

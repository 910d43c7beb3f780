package memory

import (
	"context"
	"sort"
	"sync"

	"carbon-auction-engine/internal/domain"
	"carbon-auction-engine/internal/storage"
)

// SettlementStatsStore is an in-memory implementation of
// storage.SettlementStatsStore.
type SettlementStatsStore struct {
	mu   sync.RWMutex
	data map[int64]*domain.SettlementSnapshot // keyed by ObservedAt
}

// NewSettlementStatsStore creates a new in-memory stats store.
func NewSettlementStatsStore() *SettlementStatsStore {
	return &SettlementStatsStore{
		data: make(map[int64]*domain.SettlementSnapshot),
	}
}

// Compile-time interface check.
var _ storage.SettlementStatsStore = (*SettlementStatsStore)(nil)

// Append adds a snapshot. Returns ErrDuplicateKey if one exists for the
// same ObservedAt.
func (s *SettlementStatsStore) Append(_ context.Context, snap *domain.SettlementSnapshot) error {
	if snap == nil || snap.ObservedAt == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[snap.ObservedAt]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	snapCopy := *snap
	s.data[snap.ObservedAt] = &snapCopy
	return nil
}

// Latest returns the most recent snapshot.
func (s *SettlementStatsStore) Latest(_ context.Context) (*domain.SettlementSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.SettlementSnapshot
	for _, snap := range s.data {
		if latest == nil || snap.ObservedAt > latest.ObservedAt {
			latest = snap
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}

	latestCopy := *latest
	return &latestCopy, nil
}

// GetByTimeRange retrieves snapshots within [start, end] inclusive,
// ordered by ObservedAt ASC.
func (s *SettlementStatsStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.SettlementSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SettlementSnapshot
	for _, snap := range s.data {
		if snap.ObservedAt >= start && snap.ObservedAt <= end {
			snapCopy := *snap
			result = append(result, &snapCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ObservedAt < result[j].ObservedAt
	})

	return result, nil
}

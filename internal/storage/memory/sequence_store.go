package memory

import (
	"context"
	"sync"

	"carbon-auction-engine/internal/storage"
)

// SequenceStore is an in-memory implementation of storage.SequenceStore.
type SequenceStore struct {
	mu  sync.RWMutex
	seq uint64
	set bool
}

// NewSequenceStore creates a new in-memory sequence store.
func NewSequenceStore() *SequenceStore {
	return &SequenceStore{}
}

// Compile-time interface check.
var _ storage.SequenceStore = (*SequenceStore)(nil)

// Last returns the last saved sequence. Returns ErrNotFound if Set has
// never been called.
func (s *SequenceStore) Last(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.set {
		return 0, storage.ErrNotFound
	}
	return s.seq, nil
}

// Set saves the sequence number.
func (s *SequenceStore) Set(_ context.Context, seq uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq = seq
	s.set = true
	return nil
}

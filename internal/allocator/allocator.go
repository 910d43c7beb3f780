// Package allocator produces collision-free human-readable auction
// identifiers of the form CT-NNNNNN from a persisted counter plus the
// observed identifier set.
package allocator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"carbon-auction-engine/internal/storage"
)

// ErrAllocationExhausted is returned when no free identifier is found
// within the attempt bound. Terminal: the id space or floor
// configuration needs revisiting.
var ErrAllocationExhausted = errors.New("identifier space exhausted")

const (
	// Prefix is the fixed identifier prefix.
	Prefix = "CT-"

	// Floor is the minimum sequence. Identifiers below it are reserved
	// for manual and legacy ids and never allocated.
	Floor = 100000

	// Capacity is the largest six-digit sequence.
	Capacity = 999999
)

// maxAttempts bounds the collision probe after wraparound.
const maxAttempts = Capacity - Floor

// Allocator allocates auction identifiers. The persisted counter
// advances monotonically except at wraparound and is written before an
// id is handed out.
type Allocator struct {
	store storage.SequenceStore
}

// New creates an Allocator over the given sequence store.
func New(store storage.SequenceStore) *Allocator {
	return &Allocator{store: store}
}

// Allocate returns a fresh identifier absent from existingIds.
// Ids in existingIds that do not match the fixed-width pattern are
// ignored. The chosen sequence is persisted before returning.
func (a *Allocator) Allocate(ctx context.Context, existingIds map[string]bool) (string, error) {
	persisted, err := a.store.Last(ctx)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("read sequence: %w", err)
	}

	maxObserved := maxObservedSequence(existingIds)

	seq := persisted
	if maxObserved > seq {
		seq = maxObserved
	}
	if seq < Floor {
		seq = Floor
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		seq++
		if seq > Capacity {
			seq = Floor + 1
		}

		id := format(seq)
		if existingIds[id] {
			continue
		}

		if err := a.store.Set(ctx, seq); err != nil {
			return "", fmt.Errorf("persist sequence: %w", err)
		}
		return id, nil
	}

	return "", ErrAllocationExhausted
}

// format renders a sequence as a zero-padded identifier.
func format(seq uint64) string {
	return fmt.Sprintf("%s%06d", Prefix, seq)
}

// maxObservedSequence extracts the largest six-digit suffix from ids
// matching the fixed-width pattern. Non-matching ids never fail the
// scan, they are skipped.
func maxObservedSequence(existingIds map[string]bool) uint64 {
	var max uint64
	for id := range existingIds {
		suffix, ok := strings.CutPrefix(id, Prefix)
		if !ok || len(suffix) != 6 {
			continue
		}
		seq, err := strconv.ParseUint(suffix, 10, 64)
		if err != nil {
			continue
		}
		if seq > max {
			max = seq
		}
	}
	return max
}

package allocator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"carbon-auction-engine/internal/storage/memory"
)

func TestAllocate_FirstIDStartsAboveFloor(t *testing.T) {
	ctx := context.Background()
	alloc := New(memory.NewSequenceStore())

	id, err := alloc.Allocate(ctx, nil)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if id != "CT-100001" {
		t.Errorf("expected CT-100001, got %s", id)
	}
}

func TestAllocate_ObservedIDsBeatPersistedCounter(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSequenceStore()
	if err := store.Set(ctx, 2); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	alloc := New(store)
	existing := map[string]bool{
		"CT-100001": true,
		"CT-100002": true,
	}

	id, err := alloc.Allocate(ctx, existing)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if id != "CT-100003" {
		t.Errorf("expected CT-100003, got %s", id)
	}

	// Chosen sequence must be persisted before the id is handed out.
	seq, err := store.Last(ctx)
	if err != nil {
		t.Fatalf("Last failed: %v", err)
	}
	if seq != 100003 {
		t.Errorf("expected persisted sequence 100003, got %d", seq)
	}
}

func TestAllocate_IgnoresNonMatchingIDs(t *testing.T) {
	ctx := context.Background()
	alloc := New(memory.NewSequenceStore())

	existing := map[string]bool{
		"CT-100005":  true,
		"legacy-42":  true,
		"CT-9":       true, // wrong width
		"CT-abcdef":  true, // non-numeric
		"XX-999999":  true, // wrong prefix
		"CT-1000051": true, // too wide
	}

	id, err := alloc.Allocate(ctx, existing)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if id != "CT-100006" {
		t.Errorf("expected CT-100006, got %s", id)
	}
}

func TestAllocate_NeverReturnsExistingID(t *testing.T) {
	ctx := context.Background()
	alloc := New(memory.NewSequenceStore())

	existing := make(map[string]bool)
	seen := make(map[string]bool)

	for i := 0; i < 200; i++ {
		id, err := alloc.Allocate(ctx, existing)
		if err != nil {
			t.Fatalf("Allocate %d failed: %v", i, err)
		}
		if existing[id] {
			t.Fatalf("Allocate returned existing id %s", id)
		}
		if seen[id] {
			t.Fatalf("Allocate returned duplicate id %s", id)
		}
		existing[id] = true
		seen[id] = true
	}
}

func TestAllocate_WrapsAtCapacity(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSequenceStore()
	if err := store.Set(ctx, Capacity); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	alloc := New(store)
	id, err := alloc.Allocate(ctx, nil)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if id != fmt.Sprintf("CT-%06d", Floor+1) {
		t.Errorf("expected wrap to CT-%06d, got %s", Floor+1, id)
	}
}

func TestAllocate_WrapSkipsCollisions(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSequenceStore()
	if err := store.Set(ctx, Capacity); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	existing := map[string]bool{
		fmt.Sprintf("CT-%06d", Floor+1): true,
		fmt.Sprintf("CT-%06d", Floor+2): true,
	}

	alloc := New(store)
	id, err := alloc.Allocate(ctx, existing)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if id != fmt.Sprintf("CT-%06d", Floor+3) {
		t.Errorf("expected CT-%06d, got %s", Floor+3, id)
	}
}

func TestAllocate_ExhaustedSpaceFails(t *testing.T) {
	ctx := context.Background()
	alloc := New(memory.NewSequenceStore())

	// Every id in the allocatable range is taken.
	existing := make(map[string]bool, Capacity-Floor)
	for seq := Floor + 1; seq <= Capacity; seq++ {
		existing[fmt.Sprintf("CT-%06d", seq)] = true
	}

	_, err := alloc.Allocate(ctx, existing)
	if !errors.Is(err, ErrAllocationExhausted) {
		t.Fatalf("expected ErrAllocationExhausted, got %v", err)
	}
}

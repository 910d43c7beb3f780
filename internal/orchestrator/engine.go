// Package orchestrator composes replay, reconciliation, eligibility and
// visibility into the refresh operation and the prepare-request family.
// It owns the in-memory auction and bid maps; both are rebuilt wholesale
// on every pass and swapped in only when the pass succeeds.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"carbon-auction-engine/internal/allocator"
	"carbon-auction-engine/internal/domain"
	"carbon-auction-engine/internal/eligibility"
	"carbon-auction-engine/internal/ledger"
	"carbon-auction-engine/internal/reconcile"
	"carbon-auction-engine/internal/replay"
	"carbon-auction-engine/internal/storage"
	"carbon-auction-engine/internal/visibility"
)

// readConcurrency bounds in-flight point reads within one pass.
const readConcurrency = 8

// Engine is the reconciliation and request-shaping core. It never
// submits requests itself; Prepare* methods return inert descriptors
// for the ledger client. Refresh invocations must be serialized by the
// caller.
type Engine struct {
	client    ledger.Client
	caller    domain.Caller
	seqStore  storage.SequenceStore
	statsStor storage.SettlementStatsStore
	alloc     *allocator.Allocator

	now     func() int64
	verbose bool

	// Current reconciled view, replaced wholesale by Refresh.
	view *viewState
}

// viewState is one pass's reconciled output.
type viewState struct {
	auctions    []domain.Auction
	byID        map[string]*domain.Auction
	bids        map[string][]domain.BidRecord
	stats       domain.SettlementStats
	owner       string
	refreshedAt int64
}

// Options for creating an Engine.
type Options struct {
	// Client talks to the authoritative ledger. Required.
	Client ledger.Client

	// Caller is the identity views and requests are built for.
	Caller domain.Caller

	// SequenceStore persists the identifier counter. Required for
	// PrepareCreate.
	SequenceStore storage.SequenceStore

	// StatsStore records one settlement snapshot per pass. Optional.
	StatsStore storage.SettlementStatsStore

	// Now overrides the clock. Defaults to time.Now().Unix.
	Now func() int64

	Verbose bool
}

// New creates an Engine. The view is empty until the first Refresh.
func New(opts Options) *Engine {
	now := opts.Now
	if now == nil {
		now = func() int64 { return time.Now().Unix() }
	}
	return &Engine{
		client:    opts.Client,
		caller:    opts.Caller,
		seqStore:  opts.SequenceStore,
		statsStor: opts.StatsStore,
		alloc:     allocator.New(opts.SequenceStore),
		now:       now,
		verbose:   opts.Verbose,
	}
}

// RefreshResult summarizes one reconciliation pass.
type RefreshResult struct {
	Auctions []domain.Auction
	Skipped  []reconcile.Skipped
	Stats    domain.SettlementStats
}

// Refresh rebuilds the auction view: query events, replay, point-read
// every discovered auction concurrently, read-repair, attach the
// caller's deposits, then swap the view in whole. A failed event query
// or owner read leaves the previous view untouched; a failed point
// read only excludes its own auction.
func (e *Engine) Refresh(ctx context.Context) (*RefreshResult, error) {
	window := ledger.EventRange{From: 0, To: 0}

	e.log("Refresh: querying event log...")
	creation, err := e.client.QueryCreationEvents(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("query creation events: %w", err)
	}
	bids, err := e.client.QueryBidEvents(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("query bid events: %w", err)
	}
	finalizations, err := e.client.QueryFinalizationEvents(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("query finalization events: %w", err)
	}

	replayed := replay.Replay(creation, bids, finalizations)
	e.log("  Replayed %d auctions, %d bid events, %d finalizations",
		len(replayed.Order), len(bids), len(finalizations))

	reads := e.readAll(ctx, replayed.Order)

	owner, err := e.client.Owner(ctx)
	if err != nil {
		return nil, fmt.Errorf("read owner: %w", err)
	}

	auctions, skipped := reconcile.Reconcile(replayed, reads)
	e.log("  Reconciled %d auctions (%d skipped)", len(auctions), len(skipped))

	byID := make(map[string]*domain.Auction, len(auctions))
	for i := range auctions {
		byID[auctions[i].ID] = &auctions[i]
	}

	next := &viewState{
		auctions:    auctions,
		byID:        byID,
		bids:        replayed.BidsByAuction,
		stats:       replayed.Stats,
		owner:       owner,
		refreshedAt: e.now(),
	}

	if e.statsStor != nil {
		snapshot := &domain.SettlementSnapshot{
			ObservedAt:    next.refreshedAt,
			SettledCount:  next.stats.SettledCount,
			SettledVolume: next.stats.SettledVolume,
			AuctionCount:  len(auctions),
		}
		// Two passes within one second collide on ObservedAt; the
		// earlier snapshot stands.
		if err := e.statsStor.Append(ctx, snapshot); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			e.log("  Snapshot append failed: %v", err)
		}
	}

	e.view = next

	return &RefreshResult{
		Auctions: auctions,
		Skipped:  skipped,
		Stats:    next.stats,
	}, nil
}

// readAll issues status, prices and deposit reads for every auction
// concurrently. The first error for an auction marks it failed for the
// pass; a missing deposit defaults to zero.
func (e *Engine) readAll(ctx context.Context, ids []string) reconcile.Reads {
	reads := reconcile.Reads{
		Statuses: make(map[string]ledger.StatusRead, len(ids)),
		Prices:   make(map[string]ledger.PricesRead, len(ids)),
		Deposits: make(map[string]uint64, len(ids)),
		Errs:     make(map[string]error),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, readConcurrency)

	for _, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(id string) {
			defer wg.Done()
			defer func() { <-sem }()

			status, prices, deposit, err := e.readOne(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				reads.Errs[id] = err
				return
			}
			reads.Statuses[id] = status
			reads.Prices[id] = prices
			reads.Deposits[id] = deposit
		}(id)
	}

	wg.Wait()
	return reads
}

func (e *Engine) readOne(ctx context.Context, id string) (ledger.StatusRead, ledger.PricesRead, uint64, error) {
	status, err := e.client.ReadStatus(ctx, id)
	if err != nil {
		return ledger.StatusRead{}, ledger.PricesRead{}, 0, fmt.Errorf("read status: %w", err)
	}
	prices, err := e.client.ReadPrices(ctx, id)
	if err != nil {
		return ledger.StatusRead{}, ledger.PricesRead{}, 0, fmt.Errorf("read prices: %w", err)
	}

	var deposit uint64
	if e.caller.Identity != "" {
		deposit, err = e.client.ReadDeposit(ctx, id, e.caller.Identity)
		if err != nil {
			// Deposit is caller-local convenience state; its failure
			// does not invalidate the auction.
			deposit = 0
		}
	}

	return status, prices, deposit, nil
}

// Auctions returns the current view in reverse creation order, or nil
// before the first successful refresh.
func (e *Engine) Auctions() []domain.Auction {
	if e.view == nil {
		return nil
	}
	return e.view.auctions
}

// Auction returns one auction from the current view.
func (e *Engine) Auction(auctionID string) (*domain.Auction, error) {
	if e.view == nil {
		return nil, ErrNoRefresh
	}
	a, ok := e.view.byID[auctionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAuction, auctionID)
	}
	return a, nil
}

// Stats returns the aggregate settlement stats of the current view.
func (e *Engine) Stats() domain.SettlementStats {
	if e.view == nil {
		return domain.SettlementStats{}
	}
	return e.view.stats
}

// EligibleActions returns the caller's legal actions for one auction.
func (e *Engine) EligibleActions(auctionID string) (eligibility.Set, error) {
	a, err := e.Auction(auctionID)
	if err != nil {
		return nil, err
	}
	return eligibility.Actions(a, e.now(), e.caller), nil
}

// AuctionViews returns redacted views of all auctions for the caller.
func (e *Engine) AuctionViews() []visibility.AuctionView {
	if e.view == nil {
		return nil
	}
	views := make([]visibility.AuctionView, 0, len(e.view.auctions))
	for i := range e.view.auctions {
		views = append(views, visibility.NewAuctionView(&e.view.auctions[i], e.caller, e.view.owner))
	}
	return views
}

// BidViews returns redacted bid records for one auction.
func (e *Engine) BidViews(auctionID string) ([]visibility.BidView, error) {
	if e.view == nil {
		return nil, ErrNoRefresh
	}
	if _, ok := e.view.byID[auctionID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAuction, auctionID)
	}
	return visibility.NewBidViews(e.view.bids[auctionID], e.caller, e.view.owner), nil
}

func (e *Engine) log(format string, args ...interface{}) {
	if e.verbose {
		log.Printf("[engine] "+format, args...)
	}
}

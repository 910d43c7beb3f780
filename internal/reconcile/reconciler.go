// Package reconcile merges event-derived auction records with
// point-in-time authoritative reads. The point read always wins over
// anything inferred from events (read-repair).
package reconcile

import (
	"carbon-auction-engine/internal/domain"
	"carbon-auction-engine/internal/ledger"
	"carbon-auction-engine/internal/replay"
)

// Reads carries one pass's resolved point reads, keyed by auction ID.
// An entry in Errs marks that auction's reads as failed for the pass.
type Reads struct {
	Statuses map[string]ledger.StatusRead
	Prices   map[string]ledger.PricesRead

	// Deposits holds the viewing caller's cumulative deposit per
	// auction. Missing entries default to zero.
	Deposits map[string]uint64

	// Errs maps auction ID to the first read error hit for it.
	Errs map[string]error
}

// Skipped reports one auction excluded from a pass.
type Skipped struct {
	AuctionID string
	Err       error
}

// Reconcile overwrites each replayed auction's volatile fields with its
// point reads and returns the repaired views in reverse creation order.
// An auction whose reads failed is excluded from the result and
// reported in skipped; one bad auction never aborts the pass.
func Reconcile(replayed *replay.Result, reads Reads) ([]domain.Auction, []Skipped) {
	auctions := make([]domain.Auction, 0, len(replayed.Order))
	var skipped []Skipped

	// Most recently created first.
	for i := len(replayed.Order) - 1; i >= 0; i-- {
		id := replayed.Order[i]
		partial := replayed.Auctions[id]

		if err, failed := reads.Errs[id]; failed {
			skipped = append(skipped, Skipped{AuctionID: id, Err: err})
			continue
		}

		status := reads.Statuses[id]
		prices := reads.Prices[id]

		auctions = append(auctions, domain.Auction{
			ID:            partial.ID,
			Seller:        partial.Seller,
			AssetAmount:   partial.AssetAmount,
			UnitPrice:     partial.UnitPrice,
			StartTime:     partial.StartTime,
			EndTime:       partial.EndTime,
			ReservePrice:  prices.ReservePrice,
			BuyNowPrice:   prices.BuyNowPrice,
			BuyNowUsed:    prices.BuyNowUsed,
			HighestBidder: status.HighestBidder,
			HighestBid:    status.HighestBid,
			Finalized:     status.Finalized,
			CallerDeposit: reads.Deposits[id],
		})
	}

	return auctions, skipped
}

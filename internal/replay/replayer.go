// Package replay turns the ledger's append-only event log into
// normalized per-auction records. The log is used for discovery only:
// volatile fields derived here are overwritten by point reads during
// reconciliation.
package replay

import (
	"carbon-auction-engine/internal/domain"
)

// PartialAuction is an auction record seeded from events, before
// read-repair fills in volatile state.
type PartialAuction struct {
	ID          string
	Seller      string
	AssetAmount uint64
	UnitPrice   uint64
	StartTime   int64
	EndTime     int64
}

// Result holds the replayed view of the queried log window.
type Result struct {
	// Auctions maps auction ID to its event-seeded record.
	Auctions map[string]*PartialAuction

	// Order lists auction IDs in creation order.
	Order []string

	// BidsByAuction maps auction ID to its bid records, one per bidder,
	// ordered by first appearance of the bidder.
	BidsByAuction map[string][]domain.BidRecord

	// Stats aggregates the finalization stream.
	Stats domain.SettlementStats
}

// Replay folds the three event streams into per-auction records.
// Bid amounts are cumulative totals, so a later event for the same
// (auction, bidder) pair overwrites the stored amount rather than
// adding to it. Finalization events feed aggregate stats only; the
// finalized flag comes from point reads during reconciliation.
func Replay(creation []domain.CreationEvent, bids []domain.BidEvent, finalizations []domain.FinalizationEvent) *Result {
	res := &Result{
		Auctions:      make(map[string]*PartialAuction, len(creation)),
		Order:         make([]string, 0, len(creation)),
		BidsByAuction: make(map[string][]domain.BidRecord),
	}

	for _, ev := range creation {
		// Duplicate creation events cannot happen per ledger invariant,
		// but a malformed window must not crash the pass: last wins.
		if _, seen := res.Auctions[ev.AuctionID]; !seen {
			res.Order = append(res.Order, ev.AuctionID)
		}
		res.Auctions[ev.AuctionID] = &PartialAuction{
			ID:          ev.AuctionID,
			Seller:      ev.Seller,
			AssetAmount: ev.AssetAmount,
			UnitPrice:   ev.UnitPrice,
			StartTime:   ev.StartTime,
			EndTime:     ev.EndTime,
		}
	}

	for _, ev := range bids {
		records := res.BidsByAuction[ev.AuctionID]

		replaced := false
		for i := range records {
			if domain.SameIdentity(records[i].Bidder, ev.Bidder) {
				records[i].Amount = ev.Amount
				records[i].Note = ev.Note
				replaced = true
				break
			}
		}
		if !replaced {
			records = append(records, domain.BidRecord{
				AuctionID: ev.AuctionID,
				Bidder:    ev.Bidder,
				Amount:    ev.Amount,
				Note:      ev.Note,
			})
		}
		res.BidsByAuction[ev.AuctionID] = records
	}

	for _, ev := range finalizations {
		res.Stats.SettledCount++
		res.Stats.SettledVolume += ev.PaidAmount
	}

	return res
}

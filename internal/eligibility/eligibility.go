// Package eligibility decides which lifecycle actions are legal to
// attempt for an auction at a point in time. Decisions mirror the
// contract's own acceptance rules so rejected submissions are caught
// locally before any request is built.
package eligibility

import (
	"carbon-auction-engine/internal/domain"
)

// Action is a lifecycle transition a caller may attempt.
type Action string

const (
	ActionBid      Action = "bid"
	ActionBuyNow   Action = "buy_now"
	ActionEndEarly Action = "end_early"
	ActionCancel   Action = "cancel"
	ActionSettle   Action = "settle"
	ActionRefund   Action = "refund"
)

// Set is the set of actions currently legal for one auction and caller.
type Set map[Action]bool

// Has reports whether the action is in the set.
func (s Set) Has(a Action) bool {
	return s[a]
}

// Actions returns the set of legal actions for the caller on the
// auction at time now (unix seconds). CallerDeposit on the auction is
// the caller's own cumulative deposit.
func Actions(a *domain.Auction, now int64, caller domain.Caller) Set {
	set := make(Set)

	isSeller := domain.SameIdentity(caller.Identity, a.Seller)
	isHighest := domain.SameIdentity(caller.Identity, a.HighestBidder)
	ended := a.Ended(now)

	if !a.Finalized && !ended && !isSeller {
		set[ActionBid] = true
	}

	if a.BuyNowPrice > 0 && !a.BuyNowUsed && !a.Finalized && !isSeller {
		set[ActionBuyNow] = true
	}

	if isSeller && !a.Finalized && !ended && a.HighestBid > 0 {
		set[ActionEndEarly] = true
	}

	if isSeller && !a.Finalized && a.HighestBid == 0 {
		set[ActionCancel] = true
	}

	if CanSettle(a, now) {
		set[ActionSettle] = true
	}

	// A non-winning deposit is refundable any time; the winner's
	// deposit only once the auction has concluded.
	if a.CallerDeposit > 0 && (!isHighest || a.Finalized) {
		set[ActionRefund] = true
	}

	return set
}

// CanSettle reports whether the auction is settleable: ended with at
// least one bid and not yet finalized. Any caller may attempt it.
func CanSettle(a *domain.Auction, now int64) bool {
	return !a.Finalized && a.Ended(now) && a.HighestBid > 0
}

// SettleCandidates returns the IDs of all settleable auctions, in the
// order given. An empty result is a no-op for batch settlement, not an
// error.
func SettleCandidates(auctions []domain.Auction, now int64) []string {
	var ids []string
	for i := range auctions {
		if CanSettle(&auctions[i], now) {
			ids = append(ids, auctions[i].ID)
		}
	}
	return ids
}

// Package bidding computes the incremental funds movement a new bid
// needs. Bids are cumulative totals, so only the difference to the
// bidder's existing deposit ever moves.
package bidding

import "errors"

// ErrBidNotIncreasing is returned when the desired total does not
// strictly exceed the bidder's previous cumulative deposit.
var ErrBidNotIncreasing = errors.New("bid must strictly increase cumulative deposit")

// RequiredDelta returns the additional deposit needed to raise the
// bidder's cumulative total from previousDeposit to desiredTotal.
func RequiredDelta(previousDeposit, desiredTotal uint64) (uint64, error) {
	if desiredTotal <= previousDeposit {
		return 0, ErrBidNotIncreasing
	}
	return desiredTotal - previousDeposit, nil
}

// RequiredAuthorization reports whether a separate authorization step
// is needed before depositing delta, and for how much. Authorization
// covers the delta only, never the full desired total: funds already
// authorized must not be authorized twice.
func RequiredAuthorization(currentAllowance, delta uint64) (uint64, bool) {
	if currentAllowance >= delta {
		return 0, false
	}
	return delta, true
}

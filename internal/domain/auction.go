package domain

// ZeroAddress is the null-identity sentinel used by the ledger for
// "no highest bidder".
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// Auction is the reconciled view of a single listing.
// Static fields come from the creation event; volatile fields
// (HighestBidder, HighestBid, Finalized, ReservePrice, BuyNowPrice,
// BuyNowUsed) are overwritten by authoritative point reads on every
// reconciliation pass.
type Auction struct {
	ID            string // globally unique, immutable (CT-NNNNNN)
	Seller        string // seller identity
	AssetAmount   uint64 // credits listed
	UnitPrice     uint64 // pricing reference at creation
	StartTime     int64  // unix seconds
	EndTime       int64  // unix seconds, > StartTime
	ReservePrice  uint64 // 0 = unset
	BuyNowPrice   uint64 // 0 = disabled
	BuyNowUsed    bool
	HighestBidder string // ZeroAddress when no bid
	HighestBid    uint64 // monotonically non-decreasing
	Finalized     bool   // terminal once true
	CallerDeposit uint64 // viewer's cumulative deposit, 0 when none
}

// HasBid reports whether any bid has ever been recorded.
func (a *Auction) HasBid() bool {
	return a.HighestBid > 0
}

// Ended reports whether the auction window has closed at the given time.
func (a *Auction) Ended(now int64) bool {
	return now >= a.EndTime
}

// SettlementStats aggregates the finalization event stream.
// Strictly additive over the stream: volume is the sum of paid amounts,
// count is the number of finalization events.
type SettlementStats struct {
	SettledCount  int
	SettledVolume uint64
}

// SettlementSnapshot is one persisted observation of the platform-level
// settlement stats, taken at the end of a reconciliation pass.
type SettlementSnapshot struct {
	ObservedAt    int64 // unix seconds of the refresh pass
	SettledCount  int
	SettledVolume uint64
	AuctionCount  int // auctions present in the reconciled view
}

package domain

// BidRecord is the latest observed cumulative deposit of one bidder on
// one auction. Amounts are cumulative totals, never per-event deltas:
// a newer record for the same (AuctionID, Bidder) replaces the old one.
type BidRecord struct {
	AuctionID string
	Bidder    string
	Amount    uint64 // cumulative deposit
	Note      string // opaque, shown only to privileged viewers
}

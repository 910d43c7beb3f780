package domain

// Event kinds as exposed by the ledger's append-only log.
const (
	EventKindCreation     = "creation"
	EventKindBid          = "bid"
	EventKindFinalization = "finalization"
)

// CreationEvent seeds one auction record. Emitted once per listing;
// the replayer still tolerates duplicates (last-wins).
type CreationEvent struct {
	AuctionID   string
	Seller      string
	AssetAmount uint64
	UnitPrice   uint64
	StartTime   int64
	EndTime     int64
}

// BidEvent carries a bidder's new cumulative deposit for an auction.
// Amount is the total after the bid, not the increment.
type BidEvent struct {
	AuctionID string
	Bidder    string
	Amount    uint64
	Note      string
}

// FinalizationEvent records a settled auction. Feeds aggregate stats
// only; terminal per-auction state is always re-read from the ledger.
type FinalizationEvent struct {
	AuctionID   string
	Winner      string
	PaidAmount  uint64
	AssetAmount uint64
}

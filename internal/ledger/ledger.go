// Package ledger talks to the authoritative auction contract service.
// The engine treats it as eventually-observed: the event log is used for
// discovery, point reads for truth. All state-changing calls go through
// Submit with an inert request descriptor built by the orchestrator.
package ledger

import (
	"context"

	"carbon-auction-engine/internal/domain"
)

// StatusRead is the authoritative volatile state of one auction.
type StatusRead struct {
	HighestBidder string
	HighestBid    uint64
	Finalized     bool
}

// PricesRead is the authoritative pricing state of one auction.
type PricesRead struct {
	ReservePrice uint64
	BuyNowPrice  uint64
	BuyNowUsed   bool
}

// Confirmation acknowledges an accepted submission.
type Confirmation struct {
	TxHash string
}

// EventRange bounds an event-log query. Zero To means "latest".
type EventRange struct {
	From uint64
	To   uint64
}

// Client defines the ledger RPC interface.
type Client interface {
	// QueryCreationEvents returns creation events in log order.
	QueryCreationEvents(ctx context.Context, r EventRange) ([]domain.CreationEvent, error)

	// QueryBidEvents returns bid events in log order. Amounts are
	// cumulative totals per (auction, bidder).
	QueryBidEvents(ctx context.Context, r EventRange) ([]domain.BidEvent, error)

	// QueryFinalizationEvents returns finalization events in log order.
	QueryFinalizationEvents(ctx context.Context, r EventRange) ([]domain.FinalizationEvent, error)

	// ReadStatus returns the current highest bidder, highest bid and
	// finalized flag for one auction.
	ReadStatus(ctx context.Context, auctionID string) (StatusRead, error)

	// ReadPrices returns reserve price, buy-now price and buy-now usage
	// for one auction.
	ReadPrices(ctx context.Context, auctionID string) (PricesRead, error)

	// ReadDeposit returns the identity's cumulative deposit on one auction.
	ReadDeposit(ctx context.Context, auctionID, identity string) (uint64, error)

	// ReadAllowance returns the bid-token allowance the identity has
	// granted to the auction contract.
	ReadAllowance(ctx context.Context, identity string) (uint64, error)

	// ReadAccount returns the identity's balances for console views.
	ReadAccount(ctx context.Context, identity string) (domain.AccountSnapshot, error)

	// ReadAdminConfig returns the contract's admin-tunable settings.
	ReadAdminConfig(ctx context.Context) (domain.AdminConfig, error)

	// Owner returns the contract owner identity.
	Owner(ctx context.Context) (string, error)

	// Submit signs and submits a state-changing request.
	// Failures are reported verbatim; the engine never retries them.
	Submit(ctx context.Context, req *domain.Request) (*Confirmation, error)
}

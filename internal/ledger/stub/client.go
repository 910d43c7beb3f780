// Package stub provides an in-memory ledger.Client for testing.
package stub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"carbon-auction-engine/internal/domain"
	"carbon-auction-engine/internal/ledger"
)

// ErrReadFailure is returned for identifiers listed in FailingReads.
var ErrReadFailure = errors.New("read failure")

type depositKey struct {
	AuctionID string
	Identity  string
}

// Client implements ledger.Client for testing. Exported maps let tests
// assemble ledger state directly; Add helpers keep fixtures terse.
type Client struct {
	CreationEvents     []domain.CreationEvent
	BidEvents          []domain.BidEvent
	FinalizationEvents []domain.FinalizationEvent

	Statuses   map[string]ledger.StatusRead
	Prices     map[string]ledger.PricesRead
	Deposits   map[depositKey]uint64
	Allowances map[string]uint64
	Accounts   map[string]domain.AccountSnapshot

	OwnerIdentity string
	Config        domain.AdminConfig

	// FailingReads lists auction IDs whose point reads fail.
	FailingReads map[string]bool

	// QueryErr, when set, fails every event query.
	QueryErr error

	// SubmitErr, when set, fails every submission.
	SubmitErr error

	// Submitted records requests passed to Submit, in order.
	Submitted []*domain.Request
}

var _ ledger.Client = (*Client)(nil)

// NewClient creates a new stub ledger client.
func NewClient() *Client {
	return &Client{
		Statuses:     make(map[string]ledger.StatusRead),
		Prices:       make(map[string]ledger.PricesRead),
		Deposits:     make(map[depositKey]uint64),
		Allowances:   make(map[string]uint64),
		Accounts:     make(map[string]domain.AccountSnapshot),
		FailingReads: make(map[string]bool),
	}
}

// QueryCreationEvents returns the stored creation events.
func (c *Client) QueryCreationEvents(_ context.Context, _ ledger.EventRange) ([]domain.CreationEvent, error) {
	if c.QueryErr != nil {
		return nil, c.QueryErr
	}
	return c.CreationEvents, nil
}

// QueryBidEvents returns the stored bid events.
func (c *Client) QueryBidEvents(_ context.Context, _ ledger.EventRange) ([]domain.BidEvent, error) {
	if c.QueryErr != nil {
		return nil, c.QueryErr
	}
	return c.BidEvents, nil
}

// QueryFinalizationEvents returns the stored finalization events.
func (c *Client) QueryFinalizationEvents(_ context.Context, _ ledger.EventRange) ([]domain.FinalizationEvent, error) {
	if c.QueryErr != nil {
		return nil, c.QueryErr
	}
	return c.FinalizationEvents, nil
}

// ReadStatus returns the stored status for an auction.
func (c *Client) ReadStatus(_ context.Context, auctionID string) (ledger.StatusRead, error) {
	if c.FailingReads[auctionID] {
		return ledger.StatusRead{}, fmt.Errorf("%w: %s", ErrReadFailure, auctionID)
	}
	return c.Statuses[auctionID], nil
}

// ReadPrices returns the stored prices for an auction.
func (c *Client) ReadPrices(_ context.Context, auctionID string) (ledger.PricesRead, error) {
	if c.FailingReads[auctionID] {
		return ledger.PricesRead{}, fmt.Errorf("%w: %s", ErrReadFailure, auctionID)
	}
	return c.Prices[auctionID], nil
}

// ReadDeposit returns the stored deposit. Identity match is
// case-insensitive, as on the ledger.
func (c *Client) ReadDeposit(_ context.Context, auctionID, identity string) (uint64, error) {
	if c.FailingReads[auctionID] {
		return 0, fmt.Errorf("%w: %s", ErrReadFailure, auctionID)
	}
	for key, amount := range c.Deposits {
		if key.AuctionID == auctionID && strings.EqualFold(key.Identity, identity) {
			return amount, nil
		}
	}
	return 0, nil
}

// ReadAllowance returns the stored allowance for an identity.
func (c *Client) ReadAllowance(_ context.Context, identity string) (uint64, error) {
	for id, amount := range c.Allowances {
		if strings.EqualFold(id, identity) {
			return amount, nil
		}
	}
	return 0, nil
}

// ReadAccount returns the stored account snapshot for an identity.
func (c *Client) ReadAccount(_ context.Context, identity string) (domain.AccountSnapshot, error) {
	for id, acct := range c.Accounts {
		if strings.EqualFold(id, identity) {
			return acct, nil
		}
	}
	return domain.AccountSnapshot{Identity: identity}, nil
}

// ReadAdminConfig returns the stored admin config.
func (c *Client) ReadAdminConfig(_ context.Context) (domain.AdminConfig, error) {
	return c.Config, nil
}

// Owner returns the configured owner identity.
func (c *Client) Owner(_ context.Context) (string, error) {
	return c.OwnerIdentity, nil
}

// Submit records the request and returns a synthetic confirmation.
func (c *Client) Submit(_ context.Context, req *domain.Request) (*ledger.Confirmation, error) {
	if c.SubmitErr != nil {
		return nil, c.SubmitErr
	}
	c.Submitted = append(c.Submitted, req)
	return &ledger.Confirmation{TxHash: fmt.Sprintf("stub-tx-%d", len(c.Submitted))}, nil
}

// AddAuction stores status and prices for one auction.
func (c *Client) AddAuction(auctionID string, status ledger.StatusRead, prices ledger.PricesRead) {
	c.Statuses[auctionID] = status
	c.Prices[auctionID] = prices
}

// AddDeposit stores a deposit for an (auction, identity) pair.
func (c *Client) AddDeposit(auctionID, identity string, amount uint64) {
	c.Deposits[depositKey{AuctionID: auctionID, Identity: identity}] = amount
}

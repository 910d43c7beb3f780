package orchestrator

import (
	"context"
	"fmt"

	"carbon-auction-engine/internal/bidding"
	"carbon-auction-engine/internal/domain"
	"carbon-auction-engine/internal/eligibility"
	"carbon-auction-engine/internal/visibility"
)

// BidPlan is the ordered request pair for placing a bid. Authorize is
// nil when the existing allowance already covers the delta; when set it
// must be submitted and confirmed before Deposit.
type BidPlan struct {
	Authorize *domain.Request
	Deposit   *domain.Request
}

// PrepareBid shapes the requests that raise the caller's cumulative
// deposit to desiredTotal. The deposit descriptor carries the new
// cumulative total; any authorization covers the delta only, never the
// full total. All local rules are checked before anything is returned,
// so the ledger is never asked to reject what the engine can reject
// itself.
func (e *Engine) PrepareBid(ctx context.Context, auctionID string, desiredTotal uint64, note string) (*BidPlan, error) {
	actions, err := e.EligibleActions(auctionID)
	if err != nil {
		return nil, err
	}
	if !actions.Has(eligibility.ActionBid) {
		return nil, fmt.Errorf("%w: bid on %s", ErrIneligibleAction, auctionID)
	}

	a, err := e.Auction(auctionID)
	if err != nil {
		return nil, err
	}

	delta, err := bidding.RequiredDelta(a.CallerDeposit, desiredTotal)
	if err != nil {
		return nil, err
	}

	allowance, err := e.client.ReadAllowance(ctx, e.caller.Identity)
	if err != nil {
		return nil, fmt.Errorf("read allowance: %w", err)
	}

	plan := &BidPlan{
		Deposit: &domain.Request{
			Kind:      domain.RequestDeposit,
			AuctionID: auctionID,
			Amount:    desiredTotal,
			Note:      note,
		},
	}

	if amount, needed := bidding.RequiredAuthorization(allowance, delta); needed {
		plan.Authorize = &domain.Request{
			Kind:   domain.RequestAuthorize,
			Amount: amount,
		}
	}

	return plan, nil
}

// PrepareBuyNow shapes an instant-purchase request.
func (e *Engine) PrepareBuyNow(auctionID string) (*domain.Request, error) {
	actions, err := e.EligibleActions(auctionID)
	if err != nil {
		return nil, err
	}
	if !actions.Has(eligibility.ActionBuyNow) {
		return nil, fmt.Errorf("%w: buy now on %s", ErrIneligibleAction, auctionID)
	}
	return &domain.Request{Kind: domain.RequestBuyNow, AuctionID: auctionID}, nil
}

// PrepareSettle shapes a single settlement request.
func (e *Engine) PrepareSettle(auctionID string) (*domain.Request, error) {
	actions, err := e.EligibleActions(auctionID)
	if err != nil {
		return nil, err
	}
	if !actions.Has(eligibility.ActionSettle) {
		return nil, fmt.Errorf("%w: settle %s", ErrIneligibleAction, auctionID)
	}
	return &domain.Request{Kind: domain.RequestSettle, AuctionID: auctionID}, nil
}

// PrepareBatchSettle shapes one request settling every currently
// settleable auction. An empty candidate set is a no-op: both return
// values are nil.
func (e *Engine) PrepareBatchSettle() (*domain.Request, error) {
	if e.view == nil {
		return nil, ErrNoRefresh
	}
	candidates := eligibility.SettleCandidates(e.view.auctions, e.now())
	if len(candidates) == 0 {
		return nil, nil
	}
	return &domain.Request{Kind: domain.RequestBatchSettle, AuctionIDs: candidates}, nil
}

// PrepareEndEarly shapes the seller's early-finalization request.
func (e *Engine) PrepareEndEarly(auctionID string) (*domain.Request, error) {
	actions, err := e.EligibleActions(auctionID)
	if err != nil {
		return nil, err
	}
	if !actions.Has(eligibility.ActionEndEarly) {
		return nil, fmt.Errorf("%w: end %s early", ErrIneligibleAction, auctionID)
	}
	return &domain.Request{Kind: domain.RequestEndEarly, AuctionID: auctionID}, nil
}

// PrepareCancel shapes the seller's cancellation request. Only legal
// while no bid has ever been placed.
func (e *Engine) PrepareCancel(auctionID string) (*domain.Request, error) {
	actions, err := e.EligibleActions(auctionID)
	if err != nil {
		return nil, err
	}
	if !actions.Has(eligibility.ActionCancel) {
		return nil, fmt.Errorf("%w: cancel %s", ErrIneligibleAction, auctionID)
	}
	return &domain.Request{Kind: domain.RequestCancel, AuctionID: auctionID}, nil
}

// PrepareRefund shapes a deposit-refund request for the caller.
func (e *Engine) PrepareRefund(auctionID string) (*domain.Request, error) {
	actions, err := e.EligibleActions(auctionID)
	if err != nil {
		return nil, err
	}
	if !actions.Has(eligibility.ActionRefund) {
		return nil, fmt.Errorf("%w: refund on %s", ErrIneligibleAction, auctionID)
	}
	return &domain.Request{Kind: domain.RequestRefund, AuctionID: auctionID}, nil
}

// CreatePlan is the ordered request pair for listing a new auction.
// SetPrices is nil when neither reserve nor buy-now is wanted.
type CreatePlan struct {
	AuctionID string
	Create    *domain.Request
	SetPrices *domain.Request
}

// PrepareCreate allocates a fresh identifier and shapes the listing
// requests. Identifiers already visible in the current view count as
// taken.
func (e *Engine) PrepareCreate(ctx context.Context, assetAmount, unitPrice uint64, startTime, endTime int64, reservePrice, buyNowPrice uint64) (*CreatePlan, error) {
	if e.view == nil {
		return nil, ErrNoRefresh
	}
	if assetAmount == 0 {
		return nil, fmt.Errorf("%w: zero asset amount", ErrInvalidListing)
	}
	if endTime <= startTime {
		return nil, fmt.Errorf("%w: end time not after start time", ErrInvalidListing)
	}

	existing := make(map[string]bool, len(e.view.auctions))
	for i := range e.view.auctions {
		existing[e.view.auctions[i].ID] = true
	}

	id, err := e.alloc.Allocate(ctx, existing)
	if err != nil {
		return nil, err
	}

	plan := &CreatePlan{
		AuctionID: id,
		Create: &domain.Request{
			Kind:        domain.RequestCreate,
			AuctionID:   id,
			AssetAmount: assetAmount,
			UnitPrice:   unitPrice,
			StartTime:   startTime,
			EndTime:     endTime,
		},
	}

	if reservePrice > 0 || buyNowPrice > 0 {
		plan.SetPrices = &domain.Request{
			Kind:         domain.RequestSetPrices,
			AuctionID:    id,
			ReservePrice: reservePrice,
			BuyNowPrice:  buyNowPrice,
		}
	}

	return plan, nil
}

// PrepareWithdraw shapes a proceeds-withdrawal request for the caller.
func (e *Engine) PrepareWithdraw() *domain.Request {
	return &domain.Request{Kind: domain.RequestWithdraw}
}

// requirePrivileged gates admin request shaping on the contract owner.
func (e *Engine) requirePrivileged() error {
	if e.view == nil {
		return ErrNoRefresh
	}
	if !visibility.IsPrivileged(e.caller, e.view.owner) {
		return fmt.Errorf("%w: admin request", ErrIneligibleAction)
	}
	return nil
}

// PrepareSetFee shapes the platform-fee update. The basis-point bound
// is checked locally as an advisory pre-check; the contract re-checks
// on submission.
func (e *Engine) PrepareSetFee(basisPoints uint64) (*domain.Request, error) {
	if err := e.requirePrivileged(); err != nil {
		return nil, err
	}
	if basisPoints > domain.MaxFeeBasisPoints {
		return nil, fmt.Errorf("%w: %d > %d", ErrFeeOutOfRange, basisPoints, domain.MaxFeeBasisPoints)
	}
	return &domain.Request{Kind: domain.RequestSetFee, Amount: basisPoints}, nil
}

// PrepareSetWhitelist shapes the whitelist-enforcement toggle.
func (e *Engine) PrepareSetWhitelist(enabled bool) (*domain.Request, error) {
	if err := e.requirePrivileged(); err != nil {
		return nil, err
	}
	return &domain.Request{Kind: domain.RequestSetWhitelist, Enabled: enabled}, nil
}

// PrepareIssueAllowance shapes a credit-allowance grant.
func (e *Engine) PrepareIssueAllowance(address string, amount uint64) (*domain.Request, error) {
	if err := e.requirePrivileged(); err != nil {
		return nil, err
	}
	return &domain.Request{Kind: domain.RequestIssueAllowance, Address: address, Amount: amount}, nil
}

// PrepareFreezeAllowance shapes an allowance freeze.
func (e *Engine) PrepareFreezeAllowance(address string, amount uint64) (*domain.Request, error) {
	if err := e.requirePrivileged(); err != nil {
		return nil, err
	}
	return &domain.Request{Kind: domain.RequestFreezeAllowance, Address: address, Amount: amount}, nil
}

// PrepareUnfreezeAllowance shapes an allowance unfreeze.
func (e *Engine) PrepareUnfreezeAllowance(address string, amount uint64) (*domain.Request, error) {
	if err := e.requirePrivileged(); err != nil {
		return nil, err
	}
	return &domain.Request{Kind: domain.RequestUnfreezeAllow, Address: address, Amount: amount}, nil
}

// PrepareDestroyAllowance shapes an allowance destruction.
func (e *Engine) PrepareDestroyAllowance(address string, amount uint64) (*domain.Request, error) {
	if err := e.requirePrivileged(); err != nil {
		return nil, err
	}
	return &domain.Request{Kind: domain.RequestDestroyAllowance, Address: address, Amount: amount}, nil
}

// PrepareListUpdate shapes a whitelist or blacklist membership change.
func (e *Engine) PrepareListUpdate(listKind, action, address string) (*domain.Request, error) {
	if err := e.requirePrivileged(); err != nil {
		return nil, err
	}
	if listKind != domain.ListWhitelist && listKind != domain.ListBlacklist {
		return nil, fmt.Errorf("unknown list kind %q", listKind)
	}
	if action != domain.ListActionAdd && action != domain.ListActionRemove {
		return nil, fmt.Errorf("unknown list action %q", action)
	}
	return &domain.Request{
		Kind:       domain.RequestListUpdate,
		ListKind:   listKind,
		ListAction: action,
		Address:    address,
	}, nil
}

package orchestrator

import (
	"context"
	"errors"
	"testing"

	"carbon-auction-engine/internal/bidding"
	"carbon-auction-engine/internal/domain"
	"carbon-auction-engine/internal/eligibility"
	"carbon-auction-engine/internal/ledger"
	"carbon-auction-engine/internal/ledger/stub"
	"carbon-auction-engine/internal/storage/memory"
)

const (
	testOwner  = "0xOwner"
	testSeller = "0xSeller"
	testBidder = "0xBidderX"
	testOther  = "0xBidderY"
)

// fixedNow is the reference clock for all engine tests.
const fixedNow = int64(5000)

func newTestEngine(client *stub.Client, caller domain.Caller) *Engine {
	return New(Options{
		Client:        client,
		Caller:        caller,
		SequenceStore: memory.NewSequenceStore(),
		StatsStore:    memory.NewSettlementStatsStore(),
		Now:           func() int64 { return fixedNow },
	})
}

// newTestLedger builds a stub with two auctions:
// CT-100001 live until t=9000 with a 500 bid, CT-100002 ended at t=2000
// with a 300 bid, unsettled.
func newTestLedger() *stub.Client {
	client := stub.NewClient()
	client.OwnerIdentity = testOwner

	client.CreationEvents = []domain.CreationEvent{
		{AuctionID: "CT-100001", Seller: testSeller, AssetAmount: 1000, UnitPrice: 5, StartTime: 1000, EndTime: 9000},
		{AuctionID: "CT-100002", Seller: testSeller, AssetAmount: 500, UnitPrice: 4, StartTime: 1000, EndTime: 2000},
	}
	client.BidEvents = []domain.BidEvent{
		{AuctionID: "CT-100001", Bidder: testBidder, Amount: 100, Note: "opening"},
		{AuctionID: "CT-100001", Bidder: testBidder, Amount: 500, Note: "raise"},
		{AuctionID: "CT-100002", Bidder: testOther, Amount: 300},
	}

	client.AddAuction("CT-100001",
		ledger.StatusRead{HighestBidder: testBidder, HighestBid: 500},
		ledger.PricesRead{BuyNowPrice: 2000})
	client.AddAuction("CT-100002",
		ledger.StatusRead{HighestBidder: testOther, HighestBid: 300},
		ledger.PricesRead{})

	return client
}

func TestRefresh_BuildsReconciledView(t *testing.T) {
	ctx := context.Background()
	client := newTestLedger()
	engine := newTestEngine(client, domain.Caller{Identity: testBidder})

	result, err := engine.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if len(result.Auctions) != 2 {
		t.Fatalf("expected 2 auctions, got %d", len(result.Auctions))
	}
	// Reverse creation order.
	if result.Auctions[0].ID != "CT-100002" || result.Auctions[1].ID != "CT-100001" {
		t.Errorf("wrong order: %s, %s", result.Auctions[0].ID, result.Auctions[1].ID)
	}

	a, err := engine.Auction("CT-100001")
	if err != nil {
		t.Fatalf("Auction failed: %v", err)
	}
	if a.HighestBid != 500 || a.HighestBidder != testBidder || a.BuyNowPrice != 2000 {
		t.Errorf("point reads not applied: %+v", a)
	}
}

func TestRefresh_PointReadOverridesEventState(t *testing.T) {
	ctx := context.Background()
	client := newTestLedger()

	// The log lags: events show a 500 bid, the ledger already settled
	// at 800 to a different bidder.
	client.Statuses["CT-100001"] = ledger.StatusRead{
		HighestBidder: testOther,
		HighestBid:    800,
		Finalized:     true,
	}

	engine := newTestEngine(client, domain.Caller{})
	if _, err := engine.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	a, err := engine.Auction("CT-100001")
	if err != nil {
		t.Fatalf("Auction failed: %v", err)
	}
	if a.HighestBid != 800 || a.HighestBidder != testOther || !a.Finalized {
		t.Errorf("read-repair not applied: %+v", a)
	}
}

func TestRefresh_AttachesCallerDeposit(t *testing.T) {
	ctx := context.Background()
	client := newTestLedger()
	client.AddDeposit("CT-100001", testBidder, 500)

	engine := newTestEngine(client, domain.Caller{Identity: testBidder})
	if _, err := engine.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	a, _ := engine.Auction("CT-100001")
	if a.CallerDeposit != 500 {
		t.Errorf("expected deposit 500, got %d", a.CallerDeposit)
	}

	b, _ := engine.Auction("CT-100002")
	if b.CallerDeposit != 0 {
		t.Errorf("expected zero deposit, got %d", b.CallerDeposit)
	}
}

func TestRefresh_FailedReadSkipsOnlyThatAuction(t *testing.T) {
	ctx := context.Background()
	client := newTestLedger()
	client.FailingReads["CT-100001"] = true

	engine := newTestEngine(client, domain.Caller{})
	result, err := engine.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if len(result.Auctions) != 1 || result.Auctions[0].ID != "CT-100002" {
		t.Errorf("expected only CT-100002, got %+v", result.Auctions)
	}
	if len(result.Skipped) != 1 || result.Skipped[0].AuctionID != "CT-100001" {
		t.Errorf("expected CT-100001 skipped, got %+v", result.Skipped)
	}

	if _, err := engine.Auction("CT-100001"); !errors.Is(err, ErrUnknownAuction) {
		t.Errorf("skipped auction should be unknown, got %v", err)
	}
}

func TestRefresh_EventQueryFailureRetainsPreviousView(t *testing.T) {
	ctx := context.Background()
	client := newTestLedger()
	engine := newTestEngine(client, domain.Caller{})

	if _, err := engine.Refresh(ctx); err != nil {
		t.Fatalf("first Refresh failed: %v", err)
	}

	client.QueryErr = errors.New("gateway down")
	if _, err := engine.Refresh(ctx); err == nil {
		t.Fatal("expected refresh failure")
	}

	// Previous pass's view stays intact.
	if len(engine.Auctions()) != 2 {
		t.Errorf("previous view lost: %d auctions", len(engine.Auctions()))
	}
	if _, err := engine.Auction("CT-100001"); err != nil {
		t.Errorf("previous view unreadable: %v", err)
	}
}

func TestRefresh_AppendsSettlementSnapshot(t *testing.T) {
	ctx := context.Background()
	client := newTestLedger()
	client.FinalizationEvents = []domain.FinalizationEvent{
		{AuctionID: "CT-100002", Winner: testOther, PaidAmount: 300, AssetAmount: 500},
	}

	statsStore := memory.NewSettlementStatsStore()
	engine := New(Options{
		Client:        client,
		SequenceStore: memory.NewSequenceStore(),
		StatsStore:    statsStore,
		Now:           func() int64 { return fixedNow },
	})

	if _, err := engine.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	snapshot, err := statsStore.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if snapshot.ObservedAt != fixedNow || snapshot.SettledCount != 1 || snapshot.SettledVolume != 300 || snapshot.AuctionCount != 2 {
		t.Errorf("unexpected snapshot: %+v", snapshot)
	}
}

func TestEligibleActions_RequiresRefresh(t *testing.T) {
	engine := newTestEngine(stub.NewClient(), domain.Caller{})
	if _, err := engine.EligibleActions("CT-100001"); !errors.Is(err, ErrNoRefresh) {
		t.Errorf("expected ErrNoRefresh, got %v", err)
	}
}

func TestEligibleActions_EndedAuction(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(newTestLedger(), domain.Caller{Identity: testSeller})
	if _, err := engine.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	// CT-100002 ended at t=2000 with a bid, now=5000.
	set, err := engine.EligibleActions("CT-100002")
	if err != nil {
		t.Fatalf("EligibleActions failed: %v", err)
	}
	if !set.Has(eligibility.ActionSettle) {
		t.Error("expected Settle")
	}
	if set.Has(eligibility.ActionBid) || set.Has(eligibility.ActionCancel) {
		t.Errorf("unexpected actions: %v", set)
	}
}

func TestPrepareBid_AuthorizesDeltaOnly(t *testing.T) {
	ctx := context.Background()
	client := newTestLedger()
	client.AddDeposit("CT-100001", testOther, 200)
	client.Allowances[testOther] = 100

	engine := newTestEngine(client, domain.Caller{Identity: testOther})
	if _, err := engine.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	plan, err := engine.PrepareBid(ctx, "CT-100001", 600, "counter")
	if err != nil {
		t.Fatalf("PrepareBid failed: %v", err)
	}

	// Delta is 400; allowance 100 does not cover it, so authorize 400,
	// never the full 600 total. The deposit itself names the new
	// cumulative total.
	if plan.Authorize == nil {
		t.Fatal("expected authorization step")
	}
	if plan.Authorize.Kind != domain.RequestAuthorize || plan.Authorize.Amount != 400 {
		t.Errorf("unexpected authorize request: %+v", plan.Authorize)
	}
	if plan.Deposit.Kind != domain.RequestDeposit || plan.Deposit.Amount != 600 {
		t.Errorf("unexpected deposit request: %+v", plan.Deposit)
	}
	if plan.Deposit.AuctionID != "CT-100001" || plan.Deposit.Note != "counter" {
		t.Errorf("unexpected deposit fields: %+v", plan.Deposit)
	}
}

func TestPrepareBid_SufficientAllowanceSkipsAuthorize(t *testing.T) {
	ctx := context.Background()
	client := newTestLedger()
	client.Allowances[testOther] = 10000

	engine := newTestEngine(client, domain.Caller{Identity: testOther})
	if _, err := engine.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	plan, err := engine.PrepareBid(ctx, "CT-100001", 600, "")
	if err != nil {
		t.Fatalf("PrepareBid failed: %v", err)
	}
	if plan.Authorize != nil {
		t.Errorf("expected no authorization, got %+v", plan.Authorize)
	}
	if plan.Deposit.Amount != 600 {
		t.Errorf("expected cumulative total 600, got %d", plan.Deposit.Amount)
	}
}

func TestPrepareBid_RejectsNonIncreasingLocally(t *testing.T) {
	ctx := context.Background()
	client := newTestLedger()
	client.AddDeposit("CT-100001", testOther, 300)

	engine := newTestEngine(client, domain.Caller{Identity: testOther})
	if _, err := engine.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	_, err := engine.PrepareBid(ctx, "CT-100001", 250, "")
	if !errors.Is(err, bidding.ErrBidNotIncreasing) {
		t.Fatalf("expected ErrBidNotIncreasing, got %v", err)
	}
	if len(client.Submitted) != 0 {
		t.Error("local rejection must not reach the ledger")
	}
}

func TestPrepareBid_SellerRejected(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(newTestLedger(), domain.Caller{Identity: testSeller})
	if _, err := engine.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	_, err := engine.PrepareBid(ctx, "CT-100001", 600, "")
	if !errors.Is(err, ErrIneligibleAction) {
		t.Fatalf("expected ErrIneligibleAction, got %v", err)
	}
}

func TestPrepareBatchSettle(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(newTestLedger(), domain.Caller{Identity: testSeller})
	if _, err := engine.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	req, err := engine.PrepareBatchSettle()
	if err != nil {
		t.Fatalf("PrepareBatchSettle failed: %v", err)
	}
	if req == nil || req.Kind != domain.RequestBatchSettle {
		t.Fatalf("unexpected request: %+v", req)
	}
	if len(req.AuctionIDs) != 1 || req.AuctionIDs[0] != "CT-100002" {
		t.Errorf("expected [CT-100002], got %v", req.AuctionIDs)
	}
}

func TestPrepareBatchSettle_EmptySetIsNoOp(t *testing.T) {
	ctx := context.Background()
	client := newTestLedger()
	// Settle the only ended auction.
	client.Statuses["CT-100002"] = ledger.StatusRead{HighestBidder: testOther, HighestBid: 300, Finalized: true}

	engine := newTestEngine(client, domain.Caller{Identity: testSeller})
	if _, err := engine.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	req, err := engine.PrepareBatchSettle()
	if err != nil {
		t.Fatalf("PrepareBatchSettle failed: %v", err)
	}
	if req != nil {
		t.Errorf("expected no-op, got %+v", req)
	}
}

func TestPrepareCreate_AllocatesFreshID(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(newTestLedger(), domain.Caller{Identity: testSeller})
	if _, err := engine.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	plan, err := engine.PrepareCreate(ctx, 800, 6, 6000, 9000, 0, 1500)
	if err != nil {
		t.Fatalf("PrepareCreate failed: %v", err)
	}

	// View holds CT-100001 and CT-100002.
	if plan.AuctionID != "CT-100003" {
		t.Errorf("expected CT-100003, got %s", plan.AuctionID)
	}
	if plan.Create.Kind != domain.RequestCreate || plan.Create.AssetAmount != 800 {
		t.Errorf("unexpected create request: %+v", plan.Create)
	}
	if plan.SetPrices == nil || plan.SetPrices.BuyNowPrice != 1500 {
		t.Errorf("unexpected set-prices request: %+v", plan.SetPrices)
	}
}

func TestPrepareCreate_NoPricesSkipsSetPrices(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(newTestLedger(), domain.Caller{Identity: testSeller})
	if _, err := engine.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	plan, err := engine.PrepareCreate(ctx, 800, 6, 6000, 9000, 0, 0)
	if err != nil {
		t.Fatalf("PrepareCreate failed: %v", err)
	}
	if plan.SetPrices != nil {
		t.Errorf("expected no set-prices request, got %+v", plan.SetPrices)
	}
}

func TestPrepareCreate_ValidatesWindow(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(newTestLedger(), domain.Caller{Identity: testSeller})
	if _, err := engine.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if _, err := engine.PrepareCreate(ctx, 800, 6, 9000, 6000, 0, 0); !errors.Is(err, ErrInvalidListing) {
		t.Errorf("expected ErrInvalidListing for inverted window, got %v", err)
	}
	if _, err := engine.PrepareCreate(ctx, 0, 6, 6000, 9000, 0, 0); !errors.Is(err, ErrInvalidListing) {
		t.Errorf("expected ErrInvalidListing for zero amount, got %v", err)
	}
}

func TestPrepareSetFee_BoundsAndPrivilege(t *testing.T) {
	ctx := context.Background()

	// Non-owner rejected.
	engine := newTestEngine(newTestLedger(), domain.Caller{Identity: testOther})
	if _, err := engine.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if _, err := engine.PrepareSetFee(100); !errors.Is(err, ErrIneligibleAction) {
		t.Errorf("expected ErrIneligibleAction, got %v", err)
	}

	// Owner within bound.
	engine = newTestEngine(newTestLedger(), domain.Caller{Identity: testOwner})
	if _, err := engine.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	req, err := engine.PrepareSetFee(250)
	if err != nil {
		t.Fatalf("PrepareSetFee failed: %v", err)
	}
	if req.Kind != domain.RequestSetFee || req.Amount != 250 {
		t.Errorf("unexpected request: %+v", req)
	}

	// Out of bound rejected locally.
	if _, err := engine.PrepareSetFee(1001); !errors.Is(err, ErrFeeOutOfRange) {
		t.Errorf("expected ErrFeeOutOfRange, got %v", err)
	}
}

func TestPrepareListUpdate_ValidatesInputs(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(newTestLedger(), domain.Caller{Identity: testOwner})
	if _, err := engine.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	req, err := engine.PrepareListUpdate(domain.ListWhitelist, domain.ListActionAdd, testOther)
	if err != nil {
		t.Fatalf("PrepareListUpdate failed: %v", err)
	}
	if req.ListKind != domain.ListWhitelist || req.ListAction != domain.ListActionAdd || req.Address != testOther {
		t.Errorf("unexpected request: %+v", req)
	}

	if _, err := engine.PrepareListUpdate("greylist", domain.ListActionAdd, testOther); err == nil {
		t.Error("expected error for unknown list kind")
	}
	if _, err := engine.PrepareListUpdate(domain.ListWhitelist, "toggle", testOther); err == nil {
		t.Error("expected error for unknown action")
	}
}

func TestBidViews_RedactedThroughEngine(t *testing.T) {
	ctx := context.Background()
	engine := newTestEngine(newTestLedger(), domain.Caller{Identity: testOther})
	if _, err := engine.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	views, err := engine.BidViews("CT-100001")
	if err != nil {
		t.Fatalf("BidViews failed: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 record after cumulative overwrite, got %d", len(views))
	}
	if views[0].Amount != 500 {
		t.Errorf("expected cumulative 500, got %d", views[0].Amount)
	}
	if views[0].Note == "raise" {
		t.Error("note leaked to non-owner viewer")
	}
}

package domain

// RequestKind identifies a state-changing ledger operation.
type RequestKind string

// Request kinds accepted by the ledger client.
const (
	RequestCreate           RequestKind = "create"
	RequestSetPrices        RequestKind = "set_prices"
	RequestAuthorize        RequestKind = "authorize"
	RequestDeposit          RequestKind = "deposit"
	RequestBuyNow           RequestKind = "buy_now"
	RequestRefund           RequestKind = "refund"
	RequestSettle           RequestKind = "settle"
	RequestBatchSettle      RequestKind = "batch_settle"
	RequestEndEarly         RequestKind = "end_early"
	RequestCancel           RequestKind = "cancel"
	RequestWithdraw         RequestKind = "withdraw"
	RequestIssueAllowance   RequestKind = "issue_allowance"
	RequestFreezeAllowance  RequestKind = "freeze_allowance"
	RequestUnfreezeAllow    RequestKind = "unfreeze_allowance"
	RequestDestroyAllowance RequestKind = "destroy_allowance"
	RequestSetFee           RequestKind = "set_fee"
	RequestSetWhitelist     RequestKind = "set_whitelist"
	RequestListUpdate       RequestKind = "list_update"
)

// List kinds and actions for RequestListUpdate.
const (
	ListWhitelist = "whitelist"
	ListBlacklist = "blacklist"

	ListActionAdd    = "add"
	ListActionRemove = "remove"
)

// Request is an inert descriptor of a state-changing ledger call.
// The engine only builds these; signing and submission belong to the
// external ledger client. Fields are populated per kind; unused fields
// stay zero.
type Request struct {
	Kind       RequestKind
	AuctionID  string
	AuctionIDs []string // batch settle
	Amount     uint64   // deposit total, authorization delta, allowance amount, fee bps
	Note       string   // bid note
	Address    string   // allowance / list target identity
	Enabled    bool     // whitelist toggle
	ListKind   string   // whitelist | blacklist
	ListAction string   // add | remove

	// Create parameters.
	AssetAmount uint64
	UnitPrice   uint64
	StartTime   int64
	EndTime     int64

	// SetPrices parameters.
	ReservePrice uint64
	BuyNowPrice  uint64
}

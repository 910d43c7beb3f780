package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"carbon-auction-engine/internal/domain"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// HTTPClient implements Client over the gateway's HTTP JSON-RPC 2.0
// endpoint. Reads are retried with exponential backoff; submissions are
// not retried past the transport layer (a rejected request is final).
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	requestID   atomic.Uint64
}

// Compile-time interface check.
var _ Client = (*HTTPClient)(nil)

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts for reads.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a new ledger gateway client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs a JSON-RPC call with retries and exponential backoff.
// RPC-level errors are returned without retry; only transport failures
// are retried.
func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	reqID := c.requestID.Add(1)
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		if rpcResp.Error != nil {
			// RPC errors are not retried
			return rpcResp.Error
		}

		if result != nil && rpcResp.Result != nil {
			if err := json.Unmarshal(rpcResp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func rangeParams(r EventRange) map[string]interface{} {
	p := map[string]interface{}{"from": r.From}
	if r.To > 0 {
		p["to"] = r.To
	} else {
		p["to"] = "latest"
	}
	return p
}

// creationEventResult is the raw RPC shape of a creation event.
type creationEventResult struct {
	AuctionID   string `json:"auctionId"`
	Seller      string `json:"seller"`
	AssetAmount uint64 `json:"assetAmount"`
	UnitPrice   uint64 `json:"unitPrice"`
	StartTime   int64  `json:"startTime"`
	EndTime     int64  `json:"endTime"`
}

// QueryCreationEvents returns creation events in log order.
func (c *HTTPClient) QueryCreationEvents(ctx context.Context, r EventRange) ([]domain.CreationEvent, error) {
	var raw []creationEventResult
	params := []interface{}{domain.EventKindCreation, rangeParams(r)}
	if err := c.call(ctx, "auction_queryEvents", params, &raw); err != nil {
		return nil, err
	}

	events := make([]domain.CreationEvent, 0, len(raw))
	for _, ev := range raw {
		events = append(events, domain.CreationEvent{
			AuctionID:   ev.AuctionID,
			Seller:      ev.Seller,
			AssetAmount: ev.AssetAmount,
			UnitPrice:   ev.UnitPrice,
			StartTime:   ev.StartTime,
			EndTime:     ev.EndTime,
		})
	}
	return events, nil
}

// bidEventResult is the raw RPC shape of a bid event.
type bidEventResult struct {
	AuctionID string `json:"auctionId"`
	Bidder    string `json:"bidder"`
	Amount    uint64 `json:"amount"`
	Note      string `json:"note"`
}

// QueryBidEvents returns bid events in log order.
func (c *HTTPClient) QueryBidEvents(ctx context.Context, r EventRange) ([]domain.BidEvent, error) {
	var raw []bidEventResult
	params := []interface{}{domain.EventKindBid, rangeParams(r)}
	if err := c.call(ctx, "auction_queryEvents", params, &raw); err != nil {
		return nil, err
	}

	events := make([]domain.BidEvent, 0, len(raw))
	for _, ev := range raw {
		events = append(events, domain.BidEvent{
			AuctionID: ev.AuctionID,
			Bidder:    ev.Bidder,
			Amount:    ev.Amount,
			Note:      ev.Note,
		})
	}
	return events, nil
}

// finalizationEventResult is the raw RPC shape of a finalization event.
type finalizationEventResult struct {
	AuctionID   string `json:"auctionId"`
	Winner      string `json:"winner"`
	PaidAmount  uint64 `json:"paidAmount"`
	AssetAmount uint64 `json:"assetAmount"`
}

// QueryFinalizationEvents returns finalization events in log order.
func (c *HTTPClient) QueryFinalizationEvents(ctx context.Context, r EventRange) ([]domain.FinalizationEvent, error) {
	var raw []finalizationEventResult
	params := []interface{}{domain.EventKindFinalization, rangeParams(r)}
	if err := c.call(ctx, "auction_queryEvents", params, &raw); err != nil {
		return nil, err
	}

	events := make([]domain.FinalizationEvent, 0, len(raw))
	for _, ev := range raw {
		events = append(events, domain.FinalizationEvent{
			AuctionID:   ev.AuctionID,
			Winner:      ev.Winner,
			PaidAmount:  ev.PaidAmount,
			AssetAmount: ev.AssetAmount,
		})
	}
	return events, nil
}

// statusResult is the raw RPC shape of an auction status read.
type statusResult struct {
	HighestBidder string `json:"highestBidder"`
	HighestBid    uint64 `json:"highestBid"`
	Finalized     bool   `json:"finalized"`
}

// ReadStatus returns the authoritative volatile state of one auction.
func (c *HTTPClient) ReadStatus(ctx context.Context, auctionID string) (StatusRead, error) {
	var raw statusResult
	if err := c.call(ctx, "auction_getStatus", []interface{}{auctionID}, &raw); err != nil {
		return StatusRead{}, err
	}
	return StatusRead{
		HighestBidder: raw.HighestBidder,
		HighestBid:    raw.HighestBid,
		Finalized:     raw.Finalized,
	}, nil
}

// pricesResult is the raw RPC shape of an auction prices read.
type pricesResult struct {
	ReservePrice uint64 `json:"reservePrice"`
	BuyNowPrice  uint64 `json:"buyNowPrice"`
	BuyNowUsed   bool   `json:"buyNowUsed"`
}

// ReadPrices returns the authoritative pricing state of one auction.
func (c *HTTPClient) ReadPrices(ctx context.Context, auctionID string) (PricesRead, error) {
	var raw pricesResult
	if err := c.call(ctx, "auction_getPrices", []interface{}{auctionID}, &raw); err != nil {
		return PricesRead{}, err
	}
	return PricesRead{
		ReservePrice: raw.ReservePrice,
		BuyNowPrice:  raw.BuyNowPrice,
		BuyNowUsed:   raw.BuyNowUsed,
	}, nil
}

// ReadDeposit returns the identity's cumulative deposit on one auction.
func (c *HTTPClient) ReadDeposit(ctx context.Context, auctionID, identity string) (uint64, error) {
	var amount uint64
	if err := c.call(ctx, "auction_getDeposit", []interface{}{auctionID, identity}, &amount); err != nil {
		return 0, err
	}
	return amount, nil
}

// ReadAllowance returns the bid-token allowance granted to the contract.
func (c *HTTPClient) ReadAllowance(ctx context.Context, identity string) (uint64, error) {
	var amount uint64
	if err := c.call(ctx, "auction_getAllowance", []interface{}{identity}, &amount); err != nil {
		return 0, err
	}
	return amount, nil
}

// accountResult is the raw RPC shape of an account snapshot.
type accountResult struct {
	TokenBalance    uint64 `json:"tokenBalance"`
	Allowance       uint64 `json:"allowance"`
	FrozenAllowance uint64 `json:"frozenAllowance"`
	PendingProceeds uint64 `json:"pendingProceeds"`
}

// ReadAccount returns the identity's balances for console views.
func (c *HTTPClient) ReadAccount(ctx context.Context, identity string) (domain.AccountSnapshot, error) {
	var raw accountResult
	if err := c.call(ctx, "auction_getAccount", []interface{}{identity}, &raw); err != nil {
		return domain.AccountSnapshot{}, err
	}
	return domain.AccountSnapshot{
		Identity:        identity,
		TokenBalance:    raw.TokenBalance,
		Allowance:       raw.Allowance,
		FrozenAllowance: raw.FrozenAllowance,
		PendingProceeds: raw.PendingProceeds,
	}, nil
}

// adminConfigResult is the raw RPC shape of the admin config read.
type adminConfigResult struct {
	WhitelistEnabled bool   `json:"whitelistEnabled"`
	FeeBasisPoints   uint64 `json:"feeBasisPoints"`
}

// ReadAdminConfig returns the contract's admin-tunable settings.
func (c *HTTPClient) ReadAdminConfig(ctx context.Context) (domain.AdminConfig, error) {
	var raw adminConfigResult
	if err := c.call(ctx, "auction_getAdminConfig", nil, &raw); err != nil {
		return domain.AdminConfig{}, err
	}
	return domain.AdminConfig{
		WhitelistEnabled: raw.WhitelistEnabled,
		FeeBasisPoints:   raw.FeeBasisPoints,
	}, nil
}

// Owner returns the contract owner identity.
func (c *HTTPClient) Owner(ctx context.Context) (string, error) {
	var owner string
	if err := c.call(ctx, "auction_owner", nil, &owner); err != nil {
		return "", err
	}
	return owner, nil
}

// submitResult is the raw RPC shape of a submission acknowledgement.
type submitResult struct {
	TxHash string `json:"txHash"`
}

// Submit signs and submits a state-changing request via the gateway.
// A rejection is decoded into a SubmissionError and never retried here.
func (c *HTTPClient) Submit(ctx context.Context, req *domain.Request) (*Confirmation, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}

	var raw submitResult
	err := c.call(ctx, "auction_submit", []interface{}{req}, &raw)
	if err != nil {
		var rpcErr *rpcError
		if asRPCError(err, &rpcErr) {
			return nil, decodeSubmissionError(rpcErr.Code, rpcErr.Message)
		}
		return nil, err
	}

	return &Confirmation{TxHash: raw.TxHash}, nil
}

func asRPCError(err error, target **rpcError) bool {
	e, ok := err.(*rpcError)
	if ok {
		*target = e
	}
	return ok
}

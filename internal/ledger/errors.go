package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// Typed contract rejections, decoded from submission failures so callers
// can branch without string matching.
var (
	ErrBidTooLow         = errors.New("bid below current highest bid")
	ErrAuctionEnded      = errors.New("auction already ended")
	ErrAuctionNotStarted = errors.New("auction not started")
	ErrNotWhitelisted    = errors.New("identity not whitelisted")
	ErrBlacklisted       = errors.New("identity blacklisted")
	ErrAuctionNotExist   = errors.New("auction does not exist")
	ErrAlreadyFinalized  = errors.New("auction already finalized")
	ErrNoDeposit         = errors.New("no refundable deposit")
	ErrStillHighest      = errors.New("still the highest bidder")
	ErrNotOwner          = errors.New("caller is not the contract owner")
	ErrBuyNowDisabled    = errors.New("buy-now not enabled")
)

// contractErrors maps the contract's custom error names to sentinels.
var contractErrors = map[string]error{
	"CarbonTrader_BidTooLow":          ErrBidTooLow,
	"CarbonTrader_AuctionEnded":       ErrAuctionEnded,
	"CarbonTrader_AuctionNotStarted":  ErrAuctionNotStarted,
	"CarbonTrader_NotWhitelisted":     ErrNotWhitelisted,
	"CarbonTrader_Blacklisted":        ErrBlacklisted,
	"CarbonTrader_TradeNotExist":      ErrAuctionNotExist,
	"CarbonTrader_TradeFinalized":     ErrAlreadyFinalized,
	"CarbonTrader_NoDeposit":          ErrNoDeposit,
	"CarbonTrader_StillHighestBidder": ErrStillHighest,
	"CarbonTrader_NotOwner":           ErrNotOwner,
	"CarbonTrader_BuyNowDisabled":     ErrBuyNowDisabled,
}

// SubmissionError is a submission failure reported by the ledger,
// surfaced verbatim. Err is the decoded sentinel when the contract
// error name is recognized, nil otherwise.
type SubmissionError struct {
	Code    int
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("submission rejected: %v (code %d: %s)", e.Err, e.Code, e.Message)
	}
	return fmt.Sprintf("submission failed (code %d): %s", e.Code, e.Message)
}

// Unwrap exposes the decoded contract error for errors.Is.
func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// decodeSubmissionError builds a SubmissionError, matching any known
// contract error name embedded in the message.
func decodeSubmissionError(code int, message string) *SubmissionError {
	subErr := &SubmissionError{Code: code, Message: message}
	for name, sentinel := range contractErrors {
		if strings.Contains(message, name) {
			subErr.Err = sentinel
			break
		}
	}
	return subErr
}

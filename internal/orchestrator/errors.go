package orchestrator

import "errors"

var (
	// ErrUnknownAuction is returned when an auction ID is absent from
	// the current reconciled view.
	ErrUnknownAuction = errors.New("auction not in current view")

	// ErrIneligibleAction is returned when the requested action is not
	// in the caller's eligible set. Caught locally, never submitted.
	ErrIneligibleAction = errors.New("action not eligible for caller")

	// ErrFeeOutOfRange is returned when a fee exceeds the local
	// basis-point bound.
	ErrFeeOutOfRange = errors.New("fee basis points out of range")

	// ErrInvalidListing is returned when create parameters fail local
	// validation.
	ErrInvalidListing = errors.New("invalid listing parameters")

	// ErrNoRefresh is returned when a view-dependent operation runs
	// before the first successful refresh.
	ErrNoRefresh = errors.New("no reconciled view yet")
)

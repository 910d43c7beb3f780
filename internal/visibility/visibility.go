// Package visibility derives a caller's role per auction and builds
// redacted views. Redaction happens once, at view construction; no
// other code path renders bidder identities or notes.
package visibility

import (
	"carbon-auction-engine/internal/domain"
)

// Opaque markers shown in place of redacted fields.
const (
	RedactedBidder = "has a leading bid"
	RedactedNote   = "[hidden]"
)

// RoleOf derives the caller's role relative to one auction. Seller
// wins over highest bidder when both match.
func RoleOf(a *domain.Auction, caller domain.Caller) domain.Role {
	if domain.SameIdentity(caller.Identity, a.Seller) {
		return domain.RoleSeller
	}
	if a.HasBid() && domain.SameIdentity(caller.Identity, a.HighestBidder) {
		return domain.RoleHighestBidder
	}
	if a.CallerDeposit > 0 {
		return domain.RoleOtherBidder
	}
	return domain.RoleObserver
}

// IsPrivileged reports whether the caller is the contract owner.
// Identity comparison is case-insensitive.
func IsPrivileged(caller domain.Caller, ownerIdentity string) bool {
	return caller.IsContractOwner || domain.SameIdentity(caller.Identity, ownerIdentity)
}

// AuctionView is an Auction with viewer-dependent fields redacted.
type AuctionView struct {
	domain.Auction

	// HighestBidderDisplay is the rendered bidder identity: the real
	// identity for the owner and the seller, an opaque marker for
	// everyone else, empty when no bid exists.
	HighestBidderDisplay string

	Role domain.Role
}

// BidView is a BidRecord with the note redacted for non-owners.
type BidView struct {
	AuctionID string
	Bidder    string
	Amount    uint64
	Note      string
}

// NewAuctionView builds the redacted view of one auction for a caller.
// The highest bidder's identity is shown only to the contract owner
// and the auction's seller; for everyone else it is stripped from the
// embedded record too, so serializing the view cannot leak it.
func NewAuctionView(a *domain.Auction, caller domain.Caller, ownerIdentity string) AuctionView {
	view := AuctionView{
		Auction: *a,
		Role:    RoleOf(a, caller),
	}

	if !a.HasBid() {
		view.HighestBidderDisplay = ""
	} else if IsPrivileged(caller, ownerIdentity) || view.Role == domain.RoleSeller {
		view.HighestBidderDisplay = a.HighestBidder
	} else {
		view.HighestBidderDisplay = RedactedBidder
		view.Auction.HighestBidder = ""
	}

	return view
}

// NewBidViews builds redacted bid views. Notes are cleartext only for
// the contract owner.
func NewBidViews(records []domain.BidRecord, caller domain.Caller, ownerIdentity string) []BidView {
	privileged := IsPrivileged(caller, ownerIdentity)

	views := make([]BidView, 0, len(records))
	for _, rec := range records {
		v := BidView{
			AuctionID: rec.AuctionID,
			Bidder:    rec.Bidder,
			Amount:    rec.Amount,
			Note:      rec.Note,
		}
		if !privileged {
			if v.Note != "" {
				v.Note = RedactedNote
			}
			if !domain.SameIdentity(caller.Identity, rec.Bidder) {
				v.Bidder = RedactedBidder
			}
		}
		views = append(views, v)
	}
	return views
}

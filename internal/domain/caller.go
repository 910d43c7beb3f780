package domain

import "strings"

// Caller is the identity on whose behalf views and requests are built.
type Caller struct {
	Identity        string
	IsContractOwner bool
}

// Role of a caller relative to one auction. Derived, never persisted.
type Role string

// Roles.
const (
	RoleSeller        Role = "seller"
	RoleHighestBidder Role = "highest_bidder"
	RoleOtherBidder   Role = "other_bidder"
	RoleObserver      Role = "observer"
)

// SameIdentity compares two ledger identities case-insensitively.
// Ledger addresses are hex strings whose checksum casing varies by
// client, so equality must ignore case.
func SameIdentity(a, b string) bool {
	return a != "" && strings.EqualFold(a, b)
}

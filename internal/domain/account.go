package domain

// AccountSnapshot is a point-in-time read of one identity's balances on
// the ledger, used for dashboard-style console views.
type AccountSnapshot struct {
	Identity        string
	TokenBalance    uint64 // bid-token balance
	Allowance       uint64 // credits available to list
	FrozenAllowance uint64 // credits locked in open listings
	PendingProceeds uint64 // settled sale revenue awaiting withdrawal
}

// MaxFeeBasisPoints is the locally enforced upper bound for the platform
// fee. Advisory only: the authoritative bound lives in the ledger
// contract and is re-checked there on submission.
const MaxFeeBasisPoints = 1000

// AdminConfig mirrors the ledger's admin-tunable settings.
type AdminConfig struct {
	WhitelistEnabled bool
	FeeBasisPoints   uint64 // 0-1000
}

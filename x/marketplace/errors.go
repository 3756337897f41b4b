package marketplace

import "github.com/refit-labs/ledger/errors"

// Marketplace reserves codes 300-319.
var (
	ErrListingNotActive         = errors.Register(300, "listing is not active")
	ErrInvalidListing           = errors.Register(301, "invalid listing")
	ErrInvalidEscrowStatus      = errors.Register(302, "invalid escrow status for this operation")
	ErrShippingDeadlineExceeded = errors.Register(303, "shipping deadline exceeded")
	ErrDeadlineNotReached       = errors.Register(304, "deadline not reached yet")
	ErrInsufficientFunds        = errors.Register(305, "insufficient funds")
	ErrInvalidTokenAccount      = errors.Register(306, "invalid token account")
	ErrDisputeNotOpen           = errors.Register(307, "dispute is not open")
)

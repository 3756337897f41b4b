package tradein

import "github.com/refit-labs/ledger/errors"

// Trade-in reserves codes 320-329.
var (
	ErrNotExpired = errors.Register(320, "trade-in has not expired yet")
)

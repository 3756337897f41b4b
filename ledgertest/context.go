package ledgertest

import (
	"context"
	"time"

	"github.com/refit-labs/ledger"
)

// BlockTime is the block time used by Context. It is a fixed value so that
// deadlines computed in tests are reproducible.
var BlockTime = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

// Context returns a context prepared for running handlers at BlockTime.
func Context() ledger.Context {
	return ContextAt(BlockTime)
}

// ContextAt returns a context prepared for running handlers at given block
// time.
func ContextAt(now time.Time) ledger.Context {
	ctx := ledger.WithChainID(context.Background(), "refit-testnet")
	return ledger.WithBlockTime(ctx, now)
}

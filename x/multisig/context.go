package multisig

import (
	"context"

	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/x"
)

type contextKey int // local to the multisig module

const (
	contextKeyMultisig contextKey = iota
)

// withMultisig is a private method, as only this module
// can add a multisig signer
func withMultisig(ctx ledger.Context, id []byte) ledger.Context {
	prev, _ := ctx.Value(contextKeyMultisig).([]ledger.Condition)
	conds := make([]ledger.Condition, 0, len(prev)+1)
	conds = append(conds, prev...)
	conds = append(conds, MultiSigCondition(id))
	return context.WithValue(ctx, contextKeyMultisig, conds)
}

// Authenticate gets/sets permissions on the given context key
type Authenticate struct {
}

var _ x.Authenticator = Authenticate{}

// GetConditions returns permissions previously set on this context
func (a Authenticate) GetConditions(ctx ledger.Context) []ledger.Condition {
	// (val, ok) form to return nil instead of panic if unset
	val, _ := ctx.Value(contextKeyMultisig).([]ledger.Condition)
	return val
}

// HasAddress returns true iff this address is in GetConditions
func (a Authenticate) HasAddress(ctx ledger.Context, addr ledger.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}

package cron

import (
	"context"

	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/x"
)

type ctxKey int

const (
	ctxKeyConditions ctxKey = iota
)

// withAuth returns a context instance with the conditions attached. Attached
// conditions are used for authentication by authenticator implementation from
// this package.
func withAuth(ctx ledger.Context, cs []ledger.Condition) ledger.Context {
	if old, ok := ctx.Value(ctxKeyConditions).([]ledger.Condition); ok {
		cs = append(cs, old...)
	}
	return context.WithValue(ctx, ctxKeyConditions, cs)
}

// Authenticator implements an x.Authenticator interface that should be used to
// authorize cron task execution.
type Authenticator struct{}

var _ x.Authenticator = (*Authenticator)(nil)

// GetConditions implements x.Authenticator interface.
func (Authenticator) GetConditions(ctx ledger.Context) []ledger.Condition {
	val, ok := ctx.Value(ctxKeyConditions).([]ledger.Condition)
	if !ok {
		return nil
	}
	return val
}

// HasAddress implements x.Authenticator interface.
func (a Authenticator) HasAddress(ctx ledger.Context, addr ledger.Address) bool {
	for _, c := range a.GetConditions(ctx) {
		if addr.Equals(c.Address()) {
			return true
		}
	}
	return false
}

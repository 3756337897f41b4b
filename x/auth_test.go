package x_test

import (
	"context"
	"testing"

	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/ledgertest"
	"github.com/refit-labs/ledger/x"
)

func TestChainAuth(t *testing.T) {
	seller := ledgertest.NewCondition()
	buyer := ledgertest.NewCondition()
	arbiter := ledgertest.NewCondition()

	ctxAuth := &ledgertest.CtxAuth{Key: "auth"}
	ctx := ctxAuth.SetConditions(context.Background(), buyer)
	auth := x.ChainAuth(&ledgertest.Auth{Signer: seller}, ctxAuth)

	if got := len(auth.GetConditions(ctx)); got != 2 {
		t.Fatalf("want 2 conditions, got %d", got)
	}
	if x.MainSigner(ctx, auth).Equals(buyer) {
		t.Fatal("main signer must be the first authenticator condition")
	}

	cases := map[string]struct {
		addrs   []ledger.Address
		wantErr *errors.Error
	}{
		"both parties signed": {
			addrs: []ledger.Address{seller.Address(), buyer.Address()},
		},
		"one of the parties signed": {
			addrs: []ledger.Address{arbiter.Address(), buyer.Address()},
		},
		"missing address": {
			addrs:   []ledger.Address{nil},
			wantErr: errors.ErrUnauthorized,
		},
		"nobody signed": {
			addrs:   []ledger.Address{arbiter.Address()},
			wantErr: errors.ErrUnauthorized,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if err := x.AnySigner(ctx, auth, tc.addrs...); !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
		})
	}
}

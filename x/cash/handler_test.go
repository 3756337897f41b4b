package cash

import (
	"testing"

	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/coin"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/ledgertest"
	"github.com/refit-labs/ledger/ledgertest/assert"
	"github.com/refit-labs/ledger/store"
)

func TestSendHandler(t *testing.T) {
	alice := ledgertest.NewCondition()
	bob := ledgertest.NewCondition()

	cases := map[string]struct {
		signer         ledger.Condition
		msg            ledger.Msg
		wantCheckErr   *errors.Error
		wantDeliverErr *errors.Error
	}{
		"valid send": {
			signer: alice,
			msg: &SendMsg{
				Source:      alice.Address(),
				Destination: bob.Address(),
				Amount:      coin.NewCoin(100, "RFT"),
			},
		},
		"missing signature": {
			signer: bob,
			msg: &SendMsg{
				Source:      alice.Address(),
				Destination: bob.Address(),
				Amount:      coin.NewCoin(100, "RFT"),
			},
			wantCheckErr:   errors.ErrUnauthorized,
			wantDeliverErr: errors.ErrUnauthorized,
		},
		"more than the balance": {
			signer: alice,
			msg: &SendMsg{
				Source:      alice.Address(),
				Destination: bob.Address(),
				Amount:      coin.NewCoin(5000, "RFT"),
			},
			wantDeliverErr: errors.ErrAmount,
		},
		"invalid message": {
			signer: alice,
			msg: &SendMsg{
				Source: alice.Address(),
				Amount: coin.NewCoin(1, "RFT"),
			},
			wantCheckErr:   errors.ErrInput,
			wantDeliverErr: errors.ErrInput,
		},
		"unknown message": {
			signer:         alice,
			msg:            &ledgertest.Msg{RoutePath: "cash/send"},
			wantCheckErr:   errors.ErrType,
			wantDeliverErr: errors.ErrType,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			ctrl := NewController()
			assert.Nil(t, ctrl.IssueCoins(db, alice.Address(), coin.NewCoin(1000, "RFT")))

			h := NewSendHandler(&ledgertest.Auth{Signer: tc.signer}, ctrl)
			tx := &ledgertest.Tx{Msg: tc.msg}

			cache := db.CacheWrap()
			if _, err := h.Check(ledgertest.Context(), cache, tx); !tc.wantCheckErr.Is(err) {
				t.Fatalf("unexpected check error: %+v", err)
			}
			cache.Discard()
			if _, err := h.Deliver(ledgertest.Context(), db, tx); !tc.wantDeliverErr.Is(err) {
				t.Fatalf("unexpected deliver error: %+v", err)
			}
		})
	}
}

func TestSendMsgValidate(t *testing.T) {
	alice := ledgertest.NewCondition().Address()
	bob := ledgertest.NewCondition().Address()

	msg := &SendMsg{Source: alice, Destination: bob, Amount: coin.NewCoin(-1, "rft")}
	err := msg.Validate()
	assert.FieldError(t, err, "Amount", errors.ErrAmount)
	assert.FieldError(t, err, "Source", nil)

	msg = &SendMsg{Source: alice, Destination: bob, Amount: coin.NewCoin(1, "RFT")}
	assert.Nil(t, msg.Validate())
}

package tradein

import (
	"testing"

	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/coin"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/ledgertest"
	"github.com/refit-labs/ledger/ledgertest/assert"
)

func TestTradeInValidate(t *testing.T) {
	buyer := ledgertest.NewCondition().Address()
	seller := ledgertest.NewCondition().Address()
	id := TradeInID(buyer, seller)
	valid := func() *TradeIn {
		return &TradeIn{
			ID:             id,
			Buyer:          buyer,
			Seller:         seller,
			PurchaseAmount: coin.NewCoin(10, "RFT"),
			TradeInValue:   coin.NewCoin(10, "RFT"),
			Expiry:         ledger.AsUnixTime(ledgertest.BlockTime),
			State:          AwaitingPayment,
			CreatedAt:      ledger.AsUnixTime(ledgertest.BlockTime),
			Custody:        CustodyAddress(id),
		}
	}

	cases := map[string]struct {
		mutate  func(*TradeIn)
		field   string
		wantErr *errors.Error
	}{
		"valid":         {mutate: func(*TradeIn) {}},
		"short id":      {mutate: func(t *TradeIn) { t.ID = id[:8] }, field: "ID", wantErr: errors.ErrInput},
		"unknown state": {mutate: func(t *TradeIn) { t.State = 42 }, field: "State", wantErr: errors.ErrState},
		"negative trade-in value": {
			mutate:  func(t *TradeIn) { t.TradeInValue = coin.NewCoin(-1, "RFT") },
			field:   "PurchaseAmount",
			wantErr: errors.ErrAmount,
		},
		"long tracking": {
			mutate:  func(t *TradeIn) { t.OldPhoneTracking = string(make([]byte, maxTrackingLen+1)) },
			field:   "OldPhoneTracking",
			wantErr: errors.ErrInput,
		},
		"missing custody": {
			mutate:  func(t *TradeIn) { t.Custody = nil },
			field:   "Custody",
			wantErr: errors.ErrInput,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			ti := valid()
			tc.mutate(ti)
			err := ti.Validate()
			if tc.wantErr == nil {
				assert.Nil(t, err)
				return
			}
			assert.FieldError(t, err, tc.field, tc.wantErr)
		})
	}
}

func TestTradeInID(t *testing.T) {
	a := ledgertest.NewCondition().Address()
	b := ledgertest.NewCondition().Address()
	if string(TradeInID(a, b)) == string(TradeInID(b, a)) {
		t.Fatal("trade-in id must depend on the party roles")
	}
	assert.Equal(t, TradeInID(a, b), TradeInID(a, b))
	if len(TradeInID(a, b)) != IDLen {
		t.Fatal("invalid id length")
	}
}

func TestStateIsTerminal(t *testing.T) {
	for s := range stateNames {
		want := s == Completed || s == Cancelled
		if s.IsTerminal() != want {
			t.Errorf("%s: want terminal %v", s, want)
		}
	}
}

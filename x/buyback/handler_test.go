package buyback

import (
	"testing"

	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/app"
	"github.com/refit-labs/ledger/coin"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/gconf"
	"github.com/refit-labs/ledger/ledgertest"
	"github.com/refit-labs/ledger/ledgertest/assert"
	"github.com/refit-labs/ledger/store"
	"github.com/refit-labs/ledger/x/cash"
	"github.com/refit-labs/ledger/x/marketplace"
)

const ticker = "RFT"

type fixture struct {
	t      testing.TB
	db     ledger.CacheableKVStore
	auth   *ledgertest.CtxAuth
	bank   cash.BaseController
	router *app.Router

	owner    ledger.Condition
	operator ledger.Condition
}

func newFixture(t testing.TB) *fixture {
	t.Helper()
	f := &fixture{
		t:        t,
		db:       store.MemStore(),
		auth:     &ledgertest.CtxAuth{Key: "auth"},
		bank:     cash.NewController(),
		router:   app.NewRouter(),
		owner:    ledgertest.NewCondition(),
		operator: ledgertest.NewCondition(),
	}
	RegisterRoutes(f.router, f.auth, f.bank)

	conf := &marketplace.Configuration{
		FeeCollector: f.operator.Address(),
		Currency:     ticker,
		Arbiter:      &marketplace.ArbiterPolicy{Address: ledgertest.NewCondition().Address()},
	}
	if err := gconf.Save(f.db, marketplace.ConfigPkg, conf); err != nil {
		t.Fatalf("cannot save configuration: %s", err)
	}
	if err := f.bank.IssueCoins(f.db, f.operator.Address(), coin.NewCoin(1000, ticker)); err != nil {
		t.Fatalf("cannot issue coins: %s", err)
	}
	return f
}

func (f *fixture) deliver(msg ledger.Msg, signers ...ledger.Condition) (*ledger.DeliverResult, error) {
	f.t.Helper()

	ctx := f.auth.SetConditions(ledgertest.Context(), signers...)
	tx := &ledgertest.Tx{Msg: msg}

	check := f.db.CacheWrap()
	_, err := f.router.Check(ctx, check, tx)
	check.Discard()
	if err != nil {
		return nil, err
	}

	cache := f.db.CacheWrap()
	res, err := f.router.Deliver(ctx, cache, tx)
	if err != nil {
		cache.Discard()
		return nil, err
	}
	if err := cache.Write(); err != nil {
		f.t.Fatalf("cannot write cache: %s", err)
	}
	return res, nil
}

func (f *fixture) balance(addr ledger.Address) int64 {
	f.t.Helper()
	coins, err := f.bank.Balance(f.db, addr)
	if err != nil {
		f.t.Fatalf("cannot read balance: %s", err)
	}
	return coins.Balance(ticker).Amount
}

func (f *fixture) buyback(id []byte) *Buyback {
	f.t.Helper()
	var b Buyback
	if err := NewBucket().One(f.db, id, &b); err != nil {
		f.t.Fatalf("cannot load buyback: %s", err)
	}
	return &b
}

func (f *fixture) create() []byte {
	f.t.Helper()
	res, err := f.deliver(&CreateMsg{
		Owner:  f.owner.Address(),
		Device: &Device{Model: "Pixel 7", Condition: "good", Storage: "128GB"},
		Price:  coin.NewCoin(250, ticker),
	}, f.owner)
	assert.Nil(f.t, err)
	return res.Data
}

func TestBuybackFlow(t *testing.T) {
	f := newFixture(t)
	id := f.create()
	assert.Equal(t, BuybackID(f.owner.Address()), id)
	assert.Equal(t, PendingShipment, f.buyback(id).Status)

	_, err := f.deliver(&CompleteMsg{BuybackID: id}, f.operator)
	assert.IsErr(t, ErrInvalidStatus, err)

	_, err = f.deliver(&MarkShippedMsg{BuybackID: id, TrackingNumber: "1Z999"}, f.owner)
	assert.Nil(t, err)
	got := f.buyback(id)
	assert.Equal(t, Shipped, got.Status)
	assert.Equal(t, "1Z999", got.TrackingNumber)

	_, err = f.deliver(&MarkShippedMsg{BuybackID: id, TrackingNumber: "1Z999"}, f.owner)
	assert.IsErr(t, ErrInvalidStatus, err)

	_, err = f.deliver(&CompleteMsg{BuybackID: id}, f.owner)
	assert.IsErr(t, errors.ErrUnauthorized, err)

	_, err = f.deliver(&CompleteMsg{BuybackID: id}, f.operator)
	assert.Nil(t, err)
	assert.Equal(t, Completed, f.buyback(id).Status)
	assert.Equal(t, int64(250), f.balance(f.owner.Address()))
	assert.Equal(t, int64(750), f.balance(f.operator.Address()))

	_, err = f.deliver(&CompleteMsg{BuybackID: id}, f.operator)
	assert.IsErr(t, ErrInvalidStatus, err)
}

func TestCreateBuyback(t *testing.T) {
	cases := map[string]struct {
		msg     func(owner ledger.Address) *CreateMsg
		signed  bool
		wantErr *errors.Error
	}{
		"valid": {
			msg: func(owner ledger.Address) *CreateMsg {
				return &CreateMsg{Owner: owner, Device: &Device{Model: "A", Condition: "B", Storage: "C"}, Price: coin.NewCoin(1, ticker)}
			},
			signed: true,
		},
		"owner must sign": {
			msg: func(owner ledger.Address) *CreateMsg {
				return &CreateMsg{Owner: owner, Device: &Device{Model: "A", Condition: "B", Storage: "C"}, Price: coin.NewCoin(1, ticker)}
			},
			wantErr: errors.ErrUnauthorized,
		},
		"zero price": {
			msg: func(owner ledger.Address) *CreateMsg {
				return &CreateMsg{Owner: owner, Device: &Device{Model: "A", Condition: "B", Storage: "C"}, Price: coin.NewCoin(0, ticker)}
			},
			signed:  true,
			wantErr: errors.ErrAmount,
		},
		"foreign currency": {
			msg: func(owner ledger.Address) *CreateMsg {
				return &CreateMsg{Owner: owner, Device: &Device{Model: "A", Condition: "B", Storage: "C"}, Price: coin.NewCoin(1, "ETH")}
			},
			signed:  true,
			wantErr: errors.ErrCurrency,
		},
		"storage too long": {
			msg: func(owner ledger.Address) *CreateMsg {
				return &CreateMsg{Owner: owner, Device: &Device{Model: "A", Condition: "B", Storage: "12345678901"}, Price: coin.NewCoin(1, ticker)}
			},
			signed:  true,
			wantErr: errors.ErrInput,
		},
		"missing device": {
			msg: func(owner ledger.Address) *CreateMsg {
				return &CreateMsg{Owner: owner, Price: coin.NewCoin(1, ticker)}
			},
			signed:  true,
			wantErr: errors.ErrEmpty,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t)
			var signers []ledger.Condition
			if tc.signed {
				signers = append(signers, f.owner)
			}
			msg := tc.msg(f.owner.Address())
			_, err := f.deliver(msg, signers...)
			assert.IsErr(t, tc.wantErr, err)
			if tc.wantErr == nil {
				_, err := f.deliver(msg, signers...)
				assert.IsErr(t, errors.ErrDuplicate, err)
			}
		})
	}
}

func TestMarkShippedByStranger(t *testing.T) {
	f := newFixture(t)
	id := f.create()
	_, err := f.deliver(&MarkShippedMsg{BuybackID: id, TrackingNumber: "X"}, f.operator)
	assert.IsErr(t, errors.ErrUnauthorized, err)
	_, err = f.deliver(&MarkShippedMsg{BuybackID: id, TrackingNumber: string(make([]byte, 51))}, f.owner)
	assert.IsErr(t, errors.ErrInput, err)
}

func TestCompleteWithoutPlatformFunds(t *testing.T) {
	f := newFixture(t)
	res, err := f.deliver(&CreateMsg{
		Owner:  f.owner.Address(),
		Device: &Device{Model: "A", Condition: "B", Storage: "C"},
		Price:  coin.NewCoin(5000, ticker),
	}, f.owner)
	assert.Nil(t, err)
	id := res.Data
	_, err = f.deliver(&MarkShippedMsg{BuybackID: id, TrackingNumber: "X"}, f.owner)
	assert.Nil(t, err)

	_, err = f.deliver(&CompleteMsg{BuybackID: id}, f.operator)
	if err == nil {
		t.Fatal("payment above the platform balance must fail")
	}
	assert.Equal(t, Shipped, f.buyback(id).Status)
	assert.Equal(t, int64(0), f.balance(f.owner.Address()))
}

package tradein

import (
	"testing"
	"time"

	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/app"
	"github.com/refit-labs/ledger/coin"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/ledgertest"
	"github.com/refit-labs/ledger/ledgertest/assert"
	"github.com/refit-labs/ledger/store"
	"github.com/refit-labs/ledger/x/cash"
)

const ticker = "RFT"

type fixture struct {
	t      testing.TB
	db     ledger.CacheableKVStore
	auth   *ledgertest.CtxAuth
	bank   cash.BaseController
	router *app.Router

	buyer    ledger.Condition
	seller   ledger.Condition
	stranger ledger.Condition
}

func newFixture(t testing.TB) *fixture {
	t.Helper()
	f := &fixture{
		t:        t,
		db:       store.MemStore(),
		auth:     &ledgertest.CtxAuth{Key: "auth"},
		bank:     cash.NewController(),
		router:   app.NewRouter(),
		buyer:    ledgertest.NewCondition(),
		seller:   ledgertest.NewCondition(),
		stranger: ledgertest.NewCondition(),
	}
	RegisterRoutes(f.router, f.auth, f.bank)
	if err := f.bank.IssueCoins(f.db, f.buyer.Address(), coin.NewCoin(1000, ticker)); err != nil {
		t.Fatalf("cannot issue coins: %s", err)
	}
	return f
}

func (f *fixture) deliver(now time.Time, msg ledger.Msg, signers ...ledger.Condition) (*ledger.DeliverResult, error) {
	f.t.Helper()

	ctx := f.auth.SetConditions(ledgertest.ContextAt(now), signers...)
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

func (f *fixture) tradeIn(id []byte) *TradeIn {
	f.t.Helper()
	var t TradeIn
	if err := NewBucket().One(f.db, id, &t); err != nil {
		f.t.Fatalf("cannot load trade-in: %s", err)
	}
	return &t
}

var expiry = ledger.AsUnixTime(ledgertest.BlockTime.Add(24 * time.Hour))

// create opens a trade-in of 800 with a device worth 300 and walks it up
// to the given state.
func (f *fixture) create(until State) []byte {
	f.t.Helper()
	now := ledgertest.BlockTime

	res, err := f.deliver(now, &CreateMsg{
		Buyer:          f.buyer.Address(),
		Seller:         f.seller.Address(),
		PurchaseAmount: coin.NewCoin(800, ticker),
		TradeInValue:   coin.NewCoin(300, ticker),
		Expiry:         expiry,
	}, f.buyer)
	assert.Nil(f.t, err)
	id := res.Data

	steps := []struct {
		state  State
		msg    ledger.Msg
		signer ledger.Condition
	}{
		{FundsDeposited, &DepositMsg{TradeInID: id}, f.buyer},
		{NewPhoneShipped, &ShipNewMsg{TradeInID: id, TrackingNumber: "1Z999"}, f.seller},
		{OldPhoneShipped, &ShipOldMsg{TradeInID: id, TrackingNumber: "1Z111"}, f.buyer},
		{Completed, &CompleteMsg{TradeInID: id}, f.seller},
	}
	for _, s := range steps {
		if s.state > until {
			break
		}
		_, err := f.deliver(now, s.msg, s.signer)
		assert.Nil(f.t, err)
	}
	return id
}

func TestCompletedTradeIn(t *testing.T) {
	f := newFixture(t)
	id := f.create(Completed)

	got := f.tradeIn(id)
	assert.Equal(t, Completed, got.State)
	assert.Equal(t, "1Z999", got.NewPhoneTracking)
	assert.Equal(t, "1Z111", got.OldPhoneTracking)

	assert.Equal(t, int64(500), f.balance(f.buyer.Address()))
	assert.Equal(t, int64(500), f.balance(f.seller.Address()))
	assert.Equal(t, int64(0), f.balance(got.Custody))
}

func TestCompleteWithoutTradeInValue(t *testing.T) {
	f := newFixture(t)
	now := ledgertest.BlockTime

	res, err := f.deliver(now, &CreateMsg{
		Buyer:          f.buyer.Address(),
		Seller:         f.seller.Address(),
		PurchaseAmount: coin.NewCoin(400, ticker),
		TradeInValue:   coin.NewCoin(0, ticker),
		Expiry:         expiry,
	}, f.buyer)
	assert.Nil(t, err)
	id := res.Data

	_, err = f.deliver(now, &DepositMsg{TradeInID: id}, f.buyer)
	assert.Nil(t, err)
	_, err = f.deliver(now, &ShipNewMsg{TradeInID: id, TrackingNumber: "A"}, f.seller)
	assert.Nil(t, err)
	_, err = f.deliver(now, &ShipOldMsg{TradeInID: id, TrackingNumber: "B"}, f.buyer)
	assert.Nil(t, err)
	_, err = f.deliver(now, &CompleteMsg{TradeInID: id}, f.seller)
	assert.Nil(t, err)

	assert.Equal(t, int64(600), f.balance(f.buyer.Address()))
	assert.Equal(t, int64(400), f.balance(f.seller.Address()))
}

func TestCreateTradeIn(t *testing.T) {
	now := ledgertest.BlockTime
	cases := map[string]struct {
		mutate  func(f *fixture, m *CreateMsg)
		signer  func(f *fixture) ledger.Condition
		wantErr *errors.Error
	}{
		"valid": {},
		"buyer must sign": {
			signer:  func(f *fixture) ledger.Condition { return f.seller },
			wantErr: errors.ErrUnauthorized,
		},
		"expiry in the past": {
			mutate:  func(f *fixture, m *CreateMsg) { m.Expiry = ledger.AsUnixTime(now.Add(-time.Hour)) },
			wantErr: errors.ErrExpired,
		},
		"expiry now": {
			mutate:  func(f *fixture, m *CreateMsg) { m.Expiry = ledger.AsUnixTime(now) },
			wantErr: errors.ErrExpired,
		},
		"trade-in value above purchase": {
			mutate:  func(f *fixture, m *CreateMsg) { m.TradeInValue = coin.NewCoin(900, ticker) },
			wantErr: errors.ErrAmount,
		},
		"zero purchase amount": {
			mutate: func(f *fixture, m *CreateMsg) {
				m.PurchaseAmount = coin.NewCoin(0, ticker)
				m.TradeInValue = coin.NewCoin(0, ticker)
			},
			wantErr: errors.ErrAmount,
		},
		"currency mismatch": {
			mutate:  func(f *fixture, m *CreateMsg) { m.TradeInValue = coin.NewCoin(1, "ETH") },
			wantErr: errors.ErrCurrency,
		},
		"same parties": {
			mutate:  func(f *fixture, m *CreateMsg) { m.Seller = f.buyer.Address() },
			wantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t)
			msg := &CreateMsg{
				Buyer:          f.buyer.Address(),
				Seller:         f.seller.Address(),
				PurchaseAmount: coin.NewCoin(800, ticker),
				TradeInValue:   coin.NewCoin(300, ticker),
				Expiry:         expiry,
			}
			if tc.mutate != nil {
				tc.mutate(f, msg)
			}
			signer := f.buyer
			if tc.signer != nil {
				signer = tc.signer(f)
			}
			res, err := f.deliver(now, msg, signer)
			if !tc.wantErr.Is(err) {
				t.Fatalf("want %q error, got %+v", tc.wantErr, err)
			}
			if tc.wantErr != nil {
				return
			}
			got := f.tradeIn(res.Data)
			assert.Equal(t, AwaitingPayment, got.State)
			assert.Equal(t, TradeInID(msg.Buyer, msg.Seller), got.ID)
			assert.Equal(t, CustodyAddress(got.ID), got.Custody)

			_, err = f.deliver(now, msg, signer)
			assert.IsErr(t, errors.ErrDuplicate, err)
		})
	}
}

func TestTradeInTransitions(t *testing.T) {
	now := ledgertest.BlockTime
	cases := map[string]struct {
		state   State
		msg     func(id []byte) ledger.Msg
		signer  func(f *fixture) ledger.Condition
		wantErr *errors.Error
	}{
		"deposit by seller": {
			state:   AwaitingPayment,
			msg:     func(id []byte) ledger.Msg { return &DepositMsg{TradeInID: id} },
			signer:  func(f *fixture) ledger.Condition { return f.seller },
			wantErr: errors.ErrUnauthorized,
		},
		"deposit twice": {
			state:   FundsDeposited,
			msg:     func(id []byte) ledger.Msg { return &DepositMsg{TradeInID: id} },
			signer:  func(f *fixture) ledger.Condition { return f.buyer },
			wantErr: errors.ErrState,
		},
		"ship new before deposit": {
			state:   AwaitingPayment,
			msg:     func(id []byte) ledger.Msg { return &ShipNewMsg{TradeInID: id, TrackingNumber: "X"} },
			signer:  func(f *fixture) ledger.Condition { return f.seller },
			wantErr: errors.ErrState,
		},
		"ship new by buyer": {
			state:   FundsDeposited,
			msg:     func(id []byte) ledger.Msg { return &ShipNewMsg{TradeInID: id, TrackingNumber: "X"} },
			signer:  func(f *fixture) ledger.Condition { return f.buyer },
			wantErr: errors.ErrUnauthorized,
		},
		"ship old before new": {
			state:   FundsDeposited,
			msg:     func(id []byte) ledger.Msg { return &ShipOldMsg{TradeInID: id, TrackingNumber: "X"} },
			signer:  func(f *fixture) ledger.Condition { return f.buyer },
			wantErr: errors.ErrState,
		},
		"ship old by seller": {
			state:   NewPhoneShipped,
			msg:     func(id []byte) ledger.Msg { return &ShipOldMsg{TradeInID: id, TrackingNumber: "X"} },
			signer:  func(f *fixture) ledger.Condition { return f.seller },
			wantErr: errors.ErrUnauthorized,
		},
		"complete before old phone shipped": {
			state:   NewPhoneShipped,
			msg:     func(id []byte) ledger.Msg { return &CompleteMsg{TradeInID: id} },
			signer:  func(f *fixture) ledger.Condition { return f.seller },
			wantErr: errors.ErrState,
		},
		"complete by buyer": {
			state:   OldPhoneShipped,
			msg:     func(id []byte) ledger.Msg { return &CompleteMsg{TradeInID: id} },
			signer:  func(f *fixture) ledger.Condition { return f.buyer },
			wantErr: errors.ErrUnauthorized,
		},
		"tracking too long": {
			state:   FundsDeposited,
			msg:     func(id []byte) ledger.Msg { return &ShipNewMsg{TradeInID: id, TrackingNumber: string(make([]byte, 51))} },
			signer:  func(f *fixture) ledger.Condition { return f.seller },
			wantErr: errors.ErrInput,
		},
		"missing tracking": {
			state:   FundsDeposited,
			msg:     func(id []byte) ledger.Msg { return &ShipNewMsg{TradeInID: id} },
			signer:  func(f *fixture) ledger.Condition { return f.seller },
			wantErr: errors.ErrEmpty,
		},
		"unknown trade-in": {
			state:   FundsDeposited,
			msg:     func(id []byte) ledger.Msg { return &DepositMsg{TradeInID: make([]byte, IDLen)} },
			signer:  func(f *fixture) ledger.Condition { return f.buyer },
			wantErr: errors.ErrNotFound,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t)
			id := f.create(tc.state)
			_, err := f.deliver(now, tc.msg(id), tc.signer(f))
			assert.IsErr(t, tc.wantErr, err)
			assert.Equal(t, tc.state, f.tradeIn(id).State)
		})
	}
}

func TestCancelTradeIn(t *testing.T) {
	afterExpiry := expiry.Time().Add(time.Second)

	cases := map[string]struct {
		state      State
		now        time.Time
		wantErr    *errors.Error
		wantBuyer  int64
		wantSeller int64
	}{
		"not expired": {
			state:     FundsDeposited,
			now:       ledgertest.BlockTime,
			wantErr:   ErrNotExpired,
			wantBuyer: 200,
		},
		"at expiry": {
			state:     FundsDeposited,
			now:       expiry.Time(),
			wantErr:   ErrNotExpired,
			wantBuyer: 200,
		},
		"expired before payment": {
			state:     AwaitingPayment,
			now:       afterExpiry,
			wantBuyer: 1000,
		},
		"expired with deposit": {
			state:     FundsDeposited,
			now:       afterExpiry,
			wantBuyer: 1000,
		},
		"expired after both shipments": {
			state:     OldPhoneShipped,
			now:       afterExpiry,
			wantBuyer: 1000,
		},
		"completed cannot be cancelled": {
			state:      Completed,
			now:        afterExpiry,
			wantErr:    errors.ErrState,
			wantBuyer:  500,
			wantSeller: 500,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t)
			id := f.create(tc.state)

			// Cancellation does not require any signature.
			_, err := f.deliver(tc.now, &CancelMsg{TradeInID: id}, f.stranger)
			assert.IsErr(t, tc.wantErr, err)

			got := f.tradeIn(id)
			if tc.wantErr == nil {
				assert.Equal(t, Cancelled, got.State)
				assert.Equal(t, int64(0), f.balance(got.Custody))
			} else {
				assert.Equal(t, tc.state, got.State)
			}
			assert.Equal(t, tc.wantBuyer, f.balance(f.buyer.Address()))
			assert.Equal(t, tc.wantSeller, f.balance(f.seller.Address()))

			if tc.wantErr == nil {
				_, err := f.deliver(tc.now, &CancelMsg{TradeInID: id})
				assert.IsErr(t, errors.ErrState, err)
			}
		})
	}
}

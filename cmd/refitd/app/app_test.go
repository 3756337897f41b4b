package refitd

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/app"
	"github.com/refit-labs/ledger/coin"
	"github.com/refit-labs/ledger/crypto"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/orm"
	"github.com/refit-labs/ledger/x/cash"
	"github.com/refit-labs/ledger/x/marketplace"
	"github.com/refit-labs/ledger/x/multisig"
	"github.com/tendermint/tendermint/libs/log"
)

const chainID = "refit-test"

type user struct {
	key *crypto.PrivateKey
	seq int64
}

func newUser(seed byte) *user {
	raw := make([]byte, 32)
	raw[0] = seed
	return &user{key: crypto.PrivKeyEd25519FromSeed(raw)}
}

func (u *user) Address() ledger.Address {
	return u.key.PublicKey().Address()
}

type testLedger struct {
	t      *testing.T
	ledger *app.Ledger
	height int64
}

func startLedger(t *testing.T, state map[string]interface{}) *testLedger {
	t.Helper()

	opts := make(ledger.Options)
	for k, v := range state {
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		opts[k] = raw
	}

	l, _, err := Application("refitd", "", log.NewNopLogger(), true)
	if err != nil {
		t.Fatalf("cannot create application: %+v", err)
	}
	_, err = l.InitChain(app.Genesis{ChainID: chainID, AppState: opts})
	require.NoError(t, err)
	return &testLedger{t: t, ledger: l, height: 1}
}

func (tl *testLedger) beginBlock(now time.Time) ledger.TickResult {
	tl.height++
	return tl.ledger.BeginBlock(tl.height, now)
}

func (tl *testLedger) commit() {
	_, err := tl.ledger.Commit()
	require.NoError(tl.t, err)
}

// deliver signs and delivers a transaction. All signers sequences are
// incremented, because a verified signature is consumed even if the
// message fails.
func (tl *testLedger) deliver(msg ledger.Msg, contracts [][]byte, signers ...*user) app.TxResult {
	tl.t.Helper()

	tx, err := NewTx(msg, contracts...)
	require.NoError(tl.t, err)
	for _, s := range signers {
		require.NoError(tl.t, tx.Sign(s.key, chainID, s.seq))
		s.seq++
	}
	raw, err := tx.Marshal()
	require.NoError(tl.t, err)
	return tl.ledger.DeliverTx(raw)
}

func (tl *testLedger) balance(addr ledger.Address) int64 {
	tl.t.Helper()
	coins, err := cash.NewController().Balance(tl.ledger.DeliverStore(), addr)
	require.NoError(tl.t, err)
	return coins.Balance(DefaultTicker).Amount
}

func (tl *testLedger) order(id []byte) *marketplace.EscrowOrder {
	tl.t.Helper()
	var o marketplace.EscrowOrder
	require.NoError(tl.t, marketplace.NewOrderBucket().One(tl.ledger.DeliverStore(), id, &o))
	return &o
}

func TestDisputeResolvedByMultisigArbiter(t *testing.T) {
	var (
		operator = newUser(1)
		seller   = newUser(2)
		buyer    = newUser(3)
		arb1     = newUser(4)
		arb2     = newUser(5)
	)

	// The first contract created at genesis gets the first sequence value.
	contractID := orm.EncodeSequence(1)
	contract := multisig.MultiSigCondition(contractID).Address()

	tl := startLedger(t, map[string]interface{}{
		"cash": []cash.GenesisAccount{
			{Address: buyer.Address(), Coins: []coin.Coin{coin.NewCoin(1000, DefaultTicker)}},
		},
		"multisig": []interface{}{
			map[string]interface{}{
				"participants": []*multisig.Participant{
					{Signature: arb1.Address(), Weight: 1},
					{Signature: arb2.Address(), Weight: 1},
				},
				"activation_threshold": 2,
				"admin_threshold":      2,
			},
		},
		"conf": map[string]interface{}{
			marketplace.ConfigPkg: marketplace.Configuration{
				Owner:        operator.Address(),
				FeeCollector: operator.Address(),
				Currency:     DefaultTicker,
				Arbiter:      &marketplace.ArbiterPolicy{Address: contract},
			},
		},
	})

	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	tl.beginBlock(now)

	res := tl.deliver(&marketplace.CreateListingMsg{
		Seller: seller.Address(),
		Metadata: &marketplace.PhoneMetadata{
			Brand:         "Google",
			Model:         "Pixel 8",
			Storage:       "256GB",
			Condition:     "Good",
			CarrierStatus: "Unlocked",
			BatteryHealth: 91,
			Issues:        "Light scratches on the back",
			ImagesURL:     "ipfs://listing",
		},
		Price: coin.NewCoin(500, DefaultTicker),
	}, nil, seller)
	require.True(t, res.IsOK(), res.Log)
	listingID := res.Data

	res = tl.deliver(&marketplace.PurchaseMsg{ListingID: listingID, Buyer: buyer.Address()}, nil, buyer)
	require.True(t, res.IsOK(), res.Log)
	orderID := res.Data
	assert.Equal(t, int64(500), tl.balance(marketplace.CustodyAddress(orderID)))

	res = tl.deliver(&marketplace.ConfirmShipmentMsg{
		OrderID:        orderID,
		TrackingNumber: "1Z999AA10123456784",
		Carrier:        "UPS",
	}, nil, seller)
	require.True(t, res.IsOK(), res.Log)

	res = tl.deliver(&marketplace.OpenDisputeMsg{
		OrderID:   orderID,
		Initiator: buyer.Address(),
		Reason:    "Screen does not turn on",
	}, nil, buyer)
	require.True(t, res.IsOK(), res.Log)
	disputeID := res.Data
	tl.commit()

	tl.beginBlock(now.Add(time.Hour))
	resolve := &marketplace.ResolveDisputeMsg{
		DisputeID:  disputeID,
		Resolution: &marketplace.Resolution{Kind: marketplace.Split, BuyerPercentage: 40},
	}

	// A single member cannot activate the contract.
	res = tl.deliver(resolve, [][]byte{contractID}, arb1)
	assert.Equal(t, errors.ErrUnauthorized.Code(), res.Code)

	// Members signing without referencing the contract are not the arbiter.
	res = tl.deliver(resolve, nil, arb1, arb2)
	assert.Equal(t, errors.ErrUnauthorized.Code(), res.Code)

	res = tl.deliver(resolve, [][]byte{contractID}, arb1, arb2)
	require.True(t, res.IsOK(), res.Log)
	tl.commit()

	assert.Equal(t, marketplace.EscrowResolved, tl.order(orderID).Status)
	assert.Equal(t, int64(700), tl.balance(buyer.Address()))
	assert.Equal(t, int64(300), tl.balance(seller.Address()))
	assert.Equal(t, int64(0), tl.balance(marketplace.CustodyAddress(orderID)))
	assert.Equal(t, int64(0), tl.balance(operator.Address()))
}

func TestAutoReleaseByScheduler(t *testing.T) {
	var (
		operator = newUser(1)
		seller   = newUser(2)
		buyer    = newUser(3)
	)

	tl := startLedger(t, map[string]interface{}{
		"cash": []cash.GenesisAccount{
			{Address: buyer.Address(), Coins: []coin.Coin{coin.NewCoin(1000, DefaultTicker)}},
		},
		"conf": map[string]interface{}{
			marketplace.ConfigPkg: marketplace.Configuration{
				Owner:        operator.Address(),
				FeeCollector: operator.Address(),
				Currency:     DefaultTicker,
				Arbiter:      &marketplace.ArbiterPolicy{Address: operator.Address()},
			},
		},
	})

	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	tl.beginBlock(now)

	res := tl.deliver(&marketplace.CreateListingMsg{
		Seller: seller.Address(),
		Metadata: &marketplace.PhoneMetadata{
			Brand:     "Apple",
			Model:     "iPhone 13",
			Storage:   "128GB",
			Condition: "Fair",
		},
		Price: coin.NewCoin(100, DefaultTicker),
	}, nil, seller)
	require.True(t, res.IsOK(), res.Log)
	listingID := res.Data

	res = tl.deliver(&marketplace.PurchaseMsg{ListingID: listingID, Buyer: buyer.Address()}, nil, buyer)
	require.True(t, res.IsOK(), res.Log)
	orderID := res.Data

	res = tl.deliver(&marketplace.ConfirmShipmentMsg{OrderID: orderID, TrackingNumber: "TRK1", Carrier: "DHL"}, nil, seller)
	require.True(t, res.IsOK(), res.Log)
	tl.commit()

	deadline := tl.order(orderID).Tracking.DeliveryDeadline.Time()

	// Anyone can ask for the release, but only after the deadline.
	tl.beginBlock(deadline)
	res = tl.deliver(&marketplace.AutoReleaseMsg{OrderID: orderID}, nil, buyer)
	assert.Equal(t, marketplace.ErrDeadlineNotReached.Code(), res.Code)
	tl.commit()

	tick := tl.beginBlock(deadline.Add(time.Second))
	assert.NotEmpty(t, tick.Tags)
	tl.commit()

	o := tl.order(orderID)
	assert.Equal(t, marketplace.EscrowAutoReleased, o.Status)
	assert.Equal(t, int64(99), tl.balance(seller.Address()))
	assert.Equal(t, int64(1), tl.balance(operator.Address()))
	assert.Equal(t, int64(900), tl.balance(buyer.Address()))

	// Released orders cannot be released again.
	tl.beginBlock(deadline.Add(time.Minute))
	res = tl.deliver(&marketplace.AutoReleaseMsg{OrderID: orderID}, nil, buyer)
	assert.Equal(t, marketplace.ErrInvalidEscrowStatus.Code(), res.Code)
}

func TestTxEnvelope(t *testing.T) {
	signer := newUser(9)
	msg := &cash.SendMsg{
		Source:      signer.Address(),
		Destination: newUser(10).Address(),
		Amount:      coin.NewCoin(5, DefaultTicker),
	}

	tx, err := NewTx(msg)
	require.NoError(t, err)
	unsigned, err := tx.GetSignBytes()
	require.NoError(t, err)
	require.NoError(t, tx.Sign(signer.key, chainID, 0))

	signed, err := tx.GetSignBytes()
	require.NoError(t, err)
	assert.Equal(t, unsigned, signed, "signatures are not part of the sign bytes")

	raw, err := tx.Marshal()
	require.NoError(t, err)
	decoded, err := TxDecoder(raw)
	require.NoError(t, err)

	got, err := decoded.GetMsg()
	require.NoError(t, err)
	assert.Equal(t, msg, got)
	assert.Len(t, decoded.(*Tx).GetSignatures(), 1)

	_, err = (&Tx{}).GetMsg()
	assert.True(t, errors.ErrMsg.Is(err))

	_, err = (&Tx{Sum: &Sum{SendMsg: msg, AutoReleaseMsg: &marketplace.AutoReleaseMsg{}}}).GetMsg()
	assert.True(t, errors.ErrMsg.Is(err))

	_, err = TxDecoder([]byte("not cbor"))
	assert.True(t, errors.ErrSchema.Is(err))
}

func TestCronTaskMarshaler(t *testing.T) {
	auth := []ledger.Condition{ledger.NewCondition("test", "task", []byte{1})}
	msg := &marketplace.AutoReleaseMsg{OrderID: make([]byte, marketplace.IDLen)}

	raw, err := CronTaskMarshaler{}.MarshalTask(auth, msg)
	require.NoError(t, err)
	gotAuth, gotMsg, err := CronTaskMarshaler{}.UnmarshalTask(raw)
	require.NoError(t, err)
	assert.Equal(t, auth, gotAuth)
	assert.Equal(t, msg, gotMsg)

	_, err = CronTaskMarshaler{}.MarshalTask(nil, nil)
	assert.True(t, errors.ErrType.Is(err))
}

func TestGenInitOptions(t *testing.T) {
	addr := newUser(7).Address()
	raw, err := GenInitOptions([]string{"EUR", addr.String()})
	require.NoError(t, err)

	var opts ledger.Options
	require.NoError(t, json.Unmarshal(raw, &opts))

	l, _, err := Application("refitd", "", log.NewNopLogger(), false)
	require.NoError(t, err)
	_, err = l.InitChain(app.Genesis{ChainID: chainID, AppState: opts})
	require.NoError(t, err)

	coins, err := cash.NewController().Balance(l.DeliverStore(), addr)
	require.NoError(t, err)
	assert.Equal(t, int64(1000000000), coins.Balance("EUR").Amount)

	_, err = GenInitOptions([]string{"eur"})
	assert.True(t, errors.ErrCurrency.Is(err))
}

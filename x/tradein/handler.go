package tradein

import (
	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/orm"
	"github.com/refit-labs/ledger/x"
	"github.com/refit-labs/ledger/x/cash"
)

const (
	createCost   int64 = 200
	depositCost  int64 = 200
	shipCost     int64 = 50
	completeCost int64 = 150
	cancelCost   int64 = 100
)

// RegisterRoutes will instantiate and register all handlers in this package.
func RegisterRoutes(r ledger.Registry, auth x.Authenticator, bank cash.CoinMover) {
	b := NewBucket()
	r.Handle(CreateMsg{}.Path(), CreateHandler{auth: auth, bucket: b})
	r.Handle(DepositMsg{}.Path(), DepositHandler{auth: auth, bucket: b, bank: bank})
	r.Handle(ShipNewMsg{}.Path(), ShipNewHandler{auth: auth, bucket: b})
	r.Handle(ShipOldMsg{}.Path(), ShipOldHandler{auth: auth, bucket: b})
	r.Handle(CompleteMsg{}.Path(), CompleteHandler{auth: auth, bucket: b, bank: bank})
	r.Handle(CancelMsg{}.Path(), CancelHandler{bucket: b, bank: bank})
}

func load(db ledger.ReadOnlyKVStore, b orm.ModelBucket, id []byte) (*TradeIn, error) {
	var t TradeIn
	if err := b.One(db, id, &t); err != nil {
		return nil, errors.Wrapf(err, "trade-in %X", id)
	}
	return &t, nil
}

// expect fails unless the trade-in is in the given state.
func expect(t *TradeIn, s State) error {
	if t.State != s {
		return errors.Wrapf(errors.ErrState, "trade-in is %s, want %s", t.State, s)
	}
	return nil
}

func result(t *TradeIn) *ledger.DeliverResult {
	return &ledger.DeliverResult{
		Tags: []ledger.KVPair{
			ledger.Tag("tradein.id", t.ID),
			ledger.Tag("tradein.state", []byte(t.State.String())),
		},
	}
}

// CreateHandler opens new trade-ins.
type CreateHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

var _ ledger.Handler = CreateHandler{}

func (h CreateHandler) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{GasAllocated: createCost}, nil
}

func (h CreateHandler) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	msg, now, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	id := TradeInID(msg.Buyer, msg.Seller)
	t := &TradeIn{
		ID:             id,
		Buyer:          msg.Buyer,
		Seller:         msg.Seller,
		PurchaseAmount: msg.PurchaseAmount,
		TradeInValue:   msg.TradeInValue,
		Expiry:         msg.Expiry,
		State:          AwaitingPayment,
		CreatedAt:      now,
		Custody:        CustodyAddress(id),
	}
	if err := h.bucket.Create(db, id, t); err != nil {
		return nil, errors.Wrap(err, "cannot store trade-in")
	}
	ledger.GetLogger(ctx).With("module", "tradein").
		Info("trade-in created", "id", id, "buyer", msg.Buyer, "seller", msg.Seller)
	res := result(t)
	res.Data = id
	return res, nil
}

func (h CreateHandler) validate(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*CreateMsg, ledger.UnixTime, error) {
	var msg CreateMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, 0, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Buyer) {
		return nil, 0, errors.Wrap(errors.ErrUnauthorized, "buyer signature required")
	}
	now, err := ledger.BlockUnixTime(ctx)
	if err != nil {
		return nil, 0, errors.Wrap(err, "block time")
	}
	if ledger.IsExpired(ctx, msg.Expiry) {
		return nil, 0, errors.Field("Expiry", errors.ErrExpired, "must be in the future")
	}
	if err := h.bucket.Has(db, TradeInID(msg.Buyer, msg.Seller)); err == nil {
		return nil, 0, errors.Wrap(errors.ErrDuplicate, "trade-in between parties exists")
	}
	return &msg, now, nil
}

// DepositHandler moves the purchase amount of the buyer into custody.
type DepositHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
	bank   cash.CoinMover
}

var _ ledger.Handler = DepositHandler{}

func (h DepositHandler) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{GasAllocated: depositCost}, nil
}

func (h DepositHandler) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	t, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.bank.MoveCoins(db, t.Buyer, t.Custody, t.PurchaseAmount); err != nil {
		return nil, errors.Wrap(err, "deposit")
	}
	t.State = FundsDeposited
	if err := h.bucket.Put(db, t.ID, t); err != nil {
		return nil, errors.Wrap(err, "cannot store trade-in")
	}
	return result(t), nil
}

func (h DepositHandler) validate(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*TradeIn, error) {
	var msg DepositMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	t, err := load(db, h.bucket, msg.TradeInID)
	if err != nil {
		return nil, err
	}
	if err := expect(t, AwaitingPayment); err != nil {
		return nil, err
	}
	if !h.auth.HasAddress(ctx, t.Buyer) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "buyer signature required")
	}
	return t, nil
}

// ShipNewHandler records the shipment of the new device by the seller.
type ShipNewHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

var _ ledger.Handler = ShipNewHandler{}

func (h ShipNewHandler) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{GasAllocated: shipCost}, nil
}

func (h ShipNewHandler) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	msg, t, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	t.State = NewPhoneShipped
	t.NewPhoneTracking = msg.TrackingNumber
	if err := h.bucket.Put(db, t.ID, t); err != nil {
		return nil, errors.Wrap(err, "cannot store trade-in")
	}
	return result(t), nil
}

func (h ShipNewHandler) validate(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ShipNewMsg, *TradeIn, error) {
	var msg ShipNewMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	t, err := load(db, h.bucket, msg.TradeInID)
	if err != nil {
		return nil, nil, err
	}
	if err := expect(t, FundsDeposited); err != nil {
		return nil, nil, err
	}
	if !h.auth.HasAddress(ctx, t.Seller) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "seller signature required")
	}
	return &msg, t, nil
}

// ShipOldHandler records the shipment of the traded device by the buyer.
type ShipOldHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

var _ ledger.Handler = ShipOldHandler{}

func (h ShipOldHandler) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{GasAllocated: shipCost}, nil
}

func (h ShipOldHandler) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	msg, t, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	t.State = OldPhoneShipped
	t.OldPhoneTracking = msg.TrackingNumber
	if err := h.bucket.Put(db, t.ID, t); err != nil {
		return nil, errors.Wrap(err, "cannot store trade-in")
	}
	return result(t), nil
}

func (h ShipOldHandler) validate(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ShipOldMsg, *TradeIn, error) {
	var msg ShipOldMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	t, err := load(db, h.bucket, msg.TradeInID)
	if err != nil {
		return nil, nil, err
	}
	if err := expect(t, NewPhoneShipped); err != nil {
		return nil, nil, err
	}
	if !h.auth.HasAddress(ctx, t.Buyer) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "buyer signature required")
	}
	return &msg, t, nil
}

// CompleteHandler settles a trade-in once the seller got the traded device.
// The buyer gets back the trade-in value and the seller is paid the rest.
type CompleteHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
	bank   cash.CoinMover
}

var _ ledger.Handler = CompleteHandler{}

func (h CompleteHandler) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{GasAllocated: completeCost}, nil
}

func (h CompleteHandler) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	t, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	remainder, err := t.PurchaseAmount.Subtract(t.TradeInValue)
	if err != nil {
		return nil, errors.Wrap(err, "seller share")
	}
	if t.TradeInValue.IsPositive() {
		if err := h.bank.MoveCoins(db, t.Custody, t.Buyer, t.TradeInValue); err != nil {
			return nil, errors.Wrap(err, "pay trade-in value")
		}
	}
	if remainder.IsPositive() {
		if err := h.bank.MoveCoins(db, t.Custody, t.Seller, remainder); err != nil {
			return nil, errors.Wrap(err, "pay seller")
		}
	}
	t.State = Completed
	if err := h.bucket.Put(db, t.ID, t); err != nil {
		return nil, errors.Wrap(err, "cannot store trade-in")
	}
	ledger.GetLogger(ctx).With("module", "tradein").
		Info("trade-in completed", "id", t.ID, "buyer", t.TradeInValue, "seller", remainder)
	return result(t), nil
}

func (h CompleteHandler) validate(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*TradeIn, error) {
	var msg CompleteMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	t, err := load(db, h.bucket, msg.TradeInID)
	if err != nil {
		return nil, err
	}
	if err := expect(t, OldPhoneShipped); err != nil {
		return nil, err
	}
	if !h.auth.HasAddress(ctx, t.Seller) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "seller signature required")
	}
	return t, nil
}

// CancelHandler closes an expired trade-in and refunds the deposit, if
// any. It does not require a signature.
type CancelHandler struct {
	bucket orm.ModelBucket
	bank   cash.CoinMover
}

var _ ledger.Handler = CancelHandler{}

func (h CancelHandler) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{GasAllocated: cancelCost}, nil
}

func (h CancelHandler) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	t, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if t.State != AwaitingPayment {
		if err := h.bank.MoveCoins(db, t.Custody, t.Buyer, t.PurchaseAmount); err != nil {
			return nil, errors.Wrap(err, "refund buyer")
		}
	}
	t.State = Cancelled
	if err := h.bucket.Put(db, t.ID, t); err != nil {
		return nil, errors.Wrap(err, "cannot store trade-in")
	}
	return result(t), nil
}

func (h CancelHandler) validate(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*TradeIn, error) {
	var msg CancelMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	t, err := load(db, h.bucket, msg.TradeInID)
	if err != nil {
		return nil, err
	}
	now, err := ledger.BlockUnixTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "block time")
	}
	if now <= t.Expiry {
		return nil, errors.Wrapf(ErrNotExpired, "expires at %s", t.Expiry.Time())
	}
	if t.State.IsTerminal() {
		return nil, errors.Wrapf(errors.ErrState, "trade-in is %s", t.State)
	}
	return t, nil
}

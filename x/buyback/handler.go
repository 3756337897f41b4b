package buyback

import (
	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/gconf"
	"github.com/refit-labs/ledger/orm"
	"github.com/refit-labs/ledger/x"
	"github.com/refit-labs/ledger/x/cash"
	"github.com/refit-labs/ledger/x/marketplace"
)

const (
	createCost      int64 = 100
	markShippedCost int64 = 50
	completeCost    int64 = 100
)

// RegisterRoutes will instantiate and register all handlers in this package.
func RegisterRoutes(r ledger.Registry, auth x.Authenticator, bank cash.CoinMover) {
	b := NewBucket()
	r.Handle(CreateMsg{}.Path(), CreateHandler{auth: auth, bucket: b})
	r.Handle(MarkShippedMsg{}.Path(), MarkShippedHandler{auth: auth, bucket: b})
	r.Handle(CompleteMsg{}.Path(), CompleteHandler{auth: auth, bucket: b, bank: bank})
}

func platform(db ledger.ReadOnlyKVStore) (*marketplace.Configuration, error) {
	var conf marketplace.Configuration
	if err := gconf.Load(db, marketplace.ConfigPkg, &conf); err != nil {
		return nil, errors.Wrap(err, "marketplace configuration")
	}
	return &conf, nil
}

func load(db ledger.ReadOnlyKVStore, b orm.ModelBucket, id []byte) (*Buyback, error) {
	var bb Buyback
	if err := b.One(db, id, &bb); err != nil {
		return nil, errors.Wrapf(err, "buyback %X", id)
	}
	return &bb, nil
}

func result(b *Buyback) *ledger.DeliverResult {
	return &ledger.DeliverResult{
		Tags: []ledger.KVPair{
			ledger.Tag("buyback.id", b.ID),
			ledger.Tag("buyback.status", []byte(b.Status.String())),
		},
	}
}

// CreateHandler registers buyback requests.
type CreateHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

var _ ledger.Handler = CreateHandler{}

func (h CreateHandler) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{GasAllocated: createCost}, nil
}

func (h CreateHandler) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	now, err := ledger.BlockUnixTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "block time")
	}
	b := &Buyback{
		ID:        BuybackID(msg.Owner),
		Owner:     msg.Owner,
		Device:    msg.Device,
		Price:     msg.Price,
		Status:    PendingShipment,
		CreatedAt: now,
	}
	if err := h.bucket.Create(db, b.ID, b); err != nil {
		return nil, errors.Wrap(err, "cannot store buyback")
	}
	ledger.GetLogger(ctx).With("module", "buyback").
		Info("buyback created", "id", b.ID, "owner", b.Owner, "price", b.Price)
	res := result(b)
	res.Data = b.ID
	return res, nil
}

func (h CreateHandler) validate(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*CreateMsg, error) {
	var msg CreateMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Owner) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "owner signature required")
	}
	conf, err := platform(db)
	if err != nil {
		return nil, err
	}
	if msg.Price.Ticker != conf.Currency {
		return nil, errors.Wrapf(errors.ErrCurrency, "price must be in %s", conf.Currency)
	}
	if err := h.bucket.Has(db, BuybackID(msg.Owner)); err == nil {
		return nil, errors.Wrap(errors.ErrDuplicate, "owner has a buyback")
	}
	return &msg, nil
}

// MarkShippedHandler records the shipment of the device by its owner.
type MarkShippedHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
}

var _ ledger.Handler = MarkShippedHandler{}

func (h MarkShippedHandler) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{GasAllocated: markShippedCost}, nil
}

func (h MarkShippedHandler) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	msg, b, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	b.Status = Shipped
	b.TrackingNumber = msg.TrackingNumber
	if err := h.bucket.Put(db, b.ID, b); err != nil {
		return nil, errors.Wrap(err, "cannot store buyback")
	}
	return result(b), nil
}

func (h MarkShippedHandler) validate(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*MarkShippedMsg, *Buyback, error) {
	var msg MarkShippedMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	b, err := load(db, h.bucket, msg.BuybackID)
	if err != nil {
		return nil, nil, err
	}
	if !h.auth.HasAddress(ctx, b.Owner) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "owner signature required")
	}
	if b.Status != PendingShipment {
		return nil, nil, errors.Wrapf(ErrInvalidStatus, "buyback is %s", b.Status)
	}
	return &msg, b, nil
}

// CompleteHandler pays the owner from the platform wallet.
type CompleteHandler struct {
	auth   x.Authenticator
	bucket orm.ModelBucket
	bank   cash.CoinMover
}

var _ ledger.Handler = CompleteHandler{}

func (h CompleteHandler) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{GasAllocated: completeCost}, nil
}

func (h CompleteHandler) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	b, wallet, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.bank.MoveCoins(db, wallet, b.Owner, b.Price); err != nil {
		return nil, errors.Wrap(err, "pay owner")
	}
	b.Status = Completed
	if err := h.bucket.Put(db, b.ID, b); err != nil {
		return nil, errors.Wrap(err, "cannot store buyback")
	}
	ledger.GetLogger(ctx).With("module", "buyback").
		Info("buyback completed", "id", b.ID, "owner", b.Owner, "price", b.Price)
	return result(b), nil
}

func (h CompleteHandler) validate(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*Buyback, ledger.Address, error) {
	var msg CompleteMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	b, err := load(db, h.bucket, msg.BuybackID)
	if err != nil {
		return nil, nil, err
	}
	conf, err := platform(db)
	if err != nil {
		return nil, nil, err
	}
	if err := x.AnySigner(ctx, h.auth, conf.FeeCollector); err != nil {
		return nil, nil, errors.Wrap(err, "platform")
	}
	if b.Status != Shipped {
		return nil, nil, errors.Wrapf(ErrInvalidStatus, "buyback is %s", b.Status)
	}
	return b, conf.FeeCollector, nil
}

package marketplace

import (
	"time"

	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/orm"
	"github.com/refit-labs/ledger/x"
)

// PurchaseHandler locks the buyer funds and opens an escrow order.
type PurchaseHandler struct {
	auth     x.Authenticator
	listings orm.ModelBucket
	orders   orm.ModelBucket
	bank     Bank
}

var _ ledger.Handler = PurchaseHandler{}

func (h PurchaseHandler) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{GasAllocated: purchaseCost}, nil
}

func (h PurchaseHandler) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	msg, listing, conf, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	now, err := ledger.BlockUnixTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "block time")
	}

	id := OrderID(listing.ID, msg.Buyer)
	order := &EscrowOrder{
		ID:               id,
		ListingID:        listing.ID,
		Buyer:            msg.Buyer,
		Seller:           listing.Seller,
		Amount:           listing.Price,
		Status:           EscrowAwaitingShipment,
		CreatedAt:        now,
		ShippingDeadline: now.Add(conf.ShippingTimeout()),
		Custody:          CustodyAddress(id),
	}
	if err := h.orders.Create(db, id, order); err != nil {
		return nil, errors.Wrap(err, "cannot store order")
	}
	if err := h.bank.MoveCoins(db, msg.Buyer, order.Custody, order.Amount); err != nil {
		return nil, errors.Wrap(err, "lock funds")
	}

	listing.Status = ListingPendingEscrow
	listing.Buyer = msg.Buyer
	if err := h.listings.Put(db, listing.ID, listing); err != nil {
		return nil, errors.Wrap(err, "cannot store listing")
	}

	ledger.GetLogger(ctx).With("module", "marketplace").
		Info("order created", "order", id, "buyer", msg.Buyer, "amount", order.Amount)
	return &ledger.DeliverResult{
		Data: id,
		Tags: []ledger.KVPair{
			ledger.Tag("marketplace.order", id),
			ledger.Tag("marketplace.listing", listing.ID),
			ledger.Tag("marketplace.buyer", msg.Buyer),
		},
	}, nil
}

func (h PurchaseHandler) validate(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*PurchaseMsg, *Listing, *Configuration, error) {
	var msg PurchaseMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Buyer) {
		return nil, nil, nil, errors.Wrap(errors.ErrUnauthorized, "buyer signature required")
	}
	listing, err := loadListing(db, h.listings, msg.ListingID)
	if err != nil {
		return nil, nil, nil, err
	}
	if listing.Status != ListingActive {
		return nil, nil, nil, errors.Wrapf(ErrListingNotActive, "listing is %s", listing.Status)
	}
	if listing.Seller.Equals(msg.Buyer) {
		return nil, nil, nil, errors.Wrap(ErrInvalidListing, "cannot buy own listing")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, nil, nil, err
	}
	coins, err := h.bank.Balance(db, msg.Buyer)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "buyer balance")
	}
	if have := coins.Balance(listing.Price.Ticker); !have.IsGTE(listing.Price) {
		return nil, nil, nil, errors.Wrapf(ErrInsufficientFunds, "%s available, %s required", have, listing.Price)
	}
	return &msg, listing, conf, nil
}

// ConfirmShipmentHandler records the shipment of an order by the seller.
type ConfirmShipmentHandler struct {
	auth      x.Authenticator
	listings  orm.ModelBucket
	orders    orm.ModelBucket
	scheduler ledger.Scheduler
}

var _ ledger.Handler = ConfirmShipmentHandler{}

func (h ConfirmShipmentHandler) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{GasAllocated: confirmShipmentCost}, nil
}

func (h ConfirmShipmentHandler) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	msg, order, now, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}

	if err := order.transition(EscrowShipped); err != nil {
		return nil, err
	}
	order.Tracking = &TrackingInfo{
		TrackingNumber:   msg.TrackingNumber,
		Carrier:          msg.Carrier,
		ShippedAt:        now,
		DeliveryDeadline: now.Add(conf.DeliveryTimeout()),
	}
	if h.scheduler != nil {
		// Release becomes possible only after the deadline passed.
		runAt := order.Tracking.DeliveryDeadline.Time().Add(time.Second)
		taskID, err := h.scheduler.Schedule(db, runAt, nil, &AutoReleaseMsg{OrderID: order.ID})
		if err != nil {
			return nil, errors.Wrap(err, "schedule auto release")
		}
		order.ReleaseTaskID = taskID
	}
	if err := h.orders.Put(db, order.ID, order); err != nil {
		return nil, errors.Wrap(err, "cannot store order")
	}
	if err := advanceListing(db, h.listings, order.ListingID, ListingShipped); err != nil {
		return nil, err
	}

	ledger.GetLogger(ctx).With("module", "marketplace").
		Info("order shipped", "order", order.ID, "carrier", msg.Carrier, "deadline", order.Tracking.DeliveryDeadline)
	return &ledger.DeliverResult{
		Tags: []ledger.KVPair{ledger.Tag("marketplace.order", order.ID)},
	}, nil
}

func (h ConfirmShipmentHandler) validate(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ConfirmShipmentMsg, *EscrowOrder, ledger.UnixTime, error) {
	var msg ConfirmShipmentMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, nil, 0, errors.Wrap(err, "load msg")
	}
	order, err := loadOrder(db, h.orders, msg.OrderID)
	if err != nil {
		return nil, nil, 0, err
	}
	if !h.auth.HasAddress(ctx, order.Seller) {
		return nil, nil, 0, errors.Wrap(errors.ErrUnauthorized, "seller signature required")
	}
	if order.Status != EscrowAwaitingShipment {
		return nil, nil, 0, errors.Wrapf(ErrInvalidEscrowStatus, "order is %s", order.Status)
	}
	now, err := ledger.BlockUnixTime(ctx)
	if err != nil {
		return nil, nil, 0, errors.Wrap(err, "block time")
	}
	if now > order.ShippingDeadline {
		return nil, nil, 0, errors.Wrapf(ErrShippingDeadlineExceeded, "deadline was %s", order.ShippingDeadline)
	}
	return &msg, order, now, nil
}

// ConfirmDeliveryHandler releases the escrow once the buyer confirmed the
// delivery.
type ConfirmDeliveryHandler struct {
	auth      x.Authenticator
	listings  orm.ModelBucket
	orders    orm.ModelBucket
	bank      Bank
	scheduler ledger.Scheduler
}

var _ ledger.Handler = ConfirmDeliveryHandler{}

func (h ConfirmDeliveryHandler) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{GasAllocated: confirmDeliveryCost}, nil
}

func (h ConfirmDeliveryHandler) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	order, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := cancelRelease(db, h.scheduler, order); err != nil {
		return nil, err
	}
	return release(ctx, db, h.bank, h.orders, h.listings, order, EscrowCompleted)
}

func (h ConfirmDeliveryHandler) validate(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*EscrowOrder, error) {
	var msg ConfirmDeliveryMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	order, err := loadOrder(db, h.orders, msg.OrderID)
	if err != nil {
		return nil, err
	}
	if !h.auth.HasAddress(ctx, order.Buyer) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "buyer signature required")
	}
	if order.Status != EscrowShipped {
		return nil, errors.Wrapf(ErrInvalidEscrowStatus, "order is %s", order.Status)
	}
	return order, nil
}

// AutoReleaseHandler releases the escrow of a shipped order once the
// delivery deadline passed. It requires no signature.
type AutoReleaseHandler struct {
	listings  orm.ModelBucket
	orders    orm.ModelBucket
	bank      Bank
	scheduler ledger.Scheduler
}

var _ ledger.Handler = AutoReleaseHandler{}

func (h AutoReleaseHandler) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{GasAllocated: autoReleaseCost}, nil
}

func (h AutoReleaseHandler) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	order, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := cancelRelease(db, h.scheduler, order); err != nil {
		return nil, err
	}
	return release(ctx, db, h.bank, h.orders, h.listings, order, EscrowAutoReleased)
}

func (h AutoReleaseHandler) validate(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*EscrowOrder, error) {
	var msg AutoReleaseMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	order, err := loadOrder(db, h.orders, msg.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != EscrowShipped {
		return nil, errors.Wrapf(ErrInvalidEscrowStatus, "order is %s", order.Status)
	}
	now, err := ledger.BlockUnixTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "block time")
	}
	if now <= order.Tracking.DeliveryDeadline {
		return nil, errors.Wrapf(ErrDeadlineNotReached, "delivery deadline is %s", order.Tracking.DeliveryDeadline)
	}
	return order, nil
}

// release pays out a shipped order to the seller and closes it with the
// given status. The listing is marked as sold.
func release(
	ctx ledger.Context,
	db ledger.KVStore,
	bank Bank,
	orders, listings orm.ModelBucket,
	order *EscrowOrder,
	status EscrowStatus,
) (*ledger.DeliverResult, error) {
	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}
	fee, paid, err := releaseToSeller(db, bank, conf, order)
	if err != nil {
		return nil, err
	}
	if err := order.transition(status); err != nil {
		return nil, err
	}
	if err := orders.Put(db, order.ID, order); err != nil {
		return nil, errors.Wrap(err, "cannot store order")
	}
	if err := advanceListing(db, listings, order.ListingID, ListingSold); err != nil {
		return nil, err
	}

	ledger.GetLogger(ctx).With("module", "marketplace").
		Info("order released", "order", order.ID, "status", status, "seller_amount", paid, "fee", fee)
	return &ledger.DeliverResult{
		Tags: []ledger.KVPair{
			ledger.Tag("marketplace.order", order.ID),
			ledger.Tag("marketplace.status", []byte(status.String())),
		},
	}, nil
}

package marketplace

import (
	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/orm"
	"github.com/refit-labs/ledger/x"
)

// OpenDisputeHandler freezes an order on request of one of its parties.
type OpenDisputeHandler struct {
	auth      x.Authenticator
	orders    orm.ModelBucket
	disputes  orm.ModelBucket
	scheduler ledger.Scheduler
}

var _ ledger.Handler = OpenDisputeHandler{}

func (h OpenDisputeHandler) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{GasAllocated: openDisputeCost}, nil
}

func (h OpenDisputeHandler) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	msg, order, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	now, err := ledger.BlockUnixTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "block time")
	}

	id := DisputeID(order.ID, now)
	dispute := &Dispute{
		ID:        id,
		OrderID:   order.ID,
		Initiator: msg.Initiator,
		Reason:    msg.Reason,
		Status:    DisputeOpen,
		CreatedAt: now,
	}
	if err := h.disputes.Create(db, id, dispute); err != nil {
		return nil, errors.Wrap(err, "cannot store dispute")
	}
	if err := order.transition(EscrowDisputed); err != nil {
		return nil, err
	}
	if err := cancelRelease(db, h.scheduler, order); err != nil {
		return nil, err
	}
	if err := h.orders.Put(db, order.ID, order); err != nil {
		return nil, errors.Wrap(err, "cannot store order")
	}

	ledger.GetLogger(ctx).With("module", "marketplace").
		Info("dispute opened", "dispute", id, "order", order.ID, "initiator", msg.Initiator)
	return &ledger.DeliverResult{
		Data: id,
		Tags: []ledger.KVPair{
			ledger.Tag("marketplace.dispute", id),
			ledger.Tag("marketplace.order", order.ID),
		},
	}, nil
}

func (h OpenDisputeHandler) validate(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*OpenDisputeMsg, *EscrowOrder, error) {
	var msg OpenDisputeMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	order, err := loadOrder(db, h.orders, msg.OrderID)
	if err != nil {
		return nil, nil, err
	}
	if !msg.Initiator.Equals(order.Buyer) && !msg.Initiator.Equals(order.Seller) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "initiator is not a party of the order")
	}
	if !h.auth.HasAddress(ctx, msg.Initiator) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "initiator signature required")
	}
	switch order.Status {
	case EscrowAwaitingShipment, EscrowShipped:
	default:
		return nil, nil, errors.Wrapf(ErrInvalidEscrowStatus, "order is %s", order.Status)
	}
	return &msg, order, nil
}

// ResolveDisputeHandler applies the arbiter decision on a disputed order.
type ResolveDisputeHandler struct {
	auth     x.Authenticator
	arbiter  Arbiter
	listings orm.ModelBucket
	orders   orm.ModelBucket
	disputes orm.ModelBucket
	bank     Bank
}

var _ ledger.Handler = ResolveDisputeHandler{}

func (h ResolveDisputeHandler) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{GasAllocated: resolveDisputeCost}, nil
}

func (h ResolveDisputeHandler) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	msg, dispute, order, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}

	var (
		orderStatus   EscrowStatus
		listingStatus ListingStatus
	)
	switch r := msg.Resolution; r.Kind {
	case FavorBuyer:
		if err := checkCustody(db, h.bank, order); err != nil {
			return nil, err
		}
		if err := payOut(db, h.bank, order, order.Buyer, order.Amount); err != nil {
			return nil, err
		}
		orderStatus, listingStatus = EscrowRefunded, ListingCancelled
	case FavorSeller:
		if _, _, err := releaseToSeller(db, h.bank, conf, order); err != nil {
			return nil, err
		}
		orderStatus, listingStatus = EscrowCompleted, ListingSold
	case Split:
		if err := checkCustody(db, h.bank, order); err != nil {
			return nil, err
		}
		buyerShare, sellerShare, err := SplitShares(order.Amount, r.BuyerPercentage)
		if err != nil {
			return nil, err
		}
		if err := payOut(db, h.bank, order, order.Buyer, buyerShare); err != nil {
			return nil, err
		}
		if err := payOut(db, h.bank, order, order.Seller, sellerShare); err != nil {
			return nil, err
		}
		orderStatus, listingStatus = EscrowResolved, ListingSold
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown resolution %s", r.Kind)
	}

	if err := order.transition(orderStatus); err != nil {
		return nil, err
	}
	if err := h.orders.Put(db, order.ID, order); err != nil {
		return nil, errors.Wrap(err, "cannot store order")
	}
	if err := advanceListing(db, h.listings, order.ListingID, listingStatus); err != nil {
		return nil, err
	}
	dispute.Status = DisputeResolved
	dispute.Resolution = msg.Resolution
	if err := h.disputes.Put(db, dispute.ID, dispute); err != nil {
		return nil, errors.Wrap(err, "cannot store dispute")
	}

	ledger.GetLogger(ctx).With("module", "marketplace").
		Info("dispute resolved", "dispute", dispute.ID, "resolution", msg.Resolution.Kind, "order_status", orderStatus)
	return &ledger.DeliverResult{
		Tags: []ledger.KVPair{
			ledger.Tag("marketplace.dispute", dispute.ID),
			ledger.Tag("marketplace.order", order.ID),
			ledger.Tag("marketplace.status", []byte(orderStatus.String())),
		},
	}, nil
}

func (h ResolveDisputeHandler) validate(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ResolveDisputeMsg, *Dispute, *EscrowOrder, error) {
	var msg ResolveDisputeMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	dispute, err := loadDispute(db, h.disputes, msg.DisputeID)
	if err != nil {
		return nil, nil, nil, err
	}
	if dispute.Status != DisputeOpen {
		return nil, nil, nil, errors.Wrapf(ErrDisputeNotOpen, "dispute is %s", dispute.Status)
	}
	if err := h.arbiter.Authorize(ctx, db, h.auth); err != nil {
		return nil, nil, nil, err
	}
	order, err := loadOrder(db, h.orders, dispute.OrderID)
	if err != nil {
		return nil, nil, nil, err
	}
	if order.Status != EscrowDisputed {
		return nil, nil, nil, errors.Wrapf(ErrInvalidEscrowStatus, "order is %s", order.Status)
	}
	return &msg, dispute, order, nil
}

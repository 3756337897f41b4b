package marketplace

import (
	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/gconf"
	"github.com/refit-labs/ledger/orm"
	"github.com/refit-labs/ledger/x"
)

const (
	createListingCost   int64 = 200
	cancelListingCost   int64 = 50
	setListingAssetCost int64 = 50
	purchaseCost        int64 = 300
	confirmShipmentCost int64 = 100
	confirmDeliveryCost int64 = 100
	autoReleaseCost     int64 = 0
	openDisputeCost     int64 = 200
	resolveDisputeCost  int64 = 100
)

// RegisterRoutes will instantiate and register all handlers in this package.
// The scheduler is used to queue auto release of shipped orders and can be
// nil.
func RegisterRoutes(r ledger.Registry, auth x.Authenticator, bank Bank, scheduler ledger.Scheduler, arbiter Arbiter) {
	listings := NewListingBucket()
	orders := NewOrderBucket()
	disputes := NewDisputeBucket()

	r.Handle(CreateListingMsg{}.Path(), CreateListingHandler{auth: auth, listings: listings})
	r.Handle(CancelListingMsg{}.Path(), CancelListingHandler{auth: auth, listings: listings})
	r.Handle(SetListingAssetMsg{}.Path(), SetListingAssetHandler{auth: auth, listings: listings})
	r.Handle(PurchaseMsg{}.Path(), PurchaseHandler{auth: auth, listings: listings, orders: orders, bank: bank})
	r.Handle(ConfirmShipmentMsg{}.Path(), ConfirmShipmentHandler{auth: auth, listings: listings, orders: orders, scheduler: scheduler})
	r.Handle(ConfirmDeliveryMsg{}.Path(), ConfirmDeliveryHandler{auth: auth, listings: listings, orders: orders, bank: bank, scheduler: scheduler})
	r.Handle(AutoReleaseMsg{}.Path(), AutoReleaseHandler{listings: listings, orders: orders, bank: bank, scheduler: scheduler})
	r.Handle(OpenDisputeMsg{}.Path(), OpenDisputeHandler{auth: auth, orders: orders, disputes: disputes, scheduler: scheduler})
	r.Handle(ResolveDisputeMsg{}.Path(), ResolveDisputeHandler{auth: auth, arbiter: arbiter, listings: listings, orders: orders, disputes: disputes, bank: bank})
	r.Handle(UpdateConfigurationMsg{}.Path(), gconf.NewUpdateConfigurationHandler(ConfigPkg, &Configuration{}, auth, nil))
}

// CreateListingHandler registers new listings.
type CreateListingHandler struct {
	auth     x.Authenticator
	listings orm.ModelBucket
}

var _ ledger.Handler = CreateListingHandler{}

func (h CreateListingHandler) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{GasAllocated: createListingCost}, nil
}

func (h CreateListingHandler) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	msg, now, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	id := ListingID(msg.Seller, now)
	listing := &Listing{
		ID:            id,
		Seller:        msg.Seller,
		Metadata:      msg.Metadata,
		Price:         msg.Price,
		Status:        ListingActive,
		CreatedAt:     now,
		RequireStake:  msg.RequireStake,
		EscrowAccount: EscrowAccount(id),
	}
	if err := h.listings.Create(db, id, listing); err != nil {
		return nil, errors.Wrap(err, "cannot store listing")
	}

	ledger.GetLogger(ctx).With("module", "marketplace").
		Info("listing created", "listing", id, "seller", msg.Seller, "price", msg.Price)
	return &ledger.DeliverResult{
		Data: id,
		Tags: []ledger.KVPair{
			ledger.Tag("marketplace.listing", id),
			ledger.Tag("marketplace.seller", msg.Seller),
		},
	}, nil
}

func (h CreateListingHandler) validate(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*CreateListingMsg, ledger.UnixTime, error) {
	var msg CreateListingMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, 0, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Seller) {
		return nil, 0, errors.Wrap(errors.ErrUnauthorized, "seller signature required")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, 0, err
	}
	if msg.Price.Ticker != conf.Currency {
		return nil, 0, errors.Wrapf(errors.ErrCurrency, "price must be in %s", conf.Currency)
	}
	now, err := ledger.BlockUnixTime(ctx)
	if err != nil {
		return nil, 0, errors.Wrap(err, "block time")
	}
	if err := h.listings.Has(db, ListingID(msg.Seller, now)); err == nil {
		return nil, 0, errors.Wrap(errors.ErrDuplicate, "listing key already used")
	}
	return &msg, now, nil
}

// CancelListingHandler withdraws an active listing.
type CancelListingHandler struct {
	auth     x.Authenticator
	listings orm.ModelBucket
}

var _ ledger.Handler = CancelListingHandler{}

func (h CancelListingHandler) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{GasAllocated: cancelListingCost}, nil
}

func (h CancelListingHandler) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	listing, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	listing.Status = ListingCancelled
	if err := h.listings.Put(db, listing.ID, listing); err != nil {
		return nil, errors.Wrap(err, "cannot store listing")
	}
	return &ledger.DeliverResult{
		Tags: []ledger.KVPair{ledger.Tag("marketplace.listing", listing.ID)},
	}, nil
}

func (h CancelListingHandler) validate(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*Listing, error) {
	var msg CancelListingMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	listing, err := loadListing(db, h.listings, msg.ListingID)
	if err != nil {
		return nil, err
	}
	if !h.auth.HasAddress(ctx, listing.Seller) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "seller signature required")
	}
	if listing.Status != ListingActive {
		return nil, errors.Wrapf(ErrListingNotActive, "listing is %s", listing.Status)
	}
	return listing, nil
}

// SetListingAssetHandler records the minted asset of a listing.
type SetListingAssetHandler struct {
	auth     x.Authenticator
	listings orm.ModelBucket
}

var _ ledger.Handler = SetListingAssetHandler{}

func (h SetListingAssetHandler) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{GasAllocated: setListingAssetCost}, nil
}

func (h SetListingAssetHandler) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	msg, listing, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	listing.AssetRef = msg.AssetRef
	if err := h.listings.Put(db, listing.ID, listing); err != nil {
		return nil, errors.Wrap(err, "cannot store listing")
	}
	return &ledger.DeliverResult{}, nil
}

func (h SetListingAssetHandler) validate(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*SetListingAssetMsg, *Listing, error) {
	var msg SetListingAssetMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	listing, err := loadListing(db, h.listings, msg.ListingID)
	if err != nil {
		return nil, nil, err
	}
	if !h.auth.HasAddress(ctx, listing.Seller) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "seller signature required")
	}
	if listing.Status != ListingActive {
		return nil, nil, errors.Wrapf(ErrListingNotActive, "listing is %s", listing.Status)
	}
	if len(listing.AssetRef) != 0 {
		return nil, nil, errors.Wrap(errors.ErrImmutable, "asset reference already set")
	}
	return &msg, listing, nil
}

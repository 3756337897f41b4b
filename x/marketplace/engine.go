package marketplace

import (
	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/coin"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/orm"
	"github.com/refit-labs/ledger/x/cash"
)

// Bank moves funds in and out of order custody and reads balances.
type Bank interface {
	cash.CoinMover
	cash.Balancer
}

func loadListing(db ledger.ReadOnlyKVStore, b orm.ModelBucket, id []byte) (*Listing, error) {
	var l Listing
	switch err := b.One(db, id, &l); {
	case err == nil:
		return &l, nil
	case errors.ErrNotFound.Is(err):
		return nil, errors.Wrapf(ErrInvalidListing, "listing %X does not exist", id)
	default:
		return nil, errors.Wrap(err, "load listing")
	}
}

func loadOrder(db ledger.ReadOnlyKVStore, b orm.ModelBucket, id []byte) (*EscrowOrder, error) {
	var o EscrowOrder
	if err := b.One(db, id, &o); err != nil {
		return nil, errors.Wrapf(err, "order %X", id)
	}
	return &o, nil
}

func loadDispute(db ledger.ReadOnlyKVStore, b orm.ModelBucket, id []byte) (*Dispute, error) {
	var d Dispute
	if err := b.One(db, id, &d); err != nil {
		return nil, errors.Wrapf(err, "dispute %X", id)
	}
	return &d, nil
}

// advanceListing moves the listing of an order to the next status.
func advanceListing(db ledger.KVStore, b orm.ModelBucket, id []byte, next ListingStatus) error {
	l, err := loadListing(db, b, id)
	if err != nil {
		return err
	}
	if !l.Status.CanTransition(next) {
		return errors.Wrapf(errors.ErrState, "listing %s to %s", l.Status, next)
	}
	l.Status = next
	return b.Put(db, l.ID, l)
}

// checkCustody ensures the custody account still covers the locked amount.
// Funds sent to the custody account by anyone else are not part of the
// order and are never paid out.
func checkCustody(db ledger.ReadOnlyKVStore, bank Bank, o *EscrowOrder) error {
	coins, err := bank.Balance(db, o.Custody)
	if err != nil {
		return errors.Wrap(err, "custody balance")
	}
	if held := coins.Balance(o.Amount.Ticker); !held.IsGTE(o.Amount) {
		return errors.Wrapf(ErrInvalidTokenAccount, "custody holds %s, %s locked", held, o.Amount)
	}
	return nil
}

// payOut moves the amount from the order custody to dest. Zero amounts are
// skipped.
func payOut(db ledger.KVStore, bank Bank, o *EscrowOrder, dest ledger.Address, amount coin.Coin) error {
	if amount.IsZero() {
		return nil
	}
	if err := bank.MoveCoins(db, o.Custody, dest, amount); err != nil {
		return errors.Wrapf(err, "pay %s to %s", amount, dest)
	}
	return nil
}

// releaseToSeller pays the seller the locked amount minus the platform fee
// and the fee to the fee collector. Either both transfers are applied or
// the transaction fails.
func releaseToSeller(db ledger.KVStore, bank Bank, conf *Configuration, o *EscrowOrder) (fee, seller coin.Coin, err error) {
	if err := checkCustody(db, bank, o); err != nil {
		return fee, seller, err
	}
	fee, seller, err = SplitFee(o.Amount, FeeDivisor)
	if err != nil {
		return fee, seller, err
	}
	if err := payOut(db, bank, o, o.Seller, seller); err != nil {
		return fee, seller, err
	}
	if err := payOut(db, bank, o, conf.FeeCollector, fee); err != nil {
		return fee, seller, err
	}
	return fee, seller, nil
}

// cancelRelease removes the scheduled auto release of an order, if any.
func cancelRelease(db ledger.KVStore, scheduler ledger.Scheduler, o *EscrowOrder) error {
	if scheduler == nil || len(o.ReleaseTaskID) == 0 {
		return nil
	}
	if err := scheduler.Delete(db, o.ReleaseTaskID); err != nil && !errors.ErrNotFound.Is(err) {
		return errors.Wrap(err, "delete release task")
	}
	o.ReleaseTaskID = nil
	return nil
}

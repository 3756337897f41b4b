package cash

import (
	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/coin"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/orm"
)

// CoinMover is an interface for moving coins between accounts.
type CoinMover interface {
	// MoveCoins removes the amount from the source and adds it to the
	// destination. It fails if the source holds less than the amount.
	MoveCoins(db ledger.KVStore, src, dest ledger.Address, amount coin.Coin) error
}

// Balancer reads account balances.
type Balancer interface {
	Balance(db ledger.ReadOnlyKVStore, addr ledger.Address) (coin.Coins, error)
}

// Controller is the functionality needed by other extensions to manipulate
// balances.
type Controller interface {
	CoinMover
	Balancer
	// IssueCoins creates new coins at the destination. Use it only for
	// genesis and test fixtures.
	IssueCoins(db ledger.KVStore, dest ledger.Address, amount coin.Coin) error
}

// BaseController is a simple implementation of Controller.
type BaseController struct {
	bucket orm.ModelBucket
}

var _ Controller = BaseController{}

// NewController returns a controller operating on the default bucket.
func NewController() BaseController {
	return BaseController{bucket: NewBucket()}
}

// Balance returns all coins owned by the address. An unknown address has an
// empty balance.
func (c BaseController) Balance(db ledger.ReadOnlyKVStore, addr ledger.Address) (coin.Coins, error) {
	s, err := loadSet(db, c.bucket, addr)
	if err != nil {
		return nil, err
	}
	return s.Coins, nil
}

// MoveCoins moves the given amount from src to dest.
// If src doesn't exist, or doesn't have sufficient
// coins, it fails.
func (c BaseController) MoveCoins(db ledger.KVStore, src, dest ledger.Address, amount coin.Coin) error {
	if !amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non-positive transfer %s", amount)
	}
	if err := amount.Validate(); err != nil {
		return err
	}
	if src.Equals(dest) {
		return errors.Wrap(errors.ErrInput, "source and destination must differ")
	}

	sender, err := loadSet(db, c.bucket, src)
	if err != nil {
		return errors.Wrap(err, "sender")
	}
	if !sender.Coins.Contains(amount) {
		return errors.Wrapf(errors.ErrAmount, "insufficient funds: %s available, %s required",
			sender.Coins.Balance(amount.Ticker), amount)
	}
	if sender.Coins, err = sender.Coins.Subtract(amount); err != nil {
		return err
	}

	recipient, err := loadSet(db, c.bucket, dest)
	if err != nil {
		return errors.Wrap(err, "recipient")
	}
	if recipient.Coins, err = recipient.Coins.Add(amount); err != nil {
		return err
	}

	if err := c.save(db, src, sender); err != nil {
		return err
	}
	return c.save(db, dest, recipient)
}

// IssueCoins attempts to add the given amount of coins to
// the destination address. Fails if it overflows the wallet.
func (c BaseController) IssueCoins(db ledger.KVStore, dest ledger.Address, amount coin.Coin) error {
	recipient, err := loadSet(db, c.bucket, dest)
	if err != nil {
		return err
	}
	if recipient.Coins, err = recipient.Coins.Add(amount); err != nil {
		return err
	}
	return c.save(db, dest, recipient)
}

// save stores the wallet, removing it when it becomes empty.
func (c BaseController) save(db ledger.KVStore, addr ledger.Address, s *Set) error {
	if s.Coins.IsEmpty() {
		if err := c.bucket.Delete(db, addr); err != nil && !errors.ErrNotFound.Is(err) {
			return err
		}
		return nil
	}
	return c.bucket.Put(db, addr, s)
}

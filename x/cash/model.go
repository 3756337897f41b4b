package cash

import (
	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/codec"
	"github.com/refit-labs/ledger/coin"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/orm"
)

// BucketName is where we store the balances
const BucketName = "cash"

// Set is the content of a wallet: all coins owned by an address.
type Set struct {
	Coins coin.Coins `cbor:"1,keyasint,omitempty" json:"coins"`
}

var _ orm.Model = (*Set)(nil)

// Validate requires that all coins are in alphabetical order, unique and
// non negative.
func (s *Set) Validate() error {
	if err := s.Coins.Validate(); err != nil {
		return err
	}
	for _, c := range s.Coins {
		if !c.IsNonNegative() {
			return errors.Wrapf(errors.ErrAmount, "negative balance %s", c)
		}
	}
	return nil
}

func (s *Set) Marshal() ([]byte, error) {
	return codec.Marshal(s)
}

func (s *Set) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, s)
}

// NewBucket returns a bucket storing wallets under their owner address.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket(BucketName, &Set{})
}

// loadSet returns the wallet content stored under given address. A missing
// wallet is an empty set.
func loadSet(db ledger.ReadOnlyKVStore, b orm.ModelBucket, addr ledger.Address) (*Set, error) {
	var s Set
	switch err := b.One(db, addr, &s); {
	case err == nil:
		return &s, nil
	case errors.ErrNotFound.Is(err):
		return &Set{}, nil
	default:
		return nil, err
	}
}

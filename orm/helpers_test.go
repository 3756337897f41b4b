package orm

import (
	"github.com/refit-labs/ledger/codec"
	"github.com/refit-labs/ledger/errors"
)

// Counter is a minimal model used by the tests of this package.
type Counter struct {
	Count int64  `cbor:"1,keyasint,omitempty"`
	Owner []byte `cbor:"2,keyasint,omitempty"`
}

func (c *Counter) Marshal() ([]byte, error) {
	return codec.Marshal(c)
}

func (c *Counter) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, c)
}

func (c *Counter) Validate() error {
	if c.Count < 0 {
		return errors.Wrap(errors.ErrModel, "negative count")
	}
	return nil
}

func counterOwner(obj Object) ([]byte, error) {
	c, ok := obj.Value().(*Counter)
	if !ok {
		return nil, errors.WithType(errors.ErrType, obj.Value())
	}
	return c.Owner, nil
}

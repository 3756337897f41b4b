package cash

import (
	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/codec"
	"github.com/refit-labs/ledger/coin"
	"github.com/refit-labs/ledger/errors"
)

const maxMemoSize = 128

// SendMsg moves the amount from the source to the destination account.
type SendMsg struct {
	Source      ledger.Address `cbor:"1,keyasint,omitempty" json:"source"`
	Destination ledger.Address `cbor:"2,keyasint,omitempty" json:"destination"`
	Amount      coin.Coin      `cbor:"3,keyasint" json:"amount"`
	Memo        string         `cbor:"4,keyasint,omitempty" json:"memo,omitempty"`
}

var _ ledger.Msg = (*SendMsg)(nil)

// Path returns the routing path for this message.
func (SendMsg) Path() string {
	return "cash/send"
}

// Validate makes sure that this is sensible
func (m *SendMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Source", m.Source.Validate())
	errs = errors.AppendField(errs, "Destination", m.Destination.Validate())
	if !m.Amount.IsPositive() {
		errs = errors.AppendField(errs, "Amount", errors.Wrapf(errors.ErrAmount, "non-positive send: %s", m.Amount))
	}
	errs = errors.AppendField(errs, "Amount", m.Amount.Validate())
	if len(m.Memo) > maxMemoSize {
		errs = errors.AppendField(errs, "Memo", errors.Wrapf(errors.ErrInput, "longer than %d", maxMemoSize))
	}
	return errs
}

func (m *SendMsg) Marshal() ([]byte, error) {
	return codec.Marshal(m)
}

func (m *SendMsg) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, m)
}

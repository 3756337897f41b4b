package buyback

import (
	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/codec"
	"github.com/refit-labs/ledger/coin"
	"github.com/refit-labs/ledger/errors"
)

func validateID(id []byte) error {
	if len(id) != IDLen {
		return errors.Field("BuybackID", errors.ErrInput, "must be %d bytes", IDLen)
	}
	return nil
}

// CreateMsg registers a device the owner wants to sell back.
type CreateMsg struct {
	Owner  ledger.Address `cbor:"1,keyasint,omitempty" json:"owner"`
	Device *Device        `cbor:"2,keyasint,omitempty" json:"device"`
	Price  coin.Coin      `cbor:"3,keyasint" json:"price"`
}

var _ ledger.Msg = (*CreateMsg)(nil)

func (CreateMsg) Path() string {
	return "buyback/create"
}

func (m *CreateMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Owner", m.Owner.Validate())
	errs = errors.AppendField(errs, "Device", m.Device.Validate())
	errs = errors.AppendField(errs, "Price", validatePrice(m.Price))
	return errs
}

func (m *CreateMsg) Marshal() ([]byte, error) {
	return codec.Marshal(m)
}

func (m *CreateMsg) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, m)
}

// MarkShippedMsg is sent by the owner once the device is on its way.
type MarkShippedMsg struct {
	BuybackID      []byte `cbor:"1,keyasint,omitempty" json:"buyback_id"`
	TrackingNumber string `cbor:"2,keyasint,omitempty" json:"tracking_number"`
}

var _ ledger.Msg = (*MarkShippedMsg)(nil)

func (MarkShippedMsg) Path() string {
	return "buyback/mark_shipped"
}

func (m *MarkShippedMsg) Validate() error {
	errs := validateID(m.BuybackID)
	return errors.AppendField(errs, "TrackingNumber", text(m.TrackingNumber, maxTrackingLen))
}

func (m *MarkShippedMsg) Marshal() ([]byte, error) {
	return codec.Marshal(m)
}

func (m *MarkShippedMsg) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, m)
}

// CompleteMsg is sent by the platform operator to pay for a received
// device.
type CompleteMsg struct {
	BuybackID []byte `cbor:"1,keyasint,omitempty" json:"buyback_id"`
}

var _ ledger.Msg = (*CompleteMsg)(nil)

func (CompleteMsg) Path() string {
	return "buyback/complete"
}

func (m *CompleteMsg) Validate() error {
	return validateID(m.BuybackID)
}

func (m *CompleteMsg) Marshal() ([]byte, error) {
	return codec.Marshal(m)
}

func (m *CompleteMsg) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, m)
}

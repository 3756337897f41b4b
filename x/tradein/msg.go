package tradein

import (
	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/codec"
	"github.com/refit-labs/ledger/coin"
	"github.com/refit-labs/ledger/errors"
)

// CreateMsg opens a trade-in. It must be signed by the buyer.
type CreateMsg struct {
	Buyer          ledger.Address  `cbor:"1,keyasint,omitempty" json:"buyer"`
	Seller         ledger.Address  `cbor:"2,keyasint,omitempty" json:"seller"`
	PurchaseAmount coin.Coin       `cbor:"3,keyasint" json:"purchase_amount"`
	TradeInValue   coin.Coin       `cbor:"4,keyasint" json:"trade_in_value"`
	Expiry         ledger.UnixTime `cbor:"5,keyasint,omitempty" json:"expiry"`
}

var _ ledger.Msg = (*CreateMsg)(nil)

func (CreateMsg) Path() string {
	return "tradein/create"
}

func (m *CreateMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Buyer", m.Buyer.Validate())
	errs = errors.AppendField(errs, "Seller", m.Seller.Validate())
	if m.Buyer.Equals(m.Seller) {
		errs = errors.Append(errs, errors.Field("Seller", errors.ErrInput, "buyer and seller must differ"))
	}
	errs = errors.AppendField(errs, "PurchaseAmount", validateAmounts(m.PurchaseAmount, m.TradeInValue))
	if m.Expiry <= 0 {
		errs = errors.Append(errs, errors.Field("Expiry", errors.ErrEmpty, "required"))
	}
	return errs
}

func (m *CreateMsg) Marshal() ([]byte, error) {
	return codec.Marshal(m)
}

func (m *CreateMsg) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, m)
}

func validateID(id []byte) error {
	if len(id) != IDLen {
		return errors.Field("TradeInID", errors.ErrInput, "must be %d bytes", IDLen)
	}
	return nil
}

func validateTracking(tracking string) error {
	switch {
	case tracking == "":
		return errors.Field("TrackingNumber", errors.ErrEmpty, "required")
	case len(tracking) > maxTrackingLen:
		return errors.Field("TrackingNumber", errors.ErrInput, "longer than %d", maxTrackingLen)
	}
	return nil
}

// DepositMsg locks the purchase amount of the buyer.
type DepositMsg struct {
	TradeInID []byte `cbor:"1,keyasint,omitempty" json:"trade_in_id"`
}

var _ ledger.Msg = (*DepositMsg)(nil)

func (DepositMsg) Path() string {
	return "tradein/deposit"
}

func (m *DepositMsg) Validate() error {
	return validateID(m.TradeInID)
}

func (m *DepositMsg) Marshal() ([]byte, error) {
	return codec.Marshal(m)
}

func (m *DepositMsg) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, m)
}

// ShipNewMsg is sent by the seller when the new device is shipped.
type ShipNewMsg struct {
	TradeInID      []byte `cbor:"1,keyasint,omitempty" json:"trade_in_id"`
	TrackingNumber string `cbor:"2,keyasint,omitempty" json:"tracking_number"`
}

var _ ledger.Msg = (*ShipNewMsg)(nil)

func (ShipNewMsg) Path() string {
	return "tradein/ship_new"
}

func (m *ShipNewMsg) Validate() error {
	return errors.Append(validateID(m.TradeInID), validateTracking(m.TrackingNumber))
}

func (m *ShipNewMsg) Marshal() ([]byte, error) {
	return codec.Marshal(m)
}

func (m *ShipNewMsg) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, m)
}

// ShipOldMsg is sent by the buyer when the traded device is shipped back.
type ShipOldMsg struct {
	TradeInID      []byte `cbor:"1,keyasint,omitempty" json:"trade_in_id"`
	TrackingNumber string `cbor:"2,keyasint,omitempty" json:"tracking_number"`
}

var _ ledger.Msg = (*ShipOldMsg)(nil)

func (ShipOldMsg) Path() string {
	return "tradein/ship_old"
}

func (m *ShipOldMsg) Validate() error {
	return errors.Append(validateID(m.TradeInID), validateTracking(m.TrackingNumber))
}

func (m *ShipOldMsg) Marshal() ([]byte, error) {
	return codec.Marshal(m)
}

func (m *ShipOldMsg) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, m)
}

// CompleteMsg is sent by the seller after receiving the traded device.
type CompleteMsg struct {
	TradeInID []byte `cbor:"1,keyasint,omitempty" json:"trade_in_id"`
}

var _ ledger.Msg = (*CompleteMsg)(nil)

func (CompleteMsg) Path() string {
	return "tradein/complete"
}

func (m *CompleteMsg) Validate() error {
	return validateID(m.TradeInID)
}

func (m *CompleteMsg) Marshal() ([]byte, error) {
	return codec.Marshal(m)
}

func (m *CompleteMsg) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, m)
}

// CancelMsg closes an expired trade-in. Anyone can send it.
type CancelMsg struct {
	TradeInID []byte `cbor:"1,keyasint,omitempty" json:"trade_in_id"`
}

var _ ledger.Msg = (*CancelMsg)(nil)

func (CancelMsg) Path() string {
	return "tradein/cancel"
}

func (m *CancelMsg) Validate() error {
	return validateID(m.TradeInID)
}

func (m *CancelMsg) Marshal() ([]byte, error) {
	return codec.Marshal(m)
}

func (m *CancelMsg) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, m)
}

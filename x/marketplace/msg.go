package marketplace

import (
	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/codec"
	"github.com/refit-labs/ledger/coin"
	"github.com/refit-labs/ledger/errors"
)

const maxAssetRefLen = 64

func validateID(name string, id []byte) error {
	if len(id) != IDLen {
		return errors.Field(name, errors.ErrInput, "must be %d bytes", IDLen)
	}
	return nil
}

// CreateListingMsg offers a device for sale.
type CreateListingMsg struct {
	Seller       ledger.Address `cbor:"1,keyasint,omitempty" json:"seller"`
	Metadata     *PhoneMetadata `cbor:"2,keyasint,omitempty" json:"metadata"`
	Price        coin.Coin      `cbor:"3,keyasint" json:"price"`
	RequireStake bool           `cbor:"4,keyasint,omitempty" json:"require_stake,omitempty"`
}

var _ ledger.Msg = (*CreateListingMsg)(nil)

func (CreateListingMsg) Path() string {
	return "marketplace/create_listing"
}

func (m *CreateListingMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Seller", m.Seller.Validate())
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if !m.Price.IsPositive() {
		errs = errors.AppendField(errs, "Price", errors.Wrap(errors.ErrAmount, "must be positive"))
	}
	errs = errors.AppendField(errs, "Price", m.Price.Validate())
	return errs
}

func (m *CreateListingMsg) Marshal() ([]byte, error) {
	return codec.Marshal(m)
}

func (m *CreateListingMsg) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, m)
}

// CancelListingMsg withdraws an active listing.
type CancelListingMsg struct {
	ListingID []byte `cbor:"1,keyasint,omitempty" json:"listing_id"`
}

var _ ledger.Msg = (*CancelListingMsg)(nil)

func (CancelListingMsg) Path() string {
	return "marketplace/cancel_listing"
}

func (m *CancelListingMsg) Validate() error {
	return validateID("ListingID", m.ListingID)
}

func (m *CancelListingMsg) Marshal() ([]byte, error) {
	return codec.Marshal(m)
}

func (m *CancelListingMsg) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, m)
}

// SetListingAssetMsg records a reference to the asset minted for the
// listed device.
type SetListingAssetMsg struct {
	ListingID []byte `cbor:"1,keyasint,omitempty" json:"listing_id"`
	AssetRef  []byte `cbor:"2,keyasint,omitempty" json:"asset_ref"`
}

var _ ledger.Msg = (*SetListingAssetMsg)(nil)

func (SetListingAssetMsg) Path() string {
	return "marketplace/set_listing_asset"
}

func (m *SetListingAssetMsg) Validate() error {
	errs := validateID("ListingID", m.ListingID)
	switch n := len(m.AssetRef); {
	case n == 0:
		errs = errors.Append(errs, errors.Field("AssetRef", errors.ErrEmpty, "required"))
	case n > maxAssetRefLen:
		errs = errors.Append(errs, errors.Field("AssetRef", errors.ErrInput, "longer than %d bytes", maxAssetRefLen))
	}
	return errs
}

func (m *SetListingAssetMsg) Marshal() ([]byte, error) {
	return codec.Marshal(m)
}

func (m *SetListingAssetMsg) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, m)
}

// PurchaseMsg buys a listing, locking the price in escrow.
type PurchaseMsg struct {
	ListingID []byte         `cbor:"1,keyasint,omitempty" json:"listing_id"`
	Buyer     ledger.Address `cbor:"2,keyasint,omitempty" json:"buyer"`
}

var _ ledger.Msg = (*PurchaseMsg)(nil)

func (PurchaseMsg) Path() string {
	return "marketplace/purchase"
}

func (m *PurchaseMsg) Validate() error {
	errs := validateID("ListingID", m.ListingID)
	return errors.AppendField(errs, "Buyer", m.Buyer.Validate())
}

func (m *PurchaseMsg) Marshal() ([]byte, error) {
	return codec.Marshal(m)
}

func (m *PurchaseMsg) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, m)
}

// ConfirmShipmentMsg is sent by the seller after handing the device to
// the carrier.
type ConfirmShipmentMsg struct {
	OrderID        []byte `cbor:"1,keyasint,omitempty" json:"order_id"`
	TrackingNumber string `cbor:"2,keyasint,omitempty" json:"tracking_number"`
	Carrier        string `cbor:"3,keyasint,omitempty" json:"carrier"`
}

var _ ledger.Msg = (*ConfirmShipmentMsg)(nil)

func (ConfirmShipmentMsg) Path() string {
	return "marketplace/confirm_shipment"
}

func (m *ConfirmShipmentMsg) Validate() error {
	errs := validateID("OrderID", m.OrderID)
	errs = errors.AppendField(errs, "TrackingNumber", requiredText(m.TrackingNumber, maxTrackingNumberLen))
	errs = errors.AppendField(errs, "Carrier", requiredText(m.Carrier, maxCarrierLen))
	return errs
}

func (m *ConfirmShipmentMsg) Marshal() ([]byte, error) {
	return codec.Marshal(m)
}

func (m *ConfirmShipmentMsg) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, m)
}

// ConfirmDeliveryMsg is sent by the buyer once the device arrived. It
// releases the escrow to the seller.
type ConfirmDeliveryMsg struct {
	OrderID []byte `cbor:"1,keyasint,omitempty" json:"order_id"`
}

var _ ledger.Msg = (*ConfirmDeliveryMsg)(nil)

func (ConfirmDeliveryMsg) Path() string {
	return "marketplace/confirm_delivery"
}

func (m *ConfirmDeliveryMsg) Validate() error {
	return validateID("OrderID", m.OrderID)
}

func (m *ConfirmDeliveryMsg) Marshal() ([]byte, error) {
	return codec.Marshal(m)
}

func (m *ConfirmDeliveryMsg) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, m)
}

// AutoReleaseMsg releases the escrow of a shipped order after the delivery
// deadline passed. Anyone can send it.
type AutoReleaseMsg struct {
	OrderID []byte `cbor:"1,keyasint,omitempty" json:"order_id"`
}

var _ ledger.Msg = (*AutoReleaseMsg)(nil)

func (AutoReleaseMsg) Path() string {
	return "marketplace/auto_release"
}

func (m *AutoReleaseMsg) Validate() error {
	return validateID("OrderID", m.OrderID)
}

func (m *AutoReleaseMsg) Marshal() ([]byte, error) {
	return codec.Marshal(m)
}

func (m *AutoReleaseMsg) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, m)
}

// OpenDisputeMsg freezes an order until an arbiter resolves it.
type OpenDisputeMsg struct {
	OrderID   []byte         `cbor:"1,keyasint,omitempty" json:"order_id"`
	Initiator ledger.Address `cbor:"2,keyasint,omitempty" json:"initiator"`
	Reason    string         `cbor:"3,keyasint,omitempty" json:"reason"`
}

var _ ledger.Msg = (*OpenDisputeMsg)(nil)

func (OpenDisputeMsg) Path() string {
	return "marketplace/open_dispute"
}

func (m *OpenDisputeMsg) Validate() error {
	errs := validateID("OrderID", m.OrderID)
	errs = errors.AppendField(errs, "Initiator", m.Initiator.Validate())
	errs = errors.AppendField(errs, "Reason", requiredText(m.Reason, maxReasonLen))
	return errs
}

func (m *OpenDisputeMsg) Marshal() ([]byte, error) {
	return codec.Marshal(m)
}

func (m *OpenDisputeMsg) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, m)
}

// ResolveDisputeMsg closes an open dispute with the arbiter decision.
type ResolveDisputeMsg struct {
	DisputeID  []byte      `cbor:"1,keyasint,omitempty" json:"dispute_id"`
	Resolution *Resolution `cbor:"2,keyasint,omitempty" json:"resolution"`
}

var _ ledger.Msg = (*ResolveDisputeMsg)(nil)

func (ResolveDisputeMsg) Path() string {
	return "marketplace/resolve_dispute"
}

func (m *ResolveDisputeMsg) Validate() error {
	errs := validateID("DisputeID", m.DisputeID)
	if m.Resolution == nil {
		return errors.Append(errs, errors.Field("Resolution", errors.ErrEmpty, "required"))
	}
	return errors.AppendField(errs, "Resolution", m.Resolution.Validate())
}

func (m *ResolveDisputeMsg) Marshal() ([]byte, error) {
	return codec.Marshal(m)
}

func (m *ResolveDisputeMsg) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, m)
}

// UpdateConfigurationMsg patches the marketplace configuration. Only non
// zero fields of the patch are applied.
type UpdateConfigurationMsg struct {
	Patch *Configuration `cbor:"1,keyasint,omitempty" json:"patch"`
}

var _ ledger.Msg = (*UpdateConfigurationMsg)(nil)

func (UpdateConfigurationMsg) Path() string {
	return "marketplace/update_configuration"
}

func (m *UpdateConfigurationMsg) Validate() error {
	if m.Patch == nil {
		return errors.Field("Patch", errors.ErrEmpty, "required")
	}
	var errs error
	if m.Patch.Owner != nil {
		errs = errors.AppendField(errs, "Patch.Owner", m.Patch.Owner.Validate())
	}
	if m.Patch.FeeCollector != nil {
		errs = errors.AppendField(errs, "Patch.FeeCollector", m.Patch.FeeCollector.Validate())
	}
	if m.Patch.Currency != "" && !coin.IsCC(m.Patch.Currency) {
		errs = errors.Append(errs, errors.Field("Patch.Currency", errors.ErrCurrency, "invalid ticker"))
	}
	if m.Patch.ShippingWindow < 0 || m.Patch.DeliveryWindow < 0 {
		errs = errors.Append(errs, errors.Wrap(errors.ErrInput, "negative patch value"))
	}
	if m.Patch.Arbiter != nil {
		errs = errors.AppendField(errs, "Patch.Arbiter", m.Patch.Arbiter.Validate())
	}
	return errs
}

func (m *UpdateConfigurationMsg) Marshal() ([]byte, error) {
	return codec.Marshal(m)
}

func (m *UpdateConfigurationMsg) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, m)
}

package refitd

import (
	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/x/buyback"
	"github.com/refit-labs/ledger/x/cash"
	"github.com/refit-labs/ledger/x/marketplace"
	"github.com/refit-labs/ledger/x/multisig"
	"github.com/refit-labs/ledger/x/tradein"
)

// Sum is the union of all messages the application understands. Exactly
// one field must be set.
type Sum struct {
	SendMsg *cash.SendMsg `cbor:"1,keyasint,omitempty" json:"send_msg,omitempty"`

	CreateContractMsg *multisig.CreateMsg `cbor:"10,keyasint,omitempty" json:"create_contract_msg,omitempty"`
	UpdateContractMsg *multisig.UpdateMsg `cbor:"11,keyasint,omitempty" json:"update_contract_msg,omitempty"`

	CreateListingMsg           *marketplace.CreateListingMsg       `cbor:"20,keyasint,omitempty" json:"create_listing_msg,omitempty"`
	CancelListingMsg           *marketplace.CancelListingMsg       `cbor:"21,keyasint,omitempty" json:"cancel_listing_msg,omitempty"`
	SetListingAssetMsg         *marketplace.SetListingAssetMsg     `cbor:"22,keyasint,omitempty" json:"set_listing_asset_msg,omitempty"`
	PurchaseMsg                *marketplace.PurchaseMsg            `cbor:"23,keyasint,omitempty" json:"purchase_msg,omitempty"`
	ConfirmShipmentMsg         *marketplace.ConfirmShipmentMsg     `cbor:"24,keyasint,omitempty" json:"confirm_shipment_msg,omitempty"`
	ConfirmDeliveryMsg         *marketplace.ConfirmDeliveryMsg     `cbor:"25,keyasint,omitempty" json:"confirm_delivery_msg,omitempty"`
	AutoReleaseMsg             *marketplace.AutoReleaseMsg         `cbor:"26,keyasint,omitempty" json:"auto_release_msg,omitempty"`
	OpenDisputeMsg             *marketplace.OpenDisputeMsg         `cbor:"27,keyasint,omitempty" json:"open_dispute_msg,omitempty"`
	ResolveDisputeMsg          *marketplace.ResolveDisputeMsg      `cbor:"28,keyasint,omitempty" json:"resolve_dispute_msg,omitempty"`
	UpdateMarketplaceConfigMsg *marketplace.UpdateConfigurationMsg `cbor:"29,keyasint,omitempty" json:"update_marketplace_config_msg,omitempty"`

	CreateTradeInMsg   *tradein.CreateMsg   `cbor:"40,keyasint,omitempty" json:"create_trade_in_msg,omitempty"`
	DepositTradeInMsg  *tradein.DepositMsg  `cbor:"41,keyasint,omitempty" json:"deposit_trade_in_msg,omitempty"`
	ShipNewPhoneMsg    *tradein.ShipNewMsg  `cbor:"42,keyasint,omitempty" json:"ship_new_phone_msg,omitempty"`
	ShipOldPhoneMsg    *tradein.ShipOldMsg  `cbor:"43,keyasint,omitempty" json:"ship_old_phone_msg,omitempty"`
	CompleteTradeInMsg *tradein.CompleteMsg `cbor:"44,keyasint,omitempty" json:"complete_trade_in_msg,omitempty"`
	CancelTradeInMsg   *tradein.CancelMsg   `cbor:"45,keyasint,omitempty" json:"cancel_trade_in_msg,omitempty"`

	CreateBuybackMsg      *buyback.CreateMsg      `cbor:"60,keyasint,omitempty" json:"create_buyback_msg,omitempty"`
	MarkBuybackShippedMsg *buyback.MarkShippedMsg `cbor:"61,keyasint,omitempty" json:"mark_buyback_shipped_msg,omitempty"`
	CompleteBuybackMsg    *buyback.CompleteMsg    `cbor:"62,keyasint,omitempty" json:"complete_buyback_msg,omitempty"`
}

// Msg returns the single message carried by the union.
func (s *Sum) Msg() (ledger.Msg, error) {
	if s == nil {
		return nil, errors.Wrap(errors.ErrMsg, "no message")
	}
	var msgs []ledger.Msg
	add := func(set bool, m ledger.Msg) {
		if set {
			msgs = append(msgs, m)
		}
	}
	add(s.SendMsg != nil, s.SendMsg)
	add(s.CreateContractMsg != nil, s.CreateContractMsg)
	add(s.UpdateContractMsg != nil, s.UpdateContractMsg)
	add(s.CreateListingMsg != nil, s.CreateListingMsg)
	add(s.CancelListingMsg != nil, s.CancelListingMsg)
	add(s.SetListingAssetMsg != nil, s.SetListingAssetMsg)
	add(s.PurchaseMsg != nil, s.PurchaseMsg)
	add(s.ConfirmShipmentMsg != nil, s.ConfirmShipmentMsg)
	add(s.ConfirmDeliveryMsg != nil, s.ConfirmDeliveryMsg)
	add(s.AutoReleaseMsg != nil, s.AutoReleaseMsg)
	add(s.OpenDisputeMsg != nil, s.OpenDisputeMsg)
	add(s.ResolveDisputeMsg != nil, s.ResolveDisputeMsg)
	add(s.UpdateMarketplaceConfigMsg != nil, s.UpdateMarketplaceConfigMsg)
	add(s.CreateTradeInMsg != nil, s.CreateTradeInMsg)
	add(s.DepositTradeInMsg != nil, s.DepositTradeInMsg)
	add(s.ShipNewPhoneMsg != nil, s.ShipNewPhoneMsg)
	add(s.ShipOldPhoneMsg != nil, s.ShipOldPhoneMsg)
	add(s.CompleteTradeInMsg != nil, s.CompleteTradeInMsg)
	add(s.CancelTradeInMsg != nil, s.CancelTradeInMsg)
	add(s.CreateBuybackMsg != nil, s.CreateBuybackMsg)
	add(s.MarkBuybackShippedMsg != nil, s.MarkBuybackShippedMsg)
	add(s.CompleteBuybackMsg != nil, s.CompleteBuybackMsg)

	switch len(msgs) {
	case 0:
		return nil, errors.Wrap(errors.ErrMsg, "no message")
	case 1:
		return msgs[0], nil
	default:
		return nil, errors.Wrapf(errors.ErrMsg, "%d messages in one union", len(msgs))
	}
}

// NewSum returns a union carrying given message.
func NewSum(msg ledger.Msg) (*Sum, error) {
	var s Sum
	switch m := msg.(type) {
	case *cash.SendMsg:
		s.SendMsg = m
	case *multisig.CreateMsg:
		s.CreateContractMsg = m
	case *multisig.UpdateMsg:
		s.UpdateContractMsg = m
	case *marketplace.CreateListingMsg:
		s.CreateListingMsg = m
	case *marketplace.CancelListingMsg:
		s.CancelListingMsg = m
	case *marketplace.SetListingAssetMsg:
		s.SetListingAssetMsg = m
	case *marketplace.PurchaseMsg:
		s.PurchaseMsg = m
	case *marketplace.ConfirmShipmentMsg:
		s.ConfirmShipmentMsg = m
	case *marketplace.ConfirmDeliveryMsg:
		s.ConfirmDeliveryMsg = m
	case *marketplace.AutoReleaseMsg:
		s.AutoReleaseMsg = m
	case *marketplace.OpenDisputeMsg:
		s.OpenDisputeMsg = m
	case *marketplace.ResolveDisputeMsg:
		s.ResolveDisputeMsg = m
	case *marketplace.UpdateConfigurationMsg:
		s.UpdateMarketplaceConfigMsg = m
	case *tradein.CreateMsg:
		s.CreateTradeInMsg = m
	case *tradein.DepositMsg:
		s.DepositTradeInMsg = m
	case *tradein.ShipNewMsg:
		s.ShipNewPhoneMsg = m
	case *tradein.ShipOldMsg:
		s.ShipOldPhoneMsg = m
	case *tradein.CompleteMsg:
		s.CompleteTradeInMsg = m
	case *tradein.CancelMsg:
		s.CancelTradeInMsg = m
	case *buyback.CreateMsg:
		s.CreateBuybackMsg = m
	case *buyback.MarkShippedMsg:
		s.MarkBuybackShippedMsg = m
	case *buyback.CompleteMsg:
		s.CompleteBuybackMsg = m
	default:
		return nil, errors.Wrapf(errors.ErrType, "unsupported message %T", msg)
	}
	return &s, nil
}

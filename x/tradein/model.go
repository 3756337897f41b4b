package tradein

import (
	"fmt"

	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/codec"
	"github.com/refit-labs/ledger/coin"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/orm"
)

// State is the lifecycle state of a trade-in.
type State int32

const (
	AwaitingPayment State = iota + 1
	FundsDeposited
	NewPhoneShipped
	OldPhoneShipped
	Completed
	Cancelled
)

var stateNames = map[State]string{
	AwaitingPayment: "awaiting_payment",
	FundsDeposited:  "funds_deposited",
	NewPhoneShipped: "new_phone_shipped",
	OldPhoneShipped: "old_phone_shipped",
	Completed:       "completed",
	Cancelled:       "cancelled",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("State(%d)", s)
}

func (s State) Validate() error {
	if _, ok := stateNames[s]; !ok {
		return errors.Wrapf(errors.ErrState, "invalid state %d", s)
	}
	return nil
}

// IsTerminal returns true for states that cannot change anymore.
func (s State) IsTerminal() bool {
	return s == Completed || s == Cancelled
}

const maxTrackingLen = 50

// TradeIn is a purchase escrow with a device given back in exchange.
type TradeIn struct {
	ID             []byte          `cbor:"1,keyasint,omitempty" json:"id"`
	Buyer          ledger.Address  `cbor:"2,keyasint,omitempty" json:"buyer"`
	Seller         ledger.Address  `cbor:"3,keyasint,omitempty" json:"seller"`
	PurchaseAmount coin.Coin       `cbor:"4,keyasint" json:"purchase_amount"`
	TradeInValue   coin.Coin       `cbor:"5,keyasint" json:"trade_in_value"`
	Expiry         ledger.UnixTime `cbor:"6,keyasint,omitempty" json:"expiry"`
	State          State           `cbor:"7,keyasint,omitempty" json:"state"`
	CreatedAt      ledger.UnixTime `cbor:"8,keyasint,omitempty" json:"created_at"`
	// Custody holds the deposited purchase amount.
	Custody          ledger.Address `cbor:"9,keyasint,omitempty" json:"custody"`
	NewPhoneTracking string         `cbor:"10,keyasint,omitempty" json:"new_phone_tracking,omitempty"`
	OldPhoneTracking string         `cbor:"11,keyasint,omitempty" json:"old_phone_tracking,omitempty"`
}

var _ orm.Model = (*TradeIn)(nil)

func (t *TradeIn) Validate() error {
	var errs error
	if len(t.ID) != IDLen {
		errs = errors.AppendField(errs, "ID", errors.Wrapf(errors.ErrInput, "must be %d bytes", IDLen))
	}
	errs = errors.AppendField(errs, "Buyer", t.Buyer.Validate())
	errs = errors.AppendField(errs, "Seller", t.Seller.Validate())
	errs = errors.AppendField(errs, "PurchaseAmount", validateAmounts(t.PurchaseAmount, t.TradeInValue))
	errs = errors.AppendField(errs, "Expiry", t.Expiry.Validate())
	errs = errors.AppendField(errs, "State", t.State.Validate())
	errs = errors.AppendField(errs, "CreatedAt", t.CreatedAt.Validate())
	errs = errors.AppendField(errs, "Custody", t.Custody.Validate())
	if len(t.NewPhoneTracking) > maxTrackingLen {
		errs = errors.AppendField(errs, "NewPhoneTracking", errors.Wrapf(errors.ErrInput, "longer than %d", maxTrackingLen))
	}
	if len(t.OldPhoneTracking) > maxTrackingLen {
		errs = errors.AppendField(errs, "OldPhoneTracking", errors.Wrapf(errors.ErrInput, "longer than %d", maxTrackingLen))
	}
	return errs
}

func validateAmounts(purchase, tradeIn coin.Coin) error {
	if !purchase.IsPositive() {
		return errors.Wrap(errors.ErrAmount, "purchase amount must be positive")
	}
	if err := purchase.Validate(); err != nil {
		return err
	}
	if !tradeIn.IsNonNegative() {
		return errors.Wrap(errors.ErrAmount, "negative trade-in value")
	}
	if !tradeIn.SameType(purchase) {
		return errors.Wrap(errors.ErrCurrency, "trade-in value and purchase amount currency differ")
	}
	if !purchase.IsGTE(tradeIn) {
		return errors.Wrap(errors.ErrAmount, "trade-in value above purchase amount")
	}
	return nil
}

func (t *TradeIn) Marshal() ([]byte, error) {
	return codec.Marshal(t)
}

func (t *TradeIn) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, t)
}

// IDLen is the length of a trade-in ID.
const IDLen = 32

// TradeInID returns the ID of a trade-in between two parties. There can be
// only one trade-in for the same buyer and seller.
func TradeInID(buyer, seller ledger.Address) []byte {
	id := make([]byte, IDLen)
	copy(id[:16], buyer)
	copy(id[16:], seller)
	return id
}

// CustodyAddress returns the address holding the deposit of a trade-in.
func CustodyAddress(id []byte) ledger.Address {
	return ledger.NewCondition("tradein", "escrow", id).Address()
}

// NewBucket returns a bucket storing trade-ins, indexed by both parties.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket("tradeins", &TradeIn{},
		orm.WithIndex("buyer", func(obj orm.Object) ([]byte, error) {
			t, ok := obj.Value().(*TradeIn)
			if !ok {
				return nil, errors.WithType(errors.ErrType, obj.Value())
			}
			return t.Buyer, nil
		}, false),
		orm.WithIndex("seller", func(obj orm.Object) ([]byte, error) {
			t, ok := obj.Value().(*TradeIn)
			if !ok {
				return nil, errors.WithType(errors.ErrType, obj.Value())
			}
			return t.Seller, nil
		}, false),
	)
}

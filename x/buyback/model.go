package buyback

import (
	"fmt"

	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/codec"
	"github.com/refit-labs/ledger/coin"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/orm"
)

// Status is the lifecycle status of a buyback request.
type Status int32

const (
	PendingShipment Status = iota + 1
	Shipped
	Completed
	// Cancelled is reserved and not reachable by any message yet.
	Cancelled
)

var statusNames = map[Status]string{
	PendingShipment: "pending_shipment",
	Shipped:         "shipped",
	Completed:       "completed",
	Cancelled:       "cancelled",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Status(%d)", s)
}

func (s Status) Validate() error {
	if _, ok := statusNames[s]; !ok {
		return errors.Wrapf(errors.ErrState, "invalid status %d", s)
	}
	return nil
}

const (
	maxModelLen     = 50
	maxConditionLen = 20
	maxStorageLen   = 10
	maxTrackingLen  = 50
)

// Device describes the device sold back.
type Device struct {
	Model     string `cbor:"1,keyasint,omitempty" json:"model"`
	Condition string `cbor:"2,keyasint,omitempty" json:"condition"`
	Storage   string `cbor:"3,keyasint,omitempty" json:"storage"`
}

func (d *Device) Validate() error {
	if d == nil {
		return errors.Wrap(errors.ErrEmpty, "device")
	}
	var errs error
	errs = errors.AppendField(errs, "Model", text(d.Model, maxModelLen))
	errs = errors.AppendField(errs, "Condition", text(d.Condition, maxConditionLen))
	errs = errors.AppendField(errs, "Storage", text(d.Storage, maxStorageLen))
	return errs
}

func text(s string, limit int) error {
	switch {
	case s == "":
		return errors.Wrap(errors.ErrEmpty, "required")
	case len(s) > limit:
		return errors.Wrapf(errors.ErrInput, "longer than %d", limit)
	}
	return nil
}

// Buyback is a request of an owner to sell a device to the platform.
type Buyback struct {
	ID             []byte          `cbor:"1,keyasint,omitempty" json:"id"`
	Owner          ledger.Address  `cbor:"2,keyasint,omitempty" json:"owner"`
	Device         *Device         `cbor:"3,keyasint,omitempty" json:"device"`
	Price          coin.Coin       `cbor:"4,keyasint" json:"price"`
	Status         Status          `cbor:"5,keyasint,omitempty" json:"status"`
	CreatedAt      ledger.UnixTime `cbor:"6,keyasint,omitempty" json:"created_at"`
	TrackingNumber string          `cbor:"7,keyasint,omitempty" json:"tracking_number,omitempty"`
}

var _ orm.Model = (*Buyback)(nil)

func (b *Buyback) Validate() error {
	var errs error
	if len(b.ID) != IDLen {
		errs = errors.AppendField(errs, "ID", errors.Wrapf(errors.ErrInput, "must be %d bytes", IDLen))
	}
	errs = errors.AppendField(errs, "Owner", b.Owner.Validate())
	errs = errors.AppendField(errs, "Device", b.Device.Validate())
	errs = errors.AppendField(errs, "Price", validatePrice(b.Price))
	errs = errors.AppendField(errs, "Status", b.Status.Validate())
	errs = errors.AppendField(errs, "CreatedAt", b.CreatedAt.Validate())
	if len(b.TrackingNumber) > maxTrackingLen {
		errs = errors.AppendField(errs, "TrackingNumber", errors.Wrapf(errors.ErrInput, "longer than %d", maxTrackingLen))
	}
	if b.Status != PendingShipment && b.TrackingNumber == "" {
		errs = errors.AppendField(errs, "TrackingNumber", errors.Wrap(errors.ErrEmpty, "required once shipped"))
	}
	return errs
}

func validatePrice(c coin.Coin) error {
	if !c.IsPositive() {
		return errors.Wrap(errors.ErrAmount, "must be positive")
	}
	return c.Validate()
}

func (b *Buyback) Marshal() ([]byte, error) {
	return codec.Marshal(b)
}

func (b *Buyback) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, b)
}

// IDLen is the length of a buyback ID.
const IDLen = 8

// BuybackID returns the ID of the buyback of an owner. An owner can have
// a single buyback.
func BuybackID(owner ledger.Address) []byte {
	id := make([]byte, IDLen)
	copy(id, owner)
	return id
}

// NewBucket returns a bucket storing buybacks.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket("buybacks", &Buyback{},
		orm.WithIndex("owner", func(obj orm.Object) ([]byte, error) {
			b, ok := obj.Value().(*Buyback)
			if !ok {
				return nil, errors.WithType(errors.ErrType, obj.Value())
			}
			return b.Owner, nil
		}, false),
	)
}

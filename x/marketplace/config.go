package marketplace

import (
	"time"

	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/codec"
	"github.com/refit-labs/ledger/coin"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/gconf"
)

const (
	// ConfigPkg is the name under which the configuration is stored.
	ConfigPkg = "marketplace"

	DefaultShippingWindow = 7 * 24 * time.Hour
	DefaultDeliveryWindow = 10 * 24 * time.Hour
)

// Configuration holds the marketplace settings. Zero durations mean the
// default value.
type Configuration struct {
	Owner ledger.Address `cbor:"1,keyasint,omitempty" json:"owner"`
	// FeeCollector is the platform wallet receiving the fees.
	FeeCollector   ledger.Address      `cbor:"2,keyasint,omitempty" json:"fee_collector"`
	Currency       string              `cbor:"3,keyasint,omitempty" json:"currency"`
	ShippingWindow ledger.UnixDuration `cbor:"4,keyasint,omitempty" json:"shipping_window,omitempty"`
	DeliveryWindow ledger.UnixDuration `cbor:"5,keyasint,omitempty" json:"delivery_window,omitempty"`
	Arbiter        *ArbiterPolicy      `cbor:"7,keyasint,omitempty" json:"arbiter,omitempty"`
}

var _ gconf.OwnedConfig = (*Configuration)(nil)

func (c *Configuration) Validate() error {
	var errs error
	if c.Owner != nil {
		errs = errors.AppendField(errs, "Owner", c.Owner.Validate())
	}
	errs = errors.AppendField(errs, "FeeCollector", c.FeeCollector.Validate())
	if !coin.IsCC(c.Currency) {
		errs = errors.AppendField(errs, "Currency", errors.Wrapf(errors.ErrCurrency, "invalid ticker %q", c.Currency))
	}
	if c.ShippingWindow < 0 {
		errs = errors.AppendField(errs, "ShippingWindow", errors.Wrap(errors.ErrInput, "negative"))
	}
	if c.DeliveryWindow < 0 {
		errs = errors.AppendField(errs, "DeliveryWindow", errors.Wrap(errors.ErrInput, "negative"))
	}
	if c.Arbiter == nil {
		errs = errors.AppendField(errs, "Arbiter", errors.Wrap(errors.ErrEmpty, "required"))
	} else {
		errs = errors.AppendField(errs, "Arbiter", c.Arbiter.Validate())
	}
	return errs
}

func (c *Configuration) Marshal() ([]byte, error) {
	return codec.Marshal(c)
}

func (c *Configuration) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, c)
}

func (c *Configuration) GetOwner() ledger.Address {
	return c.Owner
}

// ShippingTimeout returns how long a seller has to ship after a purchase.
func (c *Configuration) ShippingTimeout() time.Duration {
	if c.ShippingWindow == 0 {
		return DefaultShippingWindow
	}
	return c.ShippingWindow.Duration()
}

// DeliveryTimeout returns how long a buyer has to confirm the delivery
// before the funds can be released without them.
func (c *Configuration) DeliveryTimeout() time.Duration {
	if c.DeliveryWindow == 0 {
		return DefaultDeliveryWindow
	}
	return c.DeliveryWindow.Duration()
}

func loadConf(db gconf.ReadStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, ConfigPkg, &conf); err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	return &conf, nil
}

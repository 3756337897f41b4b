package ledger

import (
	"encoding/json"

	"github.com/refit-labs/ledger/errors"
	common "github.com/tendermint/tendermint/libs/common"
)

// Handler is a core engine that can process a few specific messages
// This could represent "create a listing", or "release escrow funds"
type Handler interface {
	Checker
	Deliverer
}

// Checker is a subset of Handler to verify the validity of a transaction.
// It is its own interface to allow better type controls in the next
// arguments in Decorator
type Checker interface {
	Check(ctx Context, store KVStore, tx Tx) (*CheckResult, error)
}

// Deliverer is a subset of Handler to execute a transaction.
// It is its own interface to allow better type controls in the next
// arguments in Decorator
type Deliverer interface {
	Deliver(ctx Context, store KVStore, tx Tx) (*DeliverResult, error)
}

// Decorator wraps a Handler to provide common functionality
// like authentication, or logging, to many Handlers
type Decorator interface {
	Check(ctx Context, store KVStore, tx Tx, next Checker) (*CheckResult, error)
	Deliver(ctx Context, store KVStore, tx Tx, next Deliverer) (*DeliverResult, error)
}

// Registry is an interface to register your handler,
// the setup side of a Router
type Registry interface {
	Handle(path string, h Handler)
}

// CheckResult captures any non-error return value from a CheckTx call.
type CheckResult struct {
	// Data is a machine-parseable return value
	Data []byte
	// Log is human-readable informational string
	Log string
	// GasAllocated is the maximum units of work we allow this tx to perform
	GasAllocated int64
	// GasPayment is the total fees for this tx
	GasPayment int64
}

// DeliverResult captures any non-error return value from a DeliverTx call.
type DeliverResult struct {
	// Data is a machine-parseable return value, like the id of a newly
	// created record
	Data []byte
	// Log is human-readable informational string
	Log string
	// Tags are used to index the transaction, for example by the
	// identifiers of all records it touched
	Tags []KVPair
	// GasUsed is the amount of gas actually consumed
	GasUsed int64
}

// KVPair is a single event tag.
type KVPair = common.KVPair

// Tag returns a key-value pair used for indexing a delivered transaction.
func Tag(key string, value []byte) KVPair {
	return KVPair{Key: []byte(key), Value: value}
}

// Options are the app options
// Each extension can look up it's key and parse the json as desired
type Options map[string]json.RawMessage

// ReadOptions reads the values stored under a given key,
// and parses the json into the given obj.
// Returns an error if it cannot parse.
// Noop and no error if key is missing
func (o Options) ReadOptions(key string, obj interface{}) error {
	msg := o[key]
	if len(msg) == 0 {
		return nil
	}
	if err := json.Unmarshal(msg, obj); err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot read %q options: %s", key, err)
	}
	return nil
}

// Stream expects an array of json elements and allows to process them one
// by one.
func (o Options) Stream(key string) func(interface{}) error {
	var raw []json.RawMessage
	if err := o.ReadOptions(key, &raw); err != nil {
		return func(interface{}) error { return err }
	}
	return func(obj interface{}) error {
		if len(raw) == 0 {
			return errors.ErrEmpty
		}
		head := raw[0]
		raw = raw[1:]
		if err := json.Unmarshal(head, obj); err != nil {
			return errors.Wrapf(errors.ErrInput, "cannot read %q element: %s", key, err)
		}
		return nil
	}
}

// Initializer implementations are used to initialize
// extensions from genesis file contents
type Initializer interface {
	FromGenesis(Options, KVStore) error
}

// ChainInitializer lets you initialize many extensions with one function
type ChainInitializer struct {
	inits []Initializer
}

var _ Initializer = ChainInitializer{}

// ChainInitializers allows you to initialize many extensions with one
// function, processing them in the given order.
func ChainInitializers(inits ...Initializer) ChainInitializer {
	return ChainInitializer{inits}
}

// FromGenesis passes the options to every initializer in order
func (c ChainInitializer) FromGenesis(opts Options, kv KVStore) error {
	for _, i := range c.inits {
		if err := i.FromGenesis(opts, kv); err != nil {
			return err
		}
	}
	return nil
}

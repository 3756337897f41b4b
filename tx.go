package ledger

import (
	"reflect"
	"regexp"

	"github.com/refit-labs/ledger/errors"
)

// Msg is message for the ledger to take an action
// (Make a state transition). It is just the request, and
// must be validated by the Handlers. All authentication
// information is in the wrapping Tx.
type Msg interface {
	Persistent

	// Path returns the message path.
	// This is used by the Router to locate the proper Handler.
	// Msg should be created alongside the Handler that corresponds to them.
	//
	// Multiple types may have the same value, and will end up at the
	// same Handler.
	//
	// Must be alphanumeric [0-9A-Za-z_\-/]+
	Path() string

	// Validate performs a sanity checks on this message. It returns an
	// error if at least one of the checks failed.
	Validate() error
}

// IsValidPath is the RegExp to ensure a valid message path
var IsValidPath = regexp.MustCompile(`^[0-9A-Za-z_\-/]+$`).MatchString

// Marshaller is anything that can be represented in binary
//
// Marshall may validate the data before serializing it and
// unless you previously validated the struct,
// errors should be expected.
type Marshaller interface {
	Marshal() ([]byte, error)
}

// Persistent supports Marshal and Unmarshal
//
// This is separated from Marshal, as this almost always requires
// a pointer, and functions that only need to marshal bytes can
// use the Marshaller interface to access non-pointers.
//
// As with Marshaller, this may do internal validation on the data
// and errors should be expected.
type Persistent interface {
	Marshaller
	Unmarshal([]byte) error
}

// Tx represent the data sent from the user to the chain.
// It includes the actual message, along with information needed
// to authenticate the sender (cryptographic signatures),
// and anything else needed to pass through middleware.
//
// Each Application must define their own tx type, which
// embeds all the middlewares that we wish to use.
// sigs.SignedTx and multisig.MultiSigTx are common interfaces that
// many apps will wish to support.
type Tx interface {
	Persistent

	// GetMsg returns the action we wish to communicate
	GetMsg() (Msg, error)
}

// GetPath returns the path of the message, or (missing) if no message
func GetPath(tx Tx) string {
	msg, err := tx.GetMsg()
	if err == nil && msg != nil {
		return msg.Path()
	}
	return "(missing)"
}

// TxDecoder can parse bytes into a Tx
type TxDecoder func(txBytes []byte) (Tx, error)

// LoadMsg extracts the message represented by given transaction into given
// destination. Before returning message validation method is called.
func LoadMsg(tx Tx, destination interface{}) error {
	msg, err := tx.GetMsg()
	if err != nil {
		return errors.Wrap(err, "cannot get transaction message")
	}

	// Destination must be a pointer to the same type as the message
	// declared by the transaction.
	if err := setMsg(destination, msg); err != nil {
		return err
	}

	if err := msg.Validate(); err != nil {
		return errors.Wrap(err, "invalid message")
	}
	return nil
}

func setMsg(dest, src interface{}) error {
	if src == nil {
		return errors.Wrap(errors.ErrMsg, "no message")
	}
	srcVal := reflect.ValueOf(src)
	destVal := reflect.ValueOf(dest)
	if destVal.Kind() != reflect.Ptr || destVal.IsNil() {
		return errors.Wrap(errors.ErrType, "destination must be a non nil pointer")
	}
	destElem := destVal.Elem()

	if srcVal.Kind() == reflect.Ptr && !srcVal.IsNil() && srcVal.Type() == destVal.Type() {
		destElem.Set(srcVal.Elem())
		return nil
	}
	if srcVal.Type() == destElem.Type() {
		destElem.Set(srcVal)
		return nil
	}
	return errors.Wrapf(errors.ErrType, "want %T message, got %T", dest, src)
}

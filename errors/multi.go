package errors

import (
	"fmt"
	"strings"
)

// Append clubs together all provided errors. Nil values are ignored.
//
// If all provided errors are nil, then nil is returned. If only one error is
// not nil, that error is returned as it is. Otherwise a multi error that holds
// all of them is returned. Nested multi errors are flattened.
func Append(errs ...error) error {
	var res multiErr
	for _, err := range errs {
		if isNilErr(err) {
			continue
		}
		if m, ok := err.(multiErr); ok {
			res = append(res, m...)
		} else {
			res = append(res, err)
		}
	}

	switch len(res) {
	case 0:
		return nil
	case 1:
		return res[0]
	default:
		return res
	}
}

type multiErr []error

func (errs multiErr) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d errors occurred:\n\t* %s", len(errs), strings.Join(msgs, "\n\t* "))
}

// Unpack returns all errors that this multi error contains.
func (errs multiErr) Unpack() []error {
	return errs
}

// Code returns the code of the first error that provides one. This is
// consistent with the fail fast approach, where the first failure is the
// most relevant.
func (errs multiErr) Code() uint32 {
	for _, e := range errs {
		if c := errCode(e); c != internalCode {
			return c
		}
	}
	return internalCode
}

// unpacker is implemented by errors that are a collection of other errors.
type unpacker interface {
	Unpack() []error
}

// Package codec is the binary serialization used for every persisted model,
// message and transaction envelope of the ledger.
//
// Values are encoded as CBOR with Core Deterministic Encoding (RFC 8949
// §4.2): sorted map keys, smallest integer encoding, no indefinite-length
// items. The same logical value always produces identical bytes, which the
// signature and state hashing code depends on.
package codec

import (
	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Duplicate map keys would allow two encodings of one value.
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
		// Persisted records are never larger than a few kilobytes.
		MaxArrayElements: 4096,
		MaxMapPairs:      4096,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v interface{}) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v interface{}) error {
	return decMode.Unmarshal(data, v)
}

// RawMessage is a raw encoded CBOR value. It can be used to delay decoding
// of a part of a structure, for example a message inside of an envelope.
type RawMessage = cbor.RawMessage

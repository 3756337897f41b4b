package ledgertest

import (
	"encoding/binary"
	"sync/atomic"
	"testing"

	"github.com/refit-labs/ledger"
)

var condSeq uint64

// NewCondition returns a unique condition, usable as a test signer. Each call
// returns a different value.
func NewCondition() ledger.Condition {
	seq := atomic.AddUint64(&condSeq, 1)
	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, seq)
	return ledger.NewCondition("test", "seq", data)
}

// ParseAddress takes an address in a human readable format and returns its
// binary representation.
func ParseAddress(t testing.TB, encodedAddress string) ledger.Address {
	t.Helper()

	addr, err := ledger.ParseAddress(encodedAddress)
	if err != nil {
		t.Fatalf("cannot parse %q address: %s", encodedAddress, err)
	}
	return addr
}

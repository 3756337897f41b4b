package marketplace

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/ledgertest"
	"github.com/refit-labs/ledger/ledgertest/assert"
)

func TestListingID(t *testing.T) {
	seller := ledgertest.NewCondition().Address()
	id := ListingID(seller, 1700000000)

	assert.Equal(t, IDLen, len(id))
	if !bytes.Equal(id[:20], seller) {
		t.Fatalf("seller not in the prefix: %X", id)
	}
	if !bytes.Equal(id[20:24], make([]byte, 4)) {
		t.Fatalf("want zero padding: %X", id)
	}
	assert.Equal(t, uint64(1700000000), binary.LittleEndian.Uint64(id[24:]))

	if bytes.Equal(id, ListingID(seller, 1700000001)) {
		t.Fatal("different time must produce a different ID")
	}
	if !bytes.Equal(id, ListingID(seller, 1700000000)) {
		t.Fatal("derivation must be deterministic")
	}
}

func TestOrderID(t *testing.T) {
	listing := ListingID(ledgertest.NewCondition().Address(), 1)
	buyer := ledgertest.NewCondition().Address()

	id := OrderID(listing, buyer)
	assert.Equal(t, IDLen, len(id))
	if !bytes.Equal(id[:16], listing[:16]) {
		t.Fatalf("listing prefix missing: %X", id)
	}
	if !bytes.Equal(id[16:], buyer[:16]) {
		t.Fatalf("buyer prefix missing: %X", id)
	}
}

func TestDisputeID(t *testing.T) {
	order := OrderID(ListingID(ledgertest.NewCondition().Address(), 1), ledgertest.NewCondition().Address())

	id := DisputeID(order, 42)
	assert.Equal(t, IDLen, len(id))
	if !bytes.Equal(id[:24], order[:24]) {
		t.Fatalf("order prefix missing: %X", id)
	}
	assert.Equal(t, uint64(42), binary.LittleEndian.Uint64(id[24:]))
}

func TestCustodyAddress(t *testing.T) {
	a := CustodyAddress([]byte("order-a"))
	b := CustodyAddress([]byte("order-b"))

	assert.Nil(t, a.Validate())
	if a.Equals(b) {
		t.Fatal("custody addresses must differ")
	}
	if a.Equals(EscrowAccount([]byte("order-a"))) {
		t.Fatal("custody and listing escrow must not share the namespace")
	}
	assert.Equal(t, ledger.NewCondition("marketplace", "order", []byte("order-a")).Address(), a)
}

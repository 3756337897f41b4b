package marketplace

import (
	"encoding/binary"

	"github.com/refit-labs/ledger"
)

// IDLen is the length of every marketplace record ID.
const IDLen = 32

// Derived IDs are lookup keys, not hashes. Two records derived from the same
// input share an ID and the second one cannot be created.

// ListingID returns the ID of a listing created by the seller at given time.
// Seller bytes fill the beginning of the ID, the last 8 bytes hold the
// little endian creation time and overwrite the seller bytes if the address
// is long enough.
func ListingID(seller ledger.Address, createdAt ledger.UnixTime) []byte {
	id := make([]byte, IDLen)
	copy(id, seller)
	putTime(id[24:], createdAt)
	return id
}

// OrderID returns the ID of the order placed by the buyer on a listing. It
// is the first half of the listing ID followed by the first 16 bytes of the
// buyer address.
func OrderID(listingID []byte, buyer ledger.Address) []byte {
	id := make([]byte, IDLen)
	copy(id[:16], listingID)
	copy(id[16:], prefix(buyer, 16))
	return id
}

// DisputeID returns the ID of a dispute opened on an order at given time.
// It is the first 24 bytes of the order ID followed by the little endian
// open time.
func DisputeID(orderID []byte, openedAt ledger.UnixTime) []byte {
	id := make([]byte, IDLen)
	copy(id[:24], orderID)
	putTime(id[24:], openedAt)
	return id
}

// CustodyAddress returns the address holding the funds locked by an order.
// Nobody can sign for it, only this extension moves funds out of it.
func CustodyAddress(orderID []byte) ledger.Address {
	return ledger.NewCondition("marketplace", "order", orderID).Address()
}

// EscrowAccount returns the escrow reference recorded on a listing.
func EscrowAccount(listingID []byte) ledger.Address {
	return ledger.NewCondition("marketplace", "listing", listingID).Address()
}

func putTime(dst []byte, t ledger.UnixTime) {
	binary.LittleEndian.PutUint64(dst, uint64(t))
}

func prefix(b []byte, n int) []byte {
	if len(b) < n {
		return b
	}
	return b[:n]
}

/*
Package cash implements account balances and value transfers.

A wallet is a set of coins stored under an address. Every value movement in
the ledger, including escrow custody deposits and releases, goes through the
Controller, so that a failed transfer aborts the whole transaction together
with any state change made before it.
*/
package cash

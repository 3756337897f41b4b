/*
Package marketplace implements escrowed peer to peer sales of used devices.

A seller creates a listing. A buyer purchases it, which locks the price in a
custody account owned by the order. The seller ships and the buyer confirms
the delivery, releasing the funds to the seller minus the platform fee. If the
buyer does not confirm in time, anyone can release the funds once the delivery
deadline passed. Either party can open a dispute before the release. An
arbiter resolves it by refunding the buyer, paying the seller or splitting the
amount.

Every operation is a message with its own handler. Preconditions are checked
before any state change and all transfers of an operation are applied
atomically by the transaction.
*/
package marketplace

/*
Package tradein implements a purchase escrow combined with a device trade-in.

The buyer locks the purchase amount. The seller ships the new device, then the
buyer ships the old one. On completion the trade-in value goes back to the
buyer and the rest to the seller. Once expired, a trade-in that did not
complete can be cancelled by anyone and the deposit is refunded.
*/
package tradein

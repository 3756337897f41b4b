/*
Package buyback lets a device owner sell a device back to the platform at a
fixed price.

The owner registers the device and ships it. Once the platform operator
received the device, it completes the buyback and the price is paid from the
platform wallet. The platform wallet and operator is the marketplace fee
collector.
*/
package buyback

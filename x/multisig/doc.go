/*
Package multisig stores weighted signature contracts.

A contract lists participants, each with a weight, and two thresholds. The
activation threshold is the combined weight of signers needed to act as the
contract address. The admin threshold is the combined weight needed to change
the contract itself.

The Decorator loads every contract a transaction references and, when enough
participants signed, adds the contract condition to the context. The
Authenticate type exposes those conditions to handlers, so a contract address
can own funds or hold a role (for example the marketplace arbiter) exactly
like a single key does.
*/
package multisig

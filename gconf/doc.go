/*
Package gconf implements a configuration store intended to be used as a global,
in-database configuration.

Each extension keeps a single configuration object, stored under the
"_c:<package name>" key. Configuration is loaded from the "conf" section of
the genesis file and can later be changed only by a transaction signed by the
configuration owner.

Not being able to get a configuration value is a critical condition for the
extension. Handlers must fail the transaction instead of guessing a default.
*/
package gconf

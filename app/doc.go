/*
Package app glues extensions into a runnable ledger.

A Router dispatches a transaction to the handler registered for its message
path. Decorators wrap the router to add cross cutting behaviour: Logging,
Recovery and Savepoint live here, authentication decorators live in their
extensions. The Ledger type drives the resulting handler: it loads genesis,
starts blocks (running scheduled tasks), checks and delivers transactions
and commits state.
*/
package app

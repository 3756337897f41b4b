/*
Package ledger defines interfaces used throughout the marketplace ledger, such
as: storage, transactions, handlers, conditions and the block clock.

Every state transition runs as one transaction over a cache wrapped view of
the store. The block time carried in the context is the single clock sample
all deadline comparisons of that transaction use.

We pass context through context.Context between app, middleware, and
handlers. There should exist two functions for every XYZ of type T that we
want to support in Context:

  WithXYZ(Context, T) Context
  GetXYZ(Context) (val T, ok bool)
*/
package ledger

/*
Package refitd links together all the various components to construct the
refit marketplace ledger application.
*/
package refitd

import (
	"path/filepath"
	"strings"

	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/app"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/store"
	"github.com/refit-labs/ledger/x"
	"github.com/refit-labs/ledger/x/buyback"
	"github.com/refit-labs/ledger/x/cash"
	"github.com/refit-labs/ledger/x/cron"
	"github.com/refit-labs/ledger/x/marketplace"
	"github.com/refit-labs/ledger/x/multisig"
	"github.com/refit-labs/ledger/x/sigs"
	"github.com/refit-labs/ledger/x/tradein"
	"github.com/tendermint/tendermint/libs/log"
)

// Authenticator returns the typical authentication, using public key
// signatures, multisig contracts and scheduled task conditions.
func Authenticator() x.Authenticator {
	return x.ChainAuth(sigs.Authenticate{}, multisig.Authenticate{}, cron.Authenticator{})
}

// Chain returns a chain of decorators, to handle authentication, logging,
// and recovery.
func Chain(authFn x.Authenticator) app.Decorators {
	return app.ChainDecorators(
		app.NewLogging(),
		app.NewRecovery(),
		// on CheckTx, bad tx don't affect state
		app.NewSavepoint().OnCheck(),
		sigs.NewDecorator(),
		multisig.NewDecorator(authFn),
		// on DeliverTx, bad tx will increment nonce even if the message
		// fails
		app.NewSavepoint().OnDeliver(),
	)
}

// Router returns a router dispatching to all message handlers.
func Router(authFn x.Authenticator, scheduler ledger.Scheduler) *app.Router {
	r := app.NewRouter()
	ctrl := cash.NewController()
	cash.RegisterRoutes(r, authFn, ctrl)
	multisig.RegisterRoutes(r, authFn)
	marketplace.RegisterRoutes(r, authFn, ctrl, scheduler, marketplace.ConfiguredArbiter{})
	tradein.RegisterRoutes(r, authFn, ctrl)
	buyback.RegisterRoutes(r, authFn, ctrl)
	return r
}

// CronStack wires the handler executing scheduled tasks. Tasks are not
// signed, so the signature decorators are not part of it.
func CronStack() ledger.Handler {
	authFn := Authenticator()
	scheduler := cron.NewScheduler(CronTaskMarshaler{})
	return app.ChainDecorators(
		app.NewLogging(),
		app.NewRecovery(),
	).WithHandler(Router(authFn, scheduler))
}

// Initializers returns the genesis loaders of all extensions.
func Initializers() ledger.Initializer {
	return ledger.ChainInitializers(
		&cash.Initializer{},
		&multisig.Initializer{},
		&marketplace.Initializer{},
	)
}

// Stack wires up the complete application: decoder, decorated router,
// cron ticker and genesis loading.
func Stack() app.Stack {
	authFn := Authenticator()
	scheduler := cron.NewScheduler(CronTaskMarshaler{})
	return app.Stack{
		Decoder:     TxDecoder,
		Handler:     Chain(authFn).WithHandler(Router(authFn, scheduler)),
		Ticker:      cron.NewTicker(CronStack(), CronTaskMarshaler{}),
		Initializer: Initializers(),
	}
}

// Application constructs a ledger application persisting its state under
// given path. An empty path keeps all the state in memory.
func Application(name, dbPath string, logger log.Logger, debug bool) (*app.Ledger, func() error, error) {
	kv, closer, err := CommitKVStore(dbPath)
	if err != nil {
		return nil, nil, err
	}
	l, err := app.NewLedger(name, kv, Stack())
	if err != nil {
		closer()
		return nil, nil, err
	}
	return l.WithLogger(logger).WithDebug(debug), closer, nil
}

// GenerateApp opens the ledger application persisted in the home directory.
func GenerateApp(home string, logger log.Logger, debug bool) (*app.Ledger, func() error, error) {
	return Application("refitd", filepath.Join(home, "refit.db"), logger, debug)
}

// CommitKVStore returns an initialized store that persists the data to the
// named path. The returned function releases the database.
func CommitKVStore(dbPath string) (ledger.CommitKVStore, func() error, error) {
	// memory backed case, just for testing
	if dbPath == "" {
		return store.NewCommitStore(store.MemStore()), func() error { return nil }, nil
	}

	path, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, nil, errors.Wrapf(errors.ErrInput, "invalid database name: %s", dbPath)
	}
	// Some external calls accidentally add a ".db", which is removed.
	path = strings.TrimSuffix(path, filepath.Ext(path))

	db, err := store.OpenLevelDB(path)
	if err != nil {
		return nil, nil, err
	}
	return store.NewCommitStore(db), db.Close, nil
}

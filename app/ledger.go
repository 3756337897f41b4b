package app

import (
	"context"
	"fmt"
	"time"

	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/errors"
	"github.com/tendermint/tendermint/libs/log"
)

// Stack is everything an application provides to run on a Ledger.
type Stack struct {
	// Decoder parses raw transaction bytes.
	Decoder ledger.TxDecoder
	// Handler processes decoded transactions. Usually a decorated Router.
	Handler ledger.Handler
	// Ticker runs scheduled tasks at the beginning of every block. Optional.
	Ticker ledger.Ticker
	// Initializer loads the genesis application state.
	Initializer ledger.Initializer
}

// Ledger runs an application stack in process.
//
// All transactions of a block are delivered to a single cache wrap of the
// committed state that is flushed by Commit. Transactions are checked
// against a separate cache wrap, so a checked but not delivered
// transaction never changes the state.
//
// A Ledger is not safe for concurrent use. Transactions are processed one
// after another, which is the ordering guarantee every handler relies on.
type Ledger struct {
	name   string
	logger log.Logger
	debug  bool

	store ledger.CommitKVStore
	stack Stack

	chainID string

	// baseContext contains context info that is valid for the lifetime
	// of this ledger (eg. chainID).
	baseContext ledger.Context
	// blockContext contains context info that is valid for the current
	// block (eg. height, time), reset on BeginBlock.
	blockContext ledger.Context

	deliver ledger.KVCacheWrap
	check   ledger.KVCacheWrap
}

// NewLedger loads the latest committed state from the store and returns a
// ledger ready to process blocks.
func NewLedger(name string, db ledger.CommitKVStore, stack Stack) (*Ledger, error) {
	if err := db.LoadLatestVersion(); err != nil {
		return nil, errors.Wrap(err, "load latest version")
	}
	l := &Ledger{
		name:        name,
		store:       db,
		stack:       stack,
		baseContext: context.Background(),
	}
	l.WithLogger(log.NewNopLogger())
	l.resetCaches()

	chainID, err := loadChainID(l.deliver)
	if err != nil {
		return nil, err
	}
	if chainID != "" {
		l.chainID = chainID
		l.baseContext = ledger.WithChainID(l.baseContext, chainID)
	}

	last, err := db.LatestVersion()
	if err != nil {
		return nil, errors.Wrap(err, "latest version")
	}
	l.blockContext = ledger.WithHeight(l.baseContext, last.Version)
	return l, nil
}

// WithLogger sets the logger on the Ledger and returns it, to make it easy
// to chain in initialization.
func (l *Ledger) WithLogger(logger log.Logger) *Ledger {
	l.logger = logger.With("app", l.name)
	l.baseContext = ledger.WithLogger(l.baseContext, l.logger)
	return l
}

// WithDebug controls if internal error details are included in results.
func (l *Ledger) WithDebug(debug bool) *Ledger {
	l.debug = debug
	return l
}

// ChainID returns the chain ID set at genesis, or an empty string.
func (l *Ledger) ChainID() string {
	return l.chainID
}

// InitChain stores the chain ID and loads the application state from the
// genesis. It can be called only once in the lifetime of the chain. The
// state is committed as the first version.
func (l *Ledger) InitChain(gen Genesis) (ledger.CommitID, error) {
	if l.chainID != "" {
		return ledger.CommitID{}, errors.Wrapf(errors.ErrImmutable, "genesis loaded for chain %s", l.chainID)
	}
	if err := saveChainID(l.deliver, gen.ChainID); err != nil {
		return ledger.CommitID{}, err
	}
	if l.stack.Initializer != nil {
		if err := l.stack.Initializer.FromGenesis(gen.AppState, l.deliver); err != nil {
			l.resetCaches()
			return ledger.CommitID{}, errors.Wrap(err, "genesis")
		}
	}
	l.chainID = gen.ChainID
	l.baseContext = ledger.WithChainID(l.baseContext, gen.ChainID)
	return l.Commit()
}

// BeginBlock sets the block context and runs the scheduled tasks that are
// due at given time.
func (l *Ledger) BeginBlock(height int64, now time.Time) ledger.TickResult {
	ctx := ledger.WithHeight(l.baseContext, height)
	ctx = ledger.WithBlockTime(ctx, now)
	l.blockContext = ctx

	if l.stack.Ticker == nil {
		return ledger.TickResult{}
	}
	ctx = ledger.WithLogInfo(ctx, "call", "begin_block")
	return l.stack.Ticker.Tick(ctx, l.deliver)
}

// CheckTx validates a transaction against the check state.
func (l *Ledger) CheckTx(raw []byte) TxResult {
	tx, err := l.loadTx(raw)
	if err != nil {
		return errorResult(err, l.debug)
	}
	ctx := ledger.WithLogInfo(l.blockContext,
		"call", "check_tx",
		"path", ledger.GetPath(tx))
	res, err := l.stack.Handler.Check(ctx, l.check, tx)
	if err != nil {
		return errorResult(err, l.debug)
	}
	return checkResult(res)
}

// DeliverTx processes a transaction against the block state.
func (l *Ledger) DeliverTx(raw []byte) TxResult {
	tx, err := l.loadTx(raw)
	if err != nil {
		return errorResult(err, l.debug)
	}
	ctx := ledger.WithLogInfo(l.blockContext,
		"call", "deliver_tx",
		"path", ledger.GetPath(tx))
	res, err := l.stack.Handler.Deliver(ctx, l.deliver, tx)
	if err != nil {
		return errorResult(err, l.debug)
	}
	return deliverResult(res)
}

// Commit writes the block state and closes the version.
func (l *Ledger) Commit() (ledger.CommitID, error) {
	if err := l.deliver.Write(); err != nil {
		return ledger.CommitID{}, errors.Wrap(err, "write block state")
	}
	id, err := l.store.Commit()
	if err != nil {
		return ledger.CommitID{}, errors.Wrap(err, "commit")
	}
	l.resetCaches()
	l.logger.Debug("commit synced",
		"height", id.Version,
		"hash", fmt.Sprintf("%X", id.Hash))
	return id, nil
}

// Query returns the committed value stored under given key.
func (l *Ledger) Query(key []byte) ([]byte, error) {
	return l.store.Get(key)
}

// CheckStore returns the state transactions are checked against.
func (l *Ledger) CheckStore() ledger.CacheableKVStore {
	return l.check
}

// DeliverStore returns the state of the current block.
func (l *Ledger) DeliverStore() ledger.CacheableKVStore {
	return l.deliver
}

func (l *Ledger) resetCaches() {
	if l.deliver != nil {
		l.deliver.Discard()
	}
	if l.check != nil {
		l.check.Discard()
	}
	l.deliver = l.store.CacheWrap()
	l.check = l.store.CacheWrap()
}

// loadTx calls the decoder, and capture any panics
func (l *Ledger) loadTx(raw []byte) (tx ledger.Tx, err error) {
	defer errors.Recover(&err)
	tx, err = l.stack.Decoder(raw)
	return
}

// LastCommitID returns the version and hash of the latest committed state.
func (l *Ledger) LastCommitID() (ledger.CommitID, error) {
	return l.store.LatestVersion()
}

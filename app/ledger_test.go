package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/ledgertest"
	"github.com/refit-labs/ledger/store"
)

// pathDecoder returns a transaction whose message path is the raw input.
func pathDecoder(raw []byte) (ledger.Tx, error) {
	if len(raw) == 0 {
		return nil, errors.Wrap(errors.ErrInput, "empty transaction")
	}
	return &ledgertest.Tx{Msg: &ledgertest.Msg{RoutePath: string(raw)}}, nil
}

type blockTimeTicker struct {
	seen []time.Time
}

func (t *blockTimeTicker) Tick(ctx ledger.Context, db ledger.CacheableKVStore) ledger.TickResult {
	now := ledger.MustBlockTime(ctx)
	t.seen = append(t.seen, now)
	if err := db.Set([]byte("tick"), []byte(now.String())); err != nil {
		panic(err)
	}
	return ledger.TickResult{Tags: []ledger.KVPair{ledger.Tag("tick", nil)}}
}

type genesisWriter struct{}

func (genesisWriter) FromGenesis(opts ledger.Options, db ledger.KVStore) error {
	var v string
	if err := opts.ReadOptions("value", &v); err != nil {
		return err
	}
	return db.Set([]byte("genesis"), []byte(v))
}

func newTestStack(ticker ledger.Ticker) Stack {
	r := NewRouter()
	r.Handle("test/write", &ledgertest.WriteHandler{Key: []byte("write"), Value: []byte("ok")})
	r.Handle("test/fail", &ledgertest.WriteHandler{Key: []byte("fail"), Value: []byte("no"), Err: errors.ErrState})
	r.Handle("test/panic", ledgertest.PanicHandler{Reason: "/secret/path"})
	return Stack{
		Decoder: pathDecoder,
		Handler: ChainDecorators(
			NewLogging(),
			NewRecovery(),
			NewSavepoint().OnCheck().OnDeliver(),
		).WithHandler(r),
		Ticker:      ticker,
		Initializer: genesisWriter{},
	}
}

func TestLedgerLifecycle(t *testing.T) {
	backend := store.MemStore()
	ticker := &blockTimeTicker{}

	l, err := NewLedger("test", store.NewCommitStore(backend), newTestStack(ticker))
	require.NoError(t, err)
	assert.Equal(t, "", l.ChainID())

	gen := Genesis{
		ChainID:  "test-chain",
		AppState: ledger.Options{"value": []byte(`"hello"`)},
	}
	first, err := l.InitChain(gen)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Version)
	assert.Equal(t, "test-chain", l.ChainID())

	_, err = l.InitChain(gen)
	assert.True(t, errors.ErrImmutable.Is(err))

	v, err := l.Query([]byte("genesis"))
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), v)

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := l.BeginBlock(2, now)
	assert.Len(t, tick.Tags, 1)
	assert.Equal(t, []time.Time{now}, ticker.seen)

	// Checked transactions never change the state.
	res := l.CheckTx([]byte("test/write"))
	assert.True(t, res.IsOK(), res.Log)

	res = l.DeliverTx([]byte("test/fail"))
	assert.Equal(t, errors.ErrState.Code(), res.Code)
	res = l.DeliverTx([]byte("test/unknown"))
	assert.Equal(t, errors.ErrNotFound.Code(), res.Code)
	res = l.DeliverTx(nil)
	assert.Equal(t, errors.ErrInput.Code(), res.Code)

	// Panic details are not revealed.
	res = l.DeliverTx([]byte("test/panic"))
	assert.False(t, res.IsOK())
	assert.NotContains(t, res.Log, "secret")

	// Nothing is visible before the commit.
	v, err = l.Query([]byte("write"))
	require.NoError(t, err)
	assert.Nil(t, v)

	res = l.DeliverTx([]byte("test/write"))
	assert.True(t, res.IsOK(), res.Log)

	second, err := l.Commit()
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Version)
	assert.NotEqual(t, first.Hash, second.Hash)

	v, err = l.Query([]byte("write"))
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), v)
	v, err = l.Query([]byte("fail"))
	require.NoError(t, err)
	assert.Nil(t, v)

	// Restart from the same backend.
	restarted, err := NewLedger("test", store.NewCommitStore(backend), newTestStack(ticker))
	require.NoError(t, err)
	assert.Equal(t, "test-chain", restarted.ChainID())
	h, ok := ledger.GetHeight(restarted.blockContext)
	assert.True(t, ok)
	assert.Equal(t, int64(2), h)
}

func TestLedgerInvalidGenesis(t *testing.T) {
	l, err := NewLedger("test", store.NewCommitStore(store.MemStore()), newTestStack(nil))
	require.NoError(t, err)

	_, err = l.InitChain(Genesis{ChainID: "x"})
	assert.True(t, errors.ErrInput.Is(err))

	_, err = l.InitChain(Genesis{
		ChainID:  "test-chain",
		AppState: ledger.Options{"value": []byte(`{not json`)},
	})
	assert.True(t, errors.ErrInput.Is(err))
	assert.Equal(t, "", l.ChainID())

	// A failed genesis leaves no trace.
	_, err = l.InitChain(Genesis{ChainID: "test-chain"})
	require.NoError(t, err)
}

package sigs

import (
	"bytes"
	"testing"

	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/crypto"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/ledgertest"
	"github.com/refit-labs/ledger/ledgertest/assert"
	"github.com/refit-labs/ledger/store"
)

// signedTx is a minimal SignedTx used to exercise the decorator.
type signedTx struct {
	ledgertest.Tx
	payload []byte
	sigs    []*StdSignature
}

func (tx *signedTx) GetSignBytes() ([]byte, error) {
	return tx.payload, nil
}

func (tx *signedTx) GetSignatures() []*StdSignature {
	return tx.sigs
}

// signerCheck records the conditions visible to the wrapped handler.
type signerCheck struct {
	ledgertest.Handler
	seen []ledger.Condition
}

func (h *signerCheck) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	h.seen = Authenticate{}.GetConditions(ctx)
	return h.Handler.Deliver(ctx, db, tx)
}

func TestDecorator(t *testing.T) {
	priv := crypto.PrivKeyEd25519FromSeed(bytes.Repeat([]byte{1}, 32))
	pub := priv.PublicKey()

	sign := func(t *testing.T, payload []byte, chainID string, seq int64) *signedTx {
		tx := &signedTx{payload: payload}
		sig, err := SignTx(priv, tx, chainID, seq)
		assert.Nil(t, err)
		tx.sigs = []*StdSignature{sig}
		return tx
	}

	cases := map[string]struct {
		decorator Decorator
		txs       func(t *testing.T) []ledger.Tx
		wantErr   *errors.Error
		wantSeen  int
	}{
		"valid signature": {
			decorator: NewDecorator(),
			txs: func(t *testing.T) []ledger.Tx {
				return []ledger.Tx{sign(t, []byte("purchase"), "refit-testnet", 0)}
			},
			wantSeen: 1,
		},
		"sequence increments": {
			decorator: NewDecorator(),
			txs: func(t *testing.T) []ledger.Tx {
				return []ledger.Tx{
					sign(t, []byte("purchase"), "refit-testnet", 0),
					sign(t, []byte("confirm"), "refit-testnet", 1),
				}
			},
			wantSeen: 1,
		},
		"replayed transaction": {
			decorator: NewDecorator(),
			txs: func(t *testing.T) []ledger.Tx {
				tx := sign(t, []byte("purchase"), "refit-testnet", 0)
				return []ledger.Tx{tx, tx}
			},
			wantErr: ErrInvalidSequence,
		},
		"signed for another chain": {
			decorator: NewDecorator(),
			txs: func(t *testing.T) []ledger.Tx {
				return []ledger.Tx{sign(t, []byte("purchase"), "another-chain", 0)}
			},
			wantErr: errors.ErrUnauthorized,
		},
		"no signatures": {
			decorator: NewDecorator(),
			txs: func(t *testing.T) []ledger.Tx {
				return []ledger.Tx{&signedTx{payload: []byte("release")}}
			},
			wantErr: errors.ErrUnauthorized,
		},
		"no signatures allowed": {
			decorator: NewDecorator().AllowMissingSigs(),
			txs: func(t *testing.T) []ledger.Tx {
				return []ledger.Tx{&signedTx{payload: []byte("release")}}
			},
			wantSeen: 0,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			h := &signerCheck{}
			txs := tc.txs(t)

			var err error
			for _, tx := range txs {
				if _, err = tc.decorator.Deliver(ledgertest.Context(), db, tx, h); err != nil {
					break
				}
			}
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.wantErr != nil {
				return
			}
			assert.Equal(t, tc.wantSeen, len(h.seen))
			if tc.wantSeen > 0 && !h.seen[0].Equals(pub.Condition()) {
				t.Fatalf("unexpected signer %s", h.seen[0])
			}
			nonce, err := NextNonce(db, pub.Address())
			assert.Nil(t, err)
			assert.Equal(t, int64(len(txs)*tc.wantSeen), nonce)
		})
	}
}

func TestCheckAddsGasPayment(t *testing.T) {
	priv := crypto.GenPrivKeyEd25519()
	tx := &signedTx{payload: []byte("list")}
	sig, err := SignTx(priv, tx, "refit-testnet", 0)
	assert.Nil(t, err)
	tx.sigs = []*StdSignature{sig}

	res, err := NewDecorator().Check(ledgertest.Context(), store.MemStore(), tx, &ledgertest.Handler{})
	assert.Nil(t, err)
	assert.Equal(t, int64(signatureVerifyCost), res.GasPayment)
}

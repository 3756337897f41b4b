package refitd

import (
	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/codec"
	"github.com/refit-labs/ledger/crypto"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/x/multisig"
	"github.com/refit-labs/ledger/x/sigs"
)

// Tx is the transaction envelope of the application. It carries a single
// message together with the signatures and the multisig contracts that
// authorize it.
type Tx struct {
	Sum        *Sum                 `cbor:"1,keyasint,omitempty" json:"sum"`
	Signatures []*sigs.StdSignature `cbor:"2,keyasint,omitempty" json:"signatures,omitempty"`
	// Multisig lists the IDs of contracts activated for this transaction.
	Multisig [][]byte `cbor:"3,keyasint,omitempty" json:"multisig,omitempty"`
}

// make sure tx fulfills all interfaces
var (
	_ ledger.Tx           = (*Tx)(nil)
	_ sigs.SignedTx       = (*Tx)(nil)
	_ multisig.MultiSigTx = (*Tx)(nil)
)

// NewTx returns a transaction carrying given message.
func NewTx(msg ledger.Msg, multisigIDs ...[]byte) (*Tx, error) {
	sum, err := NewSum(msg)
	if err != nil {
		return nil, err
	}
	return &Tx{Sum: sum, Multisig: multisigIDs}, nil
}

// TxDecoder creates a Tx and unmarshals bytes into it
func TxDecoder(raw []byte) (ledger.Tx, error) {
	tx := new(Tx)
	if err := tx.Unmarshal(raw); err != nil {
		return nil, err
	}
	return tx, nil
}

func (tx *Tx) GetMsg() (ledger.Msg, error) {
	return tx.Sum.Msg()
}

func (tx *Tx) GetSignatures() []*sigs.StdSignature {
	return tx.Signatures
}

func (tx *Tx) GetMultisig() [][]byte {
	return tx.Multisig
}

// GetSignBytes returns the bytes to sign. Signatures are not part of them.
func (tx *Tx) GetSignBytes() ([]byte, error) {
	unsigned := Tx{Sum: tx.Sum, Multisig: tx.Multisig}
	raw, err := unsigned.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "sign bytes")
	}
	return raw, nil
}

// Sign appends a signature of given signer using its next sequence.
func (tx *Tx) Sign(signer crypto.Signer, chainID string, seq int64) error {
	sig, err := sigs.SignTx(signer, tx, chainID, seq)
	if err != nil {
		return err
	}
	tx.Signatures = append(tx.Signatures, sig)
	return nil
}

func (tx *Tx) Marshal() ([]byte, error) {
	return codec.Marshal(tx)
}

func (tx *Tx) Unmarshal(raw []byte) error {
	if err := codec.Unmarshal(raw, tx); err != nil {
		return errors.Wrapf(errors.ErrSchema, "decode tx: %s", err)
	}
	return nil
}

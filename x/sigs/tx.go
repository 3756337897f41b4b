package sigs

import (
	"github.com/refit-labs/ledger/crypto"
	"github.com/refit-labs/ledger/errors"
)

// SignedTx represents a transaction that contains signatures,
// which can be verified by the Decorator
type SignedTx interface {
	// GetSignBytes returns the canonical byte representation of the
	// transaction without the signatures.
	GetSignBytes() ([]byte, error)

	// GetSignatures returns the signature of signers who signed the Msg.
	GetSignatures() []*StdSignature
}

// StdSignature is a signature together with the public key and the
// sequence it was created for.
type StdSignature struct {
	Sequence  int64             `cbor:"1,keyasint,omitempty"`
	Pubkey    *crypto.PublicKey `cbor:"2,keyasint,omitempty"`
	Signature *crypto.Signature `cbor:"3,keyasint,omitempty"`
}

// Validate ensures the StdSignature meets basic standards
func (s *StdSignature) Validate() error {
	if s.Sequence < 0 {
		return errors.Wrap(ErrInvalidSequence, "negative")
	}
	if s.Pubkey == nil {
		return errors.Wrap(errors.ErrUnauthorized, "missing public key")
	}
	if s.Signature == nil {
		return errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	return nil
}

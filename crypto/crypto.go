/*
Package crypto provides the ed25519 keys used to sign ledger transactions.

The public key of a signer is turned into a ledger condition, so that its
address can own balances and be referenced by listings and orders.
*/
package crypto

import (
	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/errors"
	"golang.org/x/crypto/ed25519"
)

// ExtensionName is used for the conditions we get from signatures
const ExtensionName = "sigs"

// Signer is the functionality we use from a private key
// No serializing to support hardware devices as well.
type Signer interface {
	Sign(message []byte) (*Signature, error)
	PublicKey() *PublicKey
}

// PublicKey is a serializable public key.
type PublicKey struct {
	Ed25519 []byte `cbor:"1,keyasint,omitempty" json:"ed25519"`
}

// Signature is a serializable signature.
type Signature struct {
	Ed25519 []byte `cbor:"1,keyasint,omitempty" json:"ed25519"`
}

// PrivateKey is a serializable private key.
type PrivateKey struct {
	Ed25519 []byte `cbor:"1,keyasint,omitempty" json:"ed25519"`
}

var _ Signer = (*PrivateKey)(nil)

// Verify verifies the signature was created with this message and public key
func (p *PublicKey) Verify(message []byte, sig *Signature) bool {
	if p == nil || sig == nil || len(p.Ed25519) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(p.Ed25519), message, sig.Ed25519)
}

// Condition encodes the public key into a ledger condition
func (p *PublicKey) Condition() ledger.Condition {
	return ledger.NewCondition(ExtensionName, "ed25519", p.Ed25519)
}

// Address is the address of the public key condition.
func (p *PublicKey) Address() ledger.Address {
	return p.Condition().Address()
}

// Validate returns an error if the key is not a valid ed25519 public key.
func (p *PublicKey) Validate() error {
	if p == nil || len(p.Ed25519) != ed25519.PublicKeySize {
		return errors.Wrap(errors.ErrInput, "invalid ed25519 public key")
	}
	return nil
}

// Sign returns a matching signature for this private key
func (p *PrivateKey) Sign(message []byte) (*Signature, error) {
	if len(p.Ed25519) != ed25519.PrivateKeySize {
		return nil, errors.Wrap(errors.ErrInput, "invalid ed25519 private key")
	}
	return &Signature{Ed25519: ed25519.Sign(ed25519.PrivateKey(p.Ed25519), message)}, nil
}

// PublicKey returns the corresponding PublicKey
func (p *PrivateKey) PublicKey() *PublicKey {
	pub := ed25519.PrivateKey(p.Ed25519).Public().(ed25519.PublicKey)
	return &PublicKey{Ed25519: pub}
}

// GenPrivKeyEd25519 returns a random new private key
func GenPrivKeyEd25519() *PrivateKey {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		panic(err)
	}
	return &PrivateKey{Ed25519: priv}
}

// PrivKeyEd25519FromSeed will deterministically generate a private key from
// a given seed. Use if you have a strong source of external randomness,
// or for deterministic keys in test cases.
func PrivKeyEd25519FromSeed(seed []byte) *PrivateKey {
	return &PrivateKey{Ed25519: ed25519.NewKeyFromSeed(seed)}
}

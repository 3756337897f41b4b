package multisig

import (
	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/codec"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/orm"
)

const (
	// BucketName is where we store the contracts
	BucketName = "contracts"

	maxWeightValue         = 255
	maxParticipantsAllowed = 100
)

// Weight represents the strength of a signature.
type Weight int32

func (w Weight) Validate() error {
	if w < 1 {
		return errors.Wrap(errors.ErrState, "weight must be greater than 0")
	}
	if w > maxWeightValue {
		return errors.Wrapf(errors.ErrOverflow,
			"weight is %d and must not be greater than %d", w, maxWeightValue)
	}
	return nil
}

// Participant is a single contract member.
type Participant struct {
	Signature ledger.Address `cbor:"1,keyasint,omitempty" json:"signature"`
	Weight    Weight         `cbor:"2,keyasint,omitempty" json:"weight"`
}

// Contract is a weighted set of participants acting as one address.
type Contract struct {
	Participants        []*Participant `cbor:"1,keyasint,omitempty" json:"participants"`
	ActivationThreshold Weight         `cbor:"2,keyasint,omitempty" json:"activation_threshold"`
	AdminThreshold      Weight         `cbor:"3,keyasint,omitempty" json:"admin_threshold"`
	// Address is the condition address of this contract. It is
	// denormalized for convenient lookups.
	Address ledger.Address `cbor:"4,keyasint,omitempty" json:"address"`
}

var _ orm.Model = (*Contract)(nil)

func (c *Contract) Validate() error {
	if len(c.Participants) > maxParticipantsAllowed {
		return errors.Wrap(errors.ErrModel, "too many participants")
	}
	if err := c.Address.Validate(); err != nil {
		return errors.Wrap(err, "address")
	}
	return validateWeights(errors.ErrModel,
		c.Participants, c.ActivationThreshold, c.AdminThreshold)
}

func (c *Contract) Marshal() ([]byte, error) {
	return codec.Marshal(c)
}

func (c *Contract) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, c)
}

// signedWeight returns the combined weight of all participants that are
// authenticated in given context.
func (c *Contract) signedWeight(ctx ledger.Context, hasAddress func(ledger.Context, ledger.Address) bool) Weight {
	var total Weight
	for _, p := range c.Participants {
		if hasAddress(ctx, p.Signature) {
			total += p.Weight
		}
	}
	return total
}

// MultiSigCondition returns condition for a contract ID.
func MultiSigCondition(id []byte) ledger.Condition {
	return ledger.NewCondition("multisig", "usage", id)
}

// ContractBucket stores contracts under a sequence generated ID.
type ContractBucket struct {
	orm.ModelBucket
}

var contractSeq = orm.NewSequence("multisig", "id")

// NewContractBucket returns a bucket for storing contracts.
func NewContractBucket() ContractBucket {
	return ContractBucket{
		ModelBucket: orm.NewModelBucket(BucketName, &Contract{}),
	}
}

// Create stores a new contract under the next sequence value and returns
// its ID. The contract address is set from the ID.
func (b ContractBucket) Create(db ledger.KVStore, c *Contract) ([]byte, error) {
	id, err := contractSeq.NextVal(db)
	if err != nil {
		return nil, errors.Wrap(err, "cannot acquire ID")
	}
	c.Address = MultiSigCondition(id).Address()
	if err := b.ModelBucket.Create(db, id, c); err != nil {
		return nil, err
	}
	return id, nil
}

// GetContract returns a contract with given ID.
func (b ContractBucket) GetContract(db ledger.ReadOnlyKVStore, id []byte) (*Contract, error) {
	var c Contract
	if err := b.One(db, id, &c); err != nil {
		return nil, errors.Wrapf(err, "contract %X", id)
	}
	return &c, nil
}

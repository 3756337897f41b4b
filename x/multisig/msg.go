package multisig

import (
	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/codec"
	"github.com/refit-labs/ledger/errors"
)

// CreateMsg registers a new contract.
type CreateMsg struct {
	Participants        []*Participant `cbor:"1,keyasint,omitempty" json:"participants"`
	ActivationThreshold Weight         `cbor:"2,keyasint,omitempty" json:"activation_threshold"`
	AdminThreshold      Weight         `cbor:"3,keyasint,omitempty" json:"admin_threshold"`
}

var _ ledger.Msg = (*CreateMsg)(nil)

func (CreateMsg) Path() string {
	return "multisig/create"
}

func (m *CreateMsg) Validate() error {
	if len(m.Participants) > maxParticipantsAllowed {
		return errors.Wrap(errors.ErrMsg, "too many participants")
	}
	return validateWeights(errors.ErrMsg,
		m.Participants, m.ActivationThreshold, m.AdminThreshold)
}

func (m *CreateMsg) Marshal() ([]byte, error) {
	return codec.Marshal(m)
}

func (m *CreateMsg) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, m)
}

// UpdateMsg replaces participants and thresholds of an existing contract.
type UpdateMsg struct {
	ContractID          []byte         `cbor:"1,keyasint,omitempty" json:"contract_id"`
	Participants        []*Participant `cbor:"2,keyasint,omitempty" json:"participants"`
	ActivationThreshold Weight         `cbor:"3,keyasint,omitempty" json:"activation_threshold"`
	AdminThreshold      Weight         `cbor:"4,keyasint,omitempty" json:"admin_threshold"`
}

var _ ledger.Msg = (*UpdateMsg)(nil)

func (UpdateMsg) Path() string {
	return "multisig/update"
}

func (m *UpdateMsg) Validate() error {
	if len(m.ContractID) == 0 {
		return errors.Field("ContractID", errors.ErrEmpty, "required")
	}
	if len(m.Participants) > maxParticipantsAllowed {
		return errors.Wrap(errors.ErrMsg, "too many participants")
	}
	return validateWeights(errors.ErrMsg,
		m.Participants, m.ActivationThreshold, m.AdminThreshold)
}

func (m *UpdateMsg) Marshal() ([]byte, error) {
	return codec.Marshal(m)
}

func (m *UpdateMsg) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, m)
}

// validateWeights returns an error if given participants and thresholds
// configuration is not valid. Models and messages share this check.
func validateWeights(
	baseErr *errors.Error,
	ps []*Participant,
	activationThreshold Weight,
	adminThreshold Weight,
) error {
	if len(ps) == 0 {
		return errors.Wrap(baseErr, "missing participants")
	}

	var total Weight
	for i, p := range ps {
		if p == nil {
			return errors.Wrapf(baseErr, "participant %d is nil", i)
		}
		if err := p.Weight.Validate(); err != nil {
			return errors.Wrapf(err, "participant %s", p.Signature)
		}
		if err := p.Signature.Validate(); err != nil {
			return errors.Wrapf(err, "participant %d", i)
		}
		total += p.Weight
	}
	if err := activationThreshold.Validate(); err != nil {
		return errors.Wrap(err, "activation threshold")
	}
	if err := adminThreshold.Validate(); err != nil {
		return errors.Wrap(err, "admin threshold")
	}

	if activationThreshold > total {
		return errors.Wrap(baseErr, "activation threshold greater than total power")
	}

	// An admin threshold higher than the total power locks the contract:
	// it can be activated but never changed.

	if activationThreshold > adminThreshold {
		return errors.Wrap(baseErr, "activation threshold greater than the admin threshold")
	}
	return nil
}

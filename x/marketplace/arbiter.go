package marketplace

import (
	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/x"
)

// Arbiter decides who may resolve a dispute.
type Arbiter interface {
	// Authorize returns nil if the transaction in the context is signed
	// by a party allowed to resolve disputes. It returns ErrUnauthorized
	// otherwise.
	Authorize(ctx ledger.Context, db ledger.ReadOnlyKVStore, auth x.Authenticator) error
}

// SingleArbiter authorizes a single address. Use a multisig contract
// address to require more than one signature.
type SingleArbiter struct {
	Address ledger.Address
}

var _ Arbiter = SingleArbiter{}

func (a SingleArbiter) Authorize(ctx ledger.Context, db ledger.ReadOnlyKVStore, auth x.Authenticator) error {
	if len(a.Address) == 0 || !auth.HasAddress(ctx, a.Address) {
		return errors.Wrap(errors.ErrUnauthorized, "arbiter signature required")
	}
	return nil
}

// QuorumArbiter authorizes when the combined weight of the members that
// signed the transaction reaches the threshold.
type QuorumArbiter struct {
	Members   []*ArbiterMember
	Threshold int32
}

var _ Arbiter = QuorumArbiter{}

func (a QuorumArbiter) Authorize(ctx ledger.Context, db ledger.ReadOnlyKVStore, auth x.Authenticator) error {
	if a.Threshold < 1 {
		return errors.Wrap(errors.ErrUnauthorized, "quorum not configured")
	}
	var total int32
	for _, m := range a.Members {
		if auth.HasAddress(ctx, m.Address) {
			total += m.Weight
		}
	}
	if total < a.Threshold {
		return errors.Wrapf(errors.ErrUnauthorized, "arbiter weight %d, %d required", total, a.Threshold)
	}
	return nil
}

// ConfiguredArbiter reads the arbitration policy from the marketplace
// configuration on every call.
type ConfiguredArbiter struct{}

var _ Arbiter = ConfiguredArbiter{}

func (ConfiguredArbiter) Authorize(ctx ledger.Context, db ledger.ReadOnlyKVStore, auth x.Authenticator) error {
	conf, err := loadConf(db)
	if err != nil {
		return err
	}
	if conf.Arbiter == nil {
		return errors.Wrap(errors.ErrUnauthorized, "no arbiter configured")
	}
	return conf.Arbiter.Arbiter().Authorize(ctx, db, auth)
}

// ArbiterMember is a weighted quorum member.
type ArbiterMember struct {
	Address ledger.Address `cbor:"1,keyasint,omitempty" json:"address"`
	Weight  int32          `cbor:"2,keyasint,omitempty" json:"weight"`
}

const maxArbiterMembers = 32

// ArbiterPolicy is the persisted form of an arbiter. Either the address or
// the members with a threshold are set.
type ArbiterPolicy struct {
	Address   ledger.Address   `cbor:"1,keyasint,omitempty" json:"address,omitempty"`
	Members   []*ArbiterMember `cbor:"2,keyasint,omitempty" json:"members,omitempty"`
	Threshold int32            `cbor:"3,keyasint,omitempty" json:"threshold,omitempty"`
}

func (p *ArbiterPolicy) Validate() error {
	switch {
	case len(p.Address) != 0 && len(p.Members) != 0:
		return errors.Wrap(errors.ErrInput, "address and members are exclusive")
	case len(p.Address) != 0:
		if p.Threshold != 0 {
			return errors.Field("Threshold", errors.ErrInput, "not allowed for a single arbiter")
		}
		return errors.Field("Address", p.Address.Validate(), "")
	case len(p.Members) == 0:
		return errors.Wrap(errors.ErrEmpty, "address or members required")
	case len(p.Members) > maxArbiterMembers:
		return errors.Wrapf(errors.ErrInput, "more than %d members", maxArbiterMembers)
	}

	var total int32
	seen := make(map[string]struct{}, len(p.Members))
	for i, m := range p.Members {
		if err := m.Address.Validate(); err != nil {
			return errors.Wrapf(err, "member %d", i)
		}
		if _, ok := seen[string(m.Address)]; ok {
			return errors.Wrapf(errors.ErrDuplicate, "member %s", m.Address)
		}
		seen[string(m.Address)] = struct{}{}
		if m.Weight < 1 || m.Weight > 255 {
			return errors.Wrapf(errors.ErrInput, "member %d weight %d", i, m.Weight)
		}
		total += m.Weight
	}
	if p.Threshold < 1 || p.Threshold > total {
		return errors.Field("Threshold", errors.ErrInput, "must be between 1 and the total weight")
	}
	return nil
}

// Arbiter returns the arbiter implementing this policy.
func (p *ArbiterPolicy) Arbiter() Arbiter {
	if len(p.Address) != 0 {
		return SingleArbiter{Address: p.Address}
	}
	return QuorumArbiter{Members: p.Members, Threshold: p.Threshold}
}

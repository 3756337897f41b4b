package multisig

import (
	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/errors"
)

// Initializer fulfils the Initializer interface to load data from the genesis
// file
type Initializer struct{}

var _ ledger.Initializer = Initializer{}

// FromGenesis will parse initial contracts from genesis and save them in the
// database. Contract IDs are assigned in the order of declaration.
func (Initializer) FromGenesis(opts ledger.Options, db ledger.KVStore) error {
	var contracts []struct {
		Participants        []*Participant `json:"participants"`
		ActivationThreshold Weight         `json:"activation_threshold"`
		AdminThreshold      Weight         `json:"admin_threshold"`
	}
	if err := opts.ReadOptions("multisig", &contracts); err != nil {
		return err
	}

	bucket := NewContractBucket()
	for i, c := range contracts {
		contract := Contract{
			Participants:        c.Participants,
			ActivationThreshold: c.ActivationThreshold,
			AdminThreshold:      c.AdminThreshold,
		}
		if _, err := bucket.Create(db, &contract); err != nil {
			return errors.Wrapf(err, "cannot save #%d contract", i)
		}
	}
	return nil
}

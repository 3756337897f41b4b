package multisig

import (
	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/x"
)

// Decorator checks multisig contract if available
type Decorator struct {
	auth   x.Authenticator
	bucket ContractBucket
}

var _ ledger.Decorator = Decorator{}

// NewDecorator returns a default multisig decorator. The authenticator is
// used to check participant signatures. Contracts activated earlier in the
// same transaction are visible to it, so a contract can be a participant of
// another one when it is referenced first.
func NewDecorator(auth x.Authenticator) Decorator {
	return Decorator{
		auth:   x.ChainAuth(auth, Authenticate{}),
		bucket: NewContractBucket(),
	}
}

// Check enforce multisig contract before calling down the stack
func (d Decorator) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx, next ledger.Checker) (*ledger.CheckResult, error) {
	ctx, err := d.authMultisig(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	return next.Check(ctx, db, tx)
}

// Deliver enforces multisig contract before calling down the stack
func (d Decorator) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx, next ledger.Deliverer) (*ledger.DeliverResult, error) {
	ctx, err := d.authMultisig(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	return next.Deliver(ctx, db, tx)
}

func (d Decorator) authMultisig(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (ledger.Context, error) {
	multisigContract, ok := tx.(MultiSigTx)
	if !ok {
		return ctx, nil
	}
	for _, id := range multisigContract.GetMultisig() {
		contract, err := d.bucket.GetContract(db, id)
		if err != nil {
			return nil, err
		}
		if contract.signedWeight(ctx, d.auth.HasAddress) < contract.ActivationThreshold {
			return nil, errors.Wrapf(errors.ErrUnauthorized, "contract %X: not enough signatures", id)
		}
		ctx = withMultisig(ctx, id)
	}
	return ctx, nil
}

package multisig

import (
	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/x"
)

const (
	creationCost int64 = 300
	updateCost   int64 = 150
)

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r ledger.Registry, auth x.Authenticator) {
	bucket := NewContractBucket()
	r.Handle(CreateMsg{}.Path(), CreateMsgHandler{auth: auth, bucket: bucket})
	r.Handle(UpdateMsg{}.Path(), UpdateMsgHandler{auth: auth, bucket: bucket})
}

// CreateMsgHandler registers new contracts. Anyone can create one.
type CreateMsgHandler struct {
	auth   x.Authenticator
	bucket ContractBucket
}

var _ ledger.Handler = CreateMsgHandler{}

func (h CreateMsgHandler) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{GasAllocated: creationCost}, nil
}

func (h CreateMsgHandler) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	contract := &Contract{
		Participants:        msg.Participants,
		ActivationThreshold: msg.ActivationThreshold,
		AdminThreshold:      msg.AdminThreshold,
	}
	id, err := h.bucket.Create(db, contract)
	if err != nil {
		return nil, errors.Wrap(err, "cannot save contract")
	}
	ledger.GetLogger(ctx).Debug("multisig contract created", "id", id, "address", contract.Address)
	return &ledger.DeliverResult{
		Data: id,
		Tags: []ledger.KVPair{ledger.Tag("multisig.address", contract.Address)},
	}, nil
}

func (h CreateMsgHandler) validate(ctx ledger.Context, tx ledger.Tx) (*CreateMsg, error) {
	if x.MainSigner(ctx, h.auth) == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "signature required")
	}
	var msg CreateMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return &msg, nil
}

// UpdateMsgHandler replaces a contract configuration. The participants
// that signed must reach the current admin threshold.
type UpdateMsgHandler struct {
	auth   x.Authenticator
	bucket ContractBucket
}

var _ ledger.Handler = UpdateMsgHandler{}

func (h UpdateMsgHandler) Check(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &ledger.CheckResult{GasAllocated: updateCost}, nil
}

func (h UpdateMsgHandler) Deliver(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*ledger.DeliverResult, error) {
	msg, contract, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	contract.Participants = msg.Participants
	contract.ActivationThreshold = msg.ActivationThreshold
	contract.AdminThreshold = msg.AdminThreshold
	if err := h.bucket.Put(db, msg.ContractID, contract); err != nil {
		return nil, errors.Wrap(err, "cannot save contract")
	}
	return &ledger.DeliverResult{}, nil
}

func (h UpdateMsgHandler) validate(ctx ledger.Context, db ledger.KVStore, tx ledger.Tx) (*UpdateMsg, *Contract, error) {
	var msg UpdateMsg
	if err := ledger.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	contract, err := h.bucket.GetContract(db, msg.ContractID)
	if err != nil {
		return nil, nil, err
	}
	if contract.signedWeight(ctx, h.auth.HasAddress) < contract.AdminThreshold {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "admin threshold not reached")
	}
	return &msg, contract, nil
}

package multisig

import (
	"testing"

	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/ledgertest"
	"github.com/refit-labs/ledger/ledgertest/assert"
	"github.com/refit-labs/ledger/store"
)

func TestCreateContract(t *testing.T) {
	a := ledgertest.NewCondition()
	b := ledgertest.NewCondition()

	cases := map[string]struct {
		signer  ledger.Condition
		msg     *CreateMsg
		wantErr *errors.Error
	}{
		"valid contract": {
			signer: a,
			msg: &CreateMsg{
				Participants: []*Participant{
					{Signature: a.Address(), Weight: 1},
					{Signature: b.Address(), Weight: 1},
				},
				ActivationThreshold: 2,
				AdminThreshold:      2,
			},
		},
		"locked contract": {
			signer: a,
			msg: &CreateMsg{
				Participants:        []*Participant{{Signature: a.Address(), Weight: 1}},
				ActivationThreshold: 1,
				AdminThreshold:      10,
			},
		},
		"activation above total power": {
			signer: a,
			msg: &CreateMsg{
				Participants:        []*Participant{{Signature: a.Address(), Weight: 1}},
				ActivationThreshold: 2,
				AdminThreshold:      2,
			},
			wantErr: errors.ErrMsg,
		},
		"activation above admin threshold": {
			signer: a,
			msg: &CreateMsg{
				Participants:        []*Participant{{Signature: a.Address(), Weight: 5}},
				ActivationThreshold: 3,
				AdminThreshold:      2,
			},
			wantErr: errors.ErrMsg,
		},
		"weight too big": {
			signer: a,
			msg: &CreateMsg{
				Participants:        []*Participant{{Signature: a.Address(), Weight: 256}},
				ActivationThreshold: 1,
				AdminThreshold:      1,
			},
			wantErr: errors.ErrOverflow,
		},
		"no participants": {
			signer:  a,
			msg:     &CreateMsg{ActivationThreshold: 1, AdminThreshold: 1},
			wantErr: errors.ErrMsg,
		},
		"not signed": {
			msg: &CreateMsg{
				Participants:        []*Participant{{Signature: a.Address(), Weight: 1}},
				ActivationThreshold: 1,
				AdminThreshold:      1,
			},
			wantErr: errors.ErrUnauthorized,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			h := CreateMsgHandler{auth: &ledgertest.Auth{Signer: tc.signer}, bucket: NewContractBucket()}
			tx := &ledgertest.Tx{Msg: tc.msg}

			res, err := h.Deliver(ledgertest.Context(), db, tx)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.wantErr != nil {
				return
			}
			c, err := NewContractBucket().GetContract(db, res.Data)
			assert.Nil(t, err)
			assert.Equal(t, MultiSigCondition(res.Data).Address(), c.Address)
			assert.Equal(t, tc.msg.ActivationThreshold, c.ActivationThreshold)
		})
	}
}

func TestCreateContractSequentialIDs(t *testing.T) {
	db := store.MemStore()
	a := ledgertest.NewCondition()
	h := CreateMsgHandler{auth: &ledgertest.Auth{Signer: a}, bucket: NewContractBucket()}
	tx := &ledgertest.Tx{Msg: &CreateMsg{
		Participants:        []*Participant{{Signature: a.Address(), Weight: 1}},
		ActivationThreshold: 1,
		AdminThreshold:      1,
	}}

	first, err := h.Deliver(ledgertest.Context(), db, tx)
	assert.Nil(t, err)
	second, err := h.Deliver(ledgertest.Context(), db, tx)
	assert.Nil(t, err)
	if string(first.Data) >= string(second.Data) {
		t.Fatalf("IDs must grow: %X then %X", first.Data, second.Data)
	}
}

func TestUpdateContract(t *testing.T) {
	a := ledgertest.NewCondition()
	b := ledgertest.NewCondition()
	c := ledgertest.NewCondition()

	cases := map[string]struct {
		signers []ledger.Condition
		wantErr *errors.Error
	}{
		"admin threshold reached": {
			signers: []ledger.Condition{a, b},
		},
		"activation is not enough": {
			signers: []ledger.Condition{a},
			wantErr: errors.ErrUnauthorized,
		},
		"outsider": {
			signers: []ledger.Condition{c},
			wantErr: errors.ErrUnauthorized,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			bucket := NewContractBucket()
			id, err := bucket.Create(db, &Contract{
				Participants: []*Participant{
					{Signature: a.Address(), Weight: 1},
					{Signature: b.Address(), Weight: 1},
				},
				ActivationThreshold: 1,
				AdminThreshold:      2,
			})
			assert.Nil(t, err)

			h := UpdateMsgHandler{auth: &ledgertest.Auth{Signers: tc.signers}, bucket: bucket}
			tx := &ledgertest.Tx{Msg: &UpdateMsg{
				ContractID:          id,
				Participants:        []*Participant{{Signature: c.Address(), Weight: 1}},
				ActivationThreshold: 1,
				AdminThreshold:      1,
			}}
			_, err = h.Deliver(ledgertest.Context(), db, tx)
			if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}

			stored, err := bucket.GetContract(db, id)
			assert.Nil(t, err)
			// Address never changes, participants only on success.
			assert.Equal(t, MultiSigCondition(id).Address(), stored.Address)
			if tc.wantErr == nil {
				assert.Equal(t, c.Address(), stored.Participants[0].Signature)
			} else {
				assert.Equal(t, a.Address(), stored.Participants[0].Signature)
			}
		})
	}
}

func TestGenesis(t *testing.T) {
	a := ledgertest.NewCondition().Address()
	opts := ledger.Options{"multisig": []byte(`[
		{
			"participants": [{"signature": "` + a.String() + `", "weight": 1}],
			"activation_threshold": 1,
			"admin_threshold": 1
		}
	]`)}

	db := store.MemStore()
	assert.Nil(t, Initializer{}.FromGenesis(opts, db))

	c, err := NewContractBucket().GetContract(db, []byte{0, 0, 0, 0, 0, 0, 0, 1})
	assert.Nil(t, err)
	assert.Equal(t, a, c.Participants[0].Signature)
}

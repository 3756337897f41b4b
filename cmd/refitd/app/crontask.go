package refitd

import (
	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/codec"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/x/cron"
)

// CronTask is the persisted form of a scheduled message.
type CronTask struct {
	Authenticators []ledger.Condition `cbor:"1,keyasint,omitempty" json:"authenticators,omitempty"`
	Sum            *Sum               `cbor:"2,keyasint,omitempty" json:"sum"`
}

// CronTaskMarshaler stores scheduled messages as CronTask values. The same
// instance must be used by the scheduler and the ticker.
type CronTaskMarshaler struct{}

var _ cron.TaskMarshaler = CronTaskMarshaler{}

func (CronTaskMarshaler) MarshalTask(auth []ledger.Condition, msg ledger.Msg) ([]byte, error) {
	sum, err := NewSum(msg)
	if err != nil {
		return nil, err
	}
	return codec.Marshal(&CronTask{Authenticators: auth, Sum: sum})
}

func (CronTaskMarshaler) UnmarshalTask(raw []byte) ([]ledger.Condition, ledger.Msg, error) {
	var t CronTask
	if err := codec.Unmarshal(raw, &t); err != nil {
		return nil, nil, errors.Wrapf(errors.ErrSchema, "decode task: %s", err)
	}
	msg, err := t.Sum.Msg()
	if err != nil {
		return nil, nil, err
	}
	return t.Authenticators, msg, nil
}

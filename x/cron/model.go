package cron

import (
	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/codec"
	"github.com/refit-labs/ledger/orm"
)

// TaskResult is the outcome of a single task execution.
type TaskResult struct {
	Successful bool            `cbor:"1,keyasint,omitempty" json:"successful"`
	Info       string          `cbor:"2,keyasint,omitempty" json:"info,omitempty"`
	ExecTime   ledger.UnixTime `cbor:"3,keyasint,omitempty" json:"exec_time"`
	ExecHeight int64           `cbor:"4,keyasint,omitempty" json:"exec_height,omitempty"`
}

var _ orm.Model = (*TaskResult)(nil)

func (t *TaskResult) Validate() error {
	return nil
}

func (t *TaskResult) Marshal() ([]byte, error) {
	return codec.Marshal(t)
}

func (t *TaskResult) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, t)
}

// NewTaskResultBucket returns a bucket for storing Task results.
func NewTaskResultBucket() orm.ModelBucket {
	return orm.NewModelBucket("trs", &TaskResult{})
}

package app

import (
	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/errors"
)

// TxResult is the outcome of checking or delivering a single transaction.
// A zero Code means success.
type TxResult struct {
	Code    uint32
	Log     string
	Data    []byte
	Tags    []ledger.KVPair
	GasUsed int64
}

// IsOK returns true if the transaction was processed successfully.
func (r TxResult) IsOK() bool {
	return r.Code == errors.SuccessCode
}

func errorResult(err error, debug bool) TxResult {
	code, log := errors.ResultInfo(errors.Redact(err, debug), debug)
	return TxResult{Code: code, Log: log}
}

func checkResult(res *ledger.CheckResult) TxResult {
	return TxResult{
		Data:    res.Data,
		Log:     res.Log,
		GasUsed: res.GasAllocated,
	}
}

func deliverResult(res *ledger.DeliverResult) TxResult {
	return TxResult{
		Data:    res.Data,
		Log:     res.Log,
		Tags:    res.Tags,
		GasUsed: res.GasUsed,
	}
}

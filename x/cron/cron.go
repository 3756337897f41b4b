package cron

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/orm"
)

// TaskMarshaler represents an encoded that is used to marshal and unmarshal a
// task. This interface is to be implemented by this package user.
type TaskMarshaler interface {
	// MarshalTask serialize given data into its binary format.
	MarshalTask(auth []ledger.Condition, msg ledger.Msg) ([]byte, error)

	// UnmarshalTask deserialize data (created using MarshalTask method)
	// from its binary representation into Go structures.
	UnmarshalTask([]byte) (auth []ledger.Condition, msg ledger.Msg, err error)
}

// NewScheduler returns a scheduler implementation that is using given encoding
// for serializing data.
//
// Always use the same marshaler for ticker and scheduler.
func NewScheduler(enc TaskMarshaler) *Scheduler {
	return &Scheduler{enc: enc}
}

// Scheduler is the ledger.Scheduler implementation.
type Scheduler struct {
	enc TaskMarshaler
}

var _ ledger.Scheduler = (*Scheduler)(nil)

// Schedule implements ledger.Scheduler interface.
//
// A task is guaranteed to be executed after given time, but not exactly at
// given time. If another task is already scheduled for the exact same time,
// execution of this one is delayed until the next free slot.
//
// Time granularity is second. Sub second values are rounded up.
func (s *Scheduler) Schedule(db ledger.KVStore, runAt time.Time, auth []ledger.Condition, msg ledger.Msg) ([]byte, error) {
	const granularity = time.Second
	if t := runAt.Truncate(granularity); t.Before(runAt) {
		runAt = t.Add(granularity)
	}

	raw, err := s.enc.MarshalTask(auth, msg)
	if err != nil {
		return nil, errors.Wrap(err, "marshal task")
	}

	for {
		key := queueKey(runAt)
		if ok, err := db.Has(key); err != nil {
			return nil, errors.Wrap(err, "cannot check key existence")
		} else if ok {
			runAt = runAt.Add(granularity)
			continue
		}

		if err := db.Set(key, raw); err != nil {
			return nil, errors.Wrap(err, "cannot store in queue")
		}
		return key, nil
	}
}

func queueKey(t time.Time) []byte {
	rawTime := make([]byte, 8)
	// Zero time does not need to put any data as the bytes are already set
	// to zero.
	if !t.IsZero() {
		binary.BigEndian.PutUint64(rawTime, uint64(t.UnixNano()))
	}
	return append([]byte("_crontask:runat:"), rawTime...)
}

// Delete implements ledger.Scheduler interface.
func (s *Scheduler) Delete(db ledger.KVStore, taskID []byte) error {
	if ok, err := db.Has(taskID); err != nil {
		return errors.Wrap(err, "has")
	} else if !ok {
		return errors.Wrap(errors.ErrNotFound, "no task")
	}
	if err := db.Delete(taskID); err != nil {
		return errors.Wrap(err, "cannot delete")
	}
	return nil
}

// NewTicker returns a cron runner instance that is using given handler to
// process all queued messages that execution time is due. All serialization is
// done using provided marshaler.
//
// Always use the same marshaler for ticker and scheduler.
func NewTicker(h ledger.Handler, enc TaskMarshaler) *Ticker {
	return &Ticker{
		hn:      h,
		enc:     enc,
		results: NewTaskResultBucket(),
	}
}

// Ticker allows to execute messages queued for future execution. It does this
// by implementing ledger.Ticker interface.
type Ticker struct {
	hn      ledger.Handler
	enc     TaskMarshaler
	results orm.ModelBucket
}

var _ ledger.Ticker = (*Ticker)(nil)

// Tick implements ledger.Ticker interface.
//
// Tick can process any number of messages suitable for execution. Each task
// is applied atomically and only on success.
func (t *Ticker) Tick(ctx ledger.Context, db ledger.CacheableKVStore) ledger.TickResult {
	tags, err := t.tick(ctx, db)
	if err != nil {
		// A database failure leaves this instance out of sync with the
		// rest of the network. There is no way to continue.
		failTask(err)
	}
	return ledger.TickResult{Tags: tags}
}

// failTask is a variable so that it can be overwritten for tests.
var failTask = func(err error) {
	panic(fmt.Sprintf(`

Asynchronous task failed.

This error is most likely due to a database issues or some other instance
specific problems. The state of this instance can no longer be trusted.

%+v

	`, err))
}

// tick process any number of tasks. It is Tick that returns an error, which
// makes it easier for the tests to check the result.
func (t *Ticker) tick(ctx ledger.Context, db ledger.CacheableKVStore) ([]ledger.KVPair, error) {
	var tags []ledger.KVPair

	now, err := ledger.BlockTime(ctx)
	if err != nil {
		return tags, errors.Wrap(err, "cannot get current time")
	}
	height, _ := ledger.GetHeight(ctx)
	log := ledger.GetLogger(ctx).With("module", "cron")

	for {
		switch key, raw, err := peek(db, now); {
		case err == nil:
			var taskTags []ledger.KVPair
			res := TaskResult{
				Successful: true,
				ExecTime:   ledger.AsUnixTime(now),
				ExecHeight: height,
			}

			// Each task is processed using its own cache instance
			// to ensure changes are atomic and task processing
			// independent.
			cache := db.CacheWrap()

			auth, msg, err := t.enc.UnmarshalTask(raw)
			if err != nil {
				res.Successful = false
				res.Info = fmt.Sprintf("cannot unmarshal task: %+v", err)
			} else {
				taskCtx := withAuth(ctx, auth)
				tx := &taskTx{msg: msg}
				// Task changes are written only when the execution
				// succeeds. Only the result of a failed task is stored.
				exec := cache.CacheWrap()
				if r, err := t.hn.Deliver(taskCtx, exec, tx); err != nil {
					exec.Discard()
					res.Successful = false
					res.Info = err.Error()
				} else if err := exec.Write(); err != nil {
					cache.Discard()
					return tags, errors.Wrap(err, "cannot write task changes")
				} else {
					taskTags = append(taskTags, r.Tags...)
				}
			}
			if !res.Successful {
				log.Info("task failed", "task", key, "info", res.Info)
			}

			if err := t.results.Put(cache, key, &res); err != nil {
				cache.Discard()
				return tags, errors.Wrap(err, "cannot store result")
			}

			// Remove the task from the queue as it was processed.
			// Do it via cache to keep it atomic.
			if err := cache.Delete(key); err != nil {
				cache.Discard()
				return tags, errors.Wrap(err, "cannot delete task")
			}
			if err := cache.Write(); err != nil {
				return tags, errors.Wrap(err, "cannot write cache")
			}

			tags = append(tags, taskTags...)
			tags = append(tags, ledger.Tag("cron", key))
		case errors.ErrEmpty.Is(err):
			// No more messages queued for execution at this time.
			return tags, nil
		default:
			return tags, errors.Wrap(err, "cannot pop queue")
		}
	}
}

// peek reads from the queue a single task that reached its execution time and
// returns it encoded value and ID. It returns ErrEmpty if there is no message
// suitable for processing.
// Tasks are consumed in order of execution time, starting with the oldest.
func peek(db ledger.KVStore, now time.Time) (id, raw []byte, err error) {
	since := queueKey(time.Time{})
	// Iterator end is exclusive, tasks scheduled exactly now are due.
	until := queueKey(now.Add(time.Nanosecond))
	it, err := db.Iterator(since, until)
	if err != nil {
		return nil, nil, errors.Wrap(err, "cannot create iterator")
	}
	defer it.Release()

	switch key, value, err := it.Next(); {
	case err == nil:
		return key, value, nil
	case errors.ErrIteratorDone.Is(err):
		return nil, nil, errors.ErrEmpty
	default:
		return nil, nil, errors.Wrap(err, "cannot get next item")
	}
}

// taskTx is a ledger.Tx implementation created for running
// asynchronous tasks. It is a thin wrapper over the message.
type taskTx struct {
	msg ledger.Msg
}

var _ ledger.Tx = (*taskTx)(nil)

// GetMsg implements ledger.Tx interface.
func (tx *taskTx) GetMsg() (ledger.Msg, error) {
	return tx.msg, nil
}

// Unmarshal implements ledger.Tx interface.
func (tx *taskTx) Unmarshal([]byte) error {
	return errors.Wrap(errors.ErrHuman, "operation not supported, task transaction is not serializable")
}

// Marshal implements ledger.Tx interface.
func (tx *taskTx) Marshal() ([]byte, error) {
	return nil, errors.Wrap(errors.ErrHuman, "operation not supported, task transaction is not serializable")
}

package ledgertest

import (
	"bytes"
	"encoding/binary"
	"sort"
	"time"

	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/errors"
)

// Cron is a in memory implementation of the scheduler. Use it to check what
// a handler scheduled without running a real task queue.
type Cron struct {
	Err   error
	seq   uint64
	tasks []*CronTask
}

// CronTask is a single scheduled message.
type CronTask struct {
	ID    []byte
	RunAt time.Time
	Auth  []ledger.Condition
	Msg   ledger.Msg
}

var _ ledger.Scheduler = (*Cron)(nil)

// Schedule implements ledger.Scheduler interface.
func (c *Cron) Schedule(db ledger.KVStore, runAt time.Time, auth []ledger.Condition, msg ledger.Msg) ([]byte, error) {
	if c.Err != nil {
		return nil, c.Err
	}

	c.seq++
	tid := make([]byte, 8)
	binary.BigEndian.PutUint64(tid, c.seq)

	c.tasks = append(c.tasks, &CronTask{
		ID:    tid,
		RunAt: runAt,
		Auth:  auth,
		Msg:   msg,
	})

	// Keep in order from the oldest to the newest. Those to be executed
	// first are first.
	sort.SliceStable(c.tasks, func(i, j int) bool {
		return c.tasks[i].RunAt.Before(c.tasks[j].RunAt)
	})

	return tid, nil
}

// Delete implements ledger.Scheduler interface.
func (c *Cron) Delete(db ledger.KVStore, taskID []byte) error {
	if c.Err != nil {
		return c.Err
	}

	for i, t := range c.tasks {
		if bytes.Equal(t.ID, taskID) {
			c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
			return nil
		}
	}
	return errors.Wrap(errors.ErrNotFound, "no task")
}

// Tasks returns all scheduled tasks, ordered by execution time.
func (c *Cron) Tasks() []*CronTask {
	return c.tasks
}

// Due removes and returns all tasks that should be executed at given time.
func (c *Cron) Due(now time.Time) []*CronTask {
	var n int
	for _, t := range c.tasks {
		if t.RunAt.After(now) {
			break
		}
		n++
	}
	due := c.tasks[:n]
	c.tasks = c.tasks[n:]
	return due
}

package engine

import (
	"github.com/ChuLiYu/jobqueue/internal/jobstore"
	"github.com/ChuLiYu/jobqueue/internal/keys"
	"github.com/ChuLiYu/jobqueue/internal/queueerr"
	"github.com/ChuLiYu/jobqueue/internal/resource"
	"github.com/ChuLiYu/jobqueue/internal/storage"
	"github.com/ChuLiYu/jobqueue/pkg/types"
)

// RetryArgs is the retry verb's argument bundle (§4.5).
type RetryArgs struct {
	Now     int64
	Jid     string
	Queue   string
	Worker  string
	Group   string
	Message string
	Delay   int64
}

// Retry returns a running job to waiting or scheduled, decrementing its
// retry budget, or terminally fails it once that budget is exhausted.
// Resources already held are kept across non-terminal retries (§9).
func (e *Engine) Retry(a RetryArgs) (types.State, error) {
	var result types.State
	err := e.store.Exec(func(tx storage.Tx) error {
		cfg, err := loadConfig(tx)
		if err != nil {
			return err
		}
		j, err := jobstore.Get(tx, a.Jid)
		if err != nil {
			return err
		}
		if j == nil {
			return queueerr.NotFoundf("job %s", a.Jid)
		}
		if j.State != types.Running {
			return queueerr.WrongStateStr(a.Jid, string(j.State))
		}
		if err := requireWorker(j, a.Jid, a.Worker); err != nil {
			return err
		}

		if err := tx.ZRem(keys.QueueLocks(j.Queue), a.Jid); err != nil {
			return err
		}
		if err := untrackRunning(tx, a.Worker, a.Jid); err != nil {
			return err
		}

		j.Remaining--
		group := a.Group
		if group == "" {
			group = "failed-retries"
		}

		if j.Remaining < 0 {
			if err := resource.ReleaseAll(tx, j.Resources, a.Jid); err != nil {
				return err
			}
			j.State = types.Failed
			j.Failure = types.Failure{Group: group, Message: a.Message, Worker: a.Worker, When: a.Now}
			j.Worker = ""
			j.Queue = ""
			j.Expires = 0
			if err := jobstore.Put(tx, j); err != nil {
				return err
			}
			if err := jobstore.AppendHistory(tx, a.Jid, a.Now, "failed", map[string]any{"group": group}, cfg.MaxJobHistory); err != nil {
				return err
			}
			result = types.Failed
			return nil
		}

		j.Worker = ""
		j.Expires = 0
		if a.Delay > 0 {
			j.State = types.Scheduled
			if err := indexScheduled(tx, j.Queue, a.Jid, a.Now+a.Delay); err != nil {
				return err
			}
		} else {
			j.State = types.Waiting
			seq, err := tx.Incr(keys.PutSeq)
			if err != nil {
				return err
			}
			if err := indexWaiting(tx, j.Queue, a.Jid, j.Priority, seq); err != nil {
				return err
			}
		}
		if err := jobstore.Put(tx, j); err != nil {
			return err
		}
		if err := jobstore.AppendHistory(tx, a.Jid, a.Now, "retried", map[string]any{"group": group}, cfg.MaxJobHistory); err != nil {
			return err
		}
		result = j.State
		return nil
	})
	return result, err
}

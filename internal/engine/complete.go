package engine

import (
	"math"

	"github.com/ChuLiYu/jobqueue/internal/jobstore"
	"github.com/ChuLiYu/jobqueue/internal/keys"
	"github.com/ChuLiYu/jobqueue/internal/queueerr"
	"github.com/ChuLiYu/jobqueue/internal/resource"
	"github.com/ChuLiYu/jobqueue/internal/storage"
	"github.com/ChuLiYu/jobqueue/pkg/types"
)

// CompleteArgs is the complete verb's argument bundle (§4.5).
type CompleteArgs struct {
	Now     int64
	Jid     string
	Worker  string
	Queue   string
	Data    []byte
	Next    string
	Delay   int64
	Depends []string
}

// Complete finishes a running job, either marking it complete or chaining
// it into a new queue via Next, per §4.5's ordered preconditions.
func (e *Engine) Complete(a CompleteArgs) (types.State, error) {
	var result types.State
	err := e.store.Exec(func(tx storage.Tx) error {
		cfg, err := loadConfig(tx)
		if err != nil {
			return err
		}

		if a.Next == "" && len(a.Depends) > 0 {
			return queueerr.Malformedf("complete with depends requires next")
		}
		if a.Delay > 0 && len(a.Depends) > 0 {
			return queueerr.Malformedf("complete cannot combine delay and depends")
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
		if err := requireQueue(j, a.Jid, a.Queue); err != nil {
			return err
		}

		if err := tx.ZRem(keys.QueueLocks(a.Queue), a.Jid); err != nil {
			return err
		}
		if err := untrackRunning(tx, a.Worker, a.Jid); err != nil {
			return err
		}
		if err := jobstore.AppendHistory(tx, a.Jid, a.Now, "done", nil, cfg.MaxJobHistory); err != nil {
			return err
		}

		if a.Next == "" {
			j.Data = a.Data
			j.State = types.Complete
			j.Worker = ""
			j.Queue = ""
			j.Expires = 0
			if err := resource.ReleaseAll(tx, j.Resources, a.Jid); err != nil {
				return err
			}
			if err := jobstore.Put(tx, j); err != nil {
				return err
			}
			if err := tx.ZAdd(keys.Completed, a.Jid, float64(a.Now)); err != nil {
				return err
			}
			if unblocked, err := jobstore.ResolveDependents(tx, a.Jid); err != nil {
				return err
			} else if err := moveUnblockedToWaiting(tx, cfg, unblocked); err != nil {
				return err
			}
			if err := evictCompleted(tx, cfg, a.Now); err != nil {
				return err
			}
			result = types.Complete
			return nil
		}

		st, err := putTx(tx, cfg, PutArgs{
			Now:       a.Now,
			Worker:    types.NoWorker,
			Queue:     a.Next,
			Jid:       a.Jid,
			Klass:     j.Klass,
			Data:      a.Data,
			Delay:     a.Delay,
			Retries:   j.Retries,
			Depends:   a.Depends,
			Resources: j.Resources,
			Priority:  j.Priority,
			Tags:      j.Tags,
		})
		if err != nil {
			return err
		}
		result = st
		return nil
	})
	return result, err
}

// moveUnblockedToWaiting transitions jobs whose dependencies just emptied
// out of depends and into waiting, attempting resource acquisition for any
// that declare resources (mirroring put's resources-non-empty branch).
func moveUnblockedToWaiting(tx storage.Tx, cfg types.Config, unblocked []string) error {
	for _, jid := range unblocked {
		j, err := jobstore.Get(tx, jid)
		if err != nil {
			return err
		}
		if j == nil || j.State != types.Depends {
			continue
		}
		if err := tx.SRem(keys.QueueDepends(j.Queue), jid); err != nil {
			return err
		}
		if len(j.Resources) > 0 {
			if _, err := resource.AcquireAll(tx, j.Resources, jid); err != nil {
				return err
			}
		}
		seq, err := tx.Incr(keys.PutSeq)
		if err != nil {
			return err
		}
		if err := indexWaiting(tx, j.Queue, jid, j.Priority, seq); err != nil {
			return err
		}
		j.State = types.Waiting
		if err := jobstore.Put(tx, j); err != nil {
			return err
		}
	}
	return nil
}

// evictCompleted enforces the two completion-retention bounds (§4.1,
// §4.5): age (jobs-history) and count (jobs-history-count).
func evictCompleted(tx storage.Tx, cfg types.Config, now int64) error {
	maxAge := float64(now - cfg.JobsHistory)
	aged, err := tx.ZRangeByScore(keys.Completed, math.Inf(-1), maxAge)
	if err != nil {
		return err
	}
	for _, jid := range aged {
		if err := evictOne(tx, jid); err != nil {
			return err
		}
	}

	total, err := tx.ZCard(keys.Completed)
	if err != nil {
		return err
	}
	if cfg.JobsHistoryCount > 0 && total > cfg.JobsHistoryCount {
		excess := total - cfg.JobsHistoryCount
		oldest, err := tx.ZRange(keys.Completed, 0, excess)
		if err != nil {
			return err
		}
		for _, jid := range oldest {
			if err := evictOne(tx, jid); err != nil {
				return err
			}
		}
	}
	return nil
}

func evictOne(tx storage.Tx, jid string) error {
	if err := tx.ZRem(keys.Completed, jid); err != nil {
		return err
	}
	return jobstore.Delete(tx, jid)
}

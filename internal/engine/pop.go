package engine

import (
	"math"

	"github.com/ChuLiYu/jobqueue/internal/jobstore"
	"github.com/ChuLiYu/jobqueue/internal/keys"
	"github.com/ChuLiYu/jobqueue/internal/resource"
	"github.com/ChuLiYu/jobqueue/internal/storage"
	"github.com/ChuLiYu/jobqueue/pkg/types"
)

// Pop pops up to count ready jobs from queue for worker, running the
// deterministic drain-scheduled / reclaim-stale / select pipeline (§4.5,
// §5) in one transaction.
func (e *Engine) Pop(queue, worker string, now int64, count int) ([]*types.Job, error) {
	var out []*types.Job
	err := e.store.Exec(func(tx storage.Tx) error {
		cfg, err := loadConfig(tx)
		if err != nil {
			return err
		}
		if err := drainScheduled(tx, queue, now); err != nil {
			return err
		}
		if err := reclaimStale(tx, queue, now, cfg); err != nil {
			return err
		}
		jobs, err := selectReady(tx, queue, worker, now, count, cfg)
		if err != nil {
			return err
		}
		out = jobs
		return nil
	})
	return out, err
}

func drainScheduled(tx storage.Tx, queue string, now int64) error {
	ready, err := tx.ZRangeByScore(keys.QueueScheduled(queue), math.Inf(-1), float64(now))
	if err != nil {
		return err
	}
	for _, jid := range ready {
		if err := tx.ZRem(keys.QueueScheduled(queue), jid); err != nil {
			return err
		}
		j, err := jobstore.Get(tx, jid)
		if err != nil {
			return err
		}
		if j == nil {
			continue
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
		if err := indexWaiting(tx, queue, jid, j.Priority, seq); err != nil {
			return err
		}
		j.State = types.Waiting
		if err := jobstore.Put(tx, j); err != nil {
			return err
		}
	}
	return nil
}

func reclaimStale(tx storage.Tx, queue string, now int64, cfg types.Config) error {
	stale, err := tx.ZRangeByScore(keys.QueueLocks(queue), math.Inf(-1), float64(now-cfg.GracePeriod))
	if err != nil {
		return err
	}
	for _, jid := range stale {
		if err := tx.ZRem(keys.QueueLocks(queue), jid); err != nil {
			return err
		}
		j, err := jobstore.Get(tx, jid)
		if err != nil {
			return err
		}
		if j == nil {
			continue
		}
		if err := jobstore.AppendHistory(tx, jid, now, "timed-out", nil, cfg.MaxJobHistory); err != nil {
			return err
		}
		if err := untrackRunning(tx, j.Worker, jid); err != nil {
			return err
		}
		j.Remaining--
		if j.Remaining < 0 {
			if err := resource.ReleaseAll(tx, j.Resources, jid); err != nil {
				return err
			}
			j.State = types.Failed
			j.Failure = types.Failure{Group: "failed-retries", Message: "job exhausted retries while stalled", Worker: j.Worker, When: now}
			j.Worker = ""
			j.Queue = ""
			j.Expires = 0
			if err := jobstore.Put(tx, j); err != nil {
				return err
			}
			if err := jobstore.AppendHistory(tx, jid, now, "failed", map[string]any{"group": "failed-retries"}, cfg.MaxJobHistory); err != nil {
				return err
			}
			continue
		}
		if err := resource.ReleaseAll(tx, j.Resources, jid); err != nil {
			return err
		}
		j.State = types.Waiting
		j.Worker = ""
		j.Expires = 0
		if err := jobstore.Put(tx, j); err != nil {
			return err
		}
		if err := frontOfWaiting(tx, queue, jid); err != nil {
			return err
		}
	}
	return nil
}

func selectReady(tx storage.Tx, queue, worker string, now int64, count int, cfg types.Config) ([]*types.Job, error) {
	candidates, err := tx.ZRange(keys.QueueWaiting(queue), 0, -1)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Job, 0, count)
	for _, jid := range candidates {
		if len(out) >= count {
			break
		}
		j, err := jobstore.Get(tx, jid)
		if err != nil {
			return nil, err
		}
		if j == nil {
			continue
		}
		if len(j.Resources) > 0 {
			locked, err := resource.FullyLocked(tx, j.Resources, jid)
			if err != nil {
				return nil, err
			}
			if !locked {
				continue
			}
		}
		if err := tx.ZRem(keys.QueueWaiting(queue), jid); err != nil {
			return nil, err
		}
		expires := now + cfg.Heartbeat
		j.Worker = worker
		j.Expires = expires
		j.State = types.Running
		if err := jobstore.Put(tx, j); err != nil {
			return nil, err
		}
		if err := jobstore.AppendHistory(tx, jid, now, "popped", map[string]any{"worker": worker}, cfg.MaxJobHistory); err != nil {
			return nil, err
		}
		if err := indexLocks(tx, queue, jid, expires); err != nil {
			return nil, err
		}
		if err := trackRunning(tx, worker, jid); err != nil {
			return nil, err
		}
		j.History, err = jobstore.History(tx, jid)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, nil
}

package engine

import (
	"github.com/ChuLiYu/jobqueue/internal/jobstore"
	"github.com/ChuLiYu/jobqueue/internal/keys"
	"github.com/ChuLiYu/jobqueue/internal/queueerr"
	"github.com/ChuLiYu/jobqueue/internal/storage"
	"github.com/ChuLiYu/jobqueue/pkg/types"
)

// Priority changes a waiting job's priority in place, re-scoring it within
// queue.waiting without disturbing its put-sequence tie-breaker. It is the
// one verb SPEC_FULL adds beyond the original operation surface (§4.7): a
// job outside waiting has no ordering to re-score, so only its stored
// priority changes, which takes effect when it next enters waiting.
func (e *Engine) Priority(jid string, priority int) (types.State, error) {
	var result types.State
	err := e.store.Exec(func(tx storage.Tx) error {
		j, err := jobstore.Get(tx, jid)
		if err != nil {
			return err
		}
		if j == nil {
			return queueerr.NotFoundf("job %s", jid)
		}

		if j.State == types.Waiting {
			score, ok, err := tx.ZScore(keys.QueueWaiting(j.Queue), jid)
			if err != nil {
				return err
			}
			if ok {
				putSeq := score + float64(j.Priority)*priorityScale
				if err := tx.ZAdd(keys.QueueWaiting(j.Queue), jid, waitingScore(priority, int64(putSeq))); err != nil {
					return err
				}
			}
		}

		j.Priority = priority
		result = j.State
		return jobstore.Put(tx, j)
	})
	return result, err
}

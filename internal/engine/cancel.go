package engine

import (
	"github.com/ChuLiYu/jobqueue/internal/jobstore"
	"github.com/ChuLiYu/jobqueue/internal/keys"
	"github.com/ChuLiYu/jobqueue/internal/queueerr"
	"github.com/ChuLiYu/jobqueue/internal/resource"
	"github.com/ChuLiYu/jobqueue/internal/storage"
	"github.com/ChuLiYu/jobqueue/pkg/types"
)

// Cancel removes each existing jid, releasing its resources and
// dependency edges, and returns the jids that actually existed. A jid with
// a live (not complete/failed) dependent fails the whole call with a
// `dependency` error — cancel is one atomic transition, so a partial batch
// cancel is not observable.
func (e *Engine) Cancel(now int64, jids ...string) ([]string, error) {
	var canceled []string
	err := e.store.Exec(func(tx storage.Tx) error {
		for _, jid := range jids {
			j, err := jobstore.Get(tx, jid)
			if err != nil {
				return err
			}
			if j == nil {
				continue
			}
			live, err := jobstore.LiveDependents(tx, jid, func(d string) (bool, error) {
				dj, err := jobstore.Get(tx, d)
				if err != nil {
					return false, err
				}
				if dj == nil {
					return false, nil
				}
				return dj.State != types.Complete && dj.State != types.Failed, nil
			})
			if err != nil {
				return err
			}
			if len(live) > 0 {
				return queueerr.DependencyErr(jid, live)
			}

			if err := removeFromAllSubIndexes(tx, j.Queue, jid); err != nil {
				return err
			}
			if err := resource.ReleaseAll(tx, j.Resources, jid); err != nil {
				return err
			}
			if err := jobstore.RemoveDependencyEdges(tx, jid); err != nil {
				return err
			}
			if err := untrackRunning(tx, j.Worker, jid); err != nil {
				return err
			}
			if err := tx.ZRem(keys.Completed, jid); err != nil {
				return err
			}
			if err := jobstore.Delete(tx, jid); err != nil {
				return err
			}
			canceled = append(canceled, jid)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return canceled, nil
}

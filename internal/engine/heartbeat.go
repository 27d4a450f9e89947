package engine

import (
	"github.com/ChuLiYu/jobqueue/internal/jobstore"
	"github.com/ChuLiYu/jobqueue/internal/queueerr"
	"github.com/ChuLiYu/jobqueue/internal/storage"
	"github.com/ChuLiYu/jobqueue/pkg/types"
)

// Heartbeat extends a running job's lock expiry, returning the new expiry.
func (e *Engine) Heartbeat(now int64, jid, worker string, data []byte) (int64, error) {
	var expires int64
	err := e.store.Exec(func(tx storage.Tx) error {
		cfg, err := loadConfig(tx)
		if err != nil {
			return err
		}
		j, err := jobstore.Get(tx, jid)
		if err != nil {
			return err
		}
		if j == nil {
			return queueerr.NotFoundf("job %s", jid)
		}
		if j.State != types.Running {
			return queueerr.WrongStateStr(jid, string(j.State))
		}
		if err := requireWorker(j, jid, worker); err != nil {
			return err
		}

		expires = now + cfg.Heartbeat
		if err := indexLocks(tx, j.Queue, jid, expires); err != nil {
			return err
		}
		if len(data) > 0 {
			j.Data = data
		}
		j.Expires = expires
		return jobstore.Put(tx, j)
	})
	if err != nil {
		return 0, err
	}
	return expires, nil
}

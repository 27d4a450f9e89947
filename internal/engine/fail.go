package engine

import (
	"github.com/ChuLiYu/jobqueue/internal/jobstore"
	"github.com/ChuLiYu/jobqueue/internal/keys"
	"github.com/ChuLiYu/jobqueue/internal/queueerr"
	"github.com/ChuLiYu/jobqueue/internal/resource"
	"github.com/ChuLiYu/jobqueue/internal/storage"
	"github.com/ChuLiYu/jobqueue/pkg/types"
)

// FailArgs is the fail verb's argument bundle (§4.5).
type FailArgs struct {
	Now     int64
	Jid     string
	Worker  string
	Group   string
	Message string
	Data    []byte
}

// Fail terminally fails a running job with a caller-supplied group/message.
func (e *Engine) Fail(a FailArgs) error {
	return e.store.Exec(func(tx storage.Tx) error {
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
		if err := resource.ReleaseAll(tx, j.Resources, a.Jid); err != nil {
			return err
		}

		if len(a.Data) > 0 {
			j.Data = a.Data
		}
		j.State = types.Failed
		j.Failure = types.Failure{Group: a.Group, Message: a.Message, Worker: a.Worker, When: a.Now}
		j.Worker = ""
		j.Queue = ""
		j.Expires = 0
		if err := jobstore.Put(tx, j); err != nil {
			return err
		}
		return jobstore.AppendHistory(tx, a.Jid, a.Now, "failed", map[string]any{"group": a.Group}, cfg.MaxJobHistory)
	})
}

package engine

import (
	"github.com/ChuLiYu/jobqueue/internal/jobstore"
	"github.com/ChuLiYu/jobqueue/internal/queueerr"
	"github.com/ChuLiYu/jobqueue/internal/storage"
	"github.com/ChuLiYu/jobqueue/pkg/types"
)

// Log appends a user-supplied note to a job's history (§4.4) without
// requiring any particular state — it's the one verb a worker, a bystander,
// or an operator script can call on a job it does not own.
func (e *Engine) Log(now int64, jid, what string, data map[string]any) error {
	return e.store.Exec(func(tx storage.Tx) error {
		cfg, err := loadConfig(tx)
		if err != nil {
			return err
		}
		ok, err := jobstore.Exists(tx, jid)
		if err != nil {
			return err
		}
		if !ok {
			return queueerr.NotFoundf("job %s", jid)
		}
		return jobstore.AppendHistory(tx, jid, now, what, data, cfg.MaxJobHistory)
	})
}

// History returns a job's recorded events in chronological order.
func (e *Engine) History(jid string) ([]types.HistoryEvent, error) {
	var events []types.HistoryEvent
	err := e.store.Exec(func(tx storage.Tx) error {
		ok, err := jobstore.Exists(tx, jid)
		if err != nil {
			return err
		}
		if !ok {
			return queueerr.NotFoundf("job %s", jid)
		}
		events, err = jobstore.History(tx, jid)
		return err
	})
	return events, err
}

package engine

import (
	"github.com/ChuLiYu/jobqueue/internal/jobstore"
	"github.com/ChuLiYu/jobqueue/internal/keys"
	"github.com/ChuLiYu/jobqueue/internal/queueerr"
	"github.com/ChuLiYu/jobqueue/internal/resource"
	"github.com/ChuLiYu/jobqueue/internal/storage"
	"github.com/ChuLiYu/jobqueue/pkg/types"
)

// PutArgs is the put verb's argument bundle (§4.5). Retries < 0 means
// "unspecified", which resolves to the default of 5.
type PutArgs struct {
	Now       int64
	Worker    string
	Queue     string
	Jid       string
	Klass     string
	Data      []byte
	Delay     int64
	Retries   int
	Depends   []string
	Resources []string
	Priority  int
	Tags      []string
}

// Put creates or requeues a job, choosing its destination state per §4.5's
// first-match rule, and returns the resulting state.
func (e *Engine) Put(a PutArgs) (types.State, error) {
	var result types.State
	err := e.store.Exec(func(tx storage.Tx) error {
		cfg, err := loadConfig(tx)
		if err != nil {
			return err
		}
		st, err := putTx(tx, cfg, a)
		if err != nil {
			return err
		}
		result = st
		return nil
	})
	return result, err
}

// putTx is put's body, factored out so complete's next-queue chaining can
// reuse it inside an already-open transaction.
func putTx(tx storage.Tx, cfg types.Config, a PutArgs) (types.State, error) {
	if a.Jid == "" || a.Queue == "" || a.Klass == "" {
		return "", queueerr.Malformedf("put requires jid, queue, and klass")
	}
	if a.Worker == "" {
		a.Worker = types.NoWorker
	}
	retries := a.Retries
	if retries < 0 {
		retries = 5
	}

	for _, rid := range a.Resources {
		ok, err := resource.Exists(tx, rid)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", queueerr.ResourceNotFound(rid)
		}
	}

	existing, err := jobstore.Get(tx, a.Jid)
	if err != nil {
		return "", err
	}
	isRequeue := existing != nil
	if isRequeue {
		if existing.State == types.Complete {
			return "", queueerr.NotFoundf("job %s", a.Jid)
		}
		if err := removeFromAllSubIndexes(tx, existing.Queue, a.Jid); err != nil {
			return "", err
		}
		if err := resource.ReleaseAll(tx, existing.Resources, a.Jid); err != nil {
			return "", err
		}
		if err := jobstore.RemoveDependencyEdges(tx, a.Jid); err != nil {
			return "", err
		}
	}

	depsOK := false
	if len(a.Depends) > 0 {
		depsOK = true
		for _, d := range a.Depends {
			dj, err := jobstore.Get(tx, d)
			if err != nil {
				return "", err
			}
			if dj == nil || dj.State == types.Complete {
				depsOK = false
				break
			}
		}
	}

	j := &types.Job{
		Jid:            a.Jid,
		Klass:          a.Klass,
		Data:           a.Data,
		Priority:       a.Priority,
		Tags:           a.Tags,
		Resources:      a.Resources,
		Retries:        retries,
		Remaining:      retries,
		Queue:          a.Queue,
		Worker:         "",
		SpawnedFromJid: "",
		Tracked:        false,
	}
	if isRequeue {
		j.Tracked = existing.Tracked
		j.SpawnedFromJid = existing.SpawnedFromJid
	}

	switch {
	case depsOK:
		j.State = types.Depends
		if err := jobstore.AddDependencyEdges(tx, a.Jid, a.Depends); err != nil {
			return "", err
		}
		if err := indexDepends(tx, a.Queue, a.Jid); err != nil {
			return "", err
		}
	case len(a.Resources) > 0:
		j.State = types.Waiting
		if _, err := resource.AcquireAll(tx, a.Resources, a.Jid); err != nil {
			return "", err
		}
		seq, err := tx.Incr(keys.PutSeq)
		if err != nil {
			return "", err
		}
		if err := indexWaiting(tx, a.Queue, a.Jid, a.Priority, seq); err != nil {
			return "", err
		}
	case a.Delay > 0:
		j.State = types.Scheduled
		if err := indexScheduled(tx, a.Queue, a.Jid, a.Now+a.Delay); err != nil {
			return "", err
		}
	default:
		j.State = types.Waiting
		seq, err := tx.Incr(keys.PutSeq)
		if err != nil {
			return "", err
		}
		if err := indexWaiting(tx, a.Queue, a.Jid, a.Priority, seq); err != nil {
			return "", err
		}
	}

	if err := jobstore.Put(tx, j); err != nil {
		return "", err
	}
	if err := jobstore.AppendHistory(tx, a.Jid, a.Now, "put", map[string]any{"q": a.Queue}, cfg.MaxJobHistory); err != nil {
		return "", err
	}
	return j.State, nil
}

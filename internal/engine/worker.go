package engine

import (
	"github.com/ChuLiYu/jobqueue/internal/keys"
	"github.com/ChuLiYu/jobqueue/internal/queueerr"
	"github.com/ChuLiYu/jobqueue/internal/storage"
	"github.com/ChuLiYu/jobqueue/pkg/types"
)

// trackRunning records that worker now owns jid, for worker-scoped queries
// and the wrong-worker guard (C6).
func trackRunning(tx storage.Tx, worker, jid string) error {
	if worker == "" || worker == types.NoWorker {
		return nil
	}
	return tx.SAdd(keys.Worker(worker), jid)
}

// untrackRunning removes jid from worker's running set.
func untrackRunning(tx storage.Tx, worker, jid string) error {
	if worker == "" {
		return nil
	}
	return tx.SRem(keys.Worker(worker), jid)
}

// requireWorker enforces the "another worker" guard shared by
// complete/heartbeat/fail/retry.
func requireWorker(j *types.Job, jid, worker string) error {
	if j.Worker != worker {
		return queueerr.AnotherWorkerErr(jid, j.Worker, worker)
	}
	return nil
}

// requireQueue enforces the "another queue" guard on complete.
func requireQueue(j *types.Job, jid, queue string) error {
	if j.Queue != queue {
		return queueerr.AnotherQueueErr(jid, j.Queue, queue)
	}
	return nil
}

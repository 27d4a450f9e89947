package engine

import (
	"github.com/ChuLiYu/jobqueue/internal/keys"
	"github.com/ChuLiYu/jobqueue/internal/storage"
)

// priorityScale separates the priority component of a waiting-index score
// from its put-sequence tie-breaker; put sequences are assumed to never
// reach this magnitude within one queue's lifetime.
const priorityScale = 1e15

func waitingScore(priority int, putSeq int64) float64 {
	return float64(-priority)*priorityScale + float64(putSeq)
}

// removeFromAllSubIndexes removes jid from every sub-index of queue. Safe
// to call even when jid is not present in any of them.
func removeFromAllSubIndexes(tx storage.Tx, queue, jid string) error {
	if err := tx.ZRem(keys.QueueWaiting(queue), jid); err != nil {
		return err
	}
	if err := tx.ZRem(keys.QueueScheduled(queue), jid); err != nil {
		return err
	}
	if err := tx.SRem(keys.QueueDepends(queue), jid); err != nil {
		return err
	}
	return tx.ZRem(keys.QueueLocks(queue), jid)
}

func indexWaiting(tx storage.Tx, queue, jid string, priority int, putSeq int64) error {
	return tx.ZAdd(keys.QueueWaiting(queue), jid, waitingScore(priority, putSeq))
}

func indexScheduled(tx storage.Tx, queue, jid string, readyAt int64) error {
	return tx.ZAdd(keys.QueueScheduled(queue), jid, float64(readyAt))
}

func indexDepends(tx storage.Tx, queue, jid string) error {
	return tx.SAdd(keys.QueueDepends(queue), jid)
}

func indexLocks(tx storage.Tx, queue, jid string, expires int64) error {
	return tx.ZAdd(keys.QueueLocks(queue), jid, float64(expires))
}

// frontOfWaiting gives jid the highest-priority score currently present
// (ties broken toward being picked first), used when re-inserting a
// reclaimed stale job at the front of waiting (§4.5 pop step 2).
func frontOfWaiting(tx storage.Tx, queue, jid string) error {
	members, err := tx.ZRange(keys.QueueWaiting(queue), 0, 1)
	if err != nil {
		return err
	}
	score := 0.0
	if len(members) > 0 {
		s, ok, err := tx.ZScore(keys.QueueWaiting(queue), members[0])
		if err != nil {
			return err
		}
		if ok {
			score = s - 1
		}
	}
	return tx.ZAdd(keys.QueueWaiting(queue), jid, score)
}

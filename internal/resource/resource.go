// Package resource implements the counted-resource manager (C3): capped
// semaphores with an owner set and a FIFO waitlist. All operations take a
// storage.Tx so they compose into the caller's larger transaction (put,
// pop, complete, fail, retry, cancel all touch resources as one step of a
// bigger atomic verb).
package resource

import (
	"strconv"

	"github.com/ChuLiYu/jobqueue/internal/keys"
	"github.com/ChuLiYu/jobqueue/internal/queueerr"
	"github.com/ChuLiYu/jobqueue/internal/storage"
	"github.com/ChuLiYu/jobqueue/pkg/types"
)

// AcquireResult is the outcome of Acquire.
type AcquireResult int

const (
	Acquired AcquireResult = iota
	Pending
	AlreadyHeld
)

// Set creates the resource if absent, or updates its cap. It then
// rebalances, in case raising the cap frees room for pending waiters.
func Set(tx storage.Tx, rid string, max int) error {
	if err := tx.HSet(keys.Resource(rid), map[string]string{"max": strconv.Itoa(max)}); err != nil {
		return err
	}
	_, err := Rebalance(tx, rid)
	return err
}

// Exists reports whether rid has been created via Set.
func Exists(tx storage.Tx, rid string) (bool, error) {
	_, ok, err := tx.HGet(keys.Resource(rid), "max")
	return ok, err
}

// Get returns the resource's current state, or nil if it does not exist.
func Get(tx storage.Tx, rid string) (*types.Resource, error) {
	v, ok, err := tx.HGet(keys.Resource(rid), "max")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	max, _ := strconv.Atoi(v)
	locks, err := tx.SMembers(keys.ResourceLocks(rid))
	if err != nil {
		return nil, err
	}
	pending, err := tx.ZRange(keys.ResourcePending(rid), 0, -1)
	if err != nil {
		return nil, err
	}
	return &types.Resource{Rid: rid, Max: max, Locks: locks, Pending: pending}, nil
}

// Locks returns the current lock count.
func Locks(tx storage.Tx, rid string) (int, error) {
	return tx.SCard(keys.ResourceLocks(rid))
}

// Unset removes a resource. Per this implementation's documented choice
// (SPEC_FULL §9), it refuses while any lock or pending entry remains,
// rather than cascading a release.
func Unset(tx storage.Tx, rid string) error {
	locks, err := tx.SCard(keys.ResourceLocks(rid))
	if err != nil {
		return err
	}
	pending, err := tx.ZCard(keys.ResourcePending(rid))
	if err != nil {
		return err
	}
	if locks > 0 || pending > 0 {
		return queueerr.Malformedf("resource %s is in use (locks=%d pending=%d)", rid, locks, pending)
	}
	if err := tx.Del(keys.Resource(rid)); err != nil {
		return err
	}
	if err := tx.Del(keys.ResourceLocks(rid)); err != nil {
		return err
	}
	if err := tx.Del(keys.ResourcePendingSeq(rid)); err != nil {
		return err
	}
	return tx.Del(keys.ResourcePending(rid))
}

func max(tx storage.Tx, rid string) (int, error) {
	v, ok, err := tx.HGet(keys.Resource(rid), "max")
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	n, _ := strconv.Atoi(v)
	return n, nil
}

// Acquire attempts to grant rid to jid, or else enqueues jid on the
// waitlist. Idempotent: a jid already in locks or pending is a no-op.
func Acquire(tx storage.Tx, rid, jid string) (AcquireResult, error) {
	held, err := tx.SIsMember(keys.ResourceLocks(rid), jid)
	if err != nil {
		return 0, err
	}
	if held {
		return AlreadyHeld, nil
	}
	_, alreadyPending, err := tx.ZScore(keys.ResourcePending(rid), jid)
	if err != nil {
		return 0, err
	}
	if alreadyPending {
		return AlreadyHeld, nil
	}

	m, err := max(tx, rid)
	if err != nil {
		return 0, err
	}
	n, err := tx.SCard(keys.ResourceLocks(rid))
	if err != nil {
		return 0, err
	}
	if n < m {
		if err := tx.SAdd(keys.ResourceLocks(rid), jid); err != nil {
			return 0, err
		}
		return Acquired, nil
	}

	seq, err := tx.Incr(keys.ResourcePendingSeq(rid))
	if err != nil {
		return 0, err
	}
	if err := tx.ZAdd(keys.ResourcePending(rid), jid, float64(seq)); err != nil {
		return 0, err
	}
	return Pending, nil
}

// Release removes jid from both locks and pending, rebalancing if a lock
// slot opened up, and returns the jid(s) promoted from pending into locks
// as a result.
func Release(tx storage.Tx, rid, jid string) (promoted []string, err error) {
	wasLocked, err := tx.SIsMember(keys.ResourceLocks(rid), jid)
	if err != nil {
		return nil, err
	}
	if wasLocked {
		if err := tx.SRem(keys.ResourceLocks(rid), jid); err != nil {
			return nil, err
		}
	}
	if err := tx.ZRem(keys.ResourcePending(rid), jid); err != nil {
		return nil, err
	}
	if !wasLocked {
		return nil, nil
	}
	return Rebalance(tx, rid)
}

// Rebalance promotes pending waiters into locks, FIFO, while room remains.
func Rebalance(tx storage.Tx, rid string) (promoted []string, err error) {
	for {
		m, err := max(tx, rid)
		if err != nil {
			return promoted, err
		}
		n, err := tx.SCard(keys.ResourceLocks(rid))
		if err != nil {
			return promoted, err
		}
		if n >= m {
			return promoted, nil
		}
		head, err := tx.ZRange(keys.ResourcePending(rid), 0, 1)
		if err != nil {
			return promoted, err
		}
		if len(head) == 0 {
			return promoted, nil
		}
		jid := head[0]
		if err := tx.ZRem(keys.ResourcePending(rid), jid); err != nil {
			return promoted, err
		}
		if err := tx.SAdd(keys.ResourceLocks(rid), jid); err != nil {
			return promoted, err
		}
		promoted = append(promoted, jid)
	}
}

// AcquireAll attempts to acquire every rid in order for jid (§4.3: "a job
// acquiring multiple resources must acquire them in the order listed").
// It is Pending overall if any resource could not be granted immediately.
func AcquireAll(tx storage.Tx, rids []string, jid string) (allAcquired bool, err error) {
	allAcquired = true
	for _, rid := range rids {
		res, err := Acquire(tx, rid, jid)
		if err != nil {
			return false, err
		}
		if res == Pending {
			allAcquired = false
		}
	}
	return allAcquired, nil
}

// ReleaseAll releases jid from every rid it may hold or wait on.
func ReleaseAll(tx storage.Tx, rids []string, jid string) error {
	for _, rid := range rids {
		if _, err := Release(tx, rid, jid); err != nil {
			return err
		}
	}
	return nil
}

// FullyLocked reports whether jid currently holds every rid in rids (i.e.
// none remain in that resource's pending waitlist).
func FullyLocked(tx storage.Tx, rids []string, jid string) (bool, error) {
	for _, rid := range rids {
		held, err := tx.SIsMember(keys.ResourceLocks(rid), jid)
		if err != nil {
			return false, err
		}
		if !held {
			return false, nil
		}
	}
	return true, nil
}

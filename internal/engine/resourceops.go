package engine

import (
	"github.com/ChuLiYu/jobqueue/internal/queueerr"
	"github.com/ChuLiYu/jobqueue/internal/resource"
	"github.com/ChuLiYu/jobqueue/internal/storage"
	"github.com/ChuLiYu/jobqueue/pkg/types"
)

// ResourceSet creates or resizes a counted resource (C3), rebalancing any
// pending waiters a cap increase now has room for.
func (e *Engine) ResourceSet(rid string, max int) error {
	if max < 0 {
		return queueerr.Malformedf("resource %s max must be >= 0", rid)
	}
	return e.store.Exec(func(tx storage.Tx) error {
		return resource.Set(tx, rid, max)
	})
}

// ResourceGet returns a resource's current state, or nil if it doesn't exist.
func (e *Engine) ResourceGet(rid string) (*types.Resource, error) {
	var out *types.Resource
	err := e.store.Exec(func(tx storage.Tx) error {
		var err error
		out, err = resource.Get(tx, rid)
		return err
	})
	return out, err
}

// ResourceUnset removes a resource. Refuses while it has locks or pending
// waiters (§9).
func (e *Engine) ResourceUnset(rid string) error {
	return e.store.Exec(func(tx storage.Tx) error {
		ok, err := resource.Exists(tx, rid)
		if err != nil {
			return err
		}
		if !ok {
			return queueerr.ResourceNotFound(rid)
		}
		return resource.Unset(tx, rid)
	})
}

// ResourceLocks returns the current lock count for rid.
func (e *Engine) ResourceLocks(rid string) (int, error) {
	var n int
	err := e.store.Exec(func(tx storage.Tx) error {
		ok, err := resource.Exists(tx, rid)
		if err != nil {
			return err
		}
		if !ok {
			return queueerr.ResourceNotFound(rid)
		}
		n, err = resource.Locks(tx, rid)
		return err
	})
	return n, err
}

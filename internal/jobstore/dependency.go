package jobstore

import (
	"github.com/ChuLiYu/jobqueue/internal/keys"
	"github.com/ChuLiYu/jobqueue/internal/storage"
)

// AddDependencyEdges registers jid as depending on each of deps, both
// directions of the bidirectional graph (§3 invariant 4).
func AddDependencyEdges(tx storage.Tx, jid string, deps []string) error {
	for _, d := range deps {
		if err := tx.SAdd(keys.JobDependencies(jid), d); err != nil {
			return err
		}
		if err := tx.SAdd(keys.JobDependents(d), jid); err != nil {
			return err
		}
	}
	return nil
}

// RemoveDependencyEdges clears every edge touching jid, in both directions,
// used by cancel.
func RemoveDependencyEdges(tx storage.Tx, jid string) error {
	deps, err := tx.SMembers(keys.JobDependencies(jid))
	if err != nil {
		return err
	}
	for _, d := range deps {
		if err := tx.SRem(keys.JobDependents(d), jid); err != nil {
			return err
		}
	}
	dependents, err := tx.SMembers(keys.JobDependents(jid))
	if err != nil {
		return err
	}
	for _, b := range dependents {
		if err := tx.SRem(keys.JobDependencies(b), jid); err != nil {
			return err
		}
	}
	if err := tx.Del(keys.JobDependencies(jid)); err != nil {
		return err
	}
	return tx.Del(keys.JobDependents(jid))
}

// ResolveDependents removes `jid` from the dependencies of every job that
// was depending on it, clearing both directions of each edge, and returns
// the dependents whose dependency set is now empty (§4.4). The caller
// decides whether each of those jobs should move out of the depends
// sub-index (it may already have been canceled).
func ResolveDependents(tx storage.Tx, jid string) (unblocked []string, err error) {
	dependents, err := tx.SMembers(keys.JobDependents(jid))
	if err != nil {
		return nil, err
	}
	for _, b := range dependents {
		if err := tx.SRem(keys.JobDependencies(b), jid); err != nil {
			return nil, err
		}
		if err := tx.SRem(keys.JobDependents(jid), b); err != nil {
			return nil, err
		}
		remaining, err := tx.SMembers(keys.JobDependencies(b))
		if err != nil {
			return nil, err
		}
		if len(remaining) == 0 {
			unblocked = append(unblocked, b)
		}
	}
	return unblocked, nil
}

// LiveDependents returns the dependents of jid whose state is not already
// complete or failed — used by cancel's dependency guard. state is supplied
// by the caller (engine) since jobstore does not interpret Job.State itself
// beyond reading the record.
func LiveDependents(tx storage.Tx, jid string, isLive func(depJid string) (bool, error)) ([]string, error) {
	dependents, err := tx.SMembers(keys.JobDependents(jid))
	if err != nil {
		return nil, err
	}
	var live []string
	for _, d := range dependents {
		ok, err := isLive(d)
		if err != nil {
			return nil, err
		}
		if ok {
			live = append(live, d)
		}
	}
	return live, nil
}

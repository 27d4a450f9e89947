// Package memstore is an in-memory storage.Store used by the engine's unit
// tests and as the default backend for cmd/. It keeps the same mutex-guarded
// single-writer shape as the teacher's job manager: one lock held for the
// whole transaction, never released mid-closure.
package memstore

import (
	"sort"
	"sync"

	"github.com/ChuLiYu/jobqueue/internal/storage"
)

// Store is a map-backed storage.Store. The zero value is not usable; use New.
type Store struct {
	mu       sync.Mutex
	scalars  map[string]string
	counters map[string]int64
	hashes   map[string]map[string]string
	sets     map[string]map[string]struct{}
	zsets    map[string]map[string]float64
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		scalars:  make(map[string]string),
		counters: make(map[string]int64),
		hashes:   make(map[string]map[string]string),
		sets:     make(map[string]map[string]struct{}),
		zsets:    make(map[string]map[string]float64),
	}
}

// Exec runs fn holding the store's single lock, giving it exclusive access
// to every key. This is the whole of the store's "transaction" guarantee:
// the spec requires serialization, not rollback-on-panic semantics.
func (s *Store) Exec(fn func(storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn((*tx)(s))
}

// tx is a view of Store implementing storage.Tx; it must only be used while
// Store.mu is held, which Exec guarantees.
type tx Store

func (t *tx) store() *Store { return (*Store)(t) }

func (t *tx) Get(key string) (string, bool, error) {
	v, ok := t.store().scalars[key]
	return v, ok, nil
}

func (t *tx) Set(key, value string) error {
	t.store().scalars[key] = value
	return nil
}

func (t *tx) Del(key string) error {
	s := t.store()
	delete(s.scalars, key)
	delete(s.counters, key)
	delete(s.hashes, key)
	delete(s.sets, key)
	delete(s.zsets, key)
	return nil
}

func (t *tx) Incr(key string) (int64, error) {
	s := t.store()
	s.counters[key]++
	return s.counters[key], nil
}

func (t *tx) HGet(key, field string) (string, bool, error) {
	h, ok := t.store().hashes[key]
	if !ok {
		return "", false, nil
	}
	v, ok := h[field]
	return v, ok, nil
}

func (t *tx) HGetAll(key string) (map[string]string, error) {
	h, ok := t.store().hashes[key]
	if !ok {
		return map[string]string{}, nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out, nil
}

func (t *tx) HSet(key string, fields map[string]string) error {
	s := t.store()
	h, ok := s.hashes[key]
	if !ok {
		h = make(map[string]string)
		s.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (t *tx) HDel(key string, fields ...string) error {
	h, ok := t.store().hashes[key]
	if !ok {
		return nil
	}
	for _, f := range fields {
		delete(h, f)
	}
	return nil
}

func (t *tx) SAdd(key string, members ...string) error {
	s := t.store()
	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]struct{})
		s.sets[key] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
	return nil
}

func (t *tx) SRem(key string, members ...string) error {
	set, ok := t.store().sets[key]
	if !ok {
		return nil
	}
	for _, m := range members {
		delete(set, m)
	}
	return nil
}

func (t *tx) SMembers(key string) ([]string, error) {
	set, ok := t.store().sets[key]
	if !ok {
		return nil, nil
	}
	out := make([]string, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

func (t *tx) SIsMember(key, member string) (bool, error) {
	set, ok := t.store().sets[key]
	if !ok {
		return false, nil
	}
	_, ok = set[member]
	return ok, nil
}

func (t *tx) SCard(key string) (int, error) {
	return len(t.store().sets[key]), nil
}

func (t *tx) ZAdd(key, member string, score float64) error {
	s := t.store()
	z, ok := s.zsets[key]
	if !ok {
		z = make(map[string]float64)
		s.zsets[key] = z
	}
	z[member] = score
	return nil
}

func (t *tx) ZRem(key, member string) error {
	z, ok := t.store().zsets[key]
	if !ok {
		return nil
	}
	delete(z, member)
	return nil
}

func (t *tx) ZScore(key, member string) (float64, bool, error) {
	z, ok := t.store().zsets[key]
	if !ok {
		return 0, false, nil
	}
	sc, ok := z[member]
	return sc, ok, nil
}

func (t *tx) sorted(key string) []string {
	z := t.store().zsets[key]
	members := make([]string, 0, len(z))
	for m := range z {
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool {
		si, sj := z[members[i]], z[members[j]]
		if si != sj {
			return si < sj
		}
		return members[i] < members[j]
	})
	return members
}

func (t *tx) ZRangeByScore(key string, min, max float64) ([]string, error) {
	members := t.sorted(key)
	z := t.store().zsets[key]
	out := make([]string, 0, len(members))
	for _, m := range members {
		if z[m] >= min && z[m] <= max {
			out = append(out, m)
		}
	}
	return out, nil
}

func (t *tx) ZRange(key string, start, stop int) ([]string, error) {
	members := t.sorted(key)
	n := len(members)
	if start < 0 {
		start = 0
	}
	if stop < 0 || stop > n {
		stop = n
	}
	if start >= stop {
		return nil, nil
	}
	return members[start:stop], nil
}

func (t *tx) ZRank(key, member string) (int, bool, error) {
	members := t.sorted(key)
	for i, m := range members {
		if m == member {
			return i, true, nil
		}
	}
	return 0, false, nil
}

func (t *tx) ZCard(key string) (int, error) {
	return len(t.store().zsets[key]), nil
}

var _ storage.Store = (*Store)(nil)
var _ storage.Tx = (*tx)(nil)

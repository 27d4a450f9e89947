// Package redisstore backs storage.Store with Redis, using the native hash,
// set, and sorted-set types for the matching storage.Tx primitives — the
// same mapping the original Lua implementation used directly against the
// Redis keyspace. Go-side atomicity comes from a single mutex serializing
// Exec calls (matching spec §5: "the engine serializes them through the
// storage executor"), not from Redis MULTI/EXEC, since the transaction
// closures branch on values read earlier in the same transaction.
package redisstore

import (
	"context"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/ChuLiYu/jobqueue/internal/storage"
)

// Store is a Redis-backed storage.Store.
type Store struct {
	mu     sync.Mutex
	client redis.UniversalClient
	ctx    context.Context
}

// New wraps an existing go-redis client. The caller owns the client's
// lifecycle (Close, connection pool sizing, TLS, etc).
func New(client redis.UniversalClient) *Store {
	return &Store{client: client, ctx: context.Background()}
}

func (s *Store) Exec(fn func(storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&tx{ctx: s.ctx, client: s.client})
}

type tx struct {
	ctx    context.Context
	client redis.UniversalClient
}

func (t *tx) Get(key string) (string, bool, error) {
	v, err := t.client.Get(t.ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (t *tx) Set(key, value string) error {
	return t.client.Set(t.ctx, key, value, 0).Err()
}

func (t *tx) Del(key string) error {
	return t.client.Del(t.ctx, key).Err()
}

func (t *tx) Incr(key string) (int64, error) {
	return t.client.Incr(t.ctx, key).Result()
}

func (t *tx) HGet(key, field string) (string, bool, error) {
	v, err := t.client.HGet(t.ctx, key, field).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (t *tx) HGetAll(key string) (map[string]string, error) {
	return t.client.HGetAll(t.ctx, key).Result()
}

func (t *tx) HSet(key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return t.client.HSet(t.ctx, key, args...).Err()
}

func (t *tx) HDel(key string, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	return t.client.HDel(t.ctx, key, fields...).Err()
}

func (t *tx) SAdd(key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]any, len(members))
	for i, m := range members {
		args[i] = m
	}
	return t.client.SAdd(t.ctx, key, args...).Err()
}

func (t *tx) SRem(key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]any, len(members))
	for i, m := range members {
		args[i] = m
	}
	return t.client.SRem(t.ctx, key, args...).Err()
}

func (t *tx) SMembers(key string) ([]string, error) {
	return t.client.SMembers(t.ctx, key).Result()
}

func (t *tx) SIsMember(key, member string) (bool, error) {
	return t.client.SIsMember(t.ctx, key, member).Result()
}

func (t *tx) SCard(key string) (int, error) {
	n, err := t.client.SCard(t.ctx, key).Result()
	return int(n), err
}

func (t *tx) ZAdd(key, member string, score float64) error {
	return t.client.ZAdd(t.ctx, key, redis.Z{Score: score, Member: member}).Err()
}

func (t *tx) ZRem(key, member string) error {
	return t.client.ZRem(t.ctx, key, member).Err()
}

func (t *tx) ZScore(key, member string) (float64, bool, error) {
	v, err := t.client.ZScore(t.ctx, key, member).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

func (t *tx) ZRangeByScore(key string, min, max float64) ([]string, error) {
	return t.client.ZRangeByScore(t.ctx, key, &redis.ZRangeBy{
		Min: formatScore(min),
		Max: formatScore(max),
	}).Result()
}

func (t *tx) ZRange(key string, start, stop int) ([]string, error) {
	if stop < 0 {
		stop = -1
	} else if stop == 0 {
		return nil, nil // empty range; redis would read a stop of -1 as "to the end"
	} else {
		stop = stop - 1 // storage.Tx uses exclusive stop; redis ZRANGE stop is inclusive
	}
	return t.client.ZRange(t.ctx, key, int64(start), int64(stop)).Result()
}

func (t *tx) ZRank(key, member string) (int, bool, error) {
	r, err := t.client.ZRank(t.ctx, key, member).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return int(r), true, nil
}

func (t *tx) ZCard(key string) (int, error) {
	n, err := t.client.ZCard(t.ctx, key).Result()
	return int(n), err
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var _ storage.Store = (*Store)(nil)
var _ storage.Tx = (*tx)(nil)

package memstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChuLiYu/jobqueue/internal/storage"
)

func TestScalarRoundTrip(t *testing.T) {
	s := New()
	err := s.Exec(func(tx storage.Tx) error {
		require.NoError(t, tx.Set("k", "v"))
		v, ok, err := tx.Get("k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "v", v)

		require.NoError(t, tx.Del("k"))
		_, ok, err = tx.Get("k")
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func TestIncrIsMonotonic(t *testing.T) {
	s := New()
	err := s.Exec(func(tx storage.Tx) error {
		for i := int64(1); i <= 3; i++ {
			n, err := tx.Incr("seq")
			require.NoError(t, err)
			assert.Equal(t, i, n)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestHashOperations(t *testing.T) {
	s := New()
	err := s.Exec(func(tx storage.Tx) error {
		require.NoError(t, tx.HSet("h", map[string]string{"a": "1", "b": "2"}))
		v, ok, err := tx.HGet("h", "a")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "1", v)

		all, err := tx.HGetAll("h")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"a": "1", "b": "2"}, all)

		require.NoError(t, tx.HDel("h", "a"))
		_, ok, err = tx.HGet("h", "a")
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func TestSetOperations(t *testing.T) {
	s := New()
	err := s.Exec(func(tx storage.Tx) error {
		require.NoError(t, tx.SAdd("s", "a", "b", "c"))
		members, err := tx.SMembers("s")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a", "b", "c"}, members)

		ok, err := tx.SIsMember("s", "b")
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, tx.SRem("s", "b"))
		n, err := tx.SCard("s")
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		return nil
	})
	require.NoError(t, err)
}

func TestSortedSetOrderingAndRanges(t *testing.T) {
	s := New()
	err := s.Exec(func(tx storage.Tx) error {
		require.NoError(t, tx.ZAdd("z", "low", 1))
		require.NoError(t, tx.ZAdd("z", "mid", 5))
		require.NoError(t, tx.ZAdd("z", "high", 10))

		all, err := tx.ZRange("z", 0, -1)
		require.NoError(t, err)
		assert.Equal(t, []string{"low", "mid", "high"}, all)

		some, err := tx.ZRangeByScore("z", 2, 9)
		require.NoError(t, err)
		assert.Equal(t, []string{"mid"}, some)

		rank, ok, err := tx.ZRank("z", "high")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 2, rank)

		require.NoError(t, tx.ZRem("z", "mid"))
		n, err := tx.ZCard("z")
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		return nil
	})
	require.NoError(t, err)
}

func TestExecSerializesAcrossCalls(t *testing.T) {
	s := New()
	done := make(chan struct{})
	go func() {
		_ = s.Exec(func(tx storage.Tx) error {
			return tx.Set("x", "from-goroutine")
		})
		close(done)
	}()
	<-done

	err := s.Exec(func(tx storage.Tx) error {
		v, ok, err := tx.Get("x")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "from-goroutine", v)
		return nil
	})
	require.NoError(t, err)
}

package jobstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChuLiYu/jobqueue/internal/storage"
	"github.com/ChuLiYu/jobqueue/internal/storage/memstore"
	"github.com/ChuLiYu/jobqueue/pkg/types"
)

type storageTx = storage.Tx

func TestJobRoundTrip(t *testing.T) {
	s := memstore.New()

	err := s.Exec(func(tx storageTx) error {
		j := &types.Job{
			Jid:      "jid-1",
			Klass:    "email",
			Data:     []byte(`{"to":"a@b.com"}`),
			Priority: 3,
			Tags:     []string{"urgent"},
			Retries:  5,
			Remaining: 5,
			State:    types.Waiting,
			Queue:    "default",
		}
		return Put(tx, j)
	})
	require.NoError(t, err)

	err = s.Exec(func(tx storageTx) error {
		got, err := Get(tx, "jid-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "email", got.Klass)
		assert.Equal(t, 3, got.Priority)
		assert.Equal(t, []string{"urgent"}, got.Tags)
		assert.Equal(t, types.Waiting, got.State)
		return nil
	})
	require.NoError(t, err)

	err = s.Exec(func(tx storageTx) error {
		exists, err := Exists(tx, "jid-1")
		require.NoError(t, err)
		assert.True(t, exists)
		return Delete(tx, "jid-1")
	})
	require.NoError(t, err)

	err = s.Exec(func(tx storageTx) error {
		got, err := Get(tx, "jid-1")
		require.NoError(t, err)
		assert.Nil(t, got)
		return nil
	})
	require.NoError(t, err)
}

func TestAppendHistoryCapsButKeepsFirst(t *testing.T) {
	s := memstore.New()
	err := s.Exec(func(tx storageTx) error {
		for i := 0; i < 10; i++ {
			if err := AppendHistory(tx, "jid-2", int64(i), "log", nil, 3); err != nil {
				return err
			}
		}
		events, err := History(tx, "jid-2")
		if err != nil {
			return err
		}
		assert.Len(t, events, 3)
		assert.Equal(t, int64(0), events[0].When, "first event is always retained")
		assert.Equal(t, int64(8), events[1].When)
		assert.Equal(t, int64(9), events[2].When)
		return nil
	})
	require.NoError(t, err)
}

func TestDependencyEdgesAndResolve(t *testing.T) {
	s := memstore.New()
	err := s.Exec(func(tx storageTx) error {
		if err := AddDependencyEdges(tx, "child", []string{"parent-a", "parent-b"}); err != nil {
			return err
		}
		unblocked, err := ResolveDependents(tx, "parent-a")
		if err != nil {
			return err
		}
		assert.Empty(t, unblocked, "child still depends on parent-b")

		unblocked, err = ResolveDependents(tx, "parent-b")
		if err != nil {
			return err
		}
		assert.Equal(t, []string{"child"}, unblocked)
		return nil
	})
	require.NoError(t, err)
}

func TestLiveDependentsFiltersTerminal(t *testing.T) {
	s := memstore.New()
	err := s.Exec(func(tx storageTx) error {
		require.NoError(t, AddDependencyEdges(tx, "child-live", []string{"target"}))
		require.NoError(t, AddDependencyEdges(tx, "child-done", []string{"target"}))

		live, err := LiveDependents(tx, "target", func(d string) (bool, error) {
			return d == "child-live", nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"child-live"}, live)
		return nil
	})
	require.NoError(t, err)
}

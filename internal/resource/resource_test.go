package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChuLiYu/jobqueue/internal/storage"
	"github.com/ChuLiYu/jobqueue/internal/storage/memstore"
)

func TestAcquireWithinCapIsImmediate(t *testing.T) {
	s := memstore.New()
	err := s.Exec(func(tx storage.Tx) error {
		require.NoError(t, Set(tx, "conn", 2))

		res, err := Acquire(tx, "conn", "jid-1")
		require.NoError(t, err)
		assert.Equal(t, Acquired, res)

		res, err = Acquire(tx, "conn", "jid-2")
		require.NoError(t, err)
		assert.Equal(t, Acquired, res)
		return nil
	})
	require.NoError(t, err)
}

func TestAcquireBeyondCapIsPendingFIFO(t *testing.T) {
	s := memstore.New()
	err := s.Exec(func(tx storage.Tx) error {
		require.NoError(t, Set(tx, "conn", 1))

		res, err := Acquire(tx, "conn", "jid-1")
		require.NoError(t, err)
		assert.Equal(t, Acquired, res)

		res, err = Acquire(tx, "conn", "jid-2")
		require.NoError(t, err)
		assert.Equal(t, Pending, res)

		res, err = Acquire(tx, "conn", "jid-3")
		require.NoError(t, err)
		assert.Equal(t, Pending, res)

		promoted, err := Release(tx, "conn", "jid-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"jid-2"}, promoted, "earliest pending waiter promoted first")

		locked, err := Locks(tx, "conn")
		require.NoError(t, err)
		assert.Equal(t, 1, locked)
		return nil
	})
	require.NoError(t, err)
}

func TestAcquireIsIdempotent(t *testing.T) {
	s := memstore.New()
	err := s.Exec(func(tx storage.Tx) error {
		require.NoError(t, Set(tx, "conn", 1))

		res, err := Acquire(tx, "conn", "jid-1")
		require.NoError(t, err)
		assert.Equal(t, Acquired, res)

		res, err = Acquire(tx, "conn", "jid-1")
		require.NoError(t, err)
		assert.Equal(t, AlreadyHeld, res)
		return nil
	})
	require.NoError(t, err)
}

func TestSetRaisingCapRebalancesPending(t *testing.T) {
	s := memstore.New()
	err := s.Exec(func(tx storage.Tx) error {
		require.NoError(t, Set(tx, "conn", 1))
		_, err := Acquire(tx, "conn", "jid-1")
		require.NoError(t, err)
		_, err = Acquire(tx, "conn", "jid-2")
		require.NoError(t, err)

		require.NoError(t, Set(tx, "conn", 2))

		locked, err := Locks(tx, "conn")
		require.NoError(t, err)
		assert.Equal(t, 2, locked)
		return nil
	})
	require.NoError(t, err)
}

func TestUnsetRefusesWhileInUse(t *testing.T) {
	s := memstore.New()
	err := s.Exec(func(tx storage.Tx) error {
		require.NoError(t, Set(tx, "conn", 1))
		_, err := Acquire(tx, "conn", "jid-1")
		require.NoError(t, err)

		err = Unset(tx, "conn")
		assert.Error(t, err)

		_, err = Release(tx, "conn", "jid-1")
		require.NoError(t, err)

		return Unset(tx, "conn")
	})
	require.NoError(t, err)
}

func TestAcquireAllOrdersByListAndReportsPending(t *testing.T) {
	s := memstore.New()
	err := s.Exec(func(tx storage.Tx) error {
		require.NoError(t, Set(tx, "r1", 1))
		require.NoError(t, Set(tx, "r2", 0))

		all, err := AcquireAll(tx, []string{"r1", "r2"}, "jid-1")
		require.NoError(t, err)
		assert.False(t, all, "r2 has zero capacity, so jid-1 is pending overall")

		locked, err := Locks(tx, "r1")
		require.NoError(t, err)
		assert.Equal(t, 1, locked, "r1 was still acquired even though r2 blocked")
		return nil
	})
	require.NoError(t, err)
}

func TestFullyLocked(t *testing.T) {
	s := memstore.New()
	err := s.Exec(func(tx storage.Tx) error {
		require.NoError(t, Set(tx, "r1", 1))
		require.NoError(t, Set(tx, "r2", 1))
		_, err := AcquireAll(tx, []string{"r1", "r2"}, "jid-1")
		require.NoError(t, err)

		full, err := FullyLocked(tx, []string{"r1", "r2"}, "jid-1")
		require.NoError(t, err)
		assert.True(t, full)
		return nil
	})
	require.NoError(t, err)
}

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChuLiYu/jobqueue/internal/queueerr"
	"github.com/ChuLiYu/jobqueue/internal/storage/memstore"
	"github.com/ChuLiYu/jobqueue/pkg/types"
)

func newTestEngine() *Engine {
	return New(memstore.New())
}

func jids(jobs []*types.Job) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.Jid
	}
	return out
}

// Seed scenario 1 (spec §8): a single-slot resource gates two jobs; the
// second only becomes poppable once the first completes and releases it.
func TestSeedResourceGatesPop(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.ResourceSet("r1", 1))

	_, err := e.Put(PutArgs{Now: 0, Queue: "q", Jid: "j1", Klass: "k", Resources: []string{"r1"}, Retries: -1})
	require.NoError(t, err)
	_, err = e.Put(PutArgs{Now: 0, Queue: "q", Jid: "j2", Klass: "k", Resources: []string{"r1"}, Retries: -1})
	require.NoError(t, err)

	popped, err := e.Pop("q", "w1", 10, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"j1"}, jids(popped))

	popped, err = e.Pop("q", "w2", 10, 10)
	require.NoError(t, err)
	assert.Empty(t, popped, "j2 is still pending on r1")

	_, err = e.Complete(CompleteArgs{Now: 11, Jid: "j1", Worker: "w1", Queue: "q"})
	require.NoError(t, err)

	popped, err = e.Pop("q", "w2", 12, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"j2"}, jids(popped))
}

// Seed scenario 2: a delayed job is invisible until its ready time elapses.
func TestSeedDelayedJobBecomesReadyAtDelay(t *testing.T) {
	e := newTestEngine()
	_, err := e.Put(PutArgs{Now: 0, Queue: "q", Jid: "j", Klass: "k", Delay: 1, Retries: -1})
	require.NoError(t, err)

	popped, err := e.Pop("q", "w", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, popped)

	popped, err = e.Pop("q", "w", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"j"}, jids(popped))
}

// Seed scenario 3: b depends on a; only after a completes does b become waiting.
func TestSeedDependencyUnblocksOnComplete(t *testing.T) {
	e := newTestEngine()
	_, err := e.Put(PutArgs{Now: 0, Queue: "q", Jid: "a", Klass: "k", Retries: -1})
	require.NoError(t, err)
	_, err = e.Put(PutArgs{Now: 0, Queue: "q", Jid: "b", Klass: "k", Depends: []string{"a"}, Retries: -1})
	require.NoError(t, err)

	popped, err := e.Pop("q", "w", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, jids(popped), "b is blocked by its dependency")

	_, err = e.Complete(CompleteArgs{Now: 1, Jid: "a", Worker: "w", Queue: "q"})
	require.NoError(t, err)

	popped, err = e.Pop("q", "w", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, jids(popped))
}

// Seed scenario 4: history caps at max-job-history while always keeping the
// very first event.
func TestSeedHistoryCapsButKeepsFirstEvent(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.SeedConfig(types.Config{MaxJobHistory: 5, Heartbeat: 60, GracePeriod: 10, JobsHistoryCount: 50000, JobsHistory: 604800}))

	for i := 0; i < 100; i++ {
		_, err := e.Put(PutArgs{Now: int64(i), Queue: "q", Jid: "j", Klass: "k", Retries: -1})
		require.NoError(t, err)
	}

	events, err := e.History("j")
	require.NoError(t, err)
	require.Len(t, events, 5)
	assert.Equal(t, int64(0), events[0].When)
	assert.Equal(t, int64(96), events[1].When)
	assert.Equal(t, int64(97), events[2].When)
	assert.Equal(t, int64(98), events[3].When)
	assert.Equal(t, int64(99), events[4].When)
}

// Seed scenario 5: a job with no retry budget left, stalled past its grace
// period, is terminally failed with group "failed-retries" on the pop that
// discovers it, and its resources are released.
func TestSeedStaleJobExhaustsRetriesOnReclaim(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.SeedConfig(types.Config{Heartbeat: -10, GracePeriod: 0, MaxJobHistory: 100, JobsHistoryCount: 50000, JobsHistory: 604800}))
	require.NoError(t, e.ResourceSet("r1", 1))

	_, err := e.Put(PutArgs{Now: 0, Queue: "q", Jid: "j", Klass: "k", Retries: 0, Resources: []string{"r1"}})
	require.NoError(t, err)

	popped, err := e.Pop("q", "w", 1, 10)
	require.NoError(t, err)
	require.Len(t, popped, 1)

	popped, err = e.Pop("q", "w2", 2, 10)
	require.NoError(t, err)
	assert.Empty(t, popped, "j failed terminally rather than being re-offered")

	res, err := e.ResourceGet("r1")
	require.NoError(t, err)
	assert.Empty(t, res.Locks, "resources released on terminal stale failure")

	_, err = e.Heartbeat(3, "j", "w", nil)
	require.Error(t, err)
}

// Seed scenario 6: lowering a resource's cap below its current lock count
// leaves the existing holder alone (it can still be popped and completed),
// and while the cap is 0 its release promotes nobody: the waiter stays
// pending.
func TestSeedResourceCapLoweredPreservesPendingOrder(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.ResourceSet("r", 1))
	_, err := e.Put(PutArgs{Now: 0, Queue: "q", Jid: "j1", Klass: "k", Resources: []string{"r"}, Retries: -1})
	require.NoError(t, err)
	_, err = e.Put(PutArgs{Now: 0, Queue: "q", Jid: "j2", Klass: "k", Resources: []string{"r"}, Retries: -1})
	require.NoError(t, err)

	require.NoError(t, e.ResourceSet("r", 0))

	_, err = e.Complete(CompleteArgs{Now: 1, Jid: "j1", Worker: types.NoWorker, Queue: "q"})
	require.Error(t, err, "j1 was never popped, so complete must reject it")

	popped, err := e.Pop("q", "w1", 1, 10)
	require.NoError(t, err)
	require.Len(t, popped, 1)
	require.Equal(t, "j1", popped[0].Jid)

	_, err = e.Complete(CompleteArgs{Now: 2, Jid: "j1", Worker: "w1", Queue: "q"})
	require.NoError(t, err)

	res, err := e.ResourceGet("r")
	require.NoError(t, err)
	assert.Empty(t, res.Locks, "cap is now 0, nothing can be promoted")
	assert.Equal(t, []string{"j2"}, res.Pending)
}

func TestCancelRejectsWhenLiveDependentsExist(t *testing.T) {
	e := newTestEngine()
	_, err := e.Put(PutArgs{Now: 0, Queue: "q", Jid: "a", Klass: "k", Retries: -1})
	require.NoError(t, err)
	_, err = e.Put(PutArgs{Now: 0, Queue: "q", Jid: "b", Klass: "k", Depends: []string{"a"}, Retries: -1})
	require.NoError(t, err)

	_, err = e.Cancel(1, "a")
	require.Error(t, err)
	var qerr *queueerr.Error
	assert.ErrorAs(t, err, &qerr)
	assert.Equal(t, queueerr.Dependency, qerr.Kind)
}

func TestCancelSkipsNonexistentJids(t *testing.T) {
	e := newTestEngine()
	_, err := e.Put(PutArgs{Now: 0, Queue: "q", Jid: "a", Klass: "k", Retries: -1})
	require.NoError(t, err)

	canceled, err := e.Cancel(1, "a", "does-not-exist")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, canceled)
}

func TestRetryHoldsResourcesThroughNonTerminalRetry(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.ResourceSet("r", 1))
	_, err := e.Put(PutArgs{Now: 0, Queue: "q", Jid: "j", Klass: "k", Resources: []string{"r"}, Retries: 2})
	require.NoError(t, err)

	popped, err := e.Pop("q", "w", 0, 10)
	require.NoError(t, err)
	require.Len(t, popped, 1)

	state, err := e.Retry(RetryArgs{Now: 1, Jid: "j", Queue: "q", Worker: "w"})
	require.NoError(t, err)
	assert.Equal(t, types.Waiting, state)

	res, err := e.ResourceGet("r")
	require.NoError(t, err)
	assert.Equal(t, []string{"j"}, res.Locks, "resource stays held across a non-terminal retry")
}

func TestPriorityReordersWaiting(t *testing.T) {
	e := newTestEngine()
	_, err := e.Put(PutArgs{Now: 0, Queue: "q", Jid: "low", Klass: "k", Priority: 0, Retries: -1})
	require.NoError(t, err)
	_, err = e.Put(PutArgs{Now: 1, Queue: "q", Jid: "high-later", Klass: "k", Priority: 0, Retries: -1})
	require.NoError(t, err)

	_, err = e.Priority("high-later", 10)
	require.NoError(t, err)

	popped, err := e.Pop("q", "w", 2, 10)
	require.NoError(t, err)
	require.Len(t, popped, 2)
	assert.Equal(t, "high-later", popped[0].Jid, "higher priority pops first despite later put")
}

func TestCompleteWrongWorkerRejected(t *testing.T) {
	e := newTestEngine()
	_, err := e.Put(PutArgs{Now: 0, Queue: "q", Jid: "j", Klass: "k", Retries: -1})
	require.NoError(t, err)
	_, err = e.Pop("q", "w1", 0, 10)
	require.NoError(t, err)

	_, err = e.Complete(CompleteArgs{Now: 1, Jid: "j", Worker: "w2", Queue: "q"})
	require.Error(t, err)
	var qerr *queueerr.Error
	assert.ErrorAs(t, err, &qerr)
	assert.Equal(t, queueerr.AnotherWorker, qerr.Kind)
}

func TestCompleteChainsIntoNextQueue(t *testing.T) {
	e := newTestEngine()
	_, err := e.Put(PutArgs{Now: 0, Queue: "q1", Jid: "j", Klass: "k", Retries: -1})
	require.NoError(t, err)
	_, err = e.Pop("q1", "w", 0, 10)
	require.NoError(t, err)

	state, err := e.Complete(CompleteArgs{Now: 1, Jid: "j", Worker: "w", Queue: "q1", Next: "q2"})
	require.NoError(t, err)
	assert.Equal(t, types.Waiting, state)

	popped, err := e.Pop("q2", "w2", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"j"}, jids(popped))
}

func TestHeartbeatExtendsExpiryAndRejectsWrongWorker(t *testing.T) {
	e := newTestEngine()
	_, err := e.Put(PutArgs{Now: 0, Queue: "q", Jid: "j", Klass: "k", Retries: -1})
	require.NoError(t, err)
	_, err = e.Pop("q", "w1", 0, 10)
	require.NoError(t, err)

	expires, err := e.Heartbeat(30, "j", "w1", nil)
	require.NoError(t, err)
	assert.Greater(t, expires, int64(30))

	_, err = e.Heartbeat(31, "j", "w2", nil)
	require.Error(t, err)
}

package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollector(t *testing.T) {
	c := NewCollector()
	require.NotNil(t, c)
	assert.NotNil(t, c.jobsPut)
	assert.NotNil(t, c.jobsPopped)
	assert.NotNil(t, c.jobsCompleted)
	assert.NotNil(t, c.jobsFailed)
	assert.NotNil(t, c.jobsRetried)
	assert.NotNil(t, c.jobsCancelled)
	assert.NotNil(t, c.jobLatency)
	assert.NotNil(t, c.queueWaiting)
	assert.NotNil(t, c.queueRunning)
	assert.NotNil(t, c.resourceLocks)
}

func TestRecordVerbs(t *testing.T) {
	c := NewCollector()
	assert.NotPanics(t, func() {
		c.RecordPut()
		c.RecordPop()
		c.RecordRetry()
		c.RecordCancelled()
		c.RecordCompleted(0.2)
		c.RecordFailed()
	})
}

func TestSetQueueDepth(t *testing.T) {
	c := NewCollector()
	cases := []struct {
		queue            string
		waiting, running int
	}{
		{"default", 0, 0},
		{"default", 10, 5},
		{"high-priority", 100, 8},
	}
	for _, tc := range cases {
		assert.NotPanics(t, func() {
			c.SetQueueDepth(tc.queue, tc.waiting, tc.running)
		})
	}
}

func TestSetResourceDepth(t *testing.T) {
	c := NewCollector()
	assert.NotPanics(t, func() {
		c.SetResourceDepth("db-conn", 3, 7)
	})
}

func TestCollectorIsolation(t *testing.T) {
	c1 := NewCollector()
	c2 := NewCollector()
	require.NotNil(t, c1)
	require.NotNil(t, c2)

	c1.RecordPut()
	c2.RecordPut()
	c2.RecordPut()

	assert.NotPanics(t, func() {
		c1.Handler()
		c2.Handler()
	})
}

func TestHandlerServesMetrics(t *testing.T) {
	c := NewCollector()
	c.RecordPut()
	c.RecordCompleted(0.05)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	c.Handler().ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "jobqueue_jobs_put_total")
	assert.Contains(t, body, "jobqueue_jobs_completed_total")
}

func TestConcurrentMetricUpdates(t *testing.T) {
	c := NewCollector()
	done := make(chan bool, 100)
	for i := 0; i < 100; i++ {
		go func() {
			c.RecordPut()
			c.RecordPop()
			c.RecordCompleted(0.1)
			c.SetQueueDepth("default", 10, 5)
			done <- true
		}()
	}
	for i := 0; i < 100; i++ {
		<-done
	}
}

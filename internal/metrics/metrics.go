// Package metrics exposes Prometheus metrics for the queue engine: job
// throughput by verb, completion latency, and live queue/resource depth.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector collects Prometheus metrics for one engine instance. It owns a
// private registry rather than registering against the global default, so a
// process can run more than one Collector (e.g. in tests) without a
// duplicate-registration panic.
type Collector struct {
	registry *prometheus.Registry

	jobsPut       prometheus.Counter
	jobsPopped    prometheus.Counter
	jobsCompleted prometheus.Counter
	jobsFailed    prometheus.Counter
	jobsRetried   prometheus.Counter
	jobsCancelled prometheus.Counter

	jobLatency prometheus.Histogram

	queueWaiting   *prometheus.GaugeVec
	queueRunning   *prometheus.GaugeVec
	resourceLocks  *prometheus.GaugeVec
	resourceQueued *prometheus.GaugeVec
}

// NewCollector builds a Collector with a fresh, private registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		jobsPut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobqueue_jobs_put_total",
			Help: "Total number of jobs put or requeued",
		}),
		jobsPopped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobqueue_jobs_popped_total",
			Help: "Total number of jobs popped by a worker",
		}),
		jobsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobqueue_jobs_completed_total",
			Help: "Total number of jobs completed successfully",
		}),
		jobsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobqueue_jobs_failed_total",
			Help: "Total number of jobs terminally failed",
		}),
		jobsRetried: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobqueue_jobs_retried_total",
			Help: "Total number of jobs returned to waiting or scheduled via retry",
		}),
		jobsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobqueue_jobs_cancelled_total",
			Help: "Total number of jobs cancelled",
		}),
		jobLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "jobqueue_job_latency_seconds",
			Help:    "Time from put to completion, in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		queueWaiting: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "jobqueue_queue_waiting",
			Help: "Current number of jobs waiting in a queue",
		}, []string{"queue"}),
		queueRunning: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "jobqueue_queue_running",
			Help: "Current number of jobs running from a queue",
		}, []string{"queue"}),
		resourceLocks: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "jobqueue_resource_locks",
			Help: "Current number of locks held on a resource",
		}, []string{"resource"}),
		resourceQueued: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "jobqueue_resource_pending",
			Help: "Current number of jobs waiting on a resource",
		}, []string{"resource"}),
	}

	reg.MustRegister(
		c.jobsPut, c.jobsPopped, c.jobsCompleted, c.jobsFailed, c.jobsRetried, c.jobsCancelled,
		c.jobLatency, c.queueWaiting, c.queueRunning, c.resourceLocks, c.resourceQueued,
	)
	return c
}

func (c *Collector) RecordPut()       { c.jobsPut.Inc() }
func (c *Collector) RecordPop()       { c.jobsPopped.Inc() }
func (c *Collector) RecordRetry()     { c.jobsRetried.Inc() }
func (c *Collector) RecordCancelled() { c.jobsCancelled.Inc() }

// RecordCompleted records a completion along with its put-to-complete latency.
func (c *Collector) RecordCompleted(latencySeconds float64) {
	c.jobsCompleted.Inc()
	c.jobLatency.Observe(latencySeconds)
}

func (c *Collector) RecordFailed() { c.jobsFailed.Inc() }

// SetQueueDepth publishes a queue's current waiting/running counts.
func (c *Collector) SetQueueDepth(queue string, waiting, running int) {
	c.queueWaiting.WithLabelValues(queue).Set(float64(waiting))
	c.queueRunning.WithLabelValues(queue).Set(float64(running))
}

// SetResourceDepth publishes a resource's current lock/pending counts.
func (c *Collector) SetResourceDepth(rid string, locks, pending int) {
	c.resourceLocks.WithLabelValues(rid).Set(float64(locks))
	c.resourceQueued.WithLabelValues(rid).Set(float64(pending))
}

// Handler returns an http.Handler serving this collector's registry in the
// Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// StartServer serves this collector's /metrics endpoint on port until the
// process exits or ListenAndServe errors.
func (c *Collector) StartServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	return http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
}

// ============================================================================
// Metrics - Prometheus Monitoring
// ============================================================================
//
// Package: internal/metrics
// File: metrics.go
// Purpose: Collect and expose queue and worker metrics for Prometheus
//
// Metric Categories:
//
//   1. Element Counters - Cumulative, monotonically increasing:
//      - queue_elements_pushed_total: Elements accepted by the queue
//      - queue_elements_rejected_total: Pushes rejected after shutdown
//      - queue_elements_consumed_total: Elements handed to the consumer
//      - queue_consume_failures_total: Consumer invocations that failed
//
//   2. Performance Metrics (Histogram):
//      - queue_consume_latency_seconds: Per-element consumer latency
//
//   3. Status Metrics (Gauge):
//      - queue_depth: Elements currently waiting in the queue
//
// Prometheus Query Examples:
//
//   # Elements consumed per second, averaged over one minute
//   rate(queue_elements_consumed_total[1m])
//
//   # 95th percentile consume latency
//   histogram_quantile(0.95, queue_consume_latency_seconds_bucket)
//
//   # Backlog growth
//   queue_depth
//
// HTTP Endpoint:
//   Exposed via /metrics, scraped by Prometheus.
//
// ============================================================================

package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ChuLiYu/async-queue/pkg/asyncq"
)

// Collector collects Prometheus metrics for one queue pipeline.
type Collector struct {
	pushed   prometheus.Counter
	rejected prometheus.Counter
	consumed prometheus.Counter
	failures prometheus.Counter

	consumeLatency prometheus.Histogram
	queueDepth     prometheus.Gauge
}

// NewCollector creates a collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		pushed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "queue_elements_pushed_total",
			Help: "Total number of elements accepted by the queue",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "queue_elements_rejected_total",
			Help: "Total number of pushes rejected because the scope had stopped",
		}),
		consumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "queue_elements_consumed_total",
			Help: "Total number of elements delivered to the consumer",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "queue_consume_failures_total",
			Help: "Total number of consumer invocations that returned an error",
		}),
		consumeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "queue_consume_latency_seconds",
			Help:    "Per-element consumer latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "queue_depth",
			Help: "Current number of elements waiting in the queue",
		}),
	}

	reg.MustRegister(c.pushed)
	reg.MustRegister(c.rejected)
	reg.MustRegister(c.consumed)
	reg.MustRegister(c.failures)
	reg.MustRegister(c.consumeLatency)
	reg.MustRegister(c.queueDepth)

	return c
}

// RecordPush records an accepted push.
func (c *Collector) RecordPush() {
	c.pushed.Inc()
}

// RecordRejected records a push rejected after shutdown.
func (c *Collector) RecordRejected() {
	c.rejected.Inc()
}

// RecordConsumed records a delivered element with its consumer latency.
func (c *Collector) RecordConsumed(latencySeconds float64) {
	c.consumed.Inc()
	c.consumeLatency.Observe(latencySeconds)
}

// RecordFailure records a failed consumer invocation.
func (c *Collector) RecordFailure() {
	c.failures.Inc()
}

// SetQueueDepth updates the backlog gauge.
func (c *Collector) SetQueueDepth(depth int) {
	c.queueDepth.Set(float64(depth))
}

// Instrument wraps a consumer so that every delivery moves the collector's
// counters and latency histogram.
func Instrument[T any](c *Collector, inner asyncq.Consumer[T]) asyncq.Consumer[T] {
	return asyncq.ConsumerFunc[T](func(item T) (asyncq.TaskStatus, error) {
		start := time.Now()
		status, err := inner.Consume(item)
		if err != nil {
			c.RecordFailure()
		} else {
			c.RecordConsumed(time.Since(start).Seconds())
		}
		return status, err
	})
}

// depthReporter is the slice of a queue the sampler needs.
type depthReporter interface {
	Len() int
}

// WatchDepth samples the queue depth on a heartbeat until the scope stops.
func WatchDepth(sc *asyncq.Scope, c *Collector, q depthReporter, interval time.Duration) *asyncq.Handle[asyncq.TaskStatus] {
	return asyncq.LoopTaskEvery(sc, interval, func() (asyncq.TaskStatus, error) {
		c.SetQueueDepth(q.Len())
		return asyncq.Continue, nil
	})
}

// StartServer starts the Prometheus metrics HTTP server on port, serving
// the default registry. Blocks until the listener fails.
func StartServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	return http.ListenAndServe(addr, mux)
}

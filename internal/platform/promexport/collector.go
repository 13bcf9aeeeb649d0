// Package promexport bridges the daemon's internal counter state to a
// prometheus registry. Metrics are read lazily at scrape time from a
// snapshot callback, so the hot path never touches prometheus types.
package promexport

import (
	"github.com/prometheus/client_golang/prometheus"

	"echo-message/go-backend/pkg/models"
)

// SnapshotFunc returns the current counter state. It is called once per
// scrape and must be safe for concurrent use.
type SnapshotFunc func() models.MetricsSnapshot

// Collector exposes operation counters, per-category error counters and the
// listener error total as prometheus metrics.
type Collector struct {
	snapshot SnapshotFunc

	opTotal        *prometheus.Desc
	opErrors       *prometheus.Desc
	opLatencyAvg   *prometheus.Desc
	opLatencyMax   *prometheus.Desc
	errorsTotal    *prometheus.Desc
	listenerErrors *prometheus.Desc
}

func NewCollector(snapshot SnapshotFunc) *Collector {
	return &Collector{
		snapshot: snapshot,
		opTotal: prometheus.NewDesc(
			"echo_message_operations_total",
			"Completed service operations by name.",
			[]string{"operation"}, nil,
		),
		opErrors: prometheus.NewDesc(
			"echo_message_operation_errors_total",
			"Failed service operations by name.",
			[]string{"operation"}, nil,
		),
		opLatencyAvg: prometheus.NewDesc(
			"echo_message_operation_latency_avg_ms",
			"Mean latency per operation in milliseconds.",
			[]string{"operation"}, nil,
		),
		opLatencyMax: prometheus.NewDesc(
			"echo_message_operation_latency_max_ms",
			"Peak latency per operation in milliseconds.",
			[]string{"operation"}, nil,
		),
		errorsTotal: prometheus.NewDesc(
			"echo_message_errors_total",
			"Errors by category.",
			[]string{"category"}, nil,
		),
		listenerErrors: prometheus.NewDesc(
			"echo_message_listener_errors_total",
			"Subscription callbacks that panicked or were rejected.",
			nil, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.opTotal
	ch <- c.opErrors
	ch <- c.opLatencyAvg
	ch <- c.opLatencyMax
	ch <- c.errorsTotal
	ch <- c.listenerErrors
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.snapshot()
	for name, op := range snap.OperationStats {
		ch <- prometheus.MustNewConstMetric(c.opTotal, prometheus.CounterValue, float64(op.Count), name)
		ch <- prometheus.MustNewConstMetric(c.opErrors, prometheus.CounterValue, float64(op.Errors), name)
		ch <- prometheus.MustNewConstMetric(c.opLatencyAvg, prometheus.GaugeValue, float64(op.AvgLatencyMs), name)
		ch <- prometheus.MustNewConstMetric(c.opLatencyMax, prometheus.GaugeValue, float64(op.MaxLatencyMs), name)
	}
	for category, count := range snap.ErrorCounters {
		ch <- prometheus.MustNewConstMetric(c.errorsTotal, prometheus.CounterValue, float64(count), category)
	}
	ch <- prometheus.MustNewConstMetric(c.listenerErrors, prometheus.CounterValue, float64(snap.ListenerErrorsTotal))
}

// NewRegistry builds a dedicated registry holding only the daemon's
// collector, keeping the default registry untouched.
func NewRegistry(snapshot SnapshotFunc) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewCollector(snapshot))
	return reg
}

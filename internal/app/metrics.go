package app

import (
	"sync"
	"time"

	"echo-message/go-backend/pkg/models"
)

type opMetric struct {
	Count   int
	Errors  int
	TotalNs int64
	MaxNs   int64
	LastNs  int64
}

// MetricsState accumulates per-operation latency/error counters for the
// service facade. It is read by MetricsSnapshot and the prometheus bridge.
type MetricsState struct {
	mu             sync.RWMutex
	errorCounters  map[string]int
	opMetrics      map[string]*opMetric
	listenerErrors int
	lastUpdatedAt  time.Time
}

func NewMetricsState() *MetricsState {
	return &MetricsState{
		errorCounters: map[string]int{},
		opMetrics:     map[string]*opMetric{},
	}
}

func (m *MetricsState) Snapshot() models.MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counters := make(map[string]int, len(m.errorCounters))
	for k, v := range m.errorCounters {
		counters[k] = v
	}
	opStats := make(map[string]models.OperationMetric, len(m.opMetrics))
	for name, metric := range m.opMetrics {
		avg := int64(0)
		if metric.Count > 0 {
			avg = metric.TotalNs / int64(metric.Count) / int64(time.Millisecond)
		}
		opStats[name] = models.OperationMetric{
			Count:         metric.Count,
			Errors:        metric.Errors,
			AvgLatencyMs:  avg,
			MaxLatencyMs:  metric.MaxNs / int64(time.Millisecond),
			LastLatencyMs: metric.LastNs / int64(time.Millisecond),
		}
	}
	return models.MetricsSnapshot{
		ErrorCounters:       counters,
		OperationStats:      opStats,
		ListenerErrorsTotal: m.listenerErrors,
		LastUpdatedAt:       m.lastUpdatedAt,
	}
}

func (m *MetricsState) RecordError(category string) {
	m.mu.Lock()
	m.errorCounters[category] = m.errorCounters[category] + 1
	m.lastUpdatedAt = time.Now().UTC()
	m.mu.Unlock()
}

func (m *MetricsState) RecordListenerError() {
	m.mu.Lock()
	m.listenerErrors++
	m.lastUpdatedAt = time.Now().UTC()
	m.mu.Unlock()
}

func (m *MetricsState) RecordOp(operation string, started time.Time) {
	latency := time.Since(started).Nanoseconds()
	m.mu.Lock()
	defer m.mu.Unlock()
	metric, ok := m.opMetrics[operation]
	if !ok {
		metric = &opMetric{}
		m.opMetrics[operation] = metric
	}
	metric.Count++
	metric.TotalNs += latency
	metric.LastNs = latency
	if latency > metric.MaxNs {
		metric.MaxNs = latency
	}
	m.lastUpdatedAt = time.Now().UTC()
}

func (m *MetricsState) RecordOpError(operation string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	metric, ok := m.opMetrics[operation]
	if !ok {
		metric = &opMetric{}
		m.opMetrics[operation] = metric
	}
	metric.Errors++
	m.lastUpdatedAt = time.Now().UTC()
}

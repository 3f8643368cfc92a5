package server

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects backend metrics for the /metrics route.
type Metrics interface {
	// RecordUpstreamCall records one Ollama call with duration and outcome.
	RecordUpstreamCall(duration time.Duration, success bool)
	// RecordResponse records the status code sent for an /optimize request.
	RecordResponse(status int)
	// GetSnapshot returns the current metrics snapshot.
	GetSnapshot() MetricsSnapshot
	// Reset clears all metrics (useful for testing).
	Reset()
}

// MetricsSnapshot contains a point-in-time view of collected metrics.
type MetricsSnapshot struct {
	Upstream         UpstreamMetrics `json:"upstream"`
	Responses        map[int]int64   `json:"responses"`
	LastUpstreamCall time.Time       `json:"lastUpstreamCall"`
}

// UpstreamMetrics tracks Ollama call statistics.
type UpstreamMetrics struct {
	Total     int64         `json:"total"`
	Success   int64         `json:"success"`
	Failed    int64         `json:"failed"`
	TotalTime time.Duration `json:"totalTimeNs"`
	MinTime   time.Duration `json:"minTimeNs"`
	MaxTime   time.Duration `json:"maxTimeNs"`
}

// NoOpMetrics is a metrics collector that discards all metrics.
type NoOpMetrics struct{}

func (n *NoOpMetrics) RecordUpstreamCall(_ time.Duration, _ bool) {}
func (n *NoOpMetrics) RecordResponse(_ int)                       {}
func (n *NoOpMetrics) GetSnapshot() MetricsSnapshot               { return MetricsSnapshot{} }
func (n *NoOpMetrics) Reset()                                     {}

// InMemoryMetrics is a thread-safe in-memory metrics collector.
type InMemoryMetrics struct {
	mu               sync.RWMutex
	upstream         UpstreamMetrics
	responses        map[int]int64
	lastUpstreamCall time.Time

	// nanoseconds
	minTime atomic.Int64
	maxTime atomic.Int64
}

// NewInMemoryMetrics creates a new in-memory metrics collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	m := &InMemoryMetrics{responses: make(map[int]int64)}
	// Start high so the first measurement sets the minimum.
	m.minTime.Store(int64(time.Hour))
	return m
}

func (m *InMemoryMetrics) RecordUpstreamCall(duration time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.upstream.Total++
	if success {
		m.upstream.Success++
	} else {
		m.upstream.Failed++
	}
	m.upstream.TotalTime += duration
	m.lastUpstreamCall = time.Now()

	durNanos := int64(duration)
	for {
		oldMin := m.minTime.Load()
		if durNanos >= oldMin || m.minTime.CompareAndSwap(oldMin, durNanos) {
			break
		}
	}
	for {
		oldMax := m.maxTime.Load()
		if durNanos <= oldMax || m.maxTime.CompareAndSwap(oldMax, durNanos) {
			break
		}
	}
}

func (m *InMemoryMetrics) RecordResponse(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[status]++
}

func (m *InMemoryMetrics) GetSnapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := MetricsSnapshot{
		Upstream:         m.upstream,
		Responses:        make(map[int]int64, len(m.responses)),
		LastUpstreamCall: m.lastUpstreamCall,
	}
	for k, v := range m.responses {
		snapshot.Responses[k] = v
	}
	if snapshot.Upstream.Total > 0 {
		snapshot.Upstream.MinTime = time.Duration(m.minTime.Load())
		snapshot.Upstream.MaxTime = time.Duration(m.maxTime.Load())
	}
	return snapshot
}

func (m *InMemoryMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.upstream = UpstreamMetrics{}
	m.responses = make(map[int]int64)
	m.lastUpstreamCall = time.Time{}
	m.minTime.Store(int64(time.Hour))
	m.maxTime.Store(0)
}

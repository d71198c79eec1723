// Package clients provides HTTP metrics tracking
package clients

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPMetrics tracks client performance: request counts, error counts and a
// bounded sample of latencies for percentile estimates.
type HTTPMetrics struct {
	totalRequests      int64
	successfulRequests int64
	failedRequests     int64

	latencySamples []time.Duration
	sampleIndex    int
	maxSamples     int
	totalLatency   int64

	errorsByType map[string]int64

	mu sync.RWMutex
}

// NewHTTPMetrics creates a metrics tracker with a bounded sample buffer.
func NewHTTPMetrics() *HTTPMetrics {
	return &HTTPMetrics{
		latencySamples: make([]time.Duration, 0, 1024),
		maxSamples:     1024,
		errorsByType:   make(map[string]int64),
	}
}

// RecordRequest records the outcome and latency of a single request.
func (m *HTTPMetrics) RecordRequest(method, host string, duration time.Duration, err error) {
	atomic.AddInt64(&m.totalRequests, 1)
	atomic.AddInt64(&m.totalLatency, duration.Nanoseconds())

	if err != nil {
		atomic.AddInt64(&m.failedRequests, 1)
		m.mu.Lock()
		m.errorsByType[err.Error()]++
		m.mu.Unlock()
	} else {
		atomic.AddInt64(&m.successfulRequests, 1)
	}

	m.mu.Lock()
	if len(m.latencySamples) < m.maxSamples {
		m.latencySamples = append(m.latencySamples, duration)
	} else {
		m.latencySamples[m.sampleIndex] = duration
		m.sampleIndex = (m.sampleIndex + 1) % m.maxSamples
	}
	m.mu.Unlock()
}

// GetAverageLatency returns the mean latency across all requests.
func (m *HTTPMetrics) GetAverageLatency() time.Duration {
	total := atomic.LoadInt64(&m.totalRequests)
	if total == 0 {
		return 0
	}
	return time.Duration(atomic.LoadInt64(&m.totalLatency) / total)
}

// GetP95Latency returns the 95th percentile latency.
func (m *HTTPMetrics) GetP95Latency() time.Duration {
	return m.percentile(0.95)
}

// GetP99Latency returns the 99th percentile latency.
func (m *HTTPMetrics) GetP99Latency() time.Duration {
	return m.percentile(0.99)
}

func (m *HTTPMetrics) percentile(p float64) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.latencySamples) == 0 {
		return 0
	}

	sorted := make([]time.Duration, len(m.latencySamples))
	copy(sorted, m.latencySamples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

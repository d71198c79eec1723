package clients

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datapassage/icefeed/pkg/testutil"
)

func newTestBreaker(t *testing.T, timeout time.Duration) *HTTPCircuitBreaker {
	t.Helper()
	cfg := DefaultHTTPConfig()
	cfg.CircuitBreakerEnabled = true
	cfg.FailureThreshold = 3
	cfg.SuccessThreshold = 2
	cfg.BreakerTimeout = timeout
	return NewHTTPCircuitBreaker(cfg, testutil.TestLogger(t))
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	cb := newTestBreaker(t, time.Minute)

	assert.Equal(t, StateClosed, cb.State())
	assert.True(t, cb.Allow())

	// keep the window failure rate below its 50% trip level so the
	// consecutive-failure threshold is what opens the circuit
	for i := 0; i < 10; i++ {
		cb.RecordSuccess()
	}

	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, StateClosed, cb.State())

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestCircuitBreakerOpensOnHighFailureRate(t *testing.T) {
	cb := newTestBreaker(t, time.Minute)

	// every request failing trips the window rate check before the
	// consecutive-failure threshold is reached
	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreakerHalfOpenRecovery(t *testing.T) {
	cb := newTestBreaker(t, 10*time.Millisecond)

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordFailure()
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)

	// first request after the timeout probes the service
	assert.True(t, cb.Allow())
	assert.Equal(t, StateHalfOpen, cb.State())

	cb.RecordSuccess()
	cb.RecordSuccess()
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := newTestBreaker(t, 10*time.Millisecond)

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordFailure()
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)
	require.True(t, cb.Allow())
	require.Equal(t, StateHalfOpen, cb.State())

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestCircuitBreakerHalfOpenLimitsProbes(t *testing.T) {
	cb := newTestBreaker(t, 10*time.Millisecond)

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)

	allowed := 0
	for i := 0; i < 10; i++ {
		if cb.Allow() {
			allowed++
		}
	}
	assert.Equal(t, 5, allowed, "half-open state limits concurrent probes")
}

func TestSlidingWindowFailureRate(t *testing.T) {
	sw := NewSlidingWindow(10*time.Millisecond, 100*time.Millisecond)

	assert.Equal(t, 0.0, sw.GetFailureRate())

	sw.RecordRequest(true)
	sw.RecordRequest(true)
	sw.RecordRequest(false)
	sw.RecordRequest(false)
	assert.InDelta(t, 0.5, sw.GetFailureRate(), 0.01)

	// old requests age out of the window
	time.Sleep(150 * time.Millisecond)
	sw.RecordRequest(true)
	assert.InDelta(t, 0.0, sw.GetFailureRate(), 0.01)
}

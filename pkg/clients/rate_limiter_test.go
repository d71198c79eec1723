package clients

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketAllow(t *testing.T) {
	limiter := NewTokenBucketRateLimiter(10, 3)

	// burst drains the bucket
	assert.True(t, limiter.Allow())
	assert.True(t, limiter.Allow())
	assert.True(t, limiter.Allow())
	assert.False(t, limiter.Allow())

	stats := limiter.GetStats()
	assert.Equal(t, int64(3), stats.AllowedRequests)
	assert.Equal(t, int64(1), stats.BlockedRequests)
	assert.Equal(t, float64(10), stats.Rate)
	assert.Equal(t, 3, stats.Burst)
}

func TestTokenBucketRefill(t *testing.T) {
	limiter := NewTokenBucketRateLimiter(100, 1)

	require.True(t, limiter.Allow())
	require.False(t, limiter.Allow())

	// 100/s refills one token within ~10ms
	time.Sleep(50 * time.Millisecond)
	assert.True(t, limiter.Allow())
}

func TestTokenBucketWait(t *testing.T) {
	limiter := NewTokenBucketRateLimiter(50, 1)

	require.True(t, limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, limiter.Wait(ctx))
}

func TestTokenBucketWaitCancelled(t *testing.T) {
	limiter := NewTokenBucketRateLimiter(0.001, 1)
	require.True(t, limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := limiter.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTokenBucketSetRate(t *testing.T) {
	limiter := NewTokenBucketRateLimiter(1, 1)
	limiter.SetRate(1000)
	limiter.SetBurst(10)

	require.True(t, limiter.Allow())
	time.Sleep(20 * time.Millisecond)

	allowed := 0
	for i := 0; i < 10; i++ {
		if limiter.Allow() {
			allowed++
		}
	}
	assert.Greater(t, allowed, 0)
}

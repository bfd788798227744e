package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketExhaustionAndRefill(t *testing.T) {
	bucket := NewTokenBucket(2, 1, 10*time.Millisecond)

	allowed, _ := bucket.Allow()
	assert.True(t, allowed)
	allowed, _ = bucket.Allow()
	assert.True(t, allowed)

	allowed, wait := bucket.Allow()
	assert.False(t, allowed)
	assert.Greater(t, wait, time.Duration(0))

	time.Sleep(15 * time.Millisecond)
	allowed, _ = bucket.Allow()
	assert.True(t, allowed)
}

func TestRateLimiterIsolatesUsersAndActions(t *testing.T) {
	rl := NewRateLimiter()

	for i := 0; i < 5; i++ {
		allowed, _ := rl.Allow("alice", "start_conversation")
		assert.True(t, allowed)
	}
	allowed, _ := rl.Allow("alice", "start_conversation")
	assert.False(t, allowed, "sixth conversation in the window is refused")

	// Other users and other actions hold their own buckets.
	allowed, _ = rl.Allow("bob", "start_conversation")
	assert.True(t, allowed)
	allowed, _ = rl.Allow("alice", "send_message")
	assert.True(t, allowed)
}

func TestCleanupEvictsStaleBuckets(t *testing.T) {
	rl := NewRateLimiter()
	rl.Allow("alice", "send_message")

	rl.mutex.RLock()
	bucket := rl.buckets["alice:send_message"]
	rl.mutex.RUnlock()
	bucket.lastRefill = time.Now().Add(-2 * time.Hour)

	rl.Cleanup()

	rl.mutex.RLock()
	_, exists := rl.buckets["alice:send_message"]
	rl.mutex.RUnlock()
	assert.False(t, exists)
}

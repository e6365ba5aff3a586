package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAttemptLimiterSlidingWindow(t *testing.T) {
	limiter := newAttemptLimiter()
	start := time.Date(2024, time.January, 14, 10, 0, 0, 0, time.UTC)
	key := "127.0.0.1|owner@example.com"

	for index := 0; index < 3; index++ {
		assert.False(t, limiter.tooManyRecent(key, start, 3, time.Minute))
		limiter.addFailure(key, start.Add(time.Duration(index)*time.Second), time.Minute)
	}
	assert.True(t, limiter.tooManyRecent(key, start.Add(10*time.Second), 3, time.Minute))
	assert.False(t, limiter.tooManyRecent("127.0.0.1|other@example.com", start, 3, time.Minute))

	// The first failure ages out of the window.
	assert.False(t, limiter.tooManyRecent(key, start.Add(time.Minute+500*time.Millisecond), 3, time.Minute))
	assert.False(t, limiter.tooManyRecent(key, start.Add(2*time.Minute), 1, time.Minute))
	assert.Empty(t, limiter.attempts)
}

func TestAttemptLimiterReset(t *testing.T) {
	limiter := newAttemptLimiter()
	now := time.Date(2024, time.January, 14, 10, 0, 0, 0, time.UTC)

	limiter.addFailure("key", now, time.Minute)
	assert.True(t, limiter.tooManyRecent("key", now, 1, time.Minute))

	limiter.reset("key")
	assert.False(t, limiter.tooManyRecent("key", now, 1, time.Minute))
}

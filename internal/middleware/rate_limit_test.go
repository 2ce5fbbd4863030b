package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiterWithConfig(60, 5)
	defer rl.Stop()

	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow("user-a"), "request %d within burst should pass", i)
	}
}

func TestRateLimiter_BlocksOverBurst(t *testing.T) {
	rl := NewRateLimiterWithConfig(60, 3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		rl.Allow("user-a")
	}
	assert.False(t, rl.Allow("user-a"), "request over burst should be blocked")
}

func TestRateLimiter_UsersAreIndependent(t *testing.T) {
	rl := NewRateLimiterWithConfig(60, 2)
	defer rl.Stop()

	rl.Allow("user-a")
	rl.Allow("user-a")
	assert.False(t, rl.Allow("user-a"))

	assert.True(t, rl.Allow("user-b"), "another user keeps a fresh bucket")
}

func TestRateLimiter_GetStateUnknownUser(t *testing.T) {
	rl := NewRateLimiterWithConfig(60, 10)
	defer rl.Stop()

	remaining, _ := rl.GetState("never-seen")
	assert.Equal(t, 10, remaining)
}

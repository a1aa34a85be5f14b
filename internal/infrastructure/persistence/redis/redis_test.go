package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortscript-api/internal/config"
)

func TestBuildRateLimitKey(t *testing.T) {
	assert.Equal(t, "ratelimit:user-1:/v1/scripts/generate", BuildRateLimitKey("", "user-1", "/v1/scripts/generate"))
	assert.Equal(t, "rl:10.0.0.1:/v1/durations", BuildRateLimitKey("rl", "10.0.0.1", "/v1/durations"))
}

func TestNewClient_UnreachableFailsFast(t *testing.T) {
	_, err := NewClient(&config.RedisConfig{
		Host:        "127.0.0.1",
		Port:        1,
		DialTimeout: 200 * time.Millisecond,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping redis")
}

func TestIsNil(t *testing.T) {
	assert.False(t, IsNil(nil))
	assert.False(t, IsNil(assert.AnError))
}

package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTestRedisOptions(t *testing.T) {
	t.Setenv("REDIS_TEST_ADDR", "")
	options := GetTestRedisOptions()
	assert.Equal(t, "localhost:6379", options.Addr)
	assert.Equal(t, 1, options.DB)

	t.Setenv("REDIS_TEST_ADDR", "redis.example.com:6380")
	options = GetTestRedisOptions()
	assert.Equal(t, "redis.example.com:6380", options.Addr)
	assert.Equal(t, 1, options.DB)
}

func TestGetTestRedisClient(t *testing.T) {
	t.Setenv("REDIS_TEST_ADDR", "127.0.0.1:6390")
	client := GetTestRedisClient()
	require.NotNil(t, client)
	assert.Equal(t, "127.0.0.1:6390", client.Options().Addr)
	assert.Equal(t, 1, client.Options().DB)
}

func TestNewMiniRedis(t *testing.T) {
	server, client := NewMiniRedis(t)

	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "k", "v", 0).Err())
	got, err := server.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
	assert.NoError(t, client.Ping(ctx).Err())
}

package publisher

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// This test requires a running Redis instance
// If Redis is not available, the test will be skipped
func TestRedisPublisher(t *testing.T) {
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   0,
	})
	defer client.Close()

	// Test if Redis is available
	if _, err := client.Ping(ctx).Result(); err != nil {
		t.Skip("Redis is not available, skipping test")
	}

	publisher := NewRedisPublisher(ctx, "localhost:6379", 0, "test_priceadjust", 1, 10)
	defer publisher.Close()

	defer client.Del(ctx, "test_priceadjust:0")

	payload := []byte(`{"batchId":"b1","success":true}`)
	err := publisher.Publish("b1", payload)
	require.NoError(t, err)

	// The batch must be readable from the stream, base64 encoded
	entries, err := client.XRange(ctx, "test_priceadjust:0", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	encoded, ok := entries[0].Values["b1"].(string)
	require.True(t, ok)

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

// TestTrimStreams tests stream trimming against a live Redis
func TestTrimStreams(t *testing.T) {
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   0,
	})
	defer client.Close()

	if _, err := client.Ping(ctx).Result(); err != nil {
		t.Skip("Redis is not available, skipping test")
	}

	publisher := NewRedisPublisher(ctx, "localhost:6379", 0, "test_trim", 1, 5)
	defer publisher.Close()

	defer client.Del(ctx, "test_trim:0")

	for i := 0; i < 20; i++ {
		require.NoError(t, publisher.Publish("batch", []byte("x")))
	}

	require.NoError(t, publisher.TrimStreams())

	length, err := client.XLen(ctx, "test_trim:0").Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, length, int64(5))
}

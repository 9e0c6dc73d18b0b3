//go:build integration
// +build integration

package queue

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func getRedisAddr(t *testing.T) string {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	return addr
}

func newTestQueue(t *testing.T) *RedisQueue {
	t.Helper()
	addr := getRedisAddr(t)
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("skipping integration test: redis connection failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return &RedisQueue{client: client}
}

func TestRedisQueue_PushAndPopRoundTrip(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()
	name := Name("test_" + time.Now().Format("150405.000000"))

	require.NoError(t, q.Push(ctx, name, map[string]string{"photo_id": "abc"}))

	payload, ok, err := q.Pop(ctx, name, 2*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	require.Contains(t, payload, "abc")
}

func TestRedisQueue_PriorityPushJumpsTheLine(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()
	name := Name("test_priority_" + time.Now().Format("150405.000000"))

	require.NoError(t, q.Push(ctx, name, map[string]string{"order": "first"}))
	require.NoError(t, q.PriorityPush(ctx, name, map[string]string{"order": "second"}))

	payload, ok, err := q.Pop(ctx, name, 2*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	require.Contains(t, payload, "second")
}

// Package queue implements the durable FIFO job queue from spec.md
// section 4.4: a thin Redis-list wrapper that degrades to a no-op when
// Redis isn't configured, mirroring the Python original's
// "if client is None: return" pattern in app/jobs/queue.py.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Name identifies one of the two FIFO channels the pipeline uses.
type Name string

const (
	EmbeddingJobs Name = "embedding_jobs"
	DriveSyncJobs Name = "drive_sync_jobs"
)

// Queue is the durable job queue surface. Push enqueues at the tail,
// PriorityPush at the head, Pop blocks up to timeout for the next item.
type Queue interface {
	Push(ctx context.Context, name Name, payload any) error
	PriorityPush(ctx context.Context, name Name, payload any) error
	Pop(ctx context.Context, name Name, timeout time.Duration) (string, bool, error)
	Length(ctx context.Context, name Name) (int64, error)
}

// RedisQueue implements Queue over redis/go-redis/v9 lists: RPush for
// Push, LPush for PriorityPush, BLPop for Pop.
type RedisQueue struct {
	client *redis.Client
}

// New returns a RedisQueue, or a NoopQueue if addr is empty — the queue
// is optional infrastructure, not a hard dependency, so an unconfigured
// deployment runs with embedding/sync simply never dispatched.
func New(addr string) Queue {
	if addr == "" {
		return NoopQueue{}
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	return &RedisQueue{client: client}
}

func key(name Name) string {
	return fmt.Sprintf("queue:%s", name)
}

func (q *RedisQueue) Push(ctx context.Context, name Name, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal job payload: %w", err)
	}
	return q.client.RPush(ctx, key(name), data).Err()
}

func (q *RedisQueue) PriorityPush(ctx context.Context, name Name, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal job payload: %w", err)
	}
	return q.client.LPush(ctx, key(name), data).Err()
}

func (q *RedisQueue) Pop(ctx context.Context, name Name, timeout time.Duration) (string, bool, error) {
	result, err := q.client.BLPop(ctx, timeout, key(name)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", false, nil
		}
		return "", false, fmt.Errorf("dequeue from %s: %w", name, err)
	}
	if len(result) < 2 {
		return "", false, fmt.Errorf("unexpected blpop result shape for %s", name)
	}
	return result[1], true, nil
}

func (q *RedisQueue) Length(ctx context.Context, name Name) (int64, error) {
	return q.client.LLen(ctx, key(name)).Result()
}

// NoopQueue is used when Redis isn't configured: every push silently
// succeeds and discards its payload, every pop times out immediately.
type NoopQueue struct{}

func (NoopQueue) Push(ctx context.Context, name Name, payload any) error         { return nil }
func (NoopQueue) PriorityPush(ctx context.Context, name Name, payload any) error { return nil }
func (NoopQueue) Pop(ctx context.Context, name Name, timeout time.Duration) (string, bool, error) {
	return "", false, nil
}
func (NoopQueue) Length(ctx context.Context, name Name) (int64, error) { return 0, nil }

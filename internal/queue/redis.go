package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Evans508/JobConnectUg/internal/model"
)

// RedisQueue dispatches ingest log IDs through a Redis list. LPUSH on the
// webhook side, BRPOP on the worker side, so multiple workers can share one
// queue.
type RedisQueue struct {
	client *redis.Client
	key    string
}

var _ model.IngestQueue = (*RedisQueue)(nil)

// NewRedisQueue parses redisURL, verifies connectivity, and returns a queue
// writing to the given list key.
func NewRedisQueue(ctx context.Context, redisURL, key string) (*RedisQueue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisQueue{client: client, key: key}, nil
}

func (q *RedisQueue) Enqueue(ctx context.Context, logID string) error {
	if err := q.client.LPush(ctx, q.key, logID).Err(); err != nil {
		return fmt.Errorf("enqueue log %s: %w", logID, err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next log ID. Returns "" with a nil
// error when the timeout expires with nothing queued.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("dequeue: %w", err)
	}
	// BRPop returns [key, value].
	if len(res) != 2 {
		return "", fmt.Errorf("dequeue: unexpected reply of %d elements", len(res))
	}
	return res[1], nil
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}

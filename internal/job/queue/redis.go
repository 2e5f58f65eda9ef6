package queue

import (
	"context"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

type redisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue builds a queue on a Redis list. LPUSH/BRPOP gives FIFO order;
// LREM implements best-effort removal of not-yet-consumed entries.
func NewRedisQueue(client *redis.Client, key string) Queue {
	return &redisQueue{client: client, key: key}
}

func (q *redisQueue) Enqueue(ctx context.Context, jobID string) error {
	return q.client.LPush(ctx, q.key, jobID).Err()
}

func (q *redisQueue) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	if len(res) != 2 {
		return "", nil
	}
	return res[1], nil
}

func (q *redisQueue) Remove(ctx context.Context, jobID string) (bool, error) {
	removed, err := q.client.LRem(ctx, q.key, 0, jobID).Result()
	if err != nil {
		return false, err
	}
	return removed > 0, nil
}

// Package queue carries bot tasks from the API to the workers.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/johnquangdev/focus-group-bot/internal/domain/entities"
)

// RedisQueue is a FIFO list: producers LPUSH, workers BRPOP
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue creates a queue on the given list key
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	return &RedisQueue{client: client, key: key}
}

// Enqueue pushes a task
func (q *RedisQueue) Enqueue(ctx context.Context, task entities.BotTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to encode bot task: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue bot task: %w", err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next task. It returns nil, nil when
// the timeout elapsed without a task.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*entities.BotTask, error) {
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue bot task: %w", err)
	}
	// BRPOP replies with [key, value]
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply of %d elements", len(res))
	}
	return decodeTask([]byte(res[1]))
}

// Len reports the number of waiting tasks
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

func decodeTask(payload []byte) (*entities.BotTask, error) {
	var task entities.BotTask
	if err := json.Unmarshal(payload, &task); err != nil {
		return nil, fmt.Errorf("failed to decode bot task: %w", err)
	}
	return &task, nil
}

package persist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/paperdrill/paperdrill-backend/internal/config"
	"github.com/paperdrill/paperdrill-backend/internal/model"
	"github.com/redis/go-redis/v9"
)

// RedisQueue pushes persist payloads onto a Redis list consumed by the
// session worker.
type RedisQueue struct {
	rdb *redis.Client
	key string
}

// NewSessionQueue creates the queue feeding the session persist worker.
func NewSessionQueue(rdb *redis.Client) *RedisQueue {
	return &RedisQueue{rdb: rdb, key: config.WorkerKey.PersistSessionsQueue}
}

// Push appends one payload to the queue.
func (q *RedisQueue) Push(ctx context.Context, payload []byte) error {
	if err := q.rdb.RPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", q.key, err)
	}
	return nil
}

// DrillQueue feeds flagged answers to the drill worker for batched insertion.
type DrillQueue struct {
	rdb *redis.Client
}

// NewDrillQueue creates a DrillQueue.
func NewDrillQueue(rdb *redis.Client) *DrillQueue {
	return &DrillQueue{rdb: rdb}
}

// SubmitBatch enqueues every item in one pipeline round trip.
func (q *DrillQueue) SubmitBatch(ctx context.Context, items []model.DrillItemInput) error {
	pipe := q.rdb.Pipeline()
	for _, item := range items {
		payload, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal drill item: %w", err)
		}
		pipe.RPush(ctx, config.WorkerKey.PersistDrillItemsQueue, payload)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("enqueue drill items: %w", err)
	}
	return nil
}

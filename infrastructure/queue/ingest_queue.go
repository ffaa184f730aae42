package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ingestQueueKey is the Redis list backing the upload pipeline. Producers
// LPUSH, the single worker BRPOPs, so tasks run strictly in arrival order.
const ingestQueueKey = "facefolio:ingest"

// IngestTask is one queued upload awaiting face processing.
type IngestTask struct {
	UserID   uuid.UUID `json:"user_id"`
	PhotoURL string    `json:"photo_url"`
}

// IngestQueue is the producer/consumer contract for the upload pipeline.
type IngestQueue interface {
	Enqueue(ctx context.Context, task IngestTask) error
	// Dequeue blocks up to timeout; a nil task with nil error means the
	// wait elapsed with nothing queued.
	Dequeue(ctx context.Context, timeout time.Duration) (*IngestTask, error)
	Length(ctx context.Context) (int64, error)
}

type RedisIngestQueue struct {
	client *redis.Client
}

func NewRedisIngestQueue(client *redis.Client) IngestQueue {
	return &RedisIngestQueue{client: client}
}

func (q *RedisIngestQueue) Enqueue(ctx context.Context, task IngestTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, ingestQueueKey, payload).Err()
}

func (q *RedisIngestQueue) Dequeue(ctx context.Context, timeout time.Duration) (*IngestTask, error) {
	result, err := q.client.BRPop(ctx, timeout, ingestQueueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	// BRPop returns [key, value].
	if len(result) < 2 {
		return nil, nil
	}

	var task IngestTask
	if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (q *RedisIngestQueue) Length(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, ingestQueueKey).Result()
}

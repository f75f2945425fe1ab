package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeActivityEvent JobType = "activity_event"
)

// Redis key prefixes
const (
	queuePrefix  = "queue:"
	failedPrefix = "failed:"
)

// Job represents a background job carried through Redis
type Job struct {
	ID         uuid.UUID       `json:"id"`
	Type       JobType         `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	RetryCount int             `json:"retry_count"`
	MaxRetries int             `json:"max_retries"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// JobHandler is a function that processes a job
type JobHandler func(ctx context.Context, job Job) error

// RedisQueue is a Redis list backed job queue
type RedisQueue struct {
	client *redis.Client
}

// NewRedisQueue creates a new Redis backed queue
func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

// Enqueue adds a job to the queue
func (q *RedisQueue) Enqueue(ctx context.Context, jobType JobType, payload interface{}) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job payload: %w", err)
	}

	job := Job{
		ID:         uuid.New(),
		Type:       jobType,
		Payload:    payloadBytes,
		MaxRetries: 3,
		EnqueuedAt: time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := q.client.LPush(ctx, queuePrefix+string(jobType), data).Err(); err != nil {
		return "", fmt.Errorf("failed to add job to queue: %w", err)
	}

	return job.ID.String(), nil
}

// Dequeue blocks up to timeout waiting for a job. A nil job with a nil
// error means the timeout elapsed with nothing to do.
func (q *RedisQueue) Dequeue(ctx context.Context, jobType JobType, timeout time.Duration) (*Job, error) {
	result, err := q.client.BRPop(ctx, timeout, queuePrefix+string(jobType)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue job: %w", err)
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return &job, nil
}

// Retry requeues a failed job until its retry budget runs out, after
// which the job is parked on the failed list for inspection.
func (q *RedisQueue) Retry(ctx context.Context, job *Job, cause error) error {
	job.RetryCount++
	if job.RetryCount > job.MaxRetries {
		return q.fail(ctx, job, cause)
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	return q.client.LPush(ctx, queuePrefix+string(job.Type), data).Err()
}

func (q *RedisQueue) fail(ctx context.Context, job *Job, cause error) error {
	data, err := json.Marshal(map[string]interface{}{
		"job":       job,
		"error":     cause.Error(),
		"failed_at": time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal failed job: %w", err)
	}

	return q.client.LPush(ctx, failedPrefix+string(job.Type), data).Err()
}

// Depth returns the number of jobs waiting on a queue
func (q *RedisQueue) Depth(ctx context.Context, jobType JobType) (int64, error) {
	return q.client.LLen(ctx, queuePrefix+string(jobType)).Result()
}

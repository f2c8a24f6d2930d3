package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Giansimone-Coccia/Progetto-PA-sub000/pkg/models"
)

// ErrJobNotFound is returned when no progress exists for a job ID,
// either because the ID is unknown or the entry has expired.
var ErrJobNotFound = errors.New("job not found")

// Queue is the durable job queue interface. Implementations must be
// safe for concurrent use; delivery is at-least-once.
type Queue interface {
	Enqueue(ctx context.Context, job *models.Job) error
	Dequeue(ctx context.Context, timeout time.Duration) (*models.Job, error)
	Ack(ctx context.Context, job *models.Job) error
	RecoverProcessing(ctx context.Context) (int, error)
	SetProgress(ctx context.Context, progress *models.JobProgress) error
	GetProgress(ctx context.Context, jobID uuid.UUID) (*models.JobProgress, error)
	Ping(ctx context.Context) error
}

// RedisQueue implements Queue using go-redis/v9. Pending jobs live in a
// list; a dequeue atomically moves the job onto a processing list, and
// Ack removes it once the worker has recorded a terminal state.
type RedisQueue struct {
	client      *redis.Client
	progressTTL time.Duration
}

// NewRedisQueue creates a new RedisQueue from a Redis URL.
func NewRedisQueue(redisURL string, progressTTL time.Duration) (*RedisQueue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisQueue{client: redis.NewClient(opts), progressTTL: progressTTL}, nil
}

func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Enqueue pushes the job and writes its initial pending progress.
// Returns without waiting for a worker to pick the job up.
func (q *RedisQueue) Enqueue(ctx context.Context, job *models.Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encoding job: %w", err)
	}

	progress := &models.JobProgress{
		JobID:     job.ID,
		State:     models.JobStatePending,
		Message:   "Job queued",
		DatasetID: job.DatasetID,
		UserID:    job.UserID,
		UpdatedAt: time.Now().UTC(),
	}
	if err := q.SetProgress(ctx, progress); err != nil {
		return err
	}

	if err := q.client.LPush(ctx, jobsKey, payload).Err(); err != nil {
		return fmt.Errorf("enqueuing job: %w", err)
	}
	return nil
}

// Dequeue blocks up to timeout for a pending job, moving it onto the
// processing list. Returns nil, nil when the timeout elapses with no
// job available.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*models.Job, error) {
	payload, err := q.client.BLMove(ctx, jobsKey, processingKey, "RIGHT", "LEFT", timeout).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dequeuing job: %w", err)
	}

	var job models.Job
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		// Drop the malformed entry so it cannot wedge the queue.
		_ = q.client.LRem(ctx, processingKey, 1, payload).Err()
		return nil, fmt.Errorf("decoding job: %w", err)
	}
	return &job, nil
}

// Ack removes a processed job from the processing list.
func (q *RedisQueue) Ack(ctx context.Context, job *models.Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encoding job: %w", err)
	}
	if err := q.client.LRem(ctx, processingKey, 1, payload).Err(); err != nil {
		return fmt.Errorf("acking job: %w", err)
	}
	return nil
}

// RecoverProcessing moves jobs stranded on the processing list back
// onto the pending list and returns how many were moved. A job a
// crashed worker dequeued but never acked would otherwise sit in the
// processing list forever; run this before starting workers so it is
// re-delivered instead. Re-delivery can repeat work the crashed worker
// already did, which is the at-least-once contract.
func (q *RedisQueue) RecoverProcessing(ctx context.Context) (int, error) {
	recovered := 0
	for {
		err := q.client.LMove(ctx, processingKey, jobsKey, "RIGHT", "RIGHT").Err()
		if err == redis.Nil {
			return recovered, nil
		}
		if err != nil {
			return recovered, fmt.Errorf("recovering jobs: %w", err)
		}
		recovered++
	}
}

func (q *RedisQueue) SetProgress(ctx context.Context, progress *models.JobProgress) error {
	payload, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("encoding progress: %w", err)
	}
	if err := q.client.Set(ctx, JobProgressKey(progress.JobID), payload, q.progressTTL).Err(); err != nil {
		return fmt.Errorf("storing progress: %w", err)
	}
	return nil
}

func (q *RedisQueue) GetProgress(ctx context.Context, jobID uuid.UUID) (*models.JobProgress, error) {
	payload, err := q.client.Get(ctx, JobProgressKey(jobID)).Bytes()
	if err == redis.Nil {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading progress: %w", err)
	}

	var progress models.JobProgress
	if err := json.Unmarshal(payload, &progress); err != nil {
		return nil, fmt.Errorf("decoding progress: %w", err)
	}
	return &progress, nil
}

// IncrWithExpiry increments key, starting its expiry window on first
// use. The API rate limiter shares the queue's Redis connection
// through this method.
func (q *RedisQueue) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	pipe := q.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, expiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// Close releases the underlying Redis connection.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// Compile-time check that RedisQueue implements Queue.
var _ Queue = (*RedisQueue)(nil)

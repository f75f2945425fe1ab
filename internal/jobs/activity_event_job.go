package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mlodi/backend/internal/models"
	"github.com/mlodi/backend/internal/queue"
	"github.com/mlodi/backend/internal/services/engagement"
)

// ActivityEventPayload is the payload for an asynchronous activity event
type ActivityEventPayload struct {
	UserID       uuid.UUID           `json:"user_id"`
	ArtistID     uuid.UUID           `json:"artist_id"`
	ActivityType models.ActivityType `json:"activity_type"`
	Value        int64               `json:"value"`
}

// ActivityEventJob consumes queued activity events and runs them
// through the engagement engine. High volume sources (playback ticks
// from the mobile clients) enqueue instead of hitting the API directly.
type ActivityEventJob struct {
	engine *engagement.Service
}

// NewActivityEventJob creates a new activity event job
func NewActivityEventJob(engine *engagement.Service) *ActivityEventJob {
	return &ActivityEventJob{engine: engine}
}

// Handle processes a single activity event job. The job ID doubles as
// the ledger idempotency key, so a retried delivery cannot apply the
// point delta a second time.
func (j *ActivityEventJob) Handle(ctx context.Context, job queue.Job) error {
	var payload ActivityEventPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal activity event payload: %w", err)
	}

	_, err := j.engine.RecordActivityEvent(payload.UserID, payload.ArtistID,
		payload.ActivityType, payload.Value, job.ID.String())
	if err != nil {
		return fmt.Errorf("failed to record activity for user %s: %w", payload.UserID, err)
	}

	return nil
}

// EnqueueActivityEvent pushes an activity event onto the queue
func EnqueueActivityEvent(ctx context.Context, q *queue.RedisQueue, payload ActivityEventPayload) (string, error) {
	return q.Enqueue(ctx, queue.JobTypeActivityEvent, payload)
}

package entity

import (
	"time"

	"github.com/google/uuid"
)

// SyncAction is the remote operation a sync job performs.
type SyncAction string

const (
	SyncActionCreate            SyncAction = "create"
	SyncActionUpdate            SyncAction = "update"
	SyncActionAddTransaction    SyncAction = "add_transaction"
	SyncActionUpdateTransaction SyncAction = "update_transaction"
	SyncActionDeleteTransaction SyncAction = "delete_transaction"
)

// SyncStatus represents the delivery state of a sync job in the outbox.
type SyncStatus string

const (
	SyncStatusPending    SyncStatus = "pending"
	SyncStatusProcessing SyncStatus = "processing"
	SyncStatusSent       SyncStatus = "sent"
	SyncStatusFailed     SyncStatus = "failed"
)

// DefaultSyncMaxAttempts is used when no attempt limit is configured.
const DefaultSyncMaxAttempts = 3

// SyncJob is a local mutation waiting to be forwarded to the remote store.
// ID doubles as the idempotency key sent with every delivery attempt.
type SyncJob struct {
	ID          uuid.UUID
	Action      SyncAction
	BigFishID   string
	Fields      map[string]interface{}
	Status      SyncStatus
	Attempts    int
	MaxAttempts int
	LastError   string
	CreatedAt   time.Time
	ScheduledAt time.Time
	ClaimedAt   *time.Time
	ProcessedAt *time.Time
}

// NewSyncJob creates a pending SyncJob. Job ids are time-ordered, so two jobs
// created in the same instant still sort in creation order.
func NewSyncJob(action SyncAction, bigFishID string, fields map[string]interface{}, maxAttempts int) *SyncJob {
	if maxAttempts <= 0 {
		maxAttempts = DefaultSyncMaxAttempts
	}
	if fields == nil {
		fields = make(map[string]interface{})
	}
	now := time.Now().UTC()
	return &SyncJob{
		ID:          uuid.Must(uuid.NewV7()),
		Action:      action,
		BigFishID:   bigFishID,
		Fields:      fields,
		Status:      SyncStatusPending,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		ScheduledAt: now,
	}
}

// Body returns the request body sent to the remote store:
// the job fields plus action and big_fish_id.
func (j *SyncJob) Body() map[string]interface{} {
	body := make(map[string]interface{}, len(j.Fields)+2)
	for k, v := range j.Fields {
		body[k] = v
	}
	body["action"] = string(j.Action)
	body["big_fish_id"] = j.BigFishID
	return body
}

// IdempotencyKey returns the key the remote store uses to drop replays.
func (j *SyncJob) IdempotencyKey() string {
	return j.ID.String()
}

// MarkProcessing marks the job as claimed by a delivery attempt.
func (j *SyncJob) MarkProcessing() {
	j.Status = SyncStatusProcessing
	now := time.Now().UTC()
	j.ClaimedAt = &now
}

// Release hands a claimed job back to the queue without counting an attempt.
func (j *SyncJob) Release() {
	j.Status = SyncStatusPending
	j.ClaimedAt = nil
	j.ScheduledAt = time.Now().UTC()
}

// MarkSent marks the job as delivered.
func (j *SyncJob) MarkSent() {
	j.Status = SyncStatusSent
	j.LastError = ""
	now := time.Now().UTC()
	j.ProcessedAt = &now
}

// MarkFailed records a failed attempt and schedules a retry if attempts remain.
func (j *SyncJob) MarkFailed(err error, permanent bool) {
	j.Attempts++
	j.LastError = err.Error()

	if permanent || j.Attempts >= j.MaxAttempts {
		j.Status = SyncStatusFailed
		now := time.Now().UTC()
		j.ProcessedAt = &now
	} else {
		j.Status = SyncStatusPending
		j.ScheduledAt = j.calculateNextRetry()
	}
}

// Requeue resets a failed job so the worker picks it up again.
func (j *SyncJob) Requeue() {
	j.Status = SyncStatusPending
	j.Attempts = 0
	j.ClaimedAt = nil
	j.ProcessedAt = nil
	j.ScheduledAt = time.Now().UTC()
}

// calculateNextRetry returns the next attempt time.
// Retry delays: 0s (immediate), 1min, 5min
func (j *SyncJob) calculateNextRetry() time.Time {
	delays := []time.Duration{0, 1 * time.Minute, 5 * time.Minute}
	if i := j.Attempts - 1; i >= 0 && i < len(delays) {
		return time.Now().UTC().Add(delays[i])
	}
	return time.Now().UTC().Add(5 * time.Minute)
}

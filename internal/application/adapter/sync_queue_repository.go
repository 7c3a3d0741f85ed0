package adapter

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/agency-crm/backend/internal/domain/entity"
)

// SyncQueueRepository defines the interface for sync outbox persistence operations.
type SyncQueueRepository interface {
	// Create adds a new sync job to the outbox.
	Create(ctx context.Context, job *entity.SyncJob) error

	// GetPendingJobs retrieves due jobs that are first in line for their
	// wallet, oldest first. A job waits while an older job of the same wallet
	// is still pending or processing.
	GetPendingJobs(ctx context.Context, limit int) ([]*entity.SyncJob, error)

	// Claim moves a pending job to processing. It reports false when another
	// delivery already claimed it.
	Claim(ctx context.Context, id uuid.UUID) (bool, error)

	// HasUndeliveredBefore reports whether an older job of the same wallet is
	// still pending or processing.
	HasUndeliveredBefore(ctx context.Context, job *entity.SyncJob) (bool, error)

	// ReleaseStale hands processing jobs claimed before the given time back
	// to the queue.
	ReleaseStale(ctx context.Context, claimedBefore time.Time) (int64, error)

	// Update saves changes to a sync job.
	Update(ctx context.Context, job *entity.SyncJob) error

	// GetByID retrieves a specific job by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*entity.SyncJob, error)

	// ListByStatus retrieves jobs in the given status, oldest first.
	ListByStatus(ctx context.Context, status entity.SyncStatus, limit int) ([]*entity.SyncJob, error)

	// ListByBigFish retrieves every job for a wallet, newest first.
	ListByBigFish(ctx context.Context, bigFishID string) ([]*entity.SyncJob, error)

	// DeleteOldSentJobs removes sent jobs older than the given number of days.
	DeleteOldSentJobs(ctx context.Context, olderThanDays int) (int64, error)
}

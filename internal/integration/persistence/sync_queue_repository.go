package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agency-crm/backend/internal/application/adapter"
	"github.com/agency-crm/backend/internal/domain/entity"
	domainerror "github.com/agency-crm/backend/internal/domain/error"
	"github.com/agency-crm/backend/internal/integration/persistence/model"
)

// syncQueueRepository implements the adapter.SyncQueueRepository interface.
type syncQueueRepository struct {
	db *gorm.DB
}

// NewSyncQueueRepository creates a new sync outbox repository instance.
func NewSyncQueueRepository(db *gorm.DB) adapter.SyncQueueRepository {
	return &syncQueueRepository{
		db: db,
	}
}

// Create adds a new sync job to the outbox.
func (r *syncQueueRepository) Create(ctx context.Context, job *entity.SyncJob) error {
	jobModel := model.SyncJobModelFromEntity(job)
	result := r.db.WithContext(ctx).Create(jobModel)
	if result.Error != nil {
		return domainerror.NewSyncError(
			domainerror.ErrCodeSyncQueueFailed,
			"failed to create sync job",
			result.Error,
		)
	}
	return nil
}

// undeliveredStatuses are the states that hold back later jobs of a wallet.
var undeliveredStatuses = []entity.SyncStatus{entity.SyncStatusPending, entity.SyncStatusProcessing}

// GetPendingJobs retrieves due jobs that are first in line for their wallet.
func (r *syncQueueRepository) GetPendingJobs(ctx context.Context, limit int) ([]*entity.SyncJob, error) {
	var models []model.SyncJobModel

	older := r.db.
		Table("sync_jobs AS older").
		Select("1").
		Where("older.big_fish_id = job.big_fish_id").
		Where("older.status IN ?", undeliveredStatuses).
		Where("(older.created_at < job.created_at OR (older.created_at = job.created_at AND older.id < job.id))")

	result := r.db.WithContext(ctx).
		Table("sync_jobs AS job").
		Where("job.status = ?", entity.SyncStatusPending).
		Where("job.scheduled_at <= ?", time.Now().UTC()).
		Where("NOT EXISTS (?)", older).
		Order("job.created_at ASC, job.id ASC").
		Limit(limit).
		Find(&models)

	if result.Error != nil {
		return nil, result.Error
	}

	return toSyncJobs(models), nil
}

// Claim moves a pending job to processing.
func (r *syncQueueRepository) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.SyncJobModel{}).
		Where("id = ? AND status = ?", id, entity.SyncStatusPending).
		Updates(map[string]interface{}{
			"status":     entity.SyncStatusProcessing,
			"claimed_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// HasUndeliveredBefore reports whether an older job of the same wallet is
// still pending or processing.
func (r *syncQueueRepository) HasUndeliveredBefore(ctx context.Context, job *entity.SyncJob) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&model.SyncJobModel{}).
		Where("big_fish_id = ?", job.BigFishID).
		Where("status IN ?", undeliveredStatuses).
		Where("(created_at < ? OR (created_at = ? AND id < ?))", job.CreatedAt, job.CreatedAt, job.ID).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// ReleaseStale returns processing jobs claimed before claimedBefore to pending.
// Such a job belongs to a delivery that never recorded its outcome.
func (r *syncQueueRepository) ReleaseStale(ctx context.Context, claimedBefore time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.SyncJobModel{}).
		Where("status = ?", entity.SyncStatusProcessing).
		Where("(claimed_at IS NULL OR claimed_at < ?)", claimedBefore).
		Updates(map[string]interface{}{
			"status":       entity.SyncStatusPending,
			"claimed_at":   nil,
			"scheduled_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Update saves changes to a sync job.
func (r *syncQueueRepository) Update(ctx context.Context, job *entity.SyncJob) error {
	jobModel := model.SyncJobModelFromEntity(job)
	result := r.db.WithContext(ctx).Save(jobModel)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

// GetByID retrieves a specific job by its ID.
func (r *syncQueueRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.SyncJob, error) {
	var jobModel model.SyncJobModel
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&jobModel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domainerror.ErrSyncJobNotFound
		}
		return nil, result.Error
	}
	return jobModel.ToEntity(), nil
}

// ListByStatus retrieves jobs in the given status, oldest first.
func (r *syncQueueRepository) ListByStatus(ctx context.Context, status entity.SyncStatus, limit int) ([]*entity.SyncJob, error) {
	var models []model.SyncJobModel
	query := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if result := query.Find(&models); result.Error != nil {
		return nil, result.Error
	}
	return toSyncJobs(models), nil
}

// ListByBigFish retrieves every job for a wallet, newest first.
func (r *syncQueueRepository) ListByBigFish(ctx context.Context, bigFishID string) ([]*entity.SyncJob, error) {
	var models []model.SyncJobModel
	result := r.db.WithContext(ctx).
		Where("big_fish_id = ?", bigFishID).
		Order("created_at DESC").
		Find(&models)

	if result.Error != nil {
		return nil, result.Error
	}
	return toSyncJobs(models), nil
}

// DeleteOldSentJobs removes sent jobs older than the specified number of days.
func (r *syncQueueRepository) DeleteOldSentJobs(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)

	result := r.db.WithContext(ctx).
		Where("status = ?", entity.SyncStatusSent).
		Where("processed_at < ?", cutoff).
		Delete(&model.SyncJobModel{})

	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

func toSyncJobs(models []model.SyncJobModel) []*entity.SyncJob {
	jobs := make([]*entity.SyncJob, len(models))
	for i := range models {
		jobs[i] = models[i].ToEntity()
	}
	return jobs
}

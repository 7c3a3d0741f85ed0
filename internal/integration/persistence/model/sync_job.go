package model

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/agency-crm/backend/internal/domain/entity"
)

// SyncJobModel represents the sync_jobs outbox table in the database.
type SyncJobModel struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey"`
	Action      string       `gorm:"type:varchar(50);not null"`
	BigFishID   string       `gorm:"type:varchar(100);not null;index"`
	Fields      string       `gorm:"type:jsonb;not null;default:'{}'"`
	Status      string       `gorm:"type:varchar(20);not null;default:'pending';index"`
	Attempts    int          `gorm:"not null;default:0"`
	MaxAttempts int          `gorm:"not null;default:3"`
	LastError   string       `gorm:"type:text"`
	CreatedAt   time.Time    `gorm:"not null"`
	ScheduledAt time.Time    `gorm:"not null;index"`
	ClaimedAt   sql.NullTime `gorm:"type:timestamptz"`
	ProcessedAt sql.NullTime `gorm:"type:timestamptz"`
}

// TableName returns the table name for the SyncJobModel.
func (SyncJobModel) TableName() string {
	return "sync_jobs"
}

// ToEntity converts a SyncJobModel to a domain SyncJob entity.
func (m *SyncJobModel) ToEntity() *entity.SyncJob {
	var fields map[string]interface{}
	if m.Fields != "" {
		if err := json.Unmarshal([]byte(m.Fields), &fields); err != nil {
			slog.Warn("Failed to unmarshal sync job fields", "error", err, "id", m.ID)
		}
	}
	if fields == nil {
		fields = make(map[string]interface{})
	}

	var claimedAt, processedAt *time.Time
	if m.ClaimedAt.Valid {
		claimedAt = &m.ClaimedAt.Time
	}
	if m.ProcessedAt.Valid {
		processedAt = &m.ProcessedAt.Time
	}

	return &entity.SyncJob{
		ID:          m.ID,
		Action:      entity.SyncAction(m.Action),
		BigFishID:   m.BigFishID,
		Fields:      fields,
		Status:      entity.SyncStatus(m.Status),
		Attempts:    m.Attempts,
		MaxAttempts: m.MaxAttempts,
		LastError:   m.LastError,
		CreatedAt:   m.CreatedAt,
		ScheduledAt: m.ScheduledAt,
		ClaimedAt:   claimedAt,
		ProcessedAt: processedAt,
	}
}

// SyncJobModelFromEntity creates a SyncJobModel from a domain SyncJob entity.
func SyncJobModelFromEntity(job *entity.SyncJob) *SyncJobModel {
	fieldsJSON, err := json.Marshal(job.Fields)
	if err != nil {
		slog.Error("Failed to marshal sync job fields", "error", err, "job_id", job.ID)
		fieldsJSON = []byte("{}")
	}

	var claimedAt, processedAt sql.NullTime
	if job.ClaimedAt != nil {
		claimedAt = sql.NullTime{Time: *job.ClaimedAt, Valid: true}
	}
	if job.ProcessedAt != nil {
		processedAt = sql.NullTime{Time: *job.ProcessedAt, Valid: true}
	}

	return &SyncJobModel{
		ID:          job.ID,
		Action:      string(job.Action),
		BigFishID:   job.BigFishID,
		Fields:      string(fieldsJSON),
		Status:      string(job.Status),
		Attempts:    job.Attempts,
		MaxAttempts: job.MaxAttempts,
		LastError:   job.LastError,
		CreatedAt:   job.CreatedAt,
		ScheduledAt: job.ScheduledAt,
		ClaimedAt:   claimedAt,
		ProcessedAt: processedAt,
	}
}

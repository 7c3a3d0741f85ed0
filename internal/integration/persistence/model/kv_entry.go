package model

import "time"

// KVEntryModel represents the kv_entries table, a plain key-value store
// used when the local wallet cache is kept in SQL instead of Redis.
type KVEntryModel struct {
	Key       string    `gorm:"type:varchar(100);primaryKey"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the KVEntryModel.
func (KVEntryModel) TableName() string {
	return "kv_entries"
}

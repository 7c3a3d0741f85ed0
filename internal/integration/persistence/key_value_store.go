package persistence

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/agency-crm/backend/internal/application/adapter"
	"github.com/agency-crm/backend/internal/integration/persistence/model"
)

const (
	lockSuffix        = ":lock"
	lockRetryInterval = 25 * time.Millisecond
)

// releaseLockScript deletes the lease only while it still holds our token.
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// redisKeyValueStore implements adapter.KeyValueStore with Redis strings.
type redisKeyValueStore struct {
	client *redis.Client
}

// NewRedisKeyValueStore creates a key-value store backed by Redis.
func NewRedisKeyValueStore(client *redis.Client) adapter.KeyValueStore {
	return &redisKeyValueStore{client: client}
}

// Get returns the value stored under key.
func (s *redisKeyValueStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return raw, true, nil
}

// Set overwrites the value stored under key.
func (s *redisKeyValueStore) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, key, value, 0).Err()
}

// Lock takes a lease with SET NX and a TTL.
func (s *redisKeyValueStore) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	lockKey := key + lockSuffix
	token := uuid.NewString()

	err := pollLock(ctx, func() (bool, error) {
		return s.client.SetNX(ctx, lockKey, token, ttl).Result()
	})
	if err != nil {
		return nil, err
	}

	return func() {
		if err := releaseLockScript.Run(context.WithoutCancel(ctx), s.client, []string{lockKey}, token).Err(); err != nil {
			slog.Warn("Failed to release store lock", "key", lockKey, "error", err)
		}
	}, nil
}

// sqlKeyValueStore implements adapter.KeyValueStore with the kv_entries table.
type sqlKeyValueStore struct {
	db *gorm.DB
}

// NewSQLKeyValueStore creates a key-value store backed by the kv_entries table.
func NewSQLKeyValueStore(db *gorm.DB) adapter.KeyValueStore {
	return &sqlKeyValueStore{db: db}
}

// Get returns the value stored under key.
func (s *sqlKeyValueStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var entry model.KVEntryModel
	result := s.db.WithContext(ctx).Where("key = ?", key).First(&entry)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, result.Error
	}
	return []byte(entry.Value), true, nil
}

// Set overwrites the value stored under key.
func (s *sqlKeyValueStore) Set(ctx context.Context, key string, value []byte) error {
	entry := model.KVEntryModel{
		Key:       key,
		Value:     string(value),
		UpdatedAt: time.Now().UTC(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

// Lock takes a lease by inserting a row under the lock key. A row older than
// ttl belongs to a writer that never released it and is cleared first.
func (s *sqlKeyValueStore) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	lockKey := key + lockSuffix
	token := uuid.NewString()

	err := pollLock(ctx, func() (bool, error) {
		now := time.Now().UTC()
		expired := s.db.WithContext(ctx).
			Where("key = ? AND updated_at < ?", lockKey, now.Add(-ttl)).
			Delete(&model.KVEntryModel{})
		if expired.Error != nil {
			return false, expired.Error
		}

		result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&model.KVEntryModel{
			Key:       lockKey,
			Value:     token,
			UpdatedAt: now,
		})
		if result.Error != nil {
			return false, result.Error
		}
		return result.RowsAffected == 1, nil
	})
	if err != nil {
		return nil, err
	}

	return func() {
		result := s.db.WithContext(context.WithoutCancel(ctx)).
			Where("key = ? AND value = ?", lockKey, token).
			Delete(&model.KVEntryModel{})
		if result.Error != nil {
			slog.Warn("Failed to release store lock", "key", lockKey, "error", result.Error)
		}
	}, nil
}

// pollLock calls try until it reports the lease as taken or ctx is done.
func pollLock(ctx context.Context, try func() (bool, error)) error {
	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		ok, err := try()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := Load()
		if cfg.LocalStore.Key != "big_fish" {
			t.Errorf("expected local store key big_fish, got %q", cfg.LocalStore.Key)
		}
		if cfg.Sync.MaxAttempts != 3 {
			t.Errorf("expected 3 sync attempts, got %d", cfg.Sync.MaxAttempts)
		}
		if cfg.Sync.RetentionDays != 7 {
			t.Errorf("expected 7 retention days, got %d", cfg.Sync.RetentionDays)
		}
		if cfg.JWT.AccessTokenExpiry != 12*time.Hour {
			t.Errorf("unexpected token expiry %s", cfg.JWT.AccessTokenExpiry)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("SYNC_TRANSPORT", "kafka")
		t.Setenv("SYNC_KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
		t.Setenv("SYNC_WORKER_POLL_INTERVAL", "250ms")
		t.Setenv("SERVER_PORT", "not-a-number")
		t.Setenv("SYNC_RETENTION_DAYS", "0")

		cfg := Load()
		if cfg.Sync.Transport != "kafka" {
			t.Errorf("expected kafka transport, got %q", cfg.Sync.Transport)
		}
		if len(cfg.Sync.KafkaBrokers) != 2 || cfg.Sync.KafkaBrokers[1] != "kafka-2:9092" {
			t.Errorf("unexpected brokers %v", cfg.Sync.KafkaBrokers)
		}
		if cfg.Sync.PollInterval != 250*time.Millisecond {
			t.Errorf("unexpected poll interval %s", cfg.Sync.PollInterval)
		}
		if cfg.Sync.RetentionDays != 0 {
			t.Errorf("expected retention to be turned off, got %d", cfg.Sync.RetentionDays)
		}
		if cfg.Server.Port != 8080 {
			t.Errorf("expected invalid port to fall back to 8080, got %d", cfg.Server.Port)
		}
	})
}

package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/agency-crm/backend/config"
)

func TestConnect(t *testing.T) {
	srv := miniredis.RunT(t)
	ctx := context.Background()

	t.Run("host and port", func(t *testing.T) {
		client, err := Connect(ctx, &config.RedisConfig{URL: srv.Addr()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer client.Close()
		if !HealthChecker(client)() {
			t.Error("expected healthy client")
		}
	})

	t.Run("url", func(t *testing.T) {
		client, err := Connect(ctx, &config.RedisConfig{URL: "redis://" + srv.Addr() + "/2"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer client.Close()
		if client.Options().DB != 2 {
			t.Errorf("expected db 2, got %d", client.Options().DB)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		if _, err := Connect(ctx, &config.RedisConfig{URL: "127.0.0.1:1"}); err == nil {
			t.Error("expected error")
		}
	})
}

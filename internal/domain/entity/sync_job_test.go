package entity

import (
	"errors"
	"testing"
	"time"
)

func TestSyncJob_MarkFailed(t *testing.T) {
	t.Run("retries with backoff until attempts run out", func(t *testing.T) {
		job := NewSyncJob(SyncActionUpdate, "bf-1", nil, 3)

		job.MarkFailed(errors.New("down"), false)
		if job.Status != SyncStatusPending || job.ScheduledAt.After(time.Now().UTC()) {
			t.Fatalf("expected immediate retry, got %s at %s", job.Status, job.ScheduledAt)
		}

		before := time.Now().UTC()
		job.MarkFailed(errors.New("down"), false)
		if job.Status != SyncStatusPending {
			t.Fatalf("expected pending, got %s", job.Status)
		}
		if job.ScheduledAt.Before(before.Add(time.Minute - time.Second)) {
			t.Errorf("expected second retry a minute out, got %s", job.ScheduledAt)
		}

		job.MarkFailed(errors.New("still down"), false)
		if job.Status != SyncStatusFailed || job.Attempts != job.MaxAttempts || job.ProcessedAt == nil {
			t.Errorf("expected failed after 3 attempts, got %s", job.Status)
		}
		if job.LastError != "still down" {
			t.Errorf("expected last error to be kept, got %q", job.LastError)
		}
	})

	t.Run("permanent error fails at once", func(t *testing.T) {
		job := NewSyncJob(SyncActionUpdate, "bf-1", nil, 3)
		job.MarkFailed(errors.New("rejected"), true)
		if job.Status != SyncStatusFailed || job.Attempts != 1 {
			t.Errorf("expected failed after 1 attempt, got %s/%d", job.Status, job.Attempts)
		}
	})

	t.Run("release returns a claimed job without an attempt", func(t *testing.T) {
		job := NewSyncJob(SyncActionUpdate, "bf-1", nil, 3)
		job.ScheduledAt = time.Now().UTC().Add(time.Hour)
		job.MarkProcessing()
		if job.ClaimedAt == nil {
			t.Fatal("expected claim time to be recorded")
		}
		job.Release()
		if job.Status != SyncStatusPending || job.Attempts != 0 || job.ClaimedAt != nil || job.ScheduledAt.After(time.Now().UTC()) {
			t.Errorf("unexpected job after release %+v", job)
		}
	})

	t.Run("requeue resets attempts", func(t *testing.T) {
		job := NewSyncJob(SyncActionUpdate, "bf-1", nil, 1)
		job.MarkFailed(errors.New("down"), false)
		job.Requeue()
		if job.Status != SyncStatusPending || job.Attempts != 0 || job.ProcessedAt != nil {
			t.Errorf("unexpected job after requeue %+v", job)
		}
	})
}

func TestNewSyncJob_IDsFollowCreationOrder(t *testing.T) {
	prev := NewSyncJob(SyncActionUpdate, "bf-1", nil, 0)
	for i := 0; i < 100; i++ {
		next := NewSyncJob(SyncActionUpdate, "bf-1", nil, 0)
		if next.ID.String() <= prev.ID.String() {
			t.Fatalf("expected %s to sort after %s", next.ID, prev.ID)
		}
		prev = next
	}
}

func TestSyncJob_Body(t *testing.T) {
	job := NewSyncJob(SyncActionAddTransaction, "bf-1", map[string]interface{}{
		"amount": 15.5,
		"action": "overwritten",
	}, 0)

	body := job.Body()
	if body["action"] != "add_transaction" || body["big_fish_id"] != "bf-1" || body["amount"] != 15.5 {
		t.Errorf("unexpected body %+v", body)
	}
	if job.Fields["action"] != "overwritten" {
		t.Error("expected Body to leave fields untouched")
	}
	if job.MaxAttempts != DefaultSyncMaxAttempts {
		t.Errorf("expected default max attempts, got %d", job.MaxAttempts)
	}
}

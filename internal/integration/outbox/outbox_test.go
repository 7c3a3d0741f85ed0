package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/agency-crm/backend/internal/application/adapter"
	"github.com/agency-crm/backend/internal/domain/entity"
	domainerror "github.com/agency-crm/backend/internal/domain/error"
	"github.com/agency-crm/backend/internal/integration/persistence"
	"github.com/agency-crm/backend/internal/integration/persistence/model"
)

func newTestQueue(t *testing.T) adapter.SyncQueueRepository {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.SyncJobModel{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return persistence.NewSyncQueueRepository(db)
}

func onlyJob(t *testing.T, queue adapter.SyncQueueRepository, bigFishID string) *entity.SyncJob {
	t.Helper()
	jobs, err := queue.ListByBigFish(context.Background(), bigFishID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	return jobs[0]
}

func TestDispatcher_Forward(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers body with action and id", func(t *testing.T) {
		queue := newTestQueue(t)
		sender := NewMockSyncSender()
		d := NewDispatcher(queue, sender, DefaultDispatcherConfig())

		d.Forward(ctx, entity.SyncActionAddTransaction, "bf-1", map[string]interface{}{
			"amount": 15.5,
			"type":   "AD_SPEND",
		})
		d.Wait()

		requests := sender.Requests()
		if len(requests) != 1 {
			t.Fatalf("expected 1 request, got %d", len(requests))
		}
		body := requests[0].Body
		if body["action"] != "add_transaction" || body["big_fish_id"] != "bf-1" || body["amount"] != 15.5 {
			t.Errorf("unexpected body %+v", body)
		}

		job := onlyJob(t, queue, "bf-1")
		if job.Status != entity.SyncStatusSent {
			t.Errorf("expected sent, got %s", job.Status)
		}
		if requests[0].IdempotencyKey != job.IdempotencyKey() {
			t.Errorf("expected idempotency key %s, got %s", job.IdempotencyKey(), requests[0].IdempotencyKey)
		}
	})

	t.Run("does not block on a failing remote", func(t *testing.T) {
		queue := newTestQueue(t)
		sender := NewMockSyncSender()
		sender.SetFailure(errors.New("connection refused"), false)
		d := NewDispatcher(queue, sender, DefaultDispatcherConfig())

		d.Forward(ctx, entity.SyncActionUpdate, "bf-2", nil)
		d.Wait()

		job := onlyJob(t, queue, "bf-2")
		if job.Status != entity.SyncStatusPending || job.Attempts != 1 {
			t.Errorf("expected pending retry after 1 attempt, got %s after %d", job.Status, job.Attempts)
		}
	})

	t.Run("permanent failure is not retried", func(t *testing.T) {
		queue := newTestQueue(t)
		sender := NewMockSyncSender()
		sender.SetFailure(errors.New("bad request"), true)
		d := NewDispatcher(queue, sender, DefaultDispatcherConfig())

		d.Forward(ctx, entity.SyncActionUpdate, "bf-3", nil)
		d.Wait()

		job := onlyJob(t, queue, "bf-3")
		if job.Status != entity.SyncStatusFailed {
			t.Errorf("expected failed, got %s", job.Status)
		}
	})

	t.Run("single attempt without a queue", func(t *testing.T) {
		sender := NewMockSyncSender()
		d := NewDispatcher(nil, sender, DefaultDispatcherConfig())

		d.Forward(ctx, entity.SyncActionCreate, "bf-4", map[string]interface{}{"name": "Acme"})
		d.Wait()

		if len(sender.Requests()) != 1 {
			t.Errorf("expected 1 request, got %d", len(sender.Requests()))
		}
	})

	t.Run("nil sender disables forwarding", func(t *testing.T) {
		queue := newTestQueue(t)
		d := NewDispatcher(queue, nil, DefaultDispatcherConfig())

		d.Forward(ctx, entity.SyncActionCreate, "bf-5", nil)
		d.Wait()

		jobs, _ := queue.ListByBigFish(ctx, "bf-5")
		if len(jobs) != 0 {
			t.Errorf("expected no jobs, got %d", len(jobs))
		}
	})

	t.Run("cancelled request context does not cancel delivery", func(t *testing.T) {
		sender := NewMockSyncSender()
		d := NewDispatcher(nil, sender, DefaultDispatcherConfig())

		reqCtx, cancel := context.WithCancel(ctx)
		d.Forward(reqCtx, entity.SyncActionUpdate, "bf-6", nil)
		cancel()
		d.Wait()

		if len(sender.Requests()) != 1 {
			t.Errorf("expected delivery despite cancellation, got %d requests", len(sender.Requests()))
		}
	})
}

func TestWorker_RetriesPendingJobs(t *testing.T) {
	ctx := context.Background()
	queue := newTestQueue(t)
	sender := NewMockSyncSender()
	sender.FailTimes(1, errors.New("timeout"))

	d := NewDispatcher(queue, sender, DispatcherConfig{MaxAttempts: 3})
	d.Forward(ctx, entity.SyncActionDeleteTransaction, "bf-1", map[string]interface{}{"transaction_id": "tx-1"})
	d.Wait()

	// First retry is immediate.
	w := NewWorker(queue, sender, DefaultWorkerConfig())
	w.ProcessNow(ctx)

	job := onlyJob(t, queue, "bf-1")
	if job.Status != entity.SyncStatusSent {
		t.Fatalf("expected sent after retry, got %s (%s)", job.Status, job.LastError)
	}
	requests := sender.Requests()
	if len(requests) != 1 || requests[0].IdempotencyKey != job.IdempotencyKey() {
		t.Errorf("expected one delivery carrying the job key, got %+v", requests)
	}
}

func TestWorker_GivesUpAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	queue := newTestQueue(t)
	sender := NewMockSyncSender()
	sender.SetFailure(errors.New("unavailable"), false)

	job := entity.NewSyncJob(entity.SyncActionUpdate, "bf-1", nil, 2)
	if err := queue.Create(ctx, job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w := NewWorker(queue, sender, DefaultWorkerConfig())
	w.ProcessNow(ctx)

	stored, _ := queue.GetByID(ctx, job.ID)
	if stored.Status != entity.SyncStatusPending || stored.Attempts != 1 {
		t.Fatalf("expected pending after first failure, got %s/%d", stored.Status, stored.Attempts)
	}

	// The second retry waits a minute; pull it forward.
	stored.ScheduledAt = time.Now().UTC().Add(-time.Second)
	if err := queue.Update(ctx, stored); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w.ProcessNow(ctx)

	stored, _ = queue.GetByID(ctx, job.ID)
	if stored.Status != entity.SyncStatusFailed || stored.Attempts != 2 {
		t.Errorf("expected failed after 2 attempts, got %s/%d", stored.Status, stored.Attempts)
	}
}

func actions(requests []adapter.SyncRequest) []entity.SyncAction {
	out := make([]entity.SyncAction, len(requests))
	for i, r := range requests {
		out[i] = r.Action
	}
	return out
}

func TestDispatcher_KeepsWalletOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("later mutation waits for a failed earlier one", func(t *testing.T) {
		queue := newTestQueue(t)
		sender := NewMockSyncSender()
		sender.FailTimes(1, errors.New("timeout"))

		d := NewDispatcher(queue, sender, DefaultDispatcherConfig())
		d.Forward(ctx, entity.SyncActionAddTransaction, "bf-1", map[string]interface{}{"transaction_id": "tx-1"})
		d.Forward(ctx, entity.SyncActionDeleteTransaction, "bf-1", map[string]interface{}{"transaction_id": "tx-1"})
		d.Wait()

		if n := len(sender.Requests()); n != 0 {
			t.Fatalf("expected the delete to hold back behind the failed add, got %d deliveries", n)
		}

		NewWorker(queue, sender, DefaultWorkerConfig()).ProcessNow(ctx)

		got := actions(sender.Requests())
		if len(got) != 2 || got[0] != entity.SyncActionAddTransaction || got[1] != entity.SyncActionDeleteTransaction {
			t.Fatalf("expected add then delete, got %v", got)
		}
		jobs, _ := queue.ListByBigFish(ctx, "bf-1")
		for _, job := range jobs {
			if job.Status != entity.SyncStatusSent {
				t.Errorf("expected every job sent, got %s for %s", job.Status, job.Action)
			}
		}
	})

	t.Run("other wallets are not held back", func(t *testing.T) {
		queue := newTestQueue(t)
		sender := NewMockSyncSender()
		sender.FailTimes(1, errors.New("timeout"))

		d := NewDispatcher(queue, sender, DefaultDispatcherConfig())
		d.Forward(ctx, entity.SyncActionUpdate, "bf-1", nil)
		d.Wait()
		d.Forward(ctx, entity.SyncActionUpdate, "bf-2", nil)
		d.Wait()

		requests := sender.Requests()
		if len(requests) != 1 || requests[0].BigFishID != "bf-2" {
			t.Errorf("expected bf-2 to be delivered at once, got %+v", requests)
		}
	})

	t.Run("immediate attempts run in forward order", func(t *testing.T) {
		sender := NewMockSyncSender()
		d := NewDispatcher(nil, sender, DefaultDispatcherConfig())

		for i := 0; i < 20; i++ {
			d.Forward(ctx, entity.SyncActionUpdate, "bf-1", map[string]interface{}{"seq": i})
		}
		d.Wait()

		requests := sender.Requests()
		if len(requests) != 20 {
			t.Fatalf("expected 20 deliveries, got %d", len(requests))
		}
		for i, r := range requests {
			if r.Body["seq"] != i {
				t.Fatalf("expected delivery %d to carry seq %d, got %v", i, i, r.Body["seq"])
			}
		}
	})
}

func TestWorker_ReleasesStaleJobs(t *testing.T) {
	ctx := context.Background()
	queue := newTestQueue(t)
	sender := NewMockSyncSender()

	// A delivery that was claimed and then lost with its process.
	job := entity.NewSyncJob(entity.SyncActionUpdate, "bf-1", nil, 3)
	job.MarkProcessing()
	claimed := time.Now().UTC().Add(-time.Hour)
	job.ClaimedAt = &claimed
	if err := queue.Create(ctx, job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	next := entity.NewSyncJob(entity.SyncActionUpdate, "bf-1", nil, 3)
	if err := queue.Create(ctx, next); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	NewWorker(queue, sender, DefaultWorkerConfig()).ProcessNow(ctx)

	requests := sender.Requests()
	if len(requests) != 2 || requests[0].IdempotencyKey != job.IdempotencyKey() || requests[1].IdempotencyKey != next.IdempotencyKey() {
		t.Fatalf("expected the stranded job and then the next one, got %+v", requests)
	}
}

func TestWorker_Prune(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T) adapter.SyncQueueRepository {
		queue := newTestQueue(t)
		old := entity.NewSyncJob(entity.SyncActionUpdate, "bf-1", nil, 3)
		old.MarkSent()
		delivered := time.Now().UTC().AddDate(0, 0, -10)
		old.ProcessedAt = &delivered
		recent := entity.NewSyncJob(entity.SyncActionUpdate, "bf-1", nil, 3)
		recent.MarkSent()
		failed := entity.NewSyncJob(entity.SyncActionUpdate, "bf-1", nil, 1)
		failed.MarkFailed(errors.New("rejected"), true)
		failed.ProcessedAt = &delivered
		for _, job := range []*entity.SyncJob{old, recent, failed} {
			if err := queue.Create(ctx, job); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		return queue
	}

	t.Run("deletes sent jobs past retention", func(t *testing.T) {
		queue := seed(t)
		w := NewWorker(queue, NewMockSyncSender(), WorkerConfig{RetentionDays: 7})

		n, err := w.Prune(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 pruned job, got %d", n)
		}
		jobs, _ := queue.ListByBigFish(ctx, "bf-1")
		if len(jobs) != 2 {
			t.Errorf("expected recent and failed jobs to stay, got %d jobs", len(jobs))
		}
	})

	t.Run("zero retention keeps everything", func(t *testing.T) {
		queue := seed(t)
		w := NewWorker(queue, NewMockSyncSender(), WorkerConfig{RetentionDays: 0})

		if n, err := w.Prune(ctx); err != nil || n != 0 {
			t.Errorf("expected nothing pruned, got %d (%v)", n, err)
		}
	})
}

func TestHTTPSender_Send(t *testing.T) {
	ctx := context.Background()
	request := adapter.SyncRequest{
		IdempotencyKey: "key-1",
		Action:         entity.SyncActionAddTransaction,
		BigFishID:      "bf-1",
		Body: map[string]interface{}{
			"action":      "add_transaction",
			"big_fish_id": "bf-1",
			"amount":      200,
		},
	}

	t.Run("posts json with idempotency key", func(t *testing.T) {
		var gotKey, gotAction string
		var gotBody map[string]interface{}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotKey = r.Header.Get("Idempotency-Key")
			gotAction = r.Header.Get("X-Sync-Action")
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		result, err := NewHTTPSender(HTTPSenderConfig{URL: srv.URL}).Send(ctx, request)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", result.StatusCode)
		}
		if gotKey != "key-1" || gotAction != "add_transaction" {
			t.Errorf("unexpected headers key=%q action=%q", gotKey, gotAction)
		}
		if gotBody["big_fish_id"] != "bf-1" || gotBody["amount"] != float64(200) {
			t.Errorf("unexpected body %+v", gotBody)
		}
	})

	tests := []struct {
		name      string
		status    int
		permanent bool
	}{
		{"bad request is permanent", http.StatusBadRequest, true},
		{"not found is permanent", http.StatusNotFound, true},
		{"rate limit is temporary", http.StatusTooManyRequests, false},
		{"request timeout is temporary", http.StatusRequestTimeout, false},
		{"server error is temporary", http.StatusBadGateway, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := NewHTTPSender(HTTPSenderConfig{URL: srv.URL}).Send(ctx, request)
			if err == nil {
				t.Fatal("expected error")
			}
			if domainerror.IsPermanentSyncError(err) != tt.permanent {
				t.Errorf("expected permanent=%v, got %v", tt.permanent, err)
			}
		})
	}

	t.Run("unreachable remote is temporary", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		_, err := NewHTTPSender(HTTPSenderConfig{URL: url, Timeout: time.Second}).Send(ctx, request)
		if err == nil || domainerror.IsPermanentSyncError(err) {
			t.Errorf("expected temporary error, got %v", err)
		}
	})
}

func TestHTTPSender_AckPath(t *testing.T) {
	ctx := context.Background()
	request := adapter.SyncRequest{IdempotencyKey: "key-1", Action: entity.SyncActionUpdate, BigFishID: "bf-1"}

	tests := []struct {
		name    string
		body    string
		wantAck bool
	}{
		{"acknowledged", `{"result":{"ok":true}}`, true},
		{"explicit false", `{"result":{"ok":false}}`, false},
		{"missing field", `{"result":{}}`, false},
		{"not json", `ok`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			sender := NewHTTPSender(HTTPSenderConfig{URL: srv.URL, AckPath: "$.result.ok"})
			_, err := sender.Send(ctx, request)
			if tt.wantAck && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.wantAck && !errors.Is(err, domainerror.ErrSyncNotAcknowledged) {
				t.Errorf("expected ErrSyncNotAcknowledged, got %v", err)
			}
		})
	}
}

// Package outbox forwards local wallet mutations to the remote store.
package outbox

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/agency-crm/backend/internal/application/adapter"
	"github.com/agency-crm/backend/internal/domain/entity"
	domainerror "github.com/agency-crm/backend/internal/domain/error"
)

// DispatcherConfig holds configuration for the dispatcher.
type DispatcherConfig struct {
	MaxAttempts int
	SendTimeout time.Duration
}

// DefaultDispatcherConfig returns the default dispatcher configuration.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		MaxAttempts: entity.DefaultSyncMaxAttempts,
		SendTimeout: 10 * time.Second,
	}
}

// Dispatcher records each mutation in the outbox and makes one immediate
// delivery attempt in the background. Retries are left to the Worker.
// Without a queue the single attempt is all there is.
//
// Deliveries of one wallet run one after another in Forward order. A job
// whose wallet still has an older undelivered job in the outbox skips the
// immediate attempt and waits for the Worker, which delivers in order.
type Dispatcher struct {
	queue       adapter.SyncQueueRepository
	sender      adapter.SyncSender
	maxAttempts int
	sendTimeout time.Duration
	inFlight    sync.WaitGroup

	mu    sync.Mutex
	lanes map[string]chan struct{}
}

// NewDispatcher creates a new dispatcher. queue may be nil.
// A nil sender turns forwarding off.
func NewDispatcher(queue adapter.SyncQueueRepository, sender adapter.SyncSender, config DispatcherConfig) *Dispatcher {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = entity.DefaultSyncMaxAttempts
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = 10 * time.Second
	}
	return &Dispatcher{
		queue:       queue,
		sender:      sender,
		maxAttempts: config.MaxAttempts,
		sendTimeout: config.SendTimeout,
		lanes:       make(map[string]chan struct{}),
	}
}

// Forward queues the mutation and returns without waiting for the remote store.
func (d *Dispatcher) Forward(ctx context.Context, action entity.SyncAction, bigFishID string, fields map[string]interface{}) {
	if d.sender == nil {
		slog.Debug("Remote sync disabled, skipping mutation", "action", action, "big_fish_id", bigFishID)
		return
	}

	// Delivery outlives the request that triggered it.
	ctx = context.WithoutCancel(ctx)

	job := entity.NewSyncJob(action, bigFishID, fields, d.maxAttempts)
	// The worker leaves the job to the immediate attempt until this passes.
	// If the process dies first, the worker picks it up afterwards.
	job.ScheduledAt = job.CreatedAt.Add(d.sendTimeout)

	queued := false
	if d.queue != nil {
		if err := d.queue.Create(ctx, job); err != nil {
			slog.Error("Failed to record sync job, delivering without retry",
				"job_id", job.ID,
				"action", action,
				"big_fish_id", bigFishID,
				"error", err,
			)
		} else {
			queued = true
		}
	}

	prev, done := d.join(bigFishID)

	d.inFlight.Add(1)
	go func() {
		defer d.inFlight.Done()
		defer d.leave(bigFishID, done)

		if prev != nil {
			<-prev
		}
		d.attempt(ctx, job, queued)
	}()
}

// Wait blocks until every background delivery started by Forward has finished.
func (d *Dispatcher) Wait() {
	d.inFlight.Wait()
}

// join puts a delivery at the back of its wallet's lane. The delivery may
// start once prev is closed and must close done when it ends.
func (d *Dispatcher) join(bigFishID string) (prev, done chan struct{}) {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev = d.lanes[bigFishID]
	done = make(chan struct{})
	d.lanes[bigFishID] = done
	return prev, done
}

func (d *Dispatcher) leave(bigFishID string, done chan struct{}) {
	close(done)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lanes[bigFishID] == done {
		delete(d.lanes, bigFishID)
	}
}

// attempt makes the immediate delivery attempt for a job.
func (d *Dispatcher) attempt(ctx context.Context, job *entity.SyncJob, queued bool) {
	if !queued {
		job.MarkProcessing()
		sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
		defer cancel()
		deliver(sendCtx, d.sender, nil, job)
		return
	}

	if !claimHead(ctx, d.queue, job) {
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()
	deliver(sendCtx, d.sender, d.queue, job)
}

// claimHead claims a queued job for delivery. A job whose wallet has an
// older undelivered job is handed back to the queue, due at once, so the
// worker sends it after the older one.
func claimHead(ctx context.Context, queue adapter.SyncQueueRepository, job *entity.SyncJob) bool {
	logger := slog.With("job_id", job.ID, "big_fish_id", job.BigFishID)

	claimed, err := queue.Claim(ctx, job.ID)
	if err != nil {
		logger.Error("Failed to claim sync job", "error", err)
		return false
	}
	if !claimed {
		return false
	}
	job.MarkProcessing()

	blocked, err := queue.HasUndeliveredBefore(ctx, job)
	if err == nil && !blocked {
		return true
	}
	if err != nil {
		logger.Error("Failed to check earlier sync jobs", "error", err)
	} else {
		logger.Info("Earlier sync job for wallet is still undelivered, waiting for it")
	}

	job.Release()
	if err := queue.Update(ctx, job); err != nil {
		logger.Error("Failed to hand sync job back to the queue", "error", err)
	}
	return false
}

// deliver performs one attempt for a job that is already marked processing
// and records the outcome. A nil queue means the outcome is only logged.
func deliver(ctx context.Context, sender adapter.SyncSender, queue adapter.SyncQueueRepository, job *entity.SyncJob) {
	logger := slog.With(
		"job_id", job.ID,
		"action", job.Action,
		"big_fish_id", job.BigFishID,
		"attempt", job.Attempts+1,
	)

	result, err := sender.Send(ctx, adapter.SyncRequest{
		IdempotencyKey: job.IdempotencyKey(),
		Action:         job.Action,
		BigFishID:      job.BigFishID,
		Body:           job.Body(),
	})
	if err != nil {
		logger.Warn("Remote sync failed", "error", err)
		handleFailure(ctx, queue, job, err)
		return
	}

	job.MarkSent()
	if queue != nil {
		if err := queue.Update(ctx, job); err != nil {
			logger.Error("Failed to mark sync job as sent", "error", err)
			return
		}
	}

	logger.Info("Remote sync delivered", "status_code", result.StatusCode)
}

// handleFailure records a failed attempt.
func handleFailure(ctx context.Context, queue adapter.SyncQueueRepository, job *entity.SyncJob, err error) {
	if queue == nil {
		return
	}

	job.MarkFailed(err, domainerror.IsPermanentSyncError(err))

	if updateErr := queue.Update(ctx, job); updateErr != nil {
		slog.Error("Failed to update sync job after failure",
			"job_id", job.ID,
			"error", updateErr,
		)
	}

	if job.Status == entity.SyncStatusFailed {
		slog.Warn("Sync job permanently failed",
			"job_id", job.ID,
			"attempts", job.Attempts,
			"last_error", job.LastError,
		)
	} else {
		slog.Info("Sync job scheduled for retry",
			"job_id", job.ID,
			"attempts", job.Attempts,
			"scheduled_at", job.ScheduledAt,
		)
	}
}

// Ensure Dispatcher implements adapter.SyncForwarder.
var _ adapter.SyncForwarder = (*Dispatcher)(nil)

package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/agency-crm/backend/internal/application/adapter"
	"github.com/agency-crm/backend/internal/domain/entity"
)

// Worker retries sync jobs left pending in the outbox. It delivers at most
// one job per wallet at a time, oldest first. It also reclaims jobs whose
// delivery never reported back and prunes old sent jobs.
type Worker struct {
	queue         adapter.SyncQueueRepository
	sender        adapter.SyncSender
	pollInterval  time.Duration
	batchSize     int
	sendTimeout   time.Duration
	staleAfter    time.Duration
	retentionDays int
	pruneInterval time.Duration
}

// WorkerConfig holds configuration for the sync worker.
type WorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int
	SendTimeout  time.Duration
	// StaleAfter is how long a job may stay processing before it is handed
	// back to the queue. It is never shorter than twice SendTimeout.
	StaleAfter time.Duration
	// RetentionDays is how long sent jobs are kept. Zero keeps them forever.
	RetentionDays int
	PruneInterval time.Duration
}

// DefaultWorkerConfig returns the default worker configuration.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		PollInterval:  5 * time.Second,
		BatchSize:     10,
		SendTimeout:   10 * time.Second,
		StaleAfter:    time.Minute,
		RetentionDays: 7,
		PruneInterval: time.Hour,
	}
}

// NewWorker creates a new sync worker.
func NewWorker(queue adapter.SyncQueueRepository, sender adapter.SyncSender, config WorkerConfig) *Worker {
	defaults := DefaultWorkerConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = defaults.SendTimeout
	}
	if config.StaleAfter < 2*config.SendTimeout {
		config.StaleAfter = 2 * config.SendTimeout
	}
	if config.RetentionDays < 0 {
		config.RetentionDays = 0
	}
	if config.PruneInterval <= 0 {
		config.PruneInterval = defaults.PruneInterval
	}
	return &Worker{
		queue:         queue,
		sender:        sender,
		pollInterval:  config.PollInterval,
		batchSize:     config.BatchSize,
		sendTimeout:   config.SendTimeout,
		staleAfter:    config.StaleAfter,
		retentionDays: config.RetentionDays,
		pruneInterval: config.PruneInterval,
	}
}

// Start begins the worker loop. It blocks until the context is cancelled.
func (w *Worker) Start(ctx context.Context) {
	slog.Info("Sync worker started",
		"poll_interval", w.pollInterval,
		"batch_size", w.batchSize,
		"retention_days", w.retentionDays,
	)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.drain(ctx)
	w.prune(ctx)
	lastPrune := time.Now()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Sync worker shutting down")
			return
		case <-ticker.C:
			w.drain(ctx)
			if time.Since(lastPrune) >= w.pruneInterval {
				w.prune(ctx)
				lastPrune = time.Now()
			}
		}
	}
}

// drain runs batches while they make progress. Delivering the head job of a
// wallet lets its next job through on the following batch.
func (w *Worker) drain(ctx context.Context) {
	w.releaseStale(ctx)
	for ctx.Err() == nil && w.processBatch(ctx) > 0 {
	}
}

// releaseStale hands back jobs left processing by a delivery that never
// finished, such as one cut short by a crash.
func (w *Worker) releaseStale(ctx context.Context) {
	n, err := w.queue.ReleaseStale(ctx, time.Now().UTC().Add(-w.staleAfter))
	if err != nil {
		slog.Error("Failed to release stale sync jobs", "error", err)
		return
	}
	if n > 0 {
		slog.Warn("Released stale sync jobs", "count", n)
	}
}

// processBatch fetches and delivers a batch of pending jobs.
// It returns how many were delivered.
func (w *Worker) processBatch(ctx context.Context) int {
	jobs, err := w.queue.GetPendingJobs(ctx, w.batchSize)
	if err != nil {
		slog.Error("Failed to get pending sync jobs", "error", err)
		return 0
	}

	if len(jobs) == 0 {
		return 0
	}

	slog.Debug("Processing sync batch", "count", len(jobs))

	delivered := 0
	for _, job := range jobs {
		select {
		case <-ctx.Done():
			return delivered
		default:
			if w.processJob(ctx, job) {
				delivered++
			}
		}
	}
	return delivered
}

// processJob claims and delivers a single job.
func (w *Worker) processJob(ctx context.Context, job *entity.SyncJob) bool {
	if !claimHead(ctx, w.queue, job) {
		return false
	}

	sendCtx, cancel := context.WithTimeout(ctx, w.sendTimeout)
	defer cancel()
	deliver(sendCtx, w.sender, w.queue, job)
	return job.Status == entity.SyncStatusSent
}

// Prune deletes sent jobs older than the retention period.
func (w *Worker) Prune(ctx context.Context) (int64, error) {
	if w.retentionDays == 0 {
		return 0, nil
	}
	return w.queue.DeleteOldSentJobs(ctx, w.retentionDays)
}

func (w *Worker) prune(ctx context.Context) {
	n, err := w.Prune(ctx)
	if err != nil {
		slog.Error("Failed to prune sent sync jobs", "error", err)
		return
	}
	if n > 0 {
		slog.Info("Pruned sent sync jobs", "count", n, "retention_days", w.retentionDays)
	}
}

// ProcessNow processes all due jobs immediately (useful for testing).
func (w *Worker) ProcessNow(ctx context.Context) {
	w.drain(ctx)
}

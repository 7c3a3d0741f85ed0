package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/google/uuid"

	"github.com/agency-crm/backend/config"
	"github.com/agency-crm/backend/internal/application/adapter"
	"github.com/agency-crm/backend/internal/domain/entity"
)

var errNoOutbox = errors.New("the sync outbox needs a database connection")

type outboxCmd struct {
	status string
	limit  int
}

func (*outboxCmd) Name() string     { return "outbox" }
func (*outboxCmd) Synopsis() string { return "list sync jobs by status" }
func (*outboxCmd) Usage() string {
	return `walletctl outbox [-status <pending|processing|sent|failed>] [-limit <n>]

  Lists forwarded mutations waiting in, or finished with, the sync outbox.
`
}

func (c *outboxCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.status, "status", string(entity.SyncStatusFailed), "Job status to list.")
	f.IntVar(&c.limit, "limit", 50, "Maximum number of jobs to list.")
}

func (c *outboxCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	queue, release, err := openQueue(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer release()

	jobs, err := queue.ListByStatus(ctx, entity.SyncStatus(c.status), c.limit)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	printJobs(os.Stdout, jobs)
	return subcommands.ExitSuccess
}

type requeueCmd struct {
	status string
	id     string
	limit  int
}

func (*requeueCmd) Name() string     { return "requeue" }
func (*requeueCmd) Synopsis() string { return "reset sync jobs so the worker retries them" }
func (*requeueCmd) Usage() string {
	return `walletctl requeue [-status <failed|processing>] [-id <job id>] [-limit <n>]

  Resets matching jobs to pending with a fresh attempt budget. Jobs keep their
  id, so the remote store sees the same idempotency key again.
`
}

func (c *requeueCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.status, "status", string(entity.SyncStatusFailed), "Status of the jobs to requeue.")
	f.StringVar(&c.id, "id", "", "Requeue a single job by id.")
	f.IntVar(&c.limit, "limit", 100, "Maximum number of jobs to requeue.")
}

func (c *requeueCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	queue, release, err := openQueue(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer release()

	jobs, err := c.selectJobs(ctx, queue)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	count, err := requeueJobs(ctx, queue, jobs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("requeued %d jobs\n", count)
	return subcommands.ExitSuccess
}

func (c *requeueCmd) selectJobs(ctx context.Context, queue adapter.SyncQueueRepository) ([]*entity.SyncJob, error) {
	if c.id == "" {
		return queue.ListByStatus(ctx, entity.SyncStatus(c.status), c.limit)
	}
	id, err := uuid.Parse(c.id)
	if err != nil {
		return nil, fmt.Errorf("invalid job id: %w", err)
	}
	job, err := queue.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return []*entity.SyncJob{job}, nil
}

// requeueJobs resets every job that has not been delivered.
func requeueJobs(ctx context.Context, queue adapter.SyncQueueRepository, jobs []*entity.SyncJob) (int, error) {
	count := 0
	for _, job := range jobs {
		if job.Status == entity.SyncStatusSent {
			continue
		}
		job.Requeue()
		if err := queue.Update(ctx, job); err != nil {
			return count, fmt.Errorf("failed to requeue job %s: %w", job.ID, err)
		}
		count++
	}
	return count, nil
}

type pruneCmd struct {
	days int
}

func (*pruneCmd) Name() string     { return "prune" }
func (*pruneCmd) Synopsis() string { return "delete delivered sync jobs past the retention period" }
func (*pruneCmd) Usage() string {
	return `walletctl prune [-days <n>]

  Deletes sent jobs delivered more than n days ago. Without -days the
  SYNC_RETENTION_DAYS setting is used. Pending and failed jobs are kept.
`
}

func (c *pruneCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.days, "days", 0, "Retention in days. Defaults to SYNC_RETENTION_DAYS.")
}

func (c *pruneCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	days := c.days
	if days <= 0 {
		days = config.Load().Sync.RetentionDays
	}
	if days <= 0 {
		fmt.Println("retention is turned off, nothing to prune")
		return subcommands.ExitSuccess
	}

	queue, release, err := openQueue(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer release()

	count, err := queue.DeleteOldSentJobs(ctx, days)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("pruned %d jobs older than %d days\n", count, days)
	return subcommands.ExitSuccess
}

func openQueue(ctx context.Context) (adapter.SyncQueueRepository, func(), error) {
	injector, release, err := openInjector(ctx)
	if err != nil {
		return nil, nil, err
	}
	if injector.SyncQueue == nil {
		release()
		return nil, nil, errNoOutbox
	}
	return injector.SyncQueue, release, nil
}

func printJobs(w io.Writer, jobs []*entity.SyncJob) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tACTION\tBIG FISH\tSTATUS\tATTEMPTS\tCREATED\tLAST ERROR")
	for _, job := range jobs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\t%s\t%s\n",
			job.ID, job.Action, job.BigFishID, job.Status,
			job.Attempts, job.MaxAttempts,
			job.CreatedAt.Format("2006-01-02 15:04:05"),
			job.LastError,
		)
	}
	_ = tw.Flush()
}

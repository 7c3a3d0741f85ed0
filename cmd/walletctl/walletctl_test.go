package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/subcommands"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/agency-crm/backend/internal/application/usecase/bigfish"
	"github.com/agency-crm/backend/internal/domain/entity"
	"github.com/agency-crm/backend/internal/domain/ledger"
	"github.com/agency-crm/backend/internal/integration/persistence"
	"github.com/agency-crm/backend/internal/integration/persistence/model"
)

func TestRequeueJobs(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.SyncJobModel{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()
	queue := persistence.NewSyncQueueRepository(db)

	failed := entity.NewSyncJob(entity.SyncActionUpdate, "bf-1", nil, 1)
	failed.MarkFailed(errors.New("remote down"), true)
	sent := entity.NewSyncJob(entity.SyncActionUpdate, "bf-1", nil, 1)
	sent.MarkSent()
	for _, job := range []*entity.SyncJob{failed, sent} {
		if err := queue.Create(ctx, job); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	count, err := requeueJobs(ctx, queue, []*entity.SyncJob{failed, sent})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 requeued job, got %d", count)
	}

	stored, err := queue.GetByID(ctx, failed.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Status != entity.SyncStatusPending || stored.Attempts != 0 {
		t.Errorf("expected pending job with no attempts, got %s/%d", stored.Status, stored.Attempts)
	}

	var out bytes.Buffer
	printJobs(&out, []*entity.SyncJob{stored})
	if !strings.Contains(out.String(), failed.ID.String()) {
		t.Errorf("expected job id in listing, got %q", out.String())
	}
}

func TestPrintDrift(t *testing.T) {
	var out bytes.Buffer
	printDrift(&out, &bigfish.ReconcileWalletsOutput{
		Checked: 2,
		Drifted: []ledger.Drift{{
			WalletID: "bf-1",
			Cached:   ledger.Totals{Balance: decimal.NewFromInt(200)},
			Expected: ledger.Totals{Balance: decimal.RequireFromString("184.5"), SpentAmount: decimal.RequireFromString("15.5")},
		}},
	})

	got := out.String()
	for _, want := range []string{"checked 2 wallets, 1 drifted", "balance 200.00 -> 184.50", "spent 0.00 -> 15.50"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}
}

func TestPruneCmd_RetentionOff(t *testing.T) {
	t.Setenv("SYNC_RETENTION_DAYS", "0")

	cmd := &pruneCmd{}
	if status := cmd.Execute(context.Background(), nil); status != subcommands.ExitSuccess {
		t.Errorf("expected success without touching the queue, got %v", status)
	}
}

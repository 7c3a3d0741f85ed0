package bigfish

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agency-crm/backend/internal/application/adapter"
	"github.com/agency-crm/backend/internal/domain/entity"
	domainerror "github.com/agency-crm/backend/internal/domain/error"
)

// memoryWalletRepository is an in-memory adapter.WalletRepository.
type memoryWalletRepository struct {
	mu      sync.Mutex
	wallets map[string]entity.BigFish
	writes  int
}

func newMemoryWalletRepository() *memoryWalletRepository {
	return &memoryWalletRepository{wallets: make(map[string]entity.BigFish)}
}

func (r *memoryWalletRepository) List(ctx context.Context) ([]entity.BigFish, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.BigFish, 0, len(r.wallets))
	for _, w := range r.wallets {
		out = append(out, w.Clone())
	}
	return out, nil
}

func (r *memoryWalletRepository) GetByID(ctx context.Context, id string) (*entity.BigFish, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[id]
	if !ok {
		return nil, domainerror.NewWalletError(domainerror.ErrCodeWalletNotFound, "not found", domainerror.ErrWalletNotFound)
	}
	c := w.Clone()
	return &c, nil
}

func (r *memoryWalletRepository) Create(ctx context.Context, w *entity.BigFish) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wallets[w.ID] = w.Clone()
	r.writes++
	return nil
}

func (r *memoryWalletRepository) Mutate(ctx context.Context, id string, fn adapter.WalletMutation) (*entity.BigFish, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[id]
	if !ok {
		return nil, domainerror.NewWalletError(domainerror.ErrCodeWalletNotFound, "not found", domainerror.ErrWalletNotFound)
	}
	next, err := fn(w.Clone())
	if err != nil {
		return nil, err
	}
	r.wallets[id] = next
	r.writes++
	c := next.Clone()
	return &c, nil
}

// put stores w as-is, bypassing the reconciler.
func (r *memoryWalletRepository) put(w entity.BigFish) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wallets[w.ID] = w
}

type forwarded struct {
	action    entity.SyncAction
	bigFishID string
	fields    map[string]interface{}
}

// recordingForwarder is an adapter.SyncForwarder that remembers every call.
type recordingForwarder struct {
	mu    sync.Mutex
	calls []forwarded
}

func (f *recordingForwarder) Forward(ctx context.Context, action entity.SyncAction, bigFishID string, fields map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, forwarded{action: action, bigFishID: bigFishID, fields: fields})
}

func (f *recordingForwarder) last(t *testing.T) forwarded {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatal("expected a forwarded mutation")
	}
	return f.calls[len(f.calls)-1]
}

func (f *recordingForwarder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type stubSummarizer struct {
	available bool
	summary   string
	err       error
}

func (s *stubSummarizer) Summarize(ctx context.Context, request *adapter.ReportSummaryRequest) (string, error) {
	return s.summary, s.err
}

func (s *stubSummarizer) IsAvailable() bool { return s.available }

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T { return &v }

type fixture struct {
	repo      *memoryWalletRepository
	forwarder *recordingForwarder
	walletID  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{repo: newMemoryWalletRepository(), forwarder: &recordingForwarder{}}
	out, err := NewCreateBigFishUseCase(f.repo, f.forwarder).Execute(context.Background(), CreateBigFishInput{
		Name:        "Acme",
		Company:     "Acme Ltd",
		TargetSales: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.walletID = out.Wallet.ID
	return f
}

func (f *fixture) add(t *testing.T, txType entity.TransactionType, amount string, meta *entity.CampaignMetadata) *AddTransactionOutput {
	t.Helper()
	out, err := NewAddTransactionUseCase(f.repo, f.forwarder).Execute(context.Background(), AddTransactionInput{
		BigFishID: f.walletID,
		Type:      txType,
		Amount:    dec(amount),
		Metadata:  meta,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return out
}

func assertWallet(t *testing.T, w *entity.BigFish, balance, spent string, sales int) {
	t.Helper()
	if !w.Balance.Equal(dec(balance)) || !w.SpentAmount.Equal(dec(spent)) || w.CurrentSales != sales {
		t.Errorf("expected %s/%s/%d, got %s/%s/%d", balance, spent, sales, w.Balance, w.SpentAmount, w.CurrentSales)
	}
}

func TestWalletUseCases_Scenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.add(t, entity.TransactionTypeDeposit, "200", nil)
	first := f.add(t, entity.TransactionTypeAdSpend, "15.50", nil)
	assertWallet(t, first.Wallet, "184.50", "15.50", 0)

	second := f.add(t, entity.TransactionTypeAdSpend, "50", &entity.CampaignMetadata{Leads: 3, ResultType: entity.ResultTypeSales})
	assertWallet(t, second.Wallet, "134.50", "65.50", 3)

	deleted, err := NewDeleteTransactionUseCase(f.repo, f.forwarder).Execute(ctx, DeleteTransactionInput{
		BigFishID:     f.walletID,
		TransactionID: second.Transaction.ID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertWallet(t, deleted.Wallet, "184.50", "15.50", 0)

	edited, err := NewUpdateTransactionUseCase(f.repo, f.forwarder).Execute(ctx, UpdateTransactionInput{
		BigFishID:     f.walletID,
		TransactionID: first.Transaction.ID,
		Amount:        ptr(dec("20")),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !edited.TransactionFound {
		t.Fatal("expected the transaction to be found")
	}
	assertWallet(t, edited.Wallet, "164.50", "20", 0)

	call := f.forwarder.last(t)
	if call.action != entity.SyncActionUpdateTransaction || call.fields["transaction_id"] != first.Transaction.ID {
		t.Errorf("unexpected forwarded mutation %+v", call)
	}
	if call.fields["balance"] != 164.5 || call.fields["amount"] != float64(20) {
		t.Errorf("expected numeric fields, got %+v", call.fields)
	}
}

func TestAddTransactionUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("forwards the transaction with new aggregates", func(t *testing.T) {
		f := newFixture(t)
		out := f.add(t, entity.TransactionTypeDeposit, "200", nil)

		call := f.forwarder.last(t)
		if call.action != entity.SyncActionAddTransaction || call.bigFishID != f.walletID {
			t.Fatalf("unexpected forwarded mutation %+v", call)
		}
		if call.fields["id"] != out.Transaction.ID || call.fields["type"] != "DEPOSIT" || call.fields["balance"] != float64(200) {
			t.Errorf("unexpected fields %+v", call.fields)
		}
	})

	tests := []struct {
		name     string
		input    AddTransactionInput
		wantCode domainerror.WalletErrorCode
	}{
		{
			name:     "zero amount",
			input:    AddTransactionInput{Type: entity.TransactionTypeDeposit, Amount: decimal.Zero},
			wantCode: domainerror.ErrCodeInvalidAmount,
		},
		{
			name:     "negative amount",
			input:    AddTransactionInput{Type: entity.TransactionTypeDeduct, Amount: dec("-5")},
			wantCode: domainerror.ErrCodeInvalidAmount,
		},
		{
			name:     "sub-cent amount",
			input:    AddTransactionInput{Type: entity.TransactionTypeDeposit, Amount: dec("1.005")},
			wantCode: domainerror.ErrCodeInvalidAmount,
		},
		{
			name:     "unknown type",
			input:    AddTransactionInput{Type: "REFUND", Amount: dec("5")},
			wantCode: domainerror.ErrCodeInvalidTransactionType,
		},
		{
			name:     "foreign currency",
			input:    AddTransactionInput{Type: entity.TransactionTypeDeposit, Amount: dec("5"), Currency: "EUR"},
			wantCode: domainerror.ErrCodeUnsupportedCurrency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			before := f.forwarder.count()
			tt.input.BigFishID = f.walletID

			_, err := NewAddTransactionUseCase(f.repo, f.forwarder).Execute(ctx, tt.input)

			var walletErr *domainerror.WalletError
			if !errors.As(err, &walletErr) || walletErr.Code != tt.wantCode {
				t.Fatalf("expected %s, got %v", tt.wantCode, err)
			}
			if f.forwarder.count() != before {
				t.Error("rejected transaction must not be forwarded")
			}
		})
	}

	t.Run("duplicate id is rejected", func(t *testing.T) {
		f := newFixture(t)
		uc := NewAddTransactionUseCase(f.repo, f.forwarder)
		input := AddTransactionInput{BigFishID: f.walletID, ID: "tx-1", Type: entity.TransactionTypeDeposit, Amount: dec("10")}
		if _, err := uc.Execute(ctx, input); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, err := uc.Execute(ctx, input)
		if !errors.Is(err, domainerror.ErrDuplicateTransaction) {
			t.Fatalf("expected ErrDuplicateTransaction, got %v", err)
		}
		w, _ := f.repo.GetByID(ctx, f.walletID)
		assertWallet(t, w, "10", "0", 0)
	})

	t.Run("unknown wallet", func(t *testing.T) {
		f := newFixture(t)
		_, err := NewAddTransactionUseCase(f.repo, f.forwarder).Execute(ctx, AddTransactionInput{
			BigFishID: "missing",
			Type:      entity.TransactionTypeDeposit,
			Amount:    dec("10"),
		})
		if !errors.Is(err, domainerror.ErrWalletNotFound) {
			t.Errorf("expected ErrWalletNotFound, got %v", err)
		}
	})
}

func TestUnknownTransaction_IsANoOp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.add(t, entity.TransactionTypeDeposit, "100", nil)
	writes, calls := f.repo.writes, f.forwarder.count()

	deleted, err := NewDeleteTransactionUseCase(f.repo, f.forwarder).Execute(ctx, DeleteTransactionInput{
		BigFishID:     f.walletID,
		TransactionID: "missing",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted.TransactionFound {
		t.Error("expected TransactionFound to be false")
	}
	assertWallet(t, deleted.Wallet, "100", "0", 0)

	edited, err := NewUpdateTransactionUseCase(f.repo, f.forwarder).Execute(ctx, UpdateTransactionInput{
		BigFishID:     f.walletID,
		TransactionID: "missing",
		Amount:        ptr(dec("5")),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if edited.TransactionFound {
		t.Error("expected TransactionFound to be false")
	}

	if f.repo.writes != writes {
		t.Errorf("expected no writes, got %d", f.repo.writes-writes)
	}
	if f.forwarder.count() != calls {
		t.Error("expected no forwarded mutations")
	}

	_, err = NewDeleteTransactionUseCase(f.repo, f.forwarder).Execute(ctx, DeleteTransactionInput{
		BigFishID:     "missing",
		TransactionID: "missing",
	})
	if !errors.Is(err, domainerror.ErrWalletNotFound) {
		t.Errorf("expected ErrWalletNotFound for an unknown wallet, got %v", err)
	}
}

func TestUpdateTransactionUseCase_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tx := f.add(t, entity.TransactionTypeDeposit, "100", nil).Transaction
	uc := NewUpdateTransactionUseCase(f.repo, f.forwarder)

	_, err := uc.Execute(ctx, UpdateTransactionInput{BigFishID: f.walletID, TransactionID: tx.ID})
	var walletErr *domainerror.WalletError
	if !errors.As(err, &walletErr) || walletErr.Code != domainerror.ErrCodeMissingWalletFields {
		t.Errorf("expected missing fields error, got %v", err)
	}

	_, err = uc.Execute(ctx, UpdateTransactionInput{BigFishID: f.walletID, TransactionID: tx.ID, Amount: ptr(decimal.Zero)})
	if !errors.Is(err, domainerror.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}

	when := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	out, err := uc.Execute(ctx, UpdateTransactionInput{
		BigFishID:     f.walletID,
		TransactionID: tx.ID,
		Date:          &when,
		Description:   ptr("backdated"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Transaction.Date.Equal(when) || out.Transaction.Description != "backdated" || out.Transaction.Type != entity.TransactionTypeDeposit {
		t.Errorf("unexpected transaction %+v", out.Transaction)
	}
	assertWallet(t, out.Wallet, "100", "0", 0)
}

func TestToggleStatusAndPortalConfig(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	toggled, err := NewToggleStatusUseCase(f.repo, f.forwarder).Execute(ctx, ToggleStatusInput{BigFishID: f.walletID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toggled.Wallet.Status != entity.BigFishStatusHallOfFame {
		t.Errorf("expected Hall of Fame, got %s", toggled.Wallet.Status)
	}
	if call := f.forwarder.last(t); call.action != entity.SyncActionUpdate || call.fields["status"] != "Hall of Fame" {
		t.Errorf("unexpected forwarded mutation %+v", call)
	}

	updated, err := NewUpdatePortalConfigUseCase(f.repo, f.forwarder).Execute(ctx, UpdatePortalConfigInput{
		BigFishID:   f.walletID,
		ShowBalance: ptr(false),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := entity.PortalConfig{ShowBalance: false, ShowHistory: true, IsSuspended: false}
	if updated.Wallet.PortalConfig != want {
		t.Errorf("expected %+v, got %+v", want, updated.Wallet.PortalConfig)
	}

	_, err = NewToggleStatusUseCase(f.repo, f.forwarder).Execute(ctx, ToggleStatusInput{BigFishID: "missing"})
	if !errors.Is(err, domainerror.ErrWalletNotFound) {
		t.Errorf("expected ErrWalletNotFound, got %v", err)
	}
}

func TestUpdateBigFishUseCase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	uc := NewUpdateBigFishUseCase(f.repo, f.forwarder)

	out, err := uc.Execute(ctx, UpdateBigFishInput{BigFishID: f.walletID, TargetSales: ptr(20), Notes: ptr("VIP")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Wallet.TargetSales != 20 || out.Wallet.Notes != "VIP" || out.Wallet.Name != "Acme" {
		t.Errorf("unexpected wallet %+v", out.Wallet)
	}

	_, err = uc.Execute(ctx, UpdateBigFishInput{BigFishID: f.walletID, Status: ptr(entity.BigFishStatus("Closed"))})
	if !errors.Is(err, domainerror.ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestGrowthTasks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	added, err := NewAddGrowthTaskUseCase(f.repo, f.forwarder).Execute(ctx, AddGrowthTaskInput{
		BigFishID: f.walletID,
		Title:     "Launch retargeting",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	toggled, err := NewToggleGrowthTaskUseCase(f.repo, f.forwarder).Execute(ctx, ToggleGrowthTaskInput{
		BigFishID: f.walletID,
		TaskID:    added.Task.ID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !toggled.Task.Completed {
		t.Error("expected task to be completed")
	}

	_, err = NewDeleteGrowthTaskUseCase(f.repo, f.forwarder).Execute(ctx, DeleteGrowthTaskInput{
		BigFishID: f.walletID,
		TaskID:    "missing",
	})
	if !errors.Is(err, domainerror.ErrGrowthTaskNotFound) {
		t.Errorf("expected ErrGrowthTaskNotFound, got %v", err)
	}

	deleted, err := NewDeleteGrowthTaskUseCase(f.repo, f.forwarder).Execute(ctx, DeleteGrowthTaskInput{
		BigFishID: f.walletID,
		TaskID:    added.Task.ID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deleted.Wallet.GrowthTasks) != 0 {
		t.Errorf("expected no tasks, got %d", len(deleted.Wallet.GrowthTasks))
	}

	_, err = NewAddGrowthTaskUseCase(f.repo, f.forwarder).Execute(ctx, AddGrowthTaskInput{BigFishID: f.walletID, Title: "  "})
	if err == nil {
		t.Error("expected an error for an empty title")
	}
}

func TestGenerateReportUseCase(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) *fixture {
		f := newFixture(t)
		f.add(t, entity.TransactionTypeDeposit, "500", nil)
		f.add(t, entity.TransactionTypeAdSpend, "100", &entity.CampaignMetadata{
			Impressions: 10000, Reach: 4000, Leads: 5, ResultType: entity.ResultTypeSales, ROAS: dec("2.5"),
		})
		f.add(t, entity.TransactionTypeAdSpend, "50", &entity.CampaignMetadata{
			Impressions: 2000, Reach: 1000, Leads: 7, ResultType: entity.ResultTypeMessages, ROAS: dec("1.5"),
		})
		return f
	}

	t.Run("template summary without AI", func(t *testing.T) {
		f := setup(t)
		out, err := NewGenerateReportUseCase(f.repo, f.forwarder, nil).Execute(ctx, GenerateReportInput{BigFishID: f.walletID})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		r := out.Report
		if r.Campaigns != 2 || !r.Spend.Equal(dec("150")) || r.Impressions != 12000 || r.Reach != 5000 {
			t.Errorf("unexpected totals %+v", r)
		}
		if r.Leads != 12 || r.Sales != 5 || !r.AverageROAS.Equal(dec("2")) {
			t.Errorf("unexpected results leads=%d sales=%d roas=%s", r.Leads, r.Sales, r.AverageROAS)
		}
		if r.GeneratedBy != reportGeneratedBySystem || r.Summary == "" {
			t.Errorf("expected template summary, got %q by %s", r.Summary, r.GeneratedBy)
		}
		if len(out.Wallet.Reports) != 1 {
			t.Errorf("expected report to be stored, got %d", len(out.Wallet.Reports))
		}
	})

	t.Run("AI summary", func(t *testing.T) {
		f := setup(t)
		ai := &stubSummarizer{available: true, summary: "Great month."}
		out, err := NewGenerateReportUseCase(f.repo, f.forwarder, ai).Execute(ctx, GenerateReportInput{BigFishID: f.walletID})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Report.Summary != "Great month." || out.Report.GeneratedBy != reportGeneratedByAI {
			t.Errorf("unexpected summary %q by %s", out.Report.Summary, out.Report.GeneratedBy)
		}
	})

	t.Run("AI failure falls back", func(t *testing.T) {
		f := setup(t)
		ai := &stubSummarizer{available: true, err: errors.New("quota")}
		out, err := NewGenerateReportUseCase(f.repo, f.forwarder, ai).Execute(ctx, GenerateReportInput{BigFishID: f.walletID})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Report.GeneratedBy != reportGeneratedBySystem {
			t.Errorf("expected fallback, got %s", out.Report.GeneratedBy)
		}
	})

	t.Run("inverted period", func(t *testing.T) {
		f := setup(t)
		now := time.Now()
		_, err := NewGenerateReportUseCase(f.repo, f.forwarder, nil).Execute(ctx, GenerateReportInput{
			BigFishID:   f.walletID,
			PeriodStart: now,
			PeriodEnd:   now.Add(-time.Hour),
		})
		if !errors.Is(err, domainerror.ErrInvalidTransactionDate) {
			t.Errorf("expected ErrInvalidTransactionDate, got %v", err)
		}
	})
}

func TestGetPortalViewUseCase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.add(t, entity.TransactionTypeDeposit, "200", nil)
	f.add(t, entity.TransactionTypeAdSpend, "40", &entity.CampaignMetadata{Leads: 3, ResultType: entity.ResultTypeSales})
	if _, err := NewGenerateReportUseCase(f.repo, f.forwarder, nil).Execute(ctx, GenerateReportInput{BigFishID: f.walletID}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	uc := NewGetPortalViewUseCase(f.repo)

	view, err := uc.Execute(ctx, GetPortalViewInput{BigFishID: f.walletID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Balance == nil || !view.Balance.Equal(dec("160")) || len(view.Transactions) != 2 {
		t.Errorf("expected balance and history, got %+v", view)
	}
	if view.SpendHidden || len(view.Reports) != 1 || !view.Reports[0].Spend.Equal(dec("40")) {
		t.Errorf("expected report spend to be shown, got %+v", view.Reports)
	}

	_, _ = NewUpdatePortalConfigUseCase(f.repo, f.forwarder).Execute(ctx, UpdatePortalConfigInput{
		BigFishID:   f.walletID,
		ShowBalance: ptr(false),
		ShowHistory: ptr(false),
	})
	view, err = uc.Execute(ctx, GetPortalViewInput{BigFishID: f.walletID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Balance != nil || view.Transactions != nil {
		t.Errorf("expected balance and history hidden, got %+v", view)
	}
	if !view.SpendHidden || len(view.Reports) != 1 {
		t.Fatalf("expected report spend hidden on 1 report, got %+v", view)
	}
	if r := view.Reports[0]; !r.Spend.IsZero() || r.Summary != "" || r.Leads != 3 {
		t.Errorf("expected report without spend or summary but with results, got %+v", r)
	}
	stored, _ := f.repo.GetByID(ctx, f.walletID)
	if !stored.Reports[0].Spend.Equal(dec("40")) {
		t.Errorf("expected stored report spend to be untouched, got %s", stored.Reports[0].Spend)
	}

	_, _ = NewUpdatePortalConfigUseCase(f.repo, f.forwarder).Execute(ctx, UpdatePortalConfigInput{
		BigFishID:   f.walletID,
		IsSuspended: ptr(true),
	})
	_, err = uc.Execute(ctx, GetPortalViewInput{BigFishID: f.walletID})
	if !errors.Is(err, domainerror.ErrPortalSuspended) {
		t.Errorf("expected ErrPortalSuspended, got %v", err)
	}
}

func TestReconcileWalletsUseCase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.add(t, entity.TransactionTypeDeposit, "200", nil)

	w, _ := f.repo.GetByID(ctx, f.walletID)
	w.Balance = dec("999")
	f.repo.put(*w)

	uc := NewReconcileWalletsUseCase(f.repo)
	out, err := uc.Execute(ctx, ReconcileWalletsInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Checked != 1 || len(out.Drifted) != 1 || out.Repaired {
		t.Fatalf("unexpected output %+v", out)
	}

	out, err = uc.Execute(ctx, ReconcileWalletsInput{Repair: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Repaired {
		t.Error("expected repair")
	}
	w, _ = f.repo.GetByID(ctx, f.walletID)
	assertWallet(t, w, "200", "0", 0)
}

func TestCreateBigFishUseCase(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryWalletRepository()
	fwd := &recordingForwarder{}
	uc := NewCreateBigFishUseCase(repo, fwd)

	_, err := uc.Execute(ctx, CreateBigFishInput{Name: " "})
	var walletErr *domainerror.WalletError
	if !errors.As(err, &walletErr) || walletErr.Code != domainerror.ErrCodeMissingWalletFields {
		t.Errorf("expected missing fields error, got %v", err)
	}

	out, err := uc.Execute(ctx, CreateBigFishInput{Name: "Acme", LeadID: "lead-7", InitialDeposit: ptr(dec("250"))})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertWallet(t, out.Wallet, "250", "0", 0)
	if out.Wallet.PortalConfig != entity.DefaultPortalConfig() || out.Wallet.Status != entity.BigFishStatusActive {
		t.Errorf("unexpected defaults %+v", out.Wallet)
	}

	call := fwd.last(t)
	if call.action != entity.SyncActionCreate || call.fields["lead_id"] != "lead-7" || call.fields["balance"] != float64(250) {
		t.Errorf("unexpected forwarded mutation %+v", call)
	}
}

package bigfish

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agency-crm/backend/internal/application/adapter"
	"github.com/agency-crm/backend/internal/domain/entity"
	domainerror "github.com/agency-crm/backend/internal/domain/error"
	"github.com/agency-crm/backend/internal/domain/ledger"
	"github.com/agency-crm/backend/internal/domain/valueobject"
)

const (
	reportGeneratedByAI     = "ai"
	reportGeneratedBySystem = "system"
)

// GenerateReportInput represents the input for building a campaign report.
// Zero bounds are open.
type GenerateReportInput struct {
	BigFishID   string
	Title       string
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// GenerateReportOutput represents the output of building a campaign report.
type GenerateReportOutput struct {
	Wallet *entity.BigFish
	Report entity.CampaignReport
}

// GenerateReportUseCase aggregates ad spend into a stored campaign report.
type GenerateReportUseCase struct {
	walletRepo adapter.WalletRepository
	forwarder  adapter.SyncForwarder
	summarizer adapter.ReportSummarizer
}

// NewGenerateReportUseCase creates a new GenerateReportUseCase instance.
// summarizer may be nil.
func NewGenerateReportUseCase(
	walletRepo adapter.WalletRepository,
	forwarder adapter.SyncForwarder,
	summarizer adapter.ReportSummarizer,
) *GenerateReportUseCase {
	return &GenerateReportUseCase{
		walletRepo: walletRepo,
		forwarder:  forwarder,
		summarizer: summarizer,
	}
}

// Execute builds the report, stores it on the wallet and forwards it as an update.
func (uc *GenerateReportUseCase) Execute(ctx context.Context, input GenerateReportInput) (*GenerateReportOutput, error) {
	if !input.PeriodStart.IsZero() && !input.PeriodEnd.IsZero() && input.PeriodEnd.Before(input.PeriodStart) {
		return nil, domainerror.NewWalletError(
			domainerror.ErrCodeInvalidTransactionDate,
			"period end must not be before period start",
			domainerror.ErrInvalidTransactionDate,
		)
	}

	current, err := uc.walletRepo.GetByID(ctx, input.BigFishID)
	if err != nil {
		return nil, err
	}

	totals := ledger.SummarizeCampaigns(current.Transactions, input.PeriodStart, input.PeriodEnd)
	report := entity.CampaignReport{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(input.Title),
		PeriodStart: input.PeriodStart,
		PeriodEnd:   input.PeriodEnd,
		Spend:       totals.Spend,
		Impressions: totals.Impressions,
		Reach:       totals.Reach,
		Leads:       totals.Leads,
		Sales:       totals.Sales,
		AverageROAS: totals.AverageROAS,
		Campaigns:   totals.Campaigns,
		CreatedAt:   time.Now().UTC(),
	}
	if report.Title == "" {
		report.Title = "Campaign report for " + current.Name
	}

	report.Summary, report.GeneratedBy = uc.summarize(ctx, current.Name, report)

	wallet, err := uc.walletRepo.Mutate(ctx, input.BigFishID, func(w entity.BigFish) (entity.BigFish, error) {
		w.Reports = append(w.Reports, report)
		return w, nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Campaign report generated",
		"big_fish_id", wallet.ID,
		"report_id", report.ID,
		"campaigns", report.Campaigns,
		"generated_by", report.GeneratedBy,
	)

	uc.forwarder.Forward(ctx, entity.SyncActionUpdate, wallet.ID, map[string]interface{}{
		"report": reportFields(report),
	})

	return &GenerateReportOutput{Wallet: wallet, Report: report}, nil
}

// summarize asks the AI service for a summary and falls back to a fixed template.
func (uc *GenerateReportUseCase) summarize(ctx context.Context, clientName string, report entity.CampaignReport) (string, string) {
	if uc.summarizer != nil && uc.summarizer.IsAvailable() && report.Campaigns > 0 {
		summary, err := uc.summarizer.Summarize(ctx, &adapter.ReportSummaryRequest{
			ClientName: clientName,
			Report:     report,
			Currency:   valueobject.LedgerCurrency,
		})
		if err == nil && strings.TrimSpace(summary) != "" {
			return strings.TrimSpace(summary), reportGeneratedByAI
		}
		slog.Warn("AI report summary failed, using template",
			"report_id", report.ID,
			"error", err,
		)
	}
	return templateSummary(report), reportGeneratedBySystem
}

func templateSummary(r entity.CampaignReport) string {
	if r.Campaigns == 0 {
		return "No ad spend was recorded in this period."
	}
	summary := fmt.Sprintf(
		"%d campaign(s) spent %s, reaching %d people across %d impressions and producing %d lead(s), %d of them sales.",
		r.Campaigns,
		valueobject.NewMoney(r.Spend).String(),
		r.Reach,
		r.Impressions,
		r.Leads,
		r.Sales,
	)
	if r.AverageROAS.IsPositive() {
		summary += fmt.Sprintf(" Average ROAS was %sx.", r.AverageROAS.StringFixed(2))
	}
	return summary
}

func reportFields(r entity.CampaignReport) map[string]interface{} {
	fields := map[string]interface{}{
		"id":           r.ID,
		"title":        r.Title,
		"spend":        r.Spend.InexactFloat64(),
		"impressions":  r.Impressions,
		"reach":        r.Reach,
		"leads":        r.Leads,
		"sales":        r.Sales,
		"average_roas": r.AverageROAS.InexactFloat64(),
		"campaigns":    r.Campaigns,
		"summary":      r.Summary,
		"generated_by": r.GeneratedBy,
	}
	if !r.PeriodStart.IsZero() {
		fields["period_start"] = r.PeriodStart.UTC().Format(time.RFC3339)
	}
	if !r.PeriodEnd.IsZero() {
		fields["period_end"] = r.PeriodEnd.UTC().Format(time.RFC3339)
	}
	return fields
}

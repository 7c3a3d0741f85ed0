package adapter

import (
	"context"

	"github.com/agency-crm/backend/internal/domain/entity"
)

// ReportSummaryRequest carries the aggregated campaign results to summarise.
type ReportSummaryRequest struct {
	ClientName string
	Report     entity.CampaignReport
	Currency   string
}

// ReportSummarizer writes the narrative summary of a campaign report.
type ReportSummarizer interface {
	// Summarize returns a short client-facing summary of the report.
	Summarize(ctx context.Context, request *ReportSummaryRequest) (string, error)

	// IsAvailable checks if the service is available and properly configured.
	IsAvailable() bool
}

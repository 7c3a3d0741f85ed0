package adapters

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/agency-crm/backend/internal/application/adapter"
	"github.com/agency-crm/backend/internal/domain/valueobject"
)

const defaultGeminiModel = "gemini-2.5-flash-lite"

// GeminiService implements the adapter.ReportSummarizer interface using Google Gemini.
type GeminiService struct {
	apiKey    string
	modelName string
}

// NewGeminiService creates a new Gemini service instance.
func NewGeminiService(apiKey, modelName string) *GeminiService {
	if modelName == "" {
		modelName = defaultGeminiModel
	}
	return &GeminiService{
		apiKey:    apiKey,
		modelName: modelName,
	}
}

// IsAvailable checks if the Gemini service is available and properly configured.
func (s *GeminiService) IsAvailable() bool {
	return s.apiKey != ""
}

// Summarize writes a short client-facing summary of a campaign report.
func (s *GeminiService) Summarize(ctx context.Context, request *adapter.ReportSummaryRequest) (string, error) {
	if !s.IsAvailable() {
		return "", fmt.Errorf("gemini service is not configured")
	}

	// Create client
	client, err := genai.NewClient(ctx, option.WithAPIKey(s.apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(s.modelName)
	model.SetTemperature(0.4)

	resp, err := model.GenerateContent(ctx, genai.Text(buildReportPrompt(request)))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return parseSummary(resp)
}

// buildReportPrompt creates the prompt for Gemini.
func buildReportPrompt(request *adapter.ReportSummaryRequest) string {
	r := request.Report
	var sb strings.Builder

	sb.WriteString(`You are an account manager at a digital marketing agency writing to a client about their ad campaigns.
Write a short summary (3 to 5 sentences, plain text, no markdown, no greeting) of the results below.
Mention total spend, reach and leads. If sales are recorded, call them out. If ROAS is present, say whether it is healthy (above 2x is good).
Do not invent figures that are not listed.

`)
	sb.WriteString(fmt.Sprintf("Client: %s\n", request.ClientName))
	sb.WriteString(fmt.Sprintf("Report: %s\n", r.Title))
	if !r.PeriodStart.IsZero() || !r.PeriodEnd.IsZero() {
		sb.WriteString(fmt.Sprintf("Period: %s to %s\n", formatPeriodBound(r.PeriodStart), formatPeriodBound(r.PeriodEnd)))
	}
	sb.WriteString(fmt.Sprintf("Campaigns: %d\n", r.Campaigns))
	sb.WriteString(fmt.Sprintf("Spend: %s (%s)\n", valueobject.NewMoney(r.Spend).String(), request.Currency))
	sb.WriteString(fmt.Sprintf("Impressions: %d\n", r.Impressions))
	sb.WriteString(fmt.Sprintf("Reach: %d\n", r.Reach))
	sb.WriteString(fmt.Sprintf("Leads: %d\n", r.Leads))
	sb.WriteString(fmt.Sprintf("Sales: %d\n", r.Sales))
	if r.AverageROAS.IsPositive() {
		sb.WriteString(fmt.Sprintf("Average ROAS: %sx\n", r.AverageROAS.StringFixed(2)))
	}

	return sb.String()
}

func formatPeriodBound(t time.Time) string {
	if t.IsZero() {
		return "open"
	}
	return t.Format("2006-01-02")
}

// parseSummary extracts the text content from the response.
func parseSummary(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from gemini")
	}

	var textContent string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			textContent = string(text)
			break
		}
	}

	// Clean the response (remove markdown code blocks if present)
	textContent = strings.TrimPrefix(textContent, "```text")
	textContent = strings.TrimPrefix(textContent, "```")
	textContent = strings.TrimSuffix(textContent, "```")
	textContent = strings.TrimSpace(textContent)

	if textContent == "" {
		return "", fmt.Errorf("no text content in response")
	}
	return textContent, nil
}

var _ adapter.ReportSummarizer = (*GeminiService)(nil)

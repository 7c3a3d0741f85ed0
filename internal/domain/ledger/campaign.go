package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/agency-crm/backend/internal/domain/entity"
)

// CampaignTotals aggregates the ad spend recorded in a period.
type CampaignTotals struct {
	Campaigns   int
	Spend       decimal.Decimal
	Impressions int64
	Reach       int64
	Leads       int
	Sales       int
	// AverageROAS is the mean over campaigns that reported a ROAS.
	AverageROAS decimal.Decimal
}

// SummarizeCampaigns folds the AD_SPEND transactions dated within [from, to].
// A zero bound is open.
func SummarizeCampaigns(transactions []entity.Transaction, from, to time.Time) CampaignTotals {
	t := CampaignTotals{Spend: decimal.Zero, AverageROAS: decimal.Zero}
	roasSum := decimal.Zero
	roasCount := 0

	for _, tx := range transactions {
		if tx.Type != entity.TransactionTypeAdSpend {
			continue
		}
		if !from.IsZero() && tx.Date.Before(from) {
			continue
		}
		if !to.IsZero() && tx.Date.After(to) {
			continue
		}

		t.Campaigns++
		t.Spend = t.Spend.Add(tx.Amount)
		t.Sales += tx.SalesLeads()
		if m := tx.Metadata; m != nil {
			t.Impressions += m.Impressions
			t.Reach += m.Reach
			t.Leads += m.Leads
			if m.ROAS.IsPositive() {
				roasSum = roasSum.Add(m.ROAS)
				roasCount++
			}
		}
	}

	if roasCount > 0 {
		t.AverageROAS = roasSum.Div(decimal.NewFromInt(int64(roasCount))).Round(2)
	}
	return t
}

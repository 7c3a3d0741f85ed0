package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agency-crm/backend/internal/domain/entity"
)

func TestDecodeSnapshot_NormalisesStoredValues(t *testing.T) {
	raw := `[{
		"id": 1712345678901,
		"lead_id": "lead-9",
		"name": "Acme Bakery",
		"status": "Hall of Fame",
		"balance": "184.50",
		"spent_amount": 15.5,
		"target_sales": "10",
		"current_sales": "0",
		"portal_config": "{\"show_balance\": false}",
		"transactions": [
			{"id": 1, "date": "2024-03-01", "type": "DEPOSIT", "amount": "200", "description": "top up"},
			{"id": "t2", "date": "2024-03-02T10:00:00Z", "type": "AD_SPEND", "amount": 15.5,
			 "metadata": {"impressions": "1000", "reach": 800, "leads": "0", "resultType": "MESSAGES", "roas": ""}}
		]
	}]`

	snap, err := DecodeSnapshot([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wallets := snap.Wallets()
	if len(wallets) != 1 {
		t.Fatalf("expected 1 wallet, got %d", len(wallets))
	}
	w := wallets[0]

	if w.ID != "1712345678901" {
		t.Errorf("expected numeric id to be read as string, got %q", w.ID)
	}
	if w.Status != entity.BigFishStatusHallOfFame {
		t.Errorf("expected status Hall of Fame, got %q", w.Status)
	}
	if !w.Balance.Equal(decimal.RequireFromString("184.5")) {
		t.Errorf("expected balance 184.50, got %s", w.Balance)
	}
	if !w.SpentAmount.Equal(decimal.RequireFromString("15.5")) {
		t.Errorf("expected spent_amount 15.5, got %s", w.SpentAmount)
	}
	if w.TargetSales != 10 {
		t.Errorf("expected target_sales 10, got %d", w.TargetSales)
	}
	if w.PortalConfig != (entity.PortalConfig{ShowBalance: false, ShowHistory: true, IsSuspended: false}) {
		t.Errorf("unexpected portal config %+v", w.PortalConfig)
	}
	if len(w.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(w.Transactions))
	}
	if w.Transactions[0].ID != "1" {
		t.Errorf("expected transaction id %q, got %q", "1", w.Transactions[0].ID)
	}
	if !w.Transactions[0].Date.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected date %s", w.Transactions[0].Date)
	}
	meta := w.Transactions[1].Metadata
	if meta == nil || meta.Impressions != 1000 || meta.Reach != 800 || meta.ResultType != entity.ResultTypeMessages {
		t.Errorf("unexpected metadata %+v", meta)
	}
}

func TestParsePortalConfig(t *testing.T) {
	defaults := entity.DefaultPortalConfig()

	tests := []struct {
		name     string
		raw      string
		expected entity.PortalConfig
	}{
		{name: "absent", raw: ``, expected: defaults},
		{name: "null", raw: `null`, expected: defaults},
		{name: "object", raw: `{"show_balance":false,"show_history":false,"is_suspended":true}`, expected: entity.PortalConfig{IsSuspended: true}},
		{name: "partial object", raw: `{"is_suspended":true}`, expected: entity.PortalConfig{ShowBalance: true, ShowHistory: true, IsSuspended: true}},
		{name: "encoded string", raw: `"{\"show_history\":false}"`, expected: entity.PortalConfig{ShowBalance: true, ShowHistory: false}},
		{name: "empty string", raw: `""`, expected: defaults},
		{name: "garbage string", raw: `"not json"`, expected: defaults},
		{name: "wrong shape", raw: `[1,2,3]`, expected: defaults},
		{name: "wrong field type", raw: `{"show_balance":"yes"}`, expected: defaults},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePortalConfig(json.RawMessage(tt.raw))
			if got != tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestDecodeSnapshot_RebuildsUntrustedAggregates(t *testing.T) {
	raw := `[{
		"id": "w1",
		"name": "Beta",
		"balance": "abc",
		"spent_amount": 0,
		"current_sales": 0,
		"transactions": [
			{"id": "a", "type": "DEPOSIT", "amount": 100},
			{"id": "b", "type": "AD_SPEND", "amount": 40, "metadata": {"resultType": "SALES", "leads": 2}},
			{"id": "c", "type": "REFUND", "amount": 10},
			{"id": "d", "type": "DEDUCT", "amount": -5}
		]
	}]`

	snap, err := DecodeSnapshot([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w := snap.Wallets()[0]

	if len(w.Transactions) != 2 {
		t.Fatalf("expected malformed transactions to be set aside, got %d transactions", len(w.Transactions))
	}
	if n := snap.Rejected("w1"); n != 2 {
		t.Errorf("expected 2 set-aside transactions, got %d", n)
	}
	if !w.Balance.Equal(decimal.NewFromInt(60)) {
		t.Errorf("expected balance 60, got %s", w.Balance)
	}
	if !w.SpentAmount.Equal(decimal.NewFromInt(40)) {
		t.Errorf("expected spent_amount 40, got %s", w.SpentAmount)
	}
	if w.CurrentSales != 2 {
		t.Errorf("expected current_sales 2, got %d", w.CurrentSales)
	}
	if w.Status != entity.BigFishStatusActive {
		t.Errorf("expected missing status to default to Active Pool, got %q", w.Status)
	}
}

func TestDecodeSnapshot_EdgeCases(t *testing.T) {
	t.Run("empty payload", func(t *testing.T) {
		snap, err := DecodeSnapshot(nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(snap.Wallets()) != 0 {
			t.Errorf("expected no wallets, got %d", len(snap.Wallets()))
		}
	})

	t.Run("not an array", func(t *testing.T) {
		if _, err := DecodeSnapshot([]byte(`{"id":"x"}`)); err == nil {
			t.Error("expected an error for a non-array payload")
		}
	})

	t.Run("wallet without id is hidden but written back", func(t *testing.T) {
		snap, err := DecodeSnapshot([]byte(`[{"name":"ghost"},7,{"id":"w2","name":"kept"}]`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		wallets := snap.Wallets()
		if len(wallets) != 1 || wallets[0].ID != "w2" {
			t.Fatalf("expected only w2 to be visible, got %+v", wallets)
		}

		w := wallets[0]
		w.Name = "renamed"
		if !snap.Replace(w) {
			t.Fatal("expected w2 to be replaced")
		}
		data, err := snap.Encode()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := string(data)
		if !strings.HasPrefix(out, `[{"name":"ghost"},7,{`) || !strings.Contains(out, `"name":"renamed"`) {
			t.Errorf("expected unreadable records to keep their place, got %s", out)
		}
	})

	t.Run("missing ids are stable across reads", func(t *testing.T) {
		raw := []byte(`[{"id":"w3","transactions":[{"type":"DEPOSIT","amount":10}],"growth_tasks":[{"title":"call"}]}]`)
		first, _ := DecodeSnapshot(raw)
		second, _ := DecodeSnapshot(raw)
		a, b := first.Wallets()[0], second.Wallets()[0]
		if a.Transactions[0].ID == "" || a.Transactions[0].ID != b.Transactions[0].ID {
			t.Errorf("expected the same transaction id on every read, got %q and %q", a.Transactions[0].ID, b.Transactions[0].ID)
		}
		if a.GrowthTasks[0].ID != b.GrowthTasks[0].ID {
			t.Errorf("expected the same task id on every read, got %q and %q", a.GrowthTasks[0].ID, b.GrowthTasks[0].ID)
		}
	})
}

func TestSnapshotEncode_WritesNumbers(t *testing.T) {
	w := entity.NewBigFish("Gamma", "", "", "", "", 5)
	w.ID = "w3"
	w.Balance = decimal.RequireFromString("164.50")
	w.SpentAmount = decimal.RequireFromString("20")
	w.Transactions = []entity.Transaction{{
		ID:     "t1",
		Date:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Type:   entity.TransactionTypeAdSpend,
		Amount: decimal.RequireFromString("20"),
		Metadata: &entity.CampaignMetadata{
			ResultType: entity.ResultTypeSales,
			Leads:      1,
		},
	}}

	snap := &Snapshot{}
	snap.Append(*w)
	data, err := snap.Encode()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := string(data)

	for _, want := range []string{`"balance":164.5`, `"spent_amount":20`, `"target_sales":5`, `"amount":20`, `"resultType":"SALES"`, `"show_balance":true`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected encoded snapshot to contain %s, got %s", want, out)
		}
	}

	back, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wallets := back.Wallets()
	if len(wallets) != 1 || wallets[0].Transactions[0].SalesLeads() != 1 {
		t.Errorf("expected encoded snapshot to decode back, got %+v", wallets)
	}
}

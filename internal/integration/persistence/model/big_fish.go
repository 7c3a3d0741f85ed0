// Package model defines database models for persistence layer.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/agency-crm/backend/internal/domain/entity"
	"github.com/agency-crm/backend/internal/domain/ledger"
)

// BigFishRecord is the stored JSON form of a client wallet under the big_fish key.
type BigFishRecord struct {
	ID           ID                  `json:"id"`
	LeadID       ID                  `json:"lead_id,omitempty"`
	Name         string              `json:"name"`
	Company      string              `json:"company,omitempty"`
	Email        string              `json:"email,omitempty"`
	Phone        string              `json:"phone,omitempty"`
	Notes        string              `json:"notes,omitempty"`
	Status       string              `json:"status"`
	Balance      Amount              `json:"balance"`
	SpentAmount  Amount              `json:"spent_amount"`
	TargetSales  Count               `json:"target_sales"`
	CurrentSales Count               `json:"current_sales"`
	Transactions []TransactionRecord `json:"transactions"`
	GrowthTasks  []GrowthTaskRecord  `json:"growth_tasks"`
	Reports      []ReportRecord      `json:"reports"`
	PortalConfig json.RawMessage     `json:"portal_config"`
	CreatedAt    Timestamp           `json:"created_at"`
	UpdatedAt    Timestamp           `json:"updated_at"`
}

// TransactionRecord is the stored JSON form of a wallet transaction.
type TransactionRecord struct {
	ID          ID              `json:"id"`
	Date        Timestamp       `json:"date"`
	Type        string          `json:"type"`
	Amount      Amount          `json:"amount"`
	Description string          `json:"description"`
	Metadata    *MetadataRecord `json:"metadata,omitempty"`
	CreatedAt   Timestamp       `json:"created_at"`
}

// MetadataRecord is the stored JSON form of campaign metadata.
type MetadataRecord struct {
	Impressions Count  `json:"impressions"`
	Reach       Count  `json:"reach"`
	Leads       Count  `json:"leads"`
	ResultType  string `json:"resultType,omitempty"`
	ROAS        Amount `json:"roas"`
}

// GrowthTaskRecord is the stored JSON form of a growth task.
type GrowthTaskRecord struct {
	ID        ID         `json:"id"`
	Title     string     `json:"title"`
	Completed bool       `json:"completed"`
	DueDate   *Timestamp `json:"due_date,omitempty"`
	CreatedAt Timestamp  `json:"created_at"`
}

// ReportRecord is the stored JSON form of a campaign report.
type ReportRecord struct {
	ID          ID        `json:"id"`
	Title       string    `json:"title"`
	PeriodStart Timestamp `json:"period_start"`
	PeriodEnd   Timestamp `json:"period_end"`
	Spend       Amount    `json:"spend"`
	Impressions Count     `json:"impressions"`
	Reach       Count     `json:"reach"`
	Leads       Count     `json:"leads"`
	Sales       Count     `json:"sales"`
	AverageROAS Amount    `json:"average_roas"`
	Campaigns   Count     `json:"campaigns"`
	Summary     string    `json:"summary"`
	GeneratedBy string    `json:"generated_by,omitempty"`
	CreatedAt   Timestamp `json:"created_at"`
}

// portalConfigRecord uses pointers so missing keys fall back to defaults.
type portalConfigRecord struct {
	ShowBalance *bool `json:"show_balance,omitempty"`
	ShowHistory *bool `json:"show_history,omitempty"`
	IsSuspended *bool `json:"is_suspended,omitempty"`
}

// storedWallet reads transactions one by one so a bad entry can be set aside
// without losing the rest of the wallet.
type storedWallet struct {
	BigFishRecord
	Transactions []json.RawMessage `json:"transactions"`
}

// Snapshot is the decoded wallet array stored under the big_fish key.
// Records that cannot be read are kept as raw JSON and written back as they
// were found. Only wallets passed to Replace or Append are re-encoded.
type Snapshot struct {
	entries []*snapshotEntry
}

type snapshotEntry struct {
	raw      json.RawMessage
	wallet   *entity.BigFish
	rejected []json.RawMessage
	dirty    bool
}

// DecodeSnapshot parses the whole wallet array stored under the big_fish key.
// Malformed fields are defaulted and logged. Wallets without an id and
// transactions that fail validation are set aside untouched.
// Only a payload that is not a JSON array is an error.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	snap := &Snapshot{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return snap, nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode big_fish snapshot: %w", err)
	}

	snap.entries = make([]*snapshotEntry, 0, len(raws))
	for i, raw := range raws {
		snap.entries = append(snap.entries, decodeEntry(i, raw))
	}
	return snap, nil
}

func decodeEntry(index int, raw json.RawMessage) *snapshotEntry {
	entry := &snapshotEntry{raw: raw}

	var doc storedWallet
	if err := json.Unmarshal(raw, &doc); err != nil {
		slog.Error("Keeping unreadable stored wallet as is", "index", index, "error", err)
		return entry
	}
	if doc.ID == "" {
		slog.Warn("Keeping stored wallet without id as is", "index", index, "name", doc.Name)
		return entry
	}

	w, rejected := doc.toEntity()
	entry.wallet = &w
	entry.rejected = rejected
	return entry
}

// Wallets returns a copy of every readable wallet in stored order.
func (s *Snapshot) Wallets() []entity.BigFish {
	wallets := make([]entity.BigFish, 0, len(s.entries))
	for _, e := range s.entries {
		if e.wallet != nil {
			wallets = append(wallets, e.wallet.Clone())
		}
	}
	return wallets
}

// Find returns a copy of the wallet with the given id.
func (s *Snapshot) Find(id string) (entity.BigFish, bool) {
	if e := s.entry(id); e != nil {
		return e.wallet.Clone(), true
	}
	return entity.BigFish{}, false
}

// Replace swaps in a new version of an existing wallet.
func (s *Snapshot) Replace(w entity.BigFish) bool {
	e := s.entry(w.ID)
	if e == nil {
		return false
	}
	next := w.Clone()
	e.wallet = &next
	e.dirty = true
	return true
}

// Append adds a new wallet at the end of the array.
func (s *Snapshot) Append(w entity.BigFish) {
	next := w.Clone()
	s.entries = append(s.entries, &snapshotEntry{wallet: &next, dirty: true})
}

// Rejected returns how many stored transactions of a wallet were set aside.
func (s *Snapshot) Rejected(id string) int {
	if e := s.entry(id); e != nil {
		return len(e.rejected)
	}
	return 0
}

func (s *Snapshot) entry(id string) *snapshotEntry {
	for _, e := range s.entries {
		if e.wallet != nil && e.wallet.ID == id {
			return e
		}
	}
	return nil
}

// Encode serialises the array for the big_fish key. Untouched records keep
// their stored bytes. Set-aside transactions of a re-encoded wallet follow
// its readable ones.
func (s *Snapshot) Encode() ([]byte, error) {
	out := make([]json.RawMessage, len(s.entries))
	for i, e := range s.entries {
		if !e.dirty {
			out[i] = e.raw
			continue
		}
		data, err := encodeWallet(*e.wallet, e.rejected)
		if err != nil {
			return nil, err
		}
		out[i] = data
	}
	return json.Marshal(out)
}

func encodeWallet(w entity.BigFish, rejected []json.RawMessage) (json.RawMessage, error) {
	rec := BigFishRecordFromEntity(w)
	doc := storedWallet{
		BigFishRecord: rec,
		Transactions:  make([]json.RawMessage, 0, len(rec.Transactions)+len(rejected)),
	}
	for _, tx := range rec.Transactions {
		data, err := json.Marshal(tx)
		if err != nil {
			return nil, fmt.Errorf("encode transaction %s of wallet %s: %w", tx.ID, w.ID, err)
		}
		doc.Transactions = append(doc.Transactions, data)
	}
	doc.Transactions = append(doc.Transactions, rejected...)

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode wallet %s: %w", w.ID, err)
	}
	return data, nil
}

// fallbackID derives a stable id for a stored item that has none, so the
// same item keeps its id across reads until the wallet is saved.
func fallbackID(walletID ID, kind string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("big_fish/%s/%s/%d", walletID, kind, index))).String()
}

// toEntity converts the stored wallet to a domain BigFish and returns the raw
// transactions that were set aside.
func (d *storedWallet) toEntity() (entity.BigFish, []json.RawMessage) {
	r := &d.BigFishRecord
	logger := slog.With("big_fish_id", string(r.ID))

	status := entity.BigFishStatus(r.Status)
	if !status.IsValid() {
		if r.Status != "" {
			logger.Warn("Unknown stored wallet status, using Active Pool", "status", r.Status)
		}
		status = entity.BigFishStatusActive
	}

	var rejected []json.RawMessage
	txs := make([]entity.Transaction, 0, len(d.Transactions))
	seen := make(map[string]bool, len(d.Transactions))
	for i, raw := range d.Transactions {
		var rec TransactionRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			logger.Error("Setting aside unreadable stored transaction", "index", i, "error", err)
			rejected = append(rejected, raw)
			continue
		}
		tx, ok := rec.toEntity(logger, fallbackID(r.ID, "transactions", i))
		if !ok {
			rejected = append(rejected, raw)
			continue
		}
		if seen[tx.ID] {
			logger.Warn("Setting aside stored transaction with duplicate id", "transaction_id", tx.ID)
			rejected = append(rejected, raw)
			continue
		}
		seen[tx.ID] = true
		txs = append(txs, tx)
	}

	tasks := make([]entity.GrowthTask, 0, len(r.GrowthTasks))
	for i, t := range r.GrowthTasks {
		task := entity.GrowthTask{
			ID:        string(t.ID),
			Title:     t.Title,
			Completed: t.Completed,
			CreatedAt: t.CreatedAt.Time,
		}
		if task.ID == "" {
			task.ID = fallbackID(r.ID, "growth_tasks", i)
		}
		if t.DueDate != nil && !t.DueDate.Time.IsZero() {
			due := t.DueDate.Time
			task.DueDate = &due
		}
		tasks = append(tasks, task)
	}

	reports := make([]entity.CampaignReport, 0, len(r.Reports))
	for _, rep := range r.Reports {
		reports = append(reports, entity.CampaignReport{
			ID:          string(rep.ID),
			Title:       rep.Title,
			PeriodStart: rep.PeriodStart.Time,
			PeriodEnd:   rep.PeriodEnd.Time,
			Spend:       rep.Spend.Decimal,
			Impressions: rep.Impressions.Value,
			Reach:       rep.Reach.Value,
			Leads:       int(rep.Leads.Value),
			Sales:       int(rep.Sales.Value),
			AverageROAS: rep.AverageROAS.Decimal,
			Campaigns:   int(rep.Campaigns.Value),
			Summary:     rep.Summary,
			GeneratedBy: rep.GeneratedBy,
			CreatedAt:   rep.CreatedAt.Time,
		})
	}

	w := entity.BigFish{
		ID:           string(r.ID),
		LeadID:       string(r.LeadID),
		Name:         r.Name,
		Company:      r.Company,
		Email:        r.Email,
		Phone:        r.Phone,
		Notes:        r.Notes,
		Status:       status,
		Balance:      r.Balance.Decimal,
		SpentAmount:  r.SpentAmount.Decimal,
		TargetSales:  int(r.TargetSales.Value),
		CurrentSales: int(r.CurrentSales.Value),
		Transactions: txs,
		GrowthTasks:  tasks,
		Reports:      reports,
		PortalConfig: ParsePortalConfig(r.PortalConfig),
		CreatedAt:    r.CreatedAt.Time,
		UpdatedAt:    r.UpdatedAt.Time,
	}
	if w.TargetSales < 0 {
		w.TargetSales = 0
	}
	if w.CurrentSales < 0 {
		w.CurrentSales = 0
	}

	if len(rejected) > 0 {
		logger.Warn("Stored wallet has transactions set aside", "count", len(rejected))
	}

	// Unreadable cached aggregates are rebuilt from the transactions.
	if r.Balance.Malformed || r.SpentAmount.Malformed || r.CurrentSales.Malformed {
		logger.Warn("Rebuilding wallet aggregates from transactions")
		w = ledger.Recompute(w)
	} else if drift := ledger.Verify(w); !drift.Consistent() {
		logger.Warn("Stored wallet aggregates differ from transactions",
			"balance", drift.Cached.Balance.String(),
			"expected_balance", drift.Expected.Balance.String(),
			"spent_amount", drift.Cached.SpentAmount.String(),
			"expected_spent_amount", drift.Expected.SpentAmount.String(),
		)
	}
	return w, rejected
}

func (r *TransactionRecord) toEntity(logger *slog.Logger, fallback string) (entity.Transaction, bool) {
	txType := entity.TransactionType(strings.ToUpper(strings.TrimSpace(r.Type)))
	if !txType.IsValid() {
		logger.Error("Setting aside stored transaction with unknown type", "transaction_id", string(r.ID), "type", r.Type)
		return entity.Transaction{}, false
	}
	if r.Amount.Malformed || !r.Amount.IsPositive() {
		logger.Error("Setting aside stored transaction with invalid amount", "transaction_id", string(r.ID), "amount", r.Amount.String())
		return entity.Transaction{}, false
	}

	id := string(r.ID)
	if id == "" {
		id = fallback
		logger.Warn("Stored transaction has no id, assigned one", "transaction_id", id)
	}

	tx := entity.Transaction{
		ID:          id,
		Date:        r.Date.Time,
		Type:        txType,
		Amount:      r.Amount.Decimal,
		Description: r.Description,
		CreatedAt:   r.CreatedAt.Time,
	}
	if tx.Date.IsZero() {
		tx.Date = tx.CreatedAt
	}
	if m := r.Metadata; m != nil {
		resultType := entity.ResultType(strings.ToUpper(strings.TrimSpace(m.ResultType)))
		if resultType != "" && resultType != entity.ResultTypeSales && resultType != entity.ResultTypeMessages {
			logger.Warn("Ignoring unknown campaign result type", "transaction_id", id, "result_type", m.ResultType)
			resultType = ""
		}
		tx.Metadata = &entity.CampaignMetadata{
			Impressions: max(m.Impressions.Value, 0),
			Reach:       max(m.Reach.Value, 0),
			Leads:       int(max(m.Leads.Value, 0)),
			ResultType:  resultType,
			ROAS:        m.ROAS.Decimal,
		}
	}
	return tx, true
}

// ParsePortalConfig reads a portal config stored as an object or as a
// JSON-encoded string. Missing keys and malformed input use the defaults.
func ParsePortalConfig(raw json.RawMessage) entity.PortalConfig {
	cfg := entity.DefaultPortalConfig()
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return cfg
	}

	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			slog.Warn("Failed to unmarshal portal config string", "error", err)
			return cfg
		}
		raw = bytes.TrimSpace([]byte(inner))
		if len(raw) == 0 {
			return cfg
		}
	}

	var rec portalConfigRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		slog.Warn("Malformed portal config, using defaults", "error", err)
		return cfg
	}
	if rec.ShowBalance != nil {
		cfg.ShowBalance = *rec.ShowBalance
	}
	if rec.ShowHistory != nil {
		cfg.ShowHistory = *rec.ShowHistory
	}
	if rec.IsSuspended != nil {
		cfg.IsSuspended = *rec.IsSuspended
	}
	return cfg
}

// BigFishRecordFromEntity creates a BigFishRecord from a domain BigFish entity.
func BigFishRecordFromEntity(w entity.BigFish) BigFishRecord {
	txs := make([]TransactionRecord, len(w.Transactions))
	for i, tx := range w.Transactions {
		rec := TransactionRecord{
			ID:          ID(tx.ID),
			Date:        NewTimestamp(tx.Date),
			Type:        string(tx.Type),
			Amount:      Amount{Decimal: tx.Amount},
			Description: tx.Description,
			CreatedAt:   NewTimestamp(tx.CreatedAt),
		}
		if m := tx.Metadata; m != nil {
			rec.Metadata = &MetadataRecord{
				Impressions: Count{Value: m.Impressions},
				Reach:       Count{Value: m.Reach},
				Leads:       Count{Value: int64(m.Leads)},
				ResultType:  string(m.ResultType),
				ROAS:        Amount{Decimal: m.ROAS},
			}
		}
		txs[i] = rec
	}

	tasks := make([]GrowthTaskRecord, len(w.GrowthTasks))
	for i, t := range w.GrowthTasks {
		rec := GrowthTaskRecord{
			ID:        ID(t.ID),
			Title:     t.Title,
			Completed: t.Completed,
			CreatedAt: NewTimestamp(t.CreatedAt),
		}
		if t.DueDate != nil {
			due := NewTimestamp(*t.DueDate)
			rec.DueDate = &due
		}
		tasks[i] = rec
	}

	reports := make([]ReportRecord, len(w.Reports))
	for i, rep := range w.Reports {
		reports[i] = ReportRecord{
			ID:          ID(rep.ID),
			Title:       rep.Title,
			PeriodStart: NewTimestamp(rep.PeriodStart),
			PeriodEnd:   NewTimestamp(rep.PeriodEnd),
			Spend:       Amount{Decimal: rep.Spend},
			Impressions: Count{Value: rep.Impressions},
			Reach:       Count{Value: rep.Reach},
			Leads:       Count{Value: int64(rep.Leads)},
			Sales:       Count{Value: int64(rep.Sales)},
			AverageROAS: Amount{Decimal: rep.AverageROAS},
			Campaigns:   Count{Value: int64(rep.Campaigns)},
			Summary:     rep.Summary,
			GeneratedBy: rep.GeneratedBy,
			CreatedAt:   NewTimestamp(rep.CreatedAt),
		}
	}

	portal, err := json.Marshal(map[string]bool{
		"show_balance": w.PortalConfig.ShowBalance,
		"show_history": w.PortalConfig.ShowHistory,
		"is_suspended": w.PortalConfig.IsSuspended,
	})
	if err != nil {
		slog.Error("Failed to marshal portal config", "error", err, "big_fish_id", w.ID)
		portal = []byte("{}")
	}

	return BigFishRecord{
		ID:           ID(w.ID),
		LeadID:       ID(w.LeadID),
		Name:         w.Name,
		Company:      w.Company,
		Email:        w.Email,
		Phone:        w.Phone,
		Notes:        w.Notes,
		Status:       string(w.Status),
		Balance:      Amount{Decimal: w.Balance},
		SpentAmount:  Amount{Decimal: w.SpentAmount},
		TargetSales:  Count{Value: int64(w.TargetSales)},
		CurrentSales: Count{Value: int64(w.CurrentSales)},
		Transactions: txs,
		GrowthTasks:  tasks,
		Reports:      reports,
		PortalConfig: portal,
		CreatedAt:    NewTimestamp(w.CreatedAt),
		UpdatedAt:    NewTimestamp(w.UpdatedAt),
	}
}

package entity

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BigFishStatus is the soft lifecycle marker of a client wallet.
type BigFishStatus string

const (
	BigFishStatusActive     BigFishStatus = "Active Pool"
	BigFishStatusHallOfFame BigFishStatus = "Hall of Fame"
)

// IsValid reports whether the status is a known lifecycle marker.
func (s BigFishStatus) IsValid() bool {
	return s == BigFishStatusActive || s == BigFishStatusHallOfFame
}

// Toggled returns the opposite status.
func (s BigFishStatus) Toggled() BigFishStatus {
	if s == BigFishStatusHallOfFame {
		return BigFishStatusActive
	}
	return BigFishStatusHallOfFame
}

// PortalConfig controls what the client sees on their portal page.
type PortalConfig struct {
	ShowBalance bool
	ShowHistory bool
	IsSuspended bool
}

// DefaultPortalConfig returns the configuration applied when none is stored.
func DefaultPortalConfig() PortalConfig {
	return PortalConfig{
		ShowBalance: true,
		ShowHistory: true,
		IsSuspended: false,
	}
}

// GrowthTask is a follow-up action tracked for a client.
type GrowthTask struct {
	ID        string
	Title     string
	Completed bool
	DueDate   *time.Time
	CreatedAt time.Time
}

// NewGrowthTask creates a new open GrowthTask.
func NewGrowthTask(title string, dueDate *time.Time) *GrowthTask {
	return &GrowthTask{
		ID:        uuid.NewString(),
		Title:     title,
		DueDate:   dueDate,
		CreatedAt: time.Now().UTC(),
	}
}

// CampaignReport summarises ad spend results over a period.
type CampaignReport struct {
	ID          string
	Title       string
	PeriodStart time.Time
	PeriodEnd   time.Time
	Spend       decimal.Decimal
	Impressions int64
	Reach       int64
	Leads       int
	Sales       int
	AverageROAS decimal.Decimal
	Campaigns   int
	Summary     string
	GeneratedBy string
	CreatedAt   time.Time
}

// BigFish is a VIP client wallet.
// Balance, SpentAmount and CurrentSales are caches of a fold over Transactions.
type BigFish struct {
	ID           string
	LeadID       string
	Name         string
	Company      string
	Email        string
	Phone        string
	Notes        string
	Status       BigFishStatus
	Balance      decimal.Decimal
	SpentAmount  decimal.Decimal
	TargetSales  int
	CurrentSales int
	Transactions []Transaction
	GrowthTasks  []GrowthTask
	Reports      []CampaignReport
	PortalConfig PortalConfig
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewBigFish creates an empty wallet in the active pool.
func NewBigFish(name, company, email, phone, leadID string, targetSales int) *BigFish {
	now := time.Now().UTC()

	return &BigFish{
		ID:           uuid.NewString(),
		LeadID:       leadID,
		Name:         name,
		Company:      company,
		Email:        email,
		Phone:        phone,
		Status:       BigFishStatusActive,
		Balance:      decimal.Zero,
		SpentAmount:  decimal.Zero,
		TargetSales:  targetSales,
		Transactions: []Transaction{},
		GrowthTasks:  []GrowthTask{},
		Reports:      []CampaignReport{},
		PortalConfig: DefaultPortalConfig(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Clone returns a deep copy of the wallet.
func (b BigFish) Clone() BigFish {
	txs := make([]Transaction, len(b.Transactions))
	for i, tx := range b.Transactions {
		txs[i] = tx.Clone()
	}
	b.Transactions = txs

	tasks := make([]GrowthTask, len(b.GrowthTasks))
	for i, task := range b.GrowthTasks {
		if task.DueDate != nil {
			d := *task.DueDate
			task.DueDate = &d
		}
		tasks[i] = task
	}
	b.GrowthTasks = tasks

	b.Reports = append([]CampaignReport(nil), b.Reports...)
	if b.Reports == nil {
		b.Reports = []CampaignReport{}
	}
	return b
}

// FindTransaction returns the index of the transaction with the given id.
func (b BigFish) FindTransaction(id string) (int, bool) {
	for i := range b.Transactions {
		if b.Transactions[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// FindGrowthTask returns the index of the growth task with the given id.
func (b BigFish) FindGrowthTask(id string) (int, bool) {
	for i := range b.GrowthTasks {
		if b.GrowthTasks[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// SortedTransactions returns the transactions newest first.
func (b BigFish) SortedTransactions() []Transaction {
	out := make([]Transaction, len(b.Transactions))
	copy(out, b.Transactions)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// SalesProgress returns current sales as a percentage of the target, capped at 100.
func (b BigFish) SalesProgress() float64 {
	if b.TargetSales <= 0 {
		return 0
	}
	pct := float64(b.CurrentSales) / float64(b.TargetSales) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

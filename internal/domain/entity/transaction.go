// Package entity defines the core business entities for the domain layer.
package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of wallet movement.
type TransactionType string

const (
	TransactionTypeDeposit       TransactionType = "DEPOSIT"
	TransactionTypeDeduct        TransactionType = "DEDUCT"
	TransactionTypeAdSpend       TransactionType = "AD_SPEND"
	TransactionTypeServiceCharge TransactionType = "SERVICE_CHARGE"
)

// IsValid reports whether the type is one of the known transaction types.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeDeduct, TransactionTypeAdSpend, TransactionTypeServiceCharge:
		return true
	}
	return false
}

// IsCredit reports whether the type adds to the wallet balance.
// Every other type subtracts.
func (t TransactionType) IsCredit() bool {
	return t == TransactionTypeDeposit
}

// ResultType is the campaign objective recorded on an ad spend.
type ResultType string

const (
	ResultTypeSales    ResultType = "SALES"
	ResultTypeMessages ResultType = "MESSAGES"
)

// MaxDescriptionLength is the longest description accepted on a transaction.
const MaxDescriptionLength = 255

// CampaignMetadata holds the campaign results annotated on a transaction.
type CampaignMetadata struct {
	Impressions int64
	Reach       int64
	Leads       int
	ResultType  ResultType
	ROAS        decimal.Decimal
}

// Transaction represents a single movement on a client wallet.
// Type and Metadata never change after creation.
type Transaction struct {
	ID          string
	Date        time.Time
	Type        TransactionType
	Amount      decimal.Decimal // Always positive, USD
	Description string
	Metadata    *CampaignMetadata
	CreatedAt   time.Time
}

// NewTransaction creates a new Transaction entity.
// A zero date defaults to the creation time.
func NewTransaction(
	date time.Time,
	transactionType TransactionType,
	amount decimal.Decimal,
	description string,
	metadata *CampaignMetadata,
) *Transaction {
	now := time.Now().UTC()
	if date.IsZero() {
		date = now
	}

	return &Transaction{
		ID:          uuid.NewString(),
		Date:        date,
		Type:        transactionType,
		Amount:      amount,
		Description: description,
		Metadata:    metadata,
		CreatedAt:   now,
	}
}

// SalesLeads returns the leads this transaction contributes to the sales counter.
func (t Transaction) SalesLeads() int {
	if t.Type != TransactionTypeAdSpend || t.Metadata == nil || t.Metadata.ResultType != ResultTypeSales {
		return 0
	}
	return t.Metadata.Leads
}

// Clone returns a copy that shares no pointers with t.
func (t Transaction) Clone() Transaction {
	if t.Metadata != nil {
		m := *t.Metadata
		t.Metadata = &m
	}
	return t
}

// TransactionPatch carries the editable fields of a transaction.
// Nil fields are left unchanged.
type TransactionPatch struct {
	Amount      *decimal.Decimal
	Date        *time.Time
	Description *string
}

// IsEmpty reports whether the patch changes nothing.
func (p TransactionPatch) IsEmpty() bool {
	return p.Amount == nil && p.Date == nil && p.Description == nil
}

// Package ledger computes client wallet aggregates from transaction mutations.
//
// Every function is pure over the wallet snapshot it receives: the input is
// never modified and a new snapshot is returned. Balance, spent amount and
// current sales on the returned wallet always equal Fold over its
// transactions when they did so on the input.
package ledger

import (
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/agency-crm/backend/internal/domain/entity"
	domainerror "github.com/agency-crm/backend/internal/domain/error"
)

// Delta is the contribution of one transaction to the wallet aggregates.
type Delta struct {
	Balance decimal.Decimal
	Spent   decimal.Decimal
	Sales   int
}

// Effect returns the signed contribution of tx.
// DEPOSIT credits the balance; every other type debits it.
// AD_SPEND also counts towards spend, and towards sales when the campaign targeted sales.
func Effect(tx entity.Transaction) Delta {
	d := Delta{Balance: tx.Amount.Neg(), Spent: decimal.Zero}
	if tx.Type.IsCredit() {
		d.Balance = tx.Amount
	}
	if tx.Type == entity.TransactionTypeAdSpend {
		d.Spent = tx.Amount
		d.Sales = tx.SalesLeads()
	}
	return d
}

// ValidateTransaction checks the fields the reconciler depends on.
func ValidateTransaction(tx entity.Transaction) error {
	if !tx.Type.IsValid() {
		return domainerror.NewWalletError(
			domainerror.ErrCodeInvalidTransactionType,
			"type must be one of DEPOSIT, DEDUCT, AD_SPEND, SERVICE_CHARGE",
			domainerror.ErrInvalidTransactionType,
		)
	}
	if err := ValidateAmount(tx.Amount); err != nil {
		return err
	}
	if utf8.RuneCountInString(tx.Description) > entity.MaxDescriptionLength {
		return domainerror.NewWalletError(
			domainerror.ErrCodeDescriptionTooLong,
			"description must be at most 255 characters",
			domainerror.ErrDescriptionTooLong,
		)
	}
	if m := tx.Metadata; m != nil {
		if m.Impressions < 0 || m.Reach < 0 || m.Leads < 0 || m.ROAS.IsNegative() {
			return domainerror.NewWalletError(
				domainerror.ErrCodeInvalidMetadata,
				"campaign metadata counters must not be negative",
				domainerror.ErrInvalidMetadata,
			)
		}
		if m.ResultType != "" && m.ResultType != entity.ResultTypeSales && m.ResultType != entity.ResultTypeMessages {
			return domainerror.NewWalletError(
				domainerror.ErrCodeInvalidMetadata,
				"result type must be SALES or MESSAGES",
				domainerror.ErrInvalidMetadata,
			)
		}
	}
	return nil
}

// ValidateAmount rejects zero and negative amounts.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domainerror.NewWalletError(
			domainerror.ErrCodeInvalidAmount,
			"amount must be greater than zero",
			domainerror.ErrInvalidAmount,
		)
	}
	return nil
}

// ApplyAdd appends tx to the wallet and applies its effect.
func ApplyAdd(w entity.BigFish, tx entity.Transaction) (entity.BigFish, error) {
	if err := ValidateTransaction(tx); err != nil {
		return w, err
	}
	if _, exists := w.FindTransaction(tx.ID); exists {
		return w, domainerror.NewWalletError(
			domainerror.ErrCodeDuplicateTransaction,
			"transaction "+tx.ID+" already exists",
			domainerror.ErrDuplicateTransaction,
		)
	}

	next := w.Clone()
	d := Effect(tx)
	next.Balance = next.Balance.Add(d.Balance)
	next.SpentAmount = next.SpentAmount.Add(d.Spent)
	next.CurrentSales += d.Sales
	next.Transactions = append(next.Transactions, tx.Clone())
	return next, nil
}

// ApplyDelete removes the transaction with the given id and reverses the effect
// it was recorded with. Current sales never drop below zero.
// An unknown id leaves the wallet unchanged and reports found == false.
func ApplyDelete(w entity.BigFish, txID string) (entity.BigFish, bool) {
	idx, found := w.FindTransaction(txID)
	if !found {
		return w.Clone(), false
	}

	next := w.Clone()
	d := Effect(next.Transactions[idx])
	next.Balance = next.Balance.Sub(d.Balance)
	next.SpentAmount = next.SpentAmount.Sub(d.Spent)
	next.CurrentSales -= d.Sales
	if next.CurrentSales < 0 {
		next.CurrentSales = 0
	}
	next.Transactions = append(next.Transactions[:idx], next.Transactions[idx+1:]...)
	return next, true
}

// ApplyEdit reverses the old amount and applies the new one with the same type.
// Only amount, date and description change; type and metadata are kept, so
// current sales are unaffected.
// An unknown id leaves the wallet unchanged and reports found == false.
func ApplyEdit(w entity.BigFish, txID string, patch entity.TransactionPatch) (entity.BigFish, bool, error) {
	idx, found := w.FindTransaction(txID)
	if !found {
		return w.Clone(), false, nil
	}

	old := w.Transactions[idx]
	updated := old.Clone()
	if patch.Amount != nil {
		updated.Amount = *patch.Amount
	}
	if patch.Date != nil {
		updated.Date = *patch.Date
	}
	if patch.Description != nil {
		updated.Description = *patch.Description
	}
	if err := ValidateTransaction(updated); err != nil {
		return w, true, err
	}

	next := w.Clone()
	before, after := Effect(old), Effect(updated)
	next.Balance = next.Balance.Sub(before.Balance).Add(after.Balance)
	next.SpentAmount = next.SpentAmount.Sub(before.Spent).Add(after.Spent)
	next.Transactions[idx] = updated
	return next, true, nil
}

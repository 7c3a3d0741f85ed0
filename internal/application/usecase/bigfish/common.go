// Package bigfish contains client wallet use cases.
package bigfish

import (
	"errors"
	"time"

	"github.com/agency-crm/backend/internal/domain/entity"
	domainerror "github.com/agency-crm/backend/internal/domain/error"
)

// isTransactionNotFound reports whether err is the no-op signal raised by edit and delete.
func isTransactionNotFound(err error) bool {
	return errors.Is(err, domainerror.ErrTransactionNotFound)
}

func transactionNotFound(id string) error {
	return domainerror.NewWalletError(
		domainerror.ErrCodeTransactionNotFound,
		"transaction "+id+" not found",
		domainerror.ErrTransactionNotFound,
	)
}

func growthTaskNotFound(id string) error {
	return domainerror.NewWalletError(
		domainerror.ErrCodeGrowthTaskNotFound,
		"growth task "+id+" not found",
		domainerror.ErrGrowthTaskNotFound,
	)
}

// Sync bodies carry plain JSON numbers.

func aggregateFields(w *entity.BigFish) map[string]interface{} {
	return map[string]interface{}{
		"balance":       w.Balance.InexactFloat64(),
		"spent_amount":  w.SpentAmount.InexactFloat64(),
		"current_sales": w.CurrentSales,
	}
}

func transactionFields(tx entity.Transaction) map[string]interface{} {
	fields := map[string]interface{}{
		"id":          tx.ID,
		"date":        tx.Date.UTC().Format(time.RFC3339),
		"type":        string(tx.Type),
		"amount":      tx.Amount.InexactFloat64(),
		"description": tx.Description,
	}
	if m := tx.Metadata; m != nil {
		fields["metadata"] = map[string]interface{}{
			"impressions": m.Impressions,
			"reach":       m.Reach,
			"leads":       m.Leads,
			"resultType":  string(m.ResultType),
			"roas":        m.ROAS.InexactFloat64(),
		}
	}
	return fields
}

func portalConfigFields(c entity.PortalConfig) map[string]interface{} {
	return map[string]interface{}{
		"show_balance": c.ShowBalance,
		"show_history": c.ShowHistory,
		"is_suspended": c.IsSuspended,
	}
}

func profileFields(w *entity.BigFish) map[string]interface{} {
	return map[string]interface{}{
		"lead_id":      w.LeadID,
		"name":         w.Name,
		"company":      w.Company,
		"email":        w.Email,
		"phone":        w.Phone,
		"notes":        w.Notes,
		"status":       string(w.Status),
		"target_sales": w.TargetSales,
	}
}

func growthTaskFields(tasks []entity.GrowthTask) []map[string]interface{} {
	out := make([]map[string]interface{}, len(tasks))
	for i, task := range tasks {
		item := map[string]interface{}{
			"id":        task.ID,
			"title":     task.Title,
			"completed": task.Completed,
		}
		if task.DueDate != nil {
			item["due_date"] = task.DueDate.UTC().Format(time.RFC3339)
		}
		out[i] = item
	}
	return out
}

func merge(maps ...map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

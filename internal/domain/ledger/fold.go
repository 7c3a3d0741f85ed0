package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/agency-crm/backend/internal/domain/entity"
)

// Totals are the wallet aggregates derived from a set of transactions.
type Totals struct {
	Balance      decimal.Decimal
	SpentAmount  decimal.Decimal
	CurrentSales int
}

// Fold computes the aggregates defined by the transactions alone.
func Fold(transactions []entity.Transaction) Totals {
	t := Totals{Balance: decimal.Zero, SpentAmount: decimal.Zero}
	for _, tx := range transactions {
		d := Effect(tx)
		t.Balance = t.Balance.Add(d.Balance)
		t.SpentAmount = t.SpentAmount.Add(d.Spent)
		t.CurrentSales += d.Sales
	}
	return t
}

// Drift compares the cached aggregates of a wallet with its fold.
type Drift struct {
	WalletID string
	Cached   Totals
	Expected Totals
}

// Consistent reports whether the cached aggregates match the fold.
func (d Drift) Consistent() bool {
	return d.Cached.Balance.Equal(d.Expected.Balance) &&
		d.Cached.SpentAmount.Equal(d.Expected.SpentAmount) &&
		d.Cached.CurrentSales == d.Expected.CurrentSales
}

// Verify reports how far the cached aggregates of w are from its fold.
func Verify(w entity.BigFish) Drift {
	return Drift{
		WalletID: w.ID,
		Cached: Totals{
			Balance:      w.Balance,
			SpentAmount:  w.SpentAmount,
			CurrentSales: w.CurrentSales,
		},
		Expected: Fold(w.Transactions),
	}
}

// Recompute returns a copy of w whose aggregates are rebuilt from the fold.
func Recompute(w entity.BigFish) entity.BigFish {
	next := w.Clone()
	t := Fold(next.Transactions)
	next.Balance = t.Balance
	next.SpentAmount = t.SpentAmount
	next.CurrentSales = t.CurrentSales
	return next
}

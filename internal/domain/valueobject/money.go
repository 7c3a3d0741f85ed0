// Package valueobject contains domain value objects for the Big Fish wallet service.
package valueobject

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	domainerror "github.com/agency-crm/backend/internal/domain/error"
)

// LedgerCurrency is the only currency wallets are kept in.
const LedgerCurrency = money.USD

// Money is an amount in the ledger currency.
type Money struct {
	amount decimal.Decimal
}

// NewMoney wraps an amount in the ledger currency.
func NewMoney(amount decimal.Decimal) Money {
	return Money{amount: amount}
}

// ParseMoney validates the currency code and the precision of amount.
// An empty code means the ledger currency.
func ParseMoney(amount decimal.Decimal, code string) (Money, error) {
	if err := ValidateCurrency(code); err != nil {
		return Money{}, err
	}
	fraction := int32(currency().Fraction)
	if !amount.Equal(amount.Round(fraction)) {
		return Money{}, domainerror.NewWalletError(
			domainerror.ErrCodeInvalidAmount,
			"amount must not have more than 2 decimal places",
			domainerror.ErrInvalidAmount,
		)
	}
	return Money{amount: amount}, nil
}

// ValidateCurrency rejects any currency other than the ledger currency.
func ValidateCurrency(code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || code == LedgerCurrency {
		return nil
	}
	if money.GetCurrency(code) == nil {
		return domainerror.NewWalletError(
			domainerror.ErrCodeUnsupportedCurrency,
			"unknown currency "+code,
			domainerror.ErrUnsupportedCurrency,
		)
	}
	return domainerror.NewWalletError(
		domainerror.ErrCodeUnsupportedCurrency,
		"wallets are kept in "+LedgerCurrency+", got "+code,
		domainerror.ErrUnsupportedCurrency,
	)
}

// Amount returns the decimal value.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the ISO code.
func (m Money) Currency() string { return LedgerCurrency }

// String formats the amount for display, e.g. "$1,234.50" or "-$15.50".
func (m Money) String() string {
	cur := currency()
	minor := m.amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

func currency() money.Currency {
	// money.New always yields a non-nil currency.
	return *money.New(0, LedgerCurrency).Currency()
}

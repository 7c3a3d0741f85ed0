package valueobject

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	domainerror "github.com/agency-crm/backend/internal/domain/error"
)

func TestValidateCurrency(t *testing.T) {
	tests := []struct {
		code    string
		wantErr bool
	}{
		{"", false},
		{"USD", false},
		{"usd", false},
		{"EUR", true},
		{"XYZ", true},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := ValidateCurrency(tt.code)
			if tt.wantErr && !errors.Is(err, domainerror.ErrUnsupportedCurrency) {
				t.Errorf("expected ErrUnsupportedCurrency, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseMoney_RejectsSubCentPrecision(t *testing.T) {
	if _, err := ParseMoney(decimal.RequireFromString("15.50"), "USD"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	_, err := ParseMoney(decimal.RequireFromString("15.505"), "USD")
	if !errors.Is(err, domainerror.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestMoney_String(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"184.5", "$184.50"},
		{"1234.56", "$1,234.56"},
		{"-15.5", "-$15.50"},
		{"0", "$0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got := NewMoney(decimal.RequireFromString(tt.amount)).String()
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

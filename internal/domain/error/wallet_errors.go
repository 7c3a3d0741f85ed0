// Package error defines domain-specific errors for the Big Fish wallet service.
package error

import "errors"

// Wallet domain errors.
var (
	// ErrWalletNotFound is returned when no client wallet has the requested id.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrInvalidAmount is returned when a transaction amount is zero or negative.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrInvalidTransactionType is returned when the transaction type is unknown.
	ErrInvalidTransactionType = errors.New("invalid transaction type")

	// ErrInvalidTransactionDate is returned when the transaction date cannot be parsed.
	ErrInvalidTransactionDate = errors.New("invalid transaction date")

	// ErrDescriptionTooLong is returned when the transaction description exceeds the maximum length.
	ErrDescriptionTooLong = errors.New("description too long")

	// ErrInvalidMetadata is returned when campaign metadata carries negative counters or an unknown result type.
	ErrInvalidMetadata = errors.New("invalid campaign metadata")

	// ErrUnsupportedCurrency is returned when an amount is not denominated in the ledger currency.
	ErrUnsupportedCurrency = errors.New("unsupported currency")

	// ErrInvalidStatus is returned when a wallet status is not a known lifecycle marker.
	ErrInvalidStatus = errors.New("invalid wallet status")

	// ErrTransactionNotFound is returned when a transaction id is not present in the wallet.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrDuplicateTransaction is returned when a transaction id is already present in the wallet.
	ErrDuplicateTransaction = errors.New("duplicate transaction id")

	// ErrGrowthTaskNotFound is returned when a growth task id is not present in the wallet.
	ErrGrowthTaskNotFound = errors.New("growth task not found")

	// ErrPortalSuspended is returned when the client portal has been suspended.
	ErrPortalSuspended = errors.New("client portal suspended")

	// ErrReportGenerationFailed is returned when a campaign report cannot be built.
	ErrReportGenerationFailed = errors.New("report generation failed")

	// ErrWalletStoreUnavailable is returned when the local wallet cache cannot be read or written.
	ErrWalletStoreUnavailable = errors.New("wallet store unavailable")
)

// WalletErrorCode defines error codes for wallet errors.
// Format: WAL-XXYYYY where XX is category and YYYY is specific error.
type WalletErrorCode string

const (
	// Validation errors (01XXXX)
	ErrCodeInvalidAmount          WalletErrorCode = "WAL-010001"
	ErrCodeInvalidTransactionType WalletErrorCode = "WAL-010002"
	ErrCodeInvalidTransactionDate WalletErrorCode = "WAL-010003"
	ErrCodeDescriptionTooLong     WalletErrorCode = "WAL-010004"
	ErrCodeMissingWalletFields    WalletErrorCode = "WAL-010005"
	ErrCodeUnsupportedCurrency    WalletErrorCode = "WAL-010006"
	ErrCodeInvalidStatus          WalletErrorCode = "WAL-010007"
	ErrCodeInvalidMetadata        WalletErrorCode = "WAL-010008"

	// Lookup and state errors (02XXXX)
	ErrCodeWalletNotFound       WalletErrorCode = "WAL-020001"
	ErrCodeTransactionNotFound  WalletErrorCode = "WAL-020002"
	ErrCodeGrowthTaskNotFound   WalletErrorCode = "WAL-020003"
	ErrCodeDuplicateTransaction WalletErrorCode = "WAL-020004"
	ErrCodePortalSuspended      WalletErrorCode = "WAL-020005"

	// Dependency errors (03XXXX)
	ErrCodeReportGenerationFailed WalletErrorCode = "WAL-030001"
	ErrCodeWalletStoreUnavailable WalletErrorCode = "WAL-030002"
)

// WalletError represents a wallet error with code and message.
type WalletError struct {
	Code    WalletErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *WalletError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *WalletError) Unwrap() error {
	return e.Err
}

// NewWalletError creates a new WalletError with the given code and message.
func NewWalletError(code WalletErrorCode, message string, err error) *WalletError {
	return &WalletError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

package error

import "errors"

// Sync domain errors.
var (
	// ErrSyncQueueFailed is returned when a sync job cannot be written to the outbox.
	ErrSyncQueueFailed = errors.New("failed to queue sync job")

	// ErrSyncJobNotFound is returned when a sync job is not found.
	ErrSyncJobNotFound = errors.New("sync job not found")

	// ErrSyncFailure is returned when the remote store did not accept a mutation.
	ErrSyncFailure = errors.New("remote sync failed")

	// ErrPermanentSyncFailure is returned when the remote store rejected a mutation for good.
	ErrPermanentSyncFailure = errors.New("permanent sync failure")

	// ErrTemporarySyncFailure is returned when a delivery attempt may succeed later.
	ErrTemporarySyncFailure = errors.New("temporary sync failure")

	// ErrSyncNotAcknowledged is returned when the remote response lacks the expected acknowledgement.
	ErrSyncNotAcknowledged = errors.New("sync not acknowledged")
)

// SyncErrorCode defines error codes for sync errors.
// Format: SYNC-XXYYYY where XX is category and YYYY is specific error.
type SyncErrorCode string

const (
	// Queue errors (01XXXX)
	ErrCodeSyncQueueFailed SyncErrorCode = "SYNC-010001"
	ErrCodeSyncJobNotFound SyncErrorCode = "SYNC-010002"

	// Delivery errors (02XXXX)
	ErrCodeSyncFailure          SyncErrorCode = "SYNC-020001"
	ErrCodePermanentSyncFailure SyncErrorCode = "SYNC-020002"
	ErrCodeTemporarySyncFailure SyncErrorCode = "SYNC-020003"
	ErrCodeSyncNotAcknowledged  SyncErrorCode = "SYNC-020004"
)

// SyncError represents a sync error with code and message.
type SyncError struct {
	Code    SyncErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *SyncError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *SyncError) Unwrap() error {
	return e.Err
}

// NewSyncError creates a new SyncError with the given code and message.
func NewSyncError(code SyncErrorCode, message string, err error) *SyncError {
	return &SyncError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsPermanentSyncError reports whether err should stop further delivery attempts.
func IsPermanentSyncError(err error) bool {
	var syncErr *SyncError
	return errors.As(err, &syncErr) && syncErr.Code == ErrCodePermanentSyncFailure
}

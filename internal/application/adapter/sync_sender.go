package adapter

import (
	"context"

	"github.com/agency-crm/backend/internal/domain/entity"
)

// SyncRequest is one delivery attempt of a local mutation to the remote store.
type SyncRequest struct {
	IdempotencyKey string
	Action         entity.SyncAction
	BigFishID      string
	Body           map[string]interface{}
}

// SyncResult holds what the remote store answered.
type SyncResult struct {
	StatusCode int
	Reference  string
}

// SyncSender delivers a mutation to the remote store.
type SyncSender interface {
	// Send performs one delivery attempt.
	Send(ctx context.Context, request SyncRequest) (*SyncResult, error)
}

// SyncForwarder hands local mutations to the sync adapter.
// Forward never blocks on the remote store and never fails the caller.
type SyncForwarder interface {
	Forward(ctx context.Context, action entity.SyncAction, bigFishID string, fields map[string]interface{})
}

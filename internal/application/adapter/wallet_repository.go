// Package adapter defines interfaces that will be implemented in the integration layer.
package adapter

import (
	"context"
	"time"

	"github.com/agency-crm/backend/internal/domain/entity"
)

// WalletMutation turns a wallet snapshot into its next snapshot.
// Returning an error discards the mutation and nothing is written.
type WalletMutation func(current entity.BigFish) (entity.BigFish, error)

// WalletRepository defines the client wallet store.
// Every write persists the full wallet array before returning.
type WalletRepository interface {
	// List returns every wallet.
	List(ctx context.Context) ([]entity.BigFish, error)

	// GetByID returns the wallet with the given id or ErrWalletNotFound.
	GetByID(ctx context.Context, id string) (*entity.BigFish, error)

	// Create appends a new wallet.
	Create(ctx context.Context, wallet *entity.BigFish) error

	// Mutate applies fn to the wallet with the given id and saves the result.
	// Concurrent calls are serialised, including calls from other processes
	// sharing the same store.
	Mutate(ctx context.Context, id string, fn WalletMutation) (*entity.BigFish, error)
}

// KeyValueStore is the local cache the wallet array is written to.
type KeyValueStore interface {
	// Get returns the value stored under key, or found == false.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set overwrites the value stored under key.
	Set(ctx context.Context, key string, value []byte) error

	// Lock takes a lease on key, waiting until it is free or ctx is done.
	// The lease lapses after ttl if release is never called.
	Lock(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

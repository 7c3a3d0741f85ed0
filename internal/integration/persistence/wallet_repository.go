// Package persistence implements repository interfaces for database operations.
package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/agency-crm/backend/internal/application/adapter"
	"github.com/agency-crm/backend/internal/domain/entity"
	domainerror "github.com/agency-crm/backend/internal/domain/error"
	"github.com/agency-crm/backend/internal/integration/persistence/model"
)

// DefaultWalletKey is the key the wallet array is stored under.
const DefaultWalletKey = "big_fish"

const (
	// storeLockTTL bounds how long a crashed writer can hold the store.
	storeLockTTL = 30 * time.Second
	// storeLockWait is how long a writer waits for another process to finish.
	storeLockWait = 10 * time.Second
)

// walletRepository implements the adapter.WalletRepository interface on top of
// a key-value store. The whole wallet array is read on every call and
// overwritten on every write. Writes hold mu against this process and a
// store lease against other processes, such as walletctl repair.
type walletRepository struct {
	store adapter.KeyValueStore
	key   string
	mu    sync.Mutex
}

// NewWalletRepository creates a new wallet repository instance.
func NewWalletRepository(store adapter.KeyValueStore, key string) adapter.WalletRepository {
	if key == "" {
		key = DefaultWalletKey
	}
	return &walletRepository{
		store: store,
		key:   key,
	}
}

// List returns every wallet.
func (r *walletRepository) List(ctx context.Context) ([]entity.BigFish, error) {
	snap, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Wallets(), nil
}

// GetByID returns the wallet with the given id.
func (r *walletRepository) GetByID(ctx context.Context, id string) (*entity.BigFish, error) {
	snap, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	w, ok := snap.Find(id)
	if !ok {
		return nil, walletNotFound(id)
	}
	return &w, nil
}

// Create appends a new wallet.
func (r *walletRepository) Create(ctx context.Context, wallet *entity.BigFish) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	release, err := r.lock(ctx)
	if err != nil {
		return err
	}
	defer release()

	snap, err := r.load(ctx)
	if err != nil {
		return err
	}
	snap.Append(*wallet)
	return r.save(ctx, snap)
}

// Mutate applies fn to the wallet with the given id and saves the result.
// Only that wallet is re-encoded; every other stored record is written back
// byte for byte.
func (r *walletRepository) Mutate(ctx context.Context, id string, fn adapter.WalletMutation) (*entity.BigFish, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	release, err := r.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	snap, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	current, ok := snap.Find(id)
	if !ok {
		return nil, walletNotFound(id)
	}

	next, err := fn(current.Clone())
	if err != nil {
		return nil, err
	}
	next.ID = current.ID
	next.UpdatedAt = time.Now().UTC()
	snap.Replace(next)

	if err := r.save(ctx, snap); err != nil {
		return nil, err
	}
	result := next.Clone()
	return &result, nil
}

func (r *walletRepository) lock(ctx context.Context) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, storeLockWait)
	defer cancel()

	release, err := r.store.Lock(lockCtx, r.key, storeLockTTL)
	if err != nil {
		return nil, domainerror.NewWalletError(
			domainerror.ErrCodeWalletStoreUnavailable,
			"wallet store is locked by another writer",
			err,
		)
	}
	return release, nil
}

func (r *walletRepository) load(ctx context.Context) (*model.Snapshot, error) {
	data, found, err := r.store.Get(ctx, r.key)
	if err != nil {
		return nil, domainerror.NewWalletError(
			domainerror.ErrCodeWalletStoreUnavailable,
			"failed to read wallets",
			err,
		)
	}
	if !found {
		return &model.Snapshot{}, nil
	}

	snap, err := model.DecodeSnapshot(data)
	if err != nil {
		return nil, domainerror.NewWalletError(
			domainerror.ErrCodeWalletStoreUnavailable,
			"stored wallets are corrupt",
			err,
		)
	}
	return snap, nil
}

func (r *walletRepository) save(ctx context.Context, snap *model.Snapshot) error {
	data, err := snap.Encode()
	if err != nil {
		return domainerror.NewWalletError(
			domainerror.ErrCodeWalletStoreUnavailable,
			"failed to encode wallets",
			err,
		)
	}
	if err := r.store.Set(ctx, r.key, data); err != nil {
		return domainerror.NewWalletError(
			domainerror.ErrCodeWalletStoreUnavailable,
			"failed to write wallets",
			err,
		)
	}
	return nil
}

func walletNotFound(id string) error {
	return domainerror.NewWalletError(
		domainerror.ErrCodeWalletNotFound,
		"wallet "+id+" not found",
		domainerror.ErrWalletNotFound,
	)
}

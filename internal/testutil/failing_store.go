package testutil

import (
	"context"
	"errors"
	"sync"

	"bankroll/internal/models"
	"bankroll/internal/store"
)

// ErrInjected is returned by a FailingStore at its failure point.
var ErrInjected = errors.New("injected store failure")

// Write method names a FailingStore can fail at.
const (
	StepCreateBalance = "CreateBalance"
	StepPatchBalance  = "PatchBalance"
	StepPatchPlayer   = "PatchPlayer"
	StepPatchGroup    = "PatchGroup"
	StepAppendHistory = "AppendHistory"
	StepListBalances  = "ListBalances"
)

// FailingStore wraps a store and fails the named method with ErrInjected.
// Every other call passes through. Calls lists the write methods invoked.
type FailingStore struct {
	store.Store
	FailOn string

	mu    sync.Mutex
	Calls []string
}

// NewFailingStore wraps st so that method failOn fails.
func NewFailingStore(st store.Store, failOn string) *FailingStore {
	return &FailingStore{Store: st, FailOn: failOn}
}

func (f *FailingStore) hit(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, method)
	if method == f.FailOn {
		return ErrInjected
	}
	return nil
}

// CreateBalance implements store.Store.
func (f *FailingStore) CreateBalance(ctx context.Context, b *models.Balance) error {
	if err := f.hit(StepCreateBalance); err != nil {
		return err
	}
	return f.Store.CreateBalance(ctx, b)
}

// PatchBalance implements store.Store.
func (f *FailingStore) PatchBalance(ctx context.Context, handle string, fields store.Fields) error {
	if err := f.hit(StepPatchBalance); err != nil {
		return err
	}
	return f.Store.PatchBalance(ctx, handle, fields)
}

// PatchPlayer implements store.Store.
func (f *FailingStore) PatchPlayer(ctx context.Context, handle string, fields store.Fields) error {
	if err := f.hit(StepPatchPlayer); err != nil {
		return err
	}
	return f.Store.PatchPlayer(ctx, handle, fields)
}

// PatchGroup implements store.Store.
func (f *FailingStore) PatchGroup(ctx context.Context, groupID int64, fields store.Fields) error {
	if err := f.hit(StepPatchGroup); err != nil {
		return err
	}
	return f.Store.PatchGroup(ctx, groupID, fields)
}

// AppendHistory implements store.Store.
func (f *FailingStore) AppendHistory(ctx context.Context, h *models.HistoryRecord) error {
	if err := f.hit(StepAppendHistory); err != nil {
		return err
	}
	return f.Store.AppendHistory(ctx, h)
}

// ListBalances implements store.Store. Reads are not recorded in Calls.
func (f *FailingStore) ListBalances(ctx context.Context, q store.BalanceQuery) ([]models.Balance, error) {
	if f.FailOn == StepListBalances {
		return nil, ErrInjected
	}
	return f.Store.ListBalances(ctx, q)
}

// Disarm stops injecting failures.
func (f *FailingStore) Disarm() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FailOn = ""
}

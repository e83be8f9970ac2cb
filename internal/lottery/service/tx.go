package service

import (
	"context"
	"sync"
	"time"

	"lotellar/internal/lottery/models"
	dErrors "lotellar/pkg/domain-errors"
)

// RegistryTx provides the single-writer boundary for registry operations.
// Implementations may wrap a database transaction or, in-memory, a coarse lock.
// fn must not retain store after returning.
type RegistryTx interface {
	RunInTx(ctx context.Context, fn func(store RegistryStore) error) error
}

// defaultTxTimeout is the maximum duration for a registry transaction.
const defaultTxTimeout = 5 * time.Second

// lockedTx serializes every operation behind one mutex. The registry is a
// single aggregate so there is nothing to shard on.
type lockedTx struct {
	mu      sync.Mutex
	store   RegistryStore
	timeout time.Duration
}

// NewLockedTx wraps store with a process-wide lock. A zero timeout means
// defaultTxTimeout.
func NewLockedTx(store RegistryStore, timeout time.Duration) RegistryTx {
	return &lockedTx{store: store, timeout: timeout}
}

func (t *lockedTx) RunInTx(ctx context.Context, fn func(store RegistryStore) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	buffered := &lockedTxStore{store: t.store}
	if err := fn(buffered); err != nil {
		return err
	}
	if buffered.pending == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return t.store.Save(ctx, buffered.pending)
}

// lockedTxStore holds saves until fn succeeds, so a failed operation leaves
// the underlying store untouched.
type lockedTxStore struct {
	store   RegistryStore
	pending *models.Registry
}

func (s *lockedTxStore) Load(ctx context.Context) (*models.Registry, error) {
	if s.pending != nil {
		return s.pending.Clone(), nil
	}
	return s.store.Load(ctx)
}

func (s *lockedTxStore) Save(_ context.Context, reg *models.Registry) error {
	s.pending = reg.Clone()
	return nil
}

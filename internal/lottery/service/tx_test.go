package service_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotellar/internal/lottery/models"
	"lotellar/internal/lottery/service"
	"lotellar/internal/lottery/store/registry"
	dErrors "lotellar/pkg/domain-errors"
	"lotellar/pkg/platform/sentinel"
)

func registryWith(t *testing.T, names ...string) *models.Registry {
	t.Helper()
	reg := models.NewRegistry()
	for _, name := range names {
		id, err := reg.NextID()
		require.NoError(t, err)
		l, err := models.NewLottery(id, "GCREATOR", name, big.NewInt(1), 0, 2, time.Unix(0, 0).UTC())
		require.NoError(t, err)
		require.NoError(t, reg.Add(l))
	}
	return reg
}

func loadVia(t *testing.T, tx service.RegistryTx) (*models.Registry, error) {
	t.Helper()
	var reg *models.Registry
	err := tx.RunInTx(context.Background(), func(store service.RegistryStore) error {
		var err error
		reg, err = store.Load(context.Background())
		return err
	})
	return reg, err
}

func TestLockedTx_FailedOperationLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	store := registry.NewInMemory()
	tx := service.NewLockedTx(store, 0)

	boom := errors.New("boom")
	err := tx.RunInTx(ctx, func(s service.RegistryStore) error {
		require.NoError(t, s.Save(ctx, registryWith(t, "Daily")))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	require.NoError(t, store.Save(ctx, registryWith(t, "Daily")))
	err = tx.RunInTx(ctx, func(s service.RegistryStore) error {
		require.NoError(t, s.Save(ctx, models.NewRegistry()))
		return boom
	})
	require.ErrorIs(t, err, boom)

	reg, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, reg.Lotteries, 1)
}

func TestLockedTx_SavesAreVisibleWithinTheOperation(t *testing.T) {
	ctx := context.Background()
	store := registry.NewInMemory()
	tx := service.NewLockedTx(store, 0)

	err := tx.RunInTx(ctx, func(s service.RegistryStore) error {
		if err := s.Save(ctx, registryWith(t, "Daily")); err != nil {
			return err
		}
		reg, err := s.Load(ctx)
		if err != nil {
			return err
		}
		assert.Equal(t, models.ID(1), reg.Counter)

		// Mutating the loaded copy must not change the pending save.
		reg.Counter = 42
		again, err := s.Load(ctx)
		if err != nil {
			return err
		}
		assert.Equal(t, models.ID(1), again.Counter)
		return nil
	})
	require.NoError(t, err)

	reg, err := loadVia(t, tx)
	require.NoError(t, err)
	assert.Equal(t, models.ID(1), reg.Counter)
}

func TestLockedTx_ReadOnlyOperationDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	store := registry.NewInMemory()
	tx := service.NewLockedTx(store, 0)

	_, err := loadVia(t, tx)
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestLockedTx_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := service.NewLockedTx(registry.NewInMemory(), 0).RunInTx(ctx, func(service.RegistryStore) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
}

package lottery

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotellar/internal/auth"
	"lotellar/internal/lottery/models"
	"lotellar/internal/platform/config"
	"lotellar/pkg/requestcontext"
)

func testConfig() config.LotteryConfig {
	return config.LotteryConfig{
		Revision:         "v2",
		Store:            config.BackendMemory,
		InitPolicy:       "once",
		CompletionPolicy: "creator",
		Oracles:          []string{"GORACLE"},
		MaxParticipants:  3,
		TxTimeout:        time.Second,
	}
}

func newDeps(cfg config.LotteryConfig) Deps {
	return Deps{
		Backend:    MemoryBackend(cfg),
		Gate:       auth.NewGate(),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Registerer: prometheus.NewRegistry(),
	}
}

func TestNewModule_WiresConfiguration(t *testing.T) {
	cfg := testConfig()
	mod, err := NewModule(cfg, newDeps(cfg))
	require.NoError(t, err)
	assert.Equal(t, models.RevisionV2, mod.Service.Revision())

	ctx := context.Background()
	as := func(p string) context.Context { return requestcontext.WithPrincipal(ctx, p) }

	require.NoError(t, mod.Service.Initialize(ctx))
	err = mod.Service.Initialize(ctx)
	assert.ErrorIs(t, err, models.ErrAlreadyInitialized, "init policy once")

	_, err = mod.Service.CreateLottery(as("GCREATOR"), "GCREATOR", "Big", big.NewInt(1), 0, 4)
	assert.ErrorIs(t, err, models.ErrInvalidInput, "participant ceiling applies")

	id, err := mod.Service.CreateLottery(as("GCREATOR"), "GCREATOR", "Daily", big.NewInt(1), 0, 3)
	require.NoError(t, err)
	require.NoError(t, mod.Service.EnterLottery(as("GP1"), "GP1", id))
	require.NoError(t, mod.Service.CompleteLottery(as("GORACLE"), "GORACLE", id, "GP1"), "configured oracle may complete")
}

func TestNewModule_RejectsBadConfiguration(t *testing.T) {
	for name, mutate := range map[string]func(*config.LotteryConfig){
		"revision":   func(c *config.LotteryConfig) { c.Revision = "v3" },
		"init":       func(c *config.LotteryConfig) { c.InitPolicy = "sometimes" },
		"completion": func(c *config.LotteryConfig) { c.CompletionPolicy = "anyone" },
		"oracle":     func(c *config.LotteryConfig) { c.Oracles = []string{"G ORACLE"} },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			mutate(&cfg)
			_, err := NewModule(cfg, newDeps(cfg))
			assert.Error(t, err)
		})
	}

	_, err := NewModule(testConfig(), Deps{})
	assert.Error(t, err)
}

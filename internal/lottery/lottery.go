// Package lottery assembles the lottery registry module: service options
// from configuration, the chosen registry backend and the HTTP handler.
package lottery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"lotellar/internal/lottery/handler"
	"lotellar/internal/lottery/metrics"
	"lotellar/internal/lottery/models"
	"lotellar/internal/lottery/service"
	"lotellar/internal/lottery/store/registry"
	"lotellar/internal/platform/config"
)

// Backend is a registry transaction runner plus its health check.
type Backend struct {
	Name string
	Tx   service.RegistryTx
	Ping func(ctx context.Context) error
}

// MemoryBackend keeps the registry in process; state is lost on restart.
func MemoryBackend(cfg config.LotteryConfig) Backend {
	store := registry.NewInMemory()
	return Backend{
		Name: string(config.BackendMemory),
		Tx:   service.NewLockedTx(store, cfg.TxTimeout),
		Ping: store.Ping,
	}
}

type Deps struct {
	Backend    Backend
	Gate       service.AuthGate
	Logger     *slog.Logger
	Audit      service.AuditPublisher
	Registerer prometheus.Registerer
}

type Module struct {
	Service *service.Service
	Handler *handler.Handler
}

// NewModule validates the lottery configuration and wires the service.
func NewModule(cfg config.LotteryConfig, deps Deps) (*Module, error) {
	if deps.Backend.Tx == nil {
		return nil, errors.New("lottery backend is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	rev, err := models.ParseRevision(cfg.Revision)
	if err != nil {
		return nil, fmt.Errorf("LOTTERY_REVISION: %w", err)
	}
	initPolicy, err := service.ParseInitPolicy(cfg.InitPolicy)
	if err != nil {
		return nil, fmt.Errorf("LOTTERY_INIT_POLICY: %w", err)
	}
	completionPolicy, err := service.ParseCompletionPolicy(cfg.CompletionPolicy)
	if err != nil {
		return nil, fmt.Errorf("LOTTERY_COMPLETION_POLICY: %w", err)
	}
	oracles := make([]models.Address, 0, len(cfg.Oracles))
	for _, raw := range cfg.Oracles {
		addr, err := models.ParseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("LOTTERY_ORACLES: %w", err)
		}
		oracles = append(oracles, addr)
	}

	opts := []service.Option{
		service.WithRevision(rev),
		service.WithRequireInit(cfg.RequireInit),
		service.WithInitPolicy(initPolicy),
		service.WithCompletionPolicy(completionPolicy),
		service.WithOracles(oracles...),
		service.WithMaxParticipants(cfg.MaxParticipants),
		service.WithLogger(deps.Logger),
	}
	if deps.Audit != nil {
		opts = append(opts, service.WithAuditPublisher(deps.Audit))
	}
	if deps.Registerer != nil {
		opts = append(opts, service.WithMetrics(metrics.New(deps.Registerer)))
	}

	svc, err := service.New(deps.Backend.Tx, deps.Gate, opts...)
	if err != nil {
		return nil, err
	}
	deps.Logger.Info("lottery module ready",
		"revision", rev,
		"store", deps.Backend.Name,
		"init_policy", initPolicy,
		"completion_policy", completionPolicy,
		"oracles", len(oracles),
	)
	return &Module{Service: svc, Handler: handler.New(svc, deps.Logger)}, nil
}

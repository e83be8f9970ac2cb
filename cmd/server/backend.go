package main

import (
	"context"
	"fmt"
	"io"

	"lotellar/internal/lottery"
	"lotellar/internal/lottery/store/registry"
	"lotellar/internal/platform/config"
	"lotellar/internal/platform/mongo"
	"lotellar/internal/platform/postgres"
	redisclient "lotellar/internal/platform/redis"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// openBackend connects the configured registry store. The returned closer
// releases its connections; redis is returned separately because token
// revocation shares it.
func openBackend(ctx context.Context, cfg config.Server) (lottery.Backend, *redisclient.Client, io.Closer, error) {
	noop := closerFunc(func() error { return nil })

	rc, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return lottery.Backend{}, nil, noop, err
	}
	closeRedis := closerFunc(func() error {
		if rc == nil {
			return nil
		}
		return rc.Close()
	})

	switch cfg.Lottery.Store {
	case config.BackendMemory:
		return lottery.MemoryBackend(cfg.Lottery), rc, closeRedis, nil

	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			_ = closeRedis()
			return lottery.Backend{}, nil, noop, err
		}
		tx := registry.NewPostgresRegistryTx(db, cfg.Lottery.TxTimeout)
		return lottery.Backend{Name: string(cfg.Lottery.Store), Tx: tx, Ping: tx.Ping}, rc,
			closerFunc(func() error { _ = closeRedis(); return db.Close() }), nil

	case config.BackendRedis:
		tx := registry.NewRedisRegistryTx(rc.Client, registry.WithRedisTimeout(cfg.Lottery.TxTimeout))
		return lottery.Backend{Name: string(cfg.Lottery.Store), Tx: tx, Ping: tx.Ping}, rc, closeRedis, nil

	case config.BackendMongo:
		mc, err := mongo.NewClient(ctx, cfg.Mongo)
		if err != nil {
			_ = closeRedis()
			return lottery.Backend{}, nil, noop, err
		}
		tx := registry.NewMongoRegistryTx(mc.Database(), cfg.Lottery.TxTimeout)
		return lottery.Backend{Name: string(cfg.Lottery.Store), Tx: tx, Ping: tx.Ping}, rc,
			closerFunc(func() error { _ = closeRedis(); return mc.Disconnect(context.Background()) }), nil
	}
	_ = closeRedis()
	return lottery.Backend{}, nil, noop, fmt.Errorf("unknown lottery store %q", cfg.Lottery.Store)
}

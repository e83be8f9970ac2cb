package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"lotellar/internal/admin"
	"lotellar/internal/auth"
	"lotellar/internal/lottery"
	"lotellar/internal/platform/config"
	"lotellar/internal/platform/health"
	"lotellar/internal/platform/httpserver"
	"lotellar/internal/platform/kafka"
	"lotellar/internal/platform/logger"
	"lotellar/internal/platform/metrics"
	"lotellar/internal/platform/middleware"
	audit "lotellar/pkg/platform/audit"
	"lotellar/pkg/platform/audit/publisher"
	auditkafka "lotellar/pkg/platform/audit/store/kafka"
	auditmemory "lotellar/pkg/platform/audit/store/memory"
	adminmw "lotellar/pkg/platform/middleware/admin"
	authmw "lotellar/pkg/platform/middleware/auth"
	"lotellar/pkg/platform/middleware/request"
	"lotellar/pkg/platform/middleware/requesttime"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	if err := run(); err != nil {
		slog.Error("lotellar exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	backend, rc, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Lottery.Store, err)
	}
	defer func() { _ = closeBackend.Close() }()

	checks := map[string]health.Check{"registry": backend.Ping}

	// Audit events always land in memory for /admin/audit; kafka is an
	// additional sink.
	trail := auditmemory.NewInMemoryStore()
	var sink audit.Store = trail
	kc, err := kafka.NewClient(ctx, cfg.Kafka)
	if err != nil {
		return err
	}
	if kc != nil {
		defer kc.Close()
		if err := auditkafka.EnsureTopic(ctx, kc, cfg.Kafka.AuditTopic, 3, 1); err != nil {
			return err
		}
		sink = audit.Fanout{sink, auditkafka.New(kc, cfg.Kafka.AuditTopic)}
		checks["audit"] = kc.Ping
	}
	pubOpts := []publisher.Option{
		publisher.WithAsyncBuffer(cfg.Lottery.AuditBuffer),
		publisher.WithLogger(log),
		publisher.WithMetrics(publisher.NewMetrics(reg)),
	}
	if cfg.Lottery.AuditOpsSampleRate < 1 {
		pubOpts = append(pubOpts, publisher.WithSampler(publisher.NewSampler(cfg.Lottery.AuditOpsSampleRate)))
	}
	auditPub := publisher.NewPublisher(sink, pubOpts...)

	tokens := auth.NewTokenService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	var revocations auth.Revocations = auth.NewInMemoryRevocations()
	if rc != nil {
		revocations = auth.NewRedisRevocations(rc.Client)
		if cfg.Lottery.Store != config.BackendRedis {
			checks["redis"] = rc.Health
		}
	}

	mod, err := lottery.NewModule(cfg.Lottery, lottery.Deps{
		Backend:    backend,
		Gate:       auth.NewGate(),
		Logger:     log,
		Audit:      auditPub,
		Registerer: reg,
	})
	if err != nil {
		return err
	}
	if cfg.AdminAPIToken == "" {
		log.Warn("ADMIN_API_TOKEN not set; admin routes will reject every request")
	}

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Metrics(metrics.New(reg)))
	r.Use(requesttime.Middleware)

	r.Get("/healthz", health.Handler(checks, 2*time.Second))
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mod.Handler.Register(r)
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(auth.NewMiddlewareValidator(tokens), revocations, log))
		mod.Handler.RegisterAuthenticated(r)
	})
	r.Group(func(r chi.Router) {
		r.Use(adminmw.RequireAdminToken(cfg.AdminAPIToken, log))
		mod.Handler.RegisterAdmin(r)
		auth.NewHandler(tokens, revocations, log).Register(r)
		admin.NewHandler(trail, log).Register(r)
	})

	srv := httpserver.New(cfg.Addr, r)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting lotellar", "addr", cfg.Addr, "store", backend.Name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		// Drain queued audit events only after in-flight requests finished emitting.
		auditPub.Close()
		if err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		log.Info("lotellar stopped")
		return nil
	})
	return g.Wait()
}

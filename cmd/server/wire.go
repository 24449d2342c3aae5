package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"condo/internal/governance/adapter"
	"condo/internal/governance/handler"
	govmetrics "condo/internal/governance/metrics"
	"condo/internal/governance/models"
	"condo/internal/governance/notify"
	"condo/internal/governance/service"
	"condo/internal/governance/store"
	"condo/internal/governance/store/sqlstore"
	jwttoken "condo/internal/jwt_token"
	"condo/internal/platform/config"
	"condo/internal/platform/database"
	httpmetrics "condo/internal/platform/metrics"
	"condo/internal/platform/middleware"
	platformredis "condo/internal/platform/redis"
	rlmetrics "condo/internal/ratelimit/metrics"
	ratelimit "condo/internal/ratelimit/middleware"
	"condo/internal/ratelimit/store/bucket"
	id "condo/pkg/domain"
	audit "condo/pkg/platform/audit"
	auditpublisher "condo/pkg/platform/audit/publisher"
	auditmemory "condo/pkg/platform/audit/store/memory"
	"condo/pkg/platform/httputil"
	authmw "condo/pkg/platform/middleware/auth"
	"condo/pkg/platform/middleware/metadata"
	"condo/pkg/platform/middleware/requesttime"
)

// auditBuffer bounds the async audit queue.
const auditBuffer = 1024

type app struct {
	router  http.Handler
	broker  *notify.Broker
	closers []func()
}

// close releases resources in reverse acquisition order.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func build(ctx context.Context, cfg config.Config, log *slog.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	owner, err := id.ParseAddress(cfg.Governance.Owner)
	if err != nil {
		return nil, fmt.Errorf("governance owner: %w", err)
	}
	manager, err := id.ParseAddress(cfg.Governance.Manager)
	if err != nil {
		return nil, fmt.Errorf("governance manager: %w", err)
	}
	implAddr, err := id.ParseAddress(cfg.Governance.Implementation)
	if err != nil {
		return nil, fmt.Errorf("governance implementation: %w", err)
	}
	quota, err := models.ParseAmount(cfg.Governance.MonthlyQuota)
	if err != nil {
		return nil, fmt.Errorf("monthly quota: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	govMetrics := govmetrics.New(reg)

	st, trail, err := openStore(ctx, cfg.Storage, a)
	if err != nil {
		return nil, err
	}
	auditPub := auditpublisher.NewPublisher(trail,
		auditpublisher.WithAsyncBuffer(auditBuffer),
		auditpublisher.WithLogger(log),
	)
	a.closers = append(a.closers, auditPub.Close)

	newEngine := func(addr id.Address) (*service.Service, error) {
		svc, err := service.New(st,
			service.WithAddress(addr),
			service.WithLogger(log),
			service.WithAuditPublisher(auditPub),
			service.WithMetrics(govMetrics),
		)
		if err != nil {
			return nil, fmt.Errorf("create governance service %s: %w", addr, err)
		}
		return svc, nil
	}
	svc, err := newEngine(implAddr)
	if err != nil {
		return nil, err
	}
	if err := svc.Bootstrap(ctx, manager, quota); err != nil {
		return nil, fmt.Errorf("bootstrap governance: %w", err)
	}

	a.broker = notify.NewBroker(64, log)
	publishers, err := buildPublishers(ctx, cfg, a)
	if err != nil {
		return nil, err
	}

	registry, err := adapter.NewRegistry(svc)
	if err != nil {
		return nil, fmt.Errorf("create registry: %w", err)
	}
	for _, raw := range cfg.Governance.Standby {
		addr, err := id.ParseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("standby implementation %q: %w", raw, err)
		}
		standby, err := newEngine(addr)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(standby); err != nil {
			return nil, fmt.Errorf("register standby %s: %w", addr, err)
		}
	}
	gov, err := adapter.New(owner, registry,
		adapter.WithPublisher(publishers),
		adapter.WithAuditPublisher(auditPub),
		adapter.WithMetrics(govMetrics),
		adapter.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("create adapter: %w", err)
	}
	if err := gov.Upgrade(ctx, owner, implAddr); err != nil {
		return nil, fmt.Errorf("install implementation: %w", err)
	}

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	var primary ratelimit.BucketStore = bucket.NewInMemoryBucketStore()
	if redisClient != nil {
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
		primary = bucket.NewRedisBucketStore(redisClient.Client)
	}
	limiter := ratelimit.New(primary, cfg.RateLimit.Writes, cfg.RateLimit.Window, log,
		ratelimit.WithDisabled(cfg.RateLimit.Disabled),
		ratelimit.WithAuditPublisher(auditPub),
		ratelimit.WithMetrics(rlmetrics.New(reg)),
	)

	tokens := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
	h := handler.New(gov, log,
		handler.WithEvents(a.broker),
		handler.WithWriteMiddleware(
			authmw.RequireAuth(jwttoken.NewJWTServiceAdapter(tokens), log),
			limiter.LimitWrites,
		),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Latency(httpmetrics.New(reg)))

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/healthz", healthz(st, redisClient))
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
		h.Register(r)
	})
	h.RegisterStream(r)

	a.router = r
	return a, nil
}

// openStore returns the governance store and the audit trail that shares it.
func openStore(ctx context.Context, cfg config.Storage, a *app) (store.TxStore, audit.Store, error) {
	if cfg.Driver == "" || cfg.Driver == "memory" {
		return store.NewInMemoryStore(), auditmemory.NewInMemoryStore(), nil
	}
	db, dialect, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	a.closers = append(a.closers, func() { _ = db.Close() })

	st, err := sqlstore.New(db, dialect)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return st, st.Audit(), nil
}

// buildPublishers fans notifications out to the SSE broker and, when
// configured, Kafka and NATS.
func buildPublishers(ctx context.Context, cfg config.Config, a *app) (notify.Multi, error) {
	out := notify.Multi{a.broker}
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := notify.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, kafka.Close)
		if err := kafka.EnsureTopic(ctx, 1, 1); err != nil {
			return nil, err
		}
		out = append(out, kafka)
	}
	if cfg.NATS.URL != "" {
		nc, err := notify.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = nc.Close() })
		out = append(out, nc)
	}
	return out, nil
}

type healthResponse struct {
	Status string `json:"status"`
	Redis  string `json:"redis,omitempty"`
}

// healthz reports ok once the store answers a read. Redis is reported but
// does not fail the probe because the limiter falls back to memory.
func healthz(st store.Store, redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		resp := healthResponse{Status: "ok"}
		if _, err := st.CountResidents(ctx); err != nil {
			resp.Status = "unavailable"
			httputil.WriteJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		if redisClient != nil {
			resp.Redis = "ok"
			if err := redisClient.Health(ctx); err != nil {
				resp.Redis = "degraded"
			}
		}
		httputil.WriteJSON(w, http.StatusOK, resp)
	}
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"sirenops/internal/decision"
	"sirenops/internal/guard"
	"sirenops/internal/ledger"
	ledgerhandler "sirenops/internal/ledger/handler"
	"sirenops/internal/org"
	"sirenops/internal/outbox"
	"sirenops/internal/outbox/dedupe"
	"sirenops/internal/platform/config"
	"sirenops/internal/platform/httpserver"
	"sirenops/internal/platform/kafka"
	"sirenops/internal/platform/logger"
	"sirenops/internal/platform/metrics"
	"sirenops/internal/platform/middleware"
	"sirenops/internal/platform/migrate"
	"sirenops/internal/platform/postgres"
	platformredis "sirenops/internal/platform/redis"
	"sirenops/internal/policy"
	policyadmin "sirenops/internal/policy/admin"
	policyhandler "sirenops/internal/policy/handler"
	"sirenops/migrations"
)

// main wires dependencies and keeps the process lifecycle small. Business
// logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	var (
		orgStore    org.Store
		policyStore policy.Store
		ledgerStore ledger.Store
		outboxStore outbox.Store
		txManager   guard.TxManager
		locker      guard.ResourceLocker
	)
	if cfg.Postgres.URL != "" {
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := migrate.New(db, migrations.FS).Up(ctx); err != nil {
			return err
		}
		orgStore = org.NewPostgres(db)
		policyStore = policy.NewPostgres(db)
		ledgerStore = ledger.NewPostgres(db)
		outboxStore = outbox.NewPostgres(db)
		txManager = guard.NewSQLTxManager(db)
		locker = guard.NewAdvisoryLocker()
		log.Info("using postgres stores")
	} else {
		orgStore = org.NewInMemory()
		policyStore = policy.NewInMemory()
		ledgerStore = ledger.NewInMemory()
		outboxStore = outbox.NewInMemory()
		txManager = guard.NewInMemoryTxManager()
		locker = guard.NewNoopLocker()
		log.Warn("SIRENOPS_POSTGRES_URL not set, using in-memory stores")
	}

	guardSvc := guard.New(orgStore, decision.New(policyStore), ledgerStore, outboxStore, txManager, log,
		guard.WithMetrics(m), guard.WithLocker(locker))
	policySvc := policyadmin.NewService(policyStore, guardSvc, log)

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	registry := outbox.NewRegistry()
	registry.Subscribe(nil, eventLogger(log))
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(ctx, cfg.Kafka)
		if err != nil {
			return err
		}
		defer producer.Close()

		var deduper dedupe.Deduper = dedupe.NewInMemory()
		if redisClient != nil {
			// Keep ids around well past the longest redelivery backoff.
			deduper = dedupe.NewRedis(redisClient.Client, 24*time.Hour)
		}
		registry.Subscribe(nil, outbox.Deduplicated(deduper, outbox.NewKafkaRelay(producer)))
		log.Info("kafka relay enabled", "topic", cfg.Kafka.Topic)
	}

	dispatcher := outbox.NewDispatcher(outboxStore, registry, log,
		outbox.WithPollInterval(cfg.Outbox.PollInterval),
		outbox.WithBatchSize(cfg.Outbox.BatchSize),
		outbox.WithMaxBackoff(cfg.Outbox.MaxBackoff),
		outbox.WithMetrics(m))

	router := newRouter(cfg, log, policySvc, ledgerStore, func(healthCtx context.Context) error {
		if redisClient != nil {
			return redisClient.Health(healthCtx)
		}
		return nil
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting sirenops", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := dispatcher.Run(gCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newRouter(cfg config.Config, log *slog.Logger, policySvc *policyadmin.Service, ledgerStore ledger.Store, health func(context.Context) error) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RequestTime)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := health(req.Context()); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(admin chi.Router) {
		admin.Use(
			middleware.RequireAdminToken(cfg.AdminToken, log),
			middleware.RequireActor(cfg.JWTSigningKey, log),
		)
		policyhandler.New(policySvc, log).Register(admin)
		ledgerhandler.New(ledgerStore, log).Register(admin)
	})
	return r
}

// eventLogger surfaces every delivered event in the process log, which is
// the only consumer in dev mode where Kafka is not configured.
func eventLogger(log *slog.Logger) outbox.Handler {
	return outbox.HandlerFunc(func(ctx context.Context, event *outbox.Event) error {
		log.InfoContext(ctx, "event delivered",
			"event_id", event.ID,
			"event_type", event.Type,
			"org_id", event.OrgID,
			"resource_type", event.ResourceType,
			"resource_id", event.ResourceID,
		)
		return nil
	})
}

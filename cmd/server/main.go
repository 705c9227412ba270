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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"mastery/internal/ledger/collaborator"
	"mastery/internal/ledger/events"
	ledgerhandler "mastery/internal/ledger/handler"
	ledgermetrics "mastery/internal/ledger/metrics"
	"mastery/internal/ledger/service"
	"mastery/internal/ledger/store"
	"mastery/internal/platform/clock"
	"mastery/internal/platform/config"
	"mastery/internal/platform/database"
	"mastery/internal/platform/health"
	"mastery/internal/platform/kafka/producer"
	"mastery/internal/platform/logger"
	platformmetrics "mastery/internal/platform/metrics"
	"mastery/internal/platform/redis"
	"mastery/internal/platform/tracer"
	httptransport "mastery/internal/transport/http"
	id "mastery/pkg/domain"
	"mastery/pkg/platform/middleware/auth"
	request "mastery/pkg/platform/middleware/request"
)

const (
	shutdownTimeout   = 10 * time.Second
	poolStatsInterval = 15 * time.Second
	eventBufferSize   = 1024
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal/ledger.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	log.Info("initializing mastery ledger",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"store", cfg.Store,
		"kafka", cfg.Kafka.Brokers != "",
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	poolMetrics := platformmetrics.New(reg)
	healthHandler := health.New(cfg.Environment, cfg.Store)

	g, ctx := errgroup.WithContext(ctx)

	backend, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backend.close()
	if backend.check != nil {
		healthHandler.RegisterCheck(cfg.Store, backend.check)
	}
	if backend.reportStats != nil {
		g.Go(func() error {
			backend.reportStats(ctx, poolMetrics, poolStatsInterval)
			return nil
		})
	}

	opts := []service.Option{
		service.WithTx(backend.tx),
		service.WithFeeCollector(collaborator.NewBank()),
		service.WithMinter(collaborator.NewNFTRegistry()),
		service.WithMetrics(ledgermetrics.NewWithRegisterer(reg)),
		service.WithTracer(tracer.NewOTel()),
	}

	if cfg.Kafka.Brokers != "" {
		prod, err := producer.New(cfg.Kafka, log)
		if err != nil {
			return fmt.Errorf("create kafka producer: %w", err)
		}
		defer prod.Close() //nolint:errcheck // best-effort flush on shutdown
		healthHandler.RegisterCheck("kafka", prod.Health)

		publisher := events.NewPublisher(events.NewKafkaSink(prod),
			events.WithAsyncBuffer(eventBufferSize),
			events.WithPublisherLogger(log),
		)
		defer publisher.Close()
		opts = append(opts,
			service.WithPublisher(publisher),
			service.WithRewardPayer(collaborator.NewKafkaRewardPayer(prod, log)),
		)
	} else {
		opts = append(opts, service.WithRewardPayer(collaborator.NewRewardPool()))
	}

	admin, err := id.ParsePrincipal(cfg.Ledger.Admin)
	if err != nil || admin.IsNil() {
		return fmt.Errorf("MASTERY_ADMIN_PRINCIPAL must name a principal")
	}
	svc := service.NewService(backend.store, admin, log, opts...)

	blocks := clock.New(cfg.Clock.Genesis, cfg.Clock.BlockTime)
	if err := bootstrap(ctx, svc, cfg.Ledger, blocks.HeightAt(time.Now()), log); err != nil {
		return fmt.Errorf("bootstrap ledger config: %w", err)
	}

	tokens := auth.NewTokenService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.TokenTTL)
	router := httptransport.NewRouter(httptransport.Deps{
		Ledger:   ledgerhandler.New(svc, blocks, log),
		Health:   healthHandler,
		Tokens:   tokens,
		Gatherer: reg,
		Latency:  request.NewMetrics(reg),
		Logger:   log,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// storeBackend bundles the selected store with its transaction boundary and
// the hooks main needs for health and pool metrics.
type storeBackend struct {
	store       service.Store
	tx          service.LedgerTx
	check       health.CheckFunc
	reportStats func(ctx context.Context, m *platformmetrics.Pools, interval time.Duration)
	close       func()
}

func openStore(ctx context.Context, cfg config.Server, log *slog.Logger) (*storeBackend, error) {
	switch cfg.Store {
	case config.StorePostgres:
		dbCfg := database.DefaultConfig()
		dbCfg.URL = cfg.DatabaseURL
		pool, err := database.New(ctx, dbCfg)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		log.Info("using postgres ledger store")
		return &storeBackend{
			store:       store.NewPostgres(pool.DB()),
			tx:          newLedgerPostgresTx(pool.DB()),
			check:       pool.Health,
			reportStats: pool.ReportPoolStats,
			close:       func() { _ = pool.Close() },
		}, nil

	case config.StoreRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		log.Info("using redis ledger store")
		return &storeBackend{
			store:       store.NewRedis(client.Client),
			tx:          service.NewMutexTx(),
			check:       client.Health,
			reportStats: client.ReportPoolStats,
			close:       func() { _ = client.Close() },
		}, nil

	default:
		log.Warn("using in-memory ledger store; state is lost on restart")
		return &storeBackend{
			store: store.NewInMemory(),
			tx:    service.NewMutexTx(),
			close: func() {},
		}, nil
	}
}

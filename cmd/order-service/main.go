package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/dmehra2102/orderflow/internal/config"
	"github.com/dmehra2102/orderflow/internal/order/application"
	ordergrpc "github.com/dmehra2102/orderflow/internal/order/infrastructure/grpc"
	orderhttp "github.com/dmehra2102/orderflow/internal/order/infrastructure/http"
	"github.com/dmehra2102/orderflow/internal/order/infrastructure/identity"
	orderkafka "github.com/dmehra2102/orderflow/internal/order/infrastructure/kafka"
	orderpg "github.com/dmehra2102/orderflow/internal/order/infrastructure/postgres"
	"github.com/dmehra2102/orderflow/pkg/logging"
	"github.com/dmehra2102/orderflow/pkg/metrics"
	"github.com/dmehra2102/orderflow/pkg/outbox"
	"github.com/dmehra2102/orderflow/pkg/shutdown"
	"github.com/dmehra2102/orderflow/pkg/tracing"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "order-service:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadOrderService()
	if err != nil {
		return err
	}
	log, err := logging.New("order-service", cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := shutdown.WithSignals(context.Background(), log)
	defer cancel()

	tp, err := tracing.Init(ctx, "order-service", cfg.OTLPEndpoint, log)
	if err != nil {
		return err
	}

	pool, err := pgxpool.New(ctx, cfg.PGURL)
	if err != nil {
		return fmt.Errorf("pg connect: %w", err)
	}
	defer pool.Close()
	if err := orderpg.Migrate(ctx, pool); err != nil {
		return err
	}

	reg := metrics.NewRegistry()
	orderMetrics := metrics.NewOrders(reg.Registerer())

	products, err := ordergrpc.NewProductClient(log, cfg.ProductAuthority, cfg.RemoteTimeout)
	if err != nil {
		return err
	}
	defer func() { _ = products.Close() }()
	users := identity.NewClient(log, cfg.IdentityURL, cfg.RemoteTimeout)

	// Outbox relay
	writer := orderkafka.NewWriter(log, cfg.KafkaBrokers)
	outboxStore := orderpg.NewOutboxStore(log, pool, cfg.OutboxMaxAttempts)
	dispatch := outbox.NewDispatcher(log, writer, cfg.OutboxTopic)
	relay := outbox.NewRelay(log, outboxStore, dispatch, metrics.NewOutbox(reg.Registerer()), "order-service-relay",
		outbox.WithBatchSize(cfg.OutboxBatchSize),
		outbox.WithInterval(cfg.OutboxInterval),
	)

	store := orderpg.NewRepository(log, pool)
	orch := application.NewOrchestrator(log, store, products, orderpg.NewEventPublisher(log, pool, "order-service"), orderMetrics,
		application.WithCompensationTimeout(cfg.CompensationTimeout),
	)
	enricher := application.NewEnricher(log, store, products, users, orderMetrics,
		application.WithConcurrency(cfg.EnrichConcurrency),
		application.WithLookupTimeout(cfg.RemoteTimeout),
	)
	handler := orderhttp.NewHandler(log, orch, enricher)

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	r.Handle("/metrics", reg.Handler())
	r.Mount("/", handler.Routes())
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := relay.Run(ctx); err != nil {
			log.Error("relay stopped with error", zap.Error(err))
		}
	}()

	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()

	shutdown.Run(log, 10*time.Second,
		tp.Shutdown,
		writer.Shutdown,
		srv.Shutdown,
	)
	log.Info("order-service shutdown complete")
	return nil
}

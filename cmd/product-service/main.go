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
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/dmehra2102/orderflow/internal/config"
	invapp "github.com/dmehra2102/orderflow/internal/inventory/application"
	invkafka "github.com/dmehra2102/orderflow/internal/inventory/infrastructure/kafka"
	productapp "github.com/dmehra2102/orderflow/internal/product/application"
	productgrpc "github.com/dmehra2102/orderflow/internal/product/infrastructure/grpc"
	producthttp "github.com/dmehra2102/orderflow/internal/product/infrastructure/http"
	productkafka "github.com/dmehra2102/orderflow/internal/product/infrastructure/kafka"
	productpg "github.com/dmehra2102/orderflow/internal/product/infrastructure/postgres"
	"github.com/dmehra2102/orderflow/pkg/idempotency"
	"github.com/dmehra2102/orderflow/pkg/logging"
	"github.com/dmehra2102/orderflow/pkg/metrics"
	"github.com/dmehra2102/orderflow/pkg/shutdown"
	"github.com/dmehra2102/orderflow/pkg/tracing"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "product-service:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadProductService()
	if err != nil {
		return err
	}
	log, err := logging.New("product-service", cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := shutdown.WithSignals(context.Background(), log)
	defer cancel()

	tp, err := tracing.Init(ctx, "product-service", cfg.OTLPEndpoint, log)
	if err != nil {
		return err
	}

	pool, err := pgxpool.New(ctx, cfg.PGURL)
	if err != nil {
		return fmt.Errorf("pg connect: %w", err)
	}
	defer pool.Close()

	repo := productpg.NewRepository(log, pool)
	if err := repo.Migrate(ctx); err != nil {
		return err
	}
	reg := metrics.NewRegistry()
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.KafkaBrokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           20 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	products := productapp.NewService(log, repo,
		productapp.WithPublisher(productkafka.NewPublisher(log, writer, cfg.EventsTopic)))

	// gRPC product authority
	gs, err := productgrpc.Run(log, cfg.GRPCAddr, productgrpc.NewServer(log, products))
	if err != nil {
		return fmt.Errorf("grpc server: %w", err)
	}

	// Stock adjustments
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() { _ = rdb.Close() }()
	idem := idempotency.NewStore(rdb, "idem:stock", cfg.DedupeTTL)

	consumer := invkafka.NewConsumer(log,
		invkafka.NewReader(cfg.KafkaBrokers, cfg.StockTopic, cfg.ConsumerGroup),
		writer, cfg.DLQTopic,
		invapp.NewService(log, products, idem),
		metrics.NewConsumer(reg.Registerer()),
		invkafka.WithMaxAttempts(cfg.MaxAttempts),
		invkafka.WithMessageKey(idem.Key),
	)
	go func() {
		if err := consumer.Run(ctx); err != nil {
			log.Error("consumer stopped", zap.Error(err))
			cancel()
		}
	}()

	// Catalog API
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		if err := rdb.Ping(r.Context()).Err(); err != nil {
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	r.Handle("/metrics", reg.Handler())
	r.Mount("/", producthttp.NewHandler(log, products).Routes())
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
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
		srv.Shutdown,
		func(context.Context) error { return writer.Close() },
		func(context.Context) error { gs.GracefulStop(); return nil },
	)
	log.Info("product-service shutdown")
	return nil
}

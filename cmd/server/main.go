package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	assethandler "loomline/internal/asset/handler"
	assetservice "loomline/internal/asset/service"
	"loomline/internal/events"
	httpapi "loomline/internal/http"
	"loomline/internal/identity"
	"loomline/internal/ledger"
	matchhandler "loomline/internal/match/handler"
	matchservice "loomline/internal/match/service"
	orderhandler "loomline/internal/order/handler"
	orderservice "loomline/internal/order/service"
	"loomline/internal/platform/config"
	"loomline/internal/platform/httpserver"
	"loomline/internal/platform/logger"
	"loomline/internal/platform/metrics"
	platformredis "loomline/internal/platform/redis"
	queryhandler "loomline/internal/query/handler"
	queryservice "loomline/internal/query/service"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openLedger(ctx, cfg)
	if err != nil {
		log.Error("open ledger", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	sink, closeSink, err := openSink(ctx, cfg, log)
	if err != nil {
		log.Error("open event sink", "error", err)
		os.Exit(1)
	}
	defer closeSink()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	assetEngine := assetservice.New(store, sink,
		assetservice.WithLogger(log), assetservice.WithMetrics(m))
	orders := orderservice.New(store, sink,
		orderservice.WithLogger(log), orderservice.WithMetrics(m))
	matcher := matchservice.New(store, sink,
		matchservice.WithLogger(log), matchservice.WithMetrics(m))
	facade := queryservice.New(store)

	validator := identity.NewTokenValidator(cfg.JWTSigningKey)
	issuer := identity.NewTokenIssuer(cfg.JWTSigningKey, cfg.TokenTTL)

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Logger:             log,
		Metrics:            m,
		Validator:          validator,
		Issuer:             issuer,
		Redis:              redisClient,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Assets:             assethandler.New(assetEngine, log),
		Matches:            matchhandler.New(matcher, log),
		Orders:             orderhandler.New(orders, log),
		Queries:            queryhandler.New(facade, log),
	})

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting loomline", "addr", cfg.Addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return httpserver.Shutdown(srv, 10*time.Second)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// openLedger picks the postgres store when DATABASE_URL is set, the
// in-memory store otherwise (dev mode).
func openLedger(ctx context.Context, cfg config.Config) (ledger.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		return ledger.NewInMemory(), func() {}, nil
	}
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	store := ledger.NewPostgres(db)
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, func() { db.Close() }, nil
}

// openSink connects Kafka when brokers are configured, otherwise falls back
// to logging events locally.
func openSink(ctx context.Context, cfg config.Config, log *slog.Logger) (events.Sink, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return events.NewLogSink(log), func() {}, nil
	}
	sink, err := events.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		return nil, nil, err
	}
	log.Info("kafka sink connected", "topic", cfg.Kafka.Topic)
	return sink, func() { sink.Close() }, nil
}

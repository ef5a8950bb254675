package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"bazaar/internal/audit"
	carthandler "bazaar/internal/cart/handler"
	cartservice "bazaar/internal/cart/service"
	cartstore "bazaar/internal/cart/store"
	cataloghandler "bazaar/internal/catalog/handler"
	catalogservice "bazaar/internal/catalog/service"
	catalogstore "bazaar/internal/catalog/store"
	directoryhandler "bazaar/internal/directory/handler"
	directoryservice "bazaar/internal/directory/service"
	directorystore "bazaar/internal/directory/store"
	"bazaar/internal/jwttoken"
	orderhandler "bazaar/internal/order/handler"
	orderservice "bazaar/internal/order/service"
	orderstore "bazaar/internal/order/store"
	"bazaar/internal/platform/config"
	"bazaar/internal/platform/httpserver"
	"bazaar/internal/platform/logger"
	"bazaar/internal/platform/metrics"
	"bazaar/internal/platform/postgres"
	platformredis "bazaar/internal/platform/redis"
	httptransport "bazaar/internal/transport/http"
)

// main wires stores, services, and the HTTP surface. Backends are picked by
// config: Postgres/Redis/Kafka when configured, in-memory otherwise.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		log.Error("postgres open failed", "error", err.Error())
		os.Exit(1)
	}
	if db != nil {
		defer func() { _ = db.Close() }()
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connect failed", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	var memberStore directoryservice.MemberStore
	var itemStore interface {
		catalogservice.ItemStore
		orderservice.CatalogClaimer
	}
	var cartStore cartservice.CartStore
	var orderStore orderservice.OrderStore
	if db != nil {
		memberStore = directorystore.NewPostgres(db)
		itemStore = catalogstore.NewPostgres(db)
		orderStore = orderstore.NewPostgres(db)
	} else {
		memberStore = directorystore.NewInMemory()
		itemStore = catalogstore.NewInMemory()
		orderStore = orderstore.NewInMemory()
	}
	if redisClient != nil {
		cartStore = cartstore.NewRedis(redisClient.Client)
	} else {
		cartStore = cartstore.NewInMemory()
	}

	auditPublisher, auditCleanup, err := buildAuditPublisher(ctx, cfg, log)
	if err != nil {
		log.Error("audit pipeline setup failed", "error", err.Error())
		os.Exit(1)
	}
	defer auditCleanup()

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "bazaar", "bazaar")

	directory := directoryservice.New(memberStore, jwtService, cfg.TokenTTL,
		directoryservice.WithLogger(log),
		directoryservice.WithAuditPublisher(auditPublisher),
		directoryservice.WithMetrics(m))

	catalog := catalogservice.New(itemStore, directory,
		catalogservice.WithLogger(log),
		catalogservice.WithAuditPublisher(auditPublisher),
		catalogservice.WithMetrics(m))

	carts := cartservice.New(cartStore, itemStore,
		cartservice.WithLogger(log))

	orders := orderservice.New(orderStore, itemStore, carts, directory,
		orderservice.WithLogger(log),
		orderservice.WithAuditPublisher(auditPublisher),
		orderservice.WithMetrics(m))

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    log,
		Metrics:   m,
		Directory: directoryhandler.New(directory, log, jwtService),
		Catalog:   cataloghandler.New(catalog, log, jwtService),
		Cart:      carthandler.New(carts, log, jwtService),
		Order:     orderhandler.New(orders, log, jwtService),
		Health: func() error {
			if db != nil {
				if err := db.Ping(); err != nil {
					return err
				}
			}
			if redisClient != nil {
				return redisClient.Health(context.Background())
			}
			return nil
		},
	})

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("server starting", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
		os.Exit(1)
	}
}

// buildAuditPublisher returns the configured audit sink: Kafka-backed and
// asynchronous when brokers are configured, otherwise a synchronous in-memory
// store that keeps the trail inspectable in development.
func buildAuditPublisher(ctx context.Context, cfg config.Server, log *slog.Logger) (publisher auditEmitter, cleanup func(), err error) {
	if len(cfg.KafkaBrokers) == 0 {
		return audit.NewPublisher(audit.NewInMemoryStore()), func() {}, nil
	}

	kafkaStore, err := audit.NewKafkaStore(cfg.KafkaBrokers, cfg.AuditTopic)
	if err != nil {
		return nil, nil, err
	}

	async, worker := audit.NewAsync(kafkaStore, 256)
	workerCtx, stopWorker := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := worker.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err.Error())
		}
	}()

	return async, func() {
		stopWorker()
		<-done
		kafkaStore.Close()
	}, nil
}

type auditEmitter interface {
	Emit(ctx context.Context, base audit.Event) error
}

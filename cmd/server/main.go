package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"agripass/internal/audit"
	"agripass/internal/contentstore"
	"agripass/internal/ledger"
	"agripass/internal/passport/handler"
	"agripass/internal/passport/metadata"
	"agripass/internal/passport/metrics"
	"agripass/internal/passport/service"
	"agripass/internal/passport/store"
	"agripass/internal/platform/config"
	"agripass/internal/platform/httpserver"
	"agripass/internal/platform/kafka"
	"agripass/internal/platform/logger"
	"agripass/internal/platform/redis"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	if err := run(); err != nil {
		logger.New().Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()

	// Store: Postgres when configured, in-memory otherwise. The in-memory
	// store keeps local development and demos working with no database.
	var passportStore service.Store
	storageBackend := "memory"
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			return err
		}
		passportStore = store.NewPostgres(db)
		storageBackend = "postgres"
	} else {
		log.Warn("DATABASE_URL not set, using in-memory passport store")
		passportStore = store.NewMemory()
	}

	var cache *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err := redis.New(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		passportStore = store.NewCached(passportStore, redisClient.Client, 10*time.Minute, log)
		cache = redisClient
	}

	// Audit: Kafka when brokers are configured, structured log otherwise.
	var auditPublisher audit.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			return err
		}
		defer producer.Close()
		auditPublisher = audit.NewKafkaPublisher(producer)
	} else {
		auditPublisher = audit.NewLogPublisher(log)
	}

	content := contentstore.New(cfg.ContentStore, contentstore.WithLogger(log))
	contentBackend := "local"
	if cfg.ContentStore.APIKey != "" {
		contentBackend = "pinata"
	}

	ledgerClient := ledger.New(cfg.Ledger, ledger.WithLogger(log))

	builder := metadata.NewBuilder(cfg.PublicBaseURL)
	svc := service.New(content, ledgerClient, passportStore, builder, cfg.PublicBaseURL,
		service.WithLogger(log),
		service.WithMetrics(metrics.New()),
		service.WithAudit(auditPublisher),
	)

	var handlerOpts []handler.Option
	if cache != nil {
		handlerOpts = append(handlerOpts, handler.WithCache(cache))
	}
	passportHandler := handler.New(svc, ledgerClient, contentBackend, storageBackend, log, handlerOpts...)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())
	passportHandler.Register(router)

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting agripass server",
			"addr", cfg.Addr,
			"storage", storageBackend,
			"content_store", contentBackend,
			"chain_id", ledgerClient.ChainID(),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rabbit-moon/internal/catalog"
	"rabbit-moon/internal/catalog/catalog_api"
	catalogdb "rabbit-moon/internal/catalog/db"
	"rabbit-moon/internal/config"
	"rabbit-moon/internal/database"
	"rabbit-moon/internal/database/migrations"
	"rabbit-moon/internal/generate"
	"rabbit-moon/internal/generate/generate_api"
	"rabbit-moon/internal/invitation"
	invitationdb "rabbit-moon/internal/invitation/db"
	"rabbit-moon/internal/invitation/invitation_api"
	"rabbit-moon/internal/invitation/qr"
	"rabbit-moon/internal/kafka"
	"rabbit-moon/internal/logger"
	"rabbit-moon/internal/models"
	"rabbit-moon/internal/notification"
	"rabbit-moon/internal/payment"
	paymentdb "rabbit-moon/internal/payment/db"
	"rabbit-moon/internal/payment/midtrans"
	"rabbit-moon/internal/payment/payment_api"
	paymentredis "rabbit-moon/internal/payment/redis"
	"rabbit-moon/internal/sse"
	"rabbit-moon/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
)

// eventSink is what both the payment and generate services publish to.
type eventSink interface {
	payment.EventPublisher
	generate.EventPublisher
}

// withBroker also hands transaction events to the in-process status broker
// so SSE clients see them without a Kafka round trip.
type withBroker struct {
	eventSink
	broker *sse.StatusBroker
}

func (w withBroker) PublishTransactionEvent(ctx context.Context, ev models.TransactionEvent) error {
	_ = w.broker.PublishTransactionEvent(ctx, ev)
	return w.eventSink.PublishTransactionEvent(ctx, ev)
}

func setupEvents(ctx context.Context, cfg *config.Config, log *logger.Logger) (eventSink, func()) {
	if !cfg.Kafka.Enabled {
		log.Info("KAFKA", "Kafka disabled, domain events are dropped")
		return kafka.NoopEvents{}, func() {}
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
	log.Info("KAFKA", fmt.Sprintf("Kafka producer initialized for brokers %v", cfg.Kafka.Brokers))

	requiredTopics := []string{cfg.Kafka.Topics.Transactions, cfg.Kafka.Topics.Invitations}
	if err := kafka.EnsureTopicsExist(ctx, cfg.Kafka.Brokers, requiredTopics, log); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	} else {
		log.Info("KAFKA", "Required topics ensured successfully")
	}

	return kafka.NewEvents(producer, cfg.Kafka.Topics), func() {
		if err := producer.Close(); err != nil {
			log.Error("KAFKA", fmt.Sprintf("Close producer: %v", err))
		}
	}
}

func setupLock(ctx context.Context, cfg *config.Config, log *logger.Logger) (payment.OrderLock, func()) {
	if cfg.Redis.Addr == "" {
		log.Warn("REDIS", "REDIS_ADDR not set, status polls are not serialised")
		return paymentredis.NoopLock{}, func() {}
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("REDIS", fmt.Sprintf("Redis at %s not reachable yet: %v", cfg.Redis.Addr, err))
	} else {
		log.Info("REDIS", fmt.Sprintf("Redis connection successful to %s (DB: %d)", cfg.Redis.Addr, client.Options().DB))
	}

	return paymentredis.NewRedis(client, cfg.Redis.LockTTL, log), func() { client.Close() }
}

func prepareSchema(ctx context.Context, cfg *config.Config, bunDB *bun.DB, log *logger.Logger) error {
	if cfg.Database.Driver == "sqlite" {
		log.Info("DATABASE", "Creating SQLite schema from models")
		return database.CreateSchema(ctx, bunDB)
	}
	if !cfg.Database.AutoMigrate {
		return nil
	}
	runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{Driver: cfg.Database.Driver, AutoMigrate: true}, log)
	return runner.RunMigrations()
}

// requestLogger logs every request through the category logger.
func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.LogAPI(r.Method, r.URL.Path, fmt.Sprintf("%d", ww.Status()), time.Since(start).String())
		})
	}
}

func healthHandler(bunDB *bun.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := bunDB.PingContext(ctx); err != nil {
			utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println(".env file not found, using environment variables")
	}

	cfg := config.Load()
	logger := logger.New(logger.Options{Dir: cfg.Log.Dir})
	defer logger.Close()

	logger.Info("APP", "Starting Rabbit Moon invitation service")
	if err := cfg.Validate(); err != nil {
		logger.Fatal("CONFIG", err.Error())
	}

	ctx := context.Background()

	bunDB, err := database.Connect(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	if err := prepareSchema(ctx, cfg, bunDB, logger); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Schema setup failed: %v", err))
	}

	kafkaEvents, closeEvents := setupEvents(ctx, cfg, logger)
	defer closeEvents()
	broker := sse.NewStatusBroker()
	events := withBroker{eventSink: kafkaEvents, broker: broker}

	lock, closeLock := setupLock(ctx, cfg, logger)
	defer closeLock()

	gateway, err := midtrans.NewClient(midtrans.Config{
		ServerKey:      cfg.Midtrans.ServerKey,
		SnapURL:        cfg.Midtrans.SnapURL,
		APIURL:         cfg.Midtrans.APIURL,
		SessionTimeout: cfg.Midtrans.SessionTimeout,
		StatusTimeout:  cfg.Midtrans.StatusTimeout,
		CACertPath:     cfg.Midtrans.CACertPath,
	})
	if err != nil {
		logger.Fatal("PAYMENT", fmt.Sprintf("Midtrans client: %v", err))
	}

	catalogService := catalog.NewService(&catalogdb.DB{Bun: bunDB})

	paymentService := payment.NewService(
		&paymentdb.DB{Bun: bunDB},
		catalogService,
		gateway,
		lock,
		events,
		payment.Config{
			ServerKey:        cfg.Midtrans.ServerKey,
			ClientKey:        cfg.Midtrans.ClientKey,
			BaseURL:          cfg.Server.BaseURL,
			RequireSignature: cfg.Midtrans.RequireSignature,
		},
		logger,
	)

	schema := invitation.SchemaV1.WithExtraFields(cfg.Invitation.ExtraFields...)
	invitationService := invitation.NewService(&invitationdb.DB{Bun: bunDB}, schema, logger)

	dispatcher := notification.NewDispatcher(cfg.Email, logger)

	generateService := generate.NewService(
		catalogService,
		paymentService,
		invitationService,
		dispatcher,
		events,
		generate.Config{BaseURL: cfg.Server.BaseURL, DefaultTemplateID: cfg.Invitation.DefaultTemplateID},
		logger,
	)

	logger.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS", "PUT", "DELETE"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		MaxAge:         300,
	}))

	r.Get("/healthz", healthHandler(bunDB))

	r.Route("/api", func(r chi.Router) {
		catalog_api.NewHandler(catalogService, logger).RegisterRoutes(r)
		payment_api.NewHandler(paymentService, logger).RegisterRoutes(r)
		payment_api.NewSSEHandler(paymentService, broker, logger).RegisterRoutes(r)
		generate_api.NewHandler(generateService, logger).RegisterRoutes(r)
	})
	logger.Info("ROUTER", "API routes registered under /api")

	invitation_api.NewHandler(invitationService, catalogService, qr.NewQRGenerator(cfg.Server.BaseURL, 0), logger).RegisterRoutes(r)
	logger.Info("ROUTER", "Invitation pages registered under /invitation")

	if cfg.Server.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.Server.StaticDir)))
		logger.Info("ROUTER", fmt.Sprintf("Serving static files from %s", cfg.Server.StaticDir))
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("Rabbit Moon running on :%s (public URL %s)", cfg.Server.Port, cfg.Server.BaseURL))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "Rabbit Moon shutdown complete")
	}
}

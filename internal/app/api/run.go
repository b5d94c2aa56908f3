package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	orderserver "github.com/Apurer/machine-orders/go"
	orderactivity "github.com/Apurer/machine-orders/internal/domains/orders/adapters/activity"
	ordersmemory "github.com/Apurer/machine-orders/internal/domains/orders/adapters/memory"
	ordersnotify "github.com/Apurer/machine-orders/internal/domains/orders/adapters/notify"
	ordersobs "github.com/Apurer/machine-orders/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/Apurer/machine-orders/internal/domains/orders/adapters/persistence/postgres"
	ordersworkflows "github.com/Apurer/machine-orders/internal/domains/orders/adapters/workflows"
	ordersapp "github.com/Apurer/machine-orders/internal/domains/orders/application"
	ordersports "github.com/Apurer/machine-orders/internal/domains/orders/ports"
	"github.com/Apurer/machine-orders/internal/platform/migrations"
	platformobservability "github.com/Apurer/machine-orders/internal/platform/observability"
	platformpostgres "github.com/Apurer/machine-orders/internal/platform/postgres"
	platformtemporal "github.com/Apurer/machine-orders/internal/platform/temporal"
)

const serviceName = "machine-orders-api"

// Run boots the orders HTTP API and blocks until ctx is cancelled or the server fails.
func Run(ctx context.Context, cfg Config) error {
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	stores, cleanupStorage := buildStorage(ctx, cfg, logger)
	defer cleanupStorage()
	activitySink, cleanupActivity := buildActivitySink(cfg, stores, logger)
	defer cleanupActivity()
	notifications, cleanupNotifications := buildNotificationSink(ctx, cfg, logger)
	defer cleanupNotifications()

	coreService := ordersapp.NewService(
		stores.repo,
		stores.catalog,
		ordersapp.WithActivitySink(activitySink),
		ordersapp.WithNotificationSink(notifications),
	)
	orderService := ordersobs.New(
		coreService,
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)

	var orderWorkflows ordersports.WorkflowOrchestrator = ordersworkflows.NewInlineOrderWorkflows(orderService)
	switch temporalClient, err := platformtemporal.Dial(platformtemporal.Options{
		Address:   cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Disabled:  cfg.TemporalDisabled,
	}, instruments); {
	case err != nil:
		logger.Warn("Temporal workflows unavailable, running inline CreateOrder", slog.String("error", err.Error()))
	case !stores.durable:
		// Workflow-created orders land in the worker's postgres.
		temporalClient.Close()
		logger.Warn("Temporal workflows need postgres storage, running inline CreateOrder")
	default:
		defer temporalClient.Close()
		orderWorkflows = ordersworkflows.NewTemporalOrderWorkflows(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), otelgin.Middleware(serviceName))
	router := orderserver.NewRouterWithGinEngine(engine, orderserver.ApiHandleFunctions{
		OrderAPI: orderserver.NewOrderAPI(orderService, orderWorkflows),
	})

	srv := &http.Server{Addr: cfg.Addr(), Handler: router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("orders API listening", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("orders API server exited", slog.String("addr", srv.Addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("orders API shutting down")
	return srv.Shutdown(shutdownCtx)
}

type storage struct {
	repo     ordersports.Repository
	catalog  ordersports.EntityResolver
	activity ordersports.ActivitySink
	// durable is true when the stores are backed by postgres.
	durable bool
}

func buildStorage(ctx context.Context, cfg Config, logger *slog.Logger) (storage, func()) {
	if cfg.PostgresDSN == "" {
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory storage")
		return memoryStorage(logger), func() {}
	}
	db, err := platformpostgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Warn("failed to connect to postgres, falling back to in-memory storage", slog.String("error", err.Error()))
		return memoryStorage(logger), func() {}
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("failed to unwrap postgres connection, falling back to in-memory storage", slog.String("error", err.Error()))
		return memoryStorage(logger), func() {}
	}
	cleanup := func() { _ = sqlDB.Close() }
	if err := migrations.Run(db); err != nil {
		logger.Warn("failed to migrate orders schema, falling back to in-memory storage", slog.String("error", err.Error()))
		cleanup()
		return memoryStorage(logger), func() {}
	}
	logger.Info("order repository configured with postgres")
	return storage{
		repo:     orderspostgres.NewRepository(db),
		catalog:  orderspostgres.NewCatalog(db),
		activity: orderspostgres.NewActivityLog(db),
		durable:  true,
	}, cleanup
}

// memoryStorage seeds a small reference catalog so a local API is usable without a database.
func memoryStorage(logger *slog.Logger) storage {
	catalog := ordersmemory.NewCatalog().
		AddControlSystem(1, "Fanuc 31i-B5").
		AddControlSystem(2, "Siemens Sinumerik 840D sl").
		AddMachineModel(1, "VMC-500").
		AddMachineModel(2, "HMC-800").
		AddSoftwareOption(1, "Tool Probing", "2.1").
		AddSoftwareOption(2, "5-Axis Kinematics", "1.4").
		AddSoftwareOption(3, "Thermal Compensation", "3.0")
	logger.Info("in-memory reference catalog seeded")
	return storage{
		repo:     ordersmemory.NewRepository(),
		catalog:  catalog,
		activity: ordersmemory.NewActivityLog(),
	}
}

// buildActivitySink publishes to Kafka when brokers are configured; the worker's consumer
// then copies events into the activity log. Otherwise entries go straight to storage.
func buildActivitySink(cfg Config, store storage, logger *slog.Logger) (ordersports.ActivitySink, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		return store.activity, func() {}
	}
	publisher := orderactivity.NewKafkaPublisher(cfg.KafkaBrokers, cfg.ActivityTopic)
	logger.Info("activity publishing to kafka", slog.String("topic", cfg.ActivityTopic), slog.Any("brokers", cfg.KafkaBrokers))
	return publisher, func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to close kafka activity publisher", slog.String("error", err.Error()))
		}
	}
}

func buildNotificationSink(ctx context.Context, cfg Config, logger *slog.Logger) (ordersports.NotificationSink, func()) {
	sinks := ordersnotify.Fanout{ordersnotify.NewLogger(logger)}
	if cfg.RedisAddr == "" {
		return sinks, func() {}
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, notifications are logged only", slog.String("addr", cfg.RedisAddr), slog.String("error", err.Error()))
		_ = rdb.Close()
		return sinks, func() {}
	}
	logger.Info("notifications publishing to redis", slog.String("channel", cfg.NotificationChannel))
	sinks = append(sinks, ordersnotify.NewRedisPublisher(rdb, cfg.NotificationChannel))
	return sinks, func() { _ = rdb.Close() }
}

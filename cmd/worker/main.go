package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/machine-orders/internal/app/api"
	orderactivity "github.com/Apurer/machine-orders/internal/domains/orders/adapters/activity"
	ordersnotify "github.com/Apurer/machine-orders/internal/domains/orders/adapters/notify"
	ordersobs "github.com/Apurer/machine-orders/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/Apurer/machine-orders/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/Apurer/machine-orders/internal/domains/orders/application"
	orderactivities "github.com/Apurer/machine-orders/internal/durable/temporal/activities/orders"
	orderworkflows "github.com/Apurer/machine-orders/internal/durable/temporal/workflows/orders"
	"github.com/Apurer/machine-orders/internal/platform/migrations"
	platformobservability "github.com/Apurer/machine-orders/internal/platform/observability"
	platformpostgres "github.com/Apurer/machine-orders/internal/platform/postgres"
	platformtemporal "github.com/Apurer/machine-orders/internal/platform/temporal"
)

const activityConsumerGroup = "machine-orders-activity-log"

func main() {
	if err := api.LoadDotEnv(".env"); err != nil {
		log.Fatalf("failed to load environment: %v", err)
	}
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	const serviceName = "machine-orders-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	db, cleanupDB := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanupDB()
	if db == nil {
		logger.Error("worker requires postgres, set POSTGRES_DSN")
		os.Exit(1)
	}
	if err := migrations.Run(db); err != nil {
		logger.Error("failed to migrate orders schema", slog.String("error", err.Error()))
		os.Exit(1)
	}
	activityLog := orderspostgres.NewActivityLog(db)

	// Activity is published to kafka when brokers are set; this process is its only writer to the log.
	activityOption := ordersapp.WithActivitySink(activityLog)
	if len(cfg.KafkaBrokers) > 0 {
		publisher := orderactivity.NewKafkaPublisher(cfg.KafkaBrokers, cfg.ActivityTopic)
		defer publisher.Close()
		activityOption = ordersapp.WithActivitySink(publisher)

		consumer := orderactivity.NewConsumer(cfg.KafkaBrokers, cfg.ActivityTopic, activityConsumerGroup, activityLog, logger)
		defer consumer.Close()
		go func() {
			logger.Info("activity consumer started", slog.String("topic", cfg.ActivityTopic))
			if err := consumer.Run(ctx); err != nil {
				logger.Error("activity consumer stopped", slog.String("error", err.Error()))
			}
		}()
	}

	coreService := ordersapp.NewService(
		orderspostgres.NewRepository(db),
		orderspostgres.NewCatalog(db),
		activityOption,
		ordersapp.WithNotificationSink(ordersnotify.NewLogger(logger)),
	)
	orderService := ordersobs.New(
		coreService,
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)
	orderActivities := orderactivities.NewActivities(orderService)

	temporalClient, err := platformtemporal.Dial(platformtemporal.Options{
		Address:    cfg.TemporalAddress,
		Namespace:  cfg.TemporalNamespace,
		Disabled:   cfg.TemporalDisabled,
		TracerName: "temporal-worker",
	}, instruments)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, orderworkflows.OrderCreationTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(orderworkflows.OrderCreationWorkflow, workflow.RegisterOptions{Name: orderworkflows.OrderCreationWorkflowName})
	w.RegisterActivityWithOptions(orderActivities.CreateOrder, activity.RegisterOptions{Name: orderactivities.CreateOrderActivityName})

	interrupt := make(chan interface{})
	go func() {
		<-ctx.Done()
		close(interrupt)
	}()
	logger.Info("worker listening", slog.String("taskQueue", orderworkflows.OrderCreationTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(interrupt); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}

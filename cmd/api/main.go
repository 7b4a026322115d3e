package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tazehal/batching-engine/internal/config"
	"github.com/tazehal/batching-engine/internal/domain"
	"github.com/tazehal/batching-engine/internal/handler"
	"github.com/tazehal/batching-engine/internal/infra/postgresql"
	"github.com/tazehal/batching-engine/internal/infra/postgresql/migrations"
	infraredis "github.com/tazehal/batching-engine/internal/infra/redis"
	"github.com/tazehal/batching-engine/internal/notify"
	"github.com/tazehal/batching-engine/internal/observability"
	"github.com/tazehal/batching-engine/internal/render"
	"github.com/tazehal/batching-engine/internal/repository"
	"github.com/tazehal/batching-engine/internal/service"
	"github.com/tazehal/batching-engine/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("batching-engine api exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("postgres initialization failed: %w", err)
	}

	if err := migrations.Migrate(db); err != nil {
		return fmt.Errorf("database migrations failed: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("postgres underlying db init failed: %w", err)
	}
	defer sqlDB.Close()

	batchRepo := repository.NewGormBatchRepo(db)
	orderRepo := repository.NewGormOrderRepo(db)

	var counterRepo repository.CounterRepository = repository.NewGormCounterRepo(db)
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		rdb, err = infraredis.NewRedis(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis initialization failed: %w", err)
		}
		defer rdb.Close()

		counter, err := infraredis.NewCounter(rdb)
		if err != nil {
			return fmt.Errorf("redis counter init failed: %w", err)
		}
		counterRepo = counter
		logger.Info("bill-number counter backed by redis")
	}

	resolver, err := domain.NewWindowResolver(cfg.TZOffsetHours)
	if err != nil {
		return fmt.Errorf("window resolver init failed: %w", err)
	}
	policy, err := domain.NewAssignmentPolicy(resolver, cfg.FirstCutoffHour, cfg.SecondCutoffHour)
	if err != nil {
		return fmt.Errorf("assignment policy init failed: %w", err)
	}

	metrics := observability.NewMetrics()

	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if cfg.AlertWebhookURL != "" {
		webhook, err := notify.NewWebhookNotifier(cfg.AlertWebhookURL, logger)
		if err != nil {
			return fmt.Errorf("alert webhook init failed: %w", err)
		}
		notifier = webhook
	}

	firmsByCategory, err := cfg.FirmsByCategory()
	if err != nil {
		return err
	}
	firms := service.FirmAssignment{Default: cfg.DefaultFirm, ByCategory: firmsByCategory}

	billing, err := service.NewBillOrchestrator(
		orderRepo, counterRepo, render.NewPDFRenderer("Tazehal Distribution"),
		firms, cfg.BillNumberTemplate, resolver, metrics, notifier, logger)
	if err != nil {
		return fmt.Errorf("bill orchestrator init failed: %w", err)
	}

	lifecycle, err := service.NewBatchLifecycle(batchRepo, orderRepo, billing, metrics, notifier, logger)
	if err != nil {
		return fmt.Errorf("batch lifecycle init failed: %w", err)
	}

	intake, err := service.NewOrderIntake(policy, batchRepo, orderRepo, logger)
	if err != nil {
		return fmt.Errorf("order intake init failed: %w", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          transport.ErrorHandler(logger),
		DisableStartupMessage: true,
	})
	app.Use(transport.RequestID())
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	if err := handler.RegisterBatchRoutes(app, lifecycle); err != nil {
		return fmt.Errorf("batch routes init failed: %w", err)
	}
	if err := handler.RegisterOrderRoutes(app, intake); err != nil {
		return fmt.Errorf("order routes init failed: %w", err)
	}

	group, groupCtx := errgroup.WithContext(ctx)

	if cfg.SchedulerEnabled {
		scheduler, err := service.NewScheduler(
			policy, batchRepo, lifecycle,
			cfg.FirstCutoffHour, cfg.SecondCutoffHour,
			metrics, notifier, logger)
		if err != nil {
			return fmt.Errorf("scheduler init failed: %w", err)
		}

		if err := scheduler.Start(groupCtx); err != nil {
			return err
		}
		defer scheduler.Stop()
	}

	group.Go(func() error {
		logger.Info("batching-engine api started", zap.Int("port", cfg.APIPort))
		return app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		return app.Shutdown()
	})

	if err := group.Wait(); err != nil && ctx.Err() == nil {
		return err
	}

	return nil
}

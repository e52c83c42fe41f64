package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/support-relay/internal/api/http"
	"github.com/spec-kit/support-relay/internal/api/http/handlers"
	"github.com/spec-kit/support-relay/internal/config"
	"github.com/spec-kit/support-relay/internal/dispatch"
	"github.com/spec-kit/support-relay/internal/events"
	"github.com/spec-kit/support-relay/internal/observability"
	"github.com/spec-kit/support-relay/internal/persistence"
	"github.com/spec-kit/support-relay/internal/questions"
	"github.com/spec-kit/support-relay/internal/relay"
	"github.com/spec-kit/support-relay/internal/service"
	"github.com/spec-kit/support-relay/internal/session"
	"github.com/spec-kit/support-relay/internal/storage"
	"github.com/spec-kit/support-relay/internal/transport"
	"github.com/spec-kit/support-relay/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	roster, err := config.LoadRoster(cfg.Relay.RosterPath)
	if err != nil {
		logger.Fatal("failed to load staff roster", zap.Error(err))
	}

	metrics := observability.NewMetrics()

	profiles, err := storage.NewCachedProfileStore(
		storage.NewProfileStore(pg.PoolHandle()), 5*time.Minute, logger)
	if err != nil {
		logger.Fatal("failed to init profile cache", zap.Error(err))
	}
	bans := storage.NewBanList(redis.Client)

	faq, err := storage.NewFAQStore(cfg.Relay.FAQDir, logger)
	if err != nil {
		logger.Fatal("failed to load faq files", zap.Error(err))
	}
	if err := faq.Watch(ctx); err != nil {
		logger.Warn("faq watcher unavailable", zap.Error(err))
	}

	registry := session.NewRegistry(roster)
	tracker := session.NewNotificationTracker()
	machine := session.NewStateMachine(session.Dependencies{
		Registry: registry,
		Tracker:  tracker,
		Profiles: profiles,
		Bans:     bans,
		Logger:   logger,
	})
	relaySvc := relay.New(registry, logger)
	desk := questions.NewDesk(questions.DeskDependencies{
		Registry: registry,
		Profiles: profiles,
		Bans:     bans,
		Topics: questions.Topics{
			BroadcastTopicID: cfg.Relay.QuestionTopicID,
			ClaimTopicID:     cfg.Relay.QuestionAnswerTopicID,
		},
		Logger: logger,
	})

	messenger := transport.NewLoggingMessenger(logger)
	executor := transport.NewExecutor(messenger, tracker, cfg.Relay.NotificationTopicID, logger)

	eventDispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(eventDispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	loop := dispatch.NewDispatcher(dispatch.Dependencies{
		Machine:  machine,
		Relay:    relaySvc,
		Desk:     desk,
		Registry: registry,
		Profiles: profiles,
		FAQ:      faq,
		Executor: executor,
		Events:   eventDispatcher,
		Metrics:  metrics,
		Logger:   logger,
		AdminIDs: cfg.Relay.AdminIDs,
		Queue:    cfg.Relay.QueueSize,
	})
	go loop.Run(ctx)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	adminHandler := handlers.NewAdminHandler(registry, machine, desk, executor, bans, metrics)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: healthHandler,
		Admin:  adminHandler,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/zapfit/messaging-service/internal/api/http"
	"github.com/zapfit/messaging-service/internal/api/http/handlers"
	"github.com/zapfit/messaging-service/internal/auth"
	"github.com/zapfit/messaging-service/internal/config"
	"github.com/zapfit/messaging-service/internal/events"
	"github.com/zapfit/messaging-service/internal/observability"
	"github.com/zapfit/messaging-service/internal/persistence"
	"github.com/zapfit/messaging-service/internal/provider"
	"github.com/zapfit/messaging-service/internal/repository"
	"github.com/zapfit/messaging-service/internal/service"
	"github.com/zapfit/messaging-service/internal/worker"
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

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	pool := pg.PoolHandle()
	connectionRepo := repository.NewConnectionRepository(pool)
	contactRepo := repository.NewContactRepository(pool)
	memberRepo := repository.NewMemberRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	tagRepo := repository.NewTagRepository(pool)

	channelService := service.NewChannelService(connectionRepo, dispatcher, logger)
	contactService := service.NewContactService(contactRepo, memberRepo, logger)
	ticketService := service.NewTicketService(ticketRepo, logger)
	statusService := service.NewStatusService(messageRepo, logger)

	ingestService := service.NewIngestService(service.IngestDependencies{
		MessageRepo: messageRepo,
		Tickets:     ticketService,
		Contacts:    contactService,
		Deduper:     redis,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	sendService := service.NewSendService(service.SendDependencies{
		TicketRepo:     ticketRepo,
		ContactRepo:    contactRepo,
		ConnectionRepo: connectionRepo,
		MessageRepo:    messageRepo,
		HubSender:      provider.NewHubSender(cfg.Hub),
		CloudSender:    provider.NewCloudSender(cfg.Cloud),
		Dispatcher:     dispatcher,
		Logger:         logger,
	})

	sideEffects := service.NewSideEffectService(service.SideEffectDependencies{
		TagRepo:    tagRepo,
		Agent:      service.NewHTTPAgentClient(cfg.Agent),
		Pixel:      service.NewHTTPPixelClient(cfg.Pixel),
		Sender:     sendService,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	worker.StartSideEffectWorker(sideEffects)

	inboundService := service.NewInboundService(service.InboundDependencies{
		Channels: channelService,
		Contacts: contactService,
		Tickets:  ticketService,
		Ingest:   ingestService,
		Status:   statusService,
		Metrics:  metrics,
		Logger:   logger,
	})

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret)
	authMiddleware := auth.NewAuthMiddleware(tokenManager, cfg.Auth.ServiceSecret)

	app := fiber.New(fiber.Config{
		AppName: cfg.App.Name,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Webhooks:       handlers.NewWebhookHandler(inboundService, cfg.Cloud, logger),
		Messages:       handlers.NewMessagesHandler(sendService, logger),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

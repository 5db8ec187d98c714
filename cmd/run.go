package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"mahjongbot/bot"
	"mahjongbot/bot/line"
	"mahjongbot/config"
	"mahjongbot/database"
	"mahjongbot/events"
	"mahjongbot/infrastructure"
	"mahjongbot/infrastructure/observability"
	"mahjongbot/repository"
	"mahjongbot/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	// Load configuration
	cfg := config.Get()
	setupLogging(cfg)

	log.WithField("environment", cfg.Environment).Info("Starting mahjong bot...")

	// Apply pending migrations before serving
	databaseURL := cfg.GetDatabaseURL()
	if err := database.MigrateUp(databaseURL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	// Initialize metrics
	metrics := observability.NewMetricsProvider(cfg)
	if err := metrics.Initialize(ctx); err != nil {
		log.WithError(err).Warn("Failed to initialize metrics, continuing without them")
	}

	// Initialize event bus
	eventBus := events.NewBus()
	eventBus.SubscribeAll(metrics.RecordEvent)

	// Forward committed events to NATS when configured
	var natsClient *infrastructure.NATSClient
	if servers := cfg.NATSServerList(); len(servers) > 0 {
		natsClient = infrastructure.NewNATSClient(servers)
		if err := natsClient.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		if err := natsClient.EnsureEventStream(); err != nil {
			natsClient.Close()
			return fmt.Errorf("failed to ensure event stream: %w", err)
		}
		infrastructure.NewEventForwarder(natsClient, metrics).Register(eventBus)
		log.Info("Event forwarding to NATS enabled")
	} else {
		log.Info("NATS_SERVERS not set, event forwarding disabled")
	}

	// Initialize services
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)
	locks := service.NewGroupLocks()
	sessionService := service.NewSessionService(uowFactory, locks)
	identityService := service.NewIdentityService(uowFactory, locks)
	statsService := service.NewStatsService(uowFactory)

	dispatcher := bot.NewDispatcher(sessionService, identityService, statsService, metrics, cfg.LeaderboardSize)

	// Initialize LINE transport
	lineClient, err := line.NewClient(cfg.LineChannelAccessToken)
	if err != nil {
		return fmt.Errorf("failed to initialize LINE client: %w", err)
	}
	webhookHandler := line.NewWebhookHandler(cfg.LineChannelSecret, lineClient, dispatcher)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.POST("/webhook", webhookHandler.HandleWebhook)
	router.GET("/health", line.HandleHealth)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("Webhook server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for context cancellation or a server failure
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("webhook server failed: %w", err)
		}
	}

	// Cleanup resources
	log.Info("Shutting down bot...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down webhook server")
	}

	// Let in-flight event handlers finish before closing their outputs
	eventBus.Wait()

	if natsClient != nil {
		if err := natsClient.Close(); err != nil {
			log.WithError(err).Error("Error closing NATS connection")
		}
	}
	if err := metrics.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics")
	}

	log.Info("Shutdown completed")
	return nil
}

// setupLogging applies the configured level and picks JSON output in production
func setupLogging(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"peerbets/api"
	"peerbets/application"
	"peerbets/config"
	"peerbets/database"
	"peerbets/domain/interfaces"
	"peerbets/infrastructure"
	"peerbets/infrastructure/observability"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// eventPublisher is the process-wide publisher: events leave through it after commit
// and in-process handlers hang off it
type eventPublisher interface {
	interfaces.EventPublisher
	infrastructure.LocalHandlerRegistrar
}

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	setupLogging(cfg)

	log.WithField("environment", cfg.Environment).Info("Starting peerbets...")

	// Metrics
	metrics := observability.NewMetricsProvider(cfg)
	if err := metrics.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	// Database
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established")

	// Event publishing
	var (
		publisher  eventPublisher
		natsClient *infrastructure.NATSClient
	)
	if cfg.NATSServers != "" {
		natsClient = infrastructure.NewNATSClient(cfg.NATSServers, "peerbets")
		if err := natsClient.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer natsClient.Close()

		mapper := infrastructure.NewEventSubjectMapper()
		if err := natsClient.EnsureStream(infrastructure.DomainEventStream, mapper.GetAllSubjects()); err != nil {
			return fmt.Errorf("failed to ensure event stream: %w", err)
		}
		publisher = infrastructure.NewNATSEventPublisher(natsClient, mapper, metrics)
	} else {
		log.Warn("NATS_SERVERS not set, domain events stay in process")
		publisher = infrastructure.NewNoopEventPublisher()
	}

	// Odds cache
	var (
		oddsCache   interfaces.OddsCache
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient, err = infrastructure.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		defer redisClient.Close()

		cache := infrastructure.NewRedisOddsCache(redisClient, cfg.OddsCacheTTL)
		infrastructure.RegisterOddsInvalidation(publisher, cache)
		oddsCache = cache
		log.WithField("ttl", cfg.OddsCacheTTL).Info("Odds cache enabled")
	} else {
		log.Info("REDIS_ADDR not set, odds are computed on every request")
	}

	uowFactory := infrastructure.NewUnitOfWorkFactory(db, publisher)

	// Closing worker
	if cfg.ClosingWorkerEnabled {
		worker := application.NewEventClosingWorker(uowFactory)
		stopWorker := worker.Start(ctx)
		defer stopWorker()
	}

	// HTTP server
	handler := api.NewHandler(uowFactory, oddsCache, metrics).WithReadiness(db.Ready)
	server := api.NewServer(cfg.HTTPPort, handler, metrics)

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.HTTPPort).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}

	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down HTTP server")
	}
	if err := metrics.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics provider")
	}

	log.Info("Shutdown completed")
	return nil
}

func setupLogging(cfg *config.Config) {
	log.SetOutput(os.Stdout)

	if strings.EqualFold(cfg.LogFormat, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"wishyoulucky/internal/config"
	"wishyoulucky/internal/database"
	"wishyoulucky/internal/events"
	"wishyoulucky/internal/logger"
	"wishyoulucky/internal/mailer"
	"wishyoulucky/internal/pkg/clock"
	"wishyoulucky/internal/realtime"
	"wishyoulucky/internal/server"
	"wishyoulucky/internal/storage"
	"wishyoulucky/internal/telemetry"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func gracefulShutdown(ctx context.Context, apiServer *server.Server, stopBackground context.CancelFunc, logger *zap.Logger, done chan bool) {
	// Listen for the interrupt signal.
	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stopBackground()

	// The context is used to inform the server it has 30 seconds to finish
	// the request it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Close server resources
	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func newPublisher(ctx context.Context, cfg config.KafkaConfig, log *zap.Logger) events.Publisher {
	if !cfg.Enabled() {
		log.Info("Kafka not configured, order events stay local")
		return events.NopPublisher{}
	}

	client, err := events.NewProducerClient(ctx, cfg.Brokers, cfg.OrderTopic)
	if err != nil {
		log.Warn("Kafka unavailable, order events stay local", zap.Error(err))
		return events.NopPublisher{}
	}
	codec, err := events.NewCodec()
	if err != nil {
		client.Close()
		log.Warn("Failed to build order event codec", zap.Error(err))
		return events.NopPublisher{}
	}
	return events.NewKafkaPublisher(client, codec, log)
}

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Wishyoulucky API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)

	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry, cfg.Server.Env, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("Failed to flush traces", zap.Error(err))
		}
	}()

	// Initialize database
	dbService, err := database.New(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database health check", zap.Any("health", dbService.Health(ctx)))

	// Run migrations
	if err := database.RunMigrations(dbService.DB(), "migrations", log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database migrations completed successfully")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("Redis not reachable at startup", zap.String("addr", cfg.Redis.Addr()), zap.Error(err))
	}

	store, err := storage.NewDiskImageStore(cfg.Storage.UploadDir, cfg.Server.PublicBaseURL, cfg.Storage.PublicPath, log)
	if err != nil {
		log.Fatal("Failed to prepare upload directory", zap.Error(err))
	}

	if cfg.Mail.ResendAPIKey == "" {
		log.Warn("RESEND_API_KEY is empty, order emails will fail")
	}

	clk := clock.NewRealClock()
	hub := realtime.NewHub(0, log)

	srv := server.NewServer(cfg, log, server.Deps{
		DB:        dbService,
		Redis:     redisClient,
		Publisher: newPublisher(ctx, cfg.Kafka, log),
		Sender:    mailer.NewResendSender(cfg.Mail.ResendAPIKey),
		Store:     store,
		Hub:       hub,
		Clock:     clk,
	})

	// Background work stops before the server closes its resources.
	bgCtx, stopBackground := context.WithCancel(context.Background())
	listener := realtime.NewListener(realtime.PgxDialer(cfg.Database.DSN()), hub, clk, log)
	go func() {
		if err := listener.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Order listener stopped", zap.Error(err))
		}
	}()

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(ctx, srv, stopBackground, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Info("Graceful shutdown complete")
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"rpg-server/internal/ai"
	"rpg-server/internal/config"
	"rpg-server/internal/database"
	"rpg-server/internal/handler"
	"rpg-server/internal/lock"
	"rpg-server/internal/logger"
	"rpg-server/internal/messaging"
	"rpg-server/internal/middleware"
	"rpg-server/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zl.Info("Starting rpg-server", zap.String("port", cfg.Port))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// PostgreSQL
	pool, err := database.NewPool(ctx, cfg.GetDSN(), cfg.DBMaxConns, cfg.DBIdleTimeout)
	if err != nil {
		zl.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pool.Close()
	if err := database.ApplyMigrations(pool); err != nil {
		zl.Fatal("Failed to apply migrations", zap.Error(err))
	}
	zl.Info("Connected to PostgreSQL, migrations applied")

	// Redis (generation locks)
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	defer func() { _ = redisClient.Close() }()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		zl.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	genLock := lock.NewRedisGenerationLock(redisClient, cfg.LockTTL, zl)

	// RabbitMQ (optional client update notifications)
	publisher := messaging.NewNoopClientUpdatePublisher()
	if cfg.RabbitMQURL != "" {
		rabbitConn, err := amqp.Dial(cfg.RabbitMQURL)
		if err != nil {
			zl.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer rabbitConn.Close()
		publisher, err = messaging.NewRabbitMQClientUpdatePublisher(rabbitConn, cfg.ClientUpdatesQueue, zl)
		if err != nil {
			zl.Fatal("Failed to create client update publisher", zap.Error(err))
		}
		zl.Info("Connected to RabbitMQ", zap.String("queue", cfg.ClientUpdatesQueue))
	} else {
		zl.Info("RabbitMQ not configured, client updates disabled")
	}

	// Repositories and services
	charRepo := database.NewPgCharacterRepository(zl)
	stateRepo := database.NewPgGameStateRepository(zl)
	eventRepo := database.NewPgStoryEventRepository(zl)
	userRepo := database.NewPgUserRepository(zl)

	aiClient, err := ai.NewAIClient(cfg, zl)
	if err != nil {
		zl.Fatal("Failed to create AI client", zap.Error(err))
	}
	prompts := ai.NewPromptBuilder(cfg.AIModel, cfg.AIHistoryTokenBudget, zl)
	generator := ai.NewStoryGenerator(aiClient, prompts, cfg.AIModel, zl)

	guestAdapter := service.NewGuestSessionAdapter(zl)
	storyService := service.NewStoryService(
		pool, charRepo, stateRepo, eventRepo, generator, genLock, publisher, guestAdapter, zl)
	characterService := service.NewCharacterService(
		pool, database.NewTxRunner(pool), charRepo, stateRepo, guestAdapter, zl)
	authService := service.NewAuthService(pool, userRepo, cfg.JWTSecret, zl)

	// A crash mid-generation leaves waiting_for_api stuck; clear stale flags
	// once on startup.
	if cleared, err := stateRepo.MarkStaleWaiting(ctx, pool, cfg.StaleWaitingThreshold); err != nil {
		zl.Warn("Failed to clear stale waiting flags", zap.Error(err))
	} else if cleared > 0 {
		zl.Info("Cleared stale waiting flags", zap.Int64("count", cleared))
	}

	// HTTP server
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ZapLogging(zl))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	prom := ginprometheus.NewPrometheus("rpg_server")
	prom.Use(router)

	apiHandler := handler.NewHandler(storyService, characterService, authService, zl)
	apiHandler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}
	go func() {
		zl.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("HTTP server shutdown failed", zap.Error(err))
	}
	zl.Info("Server stopped")
}

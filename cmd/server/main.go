package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"entitlement-backend-go/internal/api"
	"entitlement-backend-go/internal/cache"
	"entitlement-backend-go/internal/config"
	"entitlement-backend-go/internal/core"
	"entitlement-backend-go/internal/db"
	"entitlement-backend-go/internal/events"
	"entitlement-backend-go/internal/middleware"
	"entitlement-backend-go/internal/paypal"
)

func main() {
	// A local .env is a development convenience; absence is fine.
	_ = godotenv.Load()

	logger, err := buildLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}
	for _, warning := range cfg.MissingCredentialWarnings() {
		logger.Warn(warning)
	}

	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInit()

	firestoreClient, err := db.NewFirestoreClient(initCtx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize Firestore", zap.Error(err))
	}
	defer firestoreClient.Close()

	subscriptionRepo := db.NewFirestoreSubscriptionRepository(firestoreClient)
	entitlementRepo := db.NewFirestoreEntitlementRepository(firestoreClient)

	var entitlementCache cache.Cache
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(initCtx, cache.RedisConfig{
			Address:  cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.Warn("redis unavailable, continuing without entitlement cache", zap.Error(err))
		} else {
			entitlementCache = redisCache
			defer redisCache.Close()
			logger.Info("entitlement cache enabled", zap.String("addr", cfg.RedisAddr))
		}
	}

	var publisher events.Publisher
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewRabbitMQPublisher(cfg.AMQPURL)
		if err != nil {
			logger.Warn("rabbitmq unavailable, continuing without event publishing", zap.Error(err))
		} else {
			publisher = amqpPublisher
			defer amqpPublisher.Close()
			logger.Info("entitlement event publishing enabled")
		}
	}

	providerClient := paypal.NewClient(paypal.Config{
		BaseURL:      cfg.PayPalAPIBase,
		ClientID:     cfg.PayPalClientID,
		ClientSecret: cfg.PayPalClientSecret,
		WebhookID:    cfg.PayPalWebhookID,
	}, logger)

	planTable := core.NewPlanTable(cfg.PayPalPlanIDMonthly, cfg.PayPalPlanIDYearly)
	entitlementService := core.NewEntitlementService(
		subscriptionRepo, entitlementRepo, providerClient, planTable,
		entitlementCache, publisher, logger,
	)
	webhookService := core.NewWebhookService(providerClient, entitlementService, logger)

	if strings.ToLower(cfg.GinMode) == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Recovery(logger))
	if cfg.ClientURL != "" {
		router.Use(middleware.CORS(cfg))
	} else {
		logger.Warn("CLIENT_URL not set, CORS middleware disabled")
	}

	api.SetupRoutes(router, cfg, logger, entitlementService, webhookService)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("starting HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}

func buildLogger() (*zap.Logger, error) {
	if strings.ToLower(os.Getenv("GIN_MODE")) == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

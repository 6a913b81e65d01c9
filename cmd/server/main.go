package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hitpay-gateway/config"
	"hitpay-gateway/internal/api"
	"hitpay-gateway/internal/broker"
	"hitpay-gateway/internal/hitpay"
	"hitpay-gateway/internal/redisclient"
	"hitpay-gateway/internal/service"
	"hitpay-gateway/internal/store"
	"hitpay-gateway/internal/util"
	"hitpay-gateway/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	if cfg.HitPay.Debug {
		util.EnableDebugLog(cfg.HitPay.DebugLogPath)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting hitpay gateway", zap.Bool("live_mode", cfg.HitPay.LiveMode))

	if err := cfg.HitPay.Validate(); err != nil {
		logger.Warn("HitPay settings incomplete, checkout disabled", zap.Error(err))
	}

	tp, err := util.InitTracer(cfg.Server.Env, cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicPayment)
	defer producer.Close()
	logger.Info("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	hitpayClient := hitpay.NewClient(cfg.HitPay.APIKey, cfg.HitPay.LiveMode, time.Duration(cfg.HitPay.TimeoutSeconds)*time.Second)
	links := service.Links{PublicURL: cfg.Server.PublicURL, CheckoutPath: cfg.Checkout.CheckoutPath}
	statusTTL := time.Duration(cfg.Checkout.StatusCacheTTLMinutes) * time.Minute

	checkoutService := service.NewCheckoutService(db, hitpayClient, eventPublisher, cfg.HitPay, links)
	reconciler := service.NewReconciler(db, redisClient, redisClient, eventPublisher, cfg.HitPay.Salt,
		time.Duration(cfg.Checkout.WebhookLockSeconds)*time.Second)
	statusService := service.NewStatusService(db, redisClient, statusTTL)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicPayment, cfg.Kafka.ConsumerGroup)
	projector := worker.NewStatusProjector(consumer, redisClient, statusTTL)
	go func() {
		if err := projector.Start(workerCtx); err != nil && err != context.Canceled {
			logger.Error("Status projector error", zap.Error(err))
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(checkoutService, reconciler, statusService, db,
		api.PollSettings{
			Interval:    time.Duration(cfg.Checkout.PollIntervalSeconds) * time.Second,
			MaxAttempts: cfg.Checkout.PollMaxAttempts,
		},
		map[string]api.ReadinessCheck{
			"postgres": db.Ping,
			"redis":    redisClient.Ping,
		},
	)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	projector.Stop()

	logger.Info("Server exited")
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rahhal-travel/service-booking/internal/application"
	"github.com/rahhal-travel/service-booking/internal/auth"
	"github.com/rahhal-travel/service-booking/internal/config"
	"github.com/rahhal-travel/service-booking/internal/domain"
	bookingDomain "github.com/rahhal-travel/service-booking/internal/domain/booking"
	paymentDomain "github.com/rahhal-travel/service-booking/internal/domain/payment"
	"github.com/rahhal-travel/service-booking/internal/events"
	"github.com/rahhal-travel/service-booking/internal/handler"
	"github.com/rahhal-travel/service-booking/internal/kafka"
	"github.com/rahhal-travel/service-booking/internal/logger"
	"github.com/rahhal-travel/service-booking/internal/middleware"
	"github.com/rahhal-travel/service-booking/internal/repository"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-booking")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
	)

	// Connect to database. TranslateError maps driver duplicate-key errors to
	// gorm.ErrDuplicatedKey, which the repositories rely on.
	db, err := gorm.Open(postgres.Open(cfg.DBConfig.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if err := repository.Migrate(db); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("database migration completed")

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		cfg.JWTConfig.AccessExpiry,
		cfg.JWTConfig.RefreshExpiry,
	)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	paymentRepo := repository.NewGormPaymentRepository(db)
	packageRepo := repository.NewGormPackageRepository(db)
	tripRepo := repository.NewGormCustomTripRepository(db)
	txManager := repository.NewGormTxManager(db)

	// Initialize domain collaborators
	pricingStrategy := bookingDomain.NewStandardPricingStrategy()
	refGenerator := domain.NewCryptoReferenceGenerator()
	gateway := paymentDomain.NewSimulatedGateway(cfg.GatewayConfig.ApproveRate)

	// Initialize application services
	bookingService := application.NewBookingService(
		bookingRepo,
		packageRepo,
		tripRepo,
		pricingStrategy,
		refGenerator,
		txManager,
		kafkaProducer,
		log,
	)
	paymentService := application.NewPaymentService(
		paymentRepo,
		bookingRepo,
		gateway,
		refGenerator,
		txManager,
		kafkaProducer,
		cfg.GatewayConfig.Timeout,
		log,
	)
	catalogService := application.NewCatalogService(packageRepo, tripRepo, log)

	// Initialize and start gateway callback consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groupID := cfg.KafkaConfig.GroupPrefix + "booking-service"
	callbackConsumer := events.NewGatewayCallbackConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		paymentService,
		log,
	)
	defer func() { _ = callbackConsumer.Close() }()

	go func() {
		log.Info("starting gateway callback consumer")
		if err := callbackConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("gateway callback consumer error", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	bookingHandler := handler.NewBookingHandler(bookingService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	adminHandler := handler.NewAdminHandler(bookingService, paymentService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := handler.NewHealthHandler(db, "service-booking")
	healthHandler.RegisterRoutes(router)

	// Register routes
	bookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	paymentHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	catalogHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	adminHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-booking...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-booking stopped")
}

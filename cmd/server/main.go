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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/satmi-commerce/service-returns/internal/config"
	"github.com/satmi-commerce/service-returns/internal/events"
	"github.com/satmi-commerce/service-returns/internal/handlers"
	"github.com/satmi-commerce/service-returns/internal/logger"
	"github.com/satmi-commerce/service-returns/internal/middleware"
	"github.com/satmi-commerce/service-returns/internal/models"
	"github.com/satmi-commerce/service-returns/internal/providers/shiprocket"
	"github.com/satmi-commerce/service-returns/internal/providers/shopify"
	"github.com/satmi-commerce/service-returns/internal/repository"
	"github.com/satmi-commerce/service-returns/internal/routes"
	"github.com/satmi-commerce/service-returns/internal/services"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	// Load .env file in development
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	zlog, err := logger.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	// Initialize Sentry for error tracking
	sentryEnabled := cfg.Sentry.DSN != ""
	if sentryEnabled {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			Release:          cfg.Sentry.Release,
			TracesSampleRate: 0.1,
		})
		if err != nil {
			zlog.Warn("Failed to initialize Sentry", zap.Error(err))
			sentryEnabled = false
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	if err := db.AutoMigrate(&models.ReturnRequest{}); err != nil {
		zlog.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Connect to Redis for the customer lookup cache (optional)
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			zlog.Warn("Failed to connect to Redis, lookup cache disabled", zap.Error(err))
			redisClient = nil
		}
	}

	// Initialize repository
	returnRepo := repository.NewReturnRequestRepository(db)

	// Initialize the order directory client
	shopifyClient, err := shopify.NewClient(&shopify.ClientConfig{
		StoreDomain: cfg.Shopify.StoreDomain,
		AccessToken: cfg.Shopify.AccessToken,
		APIVersion:  cfg.Shopify.APIVersion,
		Logger:      zlog,
	})
	if err != nil {
		zlog.Fatal("Failed to initialize Shopify client", zap.Error(err))
	}

	// Initialize the shipment carrier client with its credential cache
	shiprocketTimeout := time.Duration(cfg.Shiprocket.TimeoutSeconds) * time.Second
	tokenSource, err := shiprocket.NewTokenSource(shiprocket.TokenSourceConfig{
		Email:          cfg.Shiprocket.Email,
		Password:       cfg.Shiprocket.Password,
		BaseURL:        cfg.Shiprocket.BaseURL,
		RequestTimeout: shiprocketTimeout,
	})
	if err != nil {
		zlog.Fatal("Failed to initialize Shiprocket credentials", zap.Error(err))
	}
	shiprocketClient, err := shiprocket.NewClient(&shiprocket.ClientConfig{
		BaseURL:        cfg.Shiprocket.BaseURL,
		Tokens:         tokenSource,
		RequestTimeout: shiprocketTimeout,
		Logger:         zlog,
	})
	if err != nil {
		zlog.Fatal("Failed to initialize Shiprocket client", zap.Error(err))
	}

	// Connect to NATS (optional - only if configured)
	var eventPublisher *events.Publisher
	if cfg.NATS.URL != "" {
		natsConn, err := nats.Connect(cfg.NATS.URL)
		if err != nil {
			zlog.Warn("Failed to connect to NATS, lifecycle events disabled", zap.Error(err))
		} else {
			zlog.Info("Connected to NATS", zap.String("url", cfg.NATS.URL))
			eventPublisher = events.NewPublisher(natsConn, zlog)
			defer natsConn.Close()
		}
	}

	// Initialize services
	lookupCache := services.NewCustomerLookupCache(redisClient, 0, zlog)
	orderLookupService := services.NewOrderLookupService(
		shopifyClient,
		lookupCache,
		services.OrderLookupConfig{
			ReturnWindow: time.Duration(cfg.Returns.WindowDays) * 24 * time.Hour,
		},
		zlog,
	)

	var lifecycle services.LifecyclePublisher
	if eventPublisher != nil {
		lifecycle = eventPublisher
	}
	returnService := services.NewReturnService(
		returnRepo,
		shiprocketClient,
		lifecycle,
		services.ReturnServiceConfig{
			WarehousePincode: cfg.Returns.WarehousePincode,
			PreferredCourier: cfg.Returns.PreferredCourier,
			RateTolerance:    cfg.Returns.RateTolerance,
			ParcelWeight:     cfg.Returns.ParcelWeight,
		},
		zlog,
	)

	// Initialize handlers
	orderHandler := handlers.NewOrderHandler(orderLookupService, zlog)
	returnHandler := handlers.NewReturnHandler(returnService, zlog)

	// Set Gin mode
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router := gin.New()
	router.Use(gin.Recovery())
	if sentryEnabled {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(middleware.RequestLogger(zlog))
	router.Use(middleware.CORSWithOrigins(cfg.App.AllowedOrigins))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "returns",
			"time":    time.Now().UTC(),
		})
	})

	// Setup routes using the routes package
	routes.SetupRoutes(router, &routes.RouteConfig{
		OrderHandler:    orderHandler,
		ReturnHandler:   returnHandler,
		StorefrontToken: cfg.Returns.StorefrontToken,
		JWTSecret:       cfg.JWT.Secret,
	})

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		zlog.Info(fmt.Sprintf("Returns service starting on port %s", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zlog.Fatal("Server forced to shutdown", zap.Error(err))
	}

	zlog.Info("Server exited")
}

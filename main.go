package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lindawangwe/mama-uncle-stores/auth"
	"github.com/lindawangwe/mama-uncle-stores/config"
	"github.com/lindawangwe/mama-uncle-stores/controllers"
	"github.com/lindawangwe/mama-uncle-stores/database"
	"github.com/lindawangwe/mama-uncle-stores/kafka"
	"github.com/lindawangwe/mama-uncle-stores/logger"
	"github.com/lindawangwe/mama-uncle-stores/middleware"
	"github.com/lindawangwe/mama-uncle-stores/repository"
	"github.com/lindawangwe/mama-uncle-stores/routes"
	"github.com/lindawangwe/mama-uncle-stores/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger is not up yet
		logger.Initialize("development").Fatal("Failed to load configuration", zap.Error(err))
	}

	log := logger.Initialize(cfg.Env)
	defer log.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStart()

	mongoClient, db, err := database.ConnectMongo(startCtx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := database.DisconnectMongo(mongoClient); err != nil {
			log.Warn("MongoDB disconnect failed", zap.Error(err))
		}
	}()

	redisClient, err := database.NewRedisClient(startCtx, cfg.RedisURL)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	users := repository.NewUserRepository(db)
	products := repository.NewProductRepository(db)
	orders := repository.NewOrderRepository(db)
	if err := orders.EnsureIndexes(startCtx); err != nil {
		log.Fatal("Failed to create order indexes", zap.Error(err))
	}
	productCache := repository.NewProductCache(redisClient, cfg.ProductCacheTTL, log)

	// order events are optional; without brokers confirmations only hit Mongo
	var publisher services.OrderEventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaOrderTopic, log)
		defer producer.Close()
		publisher = producer
	} else {
		log.Warn("KAFKA_BROKERS not set, order events disabled")
	}

	locker := services.NewRedisCartLocker(redisClient, cfg.CartLockTTL, log)
	cartService := services.NewCartService(users, products, locker, log)
	checkoutService := services.NewCheckoutService(
		services.NewStripeService(cfg.StripeAPIKey, cfg.StripeWebhookSecret),
		orders,
		publisher,
		services.CheckoutConfig{Currency: cfg.Currency, ClientURL: cfg.ClientURL},
		log,
	)
	productService := services.NewProductService(products, productCache, log)
	orderService := services.NewOrderService(orders)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter := middleware.NewRateLimiter(rate.Limit(20), 40, 3*time.Minute)
	go limiter.RunCleanup(ctx)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		logger.RequestID(),
		middleware.RequestLogger(log),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.RateLimitMiddleware(limiter, routes.WebhookPath),
		middleware.Timeout(cfg.RequestTimeout),
	)

	routes.RegisterRoutes(router, routes.Handlers{
		Auth:     middleware.AuthMiddleware(auth.NewTokenVerifier(cfg.JWTSecret), users, log),
		Cart:     controllers.NewCartController(cartService, log),
		Payments: controllers.NewPaymentController(checkoutService, log),
		Products: controllers.NewProductController(productService, log),
		Orders:   controllers.NewOrderController(orderService),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Storefront API listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown error", zap.Error(err))
	}
	log.Info("Server shutdown complete")
}

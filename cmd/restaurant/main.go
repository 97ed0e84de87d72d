package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/clients"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/repository"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/server"
	"github.com/tm-acme-shop/acme-shop-restaurant-service/internal/service"

	_ "github.com/lib/pq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "restaurant-service", logging.Config{}).
			Fatal("Invalid configuration", logging.Fields{"error": err.Error()})
	}

	logger := logging.New(os.Stdout, "restaurant-service", logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := initDatabase(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", logging.Fields{"error": err.Error()})
	}
	defer db.Close()

	if cfg.Features.AutoMigrate {
		if err := repository.Migrate(ctx, db); err != nil {
			logger.Fatal("Failed to apply schema", logging.Fields{"error": err.Error()})
		}
		logger.Info("Schema applied")
	}

	m := metrics.New()

	var redisClient *redis.Client
	if cfg.Features.EnableCache || cfg.Features.EnableRedisRelay {
		redisClient = repository.NewRedisClient(cfg.Redis)
		defer redisClient.Close()
	}

	// cache stays a nil interface when disabled; services check for that.
	var cache repository.Cache
	if cfg.Features.EnableCache {
		cache = repository.NewRedisCache(redisClient, cfg.Redis.TTL, logger).WithObserver(m)
	}

	hub := events.NewHub(cfg.Websocket.QueueSize, cfg.Websocket.MaxDrops, logger).WithObserver(m)
	defer hub.Close()

	var broadcaster events.Broadcaster = hub
	if cfg.Features.EnableRedisRelay {
		relay := events.NewRedisRelay(redisClient, cfg.Websocket.Channel, hub, logger)
		broadcaster = relay
		go func() {
			if err := relay.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("Redis relay stopped", logging.Fields{"error": err.Error()})
			}
		}()
	}

	var publisher events.OrderEventPublisher
	if cfg.Features.EnableKafka {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Kafka, logger)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}
	notifier := events.NewOrderNotifier(broadcaster, publisher, logger)

	restaurantRepo := repository.NewPostgresRestaurantRepository(db)
	categoryRepo := repository.NewPostgresCategoryRepository(db)
	productRepo := repository.NewPostgresProductRepository(db)
	orderRepo := repository.NewPostgresOrderRepository(db, logger).WithDayLocation(cfg.Orders.DayLocation)
	userRepo := repository.NewPostgresUserRepository(db)
	couponRepo := repository.NewPostgresCouponRepository(db)

	authService := service.NewAuthService(restaurantRepo, service.NewTokenIssuer(cfg.Auth), logger)
	orderService := service.NewOrderService(
		orderRepo,
		productRepo,
		restaurantRepo,
		couponRepo,
		cache,
		notifier,
		logger,
	).WithObserver(m)

	services := handlers.Services{
		Auth:       authService,
		Restaurant: service.NewRestaurantService(restaurantRepo, cache, logger),
		Menu:       service.NewMenuService(restaurantRepo, categoryRepo, productRepo, cache, logger),
		Orders:     orderService,
		Users:      service.NewUserService(userRepo, restaurantRepo, logger),
		Loyalty: service.NewLoyaltyService(
			repository.NewPostgresOfferRepository(db),
			couponRepo,
			repository.NewPostgresComboRepository(db),
			repository.NewPostgresPopupRepository(db),
			repository.NewPostgresSliderRepository(db),
			productRepo,
			logger,
		),
		QRCode: service.NewQRCodeService(restaurantRepo, cfg.PublicApp.BaseURL),
	}

	var media clients.MediaUploader
	if cloudinaryClient, err := clients.NewCloudinaryMediaClient(cfg.Media, logger); err == nil {
		media = cloudinaryClient
	} else {
		logger.Warn("Image uploads disabled", logging.Fields{"error": err.Error()})
	}

	h := handlers.NewHandlers(services, hub, media, logger).
		WithAllowedOrigins(cfg.CORS.AllowedOrigins).
		WithReadinessCheck("postgres", db)
	if cache != nil {
		h.WithReadinessCheck("redis", handlers.PingFunc(cache.Ping))
	}

	srv, err := server.New(cfg, h, authService, m, logger)
	if err != nil {
		logger.Fatal("Failed to build server", logging.Fields{"error": err.Error()})
	}

	var consumer *events.KafkaConsumer
	if cfg.Features.EnableKafka {
		consumer = events.NewKafkaConsumer(cfg.Kafka, orderService, logger)
		go func() {
			if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Error("Payment consumer failed", logging.Fields{"error": err.Error()})
			}
		}()
	}

	go func() {
		logger.Info("Server starting", logging.Fields{
			"port":        cfg.Server.Port,
			"kafka":       cfg.Features.EnableKafka,
			"cache":       cfg.Features.EnableCache,
			"redis_relay": cfg.Features.EnableRedisRelay,
		})
		if err := srv.Run(); err != nil {
			logger.Fatal("Server failed", logging.Fields{"error": err.Error()})
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if consumer != nil {
		consumer.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", logging.Fields{"error": err.Error()})
	}
	notifier.Wait()

	logger.Info("Server exited")
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("Database connected", logging.Fields{
		"host": cfg.Database.Host,
		"name": cfg.Database.Name,
	})
	return db, nil
}

package main

import (
	"context"
	"time"

	"checkout-service/controllers"
	"checkout-service/database"
	"checkout-service/kafka"
	"checkout-service/logger"
	"checkout-service/middleware"
	aws_pkg "checkout-service/pkg/aws"
	"checkout-service/repository"
	"checkout-service/routes"
	"checkout-service/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := LoadConfig()
	if err != nil {
		panic(err)
	}

	log := logger.Initialize(cfg.Env)
	defer log.Sync()

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}

	cartRepo := repository.NewGormCartRepository(db)
	orderRepo := repository.NewGormOrderRepository(db)

	// Redis only backs idempotency keys; checkout still works without it.
	var idemStore repository.IdempotencyStore
	if redisClient, err := database.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, 0); err != nil {
		log.Warn("redis unavailable, idempotency keys disabled", zap.Error(err))
	} else {
		idemStore = repository.NewRedisIdempotencyStore(redisClient, 24*time.Hour)
	}

	var producer kafka.ProducerAPI
	if len(cfg.KafkaBrokers) > 0 {
		p := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		defer p.Close()
		producer = p
	} else {
		log.Warn("KAFKA_BROKERS not set, order events disabled")
	}

	var snsClient aws_pkg.SNSPublisher
	if cfg.SNSTopicArn != "" {
		if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background()); err != nil {
			log.Warn("aws config load failed, sns publishing disabled", zap.Error(err))
		} else {
			snsClient = aws_pkg.NewSNSClient(awsCfg)
		}
	}

	catalog := services.NewHTTPProductCatalog(cfg.CatalogURL)

	cartService := services.NewCartService(cartRepo, log)
	checkoutService := services.NewCheckoutService(
		cartRepo, orderRepo, catalog, idemStore, producer, snsClient, cfg.SNSTopicArn, log)
	orderService := services.NewOrderService(orderRepo, log)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(log), gin.Recovery())

	routes.Register(r,
		controllers.NewCartController(cartService, checkoutService),
		controllers.NewOrderController(orderService),
	)

	log.Info("checkout service listening", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

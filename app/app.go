package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/accountforge/account-service/configs"
	"github.com/accountforge/account-service/internal/handlers"
	"github.com/accountforge/account-service/internal/interest"
	"github.com/accountforge/account-service/internal/services"
	"github.com/accountforge/account-service/pkg"
	"github.com/accountforge/account-service/pkg/cache"
	"github.com/accountforge/account-service/pkg/database"
	middleware "github.com/accountforge/account-service/pkg/middlewares"
	"github.com/accountforge/account-service/pkg/repositories"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewApp wires dependencies, builds the Gin engine, and returns an *http.Server and a cleanup func.
// It reads configuration from environment variables via configs.Load.
func NewApp(ctx context.Context, logger *zap.Logger) (*http.Server, func(), error) {
	// Load config
	cfg, err := configs.Load(logger)
	if err != nil {
		return nil, nil, err
	}

	// Initialize postgres db
	dbConfig := database.Config{
		PrimaryDSN: cfg.PrimaryDbAddr,
		MaxConns:   cfg.MaxDbCons,
		MinConns:   cfg.MinDbCons,
	}
	if cfg.ReplicaDbAddr != "" {
		dbConfig.ReplicaDSNs = []string{cfg.ReplicaDbAddr}
	}
	db, disconnect, err := database.New(ctx, logger, dbConfig)
	if err != nil {
		return nil, nil, err
	}

	// Run migrations on primary
	if err := database.RunMigrations(logger, cfg.PrimaryDbAddr); err != nil {
		disconnect()
		return nil, nil, err
	}

	// Redis-backed rate limiting for mutating transactions
	redisClient, closeRedis, err := cache.New(ctx, cache.Config{Addr: cfg.RedisAddr})
	if err != nil {
		disconnect()
		return nil, nil, err
	}
	var limiter services.RateLimiter
	if cfg.TxRatePerSecond > 0 {
		limiter = pkg.NewDistributedLimiter(redisClient, "account:tx", cfg.TxRatePerSecond, cfg.TxRateBurst, time.Second, logger)
	}

	// Setup dependencies
	baseHandler := handlers.NewBaseHandler(logger)
	publisher := services.NewEventPublisher(logger, ctx, cfg)

	accountRepo := repositories.NewAccountRepository(db, logger)
	featureRepo := repositories.NewFeatureRepository(db, logger)
	calculator := interest.NewCalculator(nil, logger)

	accountService := services.NewAccountService(services.AccountServiceConfig{
		Logger:      logger,
		DB:          db,
		AccountRepo: accountRepo,
		FeatureRepo: featureRepo,
		Calculator:  calculator,
		Publisher:   publisher,
		Limiter:     limiter,
	})
	accountHandler := handlers.NewAccountHandler(logger, accountService)

	// Router
	r := gin.Default()

	api := r.Group("/api/v1")
	api.Use(middleware.TraceID())
	api.Use(middleware.Metrics())

	accountHandler.RegisterRoutes(api)
	baseHandler.RegisterRoutes(r)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	cleanup := func() {
		// close db pools
		disconnect()
		// close redis client
		closeRedis()
		// close kafka producer
		publisher.Close()
	}

	return srv, cleanup, nil
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/cache"
	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/config"
	h "github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/http"
	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/logger"
	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/metrics"
	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/publisher"
	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/repository"
	"github.com/JayanthMM5/Odooxnmit-Team-CTRL-C-V/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zl.Sync()

	zl.Info("marketplace starting", zap.String("db_driver", cfg.DBDriver))

	repo, err := openRepository(cfg)
	if err != nil {
		zl.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer repo.Close()

	if err := repo.RunMigrations(cfg.MigrationsPath); err != nil {
		zl.Fatal("Failed to run migrations", zap.Error(err))
	}
	zl.Info("Database migrations completed")

	productCache, closeCache := openCache(cfg, zl)
	defer closeCache()

	m := metrics.New()

	accounts := service.NewAccountService(repo, cfg.JWTSecret, cfg.JWTTTL, cfg.StorageTimeout)
	catalog := service.NewCatalogService(repo, productCache, cfg.StorageTimeout, zl)
	carts := service.NewCartService(repo, repo, cfg.StorageTimeout, zl)
	checkout := service.NewCheckoutService(repo, repo, cfg.StorageTimeout, zl, m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(cfg.KafkaBrokers) > 0 {
		poller := publisher.NewOutboxPoller(repo, cfg.KafkaTopic, zl, m, cfg.KafkaBrokers...)
		defer poller.Close()
		go poller.Run(ctx)
		zl.Info("Outbox poller started", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	} else {
		zl.Info("KAFKA_BROKERS not set, purchase events stay in the outbox")
	}

	router := h.NewRouter(h.RouterDeps{
		Accounts:       accounts,
		Catalog:        catalog,
		Cart:           carts,
		Checkout:       checkout,
		Log:            zl,
		Metrics:        m,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "marketplace"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zl.Info("HTTP server starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
	}

	zl.Info("server exited")
}

func openRepository(cfg *config.Config) (*repository.Repository, error) {
	if cfg.DBDriver == "postgres" {
		return repository.NewRepository(&repository.Credentials{
			Host:              cfg.DBHost,
			Port:              cfg.DBPort,
			User:              cfg.DBUser,
			Password:          cfg.DBPassword,
			DBName:            cfg.DBName,
		})
	}
	return repository.NewSQLiteRepository(cfg.SQLitePath)
}

// openCache connects to Redis when REDIS_ADDR is set. Without it, or when
// Redis is unreachable, product reads go straight to the database.
func openCache(cfg *config.Config, zl *zap.Logger) (cache.ProductCache, func()) {
	if cfg.RedisAddr == "" {
		return cache.NopCache{}, func() {}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		zl.Warn("Redis ping failed, running without product cache", zap.Error(err))
		redisClient.Close()
		return cache.NopCache{}, func() {}
	}
	zl.Info("Redis ping succeeded", zap.String("addr", cfg.RedisAddr))

	return cache.NewRedisCache(redisClient), func() { redisClient.Close() }
}

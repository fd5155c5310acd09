package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"anoa.com/localswap/internal/bootstrap"
	"anoa.com/localswap/internal/config"
	quoteRepo "anoa.com/localswap/internal/modules/encouragement/repository"
	userRepo "anoa.com/localswap/internal/modules/user/repository"
	"anoa.com/localswap/internal/server"
	"anoa.com/localswap/pkg/database"
	"anoa.com/localswap/pkg/events"
	"anoa.com/localswap/pkg/logger"
	"anoa.com/localswap/pkg/storage"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl := logger.Init(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat)
	defer logger.Sync()

	ctx := context.Background()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		zl.Fatal("database connection failed", zap.Error(err))
	}
	if err := bootstrap.Migrate(db); err != nil {
		zl.Fatal("migration failed", zap.Error(err))
	}
	if err := bootstrap.SeedQuotes(ctx, quoteRepo.NewQuoteRepository(db), zl); err != nil {
		zl.Fatal("failed to seed quotes", zap.Error(err))
	}
	if cfg.AppEnv == "development" {
		if err := bootstrap.SeedDemoUsers(ctx, userRepo.NewUserRepository(db), zl); err != nil {
			zl.Fatal("failed to seed demo users", zap.Error(err))
		}
	}

	redisClient, err := database.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		zl.Fatal("redis connection failed", zap.Error(err))
	}
	if redisClient == nil {
		zl.Warn("REDIS_URL not set, realtime delivery and message cooldowns are disabled")
	} else {
		defer redisClient.Close()
	}

	imageStorage, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		zl.Fatal("failed to initialize image storage", zap.Error(err))
	}

	publisher := events.NewNoopPublisher()
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, zl)
	}
	defer publisher.Close()

	srv, err := server.NewServer(cfg, server.Deps{
		DB:           db,
		Redis:        redisClient,
		ImageStorage: imageStorage,
		Publisher:    publisher,
	}, zl)
	if err != nil {
		zl.Fatal("failed to build server", zap.Error(err))
	}

	go func() {
		if err := srv.Run(); err != nil {
			zl.Fatal("server exited with error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
	}

	zl.Info("server exited")
}

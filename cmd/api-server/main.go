package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yamdb/database"
	"yamdb/internal/cache"
	"yamdb/internal/config"
	"yamdb/internal/logger"
	"yamdb/internal/mailer"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/microservices/http-api/server"
	"yamdb/internal/microservices/http-api/service"
	"yamdb/internal/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("could not create logger: %v", err)
	}
	defer zl.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.ConnectDB(cfg)
	if err != nil {
		zap.L().Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		zap.L().Fatal("Failed to migrate database", zap.Error(err))
	}

	opts := server.Options{
		CORSOrigins:    cfg.CORSOrigins,
		AuthRateLimit:  cfg.AuthRateLimit,
		AuthRateWindow: cfg.AuthRateWindow,
		DB:             database.NewHealth(db),
	}

	// Redis only backs rate limiting, so the API starts without it.
	var redisClient *cache.Client
	if cfg.RedisURL != "" {
		redisClient, err = cache.New(cfg.RedisURL, cfg.RedisPassword)
		if err != nil {
			zap.L().Fatal("Invalid Redis configuration", zap.Error(err))
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx); err != nil {
			zap.L().Warn("Redis unreachable, auth rate limiting fails open", zap.Error(err))
		}
		cancel()
		opts.RateCounter = redisClient
		opts.Redis = redisClient
	}

	var sender mailer.Sender = mailer.LogSender{}
	if cfg.MailDriver == "smtp" {
		sender = mailer.NewSMTPSender(cfg.MailHost, cfg.MailPort, cfg.MailUsername, cfg.MailPassword, cfg.MailFrom)
	}
	dispatcher := mailer.NewDispatcher(sender, cfg.MailWorkers, cfg.MailRatePerSecond)
	dispatcher.Start()

	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)
	confirm := service.NewConfirmationService(repository.NewConfirmationCodeRepository(db), cfg.ConfirmationCodeTTL)
	services := server.NewServices(db, tokens, confirm, mailer.NewConfirmationMailer(dispatcher))

	if err := validation.RegisterGinValidators(); err != nil {
		zap.L().Fatal("Failed to register validators", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           server.NewRouter(services, opts),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	service.StartCodeCleanup(ctx, confirm, cfg.CodeCleanupInterval)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		zap.L().Info("Starting API server", zap.String("addr", srv.Addr), zap.String("env", cfg.GoEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		zap.L().Info("Received shutdown signal")
	case err := <-errChan:
		zap.L().Error("Server error", zap.Error(err))
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP server shutdown failed", zap.Error(err))
	}
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Mail dispatcher did not drain", zap.Error(err))
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			zap.L().Warn("Failed to close Redis client", zap.Error(err))
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	zap.L().Info("Server stopped gracefully")
}


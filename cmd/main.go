package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"civiceye/backend/internal/analysis"
	"civiceye/backend/internal/api/handler"
	"civiceye/backend/internal/auth"
	"civiceye/backend/internal/complaint"
	"civiceye/backend/internal/config"
	"civiceye/backend/internal/events"
	"civiceye/backend/internal/hub"
	"civiceye/backend/internal/localization"
	"civiceye/backend/internal/logger"
	"civiceye/backend/internal/objectstore"
	"civiceye/backend/internal/report"
	"civiceye/backend/internal/rewards"
	"civiceye/backend/internal/storage"
	"civiceye/backend/internal/telegram"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// eventBus carries complaint events from the service to the realtime hub.
type eventBus interface {
	events.Publisher
	events.Subscriber
}

func setupDependencies(ctx context.Context, cfg *config.Config, log *zap.Logger) (*gorm.DB, *redis.Client) {
	// 1. PostgreSQL
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("Failed to connect PostgreSQL", zap.Error(err))
	}

	// 2. Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to connect Redis", zap.Error(err))
	}

	log.Info("Database and Redis connections established")
	return db, rdb
}

func setupObjectStore(ctx context.Context, cfg *config.Config, r *gin.Engine, log *zap.Logger) (objectstore.Store, string) {
	if cfg.Storage.Driver == "gcs" {
		gcs, err := objectstore.NewGCSStore(ctx, cfg.Storage.Bucket, cfg.Storage.CredentialsFile, log)
		if err != nil {
			log.Fatal("Failed to create GCS client", zap.Error(err))
		}
		return gcs, gcs.BaseURL()
	}

	disk, err := objectstore.NewDiskStore(cfg.Storage.DiskRoot, cfg.Storage.PublicBaseURL)
	if err != nil {
		log.Fatal("Failed to prepare evidence directory", zap.Error(err))
	}
	mount := "/evidence"
	if u, err := url.Parse(disk.BaseURL()); err == nil && u.Path != "" {
		mount = u.Path
	}
	r.Static(mount, disk.Root())
	return disk, disk.BaseURL()
}

func setupEvents(cfg *config.Config, rdb *redis.Client, log *zap.Logger) (eventBus, func()) {
	if cfg.Events.Broker == "rabbitmq" {
		bus, err := events.NewAMQPBus(cfg.Events.RabbitMQURL, log)
		if err != nil {
			log.Fatal("Failed to connect RabbitMQ", zap.Error(err))
		}
		return bus, func() {
			if err := bus.Close(); err != nil {
				log.Warn("Failed to close RabbitMQ connection", zap.Error(err))
			}
		}
	}
	return events.NewRedisBus(rdb, log), func() {}
}

func setupNotifier(cfg *config.Config, log *zap.Logger) complaint.Notifier {
	if cfg.Telegram.BotToken == "" || cfg.Telegram.ChatID == 0 {
		log.Info("Telegram notifications disabled")
		return telegram.Nop{}
	}
	l, err := localization.Default()
	if err != nil {
		log.Fatal("Failed to load translations", zap.Error(err))
	}
	n, err := telegram.NewBotNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.Language, l, log)
	if err != nil {
		log.Fatal("Failed to start Telegram bot", zap.Error(err))
	}
	return n
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: .env file not loaded")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	log.Info("Starting CivicEye backend", zap.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Infrastructure
	db, rdb := setupDependencies(ctx, cfg, log)
	s := storage.NewStorageService(db, rdb, log)
	if err := s.Migrate(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = 8 << 20

	analyzer, err := analysis.NewGatewayClient(analysis.GatewayConfig{
		URL:     cfg.AI.GatewayURL,
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.Model,
		Timeout: cfg.AI.Timeout,
	}, log)
	if err != nil {
		log.Fatal("Failed to configure AI gateway", zap.Error(err))
	}
	objects, baseURL := setupObjectStore(ctx, cfg, r, log)
	bus, closeBus := setupEvents(cfg, rdb, log)
	defer closeBus()

	// 2. Domain services
	ledger := rewards.NewLedger(s, log)
	complaints := complaint.NewService(complaint.Deps{
		Storage:         s,
		Analyzer:        analyzer,
		Objects:         objects,
		EvidenceBaseURL: baseURL,
		Publisher:       bus,
		Notifier:        setupNotifier(cfg, log),
		Ledger:          ledger,
		Logger:          log,
	})
	accounts := auth.NewAccounts(s, auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), cfg.Auth.AdminRegistrationKey, log)

	// 3. Realtime hub
	h := hub.NewManagerService(bus, log)
	go func() {
		if err := h.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Realtime hub stopped", zap.Error(err))
		}
	}()

	// 4. Routes
	api := &handler.Handler{
		Complaints: complaints,
		Stats:      report.NewStatsService(s, log),
		Ledger:     ledger,
		Accounts:   accounts,
		Storage:    s,
		Publisher:  bus,
		Hub:        h,
		Logger:     log,

		AllowedOrigins: cfg.Server.AllowedOrigins,
	}
	api.RegisterRoutes(r)

	server := &http.Server{
		Addr:           cfg.Server.Addr,
		Handler:        r,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
	complaints.Wait()
}

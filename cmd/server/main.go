package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	inventoryapp "github.com/pharmacore/backend/internal/application/inventory"
	salesapp "github.com/pharmacore/backend/internal/application/sales"
	"github.com/pharmacore/backend/internal/domain/inventory"
	"github.com/pharmacore/backend/internal/domain/shared"
	"github.com/pharmacore/backend/internal/infrastructure/auth"
	"github.com/pharmacore/backend/internal/infrastructure/cache"
	"github.com/pharmacore/backend/internal/infrastructure/config"
	"github.com/pharmacore/backend/internal/infrastructure/event"
	"github.com/pharmacore/backend/internal/infrastructure/logger"
	"github.com/pharmacore/backend/internal/infrastructure/persistence"
	"github.com/pharmacore/backend/internal/interfaces/http/handler"
	"github.com/pharmacore/backend/internal/interfaces/http/middleware"
	"github.com/pharmacore/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting pharmacore backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Idempotency store: Redis when configured, in-memory otherwise
	var idempotencyStore shared.IdempotencyStore
	if cfg.Redis.Host != "" {
		redisStore, err := cache.NewRedisIdempotencyStore(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		idempotencyStore = redisStore
		log.Info("Redis idempotency store connected")
	} else {
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
		log.Warn("Using in-memory idempotency store; payment deduplication is per-instance")
	}
	defer func() {
		_ = idempotencyStore.Close()
	}()

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditLogHandler(log))
	eventBus.Subscribe(event.NewLowStockAlertHandler(log))
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	stockService := inventory.NewStockService()
	salesScope := persistence.NewGormSalesTransactionScope(db.DB)
	inventoryScope := persistence.NewGormInventoryTransactionScope(db.DB)

	saleService := salesapp.NewSaleService(salesScope, stockService, eventBus, log)
	settlementService := salesapp.NewSettlementService(salesScope, idempotencyStore, eventBus, log).
		WithIdempotencyTTL(cfg.Inventory.IdempotencyTTL)
	inventoryService := inventoryapp.NewInventoryService(inventoryScope, stockService, eventBus, log)

	jwtService := auth.NewJWTService(cfg.JWT)

	if err := middleware.RegisterValidations(); err != nil {
		log.Fatal("Failed to register validations", zap.Error(err))
	}

	engine := router.New(cfg, log, jwtService, router.Handlers{
		Sales:      handler.NewSalesHandler(saleService),
		Settlement: handler.NewSettlementHandler(settlementService),
		Inventory:  handler.NewInventoryHandler(inventoryService, cfg.Inventory.NearExpiryWindow),
	})

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	if err := eventBus.Stop(ctx); err != nil {
		log.Error("Event bus stop failed", zap.Error(err))
	}
	log.Info("Server stopped")
}

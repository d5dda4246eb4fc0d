package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ardhix/warehouse-ledger/config"
	"github.com/ardhix/warehouse-ledger/internal/auth"
	"github.com/ardhix/warehouse-ledger/internal/broker"
	"github.com/ardhix/warehouse-ledger/internal/cache"
	"github.com/ardhix/warehouse-ledger/internal/database"
	"github.com/ardhix/warehouse-ledger/internal/events"
	"github.com/ardhix/warehouse-ledger/internal/logger"

	adjH "github.com/ardhix/warehouse-ledger/internal/adjustment/handler"
	adjRepoPkg "github.com/ardhix/warehouse-ledger/internal/adjustment/repository"
	adjUCPkg "github.com/ardhix/warehouse-ledger/internal/adjustment/usecase"

	"github.com/ardhix/warehouse-ledger/internal/catalog"
	catH "github.com/ardhix/warehouse-ledger/internal/catalog/handler"

	invH "github.com/ardhix/warehouse-ledger/internal/inventory/handler"
	invRepoPkg "github.com/ardhix/warehouse-ledger/internal/inventory/repository"
	invUCPkg "github.com/ardhix/warehouse-ledger/internal/inventory/usecase"

	ledH "github.com/ardhix/warehouse-ledger/internal/ledger/handler"
	ledListenerPkg "github.com/ardhix/warehouse-ledger/internal/ledger/listener"
	ledRepoPkg "github.com/ardhix/warehouse-ledger/internal/ledger/repository"
	ledUCPkg "github.com/ardhix/warehouse-ledger/internal/ledger/usecase"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	appLogger := logger.New(cfg)
	defer appLogger.Sync()

	db, err := database.NewPostgres(&cfg.Postgres)
	if err != nil {
		appLogger.Fatal("could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("connected to PostgreSQL", zap.String("db_name", cfg.Postgres.DBName))

	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		appLogger.Fatal("could not connect to redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// Repositories
	invStore := invRepoPkg.NewPGStore(db)
	ledRepo := ledRepoPkg.NewPGRepository(db, invStore)
	adjRepo := adjRepoPkg.NewPGRepository(db, invStore, ledRepo)

	// Event bus: in-process fan-out mirrored across instances via redis.
	bus := events.NewBroker(redisClient, appLogger)

	// Catalog cache, warmed from active inventory at startup.
	catRepo := catalog.NewRedisRepository(redisClient, invStore, appLogger)
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	if n, err := catRepo.Rebuild(startupCtx); err != nil {
		appLogger.Warn("catalog warm-up failed", zap.Error(err))
	} else {
		appLogger.Info("catalog warmed", zap.Int("codes", n))
	}
	cancelStartup()

	// UseCases
	ledUC := ledUCPkg.NewLedgerUseCase(ledRepo, invStore, redisClient, catRepo, bus, appLogger)
	invUC := invUCPkg.NewInventoryUseCase(invStore, bus, appLogger)
	adjUC := adjUCPkg.NewAdjustmentUseCase(adjRepo, redisClient, bus, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Kafka.Enabled {
		consumer := broker.NewConsumer(&cfg.Kafka)
		defer consumer.Close()
		appLogger.Info("connected to Kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
		go ledListenerPkg.NewShipmentListener(consumer, ledUC, appLogger).Start(ctx)
	}

	// HTTP surface
	if cfg.Server.AppEnv != "dev" && cfg.Server.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	api.Use(auth.Middleware())

	invH.NewInventoryHandler(invUC, appLogger).Register(api)
	ledH.NewLedgerHandler(ledUC, appLogger).Register(api)
	adjH.NewAdjustmentHandler(adjUC, appLogger).Register(api)
	catH.NewCatalogHandler(catRepo, appLogger).Register(api)
	api.GET("/events", events.SSEHandler(bus))

	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	srv := &http.Server{
		Addr:    port,
		Handler: router,
	}

	appLogger.Info("starting HTTP server", zap.String("port", port))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("forced shutdown", zap.Error(err))
	}
	appLogger.Info("server stopped")
}

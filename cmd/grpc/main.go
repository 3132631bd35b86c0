package main

import (
	"context"
	"errors"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/chronostore/config"
	"github.com/fekuna/chronostore/internal/auth"
	"github.com/fekuna/chronostore/internal/catalog"
	"github.com/fekuna/chronostore/internal/currency"
	"github.com/fekuna/chronostore/internal/database"
	"github.com/fekuna/chronostore/internal/logger"
	"github.com/fekuna/chronostore/internal/metrics"
	"github.com/fekuna/chronostore/internal/notify"
	"github.com/fekuna/chronostore/internal/search"
	"github.com/fekuna/chronostore/internal/server"
	"github.com/fekuna/chronostore/internal/settings"
	"github.com/fekuna/chronostore/internal/statistics"
	"github.com/fekuna/chronostore/internal/storage"

	adminDto "github.com/fekuna/chronostore/internal/admin/dto"
	adminH "github.com/fekuna/chronostore/internal/admin/handler"
	adminRepoPkg "github.com/fekuna/chronostore/internal/admin/repository"
	adminUCPkg "github.com/fekuna/chronostore/internal/admin/usecase"

	catRepoPkg "github.com/fekuna/chronostore/internal/catalog/repository"
	catUCPkg "github.com/fekuna/chronostore/internal/catalog/usecase"

	invH "github.com/fekuna/chronostore/internal/inventory/handler"
	invListenerPkg "github.com/fekuna/chronostore/internal/inventory/listener"
	invRepoPkg "github.com/fekuna/chronostore/internal/inventory/repository"
	invUCPkg "github.com/fekuna/chronostore/internal/inventory/usecase"

	setH "github.com/fekuna/chronostore/internal/settings/handler"
	setRepoPkg "github.com/fekuna/chronostore/internal/settings/repository"
	setUCPkg "github.com/fekuna/chronostore/internal/settings/usecase"

	shopRepoPkg "github.com/fekuna/chronostore/internal/shopper/repository"
	shopUCPkg "github.com/fekuna/chronostore/internal/shopper/usecase"

	statH "github.com/fekuna/chronostore/internal/statistics/handler"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
		logConfig.Level = cfg.Logger.Level
	}
	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	loc, err := time.LoadLocation(cfg.Server.Timezone)
	if err != nil {
		appLogger.Warn("Unknown store timezone, using UTC+5", zap.String("timezone", cfg.Server.Timezone), zap.Error(err))
		loc = time.FixedZone("UTC+5", 5*60*60)
	}

	// 3. Redis (shared KV backend and catalog cache)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	redisUp := pingRedis(redisClient) == nil
	if redisUp {
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		appLogger.Warn("Redis unavailable, catalog cache disabled", zap.String("addr", cfg.Redis.Addr))
	}

	// 4. Durable store
	kv, err := openKV(cfg.Storage, redisClient, redisUp)
	if err != nil {
		appLogger.Fatal("Could not open storage backend", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}
	store := storage.NewStore(kv, appLogger)
	defer store.Close()

	invRepo := invRepoPkg.NewStoreRepository(store)
	adminRepo := adminRepoPkg.NewStoreRepository(store)
	setLocal := setRepoPkg.NewStoreRepository(store)
	shopRepo := shopRepoPkg.NewStoreRepository(store)

	if err := store.Load(context.Background()); err != nil {
		appLogger.Fatal("Could not load collections", zap.Error(err))
	}
	appLogger.Info("Storage loaded", zap.String("backend", cfg.Storage.Backend))

	// 5. Postgres (remote settings)
	var setRemote settings.Remote
	var db *sqlx.DB
	if cfg.Postgres.Enabled {
		db, err = database.NewPostgres(&database.Config{
			Host:            cfg.Postgres.Host,
			Port:            cfg.Postgres.Port,
			User:            cfg.Postgres.User,
			Password:        cfg.Postgres.Password,
			DBName:          cfg.Postgres.DBName,
			SSLMode:         cfg.Postgres.SSLMode,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
			ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to database", zap.Error(err))
		}
		defer db.Close()
		pgRepo := setRepoPkg.NewPGRepository(db)
		if err := pgRepo.EnsureSchema(context.Background()); err != nil {
			appLogger.Fatal("Could not prepare settings table", zap.Error(err))
		}
		setRemote = pgRepo
		appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))
	}

	// 6. Elasticsearch
	var productIndex *search.ProductIndex
	esClient, err := search.NewClient(&search.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Elasticsearch, catalog search uses substring matching", zap.Error(err))
	} else {
		productIndex = search.NewProductIndex(esClient, cfg.Elastic.Index)
		appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
	}

	// 7. Kafka
	notifier := notify.NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.OrdersTopic)
	defer notifier.Close()
	reader := invListenerPkg.NewKafkaReader(invListenerPkg.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.AdjustmentTopic,
		GroupID: cfg.Kafka.GroupID,
	})

	// 8. Initialize UseCases
	registry := metrics.NewRegistry()
	rates := currency.NewConverter(appLogger)

	invUC := invUCPkg.NewInventoryUseCase(invRepo, notifier, registry, appLogger)
	adminUC := adminUCPkg.NewAdminUseCase(adminRepo, appLogger)
	setUC := setUCPkg.NewSettingsUseCase(setLocal, setRemote, rates, appLogger)
	shopUC := shopUCPkg.NewShopperUseCase(shopRepo, invRepo, invUC, setUC, appLogger)
	aggregator := statistics.NewAggregator(invRepo, setUC, loc, appLogger)

	var searcher catalog.Searcher
	var cache catalog.Cache
	if productIndex != nil {
		searcher = productIndex
	}
	if redisUp {
		cache = catRepoPkg.NewRedisCache(redisClient)
	}
	catUC := catUCPkg.NewCatalogUseCase(invRepo, searcher, cache, registry, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := setUC.Load(ctx); err != nil {
		appLogger.Fatal("Could not load store settings", zap.Error(err))
	}
	if cfg.Admin.Phone != "" && cfg.Admin.Password != "" {
		if _, err := adminUC.EnsureDefault(ctx, &adminDto.CreateAdminInput{
			Name:     cfg.Admin.Name,
			Phone:    cfg.Admin.Phone,
			Password: cfg.Admin.Password,
		}); err != nil {
			appLogger.Error("Could not seed default administrator", zap.Error(err))
		}
	}

	// 9. Background workers
	if productIndex != nil {
		indexer := search.NewIndexer(productIndex, invRepo, registry, appLogger)
		if err := indexer.Reindex(ctx); err != nil {
			appLogger.Warn("Initial search reindex failed", zap.Error(err))
		}
		indexer.Watch(ctx, store.Bus())
	}
	stopInvalidation := catUCPkg.Watch(store.Bus(), catUC, cache, appLogger)
	defer stopInvalidation()

	stockListener := invListenerPkg.NewStockListener(reader, invUC, registry, appLogger)
	go stockListener.Start(ctx)
	defer stockListener.Close()

	// 10. gRPC server
	resolver := auth.NewResolver(adminUC, appLogger)

	port := normalizePort(cfg.Server.GRPCPort)
	lis, err := net.Listen("tcp", port)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(resolver.UnaryInterceptor()),
	)
	invH.Register(grpcServer, invH.NewInventoryHandler(invUC, appLogger))
	adminH.Register(grpcServer, adminH.NewAdminHandler(adminUC, appLogger))
	setH.Register(grpcServer, setH.NewSettingsHandler(setUC, rates, appLogger))
	statH.Register(grpcServer, statH.NewStatisticsHandler(aggregator, appLogger))
	reflection.Register(grpcServer)

	appLogger.Info("Starting gRPC server", zap.String("port", port))
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	// 11. HTTP storefront
	httpServer := server.NewServer(server.Deps{
		Catalog:    catUC,
		Shopper:    shopUC,
		Settings:   setUC,
		Statistics: aggregator,
		Currency:   rates,
		Resolver:   resolver,
		Metrics:    registry,
		Logger:     appLogger,
		Health: func(ctx context.Context) error {
			if db != nil {
				return db.PingContext(ctx)
			}
			return nil
		},
	})
	httpPort := normalizePort(cfg.Server.HTTPPort)
	appLogger.Info("Starting HTTP server", zap.String("port", httpPort))
	go func() {
		if err := httpServer.Start(httpPort); err != nil {
			appLogger.Fatal("failed to serve http", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}

func openKV(cfg config.StorageConfig, client *redis.Client, redisUp bool) (storage.KV, error) {
	switch strings.ToLower(cfg.Backend) {
	case "pebble":
		return storage.OpenPebble(cfg.PebbleDir)
	case "redis":
		if !redisUp {
			return nil, errors.New("redis backend selected but redis is unreachable")
		}
		return storage.NewRedisKV(client, cfg.RedisKeys), nil
	case "memory":
		return storage.NewMemoryKV(), nil
	}
	return nil, errors.New("unknown storage backend " + cfg.Backend)
}

func pingRedis(client *redis.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return client.Ping(ctx).Err()
}

func normalizePort(port string) string {
	if !strings.HasPrefix(port, ":") && !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}

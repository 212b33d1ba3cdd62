// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/tajalli-pos/internal/adapters/db"
	redis_a "github.com/ammerola/tajalli-pos/internal/adapters/redis_adapter"
	"github.com/ammerola/tajalli-pos/internal/adapters/storage"
	"github.com/ammerola/tajalli-pos/internal/core/services"
	"github.com/ammerola/tajalli-pos/internal/handlers"
	"github.com/ammerola/tajalli-pos/internal/handlers/middleware"
	"github.com/ammerola/tajalli-pos/internal/pkg/auth"
	"github.com/ammerola/tajalli-pos/internal/pkg/config"
	"github.com/ammerola/tajalli-pos/internal/pkg/logger"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

func main() {
	slogger := logger.SetupLogger("debug", "json")

	slogger.Info("starting tajalli point of sale",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("go_version", GoVersion),
	)

	// Load configuration
	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.App.Version == "dev" {
		cfg.App.Version = Version
	}

	// Reconfigure logger with loaded settings
	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slog.SetDefault(slogger)
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("log_level", cfg.App.LogLevel),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Database.AutoMigrate {
		if err := runMigrations(ctx, cfg, slogger); err != nil {
			slogger.Error("failed to run migrations", slog.String("error", err.Error()))
			if cfg.IsProduction() {
				os.Exit(1)
			}
		}
	}

	deps, err := initializeDependencies(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	if deps.rateLimiter != nil {
		go deps.rateLimiter.Cleanup(ctx, 5*time.Minute)
	}

	server := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        deps.router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(slogger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server",
			slog.String("address", cfg.GetServerAddress()),
			slog.Bool("tls", cfg.Server.TLSEnabled),
		)

		if cfg.Server.TLSEnabled {
			serverErrors <- server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			serverErrors <- server.ListenAndServe()
		}
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case sig := <-shutdown:
		slogger.Info("shutdown signal received",
			slog.String("signal", sig.String()),
		)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}

		slogger.Info("server shutdown complete")
	}
}

// dependencies holds the long-lived clients and the assembled router
type dependencies struct {
	database       *db.Database
	redisClient    *redis.Client
	asynqClient    *asynq.Client
	asynqInspector *asynq.Inspector
	rateLimiter    *middleware.IPRateLimiter
	router         http.Handler
}

func (d *dependencies) cleanup() {
	if d.asynqInspector != nil {
		d.asynqInspector.Close()
	}
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.database != nil {
		d.database.Close()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	logger.Info("connecting to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Name),
	)

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MinConnections:     cfg.Database.MinConnections,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	deps.database = database

	logger.Info("connecting to Redis",
		slog.String("host", cfg.Redis.Host),
		slog.String("port", cfg.Redis.Port),
	)

	redisClient := redis.NewClient(&redis.Options{
		Addr:            cfg.Redis.Addr(),
		Password:        cfg.Redis.Password,
		DB:              cfg.Redis.DB,
		MaxRetries:      cfg.Redis.MaxRetries,
		MinRetryBackoff: cfg.Redis.MinRetryBackoff,
		MaxRetryBackoff: cfg.Redis.MaxRetryBackoff,
		DialTimeout:     cfg.Redis.DialTimeout,
		ReadTimeout:     cfg.Redis.ReadTimeout,
		WriteTimeout:    cfg.Redis.WriteTimeout,
		PoolSize:        cfg.Redis.PoolSize,
		MinIdleConns:    cfg.Redis.MinIdleConns,
		PoolTimeout:     cfg.Redis.PoolTimeout,
	})
	deps.redisClient = redisClient
	if err := redisClient.Ping(ctx).Err(); err != nil {
		deps.cleanup()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cache := redis_a.NewCache(redisClient, cfg.Redis.TTL, logger)
	invalidator := redis_a.NewInvalidator(cache, logger)

	asynqRedisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}
	deps.asynqClient = asynq.NewClient(asynqRedisOpt)
	deps.asynqInspector = asynq.NewInspector(asynqRedisOpt)

	fileStorage, err := storage.New(ctx, storage.Options{
		Backend: cfg.AWS.StorageBackend,
		S3: storage.S3Config{
			Region:          cfg.AWS.Region,
			Bucket:          cfg.AWS.S3Bucket,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Endpoint:        cfg.AWS.S3Endpoint,
			UsePathStyle:    cfg.AWS.UsePathStyle,
		},
		LocalDir: cfg.AWS.LocalStorageDir,
	}, logger)
	if err != nil {
		deps.cleanup()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Repositories
	productRepo := db.NewProductRepository(database, logger)
	saleRepo := db.NewSaleRepository(database, logger)
	userRepo := db.NewUserRepository(database, logger)
	adjustmentRepo := db.NewAdjustmentRepository(database, logger)

	// Services
	hasher := auth.NewBcryptHasher(cfg.Security.BcryptCost)
	tokens := auth.NewTokenManager(cfg.Security.JWTSecret, cfg.Security.JWTExpiration, cfg.Security.JWTIssuer)

	authService := services.NewAuthService(userRepo, hasher, tokens, cache, logger)
	productService := services.NewProductService(productRepo, cache, invalidator, cfg.Store.ProductCacheTTL, logger)
	saleService := services.NewSaleService(services.SaleServiceDeps{
		Products:    productRepo,
		Sales:       saleRepo,
		Users:       userRepo,
		Cache:       cache,
		Invalidator: invalidator,
		Tasks:       deps.asynqClient,
		Header:      cfg.Store.ReceiptHeader(),
	}, logger)
	inventoryService := services.NewInventoryService(adjustmentRepo, invalidator, logger)
	userService := services.NewUserService(userRepo, hasher, cfg.Security.RoleTokens, logger)
	reportService := services.NewReportService(saleRepo, productRepo, cache,
		cfg.Store.LowStockThreshold, cfg.Store.ReportCacheTTL, logger)

	if cfg.Security.RateLimitRequests > 0 {
		deps.rateLimiter = middleware.NewIPRateLimiter(cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration)
	}

	deps.router = handlers.NewRouter(handlers.Handlers{
		Auth:      handlers.NewAuthHandler(authService, cfg.Security.CookieSecure, logger),
		Products:  handlers.NewProductHandler(productService, logger),
		Sales:     handlers.NewSaleHandler(saleService, logger),
		Inventory: handlers.NewInventoryHandler(inventoryService, logger),
		Users:     handlers.NewUserHandler(userService, logger),
		Reports:   handlers.NewReportHandler(reportService, logger),
		Export:    handlers.NewExportHandler(productService, saleService, logger),
		Import:    handlers.NewImportHandler(fileStorage, deps.asynqClient, cache, cfg.MaxUploadBytes(), logger),
		Health: handlers.NewHealthHandler(database, cache, deps.asynqInspector,
			cfg.App.Version, cfg.App.Environment, logger),
	}, authService, handlers.RouterOptions{
		AllowedOrigins: cfg.Security.AllowedOrigins,
		SecureHeaders:  cfg.Security.SecureHeaders,
		RateLimiter:    deps.rateLimiter,
	}, logger)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func runMigrations(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("running database migrations")

	return db.RunMigrationsWithRetry(ctx, &db.MigrationConfig{
		DatabaseURL: cfg.GetDatabaseURL(),
		TableName:   "schema_migrations",
		SchemaName:  "public",
	}, logger, 3)
}

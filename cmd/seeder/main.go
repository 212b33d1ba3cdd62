// cmd/seeder/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/ammerola/tajalli-pos/internal/adapters/db"
	redis_a "github.com/ammerola/tajalli-pos/internal/adapters/redis_adapter"
	"github.com/ammerola/tajalli-pos/internal/core/domain"
	"github.com/ammerola/tajalli-pos/internal/core/ports"
	"github.com/ammerola/tajalli-pos/internal/core/services"
	"github.com/ammerola/tajalli-pos/internal/pkg/auth"
	"github.com/ammerola/tajalli-pos/internal/pkg/config"
	"github.com/ammerola/tajalli-pos/internal/pkg/logger"
)

func main() {
	var (
		catalogFile = flag.String("catalog", "", "Excel file with products to create")
		sample      = flag.Bool("sample", false, "Create the built-in sample catalog")
		migrate     = flag.Bool("migrate", true, "Apply database migrations first")
		logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		dryRun      = flag.Bool("dry-run", false, "Preview changes without modifying database")
	)
	flag.Parse()

	slogger := logger.SetupLogger(*logLevel, "json")
	slog.SetDefault(slogger)

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var products []*domain.Product
	if *sample {
		products = append(products, sampleCatalog()...)
	}
	if *catalogFile != "" {
		rows, err := readCatalog(*catalogFile)
		if err != nil {
			slogger.Error("failed to read catalog", slog.String("error", err.Error()))
			os.Exit(1)
		}
		products = append(products, rows...)
	}

	if *dryRun {
		for _, p := range products {
			fmt.Printf("DRY RUN: would create %s %q (%s %s @ %s)\n",
				p.EANCode, p.Name, p.Quantity, p.Unit, p.Price.StringFixed(2))
		}
		fmt.Printf("\n[DRY RUN] %d products, no changes were made to the database\n", len(products))
		return
	}

	ctx := context.Background()

	if *migrate {
		if err := db.RunMigrationsWithRetry(ctx, &db.MigrationConfig{
			DatabaseURL: cfg.GetDatabaseURL(),
			TableName:   "schema_migrations",
			SchemaName:  "public",
		}, slogger, 3); err != nil {
			slogger.Error("failed to run migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:           cfg.Database.Host,
		Port:           cfg.Database.Port,
		User:           cfg.Database.User,
		Password:       cfg.Database.Password,
		Database:       cfg.Database.Name,
		SSLMode:        cfg.Database.SSLMode,
		MaxConnections: 2,
		MinConnections: 1,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	}, slogger)
	if err != nil {
		slogger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	cache := redis_a.NewCache(redisClient, cfg.Redis.TTL, slogger)

	userService := services.NewUserService(db.NewUserRepository(database, slogger),
		auth.NewBcryptHasher(cfg.Security.BcryptCost), cfg.Security.RoleTokens, slogger)
	productService := services.NewProductService(db.NewProductRepository(database, slogger),
		cache, redis_a.NewInvalidator(cache, slogger), cfg.Store.ProductCacheTTL, slogger)

	if err := seedSuperAdmin(ctx, userService, slogger); err != nil {
		slogger.Error("failed to seed superadmin", slog.String("error", err.Error()))
		os.Exit(1)
	}

	created, skipped, failed := 0, 0, 0
	for _, p := range products {
		err := productService.Create(ctx, p)
		var conflict *domain.ConflictError
		switch {
		case err == nil:
			created++
		case errors.As(err, &conflict):
			skipped++
		default:
			failed++
			slogger.Error("failed to create product",
				slog.String("ean_code", p.EANCode),
				slog.String("error", err.Error()))
		}
	}

	slogger.Info("seed operation completed",
		slog.Int("products_created", created),
		slog.Int("products_skipped", skipped),
		slog.Int("products_failed", failed))
	if failed > 0 {
		os.Exit(1)
	}
}

// seedSuperAdmin creates the bootstrap account once; an existing account is left alone
func seedSuperAdmin(ctx context.Context, users ports.UserService, logger *slog.Logger) error {
	email := strings.TrimSpace(os.Getenv("SEED_SUPERADMIN_EMAIL"))
	password := os.Getenv("SEED_SUPERADMIN_PASSWORD")
	if email == "" || password == "" {
		logger.Info("SEED_SUPERADMIN_EMAIL or SEED_SUPERADMIN_PASSWORD not set, skipping superadmin")
		return nil
	}
	name := os.Getenv("SEED_SUPERADMIN_NAME")
	if name == "" {
		name = "Super Admin"
	}

	user, err := users.Create(ctx, nil, ports.CreateUserInput{
		Email:    email,
		Password: password,
		Name:     name,
		Role:     domain.RoleSuperAdmin,
	})
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		logger.Info("superadmin already exists", slog.String("email", email))
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info("superadmin created", slog.String("user_id", user.ID.String()))
	return nil
}

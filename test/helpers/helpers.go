// test/helpers/helpers.go
package helpers

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/tajalli-pos/internal/adapters/db"
	"github.com/ammerola/tajalli-pos/internal/core/domain"
	"github.com/ammerola/tajalli-pos/internal/pkg/config"
)

// TestDB represents a test database instance
type TestDB struct {
	PgxPool  *pgxpool.Pool
	Database *db.Database
	Resource *dockertest.Resource
	Pool     *dockertest.Pool
	Config   *db.Config
}

// TestRedis represents a test Redis instance
type TestRedis struct {
	Client *redis.Client
	Server *miniredis.Miniredis
}

// TestLogger returns a test logger
func TestLogger() *slog.Logger {
	level := slog.LevelError
	if testing.Verbose() {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// SetupTestDB starts a PostgreSQL container and applies the embedded migrations
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "Could not connect to Docker")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=test_tajalli",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "Could not start PostgreSQL container")

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Could not purge resource: %s", err)
		}
	})

	dbConfig := &db.Config{
		Host:               "localhost",
		Port:               resource.GetPort("5432/tcp"),
		User:               "test",
		Password:           "test",
		Database:           "test_tajalli",
		SSLMode:            "disable",
		MaxConnections:     10,
		MinConnections:     1,
		MaxConnLifetime:    time.Hour,
		MaxConnIdleTime:    30 * time.Minute,
		HealthCheckPeriod:  time.Minute,
		ConnectTimeout:     10 * time.Second,
		EnableQueryLogging: testing.Verbose(),
	}

	var database *db.Database
	err = pool.Retry(func() error {
		ctx := context.Background()
		var err error
		database, err = db.NewDatabase(ctx, dbConfig, TestLogger())
		if err != nil {
			return err
		}
		return database.Ping(ctx)
	})
	require.NoError(t, err, "Could not connect to PostgreSQL")
	t.Cleanup(database.Close)

	migrationConfig := &db.MigrationConfig{
		DatabaseURL: dbConfig.URL(),
		TableName:   "schema_migrations",
		SchemaName:  "public",
	}
	err = db.RunMigrationsWithRetry(context.Background(), migrationConfig, TestLogger(), 3)
	require.NoError(t, err, "Could not run migrations")

	return &TestDB{
		PgxPool:  database.Pool(),
		Database: database,
		Resource: resource,
		Pool:     pool,
		Config:   dbConfig,
	}
}

// SetupTestRedis starts an in-process Redis
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		client.Close()
	})

	return &TestRedis{Client: client, Server: mr}
}

// SetupMockDB creates a mock database/sql handle for unit testing
func SetupMockDB(t *testing.T) (sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create mock DB")

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return mock, sqlDB
}

// LoadTestConfig returns a test configuration
func LoadTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "tajalli-pos-test",
			Environment: "test",
			Version:     "test",
			LogLevel:    "debug",
			LogFormat:   "text",
			Debug:       true,
		},
		Database: config.DatabaseConfig{
			Host:           "localhost",
			Port:           "5432",
			User:           "test",
			Password:       "test",
			Name:           "test_tajalli",
			SSLMode:        "disable",
			MaxConnections: 10,
			MinConnections: 2,
		},
		Redis: config.RedisConfig{
			Host:     "localhost",
			Port:     "6379",
			TTL:      time.Hour,
			PoolSize: 10,
		},
		Asynq: config.AsynqConfig{
			RedisAddr:   "localhost:6379",
			RedisDB:     1,
			Concurrency: 2,
			Queues:      map[string]int{"critical": 6, "default": 3, "low": 1},
		},
		AWS: config.AWSConfig{
			Region:          "ap-south-1",
			S3Bucket:        "tajalli-test",
			StorageBackend:  "local",
			LocalStorageDir: os.TempDir(),
			SecretsProvider: "env",
		},
		FileProcessing: config.FileProcessingConfig{
			PDFMaxSizeMB:      5,
			ExcelMaxSizeMB:    5,
			ProcessingTimeout: time.Minute,
			TempDir:           os.TempDir(),
			TempMaxAge:        time.Hour,
		},
		Security: config.SecurityConfig{
			JWTSecret:         "test-secret-with-enough-length-0123456789",
			JWTExpiration:     time.Hour,
			JWTIssuer:         "tajalli-pos-test",
			BcryptCost:        4,
			RateLimitRequests: 100,
			RateLimitDuration: time.Minute,
			AllowedOrigins:    []string{"*"},
			RequestIDHeader:   "X-Request-ID",
			RoleTokens: map[domain.Role]string{
				domain.RoleSuperAdmin: "superadmin-token",
				domain.RoleAdmin:      "admin-token",
				domain.RoleAgent:      "agent-token",
			},
		},
		Server: config.ServerConfig{
			Host:         "localhost",
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Store: config.StoreConfig{
			Name:              "Tajalli Test Store",
			Currency:          "₹",
			ReceiptFooter:     "Thank you! Visit Again",
			LowStockThreshold: decimal.NewFromInt(5),
			ReportCacheTTL:    time.Minute,
			ProductCacheTTL:   time.Minute,
		},
	}
}

// CreateTestProduct returns a stocked kilogram product
func CreateTestProduct(overrides ...func(*domain.Product)) *domain.Product {
	now := time.Now()
	p := &domain.Product{
		ID:           uuid.New(),
		EANCode:      fmt.Sprintf("890%010d", rand.Int64N(10_000_000_000)),
		Name:         "California Almonds",
		Images:       []string{},
		Unit:         domain.UnitKg,
		Supplier:     "Kashmir Traders",
		Quantity:     decimal.NewFromInt(10),
		QuantitySold: decimal.Zero,
		Price:        decimal.NewFromInt(800),
		Category:     "nuts",
		ArrivalDate:  &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, override := range overrides {
		override(p)
	}
	return p
}

// CreateTestUser returns an account with the default permissions of role
func CreateTestUser(role domain.Role, overrides ...func(*domain.User)) *domain.User {
	now := time.Now()
	id := uuid.New()
	u := &domain.User{
		ID:           id,
		Email:        fmt.Sprintf("%s-%s@tajalli.test", role, id.String()[:8]),
		PasswordHash: "$2a$04$abcdefghijklmnopqrstuuRjZ8dGzJ5f3C2b8x1m0YBvYxkJ2kq9e",
		Name:         "Test " + string(role),
		Role:         role,
		Permissions:  domain.DefaultPermissions(role),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, override := range overrides {
		override(u)
	}
	return u
}

// CreateTestIdentity returns a session identity for role
func CreateTestIdentity(role domain.Role, overrides ...func(*domain.Identity)) *domain.Identity {
	identity := CreateTestUser(role).Identity()
	identity.SessionID = uuid.NewString()
	identity.ExpiresAt = time.Now().Add(time.Hour)
	for _, override := range overrides {
		override(identity)
	}
	return identity
}

// CreateTestSale returns a completed one-line sale of product
func CreateTestSale(userID uuid.UUID, product *domain.Product, overrides ...func(*domain.Sale)) *domain.Sale {
	qty := decimal.NewFromInt(1)
	total := product.Price.Mul(qty)
	s := &domain.Sale{
		ID:     uuid.New(),
		UserID: userID,
		Items: []domain.SaleItem{{
			ProductID:     product.ID,
			Name:          product.Name,
			Quantity:      qty,
			Unit:          product.Unit,
			Price:         product.Price,
			StockQuantity: qty,
			LineTotal:     total,
		}},
		Total:         total,
		PaymentMethod: domain.PaymentCash,
		Status:        domain.SaleCompleted,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	for _, override := range overrides {
		override(s)
	}
	return s
}

// AssertEventuallyWithTimeout asserts that a condition is met within a timeout
func AssertEventuallyWithTimeout(t *testing.T, condition func() bool, timeout time.Duration, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}

	t.Errorf("Condition not met within %v: %s", timeout, msg)
}

// TruncateAllTables empties every application table
func TruncateAllTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		"TRUNCATE TABLE inventory_adjustments, sale_items, sales, products, users CASCADE")
	require.NoError(t, err, "Failed to truncate tables")
}

// CreateTempFile creates a temporary file for testing
func CreateTempFile(t *testing.T, content []byte, extension string) string {
	t.Helper()

	file, err := os.CreateTemp(t.TempDir(), fmt.Sprintf("test-*%s", extension))
	require.NoError(t, err, "Failed to create temp file")

	_, err = file.Write(content)
	require.NoError(t, err, "Failed to write to temp file")
	require.NoError(t, file.Close())

	return file.Name()
}

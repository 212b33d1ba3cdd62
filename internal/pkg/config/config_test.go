package config

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	cfg, err := Load(discardLogger())
	require.NoError(t, err)

	assert.Equal(t, "tajalli-pos", cfg.App.Name)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "Thank you! Visit Again", cfg.Store.ReceiptFooter)
	assert.True(t, cfg.Store.LowStockThreshold.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, "agent-token", cfg.Security.RoleTokens[domain.RoleAgent])
	assert.Equal(t, 6, cfg.Asynq.Queues["critical"])
	assert.True(t, cfg.Database.AutoMigrate)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOW_STOCK_THRESHOLD", "2.5")
	t.Setenv("JWT_EXPIRATION", "30m")
	t.Setenv("ALLOWED_ORIGINS", "https://pos.tajalli.in, https://admin.tajalli.in")
	t.Setenv("STORE_GSTIN", "29ABCDE1234F1Z5")

	cfg, err := Load(discardLogger())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Store.LowStockThreshold.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, 30*time.Minute, cfg.Security.JWTExpiration)
	assert.Equal(t, []string{"https://pos.tajalli.in", "https://admin.tajalli.in"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, "29ABCDE1234F1Z5", cfg.Store.ReceiptHeader().GSTIN)
}

func validConfig() *Config {
	return &Config{
		App:      AppConfig{Name: "tajalli-pos", Environment: "test"},
		Database: DatabaseConfig{Host: "db", Port: "5432", User: "u", Name: "pos", SSLMode: "disable", MaxConnections: 10, MinConnections: 1},
		Redis:    RedisConfig{Host: "redis", Port: "6379", PoolSize: 5},
		AWS:      AWSConfig{StorageBackend: "local"},
		Security: SecurityConfig{JWTSecret: "secret", JWTExpiration: time.Hour, RateLimitRequests: 10, BcryptCost: 10},
		Server:   ServerConfig{Port: "8080"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "missing_database_host",
			mutate:  func(c *Config) { c.Database.Host = "" },
			wantErr: "Database.Host",
		},
		{
			name:    "min_connections_above_max",
			mutate:  func(c *Config) { c.Database.MinConnections = 20 },
			wantErr: "max_connections",
		},
		{
			name:    "negative_low_stock_threshold",
			mutate:  func(c *Config) { c.Store.LowStockThreshold = decimal.NewFromInt(-1) },
			wantErr: "low stock threshold",
		},
		{
			name:    "unknown_storage_backend",
			mutate:  func(c *Config) { c.AWS.StorageBackend = "ftp" },
			wantErr: "storage backend",
		},
		{
			name: "production_requires_ssl",
			mutate: func(c *Config) {
				c.App.Environment = "production"
			},
			wantErr: "SSL",
		},
		{
			name: "production_rejects_default_role_token",
			mutate: func(c *Config) {
				c.App.Environment = "production"
				c.Database.SSLMode = "require"
				c.Security.SecureHeaders = true
				c.Security.CookieSecure = true
				c.Security.AllowedOrigins = []string{"https://pos.tajalli.in"}
				c.Security.RoleTokens = map[domain.Role]string{domain.RoleAgent: "agent-token"}
			},
			wantErr: "default agent token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseQueues(t *testing.T) {
	assert.Equal(t, map[string]int{"critical": 6, "low": 1}, parseQueues("critical:6, low:1,broken"))
	assert.Equal(t, map[string]int{"default": 1}, parseQueues(""))
}

type fakeSecretsClient struct {
	payload string
	err     error
	calls   int
}

func (f *fakeSecretsClient) GetSecretValue(_ context.Context, _ *secretsmanager.GetSecretValueInput,
	_ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(f.payload)}, nil
}

func TestAWSSecretsManager_CachesBundle(t *testing.T) {
	client := &fakeSecretsClient{payload: `{"JWT_SECRET":"from-aws","DB_PASSWORD":"pw"}`}
	sm := newAWSSecretsManager(client, "tajalli-pos/test", discardLogger())

	cfg := validConfig()
	require.NoError(t, ApplySecrets(context.Background(), cfg, sm))
	assert.Equal(t, "from-aws", cfg.Security.JWTSecret)
	assert.Equal(t, "pw", cfg.Database.Password)

	v, err := sm.GetSecret(context.Background(), SecretJWT)
	require.NoError(t, err)
	assert.Equal(t, "from-aws", v)
	assert.Equal(t, 1, client.calls)

	_, err = sm.GetSecret(context.Background(), "MISSING")
	assert.Error(t, err)
}

func TestAWSSecretsManager_ClientError(t *testing.T) {
	sm := newAWSSecretsManager(&fakeSecretsClient{err: errors.New("denied")}, "x", discardLogger())
	err := ApplySecrets(context.Background(), validConfig(), sm)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
}

func TestEnvSecretsManager(t *testing.T) {
	t.Setenv(SecretJWT, "env-secret")
	cfg := validConfig()
	require.NoError(t, ApplySecrets(context.Background(), cfg, NewEnvSecretsManager()))
	assert.Equal(t, "env-secret", cfg.Security.JWTSecret)
}

// internal/pkg/config/secrets.go
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// Secret keys read from a secrets provider
const (
	SecretJWT        = "JWT_SECRET"
	SecretDBPassword = "DB_PASSWORD"
)

// SecretsManager reads named secrets
type SecretsManager interface {
	GetSecret(ctx context.Context, key string) (string, error)
	GetSecrets(ctx context.Context, keys []string) (map[string]string, error)
}

// secretValueGetter is the subset of the Secrets Manager client used here
type secretValueGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecretsManager reads a JSON secret bundle from AWS Secrets Manager
type AWSSecretsManager struct {
	client     secretValueGetter
	secretName string
	cache      map[string]string
	cacheMu    sync.RWMutex
	lastFetch  time.Time
	ttl        time.Duration
	logger     *slog.Logger
}

var _ SecretsManager = (*AWSSecretsManager)(nil)

// NewAWSSecretsManager creates a new AWS Secrets Manager client
func NewAWSSecretsManager(ctx context.Context, region, secretName string, logger *slog.Logger) (*AWSSecretsManager, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return newAWSSecretsManager(secretsmanager.NewFromConfig(cfg), secretName, logger), nil
}

func newAWSSecretsManager(client secretValueGetter, secretName string, logger *slog.Logger) *AWSSecretsManager {
	return &AWSSecretsManager{
		client:     client,
		secretName: secretName,
		cache:      make(map[string]string),
		ttl:        5 * time.Minute,
		logger:     logger.With(slog.String("component", "secrets")),
	}
}

// GetSecret retrieves a single secret
func (sm *AWSSecretsManager) GetSecret(ctx context.Context, key string) (string, error) {
	secrets, err := sm.GetSecrets(ctx, []string{key})
	if err != nil {
		return "", err
	}

	val, ok := secrets[key]
	if !ok {
		return "", fmt.Errorf("secret key %s not found", key)
	}
	return val, nil
}

// GetSecrets retrieves several keys, using the bundle cached within ttl
func (sm *AWSSecretsManager) GetSecrets(ctx context.Context, keys []string) (map[string]string, error) {
	sm.cacheMu.RLock()
	fresh := time.Since(sm.lastFetch) < sm.ttl && len(sm.cache) > 0
	bundle := sm.cache
	sm.cacheMu.RUnlock()

	if !fresh {
		sm.logger.Info("fetching secrets from AWS Secrets Manager",
			slog.String("secret_name", sm.secretName))

		result, err := sm.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
			SecretId:     aws.String(sm.secretName),
			VersionStage: aws.String("AWSCURRENT"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get secret value: %w", err)
		}
		if result.SecretString == nil {
			return nil, fmt.Errorf("secret %s has no string value", sm.secretName)
		}

		var data map[string]string
		if err := json.Unmarshal([]byte(*result.SecretString), &data); err != nil {
			return nil, fmt.Errorf("failed to parse secret JSON: %w", err)
		}

		sm.cacheMu.Lock()
		sm.cache = data
		sm.lastFetch = time.Now()
		sm.cacheMu.Unlock()
		bundle = data
	}

	filtered := make(map[string]string, len(keys))
	for _, key := range keys {
		if val, ok := bundle[key]; ok {
			filtered[key] = val
		} else {
			sm.logger.Warn("secret key not found in AWS Secrets Manager", slog.String("key", key))
		}
	}
	return filtered, nil
}

// EnvSecretsManager implements secrets management using environment variables
type EnvSecretsManager struct{}

var _ SecretsManager = (*EnvSecretsManager)(nil)

// NewEnvSecretsManager creates a new environment-based secrets manager
func NewEnvSecretsManager() *EnvSecretsManager {
	return &EnvSecretsManager{}
}

// GetSecret retrieves a secret from environment variables
func (em *EnvSecretsManager) GetSecret(_ context.Context, key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("environment variable %s not set", key)
	}
	return val, nil
}

// GetSecrets retrieves multiple secrets from environment variables
func (em *EnvSecretsManager) GetSecrets(_ context.Context, keys []string) (map[string]string, error) {
	secrets := make(map[string]string)
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			secrets[key] = val
		}
	}
	return secrets, nil
}

func applyAWSSecrets(ctx context.Context, cfg *Config, logger *slog.Logger) error {
	sm, err := NewAWSSecretsManager(ctx, cfg.AWS.Region, cfg.AWS.SecretName, logger)
	if err != nil {
		return err
	}
	return ApplySecrets(ctx, cfg, sm)
}

// ApplySecrets overrides the JWT secret and database password with values
// from sm when present
func ApplySecrets(ctx context.Context, cfg *Config, sm SecretsManager) error {
	secrets, err := sm.GetSecrets(ctx, []string{SecretJWT, SecretDBPassword})
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	if v, ok := secrets[SecretJWT]; ok && v != "" {
		cfg.Security.JWTSecret = v
	}
	if v, ok := secrets[SecretDBPassword]; ok && v != "" {
		cfg.Database.Password = v
	}
	return nil
}

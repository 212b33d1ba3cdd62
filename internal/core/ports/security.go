package ports

import (
	"context"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
)

// TokenIssuer signs and verifies session tokens
type TokenIssuer interface {
	Issue(identity *domain.Identity) (token string, expiresAt time.Time, err error)
	Parse(token string) (*domain.Identity, error)
}

// PasswordHasher hashes and checks account passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TaskEnqueuer is the subset of *asynq.Client the API process uses
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
)

// UserRepository defines the persistence port for accounts.
// Find methods return (nil, nil) when no row matches; Delete reports
// whether a row was removed.
type UserRepository interface {
	Save(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, role domain.Role) ([]*domain.User, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

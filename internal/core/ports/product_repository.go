package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
)

// ProductRepository defines the persistence port for the catalog.
// Find methods return (nil, nil) when no row matches.
type ProductRepository interface {
	Save(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FindByEAN(ctx context.Context, ean string) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, int64, error)
	ListLowStock(ctx context.Context, threshold decimal.Decimal, limit uint64) ([]*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

// ProductFilter narrows product listings
type ProductFilter struct {
	Search    string
	Category  string
	Supplier  string
	InStock   *bool
	SortBy    string
	SortOrder string
	Limit     uint64
	Offset    uint64
}

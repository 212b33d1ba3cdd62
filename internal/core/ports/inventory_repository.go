// internal/core/ports/inventory_repository.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
)

// AdjustmentRepository persists the inventory ledger.
// Apply mutates the product quantity and appends the ledger entry in one
// transaction; a remove that exceeds stock returns
// *domain.InsufficientStockError and changes nothing.
type AdjustmentRepository interface {
	Apply(ctx context.Context, adj *domain.InventoryAdjustment) (*domain.Product, error)
	List(ctx context.Context, filter AdjustmentFilter) ([]*domain.InventoryAdjustment, int64, error)
}

// AdjustmentFilter narrows ledger listings
type AdjustmentFilter struct {
	ProductID *uuid.UUID
	UserID    *uuid.UUID
	Type      domain.AdjustmentType
	Limit     uint64
	Offset    uint64
}

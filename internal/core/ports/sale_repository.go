package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
)

// SaleRepository persists completed sales.
// CreateWithDeductions inserts the sale and its lines and increments each
// product's quantity_sold in a single transaction. A deduction that would
// push quantity_sold past quantity aborts everything and returns
// *domain.InsufficientStockError.
type SaleRepository interface {
	CreateWithDeductions(ctx context.Context, sale *domain.Sale, deductions []domain.StockDeduction) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
	List(ctx context.Context, filter SaleFilter) ([]*domain.Sale, int64, error)
	Summary(ctx context.Context) (*domain.SalesSummary, error)
}

// SaleFilter narrows sale listings. UserID restricts results to one seller.
type SaleFilter struct {
	UserID        *uuid.UUID
	PaymentMethod domain.PaymentMethod
	From          *time.Time
	To            *time.Time
	Limit         uint64
	Offset        uint64
}

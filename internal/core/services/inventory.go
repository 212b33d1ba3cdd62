// internal/core/services/inventory.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
	"github.com/ammerola/tajalli-pos/internal/core/ports"
)

// InventoryService handles manual stock adjustments
type InventoryService struct {
	repo        ports.AdjustmentRepository
	invalidator ports.CacheInvalidator
	logger      *slog.Logger
}

// Statically assert that *InventoryService implements the InventoryService interface.
var _ ports.InventoryService = (*InventoryService)(nil)

// NewInventoryService creates a new inventory service
func NewInventoryService(repo ports.AdjustmentRepository, invalidator ports.CacheInvalidator, logger *slog.Logger) *InventoryService {
	return &InventoryService{
		repo:        repo,
		invalidator: invalidator,
		logger:      logger.With(slog.String("service", "inventory")),
	}
}

// Adjust records a restock or removal and applies it to the product.
// Only elevated roles may adjust stock.
func (s *InventoryService) Adjust(ctx context.Context, actor *domain.Identity, adj *domain.InventoryAdjustment) (*domain.InventoryAdjustment, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}
	if !actor.Role.IsElevated() {
		return nil, domain.Forbidden("Only admins can adjust inventory")
	}
	if err := adj.Validate(); err != nil {
		return nil, err
	}

	adj.UserID = actor.UserID
	adj.PrepareForStorage()

	product, err := s.repo.Apply(ctx, adj)
	if err != nil {
		var stockErr *domain.InsufficientStockError
		var notFound *domain.NotFoundError
		if errors.As(err, &stockErr) || errors.As(err, &notFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to apply adjustment: %w", err)
	}
	adj.Product = product

	if err := s.invalidator.InvalidateStock(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate caches after adjustment",
			slog.String("error", err.Error()))
	}

	s.logger.InfoContext(ctx, "inventory adjusted",
		slog.String("adjustment_id", adj.ID.String()),
		slog.String("product_id", adj.ProductID.String()),
		slog.String("type", string(adj.Type)),
		slog.String("quantity", adj.Quantity.String()))

	return adj, nil
}

// List returns the ledger newest first
func (s *InventoryService) List(ctx context.Context, params ports.AdjustmentListParams) (*ports.ListResult[*domain.InventoryAdjustment], error) {
	params.Page, params.PageSize = normalizePage(params.Page, params.PageSize)

	items, total, err := s.repo.List(ctx, ports.AdjustmentFilter{
		ProductID: params.ProductID,
		Type:      params.Type,
		Limit:     uint64(params.PageSize),
		Offset:    pageOffset(params.Page, params.PageSize),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list adjustments: %w", err)
	}

	return ports.NewListResult(items, params.Page, params.PageSize, total), nil
}

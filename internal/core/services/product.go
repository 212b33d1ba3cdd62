// internal/core/services/product.go
package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
	"github.com/ammerola/tajalli-pos/internal/core/ports"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ProductService handles catalog business logic
type ProductService struct {
	repo        ports.ProductRepository
	cache       ports.CacheRepository
	invalidator ports.CacheInvalidator
	listTTL     time.Duration
	logger      *slog.Logger
}

var _ ports.ProductService = (*ProductService)(nil)

// NewProductService creates a new product service
func NewProductService(
	repo ports.ProductRepository,
	cache ports.CacheRepository,
	invalidator ports.CacheInvalidator,
	listTTL time.Duration,
	logger *slog.Logger,
) *ProductService {
	return &ProductService{
		repo:        repo,
		cache:       cache,
		invalidator: invalidator,
		listTTL:     listTTL,
		logger:      logger.With(slog.String("service", "product")),
	}
}

// Create validates and stores a new product. EAN codes are unique.
func (s *ProductService) Create(ctx context.Context, product *domain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}

	existing, err := s.repo.FindByEAN(ctx, product.EANCode)
	if err != nil {
		return fmt.Errorf("failed to check ean code: %w", err)
	}
	if existing != nil {
		return &domain.ConflictError{Message: "Product with this EAN code already exists"}
	}

	product.PrepareForStorage()
	if err := s.repo.Save(ctx, product); err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}

	s.invalidate(ctx)
	s.logger.InfoContext(ctx, "created product",
		slog.String("product_id", product.ID.String()),
		slog.String("ean_code", product.EANCode))

	return nil
}

// Get retrieves a product by ID
func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, &domain.NotFoundError{Entity: "Product", ID: id.String()}
	}
	return product, nil
}

// List returns one page of products. Pages are cached until the next
// stock change.
func (s *ProductService) List(ctx context.Context, params ports.ListParams) (*ports.ListResult[*domain.Product], error) {
	params.Page, params.PageSize = normalizePage(params.Page, params.PageSize)

	var result ports.ListResult[*domain.Product]
	err := s.cache.GetOrSet(ctx, productListKey(params), &result, func() (interface{}, error) {
		items, total, err := s.repo.List(ctx, ports.ProductFilter{
			Search:    params.Search,
			Category:  params.Category,
			Supplier:  params.Supplier,
			InStock:   params.InStock,
			SortBy:    params.SortBy,
			SortOrder: params.SortOrder,
			Limit:     uint64(params.PageSize),
			Offset:    pageOffset(params.Page, params.PageSize),
		})
		if err != nil {
			return nil, err
		}
		return ports.NewListResult(items, params.Page, params.PageSize, total), nil
	}, s.listTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return &result, nil
}

// Update applies a partial update to a product
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, patch ports.ProductPatch) (*domain.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.EANCode != nil && *patch.EANCode != product.EANCode {
		other, err := s.repo.FindByEAN(ctx, *patch.EANCode)
		if err != nil {
			return nil, fmt.Errorf("failed to check ean code: %w", err)
		}
		if other != nil && other.ID != product.ID {
			return nil, &domain.ConflictError{Message: "Product with this EAN code already exists"}
		}
		product.EANCode = *patch.EANCode
	}
	if patch.Name != nil {
		product.Name = *patch.Name
	}
	if patch.Images != nil {
		product.Images = patch.Images
	}
	if patch.Unit != nil {
		product.Unit = *patch.Unit
	}
	if patch.Supplier != nil {
		product.Supplier = *patch.Supplier
	}
	if patch.Quantity != nil {
		product.Quantity = *patch.Quantity
	}
	if patch.Price != nil {
		product.Price = *patch.Price
	}
	if patch.Category != nil {
		product.Category = *patch.Category
	}
	if patch.ExpiryDate != nil {
		product.ExpiryDate = patch.ExpiryDate
	}
	if patch.ArrivalDate != nil {
		product.ArrivalDate = patch.ArrivalDate
	}

	if err := product.Validate(); err != nil {
		return nil, err
	}
	product.PrepareForStorage()

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.invalidate(ctx)
	s.logger.InfoContext(ctx, "updated product", slog.String("product_id", id.String()))

	return product, nil
}

// Delete removes a product
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.invalidate(ctx)
	s.logger.InfoContext(ctx, "deleted product", slog.String("product_id", id.String()))

	return nil
}

func (s *ProductService) invalidate(ctx context.Context) {
	if err := s.invalidator.InvalidateStock(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate product cache",
			slog.String("error", err.Error()))
	}
}

func productListKey(p ports.ListParams) string {
	inStock := "any"
	if p.InStock != nil {
		inStock = fmt.Sprint(*p.InStock)
	}
	raw := fmt.Sprintf("%s|%s|%s|%s|%s|%s|%d|%d",
		p.Search, p.Category, p.Supplier, inStock, p.SortBy, p.SortOrder, p.Page, p.PageSize)
	sum := sha1.Sum([]byte(raw))
	return ports.BuildKey(ports.PrefixProducts, "list", hex.EncodeToString(sum[:]))
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

func pageOffset(page, size int) uint64 {
	return uint64((page - 1) * size)
}

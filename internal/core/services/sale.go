// internal/core/services/sale.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
	"github.com/ammerola/tajalli-pos/internal/core/ports"
	"github.com/ammerola/tajalli-pos/internal/tasks"
)

// idempotencyTTL bounds how long a checkout key blocks a retry
const idempotencyTTL = 10 * time.Minute

// SaleService runs checkouts and serves sales and receipts
type SaleService struct {
	products    ports.ProductRepository
	sales       ports.SaleRepository
	users       ports.UserRepository
	cache       ports.CacheRepository
	invalidator ports.CacheInvalidator
	tasks       ports.TaskEnqueuer
	header      domain.ReceiptHeader
	logger      *slog.Logger
}

var _ ports.SaleService = (*SaleService)(nil)

// SaleServiceDeps groups the collaborators of SaleService
type SaleServiceDeps struct {
	Products    ports.ProductRepository
	Sales       ports.SaleRepository
	Users       ports.UserRepository
	Cache       ports.CacheRepository
	Invalidator ports.CacheInvalidator
	// Tasks may be nil, in which case receipts are not archived.
	Tasks  ports.TaskEnqueuer
	Header domain.ReceiptHeader
}

// NewSaleService creates a new sale service
func NewSaleService(deps SaleServiceDeps, logger *slog.Logger) *SaleService {
	return &SaleService{
		products:    deps.Products,
		sales:       deps.Sales,
		users:       deps.Users,
		cache:       deps.Cache,
		invalidator: deps.Invalidator,
		tasks:       deps.Tasks,
		header:      deps.Header,
		logger:      logger.With(slog.String("service", "sale")),
	}
}

// Checkout validates the cart against current stock, then persists the
// sale and its stock deductions atomically. Nothing is written when any
// line fails.
func (s *SaleService) Checkout(ctx context.Context, actor *domain.Identity, checkout domain.Checkout) (_ *domain.Sale, retErr error) {
	if err := actor.Require(domain.ModuleSales, domain.OpCreate); err != nil {
		return nil, err
	}
	if err := checkout.Validate(); err != nil {
		return nil, err
	}

	if checkout.IdempotencyKey != "" {
		key := ports.BuildKey(ports.PrefixIdempotency, "checkout", actor.UserID.String(), checkout.IdempotencyKey)
		ok, err := s.cache.SetNX(ctx, key, time.Now().UTC(), idempotencyTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to reserve idempotency key: %w", err)
		}
		if !ok {
			return nil, &domain.ConflictError{Message: "Duplicate checkout request"}
		}
		// A failed checkout releases the key so the client can retry.
		defer func() {
			if retErr != nil {
				_ = s.cache.Delete(ctx, key)
			}
		}()
	}

	sale, deductions, err := s.priceCart(ctx, actor, checkout)
	if err != nil {
		return nil, err
	}

	if err := s.sales.CreateWithDeductions(ctx, sale, deductions); err != nil {
		var stockErr *domain.InsufficientStockError
		if errors.As(err, &stockErr) {
			return nil, stockErr
		}
		return nil, fmt.Errorf("failed to create sale: %w", err)
	}

	if err := s.invalidator.InvalidateStock(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate caches after checkout",
			slog.String("error", err.Error()))
	}
	s.enqueueArchive(ctx, sale.ID)

	s.logger.InfoContext(ctx, "checkout completed",
		slog.String("sale_id", sale.ID.String()),
		slog.String("user_id", actor.UserID.String()),
		slog.Int("items", len(sale.Items)),
		slog.String("total", sale.Total.StringFixed(2)))

	return sale, nil
}

// priceCart resolves each line against the catalog and builds the sale
// plus per-product deductions. Lines for the same product are checked
// against their combined quantity.
func (s *SaleService) priceCart(ctx context.Context, actor *domain.Identity, checkout domain.Checkout) (*domain.Sale, []domain.StockDeduction, error) {
	sale := &domain.Sale{
		UserID:        actor.UserID,
		Customer:      checkout.Customer,
		Items:         make([]domain.SaleItem, 0, len(checkout.Items)),
		Total:         decimal.Zero,
		PaymentMethod: checkout.PaymentMethod,
		Status:        domain.SaleCompleted,
	}

	products := make(map[uuid.UUID]*domain.Product, len(checkout.Items))
	pending := make(map[uuid.UUID]decimal.Decimal, len(checkout.Items))
	var order []uuid.UUID

	for _, item := range checkout.Items {
		product, ok := products[item.ProductID]
		if !ok {
			var err error
			product, err = s.products.FindByID(ctx, item.ProductID)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to load product: %w", err)
			}
			if product == nil {
				return nil, nil, &domain.NotFoundError{Entity: "Product", ID: item.ProductID.String()}
			}
			products[item.ProductID] = product
			order = append(order, item.ProductID)
		}

		unit := domain.ResolveUnit(item.Unit, product.Unit)
		converted := domain.ToStockQuantity(item.Quantity, unit)
		available := product.Available().Sub(pending[product.ID])

		if converted.GreaterThan(available) {
			return nil, nil, &domain.InsufficientStockError{
				ProductName: product.Name,
				Available:   available,
				Unit:        unit,
			}
		}
		pending[product.ID] = pending[product.ID].Add(converted)

		lineTotal := product.Price.Mul(converted)
		sale.Items = append(sale.Items, domain.SaleItem{
			ProductID:     product.ID,
			Name:          product.Name,
			Quantity:      item.Quantity,
			Unit:          unit,
			Price:         product.Price,
			StockQuantity: converted,
			LineTotal:     lineTotal,
		})
		sale.Total = sale.Total.Add(lineTotal)
	}

	deductions := make([]domain.StockDeduction, 0, len(order))
	for _, id := range order {
		p := products[id]
		deductions = append(deductions, domain.StockDeduction{
			ProductID:   id,
			ProductName: p.Name,
			Unit:        p.Unit,
			Quantity:    pending[id],
		})
	}

	sale.PrepareForStorage()
	return sale, deductions, nil
}

func (s *SaleService) enqueueArchive(ctx context.Context, saleID uuid.UUID) {
	if s.tasks == nil {
		return
	}
	task, err := tasks.NewReceiptArchiveTask(saleID)
	if err == nil {
		_, err = s.tasks.EnqueueContext(ctx, task)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "failed to enqueue receipt archive",
			slog.String("sale_id", saleID.String()),
			slog.String("error", err.Error()))
	}
}

// Get returns a sale. Agents may only read their own.
func (s *SaleService) Get(ctx context.Context, actor *domain.Identity, id uuid.UUID) (*domain.Sale, error) {
	if err := actor.Require(domain.ModuleSales, domain.OpRead); err != nil {
		return nil, err
	}

	sale, err := s.sales.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}
	if sale == nil {
		return nil, &domain.NotFoundError{Entity: "Sale", ID: id.String()}
	}
	if !canSeeAllSales(actor) && sale.UserID != actor.UserID {
		return nil, domain.Forbidden("You can only view your own sales")
	}
	return sale, nil
}

// List returns one page of sales, restricted to the caller's own for agents
func (s *SaleService) List(ctx context.Context, actor *domain.Identity, params ports.SaleListParams) (*ports.ListResult[*domain.Sale], error) {
	if err := actor.Require(domain.ModuleSales, domain.OpRead); err != nil {
		return nil, err
	}
	params.Page, params.PageSize = normalizePage(params.Page, params.PageSize)

	filter := ports.SaleFilter{
		PaymentMethod: params.PaymentMethod,
		From:          params.From,
		To:            params.To,
		Limit:         uint64(params.PageSize),
		Offset:        pageOffset(params.Page, params.PageSize),
	}
	if !canSeeAllSales(actor) {
		uid := actor.UserID
		filter.UserID = &uid
	}

	sales, total, err := s.sales.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}

	return ports.NewListResult(sales, params.Page, params.PageSize, total), nil
}

// Receipt renders the receipt for a sale the caller may see
func (s *SaleService) Receipt(ctx context.Context, actor *domain.Identity, id uuid.UUID) (*domain.Receipt, error) {
	sale, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.RenderReceipt(ctx, sale), nil
}

// RenderReceipt builds the receipt for a loaded sale. The cashier name is
// best effort.
func (s *SaleService) RenderReceipt(ctx context.Context, sale *domain.Sale) *domain.Receipt {
	cashier := ""
	if s.users != nil {
		user, err := s.users.FindByID(ctx, sale.UserID)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to load cashier for receipt",
				slog.String("user_id", sale.UserID.String()),
				slog.String("error", err.Error()))
		} else if user != nil {
			cashier = user.Name
		}
	}
	return domain.NewReceipt(sale, s.header, cashier)
}

// LoadSale fetches a sale without an actor, for background jobs
func (s *SaleService) LoadSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	sale, err := s.sales.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}
	if sale == nil {
		return nil, &domain.NotFoundError{Entity: "Sale", ID: id.String()}
	}
	return sale, nil
}

// Agents are limited to their own sales; every other role sees all.
func canSeeAllSales(actor *domain.Identity) bool {
	return actor.HasRole(domain.RoleSuperAdmin, domain.RoleAdmin)
}

// internal/core/services/report.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
	"github.com/ammerola/tajalli-pos/internal/core/ports"
)

const lowStockLimit = 20

// ReportService builds the dashboard summary
type ReportService struct {
	sales     ports.SaleRepository
	products  ports.ProductRepository
	cache     ports.CacheRepository
	threshold decimal.Decimal
	ttl       time.Duration
	logger    *slog.Logger
}

var _ ports.ReportService = (*ReportService)(nil)

// NewReportService creates a new report service
func NewReportService(sales ports.SaleRepository, products ports.ProductRepository, cache ports.CacheRepository,
	lowStockThreshold decimal.Decimal, ttl time.Duration, logger *slog.Logger) *ReportService {
	return &ReportService{
		sales:     sales,
		products:  products,
		cache:     cache,
		threshold: lowStockThreshold,
		ttl:       ttl,
		logger:    logger.With(slog.String("service", "report")),
	}
}

// Summary returns the cached summary, computing it on a miss
func (s *ReportService) Summary(ctx context.Context) (*domain.SalesSummary, error) {
	var summary domain.SalesSummary
	err := s.cache.GetOrSet(ctx, summaryKey(), &summary, func() (interface{}, error) {
		return s.compute(ctx)
	}, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}
	return &summary, nil
}

// Refresh recomputes the summary and overwrites the cached copy
func (s *ReportService) Refresh(ctx context.Context) (*domain.SalesSummary, error) {
	summary, err := s.compute(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh summary: %w", err)
	}
	if err := s.cache.SetWithTTL(ctx, summaryKey(), summary, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "failed to cache summary", slog.String("error", err.Error()))
	}
	return summary, nil
}

func (s *ReportService) compute(ctx context.Context) (*domain.SalesSummary, error) {
	summary, err := s.sales.Summary(ctx)
	if err != nil {
		return nil, err
	}

	products, err := s.products.Count(ctx)
	if err != nil {
		return nil, err
	}
	summary.TotalProducts = products

	low, err := s.products.ListLowStock(ctx, s.threshold, lowStockLimit)
	if err != nil {
		return nil, err
	}
	if low == nil {
		low = []*domain.Product{}
	}
	summary.LowStock = low
	summary.GeneratedAt = time.Now().UTC()

	s.logger.DebugContext(ctx, "summary computed",
		slog.Int64("total_sales", summary.TotalSales),
		slog.Int("low_stock", len(low)))

	return summary, nil
}

func summaryKey() string {
	return ports.BuildKey(ports.PrefixDashboard, "summary")
}

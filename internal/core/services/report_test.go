package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
	"github.com/ammerola/tajalli-pos/internal/core/services"
	"github.com/ammerola/tajalli-pos/test/helpers"
	"github.com/ammerola/tajalli-pos/test/mocks"
)

func TestReportService_Summary(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	sales := mocks.NewMockSaleRepository(ctrl)
	products := mocks.NewMockProductRepository(ctrl)
	cache, mr := newCache(t)
	threshold := decimal.NewFromInt(5)
	svc := services.NewReportService(sales, products, cache, threshold, time.Minute, helpers.TestLogger())

	low := helpers.CreateTestProduct(func(p *domain.Product) { p.QuantitySold = decimal.NewFromInt(8) })

	sales.EXPECT().Summary(gomock.Any()).Return(&domain.SalesSummary{
		TotalRevenue:   decimal.NewFromInt(1200),
		TotalSales:     3,
		TotalCustomers: 2,
	}, nil).Times(2)
	products.EXPECT().Count(gomock.Any()).Return(int64(12), nil).Times(2)
	products.EXPECT().ListLowStock(gomock.Any(), threshold, uint64(20)).Return([]*domain.Product{low}, nil).Times(2)

	first, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.True(t, first.TotalRevenue.Equal(decimal.NewFromInt(1200)))
	assert.Equal(t, int64(12), first.TotalProducts)
	require.Len(t, first.LowStock, 1)
	assert.Equal(t, low.ID, first.LowStock[0].ID)
	assert.True(t, mr.Exists("dash:summary"))

	// Served from cache; the repositories are not called again.
	_, err = svc.Summary(ctx)
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), refreshed.TotalSales)
	assert.False(t, refreshed.GeneratedAt.IsZero())
}

func TestReportService_RefreshError(t *testing.T) {
	ctrl := gomock.NewController(t)
	sales := mocks.NewMockSaleRepository(ctrl)
	cache, _ := newCache(t)
	svc := services.NewReportService(sales, mocks.NewMockProductRepository(ctrl), cache,
		decimal.NewFromInt(5), time.Minute, helpers.TestLogger())

	sales.EXPECT().Summary(gomock.Any()).Return(nil, errors.New("timeout"))

	_, err := svc.Refresh(context.Background())
	assert.ErrorContains(t, err, "failed to refresh summary: timeout")
}

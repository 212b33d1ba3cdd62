package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
	"github.com/ammerola/tajalli-pos/internal/core/ports"
	"github.com/ammerola/tajalli-pos/internal/core/services"
	"github.com/ammerola/tajalli-pos/test/helpers"
	"github.com/ammerola/tajalli-pos/test/mocks"
)

func TestInventoryService_Adjust(t *testing.T) {
	admin := helpers.CreateTestIdentity(domain.RoleAdmin)
	product := helpers.CreateTestProduct()

	tests := []struct {
		name          string
		actor         *domain.Identity
		adj           *domain.InventoryAdjustment
		setupMocks    func(*mocks.MockAdjustmentRepository, *mocks.MockCacheInvalidator)
		wantErr       error
		wantErrAs     any
		errorContains string
	}{
		{
			name:  "admin_restocks_product",
			actor: admin,
			adj:   &domain.InventoryAdjustment{ProductID: product.ID, Quantity: decimal.NewFromInt(5), Type: "ADD"},
			setupMocks: func(r *mocks.MockAdjustmentRepository, i *mocks.MockCacheInvalidator) {
				r.EXPECT().Apply(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, a *domain.InventoryAdjustment) (*domain.Product, error) {
						assert.Equal(t, domain.AdjustmentAdd, a.Type)
						assert.Equal(t, admin.UserID, a.UserID)
						assert.NotEqual(t, uuid.Nil, a.ID)
						return product, nil
					})
				i.EXPECT().InvalidateStock(gomock.Any()).Return(nil)
			},
		},
		{
			name:       "agent_is_forbidden",
			actor:      helpers.CreateTestIdentity(domain.RoleAgent),
			adj:        &domain.InventoryAdjustment{ProductID: product.ID, Quantity: decimal.NewFromInt(1), Type: domain.AdjustmentAdd},
			setupMocks: func(*mocks.MockAdjustmentRepository, *mocks.MockCacheInvalidator) {},
			wantErr:    domain.ErrForbidden,
		},
		{
			name:       "anonymous_is_unauthenticated",
			adj:        &domain.InventoryAdjustment{ProductID: product.ID, Quantity: decimal.NewFromInt(1), Type: domain.AdjustmentAdd},
			setupMocks: func(*mocks.MockAdjustmentRepository, *mocks.MockCacheInvalidator) {},
			wantErr:    domain.ErrUnauthenticated,
		},
		{
			name:          "zero_quantity_is_rejected",
			actor:         admin,
			adj:           &domain.InventoryAdjustment{ProductID: product.ID, Quantity: decimal.Zero, Type: domain.AdjustmentAdd},
			setupMocks:    func(*mocks.MockAdjustmentRepository, *mocks.MockCacheInvalidator) {},
			errorContains: "quantity must be positive",
		},
		{
			name:          "unknown_type_is_rejected",
			actor:         admin,
			adj:           &domain.InventoryAdjustment{ProductID: product.ID, Quantity: decimal.NewFromInt(1), Type: "spoil"},
			setupMocks:    func(*mocks.MockAdjustmentRepository, *mocks.MockCacheInvalidator) {},
			errorContains: "type must be add or remove",
		},
		{
			name:  "removal_beyond_stock_passes_through",
			actor: admin,
			adj:   &domain.InventoryAdjustment{ProductID: product.ID, Quantity: decimal.NewFromInt(50), Type: domain.AdjustmentRemove},
			setupMocks: func(r *mocks.MockAdjustmentRepository, _ *mocks.MockCacheInvalidator) {
				r.EXPECT().Apply(gomock.Any(), gomock.Any()).
					Return(nil, &domain.InsufficientStockError{ProductName: product.Name, Available: decimal.NewFromInt(10), Unit: domain.UnitKg})
			},
			wantErrAs: new(*domain.InsufficientStockError),
		},
		{
			name:  "missing_product_passes_through",
			actor: admin,
			adj:   &domain.InventoryAdjustment{ProductID: product.ID, Quantity: decimal.NewFromInt(1), Type: domain.AdjustmentRemove},
			setupMocks: func(r *mocks.MockAdjustmentRepository, _ *mocks.MockCacheInvalidator) {
				r.EXPECT().Apply(gomock.Any(), gomock.Any()).
					Return(nil, &domain.NotFoundError{Entity: "Product", ID: product.ID.String()})
			},
			wantErrAs: new(*domain.NotFoundError),
		},
		{
			name:  "repository_error_is_wrapped",
			actor: admin,
			adj:   &domain.InventoryAdjustment{ProductID: product.ID, Quantity: decimal.NewFromInt(1), Type: domain.AdjustmentAdd},
			setupMocks: func(r *mocks.MockAdjustmentRepository, _ *mocks.MockCacheInvalidator) {
				r.EXPECT().Apply(gomock.Any(), gomock.Any()).Return(nil, errors.New("deadlock detected"))
			},
			errorContains: "failed to apply adjustment: deadlock detected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockAdjustmentRepository(ctrl)
			invalidator := mocks.NewMockCacheInvalidator(ctrl)
			tt.setupMocks(repo, invalidator)
			svc := services.NewInventoryService(repo, invalidator, helpers.TestLogger())

			got, err := svc.Adjust(context.Background(), tt.actor, tt.adj)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantErrAs != nil:
				assert.ErrorAs(t, err, tt.wantErrAs)
			case tt.errorContains != "":
				assert.ErrorContains(t, err, tt.errorContains)
			default:
				require.NoError(t, err)
				assert.Equal(t, product, got.Product)
			}
		})
	}
}

func TestInventoryService_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAdjustmentRepository(ctrl)
	svc := services.NewInventoryService(repo, mocks.NewMockCacheInvalidator(ctrl), helpers.TestLogger())
	productID := uuid.New()

	repo.EXPECT().List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, f ports.AdjustmentFilter) ([]*domain.InventoryAdjustment, int64, error) {
			assert.Equal(t, &productID, f.ProductID)
			assert.Equal(t, domain.AdjustmentRemove, f.Type)
			assert.Equal(t, uint64(40), f.Offset)
			return []*domain.InventoryAdjustment{{ProductID: productID}}, 41, nil
		})

	res, err := svc.List(context.Background(), ports.AdjustmentListParams{
		ProductID: &productID,
		Type:      domain.AdjustmentRemove,
		Page:      3,
	})
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
	assert.Equal(t, 3, res.TotalPages)
}

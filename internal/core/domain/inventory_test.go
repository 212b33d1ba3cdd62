package domain_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
)

func TestInventoryAdjustment_Validate(t *testing.T) {
	productID := uuid.New()

	tests := []struct {
		name       string
		adjustment *domain.InventoryAdjustment
		wantError  bool
		errorField string
	}{
		{
			name: "valid_add",
			adjustment: &domain.InventoryAdjustment{
				ProductID: productID,
				Quantity:  decimal.NewFromInt(25),
				Type:      domain.AdjustmentAdd,
			},
		},
		{
			name: "type_is_normalised",
			adjustment: &domain.InventoryAdjustment{
				ProductID: productID,
				Quantity:  decimal.NewFromFloat(2.5),
				Type:      " Remove ",
			},
		},
		{
			name: "missing_product",
			adjustment: &domain.InventoryAdjustment{
				Quantity: decimal.NewFromInt(1),
				Type:     domain.AdjustmentAdd,
			},
			wantError:  true,
			errorField: "product_id",
		},
		{
			name: "zero_quantity",
			adjustment: &domain.InventoryAdjustment{
				ProductID: productID,
				Quantity:  decimal.Zero,
				Type:      domain.AdjustmentAdd,
			},
			wantError:  true,
			errorField: "quantity",
		},
		{
			name: "negative_quantity",
			adjustment: &domain.InventoryAdjustment{
				ProductID: productID,
				Quantity:  decimal.NewFromInt(-3),
				Type:      domain.AdjustmentRemove,
			},
			wantError:  true,
			errorField: "quantity",
		},
		{
			name: "missing_type",
			adjustment: &domain.InventoryAdjustment{
				ProductID: productID,
				Quantity:  decimal.NewFromInt(1),
			},
			wantError:  true,
			errorField: "type",
		},
		{
			name: "unknown_type",
			adjustment: &domain.InventoryAdjustment{
				ProductID: productID,
				Quantity:  decimal.NewFromInt(1),
				Type:      "transfer",
			},
			wantError:  true,
			errorField: "type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.adjustment.Validate()
			if !tt.wantError {
				require.NoError(t, err)
				return
			}

			var vErr *domain.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.errorField, vErr.Field)
		})
	}
}

func TestInventoryAdjustment_Delta(t *testing.T) {
	add := &domain.InventoryAdjustment{Quantity: decimal.NewFromInt(4), Type: domain.AdjustmentAdd}
	remove := &domain.InventoryAdjustment{Quantity: decimal.NewFromInt(4), Type: domain.AdjustmentRemove}

	assert.True(t, add.Delta().Equal(decimal.NewFromInt(4)))
	assert.True(t, remove.Delta().Equal(decimal.NewFromInt(-4)))
}

func TestProduct_Validate(t *testing.T) {
	t.Run("applies_defaults", func(t *testing.T) {
		p := &domain.Product{
			EANCode:  " 8901234567890 ",
			Name:     "Almonds",
			Quantity: decimal.NewFromInt(10),
			Price:    decimal.NewFromInt(900),
		}
		require.NoError(t, p.Validate())
		assert.Equal(t, "8901234567890", p.EANCode)
		assert.Equal(t, domain.UnitKg, p.Unit)
		assert.Equal(t, domain.DefaultCategory, p.Category)
		assert.NotNil(t, p.Images)
	})

	t.Run("rejects_sold_above_received", func(t *testing.T) {
		p := &domain.Product{
			EANCode:      "1",
			Name:         "Cashews",
			Quantity:     decimal.NewFromInt(1),
			QuantitySold: decimal.NewFromInt(2),
		}
		err := p.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quantity_sold cannot exceed quantity")
	})

	t.Run("requires_name", func(t *testing.T) {
		p := &domain.Product{EANCode: "1"}
		err := p.Validate()
		require.Error(t, err)
		assert.Equal(t, "product_name is required", err.Error())
	})
}

func TestProduct_Available(t *testing.T) {
	p := &domain.Product{
		Quantity:     decimal.NewFromInt(1000),
		QuantitySold: decimal.NewFromFloat(0.5),
	}
	assert.True(t, p.Available().Equal(decimal.NewFromFloat(999.5)))
	assert.False(t, p.IsLowStock(decimal.NewFromInt(5)))

	var zero domain.Product
	assert.True(t, zero.Available().IsZero())
}

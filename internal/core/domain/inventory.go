// internal/core/domain/inventory.go
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AdjustmentType represents the direction of a manual stock adjustment
type AdjustmentType string

// Adjustment type constants
const (
	AdjustmentAdd    AdjustmentType = "add"
	AdjustmentRemove AdjustmentType = "remove"
)

// Valid reports whether t is a known adjustment type
func (t AdjustmentType) Valid() bool {
	return t == AdjustmentAdd || t == AdjustmentRemove
}

// InventoryAdjustment is an immutable ledger entry recording a manual
// restock or removal. Quantity is always positive and in the product's
// stock unit; Type carries the sign.
type InventoryAdjustment struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Type      AdjustmentType  `json:"type"`
	Notes     string          `json:"notes,omitempty"`
	UserID    uuid.UUID       `json:"user_id"`
	CreatedAt time.Time       `json:"created_at"`

	// Product is the product state after the adjustment was applied.
	Product *Product `json:"product,omitempty"`
}

// Validate performs domain validation on the adjustment
func (a *InventoryAdjustment) Validate() error {
	if a.ProductID == uuid.Nil {
		return NewValidationError("product_id", "product_id is required")
	}
	if !a.Quantity.IsPositive() {
		return NewValidationError("quantity", "quantity must be positive")
	}
	a.Type = AdjustmentType(strings.ToLower(strings.TrimSpace(string(a.Type))))
	if a.Type == "" {
		return NewValidationError("type", "type is required")
	}
	if !a.Type.Valid() {
		return NewValidationError("type", "type must be add or remove")
	}
	a.Notes = strings.TrimSpace(a.Notes)
	return nil
}

// PrepareForStorage sets identifiers and timestamps
func (a *InventoryAdjustment) PrepareForStorage() {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
}

// Delta returns the signed change applied to Product.Quantity
func (a *InventoryAdjustment) Delta() decimal.Decimal {
	if a.Type == AdjustmentRemove {
		return a.Quantity.Neg()
	}
	return a.Quantity
}

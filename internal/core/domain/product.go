// internal/core/domain/product.go
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCategory is assigned to products created without one.
const DefaultCategory = "general"

// Product is a stocked catalog item. Quantity and QuantitySold are kept in
// the product's Unit; Price is per one Unit.
type Product struct {
	ID           uuid.UUID       `json:"id"`
	EANCode      string          `json:"ean_code"`
	Name         string          `json:"product_name"`
	Images       []string        `json:"images"`
	Unit         Unit            `json:"unit"`
	Supplier     string          `json:"supplier,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	QuantitySold decimal.Decimal `json:"quantity_sold"`
	Price        decimal.Decimal `json:"price"`
	Category     string          `json:"category"`
	ExpiryDate   *time.Time      `json:"expiry_date,omitempty"`
	ArrivalDate  *time.Time      `json:"arrival_date,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Available returns quantity - quantity_sold
func (p *Product) Available() decimal.Decimal {
	return p.Quantity.Sub(p.QuantitySold)
}

// Validate performs domain validation and applies defaults
func (p *Product) Validate() error {
	p.EANCode = strings.TrimSpace(p.EANCode)
	p.Name = strings.TrimSpace(p.Name)

	if p.EANCode == "" {
		return NewValidationError("ean_code", "ean_code is required")
	}
	if p.Name == "" {
		return NewValidationError("product_name", "product_name is required")
	}
	if p.Quantity.IsNegative() {
		return NewValidationError("quantity", "quantity cannot be negative")
	}
	if p.QuantitySold.IsNegative() {
		return NewValidationError("quantity_sold", "quantity_sold cannot be negative")
	}
	if p.QuantitySold.GreaterThan(p.Quantity) {
		return NewValidationError("quantity_sold", "quantity_sold cannot exceed quantity")
	}
	if p.Price.IsNegative() {
		return NewValidationError("price", "price cannot be negative")
	}
	if p.Unit == "" {
		p.Unit = DefaultUnit
	}
	p.Unit = NormalizeUnit(string(p.Unit))
	if p.Category == "" {
		p.Category = DefaultCategory
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return nil
}

// PrepareForStorage sets identifiers and timestamps
func (p *Product) PrepareForStorage() {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.ArrivalDate == nil {
		arrival := now
		p.ArrivalDate = &arrival
	}
}

// IsLowStock reports whether available stock is at or below threshold
func (p *Product) IsLowStock(threshold decimal.Decimal) bool {
	return p.Available().LessThanOrEqual(threshold)
}

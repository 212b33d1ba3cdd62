package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Unit is the unit of measure a product is stocked and priced in.
type Unit string

// Unit constants. UnitKg is the only weight unit; everything else counts items.
const (
	UnitKg      Unit = "kg"
	UnitPackets Unit = "packets"
	UnitPieces  Unit = "pcs"
)

// DefaultUnit applies when neither the cart line nor the product names one.
const DefaultUnit = UnitKg

var gramsPerKg = decimal.NewFromInt(1000)

// NormalizeUnit lower-cases and trims a unit name
func NormalizeUnit(s string) Unit {
	return Unit(strings.ToLower(strings.TrimSpace(s)))
}

// IsWeight reports whether quantities in this unit are weighed
func (u Unit) IsWeight() bool {
	return u == UnitKg
}

// ResolveUnit picks the cart line's unit, then the product's, then kg.
func ResolveUnit(itemUnit, productUnit Unit) Unit {
	if itemUnit != "" {
		return itemUnit
	}
	if productUnit != "" {
		return productUnit
	}
	return DefaultUnit
}

// ToStockQuantity converts a cart quantity into stock units. Weight lines
// are entered in grams and stocked in kilograms; count units pass through.
func ToStockQuantity(requested decimal.Decimal, unit Unit) decimal.Decimal {
	if unit.IsWeight() {
		return requested.Div(gramsPerKg)
	}
	return requested
}

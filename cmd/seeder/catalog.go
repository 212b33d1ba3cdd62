// cmd/seeder/catalog.go
package main

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
)

// catalogColumns is the expected header of a catalog workbook
var catalogColumns = []string{"ean_code", "product_name", "unit", "price", "quantity", "category", "supplier"}

// sampleCatalog is loaded with -sample for local development
func sampleCatalog() []*domain.Product {
	row := func(ean, name string, unit domain.Unit, price, qty int64, category, supplier string) *domain.Product {
		return &domain.Product{
			EANCode:  ean,
			Name:     name,
			Unit:     unit,
			Price:    decimal.NewFromInt(price),
			Quantity: decimal.NewFromInt(qty),
			Category: category,
			Supplier: supplier,
		}
	}
	return []*domain.Product{
		row("8901000000011", "California Almonds", domain.UnitKg, 850, 25, "nuts", "Kashmir Traders"),
		row("8901000000028", "Cashew W240", domain.UnitKg, 1100, 20, "nuts", "Goa Cashew Co"),
		row("8901000000035", "Kashmiri Walnut Kernels", domain.UnitKg, 1400, 10, "nuts", "Kashmir Traders"),
		row("8901000000042", "Pistachio Roasted Salted", domain.UnitKg, 1800, 8, "nuts", "Iran Dry Fruit House"),
		row("8901000000059", "Afghan Black Raisins", domain.UnitKg, 600, 15, "dried_fruit", "Kabul Imports"),
		row("8901000000066", "Medjool Dates 500g", domain.UnitPackets, 750, 40, "dates", "Al Madina Foods"),
		row("8901000000073", "Turkish Apricots", domain.UnitKg, 950, 12, "dried_fruit", "Anatolia Exports"),
		row("8901000000080", "Gift Box Assorted", domain.UnitPieces, 1500, 30, "gifting", "In-house"),
	}
}

// readCatalog parses a workbook whose first sheet has the catalogColumns
// header followed by one product per row.
func readCatalog(path string) ([]*domain.Product, error) {
	file, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	if len(file.Sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in catalog file")
	}

	var (
		products []*domain.Product
		rowIdx   int
	)
	err = file.Sheets[0].ForEachRow(func(r *xlsx.Row) error {
		rowIdx++
		get := func(i int) string {
			c := r.GetCell(i)
			if c == nil {
				return ""
			}
			if s, err := c.FormattedValue(); err == nil {
				return strings.TrimSpace(s)
			}
			return strings.TrimSpace(c.String())
		}

		// Skip header
		if rowIdx == 1 && strings.EqualFold(get(0), catalogColumns[0]) {
			return nil
		}
		if get(0) == "" && get(1) == "" {
			return nil
		}

		price, err := decimal.NewFromString(get(3))
		if err != nil {
			return fmt.Errorf("row %d: invalid price %q", rowIdx, get(3))
		}
		qty := decimal.Zero
		if s := get(4); s != "" {
			if qty, err = decimal.NewFromString(s); err != nil {
				return fmt.Errorf("row %d: invalid quantity %q", rowIdx, s)
			}
		}

		products = append(products, &domain.Product{
			EANCode:  get(0),
			Name:     get(1),
			Unit:     domain.NormalizeUnit(get(2)),
			Price:    price,
			Quantity: qty,
			Category: get(5),
			Supplier: get(6),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

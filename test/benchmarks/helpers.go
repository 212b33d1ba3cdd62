// test/benchmarks/helpers.go
package benchmarks

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
)

var productNames = []string{
	"California Almonds",
	"Cashew W240",
	"Kashmiri Walnut Kernels",
	"Pistachio Roasted Salted",
	"Afghan Black Raisins",
	"Turkish Apricots",
	"Medjool Dates 500g",
	"Gift Box Assorted",
}

// createRestockWorkbook builds an in-memory restock sheet with numRows lines
func createRestockWorkbook(numRows int) ([]byte, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Restock")
	if err != nil {
		return nil, err
	}

	header := sheet.AddRow()
	for _, h := range []string{"ean_code", "quantity", "notes"} {
		header.AddCell().Value = h
	}
	for i := 0; i < numRows; i++ {
		row := sheet.AddRow()
		row.AddCell().Value = fmt.Sprintf("890%010d", i)
		row.AddCell().Value = fmt.Sprintf("%d.%d", 1+i%20, i%10)
		row.AddCell().Value = "Invoice " + productNames[i%len(productNames)]
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// createInvoiceLines simulates the text layer of a supplier PDF
func createInvoiceLines(numItems int) []string {
	lines := []string{
		"KASHMIR TRADERS - TAX INVOICE",
		"EAN            QTY   DESCRIPTION",
	}
	for i := 0; i < numItems; i++ {
		lines = append(lines, fmt.Sprintf("890%010d  %d.5  %s", i, 1+i%9, productNames[i%len(productNames)]))
	}
	lines = append(lines, "Total "+strings.Repeat("-", 20))
	return lines
}

// createLargeSale returns a completed sale with numItems lines
func createLargeSale(numItems int) *domain.Sale {
	sale := &domain.Sale{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		Customer:      domain.Customer{Name: "Walk-in"},
		PaymentMethod: domain.PaymentCash,
		Status:        domain.SaleCompleted,
	}
	total := decimal.Zero
	for i := 0; i < numItems; i++ {
		qty := decimal.NewFromFloat(0.25 * float64(1+i%8))
		price := decimal.NewFromInt(int64(500 + 100*(i%10)))
		line := price.Mul(qty)
		sale.Items = append(sale.Items, domain.SaleItem{
			ProductID:     uuid.New(),
			Name:          productNames[i%len(productNames)],
			Quantity:      qty,
			Unit:          domain.UnitKg,
			Price:         price,
			StockQuantity: qty,
			LineTotal:     line,
		})
		total = total.Add(line)
	}
	sale.Total = total
	sale.PrepareForStorage()
	return sale
}

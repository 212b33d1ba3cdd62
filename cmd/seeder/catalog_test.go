// cmd/seeder/catalog_test.go
package main

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
)

func writeCatalog(t *testing.T, rows [][]string) string {
	t.Helper()
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Catalog")
	require.NoError(t, err)
	for _, values := range rows {
		row := sheet.AddRow()
		for _, v := range values {
			row.AddCell().Value = v
		}
	}
	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	require.NoError(t, file.Save(path))
	return path
}

func TestReadCatalog(t *testing.T) {
	tests := []struct {
		name    string
		rows    [][]string
		want    int
		wantErr string
	}{
		{
			name: "header_and_rows",
			rows: [][]string{
				catalogColumns,
				{"8901000000011", "California Almonds", "KG", "850", "25", "nuts", "Kashmir Traders"},
				{"", ""},
				{"8901000000080", "Gift Box", "pcs", "1500.50", "", "gifting", ""},
			},
			want: 2,
		},
		{
			name: "without_header",
			rows: [][]string{{"8901000000011", "Almonds", "kg", "850", "1"}},
			want: 1,
		},
		{
			name:    "bad_price",
			rows:    [][]string{catalogColumns, {"8901000000011", "Almonds", "kg", "cheap"}},
			wantErr: `row 2: invalid price "cheap"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, err := readCatalog(writeCatalog(t, tt.rows))
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, products, tt.want)
		})
	}
}

func TestReadCatalog_Fields(t *testing.T) {
	products, err := readCatalog(writeCatalog(t, [][]string{
		catalogColumns,
		{"8901000000080", "Gift Box", " PCS ", "1500.50", "", "gifting", "In-house"},
	}))
	require.NoError(t, err)
	require.Len(t, products, 1)

	p := products[0]
	assert.Equal(t, domain.UnitPieces, p.Unit)
	assert.True(t, decimal.RequireFromString("1500.50").Equal(p.Price))
	assert.True(t, p.Quantity.IsZero())
	assert.Equal(t, "In-house", p.Supplier)
}

func TestSampleCatalog_Valid(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range sampleCatalog() {
		require.NoError(t, p.Validate(), p.Name)
		assert.False(t, seen[p.EANCode], "duplicate EAN %s", p.EANCode)
		seen[p.EANCode] = true
	}
}

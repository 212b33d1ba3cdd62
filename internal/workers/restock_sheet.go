// internal/workers/restock_sheet.go
package workers

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/tajalli-pos/internal/tasks"
)

// RestockRow is one parsed line of a supplier restock sheet. Problem is
// set when the line could not be used.
type RestockRow struct {
	Line     int
	EAN      string
	Quantity decimal.Decimal
	Notes    string
	Problem  string
}

// pdfLineRe matches "<EAN> <qty> [anything]" on invoice text lines
var pdfLineRe = regexp.MustCompile(`^\s*(\d{8,14})\s+(\d+(?:\.\d+)?)\b\s*(.*)$`)

// ParseRestockSheet dispatches on the upload format
func ParseRestockSheet(format string, data []byte) ([]RestockRow, error) {
	switch format {
	case tasks.FormatExcel:
		return parseRestockExcel(data)
	case tasks.FormatPDF:
		return parseRestockPDF(data)
	}
	return nil, fmt.Errorf("unsupported restock format %q", format)
}

// parseRestockExcel reads the first sheet: ean_code, quantity, notes. A
// header row is skipped when its first cell is not numeric.
func parseRestockExcel(data []byte) ([]RestockRow, error) {
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	if len(file.Sheets) == 0 {
		return nil, nil
	}

	var rows []RestockRow
	line := 0
	err = file.Sheets[0].ForEachRow(func(r *xlsx.Row) error {
		line++
		get := func(i int) string {
			c := r.GetCell(i)
			if c == nil {
				return ""
			}
			return strings.TrimSpace(c.String())
		}

		ean, qty, notes := get(0), get(1), get(2)
		if ean == "" && qty == "" {
			return nil
		}
		if line == 1 && !isDigits(ean) {
			return nil
		}
		rows = append(rows, newRestockRow(line, ean, qty, notes))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to process Excel rows: %w", err)
	}
	return rows, nil
}

// parseRestockPDF extracts "<EAN> <qty>" lines from a text PDF. Lines
// that do not start with an EAN are headers or totals and are ignored.
func parseRestockPDF(data []byte) ([]RestockRow, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	var lines []string
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", pageNum, err)
		}
		lines = append(lines, strings.Split(text, "\n")...)
	}
	return ParseInvoiceLines(lines), nil
}

// ParseInvoiceLines picks "<EAN> <qty> [notes]" rows out of invoice text lines.
// Line numbers are 1-based positions in lines.
func ParseInvoiceLines(lines []string) []RestockRow {
	var rows []RestockRow
	for i, l := range lines {
		m := pdfLineRe.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		rows = append(rows, newRestockRow(i+1, m[1], m[2], strings.TrimSpace(m[3])))
	}
	return rows
}

func newRestockRow(line int, ean, qty, notes string) RestockRow {
	row := RestockRow{Line: line, EAN: ean, Notes: notes}
	if ean == "" {
		row.Problem = "missing EAN"
		return row
	}
	q, err := decimal.NewFromString(qty)
	if err != nil || !q.IsPositive() {
		row.Problem = fmt.Sprintf("invalid quantity %q", qty)
		return row
	}
	row.Quantity = q
	return row
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// internal/handlers/export.go
package handlers

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
	"github.com/ammerola/tajalli-pos/internal/core/ports"
	"github.com/ammerola/tajalli-pos/internal/handlers/middleware"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	// exportPageSize matches the service-side page cap
	exportPageSize = 100
	// exportMaxRows bounds a single workbook
	exportMaxRows = 50000
)

var (
	productHeaders = []string{
		"EAN", "Product", "Category", "Supplier", "Unit", "Price",
		"Quantity", "Sold", "Available", "Expiry Date", "Arrival Date", "Created At",
	}
	saleHeaders = []string{
		"Receipt", "Date", "Cashier ID", "Customer", "Mobile", "Payment",
		"Product", "Quantity", "Unit", "Price", "Line Total", "Sale Total",
	}
)

// ExportHandler streams spreadsheet exports of the catalog and sales
type ExportHandler struct {
	products ports.ProductService
	sales    ports.SaleService
	logger   *slog.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(products ports.ProductService, sales ports.SaleService, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		products: products,
		sales:    sales,
		logger:   logger.With(slog.String("handler", "export")),
	}
}

// ExportProducts handles GET /api/v1/export/products
func (h *ExportHandler) ExportProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	params := ports.ListParams{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Supplier: q.Get("supplier"),
		SortBy:   "name",
	}

	products, err := collectPages(ctx, func(page int) (*ports.ListResult[*domain.Product], error) {
		params.Page, params.PageSize = page, exportPageSize
		return h.products.List(ctx, params)
	})
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	rows := make([][]string, 0, len(products))
	for _, p := range products {
		rows = append(rows, []string{
			p.EANCode,
			p.Name,
			p.Category,
			p.Supplier,
			string(p.Unit),
			p.Price.StringFixed(2),
			p.Quantity.String(),
			p.QuantitySold.String(),
			p.Available().String(),
			dateValue(p.ExpiryDate),
			dateValue(p.ArrivalDate),
			p.CreatedAt.Format(time.DateTime),
		})
	}

	h.writeWorkbook(w, r, "Products", "products", productHeaders, rows)
}

// ExportSales handles GET /api/v1/export/sales. Agents only see their own.
func (h *ExportHandler) ExportSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.IdentityFrom(ctx)
	q := r.URL.Query()
	params := ports.SaleListParams{PaymentMethod: domain.PaymentMethod(q.Get("payment_method"))}

	var err error
	if params.From, err = parseDateParam(q.Get("from"), false); err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	if params.To, err = parseDateParam(q.Get("to"), true); err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	sales, err := collectPages(ctx, func(page int) (*ports.ListResult[*domain.Sale], error) {
		params.Page, params.PageSize = page, exportPageSize
		return h.sales.List(ctx, actor, params)
	})
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	var rows [][]string
	for _, s := range sales {
		for _, item := range s.Items {
			rows = append(rows, []string{
				s.ReceiptNumber(),
				s.CreatedAt.Format(time.DateTime),
				s.UserID.String(),
				s.Customer.Name,
				s.Customer.Mobile,
				string(s.PaymentMethod),
				item.Name,
				item.Quantity.String(),
				string(item.Unit),
				item.Price.StringFixed(2),
				item.LineTotal.StringFixed(2),
				s.Total.StringFixed(2),
			})
		}
	}

	h.writeWorkbook(w, r, "Sales", "sales", saleHeaders, rows)
}

func (h *ExportHandler) writeWorkbook(w http.ResponseWriter, r *http.Request, sheetName, prefix string, headers []string, rows [][]string) {
	ctx := r.Context()

	data, err := generateWorkbook(sheetName, headers, rows)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate Excel file", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to generate Excel file")
		return
	}

	filename := fmt.Sprintf("%s_export_%s.xlsx", prefix, time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	if _, err := w.Write(data); err != nil {
		h.logger.ErrorContext(ctx, "failed to write Excel response", slog.String("error", err.Error()))
		return
	}

	h.logger.InfoContext(ctx, "export completed",
		slog.String("sheet", sheetName),
		slog.Int("total_rows", len(rows)),
		slog.String("filename", filename))
}

// collectPages walks a paged listing until it is exhausted or the row cap is hit
func collectPages[T any](ctx context.Context, fetch func(page int) (*ports.ListResult[T], error)) ([]T, error) {
	var all []T
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := fetch(page)
		if err != nil {
			return nil, err
		}
		all = append(all, res.Items...)
		if page >= res.TotalPages || len(res.Items) == 0 || len(all) >= exportMaxRows {
			return all, nil
		}
	}
}

// generateWorkbook renders a single-sheet workbook with a bold header row
func generateWorkbook(sheetName string, headers []string, rows [][]string) ([]byte, error) {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
	}

	headerRow := sheet.AddRow()
	for _, header := range headers {
		cell := headerRow.AddCell()
		cell.Value = header
		cell.GetStyle().Font.Bold = true
		cell.GetStyle().Fill.PatternType = "solid"
		cell.GetStyle().Fill.FgColor = "CCCCCC"
	}

	for _, values := range rows {
		row := sheet.AddRow()
		for _, v := range values {
			row.AddCell().Value = v
		}
	}

	for i := range headers {
		width := 15.0
		if strings.EqualFold(headers[i], "Product") {
			width = 30
		}
		sheet.SetColWidth(i+1, i+1, width)
	}

	var buffer bytes.Buffer
	if err := file.Write(&buffer); err != nil {
		return nil, fmt.Errorf("failed to write Excel file to buffer: %w", err)
	}
	return buffer.Bytes(), nil
}

func dateValue(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}

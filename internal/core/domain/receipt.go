// internal/core/domain/receipt.go
package domain

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptHeader holds the store details printed on every receipt
type ReceiptHeader struct {
	StoreName string `json:"store_name"`
	Tagline   string `json:"tagline,omitempty"`
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty"`
	GSTIN     string `json:"gstin,omitempty"`
	FSSAI     string `json:"fssai,omitempty"`
	Currency  string `json:"currency"`
	Footer    string `json:"footer"`
}

// ReceiptLine is one itemized row
type ReceiptLine struct {
	Name            string          `json:"name"`
	DisplayQuantity string          `json:"display_quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Total           decimal.Decimal `json:"total"`
}

// Receipt is the printable form of a sale
type Receipt struct {
	Header        ReceiptHeader   `json:"header"`
	Number        string          `json:"number"`
	SaleID        string          `json:"sale_id"`
	Date          time.Time       `json:"date"`
	Cashier       string          `json:"cashier,omitempty"`
	Customer      Customer        `json:"customer"`
	Lines         []ReceiptLine   `json:"lines"`
	SubTotal      decimal.Decimal `json:"sub_total"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
}

// NewReceipt builds a receipt from a completed sale. It has no side effects.
func NewReceipt(sale *Sale, header ReceiptHeader, cashier string) *Receipt {
	r := &Receipt{
		Header:        header,
		Number:        sale.ReceiptNumber(),
		SaleID:        sale.ID.String(),
		Date:          sale.CreatedAt,
		Cashier:       cashier,
		Customer:      sale.Customer,
		Lines:         make([]ReceiptLine, 0, len(sale.Items)),
		PaymentMethod: sale.PaymentMethod,
	}

	subTotal := decimal.Zero
	for _, item := range sale.Items {
		line := ReceiptLine{
			Name:            item.Name,
			DisplayQuantity: FormatQuantity(item.Quantity, item.Unit),
			UnitPrice:       item.Price,
			Total:           item.Price.Mul(ToStockQuantity(item.Quantity, item.Unit)).Round(2),
		}
		subTotal = subTotal.Add(line.Total)
		r.Lines = append(r.Lines, line)
	}
	r.SubTotal = subTotal
	r.Total = sale.Total.Round(2)
	return r
}

// FormatQuantity renders a cart quantity for display: weight lines in kg,
// count lines as entered.
func FormatQuantity(quantity decimal.Decimal, unit Unit) string {
	if unit.IsWeight() {
		return ToStockQuantity(quantity, unit).String() + " kg"
	}
	if unit == "" {
		unit = UnitPieces
	}
	return quantity.String() + " " + string(unit)
}

const receiptWidth = 42

// WriteText renders the receipt as fixed-width text for thermal printers
func (r *Receipt) WriteText(w io.Writer) error {
	var b strings.Builder
	rule := strings.Repeat("-", receiptWidth)

	center := func(s string) {
		if s == "" {
			return
		}
		pad := (receiptWidth - len([]rune(s))) / 2
		if pad < 0 {
			pad = 0
		}
		b.WriteString(strings.Repeat(" ", pad) + s + "\n")
	}
	money := func(d decimal.Decimal) string {
		return r.Header.Currency + d.StringFixed(2)
	}

	center(strings.ToUpper(r.Header.StoreName))
	center(r.Header.Tagline)
	center(r.Header.Address)
	if r.Header.Phone != "" {
		center("Ph: " + r.Header.Phone)
	}
	if r.Header.GSTIN != "" {
		center("GSTIN: " + r.Header.GSTIN)
	}
	if r.Header.FSSAI != "" {
		center("FSSAI: " + r.Header.FSSAI)
	}
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Receipt #: %s\n", r.Number)
	fmt.Fprintf(&b, "Date: %s\n", r.Date.Format("02/01/2006 15:04"))
	if r.Cashier != "" {
		fmt.Fprintf(&b, "Cashier: %s\n", r.Cashier)
	}
	if r.Customer.Name != "" {
		fmt.Fprintf(&b, "Customer: %s\n", r.Customer.Name)
	}
	if r.Customer.Mobile != "" {
		fmt.Fprintf(&b, "Mobile: %s\n", r.Customer.Mobile)
	}
	if r.Customer.Address != "" {
		fmt.Fprintf(&b, "Address: %s\n", r.Customer.Address)
	}
	b.WriteString(rule + "\n")

	for _, line := range r.Lines {
		b.WriteString(line.Name + "\n")
		detail := fmt.Sprintf("  %s x %s", line.DisplayQuantity, money(line.UnitPrice))
		fmt.Fprintf(&b, "%-*s%*s\n", receiptWidth-12, detail, 12, money(line.Total))
	}

	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "%-*s%*s\n", receiptWidth-14, "Subtotal", 14, money(r.SubTotal))
	fmt.Fprintf(&b, "%-*s%*s\n", receiptWidth-14, "TOTAL", 14, money(r.Total))
	fmt.Fprintf(&b, "Payment: %s\n", strings.ToUpper(string(r.PaymentMethod)))
	b.WriteString(rule + "\n")
	center(r.Header.Footer)

	_, err := io.WriteString(w, b.String())
	return err
}

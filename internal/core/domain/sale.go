// internal/core/domain/sale.go
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod represents how a sale was paid
type PaymentMethod string

// Payment method constants
const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentMobile PaymentMethod = "mobile"
)

// Valid reports whether m is a known payment method
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentMobile:
		return true
	}
	return false
}

// SaleStatus represents the lifecycle state of a sale
type SaleStatus string

// Sale status constants
const (
	SaleCompleted SaleStatus = "completed"
	SaleCancelled SaleStatus = "cancelled"
	SaleRefunded  SaleStatus = "refunded"
)

// Customer holds the optional buyer details captured at checkout
type Customer struct {
	ID      *uuid.UUID `json:"customer_id,omitempty"`
	Name    string     `json:"customer_name,omitempty"`
	Mobile  string     `json:"customer_mobile,omitempty"`
	Address string     `json:"customer_address,omitempty"`
}

// IsEmpty reports whether no customer detail was captured
func (c Customer) IsEmpty() bool {
	return c.ID == nil && c.Name == "" && c.Mobile == "" && c.Address == ""
}

// SaleItem is the snapshot of one cart line at checkout time. Quantity is
// what the cashier entered (grams for weight units); StockQuantity is the
// same amount in the product's stock unit.
type SaleItem struct {
	ProductID     uuid.UUID       `json:"product_id"`
	Name          string          `json:"name"`
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          Unit            `json:"unit"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity decimal.Decimal `json:"stock_quantity"`
	LineTotal     decimal.Decimal `json:"line_total"`
}

// Sale is a completed checkout
type Sale struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	Customer      Customer        `json:"customer"`
	Items         []SaleItem      `json:"items"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Status        SaleStatus      `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// PrepareForStorage sets identifiers and timestamps
func (s *Sale) PrepareForStorage() {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
}

// ReceiptNumber is the short printable reference for a sale
func (s *Sale) ReceiptNumber() string {
	id := strings.ReplaceAll(s.ID.String(), "-", "")
	return strings.ToUpper(id[len(id)-8:])
}

// CartItem is one requested line in a checkout
type CartItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      Unit            `json:"unit,omitempty"`
}

// Checkout is the input to the sale engine
type Checkout struct {
	Items          []CartItem
	Customer       Customer
	PaymentMethod  PaymentMethod
	IdempotencyKey string
}

// Validate checks the cart shape and applies defaults. Product-dependent
// checks happen in the sale engine.
func (c *Checkout) Validate() error {
	if len(c.Items) == 0 {
		return ErrEmptyCart
	}
	for i, item := range c.Items {
		if item.ProductID == uuid.Nil {
			return NewValidationError("items", "items[%d].product_id is required", i)
		}
		if !item.Quantity.IsPositive() {
			return NewValidationError("items", "items[%d].quantity must be positive", i)
		}
		c.Items[i].Unit = NormalizeUnit(string(item.Unit))
	}
	if c.PaymentMethod == "" {
		c.PaymentMethod = PaymentCash
	}
	if !c.PaymentMethod.Valid() {
		return NewValidationError("payment_method", "payment_method must be one of cash, card, mobile")
	}
	c.Customer.Name = strings.TrimSpace(c.Customer.Name)
	c.Customer.Mobile = strings.TrimSpace(c.Customer.Mobile)
	c.Customer.Address = strings.TrimSpace(c.Customer.Address)
	return nil
}

// StockDeduction is the aggregated quantity_sold increment for one product
type StockDeduction struct {
	ProductID   uuid.UUID
	ProductName string
	Unit        Unit
	Quantity    decimal.Decimal
}

// SalesSummary aggregates sales for reporting
type SalesSummary struct {
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalSales     int64           `json:"total_sales"`
	TotalProducts  int64           `json:"total_products"`
	TotalCustomers int64           `json:"total_customers"`
	LowStock       []*Product      `json:"low_stock"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

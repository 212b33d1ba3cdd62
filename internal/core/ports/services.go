// internal/core/ports/services.go
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
)

// ProductService defines the application service port for the catalog.
type ProductService interface {
	Create(ctx context.Context, product *domain.Product) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, params ListParams) (*ListResult[*domain.Product], error)
	Update(ctx context.Context, id uuid.UUID, patch ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SaleService runs checkouts and exposes sales to their sellers.
type SaleService interface {
	Checkout(ctx context.Context, actor *domain.Identity, checkout domain.Checkout) (*domain.Sale, error)
	Get(ctx context.Context, actor *domain.Identity, id uuid.UUID) (*domain.Sale, error)
	List(ctx context.Context, actor *domain.Identity, params SaleListParams) (*ListResult[*domain.Sale], error)
	Receipt(ctx context.Context, actor *domain.Identity, id uuid.UUID) (*domain.Receipt, error)
}

// InventoryService applies manual stock adjustments.
type InventoryService interface {
	Adjust(ctx context.Context, actor *domain.Identity, adj *domain.InventoryAdjustment) (*domain.InventoryAdjustment, error)
	List(ctx context.Context, params AdjustmentListParams) (*ListResult[*domain.InventoryAdjustment], error)
}

// UserService manages accounts under role rules.
type UserService interface {
	Create(ctx context.Context, actor *domain.Identity, input CreateUserInput) (*domain.User, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)
	List(ctx context.Context, role domain.Role) ([]*domain.User, error)
	Update(ctx context.Context, actor *domain.Identity, id uuid.UUID, patch UserPatch) (*domain.User, error)
	Delete(ctx context.Context, actor *domain.Identity, id uuid.UUID) error
}

// AuthService issues, verifies and revokes sessions.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	Authenticate(ctx context.Context, token string) (*domain.Identity, error)
	Logout(ctx context.Context, identity *domain.Identity) error
}

// ReportService produces the dashboard summary.
type ReportService interface {
	Summary(ctx context.Context) (*domain.SalesSummary, error)
	Refresh(ctx context.Context) (*domain.SalesSummary, error)
}

// Session is the result of a successful login
type Session struct {
	Token     string       `json:"-"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
}

// ListParams holds paging and filtering for product listings
type ListParams struct {
	Search    string
	Category  string
	Supplier  string
	InStock   *bool
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// SaleListParams holds paging and filtering for sale listings
type SaleListParams struct {
	PaymentMethod domain.PaymentMethod
	From          *time.Time
	To            *time.Time
	Page          int
	PageSize      int
}

// AdjustmentListParams holds paging and filtering for the ledger
type AdjustmentListParams struct {
	ProductID *uuid.UUID
	Type      domain.AdjustmentType
	Page      int
	PageSize  int
}

// ListResult holds one page of results
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalCount int64 `json:"total_count"`
	TotalPages int   `json:"total_pages"`
}

// NewListResult computes the page count for a result page
func NewListResult[T any](items []T, page, pageSize int, total int64) *ListResult[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if pageSize > 0 {
		pages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return &ListResult[T]{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: pages,
	}
}

// ProductPatch carries the fields of a partial product update
type ProductPatch struct {
	EANCode     *string
	Name        *string
	Images      []string
	Unit        *domain.Unit
	Supplier    *string
	Quantity    *decimal.Decimal
	Price       *decimal.Decimal
	Category    *string
	ExpiryDate  *time.Time
	ArrivalDate *time.Time
}

// CreateUserInput is the input to UserService.Create
type CreateUserInput struct {
	Email       string
	Password    string
	Name        string
	Role        domain.Role
	Permissions []string
}

// UserPatch carries the fields of a partial user update
type UserPatch struct {
	Email       *string
	Password    *string
	Name        *string
	Role        *domain.Role
	Permissions []string
}

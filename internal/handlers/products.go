// internal/handlers/products.go
package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
	"github.com/ammerola/tajalli-pos/internal/core/ports"
)

// ProductHandler handles catalog HTTP requests
type ProductHandler struct {
	service ports.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service ports.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "products")),
	}
}

// ProductRequest is the body of POST and PUT /products. On PUT only the
// fields present are applied.
type ProductRequest struct {
	EANCode     *string          `json:"ean_code"`
	Name        *string          `json:"product_name"`
	Images      []string         `json:"images"`
	Unit        *string          `json:"unit"`
	Supplier    *string          `json:"supplier"`
	Quantity    *decimal.Decimal `json:"quantity"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	ExpiryDate  *time.Time       `json:"expiry_date"`
	ArrivalDate *time.Time       `json:"arrival_date"`
}

// ToDomain builds a new product from the request
func (req *ProductRequest) ToDomain() *domain.Product {
	p := &domain.Product{
		Images:      req.Images,
		ExpiryDate:  req.ExpiryDate,
		ArrivalDate: req.ArrivalDate,
	}
	if req.EANCode != nil {
		p.EANCode = *req.EANCode
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Unit != nil {
		p.Unit = domain.NormalizeUnit(*req.Unit)
	}
	if req.Supplier != nil {
		p.Supplier = *req.Supplier
	}
	if req.Quantity != nil {
		p.Quantity = *req.Quantity
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	return p
}

// ToPatch converts the request into a partial update
func (req *ProductRequest) ToPatch() ports.ProductPatch {
	patch := ports.ProductPatch{
		EANCode:     req.EANCode,
		Name:        req.Name,
		Images:      req.Images,
		Supplier:    req.Supplier,
		Quantity:    req.Quantity,
		Price:       req.Price,
		Category:    req.Category,
		ExpiryDate:  req.ExpiryDate,
		ArrivalDate: req.ArrivalDate,
	}
	if req.Unit != nil {
		u := domain.NormalizeUnit(*req.Unit)
		patch.Unit = &u
	}
	return patch
}

// List handles GET /api/v1/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ports.ListParams{
		Search:    q.Get("search"),
		Category:  q.Get("category"),
		Supplier:  q.Get("supplier"),
		SortBy:    q.Get("sort"),
		SortOrder: q.Get("order"),
	}
	params.Page, params.PageSize = pageParams(r)
	if v := q.Get("in_stock"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			params.InStock = &b
		}
	}

	result, err := h.service.List(r.Context(), params)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Create handles POST /api/v1/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	product := req.ToDomain()
	if err := h.service.Create(r.Context(), product); err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

// Get handles GET /api/v1/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// Update handles PUT /api/v1/products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	var req ProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	product, err := h.service.Update(r.Context(), id, req.ToPatch())
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// Delete handles DELETE /api/v1/products/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Product deleted successfully"})
}

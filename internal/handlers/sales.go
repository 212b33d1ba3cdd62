// internal/handlers/sales.go
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
	"github.com/ammerola/tajalli-pos/internal/core/ports"
	"github.com/ammerola/tajalli-pos/internal/handlers/middleware"
)

// IdempotencyHeader lets a till retry a checkout without double-selling
const IdempotencyHeader = "Idempotency-Key"

// SaleHandler handles checkout and sale history requests
type SaleHandler struct {
	service ports.SaleService
	logger  *slog.Logger
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(service ports.SaleService, logger *slog.Logger) *SaleHandler {
	return &SaleHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "sales")),
	}
}

// CheckoutRequest is the body of POST /sales
type CheckoutRequest struct {
	Items           []domain.CartItem    `json:"items"`
	CustomerID      *uuid.UUID           `json:"customer_id"`
	CustomerName    string               `json:"customer_name"`
	CustomerMobile  string               `json:"customer_mobile"`
	CustomerAddress string               `json:"customer_address"`
	PaymentMethod   domain.PaymentMethod `json:"payment_method"`
}

// ToDomain converts the request into a checkout
func (req *CheckoutRequest) ToDomain(idempotencyKey string) domain.Checkout {
	return domain.Checkout{
		Items: req.Items,
		Customer: domain.Customer{
			ID:      req.CustomerID,
			Name:    req.CustomerName,
			Mobile:  req.CustomerMobile,
			Address: req.CustomerAddress,
		},
		PaymentMethod:  req.PaymentMethod,
		IdempotencyKey: idempotencyKey,
	}
}

// Checkout handles POST /api/v1/sales
func (h *SaleHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	sale, err := h.service.Checkout(r.Context(), middleware.IdentityFrom(r.Context()),
		req.ToDomain(r.Header.Get(IdempotencyHeader)))
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, sale)
}

// List handles GET /api/v1/sales
func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ports.SaleListParams{PaymentMethod: domain.PaymentMethod(q.Get("payment_method"))}
	params.Page, params.PageSize = pageParams(r)

	var err error
	if params.From, err = parseDateParam(q.Get("from"), false); err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	if params.To, err = parseDateParam(q.Get("to"), true); err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	result, err := h.service.List(r.Context(), middleware.IdentityFrom(r.Context()), params)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Get handles GET /api/v1/sales/{id}
func (h *SaleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	sale, err := h.service.Get(r.Context(), middleware.IdentityFrom(r.Context()), id)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, sale)
}

// Receipt handles GET /api/v1/sales/{id}/receipt?format=json|text
func (h *SaleHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	receipt, err := h.service.Receipt(r.Context(), middleware.IdentityFrom(r.Context()), id)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	if r.URL.Query().Get("format") != "text" {
		respondJSON(w, http.StatusOK, receipt)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := receipt.WriteText(w); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write receipt", slog.String("error", err.Error()))
	}
}

// parseDateParam accepts RFC 3339 or a bare date. A bare upper bound
// covers the whole day.
func parseDateParam(v string, upper bool) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, domain.NewValidationError("date", "Invalid date %q, expected YYYY-MM-DD", v)
	}
	if upper {
		t = t.AddDate(0, 0, 1)
	}
	return &t, nil
}

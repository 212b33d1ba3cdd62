// internal/handlers/inventory.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
	"github.com/ammerola/tajalli-pos/internal/core/ports"
	"github.com/ammerola/tajalli-pos/internal/handlers/middleware"
)

// InventoryHandler handles stock adjustment requests
type InventoryHandler struct {
	service ports.InventoryService
	logger  *slog.Logger
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(service ports.InventoryService, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "inventory")),
	}
}

// AdjustmentRequest is the body of POST /inventory
type AdjustmentRequest struct {
	ProductID uuid.UUID             `json:"product_id"`
	Quantity  decimal.Decimal       `json:"quantity"`
	Type      domain.AdjustmentType `json:"type"`
	Notes     string                `json:"notes"`
}

// List handles GET /api/v1/inventory
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ports.AdjustmentListParams{Type: domain.AdjustmentType(q.Get("type"))}
	params.Page, params.PageSize = pageParams(r)

	if v := q.Get("product_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid product_id format")
			return
		}
		params.ProductID = &id
	}

	result, err := h.service.List(r.Context(), params)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Adjust handles POST /api/v1/inventory
func (h *InventoryHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req AdjustmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	adj, err := h.service.Adjust(r.Context(), middleware.IdentityFrom(r.Context()), &domain.InventoryAdjustment{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Type:      req.Type,
		Notes:     req.Notes,
	})
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, adj)
}

// internal/handlers/reports.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/ammerola/tajalli-pos/internal/core/ports"
)

// ReportHandler serves the dashboard summary
type ReportHandler struct {
	service ports.ReportService
	logger  *slog.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(service ports.ReportService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "reports")),
	}
}

// Summary handles GET /api/v1/reports/summary
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

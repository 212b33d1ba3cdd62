// internal/workers/report_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ammerola/tajalli-pos/internal/core/ports"
)

// ReportProcessor recomputes the cached dashboard summary
type ReportProcessor struct {
	reports ports.ReportService
	logger  *slog.Logger
}

// NewReportProcessor creates a new report processor
func NewReportProcessor(reports ports.ReportService, logger *slog.Logger) *ReportProcessor {
	return &ReportProcessor{
		reports: reports,
		logger:  logger.With(slog.String("processor", "report")),
	}
}

// RefreshReport handles report:refresh
func (p *ReportProcessor) RefreshReport(ctx context.Context, _ *asynq.Task) error {
	summary, err := p.reports.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh summary: %w", err)
	}

	p.logger.InfoContext(ctx, "summary refreshed",
		slog.Int64("total_sales", summary.TotalSales),
		slog.String("total_revenue", summary.TotalRevenue.String()),
		slog.Int("low_stock", len(summary.LowStock)))
	return nil
}

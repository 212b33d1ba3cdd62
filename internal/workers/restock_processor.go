// internal/workers/restock_processor.go
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
	"github.com/ammerola/tajalli-pos/internal/core/ports"
	"github.com/ammerola/tajalli-pos/internal/tasks"
)

// RestockProcessor applies uploaded supplier sheets as inventory additions
type RestockProcessor struct {
	storage   ports.FileStorage
	products  ports.ProductRepository
	users     ports.UserRepository
	inventory ports.InventoryService
	cache     ports.CacheRepository
	logger    *slog.Logger
}

// NewRestockProcessor creates a new restock processor
func NewRestockProcessor(
	fileStorage ports.FileStorage,
	products ports.ProductRepository,
	users ports.UserRepository,
	inventory ports.InventoryService,
	cache ports.CacheRepository,
	logger *slog.Logger,
) *RestockProcessor {
	return &RestockProcessor{
		storage:   fileStorage,
		products:  products,
		users:     users,
		inventory: inventory,
		cache:     cache,
		logger:    logger.With(slog.String("processor", "restock")),
	}
}

// ProcessRestock handles restock:import. Rows are applied one adjustment
// at a time, so once any row has been applied the task is never retried.
func (p *RestockProcessor) ProcessRestock(ctx context.Context, t *asynq.Task) error {
	var payload tasks.RestockImportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	status := &tasks.ImportStatus{
		JobID:    payload.JobID,
		Status:   tasks.StatusProcessing,
		FileName: payload.FileName,
	}
	p.saveStatus(ctx, status)

	p.logger.InfoContext(ctx, "processing restock sheet",
		slog.String("job_id", payload.JobID),
		slog.String("format", payload.Format),
		slog.String("user_email", payload.UserEmail))

	user, err := p.users.FindByID(ctx, payload.UserID)
	if err != nil {
		return fmt.Errorf("failed to load uploader: %w", err)
	}
	if user == nil {
		return p.fail(ctx, status, "uploader no longer exists")
	}
	actor := user.Identity()

	data, err := p.storage.Download(ctx, payload.StorageKey)
	if err != nil {
		if errors.Is(err, ports.ErrObjectNotFound) {
			return p.fail(ctx, status, "uploaded file is missing")
		}
		return fmt.Errorf("failed to download restock sheet: %w", err)
	}

	rows, err := ParseRestockSheet(payload.Format, data)
	if err != nil {
		return p.fail(ctx, status, err.Error())
	}
	status.RowsTotal = len(rows)

	for _, row := range rows {
		if row.Problem != "" {
			status.Skipped = append(status.Skipped, fmt.Sprintf("row %d: %s", row.Line, row.Problem))
			continue
		}

		product, err := p.products.FindByEAN(ctx, row.EAN)
		if err != nil {
			return p.fail(ctx, status, fmt.Sprintf("row %d: %v", row.Line, err))
		}
		if product == nil {
			status.Skipped = append(status.Skipped, fmt.Sprintf("row %d: unknown EAN %s", row.Line, row.EAN))
			continue
		}

		notes := row.Notes
		if notes == "" {
			notes = "Restock import " + payload.FileName
		}
		_, err = p.inventory.Adjust(ctx, actor, &domain.InventoryAdjustment{
			ProductID: product.ID,
			Quantity:  row.Quantity,
			Type:      domain.AdjustmentAdd,
			Notes:     notes,
		})
		if err != nil {
			var validation *domain.ValidationError
			if errors.As(err, &validation) {
				status.Skipped = append(status.Skipped, fmt.Sprintf("row %d: %s", row.Line, validation.Message))
				continue
			}
			return p.fail(ctx, status, fmt.Sprintf("row %d: %v", row.Line, err))
		}
		status.RowsApplied++
	}

	status.Status = tasks.StatusCompleted
	p.saveStatus(ctx, status)

	if err := p.storage.Delete(ctx, payload.StorageKey); err != nil {
		p.logger.WarnContext(ctx, "failed to delete processed upload",
			slog.String("key", payload.StorageKey),
			slog.String("error", err.Error()))
	}

	p.logger.InfoContext(ctx, "restock import completed",
		slog.String("job_id", payload.JobID),
		slog.Int("rows_total", status.RowsTotal),
		slog.Int("rows_applied", status.RowsApplied),
		slog.Int("rows_skipped", len(status.Skipped)))
	return nil
}

func (p *RestockProcessor) fail(ctx context.Context, status *tasks.ImportStatus, msg string) error {
	status.Status = tasks.StatusFailed
	status.Error = msg
	p.saveStatus(ctx, status)

	p.logger.ErrorContext(ctx, "restock import failed",
		slog.String("job_id", status.JobID),
		slog.Int("rows_applied", status.RowsApplied),
		slog.String("error", msg))
	return fmt.Errorf("restock import %s: %s: %w", status.JobID, msg, asynq.SkipRetry)
}

func (p *RestockProcessor) saveStatus(ctx context.Context, status *tasks.ImportStatus) {
	status.UpdatedAt = time.Now()
	key := ports.BuildKey(ports.PrefixImport, status.JobID)
	if err := p.cache.SetWithTTL(ctx, key, status, tasks.ImportStatusTTL); err != nil {
		p.logger.WarnContext(ctx, "failed to save import status",
			slog.String("job_id", status.JobID),
			slog.String("error", err.Error()))
	}
}

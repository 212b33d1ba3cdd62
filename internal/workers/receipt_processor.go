// internal/workers/receipt_processor.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ammerola/tajalli-pos/internal/adapters/storage"
	"github.com/ammerola/tajalli-pos/internal/core/domain"
	"github.com/ammerola/tajalli-pos/internal/core/ports"
	"github.com/ammerola/tajalli-pos/internal/tasks"
)

// ReceiptSource loads sales and renders them; *services.SaleService satisfies it
type ReceiptSource interface {
	LoadSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error)
	RenderReceipt(ctx context.Context, sale *domain.Sale) *domain.Receipt
}

// ReceiptProcessor archives the printable receipt of each sale
type ReceiptProcessor struct {
	sales   ReceiptSource
	storage ports.FileStorage
	logger  *slog.Logger
}

// NewReceiptProcessor creates a new receipt processor
func NewReceiptProcessor(sales ReceiptSource, fileStorage ports.FileStorage, logger *slog.Logger) *ReceiptProcessor {
	return &ReceiptProcessor{
		sales:   sales,
		storage: fileStorage,
		logger:  logger.With(slog.String("processor", "receipt")),
	}
}

// ProcessReceipt handles receipt:archive
func (p *ReceiptProcessor) ProcessReceipt(ctx context.Context, t *asynq.Task) error {
	var payload tasks.ReceiptArchivePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	sale, err := p.sales.LoadSale(ctx, payload.SaleID)
	if err != nil {
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	var buf bytes.Buffer
	if err := p.sales.RenderReceipt(ctx, sale).WriteText(&buf); err != nil {
		return fmt.Errorf("failed to render receipt: %w", err)
	}

	key := storage.ReceiptKey(sale.ID, sale.CreatedAt)
	location, err := p.storage.Upload(ctx, key, &buf, "text/plain; charset=utf-8")
	if err != nil {
		return fmt.Errorf("failed to upload receipt: %w", err)
	}

	p.logger.InfoContext(ctx, "receipt archived",
		slog.String("sale_id", sale.ID.String()),
		slog.String("location", location))
	return nil
}

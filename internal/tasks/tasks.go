// Package tasks defines the asynq task types shared by the API and the worker.
package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	TypeReceiptArchive   = "receipt:archive"
	TypeRestockImport    = "restock:import"
	TypeReportRefresh    = "report:refresh"
	TypeCleanupTempFiles = "cleanup:temp_files"
)

// Queue names, highest priority first
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// ReceiptArchivePayload asks the worker to render and store a receipt
type ReceiptArchivePayload struct {
	SaleID uuid.UUID `json:"sale_id"`
}

// RestockImportPayload points the worker at an uploaded restock sheet
type RestockImportPayload struct {
	JobID      string    `json:"job_id"`
	StorageKey string    `json:"storage_key"`
	FileName   string    `json:"file_name"`
	Format     string    `json:"format"`
	UserID     uuid.UUID `json:"user_id"`
	UserEmail  string    `json:"user_email"`
}

// Restock sheet formats
const (
	FormatExcel = "xlsx"
	FormatPDF   = "pdf"
)

// NewReceiptArchiveTask builds a receipt:archive task. The task id is the
// sale id so a sale is archived at most once.
func NewReceiptArchiveTask(saleID uuid.UUID) (*asynq.Task, error) {
	b, err := json.Marshal(ReceiptArchivePayload{SaleID: saleID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal receipt payload: %w", err)
	}
	return asynq.NewTask(TypeReceiptArchive, b,
		asynq.TaskID("receipt:"+saleID.String()),
		asynq.Queue(QueueLow),
		asynq.MaxRetry(5),
		asynq.Retention(24*time.Hour)), nil
}

// NewRestockImportTask builds a restock:import task
func NewRestockImportTask(p RestockImportPayload) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal restock payload: %w", err)
	}
	return asynq.NewTask(TypeRestockImport, b,
		asynq.TaskID("restock:"+p.JobID),
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Retention(24*time.Hour)), nil
}

// NewReportRefreshTask builds a report:refresh task
func NewReportRefreshTask() *asynq.Task {
	return asynq.NewTask(TypeReportRefresh, nil, asynq.Queue(QueueLow), asynq.MaxRetry(1))
}

// NewCleanupTempFilesTask builds a cleanup:temp_files task
func NewCleanupTempFilesTask() *asynq.Task {
	return asynq.NewTask(TypeCleanupTempFiles, nil, asynq.Queue(QueueLow), asynq.MaxRetry(1))
}

// ImportStatus is the job record kept in the cache under import:<job>
type ImportStatus struct {
	JobID       string    `json:"job_id"`
	Status      string    `json:"status"`
	FileName    string    `json:"file_name"`
	RowsTotal   int       `json:"rows_total"`
	RowsApplied int       `json:"rows_applied"`
	Skipped     []string  `json:"skipped,omitempty"`
	Error       string    `json:"error,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ImportStatusTTL is how long a restock job record stays readable
const ImportStatusTTL = 24 * time.Hour

// Import job states
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

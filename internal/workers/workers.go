// Package workers holds the asynq task handlers run by cmd/worker.
package workers

import (
	"github.com/hibiken/asynq"

	"github.com/ammerola/tajalli-pos/internal/tasks"
)

// Processors groups the task handlers. A nil processor is not registered.
type Processors struct {
	Receipts *ReceiptProcessor
	Restock  *RestockProcessor
	Reports  *ReportProcessor
	Cleanup  *CleanupProcessor
}

// NewServeMux routes every task type to its processor
func NewServeMux(p Processors) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	if p.Receipts != nil {
		mux.HandleFunc(tasks.TypeReceiptArchive, p.Receipts.ProcessReceipt)
	}
	if p.Restock != nil {
		mux.HandleFunc(tasks.TypeRestockImport, p.Restock.ProcessRestock)
	}
	if p.Reports != nil {
		mux.HandleFunc(tasks.TypeReportRefresh, p.Reports.RefreshReport)
	}
	if p.Cleanup != nil {
		mux.HandleFunc(tasks.TypeCleanupTempFiles, p.Cleanup.CleanupTempFiles)
	}
	return mux
}

// internal/handlers/import.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/tajalli-pos/internal/adapters/storage"
	"github.com/ammerola/tajalli-pos/internal/core/domain"
	"github.com/ammerola/tajalli-pos/internal/core/ports"
	"github.com/ammerola/tajalli-pos/internal/handlers/middleware"
	"github.com/ammerola/tajalli-pos/internal/tasks"
)

// ImportHandler accepts restock sheets and reports on their processing
type ImportHandler struct {
	storage     ports.FileStorage
	queue       ports.TaskEnqueuer
	cache       ports.CacheRepository
	maxFileSize int64
	logger      *slog.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(
	fileStorage ports.FileStorage,
	queue ports.TaskEnqueuer,
	cache ports.CacheRepository,
	maxFileSize int64,
	logger *slog.Logger,
) *ImportHandler {
	return &ImportHandler{
		storage:     fileStorage,
		queue:       queue,
		cache:       cache,
		maxFileSize: maxFileSize,
		logger:      logger.With(slog.String("handler", "import")),
	}
}

// ImportRestock handles POST /api/v1/import/restock
func (h *ImportHandler) ImportRestock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := middleware.IdentityFrom(ctx)
	if actor == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if r.ContentLength > h.maxFileSize {
		respondError(w, http.StatusRequestEntityTooLarge, "File is too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize)
	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "File is too large")
			return
		}
		respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	format, ok := restockFormat(header.Filename)
	if !ok {
		respondError(w, http.StatusBadRequest, "Only .xlsx and .pdf files are allowed")
		return
	}

	jobUUID := uuid.New()
	jobID := jobUUID.String()
	key := storage.ImportKey(jobUUID, header.Filename)

	contentType := "application/pdf"
	if format == tasks.FormatExcel {
		contentType = xlsxContentType
	}
	if _, err := h.storage.Upload(ctx, key, file, contentType); err != nil {
		h.logger.ErrorContext(ctx, "failed to store restock sheet",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to save upload")
		return
	}

	status := tasks.ImportStatus{
		JobID:     jobID,
		Status:    tasks.StatusQueued,
		FileName:  header.Filename,
		UpdatedAt: time.Now(),
	}
	if err := h.cache.SetWithTTL(ctx, ports.BuildKey(ports.PrefixImport, jobID), status, tasks.ImportStatusTTL); err != nil {
		h.logger.WarnContext(ctx, "failed to record import status",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
	}

	task, err := tasks.NewRestockImportTask(tasks.RestockImportPayload{
		JobID:      jobID,
		StorageKey: key,
		FileName:   header.Filename,
		Format:     format,
		UserID:     actor.UserID,
		UserEmail:  actor.Email,
	})
	if err == nil {
		_, err = h.queue.EnqueueContext(ctx, task)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to enqueue restock import",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
		if derr := h.storage.Delete(ctx, key); derr != nil {
			h.logger.WarnContext(ctx, "failed to remove orphaned upload",
				slog.String("key", key),
				slog.String("error", derr.Error()))
		}
		_ = h.cache.Delete(ctx, ports.BuildKey(ports.PrefixImport, jobID))
		respondError(w, http.StatusInternalServerError, "Failed to queue import job")
		return
	}

	h.logger.InfoContext(ctx, "restock import queued",
		slog.String("job_id", jobID),
		slog.String("format", format),
		slog.String("file_name", header.Filename))

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":  jobID,
		"status":  tasks.StatusQueued,
		"message": "Restock import has been queued for processing",
	})
}

// ImportStatus handles GET /api/v1/import/{jobId}
func (h *ImportHandler) ImportStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := r.PathValue("jobId")
	if _, err := uuid.Parse(jobID); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid jobId format")
		return
	}

	var status tasks.ImportStatus
	if err := h.cache.Get(ctx, ports.BuildKey(ports.PrefixImport, jobID), &status); err != nil {
		if errors.Is(err, ports.ErrCacheMiss) {
			respondServiceError(w, r, h.logger, &domain.NotFoundError{Entity: "Job", ID: jobID})
			return
		}
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

func restockFormat(fileName string) (string, bool) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx":
		return tasks.FormatExcel, true
	case ".pdf":
		return tasks.FormatPDF, true
	}
	return "", false
}

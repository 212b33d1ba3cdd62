// internal/workers/cleanup_processor.go
package workers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/tajalli-pos/internal/adapters/storage"
	"github.com/ammerola/tajalli-pos/internal/core/ports"
)

// CleanupProcessor removes stale scratch files and abandoned uploads
type CleanupProcessor struct {
	storage ports.FileStorage
	tempDir string
	maxAge  time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// NewCleanupProcessor creates a new cleanup processor
func NewCleanupProcessor(fileStorage ports.FileStorage, tempDir string, maxAge time.Duration, logger *slog.Logger) *CleanupProcessor {
	return &CleanupProcessor{
		storage: fileStorage,
		tempDir: tempDir,
		maxAge:  maxAge,
		now:     time.Now,
		logger:  logger.With(slog.String("processor", "cleanup")),
	}
}

// CleanupTempFiles handles cleanup:temp_files
func (p *CleanupProcessor) CleanupTempFiles(ctx context.Context, _ *asynq.Task) error {
	p.logger.InfoContext(ctx, "cleaning up temp files")
	cutoff := p.now().Add(-p.maxAge)

	localDeleted, err := p.cleanLocal(ctx, cutoff)
	if err != nil {
		return err
	}

	uploadsDeleted, err := p.cleanUploads(ctx, cutoff)
	if err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "temp files cleaned up",
		slog.Int("files_deleted", localDeleted),
		slog.Int("uploads_deleted", uploadsDeleted))
	return nil
}

func (p *CleanupProcessor) cleanLocal(ctx context.Context, cutoff time.Time) (int, error) {
	if p.tempDir == "" {
		return 0, nil
	}

	var deleted int
	err := filepath.WalkDir(p.tempDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				p.logger.WarnContext(ctx, "failed to delete temp file",
					slog.String("file", path),
					slog.String("error", err.Error()))
				return nil
			}
			deleted++
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return deleted, fmt.Errorf("failed to walk temp directory: %w", err)
	}
	return deleted, nil
}

// cleanUploads drops restock sheets the import worker never consumed
func (p *CleanupProcessor) cleanUploads(ctx context.Context, cutoff time.Time) (int, error) {
	objects, err := p.storage.List(ctx, storage.ImportsPrefix)
	if err != nil {
		return 0, fmt.Errorf("failed to list uploads: %w", err)
	}

	var deleted int
	for _, obj := range objects {
		if !obj.LastModified.Before(cutoff) {
			continue
		}
		if err := p.storage.Delete(ctx, obj.Key); err != nil {
			p.logger.WarnContext(ctx, "failed to delete upload",
				slog.String("key", obj.Key),
				slog.String("error", err.Error()))
			continue
		}
		deleted++
	}
	return deleted, nil
}

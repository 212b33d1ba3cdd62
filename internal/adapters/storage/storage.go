// internal/adapters/storage/storage.go
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ammerola/tajalli-pos/internal/core/ports"
)

// Storage backends
const (
	BackendS3    = "s3"
	BackendLocal = "local"
)

// Options selects and configures a storage backend
type Options struct {
	Backend  string
	S3       S3Config
	LocalDir string
}

// New builds the FileStorage named by opts.Backend
func New(ctx context.Context, opts Options, logger *slog.Logger) (ports.FileStorage, error) {
	switch opts.Backend {
	case BackendS3, "":
		s3Cfg := opts.S3
		return NewS3Storage(ctx, &s3Cfg, logger)
	case BackendLocal:
		return NewLocalStorage(opts.LocalDir, logger)
	}
	return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
}

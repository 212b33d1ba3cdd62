// internal/workers/cleanup_processor_test.go
package workers_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/tajalli-pos/internal/adapters/storage"
	"github.com/ammerola/tajalli-pos/internal/core/ports"
	"github.com/ammerola/tajalli-pos/internal/tasks"
	"github.com/ammerola/tajalli-pos/internal/workers"
	"github.com/ammerola/tajalli-pos/test/helpers"
	"github.com/ammerola/tajalli-pos/test/mocks"
)

func TestCleanupProcessor_CleanupTempFiles(t *testing.T) {
	t.Run("removes_stale_files_and_uploads", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		files := mocks.NewMockFileStorage(ctrl)

		dir := t.TempDir()
		stale := filepath.Join(dir, "stale.xlsx")
		fresh := filepath.Join(dir, "fresh.xlsx")
		require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))
		require.NoError(t, os.WriteFile(fresh, []byte("new"), 0o644))
		old := time.Now().Add(-48 * time.Hour)
		require.NoError(t, os.Chtimes(stale, old, old))

		files.EXPECT().List(gomock.Any(), storage.ImportsPrefix).Return([]ports.ObjectInfo{
			{Key: "imports/a/old.pdf", LastModified: old},
			{Key: "imports/b/new.pdf", LastModified: time.Now()},
		}, nil)
		files.EXPECT().Delete(gomock.Any(), "imports/a/old.pdf").Return(nil)

		p := workers.NewCleanupProcessor(files, dir, 24*time.Hour, helpers.TestLogger())
		require.NoError(t, p.CleanupTempFiles(context.Background(), tasks.NewCleanupTempFilesTask()))

		assert.NoFileExists(t, stale)
		assert.FileExists(t, fresh)
	})

	t.Run("missing_temp_dir_is_ignored", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		files := mocks.NewMockFileStorage(ctrl)
		files.EXPECT().List(gomock.Any(), storage.ImportsPrefix).Return(nil, nil)

		p := workers.NewCleanupProcessor(files, filepath.Join(t.TempDir(), "missing"), time.Hour, helpers.TestLogger())
		assert.NoError(t, p.CleanupTempFiles(context.Background(), tasks.NewCleanupTempFilesTask()))
	})

	t.Run("delete_failure_does_not_abort", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		files := mocks.NewMockFileStorage(ctrl)
		old := time.Now().Add(-2 * time.Hour)
		files.EXPECT().List(gomock.Any(), storage.ImportsPrefix).Return([]ports.ObjectInfo{
			{Key: "imports/a/x.pdf", LastModified: old},
			{Key: "imports/b/y.pdf", LastModified: old},
		}, nil)
		files.EXPECT().Delete(gomock.Any(), "imports/a/x.pdf").Return(errors.New("denied"))
		files.EXPECT().Delete(gomock.Any(), "imports/b/y.pdf").Return(nil)

		p := workers.NewCleanupProcessor(files, "", time.Hour, helpers.TestLogger())
		assert.NoError(t, p.CleanupTempFiles(context.Background(), tasks.NewCleanupTempFilesTask()))
	})

	t.Run("list_failure_is_returned", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		files := mocks.NewMockFileStorage(ctrl)
		files.EXPECT().List(gomock.Any(), storage.ImportsPrefix).Return(nil, errors.New("access denied"))

		p := workers.NewCleanupProcessor(files, "", time.Hour, helpers.TestLogger())
		assert.Error(t, p.CleanupTempFiles(context.Background(), tasks.NewCleanupTempFilesTask()))
	})
}

// internal/handlers/import_test.go
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	redis_a "github.com/ammerola/tajalli-pos/internal/adapters/redis_adapter"
	"github.com/ammerola/tajalli-pos/internal/core/domain"
	"github.com/ammerola/tajalli-pos/internal/core/ports"
	"github.com/ammerola/tajalli-pos/internal/handlers"
	"github.com/ammerola/tajalli-pos/internal/handlers/middleware"
	"github.com/ammerola/tajalli-pos/internal/tasks"
	"github.com/ammerola/tajalli-pos/test/helpers"
	"github.com/ammerola/tajalli-pos/test/mocks"
)

func multipartUpload(t *testing.T, fileName string, content []byte, identity *domain.Identity) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import/restock", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if identity != nil {
		req = req.WithContext(middleware.WithIdentity(req.Context(), identity))
	}
	return req
}

type importFixture struct {
	storage *mocks.MockFileStorage
	queue   *mocks.MockTaskEnqueuer
	cache   *redis_a.Cache
	handler *handlers.ImportHandler
}

func newImportFixture(t *testing.T, maxSize int64) *importFixture {
	ctrl := gomock.NewController(t)
	r := helpers.SetupTestRedis(t)
	f := &importFixture{
		storage: mocks.NewMockFileStorage(ctrl),
		queue:   mocks.NewMockTaskEnqueuer(ctrl),
		cache:   redis_a.NewCache(r.Client, time.Minute, helpers.TestLogger()),
	}
	f.handler = handlers.NewImportHandler(f.storage, f.queue, f.cache, maxSize, helpers.TestLogger())
	return f
}

func TestImportHandler_ImportRestock(t *testing.T) {
	admin := helpers.CreateTestIdentity(domain.RoleAdmin)

	t.Run("queues_xlsx_upload", func(t *testing.T) {
		f := newImportFixture(t, 1<<20)

		var storedKey string
		f.storage.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, key string, data io.Reader, contentType string) (string, error) {
				storedKey = key
				b, err := io.ReadAll(data)
				require.NoError(t, err)
				assert.Equal(t, "sheet-bytes", string(b))
				assert.True(t, strings.HasPrefix(key, "imports/"))
				assert.True(t, strings.HasSuffix(key, "/restock.xlsx"))
				return key, nil
			})
		f.queue.EXPECT().EnqueueContext(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
				assert.Equal(t, tasks.TypeRestockImport, task.Type())
				var p tasks.RestockImportPayload
				require.NoError(t, json.Unmarshal(task.Payload(), &p))
				assert.Equal(t, storedKey, p.StorageKey)
				assert.Equal(t, tasks.FormatExcel, p.Format)
				assert.Equal(t, admin.UserID, p.UserID)
				return &asynq.TaskInfo{ID: "restock:" + p.JobID}, nil
			})

		w := httptest.NewRecorder()
		f.handler.ImportRestock(w, multipartUpload(t, "restock.xlsx", []byte("sheet-bytes"), admin))

		require.Equal(t, http.StatusAccepted, w.Code)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, tasks.StatusQueued, resp["status"])

		var status tasks.ImportStatus
		require.NoError(t, f.cache.Get(context.Background(), ports.BuildKey(ports.PrefixImport, resp["job_id"]), &status))
		assert.Equal(t, tasks.StatusQueued, status.Status)
		assert.Equal(t, "restock.xlsx", status.FileName)
	})

	t.Run("rejects_unknown_extension", func(t *testing.T) {
		f := newImportFixture(t, 1<<20)

		w := httptest.NewRecorder()
		f.handler.ImportRestock(w, multipartUpload(t, "restock.csv", []byte("a,b"), admin))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Only .xlsx and .pdf files are allowed", decodeError(t, w))
	})

	t.Run("rejects_oversized_upload", func(t *testing.T) {
		f := newImportFixture(t, 512)

		w := httptest.NewRecorder()
		f.handler.ImportRestock(w, multipartUpload(t, "big.pdf", bytes.Repeat([]byte("x"), 4096), admin))

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("enqueue_failure_removes_upload", func(t *testing.T) {
		f := newImportFixture(t, 1<<20)

		f.storage.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any(), "application/pdf").
			DoAndReturn(func(_ context.Context, key string, _ io.Reader, _ string) (string, error) { return key, nil })
		f.queue.EXPECT().EnqueueContext(gomock.Any(), gomock.Any()).Return(nil, errors.New("redis down"))
		f.storage.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)

		w := httptest.NewRecorder()
		f.handler.ImportRestock(w, multipartUpload(t, "invoice.pdf", []byte("%PDF-1.4"), admin))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Failed to queue import job", decodeError(t, w))
	})

	t.Run("missing_file", func(t *testing.T) {
		f := newImportFixture(t, 1<<20)

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("note", "no file"))
		require.NoError(t, mw.Close())
		req := httptest.NewRequest(http.MethodPost, "/api/v1/import/restock", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req = req.WithContext(middleware.WithIdentity(req.Context(), admin))

		w := httptest.NewRecorder()
		f.handler.ImportRestock(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "File is required", decodeError(t, w))
	})
}

func TestImportHandler_ImportStatus(t *testing.T) {
	f := newImportFixture(t, 1<<20)
	jobID := uuid.NewString()
	require.NoError(t, f.cache.Set(context.Background(), ports.BuildKey(ports.PrefixImport, jobID), tasks.ImportStatus{
		JobID:       jobID,
		Status:      tasks.StatusCompleted,
		RowsTotal:   3,
		RowsApplied: 2,
		Skipped:     []string{"row 3: unknown EAN 0000000000000"},
	}))

	tests := []struct {
		name           string
		jobID          string
		expectedStatus int
	}{
		{name: "known_job", jobID: jobID, expectedStatus: http.StatusOK},
		{name: "unknown_job", jobID: uuid.NewString(), expectedStatus: http.StatusNotFound},
		{name: "malformed_id", jobID: "../etc", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/import/x", nil)
			req.SetPathValue("jobId", tt.jobID)
			w := httptest.NewRecorder()
			f.handler.ImportStatus(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var status tasks.ImportStatus
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
				assert.Equal(t, 2, status.RowsApplied)
				assert.Len(t, status.Skipped, 1)
			}
		})
	}
}

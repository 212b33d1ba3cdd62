// internal/workers/receipt_processor_test.go
package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/tajalli-pos/internal/adapters/storage"
	"github.com/ammerola/tajalli-pos/internal/core/domain"
	"github.com/ammerola/tajalli-pos/internal/tasks"
	"github.com/ammerola/tajalli-pos/internal/workers"
	"github.com/ammerola/tajalli-pos/test/helpers"
	"github.com/ammerola/tajalli-pos/test/mocks"
)

// fakeReceiptSource serves one sale through the real receipt renderer
type fakeReceiptSource struct {
	sale    *domain.Sale
	err     error
	header  domain.ReceiptHeader
	renders int
}

func (f *fakeReceiptSource) LoadSale(_ context.Context, id uuid.UUID) (*domain.Sale, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.sale == nil || f.sale.ID != id {
		return nil, &domain.NotFoundError{Entity: "Sale", ID: id.String()}
	}
	return f.sale, nil
}

func (f *fakeReceiptSource) RenderReceipt(_ context.Context, sale *domain.Sale) *domain.Receipt {
	f.renders++
	return domain.NewReceipt(sale, f.header, "Agent")
}

func TestReceiptProcessor_ProcessReceipt(t *testing.T) {
	header := domain.ReceiptHeader{StoreName: "Tajalli Dry Fruits", Currency: "INR", Footer: "Thank you"}
	product := helpers.CreateTestProduct()
	sale := helpers.CreateTestSale(helpers.CreateTestUser(domain.RoleAgent).ID, product)

	t.Run("archives_rendered_receipt", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sales := &fakeReceiptSource{sale: sale, header: header}
		files := mocks.NewMockFileStorage(ctrl)

		files.EXPECT().Upload(gomock.Any(), storage.ReceiptKey(sale.ID, sale.CreatedAt), gomock.Any(), "text/plain; charset=utf-8").
			DoAndReturn(func(_ context.Context, key string, data io.Reader, _ string) (string, error) {
				b, err := io.ReadAll(data)
				require.NoError(t, err)
				assert.Contains(t, string(b), "TAJALLI DRY FRUITS")
				assert.Contains(t, string(b), product.Name)
				return "file://" + key, nil
			})

		task, err := tasks.NewReceiptArchiveTask(sale.ID)
		require.NoError(t, err)

		p := workers.NewReceiptProcessor(sales, files, helpers.TestLogger())
		require.NoError(t, p.ProcessReceipt(context.Background(), task))
		assert.Equal(t, 1, sales.renders)
	})

	t.Run("missing_sale_is_not_retried", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sales := &fakeReceiptSource{header: header}
		files := mocks.NewMockFileStorage(ctrl)

		task, err := tasks.NewReceiptArchiveTask(sale.ID)
		require.NoError(t, err)

		p := workers.NewReceiptProcessor(sales, files, helpers.TestLogger())
		err = p.ProcessReceipt(context.Background(), task)
		require.Error(t, err)
		assert.True(t, errors.Is(err, asynq.SkipRetry))
	})

	t.Run("storage_failure_is_retried", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		sales := &fakeReceiptSource{sale: sale, header: header}
		files := mocks.NewMockFileStorage(ctrl)

		files.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return("", errors.New("bucket unavailable"))

		task, err := tasks.NewReceiptArchiveTask(sale.ID)
		require.NoError(t, err)

		p := workers.NewReceiptProcessor(sales, files, helpers.TestLogger())
		err = p.ProcessReceipt(context.Background(), task)
		require.Error(t, err)
		assert.False(t, errors.Is(err, asynq.SkipRetry))
	})

	t.Run("database_error_is_retried", func(t *testing.T) {
		sales := &fakeReceiptSource{err: errors.New("connection reset")}
		task, err := tasks.NewReceiptArchiveTask(sale.ID)
		require.NoError(t, err)

		p := workers.NewReceiptProcessor(sales, nil, helpers.TestLogger())
		err = p.ProcessReceipt(context.Background(), task)
		require.Error(t, err)
		assert.False(t, errors.Is(err, asynq.SkipRetry))
	})

	t.Run("malformed_payload", func(t *testing.T) {
		p := workers.NewReceiptProcessor(&fakeReceiptSource{}, nil, helpers.TestLogger())
		err := p.ProcessReceipt(context.Background(), asynq.NewTask(tasks.TypeReceiptArchive, []byte("{")))
		require.Error(t, err)
		assert.True(t, errors.Is(err, asynq.SkipRetry))
	})
}

func TestReportProcessor_RefreshReport(t *testing.T) {
	t.Run("refreshes_summary", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		reports := mocks.NewMockReportService(ctrl)
		reports.EXPECT().Refresh(gomock.Any()).Return(&domain.SalesSummary{TotalSales: 4}, nil)

		p := workers.NewReportProcessor(reports, helpers.TestLogger())
		assert.NoError(t, p.RefreshReport(context.Background(), tasks.NewReportRefreshTask()))
	})

	t.Run("propagates_failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		reports := mocks.NewMockReportService(ctrl)
		reports.EXPECT().Refresh(gomock.Any()).Return(nil, errors.New("db down"))

		p := workers.NewReportProcessor(reports, helpers.TestLogger())
		err := p.RefreshReport(context.Background(), tasks.NewReportRefreshTask())
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "db down"))
	})
}

func TestNewServeMux(t *testing.T) {
	ctrl := gomock.NewController(t)
	reports := mocks.NewMockReportService(ctrl)
	reports.EXPECT().Refresh(gomock.Any()).Return(&domain.SalesSummary{}, nil)

	mux := workers.NewServeMux(workers.Processors{
		Reports: workers.NewReportProcessor(reports, helpers.TestLogger()),
	})

	require.NoError(t, mux.ProcessTask(context.Background(), tasks.NewReportRefreshTask()))

	payload, err := json.Marshal(tasks.ReceiptArchivePayload{})
	require.NoError(t, err)
	err = mux.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeReceiptArchive, payload))
	assert.Error(t, err, "unregistered processors are not routed")
}

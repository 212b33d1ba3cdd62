// internal/handlers/sales_test.go
package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
	"github.com/ammerola/tajalli-pos/internal/core/ports"
	"github.com/ammerola/tajalli-pos/internal/handlers"
	"github.com/ammerola/tajalli-pos/test/helpers"
	"github.com/ammerola/tajalli-pos/test/mocks"
)

func TestSaleHandler_Checkout(t *testing.T) {
	agent := helpers.CreateTestIdentity(domain.RoleAgent)
	product := helpers.CreateTestProduct()
	sale := helpers.CreateTestSale(agent.UserID, product)

	body := map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": product.ID, "quantity": "500", "unit": "kg"},
		},
		"customer_name":  "Ravi",
		"payment_method": "card",
	}

	tests := []struct {
		name           string
		body           interface{}
		idempotencyKey string
		setupMocks     func(*mocks.MockSaleService)
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "creates_sale",
			body:           body,
			idempotencyKey: "till-1-0001",
			setupMocks: func(m *mocks.MockSaleService) {
				m.EXPECT().Checkout(gomock.Any(), agent, gomock.Any()).
					DoAndReturn(func(_ interface{}, _ *domain.Identity, c domain.Checkout) (*domain.Sale, error) {
						assert.Equal(t, "till-1-0001", c.IdempotencyKey)
						assert.Equal(t, domain.PaymentCard, c.PaymentMethod)
						assert.Equal(t, "Ravi", c.Customer.Name)
						require.Len(t, c.Items, 1)
						assert.True(t, c.Items[0].Quantity.Equal(decimal.NewFromInt(500)))
						return sale, nil
					})
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "insufficient_stock",
			body: body,
			setupMocks: func(m *mocks.MockSaleService) {
				m.EXPECT().Checkout(gomock.Any(), agent, gomock.Any()).
					Return(nil, &domain.InsufficientStockError{
						ProductName: product.Name,
						Available:   decimal.NewFromInt(10),
						Unit:        domain.UnitKg,
					})
			},
			expectedStatus: http.StatusConflict,
			expectedError:  "Insufficient stock for California Almonds. Only 10 kg available",
		},
		{
			name: "empty_cart",
			body: map[string]interface{}{"items": []interface{}{}},
			setupMocks: func(m *mocks.MockSaleService) {
				m.EXPECT().Checkout(gomock.Any(), agent, gomock.Any()).Return(nil, domain.ErrEmptyCart)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "duplicate_submission",
			body: body,
			setupMocks: func(m *mocks.MockSaleService) {
				m.EXPECT().Checkout(gomock.Any(), agent, gomock.Any()).
					Return(nil, &domain.ConflictError{Message: "Checkout already submitted"})
			},
			expectedStatus: http.StatusConflict,
			expectedError:  "Checkout already submitted",
		},
		{
			name: "unexpected_error_is_hidden",
			body: body,
			setupMocks: func(m *mocks.MockSaleService) {
				m.EXPECT().Checkout(gomock.Any(), agent, gomock.Any()).
					Return(nil, errors.New("pool exhausted"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := mocks.NewMockSaleService(ctrl)
			tt.setupMocks(svc)
			handler := handlers.NewSaleHandler(svc, helpers.TestLogger())

			req := newRequest(t, http.MethodPost, "/api/v1/sales", tt.body, agent)
			if tt.idempotencyKey != "" {
				req.Header.Set(handlers.IdempotencyHeader, tt.idempotencyKey)
			}
			w := httptest.NewRecorder()
			handler.Checkout(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, decodeError(t, w))
			}
		})
	}
}

func TestSaleHandler_List(t *testing.T) {
	admin := helpers.CreateTestIdentity(domain.RoleAdmin)

	tests := []struct {
		name           string
		query          string
		expectCall     bool
		check          func(*testing.T, ports.SaleListParams)
		expectedStatus int
	}{
		{
			name:       "parses_filters",
			query:      "?payment_method=cash&from=2026-01-01&to=2026-01-31&page=2&limit=10",
			expectCall: true,
			check: func(t *testing.T, p ports.SaleListParams) {
				assert.Equal(t, domain.PaymentCash, p.PaymentMethod)
				assert.Equal(t, 2, p.Page)
				assert.Equal(t, 10, p.PageSize)
				require.NotNil(t, p.From)
				require.NotNil(t, p.To)
				assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *p.From)
				// a bare upper date covers the whole day
				assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), *p.To)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "rejects_bad_date",
			query:          "?from=yesterday",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := mocks.NewMockSaleService(ctrl)
			if tt.expectCall {
				svc.EXPECT().List(gomock.Any(), admin, gomock.Any()).
					DoAndReturn(func(_ interface{}, _ *domain.Identity, p ports.SaleListParams) (*ports.ListResult[*domain.Sale], error) {
						tt.check(t, p)
						return ports.NewListResult[*domain.Sale](nil, p.Page, p.PageSize, 0), nil
					})
			}
			handler := handlers.NewSaleHandler(svc, helpers.TestLogger())

			w := httptest.NewRecorder()
			handler.List(w, newRequest(t, http.MethodGet, "/api/v1/sales"+tt.query, nil, admin))

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestSaleHandler_Get(t *testing.T) {
	agent := helpers.CreateTestIdentity(domain.RoleAgent)

	t.Run("invalid_id", func(t *testing.T) {
		handler := handlers.NewSaleHandler(mocks.NewMockSaleService(gomock.NewController(t)), helpers.TestLogger())
		req := newRequest(t, http.MethodGet, "/api/v1/sales/abc", nil, agent)
		req.SetPathValue("id", "abc")
		w := httptest.NewRecorder()
		handler.Get(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid id format", decodeError(t, w))
	})

	t.Run("someone_elses_sale_is_not_found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := mocks.NewMockSaleService(ctrl)
		id := uuid.New()
		svc.EXPECT().Get(gomock.Any(), agent, id).
			Return(nil, &domain.NotFoundError{Entity: "Sale", ID: id.String()})
		handler := handlers.NewSaleHandler(svc, helpers.TestLogger())

		req := newRequest(t, http.MethodGet, "/api/v1/sales/"+id.String(), nil, agent)
		req.SetPathValue("id", id.String())
		w := httptest.NewRecorder()
		handler.Get(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Sale not found", decodeError(t, w))
	})
}

func TestSaleHandler_Receipt(t *testing.T) {
	agent := helpers.CreateTestIdentity(domain.RoleAgent)
	product := helpers.CreateTestProduct()
	sale := helpers.CreateTestSale(agent.UserID, product)
	receipt := domain.NewReceipt(sale, domain.ReceiptHeader{StoreName: "TAJALLI", Currency: "Rs."}, "Asha")

	tests := []struct {
		name        string
		query       string
		contentType string
		check       func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "json_by_default",
			contentType: "application/json",
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var got domain.Receipt
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
				assert.Equal(t, sale.ReceiptNumber(), got.Number)
				assert.Equal(t, "Asha", got.Cashier)
			},
		},
		{
			name:        "plain_text_for_printers",
			query:       "?format=text",
			contentType: "text/plain; charset=utf-8",
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Contains(t, w.Body.String(), "TAJALLI")
				assert.Contains(t, w.Body.String(), "Cashier: Asha")
				assert.Contains(t, w.Body.String(), product.Name)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := mocks.NewMockSaleService(ctrl)
			svc.EXPECT().Receipt(gomock.Any(), agent, sale.ID).Return(receipt, nil)
			handler := handlers.NewSaleHandler(svc, helpers.TestLogger())

			req := newRequest(t, http.MethodGet, "/api/v1/sales/"+sale.ID.String()+"/receipt"+tt.query, nil, agent)
			req.SetPathValue("id", sale.ID.String())
			w := httptest.NewRecorder()
			handler.Receipt(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.contentType, w.Header().Get("Content-Type"))
			tt.check(t, w)
		})
	}
}

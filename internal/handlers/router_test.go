// internal/handlers/router_test.go
package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
	"github.com/ammerola/tajalli-pos/internal/core/ports"
	"github.com/ammerola/tajalli-pos/internal/handlers"
	"github.com/ammerola/tajalli-pos/test/helpers"
	"github.com/ammerola/tajalli-pos/test/mocks"
)

func TestRouter_Gates(t *testing.T) {
	tokens := map[string]*domain.Identity{
		"agent-token": helpers.CreateTestIdentity(domain.RoleAgent),
		"admin-token": helpers.CreateTestIdentity(domain.RoleAdmin),
		"super-token": helpers.CreateTestIdentity(domain.RoleSuperAdmin),
		"bare-token": helpers.CreateTestIdentity(domain.RoleAgent, func(i *domain.Identity) {
			i.Permissions = domain.NewPermissionSet()
		}),
	}

	tests := []struct {
		name           string
		method         string
		path           string
		token          string
		expectedStatus int
	}{
		{name: "login_is_public", method: http.MethodPost, path: "/api/v1/auth/login", expectedStatus: http.StatusBadRequest},
		{name: "me_anonymous", method: http.MethodGet, path: "/api/v1/auth/me", expectedStatus: http.StatusUnauthorized},
		{name: "me_authenticated", method: http.MethodGet, path: "/api/v1/auth/me", token: "agent-token", expectedStatus: http.StatusOK},
		{name: "products_require_login", method: http.MethodGet, path: "/api/v1/products", expectedStatus: http.StatusUnauthorized},
		{name: "products_garbage_token", method: http.MethodGet, path: "/api/v1/products", token: "forged", expectedStatus: http.StatusUnauthorized},
		{name: "products_without_permission", method: http.MethodGet, path: "/api/v1/products", token: "bare-token", expectedStatus: http.StatusForbidden},
		{name: "agent_reads_products", method: http.MethodGet, path: "/api/v1/products", token: "agent-token", expectedStatus: http.StatusOK},
		{name: "agent_cannot_delete_products", method: http.MethodDelete, path: "/api/v1/products/x", token: "agent-token", expectedStatus: http.StatusForbidden},
		{name: "agent_cannot_adjust_inventory", method: http.MethodPost, path: "/api/v1/inventory", token: "agent-token", expectedStatus: http.StatusForbidden},
		{name: "agent_cannot_list_users", method: http.MethodGet, path: "/api/v1/users", token: "agent-token", expectedStatus: http.StatusForbidden},
		{name: "admin_cannot_create_users", method: http.MethodPost, path: "/api/v1/users", token: "admin-token", expectedStatus: http.StatusForbidden},
		{name: "admin_cannot_delete_users", method: http.MethodDelete, path: "/api/v1/users/x", token: "admin-token", expectedStatus: http.StatusForbidden},
		{name: "agent_cannot_import", method: http.MethodPost, path: "/api/v1/import/restock", token: "agent-token", expectedStatus: http.StatusForbidden},
		{name: "unknown_route", method: http.MethodGet, path: "/api/v1/nope", token: "super-token", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			auth := mocks.NewMockAuthService(ctrl)
			auth.EXPECT().Authenticate(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ interface{}, token string) (*domain.Identity, error) {
					if id, ok := tokens[token]; ok {
						return id, nil
					}
					return nil, domain.ErrUnauthenticated
				}).AnyTimes()

			products := mocks.NewMockProductService(ctrl)
			products.EXPECT().List(gomock.Any(), gomock.Any()).
				Return(ports.NewListResult[*domain.Product](nil, 1, 50, 0), nil).AnyTimes()

			logger := helpers.TestLogger()
			router := handlers.NewRouter(handlers.Handlers{
				Auth:      handlers.NewAuthHandler(auth, false, logger),
				Products:  handlers.NewProductHandler(products, logger),
				Sales:     handlers.NewSaleHandler(mocks.NewMockSaleService(ctrl), logger),
				Inventory: handlers.NewInventoryHandler(mocks.NewMockInventoryService(ctrl), logger),
				Users:     handlers.NewUserHandler(mocks.NewMockUserService(ctrl), logger),
				Reports:   handlers.NewReportHandler(mocks.NewMockReportService(ctrl), logger),
				Export:    handlers.NewExportHandler(products, mocks.NewMockSaleService(ctrl), logger),
				Import:    handlers.NewImportHandler(mocks.NewMockFileStorage(ctrl), mocks.NewMockTaskEnqueuer(ctrl), mocks.NewMockCacheRepository(ctrl), 1<<20, logger),
			}, auth, handlers.RouterOptions{}, logger)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

// internal/handlers/router.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
	"github.com/ammerola/tajalli-pos/internal/core/ports"
	"github.com/ammerola/tajalli-pos/internal/handlers/middleware"
)

const apiV1 = "/api/v1"

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Auth      *AuthHandler
	Products  *ProductHandler
	Sales     *SaleHandler
	Inventory *InventoryHandler
	Users     *UserHandler
	Reports   *ReportHandler
	Export    *ExportHandler
	Import    *ImportHandler
	Health    *HealthHandler
}

// RouterOptions configures the global middleware chain
type RouterOptions struct {
	AllowedOrigins []string
	SecureHeaders  bool
	RateLimiter    *middleware.IPRateLimiter
}

// NewRouter registers all routes on a ServeMux and wraps it in the global
// middleware chain. Route gates follow the permission table: some routes
// need a module permission, others a role.
func NewRouter(h Handlers, auth ports.AuthService, opts RouterOptions, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	authed := func(fn http.HandlerFunc, gates ...func(http.Handler) http.Handler) http.Handler {
		mws := append([]func(http.Handler) http.Handler{middleware.Authenticate(auth, logger)}, gates...)
		return middleware.Chain(fn, mws...)
	}
	perm := middleware.RequirePermission
	elevated := middleware.RequireRole(domain.RoleAdmin, domain.RoleSuperAdmin)
	superadmin := middleware.RequireRole(domain.RoleSuperAdmin)

	if h.Health != nil {
		mux.HandleFunc("GET /health", h.Health.Health)
		mux.HandleFunc("GET /ready", h.Health.Readiness)
		mux.HandleFunc("GET "+apiV1+"/health", h.Health.Health)
	}

	// Auth
	mux.HandleFunc("POST "+apiV1+"/auth/login", h.Auth.Login)
	mux.Handle("GET "+apiV1+"/auth/me", middleware.Chain(http.HandlerFunc(h.Auth.Me), middleware.LoadIdentity(auth, logger)))
	mux.Handle("POST "+apiV1+"/auth/logout", authed(h.Auth.Logout))
	mux.Handle("GET "+apiV1+"/permissions", authed(h.Auth.Permissions))

	// Products
	mux.Handle("GET "+apiV1+"/products", authed(h.Products.List, perm(domain.ModuleProducts, domain.OpRead)))
	mux.Handle("POST "+apiV1+"/products", authed(h.Products.Create, perm(domain.ModuleProducts, domain.OpCreate)))
	mux.Handle("GET "+apiV1+"/products/{id}", authed(h.Products.Get, perm(domain.ModuleProducts, domain.OpRead)))
	mux.Handle("PUT "+apiV1+"/products/{id}", authed(h.Products.Update, perm(domain.ModuleProducts, domain.OpUpdate)))
	mux.Handle("DELETE "+apiV1+"/products/{id}", authed(h.Products.Delete, perm(domain.ModuleProducts, domain.OpDelete)))

	// Sales
	mux.Handle("GET "+apiV1+"/sales", authed(h.Sales.List, perm(domain.ModuleSales, domain.OpRead)))
	mux.Handle("POST "+apiV1+"/sales", authed(h.Sales.Checkout, perm(domain.ModuleSales, domain.OpCreate)))
	mux.Handle("GET "+apiV1+"/sales/{id}", authed(h.Sales.Get, perm(domain.ModuleSales, domain.OpRead)))
	mux.Handle("GET "+apiV1+"/sales/{id}/receipt", authed(h.Sales.Receipt, perm(domain.ModuleSales, domain.OpRead)))

	// Inventory
	mux.Handle("GET "+apiV1+"/inventory", authed(h.Inventory.List, elevated))
	mux.Handle("POST "+apiV1+"/inventory", authed(h.Inventory.Adjust, elevated))

	// Users
	mux.Handle("GET "+apiV1+"/users", authed(h.Users.List, elevated))
	mux.Handle("POST "+apiV1+"/users", authed(h.Users.Create, superadmin))
	mux.Handle("GET "+apiV1+"/users/{id}", authed(h.Users.Get))
	mux.Handle("PUT "+apiV1+"/users/{id}", authed(h.Users.Update))
	mux.Handle("DELETE "+apiV1+"/users/{id}", authed(h.Users.Delete, superadmin))

	// Reports
	mux.Handle("GET "+apiV1+"/reports/summary", authed(h.Reports.Summary, perm(domain.ModuleReports, domain.OpRead)))

	// Export / import
	mux.Handle("GET "+apiV1+"/export/sales", authed(h.Export.ExportSales, perm(domain.ModuleSales, domain.OpRead)))
	mux.Handle("GET "+apiV1+"/export/products", authed(h.Export.ExportProducts, perm(domain.ModuleProducts, domain.OpRead)))
	mux.Handle("POST "+apiV1+"/import/restock", authed(h.Import.ImportRestock, elevated))
	mux.Handle("GET "+apiV1+"/import/{jobId}", authed(h.Import.ImportStatus, elevated))

	global := []func(http.Handler) http.Handler{
		middleware.Recovery(logger),
		middleware.RequestID,
		middleware.Logger(logger),
	}
	if len(opts.AllowedOrigins) > 0 {
		global = append(global, middleware.CORS(opts.AllowedOrigins))
	}
	if opts.SecureHeaders {
		global = append(global, middleware.SecureHeaders)
	}
	if opts.RateLimiter != nil {
		global = append(global, middleware.RateLimit(opts.RateLimiter))
	}
	global = append(global, middleware.Compression)

	return middleware.Chain(mux, global...)
}

package main

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/auth"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/gate"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/httpx"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/middleware"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/policy"
)

const apiPrefix = "/api/v1"

// App is the main application handler that sets up all routes.
type App struct {
	mux       *http.ServeMux
	routerCfg *policy.RouterConfig
	handler   http.Handler
}

// NewApp creates a new application with all routes configured.
func NewApp(routerCfg *policy.RouterConfig, corsOrigins []string, log *zap.Logger) *App {
	app := &App{
		mux:       http.NewServeMux(),
		routerCfg: routerCfg,
	}
	app.setupRoutes()
	app.handler = middleware.Chain(app.mux,
		middleware.Recover(log, middleware.EnvelopeError),
		middleware.Logging(log),
		middleware.CORS(corsOrigins),
		middleware.Gzip(),
		routerCfg.Tokens.Middleware,
	)
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// protect requires a valid access token and the given permission.
func (a *App) protect(resource string, action gate.Action, h http.HandlerFunc) http.Handler {
	return auth.RequireAuth(a.routerCfg.AuthGate.RequirePermission(resource, action)(h))
}

// authed requires a valid access token only.
func (a *App) authed(h http.HandlerFunc) http.Handler {
	return auth.RequireAuth(h)
}

// handle registers a "METHOD /path" pattern under the API prefix.
func (a *App) handle(pattern string, h http.Handler) {
	method, path, _ := strings.Cut(pattern, " ")
	a.mux.Handle(method+" "+apiPrefix+path, h)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes() {
	cfg := a.routerCfg

	// System
	sh := cfg.SystemHandler
	a.mux.HandleFunc("GET /{$}", sh.Root)
	a.mux.HandleFunc("GET /health", sh.Health)
	a.mux.HandleFunc("GET /health/ready", sh.Ready)

	// Auth
	ah := cfg.AuthHandler
	a.handle("POST /auth/login", http.HandlerFunc(ah.Login))
	a.handle("POST /auth/refresh", http.HandlerFunc(ah.Refresh))
	a.handle("POST /auth/logout", a.authed(ah.Logout))
	a.handle("POST /auth/register", http.HandlerFunc(ah.Register))
	a.handle("POST /auth/password/change", a.authed(ah.ChangePassword))
	a.handle("POST /auth/password/reset-request", http.HandlerFunc(ah.RequestPasswordReset))
	a.handle("GET /auth/me", a.authed(ah.Me))

	// Users. /me is registered before /{id}; the mux prefers the literal.
	uh := cfg.UserHandler
	a.handle("GET /users", a.protect(policy.ResourceUsers, gate.ActionRead, uh.List))
	a.handle("POST /users", a.protect(policy.ResourceUsers, gate.ActionCreate, uh.Create))
	a.handle("GET /users/me", a.authed(uh.Me))
	a.handle("GET /users/{id}", a.protect(policy.ResourceUsers, gate.ActionRead, uh.Get))
	a.handle("PUT /users/{id}", a.authed(uh.Update))
	a.handle("DELETE /users/{id}", a.protect(policy.ResourceUsers, gate.ActionDelete, uh.Delete))

	// Products
	ph := cfg.ProductHandler
	a.handle("GET /products", a.protect(policy.ResourceProducts, gate.ActionRead, ph.List))
	a.handle("POST /products", a.protect(policy.ResourceProducts, gate.ActionCreate, ph.Create))
	a.handle("GET /products/search", a.protect(policy.ResourceProducts, gate.ActionRead, ph.Search))
	a.handle("GET /products/low-stock", a.protect(policy.ResourceProducts, gate.ActionRead, ph.LowStock))
	a.handle("GET /products/categories", a.protect(policy.ResourceProducts, gate.ActionRead, ph.ListCategories))
	a.handle("POST /products/categories", a.protect(policy.ResourceProducts, gate.ActionCreate, ph.CreateCategory))
	a.handle("GET /products/{id}", a.protect(policy.ResourceProducts, gate.ActionRead, ph.Get))
	a.handle("PUT /products/{id}", a.protect(policy.ResourceProducts, gate.ActionUpdate, ph.Update))
	a.handle("DELETE /products/{id}", a.protect(policy.ResourceProducts, gate.ActionDelete, ph.Delete))
	a.handle("GET /products/{id}/barcode.png", a.protect(policy.ResourceProducts, gate.ActionRead, ph.Barcode))
	a.handle("GET /products/{id}/movements", a.protect(policy.ResourceProducts, gate.ActionRead, ph.Movements))

	// POS
	pos := cfg.POSHandler
	a.handle("GET /pos/products", a.protect(policy.ResourceProducts, gate.ActionRead, pos.Products))
	a.handle("POST /pos/checkout", a.protect(policy.ResourceSales, gate.ActionCreate, pos.Checkout))
	a.handle("GET /pos/receipt/{sale_id}", a.protect(policy.ResourceSales, gate.ActionRead, pos.Receipt))
	a.handle("POST /pos/hold", a.protect(policy.ResourceSales, gate.ActionCreate, pos.Hold))
	a.handle("GET /pos/holds", a.protect(policy.ResourceSales, gate.ActionCreate, pos.ListHolds))
	a.handle("POST /pos/holds/{id}/resume", a.protect(policy.ResourceSales, gate.ActionCreate, pos.ResumeHold))
	a.handle("DELETE /pos/holds/{id}", a.protect(policy.ResourceSales, gate.ActionCreate, pos.DeleteHold))

	// Sales
	sales := cfg.SaleHandler
	a.handle("GET /sales", a.protect(policy.ResourceSales, gate.ActionRead, sales.List))
	a.handle("POST /sales", a.protect(policy.ResourceSales, gate.ActionCreate, sales.Create))
	a.handle("GET /sales/{id}", a.protect(policy.ResourceSales, gate.ActionRead, sales.Get))
	a.handle("GET /sales/{id}/receipt", a.protect(policy.ResourceSales, gate.ActionRead, sales.Receipt))
	a.handle("POST /sales/{id}/refund", a.protect(policy.ResourceSales, gate.ActionUpdate, sales.Refund))

	// Reports
	rh := cfg.ReportHandler
	a.handle("GET /reports/dashboard", a.protect(policy.ResourceReports, gate.ActionRead, rh.Dashboard))
	a.handle("GET /reports/sales", a.protect(policy.ResourceReports, gate.ActionRead, rh.Sales))
	a.handle("GET /reports/inventory", a.protect(policy.ResourceReports, gate.ActionRead, rh.Inventory))

	// Settings
	st := cfg.SettingsHandler
	a.handle("GET /settings", a.protect(policy.ResourceSettings, gate.ActionRead, st.List))
	a.handle("PUT /settings/{key}", a.protect(policy.ResourceSettings, gate.ActionUpdate, st.Update))

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, http.StatusNotFound, httpx.CodeNotFound, "Route not found", nil)
	})
}

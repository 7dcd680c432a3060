package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/auth"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/config"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/db"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/models"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/policy"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:               "POS",
			Version:            "test",
			Env:                "test",
			EnableRegistration: true,
			StoreName:          "Test Store",
			AdminUsername:      "admin",
			AdminEmail:         "admin@pos.local",
			AdminPassword:      "admin123",
		},
		Redis: config.RedisConfig{HoldTTL: time.Hour},
		CORS:  config.CORSConfig{Origins: []string{"http://localhost:3000"}},
	}
}

// newTestApp boots the full router over an in-memory database with the seeded
// admin account.
func newTestApp(t *testing.T) *App {
	t.Helper()
	conn, err := db.OpenSQLite(db.MemoryDSN(t.Name()), false)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := testConfig()
	if err := db.Seed(conn, cfg.App); err != nil {
		t.Fatalf("seed: %v", err)
	}
	tokens, err := auth.NewTokenManager("e2e-secret", "HS256", 15*time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	rc, err := policy.NewRouterConfig(policy.RouterDeps{DB: conn, Config: cfg, Tokens: tokens, Log: zap.NewNop()})
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	return NewApp(rc, cfg.CORS.Origins, zap.NewNop())
}

func do(t *testing.T, app *App, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func login(t *testing.T, app *App, username, password string) string {
	t.Helper()
	rec, out := do(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": username, "password": password})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: %d %s", username, rec.Code, rec.Body.String())
	}
	return out["access_token"].(string)
}

func TestE2E_SystemRoutes(t *testing.T) {
	app := newTestApp(t)

	rec, out := do(t, app, http.MethodGet, "/", "", nil)
	if rec.Code != http.StatusOK || out["docs"] != "/docs" {
		t.Fatalf("root: %d %v", rec.Code, out)
	}
	rec, out = do(t, app, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK || out["status"] != "healthy" {
		t.Fatalf("health: %d %v", rec.Code, out)
	}
	rec, _ = do(t, app, http.MethodGet, "/health/ready", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ready: %d %s", rec.Code, rec.Body.String())
	}
	rec, _ = do(t, app, http.MethodGet, "/api/v1/nowhere", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown route: %d", rec.Code)
	}
}

func TestE2E_RequiresToken(t *testing.T) {
	app := newTestApp(t)
	rec, out := do(t, app, http.MethodGet, "/api/v1/products", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Errorf("missing WWW-Authenticate header")
	}
	if errBody, _ := out["error"].(map[string]any); errBody["code"] != "UNAUTHORIZED" {
		t.Errorf("body = %v", out)
	}
}

func TestE2E_CheckoutFlow(t *testing.T) {
	app := newTestApp(t)
	admin := login(t, app, "admin", "admin123")

	product := map[string]any{"name": "Espresso Beans", "price": "12.00", "cost": "7.00", "barcode": "590123412345", "stock_quantity": 5}
	rec, created := do(t, app, http.MethodPost, "/api/v1/products", admin, product)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create product: %d %s", rec.Code, rec.Body.String())
	}
	productID := created["id"].(string)

	rec, _ = do(t, app, http.MethodPost, "/api/v1/products", admin, product)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate barcode: %d, want 409", rec.Code)
	}

	rec, _ = do(t, app, http.MethodPost, "/api/v1/users", admin, map[string]any{
		"username": "till1", "email": "till1@pos.local", "password": "password123",
		"first_name": "Till", "last_name": "One", "role": "cashier",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create cashier: %d %s", rec.Code, rec.Body.String())
	}
	cashier := login(t, app, "till1", "password123")

	checkout := func(qty int) (*httptest.ResponseRecorder, map[string]any) {
		return do(t, app, http.MethodPost, "/api/v1/pos/checkout", cashier, map[string]any{
			"items":          []map[string]any{{"product_id": productID, "quantity": qty}},
			"payment_method": "cash",
			"cash_received":  "100",
		})
	}
	rec, sale := checkout(2)
	if rec.Code != http.StatusCreated {
		t.Fatalf("checkout: %d %s", rec.Code, rec.Body.String())
	}
	if sale["total_amount"].(float64) != 24 {
		t.Errorf("total_amount = %v, want 24", sale["total_amount"])
	}

	rec, out := checkout(10)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("oversell: %d, want 400", rec.Code)
	}
	if errBody, _ := out["error"].(map[string]any); errBody["code"] != "INSUFFICIENT_STOCK" {
		t.Errorf("oversell body = %v", out)
	}

	rec, got := do(t, app, http.MethodGet, "/api/v1/products/"+productID, admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get product: %d", rec.Code)
	}
	if got["stock_quantity"].(float64) != 3 {
		t.Errorf("stock_quantity = %v, want 3", got["stock_quantity"])
	}

	// cashiers cannot read reports or refund
	rec, _ = do(t, app, http.MethodGet, "/api/v1/reports/dashboard", cashier, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("cashier dashboard: %d, want 403", rec.Code)
	}
	saleID := sale["sale_id"].(string)
	rec, _ = do(t, app, http.MethodPost, "/api/v1/sales/"+saleID+"/refund", cashier, map[string]any{"reason": "x"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("cashier refund: %d, want 403", rec.Code)
	}

	rec, refund := do(t, app, http.MethodPost, "/api/v1/sales/"+saleID+"/refund", admin, map[string]any{"reason": "damaged"})
	if rec.Code != http.StatusOK {
		t.Fatalf("refund: %d %s", rec.Code, rec.Body.String())
	}
	if refund["status"] != string(models.SaleStatusRefunded) {
		t.Errorf("refund status = %v", refund["status"])
	}
	rec, got = do(t, app, http.MethodGet, "/api/v1/products/"+productID, admin, nil)
	if rec.Code != http.StatusOK || got["stock_quantity"].(float64) != 5 {
		t.Errorf("stock after refund = %v", got["stock_quantity"])
	}
}

func TestE2E_UsersMeBeforeID(t *testing.T) {
	app := newTestApp(t)
	admin := login(t, app, "admin", "admin123")
	rec, out := do(t, app, http.MethodGet, "/api/v1/users/me", admin, nil)
	if rec.Code != http.StatusOK || out["username"] != "admin" {
		t.Fatalf("me: %d %v", rec.Code, out)
	}
}

func TestE2E_CORSPreflight(t *testing.T) {
	app := newTestApp(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/products", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}
}

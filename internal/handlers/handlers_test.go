package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/auth"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/gate"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/httpx"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/cache"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/config"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/db"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/events"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/models"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/search"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/services"
)

// roleGate reads the caller's role from the database. Users may update their
// own account; managers and admins may update anyone.
type roleGate struct{ db *gorm.DB }

func (g roleGate) role(ctx context.Context) models.Role {
	uid, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return ""
	}
	var u models.User
	if err := g.db.First(&u, "id = ?", uid).Error; err != nil {
		return ""
	}
	return u.Role
}

func (g roleGate) Authorize(ctx context.Context, _ gate.Action, resourceType string, resource any) error {
	if resourceType != ResourceAccount {
		return nil
	}
	uid, _ := auth.UserIDFromContext(ctx)
	if u, ok := resource.(*models.User); ok && u.ID == uid {
		return nil
	}
	if g.role(ctx).Rank() >= models.RoleManager.Rank() {
		return nil
	}
	return httpx.Forbidden("")
}

func (g roleGate) HasRole(ctx context.Context, role models.Role) bool {
	r := g.role(ctx)
	return r != "" && r.Rank() >= role.Rank()
}

func (roleGate) InvalidateUser(uuid.UUID) {}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.OpenSQLite(db.MemoryDSN(t.Name()), false)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	return conn
}

func createUser(t *testing.T, conn *gorm.DB, username, password string, role models.Role) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{
		Username:     username,
		Email:        username + "@pos.local",
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     username,
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, conn.Create(u).Error)
	return u
}

func createProduct(t *testing.T, conn *gorm.DB, name, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:          name,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		MinStockLevel: models.DefaultMinStockLevel,
		IsActive:      true,
	}
	require.NoError(t, conn.Create(p).Error)
	return p
}

func jsonRequest(t *testing.T, method, target string, body any, user *models.User) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req = req.WithContext(auth.WithUserID(req.Context(), user.ID))
	}
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env httpx.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Error.Code
}

func stockOf(t *testing.T, conn *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var p models.Product
	require.NoError(t, conn.First(&p, "id = ?", id).Error)
	return p.StockQuantity
}

func newProductHandler(conn *gorm.DB) *ProductHandler {
	return NewProductHandler(conn, roleGate{conn}, search.NewService(conn, nil, zap.NewNop()))
}

func newPOSHandler(conn *gorm.DB) *POSHandler {
	sales := services.NewSaleService(conn, events.Nop{}, zap.NewNop())
	receipts := services.NewReceiptService(conn, "Test Store")
	holds := services.NewHoldService(conn, cache.NewMemoryHoldStore(), time.Hour)
	return NewPOSHandler(conn, sales, receipts, holds, roleGate{conn}, DefaultTaxRate(conn, 0))
}

func newAuthHandler(t *testing.T, conn *gorm.DB, registration bool) *AuthHandler {
	t.Helper()
	tokens, err := auth.NewTokenManager("test-secret", "HS256", 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)
	return NewAuthHandler(conn, tokens, cache.NewMemoryDenylist(), registration, zap.NewNop())
}

func TestProductCreate_DuplicateBarcode(t *testing.T) {
	conn := setupTestDB(t)
	manager := createUser(t, conn, "manager", "password123", models.RoleManager)
	h := newProductHandler(conn)

	body := map[string]any{"name": "Cola", "price": "1.50", "barcode": "4006381333931", "stock_quantity": 5}
	rec := httptest.NewRecorder()
	h.Create(rec, jsonRequest(t, http.MethodPost, "/api/v1/products", body, manager))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody(t, rec)
	assert.Equal(t, "Cola", created["name"])
	assert.EqualValues(t, models.DefaultMinStockLevel, created["min_stock_level"])

	body["name"] = "Cola Zero"
	rec = httptest.NewRecorder()
	h.Create(rec, jsonRequest(t, http.MethodPost, "/api/v1/products", body, manager))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, httpx.CodeConflict, errorCode(t, rec))
}

func TestProductCreate_Validation(t *testing.T) {
	conn := setupTestDB(t)
	manager := createUser(t, conn, "manager", "password123", models.RoleManager)
	h := newProductHandler(conn)

	rec := httptest.NewRecorder()
	h.Create(rec, jsonRequest(t, http.MethodPost, "/api/v1/products", map[string]any{"name": "Free", "price": "0"}, manager))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httpx.CodeValidation, errorCode(t, rec))
}

func TestProductUpdate_RecordsAdjustment(t *testing.T) {
	conn := setupTestDB(t)
	manager := createUser(t, conn, "manager", "password123", models.RoleManager)
	p := createProduct(t, conn, "Chips", "2.00", 4)
	h := newProductHandler(conn)

	req := jsonRequest(t, http.MethodPut, "/api/v1/products/"+p.ID.String(), map[string]any{"stock_quantity": 10}, manager)
	req.SetPathValue("id", p.ID.String())
	rec := httptest.NewRecorder()
	h.Update(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 10, stockOf(t, conn, p.ID))

	var moves []models.StockMovement
	require.NoError(t, conn.Where("product_id = ?", p.ID).Find(&moves).Error)
	require.Len(t, moves, 1)
	assert.Equal(t, 6, moves[0].Quantity)
}

func TestProductBarcode(t *testing.T) {
	conn := setupTestDB(t)
	viewer := createUser(t, conn, "viewer", "password123", models.RoleViewer)
	sku := "SKU-001"
	p := createProduct(t, conn, "Pen", "0.99", 1)
	require.NoError(t, conn.Model(p).Update("sku", sku).Error)
	bare := createProduct(t, conn, "Loose", "0.10", 1)
	h := newProductHandler(conn)

	req := jsonRequest(t, http.MethodGet, "/", nil, viewer)
	req.SetPathValue("id", p.ID.String())
	rec := httptest.NewRecorder()
	h.Barcode(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, img.Bounds().Dx(), 300)

	req = jsonRequest(t, http.MethodGet, "/", nil, viewer)
	req.SetPathValue("id", bare.ID.String())
	rec = httptest.NewRecorder()
	h.Barcode(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductList_HidesCostFromCashier(t *testing.T) {
	conn := setupTestDB(t)
	cashier := createUser(t, conn, "cashier", "password123", models.RoleCashier)
	manager := createUser(t, conn, "manager", "password123", models.RoleManager)
	createProduct(t, conn, "Tea", "3.00", 20)
	h := newProductHandler(conn)

	costOf := func(u *models.User) any {
		rec := httptest.NewRecorder()
		h.List(rec, jsonRequest(t, http.MethodGet, "/api/v1/products", nil, u))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		items := decodeBody(t, rec)["items"].([]any)
		require.Len(t, items, 1)
		return items[0].(map[string]any)["cost"]
	}
	assert.Nil(t, costOf(cashier))
	assert.NotNil(t, costOf(manager))
}

func TestPOSProducts(t *testing.T) {
	conn := setupTestDB(t)
	cashier := createUser(t, conn, "cashier", "password123", models.RoleCashier)
	createProduct(t, conn, "Soda", "2.50", 10)
	createProduct(t, conn, "Sandwich", "6.00", 4)
	off := createProduct(t, conn, "Soup", "4.00", 8)
	require.NoError(t, conn.Model(off).Update("is_active", false).Error)
	h := newPOSHandler(conn)

	rec := httptest.NewRecorder()
	h.Products(rec, jsonRequest(t, http.MethodGet, "/api/v1/pos/products?search=so", nil, cashier))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	items := decodeBody(t, rec)["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "Soda", item["name"])
	assert.InDelta(t, 2.5, item["price"], 0.001)
	assert.EqualValues(t, 10, item["stock_quantity"])
}

func TestCheckout_DecrementsStock(t *testing.T) {
	conn := setupTestDB(t)
	cashier := createUser(t, conn, "cashier", "password123", models.RoleCashier)
	p := createProduct(t, conn, "Soda", "2.50", 10)
	h := newPOSHandler(conn)

	body := map[string]any{
		"items":          []map[string]any{{"product_id": p.ID, "quantity": 3}},
		"payment_method": "cash",
		"cash_received":  "10.00",
	}
	rec := httptest.NewRecorder()
	h.Checkout(rec, jsonRequest(t, http.MethodPost, "/api/v1/pos/checkout", body, cashier))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	out := decodeBody(t, rec)
	assert.InDelta(t, 7.5, out["total_amount"], 0.001)
	assert.InDelta(t, 2.5, out["change_amount"], 0.001)
	assert.EqualValues(t, 3, out["items_count"])
	assert.True(t, strings.HasPrefix(out["receipt_url"].(string), "/api/v1/pos/receipt/"))
	assert.Equal(t, 7, stockOf(t, conn, p.ID))
}

func TestCheckout_InsufficientStock(t *testing.T) {
	conn := setupTestDB(t)
	cashier := createUser(t, conn, "cashier", "password123", models.RoleCashier)
	p := createProduct(t, conn, "Soda", "2.50", 2)
	h := newPOSHandler(conn)

	body := map[string]any{
		"items":          []map[string]any{{"product_id": p.ID, "quantity": 5}},
		"payment_method": "card",
	}
	rec := httptest.NewRecorder()
	h.Checkout(rec, jsonRequest(t, http.MethodPost, "/api/v1/pos/checkout", body, cashier))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httpx.CodeInsufficientStock, errorCode(t, rec))
	assert.Equal(t, 2, stockOf(t, conn, p.ID))

	var n int64
	conn.Model(&models.Sale{}).Count(&n)
	assert.Zero(t, n)
}

func TestReceipt_CashierCannotSeeOthersSales(t *testing.T) {
	conn := setupTestDB(t)
	alice := createUser(t, conn, "alice", "password123", models.RoleCashier)
	bob := createUser(t, conn, "bob", "password123", models.RoleCashier)
	p := createProduct(t, conn, "Gum", "1.00", 10)
	h := newPOSHandler(conn)

	body := map[string]any{
		"items":          []map[string]any{{"product_id": p.ID, "quantity": 1}},
		"payment_method": "card",
	}
	rec := httptest.NewRecorder()
	h.Checkout(rec, jsonRequest(t, http.MethodPost, "/api/v1/pos/checkout", body, alice))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	saleID := decodeBody(t, rec)["sale_id"].(string)

	for _, tc := range []struct {
		user *models.User
		want int
	}{{alice, http.StatusOK}, {bob, http.StatusForbidden}} {
		req := jsonRequest(t, http.MethodGet, "/", nil, tc.user)
		req.SetPathValue("sale_id", saleID)
		rec := httptest.NewRecorder()
		h.Receipt(rec, req)
		assert.Equal(t, tc.want, rec.Code, tc.user.Username)
	}
}

func TestHolds(t *testing.T) {
	conn := setupTestDB(t)
	cashier := createUser(t, conn, "cashier", "password123", models.RoleCashier)
	p := createProduct(t, conn, "Bread", "1.20", 5)
	h := newPOSHandler(conn)

	body := map[string]any{
		"items":         []map[string]any{{"product_id": p.ID, "quantity": 2}},
		"customer_name": "Walk-in",
	}
	rec := httptest.NewRecorder()
	h.Hold(rec, jsonRequest(t, http.MethodPost, "/api/v1/pos/hold", body, cashier))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	holdID := decodeBody(t, rec)["hold_id"].(string)

	rec = httptest.NewRecorder()
	h.ListHolds(rec, jsonRequest(t, http.MethodGet, "/api/v1/pos/holds", nil, cashier))
	require.Equal(t, http.StatusOK, rec.Code)
	var carts []cache.HeldCart
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &carts))
	require.Len(t, carts, 1)

	req := jsonRequest(t, http.MethodPost, "/", nil, cashier)
	req.SetPathValue("id", holdID)
	rec = httptest.NewRecorder()
	h.ResumeHold(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req = jsonRequest(t, http.MethodPost, "/", nil, cashier)
	req.SetPathValue("id", holdID)
	rec = httptest.NewRecorder()
	h.ResumeHold(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// holding does not reserve stock
	assert.Equal(t, 5, stockOf(t, conn, p.ID))
}

func TestLoginAndRefresh(t *testing.T) {
	conn := setupTestDB(t)
	createUser(t, conn, "cashier", "password123", models.RoleCashier)
	h := newAuthHandler(t, conn, true)

	form := url.Values{"username": {"cashier"}, "password": {"password123"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tokens tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tokens))
	assert.Equal(t, "bearer", tokens.TokenType)
	assert.Equal(t, 900, tokens.ExpiresIn)
	require.NotEmpty(t, tokens.RefreshToken)

	refresh := map[string]string{"refresh_token": tokens.RefreshToken}
	rec = httptest.NewRecorder()
	h.Refresh(rec, jsonRequest(t, http.MethodPost, "/api/v1/auth/refresh", refresh, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// the rotated token is revoked
	rec = httptest.NewRecorder()
	h.Refresh(rec, jsonRequest(t, http.MethodPost, "/api/v1/auth/refresh", refresh, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_Failures(t *testing.T) {
	conn := setupTestDB(t)
	u := createUser(t, conn, "cashier", "password123", models.RoleCashier)
	require.NoError(t, conn.Model(u).Update("is_active", false).Error)
	h := newAuthHandler(t, conn, true)

	tests := []struct {
		name     string
		password string
		wantMsg  string
	}{
		{"wrong password", "nope", "Invalid username or password"},
		{"inactive", "password123", "Account is deactivated"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.Login(rec, jsonRequest(t, http.MethodPost, "/api/v1/auth/login",
			map[string]string{"username": "cashier", "password": tt.password}, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tt.name)
		assert.Contains(t, rec.Body.String(), tt.wantMsg, tt.name)
	}
}

func TestRegister(t *testing.T) {
	conn := setupTestDB(t)
	body := map[string]string{
		"username": "newbie", "email": "newbie@pos.local", "password": "password123",
		"first_name": "New", "last_name": "Bie",
	}

	rec := httptest.NewRecorder()
	newAuthHandler(t, conn, false).Register(rec, jsonRequest(t, http.MethodPost, "/api/v1/auth/register", body, nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	h := newAuthHandler(t, conn, true)
	rec = httptest.NewRecorder()
	h.Register(rec, jsonRequest(t, http.MethodPost, "/api/v1/auth/register", body, nil))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, string(models.RoleCashier), decodeBody(t, rec)["role"])

	rec = httptest.NewRecorder()
	h.Register(rec, jsonRequest(t, http.MethodPost, "/api/v1/auth/register", body, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Username already registered")
}

func TestUserUpdate_Permissions(t *testing.T) {
	conn := setupTestDB(t)
	alice := createUser(t, conn, "alice", "password123", models.RoleCashier)
	bob := createUser(t, conn, "bob", "password123", models.RoleCashier)
	manager := createUser(t, conn, "manager", "password123", models.RoleManager)
	h := NewUserHandler(conn, roleGate{conn})

	update := func(actor, target *models.User, body map[string]any) *httptest.ResponseRecorder {
		req := jsonRequest(t, http.MethodPut, "/", body, actor)
		req.SetPathValue("id", target.ID.String())
		rec := httptest.NewRecorder()
		h.Update(rec, req)
		return rec
	}

	rec := update(alice, bob, map[string]any{"first_name": "Robert"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = update(alice, alice, map[string]any{"first_name": "Alicia"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = update(manager, bob, map[string]any{"role": "manager"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Only administrators can change roles")

	rec = update(manager, bob, map[string]any{"is_active": false})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestUserDelete_Self(t *testing.T) {
	conn := setupTestDB(t)
	admin := createUser(t, conn, "admin", "password123", models.RoleAdmin)
	h := NewUserHandler(conn, roleGate{conn})

	req := jsonRequest(t, http.MethodDelete, "/", nil, admin)
	req.SetPathValue("id", admin.ID.String())
	rec := httptest.NewRecorder()
	h.Delete(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReports(t *testing.T) {
	conn := setupTestDB(t)
	cashier := createUser(t, conn, "cashier", "password123", models.RoleCashier)
	p := createProduct(t, conn, "Juice", "4.00", 3)
	pos := newPOSHandler(conn)

	body := map[string]any{
		"items":          []map[string]any{{"product_id": p.ID, "quantity": 2}},
		"payment_method": "card",
	}
	rec := httptest.NewRecorder()
	pos.Checkout(rec, jsonRequest(t, http.MethodPost, "/api/v1/pos/checkout", body, cashier))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	reports, err := services.NewReportService(conn)
	require.NoError(t, err)
	h := NewReportHandler(reports)

	rec = httptest.NewRecorder()
	h.Dashboard(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/dashboard", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dash := decodeBody(t, rec)
	assert.Equal(t, "today", dash["period"])
	sales := dash["sales"].(map[string]any)
	assert.EqualValues(t, 1, sales["count"])
	assert.InDelta(t, 8.0, sales["total"], 0.001)

	rec = httptest.NewRecorder()
	h.Dashboard(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/dashboard?period=decade", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.Sales(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/sales?group_by=hour", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.Sales(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/sales?start_date=2025-02-01&end_date=2025-01-01", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.Inventory(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/inventory", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestSettings(t *testing.T) {
	conn := setupTestDB(t)
	admin := createUser(t, conn, "admin", "password123", models.RoleAdmin)
	h := NewSettingsHandler(conn)

	put := func(value string) *httptest.ResponseRecorder {
		req := jsonRequest(t, http.MethodPut, "/", map[string]any{"value": value}, admin)
		req.SetPathValue("key", models.SettingDefaultTaxRate)
		rec := httptest.NewRecorder()
		h.Update(rec, req)
		return rec
	}
	assert.Equal(t, http.StatusBadRequest, put("150").Code)
	require.Equal(t, http.StatusOK, put("8.5").Code)

	rate := DefaultTaxRate(conn, 0)(context.Background())
	assert.True(t, rate.Equal(decimal.RequireFromString("8.5")), rate.String())
}

func TestSystem(t *testing.T) {
	conn := setupTestDB(t)
	h := NewSystemHandler(conn, config.AppConfig{Name: "POS", Version: "test"}, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeBody(t, rec)["status"])

	rec = httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "not_configured", decodeBody(t, rec)["redis"])
}

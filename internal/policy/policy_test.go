package policy_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/auth"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/gate"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/db"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/models"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/policy"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.OpenSQLite(db.MemoryDSN(t.Name()), false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func createUser(t *testing.T, conn *gorm.DB, name string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{Username: name, Email: name + "@example.com", PasswordHash: "x", Role: role, IsActive: true}
	if err := conn.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestPermissionMatrix(t *testing.T) {
	tests := []struct {
		role     models.Role
		resource string
		action   gate.Action
		want     bool
	}{
		{models.RoleAdmin, policy.ResourceUsers, gate.ActionDelete, true},
		{models.RoleAdmin, policy.ResourceSettings, gate.ActionUpdate, true},
		{models.RoleManager, policy.ResourceUsers, gate.ActionCreate, false},
		{models.RoleManager, policy.ResourceUsers, gate.ActionUpdate, true},
		{models.RoleManager, policy.ResourceProducts, gate.ActionDelete, false},
		{models.RoleManager, policy.ResourceReports, gate.ActionRead, true},
		{models.RoleManager, policy.ResourceSettings, gate.ActionUpdate, false},
		{models.RoleCashier, policy.ResourceSales, gate.ActionCreate, true},
		{models.RoleCashier, policy.ResourceSales, gate.ActionUpdate, false},
		{models.RoleCashier, policy.ResourceProducts, gate.ActionCreate, false},
		{models.RoleCashier, policy.ResourceReports, gate.ActionRead, false},
		{models.RoleViewer, policy.ResourceProducts, gate.ActionRead, true},
		{models.RoleViewer, policy.ResourceSales, gate.ActionRead, false},
		{models.RoleViewer, policy.ResourceUsers, gate.ActionRead, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+tt.resource+":"+string(tt.action), func(t *testing.T) {
			p := policy.ProfileFor(tt.role)
			if p == nil {
				t.Fatal("missing profile")
			}
			if got := p.HasPermission(gate.NewPermission(tt.resource, tt.action)); got != tt.want {
				t.Errorf("HasPermission() = %v, want %v", got, tt.want)
			}
		})
	}
	if policy.ProfileFor(models.Role("owner")) != nil {
		t.Error("unknown role should have no profile")
	}
}

func TestDBRoleResolver(t *testing.T) {
	conn := setupDB(t)
	u := createUser(t, conn, "cashier", models.RoleCashier)
	r := policy.NewDBRoleResolver(conn)
	ctx := context.Background()

	p, err := r.Resolve(ctx, u.ID)
	if err != nil || p == nil || p.Name() != "cashier" {
		t.Fatalf("Resolve() = %v, %v", p, err)
	}
	if p, err := r.Resolve(ctx, uuid.New()); err != nil || p != nil {
		t.Fatalf("missing user should resolve to nil, got %v %v", p, err)
	}
	conn.Model(u).Update("is_active", false)
	if p, _ := r.Resolve(ctx, u.ID); p != nil {
		t.Fatal("inactive user should resolve to nil")
	}
}

func TestAccountPolicy(t *testing.T) {
	conn := setupDB(t)
	ag := policy.NewAuthGate(conn, time.Minute)
	cashier := createUser(t, conn, "cashier", models.RoleCashier)
	other := createUser(t, conn, "other", models.RoleCashier)
	manager := createUser(t, conn, "manager", models.RoleManager)

	ctx := auth.WithUserID(context.Background(), cashier.ID)
	if err := ag.Authorize(ctx, gate.ActionUpdate, policy.ResourceAccount, cashier); err != nil {
		t.Errorf("self update denied: %v", err)
	}
	if ag.Can(ctx, gate.ActionUpdate, policy.ResourceAccount, other) {
		t.Error("cashier should not update another user")
	}
	ctx = auth.WithUserID(context.Background(), manager.ID)
	if !ag.Can(ctx, gate.ActionUpdate, policy.ResourceAccount, other) {
		t.Error("manager should update another user")
	}
}

func TestAuthGate_RequirePermission(t *testing.T) {
	conn := setupDB(t)
	ag := policy.NewAuthGate(conn, time.Minute)
	cashier := createUser(t, conn, "cashier", models.RoleCashier)
	manager := createUser(t, conn, "manager", models.RoleManager)

	h := ag.RequirePermission(policy.ResourceProducts, gate.ActionCreate)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name string
		uid  uuid.UUID
		want int
	}{
		{"anonymous", uuid.Nil, http.StatusUnauthorized},
		{"cashier", cashier.ID, http.StatusForbidden},
		{"manager", manager.ID, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/products", nil)
			if tt.uid != uuid.Nil {
				req = req.WithContext(auth.WithUserID(req.Context(), tt.uid))
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestAuthGate_RequireRoleAndInvalidate(t *testing.T) {
	conn := setupDB(t)
	ag := policy.NewAuthGate(conn, time.Hour)
	u := createUser(t, conn, "u", models.RoleCashier)
	ctx := auth.WithUserID(context.Background(), u.ID)

	if ag.HasRole(ctx, models.RoleManager) {
		t.Fatal("cashier should not be manager")
	}
	conn.Model(u).Update("role", models.RoleManager)
	if ag.HasRole(ctx, models.RoleManager) {
		t.Fatal("cached role should still be cashier")
	}
	ag.InvalidateUser(u.ID)
	if !ag.HasRole(ctx, models.RoleManager) {
		t.Fatal("role should be refreshed after invalidation")
	}

	h := ag.RequireRole(models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rr.Code)
	}
}

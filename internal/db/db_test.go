package db

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/auth"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/config"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := OpenSQLite(MemoryDSN(t.Name()), false)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func TestNormalizeDSN(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"empty", "", ""},
		{"quoted url", `"postgres://u:p@h:5432/db"`, "postgres://u:p@h:5432/db"},
		{"kv adds sslmode", "host=h  user=u dbname=d", "host=h user=u dbname=d sslmode=disable"},
		{"kv keeps sslmode", "host=h user=u dbname=d sslmode=require", "host=h user=u dbname=d sslmode=require"},
		{"garbage", "not-a-dsn", "not-a-dsn"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDSN(tt.in); got != tt.want {
				t.Errorf("NormalizeDSN(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestToURLDSN(t *testing.T) {
	got := ToURLDSN("host=db port=5432 user=pos password=secret dbname=pos sslmode=disable")
	want := "postgres://pos:secret@db:5432/pos?sslmode=disable"
	if got != want {
		t.Errorf("ToURLDSN() = %q, want %q", got, want)
	}
	if got := ToURLDSN("host=db"); got != "host=db" {
		t.Errorf("incomplete dsn should be unchanged, got %q", got)
	}
}

func TestMaskDSN(t *testing.T) {
	if got := MaskDSN("host=h password=secret dbname=d"); got != "host=h password=*** dbname=d" {
		t.Errorf("MaskDSN(kv) = %q", got)
	}
	if got := MaskDSN("postgres://u:secret@h:5432/db"); got != "postgres://u:***@h:5432/db" {
		t.Errorf("MaskDSN(url) = %q", got)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm duplicated", gorm.ErrDuplicatedKey, true},
		{"pg 23505", &pgconn.PgError{Code: "23505"}, true},
		{"pg other", &pgconn.PgError{Code: "23503"}, false},
		{"sqlite", errors.New("UNIQUE constraint failed: products.barcode"), true},
		{"other", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUniqueViolation(tt.err); got != tt.want {
				t.Errorf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUniqueBarcodeEnforced(t *testing.T) {
	conn := setupTestDB(t)
	code := "123"
	if err := conn.Create(&models.Product{Name: "A", Barcode: &code, IsActive: true}).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	err := conn.Create(&models.Product{Name: "B", Barcode: &code, IsActive: true}).Error
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
	// NULL barcodes do not collide
	if err := conn.Create(&models.Product{Name: "C"}).Error; err != nil {
		t.Fatalf("create C: %v", err)
	}
	if err := conn.Create(&models.Product{Name: "D"}).Error; err != nil {
		t.Fatalf("create D: %v", err)
	}
}

func TestSeed_Idempotent(t *testing.T) {
	auth.BcryptCost = 4
	conn := setupTestDB(t)
	app := config.AppConfig{AdminUsername: "admin", AdminEmail: "admin@pos.local", AdminPassword: "admin123", StoreName: "Shop"}
	for i := 0; i < 2; i++ {
		if err := Seed(conn, app); err != nil {
			t.Fatalf("seed #%d: %v", i+1, err)
		}
	}
	var users, settings int64
	conn.Model(&models.User{}).Count(&users)
	conn.Model(&models.Setting{}).Count(&settings)
	if users != 1 {
		t.Errorf("users = %d, want 1", users)
	}
	if settings != 4 {
		t.Errorf("settings = %d, want 4", settings)
	}
	var admin models.User
	if err := conn.Where("username = ?", "admin").First(&admin).Error; err != nil {
		t.Fatalf("admin: %v", err)
	}
	if admin.Role != models.RoleAdmin || !admin.IsActive {
		t.Errorf("unexpected admin %+v", admin)
	}
	if !auth.CheckPassword(admin.PasswordHash, "admin123") {
		t.Error("admin password mismatch")
	}
}

package validation

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidators(t *testing.T) {
	v := Violations{}
	Required("name", "  ", v)
	Length("username", "ab", 3, 50, v)
	Email("email", "not-an-email", v)
	PositiveDecimal("price", decimal.Zero, v)
	NonNegativeDecimal("cost", decimal.NewFromInt(-1), v)
	RangeDecimal("tax_rate", decimal.NewFromInt(120), 0, 100, v)
	MinInt("quantity", 0, 1, v)
	OneOf("role", "owner", []string{"admin", "cashier"}, v)

	want := map[string]string{
		"name":     "required",
		"username": "too_short",
		"email":    "invalid_email",
		"price":    "must_be_positive",
		"cost":     "must_not_be_negative",
		"tax_rate": "out_of_range",
		"quantity": "out_of_range",
		"role":     "invalid_choice",
	}
	for field, reason := range want {
		if v[field] != reason {
			t.Errorf("%s: got %q want %q", field, v[field], reason)
		}
	}
}

func TestValidators_Valid(t *testing.T) {
	v := Violations{}
	Required("name", "Coffee", v)
	Length("username", "cashier1", 3, 50, v)
	Email("email", "cashier@example.com", v)
	PositiveDecimal("price", decimal.RequireFromString("2.50"), v)
	RangeDecimal("tax_rate", decimal.NewFromInt(8), 0, 100, v)
	OneOf("role", "cashier", []string{"admin", "cashier"}, v)
	if !v.Empty() {
		t.Fatalf("expected no violations, got %v", v)
	}
}

func TestAdd_KeepsFirst(t *testing.T) {
	v := Violations{}
	Required("username", "", v)
	Length("username", "", 3, 50, v)
	if v["username"] != "required" {
		t.Fatalf("expected first violation to win, got %q", v["username"])
	}
}

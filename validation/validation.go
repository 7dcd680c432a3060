package validation

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Violations maps a field name to a short machine-readable reason.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Add records a violation unless the field already has one.
func (v Violations) Add(field, reason string) {
	if _, ok := v[field]; !ok {
		v[field] = reason
	}
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "required")
	}
}

func Length(field, value string, minLen, maxLen int, v Violations) {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	if n < minLen {
		v.Add(field, "too_short")
	} else if maxLen > 0 && n > maxLen {
		v.Add(field, "too_long")
	}
}

func Email(field, value string, v Violations) {
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		v.Add(field, "invalid_email")
	}
}

func PositiveDecimal(field string, val decimal.Decimal, v Violations) {
	if !val.IsPositive() {
		v.Add(field, "must_be_positive")
	}
}

func NonNegativeDecimal(field string, val decimal.Decimal, v Violations) {
	if val.IsNegative() {
		v.Add(field, "must_not_be_negative")
	}
}

func RangeDecimal(field string, val decimal.Decimal, minVal, maxVal float64, v Violations) {
	if val.LessThan(decimal.NewFromFloat(minVal)) || val.GreaterThan(decimal.NewFromFloat(maxVal)) {
		v.Add(field, "out_of_range")
	}
}

func MinInt(field string, val, minVal int, v Violations) {
	if val < minVal {
		v.Add(field, "out_of_range")
	}
}

func OneOf(field, value string, allowed []string, v Violations) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.Add(field, "invalid_choice")
}

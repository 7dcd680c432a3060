package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/auth"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/httpx"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/models"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/validation"
)

// SettingsHandler exposes the store key/value settings.
type SettingsHandler struct {
	db *gorm.DB
}

func NewSettingsHandler(conn *gorm.DB) *SettingsHandler {
	return &SettingsHandler{db: conn}
}

func (h *SettingsHandler) List(w http.ResponseWriter, r *http.Request) {
	var settings []models.Setting
	if err := h.db.WithContext(r.Context()).Order("key").Find(&settings).Error; err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if settings == nil {
		settings = []models.Setting{}
	}
	httpx.JSON(w, http.StatusOK, settings)
}

type settingRequest struct {
	Value       string  `json:"value"`
	Description *string `json:"description"`
}

// Update creates or replaces the setting named by the path.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.PathValue("key"))
	var req settingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	v := validation.Violations{}
	validation.Length("key", key, 1, 100, v)
	if key == models.SettingDefaultTaxRate {
		rate, err := decimal.NewFromString(req.Value)
		if err != nil {
			v.Add("value", "must be a number")
		} else {
			validation.RangeDecimal("value", rate, 0, 100, v)
		}
	}
	if !v.Empty() {
		httpx.WriteError(w, r, httpx.Validation("Invalid setting", v))
		return
	}

	uid, _ := auth.UserIDFromContext(r.Context())
	var s models.Setting
	err := h.db.WithContext(r.Context()).Where(&models.Setting{Key: key}).First(&s).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		httpx.WriteError(w, r, err)
		return
	}
	s.Key = key
	s.Value = req.Value
	if req.Description != nil {
		s.Description = *req.Description
	}
	s.UpdatedBy = &uid
	if err := h.db.WithContext(r.Context()).Save(&s).Error; err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}

// DefaultTaxRate reads the default_tax_rate setting, falling back to the
// configured rate.
func DefaultTaxRate(conn *gorm.DB, fallback float64) TaxRateFunc {
	def := decimal.NewFromFloat(fallback)
	return func(ctx context.Context) decimal.Decimal {
		var s models.Setting
		if err := conn.WithContext(ctx).Where(&models.Setting{Key: models.SettingDefaultTaxRate}).First(&s).Error; err != nil {
			return def
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(s.Value))
		if err != nil {
			return def
		}
		return rate
	}
}

package db

import (
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/auth"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/config"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/models"
)

// Seed creates the bootstrap admin, a default category and the store
// settings. It is idempotent and should be called after Migrate.
func Seed(conn *gorm.DB, app config.AppConfig) error {
	if err := seedAdmin(conn, app); err != nil {
		return err
	}
	if err := seedCategories(conn); err != nil {
		return err
	}
	return seedSettings(conn, app)
}

func seedAdmin(conn *gorm.DB, app config.AppConfig) error {
	var count int64
	if err := conn.Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}
	hash, err := auth.HashPassword(app.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := models.User{
		Username:     app.AdminUsername,
		Email:        app.AdminEmail,
		PasswordHash: hash,
		FirstName:    "System",
		LastName:     "Administrator",
		Role:         models.RoleAdmin,
		IsActive:     true,
		IsVerified:   true,
	}
	if err := conn.Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

func seedCategories(conn *gorm.DB) error {
	for _, c := range []models.Category{
		{Name: "General", Description: "Uncategorised products", IsActive: true},
	} {
		var existing models.Category
		err := conn.Where(&models.Category{Name: c.Name}).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := conn.Create(&c).Error; err != nil {
				return fmt.Errorf("create category %s: %w", c.Name, err)
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func seedSettings(conn *gorm.DB, app config.AppConfig) error {
	defaults := []models.Setting{
		{Key: models.SettingStoreName, Value: app.StoreName, Description: "Store name printed on receipts"},
		{Key: models.SettingStoreAddress, Value: "", Description: "Store address printed on receipts"},
		{Key: models.SettingDefaultTaxRate, Value: strconv.FormatFloat(app.DefaultTaxRate, 'f', 2, 64), Description: "Tax rate (%) applied when checkout omits one"},
		{Key: models.SettingReceiptFooter, Value: "Thank you for your purchase!", Description: "Receipt footer"},
	}
	for _, s := range defaults {
		var existing models.Setting
		err := conn.Where(&models.Setting{Key: s.Key}).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := conn.Create(&s).Error; err != nil {
				return fmt.Errorf("create setting %s: %w", s.Key, err)
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

package models

import "github.com/google/uuid"

// Setting is a key/value store setting (store name, default tax rate, ...).
type Setting struct {
	Base
	Key         string     `gorm:"uniqueIndex;size:100;not null" json:"key"`
	Value       string     `gorm:"type:text" json:"value"`
	Description string     `gorm:"size:255" json:"description"`
	UpdatedBy   *uuid.UUID `gorm:"type:uuid" json:"updated_by"`
}

// Setting keys read by the application.
const (
	SettingStoreName      = "store_name"
	SettingStoreAddress   = "store_address"
	SettingDefaultTaxRate = "default_tax_rate"
	SettingReceiptFooter  = "receipt_footer"
)

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Base carries the UUID primary key and timestamps shared by every table.
type Base struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (b *Base) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Money rounds to cents and converts for JSON responses.
func Money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// All returns every model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&User{}, &Category{}, &Product{}, &Sale{}, &SaleItem{}, &Payment{}, &StockMovement{}, &Setting{},
	}
}

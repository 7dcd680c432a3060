package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultMinStockLevel applies when a product is created without one.
const DefaultMinStockLevel = 10

// Category groups products.
type Category struct {
	Base
	Name        string `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	IsActive    bool   `gorm:"not null" json:"is_active"`
}

// Product is a sellable item with its stock level.
type Product struct {
	Base
	Name          string          `gorm:"size:200;not null;index"`
	Barcode       *string         `gorm:"size:50;uniqueIndex"`
	SKU           *string         `gorm:"column:sku;size:50;uniqueIndex"`
	Description   string          `gorm:"type:text"`
	Price         decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Cost          decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	StockQuantity int             `gorm:"not null"`
	MinStockLevel int             `gorm:"not null"`
	MaxStockLevel *int
	CategoryID    *uuid.UUID `gorm:"type:uuid;index"`
	Category      *Category  `gorm:"foreignKey:CategoryID"`
	ImageURL      *string    `gorm:"size:500"`
	IsActive      bool       `gorm:"not null;index"`
}

// IsLowStock is true when stock is at or below the minimum level.
func (p *Product) IsLowStock() bool { return p.StockQuantity <= p.MinStockLevel }

// ProfitMargin returns (price-cost)/cost*100, or zero when cost is not set.
func (p *Product) ProfitMargin() decimal.Decimal {
	if !p.Cost.IsPositive() {
		return decimal.Zero
	}
	return p.Price.Sub(p.Cost).Div(p.Cost).Mul(decimal.NewFromInt(100)).Round(2)
}

// TotalValue is price * stock.
func (p *Product) TotalValue() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.StockQuantity)))
}

// ProductResponse is the public representation of a product. Cost and
// ProfitMargin are only filled for managers.
type ProductResponse struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Barcode       *string    `json:"barcode"`
	SKU           *string    `json:"sku"`
	Description   string     `json:"description"`
	Price         float64    `json:"price"`
	Cost          *float64   `json:"cost,omitempty"`
	ProfitMargin  *float64   `json:"profit_margin,omitempty"`
	StockQuantity int        `json:"stock_quantity"`
	MinStockLevel int        `json:"min_stock_level"`
	MaxStockLevel *int       `json:"max_stock_level"`
	IsLowStock    bool       `json:"is_low_stock"`
	TotalValue    float64    `json:"total_value"`
	CategoryID    *uuid.UUID `json:"category_id"`
	CategoryName  string     `json:"category_name,omitempty"`
	ImageURL      *string    `json:"image_url"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (p *Product) Response(includeCost bool) ProductResponse {
	out := ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		Barcode:       p.Barcode,
		SKU:           p.SKU,
		Description:   p.Description,
		Price:         Money(p.Price),
		StockQuantity: p.StockQuantity,
		MinStockLevel: p.MinStockLevel,
		MaxStockLevel: p.MaxStockLevel,
		IsLowStock:    p.IsLowStock(),
		TotalValue:    Money(p.TotalValue()),
		CategoryID:    p.CategoryID,
		ImageURL:      p.ImageURL,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.Category != nil {
		out.CategoryName = p.Category.Name
	}
	if includeCost {
		cost := Money(p.Cost)
		margin := p.ProfitMargin().InexactFloat64()
		out.Cost = &cost
		out.ProfitMargin = &margin
	}
	return out
}

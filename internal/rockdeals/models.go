// Package rockdeals is the RockDeals storefront backend: a small open API over
// SQLite with integer ids and {"error": "..."} failure bodies.
package rockdeals

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment methods accepted on a sale.
const (
	PaymentCash       = "cash"
	PaymentCreditCard = "credit_card"
	PaymentDebitCard  = "debit_card"
	PaymentDigital    = "digital"
)

// PaymentMethods lists the accepted payment methods.
var PaymentMethods = []string{PaymentCash, PaymentCreditCard, PaymentDebitCard, PaymentDigital}

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusRefunded  = "refunded"
	StatusFailed    = "failed"
)

// Stock movement and ledger vocabularies.
const (
	MovementIn         = "in"
	MovementOut        = "out"
	MovementAdjustment = "adjustment"

	ReferenceSale       = "sale"
	ReferencePurchase   = "purchase"
	ReferenceAdjustment = "adjustment"
	ReferenceReturn     = "return"

	TransactionSale       = "sale"
	TransactionRefund     = "refund"
	TransactionAdjustment = "adjustment"
)

// Invoice statuses.
const (
	InvoiceDraft     = "draft"
	InvoiceSent      = "sent"
	InvoicePaid      = "paid"
	InvoiceOverdue   = "overdue"
	InvoiceCancelled = "cancelled"
)

// DefaultMinStock applies when a product is created without a minimum.
const DefaultMinStock = 5

// DefaultUserID attributes sales and stock changes when no user is given.
const DefaultUserID uint = 1

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	FirstName    string    `gorm:"size:50;not null" json:"first_name"`
	LastName     string    `gorm:"size:50;not null" json:"last_name"`
	Role         string    `gorm:"size:20;not null" json:"role"`
	AvatarURL    *string   `gorm:"size:255" json:"avatar_url"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"-"`
}

func (u *User) FullName() string { return u.FirstName + " " + u.LastName }

type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string    `json:"description"`
	Icon        *string   `gorm:"size:50" json:"icon"`
	IsActive    bool      `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

type Supplier struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	ContactInfo string    `gorm:"size:255" json:"contact_info"`
	Address     string    `json:"address"`
	Phone       string    `gorm:"size:20" json:"phone"`
	Email       string    `gorm:"size:100" json:"email"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"-"`
}

type Product struct {
	ID            uint            `gorm:"primaryKey"`
	Name          string          `gorm:"size:200;not null"`
	Description   string          `gorm:"type:text"`
	SKU           string          `gorm:"column:sku;size:100;uniqueIndex;not null"`
	Barcode       *string         `gorm:"size:100;uniqueIndex"`
	CategoryID    *uint           `gorm:"index"`
	Category      *Category       `gorm:"foreignKey:CategoryID"`
	SupplierID    *uint           `gorm:"index"`
	Supplier      *Supplier       `gorm:"foreignKey:SupplierID"`
	Price         decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	CostPrice     decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	StockQuantity int             `gorm:"not null"`
	MinStockLevel int             `gorm:"not null"`
	ImageURL      *string         `gorm:"size:255"`
	IsActive      bool            `gorm:"not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (p *Product) IsLowStock() bool { return p.StockQuantity <= p.MinStockLevel }

type ProductResponse struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	SKU           string    `json:"sku"`
	Barcode       *string   `json:"barcode"`
	CategoryID    *uint     `json:"category_id"`
	SupplierID    *uint     `json:"supplier_id"`
	CategoryName  *string   `json:"category_name"`
	SupplierName  *string   `json:"supplier_name"`
	Price         float64   `json:"price"`
	CostPrice     float64   `json:"cost_price"`
	StockQuantity int       `json:"stock_quantity"`
	MinStockLevel int       `json:"min_stock_level"`
	IsLowStock    bool      `json:"is_low_stock"`
	ImageURL      *string   `json:"image_url"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// Response expects Category and Supplier to be preloaded when set.
func (p *Product) Response() ProductResponse {
	out := ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		SKU:           p.SKU,
		Barcode:       p.Barcode,
		CategoryID:    p.CategoryID,
		SupplierID:    p.SupplierID,
		Price:         money(p.Price),
		CostPrice:     money(p.CostPrice),
		StockQuantity: p.StockQuantity,
		MinStockLevel: p.MinStockLevel,
		IsLowStock:    p.IsLowStock(),
		ImageURL:      p.ImageURL,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
	}
	if p.Category != nil {
		out.CategoryName = &p.Category.Name
	}
	if p.Supplier != nil {
		out.SupplierName = &p.Supplier.Name
	}
	return out
}

type Customer struct {
	ID               uint            `gorm:"primaryKey"`
	FirstName        string          `gorm:"size:50;not null"`
	LastName         string          `gorm:"size:50;not null"`
	Email            *string         `gorm:"size:100;uniqueIndex"`
	Phone            string          `gorm:"size:20"`
	Address          string          `gorm:"type:text"`
	City             string          `gorm:"size:50"`
	Country          string          `gorm:"size:50"`
	LoyaltyPoints    int             `gorm:"not null"`
	TotalSpent       decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	TotalOrders      int             `gorm:"not null"`
	LastPurchaseDate *time.Time      `gorm:"index"`
	IsActive         bool            `gorm:"not null"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (c *Customer) FullName() string { return c.FirstName + " " + c.LastName }

type CustomerResponse struct {
	ID               uint       `json:"id"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	FullName         string     `json:"full_name"`
	Email            *string    `json:"email"`
	Phone            string     `json:"phone"`
	Address          string     `json:"address"`
	City             string     `json:"city"`
	Country          string     `json:"country"`
	LoyaltyPoints    int        `json:"loyalty_points"`
	TotalSpent       float64    `json:"total_spent"`
	TotalOrders      int        `json:"total_orders"`
	LastPurchaseDate *time.Time `json:"last_purchase_date"`
	IsActive         bool       `json:"is_active"`
	CreatedAt        time.Time  `json:"created_at"`
}

func (c *Customer) Response() CustomerResponse {
	return CustomerResponse{
		ID:               c.ID,
		FirstName:        c.FirstName,
		LastName:         c.LastName,
		FullName:         c.FullName(),
		Email:            c.Email,
		Phone:            c.Phone,
		Address:          c.Address,
		City:             c.City,
		Country:          c.Country,
		LoyaltyPoints:    c.LoyaltyPoints,
		TotalSpent:       money(c.TotalSpent),
		TotalOrders:      c.TotalOrders,
		LastPurchaseDate: c.LastPurchaseDate,
		IsActive:         c.IsActive,
		CreatedAt:        c.CreatedAt,
	}
}

type Sale struct {
	ID             uint            `gorm:"primaryKey"`
	SaleNumber     string          `gorm:"size:50;uniqueIndex;not null"`
	CustomerID     *uint           `gorm:"index"`
	Customer       *Customer       `gorm:"foreignKey:CustomerID"`
	UserID         uint            `gorm:"not null;index"`
	User           *User           `gorm:"foreignKey:UserID"`
	Subtotal       decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	TaxAmount      decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	PaymentMethod  string          `gorm:"size:20;not null"`
	PaymentStatus  string          `gorm:"size:20;not null"`
	Notes          string          `gorm:"type:text"`
	SaleDate       time.Time       `gorm:"not null;index"`
	Items          []SaleItem
}

type SaleItem struct {
	ID             uint            `gorm:"primaryKey"`
	SaleID         uint            `gorm:"not null;index"`
	ProductID      uint            `gorm:"not null;index"`
	Product        *Product        `gorm:"foreignKey:ProductID"`
	Quantity       int             `gorm:"not null"`
	UnitPrice      decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	TotalPrice     decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(10,2);not null"`
}

type SaleItemResponse struct {
	ID             uint    `json:"id"`
	SaleID         uint    `json:"sale_id"`
	ProductID      uint    `json:"product_id"`
	ProductName    *string `json:"product_name"`
	Quantity       int     `json:"quantity"`
	UnitPrice      float64 `json:"unit_price"`
	TotalPrice     float64 `json:"total_price"`
	DiscountAmount float64 `json:"discount_amount"`
}

type SaleResponse struct {
	ID             uint               `json:"id"`
	SaleNumber     string             `json:"sale_number"`
	CustomerID     *uint              `json:"customer_id"`
	CustomerName   *string            `json:"customer_name"`
	UserID         uint               `json:"user_id"`
	UserName       *string            `json:"user_name"`
	Subtotal       float64            `json:"subtotal"`
	TaxAmount      float64            `json:"tax_amount"`
	DiscountAmount float64            `json:"discount_amount"`
	TotalAmount    float64            `json:"total_amount"`
	PaymentMethod  string             `json:"payment_method"`
	PaymentStatus  string             `json:"payment_status"`
	Notes          string             `json:"notes"`
	SaleDate       time.Time          `json:"sale_date"`
	Items          []SaleItemResponse `json:"items"`
}

// Response expects Customer, User and Items.Product to be preloaded.
func (s *Sale) Response() SaleResponse {
	out := SaleResponse{
		ID:             s.ID,
		SaleNumber:     s.SaleNumber,
		CustomerID:     s.CustomerID,
		UserID:         s.UserID,
		Subtotal:       money(s.Subtotal),
		TaxAmount:      money(s.TaxAmount),
		DiscountAmount: money(s.DiscountAmount),
		TotalAmount:    money(s.TotalAmount),
		PaymentMethod:  s.PaymentMethod,
		PaymentStatus:  s.PaymentStatus,
		Notes:          s.Notes,
		SaleDate:       s.SaleDate,
		Items:          make([]SaleItemResponse, 0, len(s.Items)),
	}
	if s.Customer != nil {
		name := s.Customer.FullName()
		out.CustomerName = &name
	}
	if s.User != nil {
		name := s.User.FullName()
		out.UserName = &name
	}
	for _, it := range s.Items {
		item := SaleItemResponse{
			ID:             it.ID,
			SaleID:         it.SaleID,
			ProductID:      it.ProductID,
			Quantity:       it.Quantity,
			UnitPrice:      money(it.UnitPrice),
			TotalPrice:     money(it.TotalPrice),
			DiscountAmount: money(it.DiscountAmount),
		}
		if it.Product != nil {
			item.ProductName = &it.Product.Name
		}
		out.Items = append(out.Items, item)
	}
	return out
}

type Transaction struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	TransactionNumber string          `gorm:"size:50;uniqueIndex;not null" json:"transaction_number"`
	SaleID            *uint           `gorm:"index" json:"sale_id"`
	TransactionType   string          `gorm:"size:20;not null" json:"transaction_type"`
	Amount            decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	PaymentMethod     string          `gorm:"size:20;not null" json:"payment_method"`
	ReferenceNumber   *string         `gorm:"size:100" json:"reference_number"`
	Status            string          `gorm:"size:20;not null" json:"status"`
	Notes             string          `json:"notes"`
	CreatedAt         time.Time       `json:"created_at"`
}

type Invoice struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	InvoiceNumber string     `gorm:"size:50;uniqueIndex;not null" json:"invoice_number"`
	SaleID        uint       `gorm:"not null;index" json:"sale_id"`
	CustomerID    *uint      `gorm:"index" json:"customer_id"`
	IssueDate     time.Time  `json:"issue_date"`
	DueDate       *time.Time `json:"due_date"`
	Status        string     `gorm:"size:20;not null" json:"status"`
	Notes         string     `json:"notes"`
}

type StockMovement struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ProductID     uint      `gorm:"not null;index" json:"product_id"`
	MovementType  string    `gorm:"size:20;not null" json:"movement_type"`
	Quantity      int       `gorm:"not null" json:"quantity"`
	ReferenceType string    `gorm:"size:20;not null" json:"reference_type"`
	ReferenceID   *uint     `json:"reference_id"`
	Notes         string    `json:"notes"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	CreatedAt     time.Time `json:"created_at"`
}

type Setting struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Key         string    `gorm:"column:setting_key;size:100;uniqueIndex;not null" json:"setting_key"`
	Value       string    `gorm:"column:setting_value" json:"setting_value"`
	Description string    `json:"description"`
	UpdatedBy   *uint     `json:"updated_by"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// All returns every model for AutoMigrate, parents first.
func All() []any {
	return []any{
		&User{}, &Category{}, &Supplier{}, &Product{}, &Customer{},
		&Sale{}, &SaleItem{}, &Transaction{}, &Invoice{}, &StockMovement{}, &Setting{},
	}
}

func money(d decimal.Decimal) float64 { return d.Round(2).InexactFloat64() }

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleStatus represents the lifecycle of a sale.
type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "pending"
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusCancelled SaleStatus = "cancelled"
	SaleStatusRefunded  SaleStatus = "refunded"
)

// WalkInCustomer is the customer name used when none is given.
const WalkInCustomer = "Walk-in Customer"

// Sale is a completed (or refunded) POS transaction.
type Sale struct {
	Base
	UserID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	User           *User           `gorm:"foreignKey:UserID"`
	Subtotal       decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	DiscountCode   *string         `gorm:"size:50"`
	TaxRate        decimal.Decimal `gorm:"type:numeric(5,2);not null"`
	TaxAmount      decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Status         SaleStatus      `gorm:"size:20;not null;index"`
	CustomerName   string          `gorm:"size:200"`
	CustomerPhone  string          `gorm:"size:50"`
	CustomerEmail  string          `gorm:"size:255"`
	Notes          string          `gorm:"type:text"`
	ReceiptNumber  string          `gorm:"size:50;uniqueIndex;not null"`
	CompletedAt    *time.Time
	Items          []SaleItem `gorm:"foreignKey:SaleID"`
	Payments       []Payment  `gorm:"foreignKey:SaleID"`
}

// IsRefunded reports whether the sale has been refunded.
func (s *Sale) IsRefunded() bool { return s.Status == SaleStatusRefunded }

// ItemCount sums item quantities.
func (s *Sale) ItemCount() int {
	n := 0
	for _, it := range s.Items {
		n += it.Quantity
	}
	return n
}

// TotalPaid sums completed payments, refunds excluded.
func (s *Sale) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.Payments {
		if p.Status == PaymentStatusCompleted && p.Method != PaymentMethodRefund {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// BalanceDue is total minus paid, never negative.
func (s *Sale) BalanceDue() decimal.Decimal {
	due := s.TotalAmount.Sub(s.TotalPaid())
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

// SaleItem is one line of a sale.
type SaleItem struct {
	Base
	SaleID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Product          *Product        `gorm:"foreignKey:ProductID"`
	ProductName      string          `gorm:"size:200;not null"`
	Quantity         int             `gorm:"not null"`
	UnitPrice        decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	DiscountAmount   decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	TotalPrice       decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	RefundedQuantity int             `gorm:"not null"`
}

// RefundableQuantity is what can still be refunded on this line.
func (i *SaleItem) RefundableQuantity() int { return i.Quantity - i.RefundedQuantity }

// LineTotal is unit_price * quantity - discount.
func LineTotal(unitPrice decimal.Decimal, quantity int, discount decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Sub(discount).Round(2)
}

// GenerateReceiptNumber formats RCP-YYYYMMDD-NNNN.
func GenerateReceiptNumber(at time.Time, seq int) string {
	return fmt.Sprintf("RCP-%s-%04d", at.Format("20060102"), seq)
}

// SaleResponse is the public representation of a sale.
type SaleResponse struct {
	ID             uuid.UUID          `json:"id"`
	ReceiptNumber  string             `json:"receipt_number"`
	UserID         uuid.UUID          `json:"user_id"`
	CashierName    string             `json:"cashier_name,omitempty"`
	Subtotal       float64            `json:"subtotal"`
	DiscountAmount float64            `json:"discount_amount"`
	DiscountCode   *string            `json:"discount_code"`
	TaxRate        float64            `json:"tax_rate"`
	TaxAmount      float64            `json:"tax_amount"`
	TotalAmount    float64            `json:"total_amount"`
	TotalPaid      float64            `json:"total_paid"`
	BalanceDue     float64            `json:"balance_due"`
	Status         SaleStatus         `json:"status"`
	CustomerName   string             `json:"customer_name"`
	CustomerPhone  string             `json:"customer_phone"`
	CustomerEmail  string             `json:"customer_email"`
	Notes          string             `json:"notes"`
	ItemCount      int                `json:"item_count"`
	Items          []SaleItemResponse `json:"items,omitempty"`
	Payments       []PaymentResponse  `json:"payments,omitempty"`
	CompletedAt    *time.Time         `json:"completed_at"`
	CreatedAt      time.Time          `json:"created_at"`
}

type SaleItemResponse struct {
	ID               uuid.UUID `json:"id"`
	ProductID        uuid.UUID `json:"product_id"`
	ProductName      string    `json:"product_name"`
	Quantity         int       `json:"quantity"`
	UnitPrice        float64   `json:"unit_price"`
	DiscountAmount   float64   `json:"discount_amount"`
	TotalPrice       float64   `json:"total_price"`
	RefundedQuantity int       `json:"refunded_quantity"`
}

func (s *Sale) Response() SaleResponse {
	out := SaleResponse{
		ID:             s.ID,
		ReceiptNumber:  s.ReceiptNumber,
		UserID:         s.UserID,
		Subtotal:       Money(s.Subtotal),
		DiscountAmount: Money(s.DiscountAmount),
		DiscountCode:   s.DiscountCode,
		TaxRate:        Money(s.TaxRate),
		TaxAmount:      Money(s.TaxAmount),
		TotalAmount:    Money(s.TotalAmount),
		TotalPaid:      Money(s.TotalPaid()),
		BalanceDue:     Money(s.BalanceDue()),
		Status:         s.Status,
		CustomerName:   s.CustomerName,
		CustomerPhone:  s.CustomerPhone,
		CustomerEmail:  s.CustomerEmail,
		Notes:          s.Notes,
		ItemCount:      s.ItemCount(),
		CompletedAt:    s.CompletedAt,
		CreatedAt:      s.CreatedAt,
	}
	if s.User != nil {
		out.CashierName = s.User.FullName()
	}
	for _, it := range s.Items {
		out.Items = append(out.Items, SaleItemResponse{
			ID:               it.ID,
			ProductID:        it.ProductID,
			ProductName:      it.ProductName,
			Quantity:         it.Quantity,
			UnitPrice:        Money(it.UnitPrice),
			DiscountAmount:   Money(it.DiscountAmount),
			TotalPrice:       Money(it.TotalPrice),
			RefundedQuantity: it.RefundedQuantity,
		})
	}
	for _, p := range s.Payments {
		out.Payments = append(out.Payments, p.Response())
	}
	return out
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how a sale was paid.
type PaymentMethod string

const (
	PaymentMethodCash          PaymentMethod = "cash"
	PaymentMethodCard          PaymentMethod = "card"
	PaymentMethodBankTransfer  PaymentMethod = "bank_transfer"
	PaymentMethodMobilePayment PaymentMethod = "mobile_payment"
	PaymentMethodGiftCard      PaymentMethod = "gift_card"
	PaymentMethodOther         PaymentMethod = "other"
	// PaymentMethodRefund marks money returned to the customer.
	PaymentMethodRefund PaymentMethod = "refund"
)

// TenderMethods are the methods a customer may pay with.
var TenderMethods = []string{
	string(PaymentMethodCash), string(PaymentMethodCard), string(PaymentMethodBankTransfer),
	string(PaymentMethodMobilePayment), string(PaymentMethodGiftCard), string(PaymentMethodOther),
}

// PaymentStatus tracks payment processing.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

// Payment records money received for (or refunded from) a sale.
type Payment struct {
	Base
	SaleID          uuid.UUID           `gorm:"type:uuid;not null;index"`
	Method          PaymentMethod       `gorm:"size:30;not null;index"`
	Amount          decimal.Decimal     `gorm:"type:numeric(10,2);not null"`
	TransactionID   *string             `gorm:"size:100"`
	ReferenceNumber *string             `gorm:"size:100"`
	Status          PaymentStatus       `gorm:"size:20;not null"`
	CashReceived    decimal.NullDecimal `gorm:"type:numeric(10,2)"`
	ChangeAmount    decimal.Decimal     `gorm:"type:numeric(10,2);not null"`
	CardLastFour    string              `gorm:"size:4"`
	CardBrand       string              `gorm:"size:30"`
	Notes           string              `gorm:"type:text"`
	ProcessedAt     *time.Time
}

type PaymentResponse struct {
	ID              uuid.UUID     `json:"id"`
	Method          PaymentMethod `json:"method"`
	Amount          float64       `json:"amount"`
	Status          PaymentStatus `json:"status"`
	ReferenceNumber *string       `json:"reference_number"`
	CashReceived    *float64      `json:"cash_received"`
	ChangeAmount    float64       `json:"change_amount"`
	CardLastFour    string        `json:"card_last_four,omitempty"`
	CardBrand       string        `json:"card_brand,omitempty"`
	ProcessedAt     *time.Time    `json:"processed_at"`
}

func (p *Payment) Response() PaymentResponse {
	out := PaymentResponse{
		ID:              p.ID,
		Method:          p.Method,
		Amount:          Money(p.Amount),
		Status:          p.Status,
		ReferenceNumber: p.ReferenceNumber,
		ChangeAmount:    Money(p.ChangeAmount),
		CardLastFour:    p.CardLastFour,
		CardBrand:       p.CardBrand,
		ProcessedAt:     p.ProcessedAt,
	}
	if p.CashReceived.Valid {
		v := Money(p.CashReceived.Decimal)
		out.CashReceived = &v
	}
	return out
}

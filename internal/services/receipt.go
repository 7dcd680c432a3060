package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/models"
)

// Receipt is the printable view of a sale.
type Receipt struct {
	SaleID        uuid.UUID         `json:"sale_id"`
	Store         ReceiptStore      `json:"store"`
	ReceiptNumber string            `json:"receipt_number"`
	Date          time.Time         `json:"date"`
	Cashier       string            `json:"cashier"`
	Customer      ReceiptCustomer   `json:"customer"`
	Items         []ReceiptItem     `json:"items"`
	Subtotal      float64           `json:"subtotal"`
	Discount      float64           `json:"discount"`
	TaxRate       float64           `json:"tax_rate"`
	Tax           float64           `json:"tax"`
	Total         float64           `json:"total"`
	Payments      []ReceiptPayment  `json:"payments"`
	Status        models.SaleStatus `json:"status"`
	Footer        string            `json:"footer"`
}

type ReceiptStore struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

type ReceiptCustomer struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

type ReceiptItem struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Discount  float64 `json:"discount"`
	Total     float64 `json:"total"`
	Refunded  int     `json:"refunded,omitempty"`
}

type ReceiptPayment struct {
	Method       models.PaymentMethod `json:"method"`
	Amount       float64              `json:"amount"`
	CashReceived *float64             `json:"cash_received,omitempty"`
	Change       float64              `json:"change"`
	CardLastFour string               `json:"card_last_four,omitempty"`
}

// ReceiptService builds receipts using the store settings.
type ReceiptService struct {
	db        *gorm.DB
	storeName string
}

func NewReceiptService(conn *gorm.DB, storeName string) *ReceiptService {
	return &ReceiptService{db: conn, storeName: storeName}
}

func (s *ReceiptService) settings(ctx context.Context) map[string]string {
	var rows []models.Setting
	out := map[string]string{}
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return out
	}
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out
}

// Build renders sale (items, payments and user preloaded) as a receipt.
func (s *ReceiptService) Build(ctx context.Context, sale *models.Sale) *Receipt {
	settings := s.settings(ctx)
	name := settings[models.SettingStoreName]
	if name == "" {
		name = s.storeName
	}
	date := sale.CreatedAt
	if sale.CompletedAt != nil {
		date = *sale.CompletedAt
	}
	r := &Receipt{
		SaleID:        sale.ID,
		Store:         ReceiptStore{Name: name, Address: settings[models.SettingStoreAddress]},
		ReceiptNumber: sale.ReceiptNumber,
		Date:          date,
		Customer: ReceiptCustomer{
			Name:  sale.CustomerName,
			Phone: sale.CustomerPhone,
			Email: sale.CustomerEmail,
		},
		Subtotal: models.Money(sale.Subtotal),
		Discount: models.Money(sale.DiscountAmount),
		TaxRate:  models.Money(sale.TaxRate),
		Tax:      models.Money(sale.TaxAmount),
		Total:    models.Money(sale.TotalAmount),
		Status:   sale.Status,
		Footer:   settings[models.SettingReceiptFooter],
		Items:    []ReceiptItem{},
		Payments: []ReceiptPayment{},
	}
	if sale.User != nil {
		r.Cashier = sale.User.FullName()
	}
	for _, it := range sale.Items {
		r.Items = append(r.Items, ReceiptItem{
			Name:      it.ProductName,
			Quantity:  it.Quantity,
			UnitPrice: models.Money(it.UnitPrice),
			Discount:  models.Money(it.DiscountAmount),
			Total:     models.Money(it.TotalPrice),
			Refunded:  it.RefundedQuantity,
		})
	}
	for _, p := range sale.Payments {
		pr := p.Response()
		r.Payments = append(r.Payments, ReceiptPayment{
			Method:       p.Method,
			Amount:       pr.Amount,
			CashReceived: pr.CashReceived,
			Change:       pr.ChangeAmount,
			CardLastFour: p.CardLastFour,
		})
	}
	return r
}

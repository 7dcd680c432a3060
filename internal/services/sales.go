// Package services holds the sale workflows that span several tables:
// checkout, refunds, receipts, reports and held carts.
package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/httpx"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/db"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/events"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/models"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/validation"
)

const receiptAttempts = 5

var hundred = decimal.NewFromInt(100)

// LineInput is one requested sale line.
type LineInput struct {
	ProductID uuid.UUID
	Quantity  int
	// UnitPrice overrides the catalogue price when set.
	UnitPrice      *decimal.Decimal
	DiscountAmount decimal.Decimal
}

// PaymentInput describes how the customer pays.
type PaymentInput struct {
	Method models.PaymentMethod
	// Amount defaults to the sale total.
	Amount          *decimal.Decimal
	CashReceived    *decimal.Decimal
	CardLastFour    string
	CardBrand       string
	ReferenceNumber string
}

// SaleInput is everything needed to record a completed sale.
type SaleInput struct {
	UserID         uuid.UUID
	Items          []LineInput
	DiscountAmount decimal.Decimal
	DiscountCode   *string
	TaxRate        decimal.Decimal
	Payment        PaymentInput
	CustomerName   string
	CustomerPhone  string
	CustomerEmail  string
	Notes          string
	// MovementReason is written on the stock movements.
	MovementReason string
}

// SaleService records sales and refunds.
type SaleService struct {
	db        *gorm.DB
	publisher events.Publisher
	log       *zap.Logger
	now       func() time.Time
}

func NewSaleService(conn *gorm.DB, publisher events.Publisher, log *zap.Logger) *SaleService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &SaleService{db: conn, publisher: publisher, log: log, now: time.Now}
}

func validateSaleInput(in *SaleInput) error {
	if len(in.Items) == 0 {
		return httpx.Validation("At least one item is required", nil)
	}
	v := validation.Violations{}
	for i, it := range in.Items {
		field := fmt.Sprintf("items[%d]", i)
		if it.ProductID == uuid.Nil {
			v.Add(field+".product_id", "required")
		}
		validation.MinInt(field+".quantity", it.Quantity, 1, v)
		validation.NonNegativeDecimal(field+".discount_amount", it.DiscountAmount, v)
		if it.UnitPrice != nil {
			validation.NonNegativeDecimal(field+".unit_price", *it.UnitPrice, v)
		}
	}
	validation.NonNegativeDecimal("discount_amount", in.DiscountAmount, v)
	validation.RangeDecimal("tax_rate", in.TaxRate, 0, 100, v)
	if in.Payment.Method == "" {
		in.Payment.Method = models.PaymentMethodCash
	}
	validation.OneOf("payment_method", string(in.Payment.Method), models.TenderMethods, v)
	if !v.Empty() {
		return httpx.Validation("Invalid sale request", v)
	}
	return nil
}

// mergeLines folds repeated products into one line when they carry the same
// price, keeping the first order. Lines priced differently stay separate; each
// one locks and decrements the product in turn.
func mergeLines(lines []LineInput) []LineInput {
	out := make([]LineInput, 0, len(lines))
	for _, l := range lines {
		i := slices.IndexFunc(out, func(o LineInput) bool {
			return o.ProductID == l.ProductID && samePrice(o.UnitPrice, l.UnitPrice)
		})
		if i >= 0 {
			out[i].Quantity += l.Quantity
			out[i].DiscountAmount = out[i].DiscountAmount.Add(l.DiscountAmount)
			continue
		}
		out = append(out, l)
	}
	return out
}

func samePrice(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// Totals is the money breakdown of a sale.
type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals applies the sale discount, clamped to [0, subtotal], then tax
// on the discounted amount.
func ComputeTotals(subtotal, discount, taxRate decimal.Decimal) Totals {
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(taxRate).Div(hundred).Round(2)
	return Totals{
		Subtotal: subtotal.Round(2),
		Discount: discount.Round(2),
		Tax:      tax,
		Total:    taxable.Add(tax).Round(2),
	}
}

// Create validates stock, decrements it and records the sale, its items, its
// payment and the stock movements in one transaction.
func (s *SaleService) Create(ctx context.Context, in SaleInput) (*models.Sale, error) {
	if err := validateSaleInput(&in); err != nil {
		return nil, err
	}
	lines := mergeLines(in.Items)
	now := s.now()

	sale := &models.Sale{
		Base:          models.Base{ID: uuid.New()},
		UserID:        in.UserID,
		DiscountCode:  in.DiscountCode,
		TaxRate:       in.TaxRate,
		Status:        models.SaleStatusCompleted,
		CustomerName:  strings.TrimSpace(in.CustomerName),
		CustomerPhone: in.CustomerPhone,
		CustomerEmail: in.CustomerEmail,
		Notes:         in.Notes,
		CompletedAt:   &now,
	}
	if sale.CustomerName == "" {
		sale.CustomerName = models.WalkInCustomer
	}
	reason := in.MovementReason
	if reason == "" {
		reason = "Sale"
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var movements []models.StockMovement
		subtotal := decimal.Zero
		for _, line := range lines {
			product, err := lockProduct(tx, line.ProductID)
			if err != nil {
				return err
			}
			if !product.IsActive {
				return httpx.ProductInactive(product.Name)
			}
			if product.StockQuantity < line.Quantity {
				return httpx.InsufficientStock(product.Name, product.StockQuantity, line.Quantity)
			}
			if err := decrementStock(tx, product, line.Quantity, now); err != nil {
				return err
			}

			unitPrice := product.Price
			if line.UnitPrice != nil {
				unitPrice = *line.UnitPrice
			}
			gross := unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
			if line.DiscountAmount.GreaterThan(gross) {
				return httpx.Validation(fmt.Sprintf("Discount for '%s' exceeds the line amount", product.Name), nil)
			}
			item := models.SaleItem{
				ProductID:      product.ID,
				ProductName:    product.Name,
				Quantity:       line.Quantity,
				UnitPrice:      unitPrice,
				DiscountAmount: line.DiscountAmount,
				TotalPrice:     models.LineTotal(unitPrice, line.Quantity, line.DiscountAmount),
			}
			subtotal = subtotal.Add(item.TotalPrice)
			sale.Items = append(sale.Items, item)

			userID := in.UserID
			saleID := sale.ID
			movements = append(movements, models.StockMovement{
				ProductID:        product.ID,
				UserID:           &userID,
				Type:             models.MovementOut,
				Quantity:         line.Quantity,
				PreviousQuantity: product.StockQuantity,
				NewQuantity:      product.StockQuantity - line.Quantity,
				ReferenceType:    models.ReferenceSale,
				ReferenceID:      &saleID,
				Reason:           reason,
			})
		}

		totals := ComputeTotals(subtotal, in.DiscountAmount, in.TaxRate)
		sale.Subtotal = totals.Subtotal
		sale.DiscountAmount = totals.Discount
		sale.TaxAmount = totals.Tax
		sale.TotalAmount = totals.Total

		payment, err := buildPayment(in.Payment, totals.Total, now)
		if err != nil {
			return err
		}
		sale.Payments = []models.Payment{*payment}

		if err := s.insertWithReceipt(tx, sale, now); err != nil {
			return err
		}
		if err := tx.Create(&movements).Error; err != nil {
			return fmt.Errorf("create stock movements: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.SaleCompleted, sale, sale.Items, func(it models.SaleItem) int { return it.Quantity })
	return sale, nil
}

func lockProduct(tx *gorm.DB, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, httpx.NotFound("Product", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load product %s: %w", id, err)
	}
	return &p, nil
}

// decrementStock only succeeds while enough stock remains, so concurrent
// checkouts cannot oversell.
func decrementStock(tx *gorm.DB, p *models.Product, qty int, now time.Time) error {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", p.ID, qty).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity - ?", qty),
			"updated_at":     now,
		})
	if res.Error != nil {
		return fmt.Errorf("decrement stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return httpx.InsufficientStock(p.Name, p.StockQuantity, qty)
	}
	return nil
}

func buildPayment(in PaymentInput, total decimal.Decimal, now time.Time) (*models.Payment, error) {
	amount := total
	if in.Amount != nil {
		amount = *in.Amount
	}
	if amount.LessThan(total) {
		return nil, httpx.InvalidPayment(fmt.Sprintf("Payment amount %s is less than the sale total %s", amount.StringFixed(2), total.StringFixed(2)))
	}
	p := &models.Payment{
		Method:       in.Method,
		Amount:       amount,
		Status:       models.PaymentStatusCompleted,
		ChangeAmount: decimal.Zero,
		CardLastFour: in.CardLastFour,
		CardBrand:    in.CardBrand,
		ProcessedAt:  &now,
	}
	if in.ReferenceNumber != "" {
		ref := in.ReferenceNumber
		p.ReferenceNumber = &ref
	}
	if in.Method == models.PaymentMethodCash {
		received := amount
		if in.CashReceived != nil {
			received = *in.CashReceived
		}
		if received.LessThan(total) {
			return nil, httpx.InvalidPayment("Insufficient cash received")
		}
		p.CashReceived = decimal.NewNullDecimal(received)
		p.ChangeAmount = received.Sub(total).Round(2)
		p.Amount = total
	}
	return p, nil
}

// insertWithReceipt inserts the sale under a fresh receipt number, retrying in
// a savepoint when another sale took the same number.
func (s *SaleService) insertWithReceipt(tx *gorm.DB, sale *models.Sale, now time.Time) error {
	prefix := "RCP-" + now.Format("20060102") + "-"
	var count int64
	if err := tx.Model(&models.Sale{}).Where("receipt_number LIKE ?", prefix+"%").Count(&count).Error; err != nil {
		return fmt.Errorf("count receipts: %w", err)
	}

	var err error
	for attempt := 1; attempt <= receiptAttempts; attempt++ {
		sale.ReceiptNumber = models.GenerateReceiptNumber(now, int(count)+attempt)
		err = tx.Transaction(func(sp *gorm.DB) error {
			return sp.Create(sale).Error
		})
		if err == nil {
			return nil
		}
		if !db.IsUniqueViolation(err) {
			return fmt.Errorf("create sale: %w", err)
		}
		s.log.Warn("receipt number collision, retrying",
			zap.String("receipt_number", sale.ReceiptNumber), zap.Int("attempt", attempt))
	}
	return fmt.Errorf("allocate receipt number after %d attempts: %w", receiptAttempts, err)
}

func (s *SaleService) publish(ctx context.Context, eventType string, sale *models.Sale, items []models.SaleItem, qty func(models.SaleItem) int) {
	payload := events.SalePayload{
		ID:            sale.ID.String(),
		ReceiptNumber: sale.ReceiptNumber,
		UserID:        sale.UserID.String(),
		TotalAmount:   sale.TotalAmount.StringFixed(2),
	}
	for _, it := range items {
		if n := qty(it); n > 0 {
			payload.Items = append(payload.Items, events.ItemPayload{ProductID: it.ProductID.String(), Quantity: n})
		}
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.publisher.Publish(ctx, events.New(eventType, payload)); err != nil {
		s.log.Warn("publish sale event failed",
			zap.String("event_type", eventType), zap.String("sale_id", sale.ID.String()), zap.Error(err))
	}
}

// Get loads a sale with its items, payments and cashier.
func (s *SaleService) Get(ctx context.Context, id uuid.UUID) (*models.Sale, error) {
	var sale models.Sale
	err := s.db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at, id") }).
		Preload("Payments", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at, id") }).
		Preload("User").
		First(&sale, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, httpx.NotFound("Sale", id)
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// SaleFilter narrows List.
type SaleFilter struct {
	Start  *time.Time
	End    *time.Time // exclusive
	UserID *uuid.UUID
	Status models.SaleStatus
	Page   httpx.Page
}

// List returns a page of sales, newest first.
func (s *SaleService) List(ctx context.Context, f SaleFilter) ([]models.Sale, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Sale{})
	if f.Start != nil {
		q = q.Where("created_at >= ?", *f.Start)
	}
	if f.End != nil {
		q = q.Where("created_at < ?", *f.End)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var sales []models.Sale
	err := q.Preload("Items").Preload("Payments").Preload("User").
		Order("created_at DESC").Offset(f.Page.Offset()).Limit(f.Page.PerPage).
		Find(&sales).Error
	if err != nil {
		return nil, 0, err
	}
	return sales, total, nil
}

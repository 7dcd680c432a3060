package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/httpx"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/events"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/models"
)

// RefundLine refunds quantity units of one sale item.
type RefundLine struct {
	ItemID   uuid.UUID
	Quantity int
	Reason   string
}

// RefundInput with no Items refunds everything still refundable.
type RefundInput struct {
	SaleID uuid.UUID
	UserID uuid.UUID
	Items  []RefundLine
	Reason string
}

type RefundResult struct {
	RefundAmount decimal.Decimal
	Status       models.SaleStatus
	ProcessedAt  time.Time
}

// RefundLineAmount is unit_price*qty minus the item discount prorated to qty.
func RefundLineAmount(item *models.SaleItem, qty int) decimal.Decimal {
	q := decimal.NewFromInt(int64(qty))
	amount := item.UnitPrice.Mul(q)
	if item.Quantity > 0 && !item.DiscountAmount.IsZero() {
		amount = amount.Sub(item.DiscountAmount.Mul(q).Div(decimal.NewFromInt(int64(item.Quantity))))
	}
	return amount.Round(2)
}

// Refund restores stock for the refunded lines, marks the sale refunded and
// records a refund payment.
func (s *SaleService) Refund(ctx context.Context, in RefundInput) (*RefundResult, error) {
	now := s.now()
	var (
		sale     models.Sale
		refunded = map[uuid.UUID]int{}
		total    = decimal.Zero
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sale, "id = ?", in.SaleID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httpx.NotFound("Sale", in.SaleID)
		}
		if err != nil {
			return err
		}
		if sale.Status == models.SaleStatusRefunded {
			return httpx.SaleAlreadyRefunded()
		}
		if sale.Status != models.SaleStatusCompleted {
			return httpx.Validation(fmt.Sprintf("Only completed sales can be refunded (status: %s)", sale.Status), nil)
		}
		if err := tx.Where("sale_id = ?", sale.ID).Order("created_at, id").Find(&sale.Items).Error; err != nil {
			return err
		}

		lines := in.Items
		if len(lines) == 0 {
			for _, it := range sale.Items {
				if n := it.RefundableQuantity(); n > 0 {
					lines = append(lines, RefundLine{ItemID: it.ID, Quantity: n})
				}
			}
		}
		if len(lines) == 0 {
			return httpx.Validation("Nothing left to refund", nil)
		}

		for _, line := range lines {
			item := findItem(sale.Items, line.ItemID)
			if item == nil {
				return httpx.NotFound("Sale item", line.ItemID)
			}
			if line.Quantity < 1 {
				return httpx.Validation("Refund quantity must be at least 1", map[string]string{"item_id": line.ItemID.String()})
			}
			if line.Quantity > item.RefundableQuantity() {
				return httpx.Validation(fmt.Sprintf("Cannot refund %d of '%s': %d refundable",
					line.Quantity, item.ProductName, item.RefundableQuantity()), nil)
			}
			item.RefundedQuantity += line.Quantity
			refunded[item.ID] += line.Quantity
			total = total.Add(RefundLineAmount(item, line.Quantity))

			if err := tx.Model(item).Updates(map[string]any{
				"refunded_quantity": item.RefundedQuantity,
				"updated_at":        now,
			}).Error; err != nil {
				return fmt.Errorf("update sale item: %w", err)
			}
			reason := line.Reason
			if reason == "" {
				reason = in.Reason
			}
			if err := restock(tx, item.ProductID, line.Quantity, in.UserID, sale.ID, reason, now); err != nil {
				return err
			}
		}

		notes := sale.Notes
		if r := strings.TrimSpace(in.Reason); r != "" {
			notes = strings.TrimSpace(notes + "\nRefund: " + r)
		}
		if err := tx.Model(&sale).Updates(map[string]any{
			"status":     models.SaleStatusRefunded,
			"notes":      notes,
			"updated_at": now,
		}).Error; err != nil {
			return fmt.Errorf("update sale: %w", err)
		}

		payment := models.Payment{
			SaleID:       sale.ID,
			Method:       models.PaymentMethodRefund,
			Amount:       total,
			Status:       models.PaymentStatusCompleted,
			ChangeAmount: decimal.Zero,
			Notes:        in.Reason,
			ProcessedAt:  &now,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return fmt.Errorf("create refund payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.SaleRefunded, &sale, sale.Items, func(it models.SaleItem) int { return refunded[it.ID] })
	return &RefundResult{RefundAmount: total, Status: models.SaleStatusRefunded, ProcessedAt: now}, nil
}

func findItem(items []models.SaleItem, id uuid.UUID) *models.SaleItem {
	for i := range items {
		if items[i].ID == id {
			return &items[i]
		}
	}
	return nil
}

func restock(tx *gorm.DB, productID uuid.UUID, qty int, userID, saleID uuid.UUID, reason string, now time.Time) error {
	var product models.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, "id = ?", productID).Error; err != nil {
		return fmt.Errorf("load product %s: %w", productID, err)
	}
	if err := tx.Model(&models.Product{}).Where("id = ?", productID).Updates(map[string]any{
		"stock_quantity": gorm.Expr("stock_quantity + ?", qty),
		"updated_at":     now,
	}).Error; err != nil {
		return fmt.Errorf("restore stock: %w", err)
	}
	if reason == "" {
		reason = "Refund"
	}
	movement := models.StockMovement{
		ProductID:        productID,
		UserID:           &userID,
		Type:             models.MovementIn,
		Quantity:         qty,
		PreviousQuantity: product.StockQuantity,
		NewQuantity:      product.StockQuantity + qty,
		ReferenceType:    models.ReferenceRefund,
		ReferenceID:      &saleID,
		Reason:           reason,
	}
	if err := tx.Create(&movement).Error; err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

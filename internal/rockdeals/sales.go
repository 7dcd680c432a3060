package rockdeals

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/httpx"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/db"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/validation"
)

// saleNumberAttempts bounds retries when two sales race for the same number.
const saleNumberAttempts = 3

type saleItemRequest struct {
	ProductID      uint             `json:"product_id"`
	Quantity       int              `json:"quantity"`
	UnitPrice      *decimal.Decimal `json:"unit_price"`
	DiscountAmount decimal.Decimal  `json:"discount_amount"`
}

type saleRequest struct {
	CustomerID     *uint             `json:"customer_id"`
	UserID         *uint             `json:"user_id"`
	Items          []saleItemRequest `json:"items"`
	PaymentMethod  string            `json:"payment_method"`
	TaxAmount      decimal.Decimal   `json:"tax_amount"`
	DiscountAmount decimal.Decimal   `json:"discount_amount"`
	Notes          string            `json:"notes"`
}

func (req *saleRequest) validate() validation.Violations {
	v := validation.Violations{}
	if len(req.Items) == 0 {
		v.Add("items", "required")
	}
	for i, it := range req.Items {
		field := fmt.Sprintf("items[%d]", i)
		if it.ProductID == 0 {
			v.Add(field+".product_id", "required")
		}
		validation.MinInt(field+".quantity", it.Quantity, 1, v)
		if it.UnitPrice != nil {
			validation.NonNegativeDecimal(field+".unit_price", *it.UnitPrice, v)
		}
		validation.NonNegativeDecimal(field+".discount_amount", it.DiscountAmount, v)
	}
	validation.OneOf("payment_method", req.PaymentMethod, PaymentMethods, v)
	validation.NonNegativeDecimal("tax_amount", req.TaxAmount, v)
	validation.NonNegativeDecimal("discount_amount", req.DiscountAmount, v)
	return v
}

func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	limit := httpx.QueryInt(r, "limit", 100, 1, 1000)
	var sales []Sale
	err := h.db.WithContext(r.Context()).
		Preload("Customer").Preload("User").Preload("Items.Product").
		Order("sale_date DESC, id DESC").Limit(limit).
		Find(&sales).Error
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]SaleResponse, 0, len(sales))
	for i := range sales {
		out = append(out, sales[i].Response())
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var sale Sale
	err = h.db.WithContext(r.Context()).
		Preload("Customer").Preload("User").Preload("Items.Product").
		First(&sale, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = notFound("Sale", id)
		}
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale.Response())
}

func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	req.PaymentMethod = strings.TrimSpace(req.PaymentMethod)
	if req.PaymentMethod == "" {
		req.PaymentMethod = PaymentCash
	}
	if v := req.validate(); !v.Empty() {
		h.fail(w, r, describe("Invalid sale", v))
		return
	}

	var (
		sale *Sale
		err  error
	)
	for attempt := 0; attempt < saleNumberAttempts; attempt++ {
		err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
			sale, err = recordSale(tx, req, h.now())
			return err
		})
		if !db.IsUniqueViolation(err) {
			break
		}
		h.log.Warn("sale number taken, retrying", zap.Int("attempt", attempt+1))
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.log.Info("sale recorded",
		zap.Uint("sale_id", sale.ID), zap.String("sale_number", sale.SaleNumber),
		zap.String("total", sale.TotalAmount.StringFixed(2)))
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"message":      "Sale created successfully",
		"id":           sale.ID,
		"sale_number":  sale.SaleNumber,
		"total_amount": money(sale.TotalAmount),
	})
}

// recordSale writes a completed sale inside tx. Stock is decremented only
// where enough remains, so concurrent sales never drive it negative.
func recordSale(tx *gorm.DB, req saleRequest, now time.Time) (*Sale, error) {
	userID := DefaultUserID
	if req.UserID != nil {
		userID = *req.UserID
	}
	var n int64
	if err := tx.Model(&User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, badRequest("User %d does not exist", userID)
	}
	if req.CustomerID != nil {
		if err := tx.Model(&Customer{}).Where("id = ?", *req.CustomerID).Count(&n).Error; err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, badRequest("Customer %d does not exist", *req.CustomerID)
		}
	}

	sale := &Sale{
		CustomerID:     req.CustomerID,
		UserID:         userID,
		TaxAmount:      req.TaxAmount,
		DiscountAmount: req.DiscountAmount,
		PaymentMethod:  req.PaymentMethod,
		PaymentStatus:  StatusCompleted,
		Notes:          req.Notes,
		SaleDate:       now,
	}
	for _, it := range req.Items {
		var p Product
		if err := tx.First(&p, it.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, badRequest("Product %d does not exist", it.ProductID)
			}
			return nil, err
		}
		if !p.IsActive {
			return nil, badRequest("Product '%s' is not available", p.Name)
		}
		res := tx.Model(&Product{}).
			Where("id = ? AND stock_quantity >= ?", p.ID, it.Quantity).
			Update("stock_quantity", gorm.Expr("stock_quantity - ?", it.Quantity))
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, badRequest("Insufficient stock for '%s': available %d, requested %d", p.Name, p.StockQuantity, it.Quantity)
		}

		unit := p.Price
		if it.UnitPrice != nil {
			unit = *it.UnitPrice
		}
		line := unit.Mul(decimal.NewFromInt(int64(it.Quantity))).Sub(it.DiscountAmount)
		if line.IsNegative() {
			return nil, badRequest("Discount on '%s' exceeds the line total", p.Name)
		}
		sale.Subtotal = sale.Subtotal.Add(line)
		sale.Items = append(sale.Items, SaleItem{
			ProductID:      p.ID,
			Quantity:       it.Quantity,
			UnitPrice:      unit,
			TotalPrice:     line,
			DiscountAmount: it.DiscountAmount,
		})
	}
	sale.TotalAmount = sale.Subtotal.Add(sale.TaxAmount).Sub(sale.DiscountAmount)
	if sale.TotalAmount.IsNegative() {
		return nil, badRequest("Discount exceeds the sale total")
	}

	number, err := nextSaleNumber(tx, now)
	if err != nil {
		return nil, err
	}
	sale.SaleNumber = number
	if err := tx.Create(sale).Error; err != nil {
		return nil, err
	}

	for _, it := range sale.Items {
		if err := tx.Create(&StockMovement{
			ProductID:     it.ProductID,
			MovementType:  MovementOut,
			Quantity:      it.Quantity,
			ReferenceType: ReferenceSale,
			ReferenceID:   &sale.ID,
			Notes:         "Sale " + sale.SaleNumber,
			UserID:        userID,
		}).Error; err != nil {
			return nil, err
		}
	}

	if err := tx.Create(&Transaction{
		TransactionNumber: "TXN-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12]),
		SaleID:            &sale.ID,
		TransactionType:   TransactionSale,
		Amount:            sale.TotalAmount,
		PaymentMethod:     sale.PaymentMethod,
		Status:            StatusCompleted,
	}).Error; err != nil {
		return nil, err
	}

	if sale.CustomerID != nil {
		err := tx.Model(&Customer{}).Where("id = ?", *sale.CustomerID).Updates(map[string]any{
			"total_spent":        gorm.Expr("total_spent + ?", sale.TotalAmount),
			"total_orders":       gorm.Expr("total_orders + 1"),
			"loyalty_points":     gorm.Expr("loyalty_points + ?", LoyaltyPoints(sale.TotalAmount)),
			"last_purchase_date": now,
		}).Error
		if err != nil {
			return nil, err
		}
	}
	return sale, nil
}

// LoyaltyPoints awards one point per whole currency unit spent.
func LoyaltyPoints(total decimal.Decimal) int64 {
	if total.IsNegative() {
		return 0
	}
	return total.IntPart()
}

// nextSaleNumber returns SALE-YYYYMMDD-NNNN, numbering sales per day.
func nextSaleNumber(tx *gorm.DB, now time.Time) (string, error) {
	prefix := "SALE-" + now.Format("20060102") + "-"
	var count int64
	if err := tx.Model(&Sale{}).Where("sale_number LIKE ?", prefix+"%").Count(&count).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}

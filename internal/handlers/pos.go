package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/auth"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/httpx"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/cache"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/models"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/services"
)

// POSHandler serves the till: product grid, checkout, receipts and held carts.
type POSHandler struct {
	db       *gorm.DB
	sales    *services.SaleService
	receipts *services.ReceiptService
	holds    *services.HoldService
	gate     Authorizer
	taxRate  TaxRateFunc
}

func NewPOSHandler(conn *gorm.DB, sales *services.SaleService, receipts *services.ReceiptService,
	holds *services.HoldService, g Authorizer, taxRate TaxRateFunc) *POSHandler {
	return &POSHandler{db: conn, sales: sales, receipts: receipts, holds: holds, gate: g, taxRate: taxRate}
}

type posProduct struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Barcode       *string    `json:"barcode"`
	SKU           *string    `json:"sku"`
	Price         float64    `json:"price"`
	StockQuantity int        `json:"stock_quantity"`
	ImageURL      *string    `json:"image_url"`
	CategoryID    *uuid.UUID `json:"category_id"`
}

func (h *POSHandler) Products(w http.ResponseWriter, r *http.Request) {
	categoryID, err := queryUUID(r, "category_id")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	limit := httpx.QueryInt(r, "limit", 50, 1, 200)
	q := h.db.WithContext(r.Context()).Where("is_active = ?", true)
	if categoryID != nil {
		q = q.Where("category_id = ?", *categoryID)
	}
	if s := r.URL.Query().Get("search"); strings.TrimSpace(s) != "" {
		p := likePattern(s)
		q = q.Where("LOWER(name) LIKE ? OR LOWER(barcode) LIKE ? OR LOWER(sku) LIKE ?", p, p, p)
	}
	var products []models.Product
	if err := q.Order("name").Limit(limit).Find(&products).Error; err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	out := make([]posProduct, 0, len(products))
	for _, p := range products {
		out = append(out, posProduct{
			ID:            p.ID,
			Name:          p.Name,
			Barcode:       p.Barcode,
			SKU:           p.SKU,
			Price:         models.Money(p.Price),
			StockQuantity: p.StockQuantity,
			ImageURL:      p.ImageURL,
			CategoryID:    p.CategoryID,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": out})
}

type cartItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type checkoutRequest struct {
	Items          []cartItem           `json:"items"`
	DiscountAmount decimal.Decimal      `json:"discount_amount"`
	DiscountCode   *string              `json:"discount_code"`
	TaxRate        *decimal.Decimal     `json:"tax_rate"`
	PaymentMethod  models.PaymentMethod `json:"payment_method"`
	CashReceived   *decimal.Decimal     `json:"cash_received"`
	CustomerName   string               `json:"customer_name"`
	CustomerPhone  string               `json:"customer_phone"`
	CustomerEmail  string               `json:"customer_email"`
	Notes          string               `json:"notes"`
}

type checkoutResponse struct {
	SaleID         uuid.UUID            `json:"sale_id"`
	ReceiptNumber  string               `json:"receipt_number"`
	Subtotal       float64              `json:"subtotal"`
	DiscountAmount float64              `json:"discount_amount"`
	TaxAmount      float64              `json:"tax_amount"`
	TotalAmount    float64              `json:"total_amount"`
	PaymentMethod  models.PaymentMethod `json:"payment_method"`
	CashReceived   *float64             `json:"cash_received"`
	ChangeAmount   float64              `json:"change_amount"`
	ItemsCount     int                  `json:"items_count"`
	ReceiptURL     string               `json:"receipt_url"`
	CreatedAt      time.Time            `json:"created_at"`
}

func (h *POSHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	in := services.SaleInput{
		UserID:         uid,
		DiscountAmount: req.DiscountAmount,
		DiscountCode:   req.DiscountCode,
		TaxRate:        h.taxRate(r.Context()),
		Payment:        services.PaymentInput{Method: req.PaymentMethod, CashReceived: req.CashReceived},
		CustomerName:   req.CustomerName,
		CustomerPhone:  req.CustomerPhone,
		CustomerEmail:  req.CustomerEmail,
		Notes:          req.Notes,
		MovementReason: "POS checkout",
	}
	if req.TaxRate != nil {
		in.TaxRate = *req.TaxRate
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, services.LineInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	sale, err := h.sales.Create(r.Context(), in)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	resp := checkoutResponse{
		SaleID:         sale.ID,
		ReceiptNumber:  sale.ReceiptNumber,
		Subtotal:       models.Money(sale.Subtotal),
		DiscountAmount: models.Money(sale.DiscountAmount),
		TaxAmount:      models.Money(sale.TaxAmount),
		TotalAmount:    models.Money(sale.TotalAmount),
		ItemsCount:     sale.ItemCount(),
		ReceiptURL:     "/api/v1/pos/receipt/" + sale.ID.String(),
		CreatedAt:      sale.CreatedAt,
	}
	if len(sale.Payments) > 0 {
		pay := sale.Payments[0].Response()
		resp.PaymentMethod = pay.Method
		resp.CashReceived = pay.CashReceived
		resp.ChangeAmount = pay.ChangeAmount
	}
	httpx.JSON(w, http.StatusCreated, resp)
}

func (h *POSHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	sale, err := loadVisibleSale(r, h.sales, h.gate, "sale_id")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	writeReceipt(w, r, h.receipts.Build(r.Context(), sale))
}

type holdRequest struct {
	Items        []cartItem `json:"items"`
	CustomerName string     `json:"customer_name"`
	Notes        string     `json:"notes"`
}

func (h *POSHandler) Hold(w http.ResponseWriter, r *http.Request) {
	var req holdRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	in := services.HoldInput{UserID: uid, CustomerName: strings.TrimSpace(req.CustomerName), Notes: req.Notes}
	for _, it := range req.Items {
		in.Items = append(in.Items, cache.HeldItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	cart, err := h.holds.Create(r.Context(), in)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"hold_id":    cart.ID,
		"held_at":    cart.HeldAt,
		"expires_at": cart.ExpiresAt,
	})
}

func (h *POSHandler) ListHolds(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	carts, err := h.holds.List(r.Context(), uid)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, carts)
}

func (h *POSHandler) ResumeHold(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	cart, err := h.holds.Resume(r.Context(), uid, id)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cart)
}

func (h *POSHandler) DeleteHold(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	if err := h.holds.Delete(r.Context(), uid, id); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Held cart deleted")
}

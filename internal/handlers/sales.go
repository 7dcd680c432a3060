package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/auth"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/httpx"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/models"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/services"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/validation"
)

type SaleHandler struct {
	sales    *services.SaleService
	receipts *services.ReceiptService
	gate     Authorizer
	taxRate  TaxRateFunc
}

// TaxRateFunc returns the tax rate applied when a request omits one.
type TaxRateFunc func(ctx context.Context) decimal.Decimal

func NewSaleHandler(sales *services.SaleService, receipts *services.ReceiptService, g Authorizer, taxRate TaxRateFunc) *SaleHandler {
	return &SaleHandler{sales: sales, receipts: receipts, gate: g, taxRate: taxRate}
}

// seesAllSales is false for cashiers, who only see their own sales.
func seesAllSales(ctx context.Context, g Authorizer) bool {
	return g.HasRole(ctx, models.RoleManager)
}

// loadVisibleSale returns the sale when the caller may see it.
func loadVisibleSale(r *http.Request, sales *services.SaleService, g Authorizer, param string) (*models.Sale, error) {
	id, err := pathUUID(r, param)
	if err != nil {
		return nil, err
	}
	sale, err := sales.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	if sale.UserID != uid && !seesAllSales(r.Context(), g) {
		return nil, httpx.Forbidden("Not enough permissions to view this sale")
	}
	return sale, nil
}

func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	page := httpx.ParsePage(r, 20, 100)
	start, err := queryDate(r, "start_date")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	end, err := queryDate(r, "end_date")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if end != nil {
		next := end.AddDate(0, 0, 1)
		end = &next
	}
	userID, err := queryUUID(r, "user_id")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if !seesAllSales(r.Context(), h.gate) {
		uid, _ := auth.UserIDFromContext(r.Context())
		userID = &uid
	}
	status := models.SaleStatus(r.URL.Query().Get("status"))

	sales, total, err := h.sales.List(r.Context(), services.SaleFilter{
		Start:  start,
		End:    end,
		UserID: userID,
		Status: status,
		Page:   page,
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	items := make([]models.SaleResponse, 0, len(sales))
	for i := range sales {
		items = append(items, sales[i].Response())
	}
	httpx.JSON(w, http.StatusOK, httpx.NewPaginated(items, total, page))
}

type saleItemRequest struct {
	ProductID      uuid.UUID        `json:"product_id"`
	Quantity       int              `json:"quantity"`
	UnitPrice      *decimal.Decimal `json:"unit_price"`
	DiscountAmount decimal.Decimal  `json:"discount_amount"`
}

type paymentRequest struct {
	Method          models.PaymentMethod `json:"method"`
	Amount          *decimal.Decimal     `json:"amount"`
	CashReceived    *decimal.Decimal     `json:"cash_received"`
	CardLastFour    string               `json:"card_last_four"`
	CardBrand       string               `json:"card_brand"`
	ReferenceNumber string               `json:"reference_number"`
}

type saleRequest struct {
	Items          []saleItemRequest `json:"items"`
	DiscountAmount decimal.Decimal   `json:"discount_amount"`
	DiscountCode   *string           `json:"discount_code"`
	TaxRate        *decimal.Decimal  `json:"tax_rate"`
	Payment        paymentRequest    `json:"payment"`
	CustomerName   string            `json:"customer_name"`
	CustomerPhone  string            `json:"customer_phone"`
	CustomerEmail  string            `json:"customer_email"`
	Notes          string            `json:"notes"`
}

func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
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
		Payment: services.PaymentInput{
			Method:          req.Payment.Method,
			Amount:          req.Payment.Amount,
			CashReceived:    req.Payment.CashReceived,
			CardLastFour:    req.Payment.CardLastFour,
			CardBrand:       req.Payment.CardBrand,
			ReferenceNumber: req.Payment.ReferenceNumber,
		},
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		Notes:         req.Notes,
	}
	if req.TaxRate != nil {
		in.TaxRate = *req.TaxRate
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, services.LineInput{
			ProductID:      it.ProductID,
			Quantity:       it.Quantity,
			UnitPrice:      it.UnitPrice,
			DiscountAmount: it.DiscountAmount,
		})
	}
	sale, err := h.sales.Create(r.Context(), in)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sale.Response())
}

func (h *SaleHandler) Get(w http.ResponseWriter, r *http.Request) {
	sale, err := loadVisibleSale(r, h.sales, h.gate, "id")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale.Response())
}

func (h *SaleHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	sale, err := loadVisibleSale(r, h.sales, h.gate, "id")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	writeReceipt(w, r, h.receipts.Build(r.Context(), sale))
}

// writeReceipt renders JSON, or a PDF when format=pdf.
func writeReceipt(w http.ResponseWriter, r *http.Request, receipt *services.Receipt) {
	if !strings.EqualFold(r.URL.Query().Get("format"), "pdf") {
		httpx.JSON(w, http.StatusOK, receipt)
		return
	}
	pdf, err := services.RenderReceiptPDF(receipt)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", receipt.ReceiptNumber+".pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

type refundItemRequest struct {
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int       `json:"quantity"`
	Reason   string    `json:"reason"`
}

type refundRequest struct {
	Items  []refundItemRequest `json:"items"`
	Reason string              `json:"reason"`
}

func (h *SaleHandler) Refund(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var req refundRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
	}
	v := validation.Violations{}
	for i, it := range req.Items {
		validation.MinInt(fmt.Sprintf("items[%d].quantity", i), it.Quantity, 1, v)
	}
	if !v.Empty() {
		httpx.WriteError(w, r, httpx.Validation("Invalid refund request", v))
		return
	}

	uid, _ := auth.UserIDFromContext(r.Context())
	in := services.RefundInput{SaleID: id, UserID: uid, Reason: strings.TrimSpace(req.Reason)}
	for _, it := range req.Items {
		in.Items = append(in.Items, services.RefundLine{ItemID: it.ItemID, Quantity: it.Quantity, Reason: it.Reason})
	}
	res, err := h.sales.Refund(r.Context(), in)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"refund_amount": models.Money(res.RefundAmount),
		"status":        res.Status,
		"processed_at":  res.ProcessedAt,
	})
}

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/auth"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/httpx"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/db"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/models"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/search"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/validation"
)

type ProductHandler struct {
	db     *gorm.DB
	gate   Authorizer
	search *search.Service
}

func NewProductHandler(conn *gorm.DB, g Authorizer, s *search.Service) *ProductHandler {
	return &ProductHandler{db: conn, gate: g, search: s}
}

func (h *ProductHandler) showCost(r *http.Request) bool {
	return h.gate.HasRole(r.Context(), models.RoleManager)
}

func (h *ProductHandler) responses(r *http.Request, products []models.Product) []models.ProductResponse {
	cost := h.showCost(r)
	out := make([]models.ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, products[i].Response(cost))
	}
	return out
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page := httpx.ParsePage(r, 20, 100)
	categoryID, err := queryUUID(r, "category_id")
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	q := h.db.WithContext(r.Context()).Model(&models.Product{})
	if s := r.URL.Query().Get("search"); strings.TrimSpace(s) != "" {
		p := likePattern(s)
		q = q.Where("LOWER(name) LIKE ? OR LOWER(barcode) LIKE ? OR LOWER(sku) LIKE ?", p, p, p)
	}
	if categoryID != nil {
		q = q.Where("category_id = ?", *categoryID)
	}
	if low := httpx.QueryBool(r, "low_stock"); low != nil && *low {
		q = q.Where("stock_quantity <= min_stock_level")
	}
	active := true
	if a := httpx.QueryBool(r, "is_active"); a != nil {
		active = *a
	}
	q = q.Where("is_active = ?", active)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var products []models.Product
	if err := q.Preload("Category").Order("name").Offset(page.Offset()).Limit(page.PerPage).Find(&products).Error; err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.NewPaginated(h.responses(r, products), total, page))
}

func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		httpx.WriteError(w, r, httpx.Validation("Query parameter 'q' is required", nil))
		return
	}
	limit := httpx.QueryInt(r, "limit", 10, 1, 50)
	products, err := h.search.Products(r.Context(), q, limit)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	items := h.responses(r, products)
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total_results": len(items)})
}

func (h *ProductHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	page := httpx.ParsePage(r, 20, 100)
	q := h.db.WithContext(r.Context()).Model(&models.Product{}).
		Where("is_active = ? AND stock_quantity <= min_stock_level", true)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var products []models.Product
	if err := q.Preload("Category").Order("stock_quantity ASC, name").Offset(page.Offset()).Limit(page.PerPage).Find(&products).Error; err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.NewPaginated(h.responses(r, products), total, page))
}

type productRequest struct {
	Name          *string          `json:"name"`
	Barcode       *string          `json:"barcode"`
	SKU           *string          `json:"sku"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	Cost          *decimal.Decimal `json:"cost"`
	StockQuantity *int             `json:"stock_quantity"`
	MinStockLevel *int             `json:"min_stock_level"`
	MaxStockLevel *int             `json:"max_stock_level"`
	CategoryID    *uuid.UUID       `json:"category_id"`
	ImageURL      *string          `json:"image_url"`
	IsActive      *bool            `json:"is_active"`
}

// normalizeCode trims a barcode or sku; blank values become nil so the
// unique index ignores them.
func normalizeCode(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func (req *productRequest) validate(creating bool) validation.Violations {
	v := validation.Violations{}
	if creating || req.Name != nil {
		name := ""
		if req.Name != nil {
			name = strings.TrimSpace(*req.Name)
		}
		validation.Length("name", name, 1, 200, v)
	}
	if creating && req.Price == nil {
		v.Add("price", "required")
	}
	if req.Price != nil {
		validation.PositiveDecimal("price", *req.Price, v)
	}
	if req.Cost != nil {
		validation.NonNegativeDecimal("cost", *req.Cost, v)
	}
	if req.StockQuantity != nil {
		validation.MinInt("stock_quantity", *req.StockQuantity, 0, v)
	}
	if req.MinStockLevel != nil {
		validation.MinInt("min_stock_level", *req.MinStockLevel, 0, v)
	}
	if req.MaxStockLevel != nil {
		validation.MinInt("max_stock_level", *req.MaxStockLevel, 0, v)
	}
	return v
}

// checkCodes returns 409 when barcode or sku belong to another product.
func (h *ProductHandler) checkCodes(r *http.Request, barcode, sku *string, exclude uuid.UUID) error {
	exists := func(col, val string) bool {
		var n int64
		h.db.WithContext(r.Context()).Model(&models.Product{}).
			Where(col+" = ? AND id <> ?", val, exclude).Count(&n)
		return n > 0
	}
	if barcode != nil && exists("barcode", *barcode) {
		return httpx.Conflict(fmt.Sprintf("Product with barcode '%s' already exists", *barcode))
	}
	if sku != nil && exists("sku", *sku) {
		return httpx.Conflict(fmt.Sprintf("Product with SKU '%s' already exists", *sku))
	}
	return nil
}

func (h *ProductHandler) checkCategory(r *http.Request, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	var n int64
	h.db.WithContext(r.Context()).Model(&models.Category{}).Where("id = ?", *id).Count(&n)
	if n == 0 {
		return httpx.NotFound("Category", *id)
	}
	return nil
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if v := req.validate(true); !v.Empty() {
		httpx.WriteError(w, r, httpx.Validation("Invalid product data", v))
		return
	}
	barcode, sku := normalizeCode(req.Barcode), normalizeCode(req.SKU)
	if err := h.checkCodes(r, barcode, sku, uuid.Nil); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := h.checkCategory(r, req.CategoryID); err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	p := models.Product{
		Name:          strings.TrimSpace(*req.Name),
		Barcode:       barcode,
		SKU:           sku,
		Price:         *req.Price,
		MinStockLevel: models.DefaultMinStockLevel,
		MaxStockLevel: req.MaxStockLevel,
		CategoryID:    req.CategoryID,
		ImageURL:      req.ImageURL,
		IsActive:      req.IsActive == nil || *req.IsActive,
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Cost != nil {
		p.Cost = *req.Cost
	}
	if req.StockQuantity != nil {
		p.StockQuantity = *req.StockQuantity
	}
	if req.MinStockLevel != nil {
		p.MinStockLevel = *req.MinStockLevel
	}
	if err := h.db.WithContext(r.Context()).Create(&p).Error; err != nil {
		if db.IsUniqueViolation(err) {
			httpx.WriteError(w, r, httpx.Conflict("Product with this barcode or SKU already exists"))
			return
		}
		httpx.WriteError(w, r, err)
		return
	}
	h.search.Sync(r.Context(), &p)
	httpx.JSON(w, http.StatusCreated, p.Response(true))
}

func (h *ProductHandler) load(r *http.Request) (*models.Product, error) {
	id, err := pathUUID(r, "id")
	if err != nil {
		return nil, err
	}
	var p models.Product
	err = h.db.WithContext(r.Context()).Preload("Category").First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, httpx.NotFound("Product", id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.load(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p.Response(h.showCost(r)))
}

// Update applies a partial update. A stock change is recorded as an
// adjustment movement.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, err := h.load(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var req productRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if v := req.validate(false); !v.Empty() {
		httpx.WriteError(w, r, httpx.Validation("Invalid product data", v))
		return
	}

	updates := map[string]any{}
	var barcode, sku *string
	if req.Barcode != nil {
		barcode = normalizeCode(req.Barcode)
		updates["barcode"] = barcode
	}
	if req.SKU != nil {
		sku = normalizeCode(req.SKU)
		updates["sku"] = sku
	}
	if err := h.checkCodes(r, barcode, sku, p.ID); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := h.checkCategory(r, req.CategoryID); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Cost != nil {
		updates["cost"] = *req.Cost
	}
	if req.MinStockLevel != nil {
		updates["min_stock_level"] = *req.MinStockLevel
	}
	if req.MaxStockLevel != nil {
		updates["max_stock_level"] = *req.MaxStockLevel
	}
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	stockChanged := req.StockQuantity != nil && *req.StockQuantity != p.StockQuantity
	if stockChanged {
		updates["stock_quantity"] = *req.StockQuantity
	}

	uid, _ := auth.UserIDFromContext(r.Context())
	err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		if len(updates) == 0 {
			return nil
		}
		updates["updated_at"] = time.Now()
		if err := tx.Model(p).Updates(updates).Error; err != nil {
			return err
		}
		if !stockChanged {
			return nil
		}
		diff := *req.StockQuantity - p.StockQuantity
		if diff < 0 {
			diff = -diff
		}
		ref := p.ID
		return tx.Create(&models.StockMovement{
			ProductID:        p.ID,
			UserID:           &uid,
			Type:             models.MovementAdjustment,
			Quantity:         diff,
			PreviousQuantity: p.StockQuantity,
			NewQuantity:      *req.StockQuantity,
			ReferenceType:    models.ReferenceAdjustment,
			ReferenceID:      &ref,
			Reason:           "Manual stock adjustment",
		}).Error
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			httpx.WriteError(w, r, httpx.Conflict("Product with this barcode or SKU already exists"))
			return
		}
		httpx.WriteError(w, r, err)
		return
	}

	updated, err := h.load(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	h.search.Sync(r.Context(), updated)
	httpx.JSON(w, http.StatusOK, updated.Response(h.showCost(r)))
}

// Delete deactivates the product; sales keep referencing it.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, err := h.load(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := h.db.WithContext(r.Context()).Model(p).Update("is_active", false).Error; err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	p.IsActive = false
	h.search.Sync(r.Context(), p)
	httpx.Message(w, http.StatusOK, "Product deleted successfully")
}

// Movements lists the stock ledger of a product, newest first.
func (h *ProductHandler) Movements(w http.ResponseWriter, r *http.Request) {
	p, err := h.load(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	page := httpx.ParsePage(r, 20, 100)
	q := h.db.WithContext(r.Context()).Model(&models.StockMovement{}).Where("product_id = ?", p.ID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var movements []models.StockMovement
	if err := q.Order("created_at DESC").Offset(page.Offset()).Limit(page.PerPage).Find(&movements).Error; err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	items := make([]models.StockMovementResponse, 0, len(movements))
	for i := range movements {
		items = append(items, movements[i].Response())
	}
	httpx.JSON(w, http.StatusOK, httpx.NewPaginated(items, total, page))
}

func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	var categories []models.Category
	q := h.db.WithContext(r.Context())
	if all := httpx.QueryBool(r, "include_inactive"); all == nil || !*all {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Order("name").Find(&categories).Error; err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}
	httpx.JSON(w, http.StatusOK, categories)
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

func (h *ProductHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	v := validation.Violations{}
	validation.Length("name", req.Name, 1, 100, v)
	if !v.Empty() {
		httpx.WriteError(w, r, httpx.Validation("Invalid category data", v))
		return
	}
	c := models.Category{Name: req.Name, Description: req.Description, IsActive: req.IsActive == nil || *req.IsActive}
	if err := h.db.WithContext(r.Context()).Create(&c).Error; err != nil {
		if db.IsUniqueViolation(err) {
			httpx.WriteError(w, r, httpx.Conflict(fmt.Sprintf("Category '%s' already exists", c.Name)))
			return
		}
		httpx.WriteError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

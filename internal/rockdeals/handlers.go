package rockdeals

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/httpx"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/db"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/validation"
)

// Handler serves the RockDeals API.
type Handler struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

func NewHandler(conn *gorm.DB, log *zap.Logger) *Handler {
	return &Handler{db: conn, log: log, now: time.Now}
}

// apiError carries the status and the message of an expected failure.
type apiError struct {
	status int
	msg    string
}

func (e *apiError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &apiError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

func notFound(resource string, id uint) error {
	return &apiError{status: http.StatusNotFound, msg: fmt.Sprintf("%s %d not found", resource, id)}
}

func conflict(format string, args ...any) error {
	return &apiError{status: http.StatusConflict, msg: fmt.Sprintf(format, args...)}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	httpx.JSON(w, status, map[string]string{"error": msg})
}

// fail writes err as {"error": msg}. Unexpected errors are logged and
// returned with 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var ae *apiError
	if errors.As(err, &ae) {
		writeError(w, ae.status, ae.msg)
		return
	}
	h.log.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	writeError(w, http.StatusInternalServerError, err.Error())
}

// InternalError is the panic handler body.
func InternalError(w http.ResponseWriter, _ *http.Request, _ error) {
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func decode(r *http.Request, dst any) error {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		var ae *httpx.AppError
		if errors.As(err, &ae) {
			return badRequest("%s", ae.Message)
		}
		return err
	}
	return nil
}

func pathID(r *http.Request) (uint, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("Invalid id '%s'", raw)
	}
	return uint(id), nil
}

// describe turns validation violations into a single message.
func describe(prefix string, v validation.Violations) error {
	parts := make([]string, 0, len(v))
	for _, field := range slices.Sorted(maps.Keys(v)) {
		parts = append(parts, field+" "+strings.ReplaceAll(v[field], "_", " "))
	}
	return badRequest("%s: %s", prefix, strings.Join(parts, ", "))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := db.Ping(ctx, h.db); err != nil {
		h.log.Error("health: database unreachable", zap.Error(err))
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "database": "disconnected"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "healthy", "database": "connected"})
}

// Products

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := h.db.WithContext(r.Context()).Preload("Category").Preload("Supplier")
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			h.fail(w, r, badRequest("Invalid category_id '%s'", raw))
			return
		}
		q = q.Where("category_id = ?", id)
	}
	if s := strings.TrimSpace(r.URL.Query().Get("search")); s != "" {
		p := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ? OR LOWER(barcode) LIKE ?", p, p, p)
	}
	var products []Product
	if err := q.Order("id").Find(&products).Error; err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, products[i].Response())
	}
	httpx.JSON(w, http.StatusOK, out)
}

type productRequest struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	SKU           *string          `json:"sku"`
	Barcode       *string          `json:"barcode"`
	CategoryID    *uint            `json:"category_id"`
	SupplierID    *uint            `json:"supplier_id"`
	Price         *decimal.Decimal `json:"price"`
	CostPrice     *decimal.Decimal `json:"cost_price"`
	StockQuantity *int             `json:"stock_quantity"`
	MinStockLevel *int             `json:"min_stock_level"`
	ImageURL      *string          `json:"image_url"`
	IsActive      *bool            `json:"is_active"`
}

func (req *productRequest) validate(creating bool) validation.Violations {
	v := validation.Violations{}
	str := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	if creating || req.Name != nil {
		validation.Length("name", str(req.Name), 1, 200, v)
	}
	if creating || req.SKU != nil {
		validation.Length("sku", str(req.SKU), 1, 100, v)
	}
	if creating && req.Price == nil {
		v.Add("price", "required")
	}
	if req.Price != nil {
		validation.PositiveDecimal("price", *req.Price, v)
	}
	if req.CostPrice != nil {
		validation.NonNegativeDecimal("cost_price", *req.CostPrice, v)
	}
	if req.StockQuantity != nil {
		validation.MinInt("stock_quantity", *req.StockQuantity, 0, v)
	}
	if req.MinStockLevel != nil {
		validation.MinInt("min_stock_level", *req.MinStockLevel, 0, v)
	}
	return v
}

// checkProduct verifies unique codes and the referenced category and supplier.
func checkProduct(conn *gorm.DB, sku, barcode *string, categoryID, supplierID *uint, exclude uint) error {
	taken := func(col, val string) bool {
		var n int64
		conn.Model(&Product{}).Where(col+" = ? AND id <> ?", val, exclude).Count(&n)
		return n > 0
	}
	if sku != nil && taken("sku", *sku) {
		return conflict("Product with SKU '%s' already exists", *sku)
	}
	if barcode != nil && taken("barcode", *barcode) {
		return conflict("Product with barcode '%s' already exists", *barcode)
	}
	if categoryID != nil {
		var n int64
		conn.Model(&Category{}).Where("id = ?", *categoryID).Count(&n)
		if n == 0 {
			return badRequest("Category %d does not exist", *categoryID)
		}
	}
	if supplierID != nil {
		var n int64
		conn.Model(&Supplier{}).Where("id = ?", *supplierID).Count(&n)
		if n == 0 {
			return badRequest("Supplier %d does not exist", *supplierID)
		}
	}
	return nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if v := req.validate(true); !v.Empty() {
		h.fail(w, r, describe("Invalid product", v))
		return
	}
	sku, barcode := trimmed(req.SKU), trimmed(req.Barcode)
	if err := checkProduct(h.db.WithContext(r.Context()), sku, barcode, req.CategoryID, req.SupplierID, 0); err != nil {
		h.fail(w, r, err)
		return
	}

	p := Product{
		Name:          strings.TrimSpace(*req.Name),
		SKU:           *sku,
		Barcode:       barcode,
		CategoryID:    req.CategoryID,
		SupplierID:    req.SupplierID,
		Price:         *req.Price,
		MinStockLevel: DefaultMinStock,
		ImageURL:      req.ImageURL,
		IsActive:      req.IsActive == nil || *req.IsActive,
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.CostPrice != nil {
		p.CostPrice = *req.CostPrice
	}
	if req.StockQuantity != nil {
		p.StockQuantity = *req.StockQuantity
	}
	if req.MinStockLevel != nil {
		p.MinStockLevel = *req.MinStockLevel
	}
	if err := h.db.WithContext(r.Context()).Create(&p).Error; err != nil {
		if db.IsUniqueViolation(err) {
			h.fail(w, r, conflict("Product with this SKU or barcode already exists"))
			return
		}
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"message": "Product created successfully", "id": p.ID})
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req productRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if v := req.validate(false); !v.Empty() {
		h.fail(w, r, describe("Invalid product", v))
		return
	}

	err = h.db.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var p Product
		if err := tx.First(&p, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("Product", id)
			}
			return err
		}
		sku, barcode := trimmed(req.SKU), trimmed(req.Barcode)
		if err := checkProduct(tx, sku, barcode, req.CategoryID, req.SupplierID, id); err != nil {
			return err
		}
		updates := map[string]any{}
		if req.Name != nil {
			updates["name"] = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			updates["description"] = *req.Description
		}
		if sku != nil {
			updates["sku"] = *sku
		}
		if req.Barcode != nil {
			updates["barcode"] = barcode
		}
		if req.CategoryID != nil {
			updates["category_id"] = *req.CategoryID
		}
		if req.SupplierID != nil {
			updates["supplier_id"] = *req.SupplierID
		}
		if req.Price != nil {
			updates["price"] = *req.Price
		}
		if req.CostPrice != nil {
			updates["cost_price"] = *req.CostPrice
		}
		if req.MinStockLevel != nil {
			updates["min_stock_level"] = *req.MinStockLevel
		}
		if req.ImageURL != nil {
			updates["image_url"] = *req.ImageURL
		}
		if req.IsActive != nil {
			updates["is_active"] = *req.IsActive
		}
		if req.StockQuantity != nil && *req.StockQuantity != p.StockQuantity {
			updates["stock_quantity"] = *req.StockQuantity
			diff := *req.StockQuantity - p.StockQuantity
			if err := tx.Create(&StockMovement{
				ProductID:     p.ID,
				MovementType:  MovementAdjustment,
				Quantity:      diff,
				ReferenceType: ReferenceAdjustment,
				Notes:         "Manual stock update",
				UserID:        DefaultUserID,
			}).Error; err != nil {
				return err
			}
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&p).Updates(updates).Error
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			err = conflict("Product with this SKU or barcode already exists")
		}
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Product updated successfully"})
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res := h.db.WithContext(r.Context()).Delete(&Product{}, id)
	if res.Error != nil {
		h.fail(w, r, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		h.fail(w, r, notFound("Product", id))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Product deleted successfully"})
}

// Customers

func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	var customers []Customer
	if err := h.db.WithContext(r.Context()).Order("id").Find(&customers).Error; err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]CustomerResponse, 0, len(customers))
	for i := range customers {
		out = append(out, customers[i].Response())
	}
	httpx.JSON(w, http.StatusOK, out)
}

type customerRequest struct {
	// Name is split into first and last name when those are missing.
	Name      string  `json:"name"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     *string `json:"email"`
	Phone     string  `json:"phone"`
	Address   string  `json:"address"`
	City      string  `json:"city"`
	Country   string  `json:"country"`
}

func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.FirstName == "" && req.LastName == "" {
		req.FirstName, req.LastName, _ = strings.Cut(strings.TrimSpace(req.Name), " ")
	}
	c := Customer{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     trimmed(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		Address:   req.Address,
		City:      req.City,
		Country:   req.Country,
		IsActive:  true,
	}
	v := validation.Violations{}
	validation.Required("first_name", c.FirstName, v)
	if c.Email != nil {
		*c.Email = strings.ToLower(*c.Email)
		validation.Email("email", *c.Email, v)
	}
	if !v.Empty() {
		h.fail(w, r, describe("Invalid customer", v))
		return
	}
	if err := h.db.WithContext(r.Context()).Create(&c).Error; err != nil {
		if db.IsUniqueViolation(err) {
			h.fail(w, r, conflict("Customer with email '%s' already exists", *c.Email))
			return
		}
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"message": "Customer created successfully", "id": c.ID})
}

// Categories

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	var categories []Category
	if err := h.db.WithContext(r.Context()).Order("id").Find(&categories).Error; err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, categories)
}

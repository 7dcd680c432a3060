package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/httpx"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/models"
)

// Periods accepted by the dashboard.
var Periods = []string{"today", "yesterday", "week", "month", "year"}

// GroupBys accepted by the sales report.
var GroupBys = []string{"day", "week", "month"}

// ReportService runs the aggregate report queries with sqlx over the gorm
// connection pool.
type ReportService struct {
	db  *gorm.DB
	x   *sqlx.DB
	now func() time.Time
}

func NewReportService(conn *gorm.DB) (*ReportService, error) {
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("report db: %w", err)
	}
	driver := "sqlite3"
	if conn.Dialector.Name() == "postgres" {
		driver = "pgx"
	}
	return &ReportService{db: conn, x: sqlx.NewDb(sqlDB, driver), now: time.Now}, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// PeriodRange returns [start, end) for a dashboard period. Multi-day periods
// end with today included.
func PeriodRange(period string, now time.Time) (time.Time, time.Time, error) {
	today := startOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)
	switch period {
	case "today":
		return today, tomorrow, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), today, nil
	case "week":
		return today.AddDate(0, 0, -6), tomorrow, nil
	case "month":
		return today.AddDate(0, 0, -29), tomorrow, nil
	case "year":
		return today.AddDate(0, 0, -364), tomorrow, nil
	}
	return time.Time{}, time.Time{}, httpx.Validation(fmt.Sprintf("Unknown period '%s'", period), map[string]any{"allowed": Periods})
}

// ChangePercentage compares current with previous: 100 when previous is zero
// and current is not, 0 when both are zero.
func ChangePercentage(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		if current.IsPositive() {
			return 100
		}
		return 0
	}
	return current.Sub(previous).Div(previous).Mul(hundred).Round(2).InexactFloat64()
}

type salesTotals struct {
	Count    int64           `db:"count"`
	Total    decimal.Decimal `db:"total"`
	Tax      decimal.Decimal `db:"tax"`
	Discount decimal.Decimal `db:"discount"`
}

func (s *ReportService) salesTotals(ctx context.Context, start, end time.Time) (salesTotals, error) {
	var out salesTotals
	q := s.x.Rebind(`
		SELECT COUNT(*) AS count,
		       COALESCE(SUM(total_amount), 0) AS total,
		       COALESCE(SUM(tax_amount), 0) AS tax,
		       COALESCE(SUM(discount_amount), 0) AS discount
		FROM sales
		WHERE status = ? AND created_at >= ? AND created_at < ?`)
	if err := s.x.GetContext(ctx, &out, q, models.SaleStatusCompleted, start, end); err != nil {
		return out, fmt.Errorf("sales totals: %w", err)
	}
	return out, nil
}

func average(total decimal.Decimal, count int64) float64 {
	if count == 0 {
		return 0
	}
	return models.Money(total.Div(decimal.NewFromInt(count)))
}

// TopProduct is a product ranked by revenue.
type TopProduct struct {
	ProductID   uuid.UUID       `db:"product_id" json:"product_id"`
	ProductName string          `db:"product_name" json:"product_name"`
	Quantity    int64           `db:"quantity" json:"quantity"`
	RevenueDec  decimal.Decimal `db:"revenue" json:"-"`
	Revenue     float64         `db:"-" json:"revenue"`
}

func (s *ReportService) topProducts(ctx context.Context, start, end time.Time, limit int) ([]TopProduct, error) {
	out := []TopProduct{}
	q := s.x.Rebind(`
		SELECT si.product_id, si.product_name,
		       SUM(si.quantity) AS quantity,
		       COALESCE(SUM(si.total_price), 0) AS revenue
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		WHERE s.status = ? AND s.created_at >= ? AND s.created_at < ?
		GROUP BY si.product_id, si.product_name
		ORDER BY revenue DESC
		LIMIT ?`)
	if err := s.x.SelectContext(ctx, &out, q, models.SaleStatusCompleted, start, end, limit); err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	for i := range out {
		out[i].Revenue = models.Money(out[i].RevenueDec)
	}
	return out, nil
}

// MethodTotal aggregates payments by method.
type MethodTotal struct {
	Method   string          `db:"method" json:"method"`
	Count    int64           `db:"count" json:"count"`
	TotalDec decimal.Decimal `db:"total" json:"-"`
	Total    float64         `db:"-" json:"total"`
}

func (s *ReportService) paymentMethods(ctx context.Context, start, end time.Time) ([]MethodTotal, error) {
	out := []MethodTotal{}
	q := s.x.Rebind(`
		SELECT p.method, COUNT(*) AS count, COALESCE(SUM(p.amount), 0) AS total
		FROM payments p
		JOIN sales s ON s.id = p.sale_id
		WHERE s.status = ? AND p.status = ? AND p.method <> ?
		  AND s.created_at >= ? AND s.created_at < ?
		GROUP BY p.method
		ORDER BY total DESC`)
	err := s.x.SelectContext(ctx, &out, q,
		models.SaleStatusCompleted, models.PaymentStatusCompleted, models.PaymentMethodRefund, start, end)
	if err != nil {
		return nil, fmt.Errorf("payment methods: %w", err)
	}
	for i := range out {
		out[i].Total = models.Money(out[i].TotalDec)
	}
	return out, nil
}

type DashboardSales struct {
	Count            int64   `json:"count"`
	Total            float64 `json:"total"`
	Average          float64 `json:"average"`
	ChangePercentage float64 `json:"change_percentage"`
}

type DashboardProducts struct {
	Active   int64 `json:"active"`
	LowStock int64 `json:"low_stock"`
}

type Dashboard struct {
	Period         string            `json:"period"`
	StartDate      time.Time         `json:"start_date"`
	EndDate        time.Time         `json:"end_date"`
	Sales          DashboardSales    `json:"sales"`
	Products       DashboardProducts `json:"products"`
	TopProducts    []TopProduct      `json:"top_products"`
	PaymentMethods []MethodTotal     `json:"payment_methods"`
}

// Dashboard summarises a period and compares it with the one before.
func (s *ReportService) Dashboard(ctx context.Context, period string) (*Dashboard, error) {
	start, end, err := PeriodRange(period, s.now())
	if err != nil {
		return nil, err
	}
	cur, err := s.salesTotals(ctx, start, end)
	if err != nil {
		return nil, err
	}
	prev, err := s.salesTotals(ctx, start.Add(-end.Sub(start)), start)
	if err != nil {
		return nil, err
	}

	var products DashboardProducts
	q := s.x.Rebind(`
		SELECT COUNT(*) AS active,
		       COALESCE(SUM(CASE WHEN stock_quantity <= min_stock_level THEN 1 ELSE 0 END), 0) AS low_stock
		FROM products WHERE is_active = ?`)
	row := s.x.QueryRowxContext(ctx, q, true)
	if err := row.Scan(&products.Active, &products.LowStock); err != nil {
		return nil, fmt.Errorf("product counts: %w", err)
	}

	top, err := s.topProducts(ctx, start, end, 5)
	if err != nil {
		return nil, err
	}
	methods, err := s.paymentMethods(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		Period:    period,
		StartDate: start,
		EndDate:   end,
		Sales: DashboardSales{
			Count:            cur.Count,
			Total:            models.Money(cur.Total),
			Average:          average(cur.Total, cur.Count),
			ChangePercentage: ChangePercentage(cur.Total, prev.Total),
		},
		Products:       products,
		TopProducts:    top,
		PaymentMethods: methods,
	}, nil
}

type SalesSummary struct {
	Count    int64   `json:"count"`
	Total    float64 `json:"total"`
	Average  float64 `json:"average"`
	Tax      float64 `json:"tax"`
	Discount float64 `json:"discount"`
}

type SalesBucket struct {
	Period string  `json:"period"`
	Count  int64   `json:"count"`
	Total  float64 `json:"total"`
}

type TopCashier struct {
	UserID    uuid.UUID       `db:"user_id" json:"user_id"`
	Username  string          `db:"username" json:"username"`
	FirstName string          `db:"first_name" json:"-"`
	LastName  string          `db:"last_name" json:"-"`
	FullName  string          `db:"-" json:"full_name"`
	Count     int64           `db:"count" json:"count"`
	TotalDec  decimal.Decimal `db:"total" json:"-"`
	Total     float64         `db:"-" json:"total"`
}

type SalesReport struct {
	StartDate   time.Time     `json:"start_date"`
	EndDate     time.Time     `json:"end_date"`
	GroupBy     string        `json:"group_by"`
	Summary     SalesSummary  `json:"summary"`
	Breakdown   []SalesBucket `json:"breakdown"`
	TopProducts []TopProduct  `json:"top_products"`
	TopCashiers []TopCashier  `json:"top_cashiers"`
}

// BucketKey labels t for a group_by: 2006-01-02 for day, the Monday of the
// week for week, 2006-01 for month.
func BucketKey(t time.Time, groupBy string) string {
	switch groupBy {
	case "week":
		offset := (int(t.Weekday()) + 6) % 7
		return startOfDay(t).AddDate(0, 0, -offset).Format("2006-01-02")
	case "month":
		return t.Format("2006-01")
	}
	return t.Format("2006-01-02")
}

// SalesReport aggregates completed sales in [start, end).
func (s *ReportService) SalesReport(ctx context.Context, start, end time.Time, groupBy string) (*SalesReport, error) {
	totals, err := s.salesTotals(ctx, start, end)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		CreatedAt time.Time       `db:"created_at"`
		Total     decimal.Decimal `db:"total_amount"`
	}
	q := s.x.Rebind(`
		SELECT created_at, total_amount FROM sales
		WHERE status = ? AND created_at >= ? AND created_at < ?`)
	if err := s.x.SelectContext(ctx, &rows, q, models.SaleStatusCompleted, start, end); err != nil {
		return nil, fmt.Errorf("sales breakdown: %w", err)
	}
	buckets := map[string]*SalesBucket{}
	sums := map[string]decimal.Decimal{}
	for _, r := range rows {
		key := BucketKey(r.CreatedAt.In(start.Location()), groupBy)
		b, ok := buckets[key]
		if !ok {
			b = &SalesBucket{Period: key}
			buckets[key] = b
		}
		b.Count++
		sums[key] = sums[key].Add(r.Total)
	}
	breakdown := make([]SalesBucket, 0, len(buckets))
	for key, b := range buckets {
		b.Total = models.Money(sums[key])
		breakdown = append(breakdown, *b)
	}
	sort.Slice(breakdown, func(i, j int) bool { return breakdown[i].Period < breakdown[j].Period })

	top, err := s.topProducts(ctx, start, end, 10)
	if err != nil {
		return nil, err
	}

	cashiers := []TopCashier{}
	q = s.x.Rebind(`
		SELECT s.user_id, u.username,
		       COALESCE(u.first_name, '') AS first_name, COALESCE(u.last_name, '') AS last_name,
		       COUNT(*) AS count, COALESCE(SUM(s.total_amount), 0) AS total
		FROM sales s
		JOIN users u ON u.id = s.user_id
		WHERE s.status = ? AND s.created_at >= ? AND s.created_at < ?
		GROUP BY s.user_id, u.username, u.first_name, u.last_name
		ORDER BY total DESC
		LIMIT 10`)
	if err := s.x.SelectContext(ctx, &cashiers, q, models.SaleStatusCompleted, start, end); err != nil {
		return nil, fmt.Errorf("top cashiers: %w", err)
	}
	for i := range cashiers {
		u := models.User{Username: cashiers[i].Username, FirstName: cashiers[i].FirstName, LastName: cashiers[i].LastName}
		cashiers[i].FullName = u.FullName()
		cashiers[i].Total = models.Money(cashiers[i].TotalDec)
	}

	return &SalesReport{
		StartDate: start,
		EndDate:   end,
		GroupBy:   groupBy,
		Summary: SalesSummary{
			Count:    totals.Count,
			Total:    models.Money(totals.Total),
			Average:  average(totals.Total, totals.Count),
			Tax:      models.Money(totals.Tax),
			Discount: models.Money(totals.Discount),
		},
		Breakdown:   breakdown,
		TopProducts: top,
		TopCashiers: cashiers,
	}, nil
}

type InventorySummary struct {
	TotalProducts   int64   `json:"total_products"`
	TotalUnits      int64   `json:"total_units"`
	RetailValue     float64 `json:"retail_value"`
	CostValue       float64 `json:"cost_value"`
	ProfitPotential float64 `json:"profit_potential"`
	LowStockCount   int64   `json:"low_stock_count"`
	OutOfStockCount int64   `json:"out_of_stock_count"`
}

type LowStockAlert struct {
	ProductID     uuid.UUID `json:"product_id"`
	Name          string    `json:"name"`
	SKU           *string   `json:"sku"`
	StockQuantity int       `json:"stock_quantity"`
	MinStockLevel int       `json:"min_stock_level"`
}

type CategoryStock struct {
	CategoryID   uuid.UUID       `db:"category_id" json:"category_id"`
	Name         string          `db:"name" json:"name"`
	ProductCount int64           `db:"product_count" json:"product_count"`
	Units        int64           `db:"units" json:"units"`
	ValueDec     decimal.Decimal `db:"value" json:"-"`
	Value        float64         `db:"-" json:"value"`
}

type InventoryReport struct {
	Summary        InventorySummary `json:"summary"`
	LowStockAlerts []LowStockAlert  `json:"low_stock_alerts"`
	Categories     []CategoryStock  `json:"categories"`
}

// Inventory values the active catalogue.
func (s *ReportService) Inventory(ctx context.Context) (*InventoryReport, error) {
	var agg struct {
		TotalProducts int64           `db:"total_products"`
		TotalUnits    int64           `db:"total_units"`
		RetailValue   decimal.Decimal `db:"retail_value"`
		CostValue     decimal.Decimal `db:"cost_value"`
		LowStock      int64           `db:"low_stock"`
		OutOfStock    int64           `db:"out_of_stock"`
	}
	q := s.x.Rebind(`
		SELECT COUNT(*) AS total_products,
		       COALESCE(SUM(stock_quantity), 0) AS total_units,
		       COALESCE(SUM(price * stock_quantity), 0) AS retail_value,
		       COALESCE(SUM(cost * stock_quantity), 0) AS cost_value,
		       COALESCE(SUM(CASE WHEN stock_quantity <= min_stock_level THEN 1 ELSE 0 END), 0) AS low_stock,
		       COALESCE(SUM(CASE WHEN stock_quantity = 0 THEN 1 ELSE 0 END), 0) AS out_of_stock
		FROM products WHERE is_active = ?`)
	if err := s.x.GetContext(ctx, &agg, q, true); err != nil {
		return nil, fmt.Errorf("inventory summary: %w", err)
	}

	var low []models.Product
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND stock_quantity <= min_stock_level", true).
		Order("stock_quantity ASC, name ASC").Limit(50).Find(&low).Error
	if err != nil {
		return nil, fmt.Errorf("low stock products: %w", err)
	}
	alerts := make([]LowStockAlert, 0, len(low))
	for _, p := range low {
		alerts = append(alerts, LowStockAlert{
			ProductID:     p.ID,
			Name:          p.Name,
			SKU:           p.SKU,
			StockQuantity: p.StockQuantity,
			MinStockLevel: p.MinStockLevel,
		})
	}

	categories := []CategoryStock{}
	q = s.x.Rebind(`
		SELECT c.id AS category_id, c.name,
		       COUNT(p.id) AS product_count,
		       COALESCE(SUM(p.stock_quantity), 0) AS units,
		       COALESCE(SUM(p.price * p.stock_quantity), 0) AS value
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id AND p.is_active = ?
		GROUP BY c.id, c.name
		ORDER BY c.name`)
	if err := s.x.SelectContext(ctx, &categories, q, true); err != nil {
		return nil, fmt.Errorf("category stock: %w", err)
	}
	for i := range categories {
		categories[i].Value = models.Money(categories[i].ValueDec)
	}

	retail, cost := agg.RetailValue.Round(2), agg.CostValue.Round(2)
	return &InventoryReport{
		Summary: InventorySummary{
			TotalProducts:   agg.TotalProducts,
			TotalUnits:      agg.TotalUnits,
			RetailValue:     retail.InexactFloat64(),
			CostValue:       cost.InexactFloat64(),
			ProfitPotential: retail.Sub(cost).InexactFloat64(),
			LowStockCount:   agg.LowStock,
			OutOfStockCount: agg.OutOfStock,
		},
		LowStockAlerts: alerts,
		Categories:     categories,
	}, nil
}

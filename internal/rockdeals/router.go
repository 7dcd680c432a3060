package rockdeals

import (
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/middleware"
)

// NewRouter wires the RockDeals routes under /api. CORS is open to any origin.
func NewRouter(conn *gorm.DB, log *zap.Logger) http.Handler {
	return newRouter(NewHandler(conn, log), log)
}

func newRouter(h *Handler, log *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", h.Health)

	mux.HandleFunc("GET /api/dashboard/stats", h.Stats)
	mux.HandleFunc("GET /api/dashboard/customer-habits", h.CustomerHabits)
	mux.HandleFunc("GET /api/dashboard/product-stats", h.ProductStats)
	mux.HandleFunc("GET /api/dashboard/customer-growth", h.CustomerGrowth)

	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("POST /api/products", h.CreateProduct)
	mux.HandleFunc("PUT /api/products/{id}", h.UpdateProduct)
	mux.HandleFunc("DELETE /api/products/{id}", h.DeleteProduct)

	mux.HandleFunc("GET /api/customers", h.ListCustomers)
	mux.HandleFunc("POST /api/customers", h.CreateCustomer)

	mux.HandleFunc("GET /api/sales", h.ListSales)
	mux.HandleFunc("POST /api/sales", h.CreateSale)
	mux.HandleFunc("GET /api/sales/{id}", h.GetSale)

	mux.HandleFunc("GET /api/categories", h.ListCategories)

	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})

	return middleware.Chain(mux,
		middleware.Recover(log, InternalError),
		middleware.Logging(log),
		middleware.CORS([]string{"*"}),
		middleware.Gzip(),
	)
}

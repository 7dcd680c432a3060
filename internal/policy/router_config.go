package policy

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/auth"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/cache"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/config"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/events"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/handlers"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/search"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/services"
)

// RouterDeps are the infrastructure pieces the router needs. Optional backends
// are replaced by their in-memory or no-op versions when nil.
type RouterDeps struct {
	DB        *gorm.DB
	Config    *config.Config
	Tokens    *auth.TokenManager
	Denylist  cache.TokenDenylist
	Holds     cache.HoldStore
	Publisher events.Publisher
	Search    *search.Service
	Redis     handlers.HealthCheck
	Log       *zap.Logger
}

// RouterConfig holds configured handlers and the authorization gate.
type RouterConfig struct {
	AuthGate *AuthGate
	Tokens   *auth.TokenManager

	AuthHandler     *handlers.AuthHandler
	UserHandler     *handlers.UserHandler
	ProductHandler  *handlers.ProductHandler
	SaleHandler     *handlers.SaleHandler
	POSHandler      *handlers.POSHandler
	ReportHandler   *handlers.ReportHandler
	SettingsHandler *handlers.SettingsHandler
	SystemHandler   *handlers.SystemHandler

	SaleService *services.SaleService
}

// NewRouterConfig wires the gate, services and handlers together.
func NewRouterConfig(d RouterDeps) (*RouterConfig, error) {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Denylist == nil {
		d.Denylist = cache.NewMemoryDenylist()
	}
	if d.Holds == nil {
		d.Holds = cache.NewMemoryHoldStore()
	}
	if d.Publisher == nil {
		d.Publisher = events.Nop{}
	}
	if d.Search == nil {
		d.Search = search.NewService(d.DB, nil, d.Log)
	}

	// roles are cached for 5 minutes; handlers invalidate on role changes
	authGate := NewAuthGate(d.DB, 5*time.Minute)

	sales := services.NewSaleService(d.DB, d.Publisher, d.Log)
	receipts := services.NewReceiptService(d.DB, d.Config.App.StoreName)
	holds := services.NewHoldService(d.DB, d.Holds, d.Config.Redis.HoldTTL)
	reports, err := services.NewReportService(d.DB)
	if err != nil {
		return nil, fmt.Errorf("report service: %w", err)
	}
	taxRate := handlers.DefaultTaxRate(d.DB, d.Config.App.DefaultTaxRate)

	return &RouterConfig{
		AuthGate:        authGate,
		Tokens:          d.Tokens,
		AuthHandler:     handlers.NewAuthHandler(d.DB, d.Tokens, d.Denylist, d.Config.App.EnableRegistration, d.Log),
		UserHandler:     handlers.NewUserHandler(d.DB, authGate),
		ProductHandler:  handlers.NewProductHandler(d.DB, authGate, d.Search),
		SaleHandler:     handlers.NewSaleHandler(sales, receipts, authGate, taxRate),
		POSHandler:      handlers.NewPOSHandler(d.DB, sales, receipts, holds, authGate, taxRate),
		ReportHandler:   handlers.NewReportHandler(reports),
		SettingsHandler: handlers.NewSettingsHandler(d.DB),
		SystemHandler:   handlers.NewSystemHandler(d.DB, d.Config.App, d.Redis, d.Log),
		SaleService:     sales,
	}, nil
}

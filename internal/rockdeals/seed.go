package rockdeals

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/auth"
)

// Migrate creates or updates the RockDeals tables.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Seed loads the sample catalogue when the products table is empty. It
// reports whether anything was written.
func Seed(conn *gorm.DB, adminPassword string, now time.Time) (bool, error) {
	var count int64
	if err := conn.Model(&Product{}).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}

	err = conn.Transaction(func(tx *gorm.DB) error {
		categories := []Category{
			{Name: "Electronics", Description: "Electronic devices and accessories", IsActive: true},
			{Name: "Games", Description: "Video games and gaming accessories", IsActive: true},
			{Name: "Furniture", Description: "Home and office furniture", IsActive: true},
		}
		if err := tx.Create(&categories).Error; err != nil {
			return err
		}
		suppliers := []Supplier{
			{Name: "Tech Supplier Inc.", ContactInfo: "tech@supplier.com"},
			{Name: "Game World Ltd.", ContactInfo: "games@world.com"},
			{Name: "Furniture Plus", ContactInfo: "info@furnitureplus.com"},
		}
		if err := tx.Create(&suppliers).Error; err != nil {
			return err
		}

		admin := User{
			Username:     "admin",
			Email:        "admin@rockdeals.com",
			PasswordHash: hash,
			FirstName:    "Alexandra",
			LastName:     "Alex",
			Role:         "admin",
			IsActive:     true,
		}
		if err := tx.Where(User{Username: admin.Username}).FirstOrCreate(&admin).Error; err != nil {
			return err
		}

		product := func(name, desc, sku, barcode, price string, stock int, cat, sup int) Product {
			return Product{
				Name:          name,
				Description:   desc,
				SKU:           sku,
				Barcode:       &barcode,
				CategoryID:    &categories[cat].ID,
				SupplierID:    &suppliers[sup].ID,
				Price:         decimal.RequireFromString(price),
				StockQuantity: stock,
				MinStockLevel: DefaultMinStock,
				IsActive:      true,
			}
		}
		products := []Product{
			product("Laptop", "High-performance laptop", "LAP001", "123456789", "999.99", 50, 0, 0),
			product("Gaming Mouse", "RGB gaming mouse", "MOU001", "123456790", "79.99", 100, 0, 0),
			product("Video Game", "Latest action game", "GAM001", "123456791", "59.99", 200, 1, 1),
			product("Office Chair", "Ergonomic office chair", "CHA001", "123456792", "299.99", 30, 2, 2),
		}
		if err := tx.Create(&products).Error; err != nil {
			return err
		}

		johnEmail, janeEmail := "john@example.com", "jane@example.com"
		customers := []Customer{
			{FirstName: "John", LastName: "Doe", Email: &johnEmail, Phone: "123-456-7890", Address: "123 Main St", IsActive: true},
			{FirstName: "Jane", LastName: "Smith", Email: &janeEmail, Phone: "098-765-4321", Address: "456 Oak Ave", IsActive: true},
		}
		if err := tx.Create(&customers).Error; err != nil {
			return err
		}

		_, err := recordSale(tx, saleRequest{
			CustomerID: &customers[0].ID,
			UserID:     &admin.ID,
			Items: []saleItemRequest{
				{ProductID: products[0].ID, Quantity: 1},
				{ProductID: products[1].ID, Quantity: 1},
			},
			PaymentMethod: PaymentCreditCard,
		}, now)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("seed sample data: %w", err)
	}
	return true, nil
}

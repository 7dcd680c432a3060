package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/httpx"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/cache"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/models"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/validation"
)

// HoldInput parks a cart for later.
type HoldInput struct {
	UserID       uuid.UUID
	Items        []cache.HeldItem
	CustomerName string
	Notes        string
}

type HoldService struct {
	db    *gorm.DB
	store cache.HoldStore
	ttl   time.Duration
	now   func() time.Time
}

func NewHoldService(conn *gorm.DB, store cache.HoldStore, ttl time.Duration) *HoldService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &HoldService{db: conn, store: store, ttl: ttl, now: time.Now}
}

// Create validates the items against the catalogue and stores the cart.
// Stock is not reserved.
func (s *HoldService) Create(ctx context.Context, in HoldInput) (*cache.HeldCart, error) {
	if len(in.Items) == 0 {
		return nil, httpx.Validation("At least one item is required", nil)
	}
	v := validation.Violations{}
	for i, it := range in.Items {
		validation.MinInt(fmt.Sprintf("items[%d].quantity", i), it.Quantity, 1, v)
		if it.ProductID == uuid.Nil {
			v.Add(fmt.Sprintf("items[%d].product_id", i), "is required")
		}
	}
	if !v.Empty() {
		return nil, httpx.Validation("Invalid hold request", v)
	}
	for _, it := range in.Items {
		var p models.Product
		err := s.db.WithContext(ctx).Select("id", "name", "is_active").First(&p, "id = ?", it.ProductID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httpx.NotFound("Product", it.ProductID)
		}
		if err != nil {
			return nil, fmt.Errorf("load product: %w", err)
		}
		if !p.IsActive {
			return nil, httpx.ProductInactive(p.Name)
		}
	}

	now := s.now().UTC()
	cart := &cache.HeldCart{
		ID:           uuid.New(),
		UserID:       in.UserID,
		Items:        in.Items,
		CustomerName: in.CustomerName,
		Notes:        in.Notes,
		HeldAt:       now,
		ExpiresAt:    now.Add(s.ttl),
	}
	if err := s.store.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *HoldService) List(ctx context.Context, userID uuid.UUID) ([]cache.HeldCart, error) {
	return s.store.List(ctx, userID)
}

// Resume returns the cart and forgets it.
func (s *HoldService) Resume(ctx context.Context, userID, holdID uuid.UUID) (*cache.HeldCart, error) {
	cart, err := s.store.Pop(ctx, userID, holdID)
	if errors.Is(err, cache.ErrHoldNotFound) {
		return nil, httpx.NotFound("Held cart", holdID)
	}
	return cart, err
}

func (s *HoldService) Delete(ctx context.Context, userID, holdID uuid.UUID) error {
	err := s.store.Delete(ctx, userID, holdID)
	if errors.Is(err, cache.ErrHoldNotFound) {
		return httpx.NotFound("Held cart", holdID)
	}
	return err
}

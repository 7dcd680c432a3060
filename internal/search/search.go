// Package search finds products by free text, through Elasticsearch when it
// is configured and the database otherwise.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/models"
)

// Index is a product search index.
type Index interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	// Search returns matching active product ids, best match first.
	Search(ctx context.Context, query string, limit int) ([]uuid.UUID, error)
}

// Service resolves searches to products. A nil index means database only.
type Service struct {
	db    *gorm.DB
	index Index
	log   *zap.Logger
}

func NewService(db *gorm.DB, index Index, log *zap.Logger) *Service {
	return &Service{db: db, index: index, log: log}
}

// Enabled reports whether an external index is configured.
func (s *Service) Enabled() bool { return s.index != nil }

// Products returns up to limit active products matching q.
func (s *Service) Products(ctx context.Context, q string, limit int) ([]models.Product, error) {
	q = strings.TrimSpace(q)
	if s.index != nil {
		ids, err := s.index.Search(ctx, q, limit)
		if err == nil {
			return s.byIDs(ctx, ids)
		}
		s.log.Error("search index failed, falling back to database", zap.Error(err))
	}
	return s.fromDB(ctx, q, limit)
}

// Sync indexes or removes the product after a write. Errors are logged only.
func (s *Service) Sync(ctx context.Context, p *models.Product) {
	if s.index == nil {
		return
	}
	var err error
	if p.IsActive {
		err = s.index.IndexProduct(ctx, p)
	} else {
		err = s.index.DeleteProduct(ctx, p.ID)
	}
	if err != nil {
		s.log.Warn("product index sync failed", zap.String("product_id", p.ID.String()), zap.Error(err))
	}
}

const reindexBatch = 200

// Reindex pushes every active product into the index and returns how many
// were written. It stops at the first index error.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, nil
	}
	var batch []models.Product
	n := 0
	res := s.db.WithContext(ctx).Where("is_active = ?", true).
		FindInBatches(&batch, reindexBatch, func(_ *gorm.DB, _ int) error {
			for i := range batch {
				if err := s.index.IndexProduct(ctx, &batch[i]); err != nil {
					return fmt.Errorf("index product %s: %w", batch[i].ID, err)
				}
				n++
			}
			return nil
		})
	return n, res.Error
}

func (s *Service) byIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var found []models.Product
	if err := s.db.WithContext(ctx).Where("id IN ? AND is_active = ?", ids, true).Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Service) fromDB(ctx context.Context, q string, limit int) ([]models.Product, error) {
	var out []models.Product
	tx := s.db.WithContext(ctx).Where("is_active = ?", true)
	if q != "" {
		like := "%" + strings.ToLower(q) + "%"
		tx = tx.Where("LOWER(name) LIKE ? OR LOWER(barcode) LIKE ? OR LOWER(sku) LIKE ?", like, like, like)
	}
	if err := tx.Order("name").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

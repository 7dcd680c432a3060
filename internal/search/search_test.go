package search

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/db"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/models"
)

type fakeIndex struct {
	ids      []uuid.UUID
	err      error
	indexErr error
	indexed  []uuid.UUID
	deleted  []uuid.UUID
}

func (f *fakeIndex) IndexProduct(_ context.Context, p *models.Product) error {
	if f.indexErr != nil {
		return f.indexErr
	}
	f.indexed = append(f.indexed, p.ID)
	return nil
}

func (f *fakeIndex) DeleteProduct(_ context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIndex) Search(context.Context, string, int) ([]uuid.UUID, error) { return f.ids, f.err }

func setup(t *testing.T) (*gorm.DB, []models.Product) {
	t.Helper()
	conn, err := db.OpenSQLite(db.MemoryDSN(t.Name()), false)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	sku := "COF-001"
	products := []models.Product{
		{Name: "Coffee Beans", SKU: &sku, Price: decimal.NewFromInt(12), IsActive: true},
		{Name: "Green Tea", Price: decimal.NewFromInt(5), IsActive: true},
		{Name: "Coffee Mug", Price: decimal.NewFromInt(8), IsActive: false},
	}
	for i := range products {
		require.NoError(t, conn.Create(&products[i]).Error)
	}
	return conn, products
}

func TestService_DatabaseFallback(t *testing.T) {
	conn, _ := setup(t)
	s := NewService(conn, nil, zap.NewNop())
	assert.False(t, s.Enabled())

	got, err := s.Products(context.Background(), "coffee", 10)
	require.NoError(t, err)
	require.Len(t, got, 1, "inactive products are excluded")
	assert.Equal(t, "Coffee Beans", got[0].Name)

	got, err = s.Products(context.Background(), "cof-0", 10)
	require.NoError(t, err)
	assert.Len(t, got, 1, "sku matches")
}

func TestService_UsesIndexOrder(t *testing.T) {
	conn, products := setup(t)
	idx := &fakeIndex{ids: []uuid.UUID{products[1].ID, products[0].ID, products[2].ID}}
	s := NewService(conn, idx, zap.NewNop())

	got, err := s.Products(context.Background(), "anything", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, products[1].ID, got[0].ID)
	assert.Equal(t, products[0].ID, got[1].ID)
}

func TestService_IndexErrorFallsBack(t *testing.T) {
	conn, _ := setup(t)
	s := NewService(conn, &fakeIndex{err: errors.New("down")}, zap.NewNop())
	got, err := s.Products(context.Background(), "tea", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Green Tea", got[0].Name)
}

func TestService_Sync(t *testing.T) {
	idx := &fakeIndex{}
	s := NewService(nil, idx, zap.NewNop())
	active := &models.Product{Base: models.Base{ID: uuid.New()}, IsActive: true}
	inactive := &models.Product{Base: models.Base{ID: uuid.New()}}
	s.Sync(context.Background(), active)
	s.Sync(context.Background(), inactive)
	assert.Equal(t, []uuid.UUID{active.ID}, idx.indexed)
	assert.Equal(t, []uuid.UUID{inactive.ID}, idx.deleted)
}

func TestBuildQuery(t *testing.T) {
	q := buildQuery("a+b", 5)
	assert.Equal(t, 5, q["size"])
	must := q["query"].(map[string]any)["bool"].(map[string]any)["must"].([]map[string]any)
	require.Len(t, must, 1)
	assert.Equal(t, `*a\+b*`, must[0]["query_string"].(map[string]any)["query"])
}

func TestService_Reindex(t *testing.T) {
	conn, products := setup(t)
	for i := range 250 {
		require.NoError(t, conn.Create(&models.Product{
			Name:     fmt.Sprintf("Bulk %03d", i),
			Price:    decimal.NewFromInt(1),
			IsActive: true,
		}).Error)
	}
	idx := &fakeIndex{}
	s := NewService(conn, idx, zap.NewNop())

	n, err := s.Reindex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 252, n)
	assert.Len(t, idx.indexed, 252)
	assert.Contains(t, idx.indexed, products[0].ID)
	assert.NotContains(t, idx.indexed, products[2].ID, "inactive products are not indexed")
}

func TestService_ReindexError(t *testing.T) {
	conn, _ := setup(t)
	idx := &fakeIndex{indexErr: errors.New("cluster down")}
	s := NewService(conn, idx, zap.NewNop())

	n, err := s.Reindex(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cluster down")
	assert.Zero(t, n)
}

func TestService_ReindexWithoutIndex(t *testing.T) {
	conn, _ := setup(t)
	n, err := NewService(conn, nil, zap.NewNop()).Reindex(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/headphones_shop/internal/models"
	"github.com/Skotchmaster/headphones_shop/internal/repo"
	"github.com/Skotchmaster/headphones_shop/internal/testdb"
)

func TestCatalogService_CheckStock(t *testing.T) {
	db := testdb.New(t)
	svc := &CatalogService{Repo: repo.New(db)}
	ctx := context.Background()
	p := testdb.SeedProduct(t, db, "monitor", 250, 4)

	got, err := svc.CheckStock(ctx, p.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, got.StockQuantity)

	_, err = svc.CheckStock(ctx, p.ID, 5)
	var se *StockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 4, se.Available)
	assert.Equal(t, 5, se.Requested)
	assert.Equal(t, "monitor", se.Name)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.CheckStock(ctx, 9999, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.CheckStock(ctx, p.ID, 0)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CheckStock(ctx, 0, 1)
	assert.ErrorIs(t, err, ErrValidation)
}

type stubSearcher struct {
	query string
	hits  []models.Product
}

func (s *stubSearcher) Search(_ context.Context, query string, _, _ int) (int64, []models.Product, error) {
	s.query = query
	return int64(len(s.hits)), s.hits, nil
}

func TestCatalogService_Search(t *testing.T) {
	svc := &CatalogService{}
	_, _, err := svc.SearchProducts(context.Background(), "bass", 0, 10)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, _, err = svc.SearchProducts(context.Background(), "", 0, 10)
	assert.ErrorIs(t, err, ErrValidation)

	db := testdb.New(t)
	p := testdb.SeedProduct(t, db, "Bass Pro", 120, 6)
	svc.Repo = repo.New(db)

	stub := &stubSearcher{hits: []models.Product{{ID: p.ID, Name: "Bass Pro"}}}
	svc.Search = stub
	total, hits, err := svc.SearchProducts(context.Background(), "bass", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Bass Pro", hits[0].Name)
	assert.Equal(t, 6, hits[0].StockQuantity, "stock comes from the database, not the index")
	assert.Equal(t, "bass", stub.query)
}

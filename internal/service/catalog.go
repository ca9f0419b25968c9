package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/headphones_shop/internal/models"
	"github.com/Skotchmaster/headphones_shop/internal/repo"
)

// ProductSearcher is the full-text index over the catalog.
type ProductSearcher interface {
	Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error)
}

type CatalogService struct {
	Repo   *repo.GormRepo
	Search ProductSearcher
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	if id == 0 {
		return nil, validation("Product ID is required")
	}
	p, err := s.Repo.GetProduct(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Product not found")
	}
	return p, err
}

func (s *CatalogService) GetProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.GetProducts(ctx, offset, limit)
}

func (s *CatalogService) SearchProducts(ctx context.Context, query string, from, size int) (int64, []models.Product, error) {
	if query == "" {
		return 0, nil, validation("Search query is required")
	}
	if s.Search == nil {
		return 0, nil, unavailable("Search is not available")
	}
	total, hits, err := s.Search.Search(ctx, query, from, size)
	if err != nil || len(hits) == 0 {
		return total, hits, err
	}

	// The index carries no stock; read it live.
	ids := make([]uint, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	live, err := s.Repo.ProductsByIDs(ctx, ids)
	if err != nil {
		return 0, nil, err
	}
	for i := range hits {
		hits[i].StockQuantity = live[hits[i].ID].StockQuantity
	}
	return total, hits, nil
}

// CheckStock is advisory: it reads current stock and reserves nothing.
func (s *CatalogService) CheckStock(ctx context.Context, id uint, quantity int) (*models.Product, error) {
	if id == 0 {
		return nil, validation("Product ID is required")
	}
	if quantity <= 0 {
		return nil, validation("Quantity must be a positive integer")
	}

	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.StockQuantity < quantity {
		return nil, &StockError{ProductID: p.ID, Name: p.Name, Available: p.StockQuantity, Requested: quantity}
	}
	return p, nil
}

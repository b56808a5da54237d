package service

import (
	"context"

	"procurement-service/internal/models"
)

// CatalogStore is the persistence surface the catalog service needs.
type CatalogStore interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListActiveShops(ctx context.Context) ([]models.Shop, error)
	SearchListings(ctx context.Context, shopID, categoryID *int64) ([]models.Listing, error)
}

// CatalogService serves the public, read-only catalog surface.
type CatalogService struct {
	store CatalogStore
}

// NewCatalogService creates a new catalog service
func NewCatalogService(s CatalogStore) *CatalogService {
	return &CatalogService{store: s}
}

// Categories returns every known category.
func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.store.ListCategories(ctx)
}

// Shops returns shops currently accepting orders.
func (s *CatalogService) Shops(ctx context.Context) ([]models.Shop, error) {
	return s.store.ListActiveShops(ctx)
}

// Search returns listings optionally filtered by shop and/or category.
func (s *CatalogService) Search(ctx context.Context, shopID, categoryID *int64) ([]models.Listing, error) {
	return s.store.SearchListings(ctx, shopID, categoryID)
}

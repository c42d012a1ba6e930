package services

import (
	"context"
	"database/sql"
	"errors"

	"murlie/internal/domain"
	"murlie/internal/repos"
)

type CatalogService struct {
	Cats   *repos.CategoryRepo
	Prods  *repos.ProductRepo
	Images *repos.ImageRepo
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo, images *repos.ImageRepo) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods, Images: images}
}

// ProductDetail is everything the product page shows.
type ProductDetail struct {
	domain.Product
	Images []domain.ProductImage `json:"images"`
	Sizes  []string              `json:"sizes"`
	Colors []domain.ColorVariant `json:"colors"`
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Cats.List(ctx)
}

func (s *CatalogService) Featured(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = 4
	}
	return s.Prods.Featured(ctx, limit)
}

func (s *CatalogService) AllProducts(ctx context.Context) ([]domain.Product, error) {
	return s.Prods.List(ctx)
}

func (s *CatalogService) ListProductsByCategory(ctx context.Context, catID string, page, pageSize int) ([]domain.Product, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 12
	}
	offset := (page - 1) * pageSize
	return s.Prods.ListByCategory(ctx, catID, pageSize, offset)
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (ProductDetail, error) {
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return ProductDetail{}, err
	}
	imgs, err := s.Images.ListByProduct(ctx, id)
	if err != nil {
		return ProductDetail{}, err
	}
	return ProductDetail{Product: p, Images: imgs, Sizes: p.Sizes(), Colors: p.Colors()}, nil
}

// CheckVariant rejects cart lines for inactive products or for a size or
// color the product is not sold in. Products sold in sizes need one chosen.
func (s *CatalogService) CheckVariant(ctx context.Context, productID, size, color string) error {
	p, err := s.Prods.Get(ctx, productID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !p.Active) {
		return invalid("product", "This item is no longer available")
	}
	if err != nil {
		return err
	}
	if size == "" && len(p.Sizes()) > 0 {
		return invalid("size", "Please select a size")
	}
	if !p.HasSize(size) {
		return invalid("size", "Please select a valid size")
	}
	if color != "" {
		for _, c := range p.Colors() {
			if c.ID == color {
				return nil
			}
		}
		return invalid("color", "Please select a valid color")
	}
	return nil
}

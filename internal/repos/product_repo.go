package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"murlie/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `
    id, category_id, name, description, price, original_price, badge, rating, reviews,
    sizes_json, colors_json, featured, active,
    COALESCE(created_at,'') AS created_at, COALESCE(updated_at,'') AS updated_at`

func (r *ProductRepo) Featured(ctx context.Context, limit int) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
  SELECT`+productCols+`
  FROM products
  WHERE featured = 1 AND active = 1
  ORDER BY reviews DESC, id
  LIMIT ?
`), limit)
	return out, err
}

func (r *ProductRepo) ListByCategory(ctx context.Context, catID string, limit, offset int) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
  SELECT`+productCols+`
  FROM products
  WHERE category_id = ? AND active = 1
  ORDER BY created_at DESC, id
  LIMIT ? OFFSET ?
`), catID, limit, offset)
	return out, err
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, r.db.Rebind(`
  SELECT`+productCols+`
  FROM products
  WHERE id = ?
`), id)
	return p, err
}

// List returns every active product by name.
func (r *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, `
  SELECT`+productCols+`
  FROM products
  WHERE active = 1
  ORDER BY name, id
`)
	return out, err
}

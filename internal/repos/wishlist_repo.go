package repos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type WishlistRepo struct{ db *sqlx.DB }

func NewWishlistRepo(db *sqlx.DB) *WishlistRepo { return &WishlistRepo{db: db} }

func (r *WishlistRepo) Add(ctx context.Context, userID, productID string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
	  INSERT INTO wishlist_items(user_id, product_id, created_at)
	  VALUES(?, ?, CURRENT_TIMESTAMP)
	  ON CONFLICT(user_id, product_id) DO NOTHING
	`), userID, productID)
	return err
}

func (r *WishlistRepo) Remove(ctx context.Context, userID, productID string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM wishlist_items WHERE user_id=? AND product_id=?`), userID, productID)
	return err
}

func (r *WishlistRepo) Has(ctx context.Context, userID, productID string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`SELECT COUNT(*) FROM wishlist_items WHERE user_id=? AND product_id=?`), userID, productID)
	return n > 0, err
}

type WishlistRow struct {
	ProductID string          `db:"product_id" json:"product_id"`
	Name      string          `db:"name" json:"name"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Active    bool            `db:"active" json:"active"`
}

func (r *WishlistRepo) List(ctx context.Context, userID string) ([]WishlistRow, error) {
	out := []WishlistRow{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
	  SELECT p.id AS product_id, p.name, p.price, p.active
	  FROM wishlist_items wi
	  JOIN products p ON p.id = wi.product_id
	  WHERE wi.user_id = ?
	  ORDER BY p.name
	`), userID)
	return out, err
}

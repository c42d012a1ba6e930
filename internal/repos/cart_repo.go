package repos

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"murlie/internal/domain"
	"murlie/internal/validate"
)

// CartRepo is the durable owner of cart lines. Every statement is scoped by
// user id, so one user can never touch another user's lines.
type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

// stamp is fixed width so created_at sorts in insertion order.
func stamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000000000Z")
}

// ListByUser returns the user's lines joined with product name, price and
// primary image.
func (r *CartRepo) ListByUser(ctx context.Context, userID string) ([]domain.CartItem, error) {
	out := []domain.CartItem{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
	  SELECT ci.id, ci.user_id, ci.product_id, ci.quantity, ci.size, ci.color,
	         p.name  AS "product.name",
	         p.price AS "product.price",
	         COALESCE((
	           SELECT pi.image_url FROM product_images pi
	           WHERE pi.product_id = p.id
	           ORDER BY pi.position, pi.created_at
	           LIMIT 1
	         ), '') AS "product.image_url"
	  FROM cart_items ci
	  JOIN products p ON p.id = ci.product_id
	  WHERE ci.user_id = ?
	  ORDER BY ci.created_at, ci.id
	`), userID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart items")
	}
	return out, nil
}

// Upsert inserts the line or, when (user, product, size, color) already
// exists, merges the quantity according to mode. An additive merge never
// takes a line past validate.MaxQty.
func (r *CartRepo) Upsert(ctx context.Context, item domain.CartItem, mode domain.MergeMode) error {
	least := "MIN"
	if r.db.DriverName() == "postgres" {
		least = "LEAST"
	}
	merge := least + `(cart_items.quantity + excluded.quantity, ` + strconv.Itoa(validate.MaxQty) + `)`
	if mode == domain.MergeReplace {
		merge = `excluded.quantity`
	}
	now := stamp()
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO cart_items(id,user_id,product_id,size,color,quantity,created_at,updated_at)
		VALUES(?,?,?,?,?,?,?,?)
		ON CONFLICT(user_id,product_id,size,color) DO UPDATE
		SET quantity = `+merge+`, updated_at = excluded.updated_at
	`), uuid.NewString(), item.UserID, item.ProductID, item.Size, item.Color, item.Quantity, now, now)
	return errors.Wrap(err, "upsert cart item")
}

// DeleteByID removes one line. It returns sql.ErrNoRows (wrapped) when the
// line does not exist for this user.
func (r *CartRepo) DeleteByID(ctx context.Context, userID, itemID string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM cart_items WHERE id = ? AND user_id = ?`), itemID, userID)
	if err != nil {
		return errors.Wrap(err, "delete cart item")
	}
	return affected(res, "delete cart item")
}

func (r *CartRepo) UpdateQuantity(ctx context.Context, userID, itemID string, qty int) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE cart_items SET quantity = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`), qty, stamp(), itemID, userID)
	if err != nil {
		return errors.Wrap(err, "update cart item")
	}
	return affected(res, "update cart item")
}

// DeleteByUser empties the user's cart in one statement.
func (r *CartRepo) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM cart_items WHERE user_id = ?`), userID)
	return errors.Wrap(err, "clear cart")
}

func affected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, op)
	}
	if n == 0 {
		return errors.Wrap(sql.ErrNoRows, op)
	}
	return nil
}

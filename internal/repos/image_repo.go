package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"murlie/internal/domain"
)

type ImageRepo struct{ db *sqlx.DB }

func NewImageRepo(db *sqlx.DB) *ImageRepo { return &ImageRepo{db: db} }

func (r *ImageRepo) ListByProduct(ctx context.Context, productID string) ([]domain.ProductImage, error) {
	out := []domain.ProductImage{}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
	  SELECT id, product_id, image_url, slot, position, COALESCE(created_at,'') AS created_at
	  FROM product_images
	  WHERE product_id = ?
	  ORDER BY position, created_at
	`), productID)
	return out, err
}

// Put records an image for a product slot, replacing the slot's previous
// image. The "Main Image" slot takes position 0 so it becomes primary.
func (r *ImageRepo) Put(ctx context.Context, productID, slot, url string) (domain.ProductImage, error) {
	img := domain.ProductImage{ID: uuid.NewString(), ProductID: productID, ImageURL: url, Slot: slot, Position: 10}
	if slot == SlotMain {
		img.Position = 0
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.ProductImage{}, errors.Wrap(err, "begin image tx")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM product_images WHERE product_id = ? AND slot = ?`), productID, slot); err != nil {
		return domain.ProductImage{}, errors.Wrap(err, "replace image slot")
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO product_images(id,product_id,image_url,slot,position,created_at)
		VALUES(?,?,?,?,?,?)
	`), img.ID, img.ProductID, img.ImageURL, img.Slot, img.Position, stamp()); err != nil {
		return domain.ProductImage{}, errors.Wrap(err, "insert image")
	}
	return img, errors.Wrap(tx.Commit(), "commit image")
}

// SlotMain is the upload slot holding a product's primary image.
const SlotMain = "Main Image"

// Remove drops the image recorded for a product slot and returns its url.
// A slot with no image yields sql.ErrNoRows.
func (r *ImageRepo) Remove(ctx context.Context, productID, slot string) (string, error) {
	var url string
	if err := r.db.GetContext(ctx, &url, r.db.Rebind(`SELECT image_url FROM product_images WHERE product_id = ? AND slot = ?`), productID, slot); err != nil {
		return "", errors.Wrap(err, "find image slot")
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM product_images WHERE product_id = ? AND slot = ?`), productID, slot); err != nil {
		return "", errors.Wrap(err, "delete image slot")
	}
	return url, nil
}

package domain

import "github.com/shopspring/decimal"

// CartItem is one line of a user's cart. A user holds at most one line per
// (product, size, color); an empty Size or Color means none was chosen.
type CartItem struct {
	ID        string          `db:"id" json:"id"`
	UserID    string          `db:"user_id" json:"-"`
	ProductID string          `db:"product_id" json:"product_id"`
	Quantity  int             `db:"quantity" json:"quantity"`
	Size      string          `db:"size" json:"size,omitempty"`
	Color     string          `db:"color" json:"color,omitempty"`
	Product   ProductSnapshot `db:"product" json:"product"`
}

// ProductSnapshot is the read-only product projection loaded with a cart line.
type ProductSnapshot struct {
	Name     string          `db:"name" json:"name"`
	Price    decimal.Decimal `db:"price" json:"price"`
	ImageURL string          `db:"image_url" json:"image_url,omitempty"`
}

// Subtotal is quantity times unit price.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// MergeMode decides what an add does to an existing (product, size, color) line.
type MergeMode int

const (
	// MergeAdd adds the submitted quantity to the stored one.
	MergeAdd MergeMode = iota
	// MergeReplace overwrites the stored quantity with the submitted one.
	MergeReplace
)

func (m MergeMode) String() string {
	if m == MergeReplace {
		return "replace"
	}
	return "add"
}

// ParseMergeMode maps "replace" to MergeReplace; anything else is MergeAdd.
func ParseMergeMode(s string) MergeMode {
	if s == "replace" {
		return MergeReplace
	}
	return MergeAdd
}

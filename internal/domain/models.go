package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
	StyleCount  int    `db:"style_count" json:"style_count"`
	CreatedAt   string `db:"created_at" json:"-"`
	UpdatedAt   string `db:"updated_at" json:"-"`
}

type Product struct {
	ID            string              `db:"id" json:"id"`
	CategoryID    string              `db:"category_id" json:"category_id"`
	Name          string              `db:"name" json:"name"`
	Description   string              `db:"description" json:"description"`
	Price         decimal.Decimal     `db:"price" json:"price"`
	OriginalPrice decimal.NullDecimal `db:"original_price" json:"original_price"`
	Badge         string              `db:"badge" json:"badge,omitempty"`
	Rating        float64             `db:"rating" json:"rating"`
	Reviews       int                 `db:"reviews" json:"reviews"`
	SizesJSON     string              `db:"sizes_json" json:"-"`
	ColorsJSON    string              `db:"colors_json" json:"-"`
	Featured      bool                `db:"featured" json:"featured"`
	Active        bool                `db:"active" json:"-"`
	CreatedAt     string              `db:"created_at" json:"-"`
	UpdatedAt     string              `db:"updated_at" json:"-"`
}

// Sizes decodes SizesJSON; malformed or empty data yields no sizes.
func (p Product) Sizes() []string {
	var out []string
	if p.SizesJSON == "" {
		return out
	}
	_ = json.Unmarshal([]byte(p.SizesJSON), &out)
	return out
}

func (p Product) Colors() []ColorVariant {
	var out []ColorVariant
	if p.ColorsJSON == "" {
		return out
	}
	_ = json.Unmarshal([]byte(p.ColorsJSON), &out)
	return out
}

// HasSize reports whether size is one of the sizes the product is sold in.
// A product with no size list accepts only the empty size.
func (p Product) HasSize(size string) bool {
	sizes := p.Sizes()
	if len(sizes) == 0 {
		return size == ""
	}
	for _, s := range sizes {
		if s == size {
			return true
		}
	}
	return false
}

// ProductImage is one stored picture of a product. The image with the lowest
// Position is the primary one.
type ProductImage struct {
	ID        string `db:"id" json:"id"`
	ProductID string `db:"product_id" json:"product_id"`
	ImageURL  string `db:"image_url" json:"image_url"`
	Slot      string `db:"slot" json:"slot"`
	Position  int    `db:"position" json:"position"`
	CreatedAt string `db:"created_at" json:"-"`
}

// ColorVariant is a selectable color on the product detail view.
type ColorVariant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

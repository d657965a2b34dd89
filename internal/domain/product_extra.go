package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductExtraInfo is the detail sheet shown under a product: brand, material,
// dimensions in millimetres and any bonus item. It is keyed by product slug.
type ProductExtraInfo struct {
	ProductSlug string              `json:"product_slug"`
	Brand       string              `json:"brand"`
	Material    string              `json:"material"`
	HeightMM    decimal.NullDecimal `json:"height_mm"`
	WidthMM     decimal.NullDecimal `json:"width_mm"`
	LengthMM    decimal.NullDecimal `json:"length_mm"`
	Bonus       *string             `json:"bonus"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

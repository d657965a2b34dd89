package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// prices go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// ProductStatus is the stock state shown on the storefront.
type ProductStatus string

const (
	ProductStatusReady    ProductStatus = "พร้อมส่ง"
	ProductStatusPreorder ProductStatus = "พรีออเดอร์"
	ProductStatusSoldOut  ProductStatus = "สินค้าหมด"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductStatusReady, ProductStatusPreorder, ProductStatusSoldOut:
		return true
	}
	return false
}

// DefaultProductType is used when a product has no type label.
const DefaultProductType = "ETC"

// Product represents a catalog item
type Product struct {
	ID           int64           `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	Category     string          `json:"category"`
	Description  string          `json:"description"`
	Image        string          `json:"image"`
	Status       ProductStatus   `json:"product_status"`
	ProductType  string          `json:"product_type"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	Quantity     int             `json:"quantity"`
	ShipmentDate *time.Time      `json:"shipment_date,omitempty"`
	Options      json.RawMessage `json:"options,omitempty"`
	Costs        *ProductCosts   `json:"costs,omitempty"`
	Tags         []string        `json:"tags"`
	Images       []ProductImage  `json:"images,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ProductCosts holds import costing that only admins see.
type ProductCosts struct {
	PriceYuan    decimal.Decimal `json:"price_yuan"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	ImportCost   decimal.Decimal `json:"import_cost"`
	CostTHB      decimal.Decimal `json:"cost_thb"`
}

// Public returns a copy without admin-only fields.
func (p *Product) Public() *Product {
	cp := *p
	cp.Costs = nil
	return &cp
}

// TypeOrDefault returns the product type label, defaulting to ETC.
func (p *Product) TypeOrDefault() string {
	if strings.TrimSpace(p.ProductType) == "" {
		return DefaultProductType
	}
	return p.ProductType
}

// ProductImage is one gallery image of a product, optionally bound to a variant.
type ProductImage struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"product_id"`
	ImageURL    string    `json:"image_url"`
	Order       int       `json:"order"`
	VariantName string    `json:"variant_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Category represents a product category
type Category struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Image             string    `json:"image"`
	DisplayOnHomepage bool      `json:"display_on_homepage"`
	HomepageOrder     int       `json:"homepage_order"`
	CreatedAt         time.Time `json:"created_at"`
}

type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ProductFilter narrows a catalog listing.
type ProductFilter struct {
	Categories  []string
	Query       string
	Tag         string
	Status      ProductStatus
	ProductType string
	Page        int
	PageSize    int
	SortBy      string
	SortDesc    bool
}

const (
	DefaultPageSize = 24
	MaxPageSize     = 100
)

// Normalize clamps paging values into range.
func (f *ProductFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	f.Query = strings.TrimSpace(f.Query)
}

// Offset is the row offset of the current page.
func (f ProductFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

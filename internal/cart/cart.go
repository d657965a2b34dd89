// Package cart implements the guest shopping cart and its persistence.
package cart

import (
	"github.com/shopspring/decimal"

	"wishyoulucky/internal/shipping"
)

// Item is one line of the cart. Price is the catalog price last seen for the
// product; the cart service refreshes it whenever the cart is read.
type Item struct {
	ProductID   int64           `json:"id"`
	Name        string          `json:"name"`
	SKU         string          `json:"sku"`
	Image       string          `json:"image"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	ProductType string          `json:"product_type"`
	Variant     string          `json:"variant,omitempty"`
}

func (i Item) sameLine(productID int64, variant string) bool {
	return i.ProductID == productID && i.Variant == variant
}

// Cart is an ordered list of line items. The zero value is an empty cart.
type Cart struct {
	Items []Item `json:"items"`
}

// New wraps existing items, dropping lines with non-positive quantity.
func New(items []Item) *Cart {
	c := &Cart{}
	for _, item := range items {
		if item.Quantity > 0 {
			c.Items = append(c.Items, item)
		}
	}
	return c
}

// Add merges item into the line with the same product and variant, or appends it.
// A non-positive quantity adds one unit.
func (c *Cart) Add(item Item) {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	for i := range c.Items {
		if c.Items[i].sameLine(item.ProductID, item.Variant) {
			c.Items[i].Quantity += item.Quantity
			return
		}
	}
	c.Items = append(c.Items, item)
}

// UpdateQuantity sets the quantity of a line; zero or less removes it.
// It reports whether the line existed.
func (c *Cart) UpdateQuantity(productID int64, variant string, quantity int) bool {
	for i := range c.Items {
		if !c.Items[i].sameLine(productID, variant) {
			continue
		}
		if quantity <= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		} else {
			c.Items[i].Quantity = quantity
		}
		return true
	}
	return false
}

// Remove deletes a line and reports whether it existed.
func (c *Cart) Remove(productID int64, variant string) bool {
	return c.UpdateQuantity(productID, variant, 0)
}

func (c *Cart) Clear() {
	c.Items = nil
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Count is the number of units in the cart.
func (c *Cart) Count() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// Subtotal is the sum of price × quantity.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// Shipping prices the cart with the product-type fee table.
func (c *Cart) Shipping() decimal.Decimal {
	lines := make([]shipping.Line, 0, len(c.Items))
	for _, item := range c.Items {
		lines = append(lines, shipping.Line{ProductType: item.ProductType, Quantity: item.Quantity})
	}
	return shipping.Calculate(lines)
}

func (c *Cart) Total() decimal.Decimal {
	return c.Subtotal().Add(c.Shipping())
}

// Summary is the cart as returned to clients.
type Summary struct {
	Items    []Item          `json:"items"`
	Count    int             `json:"count"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

func (c *Cart) Summary() Summary {
	items := c.Items
	if items == nil {
		items = []Item{}
	}
	return Summary{
		Items:    items,
		Count:    c.Count(),
		Subtotal: c.Subtotal(),
		Shipping: c.Shipping(),
		Total:    c.Total(),
	}
}

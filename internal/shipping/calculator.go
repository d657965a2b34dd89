// Package shipping prices delivery from a flat per-unit fee table keyed by product type.
package shipping

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultType is charged for empty or unknown product types.
const DefaultType = "ETC"

// TypeFee is one row of the rate table.
type TypeFee struct {
	ProductType string          `json:"product_type"`
	Fee         decimal.Decimal `json:"fee"`
}

// rates in THB per unit; the order is the one admins see.
var rates = []struct {
	productType string
	fee         int64
}{
	{"Keyring/Keychain", 35},
	{"Keychain", 35},
	{"Keyring", 35},
	{"Mini Figure", 50},
	{"Big Figure/Statue", 0},
	{"Big Figure", 0},
	{"Big Statue", 0},
	{"Medium Figure/Statue", 80},
	{"Medium Figure", 80},
	{"Medium Statue", 80},
	{"Plush", 40},
	{"Standee", 35},
	{"Clothing & Accessories", 40},
	{"Clothing", 40},
	{"Accessories", 40},
	{DefaultType, 50},
}

var feeByType = func() map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(rates))
	for _, r := range rates {
		m[r.productType] = decimal.NewFromInt(r.fee)
	}
	return m
}()

// Line is the part of a cart or order line that shipping depends on.
type Line struct {
	ProductType string
	Quantity    int
}

// FeeFor returns the per-unit fee for a product type label.
func FeeFor(productType string) decimal.Decimal {
	if fee, ok := feeByType[strings.TrimSpace(productType)]; ok {
		return fee
	}
	return feeByType[DefaultType]
}

// Calculate sums fee × quantity over lines. Non-positive quantities count as one unit.
func Calculate(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		qty := line.Quantity
		if qty <= 0 {
			qty = 1
		}
		total = total.Add(FeeFor(line.ProductType).Mul(decimal.NewFromInt(int64(qty))))
	}
	return total
}

// Types returns the rate table.
func Types() []TypeFee {
	out := make([]TypeFee, 0, len(rates))
	for _, r := range rates {
		out = append(out, TypeFee{ProductType: r.productType, Fee: decimal.NewFromInt(r.fee)})
	}
	return out
}

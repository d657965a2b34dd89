package shipping

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCalculate_Examples(t *testing.T) {
	tests := []struct {
		name  string
		lines []Line
		want  int64
	}{
		{"two mini figures", []Line{{"Mini Figure", 2}}, 100},
		{"big figure ships free", []Line{{"Big Figure/Statue", 3}}, 0},
		{"mixed cart", []Line{{"Keychain", 2}, {"Plush", 1}, {"Medium Statue", 1}}, 190},
		{"unknown type uses default", []Line{{"Poster", 1}}, 50},
		{"empty type uses default", []Line{{"", 2}}, 100},
		{"zero quantity counts as one", []Line{{"Standee", 0}}, 35},
		{"negative quantity counts as one", []Line{{"Clothing", -4}}, 40},
		{"no lines", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(tt.lines)
			assert.True(t, decimal.NewFromInt(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestFeeFor_TrimsLabel(t *testing.T) {
	assert.True(t, decimal.NewFromInt(50).Equal(FeeFor(" Mini Figure ")))
}

func TestTypes_ContainsDefault(t *testing.T) {
	types := Types()
	assert.Equal(t, DefaultType, types[len(types)-1].ProductType)
}

// Property: shipping is additive over lines
func TestProperty_ShippingIsAdditive(t *testing.T) {
	properties := gopter.NewProperties(nil)
	typeGen := gen.OneConstOf("Mini Figure", "Plush", "Big Statue", "Keyring", "Medium Figure", "Standee", "Whatever")

	properties.Property("cost of a+b equals cost of a plus cost of b", prop.ForAll(
		func(typeA string, qtyA int, typeB string, qtyB int) bool {
			a := Line{typeA, qtyA}
			b := Line{typeB, qtyB}
			return Calculate([]Line{a, b}).Equal(Calculate([]Line{a}).Add(Calculate([]Line{b})))
		},
		typeGen, gen.IntRange(-5, 50), typeGen, gen.IntRange(-5, 50),
	))

	properties.Property("cost is never negative", prop.ForAll(
		func(productType string, qty int) bool {
			return !Calculate([]Line{{productType, qty}}).IsNegative()
		},
		gen.AnyString(), gen.Int(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

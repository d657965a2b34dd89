// Package reviews serves the storefront testimonial list in an order that changes once per day.
package reviews

import (
	"time"

	"wishyoulucky/internal/pkg/clock"
)

// LCG is a 32-bit linear congruential generator (Numerical Recipes constants).
type LCG struct {
	state uint32
}

func NewLCG(seed uint32) *LCG {
	return &LCG{state: seed}
}

// Next advances the generator and returns the new state.
func (g *LCG) Next() uint32 {
	g.state = g.state*1664525 + 1013904223
	return g.state
}

// Intn returns a value in [0, n). n must be positive.
func (g *LCG) Intn(n int) int {
	return int(g.Next() % uint32(n))
}

// Shuffle returns a permutation of items determined entirely by seed. items is not modified.
func Shuffle[T any](items []T, seed uint32) []T {
	out := make([]T, len(items))
	copy(out, items)

	g := NewLCG(seed)
	for i := len(out) - 1; i > 0; i-- {
		j := g.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// DailySeed encodes the calendar day of t in loc as YYYYMMDD.
func DailySeed(t time.Time, loc *time.Location) uint32 {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return uint32(y*10000 + int(m)*100 + d)
}

// Daily shuffles items with the seed of the current day.
func Daily[T any](items []T, c clock.Clock, loc *time.Location) []T {
	return Shuffle(items, DailySeed(c.Now(), loc))
}

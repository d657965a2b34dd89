package reviews

import (
	"sort"
	"testing"
	"time"

	"wishyoulucky/internal/pkg/clock"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

var bangkok = time.FixedZone("ICT", 7*60*60)

func ids(rs []Review) []int {
	out := make([]int, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestLCG_KnownSequence(t *testing.T) {
	g := NewLCG(0)
	assert.Equal(t, uint32(1013904223), g.Next())
	assert.Equal(t, uint32(1196435762), g.Next())
}

// Property: shuffling with the same seed twice yields the same order
func TestProperty_ShuffleIsDeterministic(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("same seed gives same permutation", prop.ForAll(
		func(items []int, seed uint32) bool {
			a := Shuffle(items, seed)
			b := Shuffle(items, seed)
			if len(a) != len(b) {
				return false
			}
			for i := range a {
				if a[i] != b[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Int()), gen.UInt32(),
	))

	properties.Property("shuffle is a permutation", prop.ForAll(
		func(items []int, seed uint32) bool {
			out := Shuffle(items, seed)
			a := append([]int(nil), items...)
			b := append([]int(nil), out...)
			sort.Ints(a)
			sort.Ints(b)
			if len(a) != len(b) {
				return false
			}
			for i := range a {
				if a[i] != b[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Int()), gen.UInt32(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestShuffle_DoesNotModifyInput(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	Shuffle(items, 42)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, items)
}

func TestDailySeed_UsesShopTimezone(t *testing.T) {
	// 18:30 UTC on Jan 1 is already Jan 2 in Bangkok
	utc := time.Date(2025, 1, 1, 18, 30, 0, 0, time.UTC)
	assert.Equal(t, uint32(20250102), DailySeed(utc, bangkok))
	assert.Equal(t, uint32(20250101), DailySeed(utc, time.UTC))
}

func TestService_StableWithinDay(t *testing.T) {
	mc := clock.NewMockClock(time.Date(2025, 3, 10, 8, 0, 0, 0, bangkok))
	svc := NewService(nil, mc, bangkok)

	morning := ids(svc.Today(0))
	mc.Advance(10 * time.Hour)
	evening := ids(svc.Today(0))
	assert.Equal(t, morning, evening)

	mc.Set(time.Date(2025, 3, 11, 8, 0, 0, 0, bangkok))
	assert.ElementsMatch(t, morning, ids(svc.Today(0)))
}

func TestService_Limit(t *testing.T) {
	svc := NewService(nil, clock.NewMockClock(time.Now()), bangkok)
	assert.Len(t, svc.Today(3), 3)
	assert.Len(t, svc.Today(100), len(Default()))
}

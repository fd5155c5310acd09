package geo

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestEncode_KnownValues(t *testing.T) {
	assert.Equal(t, "u4pruydq", Encode(57.64911, 10.40744, 8))
	assert.Equal(t, "u4pruydqqvj", Encode(57.64911, 10.40744, 11))
	assert.Equal(t, "s0000000", Encode(0, 0, 8))
	assert.Len(t, Encode(37.7749, -122.4194, 0), DefaultPrecision)
}

func TestDistanceMiles_KnownValues(t *testing.T) {
	// New York to Los Angeles
	d := DistanceMiles(40.7128, -74.0060, 34.0522, -118.2437)
	assert.InDelta(t, 2445.0, d, 5.0)

	assert.Equal(t, 0.0, DistanceMiles(51.5, -0.12, 51.5, -0.12))
	assert.True(t, math.IsNaN(DistanceMiles(math.NaN(), 0, 0, 0)))
}

func TestGeoProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	lat := gen.Float64Range(-89.9, 89.9)
	lng := gen.Float64Range(-179.9, 179.9)

	properties.Property("encode is deterministic", prop.ForAll(
		func(la, ln float64) bool {
			return Encode(la, ln, 8) == Encode(la, ln, 8)
		},
		lat, lng,
	))

	properties.Property("shorter hash is a prefix of the longer one", prop.ForAll(
		func(la, ln float64) bool {
			long := Encode(la, ln, 10)
			return long[:6] == Encode(la, ln, 6)
		},
		lat, lng,
	))

	properties.Property("points in the same cell share the cell prefix", prop.ForAll(
		func(la, ln, dLat, dLng float64) bool {
			la2, ln2 := la+dLat, ln+dLng
			if Encode(la, ln, 5) != Encode(la2, ln2, 5) {
				return true
			}
			return commonPrefix(Encode(la, ln, 8), Encode(la2, ln2, 8)) >= 5
		},
		lat, lng, gen.Float64Range(-0.01, 0.01), gen.Float64Range(-0.01, 0.01),
	))

	properties.Property("distance is symmetric and non-negative", prop.ForAll(
		func(la1, ln1, la2, ln2 float64) bool {
			d1 := DistanceMiles(la1, ln1, la2, ln2)
			d2 := DistanceMiles(la2, ln2, la1, ln1)
			return d1 >= 0 && math.Abs(d1-d2) < 1e-6
		},
		lat, lng, lat, lng,
	))

	properties.TestingRun(t)
}

func commonPrefix(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

// Package geo holds the distance and geohash helpers used for radius
// filtering of listings and interests.
package geo

import (
	"math"
	"strings"
)

const (
	// EarthRadiusMiles is the mean Earth radius used by DistanceMiles.
	EarthRadiusMiles = 3959.0

	// DefaultPrecision is the geohash length stored on locations.
	DefaultPrecision = 8

	base32 = "0123456789bcdefghjkmnpqrstuvwxyz"
)

// DistanceMiles returns the great-circle distance between two points using
// the Haversine formula.
func DistanceMiles(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMiles * c
}

// Encode returns the base-32 geohash of the point. Bits alternate between
// longitude and latitude bisection, longitude first, five bits per character.
// A non-positive precision falls back to DefaultPrecision.
func Encode(lat, lng float64, precision int) string {
	if precision <= 0 {
		precision = DefaultPrecision
	}

	latMin, latMax := -90.0, 90.0
	lngMin, lngMax := -180.0, 180.0

	var sb strings.Builder
	sb.Grow(precision)

	idx, bit := 0, 0
	evenBit := true
	for sb.Len() < precision {
		if evenBit {
			mid := (lngMin + lngMax) / 2
			if lng >= mid {
				idx = idx*2 + 1
				lngMin = mid
			} else {
				idx = idx * 2
				lngMax = mid
			}
		} else {
			mid := (latMin + latMax) / 2
			if lat >= mid {
				idx = idx*2 + 1
				latMin = mid
			} else {
				idx = idx * 2
				latMax = mid
			}
		}
		evenBit = !evenBit

		bit++
		if bit == 5 {
			sb.WriteByte(base32[idx])
			bit, idx = 0, 0
		}
	}

	return sb.String()
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

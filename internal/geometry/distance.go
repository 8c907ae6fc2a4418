package geometry

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// ValidCoordinate reports whether lat/lng form a plausible WGS84 point.
func ValidCoordinate(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// DistanceKm returns the great-circle distance between two points in
// kilometers.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	p1 := orb.Point{lng1, lat1}
	p2 := orb.Point{lng2, lat2}
	return geo.Distance(p1, p2) / 1000
}

package engine

import "math"

// EarthRadiusMiles is the mean Earth radius used for all distance math.
// Pre-built containers were validated against this constant; do not change it.
const EarthRadiusMiles = 3958.8

// HaversineMiles returns the great-circle distance in miles between two
// points given in decimal degrees. Pure function: symmetric, zero for
// identical points, accurate well below 0.1 mile at ZIP-code scale.
func HaversineMiles(lat1, lng1, lat2, lng2 float64) float64 {
	const degToRad = math.Pi / 180

	dLat := (lat2 - lat1) * degToRad
	dLng := (lng2 - lng1) * degToRad

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)

	a := sinLat*sinLat + math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*sinLng*sinLng
	return 2 * EarthRadiusMiles * math.Asin(math.Sqrt(a))
}

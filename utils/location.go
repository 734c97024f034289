package utils

import (
	"math"
)

const earthRadiusKm = 6371.0

// HaversineDistance calculates the great-circle distance between two points
// on Earth using the Haversine formula. Returns distance in kilometers.
func HaversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	// Convert degrees to radians
	lat1Rad := lat1 * math.Pi / 180
	lng1Rad := lng1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lng2Rad := lng2 * math.Pi / 180

	dLat := lat2Rad - lat1Rad
	dLng := lng2Rad - lng1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// IsLocationValid checks if coordinates are within valid ranges
func IsLocationValid(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// IsWithinRadius checks if a point is within the given radius of a center point
func IsWithinRadius(centerLat, centerLng, pointLat, pointLng, radiusKm float64) bool {
	return HaversineDistance(centerLat, centerLng, pointLat, pointLng) <= radiusKm
}

// CalculateETA estimates travel time in minutes assuming average city speed
func CalculateETA(distanceKm float64) int {
	const avgSpeedKmh = 30.0
	minutes := (distanceKm / avgSpeedKmh) * 60
	if minutes < 1 {
		return 1
	}
	return int(math.Ceil(minutes))
}

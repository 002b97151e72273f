// Package geo provides great-circle distances between airports.
package geo

import "math"

// EarthRadiusKm is the mean radius of Earth in kilometers.
const EarthRadiusKm = 6371.0

// Coordinates represents a geographic point in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// IsValid returns true if the coordinates are within valid ranges.
func (c Coordinates) IsValid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// IsZero returns true if both coordinates are zero (likely unset).
func (c Coordinates) IsZero() bool {
	return c.Lat == 0 && c.Lon == 0
}

// HaversineKm calculates the great-circle distance in kilometers.
func HaversineKm(from, to Coordinates) float64 {
	lat1 := degreesToRadians(from.Lat)
	lat2 := degreesToRadians(to.Lat)
	deltaLat := degreesToRadians(to.Lat - from.Lat)
	deltaLon := degreesToRadians(to.Lon - from.Lon)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// PricePerKm returns the fare per kilometer of a round trip covering 2*distanceKm.
// Returns 0 for a non-positive distance.
func PricePerKm(price int, distanceKm float64) float64 {
	if distanceKm <= 0 {
		return 0
	}
	return float64(price) / (2 * distanceKm)
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

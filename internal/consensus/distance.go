package consensus

import (
	"math"

	"github.com/chrisdamba/visitconsensus/internal/models"
)

// Distance returns the great-circle distance in meters between two points given in
// degrees. NaN input propagates.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	// Convert latitude and longitude from degrees to radians
	phi1 := degreesToRadians(lat1)
	phi2 := degreesToRadians(lat2)
	dlat := degreesToRadians(lat2 - lat1)
	dlon := degreesToRadians(lng2 - lng1)

	// Haversine formula
	a := math.Pow(math.Sin(dlat/2), 2) + math.Cos(phi1)*math.Cos(phi2)*math.Pow(math.Sin(dlon/2), 2)
	a = math.Max(0, math.Min(1, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return models.EarthRadiusMeters * c
}

// LocationDistance is Distance over two locations.
func LocationDistance(a, b models.Location) float64 {
	return Distance(a.Lat, a.Lon, b.Lat, b.Lon)
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

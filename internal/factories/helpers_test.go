package factories

import (
	"math"

	"github.com/chrisdamba/visitconsensus/internal/models"
)

// equirectangular approximation, accurate to well under a meter at these ranges
func distanceMeters(a, b models.Location) float64 {
	north := (b.Lat - a.Lat) * metersPerDegreeLat
	east := (b.Lon - a.Lon) * metersPerDegreeLat * math.Cos(a.Lat*math.Pi/180)
	return math.Hypot(north, east)
}

package consensus

import (
	"math"

	"github.com/chrisdamba/visitconsensus/internal/models"
)

const (
	baseLat = -1.286389
	baseLon = 36.817223
)

var metersPerDegree = models.EarthRadiusMeters * math.Pi / 180

// offset moves (lat, lon) by north/east meters on the sphere.
func offset(lat, lon, north, east float64) (float64, float64) {
	dLat := north / metersPerDegree
	dLon := east / (metersPerDegree * math.Cos(lat*math.Pi/180))
	return lat + dLat, lon + dLon
}

func rawVisit(id, shop, salesman string, north, east float64) models.RawVisit {
	lat, lon := offset(baseLat, baseLon, north, east)
	return models.RawVisit{
		"visitId":      id,
		"shopName":     shop,
		"salesmanName": salesman,
		"visitDate":    "2024-03-01",
		"latitude":     lat,
		"longitude":    lon,
	}
}

func record(id, shop, salesman string, north, east float64) models.VisitRecord {
	lat, lon := offset(baseLat, baseLon, north, east)
	return models.VisitRecord{
		VisitID:      id,
		ShopID:       shop,
		SalesmanName: salesman,
		Location:     models.Location{Lat: lat, Lon: lon},
	}
}

func memberIDs(c models.LocationCluster) []string {
	ids := make([]string, 0, len(c.Members))
	for _, m := range c.Members {
		ids = append(ids, m.VisitID)
	}
	return ids
}

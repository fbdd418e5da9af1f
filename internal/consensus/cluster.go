package consensus

import (
	"sort"

	"github.com/chrisdamba/visitconsensus/internal/models"
)

// Cluster partitions one shop's visits into star clusters.
//
// Visits are taken as seeds in input order. A seed claims every still unassigned
// visit within models.ClusterRadiusMeters of itself; membership is not transitive, so
// two visits near a common neighbour can land in different clusters depending on
// which of them seeds first. Clusters are returned largest first, ties kept in
// discovery order, so index 0 is the dominant cluster.
func Cluster(visits []models.VisitRecord) []models.LocationCluster {
	assigned := make([]bool, len(visits))
	var clusters []models.LocationCluster

	for i, seed := range visits {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		cluster := models.LocationCluster{
			Seed:    seed,
			Members: []models.VisitRecord{seed},
			Indexes: []int{i},
		}
		for j := i + 1; j < len(visits); j++ {
			if assigned[j] {
				continue
			}
			if LocationDistance(seed.Location, visits[j].Location) <= models.ClusterRadiusMeters {
				assigned[j] = true
				cluster.Members = append(cluster.Members, visits[j])
				cluster.Indexes = append(cluster.Indexes, j)
			}
		}
		clusters = append(clusters, cluster)
	}

	sort.SliceStable(clusters, func(a, b int) bool {
		return clusters[a].Size() > clusters[b].Size()
	})
	return clusters
}

// Centroid is the arithmetic mean of the members' coordinates.
func Centroid(members []models.VisitRecord) models.Location {
	if len(members) == 0 {
		return models.Location{}
	}
	var lat, lon float64
	for _, m := range members {
		lat += m.Location.Lat
		lon += m.Location.Lon
	}
	n := float64(len(members))
	return models.Location{Lat: lat / n, Lon: lon / n}
}

package consensus

import "github.com/chrisdamba/visitconsensus/internal/models"

// GroupByShop partitions records by shop key. Groups come back in order of first
// appearance and keep input order inside each group.
func GroupByShop(records []models.VisitRecord) []models.ShopVisitGroup {
	index := make(map[string]int)
	var groups []models.ShopVisitGroup
	for _, rec := range records {
		i, ok := index[rec.ShopID]
		if !ok {
			i = len(groups)
			index[rec.ShopID] = i
			groups = append(groups, models.ShopVisitGroup{ShopID: rec.ShopID})
		}
		groups[i].Visits = append(groups[i].Visits, rec)
	}
	return groups
}

package consensus

import (
	"math"
	"sort"

	"github.com/chrisdamba/visitconsensus/internal/models"
)

type salesmanTally struct {
	name        string
	shops       int
	perfect     int
	strong      int
	suspicious  int
	fraudFlags  int
	outliers    int
	scoreTotal  int
	lastShopIdx int
}

// AggregateSalesmen rolls shop consensus up per salesman. Shop-level counters use
// the shop's own level regardless of whose visits made it; visit-level counters
// only count the salesman's own visits. Result is sorted by consistency rate,
// highest first, ties in order of first appearance.
func AggregateSalesmen(shops []models.LocationConsensus) []models.SalesmanConsensusAccuracy {
	index := make(map[string]*salesmanTally)
	var order []*salesmanTally

	for shopIdx, shop := range shops {
		for _, d := range shop.VisitDetails {
			t, ok := index[d.SalesmanName]
			if !ok {
				t = &salesmanTally{name: d.SalesmanName, lastShopIdx: -1}
				index[d.SalesmanName] = t
				order = append(order, t)
			}
			if t.lastShopIdx != shopIdx {
				t.lastShopIdx = shopIdx
				t.shops++
				t.scoreTotal += shop.ConsistencyScore
				switch shop.ConsensusLevel {
				case models.ConsensusPerfect:
					t.perfect++
				case models.ConsensusStrong:
					t.strong++
				}
			}
			if d.FraudFlag.Suspect() {
				t.suspicious++
				t.fraudFlags++
			}
			if !d.IsConsensus {
				t.outliers++
			}
		}
	}

	result := make([]models.SalesmanConsensusAccuracy, 0, len(order))
	for _, t := range order {
		result = append(result, models.SalesmanConsensusAccuracy{
			SalesmanName:      t.name,
			TotalShops:        t.shops,
			PerfectConsensus:  t.perfect,
			StrongConsensus:   t.strong,
			SuspiciousVisits:  t.suspicious,
			FraudFlags:        t.fraudFlags,
			ConsistencyRate:   percent(t.perfect+t.strong, t.shops),
			AvgConsensusScore: mean(t.scoreTotal, t.shops),
			TotalOutliers:     t.outliers,
		})
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ConsistencyRate > result[j].ConsistencyRate
	})
	return result
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(whole)))
}

func mean(sum, n int) int {
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}

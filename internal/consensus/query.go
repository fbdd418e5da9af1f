package consensus

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/chrisdamba/visitconsensus/internal/models"
)

type SortField string

const (
	SortByFraudRisk      SortField = "fraud_risk"
	SortByConsensusLevel SortField = "consensus_level"
	SortByConsistency    SortField = "consistency"
	SortByVisits         SortField = "visits"
	SortByDeviating      SortField = "deviating"
	SortByShop           SortField = "shop"
)

// Filter selects shops for display. Zero values match everything.
type Filter struct {
	Level    models.ConsensusLevel
	Salesman string
	Search   string
}

func (f Filter) Match(shop models.LocationConsensus) bool {
	if f.Level != "" && shop.ConsensusLevel != f.Level {
		return false
	}
	if f.Salesman != "" && !shop.HasSalesman(f.Salesman, strings.EqualFold) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(shop.ShopID), needle) &&
			!shop.HasSalesman(needle, containsFold) {
			return false
		}
	}
	return true
}

func containsFold(haystack, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(haystack), lowerNeedle)
}

// FilterShops returns the shops matching f, in their original order.
func FilterShops(shops []models.LocationConsensus, f Filter) []models.LocationConsensus {
	out := make([]models.LocationConsensus, 0, len(shops))
	for _, s := range shops {
		if f.Match(s) {
			out = append(out, s)
		}
	}
	return out
}

// SortShops sorts a copy of shops. Risk and level sort most severe first.
func SortShops(shops []models.LocationConsensus, by SortField) ([]models.LocationConsensus, error) {
	var less func(a, b models.LocationConsensus) bool
	switch by {
	case "":
		return shops, nil
	case SortByFraudRisk:
		less = func(a, b models.LocationConsensus) bool { return a.FraudRisk.Rank() > b.FraudRisk.Rank() }
	case SortByConsensusLevel:
		less = func(a, b models.LocationConsensus) bool { return a.ConsensusLevel.Rank() > b.ConsensusLevel.Rank() }
	case SortByConsistency:
		less = func(a, b models.LocationConsensus) bool { return a.ConsistencyScore < b.ConsistencyScore }
	case SortByVisits:
		less = func(a, b models.LocationConsensus) bool { return a.TotalVisits > b.TotalVisits }
	case SortByDeviating:
		less = func(a, b models.LocationConsensus) bool { return a.DeviatingVisits > b.DeviatingVisits }
	case SortByShop:
		less = func(a, b models.LocationConsensus) bool { return a.ShopID < b.ShopID }
	default:
		return nil, fmt.Errorf("unknown sort field %q", by)
	}

	sorted := make([]models.LocationConsensus, len(shops))
	copy(sorted, shops)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	return sorted, nil
}

// SearchSalesmen keeps salesmen whose name contains search, case-insensitively.
func SearchSalesmen(salesmen []models.SalesmanConsensusAccuracy, search string) []models.SalesmanConsensusAccuracy {
	if search == "" {
		return salesmen
	}
	needle := strings.ToLower(search)
	out := make([]models.SalesmanConsensusAccuracy, 0, len(salesmen))
	for _, s := range salesmen {
		if containsFold(s.SalesmanName, needle) {
			out = append(out, s)
		}
	}
	return out
}

type Summary struct {
	TotalShops     int                           `json:"totalShops"`
	TotalVisits    int                           `json:"totalVisits"`
	TotalOutliers  int                           `json:"totalOutliers"`
	HighRiskShops  int                           `json:"highRiskShops"`
	AvgConsistency int                           `json:"avgConsistency"`
	ByLevel        map[models.ConsensusLevel]int `json:"byLevel"`
	ByRisk         map[models.FraudRisk]int      `json:"byRisk"`
}

func Summarize(shops []models.LocationConsensus) Summary {
	s := Summary{
		ByLevel: make(map[models.ConsensusLevel]int),
		ByRisk:  make(map[models.FraudRisk]int),
	}
	scoreTotal := 0
	for _, shop := range shops {
		s.TotalShops++
		s.TotalVisits += shop.TotalVisits
		s.TotalOutliers += shop.DeviatingVisits
		s.ByLevel[shop.ConsensusLevel]++
		s.ByRisk[shop.FraudRisk]++
		if shop.FraudRisk == models.FraudRiskHigh || shop.FraudRisk == models.FraudRiskCritical {
			s.HighRiskShops++
		}
		scoreTotal += shop.ConsistencyScore
	}
	if s.TotalShops > 0 {
		s.AvgConsistency = int(math.Round(float64(scoreTotal) / float64(s.TotalShops)))
	}
	return s
}

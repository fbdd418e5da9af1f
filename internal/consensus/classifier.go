package consensus

import (
	"math"

	"github.com/chrisdamba/visitconsensus/internal/models"
	"github.com/golang/geo/s2"
)

// Classify builds the consensus of one shop from its visits. group must hold at
// least one visit.
func Classify(group models.ShopVisitGroup, cellLevel int) models.LocationConsensus {
	clusters := Cluster(group.Visits)
	dominant := clusters[0]
	centroid := Centroid(dominant.Members)

	// cluster rank of each visit, by position in the group
	rank := make([]int, len(group.Visits))
	for r, c := range clusters {
		for _, idx := range c.Indexes {
			rank[idx] = r
		}
	}

	total := len(group.Visits)
	details := make([]models.ConsensusVisitDetail, total)
	suspects := 0
	for i, v := range group.Visits {
		deviation := int(math.Round(LocationDistance(v.Location, centroid)))
		flag := FlagFor(deviation)
		if flag.Suspect() {
			suspects++
		}
		details[i] = models.ConsensusVisitDetail{
			VisitID:           v.VisitID,
			VisitDate:         v.VisitDate,
			SalesmanName:      v.SalesmanName,
			Latitude:          v.Location.Lat,
			Longitude:         v.Location.Lon,
			ClusterIndex:      rank[i],
			IsConsensus:       rank[i] == 0,
			DeviationDistance: deviation,
			FraudFlag:         flag,
		}
	}

	score := ConsistencyScore(dominant.Size(), total)
	return models.LocationConsensus{
		ShopID:           group.ShopID,
		TotalVisits:      total,
		DominantLocation: centroid,
		DominantCell:     CellToken(centroid, cellLevel),
		DominantVisits:   dominant.Size(),
		ConsensusLevel:   LevelFor(total, score),
		FraudRisk:        RiskFor(suspects, total),
		DeviatingVisits:  total - dominant.Size(),
		LocationClusters: len(clusters),
		ConsistencyScore: score,
		VisitDetails:     details,
	}
}

// FlagFor classifies a rounded deviation in meters; thresholds are strict.
func FlagFor(deviation int) models.FraudFlag {
	switch {
	case deviation > models.LikelyFraudThresholdMeters:
		return models.FlagLikelyFraud
	case deviation > models.SuspiciousThresholdMeters:
		return models.FlagSuspicious
	case deviation > models.MinorDeviationThresholdMeters:
		return models.FlagMinorDeviation
	default:
		return models.FlagNormal
	}
}

func ConsistencyScore(dominant, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(dominant) / float64(total)))
}

// LevelFor maps a shop's consistency onto a consensus level. PERFECT is only
// reachable by a single-visit shop; a multi-visit shop at 100% reads STRONG.
func LevelFor(total, score int) models.ConsensusLevel {
	if total == 1 {
		return models.ConsensusPerfect
	}
	switch {
	case score >= models.StrongConsensusScore:
		return models.ConsensusStrong
	case score >= models.WeakConsensusScore:
		return models.ConsensusWeak
	case score >= models.SuspiciousConsensusScore:
		return models.ConsensusSuspicious
	default:
		return models.ConsensusCritical
	}
}

// RiskFor rates a shop from the number of suspect visits among total. A single
// suspect in a shop of three or fewer visits falls through to HIGH.
func RiskFor(suspects, total int) models.FraudRisk {
	switch {
	case suspects == 0:
		return models.FraudRiskLow
	case suspects == 1 && total > 3:
		return models.FraudRiskMedium
	case float64(suspects) <= float64(total)/2:
		return models.FraudRiskHigh
	default:
		return models.FraudRiskCritical
	}
}

// CellToken returns the S2 cell token covering loc at level.
func CellToken(loc models.Location, level int) string {
	cell := s2.CellIDFromLatLng(s2.LatLngFromDegrees(loc.Lat, loc.Lon))
	return cell.Parent(level).ToToken()
}

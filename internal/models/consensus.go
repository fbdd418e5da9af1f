package models

import "time"

type ConsensusLevel string

const (
	ConsensusPerfect    ConsensusLevel = "PERFECT"
	ConsensusStrong     ConsensusLevel = "STRONG"
	ConsensusWeak       ConsensusLevel = "WEAK"
	ConsensusSuspicious ConsensusLevel = "SUSPICIOUS"
	ConsensusCritical   ConsensusLevel = "CRITICAL"
)

// Rank orders levels by severity: CRITICAL is highest, PERFECT lowest.
func (l ConsensusLevel) Rank() int {
	switch l {
	case ConsensusCritical:
		return 4
	case ConsensusSuspicious:
		return 3
	case ConsensusWeak:
		return 2
	case ConsensusStrong:
		return 1
	case ConsensusPerfect:
		return 0
	}
	return -1
}

func (l ConsensusLevel) Valid() bool { return l.Rank() >= 0 }

type FraudRisk string

const (
	FraudRiskLow      FraudRisk = "LOW"
	FraudRiskMedium   FraudRisk = "MEDIUM"
	FraudRiskHigh     FraudRisk = "HIGH"
	FraudRiskCritical FraudRisk = "CRITICAL"
)

func (r FraudRisk) Rank() int {
	switch r {
	case FraudRiskCritical:
		return 3
	case FraudRiskHigh:
		return 2
	case FraudRiskMedium:
		return 1
	case FraudRiskLow:
		return 0
	}
	return -1
}

type FraudFlag string

const (
	FlagNormal         FraudFlag = "NORMAL"
	FlagMinorDeviation FraudFlag = "MINOR_DEVIATION"
	FlagSuspicious     FraudFlag = "SUSPICIOUS"
	FlagLikelyFraud    FraudFlag = "LIKELY_FRAUD"
)

// Suspect reports whether the flag counts towards fraud risk and salesman
// suspicious-visit counters.
func (f FraudFlag) Suspect() bool {
	return f == FlagSuspicious || f == FlagLikelyFraud
}

// LocationCluster is a star cluster: every member lies within the cluster radius of
// Seed. Members keep discovery order and always start with the seed.
type LocationCluster struct {
	Seed    VisitRecord
	Members []VisitRecord
	// index of each member in the shop group
	Indexes []int
}

func (c LocationCluster) Size() int { return len(c.Members) }

type ConsensusVisitDetail struct {
	VisitID           string    `json:"visitId"`
	VisitDate         time.Time `json:"visitDate"`
	SalesmanName      string    `json:"salesmanName"`
	Latitude          float64   `json:"latitude"`
	Longitude         float64   `json:"longitude"`
	ClusterIndex      int       `json:"clusterIndex"`
	IsConsensus       bool      `json:"isConsensus"`
	DeviationDistance int       `json:"deviationDistance"`
	FraudFlag         FraudFlag `json:"fraudFlag"`
}

type LocationConsensus struct {
	ShopID           string                 `json:"shopId"`
	TotalVisits      int                    `json:"totalVisits"`
	DominantLocation Location               `json:"dominantLocation"`
	DominantCell     string                 `json:"dominantCell"`
	DominantVisits   int                    `json:"dominantVisits"`
	ConsensusLevel   ConsensusLevel         `json:"consensusLevel"`
	FraudRisk        FraudRisk              `json:"fraudRisk"`
	DeviatingVisits  int                    `json:"deviatingVisits"`
	LocationClusters int                    `json:"locationClusters"`
	ConsistencyScore int                    `json:"consistencyScore"`
	VisitDetails     []ConsensusVisitDetail `json:"visitDetails"`
}

// HasSalesman reports whether any visit of the shop was made by name.
func (c LocationConsensus) HasSalesman(name string, equal func(a, b string) bool) bool {
	for _, d := range c.VisitDetails {
		if equal(d.SalesmanName, name) {
			return true
		}
	}
	return false
}

type SalesmanConsensusAccuracy struct {
	SalesmanName      string `json:"salesmanName"`
	TotalShops        int    `json:"totalShops"`
	PerfectConsensus  int    `json:"perfectConsensus"`
	StrongConsensus   int    `json:"strongConsensus"`
	SuspiciousVisits  int    `json:"suspiciousVisits"`
	FraudFlags        int    `json:"fraudFlags"`
	ConsistencyRate   int    `json:"consistencyRate"`
	AvgConsensusScore int    `json:"avgConsensusScore"`
	TotalOutliers     int    `json:"totalOutliers"`
}

// Report is the result of one full recomputation.
type Report struct {
	GeneratedAt time.Time                   `json:"generatedAt"`
	Shops       []LocationConsensus         `json:"shops"`
	Salesmen    []SalesmanConsensusAccuracy `json:"salesmen"`
}

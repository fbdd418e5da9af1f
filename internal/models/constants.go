package models

const (
	EarthRadiusMeters = 6371000.0

	// ClusterRadiusMeters is the star radius around a cluster seed.
	ClusterRadiusMeters = 100.0

	// per-visit deviation thresholds, strict greater-than
	LikelyFraudThresholdMeters    = 500
	SuspiciousThresholdMeters     = 200
	MinorDeviationThresholdMeters = 100

	StrongConsensusScore     = 90
	WeakConsensusScore       = 70
	SuspiciousConsensusScore = 50

	DefaultCellLevel = 16

	UnknownSalesman = "Unknown"

	TopicShopConsensus    = "shop_consensus"
	TopicVisitDetails     = "visit_details"
	TopicSalesmanAccuracy = "salesman_accuracy"
	TopicRunSummary       = "run_summary"
)

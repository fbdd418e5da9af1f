package output

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/chrisdamba/visitconsensus/internal/consensus"
	"github.com/chrisdamba/visitconsensus/internal/models"
)

// Flat row shapes for each topic. Field names double as column names for the
// csv, parquet and postgres sinks, so every row type stays flat.

type ShopConsensusRow struct {
	RunID            string  `json:"run_id"`
	ShopID           string  `json:"shop_id"`
	TotalVisits      int     `json:"total_visits"`
	DominantLat      float64 `json:"dominant_lat"`
	DominantLon      float64 `json:"dominant_lon"`
	DominantCell     string  `json:"dominant_cell"`
	DominantVisits   int     `json:"dominant_visits"`
	ConsensusLevel   string  `json:"consensus_level"`
	FraudRisk        string  `json:"fraud_risk"`
	DeviatingVisits  int     `json:"deviating_visits"`
	LocationClusters int     `json:"location_clusters"`
	ConsistencyScore int     `json:"consistency_score"`
}

type VisitDetailRow struct {
	RunID             string  `json:"run_id"`
	ShopID            string  `json:"shop_id"`
	VisitID           string  `json:"visit_id"`
	VisitDate         string  `json:"visit_date"`
	SalesmanName      string  `json:"salesman_name"`
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	ClusterIndex      int     `json:"cluster_index"`
	IsConsensus       bool    `json:"is_consensus"`
	DeviationDistance int     `json:"deviation_distance"`
	FraudFlag         string  `json:"fraud_flag"`
}

type SalesmanAccuracyRow struct {
	RunID             string `json:"run_id"`
	SalesmanName      string `json:"salesman_name"`
	TotalShops        int    `json:"total_shops"`
	PerfectConsensus  int    `json:"perfect_consensus"`
	StrongConsensus   int    `json:"strong_consensus"`
	SuspiciousVisits  int    `json:"suspicious_visits"`
	FraudFlags        int    `json:"fraud_flags"`
	ConsistencyRate   int    `json:"consistency_rate"`
	AvgConsensusScore int    `json:"avg_consensus_score"`
	TotalOutliers     int    `json:"total_outliers"`
}

type RunSummaryRow struct {
	RunID          string `json:"run_id"`
	GeneratedAt    string `json:"generated_at"`
	TotalShops     int    `json:"total_shops"`
	TotalVisits    int    `json:"total_visits"`
	TotalOutliers  int    `json:"total_outliers"`
	HighRiskShops  int    `json:"high_risk_shops"`
	AvgConsistency int    `json:"avg_consistency"`
	Salesmen       int    `json:"salesmen"`
}

// topicRows maps each topic to an empty row of its shape.
var topicRows = map[string]interface{}{
	models.TopicShopConsensus:    ShopConsensusRow{},
	models.TopicVisitDetails:     VisitDetailRow{},
	models.TopicSalesmanAccuracy: SalesmanAccuracyRow{},
	models.TopicRunSummary:       RunSummaryRow{},
}

// Publish writes the report to dest: every shop, then every visit detail, then
// every salesman, then one run summary.
func Publish(dest OutputDestination, runID string, report *models.Report, shops []models.LocationConsensus, salesmen []models.SalesmanConsensusAccuracy) error {
	write := func(topic string, row interface{}) error {
		msg, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("failed to encode %s row: %w", topic, err)
		}
		if err := dest.WriteMessage(topic, msg); err != nil {
			return fmt.Errorf("failed to write %s row: %w", topic, err)
		}
		return nil
	}

	for _, shop := range shops {
		if err := write(models.TopicShopConsensus, shopRow(runID, shop)); err != nil {
			return err
		}
	}
	for _, shop := range shops {
		for _, d := range shop.VisitDetails {
			if err := write(models.TopicVisitDetails, visitRow(runID, shop.ShopID, d)); err != nil {
				return err
			}
		}
	}
	for _, s := range salesmen {
		if err := write(models.TopicSalesmanAccuracy, salesmanRow(runID, s)); err != nil {
			return err
		}
	}

	summary := consensus.Summarize(shops)
	return write(models.TopicRunSummary, RunSummaryRow{
		RunID:          runID,
		GeneratedAt:    report.GeneratedAt.UTC().Format(time.RFC3339),
		TotalShops:     summary.TotalShops,
		TotalVisits:    summary.TotalVisits,
		TotalOutliers:  summary.TotalOutliers,
		HighRiskShops:  summary.HighRiskShops,
		AvgConsistency: summary.AvgConsistency,
		Salesmen:       len(salesmen),
	})
}

func shopRow(runID string, shop models.LocationConsensus) ShopConsensusRow {
	return ShopConsensusRow{
		RunID:            runID,
		ShopID:           shop.ShopID,
		TotalVisits:      shop.TotalVisits,
		DominantLat:      shop.DominantLocation.Lat,
		DominantLon:      shop.DominantLocation.Lon,
		DominantCell:     shop.DominantCell,
		DominantVisits:   shop.DominantVisits,
		ConsensusLevel:   string(shop.ConsensusLevel),
		FraudRisk:        string(shop.FraudRisk),
		DeviatingVisits:  shop.DeviatingVisits,
		LocationClusters: shop.LocationClusters,
		ConsistencyScore: shop.ConsistencyScore,
	}
}

func visitRow(runID, shopID string, d models.ConsensusVisitDetail) VisitDetailRow {
	var visitDate string
	if !d.VisitDate.IsZero() {
		visitDate = d.VisitDate.UTC().Format(time.RFC3339)
	}
	return VisitDetailRow{
		RunID:             runID,
		ShopID:            shopID,
		VisitID:           d.VisitID,
		VisitDate:         visitDate,
		SalesmanName:      d.SalesmanName,
		Latitude:          d.Latitude,
		Longitude:         d.Longitude,
		ClusterIndex:      d.ClusterIndex,
		IsConsensus:       d.IsConsensus,
		DeviationDistance: d.DeviationDistance,
		FraudFlag:         string(d.FraudFlag),
	}
}

func salesmanRow(runID string, s models.SalesmanConsensusAccuracy) SalesmanAccuracyRow {
	return SalesmanAccuracyRow{
		RunID:             runID,
		SalesmanName:      s.SalesmanName,
		TotalShops:        s.TotalShops,
		PerfectConsensus:  s.PerfectConsensus,
		StrongConsensus:   s.StrongConsensus,
		SuspiciousVisits:  s.SuspiciousVisits,
		FraudFlags:        s.FraudFlags,
		ConsistencyRate:   s.ConsistencyRate,
		AvgConsensusScore: s.AvgConsensusScore,
		TotalOutliers:     s.TotalOutliers,
	}
}

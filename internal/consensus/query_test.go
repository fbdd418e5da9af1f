package consensus

import (
	"testing"

	"github.com/chrisdamba/visitconsensus/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queryFixture() []models.LocationConsensus {
	return []models.LocationConsensus{
		{
			ShopID: "Mama Njeri Kiosk", TotalVisits: 4, DeviatingVisits: 1, ConsistencyScore: 75,
			ConsensusLevel: models.ConsensusWeak, FraudRisk: models.FraudRiskMedium,
			VisitDetails: []models.ConsensusVisitDetail{{SalesmanName: "Amina"}, {SalesmanName: "Brian"}},
		},
		{
			ShopID: "Corner Duka", TotalVisits: 1, ConsistencyScore: 100,
			ConsensusLevel: models.ConsensusPerfect, FraudRisk: models.FraudRiskLow,
			VisitDetails: []models.ConsensusVisitDetail{{SalesmanName: "Chidi"}},
		},
		{
			ShopID: "Highway Wholesalers", TotalVisits: 6, DeviatingVisits: 4, ConsistencyScore: 33,
			ConsensusLevel: models.ConsensusCritical, FraudRisk: models.FraudRiskCritical,
			VisitDetails: []models.ConsensusVisitDetail{{SalesmanName: "Brian"}},
		},
		{
			ShopID: "Lakeview Mart", TotalVisits: 10, DeviatingVisits: 0, ConsistencyScore: 100,
			ConsensusLevel: models.ConsensusStrong, FraudRisk: models.FraudRiskLow,
			VisitDetails: []models.ConsensusVisitDetail{{SalesmanName: "Amina"}},
		},
	}
}

func shopIDs(shops []models.LocationConsensus) []string {
	ids := make([]string, 0, len(shops))
	for _, s := range shops {
		ids = append(ids, s.ShopID)
	}
	return ids
}

func TestFilterShops(t *testing.T) {
	shops := queryFixture()
	cases := []struct {
		name     string
		filter   Filter
		expected []string
	}{
		{"no filter", Filter{}, []string{"Mama Njeri Kiosk", "Corner Duka", "Highway Wholesalers", "Lakeview Mart"}},
		{"by level", Filter{Level: models.ConsensusCritical}, []string{"Highway Wholesalers"}},
		{"by salesman", Filter{Salesman: "brian"}, []string{"Mama Njeri Kiosk", "Highway Wholesalers"}},
		{"search shop", Filter{Search: "DUKA"}, []string{"Corner Duka"}},
		{"search salesman", Filter{Search: "ami"}, []string{"Mama Njeri Kiosk", "Lakeview Mart"}},
		{"combined", Filter{Level: models.ConsensusStrong, Salesman: "Amina"}, []string{"Lakeview Mart"}},
		{"nothing", Filter{Search: "zzz"}, []string{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.expected, shopIDs(FilterShops(shops, c.filter)))
		})
	}
}

func TestSortShops(t *testing.T) {
	shops := queryFixture()
	cases := []struct {
		by       SortField
		expected []string
	}{
		{SortByFraudRisk, []string{"Highway Wholesalers", "Mama Njeri Kiosk", "Corner Duka", "Lakeview Mart"}},
		{SortByConsensusLevel, []string{"Highway Wholesalers", "Mama Njeri Kiosk", "Lakeview Mart", "Corner Duka"}},
		{SortByConsistency, []string{"Highway Wholesalers", "Mama Njeri Kiosk", "Corner Duka", "Lakeview Mart"}},
		{SortByVisits, []string{"Lakeview Mart", "Highway Wholesalers", "Mama Njeri Kiosk", "Corner Duka"}},
		{SortByDeviating, []string{"Highway Wholesalers", "Mama Njeri Kiosk", "Corner Duka", "Lakeview Mart"}},
		{SortByShop, []string{"Corner Duka", "Highway Wholesalers", "Lakeview Mart", "Mama Njeri Kiosk"}},
		{"", []string{"Mama Njeri Kiosk", "Corner Duka", "Highway Wholesalers", "Lakeview Mart"}},
	}
	for _, c := range cases {
		t.Run(string(c.by), func(t *testing.T) {
			sorted, err := SortShops(shops, c.by)
			require.NoError(t, err)
			assert.Equal(t, c.expected, shopIDs(sorted))
		})
	}
	assert.Equal(t, "Mama Njeri Kiosk", shops[0].ShopID, "input is left untouched")

	_, err := SortShops(shops, "bogus")
	assert.Error(t, err)
}

func TestSearchSalesmen(t *testing.T) {
	salesmen := []models.SalesmanConsensusAccuracy{{SalesmanName: "Amina Wanjiru"}, {SalesmanName: "Brian Otieno"}}
	assert.Len(t, SearchSalesmen(salesmen, ""), 2)
	found := SearchSalesmen(salesmen, "otie")
	require.Len(t, found, 1)
	assert.Equal(t, "Brian Otieno", found[0].SalesmanName)
}

func TestSummarize(t *testing.T) {
	s := Summarize(queryFixture())
	assert.Equal(t, 4, s.TotalShops)
	assert.Equal(t, 21, s.TotalVisits)
	assert.Equal(t, 5, s.TotalOutliers)
	assert.Equal(t, 1, s.HighRiskShops)
	assert.Equal(t, 77, s.AvgConsistency)
	assert.Equal(t, 1, s.ByLevel[models.ConsensusCritical])
	assert.Equal(t, 2, s.ByRisk[models.FraudRiskLow])

	empty := Summarize(nil)
	assert.Zero(t, empty.TotalShops)
	assert.Zero(t, empty.AvgConsistency)
}

package factories

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/chrisdamba/visitconsensus/internal/models"
	"github.com/jaswdr/faker"
	"github.com/lucsky/cuid"
)

const (
	maxJitterMeters    = 40.0
	minDisplacedMeters = 300.0
	maxDisplacedMeters = 2000.0
	metersPerDegreeLat = models.EarthRadiusMeters * math.Pi / 180
)

// VisitFactory synthesizes shop visits: most near the shop, a share displaced far
// enough to be flagged, and a share with broken coordinates.
type VisitFactory struct {
	fake  faker.Faker
	rng   *rand.Rand
	shops *ShopFactory
}

func NewVisitFactory(seed int64) *VisitFactory {
	rng := rand.New(rand.NewSource(seed))
	fake := faker.NewWithSeed(rand.NewSource(seed))
	return &VisitFactory{
		fake:  fake,
		rng:   rng,
		shops: NewShopFactory(fake, rng),
	}
}

func (vf *VisitFactory) CreateSalesmen(n int) []string {
	names := make([]string, 0, n)
	seen := make(map[string]bool)
	for len(names) < n {
		name := vf.fake.Person().Name()
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

func (vf *VisitFactory) CreateVisit(config *models.Config, shop Shop, salesman string) models.VisitRow {
	loc := vf.displace(shop.Location, vf.rng.Float64()*maxJitterMeters)

	switch r := vf.rng.Float64(); {
	case r < config.InvalidRatio:
		if vf.rng.Intn(2) == 0 {
			loc.Lat = 0
		} else {
			loc.Lon = 0
		}
	case r < config.InvalidRatio+config.FraudRatio:
		d := minDisplacedMeters + vf.rng.Float64()*(maxDisplacedMeters-minDisplacedMeters)
		loc = vf.displace(shop.Location, d)
	}

	end := config.EndDate
	if !end.After(config.StartDate) {
		window := config.VisitInterval
		if window <= 0 {
			window = 24 * time.Hour
		}
		end = config.StartDate.Add(window)
	}
	row := models.VisitRow{
		VisitID:      cuid.New(),
		VisitDate:    vf.fake.Time().TimeBetween(config.StartDate, end).UTC().Format(time.RFC3339),
		SalesmanName: salesman,
		ShopName:     shop.Name,
		ShopID:       shop.ID,
		Latitude:     loc.Lat,
		Longitude:    loc.Lon,
	}
	return row
}

// Generate builds the full visit set described by config, ordered by visit date.
// Each shop is served by one or two salesmen.
func (vf *VisitFactory) Generate(config *models.Config) []models.VisitRow {
	salesmen := vf.CreateSalesmen(max(config.Salesmen, 1))
	rows := make([]models.VisitRow, 0, config.Shops*config.VisitsPerShop)

	for i := 0; i < config.Shops; i++ {
		shop := vf.shops.CreateShop(config)
		primary := salesmen[vf.rng.Intn(len(salesmen))]
		backup := salesmen[vf.rng.Intn(len(salesmen))]
		for j := 0; j < config.VisitsPerShop; j++ {
			salesman := primary
			if vf.rng.Float64() < 0.25 {
				salesman = backup
			}
			rows = append(rows, vf.CreateVisit(config, shop, salesman))
		}
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].VisitDate < rows[j].VisitDate })
	return rows
}

// displace moves from by meters along a random bearing.
func (vf *VisitFactory) displace(from models.Location, meters float64) models.Location {
	bearing := vf.rng.Float64() * 2 * math.Pi
	north := meters * math.Cos(bearing)
	east := meters * math.Sin(bearing)
	return models.Location{
		Lat: from.Lat + north/metersPerDegreeLat,
		Lon: from.Lon + east/(metersPerDegreeLat*math.Cos(from.Lat*math.Pi/180)),
	}
}

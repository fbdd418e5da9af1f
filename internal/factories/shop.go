package factories

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"

	"github.com/chrisdamba/visitconsensus/internal/models"
	"github.com/jaswdr/faker"
	"github.com/lucsky/cuid"
)

// Shop is a synthetic outlet with a known true position.
type Shop struct {
	ID       string
	Name     string
	Location models.Location
}

type ShopFactory struct {
	fake      faker.Faker
	rng       *rand.Rand
	nameCache sync.Map // to track used names
}

func NewShopFactory(fake faker.Faker, rng *rand.Rand) *ShopFactory {
	return &ShopFactory{fake: fake, rng: rng}
}

func (sf *ShopFactory) CreateShop(config *models.Config) Shop {
	latRange := config.UrbanRadius / 111.0 // Approx. conversion from km to degrees
	lonRange := latRange / math.Cos(config.CityLat*math.Pi/180.0)

	latOffset := (sf.rng.Float64()*2 - 1) * latRange
	lonOffset := (sf.rng.Float64()*2 - 1) * lonRange

	return Shop{
		ID:   cuid.New(),
		Name: sf.createUniqueName(sf.fake.Company().Name()),
		Location: models.Location{
			Lat: config.CityLat + latOffset,
			Lon: config.CityLon + lonOffset,
		},
	}
}

// createUniqueName keeps shop names distinct, since the name is the grouping key.
func (sf *ShopFactory) createUniqueName(name string) string {
	base := strings.TrimSpace(name)
	unique := base
	counter := 1

	for {
		if _, exists := sf.nameCache.LoadOrStore(strings.ToLower(unique), true); !exists {
			return unique
		}
		unique = fmt.Sprintf("%s #%d", base, counter)
		counter++
	}
}

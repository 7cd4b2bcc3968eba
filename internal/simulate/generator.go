// Package simulate produces plausible synthetic price reports for seeding a
// development database.
package simulate

import (
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"agrimap/server/config"
	"agrimap/server/internal/models"
)

// jitterDegrees is the half-width of the box reports scatter in around a city center
const jitterDegrees = 0.01

var barangays = []string{
	"San Isidro", "San Roque", "Poblacion", "Bagong Silang", "Mabini", "Del Pilar", "San Jose", "San Juan", "Santa Cruz", "Burgos",
	"Maligaya", "Rizal", "San Antonio", "San Pedro", "San Vicente", "Santa Maria", "San Francisco", "San Miguel", "San Andres", "San Nicolas",
}

var notes = []string{
	"", "Fresh from farm", "Wholesale price", "Retail price", "Limited stocks", "High demand",
	"Direct from supplier", "Market day", "Rainy weather", "Good quality", "Organic", "Imported", "Local harvest",
}

var (
	roles      = []models.Role{models.RoleBuyer, models.RoleFarmer, models.RoleRegular}
	traffic    = []models.TrafficStatus{models.TrafficLight, models.TrafficModerate, models.TrafficHeavy}
	conditions = []models.MarketCondition{
		models.MarketNormal, models.MarketPanicBuying, models.MarketOverstocked, models.MarketHighDemand, models.MarketLowSupply,
	}
)

// priceBand is the [base, base+spread) range for a product category
type priceBand struct {
	base, spread float64
}

var priceBands = map[string]priceBand{
	"rice":       {30, 20},
	"vegetables": {20, 30},
	"fruits":     {25, 40},
	"livestock":  {180, 100},
	"poultry":    {120, 60},
	"fish":       {80, 60},
}

var defaultBand = priceBand{50, 50}

type Generator struct {
	rng      *rand.Rand
	cities   []config.City
	products []models.Product
	now      func() time.Time

	// Spread scatters timestamps over [now-Spread, now]
	Spread time.Duration
}

func NewGenerator(seed int64, cities []config.City, products []models.Product) *Generator {
	return &Generator{
		rng:      rand.New(rand.NewSource(seed)),
		cities:   cities,
		products: products,
		now:      time.Now,
	}
}

// Reports generates n reports ready to enqueue
func (g *Generator) Reports(n int) []*models.PriceReport {
	out := make([]*models.PriceReport, 0, n)
	for i := 0; i < n; i++ {
		r := g.Report()
		out = append(out, &r)
	}
	return out
}

// Report generates a single report around a random city
func (g *Generator) Report() models.PriceReport {
	city := g.cities[g.rng.Intn(len(g.cities))]
	product := g.products[g.rng.Intn(len(g.products))]

	ts := g.now().UTC()
	if g.Spread > 0 {
		ts = ts.Add(-time.Duration(g.rng.Int63n(int64(g.Spread))))
	}

	return models.PriceReport{
		ID:      uuid.NewString(),
		Role:    roles[g.rng.Intn(len(roles))],
		Product: product,
		Price:   g.price(product.Category),
		Location: models.Location{
			Latitude:     city.Center[0] + (g.rng.Float64()-0.5)*2*jitterDegrees,
			Longitude:    city.Center[1] + (g.rng.Float64()-0.5)*2*jitterDegrees,
			Barangay:     barangays[g.rng.Intn(len(barangays))],
			Municipality: city.Name,
			Province:     city.Province,
		},
		TrafficStatus:   traffic[g.rng.Intn(len(traffic))],
		MarketCondition: conditions[g.rng.Intn(len(conditions))],
		Weather:         g.weather(),
		Notes:           notes[g.rng.Intn(len(notes))],
		Timestamp:       ts,
	}
}

func (g *Generator) price(category string) float64 {
	band, ok := priceBands[category]
	if !ok {
		band = defaultBand
	}
	return round(band.base+g.rng.Float64()*band.spread, 2)
}

func (g *Generator) weather() *models.Weather {
	switch g.rng.Intn(5) {
	case 0:
		return &models.Weather{Condition: "Sunny", Description: "Sunny", Humidity: float64(60 + g.rng.Intn(20)), Temperature: round(28+g.rng.Float64()*8, 1)}
	case 1:
		return &models.Weather{Condition: "Partly Cloudy", Description: "Partly Cloudy", Humidity: float64(70 + g.rng.Intn(15)), Temperature: round(26+g.rng.Float64()*7, 1)}
	case 2:
		return &models.Weather{Condition: "Rainy", Description: "Rain Showers", Humidity: float64(80 + g.rng.Intn(10)), Temperature: round(24+g.rng.Float64()*5, 1)}
	case 3:
		return &models.Weather{Condition: "Thunderstorm", Description: "Thunderstorm", Humidity: float64(85 + g.rng.Intn(10)), Temperature: round(23+g.rng.Float64()*4, 1)}
	default:
		return &models.Weather{Condition: "Cloudy", Description: "Cloudy", Humidity: float64(75 + g.rng.Intn(10)), Temperature: round(25+g.rng.Float64()*6, 1)}
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

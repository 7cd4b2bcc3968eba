package market

import (
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"agrimap/server/internal/geometry"
	"agrimap/server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	cityA = models.Location{Latitude: 14.00, Longitude: 121.00, Municipality: "City A", Province: "Laguna"}
	cityB = models.Location{Latitude: 14.00, Longitude: 121.40, Municipality: "City B", Province: "Quezon"}
)

var tomato = models.Product{ID: "tomato", Name: "Tomato", Category: "vegetables", Unit: "kg"}

var reportSeq int

func newReport(role models.Role, product models.Product, price float64, at models.Location) models.PriceReport {
	reportSeq++
	return models.PriceReport{
		ID:        fmt.Sprintf("r%d", reportSeq),
		Role:      role,
		Product:   product,
		Price:     price,
		Location:  at,
		Timestamp: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC),
	}
}

// scenarioReports is five farmer tomato reports at City A and one buyer
// report at City B, roughly 43km east.
func scenarioReports() []models.PriceReport {
	var reports []models.PriceReport
	for _, price := range []float64{40, 35, 50, 45, 30} {
		reports = append(reports, newReport(models.RoleFarmer, tomato, price, cityA))
	}
	reports = append(reports, newReport(models.RoleBuyer, tomato, 55, cityB))
	return reports
}

func TestAggregate_GroupsByRoundedCoordinates(t *testing.T) {
	jittered := cityA
	jittered.Latitude += 0.0002
	jittered.Longitude -= 0.0003

	reports := []models.PriceReport{
		newReport(models.RoleFarmer, tomato, 40, cityA),
		newReport(models.RoleBuyer, tomato, 45, cityB),
		newReport(models.RoleFarmer, tomato, 42, jittered),
		newReport(models.RoleRegular, tomato, 41, cityA),
		newReport(models.RoleBuyer, tomato, 43, cityA),
	}

	clusters, err := Aggregate(reports, "")
	require.NoError(t, err)
	require.Len(t, clusters, 2)

	a := clusters[0]
	assert.Equal(t, "14.000,121.000", a.Key)
	assert.Equal(t, cityA, a.Location, "representative location is the first member's raw location")
	assert.Equal(t, 2, a.Farmers)
	assert.Equal(t, 1, a.Buyers)
	assert.Len(t, a.Reports, 4, "regular reports count toward membership")
	assert.Less(t, a.Farmers+a.Buyers, len(a.Reports))

	b := clusters[1]
	assert.Equal(t, "14.000,121.400", b.Key)
	assert.Equal(t, 0, b.Farmers)
	assert.Equal(t, 1, b.Buyers)
}

func TestAggregate_EdgeCases(t *testing.T) {
	t.Run("Empty input", func(t *testing.T) {
		clusters, err := Aggregate(nil, "")
		assert.NoError(t, err)
		assert.Empty(t, clusters)
	})

	t.Run("Unknown product", func(t *testing.T) {
		clusters, err := Aggregate(scenarioReports(), "durian")
		assert.NoError(t, err)
		assert.Empty(t, clusters)
	})

	t.Run("Product filter", func(t *testing.T) {
		onion := models.Product{ID: "onion-red", Unit: "kg"}
		reports := append(scenarioReports(), newReport(models.RoleFarmer, onion, 90, cityB))
		clusters, err := Aggregate(reports, "onion-red")
		require.NoError(t, err)
		require.Len(t, clusters, 1)
		assert.Equal(t, 1, clusters[0].Farmers)
	})

	t.Run("Missing names", func(t *testing.T) {
		unnamed := models.Location{Latitude: 13.5, Longitude: 122.1}
		clusters, err := Aggregate([]models.PriceReport{newReport(models.RoleBuyer, tomato, 10, unnamed)}, "")
		require.NoError(t, err)
		require.Len(t, clusters, 1)
		assert.Empty(t, clusters[0].Location.Municipality)
	})

	t.Run("Malformed coordinates fail fast", func(t *testing.T) {
		bad := newReport(models.RoleFarmer, tomato, 40, models.Location{Latitude: math.NaN(), Longitude: 121})
		reports := append(scenarioReports(), bad)
		clusters, err := Aggregate(reports, "")
		assert.Nil(t, clusters)
		assert.ErrorIs(t, err, models.ErrInvalidCoordinates)
		assert.Contains(t, err.Error(), bad.ID)
	})

	t.Run("Malformed report outside the product filter is ignored", func(t *testing.T) {
		bad := newReport(models.RoleFarmer, models.Product{ID: "garlic"}, -1, cityA)
		clusters, err := Aggregate(append(scenarioReports(), bad), "tomato")
		assert.NoError(t, err)
		assert.Len(t, clusters, 2)
	})
}

func randomReports(r *rand.Rand, n int) []models.PriceReport {
	roles := []models.Role{models.RoleBuyer, models.RoleFarmer, models.RoleRegular}
	municipalities := []string{"Lipa", "Tanauan", "Calamba", ""}
	reports := make([]models.PriceReport, n)
	for i := range reports {
		at := models.Location{
			Latitude:     14.0 + float64(r.Intn(8))*0.05 + r.Float64()*0.0004,
			Longitude:    121.0 + float64(r.Intn(8))*0.05 + r.Float64()*0.0004,
			Municipality: municipalities[r.Intn(len(municipalities))],
		}
		reports[i] = newReport(roles[r.Intn(len(roles))], tomato, 20+r.Float64()*40, at)
	}
	return reports
}

func TestAggregate_Partition(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for round := 0; round < 20; round++ {
		reports := randomReports(r, 1+r.Intn(200))

		clusters, err := Aggregate(reports, "")
		require.NoError(t, err)
		assert.LessOrEqual(t, len(clusters), len(reports))

		seen := make(map[string]int)
		for _, c := range clusters {
			farmers, buyers := 0, 0
			for _, m := range c.Reports {
				seen[m.ID]++
				assert.Equal(t, c.Key, geometry.LocationKey(m.Location, geometry.DefaultKeyPrecision))
				switch m.Role {
				case models.RoleFarmer:
					farmers++
				case models.RoleBuyer:
					buyers++
				}
			}
			assert.Equal(t, farmers, c.Farmers)
			assert.Equal(t, buyers, c.Buyers)
		}
		require.Len(t, seen, len(reports))
		for id, n := range seen {
			assert.Equal(t, 1, n, "report %s must be in exactly one cluster", id)
		}
	}
}

func TestAggregateClassify_Idempotent(t *testing.T) {
	reports := randomReports(rand.New(rand.NewSource(9)), 300)

	first, err := Aggregate(reports, "")
	require.NoError(t, err)
	second, err := Aggregate(reports, "")
	require.NoError(t, err)

	assert.Equal(t, Classify(first), Classify(second))
}

func cluster(key string, farmers, buyers int) models.Cluster {
	return models.Cluster{Key: key, Farmers: farmers, Buyers: buyers}
}

func TestClassify_Thresholds(t *testing.T) {
	tests := []struct {
		name       string
		clusters   []models.Cluster
		wantSupply []models.SupplyLevel
		wantDemand []models.DemandLevel
	}{
		{
			name:       "Max of 20 farmers",
			clusters:   []models.Cluster{cluster("a", 20, 0), cluster("b", 4, 0), cluster("c", 3, 0), cluster("d", 2, 0), cluster("e", 1, 0)},
			wantSupply: []models.SupplyLevel{models.SupplySuperHigh, models.SupplySuperHigh, models.SupplyMediumHigh, models.SupplyMediumHigh, models.SupplyNone},
			wantDemand: []models.DemandLevel{models.DemandNone, models.DemandNone, models.DemandNone, models.DemandNone, models.DemandNone},
		},
		{
			name:       "Ceil boundary with max of 7 buyers",
			clusters:   []models.Cluster{cluster("a", 0, 7), cluster("b", 0, 2), cluster("c", 0, 1)},
			wantSupply: []models.SupplyLevel{models.SupplyNone, models.SupplyNone, models.SupplyNone},
			wantDemand: []models.DemandLevel{models.DemandSuperHigh, models.DemandSuperHigh, models.DemandMediumHigh},
		},
		{
			name:       "Zero counts never classified",
			clusters:   []models.Cluster{cluster("a", 0, 0), cluster("b", 0, 0)},
			wantSupply: []models.SupplyLevel{models.SupplyNone, models.SupplyNone},
			wantDemand: []models.DemandLevel{models.DemandNone, models.DemandNone},
		},
		{
			name:       "Supply and demand are independent",
			clusters:   []models.Cluster{cluster("market", 10, 10), cluster("farm", 1, 0)},
			wantSupply: []models.SupplyLevel{models.SupplySuperHigh, models.SupplyMediumHigh},
			wantDemand: []models.DemandLevel{models.DemandSuperHigh, models.DemandNone},
		},
		{
			name:       "Single report is its own maximum",
			clusters:   []models.Cluster{cluster("a", 1, 1)},
			wantSupply: []models.SupplyLevel{models.SupplySuperHigh},
			wantDemand: []models.DemandLevel{models.DemandSuperHigh},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.clusters)
			require.Len(t, got, len(tt.clusters))
			for i, c := range got {
				assert.Equal(t, tt.clusters[i].Key, c.Key, "input order preserved")
				assert.Equal(t, tt.wantSupply[i], c.SupplyLevel, "supply of %s", c.Key)
				assert.Equal(t, tt.wantDemand[i], c.DemandLevel, "demand of %s", c.Key)
			}
		})
	}
}

func TestClassify_CeilBoundaryProperty(t *testing.T) {
	for farmerMax := 1; farmerMax <= 60; farmerMax++ {
		boundary := int(math.Ceil(0.2 * float64(farmerMax)))
		clusters := Classify([]models.Cluster{
			cluster("max", farmerMax, 0),
			cluster("boundary", boundary, 0),
			cluster("below", boundary-1, 0),
		})

		assert.Equal(t, models.SupplySuperHigh, clusters[1].SupplyLevel, "max=%d", farmerMax)
		below := clusters[2]
		if below.Farmers == 0 || float64(below.Farmers) < 0.1*float64(farmerMax) {
			assert.Equal(t, models.SupplyNone, below.SupplyLevel, "max=%d", farmerMax)
		} else {
			assert.Equal(t, models.SupplyMediumHigh, below.SupplyLevel, "max=%d", farmerMax)
		}
	}
}

func TestClassify_DoesNotMutateInput(t *testing.T) {
	in := []models.Cluster{cluster("a", 5, 0)}
	out := Classify(in)
	assert.Equal(t, models.SupplyNone, in[0].SupplyLevel)
	assert.Equal(t, models.SupplySuperHigh, out[0].SupplyLevel)
}

func TestEndToEnd_Rebalance(t *testing.T) {
	clusters, err := Aggregate(scenarioReports(), "tomato")
	require.NoError(t, err)
	classified := Classify(clusters)
	require.Len(t, classified, 2)

	assert.Equal(t, models.SupplySuperHigh, classified[0].SupplyLevel)
	assert.Equal(t, models.DemandNone, classified[0].DemandLevel)
	assert.Equal(t, models.SupplyNone, classified[1].SupplyLevel)
	assert.Equal(t, models.DemandSuperHigh, classified[1].DemandLevel)

	pairs := Rebalance(classified, 50)
	require.Len(t, pairs, 1)
	p := pairs[0]
	assert.Equal(t, cityA, p.From)
	assert.Equal(t, cityB, p.To)
	assert.Equal(t, 5, p.SupplyCount)
	assert.Equal(t, 1, p.DemandCount)
	assert.InDelta(t, 43.1, p.DistanceKm, 0.5)
	assert.InDelta(t, 6/(p.DistanceKm+1), p.Score, 1e-9)

	assert.Empty(t, Rebalance(classified, 10), "separation exceeds the 10km limit")
}

func TestRebalance_DefaultDistance(t *testing.T) {
	clusters, err := Aggregate(scenarioReports(), "")
	require.NoError(t, err)
	classified := Classify(clusters)

	assert.Len(t, Rebalance(classified, 0), 1)
	assert.Len(t, Rebalance(classified, math.NaN()), 1)
}

func classified(key string, at models.Location, farmers, buyers int, s models.SupplyLevel, d models.DemandLevel) models.Cluster {
	return models.Cluster{Key: key, Location: at, Farmers: farmers, Buyers: buyers, SupplyLevel: s, DemandLevel: d}
}

func TestRebalance_Matching(t *testing.T) {
	origin := models.Location{Latitude: 14.0, Longitude: 121.0, Municipality: "Origin"}
	east := models.Location{Latitude: 14.0, Longitude: 121.1, Municipality: "East"}
	west := models.Location{Latitude: 14.0, Longitude: 120.9, Municipality: "West"}
	far := models.Location{Latitude: 14.0, Longitude: 121.3, Municipality: "Far"}

	t.Run("Ties keep the first candidate", func(t *testing.T) {
		pairs := Rebalance([]models.Cluster{
			classified("s", origin, 2, 0, models.SupplySuperHigh, models.DemandNone),
			classified("e", east, 0, 2, models.SupplyNone, models.DemandSuperHigh),
			classified("w", west, 0, 2, models.SupplyNone, models.DemandSuperHigh),
		}, 50)
		require.Len(t, pairs, 1)
		assert.Equal(t, "e", pairs[0].ToKey)
	})

	t.Run("Larger demand beats proximity when score is higher", func(t *testing.T) {
		pairs := Rebalance([]models.Cluster{
			classified("s", origin, 1, 0, models.SupplySuperHigh, models.DemandNone),
			classified("e", east, 0, 1, models.SupplyNone, models.DemandMediumHigh),
			classified("far", far, 0, 20, models.SupplyNone, models.DemandSuperHigh),
		}, 50)
		require.Len(t, pairs, 1)
		assert.Equal(t, "far", pairs[0].ToKey)
		assert.Equal(t, 20, pairs[0].DemandCount)
	})

	t.Run("Same municipality is skipped", func(t *testing.T) {
		sameTown := east
		sameTown.Municipality = "Origin"
		pairs := Rebalance([]models.Cluster{
			classified("s", origin, 3, 0, models.SupplySuperHigh, models.DemandNone),
			classified("d", sameTown, 0, 3, models.SupplyNone, models.DemandSuperHigh),
		}, 50)
		assert.Empty(t, pairs)
	})

	t.Run("Unknown municipalities can be matched", func(t *testing.T) {
		a, b := origin, east
		a.Municipality, b.Municipality = "", ""
		pairs := Rebalance([]models.Cluster{
			classified("s", a, 3, 0, models.SupplySuperHigh, models.DemandNone),
			classified("d", b, 0, 3, models.SupplyNone, models.DemandSuperHigh),
		}, 50)
		assert.Len(t, pairs, 1)
	})

	t.Run("Never self matched", func(t *testing.T) {
		unnamed := origin
		unnamed.Municipality = ""
		pairs := Rebalance([]models.Cluster{
			classified("both", unnamed, 5, 5, models.SupplySuperHigh, models.DemandSuperHigh),
		}, 50)
		assert.Empty(t, pairs)
	})

	t.Run("Demand cluster may receive several supply clusters", func(t *testing.T) {
		pairs := Rebalance([]models.Cluster{
			classified("w", west, 4, 0, models.SupplySuperHigh, models.DemandNone),
			classified("e", east, 4, 0, models.SupplySuperHigh, models.DemandNone),
			classified("o", origin, 0, 4, models.SupplyNone, models.DemandSuperHigh),
		}, 50)
		require.Len(t, pairs, 2)
		assert.Equal(t, "w", pairs[0].FromKey)
		assert.Equal(t, "e", pairs[1].FromKey)
		assert.Equal(t, "o", pairs[0].ToKey)
		assert.Equal(t, "o", pairs[1].ToKey)
	})

	t.Run("Empty sets", func(t *testing.T) {
		assert.Empty(t, Rebalance(nil, 50))
		assert.Empty(t, Rebalance([]models.Cluster{
			classified("s", origin, 3, 0, models.SupplySuperHigh, models.DemandNone),
		}, 50))
	})
}

func TestRebalance_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for round := 0; round < 30; round++ {
		maxKm := 5 + r.Float64()*60
		clusters, err := Aggregate(randomReports(r, 150), "")
		require.NoError(t, err)
		classifiedClusters := Classify(clusters)

		supplyClusters := 0
		for _, c := range classifiedClusters {
			if c.SupplyLevel != models.SupplyNone {
				supplyClusters++
			}
		}

		pairs := Rebalance(classifiedClusters, maxKm)
		assert.LessOrEqual(t, len(pairs), supplyClusters)
		for _, p := range pairs {
			assert.NotEqual(t, p.FromKey, p.ToKey)
			assert.LessOrEqual(t, p.DistanceKm, maxKm)
			if p.From.Municipality != "" {
				assert.NotEqual(t, p.From.Municipality, p.To.Municipality)
			}
		}
	}
}

func TestRecommend_BuyerScenario(t *testing.T) {
	reports := scenarioReports()[:5]
	original := append([]models.PriceReport(nil), reports...)

	recs, err := Recommend(models.RoleBuyer, cityB, reports, "tomato")
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, []float64{30, 35, 40}, []float64{recs[0].Price, recs[1].Price, recs[2].Price})
	for _, rec := range recs {
		assert.Equal(t, models.RecommendBuyHere, rec.Type)
		assert.Equal(t, 0.8, rec.Confidence)
		assert.InDelta(t, 43.1, rec.DistanceKm, 0.5)
		assert.LessOrEqual(t, rec.DistanceKm, 50.0)
	}
	assert.Equal(t, "Low price: 30.00 per kg", recs[0].Reason)
	assert.Equal(t, original, reports, "caller's slice is not reordered")
}

func TestRecommend_Farmer(t *testing.T) {
	near := models.Location{Latitude: 14.1, Longitude: 121.1}
	farAway := models.Location{Latitude: 16.4, Longitude: 120.6} // Baguio, well over 100km

	reports := []models.PriceReport{
		newReport(models.RoleBuyer, tomato, 80, farAway),
		newReport(models.RoleBuyer, tomato, 70, near),
		newReport(models.RoleBuyer, tomato, 65, near),
		newReport(models.RoleBuyer, tomato, 20, near),
	}

	recs, err := Recommend(models.RoleFarmer, cityA, reports, "tomato")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, 70.0, recs[0].Price, "the dearest report is beyond 100km")
	assert.Equal(t, 65.0, recs[1].Price)
	assert.Equal(t, 20.0, recs[2].Price)
	for _, rec := range recs {
		assert.Equal(t, models.RecommendSellHere, rec.Type)
		assert.Equal(t, 0.7, rec.Confidence)
		assert.LessOrEqual(t, rec.DistanceKm, 100.0)
	}
}

func TestRecommend_TruncatesAfterDistanceFilter(t *testing.T) {
	farAway := models.Location{Latitude: 16.4, Longitude: 120.6}
	reports := []models.PriceReport{
		newReport(models.RoleFarmer, tomato, 10, farAway),
		newReport(models.RoleFarmer, tomato, 11, farAway),
		newReport(models.RoleFarmer, tomato, 12, cityA),
		newReport(models.RoleFarmer, tomato, 13, cityA),
		newReport(models.RoleFarmer, tomato, 14, cityA),
		newReport(models.RoleFarmer, tomato, 15, cityA),
	}

	recs, err := Recommend(models.RoleBuyer, cityA, reports, "tomato")
	require.NoError(t, err)
	require.Len(t, recs, 3, "only five cheapest are candidates, two of them too far")
	assert.Equal(t, 12.0, recs[0].Price)
	assert.Equal(t, 14.0, recs[2].Price)
}

func TestRecommend_Empty(t *testing.T) {
	reports := scenarioReports()

	tests := []struct {
		name    string
		role    models.Role
		product string
		reports []models.PriceReport
	}{
		{"Regular user", models.RoleRegular, "tomato", reports},
		{"No product", models.RoleBuyer, "", reports},
		{"Unknown product", models.RoleBuyer, "durian", reports},
		{"No reports", models.RoleFarmer, "tomato", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := Recommend(tt.role, cityA, tt.reports, tt.product)
			assert.NoError(t, err)
			assert.Empty(t, recs)
		})
	}
}

func TestRecommend_InvalidRequesterLocation(t *testing.T) {
	_, err := Recommend(models.RoleBuyer, models.Location{Latitude: 91}, scenarioReports(), "tomato")
	assert.ErrorIs(t, err, models.ErrInvalidCoordinates)
}

func TestRecommend_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for round := 0; round < 30; round++ {
		reports := randomReports(r, 50)
		at := models.Location{Latitude: 14.0 + r.Float64(), Longitude: 121.0 + r.Float64()}

		buyerRecs, err := Recommend(models.RoleBuyer, at, reports, "tomato")
		require.NoError(t, err)
		assert.LessOrEqual(t, len(buyerRecs), 3)
		for i, rec := range buyerRecs {
			assert.LessOrEqual(t, rec.DistanceKm, 50.0)
			if i > 0 {
				assert.LessOrEqual(t, buyerRecs[i-1].Price, rec.Price)
			}
		}

		farmerRecs, err := Recommend(models.RoleFarmer, at, reports, "tomato")
		require.NoError(t, err)
		assert.LessOrEqual(t, len(farmerRecs), 3)
		for i, rec := range farmerRecs {
			assert.LessOrEqual(t, rec.DistanceKm, 100.0)
			if i > 0 {
				assert.GreaterOrEqual(t, farmerRecs[i-1].Price, rec.Price)
			}
		}
	}
}

package market

import (
	"math"

	"agrimap/server/internal/geometry"
	"agrimap/server/internal/models"
)

// DefaultMaxDistanceKm bounds supply-to-demand matches when no limit is given
const DefaultMaxDistanceKm = 50.0

// Rebalance pairs every classified supply cluster with its best-scoring
// demand cluster within maxDistanceKm. Score is
// (farmers(s) + buyers(d)) / (distance + 1); ties keep the first candidate.
// A demand cluster may receive several supply clusters.
func Rebalance(clusters []models.Cluster, maxDistanceKm float64) []models.RecommendationPair {
	if maxDistanceKm <= 0 || math.IsNaN(maxDistanceKm) {
		maxDistanceKm = DefaultMaxDistanceKm
	}

	var supply, demand []int
	for i, c := range clusters {
		if c.SupplyLevel != models.SupplyNone {
			supply = append(supply, i)
		}
		if c.DemandLevel != models.DemandNone {
			demand = append(demand, i)
		}
	}

	pairs := make([]models.RecommendationPair, 0)
	if len(supply) == 0 || len(demand) == 0 {
		return pairs
	}

	for _, si := range supply {
		s := &clusters[si]
		best := -1
		bestScore := math.Inf(-1)
		bestDistance := 0.0

		for _, di := range demand {
			if di == si {
				continue
			}
			d := &clusters[di]
			if sameMunicipality(s.Location, d.Location) {
				continue
			}
			distance := geometry.DistanceKm(s.Location, d.Location)
			if distance > maxDistanceKm {
				continue
			}
			score := float64(s.Farmers+d.Buyers) / (distance + 1)
			if score > bestScore {
				best, bestScore, bestDistance = di, score, distance
			}
		}

		if best < 0 {
			continue
		}
		target := &clusters[best]
		pairs = append(pairs, models.RecommendationPair{
			From:        s.Location,
			To:          target.Location,
			FromKey:     s.Key,
			ToKey:       target.Key,
			SupplyCount: s.Farmers,
			DemandCount: target.Buyers,
			DistanceKm:  bestDistance,
			Score:       bestScore,
		})
	}
	return pairs
}

// sameMunicipality treats an unknown municipality as distinct from every
// other one, including another unknown.
func sameMunicipality(a, b models.Location) bool {
	return a.Municipality != "" && a.Municipality == b.Municipality
}

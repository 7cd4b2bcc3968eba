package market

import (
	"math"

	"agrimap/server/internal/geometry"
	"agrimap/server/internal/models"
)

// Stats summarises reports of productID (all products when empty).
// UniqueProducts always counts across the whole input.
func Stats(reports []models.PriceReport, productID string) models.MarketStats {
	products := make(map[string]struct{})
	stats := models.MarketStats{}
	total := 0.0
	low, high := math.Inf(1), math.Inf(-1)

	for _, r := range reports {
		products[r.Product.ID] = struct{}{}
		if productID != "" && r.Product.ID != productID {
			continue
		}
		stats.TotalEntries++
		total += r.Price
		low = math.Min(low, r.Price)
		high = math.Max(high, r.Price)
	}

	stats.UniqueProducts = len(products)
	if stats.TotalEntries > 0 {
		stats.AveragePrice = total / float64(stats.TotalEntries)
		stats.PriceRange = &models.PriceRange{Min: low, Max: high}
	}
	return stats
}

// AveragePrice returns the mean price of productID, or 0 without matches
func AveragePrice(reports []models.PriceReport, productID string) float64 {
	total, n := 0.0, 0
	for _, r := range reports {
		if r.Product.ID != productID {
			continue
		}
		total += r.Price
		n++
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

// WithinRadius keeps the reports located at most radiusKm from center
func WithinRadius(reports []models.PriceReport, center models.Location, radiusKm float64) []models.PriceReport {
	out := make([]models.PriceReport, 0)
	if radiusKm < 0 || math.IsNaN(radiusKm) {
		return out
	}
	bound := geometry.BoundAround(center, radiusKm)
	for _, r := range reports {
		if !geometry.WithinBound(bound, r.Location) {
			continue
		}
		if geometry.DistanceKm(center, r.Location) <= radiusKm {
			out = append(out, r)
		}
	}
	return out
}

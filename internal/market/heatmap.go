package market

import (
	"fmt"
	"math"

	"agrimap/server/internal/geometry"
	"agrimap/server/internal/models"
)

// heatSaturation is the role count at which supply/demand intensity peaks
const heatSaturation = 10.0

// Heatmap builds weighted points over rounded-coordinate cells. Point
// locations are the rounded cell coordinates. Cells with no positive
// intensity are dropped.
func Heatmap(reports []models.PriceReport, kind models.HeatmapKind) ([]models.HeatmapPoint, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown heatmap type %q", kind)
	}

	clusters, err := Aggregate(reports, "")
	if err != nil {
		return nil, err
	}

	globalAverages := make(map[string]float64)
	globalAverage := func(productID string) float64 {
		if avg, ok := globalAverages[productID]; ok {
			return avg
		}
		avg := AveragePrice(reports, productID)
		globalAverages[productID] = avg
		return avg
	}

	points := make([]models.HeatmapPoint, 0, len(clusters))
	for _, c := range clusters {
		count := len(c.Reports)
		total := 0.0
		for _, r := range c.Reports {
			total += r.Price
		}
		average := total / float64(count)

		var intensity float64
		switch kind {
		case models.HeatmapSupply:
			intensity = math.Min(float64(c.Farmers)/heatSaturation, 1)
		case models.HeatmapDemand:
			intensity = math.Min(float64(c.Buyers)/heatSaturation, 1)
		case models.HeatmapPriceHigh, models.HeatmapPriceLow:
			// compared against the cell's first product only
			global := globalAverage(c.Reports[0].Product.ID)
			if global <= 0 {
				break
			}
			if kind == models.HeatmapPriceHigh {
				intensity = math.Min((average-global)/global, 1)
			} else {
				intensity = math.Min((global-average)/global, 1)
			}
		}

		if intensity <= 0 {
			continue
		}
		points = append(points, models.HeatmapPoint{
			Location: models.Location{
				Latitude:  geometry.Round(c.Location.Latitude, geometry.DefaultKeyPrecision),
				Longitude: geometry.Round(c.Location.Longitude, geometry.DefaultKeyPrecision),
			},
			Intensity:    intensity,
			Type:         kind,
			Count:        count,
			AveragePrice: average,
		})
	}
	return points, nil
}

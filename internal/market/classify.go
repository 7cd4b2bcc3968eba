package market

import "agrimap/server/internal/models"

const (
	superHighRatio  = 0.2
	mediumHighRatio = 0.1
)

// Classify assigns supply and demand tiers relative to the largest farmer
// and buyer counts in the batch. The returned slice is a copy in input order.
func Classify(clusters []models.Cluster) []models.Cluster {
	farmerMax, buyerMax := 1, 1
	for _, c := range clusters {
		farmerMax = max(farmerMax, c.Farmers)
		buyerMax = max(buyerMax, c.Buyers)
	}

	out := make([]models.Cluster, len(clusters))
	for i, c := range clusters {
		c.SupplyLevel = models.SupplyNone
		c.DemandLevel = models.DemandNone

		switch tier(c.Farmers, farmerMax) {
		case tierSuperHigh:
			c.SupplyLevel = models.SupplySuperHigh
		case tierMediumHigh:
			c.SupplyLevel = models.SupplyMediumHigh
		}
		switch tier(c.Buyers, buyerMax) {
		case tierSuperHigh:
			c.DemandLevel = models.DemandSuperHigh
		case tierMediumHigh:
			c.DemandLevel = models.DemandMediumHigh
		}
		out[i] = c
	}
	return out
}

type level int

const (
	tierNone level = iota
	tierMediumHigh
	tierSuperHigh
)

// tier never rates a zero count, whatever the batch maximum is
func tier(count, batchMax int) level {
	if count <= 0 {
		return tierNone
	}
	switch {
	case float64(count) >= superHighRatio*float64(batchMax):
		return tierSuperHigh
	case float64(count) >= mediumHighRatio*float64(batchMax):
		return tierMediumHigh
	default:
		return tierNone
	}
}

// Package market holds the spatial aggregation engine: location clustering,
// dataset-relative supply/demand classification, supply-to-demand matching
// and personal recommendations. Every function is pure; callers own time
// windows, persistence and presentation.
package market

import (
	"fmt"

	"agrimap/server/internal/geometry"
	"agrimap/server/internal/models"
)

// Aggregate groups reports into location clusters. An empty productID
// aggregates every product. Clusters keep the first-seen order of their
// location keys, and each cluster's location is its first member's.
//
// Reports that pass the product filter are validated; the first malformed
// one fails the whole call rather than producing a misleading cluster.
func Aggregate(reports []models.PriceReport, productID string) ([]models.Cluster, error) {
	index := make(map[string]int)
	clusters := make([]models.Cluster, 0)

	for i := range reports {
		r := &reports[i]
		if productID != "" && r.Product.ID != productID {
			continue
		}
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("report %d (%s): %w", i, r.ID, err)
		}

		key := geometry.LocationKey(r.Location, geometry.DefaultKeyPrecision)
		idx, ok := index[key]
		if !ok {
			idx = len(clusters)
			index[key] = idx
			clusters = append(clusters, models.Cluster{
				Key:      key,
				Location: r.Location,
			})
		}

		c := &clusters[idx]
		switch r.Role {
		case models.RoleFarmer:
			c.Farmers++
		case models.RoleBuyer:
			c.Buyers++
		}
		c.Reports = append(c.Reports, *r)
	}

	return clusters, nil
}

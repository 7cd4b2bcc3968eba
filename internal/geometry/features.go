package geometry

import (
	"agrimap/server/internal/models"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ClusterFeatures renders classified clusters as GeoJSON points for map
// consumers. Member reports are summarised, not embedded.
func ClusterFeatures(clusters []models.Cluster) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, c := range clusters {
		feature := geojson.NewFeature(Point(c.Location))
		feature.ID = c.Key
		feature.Properties = geojson.Properties{
			"key":          c.Key,
			"farmers":      c.Farmers,
			"buyers":       c.Buyers,
			"report_count": len(c.Reports),
			"supply_level": string(c.SupplyLevel),
			"demand_level": string(c.DemandLevel),
		}
		if c.Location.Municipality != "" {
			feature.Properties["municipality"] = c.Location.Municipality
		}
		if c.Location.Province != "" {
			feature.Properties["province"] = c.Location.Province
		}
		fc.Append(feature)
	}
	return fc
}

// PairFeatures renders rebalancing suggestions as from->to line strings
func PairFeatures(pairs []models.RecommendationPair) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range pairs {
		line := orb.LineString{Point(p.From), Point(p.To)}
		feature := geojson.NewFeature(line)
		feature.Properties = geojson.Properties{
			"from_key":     p.FromKey,
			"to_key":       p.ToKey,
			"supply_count": p.SupplyCount,
			"demand_count": p.DemandCount,
			"distance_km":  p.DistanceKm,
			"score":        p.Score,
		}
		fc.Append(feature)
	}
	return fc
}

package models

type SupplyLevel string

const (
	SupplyNone       SupplyLevel = ""
	SupplyMediumHigh SupplyLevel = "medium_high_supply"
	SupplySuperHigh  SupplyLevel = "super_high_supply"
)

type DemandLevel string

const (
	DemandNone       DemandLevel = ""
	DemandMediumHigh DemandLevel = "medium_high_demand"
	DemandSuperHigh  DemandLevel = "super_high_demand"
)

// Cluster groups the reports that share a location key.
// Location is the first member's raw coordinates, not a centroid.
type Cluster struct {
	Key         string        `json:"key"`
	Location    Location      `json:"location"`
	Farmers     int           `json:"farmers"`
	Buyers      int           `json:"buyers"`
	Reports     []PriceReport `json:"reports"`
	SupplyLevel SupplyLevel   `json:"supply_level,omitempty"`
	DemandLevel DemandLevel   `json:"demand_level,omitempty"`
}

// RecommendationPair suggests moving supply from one cluster to another
type RecommendationPair struct {
	From        Location `json:"from"`
	To          Location `json:"to"`
	FromKey     string   `json:"from_key"`
	ToKey       string   `json:"to_key"`
	SupplyCount int      `json:"supply_count"`
	DemandCount int      `json:"demand_count"`
	DistanceKm  float64  `json:"distance_km"`
	Score       float64  `json:"score"`
}

type RecommendationType string

const (
	RecommendBuyHere  RecommendationType = "buy_here"
	RecommendSellHere RecommendationType = "sell_here"
)

// Recommendation is a personal suggestion derived from a single report
type Recommendation struct {
	Location   Location           `json:"location"`
	Reason     string             `json:"reason"`
	Confidence float64            `json:"confidence"`
	Type       RecommendationType `json:"type"`
	DistanceKm float64            `json:"distance_km"`
	Price      float64            `json:"price"`
	ReportID   string             `json:"report_id"`
}

type HeatmapKind string

const (
	HeatmapSupply    HeatmapKind = "supply"
	HeatmapDemand    HeatmapKind = "demand"
	HeatmapPriceHigh HeatmapKind = "price_high"
	HeatmapPriceLow  HeatmapKind = "price_low"
)

// Valid reports whether k is a known heatmap kind
func (k HeatmapKind) Valid() bool {
	switch k {
	case HeatmapSupply, HeatmapDemand, HeatmapPriceHigh, HeatmapPriceLow:
		return true
	default:
		return false
	}
}

type HeatmapPoint struct {
	Location     Location    `json:"location"`
	Intensity    float64     `json:"intensity"`
	Type         HeatmapKind `json:"type"`
	Count        int         `json:"count"`
	AveragePrice float64     `json:"average_price"`
}

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type MarketStats struct {
	TotalEntries   int         `json:"total_entries"`
	UniqueProducts int         `json:"unique_products"`
	AveragePrice   float64     `json:"average_price,omitempty"`
	PriceRange     *PriceRange `json:"price_range,omitempty"`
}

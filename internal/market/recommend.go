package market

import (
	"fmt"
	"sort"

	"agrimap/server/internal/geometry"
	"agrimap/server/internal/models"
)

const (
	recommendCandidates = 5
	recommendLimit      = 3

	buyerRadiusKm  = 50.0
	farmerRadiusKm = 100.0

	buyerConfidence  = 0.8
	farmerConfidence = 0.7
)

// Recommend ranks reports of productID by price for a single user: buyers
// get the cheapest nearby reports, farmers the dearest. Candidates are
// picked by price first and then filtered by distance, so fewer than three
// results are normal. Regular users always get an empty list.
func Recommend(role models.Role, at models.Location, reports []models.PriceReport, productID string) ([]models.Recommendation, error) {
	recs := make([]models.Recommendation, 0)
	if productID == "" || len(reports) == 0 {
		return recs, nil
	}

	var (
		ascending  bool
		radiusKm   float64
		confidence float64
		recType    models.RecommendationType
		label      string
	)
	switch role {
	case models.RoleBuyer:
		ascending, radiusKm, confidence, recType, label = true, buyerRadiusKm, buyerConfidence, models.RecommendBuyHere, "Low price"
	case models.RoleFarmer:
		ascending, radiusKm, confidence, recType, label = false, farmerRadiusKm, farmerConfidence, models.RecommendSellHere, "High price"
	default:
		return recs, nil
	}

	if err := at.Validate(); err != nil {
		return nil, fmt.Errorf("requester location: %w", err)
	}

	matching := make([]models.PriceReport, 0)
	for i := range reports {
		if reports[i].Product.ID != productID {
			continue
		}
		if err := reports[i].Validate(); err != nil {
			return nil, fmt.Errorf("report %d (%s): %w", i, reports[i].ID, err)
		}
		matching = append(matching, reports[i])
	}

	sort.SliceStable(matching, func(i, j int) bool {
		if ascending {
			return matching[i].Price < matching[j].Price
		}
		return matching[i].Price > matching[j].Price
	})
	if len(matching) > recommendCandidates {
		matching = matching[:recommendCandidates]
	}

	for _, r := range matching {
		distance := geometry.DistanceKm(at, r.Location)
		if distance > radiusKm {
			continue
		}
		recs = append(recs, models.Recommendation{
			Location:   r.Location,
			Reason:     fmt.Sprintf("%s: %.2f per %s", label, r.Price, unitOf(r.Product)),
			Confidence: confidence,
			Type:       recType,
			DistanceKm: distance,
			Price:      r.Price,
			ReportID:   r.ID,
		})
	}

	if len(recs) > recommendLimit {
		recs = recs[:recommendLimit]
	}
	return recs, nil
}

func unitOf(p models.Product) string {
	if p.Unit == "" {
		return "unit"
	}
	return p.Unit
}

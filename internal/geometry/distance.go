package geometry

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"agrimap/server/internal/models"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// EarthRadiusKm is the mean earth radius used for all distance calculations
const EarthRadiusKm = 6371.0

// DefaultKeyPrecision rounds coordinates to ~111m cells at the equator
const DefaultKeyPrecision = 3

// Point converts a location to an orb point (longitude, latitude)
func Point(loc models.Location) orb.Point {
	return orb.Point{loc.Longitude, loc.Latitude}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// DistanceKm returns the great-circle distance between a and b in kilometers
func DistanceKm(a, b models.Location) float64 {
	dLat := toRad(b.Latitude - a.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)
	lat1 := toRad(a.Latitude)
	lat2 := toRad(b.Latitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1)*math.Cos(lat2)
	// rounding can push h a hair above 1 for antipodal points
	h = math.Min(1, h)
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// LocationKey buckets a location by rounding both coordinates to precision
// decimal digits. The key is only meant for grouping.
func LocationKey(loc models.Location, precision int) string {
	if precision < 0 {
		precision = DefaultKeyPrecision
	}
	return toFixed(loc.Latitude, precision) + "," + toFixed(loc.Longitude, precision)
}

// toFixed formats v with precision decimals. Exact ties round away from
// zero and -0 prints as 0, so keys agree with clients using toFixed.
func toFixed(v float64, precision int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprintf("%.*f", precision, v)
	}
	neg := v < 0
	if neg {
		v = -v
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(precision)), nil)
	x := new(big.Float).SetPrec(256).SetFloat64(v)
	x.Mul(x, new(big.Float).SetPrec(256).SetInt(scale))
	x.Add(x, big.NewFloat(0.5))
	n, _ := x.Int(nil)

	digits := n.String()
	if precision > 0 {
		if pad := precision + 1 - len(digits); pad > 0 {
			digits = strings.Repeat("0", pad) + digits
		}
		digits = digits[:len(digits)-precision] + "." + digits[len(digits)-precision:]
	}
	if neg {
		return "-" + digits
	}
	return digits
}

// Round rounds v to precision decimal digits
func Round(v float64, precision int) float64 {
	scale := math.Pow(10, float64(precision))
	return math.Round(v*scale) / scale
}

// BoundAround returns a box that contains every point within radiusKm of
// center. It over-covers, so callers still need an exact distance check.
func BoundAround(center models.Location, radiusKm float64) orb.Bound {
	// orb/geo works in meters on a slightly larger sphere; pad by 1% to stay
	// a superset of the haversine circle.
	b := geo.NewBoundAroundPoint(Point(center), radiusKm*1000*1.01)
	if math.IsNaN(b.Min[0]) || math.IsNaN(b.Max[0]) || math.IsNaN(b.Min[1]) || math.IsNaN(b.Max[1]) {
		return worldBound
	}
	if b.Min[0] < -180 || b.Max[0] > 180 {
		b.Min[0], b.Max[0] = -180, 180
	}
	b.Min[1] = math.Max(b.Min[1], -90)
	b.Max[1] = math.Min(b.Max[1], 90)
	return b
}

var worldBound = orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}

// WithinBound reports whether loc falls inside b
func WithinBound(b orb.Bound, loc models.Location) bool {
	return b.Contains(Point(loc))
}

package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrInvalidPrice       = errors.New("price must be a positive number")
	ErrUnknownRole        = errors.New("unknown user type")
	ErrMissingProduct     = errors.New("product id is required")
)

// Role is the kind of user that submitted a report
type Role string

const (
	RoleBuyer   Role = "buyer"
	RoleFarmer  Role = "farmer"
	RoleRegular Role = "regular"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleFarmer, RoleRegular:
		return true
	default:
		return false
	}
}

type TrafficStatus string

const (
	TrafficLight    TrafficStatus = "light"
	TrafficModerate TrafficStatus = "moderate"
	TrafficHeavy    TrafficStatus = "heavy"
)

type MarketCondition string

const (
	MarketNormal      MarketCondition = "normal"
	MarketPanicBuying MarketCondition = "panic_buying"
	MarketOverstocked MarketCondition = "overstocked"
	MarketHighDemand  MarketCondition = "high_demand"
	MarketLowSupply   MarketCondition = "low_supply"
)

// Location is a reported coordinate with optional administrative names.
// Empty names mean the name is unknown.
type Location struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Barangay     string  `json:"barangay,omitempty"`
	Municipality string  `json:"municipality,omitempty"`
	Province     string  `json:"province,omitempty"`
}

// Validate checks that the coordinates are finite and in range
func (l Location) Validate() error {
	if math.IsNaN(l.Latitude) || math.IsInf(l.Latitude, 0) || l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v", ErrInvalidCoordinates, l.Latitude)
	}
	if math.IsNaN(l.Longitude) || math.IsInf(l.Longitude, 0) || l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v", ErrInvalidCoordinates, l.Longitude)
	}
	return nil
}

type Product struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Unit     string `json:"unit"`
}

// Weather is the snapshot captured by the client at submission time
type Weather struct {
	Temperature float64 `json:"temperature"`
	Condition   string  `json:"condition"`
	Humidity    float64 `json:"humidity"`
	Description string  `json:"description"`
}

// PriceReport is a single price observation submitted by a user
type PriceReport struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id,omitempty"`
	Role            Role            `json:"user_type"`
	Product         Product         `json:"product"`
	Price           float64         `json:"price"`
	Location        Location        `json:"location"`
	TrafficStatus   TrafficStatus   `json:"traffic_status,omitempty"`
	MarketCondition MarketCondition `json:"market_condition,omitempty"`
	Weather         *Weather        `json:"weather,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	Verified        bool            `json:"verified"`
	Timestamp       time.Time       `json:"timestamp"`
}

// Validate checks the fields the aggregation engine depends on.
// Auxiliary context is never inspected.
func (r *PriceReport) Validate() error {
	if !r.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRole, r.Role)
	}
	if r.Product.ID == "" {
		return ErrMissingProduct
	}
	if math.IsNaN(r.Price) || math.IsInf(r.Price, 0) || r.Price <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidPrice, r.Price)
	}
	return r.Location.Validate()
}

// ReportFilter narrows a report listing. Zero values disable a condition.
type ReportFilter struct {
	ProductID string
	Since     time.Time
	Until     time.Time
	Limit     int
}

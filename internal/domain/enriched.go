package domain

import (
	"time"
)

// EnrichedOrder is one order after the full join chain and all derived
// fields. Exactly one enriched record exists per input order.
type EnrichedOrder struct {
	OrderID     string    `json:"order_id"`
	OrderDate   time.Time `json:"order_date"`
	Origin      string    `json:"origin,omitempty"`
	Destination string    `json:"destination,omitempty"`
	Route       string    `json:"route,omitempty"`
	VehicleID   string    `json:"vehicle_id,omitempty"`

	PromisedDays  Float `json:"promised_delivery_days"`
	ActualDays    Float `json:"actual_delivery_days"`
	DistanceKM    Float `json:"distance_km"`
	OrderValueINR Float `json:"order_value_inr"`

	// Cost categories carried through for the cost breakdown view.
	FuelCost              Float `json:"fuel_cost"`
	LaborCost             Float `json:"labor_cost"`
	VehicleMaintenance    Float `json:"vehicle_maintenance"`
	Insurance             Float `json:"insurance"`
	PackagingCost         Float `json:"packaging_cost"`
	TechnologyPlatformFee Float `json:"technology_platform_fee"`
	OtherOverhead         Float `json:"other_overhead"`

	FuelConsumptionL    Float `json:"fuel_consumption_l"`
	TrafficDelayMinutes Float `json:"traffic_delay_minutes"`

	// Derived fields, in derivation order.
	DeliveryDelayDays Float `json:"delivery_delay_days"`
	TotalCostINR      Float `json:"total_cost_inr"`
	CostPerKM         Float `json:"cost_per_km"`
	IsDelayed         int   `json:"is_delayed"`

	// Joined feedback fields.
	Rating        Float  `json:"rating"`
	IssueCategory string `json:"issue_category,omitempty"`

	// Joined fleet fields, set only when the vehicle join succeeds.
	VehicleType          string `json:"vehicle_type,omitempty"`
	VehicleStatus        string `json:"vehicle_status,omitempty"`
	FuelEfficiencyKMPerL Float  `json:"fuel_efficiency_km_per_l"`
}

// KPISummary is the fixed set of summary scalars over a filtered view.
// Each value is null when no defined source values exist.
type KPISummary struct {
	AvgDelayDays      Float `json:"avg_delay_days"`
	OnTimeRatePct     Float `json:"on_time_rate_pct"`
	AvgCostPerOrder   Float `json:"avg_cost_per_order"`
	AvgCostPerKM      Float `json:"avg_cost_per_km"`
	AvgCustomerRating Float `json:"avg_customer_rating"`
}

// RouteRisk is the per-route aggregate with its normalized companions and
// the weighted composite score.
type RouteRisk struct {
	Route        string  `json:"route"`
	AvgDelay     float64 `json:"avg_delay"`
	AvgCostPerKM float64 `json:"avg_cost_per_km"`
	AvgTraffic   float64 `json:"avg_traffic"`
	OrderCount   int     `json:"count_orders"`

	NormDelay     float64 `json:"norm_delay"`
	NormCostPerKM float64 `json:"norm_cost_per_km"`
	NormTraffic   float64 `json:"norm_traffic"`

	RiskScore float64 `json:"route_risk"`
}

// Recommendation pairs a high-risk route with a candidate substitute
// vehicle. The recommender emits a full route x vehicle cross product.
type Recommendation struct {
	Route                string  `json:"route"`
	RouteRisk            float64 `json:"route_risk"`
	VehicleID            string  `json:"recommended_vehicle_id"`
	VehicleType          string  `json:"vehicle_type,omitempty"`
	FuelEfficiencyKMPerL Float   `json:"vehicle_fuel_eff_kmpl"`
}

// RouteEfficiency is distance covered per liter for one route leg.
type RouteEfficiency struct {
	OrderID          string `json:"order_id"`
	Route            string `json:"route,omitempty"`
	DistanceKM       Float  `json:"distance_km"`
	FuelConsumptionL Float  `json:"fuel_consumption_l"`
	EfficiencyScore  Float  `json:"efficiency_score"`
}

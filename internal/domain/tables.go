package domain

import (
	"time"
)

// Order is one row of the orders table, the anchor of every join.
type Order struct {
	OrderID       string    `json:"order_id"`
	OrderDate     time.Time `json:"order_date"` // zero value when missing or unparseable
	Origin        string    `json:"origin,omitempty"`
	Destination   string    `json:"destination,omitempty"`
	Route         string    `json:"route,omitempty"`
	VehicleID     string    `json:"vehicle_id,omitempty"`
	PromisedDays  Float     `json:"promised_delivery_days"`
	ActualDays    Float     `json:"actual_delivery_days"`
	DistanceKM    Float     `json:"distance_km"`
	OrderValueINR Float     `json:"order_value_inr"`
}

// DeliveryPerformance is one row of the delivery performance table,
// keyed by order ID.
type DeliveryPerformance struct {
	OrderID        string `json:"order_id"`
	PromisedDays   Float  `json:"promised_delivery_days"`
	ActualDays     Float  `json:"actual_delivery_days"`
	DeliveryStatus string `json:"delivery_status,omitempty"`
	VehicleID      string `json:"vehicle_id,omitempty"`
}

// CostBreakdown is one row of the per-order cost table. Either the
// category columns or the pre-aggregated DeliveryCostINR may be present.
type CostBreakdown struct {
	OrderID               string `json:"order_id"`
	FuelCost              Float  `json:"fuel_cost"`
	LaborCost             Float  `json:"labor_cost"`
	VehicleMaintenance    Float  `json:"vehicle_maintenance"`
	Insurance             Float  `json:"insurance"`
	PackagingCost         Float  `json:"packaging_cost"`
	TechnologyPlatformFee Float  `json:"technology_platform_fee"`
	OtherOverhead         Float  `json:"other_overhead"`
	DeliveryCostINR       Float  `json:"delivery_cost_inr"`
}

// RouteLeg is one row of the routes/distance table, keyed by order ID.
type RouteLeg struct {
	OrderID             string `json:"order_id"`
	Route               string `json:"route,omitempty"`
	DistanceKM          Float  `json:"distance_km"`
	FuelConsumptionL    Float  `json:"fuel_consumption_l"`
	TrafficDelayMinutes Float  `json:"traffic_delay_minutes"`
}

// Feedback is one row of the customer feedback table. Only the rating
// and issue category participate in the merge.
type Feedback struct {
	OrderID       string `json:"order_id"`
	Rating        Float  `json:"rating"`
	IssueCategory string `json:"issue_category,omitempty"`
	FeedbackText  string `json:"feedback_text,omitempty"`
}

// Vehicle is one row of the vehicle fleet table, keyed by vehicle ID.
type Vehicle struct {
	VehicleID            string `json:"vehicle_id"`
	VehicleType          string `json:"vehicle_type,omitempty"`
	Status               string `json:"status,omitempty"`
	FuelEfficiencyKMPerL Float  `json:"fuel_efficiency_km_per_l"`
	CapacityKG           Float  `json:"capacity_kg"`
}

// WarehouseStock is one row of the warehouse inventory table.
type WarehouseStock struct {
	WarehouseID       string `json:"warehouse_id"`
	Location          string `json:"location,omitempty"`
	CurrentStockUnits Float  `json:"current_stock_units"`
	ReorderLevel      Float  `json:"reorder_level"`
}

// Capabilities records which optional columns were present in the loaded
// tables. It is computed once after ingestion and threaded through the
// pipeline so the derivation and filter stages never re-probe for columns.
type Capabilities struct {
	HasDeliveryDays    bool `json:"has_delivery_days"`
	HasCostColumns     bool `json:"has_cost_columns"`
	HasAggregateCost   bool `json:"has_aggregate_cost"`
	HasDistance        bool `json:"has_distance"`
	HasVehicleID       bool `json:"has_vehicle_id"`
	HasVehicleType     bool `json:"has_vehicle_type"`
	HasTrafficDelay    bool `json:"has_traffic_delay"`
	HasRating          bool `json:"has_rating"`
	HasFuelConsumption bool `json:"has_fuel_consumption"`

	// Orders-side column presence. The un-suffixed field of the enriched
	// record is canonical: when the orders table carries a column, a
	// joined table's value for it is never consulted, not even for null
	// cells. A joined value fills the field only when the orders table
	// lacks the column entirely.
	OrdersHavePromised  bool `json:"-"`
	OrdersHaveActual    bool `json:"-"`
	OrdersHaveVehicleID bool `json:"-"`
	OrdersHaveRoute     bool `json:"-"`
	OrdersHaveDistance  bool `json:"-"`
}

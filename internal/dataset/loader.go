package dataset

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nexgen-logistics/lanewatch/internal/domain"
)

// Store holds the seven loaded tables and the capability descriptor. The
// tables are independent record sets keyed loosely by shared identifier
// columns; the merge stage joins them.
type Store struct {
	Orders      []domain.Order
	Performance []domain.DeliveryPerformance
	Costs       []domain.CostBreakdown
	Routes      []domain.RouteLeg
	Feedback    []domain.Feedback
	Fleet       []domain.Vehicle
	Warehouse   []domain.WarehouseStock

	Caps domain.Capabilities
}

// Validate reports the only fatal input condition: an empty orders table.
func (s *Store) Validate() error {
	if len(s.Orders) == 0 {
		return domain.ErrNoOrders
	}
	return nil
}

var tableFiles = map[string]string{
	"orders":               "orders.csv",
	"delivery_performance": "delivery_performance.csv",
	"cost_breakdown":       "cost_breakdown.csv",
	"routes_distance":      "routes_distance.csv",
	"customer_feedback":    "customer_feedback.csv",
	"vehicle_fleet":        "vehicle_fleet.csv",
	"warehouse_inventory":  "warehouse_inventory.csv",
}

// Load reads all seven tables from dir. A table that fails to open or
// parse loads as empty; only the caller decides whether an empty orders
// table is fatal.
func Load(dir string) *Store {
	tables := make(map[string]*table, len(tableFiles))
	for name, file := range tableFiles {
		tables[name] = loadTable(filepath.Join(dir, file), name)
	}

	st := &Store{}
	if tb := tables["orders"]; tb != nil {
		st.Orders = parseOrders(tb)
	}
	if tb := tables["delivery_performance"]; tb != nil {
		st.Performance = parsePerformance(tb)
	}
	if tb := tables["cost_breakdown"]; tb != nil {
		st.Costs = parseCosts(tb)
	}
	if tb := tables["routes_distance"]; tb != nil {
		st.Routes = parseRoutes(tb)
	}
	if tb := tables["customer_feedback"]; tb != nil {
		st.Feedback = parseFeedback(tb)
	}
	if tb := tables["vehicle_fleet"]; tb != nil {
		st.Fleet = parseFleet(tb)
	}
	if tb := tables["warehouse_inventory"]; tb != nil {
		st.Warehouse = parseWarehouse(tb)
	}

	st.Caps = capabilities(tables, len(st.Fleet))
	return st
}

func loadTable(path, name string) *table {
	f, err := os.Open(path)
	if err != nil {
		slog.Warn("table not loaded, treating as empty", "table", name, "error", err)
		return nil
	}
	defer f.Close()

	tb, err := readTable(f)
	if err != nil {
		slog.Warn("table malformed, treating as empty", "table", name, "error", err)
		return nil
	}
	return tb
}

func parseOrders(t *table) []domain.Order {
	out := make([]domain.Order, 0, len(t.rows))
	for _, row := range t.rows {
		id := t.str(row, "order_id")
		if id == "" {
			continue
		}
		out = append(out, domain.Order{
			OrderID:       id,
			OrderDate:     t.date(row, "order_date"),
			Origin:        t.str(row, "origin"),
			Destination:   t.str(row, "destination"),
			Route:         t.str(row, "route"),
			VehicleID:     t.str(row, "vehicle_id"),
			PromisedDays:  t.float(row, "promised_delivery_days"),
			ActualDays:    t.float(row, "actual_delivery_days"),
			DistanceKM:    t.float(row, "distance_km"),
			OrderValueINR: t.float(row, "order_value_inr"),
		})
	}
	return out
}

func parsePerformance(t *table) []domain.DeliveryPerformance {
	out := make([]domain.DeliveryPerformance, 0, len(t.rows))
	for _, row := range t.rows {
		id := t.str(row, "order_id")
		if id == "" {
			continue
		}
		out = append(out, domain.DeliveryPerformance{
			OrderID:        id,
			PromisedDays:   t.float(row, "promised_delivery_days"),
			ActualDays:     t.float(row, "actual_delivery_days"),
			DeliveryStatus: t.str(row, "delivery_status"),
			VehicleID:      t.str(row, "vehicle_id"),
		})
	}
	return out
}

func parseCosts(t *table) []domain.CostBreakdown {
	out := make([]domain.CostBreakdown, 0, len(t.rows))
	for _, row := range t.rows {
		id := t.str(row, "order_id")
		if id == "" {
			continue
		}
		out = append(out, domain.CostBreakdown{
			OrderID:               id,
			FuelCost:              t.float(row, "fuel_cost"),
			LaborCost:             t.float(row, "labor_cost"),
			VehicleMaintenance:    t.float(row, "vehicle_maintenance"),
			Insurance:             t.float(row, "insurance"),
			PackagingCost:         t.float(row, "packaging_cost"),
			TechnologyPlatformFee: t.float(row, "technology_platform_fee"),
			OtherOverhead:         t.float(row, "other_overhead"),
			DeliveryCostINR:       t.float(row, "delivery_cost_inr"),
		})
	}
	return out
}

func parseRoutes(t *table) []domain.RouteLeg {
	out := make([]domain.RouteLeg, 0, len(t.rows))
	for _, row := range t.rows {
		id := t.str(row, "order_id")
		if id == "" {
			continue
		}
		out = append(out, domain.RouteLeg{
			OrderID:             id,
			Route:               t.str(row, "route"),
			DistanceKM:          t.float(row, "distance_km"),
			FuelConsumptionL:    t.float(row, "fuel_consumption_l"),
			TrafficDelayMinutes: t.float(row, "traffic_delay_minutes"),
		})
	}
	return out
}

func parseFeedback(t *table) []domain.Feedback {
	out := make([]domain.Feedback, 0, len(t.rows))
	for _, row := range t.rows {
		id := t.str(row, "order_id")
		if id == "" {
			continue
		}
		out = append(out, domain.Feedback{
			OrderID:       id,
			Rating:        t.float(row, "rating"),
			IssueCategory: t.str(row, "issue_category"),
			FeedbackText:  t.str(row, "feedback_text"),
		})
	}
	return out
}

func parseFleet(t *table) []domain.Vehicle {
	out := make([]domain.Vehicle, 0, len(t.rows))
	for _, row := range t.rows {
		id := t.str(row, "vehicle_id")
		if id == "" {
			continue
		}
		out = append(out, domain.Vehicle{
			VehicleID:            id,
			VehicleType:          t.str(row, "vehicle_type"),
			Status:               t.str(row, "status"),
			FuelEfficiencyKMPerL: t.float(row, "fuel_efficiency_km_per_l"),
			CapacityKG:           t.float(row, "capacity_kg"),
		})
	}
	return out
}

func parseWarehouse(t *table) []domain.WarehouseStock {
	out := make([]domain.WarehouseStock, 0, len(t.rows))
	for _, row := range t.rows {
		id := t.str(row, "warehouse_id")
		if id == "" {
			continue
		}
		out = append(out, domain.WarehouseStock{
			WarehouseID:       id,
			Location:          t.str(row, "location"),
			CurrentStockUnits: t.float(row, "current_stock_units"),
			ReorderLevel:      t.float(row, "reorder_level"),
		})
	}
	return out
}

// capabilities derives the schema descriptor from the loaded headers. The
// merge and filter stages branch on these booleans instead of probing for
// columns per record.
func capabilities(tables map[string]*table, fleetRows int) domain.Capabilities {
	orders := tables["orders"]
	perf := tables["delivery_performance"]
	costs := tables["cost_breakdown"]
	routes := tables["routes_distance"]
	feedback := tables["customer_feedback"]
	fleet := tables["vehicle_fleet"]

	hasPromised := orders.has("promised_delivery_days") || perf.has("promised_delivery_days")
	hasActual := orders.has("actual_delivery_days") || perf.has("actual_delivery_days")
	hasVehicleID := orders.has("vehicle_id") || perf.has("vehicle_id")

	return domain.Capabilities{
		HasDeliveryDays: hasPromised && hasActual,
		HasCostColumns: costs.hasAny(
			"fuel_cost", "labor_cost", "vehicle_maintenance", "insurance",
			"packaging_cost", "technology_platform_fee", "other_overhead",
		),
		HasAggregateCost:   costs.has("delivery_cost_inr"),
		HasDistance:        orders.has("distance_km") || routes.has("distance_km"),
		HasVehicleID:       hasVehicleID,
		HasVehicleType:     hasVehicleID && fleet.has("vehicle_type") && fleetRows > 0,
		HasTrafficDelay:    routes.has("traffic_delay_minutes"),
		HasRating:          feedback.has("rating"),
		HasFuelConsumption: routes.has("fuel_consumption_l"),

		OrdersHavePromised:  orders.has("promised_delivery_days"),
		OrdersHaveActual:    orders.has("actual_delivery_days"),
		OrdersHaveVehicleID: orders.has("vehicle_id"),
		OrdersHaveRoute:     orders.has("route"),
		OrdersHaveDistance:  orders.has("distance_km"),
	}
}

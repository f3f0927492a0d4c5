// Package merge joins the seven logistics tables into one enriched record
// per order and computes the derived delay, cost, and flag fields.
package merge

import (
	"log/slog"

	"github.com/nexgen-logistics/lanewatch/internal/dataset"
	"github.com/nexgen-logistics/lanewatch/internal/domain"
)

// Merge performs the left-join chain anchored on the orders table and
// derives the enriched fields in fixed order: delay days, total cost,
// cost per km, delay flag, then the conditional fleet join. Inputs are
// never mutated and every order yields exactly one enriched record.
func Merge(st *dataset.Store) []domain.EnrichedOrder {
	perf := indexPerformance(st.Performance)
	costs := indexCosts(st.Costs)
	legs := indexRoutes(st.Routes)
	feedback := indexFeedback(st.Feedback)
	fleet := indexFleet(st.Fleet)

	out := make([]domain.EnrichedOrder, 0, len(st.Orders))
	for _, o := range st.Orders {
		rec := domain.EnrichedOrder{
			OrderID:       o.OrderID,
			OrderDate:     o.OrderDate,
			Origin:        o.Origin,
			Destination:   o.Destination,
			Route:         o.Route,
			VehicleID:     o.VehicleID,
			PromisedDays:  o.PromisedDays,
			ActualDays:    o.ActualDays,
			DistanceKM:    o.DistanceKM,
			OrderValueINR: o.OrderValueINR,
		}

		// Join order: performance, cost, routes, feedback. The orders-side
		// column is canonical when it exists, null cells included; a
		// joined value fills the field only when the orders table never
		// carried the column.
		if p, ok := perf[o.OrderID]; ok {
			if !st.Caps.OrdersHavePromised {
				rec.PromisedDays = p.PromisedDays
			}
			if !st.Caps.OrdersHaveActual {
				rec.ActualDays = p.ActualDays
			}
			if !st.Caps.OrdersHaveVehicleID {
				rec.VehicleID = p.VehicleID
			}
		}
		if c, ok := costs[o.OrderID]; ok {
			rec.FuelCost = c.FuelCost
			rec.LaborCost = c.LaborCost
			rec.VehicleMaintenance = c.VehicleMaintenance
			rec.Insurance = c.Insurance
			rec.PackagingCost = c.PackagingCost
			rec.TechnologyPlatformFee = c.TechnologyPlatformFee
			rec.OtherOverhead = c.OtherOverhead
		}
		if l, ok := legs[o.OrderID]; ok {
			if !st.Caps.OrdersHaveRoute {
				rec.Route = l.Route
			}
			if !st.Caps.OrdersHaveDistance {
				rec.DistanceKM = l.DistanceKM
			}
			rec.FuelConsumptionL = l.FuelConsumptionL
			rec.TrafficDelayMinutes = l.TrafficDelayMinutes
		}
		if fb, ok := feedback[o.OrderID]; ok {
			rec.Rating = fb.Rating
			rec.IssueCategory = fb.IssueCategory
		}

		// Derivation order is fixed: delay -> total cost -> cost/km ->
		// delay flag -> fleet attributes.
		rec.DeliveryDelayDays = deriveDelay(rec, st.Caps)
		rec.TotalCostINR = deriveTotalCost(rec, costs[o.OrderID], st.Caps)
		rec.CostPerKM = deriveCostPerKM(rec)
		if rec.DeliveryDelayDays.GreaterThan(0) {
			rec.IsDelayed = 1
		}

		if st.Caps.HasVehicleID && rec.VehicleID != "" {
			if v, ok := fleet[rec.VehicleID]; ok {
				rec.VehicleType = v.VehicleType
				rec.VehicleStatus = v.Status
				rec.FuelEfficiencyKMPerL = v.FuelEfficiencyKMPerL
			}
		}

		out = append(out, rec)
	}
	return out
}

// deriveDelay returns actual minus promised delivery days, null when
// either side is missing or the columns were never loaded.
func deriveDelay(rec domain.EnrichedOrder, caps domain.Capabilities) domain.Float {
	if !caps.HasDeliveryDays {
		return domain.Null()
	}
	return rec.ActualDays.Sub(rec.PromisedDays)
}

// deriveTotalCost sums the per-record defined cost categories when the
// category columns exist (a record with all categories null sums to a
// defined 0, matching the row-sum semantics of the original pipeline).
// Without category columns it falls back to the pre-aggregated cost, and
// with neither the total is null.
func deriveTotalCost(rec domain.EnrichedOrder, cost domain.CostBreakdown, caps domain.Capabilities) domain.Float {
	if caps.HasCostColumns {
		sum := 0.0
		for _, f := range []domain.Float{
			rec.FuelCost, rec.LaborCost, rec.VehicleMaintenance, rec.Insurance,
			rec.PackagingCost, rec.TechnologyPlatformFee, rec.OtherOverhead,
		} {
			if f.Valid {
				sum += f.Value
			}
		}
		return domain.F(sum)
	}
	if caps.HasAggregateCost {
		return cost.DeliveryCostINR
	}
	return domain.Null()
}

// deriveCostPerKM guards the division: null unless distance is defined
// and strictly positive and the total cost is defined.
func deriveCostPerKM(rec domain.EnrichedOrder) domain.Float {
	if !rec.DistanceKM.GreaterThan(0) {
		return domain.Null()
	}
	return rec.TotalCostINR.Div(rec.DistanceKM)
}

// The secondary tables are assumed to be uniquely keyed. When they are
// not, the first row wins and the duplicate is logged instead of letting
// the join fan out.
func indexPerformance(rows []domain.DeliveryPerformance) map[string]domain.DeliveryPerformance {
	idx := make(map[string]domain.DeliveryPerformance, len(rows))
	for _, r := range rows {
		if _, ok := idx[r.OrderID]; ok {
			slog.Warn("duplicate key in delivery_performance, keeping first", "order_id", r.OrderID)
			continue
		}
		idx[r.OrderID] = r
	}
	return idx
}

func indexCosts(rows []domain.CostBreakdown) map[string]domain.CostBreakdown {
	idx := make(map[string]domain.CostBreakdown, len(rows))
	for _, r := range rows {
		if _, ok := idx[r.OrderID]; ok {
			slog.Warn("duplicate key in cost_breakdown, keeping first", "order_id", r.OrderID)
			continue
		}
		idx[r.OrderID] = r
	}
	return idx
}

func indexRoutes(rows []domain.RouteLeg) map[string]domain.RouteLeg {
	idx := make(map[string]domain.RouteLeg, len(rows))
	for _, r := range rows {
		if _, ok := idx[r.OrderID]; ok {
			slog.Warn("duplicate key in routes_distance, keeping first", "order_id", r.OrderID)
			continue
		}
		idx[r.OrderID] = r
	}
	return idx
}

func indexFeedback(rows []domain.Feedback) map[string]domain.Feedback {
	idx := make(map[string]domain.Feedback, len(rows))
	for _, r := range rows {
		if _, ok := idx[r.OrderID]; ok {
			continue
		}
		idx[r.OrderID] = r
	}
	return idx
}

func indexFleet(rows []domain.Vehicle) map[string]domain.Vehicle {
	idx := make(map[string]domain.Vehicle, len(rows))
	for _, r := range rows {
		if _, ok := idx[r.VehicleID]; ok {
			slog.Warn("duplicate key in vehicle_fleet, keeping first", "vehicle_id", r.VehicleID)
			continue
		}
		idx[r.VehicleID] = r
	}
	return idx
}

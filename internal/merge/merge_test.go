package merge

import (
	"testing"

	"github.com/nexgen-logistics/lanewatch/internal/dataset"
	"github.com/nexgen-logistics/lanewatch/internal/domain"
)

func TestMergeJoinPreservation(t *testing.T) {
	st := &dataset.Store{
		Orders: []domain.Order{
			{OrderID: "ORD1"}, {OrderID: "ORD2"}, {OrderID: "ORD3"},
		},
		Performance: []domain.DeliveryPerformance{
			{OrderID: "ORD1", PromisedDays: domain.F(2), ActualDays: domain.F(3)},
			// ORD2 and ORD3 miss in every side table
		},
		Caps: domain.Capabilities{HasDeliveryDays: true},
	}

	got := Merge(st)
	if len(got) != len(st.Orders) {
		t.Fatalf("merge output count = %d, want %d", len(got), len(st.Orders))
	}
	for i, rec := range got {
		if rec.OrderID != st.Orders[i].OrderID {
			t.Errorf("record %d: order id %q, want %q", i, rec.OrderID, st.Orders[i].OrderID)
		}
	}
	// Join misses yield nulls, never dropped rows.
	if got[1].DeliveryDelayDays.Valid {
		t.Error("expected null delay for order with no performance row")
	}
}

func TestMergeDuplicateSecondaryKeysKeepFirst(t *testing.T) {
	st := &dataset.Store{
		Orders: []domain.Order{{OrderID: "ORD1"}},
		Performance: []domain.DeliveryPerformance{
			{OrderID: "ORD1", PromisedDays: domain.F(2), ActualDays: domain.F(5)},
			{OrderID: "ORD1", PromisedDays: domain.F(9), ActualDays: domain.F(9)},
		},
		Caps: domain.Capabilities{HasDeliveryDays: true},
	}

	got := Merge(st)
	if len(got) != 1 {
		t.Fatalf("duplicate secondary keys must not fan out: got %d records", len(got))
	}
	if got[0].DeliveryDelayDays != domain.F(3) {
		t.Errorf("delay = %+v, want first-row value 3", got[0].DeliveryDelayDays)
	}
}

func TestMergeDerivations(t *testing.T) {
	caps := domain.Capabilities{HasDeliveryDays: true, HasCostColumns: true, HasDistance: true}

	tests := []struct {
		name      string
		order     domain.Order
		cost      []domain.CostBreakdown
		wantDelay domain.Float
		wantTotal domain.Float
		wantCPK   domain.Float
		wantFlag  int
	}{
		{
			name: "FullDerivation",
			order: domain.Order{
				OrderID: "ORD1", PromisedDays: domain.F(2), ActualDays: domain.F(5),
				DistanceKM: domain.F(10),
			},
			cost:      []domain.CostBreakdown{{OrderID: "ORD1", FuelCost: domain.F(100), LaborCost: domain.F(50)}},
			wantDelay: domain.F(3),
			wantTotal: domain.F(150),
			wantCPK:   domain.F(15),
			wantFlag:  1,
		},
		{
			name: "EarlyDelivery",
			order: domain.Order{
				OrderID: "ORD1", PromisedDays: domain.F(5), ActualDays: domain.F(3),
				DistanceKM: domain.F(10),
			},
			cost:      []domain.CostBreakdown{{OrderID: "ORD1", FuelCost: domain.F(20)}},
			wantDelay: domain.F(-2),
			wantTotal: domain.F(20),
			wantCPK:   domain.F(2),
			wantFlag:  0,
		},
		{
			name:      "MissingDeliveryDays",
			order:     domain.Order{OrderID: "ORD1", PromisedDays: domain.F(2), DistanceKM: domain.F(10)},
			cost:      []domain.CostBreakdown{{OrderID: "ORD1", FuelCost: domain.F(100)}},
			wantDelay: domain.Null(),
			wantTotal: domain.F(100),
			wantCPK:   domain.F(10),
			wantFlag:  0, // undefined delay yields 0, the documented asymmetry
		},
		{
			name: "ZeroDistance",
			order: domain.Order{
				OrderID: "ORD1", PromisedDays: domain.F(2), ActualDays: domain.F(5),
				DistanceKM: domain.F(0),
			},
			cost:      []domain.CostBreakdown{{OrderID: "ORD1", FuelCost: domain.F(100)}},
			wantDelay: domain.F(3),
			wantTotal: domain.F(100),
			wantCPK:   domain.Null(),
			wantFlag:  1,
		},
		{
			name: "NegativeDistance",
			order: domain.Order{
				OrderID: "ORD1", ActualDays: domain.F(5), PromisedDays: domain.F(5),
				DistanceKM: domain.F(-4),
			},
			cost:      []domain.CostBreakdown{{OrderID: "ORD1", FuelCost: domain.F(100)}},
			wantDelay: domain.F(0),
			wantTotal: domain.F(100),
			wantCPK:   domain.Null(),
			wantFlag:  0,
		},
		{
			name: "AllNullCostCategoriesSumToZero",
			order: domain.Order{
				OrderID: "ORD1", PromisedDays: domain.F(2), ActualDays: domain.F(5),
				DistanceKM: domain.F(10),
			},
			cost:      []domain.CostBreakdown{{OrderID: "ORD1"}},
			wantDelay: domain.F(3),
			wantTotal: domain.F(0),
			wantCPK:   domain.F(0),
			wantFlag:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &dataset.Store{Orders: []domain.Order{tt.order}, Costs: tt.cost, Caps: caps}
			got := Merge(st)[0]

			if got.DeliveryDelayDays != tt.wantDelay {
				t.Errorf("delay = %+v, want %+v", got.DeliveryDelayDays, tt.wantDelay)
			}
			if got.TotalCostINR != tt.wantTotal {
				t.Errorf("total cost = %+v, want %+v", got.TotalCostINR, tt.wantTotal)
			}
			if got.CostPerKM != tt.wantCPK {
				t.Errorf("cost per km = %+v, want %+v", got.CostPerKM, tt.wantCPK)
			}
			if got.IsDelayed != tt.wantFlag {
				t.Errorf("is delayed = %d, want %d", got.IsDelayed, tt.wantFlag)
			}
		})
	}
}

func TestMergeAggregateCostFallback(t *testing.T) {
	st := &dataset.Store{
		Orders: []domain.Order{{OrderID: "ORD1", DistanceKM: domain.F(5)}},
		Costs:  []domain.CostBreakdown{{OrderID: "ORD1", DeliveryCostINR: domain.F(500)}},
		Caps:   domain.Capabilities{HasAggregateCost: true, HasDistance: true},
	}

	got := Merge(st)[0]
	if got.TotalCostINR != domain.F(500) {
		t.Errorf("total cost = %+v, want pre-aggregated 500", got.TotalCostINR)
	}
	if got.CostPerKM != domain.F(100) {
		t.Errorf("cost per km = %+v, want 100", got.CostPerKM)
	}
}

func TestMergeNoCostSourceYieldsNull(t *testing.T) {
	st := &dataset.Store{
		Orders: []domain.Order{{OrderID: "ORD1", DistanceKM: domain.F(5)}},
	}

	got := Merge(st)[0]
	if got.TotalCostINR.Valid {
		t.Errorf("total cost = %+v, want null when no cost source exists", got.TotalCostINR)
	}
	if got.CostPerKM.Valid {
		t.Errorf("cost per km = %+v, want null", got.CostPerKM)
	}
}

func TestMergeSideTableJoins(t *testing.T) {
	st := &dataset.Store{
		Orders: []domain.Order{{OrderID: "ORD1", Route: "", VehicleID: ""}},
		Performance: []domain.DeliveryPerformance{
			{OrderID: "ORD1", VehicleID: "V7"},
		},
		Routes: []domain.RouteLeg{
			{OrderID: "ORD1", Route: "A", DistanceKM: domain.F(12), TrafficDelayMinutes: domain.F(30)},
		},
		Feedback: []domain.Feedback{
			{OrderID: "ORD1", Rating: domain.F(4), IssueCategory: "Late"},
		},
		Fleet: []domain.Vehicle{
			{VehicleID: "V7", VehicleType: "Truck", Status: "Active", FuelEfficiencyKMPerL: domain.F(9)},
		},
		Caps: domain.Capabilities{HasVehicleID: true, HasVehicleType: true, HasDistance: true, HasTrafficDelay: true, HasRating: true},
	}

	got := Merge(st)[0]
	if got.Route != "A" {
		t.Errorf("route = %q, want joined A", got.Route)
	}
	if got.DistanceKM != domain.F(12) || got.TrafficDelayMinutes != domain.F(30) {
		t.Errorf("route leg fields not joined: %+v", got)
	}
	if got.Rating != domain.F(4) || got.IssueCategory != "Late" {
		t.Errorf("feedback fields not joined: %+v", got)
	}
	if got.VehicleType != "Truck" || got.VehicleStatus != "Active" || got.FuelEfficiencyKMPerL != domain.F(9) {
		t.Errorf("fleet fields not joined via performance vehicle id: %+v", got)
	}
}

func TestMergeOrdersSideValueStaysCanonical(t *testing.T) {
	st := &dataset.Store{
		Orders: []domain.Order{
			{OrderID: "ORD1", Route: "Orders-Route", DistanceKM: domain.F(99), PromisedDays: domain.F(1)},
		},
		Performance: []domain.DeliveryPerformance{
			{OrderID: "ORD1", PromisedDays: domain.F(5)},
		},
		Routes: []domain.RouteLeg{
			{OrderID: "ORD1", Route: "Legs-Route", DistanceKM: domain.F(10)},
		},
		Caps: domain.Capabilities{
			HasDistance:        true,
			OrdersHavePromised: true,
			OrdersHaveRoute:    true,
			OrdersHaveDistance: true,
		},
	}

	got := Merge(st)[0]
	if got.Route != "Orders-Route" {
		t.Errorf("route = %q, orders-side value must win", got.Route)
	}
	if got.DistanceKM != domain.F(99) {
		t.Errorf("distance = %+v, orders-side value must win", got.DistanceKM)
	}
	if got.PromisedDays != domain.F(1) {
		t.Errorf("promised days = %+v, orders-side value must win", got.PromisedDays)
	}
}

func TestMergeNullOrdersCellNotBackfilled(t *testing.T) {
	// The orders table carries the promised column with a null cell. The
	// joined performance row must not fill it: the delay stays null and
	// the order is not flagged.
	st := &dataset.Store{
		Orders: []domain.Order{
			{OrderID: "ORD1", ActualDays: domain.F(9)},
		},
		Performance: []domain.DeliveryPerformance{
			{OrderID: "ORD1", PromisedDays: domain.F(5), ActualDays: domain.F(9)},
		},
		Caps: domain.Capabilities{
			HasDeliveryDays:    true,
			OrdersHavePromised: true,
			OrdersHaveActual:   true,
		},
	}

	got := Merge(st)[0]
	if got.PromisedDays.Valid {
		t.Errorf("promised days = %+v, want the orders-side null preserved", got.PromisedDays)
	}
	if got.DeliveryDelayDays.Valid {
		t.Errorf("delay = %+v, want null when the orders-side cell is null", got.DeliveryDelayDays)
	}
	if got.IsDelayed != 0 {
		t.Errorf("is delayed = %d, want 0 for an undefined delay", got.IsDelayed)
	}
}

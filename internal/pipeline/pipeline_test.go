package pipeline

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nexgen-logistics/lanewatch/internal/cache"
	"github.com/nexgen-logistics/lanewatch/internal/domain"
	"github.com/nexgen-logistics/lanewatch/internal/filter"
)

func writeFixtures(t *testing.T, dir string) {
	t.Helper()
	files := map[string]string{
		"orders.csv": `Order_ID,Order_Date,Origin,Promised_Delivery_Days,Actual_Delivery_Days,Distance_KM,Order_Value_INR
ORD1,2024-01-05,Mumbai,5,8,10,500
ORD2,2024-01-10,Pune,4,3,20,800
ORD3,2024-02-01,Mumbai,null,null,null,300
`,
		"delivery_performance.csv": `Order_ID,Vehicle_ID
ORD1,V1
ORD2,V2
`,
		"cost_breakdown.csv": `Order_ID,Fuel_Cost,Labor_Cost,Vehicle_Maintenance,Insurance,Packaging_Cost,Technology_Platform_Fee,Other_Overhead
ORD1,50,40,20,10,10,10,10
ORD2,40,30,10,5,5,5,5
ORD3,null,null,null,null,null,null,null
`,
		"routes_distance.csv": `Order_ID,Route,Distance_KM,Fuel_Consumption_L,Traffic_Delay_Minutes
ORD1,Mumbai-Delhi,10,2,30
ORD2,Pune-Nagpur,20,4,10
`,
		"customer_feedback.csv": `Order_ID,Rating,Issue_Category
ORD1,3,Late delivery
ORD2,5,
`,
		"vehicle_fleet.csv": `Vehicle_ID,Vehicle_Type,Status,Fuel_Efficiency_KM_per_L
V1,Truck,Active,6
V2,Van,Active,12
`,
		"warehouse_inventory.csv": `Warehouse_ID,Location,Current_Stock_Units,Reorder_Level
W1,Mumbai,100,50
W2,Pune,20,40
`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
}

func newTestRunner(t *testing.T, dir string) *Runner {
	t.Helper()
	r, err := NewRunner(dir, domain.ModelConfig{Seed: 42, TestFraction: 0.2}, cache.NewLRUCache(16), time.Minute, nil)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	return r
}

func approx(got, want float64) bool {
	return math.Abs(got-want) < 1e-6
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)
	r := newTestRunner(t, dir)
	ctx := context.Background()

	res, err := r.Run(ctx, filter.Params{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.RecordCount != 3 {
		t.Fatalf("expected 3 records, got %d", res.RecordCount)
	}
	if res.RunID == "" {
		t.Error("expected a run ID")
	}

	var ord1 *domain.EnrichedOrder
	for i := range res.Orders {
		if res.Orders[i].OrderID == "ORD1" {
			ord1 = &res.Orders[i]
		}
	}
	if ord1 == nil {
		t.Fatal("ORD1 missing from result")
	}
	if !ord1.DeliveryDelayDays.Valid || ord1.DeliveryDelayDays.Value != 3 {
		t.Errorf("ORD1 delay = %+v, want 3", ord1.DeliveryDelayDays)
	}
	if !ord1.TotalCostINR.Valid || ord1.TotalCostINR.Value != 150 {
		t.Errorf("ORD1 total cost = %+v, want 150", ord1.TotalCostINR)
	}
	if !ord1.CostPerKM.Valid || ord1.CostPerKM.Value != 15 {
		t.Errorf("ORD1 cost per km = %+v, want 15", ord1.CostPerKM)
	}
	if ord1.IsDelayed != 1 {
		t.Errorf("ORD1 is_delayed = %d, want 1", ord1.IsDelayed)
	}

	// One delayed order out of three with a usable delay.
	if !res.KPIs.OnTimeRatePct.Valid || !approx(res.KPIs.OnTimeRatePct.Value, 100.0*2/3) {
		t.Errorf("on-time rate = %+v, want %.4f", res.KPIs.OnTimeRatePct, 100.0*2/3)
	}
	if !res.KPIs.AvgCostPerKM.Valid || !approx(res.KPIs.AvgCostPerKM.Value, 10) {
		t.Errorf("avg cost per km = %+v, want 10", res.KPIs.AvgCostPerKM)
	}
	if !res.KPIs.AvgCustomerRating.Valid || !approx(res.KPIs.AvgCustomerRating.Value, 4) {
		t.Errorf("avg rating = %+v, want 4", res.KPIs.AvgCustomerRating)
	}

	// Both fully-populated routes qualify; Mumbai-Delhi is worse on
	// every dimension and must rank first.
	if len(res.RouteRisk) != 2 {
		t.Fatalf("expected 2 risk rows, got %d", len(res.RouteRisk))
	}
	if res.RouteRisk[0].Route != "Mumbai-Delhi" {
		t.Errorf("top risk route = %s, want Mumbai-Delhi", res.RouteRisk[0].Route)
	}
	if !approx(res.RouteRisk[0].RiskScore, res.RouteRisk[0].NormDelay*0.5+res.RouteRisk[0].NormCostPerKM*0.3+res.RouteRisk[0].NormTraffic*0.2) {
		t.Errorf("risk score does not match weighted components: %+v", res.RouteRisk[0])
	}

	// 2 routes x 2 active vehicles.
	if len(res.Recommendations) != 4 {
		t.Errorf("expected 4 recommendations, got %d", len(res.Recommendations))
	}

	// Only two rows satisfy the cost model's feature requirements, which
	// is below the training minimum.
	if res.CostModel != nil {
		t.Errorf("expected no cost model on tiny dataset, got %+v", res.CostModel)
	}

	if len(res.Fleet) != 1 || res.Fleet[0].Status != "Active" || res.Fleet[0].Count != 2 {
		t.Errorf("fleet summary = %+v", res.Fleet)
	}
	if res.Warehouse.Warehouses != 2 || res.Warehouse.BelowReorder != 1 {
		t.Errorf("warehouse summary = %+v", res.Warehouse)
	}

	if res.Metadata.Cached {
		t.Error("first run must not be marked cached")
	}
	if _, ok := res.Metadata.StageMs["risk"]; !ok {
		t.Error("expected stage timings in metadata")
	}
}

func TestRunServesFromCache(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)
	r := newTestRunner(t, dir)
	ctx := context.Background()

	first, err := r.Run(ctx, filter.Params{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	second, err := r.Run(ctx, filter.Params{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !second.Metadata.Cached {
		t.Error("second identical run should be served from cache")
	}
	if second.RunID != first.RunID {
		t.Error("cached run should carry the original run ID")
	}
}

func TestRunWithFilters(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)
	r := newTestRunner(t, dir)
	ctx := context.Background()

	res, err := r.Run(ctx, filter.Params{Origin: "Mumbai"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.RecordCount != 2 {
		t.Errorf("expected 2 Mumbai records, got %d", res.RecordCount)
	}

	res, err = r.Run(ctx, filter.Params{Expr: "is_delayed == 1"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.RecordCount != 1 || res.Orders[0].OrderID != "ORD1" {
		t.Errorf("expected only ORD1, got %d records", res.RecordCount)
	}
}

func TestRunBadExpression(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)
	r := newTestRunner(t, dir)

	if _, err := r.Run(context.Background(), filter.Params{Expr: "distance_km >"}); err == nil {
		t.Error("expected error for malformed expression")
	}
}

func TestModelsMemoized(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)
	r := newTestRunner(t, dir)
	ctx := context.Background()

	set, err := r.Models(ctx, filter.Params{})
	if err != nil {
		t.Fatalf("Models() error = %v", err)
	}
	if set == nil {
		t.Fatal("expected a model set")
	}
	// Insufficient training data on the tiny fixture.
	if set.Cost != nil {
		t.Error("expected nil cost model sentinel")
	}

	again, err := r.Models(ctx, filter.Params{})
	if err != nil {
		t.Fatalf("Models() error = %v", err)
	}
	if again != set {
		t.Error("expected the memoized model set")
	}
}

func TestModelsSurvivesMemoLoss(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)
	r := newTestRunner(t, dir)
	ctx := context.Background()

	if _, err := r.Run(ctx, filter.Params{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Drop the memoized fits while the cached pipeline result stays
	// valid, as when a reload rotates the generation between a caller's
	// key computation and its lookup.
	r.modelMu.Lock()
	r.models = make(map[string]*ModelSet)
	r.modelMu.Unlock()

	set, err := r.Models(ctx, filter.Params{})
	if err != nil {
		t.Fatalf("Models() error = %v", err)
	}
	if set == nil {
		t.Fatal("expected a model set, not nil")
	}

	// A reload must not strand subsequent predict calls either.
	if err := r.Reload(ctx); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	set, err = r.Models(ctx, filter.Params{})
	if err != nil {
		t.Fatalf("Models() after reload error = %v", err)
	}
	if set == nil {
		t.Fatal("expected a model set after reload, not nil")
	}
}

func TestNewRunnerNoOrders(t *testing.T) {
	dir := t.TempDir() // no CSVs at all

	_, err := NewRunner(dir, domain.ModelConfig{Seed: 42, TestFraction: 0.2}, cache.NewLRUCache(16), time.Minute, nil)
	if !errors.Is(err, domain.ErrNoOrders) {
		t.Errorf("expected ErrNoOrders, got %v", err)
	}
}

func TestReloadKeepsServingOnError(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)
	r := newTestRunner(t, dir)
	ctx := context.Background()

	gen := r.Generation()

	// Empty out the orders table; the reload must fail and leave the
	// previous dataset in place.
	if err := os.WriteFile(filepath.Join(dir, "orders.csv"), []byte("Order_ID,Origin\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := r.Reload(ctx); !errors.Is(err, domain.ErrNoOrders) {
		t.Fatalf("expected ErrNoOrders, got %v", err)
	}
	if r.Generation() != gen {
		t.Error("failed reload must not rotate the generation")
	}
	if r.RecordCount() != 3 {
		t.Errorf("expected previous dataset to keep serving, got %d records", r.RecordCount())
	}
}

func TestReloadRotatesGeneration(t *testing.T) {
	dir := t.TempDir()
	writeFixtures(t, dir)
	r := newTestRunner(t, dir)

	gen := r.Generation()
	if err := r.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if r.Generation() == gen {
		t.Error("successful reload must rotate the generation")
	}
}

package filter

import (
	"testing"
	"time"

	"github.com/nexgen-logistics/lanewatch/internal/domain"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleRecords() []domain.EnrichedOrder {
	return []domain.EnrichedOrder{
		{
			OrderID:           "ORD001",
			OrderDate:         date("2024-01-05"),
			Origin:            "Mumbai",
			Route:             "Mumbai-Delhi",
			VehicleType:       "Truck",
			DistanceKM:        domain.F(1400),
			TotalCostINR:      domain.F(21000),
			CostPerKM:         domain.F(15),
			DeliveryDelayDays: domain.F(2),
			IsDelayed:         1,
			Rating:            domain.F(3),
		},
		{
			OrderID:      "ORD002",
			OrderDate:    date("2024-02-10"),
			Origin:       "Pune",
			Route:        "Pune-Nagpur",
			VehicleType:  "Van",
			DistanceKM:   domain.F(700),
			TotalCostINR: domain.F(8000),
			Rating:       domain.F(5),
		},
		{
			OrderID:     "ORD003",
			Origin:      "Mumbai",
			VehicleType: "Truck",
			// zero order date: no usable date on this record
		},
	}
}

func allCaps() domain.Capabilities {
	return domain.Capabilities{HasVehicleType: true}
}

func TestApplyNoFilters(t *testing.T) {
	out, err := Apply(sampleRecords(), allCaps(), Params{})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(out) != 3 {
		t.Errorf("expected all 3 records, got %d", len(out))
	}
}

func TestApplyDateRange(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		wantIDs []string
	}{
		{"inclusive both ends", "2024-01-05", "2024-02-10", []string{"ORD001", "ORD002"}},
		{"start only", "2024-02-01", "", []string{"ORD002"}},
		{"end only", "", "2024-01-31", []string{"ORD001"}},
		{"empty range", "2024-03-01", "2024-03-31", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Params
			if tt.start != "" {
				p.Start = date(tt.start)
			}
			if tt.end != "" {
				p.End = date(tt.end)
			}

			out, err := Apply(sampleRecords(), allCaps(), p)
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if len(out) != len(tt.wantIDs) {
				t.Fatalf("got %d records, want %d", len(out), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if out[i].OrderID != id {
					t.Errorf("record %d: got %s, want %s", i, out[i].OrderID, id)
				}
			}
		})
	}
}

func TestApplyDateRangeDropsUndatedRecords(t *testing.T) {
	// ORD003 has no order date and must drop out once any bound is set.
	out, err := Apply(sampleRecords(), allCaps(), Params{Start: date("2020-01-01")})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	for _, r := range out {
		if r.OrderID == "ORD003" {
			t.Error("undated record survived a bounded date filter")
		}
	}
}

func TestApplyOrigin(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		want   int
	}{
		{"specific origin", "Mumbai", 2},
		{"All passes everything", "All", 3},
		{"empty passes everything", "", 3},
		{"unknown origin", "Chennai", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Apply(sampleRecords(), allCaps(), Params{Origin: tt.origin})
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if len(out) != tt.want {
				t.Errorf("got %d records, want %d", len(out), tt.want)
			}
		})
	}
}

func TestApplyVehicleType(t *testing.T) {
	out, err := Apply(sampleRecords(), allCaps(), Params{VehicleType: "Van"})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(out) != 1 || out[0].OrderID != "ORD002" {
		t.Errorf("expected only ORD002, got %+v", out)
	}
}

func TestApplyVehicleTypeIgnoredWithoutColumn(t *testing.T) {
	// Without a vehicle type column the filter is a no-op.
	out, err := Apply(sampleRecords(), domain.Capabilities{}, Params{VehicleType: "Van"})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(out) != 3 {
		t.Errorf("expected all 3 records, got %d", len(out))
	}
}

func TestApplyExpression(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantIDs []string
	}{
		{"numeric comparison", "distance_km > 1000.0", []string{"ORD001"}},
		{"string and numeric", `origin == "Mumbai" && is_delayed == 1`, []string{"ORD001"}},
		{"null numeric activates as zero", "cost_per_km == 0.0", []string{"ORD002", "ORD003"}},
		{"rating threshold", "rating >= 4.0", []string{"ORD002"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Apply(sampleRecords(), allCaps(), Params{Expr: tt.expr})
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if len(out) != len(tt.wantIDs) {
				t.Fatalf("got %d records, want %d", len(out), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if out[i].OrderID != id {
					t.Errorf("record %d: got %s, want %s", i, out[i].OrderID, id)
				}
			}
		})
	}
}

func TestCompilePredicateErrors(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"syntax error", "distance_km >"},
		{"unknown variable", "unknown_field > 5.0"},
		{"non-bool output", "distance_km + 1.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CompilePredicate(tt.expr); err == nil {
				t.Errorf("CompilePredicate(%q) expected error, got nil", tt.expr)
			}
		})
	}
}

func TestParamsKey(t *testing.T) {
	a := Params{Start: date("2024-01-01"), Origin: "Mumbai"}
	b := Params{Start: date("2024-01-01"), Origin: "Mumbai"}
	c := Params{Start: date("2024-01-01"), Origin: "Pune"}

	if a.Key() != b.Key() {
		t.Error("identical params produced different keys")
	}
	if a.Key() == c.Key() {
		t.Error("different params produced the same key")
	}
}

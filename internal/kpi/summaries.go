package kpi

import (
	"sort"

	"github.com/nexgen-logistics/lanewatch/internal/domain"
)

// StatusCount is one slice of the fleet status breakdown.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// FleetSummary counts vehicles by status, sorted by count descending then
// status for determinism.
func FleetSummary(fleet []domain.Vehicle) []StatusCount {
	counts := make(map[string]int)
	for _, v := range fleet {
		counts[v.Status]++
	}

	out := make([]StatusCount, 0, len(counts))
	for status, n := range counts {
		out = append(out, StatusCount{Status: status, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Status < out[j].Status
	})
	return out
}

// WarehouseReport summarizes stock levels against reorder thresholds.
type WarehouseReport struct {
	Warehouses      int          `json:"warehouses"`
	TotalStockUnits domain.Float `json:"total_stock_units"`
	BelowReorder    int          `json:"below_reorder"`
}

// WarehouseSummary reports total stock and how many warehouses sit at or
// below their reorder level. Rows missing either figure count toward the
// total but never toward the reorder alarm.
func WarehouseSummary(stock []domain.WarehouseStock) WarehouseReport {
	report := WarehouseReport{Warehouses: len(stock)}
	sum := 0.0
	any := false

	for _, w := range stock {
		if w.CurrentStockUnits.Valid {
			sum += w.CurrentStockUnits.Value
			any = true
		}
		if w.CurrentStockUnits.Valid && w.ReorderLevel.Valid && w.CurrentStockUnits.Value <= w.ReorderLevel.Value {
			report.BelowReorder++
		}
	}
	if any {
		report.TotalStockUnits = domain.F(sum)
	}
	return report
}

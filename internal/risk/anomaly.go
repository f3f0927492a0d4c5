package risk

import (
	"gonum.org/v1/gonum/stat"

	"github.com/nexgen-logistics/lanewatch/internal/domain"
)

// CostAnomaly is one order whose cost-per-km sits above the population
// threshold.
type CostAnomaly struct {
	OrderID   string       `json:"order_id"`
	Route     string       `json:"route,omitempty"`
	CostPerKM domain.Float `json:"cost_per_km"`
}

// AnomalyReport holds the flagged orders and the threshold that flagged
// them.
type AnomalyReport struct {
	Threshold domain.Float  `json:"threshold"`
	MeanCPK   domain.Float  `json:"mean_cost_per_km"`
	StdDevCPK domain.Float  `json:"stddev_cost_per_km"`
	Anomalies []CostAnomaly `json:"anomalies"`
}

// DetectCostAnomalies flags orders whose cost-per-km exceeds
// mean + 2*stddev of the defined cost-per-km population. Fewer than two
// defined values give no basis for a spread, so the report stays empty.
func DetectCostAnomalies(records []domain.EnrichedOrder) AnomalyReport {
	var vals []float64
	for _, r := range records {
		if r.CostPerKM.Valid {
			vals = append(vals, r.CostPerKM.Value)
		}
	}

	report := AnomalyReport{Anomalies: []CostAnomaly{}}
	if len(vals) < 2 {
		return report
	}

	mean := stat.Mean(vals, nil)
	sd := stat.StdDev(vals, nil)
	threshold := mean + 2*sd

	report.MeanCPK = domain.F(mean)
	report.StdDevCPK = domain.F(sd)
	report.Threshold = domain.F(threshold)

	for _, r := range records {
		if r.CostPerKM.GreaterThan(threshold) {
			report.Anomalies = append(report.Anomalies, CostAnomaly{
				OrderID:   r.OrderID,
				Route:     r.Route,
				CostPerKM: r.CostPerKM,
			})
		}
	}
	return report
}

// RouteEfficiencies computes distance per liter for each route leg. Legs
// with null or non-positive fuel consumption score null.
func RouteEfficiencies(legs []domain.RouteLeg) []domain.RouteEfficiency {
	out := make([]domain.RouteEfficiency, 0, len(legs))
	for _, l := range legs {
		score := domain.Null()
		if l.FuelConsumptionL.GreaterThan(0) {
			score = l.DistanceKM.Div(l.FuelConsumptionL)
		}
		out = append(out, domain.RouteEfficiency{
			OrderID:          l.OrderID,
			Route:            l.Route,
			DistanceKM:       l.DistanceKM,
			FuelConsumptionL: l.FuelConsumptionL,
			EfficiencyScore:  score,
		})
	}
	return out
}

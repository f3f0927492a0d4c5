// Package kpi reduces a filtered enriched record set to summary scalars.
package kpi

import (
	"gonum.org/v1/gonum/stat"

	"github.com/nexgen-logistics/lanewatch/internal/domain"
)

// Compute returns the fixed KPI set over the filtered view. Each value is
// the arithmetic mean over defined source values; an all-null column
// yields a null aggregate rather than 0.
func Compute(records []domain.EnrichedOrder) domain.KPISummary {
	var delays, totals, perKM, ratings []float64
	delayed := 0

	for _, r := range records {
		if r.DeliveryDelayDays.Valid {
			delays = append(delays, r.DeliveryDelayDays.Value)
		}
		if r.TotalCostINR.Valid {
			totals = append(totals, r.TotalCostINR.Value)
		}
		if r.CostPerKM.Valid {
			perKM = append(perKM, r.CostPerKM.Value)
		}
		if r.Rating.Valid {
			ratings = append(ratings, r.Rating.Value)
		}
		delayed += r.IsDelayed
	}

	s := domain.KPISummary{
		AvgDelayDays:      meanOf(delays),
		AvgCostPerOrder:   meanOf(totals),
		AvgCostPerKM:      meanOf(perKM),
		AvgCustomerRating: meanOf(ratings),
	}
	if len(records) > 0 {
		rate := 1 - float64(delayed)/float64(len(records))
		s.OnTimeRatePct = domain.F(rate * 100)
	}
	return s
}

func meanOf(vals []float64) domain.Float {
	if len(vals) == 0 {
		return domain.Null()
	}
	return domain.F(stat.Mean(vals, nil))
}

package kpi

import (
	"github.com/nexgen-logistics/lanewatch/internal/domain"
)

// Diesel burns to roughly 2.31 kg of CO2 per liter.
const co2KgPerLiter = 2.31

// Per-km fallback factors when fuel consumption is not recorded.
var co2KgPerKMByType = map[string]float64{
	"Van":   0.2,
	"Truck": 0.6,
	"Bike":  0.05,
}

const co2KgPerKMDefault = 0.2

// EstimateCO2 estimates kilograms of CO2 for one order. Fuel consumption
// is preferred; otherwise a per-km factor keyed by vehicle type applies.
// With neither input the estimate is null.
func EstimateCO2(r domain.EnrichedOrder) domain.Float {
	if r.FuelConsumptionL.Valid {
		return domain.F(r.FuelConsumptionL.Value * co2KgPerLiter)
	}
	if r.DistanceKM.Valid {
		factor, ok := co2KgPerKMByType[r.VehicleType]
		if !ok {
			factor = co2KgPerKMDefault
		}
		return domain.F(r.DistanceKM.Value * factor)
	}
	return domain.Null()
}

// EmissionRow is one order's CO2 estimate with its inputs.
type EmissionRow struct {
	OrderID          string       `json:"order_id"`
	DistanceKM       domain.Float `json:"distance_km"`
	FuelConsumptionL domain.Float `json:"fuel_consumption_l"`
	CO2Kg            domain.Float `json:"co2_kg_est"`
}

// EmissionsReport aggregates per-order estimates over a filtered view.
type EmissionsReport struct {
	TotalCO2Kg domain.Float  `json:"total_co2_kg"`
	Orders     []EmissionRow `json:"orders"`
}

// Emissions estimates CO2 for every record and totals the defined values.
func Emissions(records []domain.EnrichedOrder) EmissionsReport {
	report := EmissionsReport{Orders: make([]EmissionRow, 0, len(records))}
	sum := 0.0
	any := false

	for _, r := range records {
		est := EstimateCO2(r)
		report.Orders = append(report.Orders, EmissionRow{
			OrderID:          r.OrderID,
			DistanceKM:       r.DistanceKM,
			FuelConsumptionL: r.FuelConsumptionL,
			CO2Kg:            est,
		})
		if est.Valid {
			sum += est.Value
			any = true
		}
	}
	if any {
		report.TotalCO2Kg = domain.F(sum)
	}
	return report
}

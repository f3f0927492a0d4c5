// Package risk scores routes by a weighted composite of normalized delay,
// cost, and traffic averages, and recommends substitute vehicles for the
// riskiest ones.
package risk

import (
	"sort"

	"github.com/nexgen-logistics/lanewatch/internal/domain"
)

// Composite weights. Policy constants, not learned.
const (
	weightDelay     = 0.5
	weightCostPerKM = 0.3
	weightTraffic   = 0.2

	// epsilon stabilizes min-max normalization for singleton or
	// constant-valued route groups.
	epsilon = 1e-9
)

// ComputeRouteRisk groups the record set by route and scores each group.
// Records missing any of route, cost-per-km, delay days, or traffic delay
// are dropped entirely before grouping. The result is sorted by risk
// descending (ties by route) and recomputed fresh on every call.
func ComputeRouteRisk(records []domain.EnrichedOrder) []domain.RouteRisk {
	type agg struct {
		delaySum, costSum, trafficSum float64
		count                         int
	}

	groups := make(map[string]*agg)
	var order []string
	for _, r := range records {
		if r.Route == "" || !r.CostPerKM.Valid || !r.DeliveryDelayDays.Valid || !r.TrafficDelayMinutes.Valid {
			continue
		}
		g, ok := groups[r.Route]
		if !ok {
			g = &agg{}
			groups[r.Route] = g
			order = append(order, r.Route)
		}
		g.delaySum += r.DeliveryDelayDays.Value
		g.costSum += r.CostPerKM.Value
		g.trafficSum += r.TrafficDelayMinutes.Value
		g.count++
	}

	if len(groups) == 0 {
		return []domain.RouteRisk{}
	}

	out := make([]domain.RouteRisk, 0, len(groups))
	for _, route := range order {
		g := groups[route]
		n := float64(g.count)
		out = append(out, domain.RouteRisk{
			Route:        route,
			AvgDelay:     g.delaySum / n,
			AvgCostPerKM: g.costSum / n,
			AvgTraffic:   g.trafficSum / n,
			OrderCount:   g.count,
		})
	}

	normalize(out)
	for i := range out {
		out[i].RiskScore = weightDelay*out[i].NormDelay +
			weightCostPerKM*out[i].NormCostPerKM +
			weightTraffic*out[i].NormTraffic
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].RiskScore != out[j].RiskScore {
			return out[i].RiskScore > out[j].RiskScore
		}
		return out[i].Route < out[j].Route
	})
	return out
}

// normalize min-max scales each averaged column across groups. The
// epsilon in the denominator keeps constant columns at 0 instead of
// dividing by zero.
func normalize(groups []domain.RouteRisk) {
	minMax := func(get func(domain.RouteRisk) float64) (float64, float64) {
		lo, hi := get(groups[0]), get(groups[0])
		for _, g := range groups[1:] {
			v := get(g)
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		return lo, hi
	}

	delayLo, delayHi := minMax(func(g domain.RouteRisk) float64 { return g.AvgDelay })
	costLo, costHi := minMax(func(g domain.RouteRisk) float64 { return g.AvgCostPerKM })
	trafLo, trafHi := minMax(func(g domain.RouteRisk) float64 { return g.AvgTraffic })

	for i := range groups {
		groups[i].NormDelay = (groups[i].AvgDelay - delayLo) / (delayHi - delayLo + epsilon)
		groups[i].NormCostPerKM = (groups[i].AvgCostPerKM - costLo) / (costHi - costLo + epsilon)
		groups[i].NormTraffic = (groups[i].AvgTraffic - trafLo) / (trafHi - trafLo + epsilon)
	}
}

package risk

import (
	"sort"
	"strings"

	"github.com/nexgen-logistics/lanewatch/internal/domain"
)

const (
	maxRecommendedRoutes   = 20
	maxRecommendedVehicles = 3
)

// RecommendAlternatives pairs the highest-risk routes with the most
// fuel-efficient active vehicles as heuristic substitutions: a full cross
// product of up to 20 routes by up to 3 vehicles, not deduplicated. When
// no vehicle is active the whole fleet is considered rather than
// recommending nothing; an empty fleet yields an empty result.
func RecommendAlternatives(routeRisk []domain.RouteRisk, fleet []domain.Vehicle) []domain.Recommendation {
	if len(fleet) == 0 || len(routeRisk) == 0 {
		return []domain.Recommendation{}
	}

	candidates := make([]domain.Vehicle, 0, len(fleet))
	for _, v := range fleet {
		if strings.EqualFold(v.Status, "active") {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		candidates = append(candidates, fleet...)
	}

	// Stable keeps input order on efficiency ties.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].FuelEfficiencyKMPerL.Float64(0) > candidates[j].FuelEfficiencyKMPerL.Float64(0)
	})
	if len(candidates) > maxRecommendedVehicles {
		candidates = candidates[:maxRecommendedVehicles]
	}

	ranked := make([]domain.RouteRisk, len(routeRisk))
	copy(ranked, routeRisk)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RiskScore > ranked[j].RiskScore
	})
	if len(ranked) > maxRecommendedRoutes {
		ranked = ranked[:maxRecommendedRoutes]
	}

	out := make([]domain.Recommendation, 0, len(ranked)*len(candidates))
	for _, r := range ranked {
		for _, v := range candidates {
			out = append(out, domain.Recommendation{
				Route:                r.Route,
				RouteRisk:            r.RiskScore,
				VehicleID:            v.VehicleID,
				VehicleType:          v.VehicleType,
				FuelEfficiencyKMPerL: v.FuelEfficiencyKMPerL,
			})
		}
	}
	return out
}

package filter

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/nexgen-logistics/lanewatch/internal/domain"
)

// Predicate reports whether a record passes a compiled expression.
type Predicate func(domain.EnrichedOrder) bool

var (
	envOnce sync.Once
	env     *cel.Env
	envErr  error
)

func celEnv() (*cel.Env, error) {
	envOnce.Do(func() {
		env, envErr = cel.NewEnv(
			cel.Variable("order_id", cel.StringType),
			cel.Variable("origin", cel.StringType),
			cel.Variable("destination", cel.StringType),
			cel.Variable("route", cel.StringType),
			cel.Variable("vehicle_type", cel.StringType),
			cel.Variable("vehicle_status", cel.StringType),
			cel.Variable("issue_category", cel.StringType),
			cel.Variable("distance_km", cel.DoubleType),
			cel.Variable("order_value_inr", cel.DoubleType),
			cel.Variable("total_cost_inr", cel.DoubleType),
			cel.Variable("cost_per_km", cel.DoubleType),
			cel.Variable("delay_days", cel.DoubleType),
			cel.Variable("traffic_delay_minutes", cel.DoubleType),
			cel.Variable("rating", cel.DoubleType),
			cel.Variable("is_delayed", cel.IntType),
		)
		if envErr != nil {
			envErr = fmt.Errorf("failed to create CEL environment: %w", envErr)
		}
	})
	return env, envErr
}

// CompilePredicate compiles a CEL expression into a record predicate.
// Expressions must evaluate to bool. Null numeric fields activate as 0
// and missing strings as "".
func CompilePredicate(expr string) (Predicate, error) {
	e, err := celEnv()
	if err != nil {
		return nil, err
	}

	ast, issues := e.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile expression: %w", issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("expression must return bool, got %s", ast.OutputType())
	}

	program, err := e.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program: %w", err)
	}

	return func(r domain.EnrichedOrder) bool {
		out, _, err := program.Eval(activation(r))
		if err != nil {
			return false
		}
		b, ok := out.(types.Bool)
		return ok && bool(b)
	}, nil
}

func activation(r domain.EnrichedOrder) map[string]any {
	return map[string]any{
		"order_id":              r.OrderID,
		"origin":                r.Origin,
		"destination":           r.Destination,
		"route":                 r.Route,
		"vehicle_type":          r.VehicleType,
		"vehicle_status":        r.VehicleStatus,
		"issue_category":        r.IssueCategory,
		"distance_km":           r.DistanceKM.Float64(0),
		"order_value_inr":       r.OrderValueINR.Float64(0),
		"total_cost_inr":        r.TotalCostINR.Float64(0),
		"cost_per_km":           r.CostPerKM.Float64(0),
		"delay_days":            r.DeliveryDelayDays.Float64(0),
		"traffic_delay_minutes": r.TrafficDelayMinutes.Float64(0),
		"rating":                r.Rating.Float64(0),
		"is_delayed":            int64(r.IsDelayed),
	}
}

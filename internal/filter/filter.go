// Package filter narrows the enriched record set before the downstream
// stages run: an inclusive order-date range, optional origin and vehicle
// type equality, and an optional CEL expression.
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/nexgen-logistics/lanewatch/internal/domain"
)

// All disables an equality filter.
const All = "All"

// Params are the filter parameters accepted by the pipeline's callers.
type Params struct {
	Start       time.Time `json:"start,omitempty"`
	End         time.Time `json:"end,omitempty"`
	Origin      string    `json:"origin,omitempty"`
	VehicleType string    `json:"vehicle_type,omitempty"`
	Expr        string    `json:"expr,omitempty"`
}

// Key returns the canonical cache key for the parameter set.
func (p Params) Key() string {
	var b strings.Builder
	if !p.Start.IsZero() {
		b.WriteString(p.Start.Format("2006-01-02"))
	}
	b.WriteByte('|')
	if !p.End.IsZero() {
		b.WriteString(p.End.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "|%s|%s|%s", p.Origin, p.VehicleType, p.Expr)
	return b.String()
}

// Apply returns the records passing every configured filter. The vehicle
// type filter only applies when the merged schema carries a vehicle type.
// The only possible error is a CEL expression that fails to compile.
func Apply(records []domain.EnrichedOrder, caps domain.Capabilities, p Params) ([]domain.EnrichedOrder, error) {
	var pred Predicate
	if p.Expr != "" {
		var err error
		pred, err = CompilePredicate(p.Expr)
		if err != nil {
			return nil, err
		}
	}

	out := make([]domain.EnrichedOrder, 0, len(records))
	for _, r := range records {
		if !matchesDate(r.OrderDate, p.Start, p.End) {
			continue
		}
		if filtered(p.Origin) && r.Origin != p.Origin {
			continue
		}
		if filtered(p.VehicleType) && caps.HasVehicleType && r.VehicleType != p.VehicleType {
			continue
		}
		if pred != nil && !pred(r) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func filtered(v string) bool {
	return v != "" && v != All
}

// matchesDate compares at day granularity, inclusive on both ends.
// Records without a usable order date drop out once any bound is set.
func matchesDate(d, start, end time.Time) bool {
	if start.IsZero() && end.IsZero() {
		return true
	}
	if d.IsZero() {
		return false
	}
	day := d.Truncate(24 * time.Hour)
	if !start.IsZero() && day.Before(start.Truncate(24*time.Hour)) {
		return false
	}
	if !end.IsZero() && day.After(end.Truncate(24*time.Hour)) {
		return false
	}
	return true
}

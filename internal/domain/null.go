package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Float is an optional float64. Derived metrics use it instead of NaN
// sentinels so that null propagation is explicit and testable.
type Float struct {
	Value float64
	Valid bool
}

// F returns a defined Float.
func F(v float64) Float {
	return Float{Value: v, Valid: true}
}

// Null returns an undefined Float.
func Null() Float {
	return Float{}
}

// Add returns f + other; null if either side is null.
func (f Float) Add(other Float) Float {
	if !f.Valid || !other.Valid {
		return Null()
	}
	return F(f.Value + other.Value)
}

// Sub returns f - other; null if either side is null.
func (f Float) Sub(other Float) Float {
	if !f.Valid || !other.Valid {
		return Null()
	}
	return F(f.Value - other.Value)
}

// Div returns f / other. Null if either side is null or the denominator
// is zero; division never produces Inf or an error.
func (f Float) Div(other Float) Float {
	if !f.Valid || !other.Valid || other.Value == 0 {
		return Null()
	}
	return F(f.Value / other.Value)
}

// GreaterThan reports whether f is defined and strictly greater than v.
// A null Float compares false against everything.
func (f Float) GreaterThan(v float64) bool {
	return f.Valid && f.Value > v
}

// Float64 returns the value, or def when null. Used where the original
// pipeline imputes missing feature values to a constant.
func (f Float) Float64(def float64) float64 {
	if !f.Valid {
		return def
	}
	return f.Value
}

var nullLiteral = []byte("null")

// MarshalJSON encodes a defined Float as a number and a null Float as
// JSON null, so absent aggregates are reported as absent rather than 0.
func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return nullLiteral, nil
	}
	return []byte(strconv.FormatFloat(f.Value, 'f', -1, 64)), nil
}

// UnmarshalJSON decodes a number or null.
func (f *Float) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), nullLiteral) {
		*f = Null()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = F(v)
	return nil
}

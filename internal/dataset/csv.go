// Package dataset loads the seven logistics CSV tables into typed records
// and computes the column-capability descriptor the pipeline runs on.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nexgen-logistics/lanewatch/internal/domain"
)

// table is one parsed CSV: normalized header -> column index plus rows.
type table struct {
	cols map[string]int
	rows [][]string
}

// readTable parses CSV bytes from r. Malformed rows are skipped rather
// than failing the whole table.
func readTable(r io.Reader) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	t := &table{cols: make(map[string]int, len(headers))}
	for i, h := range headers {
		key := normalizeHeader(h)
		if key == "" {
			continue
		}
		if _, ok := t.cols[key]; !ok {
			t.cols[key] = i
		}
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}
		t.rows = append(t.rows, row)
	}

	return t, nil
}

func (t *table) has(col string) bool {
	if t == nil {
		return false
	}
	_, ok := t.cols[col]
	return ok
}

func (t *table) hasAny(cols ...string) bool {
	for _, c := range cols {
		if t.has(c) {
			return true
		}
	}
	return false
}

// str returns the trimmed cell value, or "" when the column is absent or
// the cell holds a null token.
func (t *table) str(row []string, col string) string {
	idx, ok := t.cols[col]
	if !ok || idx >= len(row) {
		return ""
	}
	val := strings.TrimSpace(row[idx])
	if isNullToken(val) {
		return ""
	}
	return val
}

// float parses the cell as a number. Absent columns, null tokens, and
// unparseable values all yield a null Float.
func (t *table) float(row []string, col string) domain.Float {
	val := t.str(row, col)
	if val == "" {
		return domain.Null()
	}
	val = strings.ReplaceAll(val, ",", "")
	val = strings.TrimPrefix(val, "₹")
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return domain.Null()
	}
	return domain.F(f)
}

var dateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"01/02/2006",
	"2 Jan 2006",
}

// date parses the cell against the accepted formats; the zero time marks
// a missing or unparseable date.
func (t *table) date(row []string, col string) time.Time {
	val := t.str(row, col)
	if val == "" {
		return time.Time{}
	}
	for _, layout := range dateFormats {
		if ts, err := time.Parse(layout, val); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// normalizeHeader converts "Order ID" or "Order_Date" to snake_case keys.
func normalizeHeader(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return strings.Trim(s, "_")
}

func isNullToken(s string) bool {
	switch s {
	case "", "null", "NULL", "N/A", "n/a", "NA", "nan", "NaN":
		return true
	}
	return false
}

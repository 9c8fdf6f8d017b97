package engine

import (
	"encoding/json"
	"fmt"
	"math"
)

// View is a filtered subset of a Table. It holds row indices into the
// parent, so filtering never copies or touches the source columns.
type View struct {
	table *Table
	rows  []int
}

// Point is one charted observation.
type Point struct {
	Bank   string  `json:"bank"`
	Period string  `json:"period"`
	Value  float64 `json:"value"`
}

// MarshalJSON writes missing values (NaN) as null.
func (p Point) MarshalJSON() ([]byte, error) {
	var v *float64
	if !math.IsNaN(p.Value) && !math.IsInf(p.Value, 0) {
		v = &p.Value
	}
	return json.Marshal(struct {
		Bank   string   `json:"bank"`
		Period string   `json:"period"`
		Value  *float64 `json:"value"`
	}{p.Bank, p.Period, v})
}

// Filter keeps rows whose bank is in banks AND whose period is in periods.
// An empty set matches nothing.
func (t *Table) Filter(banks, periods []string) *View {
	v := &View{table: t, rows: []int{}}
	if len(banks) == 0 || len(periods) == 0 {
		return v
	}

	bankSet := t.idSet(DimBank, banks)
	periodSet := t.idSet(DimPeriod, periods)

	// Single pass: a row passes only if both memberships hold
	for i := range t.BankIDs {
		if bankSet[t.BankIDs[i]] && periodSet[t.PeriodIDs[i]] {
			v.rows = append(v.rows, i)
		}
	}
	return v
}

func (v *View) Len() int { return len(v.rows) }

// Records materialises the rows of the view in table order.
func (v *View) Records() []Record {
	out := make([]Record, len(v.rows))
	for k, i := range v.rows {
		out[k] = v.table.Row(i)
	}
	return out
}

// Project extracts (bank, period, value) for one indicator, in table order.
func (v *View) Project(indicator string) ([]Point, error) {
	col, ok := v.table.indicatorIdx[indicator]
	if !ok {
		return nil, fmt.Errorf("%w: %q in %s", ErrUnknownIndicator, indicator, v.table.Name)
	}
	t := v.table
	values := t.Values[col]
	points := make([]Point, len(v.rows))
	for k, i := range v.rows {
		points[k] = Point{
			Bank:   t.BankDict[t.BankIDs[i]],
			Period: t.PeriodDict[t.PeriodIDs[i]],
			Value:  values[i],
		}
	}
	return points, nil
}

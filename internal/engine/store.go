package engine

import (
	"math"
	"sort"
)

// Dimension identifies one of the string columns of a Table.
type Dimension int

const (
	DimCountry Dimension = iota
	DimBank
	DimPeriod
)

func (d Dimension) String() string {
	switch d {
	case DimCountry:
		return "country"
	case DimBank:
		return "bank"
	case DimPeriod:
		return "period"
	}
	return "unknown"
}

// Record is one bank-period observation.
type Record struct {
	Country string             `json:"country,omitempty"`
	Bank    string             `json:"bank"`
	Period  string             `json:"period"`
	Values  map[string]float64 `json:"values"`
}

// Table holds a dataset in Struct-of-Arrays format. It is never mutated
// after the builder hands it out.
type Table struct {
	Name string

	// Dictionary Encoded IDs (0..N)
	CountryIDs []int32
	BankIDs    []int32
	PeriodIDs  []int32

	// Dictionaries (ID -> String)
	CountryDict []string
	BankDict    []string
	PeriodDict  []string

	// Indicator columns, Values[k] belongs to Indicators[k]
	Indicators []string
	Values     [][]float64

	hasCountry   bool
	indicatorIdx map[string]int
	dictIdx      [3]map[string]int32
}

// NewTable builds a Table from records. Indicators missing from a record
// are stored as NaN.
func NewTable(name string, hasCountry bool, indicators []string, records []Record) *Table {
	b := newTableBuilder(name, hasCountry, indicators, len(records))
	vals := make([]float64, len(indicators))
	for _, r := range records {
		for k, ind := range indicators {
			v, ok := r.Values[ind]
			if !ok {
				v = math.NaN()
			}
			vals[k] = v
		}
		b.add(r.Country, r.Bank, r.Period, vals)
	}
	return b.build()
}

func (t *Table) Len() int { return len(t.BankIDs) }

// HasCountry reports whether the source file carried a country column.
func (t *Table) HasCountry() bool { return t.hasCountry }

func (t *Table) HasIndicator(name string) bool {
	_, ok := t.indicatorIdx[name]
	return ok
}

// Row materialises row i as a Record.
func (t *Table) Row(i int) Record {
	r := Record{
		Bank:   t.BankDict[t.BankIDs[i]],
		Period: t.PeriodDict[t.PeriodIDs[i]],
		Values: make(map[string]float64, len(t.Indicators)),
	}
	if t.hasCountry {
		r.Country = t.CountryDict[t.CountryIDs[i]]
	}
	for k, ind := range t.Indicators {
		r.Values[ind] = t.Values[k][i]
	}
	return r
}

func (t *Table) ids(d Dimension) ([]int32, []string) {
	switch d {
	case DimCountry:
		return t.CountryIDs, t.CountryDict
	case DimBank:
		return t.BankIDs, t.BankDict
	case DimPeriod:
		return t.PeriodIDs, t.PeriodDict
	}
	return nil, nil
}

// Distinct returns the sorted distinct values of a dimension.
func (t *Table) Distinct(d Dimension) []string {
	if d == DimCountry && !t.hasCountry {
		return nil
	}
	_, dict := t.ids(d)
	out := make([]string, len(dict))
	copy(out, dict)
	sort.Strings(out)
	return out
}

// DistinctWhere returns the sorted distinct values of child over the rows
// whose parent value is one of values.
func (t *Table) DistinctWhere(child, parent Dimension, values []string) []string {
	if (child == DimCountry || parent == DimCountry) && !t.hasCountry {
		return nil
	}
	parentIDs, _ := t.ids(parent)
	childIDs, childDict := t.ids(child)

	allowed := t.idSet(parent, values)
	if len(allowed) == 0 {
		return []string{}
	}

	seen := make([]bool, len(childDict))
	for i, pid := range parentIDs {
		if allowed[pid] {
			seen[childIDs[i]] = true
		}
	}

	out := make([]string, 0)
	for id, ok := range seen {
		if ok {
			out = append(out, childDict[id])
		}
	}
	sort.Strings(out)
	return out
}

// idSet translates values to dictionary IDs, ignoring values not in the table.
func (t *Table) idSet(d Dimension, values []string) map[int32]bool {
	set := make(map[int32]bool, len(values))
	idx := t.dictIdx[d]
	for _, v := range values {
		if id, ok := idx[v]; ok {
			set[id] = true
		}
	}
	return set
}

// --- BUILDER ---

type tableBuilder struct {
	t *Table
}

func newTableBuilder(name string, hasCountry bool, indicators []string, sizeHint int) *tableBuilder {
	t := &Table{
		Name:         name,
		CountryIDs:   make([]int32, 0, sizeHint),
		BankIDs:      make([]int32, 0, sizeHint),
		PeriodIDs:    make([]int32, 0, sizeHint),
		Indicators:   append([]string(nil), indicators...),
		Values:       make([][]float64, len(indicators)),
		hasCountry:   hasCountry,
		indicatorIdx: make(map[string]int, len(indicators)),
	}
	for k, ind := range indicators {
		t.indicatorIdx[ind] = k
		t.Values[k] = make([]float64, 0, sizeHint)
	}
	for d := range t.dictIdx {
		t.dictIdx[d] = make(map[string]int32)
	}
	return &tableBuilder{t: t}
}

// encode returns the dictionary ID for s, adding it on first sight.
func (b *tableBuilder) encode(d Dimension, s string) int32 {
	idx := b.t.dictIdx[d]
	if id, ok := idx[s]; ok {
		return id
	}
	var dict *[]string
	switch d {
	case DimCountry:
		dict = &b.t.CountryDict
	case DimBank:
		dict = &b.t.BankDict
	default:
		dict = &b.t.PeriodDict
	}
	id := int32(len(*dict))
	*dict = append(*dict, s)
	idx[s] = id
	return id
}

// add appends one row; vals is indexed like the builder's indicators.
func (b *tableBuilder) add(country, bank, period string, vals []float64) {
	if b.t.hasCountry {
		b.t.CountryIDs = append(b.t.CountryIDs, b.encode(DimCountry, country))
	}
	b.t.BankIDs = append(b.t.BankIDs, b.encode(DimBank, bank))
	b.t.PeriodIDs = append(b.t.PeriodIDs, b.encode(DimPeriod, period))
	for k := range b.t.Values {
		b.t.Values[k] = append(b.t.Values[k], vals[k])
	}
}

func (b *tableBuilder) build() *Table {
	t := b.t
	b.t = nil
	return t
}

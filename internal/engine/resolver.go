package engine

import (
	"fmt"
	"strings"
)

// Field is a selector of the dashboard.
type Field string

const (
	FieldCountry   Field = "country"
	FieldBank      Field = "bank"
	FieldPeriod    Field = "period"
	FieldCategory  Field = "category"
	FieldIndicator Field = "indicator"
	FieldChart     Field = "chart"
)

func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FieldCountry, FieldBank, FieldPeriod, FieldCategory, FieldIndicator, FieldChart:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// ChartKind selects the chart style.
type ChartKind string

const (
	ChartBar  ChartKind = "bar"
	ChartLine ChartKind = "line"
)

var chartKinds = []string{string(ChartBar), string(ChartLine)}

// ParseChartKind accepts "bar"/"line" and the "Bar Plot"/"Line Plot" labels.
func ParseChartKind(s string) (ChartKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bar", "bar plot":
		return ChartBar, nil
	case "line", "line plot":
		return ChartLine, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownChartKind, s)
}

// Selection is the transient, per-session state of the selectors.
type Selection struct {
	Countries []string  `json:"countries"`
	Banks     []string  `json:"banks"`
	Periods   []string  `json:"periods"`
	Category  Category  `json:"category"`
	Indicator string    `json:"indicator"`
	Chart     ChartKind `json:"chart"`
}

// Clone deep-copies s so sessions never share backing arrays.
func (s Selection) Clone() Selection {
	c := s
	c.Countries = append([]string(nil), s.Countries...)
	c.Banks = append([]string(nil), s.Banks...)
	c.Periods = append([]string(nil), s.Periods...)
	return c
}

func (s Selection) values(f Field) []string {
	switch f {
	case FieldCountry:
		return s.Countries
	case FieldBank:
		return s.Banks
	case FieldPeriod:
		return s.Periods
	case FieldCategory:
		return single(string(s.Category))
	case FieldIndicator:
		return single(s.Indicator)
	case FieldChart:
		return single(string(s.Chart))
	}
	return nil
}

func (s *Selection) set(f Field, vals []string) {
	first := ""
	if len(vals) > 0 {
		first = vals[0]
	}
	switch f {
	case FieldCountry:
		s.Countries = vals
	case FieldBank:
		s.Banks = vals
	case FieldPeriod:
		s.Periods = vals
	case FieldCategory:
		s.Category = Category(first)
	case FieldIndicator:
		s.Indicator = first
	case FieldChart:
		s.Chart = ChartKind(first)
	}
}

func single(v string) []string {
	if v == "" {
		return nil
	}
	return []string{v}
}

// Options holds the valid choices of every selector.
type Options struct {
	Countries  []string `json:"countries,omitempty"`
	Banks      []string `json:"banks"`
	Periods    []string `json:"periods"`
	Categories []string `json:"categories"`
	Indicators []string `json:"indicators"`
	Charts     []string `json:"charts"`
}

func (o *Options) set(f Field, vals []string) {
	switch f {
	case FieldCountry:
		o.Countries = vals
	case FieldBank:
		o.Banks = vals
	case FieldPeriod:
		o.Periods = vals
	case FieldCategory:
		o.Categories = vals
	case FieldIndicator:
		o.Indicators = vals
	case FieldChart:
		o.Charts = vals
	}
}

// ResolveDefault returns the first option.
func ResolveDefault(options []string) (string, error) {
	if len(options) == 0 {
		return "", ErrEmptyOptions
	}
	return options[0], nil
}

// --- DEPENDENCY GRAPH ---

type node struct {
	field   Field
	parents []Field
	multi   bool
	options func(sel Selection) []string
}

// Resolver recomputes selector options along a dependency DAG.
type Resolver struct {
	nodes    map[Field]*node
	children map[Field][]Field
	order    []Field
}

// NewResolver wires the dashboard selectors of t and idx:
// country -> bank, category -> indicator. Tables without a country
// column have no country selector and bank becomes a root.
func NewResolver(t *Table, idx *CategoryIndex) (*Resolver, error) {
	var nodes []*node
	bank := &node{field: FieldBank, multi: true}
	if t.HasCountry() {
		nodes = append(nodes, &node{
			field: FieldCountry,
			multi: true,
			options: func(Selection) []string {
				return t.Distinct(DimCountry)
			},
		})
		bank.parents = []Field{FieldCountry}
		bank.options = func(sel Selection) []string {
			return t.DistinctWhere(DimBank, DimCountry, sel.Countries)
		}
	} else {
		bank.options = func(Selection) []string {
			return t.Distinct(DimBank)
		}
	}

	categories := make([]string, 0)
	for _, c := range idx.Categories() {
		categories = append(categories, string(c))
	}

	nodes = append(nodes,
		bank,
		&node{
			field: FieldPeriod,
			multi: true,
			options: func(Selection) []string {
				return t.Distinct(DimPeriod)
			},
		},
		&node{
			field: FieldCategory,
			options: func(Selection) []string {
				return categories
			},
		},
		&node{
			field:   FieldIndicator,
			parents: []Field{FieldCategory},
			options: func(sel Selection) []string {
				list, err := idx.IndicatorsFor(sel.Category)
				if err != nil {
					return nil
				}
				return list
			},
		},
		&node{
			field: FieldChart,
			options: func(Selection) []string {
				return chartKinds
			},
		},
	)
	return newResolver(nodes)
}

// newResolver orders nodes topologically (Kahn), keeping declaration
// order among independent fields so recomputation is deterministic.
func newResolver(nodes []*node) (*Resolver, error) {
	r := &Resolver{
		nodes:    make(map[Field]*node, len(nodes)),
		children: make(map[Field][]Field),
	}
	for _, n := range nodes {
		r.nodes[n.field] = n
	}

	indegree := make(map[Field]int, len(nodes))
	for _, n := range nodes {
		for _, p := range n.parents {
			if _, ok := r.nodes[p]; !ok {
				return nil, fmt.Errorf("%w: %s depends on %s", ErrUnknownField, n.field, p)
			}
			r.children[p] = append(r.children[p], n.field)
			indegree[n.field]++
		}
	}

	done := make(map[Field]bool, len(nodes))
	for len(r.order) < len(nodes) {
		progressed := false
		for _, n := range nodes {
			if done[n.field] || indegree[n.field] > 0 {
				continue
			}
			done[n.field] = true
			r.order = append(r.order, n.field)
			for _, c := range r.children[n.field] {
				indegree[c]--
			}
			progressed = true
		}
		if !progressed {
			return nil, ErrCycle
		}
	}
	return r, nil
}

// Fields returns the selectors in recompute order.
func (r *Resolver) Fields() []Field {
	return append([]Field(nil), r.order...)
}

func (r *Resolver) Has(f Field) bool {
	_, ok := r.nodes[f]
	return ok
}

// Downstream returns f and everything depending on it, in recompute order.
func (r *Resolver) Downstream(f Field) []Field {
	reach := map[Field]bool{f: true}
	stack := []Field{f}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range r.children[cur] {
			if !reach[c] {
				reach[c] = true
				stack = append(stack, c)
			}
		}
	}
	out := make([]Field, 0, len(reach))
	for _, x := range r.order {
		if reach[x] {
			out = append(out, x)
		}
	}
	return out
}

// Resolution is the outcome of a recompute.
type Resolution struct {
	Selection Selection
	Options   Options
	// Empty lists the selectors left without any option.
	Empty []Field
	// Substituted lists the selectors whose value was replaced by a default.
	Substituted []Field
}

// Recompute refreshes options for every selector and repairs the values
// downstream of changed. An empty changed repairs everything.
//
// A selector the user just changed keeps whatever part of its value is
// valid, even if that is nothing. A dependent selector whose value became
// invalid falls back to its first option.
func (r *Resolver) Recompute(sel Selection, changed Field) Resolution {
	dirty := make(map[Field]bool)
	if changed == "" {
		for _, f := range r.order {
			dirty[f] = true
		}
	} else {
		for _, f := range r.Downstream(changed) {
			dirty[f] = true
		}
	}
	return r.recompute(sel, dirty, func(n *node, _ []string) bool {
		return n.multi && n.field == changed
	})
}

// Revalidate repairs every selector of a stored selection. An empty
// multi-valued selector was cleared by the user and stays empty; values
// that are no longer valid still fall back to the first option.
func (r *Resolver) Revalidate(sel Selection) Resolution {
	dirty := make(map[Field]bool, len(r.order))
	for _, f := range r.order {
		dirty[f] = true
	}
	return r.recompute(sel, dirty, func(n *node, prev []string) bool {
		return n.multi && len(prev) == 0
	})
}

// recompute walks the selectors in order. keepEmpty reports whether a
// selector left without a valid value stays empty instead of taking its
// first option.
func (r *Resolver) recompute(sel Selection, dirty map[Field]bool, keepEmpty func(n *node, prev []string) bool) Resolution {
	res := Resolution{Selection: sel.Clone()}
	for _, f := range r.order {
		n := r.nodes[f]
		opts := n.options(res.Selection)
		res.Options.set(f, opts)
		if len(opts) == 0 {
			res.Empty = append(res.Empty, f)
		}
		if !dirty[f] {
			continue
		}

		prev := res.Selection.values(f)
		kept := intersect(opts, prev)
		if !n.multi && len(kept) > 1 {
			kept = kept[:1]
		}
		if len(kept) == 0 && !keepEmpty(n, prev) {
			if def, err := ResolveDefault(opts); err == nil {
				kept = []string{def}
				if len(prev) > 0 {
					res.Substituted = append(res.Substituted, f)
				}
			}
		}
		res.Selection.set(f, kept)
	}
	return res
}

// intersect keeps the options present in values, in option order.
func intersect(options, values []string) []string {
	want := make(map[string]bool, len(values))
	for _, v := range values {
		want[v] = true
	}
	out := make([]string, 0, len(values))
	for _, o := range options {
		if want[o] {
			out = append(out, o)
		}
	}
	return out
}

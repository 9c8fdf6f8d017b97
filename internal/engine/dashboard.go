package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Status tells the renderer whether a State has anything to draw.
type Status string

const (
	StatusOK     Status = "ok"
	StatusNoData Status = "no_data"
)

// Presentation carries renderer settings that belong to a dataset.
type Presentation struct {
	Title string
	// Percent marks indicators that are ratios to be shown as percentages.
	Percent bool
}

// State is a fully resolved selection ready for charting.
type State struct {
	Selection Selection `json:"selection"`
	Options   Options   `json:"options"`
	Points    []Point   `json:"points"`
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
}

// Change sets one selector. Single-valued selectors use Values[0].
type Change struct {
	Field  Field    `json:"field"`
	Values []string `json:"values"`
}

// Dashboard binds a table to its category index. It holds no per-user
// state and is safe to share across sessions.
type Dashboard struct {
	name     string
	table    *Table
	index    *CategoryIndex
	resolver *Resolver
	pres     Presentation
	defaults Selection
}

// NewDashboard fails with ErrMissingColumn when idx names an indicator the
// table does not carry.
func NewDashboard(name string, t *Table, idx *CategoryIndex, pres Presentation, defaults Selection) (*Dashboard, error) {
	if err := idx.Validate(t); err != nil {
		return nil, err
	}
	r, err := NewResolver(t, idx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &Dashboard{
		name:     name,
		table:    t,
		index:    idx,
		resolver: r,
		pres:     pres,
		defaults: defaults.Clone(),
	}, nil
}

func (d *Dashboard) Name() string { return d.name }
func (d *Dashboard) Table() *Table { return d.table }
func (d *Dashboard) Index() *CategoryIndex { return d.index }
func (d *Dashboard) Resolver() *Resolver { return d.resolver }
func (d *Dashboard) Presentation() Presentation { return d.pres }

// Initial resolves the configured defaults. Defaults absent from the
// table are dropped and replaced by first options.
func (d *Dashboard) Initial() State {
	return d.state(d.resolver.Recompute(d.defaults, ""), nil)
}

// Resolve re-derives the state of a stored selection. Selectors the user
// cleared stay cleared, so a stored no-data selection stays no-data.
func (d *Dashboard) Resolve(sel Selection) State {
	return d.state(d.resolver.Revalidate(sel), nil)
}

// Apply sets one selector and recomputes the selectors depending on it.
// An unknown category or indicator is not an error: the selector is
// reset to its default and the State carries a message.
func (d *Dashboard) Apply(sel Selection, ch Change) (State, error) {
	if !d.resolver.Has(ch.Field) {
		return State{}, fmt.Errorf("%w: %q in %s", ErrUnknownField, ch.Field, d.name)
	}

	next := sel.Clone()
	var notes []string
	vals := clean(ch.Values)

	switch ch.Field {
	case FieldCategory:
		if len(vals) > 0 {
			c, err := d.index.ParseCategory(vals[0])
			if err != nil {
				notes = append(notes, err.Error()+"; reset to default")
				vals = nil
			} else {
				vals = []string{string(c)}
			}
		}
	case FieldIndicator:
		if len(vals) > 0 {
			if err := d.checkIndicator(next.Category, vals[0]); err != nil {
				notes = append(notes, err.Error()+"; reset to default")
				vals = nil
			}
		}
	case FieldChart:
		if len(vals) > 0 {
			k, err := ParseChartKind(vals[0])
			if err != nil {
				notes = append(notes, err.Error()+"; reset to default")
				vals = nil
			} else {
				vals = []string{string(k)}
			}
		}
	}
	next.set(ch.Field, vals)

	return d.state(d.resolver.Recompute(next, ch.Field), notes), nil
}

// checkIndicator reports ErrUnknownIndicator for names the table lacks or
// the current category does not list.
func (d *Dashboard) checkIndicator(c Category, indicator string) error {
	if !d.table.HasIndicator(indicator) {
		return fmt.Errorf("%w: %q in %s", ErrUnknownIndicator, indicator, d.name)
	}
	list, err := d.index.IndicatorsFor(c)
	if err != nil {
		return err
	}
	for _, ind := range list {
		if ind == indicator {
			return nil
		}
	}
	return fmt.Errorf("%w: %q is not listed under %q", ErrUnknownIndicator, indicator, c)
}

func (d *Dashboard) state(res Resolution, notes []string) State {
	st := State{
		Selection: res.Selection,
		Options:   res.Options,
		Points:    []Point{},
		Status:    StatusOK,
	}
	for _, f := range res.Empty {
		notes = append(notes, fmt.Sprintf("no %s options for this selection", f))
	}

	s := res.Selection
	if len(s.Banks) == 0 || len(s.Periods) == 0 || s.Indicator == "" {
		st.Status = StatusNoData
		notes = append(notes, "no data for this selection")
		st.Message = strings.Join(notes, "; ")
		return st
	}

	points, err := d.table.Filter(s.Banks, s.Periods).Project(s.Indicator)
	switch {
	case errors.Is(err, ErrUnknownIndicator):
		st.Status = StatusNoData
		notes = append(notes, err.Error())
	case len(points) == 0:
		st.Status = StatusNoData
		notes = append(notes, "no data for this selection")
	default:
		st.Points = points
	}
	st.Message = strings.Join(notes, "; ")
	return st
}

// clean trims values and drops blanks and duplicates.
func clean(vals []string) []string {
	seen := make(map[string]bool, len(vals))
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

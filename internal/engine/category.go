package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Category names a group of indicators shown together in a selector.
type Category string

// CategoryEntry is one category and its indicators in display order.
type CategoryEntry struct {
	Category   Category
	Indicators []string
}

// CategoryIndex is a static, ordered mapping from category to indicators.
// The first indicator of a category is its default.
type CategoryIndex struct {
	name       string
	order      []Category
	indicators map[Category][]string
}

// NewCategoryIndex validates entries: every category needs at least one
// indicator and no indicator may appear twice across the index.
func NewCategoryIndex(name string, entries ...CategoryEntry) (*CategoryIndex, error) {
	x := &CategoryIndex{
		name:       name,
		indicators: make(map[Category][]string, len(entries)),
	}
	owner := make(map[string]Category)
	for _, e := range entries {
		if _, dup := x.indicators[e.Category]; dup {
			return nil, fmt.Errorf("%s: category %q defined twice", name, e.Category)
		}
		if len(e.Indicators) == 0 {
			return nil, fmt.Errorf("%s: category %q: %w", name, e.Category, ErrEmptyOptions)
		}
		for _, ind := range e.Indicators {
			if prev, dup := owner[ind]; dup {
				return nil, fmt.Errorf("%s: indicator %q listed under %q and %q", name, ind, prev, e.Category)
			}
			owner[ind] = e.Category
		}
		x.order = append(x.order, e.Category)
		x.indicators[e.Category] = append([]string(nil), e.Indicators...)
	}
	return x, nil
}

// MustCategoryIndex is NewCategoryIndex for package-level catalogs.
func MustCategoryIndex(name string, entries ...CategoryEntry) *CategoryIndex {
	x, err := NewCategoryIndex(name, entries...)
	if err != nil {
		panic(err)
	}
	return x
}

func (x *CategoryIndex) Name() string { return x.name }

// Categories returns the categories in definition order.
func (x *CategoryIndex) Categories() []Category {
	return append([]Category(nil), x.order...)
}

func (x *CategoryIndex) Has(c Category) bool {
	_, ok := x.indicators[c]
	return ok
}

// IndicatorsFor returns a copy of the indicators of c.
func (x *CategoryIndex) IndicatorsFor(c Category) ([]string, error) {
	list, ok := x.indicators[c]
	if !ok {
		return nil, fmt.Errorf("%w: %q in %s", ErrUnknownCategory, c, x.name)
	}
	return append([]string(nil), list...), nil
}

// CategoryOf reports which category lists indicator.
func (x *CategoryIndex) CategoryOf(indicator string) (Category, bool) {
	for _, c := range x.order {
		for _, ind := range x.indicators[c] {
			if ind == indicator {
				return c, true
			}
		}
	}
	return "", false
}

// ParseCategory matches s against the index, ignoring case and
// surrounding space.
func (x *CategoryIndex) ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range x.order {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q in %s", ErrUnknownCategory, s, x.name)
}

// Indicators returns every indicator of the index, category by category.
func (x *CategoryIndex) Indicators() []string {
	var out []string
	for _, c := range x.order {
		out = append(out, x.indicators[c]...)
	}
	return out
}

// Validate checks that every indexed indicator is a column of t.
func (x *CategoryIndex) Validate(t *Table) error {
	var missing []string
	for _, ind := range x.Indicators() {
		if !t.HasIndicator(ind) {
			missing = append(missing, strconv.Quote(ind))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s lacks %s indicators %s", ErrMissingColumn, t.Name, x.name, strings.Join(missing, ", "))
	}
	return nil
}

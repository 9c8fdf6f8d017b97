package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// OffCyclePeriod is the label given to dates outside the quarter-end months.
const OffCyclePeriod = "0"

// QuarterLabel maps a quarter-end month to its period label.
// December is labelled with the bare year, not "{year}-Q4"; downstream
// files already key year-end rows that way.
func QuarterLabel(month time.Month, year int) (string, bool) {
	switch month {
	case time.December:
		return strconv.Itoa(year), true
	case time.September:
		return fmt.Sprintf("%d-Q3", year), true
	case time.June:
		return fmt.Sprintf("%d-Q2", year), true
	case time.March:
		return fmt.Sprintf("%d-Q1", year), true
	}
	return OffCyclePeriod, false
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006/01/02",
	"1/2/2006",
	"01/02/2006",
}

// parseDate accepts the layouts seen in exported report files.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

// QuarterFromDate parses a raw date cell and derives its period label.
func QuarterFromDate(raw string) (string, bool, error) {
	t, err := parseDate(raw)
	if err != nil {
		return OffCyclePeriod, false, err
	}
	label, ok := QuarterLabel(t.Month(), t.Year())
	return label, ok, nil
}

// periodKey orders labels chronologically: "2021-Q3" < "2021" < "2022-Q1".
// Unparseable labels, including OffCyclePeriod, sort first.
func periodKey(label string) (year, quarter int, ok bool) {
	y, q, found := strings.Cut(label, "-Q")
	year, err := strconv.Atoi(y)
	if err != nil || len(y) != 4 {
		return 0, 0, false
	}
	if !found {
		return year, 4, true
	}
	quarter, err = strconv.Atoi(q)
	if err != nil || quarter < 1 || quarter > 4 {
		return 0, 0, false
	}
	return year, quarter, true
}

// ComparePeriods returns -1, 0 or +1 ordering a and b in time. Labels that
// are not periods sort before all periods and lexically among themselves.
func ComparePeriods(a, b string) int {
	ya, qa, oka := periodKey(a)
	yb, qb, okb := periodKey(b)
	switch {
	case !oka && !okb:
		return strings.Compare(a, b)
	case !oka:
		return -1
	case !okb:
		return 1
	case ya != yb:
		return cmpInt(ya, yb)
	case qa != qb:
		return cmpInt(qa, qb)
	}
	return strings.Compare(a, b)
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

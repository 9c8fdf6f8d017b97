package engine

import (
	"slices"
	"testing"
	"time"
)

func TestQuarterLabel(t *testing.T) {
	tests := []struct {
		month   time.Month
		year    int
		want    string
		onCycle bool
	}{
		{time.March, 2022, "2022-Q1", true},
		{time.June, 2022, "2022-Q2", true},
		{time.September, 2022, "2022-Q3", true},
		// Year end carries no quarter suffix.
		{time.December, 2022, "2022", true},
		{time.January, 2022, OffCyclePeriod, false},
		{time.November, 2019, OffCyclePeriod, false},
	}

	for _, tt := range tests {
		t.Run(tt.month.String(), func(t *testing.T) {
			got, ok := QuarterLabel(tt.month, tt.year)
			if got != tt.want || ok != tt.onCycle {
				t.Errorf("QuarterLabel(%v, %d): expected (%q, %v), got (%q, %v)", tt.month, tt.year, tt.want, tt.onCycle, got, ok)
			}
		})
	}
}

func TestQuarterFromDate(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		onCycle bool
		wantErr bool
	}{
		{"2022-09-30", "2022-Q3", true, false},
		{"2021-12-31", "2021", true, false},
		{"3/31/2020", "2020-Q1", true, false},
		{"2020/06/30", "2020-Q2", true, false},
		{"2020-06-30 00:00:00", "2020-Q2", true, false},
		{"2020-07-31", OffCyclePeriod, false, false},
		{"not a date", OffCyclePeriod, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok, err := QuarterFromDate(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error: expected %v, got %v", tt.wantErr, err)
			}
			if got != tt.want || ok != tt.onCycle {
				t.Errorf("expected (%q, %v), got (%q, %v)", tt.want, tt.onCycle, got, ok)
			}
		})
	}
}

func TestComparePeriods(t *testing.T) {
	in := []string{"2022-Q1", "2021", OffCyclePeriod, "2021-Q3", "2022", "2020-Q4"}
	want := []string{OffCyclePeriod, "2020-Q4", "2021-Q3", "2021", "2022-Q1", "2022"}

	got := append([]string(nil), in...)
	slices.SortFunc(got, ComparePeriods)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, got)
		}
	}

	if ComparePeriods("2021-Q3", "2021") >= 0 {
		t.Error("year end should sort after Q3 of the same year")
	}
}

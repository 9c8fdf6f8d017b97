package engine

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestFilterProjectScenario(t *testing.T) {
	table := scenarioTable()

	points, err := table.Filter([]string{"A", "B"}, []string{"2022-Q1"}).Project("ROAA")
	if err != nil {
		t.Fatalf("Project: %v", err)
	}

	want := []Point{
		{Bank: "A", Period: "2022-Q1", Value: 0.01},
		{Bank: "B", Period: "2022-Q1", Value: 0.02},
	}
	if !reflect.DeepEqual(points, want) {
		t.Errorf("Expected %v, got %v", want, points)
	}
}

func TestFilterIsConjunctive(t *testing.T) {
	table := scenarioTable()

	// B has no Q2 row; A/Q1 must not leak in through the bank match alone.
	v := table.Filter([]string{"B"}, []string{"2022-Q2"})
	if v.Len() != 0 {
		t.Errorf("Expected empty view, got %d rows", v.Len())
	}

	v = table.Filter([]string{"A"}, []string{"2022-Q1", "2022-Q2"})
	if v.Len() != 2 {
		t.Errorf("Expected 2 rows for A, got %d", v.Len())
	}
}

func TestFilterEmptySets(t *testing.T) {
	table := scenarioTable()

	tests := []struct {
		name    string
		banks   []string
		periods []string
	}{
		{"no banks", nil, []string{"2022-Q1"}},
		{"no periods", []string{"A", "B"}, []string{}},
		{"both empty", nil, nil},
		{"unknown values", []string{"Z"}, []string{"1999-Q1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := table.Filter(tt.banks, tt.periods)
			if v.Len() != 0 {
				t.Errorf("Expected empty view, got %d rows", v.Len())
			}
			points, err := v.Project("ROAA")
			if err != nil {
				t.Fatal(err)
			}
			if len(points) != 0 {
				t.Errorf("Expected no points, got %v", points)
			}
		})
	}
}

func TestProjectUnknownIndicator(t *testing.T) {
	table := scenarioTable()
	_, err := table.Filter([]string{"A"}, []string{"2022-Q1"}).Project("NIM")
	if !errors.Is(err, ErrUnknownIndicator) {
		t.Errorf("Expected ErrUnknownIndicator, got %v", err)
	}

	// The check does not depend on the view having rows.
	_, err = table.Filter(nil, nil).Project("NIM")
	if !errors.Is(err, ErrUnknownIndicator) {
		t.Errorf("Expected ErrUnknownIndicator on empty view, got %v", err)
	}
}

func TestProjectIdempotent(t *testing.T) {
	table := scenarioTable()
	banks := []string{"B", "A"}
	periods := []string{"2022-Q2", "2022-Q1"}

	first, err := table.Filter(banks, periods).Project("ROAE")
	if err != nil {
		t.Fatal(err)
	}
	second, err := table.Filter(banks, periods).Project("ROAE")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical output, got %v and %v", first, second)
	}

	// Source table untouched.
	if table.Len() != 3 || table.Row(2).Values["ROAE"] != 0.15 {
		t.Error("Filter mutated the source table")
	}
}

func TestViewRecords(t *testing.T) {
	recs := scenarioTable().Filter([]string{"A"}, []string{"2022-Q2"}).Records()
	if len(recs) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(recs))
	}
	if recs[0].Country != "Guatemala" || recs[0].Values["ROAA"] != 0.015 {
		t.Errorf("unexpected record %+v", recs[0])
	}
}

func TestPointJSONMissingValue(t *testing.T) {
	data, err := json.Marshal([]Point{
		{Bank: "A", Period: "2022", Value: math.NaN()},
		{Bank: "B", Period: "2022", Value: 0.5},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `[{"bank":"A","period":"2022","value":null},{"bank":"B","period":"2022","value":0.5}]`
	if string(data) != want {
		t.Errorf("Expected %s, got %s", want, data)
	}
}

package engine

import "testing"

// scenarioTable: banks A and B, ROAA for A/Q1, B/Q1 and A/Q2.
func scenarioTable() *Table {
	return NewTable("scenario", true, []string{"ROAA", "ROAE"}, []Record{
		{Country: "Guatemala", Bank: "A", Period: "2022-Q1", Values: map[string]float64{"ROAA": 0.01, "ROAE": 0.10}},
		{Country: "Honduras", Bank: "B", Period: "2022-Q1", Values: map[string]float64{"ROAA": 0.02, "ROAE": 0.20}},
		{Country: "Guatemala", Bank: "A", Period: "2022-Q2", Values: map[string]float64{"ROAA": 0.015, "ROAE": 0.15}},
	})
}

// riskTable carries every indicator of the risk index.
func riskTable(t *testing.T) *Table {
	t.Helper()
	idx, err := IndexFor(KindRisk)
	if err != nil {
		t.Fatal(err)
	}
	inds := idx.Indicators()
	row := func(country, bank, period string, base float64) Record {
		vals := make(map[string]float64, len(inds))
		for k, ind := range inds {
			vals[ind] = base + float64(k)/1000
		}
		return Record{Country: country, Bank: bank, Period: period, Values: vals}
	}
	return NewTable("risk", true, inds, []Record{
		row("Guatemala", "INDUSTRIAL, S. A.", "2021-Q4", 0.01),
		row("Guatemala", "INDUSTRIAL, S. A.", "2022-Q3", 0.02),
		row("El Salvador", "Banco Agricola, S.A.", "2021-Q4", 0.03),
		row("El Salvador", "Banco Agricola, S.A.", "2022-Q3", 0.04),
		row("Honduras", "Banco Financiera Centroamericana, S.A.", "2022-Q3", 0.05),
		row("Costa Rica", "Banco Nacional", "2022-Q3", 0.06),
	})
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

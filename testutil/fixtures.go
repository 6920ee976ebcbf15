package testutil

import (
	"strconv"
	"strings"
	"testing"

	"github.com/kbukum/pipeflow/flow"
	"github.com/kbukum/pipeflow/table"
)

// RunID is the run identifier of calculators built by Calculator.
const RunID = "test-run"

// Trial is one row of readings, in the order of flow.InputColumns.
type Trial struct {
	PMin, PMax, PAvg, Hi, Hf, Hdiff, T, D float64
}

func (tr Trial) values() []float64 {
	return []float64{tr.PMin, tr.PMax, tr.PAvg, tr.Hi, tr.Hf, tr.Hdiff, tr.T, tr.D}
}

// Fixture trials. Reference, Reference2, Large and Small run together
// without row faults.
var (
	// Reference is a 9.6 mm trial: Re ≈ 17020.74, Ftheo ≈ 5.7856e-3.
	Reference = Trial{PMin: 900, PMax: 1100, PAvg: 1000, Hi: 10, Hf: 15, Hdiff: 5, T: 30, D: 9.6}
	// Reference2 is a second 9.6 mm trial.
	Reference2 = Trial{PMin: 850, PMax: 1050, PAvg: 950, Hi: 9, Hf: 15, Hdiff: 6, T: 28, D: 9.6}
	// Large is a 12 mm trial.
	Large = Trial{PMin: 1400, PMax: 1600, PAvg: 1500, Hi: 12, Hf: 20, Hdiff: 8, T: 25, D: 12.0}
	// Small is a 7.2 mm trial.
	Small = Trial{PMin: 400, PMax: 600, PAvg: 500, Hi: 5, Hf: 9, Hdiff: 4, T: 40, D: 7.2}
	// Stalled has a zero elapsed time and faults on Q.
	Stalled = Trial{PMin: 900, PMax: 1100, PAvg: 1000, Hi: 10, Hf: 15, Hdiff: 5, T: 0, D: 9.6}
)

// TrialTable builds an input table from trials.
func TrialTable(t testing.TB, trials ...Trial) *table.Table {
	t.Helper()
	cols := make([][]float64, len(flow.InputColumns))
	for i := range cols {
		cols[i] = make([]float64, 0, len(trials))
	}
	for _, tr := range trials {
		for i, v := range tr.values() {
			cols[i] = append(cols[i], v)
		}
	}
	tb, err := table.FromValues(flow.InputColumns, cols)
	if err != nil {
		t.Fatalf("building trial table: %v", err)
	}
	return tb
}

// TrialCSV renders trials as CSV with a header row.
func TrialCSV(trials ...Trial) string {
	var b strings.Builder
	b.WriteString(strings.Join(flow.InputColumns, ","))
	b.WriteByte('\n')
	for _, tr := range trials {
		vals := tr.values()
		cells := make([]string, len(vals))
		for i, v := range vals {
			cells[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		b.WriteString(strings.Join(cells, ","))
		b.WriteByte('\n')
	}
	return b.String()
}

// Calculator builds a calculator with default parameters and a fixed run ID.
func Calculator(t testing.TB, opts ...flow.Option) *flow.Calculator {
	t.Helper()
	opts = append([]flow.Option{flow.WithRunIDs(func() string { return RunID })}, opts...)
	calc, err := flow.New(flow.Defaults(), opts...)
	if err != nil {
		t.Fatalf("building calculator: %v", err)
	}
	return calc
}

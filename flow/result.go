package flow

import (
	"sort"

	"github.com/kbukum/pipeflow/pipeline"
	"github.com/kbukum/pipeflow/table"
)

// Result is the outcome of one run.
type Result struct {
	// RunID identifies the run in logs and traces.
	RunID string
	// Table holds the input columns followed by the derived columns. Cells
	// that could not be computed are invalid.
	Table *table.Table
	// Faults lists every cell that failed, in stage then row order.
	Faults []Fault
	// Calibration records the reference-diameter substitution.
	Calibration Calibration
	// Stages reports the duration of each stage.
	Stages []pipeline.StageReport
}

// Valid reports whether every cell of the run was computed.
func (r *Result) Valid() bool { return len(r.Faults) == 0 }

// FaultedRows returns the sorted indices of rows with at least one fault.
func (r *Result) FaultedRows() []int {
	seen := make(map[int]bool, len(r.Faults))
	var rows []int
	for _, f := range r.Faults {
		if !seen[f.Row] {
			seen[f.Row] = true
			rows = append(rows, f.Row)
		}
	}
	sort.Ints(rows)
	return rows
}

// RowFaults returns the faults raised for row.
func (r *Result) RowFaults(row int) []Fault {
	var out []Fault
	for _, f := range r.Faults {
		if f.Row == row {
			out = append(out, f)
		}
	}
	return out
}

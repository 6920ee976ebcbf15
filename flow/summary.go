package flow

import (
	"context"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	apperrors "github.com/kbukum/pipeflow/errors"
	"github.com/kbukum/pipeflow/observability"
	"github.com/kbukum/pipeflow/table"
)

// DiameterSummary aggregates the trials of one pipe diameter. Means are
// taken over the valid trials only, those whose Re, Fexp, Ftheo and dFe/Fe
// were all computed.
type DiameterSummary struct {
	Diameter    float64 `json:"diameter"`
	Trials      int     `json:"trials"`
	ValidTrials int     `json:"valid_trials"`
	MeanRe      float64 `json:"mean_re"`
	MeanFexp    float64 `json:"mean_fexp"`
	MeanFtheo   float64 `json:"mean_ftheo"`
	MeanDFe     float64 `json:"mean_dfe"`
}

var summaryColumns = []string{ColDiameter, ColRe, ColFexp, ColFtheo, ColDFe}

// Summarize groups an output table by diameter, in ascending order.
func Summarize(t *table.Table) ([]DiameterSummary, error) {
	if missing := t.Missing(summaryColumns...); len(missing) > 0 {
		return nil, apperrors.MissingColumns(missing...)
	}
	d, _ := t.Column(ColDiameter)

	seen := make(map[float64]bool)
	var diameters []float64
	for row := 0; row < t.Rows(); row++ {
		if v, ok := d.At(row); ok && !seen[v] {
			seen[v] = true
			diameters = append(diameters, v)
		}
	}
	sort.Float64s(diameters)

	out := make([]DiameterSummary, 0, len(diameters))
	for _, dia := range diameters {
		group := t.Filter(func(row int) bool {
			v, ok := d.At(row)
			return ok && v == dia
		})
		s := DiameterSummary{Diameter: dia, Trials: group.Rows()}

		valid := group.Filter(func(row int) bool {
			for _, name := range summaryColumns[1:] {
				if _, ok := group.Value(name, row); !ok {
					return false
				}
			}
			return true
		})
		s.ValidTrials = valid.Rows()
		if s.ValidTrials > 0 {
			s.MeanRe = columnMean(valid, ColRe)
			s.MeanFexp = columnMean(valid, ColFexp)
			s.MeanFtheo = columnMean(valid, ColFtheo)
			s.MeanDFe = columnMean(valid, ColDFe)
		}
		out = append(out, s)
	}
	return out, nil
}

func columnMean(t *table.Table, name string) float64 {
	c, _ := t.Column(name)
	return stat.Mean(c.ValidValues(), nil)
}

// selfCheckTable is a single reference trial with a known valid result.
func selfCheckTable(p Params) *table.Table {
	t, _ := table.FromValues(InputColumns, [][]float64{
		{900}, {1100}, {1000}, {10}, {15}, {5}, {30}, {p.ReferenceDiameter},
	})
	return t
}

// CheckHealth runs one reference trial through the pipeline. The
// calculator is down when the run fails and degraded when the trial
// produces row faults under the configured parameters.
func (c *Calculator) CheckHealth(ctx context.Context) observability.Health {
	h := observability.Health{
		Name:   "calculator",
		Status: observability.HealthStatusUp,
		Details: map[string]string{
			"reference_diameter": fmt.Sprint(c.params.ReferenceDiameter),
			"length_constant":    fmt.Sprint(c.params.LengthConstant),
		},
	}
	res, err := c.Run(ctx, selfCheckTable(c.params))
	switch {
	case res == nil:
		h.Status = observability.HealthStatusDown
		h.Message = err.Error()
	case err != nil:
		h.Status = observability.HealthStatusDegraded
		h.Message = err.Error()
	}
	return h
}

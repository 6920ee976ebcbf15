package flow

import (
	"context"

	"gonum.org/v1/gonum/stat"

	apperrors "github.com/kbukum/pipeflow/errors"
	"github.com/kbukum/pipeflow/table"
)

// Calibration records the cross-row step of a run so it can be audited.
//
// Substituted X and E depend only on e_avg and the row's own D, so they are
// valid on a non-reference row even when that row faulted upstream (for
// example t = 0 leaves Q, Vavg, Re and Fexp invalid). Ftheo and dFe/Fe
// still need Re and Fexp and stay invalid on such a row.
type Calibration struct {
	// ReferenceDiameter and Tolerance are the matching rule that was applied.
	ReferenceDiameter float64 `json:"reference_diameter"`
	Tolerance         float64 `json:"tolerance"`
	// EAvg is the mean of E over ReferenceRows.
	EAvg float64 `json:"e_avg"`
	// ReferenceRows are the rows that matched the reference diameter and
	// had a valid E. Their X and E are left as computed.
	ReferenceRows []int `json:"reference_rows"`
	// SubstitutedRows are the rows whose X and E were replaced from EAvg.
	SubstitutedRows []int `json:"substituted_rows"`
	// RawX is X as computed by the correlation, before substitution. Nil
	// entries are invalid cells.
	RawX []*float64 `json:"raw_x"`
}

// calibrate computes E = X·D·10⁻³, averages it over the reference trials
// and substitutes E := e_avg, X := e_avg/(D·10⁻³) on every other row whose
// D is valid, regardless of the validity of its raw X.
func (c *Calculator) calibrate(_ context.Context, s state) (state, error) {
	x, ok := s.table.Column(ColX)
	if !ok {
		return s, apperrors.MissingColumns(ColX)
	}
	d, ok := s.table.Column(ColDiameter)
	if !ok {
		return s, apperrors.MissingColumns(ColDiameter)
	}

	e, err := s.derive(StageCalibration, ColE, []string{ColX, ColDiameter}, func(in []float64) (float64, *cellFault) {
		return in[0] * in[1] * diameterScale, nil
	})
	if err != nil {
		return s, err
	}

	cal := &Calibration{
		ReferenceDiameter: c.params.ReferenceDiameter,
		Tolerance:         c.params.DiameterTolerance,
		RawX:              pointers(x),
	}

	var refE []float64
	for row := 0; row < s.table.Rows(); row++ {
		dv, dok := d.At(row)
		if !dok || !c.params.isReference(dv) {
			continue
		}
		if ev, eok := e.At(row); eok {
			refE = append(refE, ev)
			cal.ReferenceRows = append(cal.ReferenceRows, row)
		}
	}
	if len(refE) == 0 {
		return s, apperrors.Calibration(c.params.ReferenceDiameter).
			WithDetail("tolerance", c.params.DiameterTolerance)
	}
	cal.EAvg = stat.Mean(refE, nil)

	newX := x.Clone()
	newE := e.Clone()
	for row := 0; row < s.table.Rows(); row++ {
		dv, dok := d.At(row)
		if !dok || c.params.isReference(dv) {
			continue
		}
		cal.SubstitutedRows = append(cal.SubstitutedRows, row)
		newE.Set(row, cal.EAvg)
		if dv == 0 {
			newX.Invalidate(row)
			s.fault(row, StageCalibration, ColX, degenerate(dv, "diameter D is zero"))
			continue
		}
		newX.Set(row, cal.EAvg/(dv*diameterScale))
	}

	s.calibration = cal
	s.table, err = s.table.With(newX, newE)
	return s, err
}

func pointers(c *table.Column) []*float64 {
	out := make([]*float64, c.Len())
	for i := range out {
		if v, ok := c.At(i); ok {
			out[i] = &v
		}
	}
	return out
}

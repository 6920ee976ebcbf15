package flow

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/kbukum/pipeflow/pipeline"
	"github.com/kbukum/pipeflow/table"
)

// Stage names, as they appear in faults, logs and spans.
const (
	StageFlowVelocity = "flow_velocity"
	StageReynolds     = "reynolds"
	StageFriction     = "friction"
	StageColebrook    = "colebrook"
	StageCalibration  = "calibration"
	StageTheoretical  = "theoretical"
	StageUncertainty  = "uncertainty"
)

// Fixed factors of the correlations.
const (
	headScale     = 1e-2 // cm of head to m
	diameterScale = 1e-3 // mm to m
	areaScale     = 1e-6 // mm² to m²

	colebrookA   = 3.7
	colebrookExp = 0.25
	colebrookB   = 1.255

	theoScale = 1.737
	theoX     = 0.269
	theoReLog = 2.185
	theoReIn  = 14.5
)

// state is the value threaded through the stages of one run.
type state struct {
	table       *table.Table
	faults      []Fault
	calibration *Calibration
}

// stages returns the computation in dependency order.
func (c *Calculator) stages() []pipeline.Stage[state] {
	return []pipeline.Stage[state]{
		{
			Name:  StageFlowVelocity,
			Needs: []string{ColHdiff, ColTime, ColDiameter},
			Makes: []string{ColQ, ColVavg},
			Run:   c.flowVelocity,
		},
		{
			Name:  StageReynolds,
			Needs: []string{ColVavg, ColDiameter},
			Makes: []string{ColRe},
			Run:   c.reynolds,
		},
		{
			Name:  StageFriction,
			Needs: []string{ColPAvg, ColDiameter, ColVavg},
			Makes: []string{ColFexp},
			Run:   c.friction,
		},
		{
			Name:  StageColebrook,
			Needs: []string{ColRe, ColFexp},
			Makes: []string{ColX},
			Run:   c.colebrook,
		},
		{
			Name:    StageCalibration,
			Needs:   []string{ColX, ColDiameter},
			Makes:   []string{ColE},
			Updates: []string{ColX},
			Run:     c.calibrate,
		},
		{
			Name:  StageTheoretical,
			Needs: []string{ColRe, ColX},
			Makes: []string{ColFtheo},
			Run:   c.theoretical,
		},
		{
			Name:  StageUncertainty,
			Needs: []string{ColQ, ColDiameter, ColPMin, ColPMax, ColPAvg},
			Makes: []string{ColDQ, ColDRe, ColDFe},
			Run:   c.uncertainty,
		},
	}
}

// flowVelocity computes Q = A·(Hdiff·10⁻²)/t and Vavg = Q/((π/4)·D²·10⁻⁶).
func (c *Calculator) flowVelocity(_ context.Context, s state) (state, error) {
	area := c.params.TankArea
	q, err := s.derive(StageFlowVelocity, ColQ, []string{ColHdiff, ColTime}, func(in []float64) (float64, *cellFault) {
		hdiff, t := in[0], in[1]
		if t <= 0 {
			return 0, degenerate(t, "elapsed time t must be positive")
		}
		return area * (hdiff * headScale) / t, nil
	})
	if err != nil {
		return s, err
	}
	if s.table, err = s.table.With(q); err != nil {
		return s, err
	}

	v, err := s.derive(StageFlowVelocity, ColVavg, []string{ColQ, ColDiameter}, func(in []float64) (float64, *cellFault) {
		q, d := in[0], in[1]
		if d == 0 {
			return 0, degenerate(d, "diameter D is zero")
		}
		return q / ((math.Pi / 4) * d * d * areaScale), nil
	})
	if err != nil {
		return s, err
	}
	s.table, err = s.table.With(v)
	return s, err
}

// reynolds computes Re = ρ·Vavg·D·10⁻³/μ.
func (c *Calculator) reynolds(_ context.Context, s state) (state, error) {
	rho, mu := c.params.Density, c.params.Viscosity
	re, err := s.derive(StageReynolds, ColRe, []string{ColVavg, ColDiameter}, func(in []float64) (float64, *cellFault) {
		return rho * in[0] * in[1] * diameterScale / mu, nil
	})
	if err != nil {
		return s, err
	}
	s.table, err = s.table.With(re)
	return s, err
}

// friction computes Fexp = (P_avg·D·10⁻³)/(2·L·ρ·Vavg²).
func (c *Calculator) friction(_ context.Context, s state) (state, error) {
	l, rho := c.params.LengthConstant, c.params.Density
	f, err := s.derive(StageFriction, ColFexp, []string{ColPAvg, ColDiameter, ColVavg}, func(in []float64) (float64, *cellFault) {
		pavg, d, v := in[0], in[1], in[2]
		if v == 0 {
			return 0, degenerate(v, "velocity Vavg is zero")
		}
		fexp := (pavg * d * diameterScale) / (2 * l * rho * v * v)
		if fexp <= 0 {
			return 0, domain(fexp, "friction factor Fexp must be positive")
		}
		return fexp, nil
	})
	if err != nil {
		return s, err
	}
	s.table, err = s.table.With(f)
	return s, err
}

// colebrook computes X = 3.7·10^(−0.25/√Fexp) − 1.255/(Re·√Fexp).
func (c *Calculator) colebrook(_ context.Context, s state) (state, error) {
	x, err := s.derive(StageColebrook, ColX, []string{ColRe, ColFexp}, func(in []float64) (float64, *cellFault) {
		re, fexp := in[0], in[1]
		if re == 0 {
			return 0, degenerate(re, "Reynolds number Re is zero")
		}
		if fexp <= 0 {
			return 0, domain(fexp, "square root of non-positive Fexp")
		}
		root := math.Sqrt(fexp)
		return colebrookA*math.Pow(10, -colebrookExp/root) - colebrookB/(re*root), nil
	})
	if err != nil {
		return s, err
	}
	s.table, err = s.table.With(x)
	return s, err
}

// theoretical computes
// Ftheo = 1/(−1.737·ln(0.269X − (2.185/Re)·ln(0.269X + 14.5/Re)))².
func (c *Calculator) theoretical(_ context.Context, s state) (state, error) {
	f, err := s.derive(StageTheoretical, ColFtheo, []string{ColRe, ColX}, func(in []float64) (float64, *cellFault) {
		re, x := in[0], in[1]
		if re == 0 {
			return 0, degenerate(re, "Reynolds number Re is zero")
		}
		inner := theoX*x + theoReIn/re
		if inner <= 0 {
			return 0, domain(inner, "logarithm of non-positive 0.269X + 14.5/Re")
		}
		outer := theoX*x - (theoReLog/re)*math.Log(inner)
		if outer <= 0 {
			return 0, domain(outer, "logarithm of non-positive 0.269X - (2.185/Re)ln(0.269X + 14.5/Re)")
		}
		denom := -theoScale * math.Log(outer)
		if denom == 0 {
			return 0, degenerate(outer, "logarithm term is zero")
		}
		return 1 / (denom * denom), nil
	})
	if err != nil {
		return s, err
	}
	s.table, err = s.table.With(f)
	return s, err
}

// uncertainty propagates the least counts into dQ/Q, dRe/Re and dFe/Fe.
// The last two are percentages.
func (c *Calculator) uncertainty(_ context.Context, s state) (state, error) {
	p := c.params

	dq, err := s.derive(StageUncertainty, ColDQ, []string{ColQ}, func(in []float64) (float64, *cellFault) {
		q := in[0]
		if q == 0 {
			return 0, degenerate(q, "flow rate Q is zero")
		}
		return p.LeastCountQ / math.Abs(q), nil
	})
	if err != nil {
		return s, err
	}
	if s.table, err = s.table.With(dq); err != nil {
		return s, err
	}

	dre, err := s.derive(StageUncertainty, ColDRe, []string{ColDQ, ColDiameter}, func(in []float64) (float64, *cellFault) {
		dqq, d := in[0], in[1]
		if d == 0 {
			return 0, degenerate(d, "diameter D is zero")
		}
		return floats.Norm([]float64{dqq, p.LeastCountD / d}, 2) * 100, nil
	})
	if err != nil {
		return s, err
	}

	dfe, err := s.derive(StageUncertainty, ColDFe, []string{ColDQ, ColDiameter, ColPMin, ColPMax, ColPAvg}, func(in []float64) (float64, *cellFault) {
		dqq, d, pmin, pmax, pavg := in[0], in[1], in[2], in[3], in[4]
		if d == 0 {
			return 0, degenerate(d, "diameter D is zero")
		}
		if pavg == 0 {
			return 0, degenerate(pavg, "average pressure P_avg is zero")
		}
		terms := []float64{
			(pmax - pmin) * p.Gravity / pavg,
			p.LeastCountD / d,
			2 * dqq,
			p.LeastCountL / p.TapSpacing,
		}
		return floats.Norm(terms, 2) * 100, nil
	})
	if err != nil {
		return s, err
	}
	s.table, err = s.table.With(dre, dfe)
	return s, err
}

// Package flow computes the derived quantities of a pipe-flow experiment
// from a table of trial readings.
//
// A run appends, in dependency order:
//
//	Q      = A_tank·(Hdiff·10⁻²)/t
//	Vavg   = Q/((π/4)·D²·10⁻⁶)
//	Re     = ρ·Vavg·D·10⁻³/μ
//	Fexp   = (P_avg·D·10⁻³)/(2·L·ρ·Vavg²)
//	X      = 3.7·10^(−0.25/√Fexp) − 1.255/(Re·√Fexp)
//	E      = X·D·10⁻³, calibrated over the reference-diameter trials
//	Ftheo  = 1/(−1.737·ln(0.269X − (2.185/Re)·ln(0.269X + 14.5/Re)))²
//	dQ/Q, dRe/Re, dFe/Fe from the instrument least counts
//
// Calibration is the only cross-row step: E is averaged over the trials at
// the reference diameter and every other trial gets E := e_avg and
// X := e_avg/(D·10⁻³).
//
// A zero divisor or non-positive logarithm argument never becomes NaN or
// Inf in the output. The cell is left invalid, every cell computed from it
// is invalid too, and the run reports a Fault with the row, stage, column
// and offending value.
//
//	calc, err := flow.New(flow.Defaults(), flow.WithLogger(log))
//	res, err := calc.Run(ctx, trials)
//	if errors.Is(err, errors.ErrCodeRowFailures) {
//	    // res.Table is complete; res.Faults lists the invalid cells
//	}
package flow

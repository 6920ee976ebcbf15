package flow

// Input columns.
const (
	ColPMin     = "P_min"
	ColPMax     = "P_max"
	ColPAvg     = "P_avg"
	ColHi       = "Hi"
	ColHf       = "Hf"
	ColHdiff    = "Hdiff"
	ColTime     = "t"
	ColDiameter = "D"
)

// Derived columns, in the order they are appended.
const (
	ColQ     = "Q"
	ColVavg  = "Vavg"
	ColRe    = "Re"
	ColFexp  = "Fexp"
	ColX     = "X"
	ColE     = "E"
	ColFtheo = "Ftheo"
	ColDQ    = "dQ/Q"
	ColDRe   = "dRe/Re"
	ColDFe   = "dFe/Fe"
)

// InputColumns lists the columns every trial table must carry.
var InputColumns = []string{ColPMin, ColPMax, ColPAvg, ColHi, ColHf, ColHdiff, ColTime, ColDiameter}

// DerivedColumns lists the columns a run appends. E is added only when the
// calculator keeps intermediates.
var DerivedColumns = []string{ColQ, ColVavg, ColRe, ColFexp, ColX, ColFtheo, ColDQ, ColDRe, ColDFe}

// computedColumns is every column a run may write, E included.
var computedColumns = []string{ColQ, ColVavg, ColRe, ColFexp, ColX, ColE, ColFtheo, ColDQ, ColDRe, ColDFe}

package flow

import (
	"encoding/json"
	"math"
	"strconv"

	apperrors "github.com/kbukum/pipeflow/errors"
	"github.com/kbukum/pipeflow/table"
)

// Fault describes one cell that could not be computed. The cell and every
// cell derived from it are invalid in the output table.
type Fault struct {
	Row     int                 `json:"row"`
	Stage   string              `json:"stage"`
	Column  string              `json:"column"`
	Value   float64             `json:"value"`
	Code    apperrors.ErrorCode `json:"code"`
	Message string              `json:"message"`
}

// MarshalJSON writes non-finite offending values as strings.
func (f Fault) MarshalJSON() ([]byte, error) {
	type alias Fault
	var value any = f.Value
	if math.IsNaN(f.Value) || math.IsInf(f.Value, 0) {
		value = strconv.FormatFloat(f.Value, 'g', -1, 64)
	}
	return json.Marshal(struct {
		alias
		Value any `json:"value"`
	}{alias(f), value})
}

// cellFault is returned by a cell function that cannot produce a value.
type cellFault struct {
	code    apperrors.ErrorCode
	value   float64
	message string
}

func degenerate(value float64, message string) *cellFault {
	return &cellFault{code: apperrors.ErrCodeDegenerateInput, value: value, message: message}
}

func domain(value float64, message string) *cellFault {
	return &cellFault{code: apperrors.ErrCodeDomain, value: value, message: message}
}

// cellFunc computes one cell from the row's input values, given in the
// order the inputs were named.
type cellFunc func(in []float64) (float64, *cellFault)

// derive computes a column row by row. A row with any invalid input stays
// invalid without a new fault; a row whose cell function fails, or returns
// a non-finite value, stays invalid and is reported as a fault.
func (s *state) derive(stage, name string, inputs []string, fn cellFunc) (*table.Column, error) {
	cols := make([]*table.Column, len(inputs))
	for i, in := range inputs {
		c, ok := s.table.Column(in)
		if !ok {
			return nil, apperrors.MissingColumns(in)
		}
		cols[i] = c
	}

	out := table.NewEmptyColumn(name, s.table.Rows())
	vals := make([]float64, len(inputs))
	for row := 0; row < s.table.Rows(); row++ {
		if !gather(cols, row, vals) {
			continue
		}
		v, f := fn(vals)
		if f == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
			f = domain(v, "result is not finite")
		}
		if f != nil {
			s.fault(row, stage, name, f)
			continue
		}
		out.Set(row, v)
	}
	return out, nil
}

func gather(cols []*table.Column, row int, dst []float64) bool {
	for i, c := range cols {
		v, ok := c.At(row)
		if !ok {
			return false
		}
		dst[i] = v
	}
	return true
}

func (s *state) fault(row int, stage, column string, f *cellFault) {
	s.faults = append(s.faults, Fault{
		Row:     row,
		Stage:   stage,
		Column:  column,
		Value:   f.value,
		Code:    f.code,
		Message: f.message,
	})
}

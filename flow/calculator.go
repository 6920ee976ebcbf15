package flow

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/kbukum/pipeflow/errors"
	"github.com/kbukum/pipeflow/logger"
	"github.com/kbukum/pipeflow/observability"
	"github.com/kbukum/pipeflow/pipeline"
	"github.com/kbukum/pipeflow/table"
)

// Calculator runs the pipe-flow computation over trial tables. It is safe
// for concurrent use; every Run works on its own table values.
type Calculator struct {
	params           Params
	log              *logger.Logger
	metrics          *observability.Metrics
	keepIntermediate bool
	newRunID         func() string
	pipe             *pipeline.Pipeline[state]
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *logger.Logger) Option {
	return func(c *Calculator) { c.log = l }
}

// WithMetrics records stage durations, runs and faults.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Calculator) { c.metrics = m }
}

// WithKeepIntermediate keeps the calibration column E in the output table.
func WithKeepIntermediate(keep bool) Option {
	return func(c *Calculator) { c.keepIntermediate = keep }
}

// WithRunIDs replaces the run identifier generator.
func WithRunIDs(fn func() string) Option {
	return func(c *Calculator) { c.newRunID = fn }
}

// New validates params and builds a Calculator.
func New(params Params, opts ...Option) (*Calculator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	c := &Calculator{
		params:   params,
		log:      logger.Nop(),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithComponent("flow")

	pipe, err := pipeline.New(InputColumns, c.stages()...)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	mw := []pipeline.Middleware[state]{
		pipeline.WithTracing[state](observability.SpanStagePrefix),
		pipeline.WithLogging[state](c.log),
	}
	if c.metrics != nil {
		mw = append(mw, pipeline.WithMetrics[state](c.metrics))
	}
	c.pipe = pipe.Use(mw...)
	return c, nil
}

// Params returns the parameters the calculator was built with.
func (c *Calculator) Params() Params { return c.params }

// StageInfo describes one stage of the computation.
type StageInfo struct {
	Name    string   `json:"name"`
	Needs   []string `json:"needs"`
	Makes   []string `json:"makes"`
	Updates []string `json:"updates,omitempty"`
}

// Stages returns the stages in execution order with their columns.
func (c *Calculator) Stages() []StageInfo {
	stages := c.pipe.Stages()
	out := make([]StageInfo, len(stages))
	for i, s := range stages {
		out[i] = StageInfo{Name: s.Name, Needs: s.Needs, Makes: s.Makes, Updates: s.Updates}
	}
	return out
}

// Levels groups stage names by dependency depth.
func (c *Calculator) Levels() [][]string { return c.pipe.Levels() }

// Run computes the derived columns for every trial in in.
//
// Schema and calibration failures are fatal: Run returns a nil Result and
// an AppError with code SCHEMA_ERROR or CALIBRATION_ERROR. Row faults are
// not: Run returns the complete Result, with the faulting cells and the
// cells derived from them marked invalid, together with a ROW_FAILURES
// AppError whose "faults" detail lists every Fault.
func (c *Calculator) Run(ctx context.Context, in *table.Table) (*Result, error) {
	runID := c.newRunID()
	if oc := observability.OperationContextFromContext(ctx); oc != nil {
		oc.RunID = runID
	}
	ctx = logger.ContextWithRunID(ctx, runID)
	ctx, span := observability.StartSpan(ctx, observability.SpanRun)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrRunID, runID)

	log := c.log.WithContext(ctx)
	start := time.Now()

	if err := checkSchema(in); err != nil {
		return nil, c.fail(ctx, log, "schema", err)
	}
	observability.SetSpanAttribute(ctx, observability.AttrRows, in.Rows())

	src := in.Drop(computedColumns...)
	if src.NumCols() != in.NumCols() {
		log.Debug("replacing derived columns present in input", logger.Fields(logger.FieldRows, in.Rows()))
	}

	out, reports, err := c.pipe.Run(ctx, state{table: src})
	if err != nil {
		return nil, c.fail(ctx, log, "stage", c.stageError(ctx, err))
	}

	t := out.table
	if !c.keepIntermediate {
		t = t.Drop(ColE)
	}
	res := &Result{
		RunID:       runID,
		Table:       t,
		Faults:      out.faults,
		Calibration: *out.calibration,
		Stages:      reports,
	}

	fields := logger.Fields(
		logger.FieldRows, t.Rows(),
		logger.FieldFaults, len(res.Faults),
		logger.FieldDuration, time.Since(start).Milliseconds(),
		"e_avg", res.Calibration.EAvg,
		"reference_rows", len(res.Calibration.ReferenceRows),
	)
	observability.SetSpanAttribute(ctx, observability.AttrFaults, len(res.Faults))

	if len(res.Faults) == 0 {
		c.record(ctx, "ok", t.Rows())
		log.Debug("run completed", fields)
		return res, nil
	}

	for _, f := range res.Faults {
		log.Warn(f.Message, logger.Fields(
			logger.FieldRow, f.Row,
			logger.FieldStage, f.Stage,
			logger.FieldColumn, f.Column,
			logger.FieldCode, string(f.Code),
			logger.FieldValue, f.Value,
		))
		if c.metrics != nil {
			c.metrics.RecordFaults(ctx, f.Stage, string(f.Code), 1)
		}
	}
	c.record(ctx, "faulted", t.Rows())
	log.Info("run completed with row faults", fields)

	err = apperrors.RowFailures(len(res.FaultedRows()), len(res.Faults)).WithDetail("faults", res.Faults)
	observability.SetSpanError(ctx, err)
	return res, err
}

// stageError maps a pipeline failure to an AppError.
func (c *Calculator) stageError(ctx context.Context, err error) *apperrors.AppError {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}
	var se *pipeline.StageError
	if errors.As(err, &se) && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return apperrors.Canceled(se.Stage, ctx.Err())
	}
	return apperrors.Internal(err)
}

func (c *Calculator) fail(ctx context.Context, log *logger.Logger, kind string, err error) error {
	observability.SetSpanError(ctx, err)
	c.record(ctx, "failed", 0)
	if c.metrics != nil {
		c.metrics.RecordError(ctx, kind, "flow")
	}
	log.Error("run failed", logger.MergeWithError(nil, err))
	return err
}

func (c *Calculator) record(ctx context.Context, status string, rows int) {
	if c.metrics != nil {
		c.metrics.RecordRun(ctx, status, rows)
	}
}

// checkSchema verifies that every input column is present and that each of
// its cells holds a finite number.
func checkSchema(t *table.Table) error {
	if t == nil {
		return apperrors.Schema("no table")
	}
	if missing := t.Missing(InputColumns...); len(missing) > 0 {
		return apperrors.MissingColumns(missing...)
	}
	for _, name := range InputColumns {
		col, _ := t.Column(name)
		for row := 0; row < t.Rows(); row++ {
			v, ok := col.At(row)
			if !ok {
				return apperrors.Schema(fmt.Sprintf("column %s row %d is empty", name, row)).
					WithDetails(map[string]any{"column": name, "row": row})
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return apperrors.NonFinite(name, row, v)
			}
		}
	}
	return nil
}

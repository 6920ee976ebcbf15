package pipeline

import (
	"context"
	"fmt"
	"time"
)

// Stage is one step of a staged computation. It reads the columns named in
// Needs, adds the columns named in Makes and rewrites the existing columns
// named in Updates.
type Stage[T any] struct {
	// Name identifies the stage in logs, spans, errors and fault reports.
	Name string
	// Needs lists the columns the stage reads.
	Needs []string
	// Makes lists the columns the stage adds.
	Makes []string
	// Updates lists existing columns the stage replaces with new values.
	Updates []string
	// Run transforms the input into a new value. It must not modify in.
	Run func(ctx context.Context, in T) (T, error)
}

// Middleware decorates a stage, typically to observe its execution.
type Middleware[T any] func(Stage[T]) Stage[T]

// StageError reports which stage stopped a run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline: stage %q: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// StageReport records the execution of one stage.
type StageReport struct {
	Name     string
	Duration time.Duration
}

// Pipeline runs stages strictly in order, each total over its input before
// the next begins. The order is verified once, when the pipeline is built.
type Pipeline[T any] struct {
	source []string
	stages []Stage[T]
	levels [][]string
}

// New builds a pipeline over a source with the given columns. It fails when
// a stage needs or updates a column that neither the source nor an earlier
// stage provides, when two producers make the same column, or when stage
// names are missing or repeated.
func New[T any](source []string, stages ...Stage[T]) (*Pipeline[T], error) {
	if err := checkOrder(source, stages); err != nil {
		return nil, err
	}
	levels, err := buildLevels(source, stages)
	if err != nil {
		return nil, err
	}
	s := make([]Stage[T], len(stages))
	copy(s, stages)
	src := make([]string, len(source))
	copy(src, source)
	return &Pipeline[T]{source: src, stages: s, levels: levels}, nil
}

// Use wraps every stage with the given middleware. The first middleware is
// the outermost.
func (p *Pipeline[T]) Use(mw ...Middleware[T]) *Pipeline[T] {
	for i := range p.stages {
		for j := len(mw) - 1; j >= 0; j-- {
			p.stages[i] = mw[j](p.stages[i])
		}
	}
	return p
}

// Source returns the columns the pipeline expects from its input.
func (p *Pipeline[T]) Source() []string {
	out := make([]string, len(p.source))
	copy(out, p.source)
	return out
}

// Stages returns the stages in execution order.
func (p *Pipeline[T]) Stages() []Stage[T] {
	out := make([]Stage[T], len(p.stages))
	copy(out, p.stages)
	return out
}

// Levels groups the stage names by dependency depth. Stages in the same
// level depend only on the source and earlier levels.
func (p *Pipeline[T]) Levels() [][]string {
	out := make([][]string, len(p.levels))
	for i, l := range p.levels {
		out[i] = append([]string(nil), l...)
	}
	return out
}

// Run executes every stage in order. The context is checked before each
// stage; a canceled run returns the last completed value together with a
// StageError naming the stage that did not start.
func (p *Pipeline[T]) Run(ctx context.Context, in T) (T, []StageReport, error) {
	cur := in
	reports := make([]StageReport, 0, len(p.stages))
	for _, s := range p.stages {
		if err := ctx.Err(); err != nil {
			return cur, reports, &StageError{Stage: s.Name, Err: err}
		}
		start := time.Now()
		next, err := s.Run(ctx, cur)
		if err != nil {
			return cur, reports, &StageError{Stage: s.Name, Err: err}
		}
		reports = append(reports, StageReport{Name: s.Name, Duration: time.Since(start)})
		cur = next
	}
	return cur, reports, nil
}

func checkOrder[T any](source []string, stages []Stage[T]) error {
	available := make(map[string]string, len(source))
	for _, c := range source {
		available[c] = "source"
	}
	names := make(map[string]bool, len(stages))
	for i, s := range stages {
		if s.Name == "" {
			return fmt.Errorf("pipeline: stage %d has no name", i)
		}
		if names[s.Name] {
			return fmt.Errorf("pipeline: duplicate stage %q", s.Name)
		}
		names[s.Name] = true
		if s.Run == nil {
			return fmt.Errorf("pipeline: stage %q has no run function", s.Name)
		}
		for _, need := range s.Needs {
			if _, ok := available[need]; !ok {
				return fmt.Errorf("pipeline: stage %q needs column %q, which no earlier stage makes", s.Name, need)
			}
		}
		for _, col := range s.Updates {
			if _, ok := available[col]; !ok {
				return fmt.Errorf("pipeline: stage %q updates column %q, which no earlier stage makes", s.Name, col)
			}
		}
		for _, col := range s.Makes {
			if by, ok := available[col]; ok {
				return fmt.Errorf("pipeline: stage %q makes column %q, already made by %s", s.Name, col, by)
			}
			available[col] = "stage " + s.Name
		}
	}
	return nil
}

package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/pipeflow/logger"
	"github.com/kbukum/pipeflow/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// --- test helpers ---

// trace is the value threaded through test pipelines: the stage names in
// the order they ran.
type trace []string

func step(name string, needs, makes []string) Stage[trace] {
	return Stage[trace]{
		Name:  name,
		Needs: needs,
		Makes: makes,
		Run: func(_ context.Context, in trace) (trace, error) {
			out := append(trace(nil), in...)
			return append(out, name), nil
		},
	}
}

func cols(names ...string) []string { return names }

// --- construction ---

func TestNewValidatesOrder(t *testing.T) {
	tests := []struct {
		name    string
		stages  []Stage[trace]
		wantErr string
	}{
		{
			name:   "valid chain",
			stages: []Stage[trace]{step("a", cols("x"), cols("y")), step("b", cols("y"), cols("z"))},
		},
		{
			name:    "need from later stage",
			stages:  []Stage[trace]{step("b", cols("y"), cols("z")), step("a", cols("x"), cols("y"))},
			wantErr: `needs column "y"`,
		},
		{
			name:    "unknown column",
			stages:  []Stage[trace]{step("a", cols("nope"), nil)},
			wantErr: `needs column "nope"`,
		},
		{
			name:    "two producers",
			stages:  []Stage[trace]{step("a", cols("x"), cols("y")), step("b", cols("x"), cols("y"))},
			wantErr: `already made by stage a`,
		},
		{
			name:    "makes source column",
			stages:  []Stage[trace]{step("a", nil, cols("x"))},
			wantErr: `already made by source`,
		},
		{
			name:    "duplicate name",
			stages:  []Stage[trace]{step("a", nil, cols("y")), step("a", nil, cols("z"))},
			wantErr: `duplicate stage "a"`,
		},
		{
			name:    "unnamed",
			stages:  []Stage[trace]{step("", nil, nil)},
			wantErr: "has no name",
		},
		{
			name:    "no run",
			stages:  []Stage[trace]{{Name: "a"}},
			wantErr: "no run function",
		},
		{
			name: "update of unknown column",
			stages: []Stage[trace]{{Name: "a", Updates: cols("q"), Run: func(_ context.Context, in trace) (trace, error) {
				return in, nil
			}}},
			wantErr: `updates column "q"`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(cols("x"), tc.stages...)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLevels(t *testing.T) {
	calibrate := step("calibrate", cols("X", "D"), cols("E"))
	calibrate.Updates = cols("X")

	p, err := New(cols("Hdiff", "t", "D", "P_avg"),
		step("flow", cols("Hdiff", "t", "D"), cols("Q", "Vavg")),
		step("reynolds", cols("Vavg", "D"), cols("Re")),
		step("friction", cols("P_avg", "D", "Vavg"), cols("Fexp")),
		step("colebrook", cols("Re", "Fexp"), cols("X")),
		calibrate,
		step("theoretical", cols("Re", "X"), cols("Ftheo")),
		step("uncertainty", cols("Q", "D", "P_avg"), cols("dQ/Q")),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	want := [][]string{
		{"flow"},
		{"reynolds", "friction", "uncertainty"},
		{"colebrook"},
		{"calibrate"},
		{"theoretical"},
	}
	if got := p.Levels(); !reflect.DeepEqual(got, want) {
		t.Errorf("levels:\n got %v\nwant %v", got, want)
	}
	if got := p.Source(); len(got) != 4 {
		t.Errorf("unexpected source %v", got)
	}
}

// --- execution ---

func TestRunInOrder(t *testing.T) {
	p, err := New(cols("x"),
		step("a", cols("x"), cols("y")),
		step("b", cols("y"), cols("z")),
		step("c", cols("x", "z"), nil),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	out, reports, err := p.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(out, trace{"a", "b", "c"}) {
		t.Errorf("unexpected order %v", out)
	}
	if len(reports) != 3 || reports[2].Name != "c" {
		t.Errorf("unexpected reports %+v", reports)
	}
}

func TestRunStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	failing := Stage[trace]{Name: "b", Run: func(context.Context, trace) (trace, error) { return nil, boom }}

	p, _ := New(nil, step("a", nil, nil), failing, step("c", nil, nil))
	out, reports, err := p.Run(context.Background(), nil)

	var se *StageError
	if !errors.As(err, &se) || se.Stage != "b" {
		t.Fatalf("expected StageError for b, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Error("expected wrapped cause")
	}
	if !reflect.DeepEqual(out, trace{"a"}) || len(reports) != 1 {
		t.Errorf("expected last completed value, got %v %v", out, reports)
	}
}

func TestRunChecksContextBetweenStages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancelling := Stage[trace]{Name: "a", Run: func(_ context.Context, in trace) (trace, error) {
		cancel()
		return append(in, "a"), nil
	}}

	p, _ := New(nil, cancelling, step("b", nil, nil))
	out, _, err := p.Run(ctx, nil)

	var se *StageError
	if !errors.As(err, &se) || se.Stage != "b" {
		t.Fatalf("expected cancellation before b, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if !reflect.DeepEqual(out, trace{"a"}) {
		t.Errorf("expected output of a, got %v", out)
	}
}

// --- middleware ---

func TestUseOrder(t *testing.T) {
	var calls []string
	tag := func(label string) Middleware[trace] {
		return func(s Stage[trace]) Stage[trace] {
			inner := s.Run
			s.Run = func(ctx context.Context, in trace) (trace, error) {
				calls = append(calls, label)
				return inner(ctx, in)
			}
			return s
		}
	}

	p, _ := New(nil, step("a", nil, nil))
	p.Use(tag("outer"), tag("inner"))
	if _, _, err := p.Run(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(calls, []string{"outer", "inner"}) {
		t.Errorf("unexpected middleware order %v", calls)
	}
	if got := p.Stages()[0].Name; got != "a" {
		t.Errorf("middleware must keep the stage name, got %q", got)
	}
}

func TestWithTracing(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	failing := Stage[trace]{Name: "b", Run: func(context.Context, trace) (trace, error) { return nil, errors.New("x") }}
	p, _ := New(nil, step("a", nil, nil), failing)
	p.Use(WithTracing[trace](observability.SpanStagePrefix))
	_, _, _ = p.Run(context.Background(), nil)

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name() != "pipeflow.stage.a" || spans[1].Name() != "pipeflow.stage.b" {
		t.Errorf("unexpected span names %q %q", spans[0].Name(), spans[1].Name())
	}
	if len(spans[1].Events()) == 0 {
		t.Error("expected error event on failing stage span")
	}
}

func TestWithLogging(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, &logger.Config{Level: "debug", Format: "json"}, "pipeflow")

	p, _ := New(nil, step("a", nil, nil))
	p.Use(WithLogging[trace](log))
	ctx := logger.ContextWithRunID(context.Background(), "run-7")
	if _, _, err := p.Run(ctx, nil); err != nil {
		t.Fatal(err)
	}

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected one JSON log line, got %q: %v", buf.String(), err)
	}
	if entry[logger.FieldStage] != "a" || entry[logger.FieldRunID] != "run-7" {
		t.Errorf("unexpected log entry %v", entry)
	}
	if entry["level"] != "debug" {
		t.Errorf("expected debug level, got %v", entry["level"])
	}
}

func TestWithMetrics(t *testing.T) {
	m, err := observability.NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatal(err)
	}
	slow := Stage[trace]{Name: "a", Run: func(_ context.Context, in trace) (trace, error) {
		time.Sleep(time.Millisecond)
		return in, nil
	}}
	p, _ := New(nil, slow)
	p.Use(WithMetrics[trace](m))
	if _, reports, err := p.Run(context.Background(), nil); err != nil || reports[0].Duration < time.Millisecond {
		t.Errorf("unexpected run result %v %v", reports, err)
	}
}

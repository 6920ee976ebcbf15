package endpoint

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/pipeflow/errors"
	"github.com/kbukum/pipeflow/flow"
	"github.com/kbukum/pipeflow/logger"
	"github.com/kbukum/pipeflow/observability"
	"github.com/kbukum/pipeflow/server/middleware"
	"github.com/kbukum/pipeflow/table"
	"github.com/kbukum/pipeflow/validation"
)

// Response headers set by Compute.
const (
	HeaderRunID  = "X-Run-Id"
	HeaderFaults = "X-Row-Faults"
)

const mimeCSV = "text/csv"

// ComputeConfig configures the compute handler.
type ComputeConfig struct {
	Service string
	// MaxRows rejects larger tables. Zero means no limit.
	MaxRows int
	Metrics *observability.Metrics
	Log     *logger.Logger
}

// ComputeResult is the JSON body of a compute response.
type ComputeResult struct {
	Columns     []string               `json:"columns"`
	Rows        []map[string]*float64  `json:"rows"`
	Faults      []flow.Fault           `json:"faults"`
	Calibration flow.Calibration       `json:"calibration"`
	Summary     []flow.DiameterSummary `json:"summary"`
	Stages      []StageTiming          `json:"stages"`
}

// StageTiming is the wall time of one stage of the run.
type StageTiming struct {
	Name       string `json:"name"`
	DurationUs int64  `json:"duration_us"`
}

// Compute returns a handler that reads a CSV trial table from the request
// body, runs the calculator and answers with the computed table.
//
// The response is CSV when the client accepts text/csv or asks for
// ?format=csv, JSON otherwise. Row faults do not fail the request: the
// table is returned with empty cells and the faults are listed in the JSON
// body or counted in the X-Row-Faults header. ?delimiter= selects the CSV
// field separator for both directions.
func Compute(calc *flow.Calculator, cfg ComputeConfig) gin.HandlerFunc {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithComponent("compute")

	return func(c *gin.Context) {
		requestID := c.GetHeader(middleware.HeaderRequestID)
		oc := observability.NewOperationContext(cfg.Service, "compute", requestID, cfg.Metrics)
		ctx := observability.WithOperationContext(c.Request.Context(), oc)
		ctx, span := oc.StartSpanForOperation(ctx, observability.SpanHTTPRequest)

		status := "ok"
		var opErr error
		defer func() { oc.EndOperation(ctx, span, status, opErr) }()

		fail := func(err error) {
			status, opErr = "error", err
			RespondWithError(c, err)
		}

		q, err := parseQuery(c)
		if err != nil {
			fail(err)
			return
		}
		in, err := table.ReadCSV(c.Request.Body, q.csvOpts...)
		if err != nil {
			fail(readError(err))
			return
		}
		if cfg.MaxRows > 0 && in.Rows() > cfg.MaxRows {
			fail(apperrors.InvalidInput("body", fmt.Sprintf("table has %d rows, the limit is %d", in.Rows(), cfg.MaxRows)))
			return
		}

		res, err := calc.Run(ctx, in)
		if res == nil {
			fail(err)
			return
		}
		if !res.Valid() {
			status = "faulted"
		}
		log.WithContext(ctx).Debug("compute finished", logger.Fields(
			logger.FieldRunID, res.RunID,
			logger.FieldRows, res.Table.Rows(),
			logger.FieldFaults, len(res.Faults),
		))

		c.Header(HeaderRunID, res.RunID)
		c.Header(HeaderFaults, strconv.Itoa(len(res.Faults)))

		if q.wantsCSV(c) {
			c.Header("Content-Type", mimeCSV+"; charset=utf-8")
			c.Status(http.StatusOK)
			if err := table.WriteCSV(c.Writer, res.Table, q.csvOpts...); err != nil {
				log.WithContext(ctx).Error("writing csv response", logger.MergeWithError(nil, err))
			}
			return
		}

		summary, err := flow.Summarize(res.Table)
		if err != nil {
			fail(err)
			return
		}
		RespondOKWithMeta(c, newComputeResult(res, summary), &Meta{
			RunID:     res.RunID,
			RequestID: requestID,
			Rows:      res.Table.Rows(),
			Faults:    len(res.Faults),
		})
	}
}

func newComputeResult(res *flow.Result, summary []flow.DiameterSummary) ComputeResult {
	out := ComputeResult{
		Columns:     res.Table.Names(),
		Rows:        res.Table.Records(),
		Faults:      res.Faults,
		Calibration: res.Calibration,
		Summary:     summary,
	}
	if out.Faults == nil {
		out.Faults = []flow.Fault{}
	}
	for _, s := range res.Stages {
		out.Stages = append(out.Stages, StageTiming{Name: s.Name, DurationUs: s.Duration.Microseconds()})
	}
	return out
}

// computeQuery holds the query parameters of a compute request.
type computeQuery struct {
	format  string
	csvOpts []table.CSVOption
}

func parseQuery(c *gin.Context) (computeQuery, error) {
	q := computeQuery{format: strings.ToLower(c.Query("format"))}
	v := validation.New().OneOf("format", q.format, []string{"json", "csv"})

	if d := c.Query("delimiter"); d != "" {
		if d == `\t` || d == "tab" {
			d = "\t"
		}
		r, size := utf8.DecodeRuneInString(d)
		ok := size == len(d) && r != utf8.RuneError && r != '"' && r != '\n' && r != '\r'
		v.Custom(ok, "delimiter", fmt.Sprintf("must be a single character (got %q)", d))
		if ok {
			q.csvOpts = []table.CSVOption{table.WithComma(r)}
		}
	}
	if appErr := v.Validate(); appErr != nil {
		return q, appErr
	}
	return q, nil
}

func (q computeQuery) wantsCSV(c *gin.Context) bool {
	switch q.format {
	case "csv":
		return true
	case "json":
		return false
	}
	return strings.Contains(c.GetHeader("Accept"), mimeCSV)
}

func readError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperrors.New(apperrors.ErrCodeInvalidInput,
			fmt.Sprintf("Request body exceeds %d bytes", maxErr.Limit), http.StatusRequestEntityTooLarge)
	}
	return apperrors.Schema(err.Error()).WithCause(err)
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/kbukum/pipeflow/errors"
	"github.com/kbukum/pipeflow/flow"
	"github.com/kbukum/pipeflow/logger"
	"github.com/kbukum/pipeflow/table"
)

type computeOpts struct {
	output  string
	report  string
	summary bool
	strict  bool
	keepE   bool
}

func newComputeCommand(a *app) *cobra.Command {
	opts := computeOpts{}
	cmd := &cobra.Command{
		Use:   "compute [input.csv ...]",
		Short: "Compute the derived columns of one or more trial tables",
		Long: `Reads the trial tables (standard input when none or "-" is given), joins
them in order and writes the computed table as CSV. Cells that could not be
computed are left empty and listed in the fault report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("keep-intermediate") {
				a.cfg.Output.KeepIntermediate = opts.keepE
			}
			return a.runCompute(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the computed table to this file instead of standard output")
	cmd.Flags().StringVar(&opts.report, "report", "", "write faults and calibration as JSON to this file")
	cmd.Flags().BoolVar(&opts.summary, "summary", false, "print per-diameter means to standard error")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "exit with status 3 when any row faults")
	cmd.Flags().BoolVar(&opts.keepE, "keep-intermediate", false, "include the calibration column E (overrides output.keep_intermediate)")
	return cmd
}

// faultReport is the JSON written by --report.
type faultReport struct {
	RunID       string           `json:"run_id"`
	Rows        int              `json:"rows"`
	Faults      []flow.Fault     `json:"faults"`
	Calibration flow.Calibration `json:"calibration"`
}

func (a *app) runCompute(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string, opts computeOpts) error {
	in, err := a.readInputs(stdin, args)
	if err != nil {
		return err
	}
	calc, err := a.calculator()
	if err != nil {
		return err
	}

	start := time.Now()
	res, runErr := calc.Run(ctx, in)
	if res == nil {
		return runErr
	}
	a.log.Info("compute finished", logger.MergeWithDuration(logger.Fields(
		logger.FieldRunID, res.RunID,
		logger.FieldRows, res.Table.Rows(),
		logger.FieldFaults, len(res.Faults),
	), time.Since(start)))

	if opts.output != "" {
		err = table.WriteCSVFile(opts.output, res.Table, a.cfg.CSVOptions()...)
	} else {
		err = table.WriteCSV(stdout, res.Table, a.cfg.CSVOptions()...)
	}
	if err != nil {
		return err
	}

	if opts.report != "" {
		if err := writeReport(opts.report, res); err != nil {
			return err
		}
	}
	if opts.summary {
		if err := printSummary(stderr, res.Table); err != nil {
			return err
		}
	}
	if !res.Valid() {
		fmt.Fprintf(stderr, "%d fault(s) in %d row(s)\n", len(res.Faults), len(res.FaultedRows()))
		if opts.strict {
			return runErr
		}
	}
	return nil
}

// readInputs reads and concatenates the trial tables named by args.
func (a *app) readInputs(stdin io.Reader, args []string) (*table.Table, error) {
	if len(args) == 0 {
		args = []string{"-"}
	}
	tables := make([]*table.Table, 0, len(args))
	for _, path := range args {
		var (
			t   *table.Table
			err error
		)
		if path == "-" {
			t, err = table.ReadCSV(stdin, a.cfg.CSVOptions()...)
		} else {
			t, err = table.ReadCSVFile(path, a.cfg.CSVOptions()...)
		}
		if err != nil {
			return nil, apperrors.Schema(err.Error()).WithCause(err)
		}
		a.log.Debug("table loaded", logger.Fields(logger.FieldFile, path, logger.FieldRows, t.Rows()))
		tables = append(tables, t)
	}
	if len(tables) == 1 {
		return tables[0], nil
	}
	t, err := table.Concat(tables...)
	if err != nil {
		return nil, apperrors.Schema(err.Error()).WithCause(err)
	}
	return t, nil
}

func writeReport(path string, res *flow.Result) error {
	rep := faultReport{
		RunID:       res.RunID,
		Rows:        res.Table.Rows(),
		Faults:      res.Faults,
		Calibration: res.Calibration,
	}
	if rep.Faults == nil {
		rep.Faults = []flow.Fault{}
	}
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func printSummary(w io.Writer, t *table.Table) error {
	sums, err := flow.Summarize(t)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "D\ttrials\tvalid\tmean Re\tmean Fexp\tmean Ftheo\tmean dFe/Fe %")
	for _, s := range sums {
		fmt.Fprintf(tw, "%g\t%d\t%d\t%.1f\t%.4g\t%.4g\t%.3g\n",
			s.Diameter, s.Trials, s.ValidTrials, s.MeanRe, s.MeanFexp, s.MeanFtheo, s.MeanDFe)
	}
	return tw.Flush()
}

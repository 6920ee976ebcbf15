package main

import (
	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"

	"github.com/kbukum/pipeflow/chart"
	"github.com/kbukum/pipeflow/logger"
	"github.com/kbukum/pipeflow/validation"
)

type plotOpts struct {
	output string
	title  string
	width  float64
	height float64
}

func newPlotCommand(a *app) *cobra.Command {
	opts := plotOpts{}
	cmd := &cobra.Command{
		Use:   "plot [input.csv ...]",
		Short: "Draw Fexp and Ftheo against Re on log axes",
		Long: `Computes the trial tables like compute does and draws the friction-factor
chart. The image format follows the extension of --output.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := validation.New().Positive("width", opts.width).Positive("height", opts.height)
			if appErr := v.Validate(); appErr != nil {
				return appErr
			}
			in, err := a.readInputs(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			calc, err := a.calculator()
			if err != nil {
				return err
			}
			res, err := calc.Run(cmd.Context(), in)
			if res == nil {
				return err
			}

			chartOpts := chart.Options{
				Title:  opts.title,
				Width:  vg.Length(opts.width) * vg.Inch,
				Height: vg.Length(opts.height) * vg.Inch,
			}
			p, err := chart.FrictionChart(res.Table, chartOpts)
			if err != nil {
				return err
			}
			if err := chart.Save(opts.output, p, chartOpts); err != nil {
				return err
			}
			a.log.Info("chart written", logger.Fields(logger.FieldFile, opts.output, logger.FieldFaults, len(res.Faults)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "friction.png", "image file (.png, .svg, .pdf, .eps, .jpg, .tif)")
	cmd.Flags().StringVar(&opts.title, "title", "", "chart title")
	cmd.Flags().Float64Var(&opts.width, "width", 6, "width in inches")
	cmd.Flags().Float64Var(&opts.height, "height", 4, "height in inches")
	return cmd
}

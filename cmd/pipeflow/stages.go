package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newStagesCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stages",
		Short: "Show the computation stages, their columns and the physical parameters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			calc, err := a.calculator()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"stages": calc.Stages(),
					"levels": calc.Levels(),
					"params": calc.Params(),
				})
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STAGE\tNEEDS\tMAKES\tUPDATES")
			for _, s := range calc.Stages() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Name,
					strings.Join(s.Needs, " "), strings.Join(s.Makes, " "), strings.Join(s.Updates, " "))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			for i, level := range calc.Levels() {
				fmt.Fprintf(out, "level %d: %s\n", i, strings.Join(level, ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

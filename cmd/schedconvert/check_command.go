package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"schedconvert/internal/preflight"
	"schedconvert/internal/services"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the image directory, worker program, and state paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report := preflight.Run(cmd.Context(), cfg)
			out := cmd.OutOrStdout()
			if ctx.configPath != "" {
				fmt.Fprintf(out, "Config: %s\n", ctx.configPath)
			}
			writeCheckResults(out, report)
			if !report.OK() {
				return services.Wrap(services.ErrFilesystem, "preflight", "check",
					fmt.Sprintf("%d required checks failed", len(report.Failed())), nil)
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
}

func writeCheckResults(out io.Writer, report preflight.Report) {
	color := isTerminal(out)
	rows := make([][]string, 0, len(report.Results))
	for _, r := range report.Results {
		label, c := "OK", ansiGreen
		switch {
		case !r.Passed && r.Optional:
			label, c = "WARN", ansiYellow
		case !r.Passed:
			label, c = "FAIL", ansiRed
		}
		rows = append(rows, []string{r.Name, colorize(label, c, color), r.Detail})
	}
	writeRows(out, []string{"Check", "Status", "Detail"}, rows, nil)
}

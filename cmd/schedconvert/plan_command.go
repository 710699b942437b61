package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"schedconvert/internal/dispatch"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var showCommands bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show how the image directory would be split without launching workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			launcher, err := newLauncher(cfg)
			if err != nil {
				return err
			}
			preview, err := dispatch.Plan(cfg, launcher)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, preview)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d images in %s, %d batches (%s)\n",
				preview.NumImages, preview.Directory, len(preview.Batches), preview.Partition)

			headers := []string{"Batch", "Range", "Images", "Size", "First", "Last"}
			if showCommands {
				headers = append(headers, "Command")
			}
			rows := make([][]string, 0, len(preview.Batches))
			for _, b := range preview.Batches {
				row := []string{
					strconv.Itoa(b.Batch.Index),
					fmt.Sprintf("[%d, %d)", b.Batch.Start, b.Batch.End),
					strconv.Itoa(b.Images),
					humanBytes(b.Bytes),
					dash(b.First),
					dash(b.Last),
				}
				if showCommands {
					row = append(row, strings.Join(b.Command, " "))
				}
				rows = append(rows, row)
			}
			writeRows(out, headers, rows, []columnAlignment{alignRight, alignLeft, alignRight, alignRight})
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the plan as JSON")
	cmd.Flags().BoolVar(&showCommands, "commands", false, "Include the worker command line for each batch")
	return cmd
}

func dash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

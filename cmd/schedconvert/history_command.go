package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"schedconvert/internal/ledger"
	"schedconvert/internal/services"
)

type runView struct {
	Run     ledger.Run           `json:"run"`
	Batches []ledger.BatchRecord `json:"batches,omitempty"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded dispatch runs, or show one run's batches",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openLedger()
			if err != nil {
				return err
			}
			if store == nil {
				return services.Wrap(services.ErrConfiguration, "history", "open ledger",
					"run ledger is disabled; set ledger.enabled = true", nil)
			}
			defer store.Close()

			if len(args) == 1 {
				return showRun(cmd, store, args[0], asJSON)
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, []string{
					r.ID,
					formatTime(r.StartedAt),
					r.Directory,
					strconv.Itoa(r.NumImages),
					strconv.Itoa(r.BatchCount),
					yesNo(r.Waited),
					runOutcome(r),
				})
			}
			writeRows(out, []string{"Run", "Started", "Directory", "Images", "Batches", "Waited", "Result"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight})
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of runs to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func showRun(cmd *cobra.Command, store *ledger.Store, id string, asJSON bool) error {
	run, batches, err := store.GetRun(context.WithoutCancel(cmd.Context()), id)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found", id)
	}
	if asJSON {
		return writeJSON(cmd, runView{Run: *run, Batches: batches})
	}
	out := cmd.OutOrStdout()
	writeRunHeader(out, run)
	rows := make([][]string, 0, len(batches))
	for _, b := range batches {
		pid, exit := "-", "-"
		if b.PID > 0 {
			pid = strconv.Itoa(b.PID)
		}
		if b.ExitCode != nil {
			exit = strconv.Itoa(*b.ExitCode)
		}
		rows = append(rows, []string{
			strconv.Itoa(b.Index),
			fmt.Sprintf("[%d, %d)", b.Start, b.End),
			pid,
			string(b.Status),
			exit,
			b.Error,
		})
	}
	writeRows(out, []string{"Batch", "Range", "PID", "Status", "Exit", "Error"}, rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignRight})
	return nil
}

func writeRunHeader(out io.Writer, run *ledger.Run) {
	fmt.Fprintf(out, "Run:       %s\n", run.ID)
	fmt.Fprintf(out, "Directory: %s\n", run.Directory)
	fmt.Fprintf(out, "Worker:    %s\n", run.Worker)
	fmt.Fprintf(out, "Images:    %d in %d batches (%s)\n", run.NumImages, run.BatchCount, run.Partition)
	fmt.Fprintf(out, "Started:   %s\n", formatTime(run.StartedAt))
	if run.FinishedAt != nil {
		fmt.Fprintf(out, "Finished:  %s\n", formatTime(*run.FinishedAt))
	}
	if run.Error != "" {
		fmt.Fprintf(out, "Error:     %s\n", run.Error)
	}
}

func runOutcome(r ledger.Run) string {
	switch {
	case r.Error != "":
		return "errors"
	case r.FinishedAt == nil:
		return "incomplete"
	default:
		return "ok"
	}
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04:05")
}

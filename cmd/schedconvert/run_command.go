package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"schedconvert/internal/dispatch"
	"schedconvert/internal/logging"
	"schedconvert/internal/preflight"
	"schedconvert/internal/services"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var wait bool
	var runPreflight bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Partition the image directory and launch one worker per batch",
		Long: `Lists the regular files of the image directory, splits them into
contiguous batches, creates converted/ and one temp<N>/ per batch, and launches
the worker as "<worker> <batch> <start> <end> <directory>" for every batch.

Workers run in their own session and keep running after schedconvert exits
unless --wait is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if wait {
				cfg.Dispatch.Wait = true
			}
			if err := cfg.RequireDirectory(); err != nil {
				return err
			}

			if runPreflight {
				report := preflight.Run(cmd.Context(), cfg)
				if !report.OK() {
					writeCheckResults(cmd.ErrOrStderr(), report)
					return services.Wrap(services.ErrFilesystem, "preflight", "check",
						fmt.Sprintf("%d required checks failed", len(report.Failed())), nil)
				}
			}

			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			launcher, err := newLauncher(cfg)
			if err != nil {
				return err
			}

			store, err := ctx.openLedger()
			if err != nil {
				logging.WarnWithContext(logger, "run ledger unavailable", "ledger_open_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "this run will not appear in history"),
				)
			}
			var opts []dispatch.Option
			if store != nil {
				defer store.Close()
				opts = append(opts, dispatch.WithLedger(store))
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			report, runErr := dispatch.New(cfg, launcher, logger, opts...).Run(runCtx)
			if report != nil {
				writeRunReport(cmd.OutOrStdout(), report)
			}
			return runErr
		},
	}

	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Wait for every worker and report exit codes")
	cmd.Flags().BoolVar(&runPreflight, "preflight", false, "Run readiness checks before launching workers")
	return cmd
}

func writeRunReport(out io.Writer, report *dispatch.Report) {
	color := isTerminal(out)
	headers := []string{"Batch", "Start", "End", "Images", "PID", "Status", "Detail"}
	rows := make([][]string, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		pid := "-"
		if o.PID > 0 {
			pid = strconv.Itoa(o.PID)
		}
		detail := ""
		switch {
		case o.Err != nil:
			detail = o.Err.Error()
		case o.ExitCode != nil:
			detail = fmt.Sprintf("exit %d", *o.ExitCode)
		}
		rows = append(rows, []string{
			strconv.Itoa(o.Batch.Index),
			strconv.Itoa(o.Batch.Start),
			strconv.Itoa(o.Batch.End),
			strconv.Itoa(o.Batch.Len()),
			pid,
			colorize(string(o.Status), statusColor(o.Status), color),
			detail,
		})
	}
	writeRows(out, headers, rows, []columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft, alignLeft})

	verb := "launched"
	if report.Waited {
		verb = "completed"
	}
	fmt.Fprintf(out, "Run %s: %s %d of %d batches over %d images in %s\n",
		report.RunID, verb, report.Launched(), len(report.Batches), report.NumImages, report.Directory)
}

func statusColor(status dispatch.Status) string {
	switch status {
	case dispatch.StatusSpawned, dispatch.StatusExited:
		return ansiGreen
	case dispatch.StatusSkipped:
		return ansiYellow
	case dispatch.StatusFailed, dispatch.StatusExitFailed:
		return ansiRed
	default:
		return ""
	}
}

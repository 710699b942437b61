package main

import (
	"os"
	"path/filepath"

	"schedconvert/internal/config"
	"schedconvert/internal/worker"
	"schedconvert/internal/workspace"
)

const workerLogName = "worker.log"

// newLauncher builds the worker launcher described by cfg. Worker output is
// inherited from the CLI unless dispatch.worker_log redirects it into each
// batch's temp directory.
func newLauncher(cfg *config.Config) (*worker.ExecLauncher, error) {
	opts := []worker.Option{worker.WithOutput(os.Stdout, os.Stderr)}
	if cfg.Dispatch.WorkerLog {
		layout := workspace.New(cfg.Dispatch.Directory, cfg.Dispatch.OutputDir, cfg.Dispatch.TempPrefix)
		opts = append(opts, worker.WithLogPath(func(inv worker.Invocation) string {
			return filepath.Join(layout.TempDir(inv.Batch), workerLogName)
		}))
	}
	return worker.NewExecLauncher(cfg.Dispatch.Worker, cfg.Dispatch.WorkerArgs, opts...)
}

package preflight

import (
	"context"

	"schedconvert/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// Report collects every check run for a configuration.
type Report struct {
	Results []Result
}

// OK reports whether every required check passed.
func (r Report) OK() bool {
	for _, res := range r.Results {
		if !res.Passed && !res.Optional {
			return false
		}
	}
	return true
}

// Failed returns the required checks that did not pass.
func (r Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if !res.Passed && !res.Optional {
			failed = append(failed, res)
		}
	}
	return failed
}

// Run executes all applicable preflight checks for the given config. The
// ledger is only checked when enabled.
func Run(ctx context.Context, cfg *config.Config) Report {
	if cfg == nil {
		return Report{}
	}

	var results []Result
	results = append(results, CheckImageDirectory("Image directory", cfg.Dispatch.Directory))
	results = append(results, CheckWorker(cfg)...)
	results = append(results, CheckCreatableDirectory("State directory", cfg.Paths.StateDir))
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckCreatableDirectory("Log directory", cfg.Paths.LogDir))
	}
	if ctx.Err() != nil {
		return Report{Results: results}
	}
	if cfg.Ledger.Enabled {
		results = append(results, CheckLedger(cfg.Ledger.Path))
	}
	return Report{Results: results}
}

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"schedconvert/internal/batch"
	"schedconvert/internal/config"
	"schedconvert/internal/imagedir"
	"schedconvert/internal/ledger"
	"schedconvert/internal/logging"
	"schedconvert/internal/services"
	"schedconvert/internal/worker"
	"schedconvert/internal/workspace"
)

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithLedger records every run in the given store.
func WithLedger(store *ledger.Store) Option {
	return func(d *Dispatcher) {
		d.ledger = store
	}
}

// WithClock overrides the time source used for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(d *Dispatcher) {
		d.runID = id
	}
}

// Dispatcher performs one fan-out pass over an image directory.
type Dispatcher struct {
	cfg      *config.Config
	launcher worker.Launcher
	logger   *slog.Logger
	ledger   *ledger.Store
	now      func() time.Time
	runID    string
}

// New constructs a dispatcher for cfg using launcher to start workers.
func New(cfg *config.Config, launcher worker.Launcher, logger *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		cfg:      cfg,
		launcher: launcher,
		logger:   logging.NewComponentLogger(logger, "dispatch"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run lists the directory, partitions it, and launches one worker per batch.
// The returned error joins every per-batch failure; the report is non-nil
// whenever enumeration succeeded.
func (d *Dispatcher) Run(ctx context.Context) (*Report, error) {
	if d.cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "dispatch", "validate", "configuration is nil", nil)
	}
	if d.launcher == nil {
		return nil, services.Wrap(services.ErrConfiguration, "dispatch", "validate", "worker launcher is nil", nil)
	}
	if err := d.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := d.cfg.RequireDirectory(); err != nil {
		return nil, err
	}
	policy, err := batch.ParsePolicy(d.cfg.Dispatch.Partition)
	if err != nil {
		return nil, err
	}

	dir := d.cfg.Dispatch.Directory
	runID := d.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, d.logger)

	listing, err := imagedir.List(dir)
	if err != nil {
		return nil, err
	}

	// The lock lives in the state directory, so nothing is written anywhere
	// until the image directory has been enumerated.
	unlock, err := d.acquireLock(dir)
	if err != nil {
		return nil, err
	}
	defer unlock()

	layout := workspace.New(dir, d.cfg.Dispatch.OutputDir, d.cfg.Dispatch.TempPrefix)
	outputDir, err := layout.EnsureOutputDir()
	if err != nil {
		return nil, err
	}

	batches, err := batch.Plan(listing.Count(), d.cfg.Dispatch.BatchCount, policy)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:     runID,
		Directory: dir,
		OutputDir: outputDir,
		NumImages: listing.Count(),
		Batches:   batches,
		Outcomes:  make([]Outcome, len(batches)),
		Waited:    d.cfg.Dispatch.Wait,
		StartedAt: d.now(),
	}
	logger.Info("dispatch started",
		logging.String(logging.FieldEventType, "dispatch_started"),
		logging.String("directory", dir),
		logging.Int("images", listing.Count()),
		logging.Int("batches", len(batches)),
		logging.String("partition", string(policy)),
	)

	handles := make([]worker.Handle, len(batches))
	failures := d.launchAll(ctx, layout, batches, report, handles)

	unlock()
	d.recordRun(ctx, logger, report)

	if d.cfg.Dispatch.Wait && !d.aborted(failures) {
		failures = append(failures, d.waitAll(ctx, logger, report, handles)...)
	} else {
		releaseAll(logger, handles)
	}

	report.FinishedAt = d.now()
	runErr := errors.Join(failures...)
	d.finishRun(ctx, logger, report, runErr)

	logger.Info("dispatch finished",
		logging.String(logging.FieldEventType, "dispatch_finished"),
		logging.Int("launched", report.Launched()),
		logging.Int("skipped", report.Count(StatusSkipped)),
		logging.Int("failed", report.Count(StatusFailed)+report.Count(StatusExitFailed)),
		logging.Duration("elapsed", report.Duration()),
	)
	return report, runErr
}

// abortError marks the failure that stopped the launch loop under the abort
// policy so waiting is skipped.
type abortError struct{ err error }

func (e abortError) Error() string { return e.err.Error() }
func (e abortError) Unwrap() error { return e.err }

func (d *Dispatcher) aborted(failures []error) bool {
	for _, err := range failures {
		var ab abortError
		if errors.As(err, &ab) {
			return true
		}
	}
	return false
}

func (d *Dispatcher) launchAll(ctx context.Context, layout workspace.Layout, batches []batch.Batch, report *Report, handles []worker.Handle) []error {
	var failures []error
	ctx = services.WithStage(ctx, "launch")
	for i, b := range batches {
		report.Outcomes[i] = Outcome{Batch: b, TempDir: layout.TempDir(b.Index)}
		batchLogger := logging.WithContext(services.WithBatch(ctx, b.Index), d.logger)

		if err := ctx.Err(); err != nil {
			return cancelRemaining(batchLogger, report, i, append(failures, err), err)
		}

		if _, err := layout.EnsureTempDir(b.Index); err != nil {
			report.Outcomes[i].Status = StatusSkipped
			report.Outcomes[i].Err = err
			failures = append(failures, err)
			logging.WarnWithContext(batchLogger, "temp directory unavailable; batch skipped", "temp_dir_failed",
				logging.String("temp_dir", report.Outcomes[i].TempDir),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on the image directory"),
				logging.String(logging.FieldImpact, "images in this batch will not be converted"),
			)
			continue
		}

		inv := worker.Invocation{Batch: b.Index, Start: b.Start, End: b.End, Dir: report.Directory}
		handle, err := d.launcher.Start(ctx, inv)
		if err != nil && ctx.Err() != nil {
			// Cancellation raced the launch; the worker never started.
			return cancelRemaining(batchLogger, report, i, append(failures, ctx.Err()), ctx.Err())
		}
		if err != nil {
			if !errors.Is(err, services.ErrSpawn) {
				err = services.Wrap(services.ErrSpawn, "spawn", "start worker", fmt.Sprintf("batch %d", b.Index), err)
			}
			report.Outcomes[i].Status = StatusFailed
			report.Outcomes[i].Err = err
			logging.ErrorWithContext(batchLogger, "worker launch failed", "spawn_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "verify dispatch.worker is executable"),
			)
			if d.cfg.Dispatch.OnSpawnError == config.SpawnErrorAbort {
				skipRemaining(report, i+1, errors.New("not launched after earlier spawn failure"))
				return append(failures, abortError{err: err})
			}
			failures = append(failures, err)
			continue
		}

		handles[i] = handle
		report.Outcomes[i].Status = StatusSpawned
		report.Outcomes[i].PID = handle.PID()
		batchLogger.Info("worker launched",
			logging.String(logging.FieldEventType, "batch_spawned"),
			logging.Int("pid", handle.PID()),
			logging.Int("start", b.Start),
			logging.Int("end", b.End),
		)
	}
	return failures
}

func cancelRemaining(logger *slog.Logger, report *Report, from int, failures []error, cause error) []error {
	skipRemaining(report, from, cause)
	logging.WarnWithContext(logger, "dispatch cancelled before all batches were launched", "dispatch_cancelled",
		logging.Int("remaining", len(report.Outcomes)-from),
		logging.String(logging.FieldImpact, "remaining batches were not launched"),
	)
	return failures
}

func skipRemaining(report *Report, from int, cause error) {
	for j := from; j < len(report.Outcomes); j++ {
		if report.Outcomes[j].Status != "" {
			continue
		}
		b := report.Batches[j]
		report.Outcomes[j].Batch = b
		report.Outcomes[j].Status = StatusSkipped
		report.Outcomes[j].Err = cause
	}
}

func (d *Dispatcher) waitAll(ctx context.Context, logger *slog.Logger, report *Report, handles []worker.Handle) []error {
	errs := make([]error, len(handles))
	waitCtx := services.WithStage(ctx, "wait")
	var g errgroup.Group
	for i, handle := range handles {
		if handle == nil {
			continue
		}
		g.Go(func() error {
			code, err := handle.Wait()
			outcome := &report.Outcomes[i]
			outcome.ExitCode = &code
			batchLogger := logging.WithContext(services.WithBatch(waitCtx, outcome.Batch.Index), d.logger)
			if err != nil {
				outcome.Status = StatusExitFailed
				outcome.Err = services.Wrap(services.ErrWorker, "wait", "worker exit", fmt.Sprintf("batch %d", outcome.Batch.Index), err)
				errs[i] = outcome.Err
				logging.WarnWithContext(batchLogger, "worker exited with failure", "batch_exit_failed",
					logging.Int("exit_code", code),
					logging.Error(err),
					logging.String(logging.FieldImpact, "batch output may be incomplete"),
				)
				return outcome.Err
			}
			outcome.Status = StatusExited
			batchLogger.Info("worker finished",
				logging.String(logging.FieldEventType, "batch_exited"),
				logging.Int("exit_code", code),
			)
			return nil
		})
	}
	_ = g.Wait()

	var failures []error
	for _, err := range errs {
		if err != nil {
			failures = append(failures, err)
		}
	}
	ledgerCtx := context.WithoutCancel(ctx)
	for i, outcome := range report.Outcomes {
		if handles[i] == nil || d.ledger == nil {
			continue
		}
		code := 0
		if outcome.ExitCode != nil {
			code = *outcome.ExitCode
		}
		if err := d.ledger.UpdateExit(ledgerCtx, report.RunID, outcome.Batch.Index, code, ledger.Status(outcome.Status), errorText(outcome.Err)); err != nil {
			logging.WarnWithContext(logger, "ledger exit update failed", "ledger_write_failed",
				logging.Int(logging.FieldBatch, outcome.Batch.Index),
				logging.Error(err),
				logging.String(logging.FieldImpact, "run history is incomplete"),
			)
		}
	}
	return failures
}

func releaseAll(logger *slog.Logger, handles []worker.Handle) {
	for _, handle := range handles {
		if handle == nil {
			continue
		}
		if err := handle.Release(); err != nil {
			logger.Debug("release worker handle", logging.Int("pid", handle.PID()), logging.Error(err))
		}
	}
}

func (d *Dispatcher) acquireLock(dir string) (func(), error) {
	lockPath := d.cfg.LockPath(dir)
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "dispatch", "create lock directory", filepath.Dir(lockPath), err)
	}
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "dispatch", "acquire lock", lockPath, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrBusy, "dispatch", "acquire lock",
			fmt.Sprintf("another dispatcher holds %s", lockPath), nil)
	}
	released := false
	return func() {
		if released {
			return
		}
		released = true
		if err := lock.Unlock(); err != nil {
			d.logger.Warn("failed to release dispatch lock", logging.String("lock", lockPath), logging.Error(err))
		}
	}, nil
}

func (d *Dispatcher) recordRun(ctx context.Context, logger *slog.Logger, report *Report) {
	if d.ledger == nil {
		return
	}
	// History is written even when the launch loop was cancelled.
	ctx = context.WithoutCancel(ctx)
	run := ledger.Run{
		ID:         report.RunID,
		Directory:  report.Directory,
		Worker:     d.cfg.Dispatch.Worker,
		BatchCount: len(report.Batches),
		NumImages:  report.NumImages,
		Partition:  d.cfg.Dispatch.Partition,
		Waited:     report.Waited,
		StartedAt:  report.StartedAt,
	}
	records := make([]ledger.BatchRecord, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		records = append(records, ledger.BatchRecord{
			RunID:   report.RunID,
			Index:   o.Batch.Index,
			Start:   o.Batch.Start,
			End:     o.Batch.End,
			TempDir: o.TempDir,
			PID:     o.PID,
			Status:  ledger.Status(o.Status),
			Error:   errorText(o.Err),
		})
	}
	if err := d.ledger.RecordRun(ctx, run, records); err != nil {
		logging.WarnWithContext(logger, "ledger write failed", "ledger_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run is missing from history"),
		)
	}
}

func (d *Dispatcher) finishRun(ctx context.Context, logger *slog.Logger, report *Report, runErr error) {
	if d.ledger == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if err := d.ledger.FinishRun(ctx, report.RunID, report.FinishedAt, errorText(runErr)); err != nil {
		logging.WarnWithContext(logger, "ledger finish failed", "ledger_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run history is incomplete"),
		)
	}
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

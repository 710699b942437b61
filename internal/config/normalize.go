package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeDispatch(); err != nil {
		return err
	}
	if err := c.normalizeLedger(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDispatch() error {
	d := &c.Dispatch
	var err error

	d.Directory = strings.TrimSpace(d.Directory)
	if d.Directory, err = expandPath(d.Directory); err != nil {
		return fmt.Errorf("dispatch.directory: %w", err)
	}

	d.Worker = strings.TrimSpace(d.Worker)
	if d.Worker == "" {
		d.Worker = defaultWorker
	}
	// Bare names are resolved through PATH at spawn time; anything that looks
	// like a path is pinned to an absolute location now.
	if strings.ContainsRune(d.Worker, filepath.Separator) || strings.HasPrefix(d.Worker, "~") {
		if d.Worker, err = expandPath(d.Worker); err != nil {
			return fmt.Errorf("dispatch.worker: %w", err)
		}
	}

	args := make([]string, 0, len(d.WorkerArgs))
	for _, arg := range d.WorkerArgs {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			args = append(args, trimmed)
		}
	}
	d.WorkerArgs = args

	d.Partition = strings.ToLower(strings.TrimSpace(d.Partition))
	if d.Partition == "" {
		d.Partition = defaultPartition
	}
	d.OnSpawnError = strings.ToLower(strings.TrimSpace(d.OnSpawnError))
	if d.OnSpawnError == "" {
		d.OnSpawnError = defaultOnSpawnError
	}
	d.TempPrefix = strings.TrimSpace(d.TempPrefix)
	if d.TempPrefix == "" {
		d.TempPrefix = defaultTempPrefix
	}
	d.OutputDir = strings.TrimSpace(d.OutputDir)
	if d.OutputDir == "" {
		d.OutputDir = defaultOutputDirName
	}
	return nil
}

func (c *Config) normalizeLedger() error {
	var err error
	if strings.TrimSpace(c.Ledger.Path) == "" {
		c.Ledger.Path = filepath.Join(c.Paths.StateDir, defaultLedgerFile)
	}
	if c.Ledger.Path, err = expandPath(c.Ledger.Path); err != nil {
		return fmt.Errorf("ledger.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"schedconvert/internal/services"
)

// Validate ensures the configuration is usable. The image directory is not
// required here so commands that never dispatch (history, config) still load;
// RequireDirectory covers that.
func (c *Config) Validate() error {
	if err := c.validateDispatch(); err != nil {
		return err
	}
	return nil
}

// RequireDirectory reports a configuration error when no image directory is set.
func (c *Config) RequireDirectory() error {
	if strings.TrimSpace(c.Dispatch.Directory) == "" {
		return invalid("dispatch.directory must be set (or export SCHEDCONVERT_DIRECTORY, or pass --dir)")
	}
	return nil
}

func (c *Config) validateDispatch() error {
	d := c.Dispatch
	if d.BatchCount <= 0 {
		return invalid(fmt.Sprintf("dispatch.batch_count must be positive, got %d", d.BatchCount))
	}
	if strings.TrimSpace(d.Worker) == "" {
		return invalid("dispatch.worker must be set")
	}
	switch d.Partition {
	case PartitionFloor, PartitionBalanced:
	default:
		return invalid(fmt.Sprintf("dispatch.partition must be %q or %q, got %q", PartitionFloor, PartitionBalanced, d.Partition))
	}
	switch d.OnSpawnError {
	case SpawnErrorContinue, SpawnErrorAbort:
	default:
		return invalid(fmt.Sprintf("dispatch.on_spawn_error must be %q or %q, got %q", SpawnErrorContinue, SpawnErrorAbort, d.OnSpawnError))
	}
	for key, name := range map[string]string{
		"dispatch.temp_prefix": d.TempPrefix,
		"dispatch.output_dir":  d.OutputDir,
	} {
		if name != filepath.Base(name) || name == "." || name == ".." {
			return invalid(fmt.Sprintf("%s must be a plain directory name, got %q", key, name))
		}
	}
	return nil
}

func invalid(message string) error {
	return services.Wrap(services.ErrConfiguration, "config", "validate", message, nil)
}

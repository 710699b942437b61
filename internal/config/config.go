package config

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Dispatch contains the batch fan-out settings.
type Dispatch struct {
	Directory    string   `toml:"directory"`
	BatchCount   int      `toml:"batch_count"`
	Worker       string   `toml:"worker"`
	WorkerArgs   []string `toml:"worker_args"`
	Partition    string   `toml:"partition"`
	OnSpawnError string   `toml:"on_spawn_error"`
	Wait         bool     `toml:"wait"`
	WorkerLog    bool     `toml:"worker_log"`
	TempPrefix   string   `toml:"temp_prefix"`
	OutputDir    string   `toml:"output_dir"`
}

// Paths contains directories owned by schedconvert itself.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Ledger contains configuration for the run history database.
type Ledger struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"` // Default: <state_dir>/runs.db
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for schedconvert.
//
// Configuration sections:
//   - Dispatch: image directory, batch count, worker program and policies
//   - Paths: state and log directories
//   - Ledger: optional SQLite run history
//   - Logging: log format and level
type Config struct {
	Dispatch Dispatch `toml:"dispatch"`
	Paths    Paths    `toml:"paths"`
	Ledger   Ledger   `toml:"ledger"`
	Logging  Logging  `toml:"logging"`
}

// Overrides carries command-line values that take precedence over the file
// and the environment. Empty strings and a nil BatchCount leave the loaded
// configuration untouched.
type Overrides struct {
	Directory  string
	BatchCount *int
	Worker     string
	Wait       bool
	LogLevel   string
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/schedconvert/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	var set fileKeys
	if exists {
		data, err := os.ReadFile(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
		if err := toml.Unmarshal(data, &set); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(set); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("schedconvert.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// Apply merges command-line overrides and re-validates the result.
func (c *Config) Apply(o Overrides) error {
	if dir := strings.TrimSpace(o.Directory); dir != "" {
		c.Dispatch.Directory = dir
	}
	if o.BatchCount != nil {
		c.Dispatch.BatchCount = *o.BatchCount
	}
	if worker := strings.TrimSpace(o.Worker); worker != "" {
		c.Dispatch.Worker = worker
	}
	if o.Wait {
		c.Dispatch.Wait = true
	}
	if level := strings.TrimSpace(o.LogLevel); level != "" {
		c.Logging.Level = level
	}
	if err := c.normalize(); err != nil {
		return err
	}
	return c.Validate()
}

// EnsureDirectories creates the directories schedconvert writes to. The image
// directory is never created here; a missing image directory is an error the
// dispatcher reports.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Ledger.Enabled {
		if err := os.MkdirAll(filepath.Dir(c.Ledger.Path), 0o755); err != nil {
			return fmt.Errorf("create ledger directory: %w", err)
		}
	}
	return nil
}

// LockPath returns the advisory lock file guarding dispatches into dir. The
// lock lives in the state directory so it never shows up in the image listing.
func (c *Config) LockPath(dir string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(dir)))
	name := "dispatch-" + hex.EncodeToString(sum[:6]) + ".lock"
	return filepath.Join(c.Paths.StateDir, name)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"schedconvert/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The image directory exists and is empty unless WithImages is used.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Dispatch.Directory = filepath.Join(base, "images")
	cfgVal.Dispatch.BatchCount = 3
	cfgVal.Dispatch.Worker = filepath.Join(base, "bin", "run-pipe")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Ledger.Path = filepath.Join(base, "state", "runs.db")

	if err := os.MkdirAll(cfgVal.Dispatch.Directory, 0o755); err != nil {
		t.Fatalf("mkdir image dir: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithImages writes count placeholder images into the image directory.
func WithImages(count int) ConfigOption {
	return func(b *configBuilder) {
		WriteImages(b.t, b.cfg.Dispatch.Directory, count)
	}
}

// WithBatchCount overrides the number of batches.
func WithBatchCount(count int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Dispatch.BatchCount = count
	}
}

// WithWorker points the config at a worker program.
func WithWorker(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Dispatch.Worker = path
	}
}

// WithLedger enables the run ledger.
func WithLedger() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Ledger.Enabled = true
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}

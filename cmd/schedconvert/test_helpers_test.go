package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"schedconvert/internal/config"
	"schedconvert/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	stub       testsupport.StubWorker
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, images int) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("SCHEDCONVERT_DIRECTORY", "")
	t.Setenv("SCHEDCONVERT_BATCH_COUNT", "")
	t.Setenv("SCHEDCONVERT_WORKER", "")
	t.Chdir(base)

	stub := testsupport.WriteStubWorker(t, 0)
	cfg := testsupport.NewConfig(t,
		testsupport.WithImages(images),
		testsupport.WithWorker(stub.Path),
		testsupport.WithLedger(),
	)

	configPath := filepath.Join(homeDir, ".config", "schedconvert", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		stub:       stub,
		configPath: configPath,
		baseDir:    base,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[dispatch]
directory = %q
batch_count = %d
worker = %q

[paths]
state_dir = %q
log_dir = %q

[ledger]
enabled = %t
path = %q

[logging]
level = "error"
`,
		cfg.Dispatch.Directory,
		cfg.Dispatch.BatchCount,
		cfg.Dispatch.Worker,
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
		cfg.Ledger.Enabled,
		cfg.Ledger.Path,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

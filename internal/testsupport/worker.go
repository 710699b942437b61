package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// StubWorker is a shell script standing in for the conversion pipeline. Each
// invocation writes its arguments, one per line, to <RecordDir>/batch-<N>.args.
type StubWorker struct {
	Path      string
	RecordDir string
}

// RecordPath returns the file the stub writes for batch index.
func (s StubWorker) RecordPath(index int) string {
	return filepath.Join(s.RecordDir, fmt.Sprintf("batch-%d.args", index))
}

// WriteStubWorker creates an executable stub under a fresh temp directory that
// exits with exitCode after recording its arguments.
func WriteStubWorker(t testing.TB, exitCode int) StubWorker {
	t.Helper()

	base := t.TempDir()
	recordDir := filepath.Join(base, "records")
	if err := os.MkdirAll(recordDir, 0o755); err != nil {
		t.Fatalf("mkdir record dir: %v", err)
	}
	script := fmt.Sprintf(`#!/bin/sh
out="%s/batch-$1.args"
printf '%%s\n' "$@" > "$out.tmp" && mv "$out.tmp" "$out"
echo "stub worker batch $1"
exit %d
`, recordDir, exitCode)
	path := filepath.Join(base, "run-pipe")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub worker: %v", err)
	}
	return StubWorker{Path: path, RecordDir: recordDir}
}

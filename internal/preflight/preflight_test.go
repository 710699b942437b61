package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"schedconvert/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckImageDirectory_Unset(t *testing.T) {
	result := CheckImageDirectory("Image directory", "")
	if result.Passed || result.Detail != "not configured" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestCheckCreatableDirectory(t *testing.T) {
	base := t.TempDir()
	result := CheckCreatableDirectory("State", filepath.Join(base, "a", "b"))
	if !result.Passed {
		t.Fatalf("expected creatable dir to pass: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "will be created") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
	if _, err := os.Stat(filepath.Join(base, "a")); !os.IsNotExist(err) {
		t.Fatalf("check must not create directories: %v", err)
	}
}

func TestCheckWorker(t *testing.T) {
	stub := testsupport.WriteStubWorker(t, 0)
	cfg := testsupport.NewConfig(t, testsupport.WithWorker(stub.Path))

	results := CheckWorker(cfg)
	if len(results) != 2 {
		t.Fatalf("expected worker and interpreter results, got %+v", results)
	}
	if !results[0].Passed || results[0].Detail != stub.Path {
		t.Fatalf("unexpected worker result: %+v", results[0])
	}
	if results[1].Name != "Worker interpreter" || !results[1].Passed {
		t.Fatalf("unexpected interpreter result: %+v", results[1])
	}
}

func TestCheckWorker_MissingInterpreter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run-pipe.py")
	if err := os.WriteFile(path, []byte("#!/usr/bin/env clearly-not-a-python\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := testsupport.NewConfig(t, testsupport.WithWorker(path))

	results := CheckWorker(cfg)
	if len(results) != 2 || results[1].Passed {
		t.Fatalf("expected failing interpreter check, got %+v", results)
	}
}

func TestRun_AllPass(t *testing.T) {
	stub := testsupport.WriteStubWorker(t, 0)
	cfg := testsupport.NewConfig(t, testsupport.WithWorker(stub.Path), testsupport.WithLedger())

	report := Run(context.Background(), cfg)
	if !report.OK() {
		t.Fatalf("expected all checks to pass, failed: %+v", report.Failed())
	}
	names := make([]string, 0, len(report.Results))
	for _, r := range report.Results {
		names = append(names, r.Name)
	}
	if !strings.Contains(strings.Join(names, ","), "Run ledger") {
		t.Fatalf("expected ledger check, got %v", names)
	}
}

func TestRun_MissingWorkerAndDirectory(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWorker(filepath.Join(t.TempDir(), "absent")))
	cfg.Dispatch.Directory = filepath.Join(testsupport.BaseDir(cfg), "gone")

	report := Run(context.Background(), cfg)
	if report.OK() {
		t.Fatal("expected failures")
	}
	failed := report.Failed()
	if len(failed) != 2 {
		t.Fatalf("expected two failures, got %+v", failed)
	}
	if failed[0].Name != "Image directory" || failed[1].Name != "Worker" {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

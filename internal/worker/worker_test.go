package worker_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"schedconvert/internal/services"
	"schedconvert/internal/testsupport"
	"schedconvert/internal/worker"
)

func TestInvocationArgsOrder(t *testing.T) {
	inv := worker.Invocation{Batch: 2, Start: 12, End: 18, Dir: "/data/images"}
	want := []string{"2", "12", "18", "/data/images"}
	if got := inv.Args(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected args: got %v want %v", got, want)
	}
}

func TestCommandLinePlacesExtraArgsFirst(t *testing.T) {
	l, err := worker.NewExecLauncher("python3", []string{"-u", "run-pipe.py"})
	if err != nil {
		t.Fatalf("NewExecLauncher: %v", err)
	}
	got := l.CommandLine(worker.Invocation{Batch: 0, Start: 0, End: 6, Dir: "/imgs"})
	want := []string{"python3", "-u", "run-pipe.py", "0", "0", "6", "/imgs"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected argv: got %v want %v", got, want)
	}
}

func TestNewExecLauncherRequiresProgram(t *testing.T) {
	if _, err := worker.NewExecLauncher("  ", nil); err == nil {
		t.Fatal("expected error for empty program")
	}
}

func TestStartRunsWorkerWithPositionalArgs(t *testing.T) {
	stub := testsupport.WriteStubWorker(t, 0)
	l, err := worker.NewExecLauncher(stub.Path, nil, worker.WithOutput(nil, nil))
	if err != nil {
		t.Fatalf("NewExecLauncher: %v", err)
	}

	imageDir := t.TempDir()
	h, err := l.Start(context.Background(), worker.Invocation{Batch: 1, Start: 6, End: 12, Dir: imageDir})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if h.PID() <= 0 {
		t.Fatalf("expected a pid, got %d", h.PID())
	}
	code, err := h.Wait()
	if err != nil || code != 0 {
		t.Fatalf("Wait: code=%d err=%v", code, err)
	}

	data := testsupport.WaitForFile(t, stub.RecordPath(1), 5*time.Second)
	got := strings.Split(strings.TrimSpace(string(data)), "\n")
	want := []string{"1", "6", "12", imageDir}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("worker saw %v, want %v", got, want)
	}
}

func TestWaitReportsNonZeroExit(t *testing.T) {
	stub := testsupport.WriteStubWorker(t, 3)
	l, err := worker.NewExecLauncher(stub.Path, nil, worker.WithOutput(nil, nil))
	if err != nil {
		t.Fatalf("NewExecLauncher: %v", err)
	}
	h, err := l.Start(context.Background(), worker.Invocation{Batch: 0, Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	code, err := h.Wait()
	if code != 3 {
		t.Fatalf("expected exit code 3, got %d", code)
	}
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
}

func TestStartWritesWorkerLog(t *testing.T) {
	stub := testsupport.WriteStubWorker(t, 0)
	logDir := t.TempDir()
	l, err := worker.NewExecLauncher(stub.Path, nil, worker.WithLogPath(func(inv worker.Invocation) string {
		return filepath.Join(logDir, "worker.log")
	}))
	if err != nil {
		t.Fatalf("NewExecLauncher: %v", err)
	}
	h, err := l.Start(context.Background(), worker.Invocation{Batch: 4, Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := h.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	content, err := os.ReadFile(filepath.Join(logDir, "worker.log"))
	if err != nil {
		t.Fatalf("read worker log: %v", err)
	}
	if !strings.Contains(string(content), "stub worker batch 4") {
		t.Fatalf("unexpected worker log: %q", content)
	}
}

func TestStartMissingProgramIsSpawnError(t *testing.T) {
	l, err := worker.NewExecLauncher(filepath.Join(t.TempDir(), "missing"), nil)
	if err != nil {
		t.Fatalf("NewExecLauncher: %v", err)
	}
	_, err = l.Start(context.Background(), worker.Invocation{Batch: 0})
	if !errors.Is(err, services.ErrSpawn) {
		t.Fatalf("expected spawn error, got %v", err)
	}
}

func TestStartHonoursCancelledContext(t *testing.T) {
	stub := testsupport.WriteStubWorker(t, 0)
	l, err := worker.NewExecLauncher(stub.Path, nil)
	if err != nil {
		t.Fatalf("NewExecLauncher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Start(ctx, worker.Invocation{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

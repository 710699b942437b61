package dispatch_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"schedconvert/internal/dispatch"
	"schedconvert/internal/services"
	"schedconvert/internal/testsupport"
	"schedconvert/internal/worker"
)

func TestPlanDescribesBatchesWithoutSideEffects(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithImages(5), testsupport.WithBatchCount(2))
	launcher, err := worker.NewExecLauncher("python3", []string{"run-pipe.py"})
	if err != nil {
		t.Fatalf("NewExecLauncher: %v", err)
	}

	preview, err := dispatch.Plan(cfg, launcher)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if preview.NumImages != 5 || len(preview.Batches) != 2 {
		t.Fatalf("unexpected preview: %+v", preview)
	}
	last := preview.Batches[1]
	if last.Images != 3 || last.First != "img00002.jpg" || last.Last != "img00004.jpg" {
		t.Fatalf("unexpected last batch: %+v", last)
	}
	if last.Bytes != 48 {
		t.Fatalf("bytes = %d, want 48", last.Bytes)
	}
	wantCmd := []string{"python3", "run-pipe.py", "1", "2", "5", cfg.Dispatch.Directory}
	if !reflect.DeepEqual(last.Command, wantCmd) {
		t.Fatalf("command = %v, want %v", last.Command, wantCmd)
	}
	if _, err := os.Stat(filepath.Join(cfg.Dispatch.Directory, "converted")); !os.IsNotExist(err) {
		t.Fatalf("plan must not create directories: %v", err)
	}
}

func TestPlanRequiresDirectory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Dispatch.Directory = ""
	if _, err := dispatch.Plan(cfg, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

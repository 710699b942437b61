package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"schedconvert/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrSpawn, "dispatch", "spawn", "batch 3", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrSpawn) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"dispatch", "spawn", "batch 3", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrFilesystem) {
		t.Fatalf("expected default marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "dispatch failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: 0},
		{name: "configuration", err: services.Wrap(services.ErrConfiguration, "config", "validate", "batch_count", nil), want: 2},
		{name: "filesystem", err: services.Wrap(services.ErrFilesystem, "dispatch", "enumerate", "", errors.New("io")), want: 1},
		{name: "joined", err: errors.Join(fmt.Errorf("first: %w", services.ErrSpawn), errors.New("other")), want: 1},
	}
	for _, tc := range cases {
		if got := services.ExitCode(tc.err); got != tc.want {
			t.Fatalf("%s: ExitCode = %d, want %d", tc.name, got, tc.want)
		}
	}
}

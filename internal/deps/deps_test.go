package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	notExec := filepath.Join(binDir, "plain.py")
	if err := os.WriteFile(notExec, script, 0o644); err != nil {
		t.Fatalf("write plain file: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "NotExecutable", Command: notExec},
		{Name: "Unset", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for absolute command: %s", results[0].Detail)
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	if results[2].Available {
		t.Fatalf("expected non-executable file to be unavailable")
	}
	if results[3].Available || results[3].Detail != "command not configured" {
		t.Fatalf("unexpected status for empty command: %#v", results[3])
	}
}

func TestCheckBinariesResolvesPath(t *testing.T) {
	binDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(binDir, "run-pipe"), []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	t.Setenv("PATH", binDir)

	results := CheckBinaries([]Requirement{{Name: "Worker", Command: "run-pipe"}})
	if !results[0].Available {
		t.Fatalf("expected PATH lookup to succeed: %#v", results[0])
	}
	if results[0].Detail != filepath.Join(binDir, "run-pipe") {
		t.Fatalf("expected resolved path in detail, got %q", results[0].Detail)
	}
}

func TestInterpreter(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]struct {
		content string
		want    string
		ok      bool
	}{
		"env":        {content: "#!/usr/bin/env python2\nprint 1\n", want: "python2", ok: true},
		"env_flags":  {content: "#!/usr/bin/env -S python3 -u\n", want: "python3", ok: true},
		"direct":     {content: "#! /bin/bash -e\n", want: "/bin/bash", ok: true},
		"no_shebang": {content: "import sys\n", ok: false},
		"empty":      {content: "", ok: false},
	}
	for name, tc := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(tc.content), 0o755); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		got, ok := Interpreter(path)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("%s: got (%q, %v), want (%q, %v)", name, got, ok, tc.want, tc.ok)
		}
	}
	if _, ok := Interpreter(filepath.Join(dir, "missing")); ok {
		t.Fatal("expected missing file to report no interpreter")
	}
}

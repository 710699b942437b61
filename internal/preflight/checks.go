package preflight

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"schedconvert/internal/config"
	"schedconvert/internal/deps"
	"schedconvert/internal/ledger"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if res, ok := statDirectory(name, path); !ok {
		return res
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckImageDirectory verifies the image directory can be listed and can hold
// the converted/ and temp directories.
func CheckImageDirectory(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	if res, ok := statDirectory(name, path); !ok {
		return res
	}
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	if err := unix.Access(path, unix.W_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not writable, cannot create output and temp directories: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCreatableDirectory passes when path is an accessible directory or when
// its nearest existing ancestor is writable so it can be created later.
func CheckCreatableDirectory(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	if _, err := os.Stat(path); err == nil {
		return CheckDirectoryAccess(name, path)
	}
	ancestor := filepath.Dir(path)
	for {
		if _, err := os.Stat(ancestor); err == nil {
			break
		}
		parent := filepath.Dir(ancestor)
		if parent == ancestor {
			break
		}
		ancestor = parent
	}
	if err := unix.Access(ancestor, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", path, ancestor, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

// CheckWorker verifies the worker program resolves to an executable and, for
// scripts, that the interpreter named on the "#!" line is installed.
func CheckWorker(cfg *config.Config) []Result {
	requirements := []deps.Requirement{{
		Name:        "Worker",
		Command:     cfg.Dispatch.Worker,
		Description: "Converts one batch of images",
	}}
	statuses := deps.CheckBinaries(requirements)
	if statuses[0].Available {
		script := statuses[0].Command
		if statuses[0].Detail != "" {
			script = statuses[0].Detail
		}
		if interp, ok := deps.Interpreter(script); ok {
			statuses = append(statuses, deps.CheckBinaries([]deps.Requirement{{
				Name:        "Worker interpreter",
				Command:     interp,
				Description: "Runs the worker script",
			}})...)
		}
	}

	results := make([]Result, 0, len(statuses))
	for _, s := range statuses {
		res := Result{Name: s.Name, Passed: s.Available, Optional: s.Optional}
		switch {
		case !s.Available:
			res.Detail = s.Detail
		case s.Detail != "":
			res.Detail = s.Detail
		default:
			res.Detail = s.Command
		}
		results = append(results, res)
	}
	return results
}

// CheckLedger opens and closes the run ledger to confirm the schema is usable.
func CheckLedger(path string) Result {
	const name = "Run ledger"
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return CheckCreatableDirectory(name, filepath.Dir(path))
	}
	store, err := ledger.Open(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	_ = store.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (schema ok)", path)}
}

func statDirectory(name, path string) (Result, bool) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}, false
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}, false
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}, false
	}
	return Result{}, true
}

package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"schedconvert/internal/services"
)

// Invocation is the argument set for one worker process.
type Invocation struct {
	Batch int
	Start int
	End   int
	Dir   string
}

// Args returns the four positional arguments in the order workers expect.
func (inv Invocation) Args() []string {
	return []string{
		strconv.Itoa(inv.Batch),
		strconv.Itoa(inv.Start),
		strconv.Itoa(inv.End),
		inv.Dir,
	}
}

// Handle refers to a started worker process.
type Handle interface {
	PID() int
	// Wait blocks until the worker exits and returns its exit code. A non-zero
	// exit is reported as both the code and an error.
	Wait() (int, error)
	// Release drops the dispatcher's reference without waiting.
	Release() error
}

// Launcher starts worker processes without waiting for them.
type Launcher interface {
	Start(ctx context.Context, inv Invocation) (Handle, error)
}

// Option configures an ExecLauncher.
type Option func(*ExecLauncher)

// WithOutput routes worker stdout and stderr to the given files. Defaults to
// the dispatcher's own stdout and stderr.
func WithOutput(stdout, stderr *os.File) Option {
	return func(l *ExecLauncher) {
		l.stdout = stdout
		l.stderr = stderr
	}
}

// WithLogPath sends each worker's combined output to the file returned by fn,
// opened in append mode. Takes precedence over WithOutput.
func WithLogPath(fn func(Invocation) string) Option {
	return func(l *ExecLauncher) {
		l.logPath = fn
	}
}

// ExecLauncher starts workers with os/exec.
type ExecLauncher struct {
	program   string
	extraArgs []string
	stdout    *os.File
	stderr    *os.File
	logPath   func(Invocation) string
}

// NewExecLauncher constructs a launcher for program. extraArgs are placed
// before the four positional arguments (useful for interpreters).
func NewExecLauncher(program string, extraArgs []string, opts ...Option) (*ExecLauncher, error) {
	program = strings.TrimSpace(program)
	if program == "" {
		return nil, errors.New("worker program required")
	}
	l := &ExecLauncher{
		program:   program,
		extraArgs: append([]string(nil), extraArgs...),
		stdout:    os.Stdout,
		stderr:    os.Stderr,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// CommandLine returns the full argv used for inv.
func (l *ExecLauncher) CommandLine(inv Invocation) []string {
	argv := make([]string, 0, 1+len(l.extraArgs)+4)
	argv = append(argv, l.program)
	argv = append(argv, l.extraArgs...)
	return append(argv, inv.Args()...)
}

// Start launches the worker for inv and returns once it is running. ctx only
// gates the launch; cancelling it later does not stop the worker.
func (l *ExecLauncher) Start(ctx context.Context, inv Invocation) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	argv := l.CommandLine(inv)
	cmd := exec.Command(argv[0], argv[1:]...) //nolint:gosec
	cmd.Stdin = nil
	cmd.SysProcAttr = detachedAttr()

	var logFile *os.File
	if l.logPath != nil {
		path := l.logPath(inv)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, services.Wrap(services.ErrSpawn, "spawn", "open worker log", path, err)
		}
		logFile = f
		cmd.Stdout = f
		cmd.Stderr = f
	} else {
		if l.stdout != nil {
			cmd.Stdout = l.stdout
		}
		if l.stderr != nil {
			cmd.Stderr = l.stderr
		}
	}

	err := cmd.Start()
	if logFile != nil {
		// The child holds its own descriptor once started.
		_ = logFile.Close()
	}
	if err != nil {
		return nil, services.Wrap(services.ErrSpawn, "spawn", "start worker", fmt.Sprintf("batch %d", inv.Batch), err)
	}
	return &processHandle{cmd: cmd}, nil
}

type processHandle struct {
	cmd *exec.Cmd
}

func (h *processHandle) PID() int {
	if h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

func (h *processHandle) Wait() (int, error) {
	err := h.cmd.Wait()
	code := -1
	if h.cmd.ProcessState != nil {
		code = h.cmd.ProcessState.ExitCode()
	}
	if err != nil {
		return code, fmt.Errorf("worker pid %d: %w", h.PID(), err)
	}
	return code, nil
}

func (h *processHandle) Release() error {
	if h.cmd.Process == nil {
		return nil
	}
	return h.cmd.Process.Release()
}

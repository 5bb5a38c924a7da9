// Package gitcmd runs external commands (git by default) and maps their
// failures to typed errors.
package gitcmd

import (
	"bytes"
	"context"
	"io/fs"
	"os/exec"
	"strings"

	"github.com/Iron-Ham/devlaunch/internal/errors"
	"github.com/Iron-Ham/devlaunch/internal/logging"
	"github.com/Iron-Ham/devlaunch/internal/util"
)

// DefaultBinary is the command run when none is configured.
const DefaultBinary = "git"

// maxLoggedOutput bounds captured stderr written to the debug log.
const maxLoggedOutput = 512

// Result holds the complete output of a successful command.
type Result struct {
	Stdout string
	Stderr string
}

// TrimmedStdout returns stdout without surrounding whitespace.
func (r Result) TrimmedStdout() string {
	return strings.TrimSpace(r.Stdout)
}

// Option configures a single Run call.
type Option func(*runOptions)

type runOptions struct {
	dir string
}

// WithDir runs the command in dir, like git -C.
func WithDir(dir string) Option {
	return func(o *runOptions) {
		o.dir = dir
	}
}

// ResolveDir returns the working directory selected by opts. Fakes use it to
// assert where a command would have run.
func ResolveDir(opts ...Option) string {
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o.dir
}

// Executor is the interface consumers depend on so tests can substitute
// canned output for real processes.
type Executor interface {
	Run(ctx context.Context, args []string, opts ...Option) (Result, error)
}

// Runner spawns one process per call and waits for it to exit.
// It never retries.
type Runner struct {
	binary string
	logger *logging.Logger
}

// New creates a Runner for binary. An empty binary means DefaultBinary and a
// nil logger discards output.
func New(binary string, logger *logging.Logger) *Runner {
	if binary == "" {
		binary = DefaultBinary
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Runner{
		binary: binary,
		logger: logger.WithComponent("gitcmd"),
	}
}

// Binary returns the command this Runner executes.
func (r *Runner) Binary() string {
	return r.binary
}

// Run executes the binary with args and returns its buffered output.
//
// A missing binary yields a CommandNotFoundError. A non-zero exit or a
// terminating signal yields a CommandError carrying the arguments, stderr,
// exit code and signal name.
func (r *Runner) Run(ctx context.Context, args []string, opts ...Option) (Result, error) {
	dir := ResolveDir(opts...)

	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("running command", "binary", r.binary, "args", args, "dir", dir)

	err := cmd.Run()
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return result, nil
	}

	if isNotFound(err) {
		r.logger.Error("command not found", "binary", r.binary, "error", err.Error())
		return result, errors.NewCommandNotFoundError(r.binary, err)
	}

	cmdErr := errors.NewCommandError(r.binary, args, err).WithStderr(result.Stderr)
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		cmdErr = cmdErr.WithExit(util.ExitStatus(exitErr.ProcessState))
	} else {
		cmdErr = cmdErr.WithExit(-1, "")
	}

	r.logger.Debug("command failed",
		"binary", r.binary,
		"args", args,
		"exit_code", cmdErr.ExitCode,
		"signal", cmdErr.Signal,
		"stderr", util.TruncateString(result.Stderr, maxLoggedOutput),
	)
	return result, cmdErr
}

// isNotFound reports whether err means the binary itself does not exist,
// as opposed to a missing working directory.
func isNotFound(err error) bool {
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) && pathErr.Op != "chdir" {
		return errors.Is(pathErr.Err, fs.ErrNotExist)
	}
	return false
}

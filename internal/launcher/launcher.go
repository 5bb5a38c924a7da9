// Package launcher spawns a child process and waits for it to announce
// readiness on its stderr stream.
//
// A launch settles exactly once. The first of these events wins and every
// later one is ignored:
//
//   - the readiness pattern appears on stderr (success)
//   - the process fails to start
//   - the process exits before the pattern appears
//   - the readiness timeout elapses (the child is killed)
//   - the caller's context is canceled (the child is killed)
//
// After settlement the stderr pipe keeps being drained so the child never
// blocks on a full pipe, and the child is always reaped.
package launcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/Iron-Ham/devlaunch/internal/errors"
	"github.com/Iron-Ham/devlaunch/internal/logging"
	"github.com/Iron-Ham/devlaunch/internal/util"
)

// DefaultTimeout is how long a child has to announce readiness.
const DefaultTimeout = 30 * time.Second

// exitDrainGrace is how long an exit waits for buffered stderr to be scanned
// before the launch is settled as an unexpected exit.
const exitDrainGrace = 250 * time.Millisecond

// tailQuiet is how long output may pause mid-line before the unterminated
// tail is matched as complete.
const tailQuiet = 100 * time.Millisecond

const readChunkSize = 4096

// Spec describes a process to launch.
type Spec struct {
	Path    string
	Args    []string
	Env     []string // nil inherits the current environment
	Dir     string
	Matcher *Matcher      // defaults to DevToolsMatcher
	Timeout time.Duration // defaults to DefaultTimeout
	// Detached starts the child in its own session so terminal signals sent
	// to the launcher's process group do not reach it.
	Detached bool
}

// Process is a child that reached readiness.
type Process struct {
	PID       int
	Endpoint  string
	StartedAt time.Time
	ReadyAt   time.Time

	proc   *os.Process
	exited chan struct{}
	state  *os.ProcessState
	err    error
}

// Launcher starts processes and waits for their readiness marker.
type Launcher struct {
	logger *logging.Logger
}

// New creates a Launcher. A nil logger discards output.
func New(logger *logging.Logger) *Launcher {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Launcher{logger: logger.WithComponent("launcher")}
}

// settler is a one-shot completion. Only the first settle call takes effect.
type settler struct {
	once sync.Once
	done chan struct{}
	proc *Process
	err  error
}

func newSettler() *settler {
	return &settler{done: make(chan struct{})}
}

func (s *settler) settle(p *Process, err error) bool {
	won := false
	s.once.Do(func() {
		s.proc, s.err = p, err
		close(s.done)
		won = true
	})
	return won
}

func (s *settler) settled() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Launch starts the process described by spec and blocks until it settles.
// On success the returned Process is still running.
func (l *Launcher) Launch(ctx context.Context, spec Spec) (*Process, error) {
	matcher := spec.Matcher
	if matcher == nil {
		matcher = DevToolsMatcher()
	}
	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.NewLaunchError("launch canceled", err).WithExecutable(spec.Path)
	}

	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		return nil, errors.NewLaunchError("failed to create stderr pipe", err).WithExecutable(spec.Path)
	}

	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Env = spec.Env
	cmd.Dir = spec.Dir
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = stderrW
	if spec.Detached {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	}

	startedAt := time.Now()
	if err := cmd.Start(); err != nil {
		_ = stderrR.Close()
		_ = stderrW.Close()
		l.logger.Error("process failed to start", "path", spec.Path, "error", err.Error())
		return nil, errors.NewLaunchError("failed to start process", err).WithExecutable(spec.Path)
	}
	// The child holds its own copy of the write end.
	_ = stderrW.Close()

	proc := &Process{
		StartedAt: startedAt,
		proc:      cmd.Process,
		exited:    make(chan struct{}),
	}
	if cmd.Process != nil {
		proc.PID = cmd.Process.Pid
	}

	l.logger.Debug("process started", "path", spec.Path, "pid", proc.PID, "timeout", timeout.String())

	s := newSettler()
	readerDone := make(chan struct{})

	go l.readStderr(stderrR, matcher, proc, s, readerDone)
	go l.watchExit(cmd, spec.Path, proc, s, readerDone)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-s.done:
	case <-timer.C:
		if s.settle(nil, errors.NewLaunchError(
			fmt.Sprintf("process did not become ready within %s", timeout),
			errors.NewTimeoutError("waiting for readiness marker", timeout),
		).WithExecutable(spec.Path)) {
			l.logger.Warn("readiness timeout, killing process", "pid", proc.PID, "timeout", timeout.String())
			proc.kill()
		}
	case <-ctx.Done():
		if s.settle(nil, errors.NewLaunchError("launch canceled", ctx.Err()).WithExecutable(spec.Path)) {
			l.logger.Info("launch canceled, killing process", "pid", proc.PID)
			proc.kill()
		}
	}

	if s.err != nil {
		return nil, s.err
	}
	return s.proc, nil
}

// readStderr feeds stderr to the matcher until the pattern is found, then
// drains the rest of the stream.
func (l *Launcher) readStderr(r *os.File, matcher *Matcher, proc *Process, s *settler, done chan<- struct{}) {
	defer close(done)
	defer func() { _ = r.Close() }()

	buf := make([]byte, readChunkSize)
	for {
		// An unterminated tail gets tailQuiet to continue before it is
		// matched as it stands.
		if !s.settled() && matcher.Pending() {
			_ = r.SetReadDeadline(time.Now().Add(tailQuiet))
		} else {
			_ = r.SetReadDeadline(time.Time{})
		}

		n, err := r.Read(buf)
		if n > 0 && !s.settled() {
			_, _ = matcher.Write(buf[:n])
			l.checkReady(matcher, proc, s)
		}
		if errors.Is(err, os.ErrDeadlineExceeded) {
			if !s.settled() {
				matcher.ScanPending()
				l.checkReady(matcher, proc, s)
			}
			continue
		}
		if err != nil {
			if err != io.EOF {
				l.logger.Debug("stderr read ended", "pid", proc.PID, "error", err.Error())
			}
			break
		}
	}

	if !s.settled() {
		matcher.Flush()
		l.checkReady(matcher, proc, s)
	}
}

func (l *Launcher) checkReady(matcher *Matcher, proc *Process, s *settler) {
	endpoint, ok := matcher.Match()
	if !ok {
		return
	}
	if proc.PID <= 0 {
		if s.settle(nil, errors.NewLaunchError("process started without a PID", errors.ErrMissingPID)) {
			proc.kill()
		}
		return
	}

	// Endpoint and ReadyAt are only read by the caller after settlement.
	proc.Endpoint = endpoint
	proc.ReadyAt = time.Now()
	if s.settle(proc, nil) {
		l.logger.Info("process ready",
			"pid", proc.PID,
			"endpoint", endpoint,
			"duration_ms", proc.ReadyAt.Sub(proc.StartedAt).Milliseconds(),
		)
	}
}

// watchExit reaps the child and settles the launch as failed if it exits first.
func (l *Launcher) watchExit(cmd *exec.Cmd, path string, proc *Process, s *settler, readerDone <-chan struct{}) {
	waitErr := cmd.Wait()

	// Let the reader scan output written just before exit.
	select {
	case <-readerDone:
	case <-time.After(exitDrainGrace):
	}

	code, signal := util.ExitStatus(cmd.ProcessState)
	proc.state = cmd.ProcessState
	proc.err = waitErr
	close(proc.exited)

	if s.settle(nil, errors.NewLaunchError("process exited before becoming ready", errors.ErrUnexpectedExit).
		WithExecutable(path).
		WithExit(code, signal)) {
		l.logger.Error("process exited before becoming ready", "pid", proc.PID, "exit_code", code, "signal", signal)
		return
	}
	l.logger.Debug("process exited", "pid", proc.PID, "exit_code", code, "signal", signal)
}

func (p *Process) kill() {
	if p.proc != nil {
		_ = p.proc.Kill()
	}
}

// Done returns a channel closed once the process has exited and been reaped.
func (p *Process) Done() <-chan struct{} {
	return p.exited
}

// Wait blocks until the process exits or ctx is done. It returns the
// process's wait error, which is nil for a clean exit.
func (p *Process) Wait(ctx context.Context) error {
	select {
	case <-p.exited:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Exited reports whether the process has exited.
func (p *Process) Exited() bool {
	select {
	case <-p.exited:
		return true
	default:
		return false
	}
}

// ExitStatus returns the exit code and signal name once the process has exited.
func (p *Process) ExitStatus() (code int, signal string) {
	if !p.Exited() {
		return -1, ""
	}
	return util.ExitStatus(p.state)
}

// Stop asks the process to terminate with SIGTERM and kills it if it is
// still running after grace. It returns once the process has been reaped.
func (p *Process) Stop(grace time.Duration) error {
	if p.Exited() {
		return nil
	}
	// ErrProcessDone means the child was reaped but exited is not closed
	// yet; wait for it like any other exit.
	if err := p.proc.Signal(unix.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		if p.Exited() {
			return nil
		}
		return fmt.Errorf("failed to signal process %d: %w", p.PID, err)
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-p.exited:
		return nil
	case <-timer.C:
	}

	if err := p.proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) && !p.Exited() {
		return fmt.Errorf("failed to kill process %d: %w", p.PID, err)
	}
	<-p.exited
	return nil
}

// Package cli converts failures and termination signals into user-facing
// messages and process exit codes.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/Iron-Ham/devlaunch/internal/errors"
	"github.com/Iron-Ham/devlaunch/internal/ui/styles"
)

// GenericFailureMessage is shown for errors that carry no domain kind.
const GenericFailureMessage = "an unexpected error occurred"

// Failure is the user-facing form of an error.
type Failure struct {
	Message  string
	Detail   string // extra lines such as captured git output; may be empty
	ExitCode int
	// Severity at or below SeverityWarning is drawn as a warning.
	Severity errors.Severity
}

// Describe maps err to the message and exit code shown to the user. Typed
// errors report their own first line; anything else gets the generic
// message with the original text as detail.
func Describe(err error) Failure {
	if err == nil {
		return Failure{ExitCode: errors.ExitSuccess}
	}

	var domain errors.DomainError
	if !errors.As(err, &domain) || !errors.IsUserFacing(err) {
		return Failure{
			Message:  GenericFailureMessage,
			Detail:   err.Error(),
			ExitCode: errors.ExitGeneral,
			Severity: errors.SeverityError,
		}
	}

	message, detail, _ := strings.Cut(err.Error(), "\n")
	return Failure{
		Message:  message,
		Detail:   strings.TrimSpace(detail),
		ExitCode: errors.ExitCode(err),
		Severity: errors.GetSeverity(err),
	}
}

// HandleFailure writes err to w as a one-line message (plus any detail
// block) and returns the exit code to use. A nil err writes nothing and
// returns 0.
func HandleFailure(err error, w io.Writer) int {
	f := Describe(err)
	if err == nil {
		return f.ExitCode
	}

	var sb strings.Builder
	if f.Severity <= errors.SeverityWarning {
		sb.WriteString(styles.Warning.Bold(true).Render("! " + f.Message))
	} else {
		sb.WriteString(styles.ErrorTitle.Render("✗ " + f.Message))
	}
	sb.WriteByte('\n')
	if f.Detail != "" {
		sb.WriteString(styles.Detail.Render(f.Detail))
		sb.WriteByte('\n')
	}
	_, _ = io.WriteString(w, sb.String())
	return f.ExitCode
}

// SignalExitCode returns 128 plus the signal number for SIGINT and SIGTERM
// (130 and 143) and the general failure code for anything else.
func SignalExitCode(sig os.Signal) int {
	s, ok := sig.(unix.Signal)
	if !ok || (s != unix.SIGINT && s != unix.SIGTERM) {
		return errors.ExitGeneral
	}
	return 128 + int(s)
}

// Termination cancels a context when SIGINT or SIGTERM arrives and records
// which signal it was.
type Termination struct {
	cancel context.CancelFunc
	ch     chan os.Signal
	once   sync.Once

	mu  sync.Mutex
	sig os.Signal
}

// NotifyTermination returns a context canceled on the first SIGINT or
// SIGTERM. Call Stop to restore default signal handling.
func NotifyTermination(parent context.Context) (context.Context, *Termination) {
	ctx, cancel := context.WithCancel(parent)
	t := &Termination{
		cancel: cancel,
		ch:     make(chan os.Signal, 1),
	}
	signal.Notify(t.ch, unix.SIGINT, unix.SIGTERM)

	go func() {
		select {
		case sig := <-t.ch:
			t.mu.Lock()
			t.sig = sig
			t.mu.Unlock()
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, t
}

// Signal returns the signal that canceled the context, or nil.
func (t *Termination) Signal() os.Signal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sig
}

// ExitCode returns the code for a run that finished with err. A received
// signal takes precedence over err.
func (t *Termination) ExitCode(err error) int {
	if sig := t.Signal(); sig != nil {
		return SignalExitCode(sig)
	}
	return errors.ExitCode(err)
}

// Stop stops signal delivery and releases the context. Safe to call more
// than once.
func (t *Termination) Stop() {
	t.once.Do(func() {
		signal.Stop(t.ch)
		t.cancel()
	})
}

// Package progress shows a spinner while a long-running operation is in
// flight. When the output is not a terminal it prints a single status line
// instead.
package progress

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/Iron-Ham/devlaunch/internal/ui/styles"
)

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Width returns the terminal width of w, or 0 when unknown.
func Width(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

type doneMsg struct{}

type model struct {
	spinner spinner.Model
	title   string
	done    bool
}

func newModel(title string) model {
	return model{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(styles.Spinner),
		),
		title: title,
	}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		// Raw mode delivers Ctrl+C as a key; turn it back into SIGINT.
		if msg.Type == tea.KeyCtrlC {
			_ = unix.Kill(unix.Getpid(), unix.SIGINT)
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.title + "\n"
}

// Run calls fn and returns its error. While fn runs, out shows title next
// to a spinner if out is a terminal, or title on its own line otherwise.
func Run(ctx context.Context, out io.Writer, title string, fn func(context.Context) error) error {
	if !IsTerminal(out) {
		fmt.Fprintln(out, title)
		return fn(ctx)
	}

	p := tea.NewProgram(newModel(title), tea.WithOutput(out), tea.WithContext(ctx))

	result := make(chan error, 1)
	go func() {
		result <- fn(ctx)
		p.Send(doneMsg{})
	}()

	// A program that fails to start leaves fn running; its result is still
	// awaited below.
	_, _ = p.Run()
	return <-result
}

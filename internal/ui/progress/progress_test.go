package progress

import (
	"bytes"
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestRun_NonTerminal(t *testing.T) {
	var out bytes.Buffer
	want := errors.New("boom")
	called := false

	err := Run(context.Background(), &out, "Launching Chrome...", func(ctx context.Context) error {
		called = true
		return want
	})

	if !called {
		t.Fatal("fn was not called")
	}
	if !errors.Is(err, want) {
		t.Errorf("Run() error = %v, want %v", err, want)
	}
	if out.String() != "Launching Chrome...\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestRun_PassesContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, &bytes.Buffer{}, "working", func(ctx context.Context) error {
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestIsTerminal(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("IsTerminal(buffer) = true")
	}
	if Width(&bytes.Buffer{}) != 0 {
		t.Error("Width(buffer) != 0")
	}
}

func TestModel(t *testing.T) {
	m := newModel("Creating worktree")

	if cmd := m.Init(); cmd == nil {
		t.Error("Init() should start the spinner")
	}

	view := m.View()
	if view == "" || !bytes.Contains([]byte(view), []byte("Creating worktree")) {
		t.Errorf("View() = %q", view)
	}

	updated, cmd := m.Update(doneMsg{})
	if cmd == nil {
		t.Error("doneMsg should quit")
	}
	if updated.(model).View() != "" {
		t.Error("View() after done should be empty")
	}

	// Other keys are ignored
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("Enter should not produce a command")
	}
}

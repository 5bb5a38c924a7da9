package worktree

import (
	"context"
	"strings"
	"testing"

	"github.com/Iron-Ham/devlaunch/internal/errors"
	"github.com/Iron-Ham/devlaunch/internal/gitcmd"
)

// -----------------------------------------------------------------------------
// Mock Executor for Unit Tests
// -----------------------------------------------------------------------------

// mockCall records a single command invocation
type mockCall struct {
	dir  string
	args []string
}

// mockResponse is the canned reply for a command line.
type mockResponse struct {
	stdout string
	err    error
}

// mockExecutor is a test double for gitcmd.Executor keyed by the joined args.
type mockExecutor struct {
	calls     []mockCall
	responses map[string]mockResponse
}

func newMockExecutor() *mockExecutor {
	return &mockExecutor{responses: make(map[string]mockResponse)}
}

func (m *mockExecutor) on(args string, stdout string, err error) {
	m.responses[args] = mockResponse{stdout: stdout, err: err}
}

func (m *mockExecutor) Run(_ context.Context, args []string, opts ...gitcmd.Option) (gitcmd.Result, error) {
	dir := gitcmd.ResolveDir(opts...)
	m.calls = append(m.calls, mockCall{dir: dir, args: args})
	resp := m.responses[strings.Join(args, " ")]
	return gitcmd.Result{Stdout: resp.stdout}, resp.err
}

func (m *mockExecutor) called(args string) (mockCall, bool) {
	for _, c := range m.calls {
		if strings.Join(c.args, " ") == args {
			return c, true
		}
	}
	return mockCall{}, false
}

func failed(args []string, stderr string) error {
	return errors.NewCommandError("git", args, nil).WithExit(128, "").WithStderr(stderr)
}

// -----------------------------------------------------------------------------
// Inspector Tests
// -----------------------------------------------------------------------------

func TestInspector_RepositoryContext(t *testing.T) {
	t.Run("resolves root and name", func(t *testing.T) {
		m := newMockExecutor()
		m.on("rev-parse --show-toplevel", "/src/my-repo\n", nil)

		got, err := NewInspector(m, nil).RepositoryContext(context.Background(), "/src/my-repo/sub")
		if err != nil {
			t.Fatalf("RepositoryContext() error = %v", err)
		}
		if got.Root != "/src/my-repo" || got.Name != "my-repo" {
			t.Errorf("RepositoryContext() = %+v", got)
		}
		if c, _ := m.called("rev-parse --show-toplevel"); c.dir != "/src/my-repo/sub" {
			t.Errorf("dir = %q, want /src/my-repo/sub", c.dir)
		}
	})

	t.Run("command failure is not a repository", func(t *testing.T) {
		m := newMockExecutor()
		m.on("rev-parse --show-toplevel", "", failed([]string{"rev-parse", "--show-toplevel"},
			"fatal: not a git repository (or any of the parent directories): .git\n"))

		_, err := NewInspector(m, nil).RepositoryContext(context.Background(), "")
		if errors.KindOf(err) != errors.KindNotARepository {
			t.Fatalf("KindOf() = %v, want not a repository (%v)", errors.KindOf(err), err)
		}
		if !strings.Contains(err.Error(), "fatal: not a git repository") {
			t.Errorf("error should include git stderr: %v", err)
		}
	})

	t.Run("empty output is not a repository", func(t *testing.T) {
		m := newMockExecutor()
		m.on("rev-parse --show-toplevel", "\n", nil)

		_, err := NewInspector(m, nil).RepositoryContext(context.Background(), "")
		if !errors.Is(err, errors.ErrNotGitRepository) {
			t.Errorf("error = %v, want ErrNotGitRepository", err)
		}
	})

	t.Run("missing git propagates", func(t *testing.T) {
		m := newMockExecutor()
		m.on("rev-parse --show-toplevel", "", errors.NewCommandNotFoundError("git", nil))

		_, err := NewInspector(m, nil).RepositoryContext(context.Background(), "")
		if errors.KindOf(err) != errors.KindCommandNotFound {
			t.Errorf("KindOf() = %v, want command not found", errors.KindOf(err))
		}
	})
}

func TestInspector_AssertBranchExists(t *testing.T) {
	tests := []struct {
		name   string
		branch string
		args   string
	}{
		{"plain name", "feature/x", "show-ref --verify refs/heads/feature/x"},
		{"full ref kept", "refs/heads/main", "show-ref --verify refs/heads/main"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMockExecutor()
			m.on(tt.args, "abc123 "+tt.branch+"\n", nil)

			if err := NewInspector(m, nil).AssertBranchExists(context.Background(), "/src/repo", tt.branch); err != nil {
				t.Fatalf("AssertBranchExists() error = %v", err)
			}
			c, ok := m.called(tt.args)
			if !ok {
				t.Fatalf("expected %q to be run, calls = %+v", tt.args, m.calls)
			}
			if c.dir != "/src/repo" {
				t.Errorf("dir = %q, want /src/repo", c.dir)
			}
		})
	}

	t.Run("missing branch", func(t *testing.T) {
		m := newMockExecutor()
		args := "show-ref --verify refs/heads/nope"
		m.on(args, "", failed(strings.Fields(args), "fatal: 'refs/heads/nope' - not a valid ref\n"))

		err := NewInspector(m, nil).AssertBranchExists(context.Background(), "/src/repo", "nope")
		var gitErr *errors.GitError
		if !errors.As(err, &gitErr) {
			t.Fatalf("error type = %T, want *errors.GitError", err)
		}
		if gitErr.Branch != "nope" || gitErr.Kind() != errors.KindBranchNotFound {
			t.Errorf("GitError = %+v", gitErr)
		}
		if !strings.Contains(gitErr.GitOutput, "not a valid ref") {
			t.Errorf("GitOutput = %q", gitErr.GitOutput)
		}
	})
}

func TestInspector_CheckCollision(t *testing.T) {
	listing := "worktree /src/repo\nHEAD 1111\nbranch refs/heads/main\n\n" +
		"worktree /wt/repo_feature\nHEAD 2222\nbranch refs/heads/feature\n\n"

	tests := []struct {
		name      string
		plan      CollisionPlan
		wantTypes []errors.ConflictType
	}{
		{
			name: "clear",
			plan: CollisionPlan{RepoRoot: "/src/repo", TargetPath: "/wt/repo_other", BranchRef: "refs/heads/other"},
		},
		{
			name:      "branch checked out in main worktree",
			plan:      CollisionPlan{RepoRoot: "/src/repo", TargetPath: "/wt/repo_main", BranchRef: "refs/heads/main"},
			wantTypes: []errors.ConflictType{ConflictBranch},
		},
		{
			name:      "path and branch",
			plan:      CollisionPlan{RepoRoot: "/src/repo", TargetPath: "/wt/repo_feature", BranchRef: "refs/heads/feature"},
			wantTypes: []errors.ConflictType{ConflictPath, ConflictBranch},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMockExecutor()
			m.on("worktree list --porcelain", listing, nil)

			err := NewInspector(m, nil).CheckCollision(context.Background(), tt.plan)
			if len(tt.wantTypes) == 0 {
				if err != nil {
					t.Fatalf("CheckCollision() error = %v", err)
				}
				return
			}

			var conflictErr *errors.WorktreeConflictError
			if !errors.As(err, &conflictErr) {
				t.Fatalf("error type = %T, want *errors.WorktreeConflictError", err)
			}
			if len(conflictErr.Conflicts) != len(tt.wantTypes) {
				t.Fatalf("conflicts = %+v, want types %v", conflictErr.Conflicts, tt.wantTypes)
			}
			for i, c := range conflictErr.Conflicts {
				if c.Type != tt.wantTypes[i] {
					t.Errorf("conflict %d type = %q, want %q", i, c.Type, tt.wantTypes[i])
				}
			}
		})
	}

	t.Run("listing failure", func(t *testing.T) {
		m := newMockExecutor()
		m.on("worktree list --porcelain", "", failed([]string{"worktree", "list", "--porcelain"}, "fatal: boom"))

		err := NewInspector(m, nil).CheckCollision(context.Background(), CollisionPlan{RepoRoot: "/src/repo"})
		if errors.KindOf(err) != errors.KindCommandFailed {
			t.Errorf("KindOf() = %v, want command failed", errors.KindOf(err))
		}
	})
}

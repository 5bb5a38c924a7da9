package gwm

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/devlaunch/internal/branch"
	"github.com/Iron-Ham/devlaunch/internal/errors"
	"github.com/Iron-Ham/devlaunch/internal/testutil"
)

// executeCommand runs a cobra command with args and returns captured stdout.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(new(bytes.Buffer))
	root.SetArgs(args)
	err = root.Execute()
	return buf.String(), err
}

// setupEnvironment isolates configuration and returns the worktree base dir.
func setupEnvironment(t *testing.T) string {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	base := filepath.Join(t.TempDir(), "worktrees")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("DEVLAUNCH_WORKTREE_BASE_DIR", base)
	return base
}

func expectedPath(t *testing.T, base, repoDir, sanitizedBranch string) string {
	t.Helper()
	repoName, err := branch.SanitizeRepositoryName(filepath.Base(repoDir))
	if err != nil {
		t.Fatalf("SanitizeRepositoryName() error = %v", err)
	}
	return filepath.Join(base, repoName+"_"+sanitizedBranch)
}

func TestGWM_CreatesWorktree(t *testing.T) {
	base := setupEnvironment(t)
	repo := testutil.SetupTestRepo(t)
	testutil.CreateBranch(t, repo, "feature/login")

	output, err := executeCommand(NewRootCmd(), "-C", repo, "feature/login")
	if err != nil {
		t.Fatalf("gwm failed: %v", err)
	}

	target := expectedPath(t, base, repo, "feature_login")
	head := testutil.HeadCommit(t, repo)
	want := "PATH=" + target + " BRANCH=feature/login HEAD=" + head
	if strings.TrimSpace(output) != want {
		t.Errorf("output = %q, want %q", strings.TrimSpace(output), want)
	}
	if _, err := os.Stat(filepath.Join(target, "README.md")); err != nil {
		t.Errorf("worktree not checked out: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "logs")); err != nil {
		t.Errorf("log directory not created: %v", err)
	}
}

func TestGWM_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     func(t *testing.T, repo string) []string
		wantKind errors.Kind
	}{
		{
			name:     "no branch",
			args:     func(*testing.T, string) []string { return nil },
			wantKind: errors.KindConfiguration,
		},
		{
			name:     "blank branch",
			args:     func(*testing.T, string) []string { return []string{"   "} },
			wantKind: errors.KindConfiguration,
		},
		{
			name:     "too many args",
			args:     func(*testing.T, string) []string { return []string{"a", "b"} },
			wantKind: errors.KindConfiguration,
		},
		{
			name: "missing branch",
			args: func(_ *testing.T, repo string) []string {
				return []string{"-C", repo, "no-such-branch"}
			},
			wantKind: errors.KindBranchNotFound,
		},
		{
			name: "not a repository",
			args: func(t *testing.T, _ string) []string {
				return []string{"-C", t.TempDir(), "main"}
			},
			wantKind: errors.KindNotARepository,
		},
		{
			name: "branch already checked out",
			args: func(_ *testing.T, repo string) []string {
				return []string{"-C", repo, "main"}
			},
			wantKind: errors.KindWorktreeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupEnvironment(t)
			repo := testutil.SetupTestRepo(t)

			_, err := executeCommand(NewRootCmd(), tt.args(t, repo)...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := errors.KindOf(err); got != tt.wantKind {
				t.Errorf("KindOf() = %v, want %v (err: %v)", got, tt.wantKind, err)
			}
		})
	}
}

func TestGWM_SecondRunConflicts(t *testing.T) {
	base := setupEnvironment(t)
	repo := testutil.SetupTestRepo(t)
	testutil.CreateBranch(t, repo, "fix-1")

	if _, err := executeCommand(NewRootCmd(), "-C", repo, "fix-1"); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	_, err := executeCommand(NewRootCmd(), "-C", repo, "fix-1")
	if errors.KindOf(err) != errors.KindWorktreeConflict {
		t.Fatalf("second run error = %v, want worktree conflict", err)
	}
	if errors.ExitCode(err) != errors.ExitConfiguration {
		t.Errorf("ExitCode() = %d, want %d", errors.ExitCode(err), errors.ExitConfiguration)
	}
	if _, err := os.Stat(expectedPath(t, base, repo, "fix-1")); err != nil {
		t.Errorf("first worktree should remain: %v", err)
	}
}

func TestGWM_PathTakenByAnotherWorktree(t *testing.T) {
	base := setupEnvironment(t)
	repo := testutil.SetupTestRepo(t)
	testutil.CreateBranch(t, repo, "fix-1")
	testutil.CreateBranch(t, repo, "scratch")

	// Another branch already occupies fix-1's target directory.
	testutil.AddWorktree(t, repo, expectedPath(t, base, repo, "fix-1"), "scratch")

	_, err := executeCommand(NewRootCmd(), "-C", repo, "fix-1")
	var conflict *errors.WorktreeConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("error = %v, want a worktree conflict", err)
	}
	if len(conflict.Conflicts) != 1 || conflict.Conflicts[0].Type != errors.ConflictPath {
		t.Errorf("Conflicts = %+v, want one path conflict", conflict.Conflicts)
	}
}

func TestGWM_GitBinaryNotFound(t *testing.T) {
	setupEnvironment(t)
	repo := testutil.SetupTestRepo(t)

	_, err := executeCommand(NewRootCmd(), "--git", "/nonexistent/git", "-C", repo, "main")
	if errors.KindOf(err) != errors.KindCommandNotFound {
		t.Fatalf("error = %v (kind %v), want command not found", err, errors.KindOf(err))
	}
}

// Package testutil provides testing utilities for devlaunch tests.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// SetupTestRepo creates a temporary git repository with one commit on main.
// The test is skipped when git is not installed. The repository is
// automatically cleaned up when the test completes.
func SetupTestRepo(t *testing.T) string {
	t.Helper()
	SkipIfNoGit(t)

	dir := t.TempDir()
	// macOS temp dirs are symlinks; git reports resolved paths.
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}

	RunGit(t, dir, "init")
	RunGit(t, dir, "config", "user.email", "test@devlaunch.dev")
	RunGit(t, dir, "config", "user.name", "Devlaunch Test")

	// git worktree requires at least one commit
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Test Repository\n"), 0o644); err != nil {
		t.Fatalf("failed to create README: %v", err)
	}
	RunGit(t, dir, "add", ".")
	RunGit(t, dir, "commit", "-m", "Initial commit")

	// Some systems default to master
	RunGit(t, dir, "branch", "-M", "main")

	return dir
}

// CreateBranch creates a new branch in the repository without checking it out.
func CreateBranch(t *testing.T, repoDir, branch string) {
	t.Helper()
	RunGit(t, repoDir, "branch", branch)
}

// AddWorktree checks out an existing branch into a new worktree at path.
func AddWorktree(t *testing.T, repoDir, path, branch string) {
	t.Helper()
	RunGit(t, repoDir, "worktree", "add", path, branch)
}

// HeadCommit returns the commit SHA checked out in dir.
func HeadCommit(t *testing.T, dir string) string {
	t.Helper()
	return RunGit(t, dir, "rev-parse", "HEAD")
}

// SkipIfNoGit skips the test if git is not installed.
func SkipIfNoGit(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH, skipping test")
	}
}

// RunGit runs git in dir and returns its trimmed stdout, failing the test on error.
func RunGit(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Devlaunch Test",
		"GIT_AUTHOR_EMAIL=test@devlaunch.dev",
		"GIT_COMMITTER_NAME=Devlaunch Test",
		"GIT_COMMITTER_EMAIL=test@devlaunch.dev",
	)
	output, err := cmd.Output()
	if err != nil {
		var stderr string
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = string(exitErr.Stderr)
		}
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, stderr)
	}
	return strings.TrimSpace(string(output))
}

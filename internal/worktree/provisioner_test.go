package worktree

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Iron-Ham/devlaunch/internal/branch"
	"github.com/Iron-Ham/devlaunch/internal/errors"
	"github.com/Iron-Ham/devlaunch/internal/gitcmd"
	"github.com/Iron-Ham/devlaunch/internal/testutil"
)

func newTestProvisioner(t *testing.T, opts ...ProvisionerOption) (*Provisioner, string) {
	t.Helper()
	base := t.TempDir()
	if resolved, err := filepath.EvalSymlinks(base); err == nil {
		base = resolved
	}
	base = filepath.Join(base, DefaultBaseDirName)
	return NewProvisioner(gitcmd.New("git", nil), NewDirectory(base), nil, opts...), base
}

func mustSanitize(t *testing.T, name string) branch.SanitizedBranch {
	t.Helper()
	b, err := branch.SanitizeBranchName(name)
	if err != nil {
		t.Fatalf("SanitizeBranchName(%q) error = %v", name, err)
	}
	return b
}

func TestProvision_CreatesWorktree(t *testing.T) {
	repo := testutil.SetupTestRepo(t)
	testutil.CreateBranch(t, repo, "feature/login")

	var steps []string
	p, base := newTestProvisioner(t, WithProgress(func(s string) { steps = append(steps, s) }))

	res, err := p.Provision(context.Background(), Request{Branch: mustSanitize(t, "feature/login"), WorkDir: repo})
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}

	wantPath := filepath.Join(base, filepath.Base(repo)+"_feature_login")
	if res.TargetPath != wantPath {
		t.Errorf("TargetPath = %q, want %q", res.TargetPath, wantPath)
	}
	if res.BranchName != "feature/login" || res.SanitizedBranchName != "feature_login" {
		t.Errorf("branch = (%q, %q)", res.BranchName, res.SanitizedBranchName)
	}
	if res.RepoRoot != repo {
		t.Errorf("RepoRoot = %q, want %q", res.RepoRoot, repo)
	}
	if want := testutil.HeadCommit(t, repo); res.HeadCommit != want {
		t.Errorf("HeadCommit = %q, want %q", res.HeadCommit, want)
	}
	if _, err := os.Stat(filepath.Join(wantPath, "README.md")); err != nil {
		t.Errorf("worktree not checked out: %v", err)
	}

	wantSteps := []string{
		StepResolveRepository, StepCheckBranch, StepPrepareDirectory,
		StepCheckCollisions, StepCreateWorktree, StepReadHead,
	}
	if !reflect.DeepEqual(steps, wantSteps) {
		t.Errorf("steps = %v, want %v", steps, wantSteps)
	}
}

func TestProvision_Collision(t *testing.T) {
	repo := testutil.SetupTestRepo(t)
	testutil.CreateBranch(t, repo, "feature")
	p, _ := newTestProvisioner(t)
	req := Request{Branch: mustSanitize(t, "feature"), WorkDir: repo}

	if _, err := p.Provision(context.Background(), req); err != nil {
		t.Fatalf("first Provision() error = %v", err)
	}

	_, err := p.Provision(context.Background(), req)
	var conflictErr *errors.WorktreeConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("second Provision() error = %v, want WorktreeConflictError", err)
	}
	if len(conflictErr.Conflicts) != 2 {
		t.Fatalf("conflicts = %+v, want path and branch", conflictErr.Conflicts)
	}
	if conflictErr.Conflicts[0].Type != ConflictPath || conflictErr.Conflicts[1].Type != ConflictBranch {
		t.Errorf("conflict types = %q, %q", conflictErr.Conflicts[0].Type, conflictErr.Conflicts[1].Type)
	}
}

func TestProvision_BranchCheckedOutInMainWorktree(t *testing.T) {
	repo := testutil.SetupTestRepo(t)
	p, base := newTestProvisioner(t)

	_, err := p.Provision(context.Background(), Request{Branch: mustSanitize(t, "main"), WorkDir: repo})
	if errors.KindOf(err) != errors.KindWorktreeConflict {
		t.Fatalf("KindOf() = %v, want worktree conflict (%v)", errors.KindOf(err), err)
	}
	if _, statErr := os.Stat(filepath.Join(base, filepath.Base(repo)+"_main")); !os.IsNotExist(statErr) {
		t.Error("no worktree should be created on conflict")
	}
}

func TestProvision_Preconditions(t *testing.T) {
	t.Run("missing branch", func(t *testing.T) {
		repo := testutil.SetupTestRepo(t)
		p, base := newTestProvisioner(t)

		_, err := p.Provision(context.Background(), Request{Branch: mustSanitize(t, "nope"), WorkDir: repo})
		if !errors.Is(err, errors.ErrBranchNotFound) {
			t.Fatalf("error = %v, want ErrBranchNotFound", err)
		}
		if _, statErr := os.Stat(base); !os.IsNotExist(statErr) {
			t.Error("base directory should not be created before the branch is verified")
		}
	})

	t.Run("not a repository", func(t *testing.T) {
		testutil.SkipIfNoGit(t)
		p, _ := newTestProvisioner(t)

		_, err := p.Provision(context.Background(), Request{Branch: mustSanitize(t, "main"), WorkDir: t.TempDir()})
		if errors.KindOf(err) != errors.KindNotARepository {
			t.Fatalf("KindOf() = %v, want not a repository (%v)", errors.KindOf(err), err)
		}
		if errors.ExitCode(err) != errors.ExitConfiguration {
			t.Errorf("ExitCode() = %d, want %d", errors.ExitCode(err), errors.ExitConfiguration)
		}
	})
}

func TestProvision_WorktreeAddFailure(t *testing.T) {
	m := newMockExecutor()
	m.on("rev-parse --show-toplevel", "/src/repo\n", nil)
	m.on("show-ref --verify refs/heads/feature", "abc refs/heads/feature\n", nil)
	m.on("worktree list --porcelain", "worktree /src/repo\nbranch refs/heads/main\n", nil)

	base := filepath.Join(t.TempDir(), DefaultBaseDirName)
	target := filepath.Join(base, "repo_feature")
	addArgs := []string{"worktree", "add", target, "feature"}
	m.on("worktree add "+target+" feature", "", failed(addArgs, "fatal: could not create directory"))

	p := NewProvisioner(m, NewDirectory(base), nil)
	_, err := p.Provision(context.Background(), Request{Branch: mustSanitize(t, "feature")})

	var gitErr *errors.GitError
	if !errors.As(err, &gitErr) {
		t.Fatalf("error type = %T, want *errors.GitError", err)
	}
	if gitErr.Worktree != target || gitErr.Branch != "feature" {
		t.Errorf("GitError = %+v", gitErr)
	}
	var cmdErr *errors.CommandError
	if !errors.As(err, &cmdErr) || cmdErr.Stderr != "fatal: could not create directory" {
		t.Errorf("underlying CommandError missing: %v", err)
	}
	if _, ok := m.called("rev-parse HEAD"); ok {
		t.Error("HEAD should not be read after a failed add")
	}
}

package worktree

import (
	"context"
	"path/filepath"

	"github.com/Iron-Ham/devlaunch/internal/branch"
	"github.com/Iron-Ham/devlaunch/internal/errors"
	"github.com/Iron-Ham/devlaunch/internal/gitcmd"
	"github.com/Iron-Ham/devlaunch/internal/logging"
)

// RepositoryContext identifies the repository a command runs in.
type RepositoryContext struct {
	Root string
	Name string // base name of Root
}

// CollisionPlan is the worktree about to be created.
type CollisionPlan struct {
	RepoRoot   string
	TargetPath string
	BranchRef  string
}

// Inspector answers questions about a repository by shelling out to git.
type Inspector struct {
	git    gitcmd.Executor
	logger *logging.Logger
}

// NewInspector creates an Inspector. A nil logger discards output.
func NewInspector(git gitcmd.Executor, logger *logging.Logger) *Inspector {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Inspector{git: git, logger: logger}
}

// RepositoryContext resolves the repository containing workDir. An empty
// workDir means the current directory.
func (i *Inspector) RepositoryContext(ctx context.Context, workDir string) (RepositoryContext, error) {
	res, err := i.git.Run(ctx, []string{"rev-parse", "--show-toplevel"}, gitcmd.WithDir(workDir))
	if err != nil {
		var cmdErr *errors.CommandError
		if errors.As(err, &cmdErr) {
			return RepositoryContext{}, errors.NewNotARepositoryError(cmdErr.Stderr)
		}
		return RepositoryContext{}, err
	}

	root := res.TrimmedStdout()
	if root == "" {
		return RepositoryContext{}, errors.NewNotARepositoryError("")
	}
	return RepositoryContext{Root: root, Name: filepath.Base(root)}, nil
}

// AssertBranchExists verifies that name resolves to a ref in the repository.
// Plain names are looked up under refs/heads.
func (i *Inspector) AssertBranchExists(ctx context.Context, repoRoot, name string) error {
	_, err := i.git.Run(ctx, []string{"show-ref", "--verify", branch.Ref(name)}, gitcmd.WithDir(repoRoot))
	if err != nil {
		var cmdErr *errors.CommandError
		if errors.As(err, &cmdErr) {
			return errors.NewBranchNotFoundError(name, cmdErr.Stderr)
		}
		return err
	}
	return nil
}

// List returns the repository's worktrees. The listing is read fresh on every call.
func (i *Inspector) List(ctx context.Context, repoRoot string) ([]Entry, error) {
	res, err := i.git.Run(ctx, []string{"worktree", "list", "--porcelain"}, gitcmd.WithDir(repoRoot))
	if err != nil {
		return nil, errors.Wrap(err, "failed to list worktrees")
	}
	return ParseList(res.Stdout), nil
}

// CheckCollision returns a WorktreeConflictError listing every existing
// worktree that occupies the planned path or branch.
func (i *Inspector) CheckCollision(ctx context.Context, plan CollisionPlan) error {
	entries, err := i.List(ctx, plan.RepoRoot)
	if err != nil {
		return err
	}

	conflicts := DetectCollisions(entries, plan.TargetPath, plan.BranchRef)
	if len(conflicts) == 0 {
		return nil
	}

	i.logger.Warn("worktree collision detected",
		"target_path", plan.TargetPath,
		"branch_ref", plan.BranchRef,
		"conflicts", len(conflicts),
	)
	return errors.NewWorktreeConflictError(conflicts)
}

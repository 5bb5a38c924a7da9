package worktree

import (
	"context"

	"github.com/Iron-Ham/devlaunch/internal/branch"
	"github.com/Iron-Ham/devlaunch/internal/errors"
	"github.com/Iron-Ham/devlaunch/internal/gitcmd"
	"github.com/Iron-Ham/devlaunch/internal/logging"
)

// Step names reported while provisioning.
const (
	StepResolveRepository = "Resolving repository"
	StepCheckBranch       = "Checking branch"
	StepPrepareDirectory  = "Preparing worktree directory"
	StepCheckCollisions   = "Checking existing worktrees"
	StepCreateWorktree    = "Creating worktree"
	StepReadHead          = "Reading HEAD commit"
)

// Request asks for a worktree of an existing branch.
type Request struct {
	Branch  branch.SanitizedBranch
	WorkDir string // directory inside the repository; empty means the current directory
}

// Result describes a provisioned worktree.
type Result struct {
	RepoRoot            string
	TargetPath          string
	BranchName          string
	SanitizedBranchName string
	HeadCommit          string
}

// Provisioner creates worktrees under a Directory.
type Provisioner struct {
	git       gitcmd.Executor
	inspector *Inspector
	dir       *Directory
	logger    *logging.Logger
	onStep    func(step string)
}

// ProvisionerOption configures a Provisioner.
type ProvisionerOption func(*Provisioner)

// WithProgress registers a callback invoked before each step.
func WithProgress(fn func(step string)) ProvisionerOption {
	return func(p *Provisioner) {
		p.onStep = fn
	}
}

// NewProvisioner creates a Provisioner. A nil logger discards output.
func NewProvisioner(git gitcmd.Executor, dir *Directory, logger *logging.Logger, opts ...ProvisionerOption) *Provisioner {
	if logger == nil {
		logger = logging.NopLogger()
	}
	p := &Provisioner{
		git:       git,
		inspector: NewInspector(git, logger),
		dir:       dir,
		logger:    logger.WithComponent("worktree"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provisioner) step(name string) {
	p.logger.Debug("provisioning step", "step", name)
	if p.onStep != nil {
		p.onStep(name)
	}
}

// Provision checks out an existing branch into a new worktree at
// <base>/<repo>_<sanitized-branch>. Nothing is created when the branch is
// missing or the planned worktree collides with an existing one.
func (p *Provisioner) Provision(ctx context.Context, req Request) (*Result, error) {
	name := req.Branch.Original

	p.step(StepResolveRepository)
	repo, err := p.inspector.RepositoryContext(ctx, req.WorkDir)
	if err != nil {
		return nil, err
	}

	p.step(StepCheckBranch)
	if err := p.inspector.AssertBranchExists(ctx, repo.Root, name); err != nil {
		return nil, err
	}

	p.step(StepPrepareDirectory)
	if _, err := p.dir.EnsureBaseDir(); err != nil {
		return nil, err
	}
	targetPath, err := p.dir.TargetPath(repo.Name, req.Branch.Sanitized)
	if err != nil {
		return nil, err
	}

	p.step(StepCheckCollisions)
	if err := p.inspector.CheckCollision(ctx, CollisionPlan{
		RepoRoot:   repo.Root,
		TargetPath: targetPath,
		BranchRef:  branch.Ref(name),
	}); err != nil {
		return nil, err
	}

	p.step(StepCreateWorktree)
	if _, err := p.git.Run(ctx, []string{"worktree", "add", targetPath, name}, gitcmd.WithDir(repo.Root)); err != nil {
		return nil, errors.NewGitError("failed to create worktree", err).
			WithBranch(name).
			WithWorktree(targetPath).
			WithRepository(repo.Root)
	}

	p.step(StepReadHead)
	res, err := p.git.Run(ctx, []string{"rev-parse", "HEAD"}, gitcmd.WithDir(targetPath))
	if err != nil {
		return nil, errors.NewGitError("failed to read HEAD of new worktree", err).
			WithWorktree(targetPath)
	}

	result := &Result{
		RepoRoot:            repo.Root,
		TargetPath:          targetPath,
		BranchName:          name,
		SanitizedBranchName: req.Branch.Sanitized,
		HeadCommit:          res.TrimmedStdout(),
	}
	p.logger.Info("worktree created",
		"repo", repo.Root,
		"branch", name,
		"target_path", targetPath,
		"head", result.HeadCommit,
	)
	return result, nil
}

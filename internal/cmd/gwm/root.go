// Package gwm implements the gwm worktree command.
package gwm

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/devlaunch/internal/branch"
	"github.com/Iron-Ham/devlaunch/internal/cmd/cmdutil"
	"github.com/Iron-Ham/devlaunch/internal/errors"
	"github.com/Iron-Ham/devlaunch/internal/gitcmd"
	"github.com/Iron-Ham/devlaunch/internal/ui/progress"
	"github.com/Iron-Ham/devlaunch/internal/ui/view"
	"github.com/Iron-Ham/devlaunch/internal/worktree"
)

// NewRootCmd builds the gwm command.
func NewRootCmd() *cobra.Command {
	var workDir string

	root := &cobra.Command{
		Use:   "gwm <branch>",
		Short: "Check out an existing branch into its own git worktree",
		Long: `gwm creates a worktree for an existing local branch of the current
repository at ~/.git-worktree-manager/<repo>_<branch> (worktree.base_dir).
Characters outside [A-Za-z0-9._-] in the branch name are replaced with '_'
in the directory name.

When stdout is not a terminal a single PATH=... BRANCH=... HEAD=... line is
printed for scripts.`,
		Example: `  gwm feature/login
  cd "$(gwm feature/login | sed -n 's/^PATH=\([^ ]*\).*/\1/p')"`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
				return errors.NewConfigError("exactly one branch name is required\n\nUsage: " + cmd.UseLine()).
					WithField("branch")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProvision(cmd, args[0], workDir)
		},
	}
	cmdutil.SetupRoot(root)
	root.Flags().StringVarP(&workDir, "dir", "C", "", "run as if gwm was started in this directory")
	root.Flags().String("git", "", "git executable (default: git from PATH)")
	cmdutil.BindFlag(root.Flags(), "worktree.git_binary", "git")
	return root
}

func runProvision(cmd *cobra.Command, name, workDir string) error {
	sanitized, err := branch.SanitizeBranchName(name)
	if err != nil {
		return err
	}

	cfg, err := cmdutil.LoadConfig()
	if err != nil {
		return err
	}
	baseDir, err := cfg.WorktreeBaseDir()
	if err != nil {
		return err
	}

	logger := cmdutil.CreateLogger(filepath.Join(baseDir, cmdutil.LogDirName), cfg, cmd.ErrOrStderr())
	defer func() { _ = logger.Close() }()
	logger.Info("gwm started", "branch", name, "work_dir", workDir)

	git := gitcmd.New(cfg.Worktree.GitBinary, logger)
	provisioner := worktree.NewProvisioner(git, worktree.NewDirectory(baseDir), logger)

	var result *worktree.Result
	title := fmt.Sprintf("Creating worktree for %s...", name)
	err = progress.Run(cmd.Context(), cmd.ErrOrStderr(), title, func(ctx context.Context) error {
		var err error
		result, err = provisioner.Provision(ctx, worktree.Request{Branch: sanitized, WorkDir: workDir})
		return err
	})
	if err != nil {
		logger.Failure("provisioning failed", err)
		return err
	}

	out := cmd.OutOrStdout()
	if progress.IsTerminal(out) {
		fmt.Fprint(out, view.WorktreeSummary(result, progress.Width(out)))
		return nil
	}
	fmt.Fprintln(out, view.WorktreeLine(result))
	return nil
}

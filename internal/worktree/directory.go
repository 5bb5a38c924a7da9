package worktree

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/Iron-Ham/devlaunch/internal/branch"
	"github.com/Iron-Ham/devlaunch/internal/errors"
)

// DefaultBaseDirName is the directory under $HOME holding all worktrees.
const DefaultBaseDirName = ".git-worktree-manager"

// DefaultBaseDir returns ~/.git-worktree-manager.
func DefaultBaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.NewConfigError("cannot determine home directory").WithCause(err)
	}
	return filepath.Join(home, DefaultBaseDirName), nil
}

// Directory lays out worktrees as <base>/<repo>_<branch>.
type Directory struct {
	baseDir string
}

// NewDirectory creates a Directory rooted at baseDir.
func NewDirectory(baseDir string) *Directory {
	return &Directory{baseDir: baseDir}
}

// BaseDir returns the directory holding all worktrees.
func (d *Directory) BaseDir() string {
	return d.baseDir
}

// EnsureBaseDir creates the base directory if needed and checks that it is writable.
func (d *Directory) EnsureBaseDir() (string, error) {
	if err := os.MkdirAll(d.baseDir, 0o755); err != nil {
		return "", errors.NewConfigError(fmt.Sprintf("cannot create worktree base directory: %s", d.baseDir)).
			WithField("worktree.base_dir").
			WithCause(err)
	}
	if err := unix.Access(d.baseDir, unix.W_OK); err != nil {
		return "", errors.NewConfigError(fmt.Sprintf("worktree base directory is not writable: %s", d.baseDir)).
			WithField("worktree.base_dir").
			WithCause(err)
	}
	return d.baseDir, nil
}

// TargetPath returns the worktree path for a repository and an already
// sanitized branch name.
func (d *Directory) TargetPath(repoName, sanitizedBranch string) (string, error) {
	if s, ok := branch.Sanitize(sanitizedBranch); !ok || s != sanitizedBranch {
		return "", errors.NewConfigError("sanitized branch name is invalid").
			WithField("branch").
			WithValue(sanitizedBranch)
	}
	repo, err := branch.SanitizeRepositoryName(repoName)
	if err != nil {
		return "", err
	}
	return filepath.Join(d.baseDir, repo+"_"+sanitizedBranch), nil
}

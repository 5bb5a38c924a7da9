// Package worktree provisions git worktrees for existing branches.
//
// This file parses `git worktree list --porcelain` and detects collisions
// between a planned worktree and the ones that already exist.
package worktree

import (
	"strings"

	"github.com/Iron-Ham/devlaunch/internal/errors"
)

const (
	worktreePrefix = "worktree "
	branchPrefix   = "branch "
)

// Entry is one worktree from a porcelain listing. BranchRef is empty for a
// detached HEAD or a bare repository.
type Entry struct {
	Path      string
	BranchRef string
}

// Conflict describes a planned worktree colliding with an existing one.
type Conflict = errors.WorktreeConflict

// Conflict types.
const (
	ConflictPath   = errors.ConflictPath
	ConflictBranch = errors.ConflictBranch
)

// ParseList converts porcelain output into entries.
//
// A "worktree " line opens a record (closing any open one), a "branch " line
// attaches to the open record, and a blank line closes it. A record left open
// at the end of input is kept. Other lines such as HEAD, detached, and bare
// are ignored.
func ParseList(report string) []Entry {
	var entries []Entry
	var current *Entry

	flush := func() {
		if current != nil {
			entries = append(entries, *current)
			current = nil
		}
	}

	for _, raw := range strings.Split(report, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, worktreePrefix):
			flush()
			current = &Entry{Path: strings.TrimSpace(strings.TrimPrefix(line, worktreePrefix))}
		case strings.HasPrefix(line, branchPrefix) && current != nil:
			current.BranchRef = strings.TrimSpace(strings.TrimPrefix(line, branchPrefix))
		}
	}
	flush()

	return entries
}

// DetectCollisions reports a path conflict for every entry at targetPath and
// a branch conflict for every entry on branchRef. Both checks run for each
// entry independently and results keep the listing order. An empty branchRef
// never matches.
func DetectCollisions(entries []Entry, targetPath, branchRef string) []Conflict {
	var conflicts []Conflict
	for _, e := range entries {
		if e.Path == targetPath {
			conflicts = append(conflicts, Conflict{Type: ConflictPath, ExistingPath: e.Path})
		}
		if branchRef != "" && e.BranchRef == branchRef {
			conflicts = append(conflicts, Conflict{Type: ConflictBranch, ExistingPath: e.Path, BranchRef: e.BranchRef})
		}
	}
	return conflicts
}

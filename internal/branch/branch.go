// Package branch turns branch and repository names into safe directory
// name segments.
package branch

import (
	"regexp"
	"strings"

	"github.com/Iron-Ham/devlaunch/internal/errors"
)

var (
	invalidChars       = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)
	repeatedUnderscore = regexp.MustCompile(`_+`)
	alphanumeric       = regexp.MustCompile(`[A-Za-z0-9]`)
)

// SanitizedBranch keeps a branch name together with its filesystem-safe form.
type SanitizedBranch struct {
	Original  string
	Sanitized string
}

// Sanitize replaces every run of characters outside [A-Za-z0-9._-] with a
// single underscore and collapses repeated underscores. It reports false when
// no ASCII letter or digit survives.
func Sanitize(name string) (string, bool) {
	s := invalidChars.ReplaceAllString(name, "_")
	s = repeatedUnderscore.ReplaceAllString(s, "_")
	if !alphanumeric.MatchString(s) {
		return "", false
	}
	return s, true
}

// SanitizeBranchName sanitizes a user-supplied branch name.
// e.g. "feature/login:QA fix" becomes "feature_login_QA_fix".
func SanitizeBranchName(name string) (SanitizedBranch, error) {
	s, ok := Sanitize(name)
	if !ok {
		return SanitizedBranch{}, errors.NewConfigError("branch name cannot be converted to a safe directory name").
			WithField("branch").
			WithValue(name)
	}
	return SanitizedBranch{Original: name, Sanitized: s}, nil
}

// SanitizeRepositoryName sanitizes a repository directory name with the same rule.
func SanitizeRepositoryName(name string) (string, error) {
	s, ok := Sanitize(name)
	if !ok {
		return "", errors.NewConfigError("repository name cannot be converted to a safe directory name").
			WithField("repository").
			WithValue(name)
	}
	return s, nil
}

// Ref returns the fully qualified ref for a branch name. Names that already
// start with "refs/" are returned unchanged.
func Ref(name string) string {
	if strings.HasPrefix(name, "refs/") {
		return name
	}
	return "refs/heads/" + name
}

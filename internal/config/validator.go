package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Iron-Ham/devlaunch/internal/logging"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "chrome.launch_timeout")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errs
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errs:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Validate checks the Config for invalid values and returns all validation errs found
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	errs = append(errs, c.validateChrome()...)
	errs = append(errs, validatePath("profile.root_dir", c.Profile.RootDir)...)
	errs = append(errs, c.validateWorktree()...)
	errs = append(errs, c.validateLogging()...)

	return errs
}

// validateChrome validates the ChromeConfig
func (c *Config) validateChrome() []ValidationError {
	var errs []ValidationError

	if c.Chrome.LaunchTimeout <= 0 {
		errs = append(errs, invalid("chrome.launch_timeout", c.Chrome.LaunchTimeout, "must be positive"))
	}

	if c.Chrome.StopGrace < 0 {
		errs = append(errs, invalid("chrome.stop_grace", c.Chrome.StopGrace, "must be non-negative"))
	}

	if c.Chrome.Path != "" {
		errs = append(errs, validatePath("chrome.path", c.Chrome.Path)...)
	}

	return errs
}

// validateWorktree validates the WorktreeConfig
func (c *Config) validateWorktree() []ValidationError {
	errs := validatePath("worktree.base_dir", c.Worktree.BaseDir)

	if strings.TrimSpace(c.Worktree.GitBinary) == "" {
		errs = append(errs, invalid("worktree.git_binary", c.Worktree.GitBinary, "must not be empty"))
	}

	return errs
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errs []ValidationError

	if c.Logging.Level != "" && !slices.Contains(logging.ValidLevels(), strings.ToUpper(c.Logging.Level)) {
		levels := strings.ToLower(strings.Join(logging.ValidLevels(), ", "))
		errs = append(errs, invalid("logging.level", c.Logging.Level, "must be one of: "+levels))
	}

	if c.Logging.MaxSizeMB <= 0 {
		errs = append(errs, invalid("logging.max_size_mb", c.Logging.MaxSizeMB, "must be positive"))
	}

	const maxLogSizeMB = 1000
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errs = append(errs, invalid("logging.max_size_mb", c.Logging.MaxSizeMB, fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB)))
	}

	if c.Logging.MaxBackups < 0 {
		errs = append(errs, invalid("logging.max_backups", c.Logging.MaxBackups, "must be non-negative"))
	}

	return errs
}

func invalid(field string, value any, message string) ValidationError {
	return ValidationError{Field: field, Value: value, Message: message}
}

func validatePath(field, path string) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(path) == "" {
		return append(errs, invalid(field, path, "must not be empty"))
	}

	if strings.ContainsRune(path, '\x00') {
		errs = append(errs, invalid(field, path, "path contains invalid null character"))
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		errs = append(errs, invalid(field, path, fmt.Sprintf("path exceeds maximum length of %d characters", maxPathLength)))
	}

	return errs
}

// Package errors provides centralized error definitions and error handling utilities
// for devlaunch. It defines sentinel errors, domain error types with context
// builders, and the mapping from error kinds to process exit codes.
//
// # Error Kinds
//
// Every domain error reports a [Kind]. Kinds form a closed set and each one maps
// to exactly one process exit code through [ExitCode]:
//
//   - KindGeneral: anything not otherwise classified (exit 1)
//   - KindConfiguration: invalid input, unsafe names, directory permissions (exit 2)
//   - KindPortConflict: requested port occupied or unusable (exit 3)
//   - KindProfileLocked: profile lock file present or profile in use (exit 4)
//   - KindExecutableNotFound: no usable browser binary (exit 5)
//   - KindLaunchFailed: spawn error, readiness timeout, early exit, missing PID (exit 6)
//   - KindNotARepository, KindBranchNotFound, KindWorktreeConflict: git preconditions
//   - KindCommandNotFound, KindCommandFailed: external command failures
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewPortConflictError(9222, "address already in use", []int{9223, 9224, 9225})
//	err := errors.NewGitError("failed to list worktrees", cause).WithRepository(root)
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrTimeout) { ... }
//
//	var portErr *errors.PortConflictError
//	if errors.As(err, &portErr) { ... }
//
//	os.Exit(errors.ExitCode(err))
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Kinds and Exit Codes
// -----------------------------------------------------------------------------

// Kind is the discriminant of a domain error.
type Kind int

const (
	KindGeneral Kind = iota
	KindConfiguration
	KindPortConflict
	KindProfileLocked
	KindExecutableNotFound
	KindLaunchFailed
	KindNotARepository
	KindBranchNotFound
	KindWorktreeConflict
	KindCommandNotFound
	KindCommandFailed
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindPortConflict:
		return "port conflict"
	case KindProfileLocked:
		return "profile locked"
	case KindExecutableNotFound:
		return "executable not found"
	case KindLaunchFailed:
		return "launch failed"
	case KindNotARepository:
		return "not a repository"
	case KindBranchNotFound:
		return "branch not found"
	case KindWorktreeConflict:
		return "worktree conflict"
	case KindCommandNotFound:
		return "command not found"
	case KindCommandFailed:
		return "command failed"
	default:
		return "general"
	}
}

// Process exit codes.
const (
	ExitSuccess            = 0
	ExitGeneral            = 1
	ExitConfiguration      = 2
	ExitPortConflict       = 3
	ExitProfileLocked      = 4
	ExitExecutableNotFound = 5
	ExitLaunchFailed       = 6
)

// exitCodes maps every kind to its exit code. Kinds missing from the table
// exit with ExitGeneral.
var exitCodes = map[Kind]int{
	KindGeneral:            ExitGeneral,
	KindConfiguration:      ExitConfiguration,
	KindPortConflict:       ExitPortConflict,
	KindProfileLocked:      ExitProfileLocked,
	KindExecutableNotFound: ExitExecutableNotFound,
	KindLaunchFailed:       ExitLaunchFailed,
	KindNotARepository:     ExitConfiguration,
	KindBranchNotFound:     ExitConfiguration,
	KindWorktreeConflict:   ExitConfiguration,
	KindCommandNotFound:    ExitExecutableNotFound,
	KindCommandFailed:      ExitGeneral,
}

// ExitCodeForKind returns the exit code for a kind.
func ExitCodeForKind(k Kind) int {
	if code, ok := exitCodes[k]; ok {
		return code
	}
	return ExitGeneral
}

// KindOf returns the kind of the first domain error in err's chain,
// or KindGeneral when there is none.
func KindOf(err error) Kind {
	var de DomainError
	if As(err, &de) {
		return de.Kind()
	}
	return KindGeneral
}

// ExitCode returns the process exit code for err. A nil error exits with ExitSuccess.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	return ExitCodeForKind(KindOf(err))
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Session-related sentinel errors
var (
	// ErrSessionNotFound indicates that a session could not be found.
	ErrSessionNotFound = New("session not found")
	// ErrProfileLocked indicates that a profile is locked by another session.
	ErrProfileLocked = New("profile is locked")
)

// Launch-related sentinel errors
var (
	// ErrExecutableNotFound indicates that no browser executable was found.
	ErrExecutableNotFound = New("executable not found")
	// ErrLaunchFailed indicates that a child process failed to become ready.
	ErrLaunchFailed = New("launch failed")
	// ErrPortUnavailable indicates that a port could not be used.
	ErrPortUnavailable = New("port unavailable")
	// ErrMissingPID indicates that a started process did not expose a PID.
	ErrMissingPID = New("process id unavailable")
	// ErrUnexpectedExit indicates that a child exited before it became ready.
	ErrUnexpectedExit = New("process exited unexpectedly")
)

// Git-related sentinel errors
var (
	// ErrNotGitRepository indicates that the directory is not a git repository.
	ErrNotGitRepository = New("not a git repository")
	// ErrBranchNotFound indicates that a branch could not be found.
	ErrBranchNotFound = New("branch not found")
	// ErrWorktreeExists indicates that a worktree already exists.
	ErrWorktreeExists = New("worktree already exists")
	// ErrCommandNotFound indicates that an external binary is not installed.
	ErrCommandNotFound = New("command not found")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// DomainError is the base interface for all devlaunch errors.
type DomainError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Kind returns the discriminant used for exit code mapping.
	Kind() Kind

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	kind       Kind
	severity   Severity
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Kind returns the error kind.
func (e *baseError) Kind() Kind {
	return e.kind
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

func newBase(kind Kind, message string, cause error) baseError {
	return baseError{
		message:    message,
		cause:      cause,
		kind:       kind,
		severity:   SeverityError,
		userFacing: true,
	}
}

// -----------------------------------------------------------------------------
// Configuration Errors
// -----------------------------------------------------------------------------

// ConfigError represents invalid CLI input, an unsafe sanitization result,
// or a directory that cannot be created or written.
//
// Example:
//
//	err := errors.NewConfigError("invalid profile name").WithField("profile").WithValue("Dev")
type ConfigError struct {
	baseError
	Field string
	Value any
}

// NewConfigError creates a new ConfigError.
func NewConfigError(message string) *ConfigError {
	b := newBase(KindConfiguration, message, nil)
	b.severity = SeverityWarning
	return &ConfigError{baseError: b}
}

// WithField adds a field name to the error context.
func (e *ConfigError) WithField(field string) *ConfigError {
	e.Field = field
	return e
}

// WithValue adds the offending value to the error context.
func (e *ConfigError) WithValue(value any) *ConfigError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ConfigError) WithCause(cause error) *ConfigError {
	e.cause = cause
	return e
}

// Is checks if this error matches the target.
func (e *ConfigError) Is(target error) bool {
	if _, ok := target.(*ConfigError); ok {
		return true
	}
	if target == ErrInvalidInput {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Chrome Launch Errors
// -----------------------------------------------------------------------------

// PortConflictError represents a requested port that is occupied or unusable.
// Suggestions holds alternative ports the user can try.
type PortConflictError struct {
	baseError
	Port        int
	Reason      string
	Suggestions []int
}

// NewPortConflictError creates a new PortConflictError.
func NewPortConflictError(port int, reason string, suggestions []int) *PortConflictError {
	b := newBase(KindPortConflict, fmt.Sprintf("port %d is not available", port), nil)
	b.severity = SeverityWarning
	return &PortConflictError{
		baseError:   b,
		Port:        port,
		Reason:      reason,
		Suggestions: suggestions,
	}
}

// Error returns the formatted error message.
func (e *PortConflictError) Error() string {
	msg := e.message
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	if len(e.Suggestions) > 0 {
		ports := make([]string, len(e.Suggestions))
		for i, p := range e.Suggestions {
			ports[i] = fmt.Sprintf("%d", p)
		}
		msg = fmt.Sprintf("%s (try: %s)", msg, strings.Join(ports, ", "))
	}
	return msg
}

// Is checks if this error matches the target.
func (e *PortConflictError) Is(target error) bool {
	if target == ErrPortUnavailable {
		return true
	}
	return e.baseError.Is(target)
}

// ProfileLockedError represents a profile that is already in use.
type ProfileLockedError struct {
	baseError
	Profile  string
	LockPath string
}

// NewProfileLockedError creates a new ProfileLockedError.
func NewProfileLockedError(profile string) *ProfileLockedError {
	b := newBase(KindProfileLocked,
		fmt.Sprintf("profile %q is already in use; close Chrome and try again", profile), nil)
	b.severity = SeverityWarning
	return &ProfileLockedError{baseError: b, Profile: profile}
}

// WithLockPath adds the lock file path to the error context.
func (e *ProfileLockedError) WithLockPath(path string) *ProfileLockedError {
	e.LockPath = path
	return e
}

// Is checks if this error matches the target.
func (e *ProfileLockedError) Is(target error) bool {
	if target == ErrProfileLocked {
		return true
	}
	return e.baseError.Is(target)
}

// ExecutableNotFoundError represents a browser binary that could not be located.
type ExecutableNotFoundError struct {
	baseError
	Path string
}

// NewExecutableNotFoundError creates a new ExecutableNotFoundError.
func NewExecutableNotFoundError(message string) *ExecutableNotFoundError {
	return &ExecutableNotFoundError{
		baseError: newBase(KindExecutableNotFound, message, nil),
	}
}

// WithPath adds the rejected executable path to the error context.
func (e *ExecutableNotFoundError) WithPath(path string) *ExecutableNotFoundError {
	e.Path = path
	return e
}

// Is checks if this error matches the target.
func (e *ExecutableNotFoundError) Is(target error) bool {
	if target == ErrExecutableNotFound {
		return true
	}
	return e.baseError.Is(target)
}

// LaunchError represents a child process that failed to reach readiness.
//
// Example:
//
//	err := errors.NewLaunchError("process exited before becoming ready", errors.ErrUnexpectedExit).
//		WithExecutable(path).WithExit(1, "")
type LaunchError struct {
	baseError
	Executable string
	ExitCode   int
	Signal     string
	exited     bool
}

// NewLaunchError creates a new LaunchError.
func NewLaunchError(message string, cause error) *LaunchError {
	return &LaunchError{
		baseError: newBase(KindLaunchFailed, message, cause),
	}
}

// WithExecutable adds the executable path to the error context.
func (e *LaunchError) WithExecutable(path string) *LaunchError {
	e.Executable = path
	return e
}

// WithExit records how the child terminated.
func (e *LaunchError) WithExit(code int, signal string) *LaunchError {
	e.ExitCode = code
	e.Signal = signal
	e.exited = true
	return e
}

// Exited reports whether exit details were recorded.
func (e *LaunchError) Exited() bool {
	return e.exited
}

// Error returns the formatted error message.
func (e *LaunchError) Error() string {
	msg := e.message
	if e.exited {
		signal := e.Signal
		if signal == "" {
			signal = "none"
		}
		msg = fmt.Sprintf("%s (code: %d, signal: %s)", msg, e.ExitCode, signal)
	}
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Is checks if this error matches the target.
func (e *LaunchError) Is(target error) bool {
	if target == ErrLaunchFailed {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Git and Command Errors
// -----------------------------------------------------------------------------

// GitError represents errors related to git operations.
//
// Example:
//
//	err := errors.NewGitError("checkout failed", baseErr).WithBranch("feature-x")
type GitError struct {
	baseError
	Branch     string
	Worktree   string
	Repository string
	GitOutput  string // Captured git command output
}

// NewGitError creates a new GitError.
func NewGitError(message string, cause error) *GitError {
	return &GitError{
		baseError: newBase(KindCommandFailed, message, cause),
	}
}

// NewNotARepositoryError creates a GitError for a directory outside any repository.
func NewNotARepositoryError(output string) *GitError {
	e := NewGitError("run this command inside a git repository", ErrNotGitRepository).
		WithGitOutput(output)
	e.kind = KindNotARepository
	return e
}

// NewBranchNotFoundError creates a GitError for a missing local branch.
func NewBranchNotFoundError(branch, output string) *GitError {
	e := NewGitError(fmt.Sprintf("branch %q does not exist", branch), ErrBranchNotFound).
		WithBranch(branch).
		WithGitOutput(output)
	e.kind = KindBranchNotFound
	return e
}

// WithBranch adds a branch name to the error context.
func (e *GitError) WithBranch(branch string) *GitError {
	e.Branch = branch
	return e
}

// WithWorktree adds a worktree path to the error context.
func (e *GitError) WithWorktree(path string) *GitError {
	e.Worktree = path
	return e
}

// WithRepository adds a repository path to the error context.
func (e *GitError) WithRepository(path string) *GitError {
	e.Repository = path
	return e
}

// WithGitOutput adds git command output to the error context.
func (e *GitError) WithGitOutput(output string) *GitError {
	e.GitOutput = strings.TrimSpace(output)
	return e
}

// Error returns the formatted error message.
func (e *GitError) Error() string {
	var parts []string
	if e.Branch != "" {
		parts = append(parts, fmt.Sprintf("branch=%s", e.Branch))
	}
	if e.Worktree != "" {
		parts = append(parts, fmt.Sprintf("worktree=%s", e.Worktree))
	}
	if e.Repository != "" {
		parts = append(parts, fmt.Sprintf("repo=%s", e.Repository))
	}

	prefix := "git error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("git error [%s]", strings.Join(parts, ", "))
	}

	msg := e.message
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	if e.GitOutput != "" {
		msg = fmt.Sprintf("%s\ngit output: %s", msg, e.GitOutput)
	}

	return fmt.Sprintf("%s: %s", prefix, msg)
}

// ConflictType tells which part of a planned worktree collides with an existing one.
type ConflictType string

const (
	ConflictPath   ConflictType = "path"
	ConflictBranch ConflictType = "branch"
)

// WorktreeConflict describes one collision with an existing worktree.
// BranchRef is only set for ConflictBranch.
type WorktreeConflict struct {
	Type         ConflictType
	ExistingPath string
	BranchRef    string
}

// String renders the conflict as a single list item.
func (c WorktreeConflict) String() string {
	if c.Type == ConflictBranch {
		return fmt.Sprintf("- existing worktree branch: %s (path: %s)", c.BranchRef, c.ExistingPath)
	}
	return fmt.Sprintf("- existing worktree path: %s", c.ExistingPath)
}

// WorktreeConflictError is returned when a planned worktree collides with existing ones.
type WorktreeConflictError struct {
	baseError
	Conflicts []WorktreeConflict
}

// NewWorktreeConflictError creates a new WorktreeConflictError.
func NewWorktreeConflictError(conflicts []WorktreeConflict) *WorktreeConflictError {
	b := newBase(KindWorktreeConflict, "planned worktree collides with an existing worktree", nil)
	b.severity = SeverityWarning
	return &WorktreeConflictError{baseError: b, Conflicts: conflicts}
}

// Error returns the formatted error message.
func (e *WorktreeConflictError) Error() string {
	lines := make([]string, 0, len(e.Conflicts)+1)
	lines = append(lines, e.message)
	for _, c := range e.Conflicts {
		lines = append(lines, c.String())
	}
	return strings.Join(lines, "\n")
}

// Is checks if this error matches the target.
func (e *WorktreeConflictError) Is(target error) bool {
	if target == ErrWorktreeExists {
		return true
	}
	return e.baseError.Is(target)
}

// CommandError represents an external command that ran and failed.
// ExitCode is -1 when the process was terminated by a signal.
type CommandError struct {
	baseError
	Binary   string
	Args     []string
	Stderr   string
	ExitCode int
	Signal   string
}

// NewCommandError creates a new CommandError.
func NewCommandError(binary string, args []string, cause error) *CommandError {
	return &CommandError{
		baseError: newBase(KindCommandFailed,
			fmt.Sprintf("command failed: %s %s", binary, strings.Join(args, " ")), cause),
		Binary: binary,
		Args:   append([]string(nil), args...),
	}
}

// WithStderr adds the accumulated stderr to the error context.
func (e *CommandError) WithStderr(stderr string) *CommandError {
	e.Stderr = stderr
	return e
}

// WithExit records how the command terminated.
func (e *CommandError) WithExit(code int, signal string) *CommandError {
	e.ExitCode = code
	e.Signal = signal
	return e
}

// Error returns the formatted error message.
func (e *CommandError) Error() string {
	msg := e.message
	if e.Signal != "" {
		msg = fmt.Sprintf("%s (signal: %s)", msg, e.Signal)
	} else {
		msg = fmt.Sprintf("%s (exit code: %d)", msg, e.ExitCode)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg = fmt.Sprintf("%s\n%s", msg, stderr)
	}
	return msg
}

// CommandNotFoundError represents an external binary that is not installed.
type CommandNotFoundError struct {
	baseError
	Binary string
}

// NewCommandNotFoundError creates a new CommandNotFoundError.
func NewCommandNotFoundError(binary string, cause error) *CommandNotFoundError {
	return &CommandNotFoundError{
		baseError: newBase(KindCommandNotFound,
			fmt.Sprintf("%s command not found; install %s and try again", binary, binary), cause),
		Binary: binary,
	}
}

// Error returns the formatted error message.
func (e *CommandNotFoundError) Error() string {
	return e.message
}

// Is checks if this error matches the target.
func (e *CommandNotFoundError) Is(target error) bool {
	if target == ErrCommandNotFound {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("session", "abc123")
//	fmt.Println(err) // "session 'abc123' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	b := newBase(KindGeneral, fmt.Sprintf("%s '%s' not found", resourceType, resourceID), nil)
	b.severity = SeverityWarning
	// Lookups by internal id only fail on programming errors.
	b.userFacing = false
	return &NotFoundError{
		baseError:    b,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	if e.ResourceType == "session" && target == ErrSessionNotFound {
		return true
	}
	return e.baseError.Is(target)
}

// TimeoutError represents an operation that timed out.
//
// Example:
//
//	err := errors.NewTimeoutError("waiting for DevTools endpoint", 30*time.Second)
//	fmt.Println(err) // "timeout error: waiting for DevTools endpoint (timeout: 30s)"
type TimeoutError struct {
	baseError
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	b := newBase(KindGeneral, operation, nil)
	b.severity = SeverityWarning
	return &TimeoutError{
		baseError: b,
		Operation: operation,
		Duration:  duration,
	}
}

// Error returns the formatted error message.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout error: %s (timeout: %s)", e.Operation, e.Duration)
}

// Is checks if this error matches the target.
func (e *TimeoutError) Is(target error) bool {
	if _, ok := target.(*TimeoutError); ok {
		return true
	}
	if target == ErrTimeout {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Classification
// -----------------------------------------------------------------------------

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	var de DomainError
	if As(err, &de) {
		return de.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement DomainError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}
	var de DomainError
	if As(err, &de) {
		return de.Severity()
	}
	return SeverityError
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
// Unlike a bare fmt.Errorf, this keeps the DomainError reachable through errors.As.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to process request")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

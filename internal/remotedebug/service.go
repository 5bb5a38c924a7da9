// Package remotedebug orchestrates Chrome remote-debugging sessions: profile
// preparation, port allocation, launch, and teardown.
package remotedebug

import (
	"context"
	"sync"
	"time"

	"github.com/Iron-Ham/devlaunch/internal/chrome"
	"github.com/Iron-Ham/devlaunch/internal/errors"
	"github.com/Iron-Ham/devlaunch/internal/launcher"
	"github.com/Iron-Ham/devlaunch/internal/logging"
	"github.com/Iron-Ham/devlaunch/internal/port"
	"github.com/Iron-Ham/devlaunch/internal/profile"
	"github.com/Iron-Ham/devlaunch/internal/session"
)

// DefaultStopGrace is how long Chrome gets to exit after SIGTERM.
const DefaultStopGrace = 5 * time.Second

// ProcessLauncher starts a child and waits for its readiness marker.
type ProcessLauncher interface {
	Launch(ctx context.Context, spec launcher.Spec) (*launcher.Process, error)
}

// ExecutableDetector resolves the Chrome executable.
type ExecutableDetector interface {
	Detect(override string) (string, error)
}

// Request describes a session to create.
type Request struct {
	URL            string
	ProfileName    string
	Port           *int // nil lets the OS choose
	ChromePath     string
	AdditionalArgs []string
	// Detached starts Chrome in its own session so it outlives the caller.
	Detached bool
}

// ProfileDescriptor describes the profile a session runs in.
type ProfileDescriptor struct {
	Name          string
	DataDirectory string
	Locked        bool
	// LastLaunchedAt is this launch's time.
	LastLaunchedAt *time.Time
	// PreviousLaunchAt is the launch before this one; nil on first launch.
	PreviousLaunchAt *time.Time
}

// Response is returned by CreateSession.
type Response struct {
	SessionID      string
	Port           int
	WSEndpoint     string
	Profile        ProfileDescriptor
	LaunchDuration time.Duration
	PID            int
	RejectedFlags  []string
}

// ProfileStatus reports a profile's on-disk state and any session running
// in it.
type ProfileStatus struct {
	Profile *profile.State
	// Lock is the parsed lock file, nil when unlocked or unreadable.
	Lock *profile.Lock
	// LockAlive reports whether a process recorded in the lock is running.
	LockAlive bool
	// Session is the in-process session for the profile, if any.
	Session *session.Snapshot
}

type activeSession struct {
	session *session.Session
	process *launcher.Process
	lock    *profile.Lock
}

// Service creates and ends remote-debugging sessions.
type Service struct {
	registry  *session.Registry
	profiles  *profile.Store
	detector  ExecutableDetector
	launcher  ProcessLauncher
	logger    *logging.Logger
	timeout   time.Duration
	stopGrace time.Duration
	now       func() time.Time

	mu     sync.Mutex
	active map[string]*activeSession
}

// Option configures a Service.
type Option func(*Service)

// WithLaunchTimeout sets how long Chrome has to print its DevTools endpoint.
func WithLaunchTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithStopGrace sets the SIGTERM to SIGKILL grace period.
func WithStopGrace(d time.Duration) Option {
	return func(s *Service) { s.stopGrace = d }
}

// WithDetector replaces the platform executable detector.
func WithDetector(d ExecutableDetector) Option {
	return func(s *Service) { s.detector = d }
}

// WithLauncher replaces the process launcher.
func WithLauncher(l ProcessLauncher) Option {
	return func(s *Service) { s.launcher = l }
}

// NewService creates a Service. The registry is shared with the caller.
func NewService(registry *session.Registry, profiles *profile.Store, logger *logging.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.NopLogger()
	}
	s := &Service{
		registry:  registry,
		profiles:  profiles,
		detector:  chrome.NewDetector(),
		launcher:  launcher.New(logger),
		logger:    logger.WithComponent("remotedebug"),
		timeout:   launcher.DefaultTimeout,
		stopGrace: DefaultStopGrace,
		now:       time.Now,
		active:    make(map[string]*activeSession),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession launches Chrome for req and returns once its DevTools
// endpoint is known. The profile stays locked until EndSession.
func (s *Service) CreateSession(ctx context.Context, req Request) (*Response, error) {
	start := s.now()

	if err := chrome.ValidateURL(req.URL); err != nil {
		return nil, err
	}
	if err := profile.ValidateName(req.ProfileName); err != nil {
		return nil, err
	}
	if req.Port != nil {
		if err := port.ValidateRange(*req.Port); err != nil {
			return nil, err
		}
	}

	logger := s.logger.WithProfile(req.ProfileName)

	if existing, ok := s.registry.FindByProfile(req.ProfileName); ok {
		logger.Warn("profile already has an active session", "session_id", existing.ID)
		return nil, errors.NewProfileLockedError(req.ProfileName)
	}

	executable, err := s.detector.Detect(req.ChromePath)
	if err != nil {
		return nil, err
	}

	state, err := s.profiles.Prepare(req.ProfileName)
	if err != nil {
		return nil, err
	}
	previousLaunch := state.LastLaunchedAt

	allocation, err := port.AutoAllocate(req.Port)
	if err != nil {
		return nil, err
	}
	if !allocation.Available() {
		return nil, errors.NewPortConflictError(
			allocation.Port,
			allocation.ErrorMessage,
			port.SuggestAlternatives(allocation.Port),
		)
	}

	flags := chrome.FilterSafeFlags(chrome.NormalizeFlags(req.AdditionalArgs))
	if len(flags.Rejected) > 0 {
		logger.Warn("rejected unsafe chrome flags", "flags", flags.Rejected)
	}
	args := chrome.BuildArguments(chrome.Arguments{
		Port:        allocation.Port,
		UserDataDir: state.DataDirectory,
		URL:         req.URL,
		Extra:       flags.Allowed,
	})

	sess := session.New(req.ProfileName, req.URL, allocation.Port)
	logger = logger.WithSession(sess.ID)

	if err := s.registry.Register(sess); err != nil {
		return nil, registerError(req.ProfileName, err)
	}

	lock, err := s.profiles.AcquireLock(req.ProfileName, sess.ID)
	if err != nil {
		sess.MarkFailed()
		s.registry.Unregister(sess.ID)
		return nil, err
	}

	logger.Info("launching chrome",
		"executable", executable,
		"port", allocation.Port,
		"requested_by_user", allocation.RequestedByUser,
	)

	proc, err := s.launcher.Launch(ctx, launcher.Spec{
		Path:     executable,
		Args:     args,
		Matcher:  launcher.DevToolsMatcher(),
		Timeout:  s.timeout,
		Detached: req.Detached,
	})
	if err != nil {
		sess.MarkFailed()
		s.registry.Unregister(sess.ID)
		if releaseErr := lock.Release(); releaseErr != nil {
			logger.Warn("failed to release profile lock", "error", releaseErr.Error())
		}
		logger.Failure("chrome launch failed", err)
		return nil, err
	}

	sess.MarkReady(proc.Endpoint, proc.PID)
	if err := lock.SetChromePID(proc.PID); err != nil {
		logger.Warn("failed to record chrome pid in lock", "error", err.Error())
	}

	launchedAt := sess.LaunchedAt
	if updated, err := s.profiles.UpdateLastLaunchedAt(req.ProfileName, launchedAt); err != nil {
		logger.Warn("failed to update profile metadata", "error", err.Error())
	} else if updated.LastLaunchedAt != nil {
		launchedAt = *updated.LastLaunchedAt
	}

	s.mu.Lock()
	s.active[sess.ID] = &activeSession{session: sess, process: proc, lock: lock}
	s.mu.Unlock()

	duration := s.now().Sub(start)
	logger.Info("chrome ready",
		"pid", proc.PID,
		"ws_endpoint", proc.Endpoint,
		"launch_duration_ms", duration.Milliseconds(),
	)

	return &Response{
		SessionID:  sess.ID,
		Port:       allocation.Port,
		WSEndpoint: proc.Endpoint,
		Profile: ProfileDescriptor{
			Name:             req.ProfileName,
			DataDirectory:    state.DataDirectory,
			Locked:           true,
			LastLaunchedAt:   &launchedAt,
			PreviousLaunchAt: previousLaunch,
		},
		LaunchDuration: duration,
		PID:            proc.PID,
		RejectedFlags:  flags.Rejected,
	}, nil
}

// registerError maps a registry rejection: a profile collision means the
// profile is in use, anything else (an id collision) is a launch failure.
func registerError(profileName string, err error) error {
	if errors.Is(err, session.ErrDuplicateProfile) {
		return errors.NewProfileLockedError(profileName)
	}
	return errors.NewLaunchError("failed to register session", err)
}

// take removes a session from the active set so only one caller tears it
// down.
func (s *Service) take(id string) (*activeSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.active[id]
	if ok {
		delete(s.active, id)
	}
	return a, ok
}

func (s *Service) lookup(id string) (*activeSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.active[id]
	return a, ok
}

// EndSession stops Chrome if it is still running, releases the profile
// lock, and forgets the session.
func (s *Service) EndSession(ctx context.Context, id string) error {
	a, ok := s.take(id)
	if !ok {
		return errors.NewNotFoundError("session", id)
	}
	logger := s.logger.WithSession(id).WithProfile(a.session.ProfileName)

	var stopErr error
	if !a.process.Exited() {
		stopped := make(chan error, 1)
		go func() { stopped <- a.process.Stop(s.stopGrace) }()
		select {
		case stopErr = <-stopped:
		case <-ctx.Done():
			stopErr = ctx.Err()
		}
	}
	if stopErr != nil {
		logger.Error("failed to stop chrome", "pid", a.process.PID, "error", stopErr.Error())
	}

	code, signal := a.process.ExitStatus()
	if err := a.lock.Release(); err != nil {
		logger.Warn("failed to release profile lock", "error", err.Error())
	}
	a.session.MarkStopped()
	s.registry.Unregister(id)

	logger.Info("session ended", "pid", a.process.PID, "exit_code", code, "signal", signal)
	if stopErr != nil {
		return errors.Wrapf(stopErr, "failed to stop chrome (pid %d)", a.process.PID)
	}
	return nil
}

// Wait blocks until Chrome exits, then ends the session. If ctx is done
// first the session is left running and ctx.Err() is returned.
func (s *Service) Wait(ctx context.Context, id string) error {
	a, ok := s.lookup(id)
	if !ok {
		return errors.NewNotFoundError("session", id)
	}

	select {
	case <-a.process.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	code, signal := a.process.ExitStatus()
	s.logger.WithSession(id).Info("chrome exited", "exit_code", code, "signal", signal)

	err := s.EndSession(context.Background(), id)
	if errors.Is(err, errors.ErrSessionNotFound) {
		// Ended concurrently by another caller
		return nil
	}
	return err
}

// Detach forgets a session without stopping Chrome. The profile lock stays
// in place and names the browser's PID, so the profile reads as locked until
// Chrome exits and the lock is cleared.
func (s *Service) Detach(id string) error {
	a, ok := s.take(id)
	if !ok {
		return errors.NewNotFoundError("session", id)
	}
	s.registry.Unregister(id)
	s.logger.WithSession(id).Info("session detached", "pid", a.process.PID, "lock", a.lock.Path())
	return nil
}

// Active returns snapshots of the sessions this Service is tracking.
func (s *Service) Active() []session.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]session.Snapshot, 0, len(s.active))
	for _, a := range s.active {
		out = append(out, a.session.Snapshot())
	}
	return out
}

// ProfileStatus returns the profile's state and whoever holds it.
func (s *Service) ProfileStatus(name string) (*ProfileStatus, error) {
	state, err := s.profiles.State(name)
	if err != nil {
		return nil, err
	}

	status := &ProfileStatus{Profile: state}
	if state.Locked {
		lock, _, err := s.profiles.ReadLock(name)
		if err != nil {
			s.logger.WithProfile(name).Warn("lock file unreadable", "error", err.Error())
		} else if lock != nil {
			status.Lock = lock
			status.LockAlive = lock.Alive()
		}
	}
	if sess, ok := s.registry.FindByProfile(name); ok {
		snap := sess.Snapshot()
		status.Session = &snap
	}
	return status, nil
}

// Shutdown ends every active session.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	ids := make([]string, 0, len(s.active))
	for id := range s.active {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := s.EndSession(ctx, id); err != nil && !errors.Is(err, errors.ErrSessionNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

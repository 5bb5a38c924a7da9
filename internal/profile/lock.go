package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Iron-Ham/devlaunch/internal/errors"
	"github.com/Iron-Ham/devlaunch/internal/logging"
	"github.com/Iron-Ham/devlaunch/internal/util"
)

// Lock records which session holds a profile. Its presence on disk is what
// marks the profile as locked.
type Lock struct {
	SessionID string    `json:"sessionId"`
	PID       int       `json:"pid"`
	ChromePID int       `json:"chromePid,omitempty"`
	Hostname  string    `json:"hostname"`
	StartedAt time.Time `json:"startedAt"`

	// Internal fields (not serialized)
	path   string
	logger *logging.Logger
}

// AcquireLock creates the profile's lock file for sessionID. An existing
// lock file is never replaced, stale or not; see ClearStaleLock.
func (s *Store) AcquireLock(name, sessionID string) (*Lock, error) {
	paths, err := s.Paths(name)
	if err != nil {
		return nil, err
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	lock := &Lock{
		SessionID: sessionID,
		PID:       os.Getpid(),
		Hostname:  hostname,
		StartedAt: s.now().UTC(),
		path:      paths.LockFile,
		logger:    s.logger,
	}

	data, err := lock.encode()
	if err != nil {
		return nil, err
	}

	// O_EXCL makes concurrent launches of the same profile race safely
	f, err := os.OpenFile(paths.LockFile, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			reason := "lock file exists"
			if existing, readErr := ReadLock(paths.LockFile); readErr == nil {
				reason = fmt.Sprintf("locked by session %s (PID %d on %s)", existing.SessionID, existing.PID, existing.Hostname)
			}
			s.logger.Error("failed to acquire lock",
				"profile", name,
				"session_id", sessionID,
				"reason", reason,
			)
			return nil, errors.NewProfileLockedError(name).WithLockPath(paths.LockFile)
		}
		return nil, errors.NewConfigError(fmt.Sprintf("cannot create lock file: %s", paths.LockFile)).WithCause(err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		_ = os.Remove(paths.LockFile)
		return nil, errors.Wrap(err, "failed to write lock file")
	}

	s.logger.Info("profile lock acquired",
		"profile", name,
		"session_id", sessionID,
		"pid", lock.PID,
	)
	return lock, nil
}

func (l *Lock) encode() ([]byte, error) {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal lock")
	}
	return append(data, '\n'), nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// SetChromePID records the browser's PID in the lock file.
func (l *Lock) SetChromePID(pid int) error {
	l.ChromePID = pid
	data, err := l.encode()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), LockFileName+".*")
	if err != nil {
		return errors.Wrap(err, "failed to update lock file")
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, "failed to update lock file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, "failed to update lock file")
	}
	if err := os.Rename(tmpPath, l.path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, "failed to update lock file")
	}
	return nil
}

// Release removes the lock file if it still belongs to this lock's session.
// Safe to call multiple times.
func (l *Lock) Release() error {
	if l == nil || l.path == "" {
		return nil
	}

	existing, err := ReadLock(l.path)
	if err != nil {
		// Lock file doesn't exist or can't be read - nothing to do
		return nil
	}
	if existing.SessionID != l.SessionID {
		return nil
	}

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove lock file")
	}

	if l.logger != nil {
		l.logger.Info("profile lock released", "session_id", l.SessionID)
	}
	return nil
}

// Alive reports whether the launching process or the browser it started is
// still running. Locks written on another host are always considered alive.
func (l *Lock) Alive() bool {
	if hostname, err := os.Hostname(); err == nil && l.Hostname != "" && l.Hostname != hostname {
		return true
	}
	if l.PID > 0 && util.IsProcessAlive(l.PID) {
		return true
	}
	return l.ChromePID > 0 && util.IsProcessAlive(l.ChromePID)
}

// ReadLock reads a lock file and returns the Lock info.
func ReadLock(path string) (*Lock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var lock Lock
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, errors.Wrap(err, "failed to parse lock file")
	}
	lock.path = path
	return &lock, nil
}

// ReadLock returns the lock currently held on a profile. The second result
// is false when the profile is not locked.
func (s *Store) ReadLock(name string) (*Lock, bool, error) {
	paths, err := s.Paths(name)
	if err != nil {
		return nil, false, err
	}
	lock, err := ReadLock(paths.LockFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, true, err
	}
	return lock, true, nil
}

// ClearStaleLock removes a profile's lock file when no process recorded in
// it is still running. It returns false when there was no lock to clear and
// a ProfileLockedError when the holder is alive or the file is unreadable.
// With force the lock file is removed regardless.
func (s *Store) ClearStaleLock(name string, force bool) (bool, error) {
	paths, err := s.Paths(name)
	if err != nil {
		return false, err
	}

	lock, err := ReadLock(paths.LockFile)
	switch {
	case err == nil:
		if lock.Alive() && !force {
			return false, errors.NewProfileLockedError(name).WithLockPath(paths.LockFile)
		}
	case os.IsNotExist(err):
		return false, nil
	case !force:
		return false, errors.NewProfileLockedError(name).WithLockPath(paths.LockFile)
	}

	if err := os.Remove(paths.LockFile); err != nil && !os.IsNotExist(err) {
		return false, errors.Wrap(err, "failed to remove stale lock")
	}

	s.logger.Warn("stale lock cleaned", "profile", name, "forced", force)
	return true, nil
}

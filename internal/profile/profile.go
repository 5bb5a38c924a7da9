// Package profile manages per-profile Chrome user data directories under a
// root directory (default ~/.ih-dopen): name validation, directory checks,
// launch metadata, and the session lock file.
package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"golang.org/x/sys/unix"

	"github.com/Iron-Ham/devlaunch/internal/errors"
	"github.com/Iron-Ham/devlaunch/internal/logging"
)

const (
	// DefaultRootDirName is the directory under $HOME holding all profiles.
	DefaultRootDirName = ".ih-dopen"
	// LockFileName marks a profile as in use.
	LockFileName = "session.lock"
	// MetadataFileName holds creation and launch timestamps.
	MetadataFileName = "profile.json"
	// MaxNameLength is the longest accepted profile name.
	MaxNameLength = 64
)

var namePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// ValidateName checks that name is 1-64 characters of lowercase letters,
// digits, hyphens and underscores.
func ValidateName(name string) error {
	var reason string
	switch {
	case name == "":
		reason = "profile name must not be empty"
	case len(name) > MaxNameLength:
		reason = fmt.Sprintf("profile name must be at most %d characters", MaxNameLength)
	case !namePattern.MatchString(name):
		reason = "profile name may only contain lowercase letters, digits, '-' and '_'"
	default:
		return nil
	}
	return errors.NewConfigError(reason).WithField("profile").WithValue(name)
}

// DefaultRootDir returns ~/.ih-dopen.
func DefaultRootDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.NewConfigError("cannot determine home directory").WithCause(err)
	}
	return filepath.Join(home, DefaultRootDirName), nil
}

// Paths locates the files belonging to one profile.
type Paths struct {
	DataDirectory string
	LockFile      string
	MetadataFile  string
}

// DirectoryState is the result of EnsureDirectory.
type DirectoryState struct {
	DataDirectory string
	LockFilePath  string
	Locked        bool
}

// Metadata is the JSON document stored in profile.json.
type Metadata struct {
	ProfileName    string     `json:"profileName"`
	CreatedAt      *time.Time `json:"createdAt"`
	LastLaunchedAt *time.Time `json:"lastLaunchedAt"`
}

// State combines directory state and metadata for a profile.
type State struct {
	Name           string
	DataDirectory  string
	LockFilePath   string
	Locked         bool
	CreatedAt      time.Time
	LastLaunchedAt *time.Time
}

// Store manages profiles below a root directory.
type Store struct {
	root   string
	logger *logging.Logger
	now    func() time.Time
}

// NewStore creates a Store rooted at root. A nil logger discards output.
func NewStore(root string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Store{
		root:   root,
		logger: logger.WithComponent("profile"),
		now:    time.Now,
	}
}

// Root returns the directory holding all profiles.
func (s *Store) Root() string {
	return s.root
}

// Paths validates name and returns the profile's file locations.
func (s *Store) Paths(name string) (Paths, error) {
	if err := ValidateName(name); err != nil {
		return Paths{}, err
	}
	dataDir := filepath.Join(s.root, name)
	return Paths{
		DataDirectory: dataDir,
		LockFile:      filepath.Join(dataDir, LockFileName),
		MetadataFile:  filepath.Join(dataDir, MetadataFileName),
	}, nil
}

// EnsureDirectory creates the root and profile directories when missing,
// checks that both are writable directories, and reports whether the lock
// file is present.
func (s *Store) EnsureDirectory(name string) (DirectoryState, error) {
	paths, err := s.Paths(name)
	if err != nil {
		return DirectoryState{}, err
	}

	if err := ensureWritableDir(s.root, "profile root directory"); err != nil {
		return DirectoryState{}, err
	}
	if err := ensureWritableDir(paths.DataDirectory, "profile directory"); err != nil {
		return DirectoryState{}, err
	}

	return DirectoryState{
		DataDirectory: paths.DataDirectory,
		LockFilePath:  paths.LockFile,
		Locked:        s.lockPresent(paths.LockFile),
	}, nil
}

func ensureWritableDir(dir, what string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewConfigError(fmt.Sprintf("cannot create %s: %s", what, dir)).WithCause(err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return errors.NewConfigError(fmt.Sprintf("cannot inspect %s: %s", what, dir)).WithCause(err)
	}
	if !info.IsDir() {
		return errors.NewConfigError(fmt.Sprintf("%s is not a directory: %s", what, dir))
	}
	if err := unix.Access(dir, unix.W_OK); err != nil {
		return errors.NewConfigError(fmt.Sprintf("%s is not writable: %s", what, dir)).WithCause(err)
	}
	return nil
}

// lockPresent treats any failure other than "does not exist" as locked.
func (s *Store) lockPresent(lockPath string) bool {
	_, err := os.Lstat(lockPath)
	switch {
	case err == nil:
		return true
	case os.IsNotExist(err):
		return false
	default:
		s.logger.Warn("lock file presence uncertain, treating profile as locked",
			"path", lockPath,
			"error", err.Error(),
		)
		return true
	}
}

// State returns the profile's directory state and metadata, creating the
// directory and metadata when missing.
func (s *Store) State(name string) (*State, error) {
	dirState, err := s.EnsureDirectory(name)
	if err != nil {
		return nil, err
	}

	metadataPath := filepath.Join(dirState.DataDirectory, MetadataFileName)
	meta, err := s.loadOrCreateMetadata(metadataPath, name)
	if err != nil {
		return nil, err
	}
	return newState(name, dirState, meta), nil
}

// Prepare returns the profile state, or a ProfileLockedError when the
// profile's lock file is present.
func (s *Store) Prepare(name string) (*State, error) {
	state, err := s.State(name)
	if err != nil {
		return nil, err
	}
	if state.Locked {
		return nil, errors.NewProfileLockedError(name).WithLockPath(state.LockFilePath)
	}
	return state, nil
}

// UpdateLastLaunchedAt records a launch time in the profile's metadata.
func (s *Store) UpdateLastLaunchedAt(name string, launchedAt time.Time) (*State, error) {
	dirState, err := s.EnsureDirectory(name)
	if err != nil {
		return nil, err
	}

	metadataPath := filepath.Join(dirState.DataDirectory, MetadataFileName)
	meta, err := s.loadOrCreateMetadata(metadataPath, name)
	if err != nil {
		return nil, err
	}

	t := launchedAt.UTC()
	meta.LastLaunchedAt = &t
	if err := writeMetadata(metadataPath, meta); err != nil {
		return nil, err
	}
	return newState(name, dirState, meta), nil
}

// loadOrCreateMetadata reads profile.json. Missing or corrupt metadata is
// replaced with a fresh document.
func (s *Store) loadOrCreateMetadata(path, name string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		var meta Metadata
		if jsonErr := json.Unmarshal(data, &meta); jsonErr == nil && meta.CreatedAt != nil {
			if meta.ProfileName == "" {
				meta.ProfileName = name
			}
			return meta, nil
		}
		s.logger.Warn("profile metadata is corrupt, recreating", "path", path)
	} else if !os.IsNotExist(err) {
		s.logger.Warn("profile metadata unreadable, recreating", "path", path, "error", err.Error())
	}

	now := s.now().UTC()
	meta := Metadata{ProfileName: name, CreatedAt: &now}
	if err := writeMetadata(path, meta); err != nil {
		return Metadata{}, err
	}
	return meta, nil
}

func writeMetadata(path string, meta Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode profile metadata")
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewConfigError(fmt.Sprintf("cannot write profile metadata: %s", path)).WithCause(err)
	}
	return nil
}

func newState(name string, dirState DirectoryState, meta Metadata) *State {
	state := &State{
		Name:           name,
		DataDirectory:  dirState.DataDirectory,
		LockFilePath:   dirState.LockFilePath,
		Locked:         dirState.Locked,
		LastLaunchedAt: meta.LastLaunchedAt,
	}
	if meta.CreatedAt != nil {
		state.CreatedAt = *meta.CreatedAt
	}
	return state
}

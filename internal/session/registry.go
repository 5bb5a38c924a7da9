package session

import (
	"sync"

	"github.com/Iron-Ham/devlaunch/internal/errors"
)

var (
	// ErrDuplicateSessionID is returned when a session id is already registered.
	ErrDuplicateSessionID = errors.New("duplicate session id")
	// ErrDuplicateProfile is returned when a profile already has an active session.
	ErrDuplicateProfile = errors.New("duplicate profile")
)

// Registry indexes active sessions by id and by profile name.
// At most one session exists per id and per profile. It is safe for
// concurrent use and is meant to be created once per process.
type Registry struct {
	mu        sync.RWMutex
	byID      map[string]*Session
	byProfile map[string]*Session
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:      make(map[string]*Session),
		byProfile: make(map[string]*Session),
	}
}

// Register adds s under both keys. It fails without modifying the registry
// if either key is taken.
func (r *Registry) Register(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[s.ID]; ok {
		return errors.Wrapf(ErrDuplicateSessionID, "sessionId %s already in use", s.ID)
	}
	if _, ok := r.byProfile[s.ProfileName]; ok {
		return errors.Wrapf(ErrDuplicateProfile, "profile %s already in use", s.ProfileName)
	}

	r.byID[s.ID] = s
	r.byProfile[s.ProfileName] = s
	return nil
}

// Unregister removes the session with id from both indexes. Unknown ids are ignored.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	if !ok {
		return
	}
	delete(r.byID, id)
	if r.byProfile[s.ProfileName] == s {
		delete(r.byProfile, s.ProfileName)
	}
}

// FindByID returns the session with id, if any.
func (r *Registry) FindByID(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	return s, ok
}

// FindByProfile returns the active session for a profile, if any.
func (r *Registry) FindByProfile(profileName string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byProfile[profileName]
	return s, ok
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Clear removes every session. Only tests call it.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.byID)
	clear(r.byProfile)
}

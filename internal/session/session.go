// Package session models remote debugging sessions and keeps the in-memory
// registry of active ones.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusLaunching Status = "launching"
	StatusReady     Status = "ready"
	StatusFailed    Status = "failed"
	StatusStopped   Status = "stopped"
)

// Session is one Chrome instance launched for a profile.
//
// The identifying fields are fixed at creation. Status, endpoint and PID are
// guarded by a mutex and change once on readiness and once on termination.
type Session struct {
	ID          string
	ProfileName string
	TargetURL   string
	Port        int
	LaunchedAt  time.Time

	mu         sync.RWMutex
	status     Status
	wsEndpoint string
	pid        int
}

// Snapshot is a point-in-time copy of a Session.
type Snapshot struct {
	ID          string
	ProfileName string
	TargetURL   string
	Port        int
	LaunchedAt  time.Time
	Status      Status
	WSEndpoint  string
	PID         int
}

// New creates a session in StatusLaunching with a random UUID.
func New(profileName, targetURL string, port int) *Session {
	return &Session{
		ID:          uuid.NewString(),
		ProfileName: profileName,
		TargetURL:   targetURL,
		Port:        port,
		LaunchedAt:  time.Now(),
		status:      StatusLaunching,
	}
}

// MarkReady records the DevTools endpoint and browser PID.
func (s *Session) MarkReady(wsEndpoint string, pid int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusReady
	s.wsEndpoint = wsEndpoint
	s.pid = pid
}

// MarkFailed moves the session to StatusFailed.
func (s *Session) MarkFailed() {
	s.setStatus(StatusFailed)
}

// MarkStopped moves the session to StatusStopped.
func (s *Session) MarkStopped() {
	s.setStatus(StatusStopped)
}

func (s *Session) setStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// Status returns the current status.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Snapshot returns a copy of the session's current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		ID:          s.ID,
		ProfileName: s.ProfileName,
		TargetURL:   s.TargetURL,
		Port:        s.Port,
		LaunchedAt:  s.LaunchedAt,
		Status:      s.status,
		WSEndpoint:  s.wsEndpoint,
		PID:         s.pid,
	}
}

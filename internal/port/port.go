// Package port probes local TCP ports for the remote debugging endpoint and
// suggests alternatives when a requested port is taken.
package port

import (
	"fmt"
	"net"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/Iron-Ham/devlaunch/internal/errors"
)

const (
	// MinPort is the lowest port a user may request.
	MinPort = 1024
	// MaxPort is the highest valid TCP port.
	MaxPort = 65535

	suggestionCount = 3
	probeHost       = "127.0.0.1"
)

// Outcome is the result of probing a single port.
type Outcome string

const (
	OutcomeAvailable Outcome = "available"
	OutcomeOccupied  Outcome = "occupied"
	OutcomeError     Outcome = "error"
)

// ValidationResult describes one probe. It is created per call and never reused.
type ValidationResult struct {
	Port            int
	RequestedByUser bool
	Outcome         Outcome
	ErrorMessage    string
}

// Available reports whether the probed port can be used.
func (r ValidationResult) Available() bool {
	return r.Outcome == OutcomeAvailable
}

// ValidateRange returns a configuration error when port is outside [MinPort, MaxPort].
func ValidateRange(port int) error {
	if port < MinPort || port > MaxPort {
		return errors.NewConfigError(
			fmt.Sprintf("port must be an integer between %d and %d", MinPort, MaxPort)).
			WithField("port").
			WithValue(port)
	}
	return nil
}

// CheckAvailability binds a listener on 127.0.0.1:port to see whether the port is free.
// Out of range ports are reported as OutcomeError without opening a socket.
func CheckAvailability(port int, requestedByUser bool) ValidationResult {
	result := ValidationResult{Port: port, RequestedByUser: requestedByUser}

	if err := ValidateRange(port); err != nil {
		result.Outcome = OutcomeError
		result.ErrorMessage = err.Error()
		return result
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(probeHost, strconv.Itoa(port)))
	if err != nil {
		if errors.Is(err, unix.EADDRINUSE) {
			result.Outcome = OutcomeOccupied
			result.ErrorMessage = fmt.Sprintf("port %d is already in use", port)
			return result
		}
		result.Outcome = OutcomeError
		result.ErrorMessage = err.Error()
		return result
	}
	_ = ln.Close()

	result.Outcome = OutcomeAvailable
	return result
}

// AutoAllocate validates userPort when one is given. Otherwise it lets the OS
// pick a free port, releases it, and returns it. A failed OS-assigned bind is
// returned as an error since there is no port to report on.
func AutoAllocate(userPort *int) (ValidationResult, error) {
	if userPort != nil {
		return CheckAvailability(*userPort, true), nil
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(probeHost, "0"))
	if err != nil {
		return ValidationResult{}, errors.NewPortConflictError(0, err.Error(), nil)
	}
	defer func() { _ = ln.Close() }()

	addr, ok := ln.Addr().(*net.TCPAddr)
	if !ok {
		return ValidationResult{}, errors.NewPortConflictError(0, "unable to determine assigned port", nil)
	}

	return ValidationResult{
		Port:    addr.Port,
		Outcome: OutcomeAvailable,
	}, nil
}

// SuggestAlternatives returns up to three sequential ports after conflicted,
// stopping at the first candidate above MaxPort.
func SuggestAlternatives(conflicted int) []int {
	suggestions := make([]int, 0, suggestionCount)
	for k := 1; k <= suggestionCount; k++ {
		candidate := conflicted + k
		if candidate > MaxPort {
			break
		}
		suggestions = append(suggestions, candidate)
	}
	return suggestions
}

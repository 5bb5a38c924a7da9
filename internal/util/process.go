package util

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// ExitStatus extracts the exit code and terminating signal name from a
// finished process. The code is -1 and signal is non-empty when the process
// was killed by a signal.
func ExitStatus(state *os.ProcessState) (code int, signal string) {
	if state == nil {
		return -1, ""
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return -1, unix.SignalName(ws.Signal())
	}
	return state.ExitCode(), ""
}

// IsProcessAlive reports whether a process with the given PID exists.
// Signal 0 performs the existence and permission checks without delivering a signal.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}
